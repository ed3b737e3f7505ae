// Package importer attaches members to a tenant from a CSV file with a
// header row.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Harshitk-cp/clubledger/internal/domain"
	"github.com/Harshitk-cp/clubledger/internal/metrics"
	"github.com/Harshitk-cp/clubledger/internal/monitoring"
	"go.uber.org/zap"
)

var (
	ErrMissingColumn = errors.New("required column missing from header")
	ErrEmptyFile     = errors.New("file has no header row")
	ErrRowsFailed    = errors.New("one or more rows failed")
)

// Row results recorded in metrics.
const (
	RowImported = "imported"
	RowSkipped  = "skipped"
	RowFailed   = "failed"
)

// MemberAdder finds or creates the user with email, attaches them to the
// tenant and announces the new membership.
type MemberAdder interface {
	AddMember(ctx context.Context, tenantID int64, email, name string) (*domain.User, error)
}

// ColumnMapping names the header columns holding each field. Email is required.
type ColumnMapping struct {
	Email string
	Name  string
}

func DefaultMapping() ColumnMapping {
	return ColumnMapping{Email: "email", Name: "name"}
}

type Options struct {
	DeleteOnSuccess bool
}

// RowError describes a row that could not be imported. Line is 1-based and
// counts the header.
type RowError struct {
	Line  int
	Email string
	Err   error
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d (%s): %v", e.Line, e.Email, e.Err)
}

func (e RowError) Unwrap() error { return e.Err }

type Summary struct {
	Imported int
	Skipped  int
	Errors   []RowError
}

type Importer struct {
	members  MemberAdder
	reporter monitoring.Reporter
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

func New(members MemberAdder, reporter monitoring.Reporter, m *metrics.Metrics, logger *zap.Logger) *Importer {
	if reporter == nil {
		reporter = monitoring.Nop{}
	}
	return &Importer{members: members, reporter: reporter, metrics: m, logger: logger}
}

// Import reads path and attaches every listed user to tenantID. The file is
// kept when anything fails; on success it is removed if opts asks for it.
func (im *Importer) Import(ctx context.Context, path string, tenantID int64, mapping ColumnMapping, opts Options) (Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		err = fmt.Errorf("open import file: %w", err)
		im.fail(ctx, path, tenantID, err)
		return Summary{}, err
	}

	sum, err := im.ImportReader(ctx, f, path, tenantID, mapping)
	f.Close()
	if err != nil {
		return sum, err
	}

	if opts.DeleteOnSuccess {
		if err := os.Remove(path); err != nil {
			im.logger.Warn("failed to remove imported file", zap.String("file", path), zap.Error(err))
		}
	}
	return sum, nil
}

// ImportReader imports rows from r. source names the input in logs and
// reports. Row failures do not stop the import but make it return
// ErrRowsFailed alongside the summary.
func (im *Importer) ImportReader(ctx context.Context, r io.Reader, source string, tenantID int64, mapping ColumnMapping) (Summary, error) {
	var sum Summary

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = ErrEmptyFile
		}
		err = fmt.Errorf("read header: %w", err)
		im.fail(ctx, source, tenantID, err)
		return sum, err
	}

	emailIdx, nameIdx, err := columns(header, mapping)
	if err != nil {
		im.fail(ctx, source, tenantID, err)
		return sum, err
	}

	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			sum.Errors = append(sum.Errors, RowError{Line: line, Err: err})
			im.metrics.RecordImportRow(RowFailed)
			continue
		}
		if err := ctx.Err(); err != nil {
			im.fail(ctx, source, tenantID, err)
			return sum, err
		}

		email := field(rec, emailIdx)
		if email == "" {
			sum.Skipped++
			im.metrics.RecordImportRow(RowSkipped)
			continue
		}

		if _, err := im.members.AddMember(ctx, tenantID, email, field(rec, nameIdx)); err != nil {
			sum.Errors = append(sum.Errors, RowError{Line: line, Email: email, Err: err})
			im.metrics.RecordImportRow(RowFailed)
			continue
		}
		sum.Imported++
		im.metrics.RecordImportRow(RowImported)
	}

	if len(sum.Errors) > 0 {
		errs := make([]error, 0, len(sum.Errors))
		for _, re := range sum.Errors {
			errs = append(errs, re)
		}
		err := fmt.Errorf("%w: %w", ErrRowsFailed, errors.Join(errs...))
		im.fail(ctx, source, tenantID, err)
		return sum, err
	}

	im.logger.Info("member import finished",
		zap.Int64("tenant_id", tenantID),
		zap.String("file", source),
		zap.Int("imported", sum.Imported),
		zap.Int("skipped", sum.Skipped))
	return sum, nil
}

func (im *Importer) fail(ctx context.Context, source string, tenantID int64, err error) {
	im.logger.Error("member import failed",
		zap.Int64("tenant_id", tenantID),
		zap.String("file", source),
		zap.Error(err))
	im.reporter.Capture(ctx, err, map[string]string{
		"tenant_id": strconv.FormatInt(tenantID, 10),
		"file":      source,
	})
}

func columns(header []string, mapping ColumnMapping) (emailIdx, nameIdx int, err error) {
	if mapping.Email == "" {
		mapping.Email = "email"
	}
	emailIdx, nameIdx = -1, -1
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		switch {
		case strings.EqualFold(h, mapping.Email):
			emailIdx = i
		case mapping.Name != "" && strings.EqualFold(h, mapping.Name):
			nameIdx = i
		}
	}
	if emailIdx < 0 {
		return -1, -1, fmt.Errorf("%w: %q", ErrMissingColumn, mapping.Email)
	}
	return emailIdx, nameIdx, nil
}

func field(rec []string, idx int) string {
	if idx < 0 || idx >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[idx])
}
