package importer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Harshitk-cp/clubledger/internal/domain"
	"github.com/Harshitk-cp/clubledger/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type added struct {
	tenantID int64
	email    string
	name     string
}

type fakeMembers struct {
	mu    sync.Mutex
	calls []added
	fail  map[string]error
}

func (f *fakeMembers) AddMember(ctx context.Context, tenantID int64, email, name string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail[email]; err != nil {
		return nil, err
	}
	f.calls = append(f.calls, added{tenantID, email, name})
	return &domain.User{ID: int64(len(f.calls)), Email: email, Name: name}, nil
}

type recordingReporter struct {
	mu   sync.Mutex
	tags []map[string]string
}

func (r *recordingReporter) Capture(ctx context.Context, err error, tags map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tags = append(r.tags, tags)
}

func (r *recordingReporter) Flush(time.Duration) {}

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "members.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestImport_AddsMembersAndDeletesOnSuccess(t *testing.T) {
	members := &fakeMembers{}
	m := metrics.New()
	im := New(members, nil, m, zap.NewNop())
	path := writeCSV(t, "Name,E-Mail\nAda,ada@example.com\nBob,bob@example.com\n,\n")

	sum, err := im.Import(context.Background(), path, 7, ColumnMapping{Email: "e-mail", Name: "name"}, Options{DeleteOnSuccess: true})
	require.NoError(t, err)

	assert.Equal(t, 2, sum.Imported)
	assert.Equal(t, 1, sum.Skipped)
	assert.Equal(t, []added{{7, "ada@example.com", "Ada"}, {7, "bob@example.com", "Bob"}}, members.calls)
	assert.Equal(t, float64(2), testutil.ToFloat64(m.ImportedRows.WithLabelValues(RowImported)))

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestImport_KeepsFileWithoutDeleteOption(t *testing.T) {
	im := New(&fakeMembers{}, nil, nil, zap.NewNop())
	path := writeCSV(t, "email\nada@example.com\n")

	_, err := im.Import(context.Background(), path, 1, DefaultMapping(), Options{})
	require.NoError(t, err)
	_, statErr := os.Stat(path)
	assert.NoError(t, statErr)
}

func TestImport_RowFailureKeepsFileAndReports(t *testing.T) {
	members := &fakeMembers{fail: map[string]error{"bad@example.com": errors.New("invalid email")}}
	reporter := &recordingReporter{}
	im := New(members, reporter, nil, zap.NewNop())
	path := writeCSV(t, "email,name\nada@example.com,Ada\nbad@example.com,Bad\n")

	sum, err := im.Import(context.Background(), path, 3, DefaultMapping(), Options{DeleteOnSuccess: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRowsFailed)

	assert.Equal(t, 1, sum.Imported)
	require.Len(t, sum.Errors, 1)
	assert.Equal(t, 3, sum.Errors[0].Line)
	assert.Equal(t, "bad@example.com", sum.Errors[0].Email)

	require.Len(t, reporter.tags, 1)
	assert.Equal(t, "3", reporter.tags[0]["tenant_id"])
	assert.Equal(t, path, reporter.tags[0]["file"])

	_, statErr := os.Stat(path)
	assert.NoError(t, statErr)
}

func TestImport_MissingEmailColumn(t *testing.T) {
	reporter := &recordingReporter{}
	im := New(&fakeMembers{}, reporter, nil, zap.NewNop())
	path := writeCSV(t, "name\nAda\n")

	_, err := im.Import(context.Background(), path, 1, DefaultMapping(), Options{DeleteOnSuccess: true})
	assert.ErrorIs(t, err, ErrMissingColumn)
	assert.Len(t, reporter.tags, 1)

	_, statErr := os.Stat(path)
	assert.NoError(t, statErr)
}

func TestImport_MissingFile(t *testing.T) {
	im := New(&fakeMembers{}, nil, nil, zap.NewNop())
	_, err := im.Import(context.Background(), filepath.Join(t.TempDir(), "nope.csv"), 1, DefaultMapping(), Options{})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestImportReader_EmptyInput(t *testing.T) {
	im := New(&fakeMembers{}, nil, nil, zap.NewNop())
	_, err := im.ImportReader(context.Background(), strings.NewReader(""), "upload", 1, DefaultMapping())
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestImportReader_ByteOrderMarkAndShortRows(t *testing.T) {
	members := &fakeMembers{}
	im := New(members, nil, nil, zap.NewNop())
	input := "\ufeffemail,name\nada@example.com\n"

	sum, err := im.ImportReader(context.Background(), strings.NewReader(input), "upload", 2, DefaultMapping())
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Imported)
	assert.Equal(t, []added{{2, "ada@example.com", ""}}, members.calls)
}
