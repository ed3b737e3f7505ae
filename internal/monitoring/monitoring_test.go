package monitoring

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingTransport struct {
	events []*sentry.Event
}

func (t *recordingTransport) Configure(sentry.ClientOptions)        {}
func (t *recordingTransport) SendEvent(e *sentry.Event)             { t.events = append(t.events, e) }
func (t *recordingTransport) Flush(time.Duration) bool              { return true }
func (t *recordingTransport) FlushWithContext(context.Context) bool { return true }
func (t *recordingTransport) Close()                                {}

func TestNewReporterWithoutDSNIsNop(t *testing.T) {
	r, started, err := NewReporter(SentryConfig{})
	require.NoError(t, err)
	assert.False(t, started)
	assert.IsType(t, Nop{}, r)

	// must not panic
	r.Capture(context.Background(), errors.New("boom"), nil)
	r.Flush(time.Millisecond)
}

func TestSentryReporterAttachesTags(t *testing.T) {
	transport := &recordingTransport{}
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:       "https://public@sentry.example.com/1",
		Transport: transport,
	})
	require.NoError(t, err)

	r := &SentryReporter{hub: sentry.NewHub(client, sentry.NewScope())}
	r.Capture(context.Background(), errors.New("role bootstrap failed"), map[string]string{"tenant_id": "42"})
	r.Capture(context.Background(), nil, nil)

	require.Len(t, transport.events, 1)
	assert.Equal(t, "42", transport.events[0].Tags["tenant_id"])
}
