package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/metapublish/internal/core/domain"
)

type fakeConn struct {
	subject  string
	data     []byte
	pubErr   error
	flushErr error
	drained  bool
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	if f.pubErr != nil {
		return f.pubErr
	}
	f.subject, f.data = subject, data
	return nil
}

func (f *fakeConn) FlushTimeout(time.Duration) error { return f.flushErr }

func (f *fakeConn) Drain() error {
	f.drained = true
	return nil
}

func finishedStats() domain.RunStats {
	start := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	s := domain.NewRunStats("run-1", "P", start)
	s.AddUpdates(3)
	s.AddDelete()
	s.Finish(start.Add(1500 * time.Millisecond))
	return *s
}

func TestNewRunEvent(t *testing.T) {
	ev := NewRunEvent(finishedStats(), nil)

	assert.Equal(t, "run-1", ev.RunID)
	assert.Equal(t, "P", ev.ProviderID)
	assert.Equal(t, StatusOK, ev.Status)
	assert.Empty(t, ev.Error)
	assert.Equal(t, 3, ev.Updates)
	assert.Equal(t, 1, ev.Deletes)
	assert.InDelta(t, 1.5, ev.ElapsedSeconds, 0.0001)
	assert.Equal(t, "Processed in 1.500/seconds: 3/updates, 1/deletes, 0/skipped", ev.Summary)
}

func TestNewRunEvent_Failed(t *testing.T) {
	ev := NewRunEvent(finishedStats(), errors.New("query provider subjects: boom"))

	assert.Equal(t, StatusFailed, ev.Status)
	assert.Equal(t, "query provider subjects: boom", ev.Error)
}

func TestNATSNotifier_NotifyRun(t *testing.T) {
	nc := &fakeConn{}
	n := newNotifier(nc, "")

	require.NoError(t, n.NotifyRun(context.Background(), finishedStats(), nil))

	assert.Equal(t, DefaultSubject, nc.subject)
	var got map[string]any
	require.NoError(t, json.Unmarshal(nc.data, &got))
	assert.Equal(t, "run-1", got["run_id"])
	assert.Equal(t, "ok", got["status"])
	assert.NotContains(t, got, "error")
	assert.Equal(t, "2026-05-04T10:00:00Z", got["started_at"])
}

func TestNATSNotifier_CustomSubject(t *testing.T) {
	nc := &fakeConn{}
	n := newNotifier(nc, "hpc-ed.publish")

	require.NoError(t, n.NotifyRun(context.Background(), finishedStats(), nil))
	assert.Equal(t, "hpc-ed.publish", nc.subject)
}

func TestNATSNotifier_Errors(t *testing.T) {
	pub := newNotifier(&fakeConn{pubErr: errors.New("nats: connection closed")}, "")
	err := pub.NotifyRun(context.Background(), finishedStats(), nil)
	assert.ErrorContains(t, err, "publish to metapublish.runs")

	flush := newNotifier(&fakeConn{flushErr: errors.New("nats: timeout")}, "")
	err = flush.NotifyRun(context.Background(), finishedStats(), nil)
	assert.ErrorContains(t, err, "flush")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	nc := &fakeConn{}
	err = newNotifier(nc, "").NotifyRun(ctx, finishedStats(), nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, nc.data)
}

func TestNATSNotifier_CloseDrains(t *testing.T) {
	nc := &fakeConn{}

	require.NoError(t, newNotifier(nc, "").Close())
	assert.True(t, nc.drained)
}

func TestNewNATSNotifier_Unreachable(t *testing.T) {
	_, err := NewNATSNotifier("nats://127.0.0.1:1", "")

	assert.ErrorContains(t, err, "connect to nats")
}
