// Package notify publishes run summaries to NATS so other services can react
// to a finished publishing run.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/custodia-labs/metapublish/internal/core/domain"
	"github.com/custodia-labs/metapublish/internal/core/ports/driven"
	"github.com/custodia-labs/metapublish/internal/logger"
)

// DefaultSubject is used when notify.subject is not configured.
const DefaultSubject = "metapublish.runs"

// Run outcomes.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

const flushTimeout = 5 * time.Second

// RunEvent is the JSON message published after each run.
type RunEvent struct {
	RunID          string    `json:"run_id"`
	ProviderID     string    `json:"provider_id"`
	Status         string    `json:"status"`
	Error          string    `json:"error,omitempty"`
	Updates        int       `json:"updates"`
	Deletes        int       `json:"deletes"`
	Skipped        int       `json:"skipped"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
	ElapsedSeconds float64   `json:"elapsed_seconds"`
	Summary        string    `json:"summary"`
}

// NewRunEvent builds the message for a finished run.
func NewRunEvent(stats domain.RunStats, runErr error) RunEvent {
	ev := RunEvent{
		RunID:          stats.RunID,
		ProviderID:     stats.ProviderID,
		Status:         StatusOK,
		Updates:        stats.Update,
		Deletes:        stats.Delete,
		Skipped:        stats.Skip,
		StartedAt:      stats.Start,
		FinishedAt:     stats.End,
		ElapsedSeconds: stats.Elapsed().Seconds(),
		Summary:        stats.Summary(),
	}
	if runErr != nil {
		ev.Status = StatusFailed
		ev.Error = runErr.Error()
	}
	return ev
}

// conn is the part of *nats.Conn the notifier uses.
type conn interface {
	Publish(subject string, data []byte) error
	FlushTimeout(timeout time.Duration) error
	Drain() error
}

// Ensure NATSNotifier implements the interface.
var _ driven.Notifier = (*NATSNotifier)(nil)

// NATSNotifier publishes RunEvents with core NATS (at-most-once).
type NATSNotifier struct {
	nc      conn
	subject string
}

// NewNATSNotifier connects to the NATS server at url.
func NewNATSNotifier(url, subject string) (*NATSNotifier, error) {
	opts := []nats.Option{
		nats.Name("metapublish"),
		nats.Timeout(10 * time.Second),
		nats.MaxReconnects(5),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected: %v", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected to %s", nc.ConnectedUrl())
		}),
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to nats %s: %w", url, err)
	}
	return newNotifier(nc, subject), nil
}

func newNotifier(nc conn, subject string) *NATSNotifier {
	if subject == "" {
		subject = DefaultSubject
	}
	return &NATSNotifier{nc: nc, subject: subject}
}

// NotifyRun publishes the run event and waits for the server to take it.
func (n *NATSNotifier) NotifyRun(ctx context.Context, stats domain.RunStats, runErr error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(NewRunEvent(stats, runErr))
	if err != nil {
		return fmt.Errorf("encode run event: %w", err)
	}
	if err := n.nc.Publish(n.subject, data); err != nil {
		return fmt.Errorf("publish to %s: %w", n.subject, err)
	}
	if err := n.nc.FlushTimeout(flushTimeout); err != nil {
		return fmt.Errorf("flush to %s: %w", n.subject, err)
	}

	logger.Debug("Run %s: notified %s", stats.RunID, n.subject)
	return nil
}

// Close drains pending messages and closes the connection.
func (n *NATSNotifier) Close() error {
	return n.nc.Drain()
}
