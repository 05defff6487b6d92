// Package events publishes run lifecycle events to NATS for external
// listeners (dashboards, notification bots). Publication is optional and
// fire-and-forget: a nil publisher is valid and event loss never fails a run.
package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/docpipe/internal/logfields"
)

// Event types emitted over the run lifecycle.
const (
	TypeRunStarted     = "run_started"
	TypeStageCompleted = "stage_completed"
	TypeRunCompleted   = "run_completed"
)

// Event is the wire payload published per lifecycle transition.
type Event struct {
	Type      string    `json:"type"`
	RunID     string    `json:"run_id"`
	Branch    string    `json:"branch,omitempty"`
	Revision  string    `json:"revision,omitempty"`
	Stage     string    `json:"stage,omitempty"`
	Outcome   string    `json:"outcome,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher publishes events to a NATS subject.
type Publisher struct {
	conn    *nats.Conn
	subject string
}

// Connect creates a publisher. Returns an error when the server is
// unreachable; callers decide whether that is fatal.
func Connect(url, subject string) (*Publisher, error) {
	conn, err := nats.Connect(url, nats.Name("docpipe"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	slog.Info("NATS event publisher connected", logfields.URL(url), slog.String("subject", subject))
	return &Publisher{conn: conn, subject: subject}, nil
}

// Publish sends an event. Safe on a nil publisher; marshal or publish
// problems are logged, never propagated.
func (p *Publisher) Publish(event Event) {
	if p == nil || p.conn == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		slog.Warn("Failed to marshal run event", logfields.Error(err))
		return
	}
	if err := p.conn.Publish(p.subject, payload); err != nil {
		slog.Warn("Failed to publish run event", logfields.Error(err), logfields.RunID(event.RunID))
	}
}

// Close drains and closes the connection. Safe on a nil publisher.
func (p *Publisher) Close() {
	if p == nil || p.conn == nil {
		return
	}
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
	}
}
