// Package publish mirrors monitor streams onto NATS subjects for external
// consumers. Delivery is fire-and-forget: a broker outage degrades to
// debug logs, never to backpressure on the capture path.
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/patgov/audiomon/internal/monitor"
)

// Published subjects.
const (
	SubjectLevels   = "audiomon.levels"
	SubjectWarnings = "audiomon.warnings"
	SubjectSelected = "audiomon.selected"
)

// DefaultLevelInterval throttles mirrored level samples.
const DefaultLevelInterval = 40 * time.Millisecond

// Connection is the part of *nats.Conn used here, kept as an
// interface so tests can inject a recorder.
type Connection interface {
	Publish(subject string, data []byte) error
	Close()
}

type connAdapter struct{ conn *nats.Conn }

func (a connAdapter) Publish(subject string, data []byte) error {
	return a.conn.Publish(subject, data)
}

func (a connAdapter) Close() { a.conn.Close() }

// Publisher forwards published monitor streams to a broker.
type Publisher struct {
	conn          Connection
	levelInterval time.Duration
}

// Connect dials the broker and returns a publisher over it. The
// connection keeps retrying in the background if the broker is down.
func Connect(url string) (*Publisher, error) {
	nc, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}
	slog.Info("connected to NATS", "url", url)
	return NewWithConnection(connAdapter{conn: nc}), nil
}

// NewWithConnection creates a publisher over an existing connection.
func NewWithConnection(conn Connection) *Publisher {
	return &Publisher{conn: conn, levelInterval: DefaultLevelInterval}
}

// Run mirrors mon's level, warning, and selection streams until ctx is
// done. Call on its own goroutine.
func (p *Publisher) Run(ctx context.Context, mon *monitor.Coordinator) {
	levels, cancelLevels := mon.Levels.Subscribe(1)
	defer cancelLevels()
	warnings, cancelWarnings := mon.Warnings.Subscribe(1)
	defer cancelWarnings()
	selected, cancelSelected := mon.Selected.Subscribe(1)
	defer cancelSelected()

	var lastLevel time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case sample, ok := <-levels:
			if !ok {
				return
			}
			if time.Since(lastLevel) < p.levelInterval {
				continue
			}
			lastLevel = time.Now()
			p.send(SubjectLevels, sample)
		case warn, ok := <-warnings:
			if !ok {
				return
			}
			p.send(SubjectWarnings, warn)
		case sel, ok := <-selected:
			if !ok {
				return
			}
			p.send(SubjectSelected, map[string]any{
				"uid":  sel.UID,
				"name": sel.Name,
				"none": sel.IsNone(),
			})
		}
	}
}

// Close releases the broker connection.
func (p *Publisher) Close() {
	if p.conn != nil {
		p.conn.Close()
	}
}

func (p *Publisher) send(subject string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Debug("publish marshal error", "subject", subject, "error", err)
		return
	}
	if err := p.conn.Publish(subject, data); err != nil {
		slog.Debug("publish error", "subject", subject, "error", err)
	}
}
