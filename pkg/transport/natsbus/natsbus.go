// Package natsbus republishes a job's ExecutionEvent stream onto a NATS
// JetStream subject for external subscribers, behind a Publisher the
// scheduler never has to depend on directly.
package natsbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/wehubfusion/rustflow/pkg/logging"
)

// Publisher republishes an already-encoded event payload under a subject.
// The engine depends on this interface, never on *nats.Conn directly, so a
// job can run with no broker configured at all.
type Publisher interface {
	Publish(subject string, payload []byte) error
	Close()
}

// NoopPublisher discards everything. It is the default when no NATS URL is
// configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(string, []byte) error { return nil }
func (NoopPublisher) Close()                       {}

// Config holds the fields a publish-only adapter needs to connect and
// ensure its target stream exists.
type Config struct {
	URL               string
	Name              string
	MaxReconnects     int
	ReconnectWait     time.Duration
	Timeout           time.Duration
	Stream            string
	SubjectPrefix     string
	PublishMaxRetries int
}

// DefaultConfig returns sensible defaults for a given NATS URL.
func DefaultConfig(url string) Config {
	return Config{
		URL:               url,
		Name:              "rustflow-engine",
		MaxReconnects:     10,
		ReconnectWait:     2 * time.Second,
		Timeout:           5 * time.Second,
		Stream:            "RUSTFLOW_EVENTS",
		SubjectPrefix:     "rustflow.events",
		PublishMaxRetries: 3,
	}
}

// JetStreamPublisher publishes ExecutionEvents to a JetStream stream,
// creating it on first use if it doesn't already exist.
type JetStreamPublisher struct {
	conn   *nats.Conn
	js     nats.JetStreamContext
	cfg    Config
	logger logging.Logger
}

// Connect dials NATS and ensures the configured stream exists.
func Connect(ctx context.Context, cfg Config, logger logging.Logger) (*JetStreamPublisher, error) {
	if logger == nil {
		logger = logging.NoOp{}
	}
	if cfg.URL == "" {
		return nil, fmt.Errorf("natsbus: URL is required")
	}

	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.Timeout),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("natsbus disconnected", logging.Err(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("natsbus reconnected", logging.String("url", nc.ConnectedUrl()))
		}),
	}

	type result struct {
		conn *nats.Conn
		err  error
	}
	resultCh := make(chan result, 1)
	go func() {
		conn, err := nats.Connect(cfg.URL, opts...)
		resultCh <- result{conn: conn, err: err}
	}()

	var conn *nats.Conn
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("natsbus: connect cancelled: %w", ctx.Err())
	case res := <-resultCh:
		if res.err != nil {
			return nil, fmt.Errorf("natsbus: connect failed: %w", res.err)
		}
		conn = res.conn
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("natsbus: jetstream context: %w", err)
	}

	if cfg.Stream != "" {
		_, err := js.StreamInfo(cfg.Stream)
		if err != nil {
			_, createErr := js.AddStream(&nats.StreamConfig{
				Name:     cfg.Stream,
				Subjects: []string{cfg.SubjectPrefix + ".>"},
			})
			if createErr != nil {
				logger.Warn("natsbus failed to ensure stream", logging.String("stream", cfg.Stream), logging.Err(createErr))
			}
		}
	}

	return &JetStreamPublisher{conn: conn, js: js, cfg: cfg, logger: logger}, nil
}

// Publish sends payload to subject, retrying up to PublishMaxRetries times.
func (p *JetStreamPublisher) Publish(subject string, payload []byte) error {
	var lastErr error
	for attempt := 0; attempt <= p.cfg.PublishMaxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(time.Duration(attempt) * 100 * time.Millisecond)
		}
		_, err := p.js.Publish(subject, payload)
		if err == nil {
			return nil
		}
		lastErr = err
		p.logger.Warn("natsbus publish failed", logging.String("subject", subject), logging.Int("attempt", attempt), logging.Err(err))
	}
	return fmt.Errorf("natsbus: publish failed after retries: %w", lastErr)
}

// Close drains the underlying connection, allowing in-flight publishes to
// complete before disconnecting.
func (p *JetStreamPublisher) Close() {
	if p.conn == nil {
		return
	}
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
	}
}

var _ Publisher = (*JetStreamPublisher)(nil)
var _ Publisher = NoopPublisher{}

// EventEncoder encodes a value to JSON for publishing, matching the wire
// form the engine package's MarshalEvent produces without importing the
// engine package here (avoiding an import cycle, since engine imports
// natsbus to install the forwarding hook).
func EventEncoder(v interface{}) ([]byte, error) { return json.Marshal(v) }
