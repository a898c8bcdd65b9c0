package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Publisher sends a value, encoded as JSON, on a subject.
type Publisher interface {
	Publish(subject string, data interface{}) error
}

// NatsOptions configures the NATS connection.
type NatsOptions struct {
	URL            string
	Name           string
	ConnectTimeout time.Duration
	ReconnectWait  time.Duration
	MaxReconnects  int
}

// NatsPublisher publishes over a NATS connection.
type NatsPublisher struct {
	conn *nats.Conn
}

// NewNatsPublisher connects to the NATS server.
//
// Arguments:
//   - opts: Server URL and reconnection settings.
//
// Returns:
//   - *NatsPublisher: The connected publisher.
//   - error: If no server could be reached.
func NewNatsPublisher(opts NatsOptions) (*NatsPublisher, error) {
	if opts.Name == "" {
		opts.Name = "redscan"
	}

	conn, err := nats.Connect(opts.URL,
		nats.Name(opts.Name),
		nats.Timeout(opts.ConnectTimeout),
		nats.ReconnectWait(opts.ReconnectWait),
		nats.MaxReconnects(opts.MaxReconnects),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "connect to nats %s", opts.URL)
	}

	log.Info().Str("url", opts.URL).Msg("NATS connection established")
	return &NatsPublisher{conn: conn}, nil
}

// Publish marshals data and publishes it on subject.
func (p *NatsPublisher) Publish(subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return errors.Wrap(err, "marshal event")
	}
	return p.conn.Publish(subject, payload)
}

// IsConnected reports whether the connection is up.
func (p *NatsPublisher) IsConnected() bool {
	return p.conn != nil && p.conn.IsConnected()
}

// Shutdown drains pending messages, or closes immediately if draining fails
// or ctx expires first.
func (p *NatsPublisher) Shutdown(ctx context.Context) error {
	if p.conn == nil {
		return nil
	}

	if err := p.conn.Drain(); err != nil {
		log.Warn().Err(err).Msg("Failed to drain NATS connection gracefully, closing immediately")
		p.conn.Close()
		return nil
	}

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for p.conn.IsDraining() {
		select {
		case <-ctx.Done():
			p.conn.Close()
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}
