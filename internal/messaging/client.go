// Package messaging publishes discovery lifecycle events to NATS. It is
// best-effort and optional: a nil or disconnected client degrades silently,
// since no part of the discovery pipeline depends on message delivery.
package messaging

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// Subjects discovery events are published under.
const (
	SubjectDiscoveryRequested = "discovery.requested"
	SubjectDiscoveryCompleted = "discovery.completed"
)

// Client wraps a plain NATS connection. Discovery events are
// fire-and-forget notifications rather than a durable log a consumer
// needs to replay, so no stream/consumer machinery is kept here.
type Client struct {
	conn   *nats.Conn
	logger *slog.Logger
}

// NewClient connects to url. An empty url means messaging is disabled and
// NewClient returns (nil, nil); callers treat a nil *Client as a no-op.
func NewClient(url string, logger *slog.Logger) (*Client, error) {
	if url == "" {
		return nil, nil
	}

	conn, err := nats.Connect(url,
		nats.Name("topicfind-backend"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(5),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", slog.String("error", err.Error()))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", slog.String("url", nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, err
	}

	logger.Info("nats client connected", slog.String("url", url))
	return &Client{conn: conn, logger: logger}, nil
}

// IsConnected reports whether the client holds a live NATS connection.
func (c *Client) IsConnected() bool {
	return c != nil && c.conn != nil && c.conn.IsConnected()
}

// Publish serializes data as JSON and publishes it to subject. A nil
// client or a disconnected connection degrades to a logged no-op rather
// than an error, since discovery must succeed whether or not NATS is up.
func (c *Client) Publish(subject string, data interface{}) {
	if c == nil || c.conn == nil {
		return
	}
	payload, err := json.Marshal(data)
	if err != nil {
		c.logger.Warn("failed to marshal event", slog.String("subject", subject), slog.String("error", err.Error()))
		return
	}
	if err := c.conn.Publish(subject, payload); err != nil {
		c.logger.Warn("failed to publish event", slog.String("subject", subject), slog.String("error", err.Error()))
	}
}

// Close drains and closes the underlying connection, if any.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}
	return c.conn.Drain()
}
