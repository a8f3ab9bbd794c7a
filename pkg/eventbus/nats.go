package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// NATS publishes changes as JSON on "<prefix>.<kind>.<action>".
type NATS struct {
	conn   *nats.Conn
	prefix string
	logger *zap.Logger
}

// ConnectNATS dials url with reconnects enabled.
func ConnectNATS(url, prefix string, logger *zap.Logger) (*NATS, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	conn, err := nats.Connect(url,
		nats.Name("event-idea-marketplace"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", url, err)
	}
	return &NATS{conn: conn, prefix: prefix, logger: logger}, nil
}

func (n *NATS) Publish(ctx context.Context, change Change) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("encode change: %w", err)
	}
	subject := joinSubject(n.prefix, change.Subject())
	if err := n.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// Subscribe delivers decoded changes matching pattern (relative to the prefix, e.g. "event.>").
// Undecodable messages are logged and skipped.
func (n *NATS) Subscribe(pattern string, fn func(Change)) (func() error, error) {
	sub, err := n.conn.Subscribe(joinSubject(n.prefix, pattern), func(msg *nats.Msg) {
		var change Change
		if err := json.Unmarshal(msg.Data, &change); err != nil {
			n.logger.Warn("drop malformed change", zap.String("subject", msg.Subject), zap.Error(err))
			return
		}
		fn(change)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", pattern, err)
	}
	return sub.Unsubscribe, nil
}

// Close flushes pending messages and closes the connection.
func (n *NATS) Close() error {
	if n.conn == nil {
		return nil
	}
	if err := n.conn.FlushTimeout(2 * time.Second); err != nil {
		n.logger.Warn("nats flush failed", zap.Error(err))
	}
	n.conn.Close()
	return nil
}
