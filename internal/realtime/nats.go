package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// NATSPublisher emits document events on per-document NATS subjects.
type NATSPublisher struct {
	conn *nats.Conn
	log  *zap.Logger
}

// NewNATSPublisher connects to the NATS servers (comma-separated URL list).
func NewNATSPublisher(servers, name string, logger *zap.Logger) (*NATSPublisher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	conn, err := nats.Connect(servers,
		nats.Name(name),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}

	return &NATSPublisher{conn: conn, log: logger}, nil
}

// Publish implements Publisher. Errors are logged here as well as
// returned, since callers deliberately ignore them.
func (p *NATSPublisher) Publish(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		p.log.Error("realtime event marshal failed", zap.String("type", event.Type), zap.Error(err))
		return err
	}

	if err := p.conn.Publish(Subject(event.DocumentID), data); err != nil {
		p.log.Error("realtime publish failed",
			zap.String("subject", Subject(event.DocumentID)),
			zap.String("type", event.Type),
			zap.Error(err))
		return err
	}
	return nil
}

// Close drains in-flight messages and closes the connection.
func (p *NATSPublisher) Close() error {
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
		return err
	}
	return nil
}
