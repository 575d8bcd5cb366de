package event

import (
	"context"
	"fmt"

	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/shared"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/infrastructure/config"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// DefaultSubjectPrefix is prepended to every relayed event type
const DefaultSubjectPrefix = "flowsales"

// NATSPublisher is the part of *nats.Conn the forwarder uses
type NATSPublisher interface {
	Publish(subj string, data []byte) error
}

// ConnectNATS dials the configured server and logs connection changes
func ConnectNATS(cfg config.EventsConfig, logger *zap.Logger) (*nats.Conn, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	name := cfg.ClientName
	if name == "" {
		name = DefaultSubjectPrefix
	}
	conn, err := nats.Connect(cfg.URL,
		nats.Name(name),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("NATS reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS at %s: %w", cfg.URL, err)
	}
	return conn, nil
}

// NATSForwarder publishes events on core NATS subjects <prefix>.<EventType>
type NATSForwarder struct {
	conn   NATSPublisher
	prefix string
	codec  *Codec
	logger *zap.Logger
}

// NewNATSForwarder relays over an established connection. An empty prefix
// means DefaultSubjectPrefix.
func NewNATSForwarder(conn NATSPublisher, prefix string, logger *zap.Logger) *NATSForwarder {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NATSForwarder{conn: conn, prefix: prefix, codec: NewCodec(), logger: logger}
}

// Subject returns the subject eventType is published on
func (f *NATSForwarder) Subject(eventType string) string {
	return f.prefix + "." + eventType
}

// Forward implements Forwarder
func (f *NATSForwarder) Forward(ctx context.Context, event shared.DomainEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := f.codec.Encode(event)
	if err != nil {
		return err
	}
	subject := f.Subject(event.EventType())
	if err := f.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	f.logger.Debug("Event forwarded",
		zap.String("subject", subject),
		zap.String("event_id", event.EventID().String()),
	)
	return nil
}

// Tail delivers every event published under prefix to fn until ctx ends.
// Messages that do not decode are passed with a nil event and an error.
func Tail(ctx context.Context, conn *nats.Conn, prefix string, fn func(subject string, env *Envelope, ev shared.DomainEvent, err error)) error {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	msgs := make(chan *nats.Msg, 64)
	sub, err := conn.ChanSubscribe(prefix+".>", msgs)
	if err != nil {
		return fmt.Errorf("subscribe to %s.>: %w", prefix, err)
	}
	defer func() { _ = sub.Unsubscribe() }()
	if err := conn.Flush(); err != nil {
		return fmt.Errorf("flush subscription: %w", err)
	}

	codec := NewCodec()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-msgs:
			env, ev, err := codec.Decode(msg.Data)
			fn(msg.Subject, env, ev, err)
		}
	}
}

var _ Forwarder = (*NATSForwarder)(nil)
