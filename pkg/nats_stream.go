package pkg

import (
	"context"
	"fmt"
	"time"

	"github.com/appetiteclub/seatside/pkg/lib/core"
	"github.com/appetiteclub/seatside/pkg/lib/events"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// NATSStream publishes and consumes through a JetStream stream so events
// survive a consumer restart.
type NATSStream struct {
	conn     *nats.Conn
	js       jetstream.JetStream
	stream   jetstream.Stream
	cfg      NATSStreamConfig
	logger   core.Logger
	consumer jetstream.ConsumeContext
}

// NATSStreamConfig configures a NATSStream instance.
type NATSStreamConfig struct {
	URL          string        // NATS server URL
	StreamName   string        // JetStream stream name, e.g. "LEDGER_ORDERS"
	Topic        string        // subject bound to the stream, e.g. "ledgers.orders"
	ConsumerName string        // durable consumer name; empty for publish-only use
	MaxAge       time.Duration // retention
	MaxMsgs      int64         // 0 = unlimited
	// ReplayAll delivers retained messages to a new consumer instead of only
	// new ones.
	ReplayAll bool
}

// NATSStreamConfigFrom reads the nats.stream.* keys.
func NATSStreamConfigFrom(cfg *core.Config, consumerName string) NATSStreamConfig {
	return NATSStreamConfig{
		URL:          cfg.GetStringOrDef("nats.url", "nats://localhost:4222"),
		StreamName:   cfg.GetStringOrDef("nats.stream.name", "LEDGER_ORDERS"),
		Topic:        cfg.GetStringOrDef("nats.stream.topic", "ledgers.orders"),
		ConsumerName: consumerName,
		MaxAge:       cfg.GetDurationOrDef("nats.stream.max_age", 24*time.Hour),
		MaxMsgs:      int64(cfg.GetIntOrDef("nats.stream.max_msgs", 0)),
		ReplayAll:    cfg.GetBoolOrDef("nats.stream.replay", false),
	}
}

// NewNATSStream connects and ensures the stream exists.
func NewNATSStream(cfg NATSStreamConfig, logger core.Logger) (*NATSStream, error) {
	if logger == nil {
		logger = core.NewNoopLogger()
	}

	conn, err := nats.Connect(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	streamConfig := jetstream.StreamConfig{
		Name:     cfg.StreamName,
		Subjects: []string{cfg.Topic},
		MaxAge:   cfg.MaxAge,
	}
	if cfg.MaxMsgs > 0 {
		streamConfig.MaxMsgs = cfg.MaxMsgs
	}

	stream, err := js.CreateOrUpdateStream(context.Background(), streamConfig)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create/update stream %s: %w", cfg.StreamName, err)
	}

	return &NATSStream{
		conn:   conn,
		js:     js,
		stream: stream,
		cfg:    cfg,
		logger: logger,
	}, nil
}

// Publish publishes a message to the stream.
func (s *NATSStream) Publish(ctx context.Context, topic string, msg []byte) error {
	if _, err := s.js.Publish(ctx, topic, msg); err != nil {
		return fmt.Errorf("failed to publish to stream: %w", err)
	}
	return nil
}

// Subscribe consumes topic through the durable consumer. Handler errors are
// negatively acknowledged so the message is redelivered.
func (s *NATSStream) Subscribe(ctx context.Context, topic string, handler events.HandlerFunc) error {
	if s.cfg.ConsumerName == "" {
		return fmt.Errorf("stream %s has no consumer name", s.cfg.StreamName)
	}

	deliver := jetstream.DeliverNewPolicy
	if s.cfg.ReplayAll {
		deliver = jetstream.DeliverAllPolicy
	}

	consumer, err := s.stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		Name:          s.cfg.ConsumerName,
		Durable:       s.cfg.ConsumerName,
		AckPolicy:     jetstream.AckExplicitPolicy,
		DeliverPolicy: deliver,
		FilterSubject: topic,
	})
	if err != nil {
		return fmt.Errorf("failed to create/update consumer %s: %w", s.cfg.ConsumerName, err)
	}

	cc, err := consumer.Consume(func(msg jetstream.Msg) {
		if err := handler(ctx, msg.Data()); err != nil {
			s.logger.Error("stream handler failed", "topic", msg.Subject(), "error", err)
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	})
	if err != nil {
		return fmt.Errorf("failed to consume %s: %w", topic, err)
	}

	s.consumer = cc
	return nil
}

// Close stops consumption and closes the NATS connection.
func (s *NATSStream) Close() error {
	if s.consumer != nil {
		s.consumer.Stop()
	}
	s.conn.Close()
	return nil
}
