package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync/atomic"
	"time"

	"shoply-be/internal/logger"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

var ErrPublisherClosed = errors.New("event publisher is closed")

type Publisher interface {
	PublishOrderPlaced(ctx context.Context, evt OrderPlaced) error
	Close() error
}

// messageWriter is the subset of *kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type kafkaPublisher struct {
	writer messageWriter
	topic  string
	closed atomic.Bool
}

// NewKafkaPublisher returns a synchronous publisher writing to topic, or a
// no-op publisher when no brokers are configured.
func NewKafkaPublisher(brokers []string, topic string) Publisher {
	if len(brokers) == 0 {
		return NoopPublisher{}
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
		MaxAttempts:  3,
		Compression:  kafka.Snappy,
		Transport: &kafka.Transport{
			Dial: func(ctx context.Context, network, address string) (net.Conn, error) {
				dialer := &kafka.Dialer{
					Timeout:   10 * time.Second,
					DualStack: true,
					KeepAlive: 30 * time.Second,
				}
				return dialer.DialContext(ctx, network, address)
			},
		},
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			logger.L().Sugar().Errorf("kafka writer: "+msg, args...)
		}),
	}

	return newPublisher(writer, topic)
}

func newPublisher(w messageWriter, topic string) *kafkaPublisher {
	return &kafkaPublisher{writer: w, topic: topic}
}

func (p *kafkaPublisher) PublishOrderPlaced(ctx context.Context, evt OrderPlaced) error {
	if p.closed.Load() {
		return ErrPublisherClosed
	}

	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal order event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte("ORDER#" + strconv.FormatUint(uint64(evt.OrderID), 10)),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(evt.Type)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s to %s: %w", evt.Type, p.topic, err)
	}

	logger.FromCtx(ctx).Debug("order event published",
		zap.String("layer", "events"),
		zap.String("event_id", evt.EventID),
		zap.Uint("order_id", evt.OrderID),
	)
	return nil
}

func (p *kafkaPublisher) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	return p.writer.Close()
}

// NoopPublisher drops every event.
type NoopPublisher struct{}

func (NoopPublisher) PublishOrderPlaced(context.Context, OrderPlaced) error { return nil }

func (NoopPublisher) Close() error { return nil }
