package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	defaultQueueSize    = 1024
	defaultWriteTimeout = 5 * time.Second
	closeFlushTimeout   = 5 * time.Second
)

var (
	ErrQueueFull = errors.New("kafka publish queue is full")
	ErrClosed    = errors.New("kafka publisher is closed")
)

// Publisher hands events to a background sender, so a slow or unreachable
// broker never holds up the caller.
type Publisher struct {
	writer       *kafka.Writer
	writeTimeout time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan kafka.Message
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func NewPublisher(brokers []string, topic string) *Publisher {
	return newPublisher(brokers, topic, defaultQueueSize, defaultWriteTimeout)
}

func newPublisher(brokers []string, topic string, queueSize int, writeTimeout time.Duration) *Publisher {
	ctx, cancel := context.WithCancel(context.Background())

	p := &Publisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			BatchTimeout:           10 * time.Millisecond,
			WriteTimeout:           writeTimeout,
			AllowAutoTopicCreation: true,
			Async:                  true,
			Completion:             logFailedDelivery,
		},
		writeTimeout: writeTimeout,
		queue:        make(chan kafka.Message, queueSize),
		ctx:          ctx,
		cancel:       cancel,
		done:         make(chan struct{}),
	}

	go p.run()

	return p
}

// Publish encodes event as JSON and queues it. Messages sharing a key land
// on the same partition, so per-key order is kept.
func (p *Publisher) Publish(_ context.Context, key string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("json.Marshal -> %w", err)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrClosed
	}

	select {
	case p.queue <- kafka.Message{Key: []byte(key), Value: data}:
		return nil
	default:
		return ErrQueueFull
	}
}

func (p *Publisher) run() {
	defer close(p.done)

	for msg := range p.queue {
		ctx, cancel := context.WithTimeout(p.ctx, p.writeTimeout)
		err := p.writer.WriteMessages(ctx, msg)
		cancel()
		if err != nil {
			zap.L().Warn("failed to publish audit event",
				zap.ByteString("key", msg.Key),
				zap.Error(err))
		}
	}
}

// Close stops accepting events and flushes the queue. Events still pending
// after the flush timeout are dropped.
func (p *Publisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	select {
	case <-p.done:
	case <-time.After(closeFlushTimeout):
		p.cancel()
		<-p.done
	}
	p.cancel()

	return p.writer.Close()
}

func logFailedDelivery(messages []kafka.Message, err error) {
	if err == nil {
		return
	}

	zap.L().Warn("kafka rejected audit events",
		zap.Int("count", len(messages)),
		zap.Error(err))
}
