package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Nothing listens on port 1, so every write fails.
var unreachable = []string{"127.0.0.1:1"}

func TestPublisher_PublishDoesNotWaitForBroker(t *testing.T) {
	p := newPublisher(unreachable, "treasury.audit", 16, 200*time.Millisecond)
	assert.True(t, p.writer.Async)

	start := time.Now()
	for i := 0; i < 8; i++ {
		assert.NoError(t, p.Publish(context.Background(), "raffle-1", map[string]int{"n": i}))
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond)

	require.NoError(t, p.Close())
}

func TestPublisher_QueueFull(t *testing.T) {
	p := &Publisher{queue: make(chan kafka.Message, 1)}

	require.NoError(t, p.Publish(context.Background(), "k", "first"))
	assert.ErrorIs(t, p.Publish(context.Background(), "k", "second"), ErrQueueFull)
}

func TestPublisher_Closed(t *testing.T) {
	p := newPublisher(unreachable, "treasury.audit", 4, 100*time.Millisecond)

	require.NoError(t, p.Close())
	assert.ErrorIs(t, p.Publish(context.Background(), "k", "late"), ErrClosed)
	assert.NoError(t, p.Close())
}

func TestPublisher_EncodeError(t *testing.T) {
	p := &Publisher{queue: make(chan kafka.Message, 1)}

	assert.Error(t, p.Publish(context.Background(), "k", make(chan int)))
	assert.Empty(t, p.queue)
}
