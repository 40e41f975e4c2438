package matching

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmartynenko/clob-engine/internal/domain"
)

func TestOrderQueue_FIFOPerSingleConsumer(t *testing.T) {
	q := NewOrderQueue()
	for i := uint64(1); i <= 3; i++ {
		q.Enqueue(&domain.Order{ID: i})
	}
	assert.Equal(t, 3, q.Size())

	for i := uint64(1); i <= 3; i++ {
		o, ok := q.TryDequeue()
		require.True(t, ok)
		assert.Equal(t, i, o.ID)
	}
	assert.True(t, q.Empty())

	_, ok := q.TryDequeue()
	assert.False(t, ok)
}

func TestOrderQueue_DequeueBlocksUntilEnqueue(t *testing.T) {
	q := NewOrderQueue()
	done := make(chan *domain.Order, 1)
	go func() {
		o, _ := q.Dequeue()
		done <- o
	}()

	time.Sleep(20 * time.Millisecond)
	select {
	case <-done:
		t.Fatal("dequeue returned before enqueue")
	default:
	}

	q.Enqueue(&domain.Order{ID: 42})
	select {
	case o := <-done:
		assert.EqualValues(t, 42, o.ID)
	case <-time.After(time.Second):
		t.Fatal("dequeue never woke up")
	}
}

func TestOrderQueue_ShutdownDrainsThenReturnsFalse(t *testing.T) {
	q := NewOrderQueue()
	q.Enqueue(&domain.Order{ID: 1})
	q.Shutdown()
	q.Shutdown() // idempotent

	o, ok := q.Dequeue()
	require.True(t, ok)
	assert.EqualValues(t, 1, o.ID)

	_, ok = q.Dequeue()
	assert.False(t, ok)
}

func TestOrderQueue_EnqueueAfterShutdownIsDropped(t *testing.T) {
	q := NewOrderQueue()
	q.Shutdown()
	q.Enqueue(&domain.Order{ID: 1})
	assert.True(t, q.Empty())
}
