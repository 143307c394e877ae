package queue

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propdash/server/internal/models"
)

func testBatch(rows int) *models.EnrichmentBatch {
	batch := &models.EnrichmentBatch{}
	for i := 0; i < rows; i++ {
		batch.Rows = append(batch.Rows, &models.PropertyResult{})
	}
	return batch
}

func TestQueuePushAndDeliver(t *testing.T) {
	q := NewBatchQueue(10, logrus.New())
	defer q.Close()

	var mu sync.Mutex
	var delivered []*models.EnrichmentBatch
	q.Subscribe(func(batch *models.EnrichmentBatch) error {
		mu.Lock()
		defer mu.Unlock()
		delivered = append(delivered, batch)
		return nil
	})
	q.Start()

	require.NoError(t, q.Push(testBatch(3)))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(delivered) == 1 && len(delivered[0].Rows) == 3
	}, time.Second, 10*time.Millisecond)
}

func TestQueueFull(t *testing.T) {
	q := NewBatchQueue(1, nil)
	defer q.Close()

	// No consumer started; second push must not block.
	require.NoError(t, q.Push(testBatch(1)))
	assert.ErrorIs(t, q.Push(testBatch(1)), ErrQueueFull)
	assert.Equal(t, 1, q.Len())
}

func TestQueueCloseDuringPush(t *testing.T) {
	q := NewBatchQueue(1, nil)
	q.Subscribe(func(*models.EnrichmentBatch) error { return nil })
	q.Start()

	// Hammer Push from several goroutines while Close lands; a send on
	// the closed channel would panic and fail the test.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if err := q.Push(testBatch(1)); errors.Is(err, ErrQueueClosed) {
					return
				}
			}
		}()
	}

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, q.Close())
	wg.Wait()

	assert.ErrorIs(t, q.Push(testBatch(1)), ErrQueueClosed)
}

func TestQueueClosed(t *testing.T) {
	q := NewBatchQueue(10, nil)
	require.NoError(t, q.Close())

	assert.True(t, q.IsClosed())
	assert.ErrorIs(t, q.Push(testBatch(1)), ErrQueueClosed)

	// Closing twice is a no-op.
	assert.NoError(t, q.Close())
}
