package queue

import (
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"propdash/server/internal/models"
)

var (
	ErrQueueFull   = errors.New("queue is full")
	ErrQueueClosed = errors.New("queue is closed")
)

// BatchQueue is an in-memory queue of enrichment batches. It decouples
// the pure aggregation pass from the slow network enrichment workers.
type BatchQueue struct {
	items    chan *models.EnrichmentBatch
	done     chan struct{}
	maxSize  int
	closed   bool
	mu       sync.RWMutex
	logger   *logrus.Logger
	handlers []func(*models.EnrichmentBatch) error
}

// NewBatchQueue creates a new queue with the specified buffer size
func NewBatchQueue(bufferSize int, logger *logrus.Logger) *BatchQueue {
	if logger == nil {
		logger = logrus.New()
	}
	return &BatchQueue{
		items:    make(chan *models.EnrichmentBatch, bufferSize),
		done:     make(chan struct{}),
		maxSize:  bufferSize,
		logger:   logger,
		handlers: make([]func(*models.EnrichmentBatch) error, 0),
	}
}

// Push adds a batch to the queue
func (q *BatchQueue) Push(batch *models.EnrichmentBatch) error {
	// The read lock is held across the send: Close takes the write
	// lock before closing the channel, so a concurrent Close cannot
	// close it mid-push.
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}

	// Non-blocking send to prevent deadlocks
	select {
	case q.items <- batch:
		q.logger.WithField("batch_size", len(batch.Rows)).Debug("Pushed batch to queue")
		return nil
	default:
		return ErrQueueFull
	}
}

// Subscribe adds a handler function that will be called for each batch
func (q *BatchQueue) Subscribe(handler func(*models.EnrichmentBatch) error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers = append(q.handlers, handler)
}

// Start begins processing items in the queue
func (q *BatchQueue) Start() {
	go q.process()
}

// process handles the queue processing loop
func (q *BatchQueue) process() {
	for {
		select {
		case <-q.done:
			return
		case batch := <-q.items:
			if batch == nil {
				return
			}
			q.processBatch(batch)
		}
	}
}

// processBatch sends the batch to all subscribed handlers
func (q *BatchQueue) processBatch(batch *models.EnrichmentBatch) {
	q.mu.RLock()
	handlers := q.handlers
	q.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(batch); err != nil {
			q.logger.WithError(err).Error("Handler failed to process batch")
		}
	}
}

// Close stops the queue and prevents new items from being added
func (q *BatchQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}

	q.closed = true
	close(q.done)
	close(q.items)
	return nil
}

// Len returns the current number of batches in the queue
func (q *BatchQueue) Len() int {
	return len(q.items)
}

// IsClosed returns whether the queue has been closed
func (q *BatchQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
