package worker

import (
	"context"
	"log/slog"
	"sync"

	"github.com/streadway/amqp"

	"message-board/internal/metrics"
)

// Handler processes one delivery. A non-nil error rejects the delivery
// without requeue, which routes it to the dead-letter queue.
type Handler func(ctx context.Context, d amqp.Delivery) error

type WorkerPool struct {
	queue      string
	deliveries <-chan amqp.Delivery
	handle     Handler
	log        *slog.Logger

	mu      sync.Mutex
	workers int
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup

	// ctx is handed to every handler and cancelled only by Stop.
	ctx    context.Context
	cancel context.CancelFunc
}

func NewWorkerPool(queue string, deliveries <-chan amqp.Delivery, handle Handler, workerCount int, log *slog.Logger) *WorkerPool {
	if workerCount <= 0 {
		workerCount = 1
	}
	return &WorkerPool{
		queue:      queue,
		deliveries: deliveries,
		handle:     handle,
		log:        log,
		workers:    workerCount,
	}
}

func (wp *WorkerPool) Start() {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	if wp.running {
		return
	}

	wp.log.Info("[Worker] Starting pool", "queue", wp.queue, "workers", wp.workers)
	wp.ctx, wp.cancel = context.WithCancel(context.Background())
	wp.startWorkers()
}

// Stop cancels in-flight handlers and waits for every worker to return.
func (wp *WorkerPool) Stop() {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	if !wp.running {
		return
	}

	wp.log.Info("[Worker] Stopping pool", "queue", wp.queue)
	wp.cancel()
	wp.stopWorkers()
}

func (wp *WorkerPool) Workers() int {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	return wp.workers
}

// SetWorkerCount replaces the running workers with n new ones. Deliveries
// already being handled finish under the pool context.
func (wp *WorkerPool) SetWorkerCount(n int) {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	if n <= 0 || n == wp.workers {
		return
	}

	wp.log.Info("[Worker] Rescaling worker pool", "queue", wp.queue, "from", wp.workers, "to", n)
	wp.workers = n
	if wp.running {
		wp.stopWorkers()
		wp.startWorkers()
	}
}

// startWorkers and stopWorkers expect wp.mu to be held.
func (wp *WorkerPool) startWorkers() {
	wp.stopCh = make(chan struct{})
	for i := 0; i < wp.workers; i++ {
		wp.wg.Add(1)
		go wp.run(wp.ctx, wp.stopCh)
	}
	wp.running = true
}

func (wp *WorkerPool) stopWorkers() {
	close(wp.stopCh)
	wp.wg.Wait()
	wp.running = false
}

func (wp *WorkerPool) run(ctx context.Context, stopCh <-chan struct{}) {
	defer wp.wg.Done()
	metrics.WorkerActive.WithLabelValues(wp.queue).Inc()
	defer metrics.WorkerActive.WithLabelValues(wp.queue).Dec()

	for {
		select {
		case <-stopCh:
			return
		case d, ok := <-wp.deliveries:
			if !ok {
				return
			}
			wp.process(ctx, d)
		}
	}
}

func (wp *WorkerPool) process(ctx context.Context, d amqp.Delivery) {
	if err := wp.handle(ctx, d); err != nil {
		wp.log.Warn("[Worker] Failed to process delivery", "queue", wp.queue, "error", err)
		_ = d.Reject(false) // send to DLQ
		metrics.WorkerFailed.WithLabelValues(wp.queue).Inc()
		return
	}

	_ = d.Ack(false)
	metrics.WorkerProcessed.WithLabelValues(wp.queue).Inc()
}
