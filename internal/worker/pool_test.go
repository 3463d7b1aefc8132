package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/require"
)

// recordingAcker implements amqp.Acknowledger and remembers outcomes by tag.
type recordingAcker struct {
	mu       sync.Mutex
	acked    []uint64
	rejected []uint64
}

func (a *recordingAcker) Ack(tag uint64, _ bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.acked = append(a.acked, tag)
	return nil
}

func (a *recordingAcker) Nack(tag uint64, _ bool, _ bool) error {
	return a.Reject(tag, false)
}

func (a *recordingAcker) Reject(tag uint64, _ bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.rejected = append(a.rejected, tag)
	return nil
}

func (a *recordingAcker) counts() (int, int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.acked), len(a.rejected)
}

func delivery(acker amqp.Acknowledger, tag uint64, body string) amqp.Delivery {
	return amqp.Delivery{Acknowledger: acker, DeliveryTag: tag, Body: []byte(body)}
}

func TestWorkerPool_Acks_And_Rejects(t *testing.T) {
	req := require.New(t)
	acker := &recordingAcker{}
	deliveries := make(chan amqp.Delivery, 10)

	handler := func(_ context.Context, d amqp.Delivery) error {
		if string(d.Body) == "bad" {
			return errors.New("cannot process")
		}
		return nil
	}
	pool := NewWorkerPool("test", deliveries, handler, 3, slog.Default())
	pool.Start()
	defer pool.Stop()

	deliveries <- delivery(acker, 1, "good")
	deliveries <- delivery(acker, 2, "bad")
	deliveries <- delivery(acker, 3, "good")

	req.Eventually(func() bool {
		acked, rejected := acker.counts()
		return acked == 2 && rejected == 1
	}, time.Second, 10*time.Millisecond)

	acker.mu.Lock()
	defer acker.mu.Unlock()
	req.ElementsMatch([]uint64{1, 3}, acker.acked)
	req.Equal([]uint64{2}, acker.rejected)
}

func TestWorkerPool_Runs_Handlers_Concurrently(t *testing.T) {
	req := require.New(t)
	acker := &recordingAcker{}
	deliveries := make(chan amqp.Delivery, 10)

	release := make(chan struct{})
	var inFlight sync.WaitGroup
	inFlight.Add(3)
	handler := func(_ context.Context, _ amqp.Delivery) error {
		inFlight.Done()
		<-release
		return nil
	}
	pool := NewWorkerPool("test", deliveries, handler, 3, slog.Default())
	pool.Start()

	for i := uint64(1); i <= 3; i++ {
		deliveries <- delivery(acker, i, "{}")
	}

	// all three handlers must be running at the same time to get past Wait
	done := make(chan struct{})
	go func() {
		inFlight.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handlers did not run concurrently")
	}

	close(release)
	pool.Stop()
	acked, _ := acker.counts()
	req.Equal(3, acked)
}

func TestWorkerPool_SetWorkerCount(t *testing.T) {
	req := require.New(t)
	acker := &recordingAcker{}
	deliveries := make(chan amqp.Delivery, 10)
	handler := func(_ context.Context, _ amqp.Delivery) error { return nil }

	pool := NewWorkerPool("test", deliveries, handler, 2, slog.Default())
	pool.Start()
	defer pool.Stop()

	pool.SetWorkerCount(5)
	req.Equal(5, pool.Workers())

	pool.SetWorkerCount(0)
	req.Equal(5, pool.Workers())

	deliveries <- delivery(acker, 1, "{}")
	req.Eventually(func() bool {
		acked, _ := acker.counts()
		return acked == 1
	}, time.Second, 10*time.Millisecond)
}

func TestWorkerPool_Stops_When_Deliveries_Close(t *testing.T) {
	deliveries := make(chan amqp.Delivery)
	handler := func(_ context.Context, _ amqp.Delivery) error { return nil }

	pool := NewWorkerPool("test", deliveries, handler, 2, slog.Default())
	pool.Start()
	close(deliveries)

	stopped := make(chan struct{})
	go func() {
		pool.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("pool did not stop")
	}
}

func TestWorkerPool_Stop_Cancels_In_Flight_Handlers(t *testing.T) {
	req := require.New(t)
	acker := &recordingAcker{}
	deliveries := make(chan amqp.Delivery, 1)

	started := make(chan struct{})
	handler := func(ctx context.Context, _ amqp.Delivery) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}
	pool := NewWorkerPool("test", deliveries, handler, 1, slog.Default())
	pool.Start()

	deliveries <- delivery(acker, 1, "{}")
	<-started

	stopped := make(chan struct{})
	go func() {
		pool.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("stop did not cancel the running handler")
	}

	acked, rejected := acker.counts()
	req.Equal(0, acked)
	req.Equal(1, rejected)
}

func TestWorkerPool_Resize_Keeps_In_Flight_Handlers(t *testing.T) {
	req := require.New(t)
	acker := &recordingAcker{}
	deliveries := make(chan amqp.Delivery, 1)

	started := make(chan struct{})
	release := make(chan struct{})
	handler := func(ctx context.Context, _ amqp.Delivery) error {
		close(started)
		<-release
		return ctx.Err()
	}
	pool := NewWorkerPool("test", deliveries, handler, 1, slog.Default())
	pool.Start()
	defer pool.Stop()

	deliveries <- delivery(acker, 1, "{}")
	<-started

	resized := make(chan struct{})
	go func() {
		pool.SetWorkerCount(3)
		close(resized)
	}()
	close(release)

	select {
	case <-resized:
	case <-time.After(time.Second):
		t.Fatal("resize did not complete")
	}

	req.Equal(3, pool.Workers())
	acked, rejected := acker.counts()
	req.Equal(1, acked)
	req.Equal(0, rejected)
}
