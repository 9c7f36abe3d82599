// Package feed carries classified records from the capture goroutine to the
// consumer without ever blocking the producer.
package feed

import (
	"NetSpike/internal/model"
	"errors"
	"sync"
)

// ErrClosed is returned by Send once the consumer has gone away.
var ErrClosed = errors.New("feed: consumer closed")

// Queue is an unbounded single-producer single-consumer queue. Send never
// blocks; Drain never waits.
type Queue struct {
	mu       sync.Mutex
	items    []*model.PacketRecord
	closed   bool
	finished bool
	notify   chan struct{}
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{notify: make(chan struct{}, 1)}
}

// Send appends rec for the consumer.
func (q *Queue) Send(rec *model.PacketRecord) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrClosed
	}
	q.items = append(q.items, rec)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
	return nil
}

// Drain moves every pending record into dst and returns it.
func (q *Queue) Drain(dst []*model.PacketRecord) []*model.PacketRecord {
	q.mu.Lock()
	defer q.mu.Unlock()
	dst = append(dst, q.items...)
	clear(q.items)
	q.items = q.items[:0]
	return dst
}

// Len reports the number of pending records.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Notify is signalled after a Send. Wakeups coalesce.
func (q *Queue) Notify() <-chan struct{} {
	return q.notify
}

// Finish marks the producer as gone. Pending records can still be drained.
func (q *Queue) Finish() {
	q.mu.Lock()
	q.finished = true
	q.mu.Unlock()
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// Finished reports whether the producer has stopped.
func (q *Queue) Finished() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.finished
}

// Close marks the consumer as gone and discards pending records.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.items = nil
}
