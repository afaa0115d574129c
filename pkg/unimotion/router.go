// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package unimotion

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Queue is an unbounded FIFO shared by any number of producers and
// consumers. Each value is delivered to exactly one receiver.
type Queue[T any] struct {
	kind   Kind
	mu     sync.Mutex
	items  []T
	closed bool
	ready  chan struct{} // closed and replaced on every push, closed for good on Close
}

// NewQueue creates an empty queue for responses of the given kind
func NewQueue[T any](kind Kind) *Queue[T] {
	return &Queue[T]{
		kind:  kind,
		ready: make(chan struct{}),
	}
}

// Kind returns the response kind carried by the queue
func (q *Queue[T]) Kind() Kind {
	return q.kind
}

// Push appends v. It fails with ErrDisconnected once the queue is closed.
func (q *Queue[T]) Push(v T) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrDisconnected
	}
	q.items = append(q.items, v)

	// Wake every waiter; the ones that lose the race wait on the new channel
	close(q.ready)
	q.ready = make(chan struct{})
	return nil
}

// pop returns the head of the queue, or the channel to wait on when empty
func (q *Queue[T]) pop() (T, <-chan struct{}, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var zero T
	if len(q.items) > 0 {
		v := q.items[0]
		q.items[0] = zero
		q.items = q.items[1:]
		if len(q.items) == 0 {
			q.items = nil
		}
		return v, nil, nil
	}
	if q.closed {
		return zero, nil, ErrDisconnected
	}
	return zero, q.ready, nil
}

// Recv blocks until a value arrives or the queue is closed and empty
func (q *Queue[T]) Recv() (T, error) {
	for {
		v, ready, err := q.pop()
		if ready == nil {
			return v, err
		}
		<-ready
	}
}

// RecvTimeout is Recv bounded by timeout. Expiry returns a *TimeoutError
// naming the queue's kind.
func (q *Queue[T]) RecvTimeout(timeout time.Duration) (T, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		v, ready, err := q.pop()
		if ready == nil {
			return v, err
		}
		select {
		case <-ready:
		case <-timer.C:
			var zero T
			return zero, &TimeoutError{Kind: q.kind}
		}
	}
}

// RecvContext is Recv bounded by ctx
func (q *Queue[T]) RecvContext(ctx context.Context) (T, error) {
	for {
		v, ready, err := q.pop()
		if ready == nil {
			return v, err
		}
		select {
		case <-ready:
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}
}

// TryRecv returns the head of the queue without blocking
func (q *Queue[T]) TryRecv() (T, bool) {
	v, ready, err := q.pop()
	return v, ready == nil && err == nil
}

// Drain removes and returns every queued value
func (q *Queue[T]) Drain() []T {
	q.mu.Lock()
	defer q.mu.Unlock()

	items := q.items
	q.items = nil
	return items
}

// Len returns the number of queued values
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close stops the queue accepting values. Values already queued are still
// delivered; after that receivers get ErrDisconnected. Close is idempotent.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.ready)
}

// Closed reports whether Close has been called
func (q *Queue[T]) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Router delivers each response to the queue for its kind
type Router struct {
	SensorInfo  *Queue[SensorInfoResponse]
	Device      *Queue[DeviceResponse]
	Channel     *Queue[ChannelResponse]
	AutoOff     *Queue[AutoOffResponse]
	Acknowledge *Queue[AcknowledgeResponse]
	Datamode    *Queue[DatamodeResponse]
	Data        *Queue[DataResponse]
	Error       *Queue[ErrorResponse]
}

// NewRouter creates a router with eight empty queues
func NewRouter() *Router {
	return &Router{
		SensorInfo:  NewQueue[SensorInfoResponse](KindSensorInfo),
		Device:      NewQueue[DeviceResponse](KindDevice),
		Channel:     NewQueue[ChannelResponse](KindChannel),
		AutoOff:     NewQueue[AutoOffResponse](KindAutoOff),
		Acknowledge: NewQueue[AcknowledgeResponse](KindAcknowledge),
		Datamode:    NewQueue[DatamodeResponse](KindDatamode),
		Data:        NewQueue[DataResponse](KindData),
		Error:       NewQueue[ErrorResponse](KindError),
	}
}

// Route pushes resp onto its queue. ErrDisconnected means the consumers are
// gone and the caller should stop producing.
func (r *Router) Route(resp Response) error {
	switch v := resp.(type) {
	case SensorInfoResponse:
		return r.SensorInfo.Push(v)
	case DeviceResponse:
		return r.Device.Push(v)
	case ChannelResponse:
		return r.Channel.Push(v)
	case AutoOffResponse:
		return r.AutoOff.Push(v)
	case AcknowledgeResponse:
		return r.Acknowledge.Push(v)
	case DatamodeResponse:
		return r.Datamode.Push(v)
	case DataResponse:
		return r.Data.Push(v)
	case ErrorResponse:
		return r.Error.Push(v)
	default:
		return fmt.Errorf("unroutable response %T", resp)
	}
}

// Flush drains all eight queues and returns what was discarded
func (r *Router) Flush() []Response {
	var discarded []Response
	for _, v := range r.SensorInfo.Drain() {
		discarded = append(discarded, v)
	}
	for _, v := range r.Device.Drain() {
		discarded = append(discarded, v)
	}
	for _, v := range r.Channel.Drain() {
		discarded = append(discarded, v)
	}
	for _, v := range r.AutoOff.Drain() {
		discarded = append(discarded, v)
	}
	for _, v := range r.Acknowledge.Drain() {
		discarded = append(discarded, v)
	}
	for _, v := range r.Datamode.Drain() {
		discarded = append(discarded, v)
	}
	for _, v := range r.Data.Drain() {
		discarded = append(discarded, v)
	}
	for _, v := range r.Error.Drain() {
		discarded = append(discarded, v)
	}
	return discarded
}

// Pending returns the number of queued values per kind
func (r *Router) Pending() map[Kind]int {
	return map[Kind]int{
		KindSensorInfo:  r.SensorInfo.Len(),
		KindDevice:      r.Device.Len(),
		KindChannel:     r.Channel.Len(),
		KindAutoOff:     r.AutoOff.Len(),
		KindAcknowledge: r.Acknowledge.Len(),
		KindDatamode:    r.Datamode.Len(),
		KindData:        r.Data.Len(),
		KindError:       r.Error.Len(),
	}
}

// Close closes every queue
func (r *Router) Close() {
	r.SensorInfo.Close()
	r.Device.Close()
	r.Channel.Close()
	r.AutoOff.Close()
	r.Acknowledge.Close()
	r.Datamode.Close()
	r.Data.Close()
	r.Error.Close()
}
