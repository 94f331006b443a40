// Package progress carries pipeline events to a transport over a bounded channel.
package progress

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/TobiSchelling/brandmonitor/internal/brand"
)

// Emitter receives pipeline events. Emit never fails. It may wait for the
// consumer but gives up once ctx is done.
type Emitter interface {
	Emit(ctx context.Context, e brand.Event)
}

// Discard drops every event.
var Discard Emitter = discard{}

type discard struct{}

func (discard) Emit(context.Context, brand.Event) {}

// Stream is an Emitter backed by a bounded channel. One goroutine emits and
// closes; a transport drains Events and calls Detach when its caller leaves.
type Stream struct {
	ch       chan brand.Event
	mu       sync.RWMutex // read-held while sending, write-held to close
	closed   bool
	detached chan struct{}
	once     sync.Once
	dropped  atomic.Int64
}

// NewStream creates a stream holding up to buffer undelivered events.
func NewStream(buffer int) *Stream {
	if buffer < 1 {
		buffer = 1
	}
	return &Stream{
		ch:       make(chan brand.Event, buffer),
		detached: make(chan struct{}),
	}
}

// Events is drained by the transport. It is closed after Close.
func (s *Stream) Events() <-chan brand.Event {
	return s.ch
}

// Emit queues e, waiting while the buffer is full. The event is dropped
// after Detach or Close, or when ctx is done before there is room.
func (s *Stream) Emit(ctx context.Context, e brand.Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed || s.isDetached() {
		s.dropped.Add(1)
		return
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	select {
	case s.ch <- e:
		return
	default:
	}
	select {
	case s.ch <- e:
	case <-s.detached:
		s.dropped.Add(1)
	case <-ctx.Done():
		s.dropped.Add(1)
	}
}

// Detach stops delivery. The run keeps going and later emits are dropped.
func (s *Stream) Detach() {
	s.once.Do(func() { close(s.detached) })
}

// Detached is closed once the transport has gone away.
func (s *Stream) Detached() <-chan struct{} {
	return s.detached
}

// Close ends the stream. It is safe to call more than once.
func (s *Stream) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

// Dropped counts events that were never delivered.
func (s *Stream) Dropped() int64 {
	return s.dropped.Load()
}

func (s *Stream) isDetached() bool {
	select {
	case <-s.detached:
		return true
	default:
		return false
	}
}
