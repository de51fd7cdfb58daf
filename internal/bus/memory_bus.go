// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package bus

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/ManuGH/openimmersive/internal/log"
	"github.com/ManuGH/openimmersive/internal/metrics"
	"github.com/rs/zerolog"
)

// DefaultBufferSize is the per-subscriber channel capacity.
const DefaultBufferSize = 64

// dropLogEvery throttles the slow-subscriber warning.
const dropLogEvery = 100

var errNilContext = errors.New("publish context is nil")

// MemoryBus is an in-process pub/sub. A full subscriber holds the publisher
// until the publish context ends; the message is then dropped for that
// subscriber only and counted.
type MemoryBus struct {
	size    int
	logger  zerolog.Logger
	dropped atomic.Uint64

	mu     sync.RWMutex
	topics map[string][]*memSub
}

func NewMemoryBus() *MemoryBus {
	return NewMemoryBusSize(DefaultBufferSize)
}

// NewMemoryBusSize sets the per-subscriber buffer; values below 1 become 1.
func NewMemoryBusSize(size int) *MemoryBus {
	return &MemoryBus{
		size:   max(size, 1),
		logger: log.WithComponent("bus"),
		topics: make(map[string][]*memSub),
	}
}

// Publish hands msg to every subscriber of topic. The returned error joins
// one entry per subscriber that missed the message.
func (b *MemoryBus) Publish(ctx context.Context, topic string, msg Message) error {
	if ctx == nil {
		return errNilContext
	}
	b.mu.RLock()
	subs := slices.Clone(b.topics[topic])
	b.mu.RUnlock()

	var errs []error
	for _, s := range subs {
		if err := s.deliver(ctx, msg); err != nil {
			b.drop(topic, err)
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("publish %q: %w", topic, errors.Join(errs...))
	}
	return nil
}

func (b *MemoryBus) drop(topic string, err error) {
	reason := "context_done"
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		reason = "timeout"
	case errors.Is(err, context.Canceled):
		reason = "canceled"
	}
	metrics.IncBusDropReason(topic, reason)

	if n := b.dropped.Add(1); n%dropLogEvery == 1 {
		b.logger.Warn().
			Str(log.FieldEvent, "bus.dropped").
			Str("topic", topic).
			Str(log.FieldReason, reason).
			Uint64("dropped", n).
			Msg("slow subscriber missed a message")
	}
}

// Subscribe registers a buffered subscriber for topic.
func (b *MemoryBus) Subscribe(ctx context.Context, topic string) (Subscriber, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := &memSub{bus: b, topic: topic, ch: make(chan Message, b.size)}

	b.mu.Lock()
	b.topics[topic] = append(b.topics[topic], s)
	b.mu.Unlock()
	return s, nil
}

func (b *MemoryBus) remove(s *memSub) {
	b.mu.Lock()
	defer b.mu.Unlock()
	rest := slices.DeleteFunc(b.topics[s.topic], func(o *memSub) bool { return o == s })
	if len(rest) == 0 {
		delete(b.topics, s.topic)
		return
	}
	b.topics[s.topic] = rest
}

type memSub struct {
	bus   *MemoryBus
	topic string
	ch    chan Message

	// mu orders deliveries against close.
	mu     sync.RWMutex
	closed bool
}

func (s *memSub) deliver(ctx context.Context, msg Message) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil
	}
	select {
	case s.ch <- msg:
		return nil
	default:
	}
	select {
	case s.ch <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *memSub) C() <-chan Message {
	return s.ch
}

func (s *memSub) Close() error {
	s.bus.remove(s)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
	return nil
}

var _ Bus = (*MemoryBus)(nil)
