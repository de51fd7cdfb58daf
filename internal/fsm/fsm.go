// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package fsm runs a lifecycle defined by a static transition table.
package fsm

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
)

var (
	// ErrInvalidTransition means the current state has no edge for the event.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrStateChanged means another Fire won the race while a guard ran.
	ErrStateChanged = errors.New("state changed during transition")
)

// Transition is one edge of the table. A non-nil Guard can veto it.
type Transition[S ~string, E ~string] struct {
	From  S
	Event E
	To    S
	Guard func(ctx context.Context, from S) error
}

// Change records an applied transition.
type Change[S ~string, E ~string] struct {
	From  S
	To    S
	Event E
}

type edge[S ~string, E ~string] struct {
	from  S
	event E
}

// Machine holds the current state. State and Accepts are safe from any
// goroutine; Fire is expected to have a single caller at a time.
type Machine[S ~string, E ~string] struct {
	mu    sync.RWMutex
	state S
	table map[edge[S, E]]Transition[S, E]
}

// New indexes the table. An event may leave a state at most once.
func New[S ~string, E ~string](initial S, table []Transition[S, E]) (*Machine[S, E], error) {
	m := &Machine[S, E]{state: initial, table: make(map[edge[S, E]]Transition[S, E], len(table))}
	for _, t := range table {
		k := edge[S, E]{t.From, t.Event}
		if prev, dup := m.table[k]; dup {
			return nil, fmt.Errorf("fsm: %s on %s leads to both %s and %s", t.From, t.Event, prev.To, t.To)
		}
		m.table[k] = t
	}
	return m, nil
}

// MustNew is New for package-level tables.
func MustNew[S ~string, E ~string](initial S, table []Transition[S, E]) *Machine[S, E] {
	m, err := New(initial, table)
	if err != nil {
		panic(err)
	}
	return m
}

func (m *Machine[S, E]) State() S {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Can reports whether event has an edge from the current state.
func (m *Machine[S, E]) Can(event E) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.table[edge[S, E]{m.state, event}]
	return ok
}

// Accepts lists the events the current state has edges for, sorted.
func (m *Machine[S, E]) Accepts() []E {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []E
	for k := range m.table {
		if k.from == m.state {
			out = append(out, k.event)
		}
	}
	slices.Sort(out)
	return out
}

// Fire applies event. On error the state is unchanged.
func (m *Machine[S, E]) Fire(ctx context.Context, event E) (Change[S, E], error) {
	m.mu.RLock()
	from := m.state
	t, ok := m.table[edge[S, E]{from, event}]
	m.mu.RUnlock()

	if !ok {
		return Change[S, E]{From: from, To: from, Event: event},
			fmt.Errorf("%w: %s does not accept %s", ErrInvalidTransition, from, event)
	}
	if t.Guard != nil {
		if err := t.Guard(ctx, from); err != nil {
			return Change[S, E]{From: from, To: from, Event: event}, err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != from {
		return Change[S, E]{From: m.state, To: m.state, Event: event},
			fmt.Errorf("%w: expected %s, found %s", ErrStateChanged, from, m.state)
	}
	m.state = t.To
	return Change[S, E]{From: from, To: t.To, Event: event}, nil
}
