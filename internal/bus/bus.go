// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package bus carries change notifications from the engine to its host.
package bus

import "context"

// Message is a topic payload; subscribers type-switch on it.
type Message any

// Subscriber receives the messages of one topic in publish order.
type Subscriber interface {
	// C is closed by Close.
	C() <-chan Message
	Close() error
}

// Bus fans messages out by topic.
type Bus interface {
	Publish(ctx context.Context, topic string, msg Message) error
	Subscribe(ctx context.Context, topic string) (Subscriber, error)
}
