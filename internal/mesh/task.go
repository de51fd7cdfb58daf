// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package mesh

import (
	"context"

	"github.com/ManuGH/openimmersive/internal/stream"
)

// Task is one in-flight geometry build.
type Task struct {
	id     string
	kind   stream.ProjectionKind
	cancel context.CancelFunc
	done   chan struct{}

	// written once before done is closed
	res Result
	err error
}

func (t *Task) ID() string                  { return t.id }
func (t *Task) Kind() stream.ProjectionKind { return t.kind }

// Done is closed once the build finished or was abandoned.
func (t *Task) Done() <-chan struct{} { return t.done }

// Cancel abandons the build. It does not wait; Wait or Done observe the end.
func (t *Task) Cancel() { t.cancel() }

// Wait blocks until the build ends or ctx is done.
func (t *Task) Wait(ctx context.Context) (Result, error) {
	select {
	case <-t.done:
		return t.res, t.err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

func (t *Task) finish(res Result, err error) {
	t.res, t.err = res, err
	close(t.done)
}
