package enhancer

import (
	"context"
	"sync"

	"github.com/Sternrassler/gathercontent-resolver/pkg/gathercontent"
)

// Task is one pending parameter resolution. Resolve and Reject settle it;
// only the first call has any effect. Resolve(nil) means null.
type Task interface {
	Parameter() Parameter
	Component() Component
	Resolve(items []gathercontent.Item)
	Reject(err error)
}

// TaskState is the lifecycle state of a FetchTask.
type TaskState int

const (
	TaskPending TaskState = iota
	TaskResolved
	TaskRejected
)

// String returns the state's name.
func (s TaskState) String() string {
	switch s {
	case TaskResolved:
		return "resolved"
	case TaskRejected:
		return "rejected"
	default:
		return "pending"
	}
}

// FetchTask is a Task whose result can be awaited.
type FetchTask struct {
	component Component
	parameter Parameter

	once  sync.Once
	done  chan struct{}
	state TaskState
	items []gathercontent.Item
	err   error
}

// NewFetchTask creates a pending task.
func NewFetchTask(component Component, parameter Parameter) *FetchTask {
	return &FetchTask{
		component: component,
		parameter: parameter,
		done:      make(chan struct{}),
	}
}

// Parameter returns the parameter being resolved.
func (t *FetchTask) Parameter() Parameter { return t.parameter }

// Component returns the component owning the parameter.
func (t *FetchTask) Component() Component { return t.component }

// Resolve settles the task with items. Nil items mean null.
func (t *FetchTask) Resolve(items []gathercontent.Item) {
	t.once.Do(func() {
		t.items = items
		t.state = TaskResolved
		close(t.done)
	})
}

// Reject settles the task with err.
func (t *FetchTask) Reject(err error) {
	t.once.Do(func() {
		t.err = err
		t.state = TaskRejected
		close(t.done)
	})
}

// Done is closed once the task is settled.
func (t *FetchTask) Done() <-chan struct{} {
	return t.done
}

// State returns the current state without blocking.
func (t *FetchTask) State() TaskState {
	select {
	case <-t.done:
		return t.state
	default:
		return TaskPending
	}
}

// Wait blocks until the task settles or ctx is done.
func (t *FetchTask) Wait(ctx context.Context) ([]gathercontent.Item, error) {
	select {
	case <-t.done:
		return t.items, t.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
