package model

import (
	"context"
	"errors"
	"fmt"
)

type Task struct {
	ID     int64      `json:"id"`
	Title  string     `json:"title"`
	Status TaskStatus `json:"status"`
}

func NewTask(id int64, title string) Task {
	return Task{
		ID:     id,
		Title:  title,
		Status: TaskStatusPending,
	}
}

// TaskCollection is the unit of persistence: insertion ordered, ids unique.
type TaskCollection []Task

// Clone returns a copy that shares no backing array with c.
func (c TaskCollection) Clone() TaskCollection {
	out := make(TaskCollection, len(c))
	copy(out, c)
	return out
}

func (c TaskCollection) Find(id int64) (Task, bool) {
	for _, t := range c {
		if t.ID == id {
			return t, true
		}
	}
	return Task{}, false
}

func (c TaskCollection) MaxID() int64 {
	var max int64
	for _, t := range c {
		if t.ID > max {
			max = t.ID
		}
	}
	return max
}

type TaskStatus string

const (
	TaskStatusPending TaskStatus = "pending"
	TaskStatusActive  TaskStatus = "active"
	TaskStatusDone    TaskStatus = "done"
)

var TaskStatuses = []TaskStatus{TaskStatusPending, TaskStatusActive, TaskStatusDone}

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusActive, TaskStatusDone:
		return true
	default:
		return false
	}
}

func ParseTaskStatus(s string) (TaskStatus, error) {
	status := TaskStatus(s)
	if !status.Valid() {
		return "", &ValidationError{Field: "status", Err: fmt.Errorf("unknown status %q", s)}
	}
	return status, nil
}

var (
	ErrFieldRequired = errors.New("field required")
	ErrInvalidText   = errors.New("invalid UTF-8 text")
	ErrKeyNotFound   = errors.New("key not found")

	ErrTransitionNotAllowed = errors.New("transition not allowed")
)

// ValidationError rejects an input before any storage access.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// CorruptStateError reports a stored value that is not a well-formed collection.
type CorruptStateError struct {
	Key string
	Err error
}

func (e *CorruptStateError) Error() string {
	return fmt.Sprintf("corrupt state under key %q: %s", e.Key, e.Err)
}

func (e *CorruptStateError) Unwrap() error {
	return e.Err
}

// KVStorage is the persistence capability behind a checklist. Get returns
// ErrKeyNotFound when nothing was ever stored under key.
type KVStorage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}
