// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package executors

import (
	"errors"
	"fmt"

	"github.com/matt-FFFFFF/nbrun/internal/tasks"
)

var (
	// ErrTaskFailed is wrapped by every TaskExecutionFailure.
	ErrTaskFailed = errors.New("task failed")
	// ErrUnhandled is wrapped by every UnhandledTaskError.
	ErrUnhandled = errors.New("unhandled error in task executor")
	// ErrOutputDir is returned when the notebook output directory cannot be created.
	ErrOutputDir = errors.New("could not create output directory")
)

// TaskExecutionFailure is a task that ran and did not succeed: a script that exited non-zero,
// a notebook the engine could not execute, or an output directory that could not be created.
type TaskExecutionFailure struct {
	Task     tasks.Task
	ExitCode int
	Err      error
}

// NewTaskExecutionFailure creates a TaskExecutionFailure.
func NewTaskExecutionFailure(t tasks.Task, exitCode int, err error) *TaskExecutionFailure {
	return &TaskExecutionFailure{
		Task:     t,
		ExitCode: exitCode,
		Err:      err,
	}
}

func (e *TaskExecutionFailure) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s failed (return code %d): %s", e.Task.Kind, e.Task.Name, e.ExitCode, e.Err)
	}

	return fmt.Sprintf("%s %s failed (return code %d)", e.Task.Kind, e.Task.Name, e.ExitCode)
}

func (e *TaskExecutionFailure) Unwrap() []error {
	return []error{ErrTaskFailed, e.Err}
}

// UnhandledTaskError is a panic recovered inside an executor.
type UnhandledTaskError struct {
	Task  tasks.Task
	Value any
	Stack []byte
}

// NewUnhandledTaskError creates an UnhandledTaskError.
func NewUnhandledTaskError(t tasks.Task, value any, stack []byte) *UnhandledTaskError {
	return &UnhandledTaskError{
		Task:  t,
		Value: value,
		Stack: stack,
	}
}

func (e *UnhandledTaskError) Error() string {
	return fmt.Sprintf("%s %s: unhandled error: %v", e.Task.Kind, e.Task.Name, e.Value)
}

// Unwrap returns ErrUnhandled and, when the panic value was an error, that error.
func (e *UnhandledTaskError) Unwrap() []error {
	if err, ok := e.Value.(error); ok {
		return []error{ErrUnhandled, err}
	}

	return []error{ErrUnhandled}
}
