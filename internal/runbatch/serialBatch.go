// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/matt-FFFFFF/nbrun/internal/ctxlog"
	"github.com/matt-FFFFFF/nbrun/internal/progress"
)

var _ Runnable = (*SerialBatch)(nil)

// ErrNotStarted is the error of a command that was never started because the run was cancelled.
var ErrNotStarted = errors.New("not started, run cancelled")

// SerialBatch runs its commands one at a time, in order. A failing command does not stop the batch.
type SerialBatch struct {
	*BaseCommand
	Commands []Runnable // The commands or nested batches to run
}

// Run implements the Runnable interface for SerialBatch.
func (b *SerialBatch) Run(ctx context.Context) Results {
	logger := ctxlog.Logger(ctx).
		With("label", b.GetLabel()).
		With("runnableType", "SerialBatch")

	b.propagateReporter()

	start := time.Now()
	children := make(Results, 0, len(b.Commands))

	for cmd := range slices.Values(b.Commands) {
		if ctx.Err() != nil {
			logger.Debug("context done, not starting command", "commandLabel", cmd.GetLabel())
			children = append(children, notStarted(ctx, cmd))

			continue
		}

		children = slices.Concat(children, cmd.Run(ctx))
	}

	return Results{batchResult(b.GetLabel(), children, time.Since(start))}
}

func (b *SerialBatch) propagateReporter() {
	if b.reporter == nil {
		return
	}

	for _, cmd := range b.Commands {
		cmd.SetProgressReporter(b.reporter)
	}
}

// SetProgressReporter sets the progress reporter, which is passed on to the commands when the batch runs.
func (b *SerialBatch) SetProgressReporter(reporter progress.Reporter) {
	b.BaseCommand.SetProgressReporter(reporter)
}

// notStarted is the result of a command that was never run because the context was already done.
func notStarted(ctx context.Context, cmd Runnable) *Result {
	return &Result{
		Label:    cmd.GetLabel(),
		Status:   ResultStatusError,
		ExitCode: -1,
		Error:    errors.Join(ErrNotStarted, ctx.Err()),
	}
}

func batchResult(label string, children Results, took time.Duration) *Result {
	res := &Result{
		Label:    label,
		Children: children,
		Status:   ResultStatusSuccess,
		Duration: took,
	}

	if children.HasError() {
		res.ExitCode = -1
		res.Error = ErrResultChildrenHasError
		res.Status = ResultStatusError
	}

	return res
}
