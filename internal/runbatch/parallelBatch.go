// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"context"
	"time"

	"github.com/matt-FFFFFF/nbrun/internal/ctxlog"
	"golang.org/x/sync/errgroup"
)

// DefaultMaxConcurrency is the most commands a ParallelBatch runs at once.
const DefaultMaxConcurrency = 8

var _ Runnable = (*ParallelBatch)(nil)

// ParallelBatch runs its commands concurrently on a bounded pool of workers.
// Results are returned in the order of Commands, not completion order.
type ParallelBatch struct {
	*BaseCommand
	Commands       []Runnable // The commands or nested batches to run
	MaxConcurrency int        // Pool size. Zero or less means PoolSize(len(Commands)).
}

// PoolSize returns the number of workers used for n commands: min(DefaultMaxConcurrency, n), and at least 1.
func PoolSize(n int) int {
	return max(1, min(DefaultMaxConcurrency, n))
}

// Run implements the Runnable interface for ParallelBatch.
func (b *ParallelBatch) Run(ctx context.Context) Results {
	limit := b.MaxConcurrency
	if limit <= 0 {
		limit = PoolSize(len(b.Commands))
	}

	logger := ctxlog.Logger(ctx).
		With("label", b.GetLabel()).
		With("runnableType", "ParallelBatch")

	logger.Debug("starting worker pool", "workers", limit, "commands", len(b.Commands))

	if b.reporter != nil {
		for _, cmd := range b.Commands {
			cmd.SetProgressReporter(b.reporter)
		}
	}

	start := time.Now()
	slots := make([]Results, len(b.Commands))

	// Failures are recorded in the results, never returned, so one command cannot cancel its siblings.
	g := &errgroup.Group{}
	g.SetLimit(limit)

	for i, cmd := range b.Commands {
		g.Go(func() error {
			if ctx.Err() != nil {
				slots[i] = Results{notStarted(ctx, cmd)}
				return nil
			}

			slots[i] = cmd.Run(ctx)

			return nil
		})
	}

	_ = g.Wait()

	children := make(Results, 0, len(b.Commands))
	for _, r := range slots {
		children = append(children, r...)
	}

	return Results{batchResult(b.GetLabel(), children, time.Since(start))}
}
