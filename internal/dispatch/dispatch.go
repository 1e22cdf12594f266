// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package dispatch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/matt-FFFFFF/nbrun/internal/ctxlog"
	"github.com/matt-FFFFFF/nbrun/internal/executors"
	"github.com/matt-FFFFFF/nbrun/internal/progress"
	"github.com/matt-FFFFFF/nbrun/internal/runbatch"
	"github.com/matt-FFFFFF/nbrun/internal/runctx"
	"github.com/matt-FFFFFF/nbrun/internal/tasks"
)

const startedAtLayout = "2006-01-02 15:04:05"

// Options controls how Run executes and where it prints.
type Options struct {
	Parallel bool                    // Run on a pool of runbatch.PoolSize(len(tasks)) workers
	Writer   io.Writer               // Console output, defaults to os.Stdout
	Reporter progress.Reporter       // Additional receiver of task events, e.g. the TUI
	Results  *runbatch.OutputOptions // Result tree options. By default captured output is not repeated.
}

// Run executes every task once and returns the summary. It never returns early because a task failed.
func Run(ctx context.Context, rc *runctx.RunContext, ts []tasks.Task, opts Options) *Summary {
	w := opts.Writer
	if w == nil {
		w = os.Stdout
	}

	summary := &Summary{
		Timestamp: rc.Timestamp,
		OutputDir: rc.OutputDir,
		Outcomes:  make([]Outcome, 0, len(ts)),
	}

	if len(ts) == 0 {
		fmt.Fprintln(w, NoTasksMessage) //nolint:errcheck
		return summary
	}

	logger := ctxlog.Logger(ctx).With("timestamp", rc.Timestamp)
	logger.Debug("dispatching tasks", "count", len(ts), "parallel", opts.Parallel)

	console := progress.NewWriterReporter(w, ConsoleFormat)

	fmt.Fprintf(w, "Starting run at %s\n", rc.StartedAt.Format(startedAtLayout)) //nolint:errcheck

	batch := newBatch(rc, ts, opts.Parallel)
	batch.SetProgressReporter(progress.MultiReporter{console, eventLogger(logger), opts.Reporter})

	results := batch.Run(ctx)
	summary.Results = results

	leaves := results.Leaves()
	for i, t := range ts {
		if i >= len(leaves) {
			logger.Error("missing result for task", "task", t.Name)
			summary.Outcomes = append(summary.Outcomes, Outcome{
				Task:     t,
				Status:   StatusFailed,
				ExitCode: -1,
				Err:      executors.NewUnhandledTaskError(t, "no result recorded", nil),
			})

			continue
		}

		summary.Outcomes = append(summary.Outcomes, outcomeFromResult(t, leaves[i]))
	}

	if err := console.Err(); err != nil {
		logger.Warn("console write failed", "error", err)
	}

	fmt.Fprintln(w) //nolint:errcheck

	treeOpts := opts.Results
	if treeOpts == nil {
		treeOpts = &runbatch.OutputOptions{ShowDuration: true}
	}

	if err := results.WriteWithOptions(w, treeOpts); err != nil {
		logger.Warn("could not write result tree", "error", err)
	}

	fmt.Fprintf(w, "\nAll %d tasks attempted: %d succeeded, %d failed\n", //nolint:errcheck
		len(summary.Outcomes), summary.Succeeded(), summary.Failed())
	fmt.Fprintf(w, "Outputs saved in: %s\n", rc.OutputDir) //nolint:errcheck

	return summary
}

// eventLogger records task lifecycle events at debug level. Output lines are not logged.
func eventLogger(logger *slog.Logger) progress.Reporter {
	return progress.NewFuncReporter(func(e progress.Event) {
		if e.Type == progress.EventOutput {
			return
		}

		logger.Debug("task event", "task", e.Task, "kind", e.Kind, "type", e.Type.String(), "message", e.Message)
	})
}

func newBatch(rc *runctx.RunContext, ts []tasks.Task, parallel bool) runbatch.Runnable {
	runners := make([]runbatch.Runnable, 0, len(ts))
	for _, t := range ts {
		runners = append(runners, executors.New(rc, t))
	}

	base := runbatch.NewBaseCommand("run "+rc.Timestamp, "", rc.SourceDir, nil)

	if parallel {
		return &runbatch.ParallelBatch{
			BaseCommand:    base,
			Commands:       runners,
			MaxConcurrency: runbatch.PoolSize(len(runners)),
		}
	}

	return &runbatch.SerialBatch{
		BaseCommand: base,
		Commands:    runners,
	}
}

func outcomeFromResult(t tasks.Task, r *runbatch.Result) Outcome {
	o := Outcome{
		Task:       t,
		Status:     StatusSucceeded,
		ExitCode:   r.ExitCode,
		Err:        r.Error,
		StdOut:     r.StdOut,
		StdErr:     r.StdErr,
		OutputPath: r.OutputPath,
		Duration:   r.Duration,
	}

	if r.Failed() {
		o.Status = StatusFailed
		if o.Err == nil {
			o.Err = executors.NewTaskExecutionFailure(t, r.ExitCode, nil)
		}
	}

	return o
}
