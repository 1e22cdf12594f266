// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package executors

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"github.com/matt-FFFFFF/nbrun/internal/ctxlog"
	"github.com/matt-FFFFFF/nbrun/internal/progress"
	"github.com/matt-FFFFFF/nbrun/internal/runbatch"
	"github.com/matt-FFFFFF/nbrun/internal/runctx"
	"github.com/matt-FFFFFF/nbrun/internal/tasks"
	"github.com/spf13/afero"
)

const outputDirPerm os.FileMode = 0o755

// FS is used to create the notebook output directory. Tests replace it with a memory filesystem.
var FS = afero.NewOsFs()

// childEnv is added to the environment of every interpreter so output is streamed line by line.
var childEnv = map[string]string{
	"PYTHONUNBUFFERED": "1",
}

var _ runbatch.Runnable = (*TaskRunner)(nil)

// TaskRunner runs one task and is the failure boundary for it.
type TaskRunner struct {
	*runbatch.BaseCommand
	Task       tasks.Task
	OutputPath string // Set for notebooks

	cmd     runbatch.Runnable
	prepare func(ctx context.Context) error
}

// New returns the executor for the task's kind.
func New(rc *runctx.RunContext, t tasks.Task) *TaskRunner {
	switch t.Kind {
	case tasks.KindNotebook:
		return NewNotebook(rc, t)
	default:
		return NewScript(rc, t)
	}
}

// NewScript runs the task as "<interpreter> <script>" in the source directory.
func NewScript(rc *runctx.RunContext, t tasks.Task) *TaskRunner {
	base := runbatch.NewBaseCommand(t.Name, t.Kind.String(), rc.SourceDir, childEnv)

	return &TaskRunner{
		BaseCommand: base,
		Task:        t,
		cmd: &runbatch.OSCommand{
			BaseCommand: base,
			Path:        rc.Interpreter,
			Args:        []string{t.Path},
			Timeout:     rc.Timeout,
		},
		prepare: interpreterCheck(rc),
	}
}

// NewNotebook runs the task through papermill, writing the executed copy to rc.NotebookOutputPath.
func NewNotebook(rc *runctx.RunContext, t tasks.Task) *TaskRunner {
	base := runbatch.NewBaseCommand(t.Name, t.Kind.String(), rc.SourceDir, childEnv)
	out := rc.NotebookOutputPath(t)
	check := interpreterCheck(rc)

	return &TaskRunner{
		BaseCommand: base,
		Task:        t,
		OutputPath:  out,
		cmd: &runbatch.OSCommand{
			BaseCommand: base,
			Path:        rc.Interpreter,
			Args:        []string{"-m", "papermill", t.Path, out, "--log-output", "--progress-bar"},
			Timeout:     rc.Timeout,
		},
		prepare: func(ctx context.Context) error {
			if err := check(ctx); err != nil {
				return err
			}

			if err := FS.MkdirAll(rc.OutputDir, outputDirPerm); err != nil {
				return errors.Join(ErrOutputDir, err)
			}

			return nil
		},
	}
}

func interpreterCheck(rc *runctx.RunContext) func(context.Context) error {
	return func(context.Context) error {
		if rc.Interpreter == "" {
			return runctx.ErrNoInterpreter
		}

		return nil
	}
}

// Run implements runbatch.Runnable. It always returns exactly one result.
func (r *TaskRunner) Run(ctx context.Context) (results runbatch.Results) {
	logger := ctxlog.Logger(ctx).
		With("runnableType", "TaskRunner").
		With("task", r.Task.Name)

	start := time.Now()

	r.Report(progress.EventStarted, r.startMessage(), progress.EventData{OutputPath: r.OutputPath})

	defer func() {
		v := recover()
		if v == nil {
			return
		}

		logger.Error("panic in task executor", "panic", v)

		res := r.newResult()
		res.ExitCode = -1
		res.Error = NewUnhandledTaskError(r.Task, v, debug.Stack())
		r.finish(res, start)
		results = runbatch.Results{res}
	}()

	if r.prepare != nil {
		if err := r.prepare(ctx); err != nil {
			logger.Debug("task preparation failed", "error", err)

			res := r.newResult()
			res.ExitCode = -1
			res.Error = NewTaskExecutionFailure(r.Task, -1, err)
			r.finish(res, start)

			return runbatch.Results{res}
		}
	}

	r.cmd.SetProgressReporter(r.Reporter())

	res := r.newResult()

	if inner := r.cmd.Run(ctx); len(inner) > 0 {
		got := inner[0]
		res.Status = got.Status
		res.ExitCode = got.ExitCode
		res.Error = got.Error
		res.StdOut = got.StdOut
		res.StdErr = got.StdErr
	}

	if res.Status != runbatch.ResultStatusSuccess || res.Error != nil {
		res.Error = NewTaskExecutionFailure(r.Task, res.ExitCode, res.Error)
	}

	r.finish(res, start)

	return runbatch.Results{res}
}

func (r *TaskRunner) newResult() *runbatch.Result {
	return &runbatch.Result{
		Label:      r.Task.Name,
		Kind:       r.Task.Kind.String(),
		Status:     runbatch.ResultStatusUnknown,
		OutputPath: r.OutputPath,
	}
}

// finish settles the status and duration of res and reports the outcome.
func (r *TaskRunner) finish(res *runbatch.Result, start time.Time) {
	res.Duration = time.Since(start)

	data := progress.EventData{
		OutputPath: r.OutputPath,
		ExitCode:   res.ExitCode,
		Error:      res.Error,
		StdOut:     res.StdOut,
		StdErr:     res.StdErr,
		Duration:   res.Duration,
	}

	if res.Error != nil {
		res.Status = runbatch.ResultStatusError
		r.Report(progress.EventFailed, fmt.Sprintf("%s %s failed", r.Task.Kind, r.Task.Name), data)

		return
	}

	res.Status = runbatch.ResultStatusSuccess
	r.Report(progress.EventCompleted, fmt.Sprintf("%s %s completed", r.Task.Kind, r.Task.Name), data)
}

func (r *TaskRunner) startMessage() string {
	if r.OutputPath != "" {
		return fmt.Sprintf("running %s %s → %s", r.Task.Kind, r.Task.Name, r.OutputPath)
	}

	return fmt.Sprintf("running %s %s", r.Task.Kind, r.Task.Name)
}
