// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package run contains the nbrun root command: discover the tasks in a directory and run each once.
package run

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/matt-FFFFFF/nbrun/internal/ctxlog"
	"github.com/matt-FFFFFF/nbrun/internal/dispatch"
	"github.com/matt-FFFFFF/nbrun/internal/runctx"
	"github.com/matt-FFFFFF/nbrun/internal/tasks"
	"github.com/matt-FFFFFF/nbrun/internal/tui"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v3"
)

const (
	parallelFlag  = "parallel"
	dirFlag       = "dir"
	outputDirFlag = "output-dir"
	pythonFlag    = "python"
	timeoutFlag   = "timeout"
	outFlag       = "out"
	tuiFlag       = "tui"
	cliExitStr    = ""
)

var (
	// ErrWriteSummary is returned when the --out file cannot be written.
	ErrWriteSummary = errors.New("failed to write summary file")
	// ErrInterrupted is returned when the run is cancelled from the TUI.
	ErrInterrupted = errors.New("run interrupted")
)

// FS is where the --out summary is written. Tests replace it.
var FS = afero.NewOsFs()

// NewCommand returns the root command. Each call returns fresh flags, so tests can run it repeatedly.
func NewCommand() *cli.Command {
	return &cli.Command{
		Name:      "nbrun",
		Usage:     "Run every .py and .ipynb file in a directory once",
		UsageText: "nbrun [--parallel] [--dir DIR] [--output-dir DIR]",
		Description: `nbrun discovers the Python scripts and Jupyter notebooks directly inside a directory
and executes each of them once, either one after another or on a pool of up to 8 workers.

Scripts are run by the Python interpreter. Notebooks are executed with papermill and the
executed copy is written to the output directory as <name>_<YYYYMMDD_HHMMSS>.ipynb.

A failing task never stops the others, and task failures do not change the exit code.`,
		Writer:    os.Stdout,
		ErrWriter: os.Stderr,
		Copyright: "Copyright (c) matt-FFFFFF 2025. All rights reserved.",
		Authors: []any{
			"Matt White (matt-FFFFFF)",
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        parallelFlag,
				Aliases:     []string{"p"},
				Usage:       "Run tasks on a pool of min(8, number of tasks) workers instead of one at a time",
				Value:       false,
				DefaultText: "false",
				OnlyOnce:    true,
				Sources:     cli.EnvVars("NBRUN_PARALLEL"),
			},
			&cli.StringFlag{
				Name:        dirFlag,
				Aliases:     []string{"d"},
				Usage:       "Directory containing the scripts and notebooks to run",
				DefaultText: "the directory of the nbrun executable",
				TakesFile:   true,
				OnlyOnce:    true,
				Sources:     cli.EnvVars("NBRUN_DIR"),
			},
			&cli.StringFlag{
				Name:      outputDirFlag,
				Aliases:   []string{"o"},
				Usage:     "Directory for executed notebooks. Relative paths are resolved against --dir",
				Value:     runctx.DefaultOutputDir,
				TakesFile: true,
				OnlyOnce:  true,
				Sources:   cli.EnvVars("NBRUN_OUTPUT_DIR"),
			},
			&cli.StringFlag{
				Name:        pythonFlag,
				Usage:       "Python interpreter used for scripts and papermill",
				DefaultText: "python3 or python from PATH",
				TakesFile:   true,
				OnlyOnce:    true,
				Sources:     cli.EnvVars("NBRUN_PYTHON"),
			},
			&cli.DurationFlag{
				Name:        timeoutFlag,
				Usage:       "Kill a task that runs longer than this. 0 means no limit",
				Value:       0,
				DefaultText: "0",
				OnlyOnce:    true,
				Sources:     cli.EnvVars("NBRUN_TIMEOUT"),
			},
			&cli.StringFlag{
				Name:      outFlag,
				Usage:     "Also write the run summary to this YAML file",
				TakesFile: true,
				OnlyOnce:  true,
			},
			&cli.BoolFlag{
				Name:        tuiFlag,
				Aliases:     []string{"t", "interactive"},
				Usage:       "Run with interactive Terminal User Interface (TUI) showing task progress",
				Value:       false,
				DefaultText: "false",
				OnlyOnce:    true,
			},
		},
		Action: actionFunc,
	}
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	logger := ctxlog.Logger(ctx).With("command", cmd.Name)
	logger.Debug("Running nbrun")

	rc, err := runctx.New(runctx.Options{
		SourceDir:   cmd.String(dirFlag),
		OutputDir:   cmd.String(outputDirFlag),
		Interpreter: cmd.String(pythonFlag),
		Timeout:     cmd.Duration(timeoutFlag),
	})
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	if rc.Interpreter == "" {
		logger.Warn("no python interpreter found, every task will fail", "candidates", "python3, python")
	}

	ts, err := tasks.Discover(ctx, nil, rc.SourceDir, rc.Self)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	logger.Debug("tasks discovered", "count", len(ts), "dir", rc.SourceDir)

	opts := dispatch.Options{
		Parallel: cmd.Bool(parallelFlag),
		Writer:   cmd.Writer,
	}

	var (
		summary     *dispatch.Summary
		interrupted bool
	)

	switch {
	case cmd.Bool(tuiFlag) && len(ts) > 0:
		summary, interrupted = runWithTUI(ctx, cmd, rc, ts, opts)
	default:
		summary = dispatch.Run(ctx, rc, ts, opts)
	}

	if out := cmd.String(outFlag); out != "" {
		if err := writeSummary(out, summary); err != nil {
			logger.Error(err.Error())
			return cli.Exit(cliExitStr, 1)
		}

		logger.Info(fmt.Sprintf("Summary written to %s", out))
	}

	if interrupted {
		return cli.Exit(ErrInterrupted.Error(), 1)
	}

	if summary.HasFailures() {
		logger.Info("some tasks failed, see above for details", "failed", summary.Failed())
	}

	return nil
}

// runWithTUI runs the tasks behind the interactive view and reports whether the user cancelled them.
// The console output and log records are buffered while the view owns the terminal.
func runWithTUI(
	ctx context.Context, cmd *cli.Command, rc *runctx.RunContext, ts []tasks.Task, opts dispatch.Options,
) (*dispatch.Summary, bool) {
	logs := new(bytes.Buffer)
	console := new(bytes.Buffer)
	tuiCtx := ctxlog.NewForTUI(ctx, logs)

	runner := tui.NewRunner(tuiCtx, rc.Timestamp, ts)

	opts.Writer = console
	opts.Reporter = runner.Reporter()

	var summary *dispatch.Summary

	tuiErr := runner.Run(tuiCtx, func(ctx context.Context) {
		summary = dispatch.Run(ctx, rc, ts, opts)
	})

	console.WriteTo(cmd.Writer) //nolint:errcheck
	logs.WriteTo(cmd.ErrWriter) //nolint:errcheck

	if tuiErr != nil {
		ctxlog.Error(ctx, "TUI execution error", "error", tuiErr)
	}

	return summary, runner.Interrupted()
}

func writeSummary(path string, summary *dispatch.Summary) error {
	f, err := FS.Create(path)
	if err != nil {
		return fmt.Errorf("%w %s: %w", ErrWriteSummary, path, err)
	}

	if err := summary.WriteYAML(f); err != nil {
		f.Close() //nolint:errcheck,gosec
		return fmt.Errorf("%w %s: %w", ErrWriteSummary, path, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("%w %s: %w", ErrWriteSummary, path, err)
	}

	return nil
}
