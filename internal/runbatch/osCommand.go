// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/matt-FFFFFF/nbrun/internal/ctxlog"
	"github.com/matt-FFFFFF/nbrun/internal/progress"
	"github.com/matt-FFFFFF/nbrun/internal/signalbroker"
	"github.com/matt-FFFFFF/nbrun/internal/teereader"
)

const (
	maxBufferSize = 8 * 1024 * 1024 // 8MB per stream
	drainGrace    = 5 * time.Second // How long to wait for pipes to close once the process has exited
)

var _ Runnable = (*OSCommand)(nil)

var (
	// ErrCouldNotStartProcess is returned when the process could not be started.
	ErrCouldNotStartProcess = errors.New("could not start process")
	// ErrFailedToCreatePipe is returned when the operating system pipe could not be created.
	ErrFailedToCreatePipe = errors.New("failed to create pipe")
	// ErrFailedToReadBuffer is returned when the output of the process could not be read.
	ErrFailedToReadBuffer = errors.New("failed to read buffer")
	// ErrTimeoutExceeded is returned when the command exceeds its deadline and is killed.
	ErrTimeoutExceeded = errors.New("timeout exceeded")
	// ErrCancelled is returned when the run is cancelled while the command is executing.
	ErrCancelled = errors.New("run cancelled, process killed")
	// ErrSignalReceived is returned when an operating system signal was passed to the child process.
	ErrSignalReceived = errors.New("signal received")
	// ErrDuplicateSignalReceived is returned when a duplicate signal is received, forcing process termination.
	ErrDuplicateSignalReceived = errors.New("duplicate signal received, process forcefully terminated")
)

// OSCommand runs a single executable as a child process.
// Both output streams are captured, up to 8MB each, and every complete line is reported as an output event.
type OSCommand struct {
	*BaseCommand
	Path             string         // The executable. A bare name is looked up on PATH.
	Args             []string       // Arguments, not including the executable itself.
	SuccessExitCodes []int          // Exit codes that indicate success, defaults to 0.
	Timeout          time.Duration  // Kill the process after this long. Zero means no limit.
	sigCh            chan os.Signal // Channel to receive signals, allows mocking in test.
}

// Run implements the Runnable interface for OSCommand.
func (c *OSCommand) Run(ctx context.Context) Results {
	logger := ctxlog.Logger(ctx).
		With("runnableType", "OSCommand").
		With("label", c.GetLabel())

	logger.Debug("command info", "path", c.Path, "cwd", c.Cwd, "args", c.Args)

	successCodes := c.SuccessExitCodes
	if successCodes == nil {
		successCodes = []int{0}
	}

	res := &Result{
		Label:    c.GetLabel(),
		Kind:     c.Kind,
		ExitCode: -1,
		Status:   ResultStatusError,
	}

	startTime := time.Now()

	defer func() {
		res.Duration = time.Since(startTime)
	}()

	if c.Timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	path, err := resolveExecutable(c.Path)
	if err != nil {
		res.Error = errors.Join(ErrCouldNotStartProcess, err)
		return Results{res}
	}

	sigCh := c.sigCh
	if sigCh == nil {
		sigCh = signalbroker.New(ctx)
		defer signalbroker.Stop(sigCh)
	}

	rOut, wOut, err := os.Pipe()
	if err != nil {
		res.Error = errors.Join(ErrFailedToCreatePipe, err)
		return Results{res}
	}

	rErr, wErr, err := os.Pipe()
	if err != nil {
		closeAll(rOut, wOut)

		res.Error = errors.Join(ErrFailedToCreatePipe, err)

		return Results{res}
	}

	devNull, err := os.Open(os.DevNull)
	if err != nil {
		closeAll(rOut, wOut, rErr, wErr)

		res.Error = errors.Join(ErrCouldNotStartProcess, err)

		return Results{res}
	}

	args := slices.Concat([]string{filepath.Base(path)}, c.Args)

	logger.Debug("starting process", "resolvedPath", path)

	ps, err := os.StartProcess(path, args, &os.ProcAttr{
		Dir:   c.Cwd,
		Env:   c.environ(),
		Files: []*os.File{devNull, wOut, wErr},
	})

	// The child holds its own copies now. Closing ours lets the readers see EOF when it exits.
	closeAll(devNull, wOut, wErr)

	if err != nil {
		closeAll(rOut, rErr)

		res.Error = errors.Join(ErrCouldNotStartProcess, err)

		return Results{res}
	}

	logger.Debug("process started", "pid", ps.Pid)

	stdout := teereader.New(rOut, c.lineReporter(false)).WithLimit(maxBufferSize)
	stderr := teereader.New(rErr, c.lineReporter(true)).WithLimit(maxBufferSize)

	readErrs := make([]error, 2) //nolint:mnd
	readers := &sync.WaitGroup{}

	for i, r := range []io.Reader{stdout, stderr} {
		readers.Add(1)

		go func() {
			defer readers.Done()

			if _, err := io.Copy(io.Discard, r); err != nil && !errors.Is(err, os.ErrClosed) {
				readErrs[i] = errors.Join(ErrFailedToReadBuffer, err)
			}
		}()
	}

	wd := &watchdog{ps: ps, sigCh: sigCh, done: make(chan struct{})}
	wdDone := make(chan struct{})

	go func() {
		defer close(wdDone)
		wd.watch(ctx)
	}()

	logger.Debug("waiting for process to finish")

	state, psErr := ps.Wait()

	close(wd.done)
	<-wdDone

	waitOrClose(ctx, readers, rOut, rErr)
	closeAll(rOut, rErr)

	if psErr != nil {
		res.Error = psErr
	} else {
		res.ExitCode = state.ExitCode()
	}

	notes, killErr := wd.outcome()
	if killErr != nil {
		res.Error = errors.Join(res.Error, killErr)
		res.ExitCode = -1
	}

	res.Error = errors.Join(res.Error, readErrs[0], readErrs[1])

	res.StdOut = stdout.Bytes()
	res.StdErr = stderr.Bytes()

	if len(notes) > 0 {
		res.StdErr = append(res.StdErr, strings.Join(notes, "\n")+"\n"...)
	}

	if stdout.Truncated() || stderr.Truncated() {
		logger.Warn("output truncated", "maxBytes", maxBufferSize)
	}

	switch {
	case res.Error == nil && slices.Contains(successCodes, res.ExitCode):
		logger.Debug("process exit code indicates success", "exitCode", res.ExitCode)
		res.Status = ResultStatusSuccess
	default:
		logger.Debug("process error", "error", res.Error, "exitCode", res.ExitCode)

		if res.ExitCode == 0 {
			res.ExitCode = -1 // If exit code is 0 but there is an error, set exit code to -1
		}

		res.Status = ResultStatusError
	}

	return Results{res}
}

// environ returns the inherited environment with Env applied on top, in a stable order.
func (c *OSCommand) environ() []string {
	env := os.Environ()

	for _, k := range slices.Sorted(maps.Keys(c.Env)) {
		env = append(env, fmt.Sprintf("%s=%s", k, c.Env[k]))
	}

	return env
}

func (c *OSCommand) lineReporter(isStderr bool) teereader.LineFunc {
	return func(line string) {
		c.Report(progress.EventOutput, line, progress.EventData{
			OutputLine: line,
			IsStderr:   isStderr,
		})
	}
}

// watchdog passes signals on to the process and kills it when the context is done
// or when the same signal arrives twice.
type watchdog struct {
	ps    *os.Process
	sigCh <-chan os.Signal
	done  chan struct{}

	mu    sync.Mutex
	err   error
	notes []string
}

func (w *watchdog) watch(ctx context.Context) {
	seen := make(map[os.Signal]struct{})

	for {
		select {
		case s := <-w.sigCh:
			if _, ok := seen[s]; ok {
				ctxlog.Info(ctx, "received duplicate signal, killing process", "signal", s.String())
				w.record(ErrDuplicateSignalReceived, "received duplicate signal, killing process: "+s.String())
				killPs(ctx, w.ps)

				return
			}

			seen[s] = struct{}{}

			ctxlog.Info(ctx, "received signal", "signal", s.String())
			w.record(ErrSignalReceived, "received signal: "+s.String())

			if err := w.ps.Signal(s); err != nil {
				ctxlog.Info(ctx, "failed to send signal", "signal", s.String(), "error", err)
			}

		case <-ctx.Done():
			reason := ErrCancelled
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				reason = ErrTimeoutExceeded
			}

			ctxlog.Info(ctx, "context done, killing process", "reason", reason)
			w.record(reason, "context done, killing process")
			killPs(ctx, w.ps)

			return

		case <-w.done:
			return
		}
	}
}

func (w *watchdog) record(err error, note string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.err = errors.Join(w.err, err)
	w.notes = append(w.notes, note)
}

func (w *watchdog) outcome() ([]string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	return slices.Clone(w.notes), w.err
}

// waitOrClose waits for the readers to reach EOF. A process that leaves a descendant holding
// the pipes open would block them forever, so after a grace period the read ends are closed.
func waitOrClose(ctx context.Context, readers *sync.WaitGroup, files ...*os.File) {
	finished := make(chan struct{})

	go func() {
		readers.Wait()
		close(finished)
	}()

	timer := time.NewTimer(drainGrace)
	defer timer.Stop()

	select {
	case <-finished:
		return
	case <-timer.C:
		ctxlog.Warn(ctx, "output pipes still open after process exit, closing them")
	}

	closeAll(files...)
	<-finished
}

// resolveExecutable looks up bare command names on PATH. Anything containing a path separator is used as is.
func resolveExecutable(path string) (string, error) {
	if path == "" {
		return "", os.ErrNotExist
	}

	if strings.ContainsAny(path, `/\`) {
		return path, nil
	}

	return exec.LookPath(path) //nolint:wrapcheck
}

func closeAll(files ...*os.File) {
	for _, f := range files {
		_ = f.Close()
	}
}

// killPs kills the process. A process that has already exited is not an error.
func killPs(ctx context.Context, ps *os.Process) {
	if err := ps.Kill(); err != nil {
		if errors.Is(err, os.ErrProcessDone) {
			ctxlog.Debug(ctx, "process already done", "pid", ps.Pid)
			return
		}

		ctxlog.Error(ctx, "process kill error", "pid", ps.Pid, "error", err)

		return
	}

	ctxlog.Info(ctx, "process killed", "pid", ps.Pid)
}
