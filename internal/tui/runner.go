// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/matt-FFFFFF/nbrun/internal/progress"
	"github.com/matt-FFFFFF/nbrun/internal/tasks"
)

// outputBuffer is how many output lines may queue for the view before new ones are dropped.
const outputBuffer = 256

var (
	_ progress.Reporter = (*Reporter)(nil)
	_ progress.Listener = (*Reporter)(nil)
)

// Reporter forwards progress events to a running tea.Program.
// Lifecycle events are always delivered. Output lines go through a buffered channel and are
// dropped when the view falls behind, so a chatty task never waits on the display.
type Reporter struct {
	program *tea.Program
	output  *progress.ChannelReporter
	closed  bool
	mutex   sync.RWMutex
}

// NewReporter creates a new TUI progress reporter.
func NewReporter(program *tea.Program) *Reporter {
	tr := &Reporter{
		program: program,
	}

	if program != nil {
		tr.output = progress.NewChannelReporter(outputBuffer)
		tr.output.Listen(tr)
	}

	return tr
}

// Report implements progress.Reporter.
func (tr *Reporter) Report(event progress.Event) {
	tr.mutex.RLock()
	defer tr.mutex.RUnlock()

	if tr.closed || tr.program == nil {
		return
	}

	if event.Type == progress.EventOutput && tr.output != nil {
		tr.output.Report(event)
		return
	}

	tr.program.Send(ProgressEventMsg{Event: event})
}

// OnEvent implements progress.Listener for the buffered output lines.
func (tr *Reporter) OnEvent(event progress.Event) {
	if tr.program != nil {
		tr.program.Send(ProgressEventMsg{Event: event})
	}
}

// Close implements progress.Reporter. It waits for queued output lines to be delivered.
func (tr *Reporter) Close() {
	tr.mutex.Lock()
	tr.closed = true
	tr.mutex.Unlock()

	if tr.output != nil {
		tr.output.Close()
	}
}

// Runner manages the TUI application for one run.
type Runner struct {
	model    *Model
	program  *tea.Program
	reporter *Reporter
}

// NewRunner creates a TUI for the given tasks. Without options the program uses the alternate screen.
func NewRunner(ctx context.Context, timestamp string, ts []tasks.Task, opts ...tea.ProgramOption) *Runner {
	if len(opts) == 0 {
		opts = []tea.ProgramOption{tea.WithAltScreen()}
	}

	model := NewModel(ctx, timestamp, ts)
	program := tea.NewProgram(model, opts...)

	return &Runner{
		model:    model,
		program:  program,
		reporter: NewReporter(program),
	}
}

// Reporter returns the progress reporter that feeds this TUI.
func (r *Runner) Reporter() progress.Reporter {
	return r.reporter
}

// Interrupted reports whether the user cancelled the run from the TUI.
func (r *Runner) Interrupted() bool {
	r.model.mutex.RLock()
	defer r.model.mutex.RUnlock()

	return r.model.interrupted
}

// Run shows the TUI while work executes. Pressing ctrl+c cancels the context passed to work.
// Run returns once work has finished and the user has closed the TUI, or the TUI failed.
func (r *Runner) Run(ctx context.Context, work func(context.Context)) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	r.model.mutex.Lock()
	r.model.interrupt = cancel
	r.model.mutex.Unlock()

	workDone := make(chan struct{})

	go func() {
		defer close(workDone)
		work(ctx)
	}()

	tuiDone := make(chan error, 1)

	go func() {
		_, err := r.program.Run()
		tuiDone <- err
	}()

	var tuiErr error

	select {
	case <-workDone:
		r.program.Send(RunCompletedMsg{})

		tuiErr = <-tuiDone
	case tuiErr = <-tuiDone:
		// The view was closed or failed. The tasks still run to completion.
		<-workDone
	}

	r.reporter.Close()

	return tuiErr //nolint:wrapcheck
}
