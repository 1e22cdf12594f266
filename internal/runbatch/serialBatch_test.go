// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/matt-FFFFFF/nbrun/internal/progress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type fakeCmd struct {
	label    string
	delay    time.Duration
	exitCode int
	err      error
	onRun    func()
	reporter progress.Reporter
}

func (f *fakeCmd) Run(_ context.Context) Results {
	if f.onRun != nil {
		f.onRun()
	}

	time.Sleep(f.delay)

	status := ResultStatusSuccess
	if f.err != nil || f.exitCode != 0 {
		status = ResultStatusError
	}

	return Results{&Result{
		Label:    f.label,
		Status:   status,
		ExitCode: f.exitCode,
		Error:    f.err,
	}}
}

func (f *fakeCmd) GetLabel() string {
	return f.label
}

func (f *fakeCmd) SetProgressReporter(r progress.Reporter) {
	f.reporter = r
}

// recorder keeps the order in which fake commands started.
type recorder struct {
	mu    sync.Mutex
	order []string
}

func (r *recorder) hook(label string) func() {
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()

		r.order = append(r.order, label)
	}
}

func childLabels(res *Result) []string {
	labels := make([]string, 0, len(res.Children))
	for _, c := range res.Children {
		labels = append(labels, c.Label)
	}

	return labels
}

func TestSerialBatchRun_AllSuccess(t *testing.T) {
	defer goleak.VerifyNone(t)

	batch := &SerialBatch{
		BaseCommand: NewBaseCommand("batch1", "", "", nil),
		Commands: []Runnable{
			&fakeCmd{label: "a.py"},
			&fakeCmd{label: "b.py"},
		},
	}

	results := batch.Run(context.Background())
	require.Len(t, results, 1)

	res := results[0]
	assert.Equal(t, ResultStatusSuccess, res.Status)
	assert.Equal(t, 0, res.ExitCode)
	require.NoError(t, res.Error)
	assert.Equal(t, []string{"a.py", "b.py"}, childLabels(res))
}

func TestSerialBatchRun_FailureDoesNotStopBatch(t *testing.T) {
	defer goleak.VerifyNone(t)

	rec := &recorder{}
	batch := &SerialBatch{
		BaseCommand: NewBaseCommand("batch2", "", "", nil),
		Commands: []Runnable{
			&fakeCmd{label: "a.py", onRun: rec.hook("a.py")},
			&fakeCmd{label: "b.py", exitCode: 1, err: os.ErrPermission, onRun: rec.hook("b.py")},
			&fakeCmd{label: "c.ipynb", onRun: rec.hook("c.ipynb")},
		},
	}

	results := batch.Run(context.Background())
	require.Len(t, results, 1)

	res := results[0]
	assert.Equal(t, ResultStatusError, res.Status)
	assert.ErrorIs(t, res.Error, ErrResultChildrenHasError)
	assert.Equal(t, []string{"a.py", "b.py", "c.ipynb"}, rec.order)
	require.Len(t, res.Children, 3)
	assert.Equal(t, ResultStatusSuccess, res.Children[0].Status)
	assert.ErrorIs(t, res.Children[1].Error, os.ErrPermission)
	assert.Equal(t, ResultStatusSuccess, res.Children[2].Status)
}

func TestSerialBatchRun_CancelledContext(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())

	batch := &SerialBatch{
		BaseCommand: NewBaseCommand("batch3", "", "", nil),
		Commands: []Runnable{
			&fakeCmd{label: "a.py", onRun: cancel},
			&fakeCmd{label: "b.py"},
		},
	}

	results := batch.Run(ctx)
	require.Len(t, results, 1)

	children := results[0].Children
	require.Len(t, children, 2)
	assert.Equal(t, ResultStatusSuccess, children[0].Status)
	assert.Equal(t, ResultStatusError, children[1].Status)
	assert.ErrorIs(t, children[1].Error, ErrNotStarted)
	assert.ErrorIs(t, children[1].Error, context.Canceled)
}

func TestSerialBatchRun_NestedBatch(t *testing.T) {
	defer goleak.VerifyNone(t)

	inner := &SerialBatch{
		BaseCommand: NewBaseCommand("inner", "", "", nil),
		Commands: []Runnable{
			&fakeCmd{label: "b.py", exitCode: 2},
		},
	}
	outer := &SerialBatch{
		BaseCommand: NewBaseCommand("outer", "", "", nil),
		Commands:    []Runnable{&fakeCmd{label: "a.py"}, inner},
	}

	results := outer.Run(context.Background())
	require.Len(t, results, 1)
	assert.True(t, results.HasError())

	leaves := results.Leaves()
	require.Len(t, leaves, 2)
	assert.Equal(t, "b.py", leaves[1].Label)
	assert.Equal(t, 2, leaves[1].ExitCode)
}

func TestSerialBatchRun_PropagatesReporter(t *testing.T) {
	child := &fakeCmd{label: "a.py"}
	batch := &SerialBatch{
		BaseCommand: NewBaseCommand("batch", "", "", nil),
		Commands:    []Runnable{child},
	}

	reporter := progress.NewNullReporter()
	batch.SetProgressReporter(reporter)
	batch.Run(context.Background())

	assert.Equal(t, reporter, child.reporter)
}
