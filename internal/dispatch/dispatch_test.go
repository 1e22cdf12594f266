// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package dispatch

import (
	"bytes"
	"context"
	"path/filepath"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/matt-FFFFFF/nbrun/internal/executors"
	"github.com/matt-FFFFFF/nbrun/internal/fakepython"
	"github.com/matt-FFFFFF/nbrun/internal/progress"
	"github.com/matt-FFFFFF/nbrun/internal/runctx"
	"github.com/matt-FFFFFF/nbrun/internal/tasks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

const testTimestamp = "20250102_030405"

func newRunContext(t *testing.T) *runctx.RunContext {
	t.Helper()

	src := t.TempDir()

	return &runctx.RunContext{
		Timestamp:   testTimestamp,
		StartedAt:   time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		SourceDir:   src,
		OutputDir:   filepath.Join(src, "outputs"),
		Interpreter: fakepython.Install(t, t.TempDir()),
	}
}

// scenario writes a.py (prints ok), b.py (exits 1) and c.ipynb into the source directory.
func scenario(t *testing.T, rc *runctx.RunContext) []tasks.Task {
	t.Helper()

	fakepython.WriteFile(t, rc.SourceDir, "a.py", "echo ok\n")
	fakepython.WriteFile(t, rc.SourceDir, "b.py", "echo 'b is broken' >&2; exit 1\n")
	fakepython.WriteFile(t, rc.SourceDir, "c.ipynb", `{"cells": [], "nbformat": 4}`)

	ts, err := tasks.Discover(context.Background(), nil, rc.SourceDir, "")
	require.NoError(t, err)
	require.Len(t, ts, 3)

	return ts
}

func runningOrder(out string) []string {
	re := regexp.MustCompile(`(?m)^Running (?:script|notebook): (\S+)`)

	var names []string
	for _, m := range re.FindAllStringSubmatch(out, -1) {
		names = append(names, m[1])
	}

	return names
}

func outcomeNames(s *Summary) []string {
	names := make([]string, 0, len(s.Outcomes))
	for _, o := range s.Outcomes {
		names = append(names, o.Task.Name)
	}

	return names
}

func TestRun_SequentialScenario(t *testing.T) {
	defer goleak.VerifyNone(t)

	rc := newRunContext(t)
	ts := scenario(t, rc)

	var buf bytes.Buffer

	summary := Run(context.Background(), rc, ts, Options{Writer: &buf})
	out := buf.String()

	assert.Equal(t, []string{"a.py", "b.py", "c.ipynb"}, runningOrder(out))
	assert.Contains(t, out, "Starting run at 2025-01-02 03:04:05\n")
	assert.Contains(t, out, "Completed script: a.py\n    ok\n")
	assert.Contains(t, out, "Failed script: b.py (return code 1)\n    b is broken\n")

	nbOut := filepath.Join(rc.OutputDir, "c_"+testTimestamp+".ipynb")
	assert.Contains(t, out, "Running notebook: c.ipynb → "+nbOut+"\n")
	assert.Contains(t, out, "Completed notebook: c.ipynb\n")
	assert.FileExists(t, nbOut)

	assert.Contains(t, out, "All 3 tasks attempted: 2 succeeded, 1 failed\n")
	assert.Contains(t, out, "Outputs saved in: "+rc.OutputDir+"\n")

	require.Len(t, summary.Outcomes, 3)
	assert.Equal(t, []string{"a.py", "b.py", "c.ipynb"}, outcomeNames(summary))
	assert.Equal(t, 2, summary.Succeeded())
	assert.Equal(t, 1, summary.Failed())
	assert.True(t, summary.HasFailures())

	b := summary.Outcomes[1]
	assert.Equal(t, StatusFailed, b.Status)
	assert.Equal(t, 1, b.ExitCode)
	require.ErrorIs(t, b.Err, executors.ErrTaskFailed)
	require.ErrorIs(t, summary.Err(), executors.ErrTaskFailed)
	assert.Contains(t, summary.Err().Error(), "b.py")

	assert.Equal(t, nbOut, summary.Outcomes[2].OutputPath)
}

func TestRun_SequentialRunsOneAtATime(t *testing.T) {
	defer goleak.VerifyNone(t)

	rc := newRunContext(t)
	marker := filepath.Join(t.TempDir(), "running")

	// Each script fails if another one is running at the same time.
	body := "if [ -e " + marker + " ]; then exit 9; fi; touch " + marker + "; sleep 0.1; rm " + marker + "\n"
	for _, name := range []string{"a.py", "b.py", "c.py"} {
		fakepython.WriteFile(t, rc.SourceDir, name, body)
	}

	ts, err := tasks.Discover(context.Background(), nil, rc.SourceDir, "")
	require.NoError(t, err)

	summary := Run(context.Background(), rc, ts, Options{Writer: &bytes.Buffer{}})
	assert.Equal(t, 3, summary.Succeeded())
	require.NoError(t, summary.Err())
}

func TestRun_ParallelScenario(t *testing.T) {
	defer goleak.VerifyNone(t)

	rc := newRunContext(t)
	ts := scenario(t, rc)

	var buf bytes.Buffer

	summary := Run(context.Background(), rc, ts, Options{Writer: &buf, Parallel: true})
	out := buf.String()

	assert.ElementsMatch(t, []string{"a.py", "b.py", "c.ipynb"}, runningOrder(out))
	assert.Contains(t, out, "Completed script: a.py\n    ok\n")
	assert.Contains(t, out, "Failed script: b.py (return code 1)\n")
	assert.Contains(t, out, "Completed notebook: c.ipynb\n")
	assert.Contains(t, out, "All 3 tasks attempted: 2 succeeded, 1 failed\n")

	assert.Equal(t, []string{"a.py", "b.py", "c.ipynb"}, outcomeNames(summary))
	assert.Equal(t, StatusSucceeded, summary.Outcomes[0].Status)
	assert.Equal(t, StatusFailed, summary.Outcomes[1].Status)
	assert.Equal(t, StatusSucceeded, summary.Outcomes[2].Status)
}

func TestRun_ParallelRunsConcurrently(t *testing.T) {
	defer goleak.VerifyNone(t)

	rc := newRunContext(t)
	for _, name := range []string{"a.py", "b.py", "c.py", "d.py"} {
		fakepython.WriteFile(t, rc.SourceDir, name, "sleep 0.5\n")
	}

	ts, err := tasks.Discover(context.Background(), nil, rc.SourceDir, "")
	require.NoError(t, err)

	start := time.Now()
	summary := Run(context.Background(), rc, ts, Options{Writer: &bytes.Buffer{}, Parallel: true})

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, 4, summary.Succeeded())
}

func TestRun_EmptyTaskList(t *testing.T) {
	rc := newRunContext(t)

	var buf bytes.Buffer

	summary := Run(context.Background(), rc, nil, Options{Writer: &buf})

	assert.Equal(t, NoTasksMessage+"\n", buf.String())
	assert.Empty(t, summary.Outcomes)
	assert.False(t, summary.HasFailures())
	require.NoError(t, summary.Err())
	assert.NoDirExists(t, rc.OutputDir)
}

func TestRun_OnlyScriptsDoesNotCreateOutputDir(t *testing.T) {
	rc := newRunContext(t)
	fakepython.WriteFile(t, rc.SourceDir, "a.py", "echo ok\n")

	ts, err := tasks.Discover(context.Background(), nil, rc.SourceDir, "")
	require.NoError(t, err)

	Run(context.Background(), rc, ts, Options{Writer: &bytes.Buffer{}})
	assert.NoDirExists(t, rc.OutputDir)
}

func TestRun_NotebookFailureIsContained(t *testing.T) {
	defer goleak.VerifyNone(t)

	rc := newRunContext(t)
	fakepython.WriteFile(t, rc.SourceDir, "bad.ipynb", `{"cells": ["FAIL"]}`)
	fakepython.WriteFile(t, rc.SourceDir, "z.py", "echo after\n")

	ts, err := tasks.Discover(context.Background(), nil, rc.SourceDir, "")
	require.NoError(t, err)

	var buf bytes.Buffer

	summary := Run(context.Background(), rc, ts, Options{Writer: &buf})
	out := buf.String()

	assert.Contains(t, out, "Failed notebook: bad.ipynb: PapermillExecutionError: cell raised an exception\n")
	assert.Contains(t, out, "Completed script: z.py\n")
	assert.Equal(t, 1, summary.Failed())
	assert.Equal(t, 1, summary.Succeeded())
}

func TestRun_CancelledRunRecordsEveryTask(t *testing.T) {
	defer goleak.VerifyNone(t)

	rc := newRunContext(t)
	ts := scenario(t, rc)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary := Run(ctx, rc, ts, Options{Writer: &bytes.Buffer{}})

	require.Len(t, summary.Outcomes, 3)
	assert.Equal(t, 3, summary.Failed())

	for _, o := range summary.Outcomes {
		require.ErrorIs(t, o.Err, context.Canceled)
	}
}

func TestRun_ForwardsEventsToReporter(t *testing.T) {
	rc := newRunContext(t)
	fakepython.WriteFile(t, rc.SourceDir, "a.py", "echo one; echo two\n")

	ts, err := tasks.Discover(context.Background(), nil, rc.SourceDir, "")
	require.NoError(t, err)

	var (
		mu    sync.Mutex
		types []progress.EventType
		lines []string
	)

	reporter := progress.NewFuncReporter(func(e progress.Event) {
		mu.Lock()
		defer mu.Unlock()

		types = append(types, e.Type)
		if e.Type == progress.EventOutput {
			lines = append(lines, e.Data.OutputLine)
		}
	})

	var buf bytes.Buffer

	Run(context.Background(), rc, ts, Options{Writer: &buf, Reporter: reporter})

	mu.Lock()
	defer mu.Unlock()

	require.NotEmpty(t, types)
	assert.Equal(t, progress.EventStarted, types[0])
	assert.Equal(t, progress.EventCompleted, types[len(types)-1])
	assert.Equal(t, []string{"one", "two"}, lines)
	assert.NotContains(t, buf.String(), "\none\n", "output lines are printed indented after completion only")
	assert.Contains(t, buf.String(), "    one\n    two\n")
}
