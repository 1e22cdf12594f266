// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runctx

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/matt-FFFFFF/nbrun/internal/tasks"
	"github.com/prashantv/gostub"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestNew_Defaults(t *testing.T) {
	dir := t.TempDir()
	stubs := gostub.Stub(&Now, fixedClock(time.Date(2025, 7, 1, 9, 30, 5, 0, time.Local))).
		Stub(&Executable, func() (string, error) { return filepath.Join(dir, "nbrun"), nil }).
		Stub(&LookPath, func(name string) (string, error) {
			if name == "python" {
				return "/usr/bin/python", nil
			}

			return "", errors.New("not found")
		})
	defer stubs.Reset()

	rc, err := New(Options{})
	require.NoError(t, err)

	assert.Equal(t, "20250701_093005", rc.Timestamp)
	assert.Equal(t, dir, rc.SourceDir)
	assert.Equal(t, filepath.Join(dir, DefaultOutputDir), rc.OutputDir)
	assert.Equal(t, "/usr/bin/python", rc.Interpreter)
	assert.Equal(t, filepath.Join(dir, "nbrun"), rc.Self)
	assert.Zero(t, rc.Timeout)
}

func TestNew_Explicit(t *testing.T) {
	src := t.TempDir()
	abs := t.TempDir()

	stubs := gostub.Stub(&LookPath, func(string) (string, error) {
		t.Fatal("interpreter lookup must be skipped when one is given")
		return "", nil
	})
	defer stubs.Reset()

	rc, err := New(Options{SourceDir: src, OutputDir: "forecast_outputs", Interpreter: "/opt/py/bin/python", Timeout: time.Minute})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(src, "forecast_outputs"), rc.OutputDir)
	assert.Equal(t, "/opt/py/bin/python", rc.Interpreter)
	assert.Equal(t, time.Minute, rc.Timeout)

	rc, err = New(Options{SourceDir: src, OutputDir: abs, Interpreter: "py"})
	require.NoError(t, err)
	assert.Equal(t, abs, rc.OutputDir)
}

func TestNew_NoInterpreterIsNotFatal(t *testing.T) {
	stubs := gostub.Stub(&LookPath, func(string) (string, error) { return "", errors.New("not found") })
	defer stubs.Reset()

	rc, err := New(Options{SourceDir: t.TempDir()})
	require.NoError(t, err)
	assert.Empty(t, rc.Interpreter)

	_, err = FindInterpreter()
	assert.ErrorIs(t, err, ErrNoInterpreter)
}

func TestNew_NoExecutableNoDir(t *testing.T) {
	stubs := gostub.Stub(&Executable, func() (string, error) { return "", errors.New("unsupported") })
	defer stubs.Reset()

	_, err := New(Options{})
	require.ErrorIs(t, err, ErrSourceDir)
}

func TestNotebookOutputPath(t *testing.T) {
	nb, ok := tasks.New("/work/c.ipynb")
	require.True(t, ok)

	rc := &RunContext{OutputDir: "/work/outputs", Timestamp: "20250701_093005"}
	assert.Equal(t, filepath.Join("/work/outputs", "c_20250701_093005.ipynb"), rc.NotebookOutputPath(nb))
}

func TestNotebookOutputPath_TimestampBoundaries(t *testing.T) {
	nb, ok := tasks.New("/work/Sales_Push.ipynb")
	require.True(t, ok)

	base := time.Date(2025, 7, 1, 9, 30, 5, 0, time.Local)

	pathAt := func(at time.Time) string {
		stubs := gostub.Stub(&Now, fixedClock(at))
		defer stubs.Reset()

		rc, err := New(Options{SourceDir: "/work", Interpreter: "python"})
		require.NoError(t, err)

		return rc.NotebookOutputPath(nb)
	}

	first := pathAt(base)
	sameSecond := pathAt(base.Add(900 * time.Millisecond))
	nextSecond := pathAt(base.Add(time.Second))

	assert.Equal(t, first, sameSecond, "runs within one second share a timestamp")
	assert.NotEqual(t, first, nextSecond)
	assert.Equal(t, filepath.Join("/work/outputs", "Sales_Push_20250701_093005.ipynb"), first)
	assert.Equal(t, filepath.Join("/work/outputs", "Sales_Push_20250701_093006.ipynb"), nextSecond)
}
