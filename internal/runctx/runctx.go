// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package runctx holds the values shared by every task of one invocation: the run timestamp,
// the source and output directories, the interpreter and the per-task timeout.
// A RunContext is built once at startup and never modified.
package runctx

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/matt-FFFFFF/nbrun/internal/tasks"
)

// TimestampLayout names output artifacts: YYYYMMDD_HHMMSS.
const TimestampLayout = "20060102_150405"

// DefaultOutputDir is the output directory, relative to the source directory, when none is given.
const DefaultOutputDir = "outputs"

// Now is the clock used to stamp a run.
var Now = time.Now

// LookPath resolves interpreter names on PATH.
var LookPath = exec.LookPath

// Executable returns the path of the running binary.
var Executable = os.Executable

var interpreterCandidates = []string{"python3", "python"}

var (
	// ErrNoInterpreter is returned when no interpreter is configured and none is found on PATH.
	ErrNoInterpreter = errors.New("no python interpreter found on PATH")
	// ErrSourceDir is returned when the source directory cannot be determined.
	ErrSourceDir = errors.New("cannot determine source directory")
)

// RunContext is the immutable state of one invocation.
type RunContext struct {
	Timestamp   string        // StartedAt formatted with TimestampLayout
	StartedAt   time.Time     // When the run started
	SourceDir   string        // Directory scanned for tasks
	OutputDir   string        // Directory receiving executed notebooks
	Interpreter string        // Interpreter running scripts and the notebook engine
	Self        string        // The runner's own file, excluded from discovery
	Timeout     time.Duration // Per-task timeout, zero means none
}

// Options are the user-supplied inputs to New. Zero values select the defaults.
type Options struct {
	SourceDir   string
	OutputDir   string
	Interpreter string
	Timeout     time.Duration
}

// New builds the RunContext for a run starting now.
//
// An empty SourceDir means the directory of the running executable. An empty or relative
// OutputDir is resolved against the source directory. An empty Interpreter is looked up on
// PATH; failing to find one is not an error here, since it only matters once a task runs.
func New(opts Options) (*RunContext, error) {
	self, err := Executable()
	if err != nil {
		self = ""
	}

	src := opts.SourceDir
	if src == "" {
		if self == "" {
			return nil, errors.Join(ErrSourceDir, err)
		}

		src = filepath.Dir(self)
	}

	src, err = filepath.Abs(src)
	if err != nil {
		return nil, errors.Join(ErrSourceDir, err)
	}

	out := opts.OutputDir
	if out == "" {
		out = DefaultOutputDir
	}

	if !filepath.IsAbs(out) {
		out = filepath.Join(src, out)
	}

	interp := opts.Interpreter
	if interp == "" {
		interp, _ = FindInterpreter()
	}

	now := Now()

	return &RunContext{
		Timestamp:   now.Format(TimestampLayout),
		StartedAt:   now,
		SourceDir:   src,
		OutputDir:   filepath.Clean(out),
		Interpreter: interp,
		Self:        self,
		Timeout:     opts.Timeout,
	}, nil
}

// FindInterpreter returns the first interpreter candidate found on PATH.
func FindInterpreter() (string, error) {
	for _, name := range interpreterCandidates {
		if p, err := LookPath(name); err == nil {
			return p, nil
		}
	}

	return "", ErrNoInterpreter
}

// NotebookOutputPath returns where the executed copy of t is written:
// <OutputDir>/<stem>_<timestamp><ext>.
func (rc *RunContext) NotebookOutputPath(t tasks.Task) string {
	name := fmt.Sprintf("%s_%s%s", t.Stem(), rc.Timestamp, filepath.Ext(t.Name))

	return filepath.Join(rc.OutputDir, name)
}
