// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tasks

import (
	"path/filepath"
	"strings"
)

const (
	// ScriptExt is the extension of files run by the interpreter.
	ScriptExt = ".py"
	// NotebookExt is the extension of files run by the notebook engine.
	NotebookExt = ".ipynb"
)

// Kind is the type of a task, which decides the executor that runs it.
type Kind int

const (
	// KindScript is a script run directly by the interpreter.
	KindScript Kind = iota
	// KindNotebook is a notebook run by the notebook engine.
	KindNotebook
)

const (
	kindScriptStr   = "script"
	kindNotebookStr = "notebook"
	kindUnknownStr  = "unknown"
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindScript:
		return kindScriptStr
	case KindNotebook:
		return kindNotebookStr
	default:
		return kindUnknownStr
	}
}

// KindFromName infers the kind from a file name. The extension match is case-insensitive.
func KindFromName(name string) (Kind, bool) {
	ext := filepath.Ext(name)

	switch {
	case strings.EqualFold(ext, ScriptExt):
		return KindScript, true
	case strings.EqualFold(ext, NotebookExt):
		return KindNotebook, true
	default:
		return Kind(-1), false
	}
}

// Task is one discovered file. It is not modified after discovery.
type Task struct {
	Path string // Path to the file, joined from the source directory
	Name string // Base name of the file
	Kind Kind
}

// New creates a Task for path, or returns false if the extension is not runnable.
func New(path string) (Task, bool) {
	name := filepath.Base(path)

	kind, ok := KindFromName(name)
	if !ok {
		return Task{}, false
	}

	return Task{Path: path, Name: name, Kind: kind}, true
}

// Stem returns the file name without its extension.
func (t Task) Stem() string {
	return strings.TrimSuffix(t.Name, filepath.Ext(t.Name))
}

// String implements fmt.Stringer.
func (t Task) String() string {
	return t.Name
}
