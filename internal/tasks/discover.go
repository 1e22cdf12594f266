// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tasks

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/matt-FFFFFF/nbrun/internal/ctxlog"
	"github.com/spf13/afero"
)

// FS is the filesystem used for discovery. Tests replace it with an in-memory filesystem.
var FS = afero.NewOsFs()

// ErrDiscovery is the sentinel wrapped by every DiscoveryError.
var ErrDiscovery = errors.New("task discovery failed")

// DiscoveryError is returned when the source directory cannot be listed. It is fatal to the run.
type DiscoveryError struct {
	Dir string
	Err error
}

// NewDiscoveryError creates a DiscoveryError for dir.
func NewDiscoveryError(dir string, err error) *DiscoveryError {
	return &DiscoveryError{Dir: dir, Err: err}
}

// Error implements the error interface.
func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("%s: cannot read directory %q: %v", ErrDiscovery, e.Dir, e.Err)
}

// Unwrap supports errors.Is and errors.As for both the sentinel and the cause.
func (e *DiscoveryError) Unwrap() []error {
	return []error{ErrDiscovery, e.Err}
}

// Discover lists the runnable files directly inside dir, sorted by name.
// self is the runner's own file and is never returned. An empty result is not an error.
func Discover(ctx context.Context, fs afero.Fs, dir, self string) ([]Task, error) {
	logger := ctxlog.Logger(ctx).With("dir", dir)

	if fs == nil {
		fs = FS
	}

	select {
	case <-ctx.Done():
		return nil, NewDiscoveryError(dir, ctx.Err())
	default:
	}

	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil, NewDiscoveryError(dir, err)
	}

	selfAbs := absClean(self)
	result := make([]Task, 0, len(entries))

	for _, info := range entries {
		name := info.Name()

		switch {
		case strings.HasPrefix(name, "."):
			logger.Debug("skipping hidden file", "name", name)
			continue
		case !info.Mode().IsRegular():
			logger.Debug("skipping non-regular file", "name", name, "mode", info.Mode().String())
			continue
		}

		path := filepath.Join(dir, name)

		t, ok := New(path)
		if !ok {
			continue
		}

		if isSelf(fs, path, info, self, selfAbs) {
			logger.Debug("skipping runner file", "name", name)
			continue
		}

		result = append(result, t)
	}

	logger.Debug("discovered tasks", "count", len(result))

	return result, nil
}

func isSelf(fs afero.Fs, path string, info os.FileInfo, self, selfAbs string) bool {
	if self == "" {
		return false
	}

	if absClean(path) == selfAbs {
		return true
	}

	if _, ok := fs.(*afero.OsFs); !ok {
		return false
	}

	selfInfo, err := os.Stat(self)
	if err != nil {
		return false
	}

	return os.SameFile(info, selfInfo)
}

func absClean(p string) string {
	if p == "" {
		return ""
	}

	abs, err := filepath.Abs(p)
	if err != nil {
		return filepath.Clean(p)
	}

	return abs
}
