// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package fakepython installs a stand-in interpreter for tests.
// Scripts are run by /bin/sh, and "-m papermill <in> <out>" copies the notebook,
// failing when the input contains the word FAIL.
package fakepython

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

const script = `#!/bin/sh
if [ "$1" = "-m" ] && [ "$2" = "papermill" ]; then
  in="$3"
  out="$4"
  echo "Input Notebook:  $in" >&2
  if grep -q FAIL "$in"; then
    echo "PapermillExecutionError: cell raised an exception" >&2
    exit 1
  fi
  cp "$in" "$out" || exit 1
  echo "Output Notebook: $out" >&2
  exit 0
fi
exec /bin/sh "$@"
`

// Install writes the fake interpreter into dir and returns its path.
// The test is skipped on Windows.
func Install(t testing.TB, dir string) string {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("fake interpreter requires a POSIX shell")
	}

	path := filepath.Join(dir, "fakepython")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755)) //nolint:gosec

	return path
}

// WriteFile writes a task file with the given content into dir and returns its path.
func WriteFile(t testing.TB, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644)) //nolint:gosec

	return path
}
