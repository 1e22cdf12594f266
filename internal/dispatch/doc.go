// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package dispatch runs the discovered tasks, sequentially or on a bounded worker pool,
// prints each task's outcome as it happens and aggregates everything into a Summary.
//
// No task failure ever escapes Run. Failures are printed, counted and kept in the Summary,
// which is what callers inspect. The process exit code is not derived from it.
package dispatch
