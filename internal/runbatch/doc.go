// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package runbatch runs a collection of tasks, either one after another or through a bounded
// pool of workers, and collects a Result for every one of them.
// A failing task never stops its siblings from running. The caller decides what a failure means.
// Results can be rendered as an indented tree with a ✓ or ✗ per task.
package runbatch
