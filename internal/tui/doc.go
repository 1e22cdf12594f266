// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package tui shows a live view of a run: one row per task with its state, elapsed time and
// the last line it wrote. It is driven by progress events and stays open after the run until
// the user quits.
package tui
