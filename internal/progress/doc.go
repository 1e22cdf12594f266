// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package progress carries task lifecycle events (started, output, completed, failed)
// from the executing runnables to whoever is watching: the console printer, the TUI, or nothing.
package progress
