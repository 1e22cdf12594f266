// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package color wraps strings in ANSI escape codes for console output.
// Colour is disabled when NO_COLOR is set, forced when FORCE_COLOR is set,
// and otherwise enabled only when stdout is a terminal.
package color
