// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package teereader wraps a child process output stream so that every complete line
// can be reported as it arrives while the whole stream is still captured for the final result.
package teereader
