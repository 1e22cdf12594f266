// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"context"

	"github.com/matt-FFFFFF/nbrun/internal/progress"
)

// Runnable is something that can be run as part of a batch, either a single command or a nested batch.
type Runnable interface {
	// Run executes the command or batch and returns the results.
	// It should handle context cancellation and passing signals to any spawned process.
	Run(ctx context.Context) Results
	// GetLabel returns the label or description of the command or batch.
	GetLabel() string
	// SetProgressReporter sets where lifecycle and output events are sent.
	SetProgressReporter(reporter progress.Reporter)
}
