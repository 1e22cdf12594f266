// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package signalbroker

import (
	"context"
	"os"

	"github.com/matt-FFFFFF/nbrun/internal/ctxlog"
)

// Watch reads sigCh until it is closed or ctx is done. The first signal of a type is logged
// and ignored here (running child processes receive it themselves); the second signal of the
// same type calls cancel and returns.
func Watch(ctx context.Context, sigCh chan os.Signal, cancel context.CancelFunc) {
	seen := make(map[os.Signal]struct{})

	for {
		select {
		case <-ctx.Done():
			return
		case sig, ok := <-sigCh:
			if !ok {
				return
			}

			if _, dup := seen[sig]; dup {
				ctxlog.Warn(ctx, "received second signal, cancelling run", "signal", sig.String())
				cancel()

				return
			}

			ctxlog.Warn(ctx, "received signal, waiting for running tasks; repeat to abort", "signal", sig.String())

			seen[sig] = struct{}{}
		}
	}
}
