// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package ctxlog carries a *slog.Logger in a context.Context.
//
// The default logger writes to stdout through PrettyHandler. Its level comes from the
// NBRUN_LOG_LEVEL environment variable ("DEBUG", "INFO", "WARN" or "ERROR") and
// defaults to WARN, so task output printed by the dispatcher is not drowned in logs.
package ctxlog
