// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package progress

import (
	"io"
	"sync"
)

// Formatter renders an event as text. An empty string means the event is not printed.
type Formatter func(Event) string

// WriterReporter prints formatted events to a writer. Each event is written with a single
// Write call under a mutex, so output from concurrent tasks interleaves only between events.
type WriterReporter struct {
	w      io.Writer
	format Formatter
	mu     sync.Mutex
	err    error
}

// NewWriterReporter creates a WriterReporter.
func NewWriterReporter(w io.Writer, format Formatter) *WriterReporter {
	return &WriterReporter{
		w:      w,
		format: format,
	}
}

// Report implements Reporter.
func (wr *WriterReporter) Report(event Event) {
	if wr.format == nil {
		return
	}

	text := wr.format(event)
	if text == "" {
		return
	}

	wr.mu.Lock()
	defer wr.mu.Unlock()

	if _, err := io.WriteString(wr.w, text); err != nil && wr.err == nil {
		wr.err = err
	}
}

// Close implements Reporter.
func (wr *WriterReporter) Close() {}

// Err returns the first write error, if any.
func (wr *WriterReporter) Err() error {
	wr.mu.Lock()
	defer wr.mu.Unlock()

	return wr.err
}
