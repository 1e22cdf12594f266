// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package progress

import (
	"time"
)

// Event is a single lifecycle update for one task.
type Event struct {
	Task      string    // Task label, the file name relative to the source directory
	Kind      string    // Task kind, "script" or "notebook"
	Type      EventType // What happened
	Message   string    // Human-readable status
	Timestamp time.Time // When it happened
	Data      EventData // Type-specific payload
}

// EventType is the kind of lifecycle update.
type EventType int

const (
	// EventStarted is emitted when a task begins executing.
	EventStarted EventType = iota
	// EventOutput is emitted for each complete line a task writes.
	EventOutput
	// EventCompleted is emitted when a task succeeds.
	EventCompleted
	// EventFailed is emitted when a task fails for any reason.
	EventFailed
)

// String implements fmt.Stringer.
func (et EventType) String() string {
	switch et {
	case EventStarted:
		return "started"
	case EventOutput:
		return "output"
	case EventCompleted:
		return "completed"
	case EventFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// EventData holds the payload of an event. Only the fields relevant to the event type are set.
type EventData struct {
	// EventStarted
	OutputPath string // Where a notebook will be written

	// EventOutput
	OutputLine string
	IsStderr   bool

	// EventCompleted / EventFailed
	ExitCode int
	Error    error
	StdOut   []byte
	StdErr   []byte
	Duration time.Duration
}

// Reporter receives events. Implementations must be safe for concurrent use and must not block
// the reporting task for long.
type Reporter interface {
	Report(event Event)
	Close()
}

// Listener consumes events forwarded by a ChannelReporter.
type Listener interface {
	OnEvent(event Event)
}

// NullReporter discards every event.
type NullReporter struct{}

// Report implements Reporter.
func (NullReporter) Report(Event) {}

// Close implements Reporter.
func (NullReporter) Close() {}

// NewNullReporter returns a Reporter that discards every event.
func NewNullReporter() Reporter {
	return NullReporter{}
}
