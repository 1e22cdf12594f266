// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"maps"
	"time"

	"github.com/matt-FFFFFF/nbrun/internal/progress"
)

// BaseCommand holds the fields shared by every Runnable.
// It should be embedded in other command types to provide common functionality.
type BaseCommand struct {
	Label    string            // Label for the command, used in events and results
	Kind     string            // Kind of task, e.g. "script" or "notebook"
	Cwd      string            // The working directory for the command
	Env      map[string]string // Environment variables added to the inherited environment
	reporter progress.Reporter
}

// NewBaseCommand creates a new BaseCommand with the specified parameters.
func NewBaseCommand(label, kind, cwd string, env map[string]string) *BaseCommand {
	return &BaseCommand{
		Label: label,
		Kind:  kind,
		Cwd:   cwd,
		Env:   maps.Clone(env),
	}
}

// GetLabel returns the label of the command.
func (c *BaseCommand) GetLabel() string {
	if c.Label == "" {
		return "Command"
	}

	return c.Label
}

// SetProgressReporter sets the progress reporter for the command.
func (c *BaseCommand) SetProgressReporter(reporter progress.Reporter) {
	c.reporter = reporter
}

// Reporter returns the progress reporter, or a reporter that discards events if none is set.
func (c *BaseCommand) Reporter() progress.Reporter {
	if c.reporter == nil {
		return progress.NewNullReporter()
	}

	return c.reporter
}

// Report sends an event for this command, filling in the label, kind and timestamp.
func (c *BaseCommand) Report(eventType progress.EventType, message string, data progress.EventData) {
	c.Reporter().Report(progress.Event{
		Task:      c.GetLabel(),
		Kind:      c.Kind,
		Type:      eventType,
		Message:   message,
		Timestamp: time.Now(),
		Data:      data,
	})
}
