// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package dispatch

import (
	"io"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/hashicorp/go-multierror"
	"github.com/matt-FFFFFF/nbrun/internal/runbatch"
	"github.com/matt-FFFFFF/nbrun/internal/tasks"
)

// Status is the final state of a task.
type Status string

const (
	// StatusSucceeded means the task ran to completion.
	StatusSucceeded Status = "succeeded"
	// StatusFailed means the task failed for any reason.
	StatusFailed Status = "failed"
)

// Outcome is the result of one task.
type Outcome struct {
	Task       tasks.Task
	Status     Status
	ExitCode   int
	Err        error
	StdOut     []byte
	StdErr     []byte
	OutputPath string
	Duration   time.Duration
}

// Summary is the result of a whole run. Outcomes are in discovery order.
type Summary struct {
	Timestamp string
	OutputDir string
	Outcomes  []Outcome
	Results   runbatch.Results // The result tree, for printing
}

// Succeeded returns the number of tasks that succeeded.
func (s *Summary) Succeeded() int {
	return s.count(StatusSucceeded)
}

// Failed returns the number of tasks that failed.
func (s *Summary) Failed() int {
	return s.count(StatusFailed)
}

// HasFailures reports whether any task failed.
func (s *Summary) HasFailures() bool {
	return s.Failed() > 0
}

// Err returns every task error as a single multierror, or nil when all tasks succeeded.
func (s *Summary) Err() error {
	var err *multierror.Error

	for _, o := range s.Outcomes {
		if o.Err != nil {
			err = multierror.Append(err, o.Err)
		}
	}

	return err.ErrorOrNil()
}

func (s *Summary) count(status Status) int {
	n := 0

	for _, o := range s.Outcomes {
		if o.Status == status {
			n++
		}
	}

	return n
}

// WriteYAML writes the summary as a YAML Report document.
func (s *Summary) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	if err := enc.Encode(s.Report()); err != nil {
		return err //nolint:wrapcheck
	}

	return enc.Close() //nolint:wrapcheck
}
