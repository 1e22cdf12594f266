// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"errors"
	"io"
	"os"
	"slices"
	"time"
)

// ErrResultChildrenHasError is set on a batch result when one of its children failed.
var ErrResultChildrenHasError = errors.New("result has children with errors")

// ResultStatus is the final state of a command or batch.
type ResultStatus int

const (
	// ResultStatusUnknown means the command has not finished or was never run.
	ResultStatusUnknown ResultStatus = iota
	// ResultStatusSuccess means the command completed successfully.
	ResultStatusSuccess
	// ResultStatusError means the command failed.
	ResultStatusError
)

// String implements fmt.Stringer.
func (s ResultStatus) String() string {
	switch s {
	case ResultStatusSuccess:
		return "success"
	case ResultStatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Result represents the outcome of running a command or batch.
type Result struct {
	Label      string        // Label of the command or batch
	Kind       string        // Kind of task, empty for batches
	Status     ResultStatus  // Final state
	ExitCode   int           // Exit code of the command, -1 when it did not exit normally
	Error      error         // Error, if any
	StdOut     []byte        // Output from the command(s)
	StdErr     []byte        // Error output from the command(s)
	OutputPath string        // File written by the command, if any
	Duration   time.Duration // Wall clock time taken
	Children   Results       // Nested results for tree output
}

// Failed reports whether the result represents a failure.
func (r *Result) Failed() bool {
	return r.Status == ResultStatusError || r.Error != nil || r.ExitCode != 0
}

// Results is a slice of Result pointers, used to represent multiple results.
type Results []*Result

// HasError reports whether any result, or any of their children, failed.
func (r Results) HasError() bool {
	for v := range slices.Values(r) {
		if v.Failed() {
			return true
		}

		if v.Children.HasError() {
			return true
		}
	}

	return false
}

// Leaves returns the results that have no children, in depth-first order.
func (r Results) Leaves() Results {
	leaves := make(Results, 0, len(r))

	for v := range slices.Values(r) {
		if len(v.Children) == 0 {
			leaves = append(leaves, v)
			continue
		}

		leaves = append(leaves, v.Children.Leaves()...)
	}

	return leaves
}

// Print outputs the results to stdout with default options.
func (r Results) Print() error {
	return WriteResults(os.Stdout, r, nil)
}

// Write outputs the results to the specified writer with default options.
func (r Results) Write(w io.Writer) error {
	return WriteResults(w, r, nil)
}

// WriteWithOptions outputs the results to the specified writer with the specified options.
func (r Results) WriteWithOptions(w io.Writer, options *OutputOptions) error {
	return WriteResults(w, r, options)
}
