// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/matt-FFFFFF/nbrun/internal/color"
)

const durationRounding = 100 * time.Millisecond

// OutputOptions controls what is included in the output.
type OutputOptions struct {
	IncludeStdOut      bool // Whether to include stdout in the output
	IncludeStdErr      bool // Whether to include stderr in the output
	ShowSuccessDetails bool // Whether to show details for successful commands
	ShowDuration       bool // Whether to append the duration of each leaf
}

// DefaultOutputOptions returns a default set of output options.
func DefaultOutputOptions() *OutputOptions {
	return &OutputOptions{
		IncludeStdOut:      false,
		IncludeStdErr:      true,
		ShowSuccessDetails: false,
		ShowDuration:       true,
	}
}

// WriteResults writes the results as an indented tree to w.
func WriteResults(w io.Writer, results Results, options *OutputOptions) error {
	if options == nil {
		options = DefaultOutputOptions()
	}

	for _, r := range results {
		if err := writeResultWithIndent(w, r, "", options); err != nil {
			return err
		}
	}

	return nil
}

func writeResultWithIndent(w io.Writer, r *Result, indent string, options *OutputOptions) error {
	var statusStr, labelPrefix string

	failed := r.Failed()

	switch {
	case failed:
		statusStr = color.Colorize("✗", color.FgRed)
		labelPrefix = color.ControlString(color.Bold, color.FgRed)
	case r.Status == ResultStatusSuccess:
		statusStr = color.Colorize("✓", color.FgGreen)
		labelPrefix = color.ControlString(color.Bold, color.FgGreen)
	default:
		statusStr = color.Colorize("?", color.FgWhite)
	}

	label := r.Label
	if label == "" {
		label = "[unnamed]"
	}

	var sb strings.Builder

	fmt.Fprintf(&sb, "%s%s %s%s%s", indent, statusStr, labelPrefix, label, color.ControlString(color.Reset))

	if r.ExitCode != 0 {
		fmt.Fprintf(&sb, " (exit code: %d)", r.ExitCode)
	}

	if options.ShowDuration && len(r.Children) == 0 && r.Duration > 0 {
		sb.WriteString(color.Colorize(fmt.Sprintf(" [%s]", r.Duration.Round(durationRounding)), color.Faint))
	}

	sb.WriteString("\n")

	// ErrResultChildrenHasError is redundant with the errors of the children.
	if r.Error != nil && !errors.Is(r.Error, ErrResultChildrenHasError) {
		fmt.Fprintf(&sb, "%s  %s %s\n", indent, color.Colorize("➜ Error:", color.FgRed), r.Error.Error())
	}

	if r.OutputPath != "" && len(r.Children) == 0 {
		fmt.Fprintf(&sb, "%s  ➜ Notebook: %s\n", indent, r.OutputPath)
	}

	shouldShowDetails := (failed || options.ShowSuccessDetails) && len(r.Children) == 0

	if shouldShowDetails && options.IncludeStdOut && len(r.StdOut) > 0 {
		fmt.Fprintf(&sb, "%s  ➜ Output:\n", indent)
		sb.WriteString(formatOutput(r.StdOut, indent+"     "))
	}

	if shouldShowDetails && options.IncludeStdErr && len(r.StdErr) > 0 {
		fmt.Fprintf(&sb, "%s  %s\n", indent, color.Colorize("➜ Error Output:", color.FgHiRed))
		sb.WriteString(formatOutput(r.StdErr, indent+"     "))
	}

	if _, err := io.WriteString(w, sb.String()); err != nil {
		return err //nolint:wrapcheck
	}

	childIndent := indent + "  "
	for _, child := range r.Children {
		if err := writeResultWithIndent(w, child, childIndent, options); err != nil {
			return err
		}
	}

	return nil
}

// formatOutput indents every non-empty line of output. A trailing newline does not produce an extra line.
func formatOutput(output []byte, indent string) string {
	text := strings.TrimRight(string(output), "\n")
	lines := strings.Split(text, "\n")

	sb := strings.Builder{}
	sb.Grow(len(text) + len(lines)*(len(indent)+1))

	for _, line := range lines {
		if line == "" {
			sb.WriteString("\n")
			continue
		}

		sb.WriteString(indent)
		sb.WriteString(line)
		sb.WriteString("\n")
	}

	return sb.String()
}
