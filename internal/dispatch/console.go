// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package dispatch

import (
	"errors"
	"fmt"
	"strings"

	"github.com/matt-FFFFFF/nbrun/internal/executors"
	"github.com/matt-FFFFFF/nbrun/internal/progress"
	"github.com/matt-FFFFFF/nbrun/internal/tasks"
)

const outputIndent = "    "

// NoTasksMessage is printed when discovery finds nothing to run.
const NoTasksMessage = "No .py or .ipynb files found"

// ConsoleFormat renders task lifecycle events as the lines printed during a run.
// Output events are not printed; captured output is shown once the task has finished.
func ConsoleFormat(e progress.Event) string {
	notebook := e.Kind == tasks.KindNotebook.String()

	switch e.Type {
	case progress.EventStarted:
		if notebook {
			return fmt.Sprintf("Running notebook: %s → %s\n", e.Task, e.Data.OutputPath)
		}

		return fmt.Sprintf("Running script: %s\n", e.Task)

	case progress.EventCompleted:
		if notebook {
			return fmt.Sprintf("Completed notebook: %s\n", e.Task)
		}

		return fmt.Sprintf("Completed script: %s\n", e.Task) + indent(e.Data.StdOut)

	case progress.EventFailed:
		var unhandled *executors.UnhandledTaskError
		if errors.As(e.Data.Error, &unhandled) {
			return fmt.Sprintf("Failed %s: %s: %v\n", e.Kind, e.Task, unhandled.Value)
		}

		if notebook {
			return fmt.Sprintf("Failed notebook: %s: %s\n", e.Task, failureReason(e))
		}

		line := fmt.Sprintf("Failed script: %s (return code %d)\n", e.Task, e.Data.ExitCode)
		if cause := failureCause(e.Data.Error); cause != nil {
			line += outputIndent + "error: " + cause.Error() + "\n"
		}

		return line + indent(e.Data.StdErr)
	}

	return ""
}

// failureCause returns the error behind a TaskExecutionFailure, nil for a plain non-zero exit.
func failureCause(err error) error {
	var failure *executors.TaskExecutionFailure
	if errors.As(err, &failure) {
		return failure.Err
	}

	return err
}

// failureReason describes why a notebook failed: the underlying error when there is one,
// otherwise the last line the engine wrote to stderr.
func failureReason(e progress.Event) string {
	if cause := failureCause(e.Data.Error); cause != nil {
		return cause.Error()
	}

	if last := lastLine(e.Data.StdErr); last != "" {
		return last
	}

	return fmt.Sprintf("return code %d", e.Data.ExitCode)
}

func lastLine(b []byte) string {
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")

	return strings.TrimSpace(lines[len(lines)-1])
}

// indent prefixes every line of output. Empty output yields an empty string.
func indent(b []byte) string {
	text := strings.TrimRight(string(b), "\n")
	if text == "" {
		return ""
	}

	var sb strings.Builder

	for line := range strings.SplitSeq(text, "\n") {
		sb.WriteString(outputIndent)
		sb.WriteString(strings.TrimSuffix(line, "\r"))
		sb.WriteString("\n")
	}

	return sb.String()
}
