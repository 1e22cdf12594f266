// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package dispatch

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/matt-FFFFFF/nbrun/internal/color"
)

// ErrReadReport is returned when a saved summary cannot be decoded.
var ErrReadReport = errors.New("failed to read summary")

// Report is the serialised form of a Summary, as written by --out.
type Report struct {
	Timestamp string       `yaml:"timestamp"`
	OutputDir string       `yaml:"output_dir"`
	Total     int          `yaml:"total"`
	Succeeded int          `yaml:"succeeded"`
	Failed    int          `yaml:"failed"`
	Tasks     []ReportTask `yaml:"tasks"`
}

// ReportTask is one task of a Report.
type ReportTask struct {
	Name       string `yaml:"name"`
	Path       string `yaml:"path"`
	Kind       string `yaml:"kind"`
	Status     string `yaml:"status"`
	ExitCode   int    `yaml:"exit_code"`
	Error      string `yaml:"error,omitempty"`
	OutputPath string `yaml:"output_path,omitempty"`
	Duration   string `yaml:"duration"`
}

// Report converts the summary into its serialisable form.
func (s *Summary) Report() *Report {
	r := &Report{
		Timestamp: s.Timestamp,
		OutputDir: s.OutputDir,
		Total:     len(s.Outcomes),
		Succeeded: s.Succeeded(),
		Failed:    s.Failed(),
		Tasks:     make([]ReportTask, 0, len(s.Outcomes)),
	}

	for _, o := range s.Outcomes {
		rt := ReportTask{
			Name:       o.Task.Name,
			Path:       o.Task.Path,
			Kind:       o.Task.Kind.String(),
			Status:     string(o.Status),
			ExitCode:   o.ExitCode,
			OutputPath: o.OutputPath,
			Duration:   o.Duration.Round(time.Millisecond).String(),
		}

		if o.Err != nil {
			rt.Error = o.Err.Error()
		}

		r.Tasks = append(r.Tasks, rt)
	}

	return r
}

// ReadReport decodes a Report previously written by Summary.WriteYAML.
func ReadReport(r io.Reader) (*Report, error) {
	var report Report

	if err := yaml.NewDecoder(r).Decode(&report); err != nil {
		return nil, errors.Join(ErrReadReport, err)
	}

	return &report, nil
}

// WriteText prints the report in the same shape as the end of a run.
func (r *Report) WriteText(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "Run %s\n\n", r.Timestamp); err != nil {
		return err //nolint:wrapcheck
	}

	for _, t := range r.Tasks {
		mark := color.Colorize("✓", color.FgGreen)
		if t.Status != string(StatusSucceeded) {
			mark = color.Colorize("✗", color.FgRed)
		}

		line := fmt.Sprintf("%s %s %s", mark, t.Name, color.Colorize("["+t.Duration+"]", color.Faint))
		if t.Status != string(StatusSucceeded) {
			line += fmt.Sprintf(" (exit code: %d)", t.ExitCode)
		}

		if _, err := fmt.Fprintln(w, line); err != nil {
			return err //nolint:wrapcheck
		}

		if t.Error != "" {
			if _, err := fmt.Fprintf(w, "  ➜ Error: %s\n", t.Error); err != nil {
				return err //nolint:wrapcheck
			}
		}

		if t.OutputPath != "" {
			if _, err := fmt.Fprintf(w, "  ➜ Notebook: %s\n", t.OutputPath); err != nil {
				return err //nolint:wrapcheck
			}
		}
	}

	_, err := fmt.Fprintf(w, "\nAll %d tasks attempted: %d succeeded, %d failed\nOutputs saved in: %s\n",
		r.Total, r.Succeeded, r.Failed, r.OutputDir)

	return err //nolint:wrapcheck
}
