// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package show contains the command that prints a summary saved with --out.
package show

import (
	"context"
	"errors"

	"github.com/matt-FFFFFF/nbrun/internal/dispatch"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v3"
)

const (
	fileArg = "file"
)

var (
	// ErrReadFile is returned when the file cannot be read.
	ErrReadFile = errors.New("failed to read file")
	// ErrWriteResults is returned when the summary cannot be written to stdout.
	ErrWriteResults = errors.New("failed to write results to stdout")
	// ErrNoFile is returned when no file argument is given.
	ErrNoFile = errors.New("please provide the summary file written with --out")
)

// FS is the filesystem summaries are read from. Tests replace it.
var FS = afero.NewOsFs()

// NewCommand returns the command that shows a previously saved run summary.
func NewCommand() *cli.Command {
	return &cli.Command{
		Name:        "show",
		Usage:       "Show a run summary saved with --out",
		Description: "Show a previously saved run summary.",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name:      fileArg,
				UsageText: "SUMMARYFILE",
				Config: cli.StringConfig{
					TrimSpace: true,
				},
			},
		},
		Action: actionFunc,
	}
}

func actionFunc(_ context.Context, cmd *cli.Command) error {
	name := cmd.StringArg(fileArg)
	if name == "" {
		return cli.Exit(ErrNoFile.Error(), 1)
	}

	file, err := FS.Open(name)
	if err != nil {
		return cli.Exit(errors.Join(ErrReadFile, err).Error(), 1)
	}
	defer file.Close() //nolint:errcheck

	report, err := dispatch.ReadReport(file)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	if err := report.WriteText(cmd.Root().Writer); err != nil {
		return errors.Join(ErrWriteResults, err)
	}

	return nil
}
