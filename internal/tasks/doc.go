// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package tasks finds the scripts and notebooks to run.
//
// Discovery is deliberately shallow: only regular, non-hidden files directly inside the
// source directory are considered, matched on extension without regard to case, and the
// runner's own file is always left out. The result is sorted by name so that sequential
// runs are reproducible.
package tasks
