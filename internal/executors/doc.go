// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package executors turns a discovered task into something runbatch can run.
//
// Scripts run as "<interpreter> <script>". Notebooks run through papermill as
// "<interpreter> -m papermill <in> <out>", after the output directory has been created.
// Every executor is a failure boundary: errors and panics become a failed result for
// that task only and are reported as progress events.
package executors
