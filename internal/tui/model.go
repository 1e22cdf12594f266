// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
	"github.com/matt-FFFFFF/nbrun/internal/progress"
	"github.com/matt-FFFFFF/nbrun/internal/tasks"
)

const (
	defaultWidth  = 80
	defaultHeight = 24
)

// TaskStatus represents the current state of a task in the TUI.
type TaskStatus int

const (
	StatusPending TaskStatus = iota
	StatusRunning
	StatusSuccess
	StatusFailed
)

// String returns a string representation of the task status.
func (s TaskStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusSuccess:
		return "success"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// TaskNode is one row of the display.
type TaskNode struct {
	Name       string     // File name of the task
	Kind       string     // "script" or "notebook"
	OutputPath string     // Where a notebook is being written
	Status     TaskStatus // Current execution status
	StartTime  *time.Time // When execution started
	EndTime    *time.Time // When execution completed
	LastOutput string     // Last line of output from this task
	ErrorMsg   string     // Error message if failed
	mutex      sync.RWMutex
}

// NewTaskNode creates a pending task node.
func NewTaskNode(name, kind string) *TaskNode {
	return &TaskNode{
		Name:   name,
		Kind:   kind,
		Status: StatusPending,
	}
}

// UpdateStatus safely updates the task status.
func (tn *TaskNode) UpdateStatus(status TaskStatus) {
	tn.mutex.Lock()
	defer tn.mutex.Unlock()

	tn.Status = status
	now := time.Now()

	switch status {
	case StatusRunning:
		if tn.StartTime == nil {
			tn.StartTime = &now
		}
	case StatusSuccess, StatusFailed:
		if tn.EndTime == nil {
			tn.EndTime = &now
		}
	}
}

// UpdateOutput keeps the last non-empty line of output.
func (tn *TaskNode) UpdateOutput(output string) {
	tn.mutex.Lock()
	defer tn.mutex.Unlock()

	lines := strings.Split(strings.TrimSpace(output), "\n")
	if last := strings.TrimSpace(lines[len(lines)-1]); last != "" {
		tn.LastOutput = last
	}
}

// UpdateError safely updates the error message.
func (tn *TaskNode) UpdateError(err string) {
	tn.mutex.Lock()
	defer tn.mutex.Unlock()

	tn.ErrorMsg = err
}

// SetOutputPath records where a notebook is written.
func (tn *TaskNode) SetOutputPath(path string) {
	tn.mutex.Lock()
	defer tn.mutex.Unlock()

	tn.OutputPath = path
}

// DisplayInfo is a consistent copy of a node's fields.
type DisplayInfo struct {
	Name       string
	Kind       string
	OutputPath string
	Status     TaskStatus
	LastOutput string
	ErrorMsg   string
	StartTime  *time.Time
	EndTime    *time.Time
}

// GetDisplayInfo safely retrieves display information.
func (tn *TaskNode) GetDisplayInfo() DisplayInfo {
	tn.mutex.RLock()
	defer tn.mutex.RUnlock()

	return DisplayInfo{
		Name:       tn.Name,
		Kind:       tn.Kind,
		OutputPath: tn.OutputPath,
		Status:     tn.Status,
		LastOutput: tn.LastOutput,
		ErrorMsg:   tn.ErrorMsg,
		StartTime:  tn.StartTime,
		EndTime:    tn.EndTime,
	}
}

// Model represents the TUI application state.
type Model struct {
	ctx         context.Context
	timestamp   string
	nodes       []*TaskNode          // In discovery order
	nodeMap     map[string]*TaskNode // By task name
	width       int
	height      int
	quitting    bool
	completed   bool
	interrupt   context.CancelFunc // Called on ctrl+c to cancel the run
	interrupted bool
	mutex       sync.RWMutex

	viewport viewport.Model
	spinner  spinner.Model
	styles   *Styles
}

// Styles contains all the styling for the TUI.
type Styles struct {
	Title   lipgloss.Style
	Pending lipgloss.Style
	Running lipgloss.Style
	Success lipgloss.Style
	Failed  lipgloss.Style
	Output  lipgloss.Style
	Error   lipgloss.Style
	Help    lipgloss.Style
	Border  lipgloss.Style
}

// NewStyles creates the default styling for the TUI.
func NewStyles() *Styles {
	return &Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			MarginBottom(1),
		Pending: lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")),
		Running: lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")).
			Bold(true),
		Success: lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")),
		Failed: lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")),
		Output: lipgloss.NewStyle().
			Foreground(lipgloss.Color("7")).
			Italic(true),
		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Italic(true),
		Help: lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")).
			MarginTop(1),
		Border: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")),
	}
}

// NewModel creates a model with one pending row per task.
func NewModel(ctx context.Context, timestamp string, ts []tasks.Task) *Model {
	m := &Model{
		ctx:       ctx,
		timestamp: timestamp,
		nodes:     make([]*TaskNode, 0, len(ts)),
		nodeMap:   make(map[string]*TaskNode, len(ts)),
		width:     defaultWidth,
		height:    defaultHeight,
		viewport:  viewport.New(defaultWidth, defaultHeight),
		spinner:   spinner.New(spinner.WithSpinner(spinner.Dot)),
		styles:    NewStyles(),
	}

	for _, t := range ts {
		m.getOrCreateNode(t.Name, t.Kind.String())
	}

	m.updateViewportSize()

	return m
}

// getOrCreateNode returns the row for a task, adding it at the end if it is unknown.
func (m *Model) getOrCreateNode(name, kind string) *TaskNode {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if node, exists := m.nodeMap[name]; exists {
		return node
	}

	node := NewTaskNode(name, kind)
	m.nodeMap[name] = node
	m.nodes = append(m.nodes, node)

	return node
}

// counts returns the number of succeeded, failed and unfinished tasks.
func (m *Model) counts() (succeeded, failed, unfinished int) {
	for _, n := range m.nodes {
		switch n.GetDisplayInfo().Status {
		case StatusSuccess:
			succeeded++
		case StatusFailed:
			failed++
		default:
			unfinished++
		}
	}

	return succeeded, failed, unfinished
}

// processProgressEvent applies a task event to its row.
func (m *Model) processProgressEvent(event progress.Event) {
	if event.Task == "" {
		return
	}

	node := m.getOrCreateNode(event.Task, event.Kind)

	switch event.Type {
	case progress.EventStarted:
		node.UpdateStatus(StatusRunning)

		if event.Data.OutputPath != "" {
			node.SetOutputPath(event.Data.OutputPath)
		}

	case progress.EventOutput:
		node.UpdateOutput(event.Data.OutputLine)

	case progress.EventCompleted:
		node.UpdateStatus(StatusSuccess)

	case progress.EventFailed:
		node.UpdateStatus(StatusFailed)

		if event.Data.Error != nil {
			node.UpdateError(event.Data.Error.Error())
		}
	}
}
