// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/matt-FFFFFF/nbrun/internal/progress"
)

const (
	minStatusBarAvailableHeight = 10
	reservedLines               = 8
	minViewportWidth            = 20
	durationRounding            = 100 * time.Millisecond
	ellipsis                    = "..."
)

// ProgressEventMsg wraps a progress event for the tea framework.
type ProgressEventMsg struct {
	Event progress.Event
}

// RunCompletedMsg indicates that every task has finished.
type RunCompletedMsg struct{}

// Init implements bubbletea.Model.Init.
func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements bubbletea.Model.Update.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.mutex.Lock()
		m.width = msg.Width
		m.height = msg.Height
		m.mutex.Unlock()

		m.updateViewportSize()

		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd

		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd

	case ProgressEventMsg:
		m.processProgressEvent(msg.Event)
		return m, nil

	case RunCompletedMsg:
		m.mutex.Lock()
		m.completed = true
		m.mutex.Unlock()

		return m, nil
	}

	var cmd tea.Cmd

	m.viewport, cmd = m.viewport.Update(msg)

	return m, cmd
}

// handleKeyPress processes keyboard input. Keys not handled here scroll the viewport.
func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.mutex.Lock()
		m.quitting = true
		m.interrupted = true
		interrupt := m.interrupt
		m.mutex.Unlock()

		if interrupt != nil {
			interrupt()
		}

		return m, tea.Quit
	case "q", "esc":
		m.mutex.Lock()
		m.quitting = true
		m.mutex.Unlock()

		return m, tea.Quit
	}

	var cmd tea.Cmd

	m.viewport, cmd = m.viewport.Update(msg)

	return m, cmd
}

func (m *Model) updateViewportSize() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.viewport.Width = max(m.width-2, minViewportWidth) //nolint:mnd // border
	m.viewport.Height = max(m.height-reservedLines, 1)
}

// View implements bubbletea.Model.View.
func (m *Model) View() string {
	m.mutex.RLock()
	quitting, completed := m.quitting, m.completed
	m.mutex.RUnlock()

	if quitting && !completed {
		return "Waiting for running tasks to stop...\n"
	}

	var content strings.Builder

	for _, node := range m.nodes {
		m.renderTaskNode(&content, node)
	}

	succeeded, failed, unfinished := m.counts()

	if completed {
		content.WriteString("\n")

		msg := fmt.Sprintf("All %d tasks attempted: %d succeeded, %d failed", len(m.nodes), succeeded, failed)
		if failed > 0 {
			content.WriteString(m.styles.Failed.Render(msg))
		} else {
			content.WriteString(m.styles.Success.Render(msg))
		}

		content.WriteString("\n")
	}

	m.viewport.SetContent(content.String())

	var view strings.Builder

	view.WriteString(m.styles.Title.Render("nbrun " + m.timestamp))
	view.WriteString("\n")
	view.WriteString(m.styles.Border.Render(m.viewport.View()))

	if m.height > minStatusBarAvailableHeight {
		view.WriteString("\n")

		status := fmt.Sprintf("%d running/pending · %d succeeded · %d failed", unfinished, succeeded, failed)
		view.WriteString(m.styles.Help.Render(status))
		view.WriteString("\n")

		help := "↑/↓ to scroll, 'q' to quit"
		if !completed {
			help = "↑/↓ to scroll, 'q' to close this view, ctrl+c to cancel the run"
		}

		view.WriteString(m.styles.Help.Render(help))
	}

	return view.String()
}

// renderTaskNode renders a single task row with the last output line or the error.
func (m *Model) renderTaskNode(b *strings.Builder, node *TaskNode) {
	info := node.GetDisplayInfo()

	var icon, name string

	switch info.Status {
	case StatusRunning:
		icon = m.spinner.View()
		name = m.styles.Running.Render(info.Name)
	case StatusSuccess:
		icon = m.styles.Success.Render("✓")
		name = m.styles.Success.Render(info.Name)
	case StatusFailed:
		icon = m.styles.Failed.Render("✗")
		name = m.styles.Failed.Render(info.Name)
	default:
		icon = m.styles.Pending.Render("·")
		name = m.styles.Pending.Render(info.Name)
	}

	left := fmt.Sprintf("%s %s", icon, name)

	if info.StartTime != nil {
		elapsed := time.Since(*info.StartTime)
		if info.EndTime != nil {
			elapsed = info.EndTime.Sub(*info.StartTime)
		}

		left += m.styles.Output.Render(fmt.Sprintf(" (%v)", elapsed.Round(durationRounding)))
	}

	var right string

	switch {
	case info.Status == StatusFailed && info.ErrorMsg != "":
		right = m.styles.Error.Render(truncate("Error: "+info.ErrorMsg, m.viewport.Width/2)) //nolint:mnd
	case info.Status == StatusRunning && info.LastOutput != "":
		right = m.styles.Output.Render(truncate(info.LastOutput, m.viewport.Width/2)) //nolint:mnd
	case info.OutputPath != "" && info.Status == StatusSuccess:
		right = m.styles.Output.Render(truncate("→ "+info.OutputPath, m.viewport.Width/2)) //nolint:mnd
	}

	leftWidth := m.viewport.Width / 2 //nolint:mnd
	if pad := leftWidth - lipgloss.Width(left); pad > 0 {
		left += strings.Repeat(" ", pad)
	}

	b.WriteString(left)
	b.WriteString(right)
	b.WriteString("\n")
}

// truncate shortens s to at most width runes, ending in an ellipsis when cut.
func truncate(s string, width int) string {
	r := []rune(s)
	if width <= 0 || len(r) <= width {
		return s
	}

	if width <= len(ellipsis) {
		return string(r[:width])
	}

	return string(r[:width-len(ellipsis)]) + ellipsis
}
