package app

import (
	"fmt"
	"strings"

	"llmchat/src/models"

	"github.com/charmbracelet/lipgloss"
	"github.com/common-nighthawk/go-figure"
)

var (
	accentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Padding(0, 1)
	footerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Padding(0, 1)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Padding(0, 1)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	onlineStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	offlineStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

const appName = "LLM CHAT"

// View implements tea.Model.
func (m *Model) View() string {
	if m.modal != nil {
		return m.modal.ViewRegion(m.width, m.height)
	}
	switch {
	case m.state == models.ConnectivityDisconnected:
		return m.renderDisconnected()
	case m.state == models.ConnectivityUnknown || !m.mounted:
		return m.renderConnecting()
	}
	if m.width < 40 || m.height < 10 {
		return m.renderMinimalView()
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(), m.renderMainContent(), m.renderFooter())
}

func banner() string {
	return accentStyle.Render(figure.NewFigure(appName, "", true).String())
}

// renderConnecting is shown until the first probe resolves.
func (m *Model) renderConnecting() string {
	body := lipgloss.JoinVertical(lipgloss.Center,
		banner(),
		"",
		fmt.Sprintf("%s Connecting to %s...", m.spinner.View(), m.opts.BaseURL),
	)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, body)
}

// renderDisconnected is the connection error screen with the retry hint.
func (m *Model) renderDisconnected() string {
	lines := []string{
		banner(),
		"",
		offlineStyle.Render("Cannot reach the chat backend at " + m.opts.BaseURL),
	}
	if err := m.monitor.LastError(); err != nil {
		lines = append(lines, mutedStyle.Render(err.Error()))
	}
	lines = append(lines, "", mutedStyle.Render("r: retry • q: quit"))
	body := lipgloss.JoinVertical(lipgloss.Center, lines...)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, body)
}

func (m *Model) renderMinimalView() string {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Align(lipgloss.Center, lipgloss.Center).
		Width(m.width).
		Height(m.height).
		Render("Terminal too small for application")
}

func (m *Model) renderHeader() string {
	status := onlineStyle.Render("● connected")
	left := headerStyle.Render(appName)
	right := headerStyle.Render(status + " " + mutedStyle.Render(m.opts.BaseURL))
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

func (m *Model) renderMainContent() string {
	sep := lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Render(strings.TrimRight(strings.Repeat("│\n", m.height-2), "\n"))
	return lipgloss.JoinHorizontal(lipgloss.Top, m.sidebar.View(), sep, m.chat.View())
}

func (m *Model) renderFooter() string {
	if m.status != "" {
		return errorStyle.Width(m.width).Render(m.status)
	}
	return footerStyle.Width(m.width).Render(m.help.ShortHelpView(m.keys.ShortHelp()))
}
