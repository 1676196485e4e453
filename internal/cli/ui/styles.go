package ui

import "github.com/charmbracelet/lipgloss"

// Styles holds the lipgloss styles shared by the commands and the TUI.
var Styles = struct {
	Bold     lipgloss.Style
	Dim      lipgloss.Style
	Accent   lipgloss.Style
	Error    lipgloss.Style
	Title    lipgloss.Style
	Card     lipgloss.Style
	ErrorBox lipgloss.Style
	Selected lipgloss.Style
}{
	Bold:   lipgloss.NewStyle().Bold(true),
	Dim:    lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	Accent: lipgloss.NewStyle().Foreground(lipgloss.Color("86")),
	Error:  lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	Title:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86")),

	Card: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("63")).
		Padding(0, 1).
		Width(72),

	ErrorBox: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("196")).
		Padding(0, 1).
		Width(72),

	Selected: lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
}
