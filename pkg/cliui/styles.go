package cliui

import "github.com/charmbracelet/lipgloss"

// Shared output styles for command text. Commands compose these rather than
// defining their own palettes so liner output stays uniform.
var (
	HeaderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Bold(true)
	KeyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Bold(true)
	ValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	NameStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	IDStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	DimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	WarnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)
