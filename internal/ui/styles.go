// Package ui форматирует итоговый вывод в консоль.
package ui

import "github.com/charmbracelet/lipgloss"

// Цвета консольного вывода.
var (
	ColorRed    = lipgloss.Color("#FF0000")
	ColorGreen  = lipgloss.Color("#00FF00")
	ColorYellow = lipgloss.Color("#FFFF00")
	ColorCyan   = lipgloss.Color("#00FFFF")
	ColorGray   = lipgloss.Color("#666666")
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorCyan)

	OKStyle = lipgloss.NewStyle().
		Foreground(ColorGreen).
		Bold(true)

	WarnStyle = lipgloss.NewStyle().
			Foreground(ColorYellow).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorRed).
			Bold(true)

	WordStyle = lipgloss.NewStyle().
			Foreground(ColorRed)

	TimestampStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	DimStyle = lipgloss.NewStyle().
			Foreground(ColorGray)
)
