package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	// Header style for titles and section headers
	StyleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			MarginBottom(1)

	StyleLabel = lipgloss.NewStyle().
			Foreground(ColorText).
			Bold(true)

	StyleSuccess = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	StyleError = lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true)

	StyleWarning = lipgloss.NewStyle().
			Foreground(ColorWarning)

	StyleMuted = lipgloss.NewStyle().
			Foreground(ColorMuted)

	// Highlight style for frames arriving on a stream
	StyleHighlight = lipgloss.NewStyle().
			Foreground(ColorSecondary).
			Bold(true)

	StyleBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorSubtle).
			Padding(1, 2)
)

const logoASCII = `
 _                            _ _          _     _
| |_ _ __ __ _ _ __  ___  ___| |_| |__  _ __(_) __| | __ _  ___
| __| '__/ _' | '_ \/ __|/ __| '_ \ '_ \| '__| |/ _' |/ _' |/ _ \
| |_| | | (_| | | | \__ \ (__| |_) | |_) | |  | | (_| | (_| |  __/
 \__|_|  \__,_|_| |_|___/\___|_.__/|_.__/|_|  |_|\__,_|\__, |\___|
                                                       |___/      `

// Logo returns the transcribebridge ASCII art
func Logo() string {
	return StyleHeader.Render(strings.Trim(logoASCII, "\n"))
}

// Table renders rows under a bold header with the CLI palette.
func Table(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(ColorSubtle)).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return StyleLabel.Padding(0, 1)
			}
			return lipgloss.NewStyle().Foreground(ColorText).Padding(0, 1)
		}).
		Headers(headers...).
		Rows(rows...).
		String()
}
