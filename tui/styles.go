// ABOUTME: Defines lipgloss styles for the TUI panels, focus highlight, log levels, and status bar.
// ABOUTME: Provides StyleForLevel to map slog levels to their display styles.
package tui

import (
	"log/slog"

	"github.com/charmbracelet/lipgloss"
)

var (
	// Panel borders
	BorderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62"))
	FocusedBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("214"))

	// Title styling
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170"))
	SubtitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	// Log level colors
	LogTimestampStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	LogDebugStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	LogInfoStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
	LogWarnStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	LogErrorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	// Status bar
	StatusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Padding(0, 1)
	StatusErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

// StyleForLevel returns the style of a log level.
func StyleForLevel(l slog.Level) lipgloss.Style {
	switch {
	case l >= slog.LevelError:
		return LogErrorStyle
	case l >= slog.LevelWarn:
		return LogWarnStyle
	case l >= slog.LevelInfo:
		return LogInfoStyle
	default:
		return LogDebugStyle
	}
}
