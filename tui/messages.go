// ABOUTME: Bubble Tea message types used in the TUI message loop.
// ABOUTME: Each type wraps a dashboard-level event for the tea.Msg interface.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/2389-research/syncview/catalog"
)

// LogMsg carries one engine log record into the log panel.
type LogMsg struct {
	Entry LogEntry
}

// ReloadMsg swaps in a freshly parsed catalog.
type ReloadMsg struct {
	Catalog *catalog.Catalog
}

// ReloadErrMsg reports a payload that could not be loaded.
type ReloadErrMsg struct {
	Err error
}

// refreshTickMsg asks the app to pick up dashboard changes made outside the
// TUI, such as zooms over HTTP.
type refreshTickMsg struct{}

func refreshTickCmd(every time.Duration) tea.Cmd {
	return tea.Tick(every, func(time.Time) tea.Msg { return refreshTickMsg{} })
}
