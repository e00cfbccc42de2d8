// ABOUTME: Top-level Bubble Tea AppModel laying out chart and heatmap panels in columns over a log panel and status bar.
// ABOUTME: Keys drive the dashboard (zoom, pan, reset, roll period); the engine keeps every column in sync.
package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/2389-research/syncview/dashboard"
)

const (
	logPanelHeight  = 8
	statusBarHeight = 1
	zoomStep        = 2.0
	panStep         = 0.25
	refreshInterval = 250 * time.Millisecond
)

var errNoChart = errors.New("no chart in this column")

// AppModel is the top-level Bubble Tea model.
type AppModel struct {
	dash      *dashboard.Dashboard
	columns   [][]PanelModel
	focus     int
	log       LogPanelModel
	statusBar StatusBarModel
	logCh     <-chan LogEntry
	revision  uint64
	width     int
	height    int
}

// NewAppModel builds the panels of d's current catalog. logCh may be nil.
func NewAppModel(d *dashboard.Dashboard, logCh <-chan LogEntry) (AppModel, error) {
	m := AppModel{
		dash:  d,
		log:   NewLogPanelModel(200),
		logCh: logCh,
	}
	if err := m.rebuild(); err != nil {
		return AppModel{}, err
	}
	return m, nil
}

// rebuild applies the layout of the dashboard's catalog and attaches a
// surface to every heatmap.
func (m *AppModel) rebuild() error {
	cols := &ColumnLayout{}
	if err := m.dash.ApplyLayout(cols); err != nil {
		return fmt.Errorf("apply layout: %w", err)
	}
	cat := m.dash.Catalog()
	panels, err := buildPanels(cat, cols.Columns)
	if err != nil {
		return err
	}
	for _, col := range panels {
		for _, p := range col {
			if p.Kind != HeatmapPanel {
				continue
			}
			if err := m.dash.AttachSurface(p.ID, p.Surface); err != nil {
				return err
			}
		}
	}
	m.columns = panels
	m.focus = 0
	m.statusBar = NewStatusBarModel(cat.ID, m.dash.RollPeriod())
	m.statusBar.SetWidth(m.width)
	if m.width > 0 {
		m.layoutPanels()
	}
	m.refresh()
	return nil
}

// Init implements tea.Model.
func (m AppModel) Init() tea.Cmd {
	return tea.Batch(WaitForLogCmd(m.logCh), refreshTickCmd(refreshInterval))
}

// Update implements tea.Model.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleWindowSize(msg)

	case LogMsg:
		m.log.Append(msg.Entry)
		return m, WaitForLogCmd(m.logCh)

	case ReloadMsg:
		return m.handleReload(msg)

	case ReloadErrMsg:
		m.statusBar.SetError(msg.Err)
		return m, nil

	case refreshTickMsg:
		m.catchUp()
		return m, refreshTickCmd(refreshInterval)

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}
	return m, nil
}

// View implements tea.Model.
func (m AppModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}
	if m.width < 40 || m.height < 16 {
		return fmt.Sprintf("Terminal too small (%dx%d). Minimum: 40x16.", m.width, m.height)
	}

	focused := m.focused()
	rendered := make([]string, 0, len(m.columns))
	for _, col := range m.columns {
		views := make([]string, 0, len(col))
		for _, p := range col {
			views = append(views, p.View(focused != nil && p.ID == focused.ID))
		}
		rendered = append(rendered, lipgloss.JoinVertical(lipgloss.Left, views...))
	}

	var b strings.Builder
	if len(rendered) == 0 {
		b.WriteString("No panels in this catalog")
	} else {
		b.WriteString(joinColumns(rendered))
	}
	b.WriteString("\n")
	b.WriteString(m.log.View())
	b.WriteString("\n")
	b.WriteString(m.statusBar.View())
	return b.String()
}

func (m AppModel) handleWindowSize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.log.SetSize(m.width, logPanelHeight)
	m.statusBar.SetWidth(m.width)
	m.layoutPanels()
	m.refresh()
	return m, nil
}

func (m AppModel) handleReload(msg ReloadMsg) (tea.Model, tea.Cmd) {
	if err := m.dash.Reload(msg.Catalog); err != nil {
		m.statusBar.SetError(err)
		return m, nil
	}
	if err := m.rebuild(); err != nil {
		m.statusBar.SetError(err)
	}
	return m, nil
}

// layoutPanels splits the space above the log between the columns and,
// within a column, between its panels. Heatmaps are redrawn at their
// partition's range onto the resized surfaces.
func (m *AppModel) layoutPanels() {
	if len(m.columns) == 0 {
		return
	}
	avail := max(m.height-logPanelHeight-statusBarHeight-1, 4)
	colWidth := max(m.width/len(m.columns), 4)
	for i := range m.columns {
		n := len(m.columns[i])
		if n == 0 {
			continue
		}
		h := max(avail/n, 4)
		for j := range m.columns[i] {
			p := &m.columns[i][j]
			p.SetSize(colWidth, h)
			if p.Kind == HeatmapPanel {
				if err := m.dash.RedrawHeatmap(p.ID); err != nil {
					m.statusBar.SetError(err)
				}
			}
		}
	}
}

// catchUp replots when the dashboard changed behind the TUI's back, and
// rebuilds the panels when the catalog itself was swapped.
func (m *AppModel) catchUp() {
	if m.dash.Revision() == m.revision {
		return
	}
	if m.dash.Catalog().ID != m.statusBar.catalogID {
		if err := m.rebuild(); err != nil {
			m.statusBar.SetError(err)
		}
		return
	}
	m.refresh()
}

// refresh replots every chart and updates the status bar.
func (m *AppModel) refresh() {
	m.revision = m.dash.Revision()
	for _, col := range m.columns {
		for _, p := range col {
			if p.Kind != ChartPanel {
				continue
			}
			if err := m.dash.PlotChart(p.ID, p.Surface); err != nil {
				m.statusBar.SetError(err)
			}
		}
	}
	m.statusBar.SetRollPeriod(m.dash.RollPeriod())
	if p := m.focused(); p != nil {
		m.statusBar.SetFocus(p.ID, p.Partition)
		if st, err := m.dash.Range(p.Partition); err == nil {
			m.statusBar.SetRange(st.Current)
		}
	}
}

func (m AppModel) panels() []PanelModel {
	var all []PanelModel
	for _, col := range m.columns {
		all = append(all, col...)
	}
	return all
}

func (m AppModel) focused() *PanelModel {
	all := m.panels()
	if len(all) == 0 {
		return nil
	}
	return &all[m.focus%len(all)]
}

// chartFor picks the chart a gesture applies to: the focused chart, or the
// first chart of the focused heatmap's partition.
func (m AppModel) chartFor(p *PanelModel) (string, error) {
	if p.Kind == ChartPanel {
		return p.ID, nil
	}
	for _, q := range m.panels() {
		if q.Kind == ChartPanel && q.Partition == p.Partition {
			return q.ID, nil
		}
	}
	return "", errNoChart
}

func (m AppModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "down", "pgup", "pgdown":
		var cmd tea.Cmd
		m.log, cmd = m.log.Update(msg)
		return m, cmd
	}

	n := len(m.panels())
	p := m.focused()
	if p == nil {
		return m, nil
	}

	var err error
	switch key {
	case "tab":
		m.focus = (m.focus + 1) % n
	case "shift+tab":
		m.focus = (m.focus - 1 + n) % n
	case "+", "=":
		err = m.gesture(p, func(id string) error { return m.dash.Zoom(id, zoomStep) })
	case "-":
		err = m.gesture(p, func(id string) error { return m.dash.Zoom(id, 1/zoomStep) })
	case "left":
		err = m.gesture(p, func(id string) error { return m.dash.Pan(id, -panStep) })
	case "right":
		err = m.gesture(p, func(id string) error { return m.dash.Pan(id, panStep) })
	case "0":
		err = m.gesture(p, m.dash.ResetZoom)
	case "r":
		err = m.dash.ResetPartition(p.Partition)
	case "[":
		err = m.dash.SetRollPeriod(m.dash.RollPeriod() - 1)
	case "]":
		err = m.dash.SetRollPeriod(m.dash.RollPeriod() + 1)
	default:
		return m, nil
	}
	m.statusBar.SetError(err)
	m.refresh()
	return m, nil
}

func (m AppModel) gesture(p *PanelModel, fn func(id string) error) error {
	id, err := m.chartFor(p)
	if err != nil {
		return err
	}
	return fn(id)
}
