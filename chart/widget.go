// ABOUTME: In-process chart widget: holds one series, its visible x window, and its roll period.
// ABOUTME: Reports every change of the displayed window to a draw callback, the way the page's chart library did.
package chart

import (
	"errors"
	"fmt"
	"image/color"
	"math"

	"github.com/2389-research/syncview/catalog"
	"github.com/2389-research/syncview/zoom"
)

// ErrInvalidGesture is returned for zoom factors or pan fractions that are
// not finite, or zoom factors that are not positive.
var ErrInvalidGesture = errors.New("invalid gesture")

// DrawFunc is called after the widget redraws. initial is true only for the
// first draw.
type DrawFunc func(w *Widget, initial bool)

// Options are the construction options of a widget. DateWindow is the
// initial window (the data extent when nil). DrawCallback receives every
// redraw that changes the window.
type Options struct {
	DateWindow   *zoom.ViewRange
	RollPeriod   int
	Colors       []color.Color
	DrawCallback DrawFunc
}

// Update carries the options that can change after construction. Nil fields
// are left alone.
type Update struct {
	DateWindow *zoom.ViewRange
	RollPeriod *int
}

// Widget is a single chart panel. It is driven from one goroutine.
type Widget struct {
	series catalog.Series
	home   zoom.ViewRange
	window zoom.ViewRange
	roll   int
	colors []color.Color
	onDraw DrawFunc
	drawn  bool
}

// New builds a widget. Nothing is reported until Draw is called.
func New(series catalog.Series, opts Options) *Widget {
	w := &Widget{
		series: series,
		roll:   opts.RollPeriod,
		colors: opts.Colors,
		onDraw: opts.DrawCallback,
	}
	if w.roll < 1 {
		w.roll = 1
	}
	if len(w.colors) == 0 {
		w.colors = Palette
	}
	if opts.DateWindow != nil && opts.DateWindow.Validate() == nil {
		w.home = *opts.DateWindow
	} else {
		w.home = dataExtent(series)
	}
	w.window = w.home
	return w
}

// dataExtent is the x range of the rows, widened to include zero. A single
// x value yields [x, x+1] and no rows yield [0, 1].
func dataExtent(s catalog.Series) zoom.ViewRange {
	from, to, ok := s.Extent()
	if !ok {
		return zoom.ViewRange{From: 0, To: 1}
	}
	from = math.Min(from, 0)
	if to <= from {
		to = from + 1
	}
	return zoom.ViewRange{From: from, To: to}
}

func (w *Widget) ID() string                 { return w.series.ID }
func (w *Widget) Partition() int             { return w.series.Partition }
func (w *Widget) Series() catalog.Series     { return w.series }
func (w *Widget) XAxisRange() zoom.ViewRange { return w.window }
func (w *Widget) Home() zoom.ViewRange       { return w.home }
func (w *Widget) RollPeriod() int            { return w.roll }
func (w *Widget) Drawn() bool                { return w.drawn }

// Draw performs the first draw and reports it as initial. Later calls are
// no-ops; redraws happen through UpdateOptions.
func (w *Widget) Draw() {
	if w.drawn {
		return
	}
	w.drawn = true
	if w.onDraw != nil {
		w.onDraw(w, true)
	}
}

// UpdateOptions applies u. The draw callback fires only when the window
// actually changed and the widget has been drawn.
func (w *Widget) UpdateOptions(u Update) error {
	if u.DateWindow != nil {
		if err := u.DateWindow.Validate(); err != nil {
			return err
		}
	}
	if u.RollPeriod != nil && *u.RollPeriod < 1 {
		return fmt.Errorf("%w: got %d", zoom.ErrInvalidRollPeriod, *u.RollPeriod)
	}

	if u.RollPeriod != nil {
		w.roll = *u.RollPeriod
	}
	if u.DateWindow == nil || u.DateWindow.Equal(w.window) {
		return nil
	}
	w.window = *u.DateWindow
	if w.drawn && w.onDraw != nil {
		w.onDraw(w, false)
	}
	return nil
}

// SetDateWindow is how the zoom controller moves this widget.
func (w *Widget) SetDateWindow(r zoom.ViewRange) error {
	return w.UpdateOptions(Update{DateWindow: &r})
}

// SetRollPeriod is how the roll period controller reaches this widget.
func (w *Widget) SetRollPeriod(n int) error {
	return w.UpdateOptions(Update{RollPeriod: &n})
}

// Zoom scales the window about its center; factor 2 halves the span.
func (w *Widget) Zoom(factor float64) error {
	if !(factor > 0) || math.IsInf(factor, 0) {
		return fmt.Errorf("%w: zoom factor %v", ErrInvalidGesture, factor)
	}
	mid := (w.window.From + w.window.To) / 2
	half := w.window.Span() / factor / 2
	r := zoom.ViewRange{From: mid - half, To: mid + half}
	return w.SetDateWindow(r)
}

// Pan moves the window by fraction of its span; negative moves left.
func (w *Widget) Pan(fraction float64) error {
	if math.IsNaN(fraction) || math.IsInf(fraction, 0) {
		return fmt.Errorf("%w: pan fraction %v", ErrInvalidGesture, fraction)
	}
	d := w.window.Span() * fraction
	return w.SetDateWindow(zoom.ViewRange{From: w.window.From + d, To: w.window.To + d})
}

// ResetZoom returns to the home window, as a double click does.
func (w *Widget) ResetZoom() error {
	return w.SetDateWindow(w.home)
}

// Visible returns the rows inside the window, smoothed by the roll period.
// Smoothing runs over the whole series so the first visible rows still
// average over their predecessors.
func (w *Widget) Visible() []catalog.Row {
	smoothed := Smooth(w.series.Rows, w.roll)
	var out []catalog.Row
	for _, r := range smoothed {
		if r.X < w.window.From || r.X > w.window.To {
			continue
		}
		out = append(out, r)
	}
	return out
}
