// ABOUTME: ViewRange and RangeChangeEvent, the validated values exchanged between chart widgets and the sync engine.
// ABOUTME: Defines the sentinel errors for invalid ranges and unknown partitions or panels.
package zoom

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrInvalidRange      = errors.New("invalid view range")
	ErrUnknownPartition  = errors.New("unknown partition")
	ErrUnknownPanel      = errors.New("unknown panel")
	ErrNoExtent          = errors.New("partition has no captured extent")
	ErrInvalidRollPeriod = errors.New("roll period must be at least 1")
)

// ViewRange is a visible x window. From < To always holds for a valid range.
type ViewRange struct {
	From float64 `json:"from"`
	To   float64 `json:"to"`
}

// Validate rejects non-finite endpoints and empty or inverted ranges.
func (r ViewRange) Validate() error {
	if math.IsNaN(r.From) || math.IsNaN(r.To) || math.IsInf(r.From, 0) || math.IsInf(r.To, 0) {
		return fmt.Errorf("%w: non-finite endpoint in %s", ErrInvalidRange, r)
	}
	if r.From >= r.To {
		return fmt.Errorf("%w: from must be below to in %s", ErrInvalidRange, r)
	}
	return nil
}

// Equal compares both endpoints exactly. Full-reset detection relies on this
// exactness; resampled or rounded ranges never count as equal.
func (r ViewRange) Equal(o ViewRange) bool {
	return r.From == o.From && r.To == o.To
}

// Span is To - From.
func (r ViewRange) Span() float64 {
	return r.To - r.From
}

// Contains reports whether x lies strictly inside the range.
func (r ViewRange) Contains(x float64) bool {
	return x > r.From && x < r.To
}

func (r ViewRange) String() string {
	return fmt.Sprintf("[%g, %g]", r.From, r.To)
}

// RangeChangeEvent is what a chart widget reports when its displayed range
// changes. Initial marks the widget's first draw.
type RangeChangeEvent struct {
	Partition int
	Panel     string
	Range     ViewRange
	Initial   bool
}

// NewRangeChangeEvent validates the raw values coming from a widget.
func NewRangeChangeEvent(partition int, panel string, from, to float64, initial bool) (RangeChangeEvent, error) {
	if panel == "" {
		return RangeChangeEvent{}, fmt.Errorf("%w: empty panel id", ErrUnknownPanel)
	}
	r := ViewRange{From: from, To: to}
	if err := r.Validate(); err != nil {
		return RangeChangeEvent{}, err
	}
	return RangeChangeEvent{Partition: partition, Panel: panel, Range: r, Initial: initial}, nil
}
