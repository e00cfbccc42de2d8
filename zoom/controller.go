// ABOUTME: SyncZoomController keeps every panel of a partition on the same visible x window.
// ABOUTME: Per-partition state machine (Idle/Propagating) suppresses re-entrant callbacks during fan-out.
package zoom

import (
	"crypto/rand"
	"fmt"
	"log/slog"
	"sort"

	"github.com/oklog/ulid/v2"

	"github.com/2389-research/syncview/metrics"
)

// Widget is a chart panel whose displayed window the controller can set.
// SetDateWindow may synchronously report the change back through
// OnRangeChanged; the controller ignores such re-entrant calls.
type Widget interface {
	ID() string
	SetDateWindow(r ViewRange) error
}

// HeatmapTarget is a density panel redrawn after every propagation.
type HeatmapTarget interface {
	ID() string
	Render(r ViewRange) error
}

// State is the propagation state of one partition.
type State int

const (
	Idle State = iota
	Propagating
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Propagating:
		return "propagating"
	default:
		return "unknown"
	}
}

// Outcome tells the caller what an event did.
type Outcome int

const (
	OutcomeIgnored    Outcome = iota // unknown partition or panel, or nothing to do
	OutcomeRejected                  // malformed range
	OutcomeSuppressed                // arrived while the partition was propagating
	OutcomeCaptured                  // initial draw recorded the original extent
	OutcomeZoom                      // new range pushed to the other panels
	OutcomeFullReset                 // original extent pushed to the other panels
)

func (o Outcome) String() string {
	switch o {
	case OutcomeIgnored:
		return "ignored"
	case OutcomeRejected:
		return "rejected"
	case OutcomeSuppressed:
		return "suppressed"
	case OutcomeCaptured:
		return "captured"
	case OutcomeZoom:
		return "zoom"
	case OutcomeFullReset:
		return "reset"
	default:
		return "unknown"
	}
}

type partition struct {
	id          int
	widgets     []Widget
	heatmaps    []HeatmapTarget
	state       State
	current     ViewRange
	original    ViewRange
	hasCurrent  bool
	hasOriginal bool
}

func (p *partition) hasWidget(id string) bool {
	for _, w := range p.widgets {
		if w.ID() == id {
			return true
		}
	}
	return false
}

// Controller owns the current and original ViewRange of every partition.
// It is not safe for concurrent use; callers serialize events the way a
// single UI thread would.
type Controller struct {
	partitions map[int]*partition
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger used for diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics attaches prometheus collectors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Controller) { c.metrics = m }
}

// NewController returns a controller with no partitions.
func NewController(opts ...Option) *Controller {
	c := &Controller{
		partitions: make(map[int]*partition),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) partition(id int) *partition {
	p, ok := c.partitions[id]
	if !ok {
		p = &partition{id: id}
		c.partitions[id] = p
	}
	return p
}

// AddWidget registers a chart panel. Fan-out follows registration order.
func (c *Controller) AddWidget(partition int, w Widget) {
	p := c.partition(partition)
	p.widgets = append(p.widgets, w)
}

// AddHeatmap registers a density panel of a partition.
func (c *Controller) AddHeatmap(partition int, h HeatmapTarget) {
	p := c.partition(partition)
	p.heatmaps = append(p.heatmaps, h)
}

// OnRangeChanged handles a range change reported by a widget. Errors are
// logged and returned for inspection; none of them alter shared state.
func (c *Controller) OnRangeChanged(evt RangeChangeEvent) (Outcome, error) {
	outcome, err := c.onRangeChanged(evt)
	c.metrics.RangeEvent(outcome.String())
	return outcome, err
}

func (c *Controller) onRangeChanged(evt RangeChangeEvent) (Outcome, error) {
	p, ok := c.partitions[evt.Partition]
	if !ok {
		c.logger.Warn("range change for unknown partition ignored",
			"partition", evt.Partition, "panel", evt.Panel)
		return OutcomeIgnored, fmt.Errorf("%w: %d", ErrUnknownPartition, evt.Partition)
	}

	if p.state == Propagating {
		c.logger.Debug("re-entrant range change suppressed",
			"partition", p.id, "panel", evt.Panel, "range", evt.Range.String())
		return OutcomeSuppressed, nil
	}

	if err := evt.Range.Validate(); err != nil {
		c.logger.Warn("range change rejected",
			"partition", p.id, "panel", evt.Panel, "error", err)
		return OutcomeRejected, err
	}

	if !p.hasWidget(evt.Panel) {
		c.logger.Warn("range change from unknown panel ignored",
			"partition", p.id, "panel", evt.Panel)
		return OutcomeIgnored, fmt.Errorf("%w: %q in partition %d", ErrUnknownPanel, evt.Panel, p.id)
	}

	if evt.Initial {
		if p.hasOriginal {
			return OutcomeIgnored, nil
		}
		p.original, p.hasOriginal = evt.Range, true
		p.current, p.hasCurrent = evt.Range, true
		c.logger.Debug("original extent captured",
			"partition", p.id, "panel", evt.Panel, "range", evt.Range.String())
		return OutcomeCaptured, nil
	}

	if !p.hasOriginal {
		p.original, p.hasOriginal = evt.Range, true
		c.logger.Debug("original extent captured from first zoom",
			"partition", p.id, "panel", evt.Panel, "range", evt.Range.String())
	}

	if evt.Range.Equal(p.original) {
		c.propagate(p, evt.Panel, p.original, "reset")
		return OutcomeFullReset, nil
	}
	c.propagate(p, evt.Panel, evt.Range, "zoom")
	return OutcomeZoom, nil
}

// Reset pushes the original extent of a partition to every panel, as if a
// panel had been zoomed fully out.
func (c *Controller) Reset(partition int) error {
	p, ok := c.partitions[partition]
	if !ok {
		c.logger.Warn("reset for unknown partition ignored", "partition", partition)
		return fmt.Errorf("%w: %d", ErrUnknownPartition, partition)
	}
	if p.state == Propagating {
		c.logger.Debug("re-entrant reset suppressed", "partition", partition)
		return nil
	}
	if !p.hasOriginal {
		c.logger.Warn("reset before any extent was captured", "partition", partition)
		return fmt.Errorf("%w: %d", ErrNoExtent, partition)
	}
	c.propagate(p, "", p.original, "reset")
	return nil
}

// propagate sets r on every widget except skip, then redraws every heatmap.
// The partition stays Propagating for the whole fan-out and returns to Idle
// even if a panel panics.
func (c *Controller) propagate(p *partition, skip string, r ViewRange, kind string) {
	id := ulid.MustNew(ulid.Now(), rand.Reader).String()
	log := c.logger.With("propagation", id, "partition", p.id)

	p.state = Propagating
	defer func() { p.state = Idle }()

	p.current, p.hasCurrent = r, true
	log.Debug("propagating view range", "kind", kind, "source", skip, "range", r.String())

	for _, w := range p.widgets {
		if w.ID() == skip {
			continue
		}
		if err := guard(func() error { return w.SetDateWindow(r) }); err != nil {
			c.metrics.PanelFailure("widget")
			log.Error("panel did not accept view range", "panel", w.ID(), "error", err)
		}
	}
	for _, h := range p.heatmaps {
		if err := guard(func() error { return h.Render(r) }); err != nil {
			c.metrics.PanelFailure("heatmap")
			log.Error("heatmap render failed", "panel", h.ID(), "error", err)
		}
	}
	c.metrics.Fanout(kind)
}

// guard runs fn and turns a panic into an error.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

// Current returns the range every panel of the partition was last set to.
func (c *Controller) Current(partition int) (ViewRange, bool) {
	p, ok := c.partitions[partition]
	if !ok || !p.hasCurrent {
		return ViewRange{}, false
	}
	return p.current, true
}

// Original returns the captured full extent of the partition.
func (c *Controller) Original(partition int) (ViewRange, bool) {
	p, ok := c.partitions[partition]
	if !ok || !p.hasOriginal {
		return ViewRange{}, false
	}
	return p.original, true
}

// State returns the propagation state of a partition (Idle if unknown).
func (c *Controller) State(partition int) State {
	if p, ok := c.partitions[partition]; ok {
		return p.state
	}
	return Idle
}

// Partitions returns the registered partition ids, ascending.
func (c *Controller) Partitions() []int {
	ids := make([]int, 0, len(c.partitions))
	for id := range c.partitions {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Forget drops every partition and its ranges, as a page reload does.
func (c *Controller) Forget() {
	c.partitions = make(map[int]*partition)
}
