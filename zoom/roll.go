// ABOUTME: RollPeriodController holds the moving-average window shared by every chart panel.
// ABOUTME: Valid changes are broadcast to all registered targets in registration order.
package zoom

import (
	"fmt"
	"log/slog"

	"github.com/2389-research/syncview/metrics"
)

// RollTarget is anything that smooths its series over a roll period.
type RollTarget interface {
	ID() string
	SetRollPeriod(n int) error
}

// RollPeriodController broadcasts the roll period. Like Controller it
// expects callers to serialize access.
type RollPeriodController struct {
	period  int
	targets []RollTarget
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewRollPeriodController starts at initial, or 1 when initial is invalid.
func NewRollPeriodController(initial int, logger *slog.Logger, m *metrics.Metrics) *RollPeriodController {
	if logger == nil {
		logger = slog.Default()
	}
	if initial < 1 {
		initial = 1
	}
	return &RollPeriodController{period: initial, logger: logger, metrics: m}
}

// Add registers a target. It does not receive the current period; the
// caller constructs targets with it.
func (c *RollPeriodController) Add(t RollTarget) {
	c.targets = append(c.targets, t)
}

// Period returns the last accepted roll period.
func (c *RollPeriodController) Period() int {
	return c.period
}

// Targets returns how many targets are registered.
func (c *RollPeriodController) Targets() int {
	return len(c.targets)
}

// Forget drops every target; the period is kept.
func (c *RollPeriodController) Forget() {
	c.targets = nil
}

// SetRollPeriod validates n, stores it and pushes it to every target. A
// failing target is logged and skipped.
func (c *RollPeriodController) SetRollPeriod(n int) error {
	if n < 1 {
		c.logger.Warn("roll period rejected", "period", n, "current", c.period)
		return fmt.Errorf("%w: got %d", ErrInvalidRollPeriod, n)
	}
	c.period = n
	for _, t := range c.targets {
		if err := guard(func() error { return t.SetRollPeriod(n) }); err != nil {
			c.metrics.PanelFailure("roll")
			c.logger.Error("panel did not accept roll period", "panel", t.ID(), "period", n, "error", err)
		}
	}
	c.metrics.RollBroadcast()
	c.logger.Debug("roll period broadcast", "period", n, "targets", len(c.targets))
	return nil
}
