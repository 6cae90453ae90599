// Package drift implements the PID controller that detects ring-occupancy
// drift and drives the resampling ratio back toward equilibrium (the ring
// sitting half full). It is the actuator side of the adaptive resampling
// stream pair: StreamSink and StreamSource each own one Controller.
package drift

import "math"

// Strategy is the controller's state machine, a tagged sum of three cases
// with no implicit transitions, per spec.md §9's design note.
type Strategy int

const (
	// StrategyNone means no resampling is engaged; audio passes through
	// unchanged. This is the initial state.
	StrategyNone Strategy = iota
	// StrategyArmed means resampling is active; Ratio/Time hold the
	// current actuator state.
	StrategyArmed
	// StrategyNever means resampling has been forcibly disabled by an
	// operator override and will not re-arm.
	StrategyNever
)

func (s Strategy) String() string {
	switch s {
	case StrategyNone:
		return "none"
	case StrategyArmed:
		return "armed"
	case StrategyNever:
		return "never"
	default:
		return "unknown"
	}
}

// Settings holds the PID tunables (P in spec.md's data model) plus the
// xrun threshold that triggers arming. Defaults are the values spec.md §3
// lists as approximate; none of this is hard-coded into Controller itself.
type Settings struct {
	PropFactor            float64
	IntegFactor           float64
	DerivFactor           float64
	MinFactor             float64
	MaxFactor             float64
	FactorLastInterp      float64
	CompensationThreshold uint64
}

// DefaultSettings returns the PID tunables spec.md §3 lists as defaults.
// compensation_start_threshold's rationale is not documented in the
// original system (spec.md §9's Open Question); 15 is carried forward as
// a tunable default, not baked in as a constant.
func DefaultSettings() Settings {
	return Settings{
		PropFactor:            1e-5,
		IntegFactor:           7e-8,
		DerivFactor:           1e-5,
		MinFactor:             -0.2,
		MaxFactor:             0.2,
		FactorLastInterp:      0.05,
		CompensationThreshold: 15,
	}
}

// Controller is the drift controller state (C in spec.md's data model): a
// rolling occupancy window, PID integrator state, and the current
// resampling strategy. It is owned exclusively by whichever side (sink or
// source) runs the real-time callback; the application thread never
// touches it directly.
type Controller struct {
	settings  Settings
	window    occupancyWindow
	strategy  Strategy
	ratio     float64
	time      float64
	integral  float64
	lastAvg   float64
	xrunCount uint64
}

// New creates a controller in the initial None state.
func New(settings Settings) *Controller {
	return &Controller{settings: settings}
}

// Strategy returns the controller's current state.
func (c *Controller) Strategy() Strategy { return c.strategy }

// Ratio returns the current resampling ratio. It is only meaningful while
// Strategy() == StrategyArmed; callers in None/Never pass samples through
// unchanged.
func (c *Controller) Ratio() float64 { return c.ratio }

// Time returns the interpolator's current fractional time index.
func (c *Controller) Time() float64 { return c.time }

// SetTime overwrites the fractional time index. Used by StreamSink/
// StreamSource after advancing the shared resampling driver.
func (c *Controller) SetTime(t float64) { c.time = t }

// XrunCount returns the number of xruns recorded since the last Reset.
func (c *Controller) XrunCount() uint64 { return c.xrunCount }

// CompensationThreshold returns the xrun count at which TryArm succeeds.
func (c *Controller) CompensationThreshold() uint64 { return c.settings.CompensationThreshold }

// RecordXrun increments the xrun counter and returns the new count. Callers
// pass measureXruns=false during the startup window to ignore xruns for
// arming purposes.
func (c *Controller) RecordXrun(measure bool) uint64 {
	if measure {
		c.xrunCount++
	}
	return c.xrunCount
}

// RecordOccupancy rotates the rolling window, appending the current ring
// occupancy. Callers invoke this once per callback regardless of strategy.
func (c *Controller) RecordOccupancy(slots int) {
	c.window.push(slots)
}

// TryArm transitions None -> Armed(1.0, 0.0) if the xrun count has reached
// the configured threshold. It is a no-op (returns false) if the
// controller is not in the None state, or the threshold has not been
// reached. On a successful transition the integrator resets and lastAvg is
// recorded from the current window, per spec.md §4.3; callers must then
// seed the per-channel lookback buffers with 3 freshly popped samples
// before the next resampling step.
func (c *Controller) TryArm(capacity int) bool {
	if c.strategy != StrategyNone {
		return false
	}
	if c.xrunCount < c.settings.CompensationThreshold {
		return false
	}
	c.strategy = StrategyArmed
	c.ratio = 1.0
	c.time = 0.0
	c.integral = 0
	c.lastAvg = c.window.mean(capacity)
	return true
}

// Step runs one PID update when Armed. It is a no-op in None/Never. The
// target is a ring held half full, which maximizes tolerance to both over-
// and underruns; normalizing by capacity keeps the gains independent of
// ring size.
func (c *Controller) Step(capacity int) {
	if c.strategy != StrategyArmed {
		return
	}
	avg := c.window.mean(capacity)
	errv := avg - 0.5
	c.integral += errv
	factor := c.settings.PropFactor*errv +
		c.settings.IntegFactor*c.integral +
		c.settings.DerivFactor*(avg-c.lastAvg)
	factor = clamp(factor, c.settings.MinFactor, c.settings.MaxFactor)
	newRatio := math.Exp2(factor)
	c.ratio = lerp(c.ratio, newRatio, c.settings.FactorLastInterp)
	c.lastAvg = avg
}

// Disable forces the controller into Never: resampling is disabled and
// will not re-arm until Reset.
func (c *Controller) Disable() {
	c.strategy = StrategyNever
}

// Reset returns the controller to None, clearing xrun history and PID
// state. This applies from any state, including Never, so a controller
// disabled with Disable can arm again after a Reset.
func (c *Controller) Reset() {
	c.strategy = StrategyNone
	c.ratio = 0
	c.time = 0
	c.integral = 0
	c.lastAvg = 0
	c.xrunCount = 0
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
