// Package control implements the feedback side of the controller: a moving average over the raw
// speed readings and a step-wise duty correction with a dead-band and a rate limit.
//
// The law is intentionally not a PID. Feedback is noisy and lags the actuator, so corrections are
// fixed-size steps: a fine step close to the setpoint and a coarse step further away. No correction
// is made inside the dead-band, and corrections are spaced at least AdjustPeriod apart.
package control

import (
	"io"
	"log/slog"
	"time"

	"github.com/calvinmclean/speedctl"
)

// Action is what a control step did to the duty cycle
type Action int

const (
	ActionNone Action = iota
	// ActionStopped means the baseline duty was applied because the target is neutral or the
	// emergency stop is on
	ActionStopped
	// ActionDeadBand means the error was inside the hysteresis band
	ActionDeadBand
	// ActionGated means a correction was due but the rate gate was still closed
	ActionGated
	ActionRaised
	ActionLowered
)

func (a Action) String() string {
	switch a {
	case ActionStopped:
		return "Stopped"
	case ActionDeadBand:
		return "DeadBand"
	case ActionGated:
		return "Gated"
	case ActionRaised:
		return "Raised"
	case ActionLowered:
		return "Lowered"
	default:
		return "None"
	}
}

// Actuator is the part of actuator.Actuator the law drives
type Actuator interface {
	SetDutyCycle(requested int) int
	Duty() int
}

// Outcome describes a single control step
type Outcome struct {
	Action   Action
	Filtered int
	Error    int
	Duty     int
}

// Law tracks the target speed in State by adjusting the actuator's duty cycle
type Law struct {
	cfg    Config
	state  *speedctl.State
	act    Actuator
	filter *Filter
	gate   *speedctl.RateGate
	logger *slog.Logger
}

// NewLaw creates a control law for state driving act
func NewLaw(cfg Config, state *speedctl.State, act Actuator, logger *slog.Logger) *Law {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.MaxSample <= 0 {
		cfg.MaxSample = DefaultConfig().MaxSample
	}

	return &Law{
		cfg:    cfg,
		state:  state,
		act:    act,
		filter: NewFilter(cfg.Window),
		gate:   speedctl.NewRateGate(cfg.AdjustPeriod),
		logger: logger,
	}
}

// Filtered is the current filtered speed
func (l *Law) Filtered() int {
	return l.filter.Value()
}

// Step runs one pass of the law with a raw sensor reading taken at now
func (l *Law) Step(now time.Time, raw int) Outcome {
	filtered := l.filter.Update(clampSample(raw, l.cfg.MaxSample))
	err := filtered - l.state.Target().Setpoint

	out := Outcome{Filtered: filtered, Error: err}

	if l.state.AtNeutral() || l.state.EmergencyStop() {
		out.Action = ActionStopped
		out.Duty = l.act.SetDutyCycle(l.cfg.BaselineDuty)
		return out
	}

	if abs(err) <= l.cfg.Hysteresis {
		out.Action = ActionDeadBand
		out.Duty = l.act.Duty()
		return out
	}

	if !l.gate.Allow(now) {
		out.Action = ActionGated
		out.Duty = l.act.Duty()
		return out
	}

	step := l.cfg.CoarseStep
	if abs(err) < l.cfg.ProportionalWindow {
		step = l.cfg.FineStep
	}

	// running slow raises duty, running fast lowers it
	current := l.act.Duty()
	if err < 0 {
		out.Action = ActionRaised
		out.Duty = l.act.SetDutyCycle(current + step)

		// a fine raise from the idle floor can be snapped straight back to it
		if out.Duty <= current && step < l.cfg.CoarseStep {
			step = l.cfg.CoarseStep
			out.Duty = l.act.SetDutyCycle(current + step)
		}
	} else {
		out.Action = ActionLowered
		out.Duty = l.act.SetDutyCycle(current - step)
	}

	l.logger.Debug("duty corrected",
		"action", out.Action,
		"filtered", filtered,
		"error", err,
		"step", step,
		"duty", out.Duty,
	)

	return out
}

func clampSample(v, maxSample int) int {
	if v < 0 {
		return 0
	}
	if v > maxSample {
		return maxSample
	}
	return v
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
