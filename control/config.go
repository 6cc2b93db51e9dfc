package control

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidConfig is returned when a Config would make the law drive away from the setpoint
var ErrInvalidConfig = errors.New("invalid control config")

// Config tunes the control law. Errors are in raw feedback units and steps are in duty percent.
type Config struct {
	// Window is the number of samples averaged by the speed filter
	Window int `yaml:"window"`
	// MaxSample is the largest reading the sensor can produce. Readings are clamped to [0, MaxSample].
	MaxSample int `yaml:"max_sample"`

	// BaselineDuty is applied every cycle while the target is neutral or the emergency stop is on
	BaselineDuty int `yaml:"baseline_duty"`

	// Hysteresis is the dead-band: errors with magnitude up to this value are left alone
	Hysteresis int `yaml:"hysteresis"`
	// ProportionalWindow separates the fine and coarse correction regimes
	ProportionalWindow int `yaml:"proportional_window"`
	FineStep           int `yaml:"fine_step"`
	CoarseStep         int `yaml:"coarse_step"`

	// AdjustPeriod is the minimum time between two duty corrections
	AdjustPeriod time.Duration `yaml:"adjust_period"`
}

// DefaultConfig is tuned for the default speed table, which spaces setpoints 64 counts apart
func DefaultConfig() Config {
	return Config{
		Window:             10,
		MaxSample:          1023,
		BaselineDuty:       50,
		Hysteresis:         8,
		ProportionalWindow: 64,
		FineStep:           1,
		CoarseStep:         5,
		AdjustPeriod:       300 * time.Millisecond,
	}
}

// Validate checks that corrections always move towards the setpoint and that the fine regime sits
// outside the dead-band
func (c Config) Validate() error {
	switch {
	case c.Window < 1:
		return fmt.Errorf("%w: window must be at least 1, got %d", ErrInvalidConfig, c.Window)
	case c.MaxSample < 0:
		return fmt.Errorf("%w: max sample %d is negative", ErrInvalidConfig, c.MaxSample)
	case c.BaselineDuty < 0 || c.BaselineDuty > 100:
		return fmt.Errorf("%w: baseline duty %d outside [0, 100]", ErrInvalidConfig, c.BaselineDuty)
	case c.Hysteresis < 0:
		return fmt.Errorf("%w: hysteresis %d is negative", ErrInvalidConfig, c.Hysteresis)
	case c.ProportionalWindow <= c.Hysteresis:
		return fmt.Errorf("%w: proportional window %d must be larger than hysteresis %d", ErrInvalidConfig, c.ProportionalWindow, c.Hysteresis)
	case c.FineStep <= 0 || c.FineStep > c.CoarseStep:
		return fmt.Errorf("%w: steps must satisfy 0 < fine (%d) <= coarse (%d)", ErrInvalidConfig, c.FineStep, c.CoarseStep)
	case c.AdjustPeriod < 0:
		return fmt.Errorf("%w: adjust period %s is negative", ErrInvalidConfig, c.AdjustPeriod)
	}
	return nil
}
