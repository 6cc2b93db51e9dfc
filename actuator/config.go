package actuator

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is returned by New when the clamp bands are inconsistent
var ErrInvalidConfig = errors.New("invalid actuator config")

// Config holds the clamp bands and the timer clock used to compute compare values
type Config struct {
	// TimerClock is the PWM timer input clock in Hz
	TimerClock uint32 `yaml:"timer_clock"`

	DefaultDuty int `yaml:"default_duty"`
	MinDuty     int `yaml:"min_duty"`
	MaxDuty     int `yaml:"max_duty"`

	// Requests below IdleThreshold snap to IdleFloor so the motor is never held in its stall region
	IdleThreshold int `yaml:"idle_threshold"`
	IdleFloor     int `yaml:"idle_floor"`

	// Requests above Ceiling snap to SafeMax
	Ceiling int `yaml:"ceiling"`
	SafeMax int `yaml:"safe_max"`

	DefaultFrequency int `yaml:"default_frequency"`
	MinFrequency     int `yaml:"min_frequency"`
	MaxFrequency     int `yaml:"max_frequency"`
}

// DefaultConfig matches a 16 MHz timer in phase-correct mode driving a bridge that idles at 50%
func DefaultConfig() Config {
	return Config{
		TimerClock:       16_000_000,
		DefaultDuty:      50,
		MinDuty:          0,
		MaxDuty:          100,
		IdleThreshold:    5,
		IdleFloor:        0,
		Ceiling:          95,
		SafeMax:          90,
		DefaultFrequency: 35714,
		MinFrequency:     123,
		MaxFrequency:     200_000,
	}
}

// Validate checks that every snap target lies inside the band so clamping is idempotent
func (c Config) Validate() error {
	switch {
	case c.TimerClock == 0:
		return fmt.Errorf("%w: timer clock must be set", ErrInvalidConfig)
	case c.MinDuty < 0 || c.MaxDuty > 100 || c.MinDuty >= c.MaxDuty:
		return fmt.Errorf("%w: duty band [%d, %d] must be inside [0, 100]", ErrInvalidConfig, c.MinDuty, c.MaxDuty)
	case c.IdleThreshold < c.MinDuty || c.IdleThreshold > c.MaxDuty:
		return fmt.Errorf("%w: idle threshold %d outside duty band", ErrInvalidConfig, c.IdleThreshold)
	case c.IdleFloor < c.MinDuty || c.IdleFloor > c.Ceiling:
		return fmt.Errorf("%w: idle floor %d must be in [%d, %d]", ErrInvalidConfig, c.IdleFloor, c.MinDuty, c.Ceiling)
	case c.Ceiling > c.MaxDuty || c.Ceiling < c.IdleThreshold:
		return fmt.Errorf("%w: ceiling %d must be in [%d, %d]", ErrInvalidConfig, c.Ceiling, c.IdleThreshold, c.MaxDuty)
	case c.SafeMax < c.IdleThreshold || c.SafeMax > c.Ceiling:
		return fmt.Errorf("%w: safe max %d must be in [%d, %d]", ErrInvalidConfig, c.SafeMax, c.IdleThreshold, c.Ceiling)
	case c.MinFrequency <= 0 || c.MinFrequency > c.MaxFrequency:
		return fmt.Errorf("%w: frequency band [%d, %d]", ErrInvalidConfig, c.MinFrequency, c.MaxFrequency)
	case uint64(c.MaxFrequency)*2 > uint64(c.TimerClock):
		return fmt.Errorf("%w: max frequency %d too high for a %d Hz timer", ErrInvalidConfig, c.MaxFrequency, c.TimerClock)
	}
	return nil
}

// ClampDuty limits a requested duty to the band, applying the idle floor and the safe maximum
func (c Config) ClampDuty(duty int) int {
	duty = clamp(duty, c.MinDuty, c.MaxDuty)
	switch {
	case duty < c.IdleThreshold:
		return c.IdleFloor
	case duty > c.Ceiling:
		return c.SafeMax
	}
	return duty
}

// ClampFrequency limits a requested frequency to the hardware range
func (c Config) ClampFrequency(freq int) int {
	return clamp(freq, c.MinFrequency, c.MaxFrequency)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
