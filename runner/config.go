package runner

import (
	"fmt"
	"time"

	"github.com/calvinmclean/speedctl"
	"github.com/calvinmclean/speedctl/actuator"
	"github.com/calvinmclean/speedctl/control"
)

// Config is the full tuning of a controller. The yaml tags define the host tuning file format.
type Config struct {
	Speeds   speedctl.SpeedTable `yaml:"speeds"`
	Actuator actuator.Config     `yaml:"actuator"`
	Control  control.Config      `yaml:"control"`

	// ButtonPeriod is the minimum time between two honored button presses
	ButtonPeriod time.Duration `yaml:"button_period"`
	// Interval is the time between control cycles in Run
	Interval time.Duration `yaml:"interval"`
}

// DefaultConfig is the stock tuning for the -6..6 speed table
func DefaultConfig() Config {
	return Config{
		Speeds:       speedctl.DefaultSpeedTable(),
		Actuator:     actuator.DefaultConfig(),
		Control:      control.DefaultConfig(),
		ButtonPeriod: 250 * time.Millisecond,
		Interval:     10 * time.Millisecond,
	}
}

// Validate checks the parts of the config that can't be clamped at runtime
func (c Config) Validate() error {
	err := c.Speeds.Validate()
	if err != nil {
		return err
	}

	err = c.Actuator.Validate()
	if err != nil {
		return err
	}

	err = c.Control.Validate()
	if err != nil {
		return err
	}

	if c.Actuator.ClampDuty(c.Control.BaselineDuty) != c.Control.BaselineDuty {
		return fmt.Errorf("%w: baseline duty %d is not an accepted actuator duty", control.ErrInvalidConfig, c.Control.BaselineDuty)
	}

	// otherwise a raise from the idle floor is always snapped back and the motor never restarts
	if c.Actuator.IdleFloor+c.Control.CoarseStep < c.Actuator.IdleThreshold {
		return fmt.Errorf("%w: coarse step %d cannot leave idle floor %d below threshold %d",
			control.ErrInvalidConfig, c.Control.CoarseStep, c.Actuator.IdleFloor, c.Actuator.IdleThreshold)
	}

	return nil
}
