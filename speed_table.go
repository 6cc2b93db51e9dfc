package speedctl

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrInvalidSpeedTable is returned when a SpeedTable cannot be used by the controller
var ErrInvalidSpeedTable = errors.New("invalid speed table")

// SpeedStep is a single selectable speed. Label is what the display shows and Setpoint is the
// target feedback reading in raw sensor units.
type SpeedStep struct {
	Label    string `yaml:"label"`
	Setpoint int    `yaml:"setpoint"`
}

// SpeedTable is the fixed, ordered list of selectable speeds. Neutral is the index that means
// "stopped" and is displayed as zero speed.
type SpeedTable struct {
	Steps   []SpeedStep `yaml:"steps"`
	Neutral int         `yaml:"neutral"`
}

// NewSpeedTable validates steps and the neutral index
func NewSpeedTable(steps []SpeedStep, neutral int) (SpeedTable, error) {
	t := SpeedTable{Steps: steps, Neutral: neutral}
	return t, t.Validate()
}

// DefaultSpeedTable returns the 13 step table from -6 to 6 centered on the middle of a 10-bit
// feedback range
func DefaultSpeedTable() SpeedTable {
	const (
		center  = 512
		spacing = 64
	)

	steps := make([]SpeedStep, 0, 13)
	for i := -6; i <= 6; i++ {
		steps = append(steps, SpeedStep{
			Label:    strconv.Itoa(i),
			Setpoint: center + spacing*i,
		})
	}

	return SpeedTable{Steps: steps, Neutral: 6}
}

// Validate makes sure the table has steps and the neutral index points at one of them
func (t SpeedTable) Validate() error {
	if len(t.Steps) == 0 {
		return fmt.Errorf("%w: no steps", ErrInvalidSpeedTable)
	}
	if t.Neutral < 0 || t.Neutral >= len(t.Steps) {
		return fmt.Errorf("%w: neutral index %d out of range", ErrInvalidSpeedTable, t.Neutral)
	}
	return nil
}

// Len is the number of steps
func (t SpeedTable) Len() int {
	return len(t.Steps)
}

// Clamp limits i to a valid index
func (t SpeedTable) Clamp(i int) int {
	if i < 0 || len(t.Steps) == 0 {
		return 0
	}
	if i >= len(t.Steps) {
		return len(t.Steps) - 1
	}
	return i
}

// Step returns the step at i after clamping it into range
func (t SpeedTable) Step(i int) SpeedStep {
	if len(t.Steps) == 0 {
		return SpeedStep{}
	}
	return t.Steps[t.Clamp(i)]
}

// Label is the display text for the step at i
func (t SpeedTable) Label(i int) string {
	return t.Step(i).Label
}

// Setpoint is the target feedback reading for the step at i
func (t SpeedTable) Setpoint(i int) int {
	return t.Step(i).Setpoint
}
