// Package commands is the line-based serial command surface. Each line is a one-letter verb, case
// insensitive, optionally followed by a space and an integer argument:
//
//	D 50     set the duty cycle to 50%
//	F 10000  set the PWM frequency to 10kHz
//	S        print the current status
//	H        print the usage
//
// Anything else prints "Invalid Input" followed by the usage.
package commands

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrInvalidInput is returned by Execute for lines that don't parse or are out of range
var ErrInvalidInput = errors.New("invalid input")

// Actuator is the part of actuator.Actuator that commands drive. Requests go through the same clamps
// as the control loop.
type Actuator interface {
	SetDutyCycle(requested int) int
	SetFrequency(requested int) int
	Duty() int
	Frequency() int
}

// Command is a single verb on the console
type Command struct {
	Verb        byte
	Usage       string
	Description string
	// Listed commands are printed in the short usage block after invalid input
	Listed bool
	Run    func(*Console, string) error
}

var (
	DutyCommand = &Command{
		Verb:        'D',
		Usage:       "D 50",
		Description: "Duty Cycle Update",
		Listed:      true,
		Run: func(c *Console, arg string) error {
			v, err := parseArg(arg)
			if err != nil {
				return err
			}
			if v < 0 || v > 100 {
				return fmt.Errorf("%w: duty %d is outside [0, 100]", ErrInvalidInput, v)
			}

			duty := c.act.SetDutyCycle(v)
			c.printf("Duty Cycle: %d%%\n", duty)
			return nil
		},
	}
	FrequencyCommand = &Command{
		Verb:        'F',
		Usage:       "F 10000",
		Description: "Frequency Update",
		Listed:      true,
		Run: func(c *Console, arg string) error {
			v, err := parseArg(arg)
			if err != nil {
				return err
			}
			if v < 0 {
				return fmt.Errorf("%w: negative frequency %d", ErrInvalidInput, v)
			}

			freq := c.act.SetFrequency(v)
			c.printf("Frequency: %dHz\n", freq)
			return nil
		},
	}
	StatusCommand = &Command{
		Verb:        'S',
		Usage:       "S",
		Description: "Status",
		Run: func(c *Console, _ string) error {
			c.printf("Duty Cycle: %d%%\n", c.act.Duty())
			c.printf("Frequency: %dHz\n", c.act.Frequency())
			if c.state != nil {
				c.printf("Target: %s\n", c.state.Target().Label)
				c.printf("Emergency Stop: %t\n", c.state.EmergencyStop())
			}
			return nil
		},
	}
	HelpCommand = &Command{
		Verb:        'H',
		Usage:       "H",
		Description: "Help",
		Run: func(c *Console, _ string) error {
			c.printf("Valid Inputs:\n")
			for _, cmd := range Commands {
				c.printf("'%s', %s\n", cmd.Usage, cmd.Description)
			}
			c.printf("'H', Help\n")
			return nil
		},
	}
)

// Commands is every command the console accepts, except HelpCommand which lists them
var Commands = []*Command{
	DutyCommand,
	FrequencyCommand,
	StatusCommand,
}

func lookup(verb string) (*Command, bool) {
	if len(verb) != 1 {
		return nil, false
	}
	for _, cmd := range append([]*Command{HelpCommand}, Commands...) {
		if strings.EqualFold(verb, string(cmd.Verb)) {
			return cmd, true
		}
	}
	return nil, false
}

func parseArg(arg string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidInput, arg)
	}
	return v, nil
}

// usage prints the block shown after invalid input
func usage(w io.Writer) {
	fmt.Fprintln(w, "Valid Inputs:")
	for _, cmd := range Commands {
		if cmd.Listed {
			fmt.Fprintf(w, "'%s', %s\n", cmd.Usage, cmd.Description)
		}
	}
}
