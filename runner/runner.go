// Package runner wires the menu, control law, actuator and console around a single State and runs
// them one cycle at a time.
//
// Every cycle runs in the same order: render the current label, poll console commands and buttons,
// then run the control law. The display therefore shows the state from before the cycle's input was
// handled and catches up on the next cycle.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/calvinmclean/speedctl"
	"github.com/calvinmclean/speedctl/actuator"
	"github.com/calvinmclean/speedctl/commands"
	"github.com/calvinmclean/speedctl/control"
	"github.com/calvinmclean/speedctl/menu"
)

// Display renders the current label
type Display interface {
	Render(label string) error
}

// Sensor reads the raw speed feedback
type Sensor interface {
	ReadSpeed() int
}

// IO holds the peripherals a Runner talks to. Display, Buttons and Commands are optional.
type IO struct {
	Display Display
	Buttons menu.ButtonSource
	Sensor  Sensor
	PWM     actuator.PWMSink

	// Commands is the serial receive side and Output is where command responses go
	Commands commands.ByteReader
	Output   io.Writer
}

// Snapshot is the state at the end of a cycle
type Snapshot struct {
	Cycle uint64
	Time  time.Time

	Menu speedctl.MenuPosition
	// Label is what was rendered at the start of the cycle
	Label   string
	Pressed speedctl.Button

	Target        int
	TargetLabel   string
	Setpoint      int
	EmergencyStop bool

	Duty      int
	Frequency int

	Filtered int
	Error    int
	Action   control.Action
}

// Runner owns the State and runs the control cycle
type Runner struct {
	cfg   Config
	io    IO
	state *speedctl.State

	menu     *menu.Machine
	law      *control.Law
	actuator *actuator.Actuator
	console  *commands.Console

	clock    func() time.Time
	interval time.Duration
	observer func(Snapshot)
	logger   *slog.Logger

	cycle uint64
}

// Option configures a Runner
type Option func(*Runner)

// WithClock replaces time.Now
func WithClock(clock func() time.Time) Option {
	return func(r *Runner) {
		r.clock = clock
	}
}

// WithInterval overrides Config.Interval
func WithInterval(d time.Duration) Option {
	return func(r *Runner) {
		r.interval = d
	}
}

// WithObserver is called with the snapshot at the end of every cycle, from the loop's goroutine
func WithObserver(f func(Snapshot)) Option {
	return func(r *Runner) {
		r.observer = f
	}
}

// WithLogger sets the logger for the runner and the components it creates
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = l
	}
}

// New validates cfg and builds the components. The actuator writes its defaults to the PWM sink
// here, so a failing sink is returned as an error.
func New(cfg Config, periph IO, opts ...Option) (*Runner, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if periph.Sensor == nil || periph.PWM == nil {
		return nil, errors.New("runner needs a sensor and a PWM sink")
	}

	r := &Runner{
		cfg:      cfg,
		io:       periph,
		state:    speedctl.NewState(cfg.Speeds),
		clock:    time.Now,
		interval: cfg.Interval,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	r.actuator, err = actuator.New(cfg.Actuator, r.state, periph.PWM, r.logger.With("component", "actuator"))
	if err != nil {
		return nil, fmt.Errorf("error creating actuator: %w", err)
	}

	r.menu, err = menu.New(r.state, cfg.ButtonPeriod, menu.DefaultEntries(), r.logger.With("component", "menu"))
	if err != nil {
		return nil, fmt.Errorf("error creating menu: %w", err)
	}

	r.law = control.NewLaw(cfg.Control, r.state, r.actuator, r.logger.With("component", "control"))

	if periph.Commands != nil {
		out := periph.Output
		if out == nil {
			out = io.Discard
		}
		r.console = commands.NewConsole(periph.Commands, out, r.actuator, r.state)
	}

	return r, nil
}

// State is the shared state. It must only be touched from the goroutine running the loop.
func (r *Runner) State() *speedctl.State {
	return r.state
}

// Actuator is the PWM actuator
func (r *Runner) Actuator() *actuator.Actuator {
	return r.actuator
}

// Menu is the menu state machine
func (r *Runner) Menu() *menu.Machine {
	return r.menu
}

// Cycle runs one pass: render, poll console and buttons, control
func (r *Runner) Cycle() Snapshot {
	now := r.clock()
	r.cycle++

	label := r.menu.Label()
	if r.io.Display != nil {
		err := r.io.Display.Render(label)
		if err != nil {
			r.logger.Error("error rendering display", "label", label, "error", err)
		}
	}

	if r.console != nil {
		r.console.Poll()
	}

	pressed := speedctl.ButtonNone
	if r.io.Buttons != nil {
		pressed = r.menu.Poll(now, r.io.Buttons)
	}

	out := r.law.Step(now, r.io.Sensor.ReadSpeed())

	target := r.state.Target()
	snap := Snapshot{
		Cycle:         r.cycle,
		Time:          now,
		Menu:          r.state.Menu,
		Label:         label,
		Pressed:       pressed,
		Target:        r.state.TargetSpeed(),
		TargetLabel:   target.Label,
		Setpoint:      target.Setpoint,
		EmergencyStop: r.state.EmergencyStop(),
		Duty:          r.state.Duty,
		Frequency:     r.state.Frequency,
		Filtered:      out.Filtered,
		Error:         out.Error,
		Action:        out.Action,
	}

	if r.observer != nil {
		r.observer(snap)
	}

	return snap
}

// Run cycles every interval until ctx is done
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Info("starting control loop", "version", speedctl.Version, "interval", r.interval)

	if r.interval <= 0 {
		for {
			select {
			case <-ctx.Done():
				return nil
			default:
				r.Cycle()
			}
		}
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		r.Cycle()

		select {
		case <-ctx.Done():
			r.logger.Info("control loop stopped", "cycles", r.cycle)
			return nil
		case <-ticker.C:
		}
	}
}
