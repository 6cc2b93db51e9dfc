package controller

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/calvinmclean/speedctl/display"
	"github.com/calvinmclean/speedctl/runner"
	"github.com/calvinmclean/speedctl/sim"
	"github.com/calvinmclean/speedctl/telemetry"
)

// simulated is a controller running in this process against a simulated motor
type simulated struct {
	runner    *runner.Runner
	motor     *sim.Motor
	buttons   *sim.Buttons
	console   *sim.Console
	telemetry *telemetry.Worker

	snapshots chan runner.Snapshot
}

func newSimulated(cfg runner.Config, out io.Writer, pub telemetry.Publisher, every uint64, logger *slog.Logger) (*simulated, error) {
	motorCfg := sim.DefaultMotorConfig()
	motorCfg.TimerClock = cfg.Actuator.TimerClock

	s := &simulated{
		motor:     sim.NewMotor(motorCfg),
		buttons:   sim.NewButtons(),
		console:   sim.NewConsole(),
		telemetry: telemetry.NewWorker(pub, every, logger.With("component", "telemetry")),
		snapshots: make(chan runner.Snapshot, 16),
	}

	var err error
	s.runner, err = runner.New(cfg, runner.IO{
		Display:  display.NewText(out),
		Buttons:  s.buttons,
		Sensor:   s.motor,
		PWM:      s.motor,
		Commands: s.console,
		Output:   out,
	},
		runner.WithLogger(logger),
		runner.WithObserver(s.observe),
	)
	if err != nil {
		return nil, err
	}

	return s, nil
}

func (s *simulated) observe(snap runner.Snapshot) {
	s.telemetry.Observe(snap)

	select {
	case s.snapshots <- snap:
	default:
	}
}

// run blocks until ctx is done
func (s *simulated) run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.telemetry.Run(ctx)
	}()

	_ = s.runner.Run(ctx)
	wg.Wait()
}
