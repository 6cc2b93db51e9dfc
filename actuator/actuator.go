package actuator

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/calvinmclean/speedctl"
)

// Channels is the number of PWM outputs. Both always get the same frequency and compare value.
const Channels = 2

// PWMSink writes timer settings for one output channel
type PWMSink interface {
	Write(channel uint8, frequency uint32, compare uint32) error
}

// Actuator converts duty and frequency requests into compare values for both PWM channels. The
// accepted values are stored in the shared State.
type Actuator struct {
	cfg    Config
	state  *speedctl.State
	sink   PWMSink
	logger *slog.Logger
}

// New validates cfg, applies the default duty and frequency to state and writes them to the sink.
// A sink failure here is a start-up failure and is returned.
func New(cfg Config, state *speedctl.State, sink PWMSink, logger *slog.Logger) (*Actuator, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	a := &Actuator{
		cfg:    cfg,
		state:  state,
		sink:   sink,
		logger: logger,
	}

	state.Duty = cfg.ClampDuty(cfg.DefaultDuty)
	state.Frequency = cfg.ClampFrequency(cfg.DefaultFrequency)

	err = a.write()
	if err != nil {
		return nil, fmt.Errorf("error writing initial PWM settings: %w", err)
	}

	return a, nil
}

// Config returns the clamp configuration
func (a *Actuator) Config() Config {
	return a.cfg
}

// Duty is the accepted duty cycle in percent
func (a *Actuator) Duty() int {
	return a.state.Duty
}

// Frequency is the accepted PWM frequency in Hz
func (a *Actuator) Frequency() int {
	return a.state.Frequency
}

// Compare is the compare value currently written to both channels
func (a *Actuator) Compare() uint32 {
	return CompareValue(a.cfg.TimerClock, a.state.Frequency, a.state.Duty)
}

// SetDutyCycle clamps the request, stores it and rewrites both channels. It returns the accepted
// duty. Sink errors are logged; the accepted value does not change.
func (a *Actuator) SetDutyCycle(requested int) int {
	duty := a.cfg.ClampDuty(requested)
	if duty != requested {
		a.logger.Debug("duty clamped", "requested", requested, "duty", duty)
	}

	a.state.Duty = duty
	a.writeLogged()

	return duty
}

// SetFrequency clamps the request, stores it and reconfigures both channels at the new frequency
// while keeping the duty percentage. It returns the accepted frequency.
func (a *Actuator) SetFrequency(requested int) int {
	freq := a.cfg.ClampFrequency(requested)
	if freq != requested {
		a.logger.Debug("frequency clamped", "requested", requested, "frequency", freq)
	}

	a.state.Frequency = freq
	a.writeLogged()

	return freq
}

func (a *Actuator) writeLogged() {
	err := a.write()
	if err != nil {
		a.logger.Error("error writing PWM settings", "frequency", a.state.Frequency, "duty", a.state.Duty, "error", err)
	}
}

// write sends the same settings to every channel and returns the first error
func (a *Actuator) write() error {
	compare := a.Compare()

	var firstErr error
	for ch := range uint8(Channels) {
		err := a.sink.Write(ch, uint32(a.state.Frequency), compare)
		if err != nil && firstErr == nil {
			firstErr = fmt.Errorf("channel %d: %w", ch, err)
		}
	}
	return firstErr
}

// CompareValue maps a frequency and duty percentage to the timer compare threshold:
// floor(clock / (2*freq)) * duty / 100, with integer floors at each step.
func CompareValue(clock uint32, freq, duty int) uint32 {
	if freq <= 0 || duty <= 0 {
		return 0
	}

	period := uint64(clock) / (2 * uint64(freq))
	return uint32(period * uint64(duty) / 100)
}
