package device

import (
	"fmt"
)

// Timer is the part of a TinyGo PWM peripheral the sink drives once its channels are set up.
// machine.PWM groups and servo.PWM implementations satisfy it.
type Timer interface {
	SetPeriod(period uint64) error
	Top() uint32
	Set(channel uint8, value uint32)
}

// PWMSink adapts compare values computed for a phase-correct timer running at clock Hz to a
// hardware timer with its own resolution. Both channels share one timer, so they always run at the
// same frequency.
type PWMSink struct {
	timer    Timer
	clock    uint32
	channels []uint8

	frequency uint32
}

// NewPWMSink creates a sink writing logical channel i to hardware channel channels[i]
func NewPWMSink(timer Timer, clock uint32, channels ...uint8) *PWMSink {
	return &PWMSink{
		timer:    timer,
		clock:    clock,
		channels: channels,
	}
}

// Write sets the timer period when the frequency changes and then scales compare to the timer's
// range. compare is relative to clock/(2*frequency), the phase-correct period.
func (s *PWMSink) Write(channel uint8, frequency uint32, compare uint32) error {
	if int(channel) >= len(s.channels) {
		return fmt.Errorf("unknown channel %d", channel)
	}
	if frequency == 0 {
		return fmt.Errorf("invalid frequency 0")
	}

	if frequency != s.frequency {
		err := s.timer.SetPeriod(uint64(1e9) / uint64(frequency))
		if err != nil {
			return fmt.Errorf("error setting period for %dHz: %w", frequency, err)
		}
		s.frequency = frequency
	}

	s.timer.Set(s.channels[channel], Scale(compare, s.clock, frequency, s.timer.Top()))

	return nil
}

// Scale maps compare from a phase-correct period of clock/(2*frequency) counts to top counts
func Scale(compare, clock, frequency, top uint32) uint32 {
	period := uint64(clock) / (2 * uint64(frequency))
	if period == 0 {
		return 0
	}
	if uint64(compare) >= period {
		return top
	}
	return uint32(uint64(compare) * uint64(top) / period)
}
