// Package sim provides host-side stand-ins for the controller's hardware: a motor that responds to
// PWM writes with a lagged, noisy speed reading, latched buttons and a byte console.
package sim

import (
	"math/rand/v2"
	"sync"
)

// MotorConfig describes the simulated plant
type MotorConfig struct {
	// TimerClock must match the actuator's clock so compare values map back to the same duty
	TimerClock uint32 `yaml:"timer_clock"`

	// Speed at 50% duty and the change in speed per duty percent
	Center int     `yaml:"center"`
	Gain   float64 `yaml:"gain"`

	// Lag is the fraction of the remaining difference closed on each reading, in (0, 1]
	Lag float64 `yaml:"lag"`
	// Noise is the amplitude of the uniform noise added to every reading
	Noise int `yaml:"noise"`

	MaxReading int    `yaml:"max_reading"`
	Seed       uint64 `yaml:"seed"`
}

// DefaultMotorConfig can reach every setpoint in the default speed table inside the actuator's band
func DefaultMotorConfig() MotorConfig {
	return MotorConfig{
		TimerClock: 16_000_000,
		Center:     512,
		Gain:       10,
		Lag:        0.2,
		Noise:      2,
		MaxReading: 1023,
		Seed:       1,
	}
}

// Motor is a first-order plant. It is a PWM sink for the actuator and a speed sensor for the
// control law. Only channel 0 drives the model; channel 1 is recorded.
type Motor struct {
	cfg MotorConfig
	rnd *rand.Rand

	mu       sync.Mutex
	duty     [2]float64
	freq     [2]uint32
	speed    float64
	readings int
}

// NewMotor creates a stopped motor sitting at the center speed
func NewMotor(cfg MotorConfig) *Motor {
	if cfg.Lag <= 0 || cfg.Lag > 1 {
		cfg.Lag = 1
	}
	if cfg.MaxReading <= 0 {
		cfg.MaxReading = DefaultMotorConfig().MaxReading
	}

	return &Motor{
		cfg:   cfg,
		rnd:   rand.New(rand.NewPCG(cfg.Seed, cfg.Seed)),
		speed: float64(cfg.Center),
	}
}

// Write converts the compare value back into a duty percentage
func (m *Motor) Write(channel uint8, frequency uint32, compare uint32) error {
	if int(channel) >= len(m.duty) {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.freq[channel] = frequency
	m.duty[channel] = 0
	if frequency == 0 {
		return nil
	}

	period := uint64(m.cfg.TimerClock) / (2 * uint64(frequency))
	if period > 0 {
		m.duty[channel] = float64(compare) * 100 / float64(period)
	}
	return nil
}

// ReadSpeed advances the model by one step and returns a noisy reading clamped to [0, MaxReading]
func (m *Motor) ReadSpeed() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	target := float64(m.cfg.Center) + (m.duty[0]-50)*m.cfg.Gain
	m.speed += (target - m.speed) * m.cfg.Lag
	m.readings++

	reading := int(m.speed + 0.5)
	if m.cfg.Noise > 0 {
		reading += m.rnd.IntN(2*m.cfg.Noise+1) - m.cfg.Noise
	}

	return max(0, min(reading, m.cfg.MaxReading))
}

// Speed is the noiseless model speed
func (m *Motor) Speed() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.speed
}

// Duty is the duty percentage last written to channel
func (m *Motor) Duty(channel uint8) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if int(channel) >= len(m.duty) {
		return 0
	}
	return m.duty[channel]
}

// Frequency is the frequency last written to channel
func (m *Motor) Frequency(channel uint8) uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if int(channel) >= len(m.freq) {
		return 0
	}
	return m.freq[channel]
}
