//go:build tinygo

package device

import (
	"fmt"
	"machine"
	"time"

	"tinygo.org/x/drivers/servo"
	"tinygo.org/x/drivers/ssd1306"

	"github.com/calvinmclean/speedctl"
)

// Config has the board-level pin assignments
type Config struct {
	// Buttons are wired to ground and use the internal pull-ups, so a pressed button reads low
	Up, Down, Select, Back machine.Pin

	// SpeedPin is the analog feedback input
	SpeedPin machine.Pin

	// PWM drives both bridge inputs from one timer so they stay in phase
	PWM      PWM
	PWMPins  [2]machine.Pin
	PWMClock uint32

	I2C            *machine.I2C
	SDA, SCL       machine.Pin
	DisplayAddress uint16
}

// PWM is a TinyGo PWM peripheral that can also change its period after Configure
type PWM interface {
	servo.PWM
	SetPeriod(period uint64) error
}

// Device holds the configured peripherals
type Device struct {
	Buttons *Buttons
	Sensor  *Sensor
	PWM     *PWMSink
	Display *ssd1306.Device
}

// New configures every peripheral. frequency is the initial PWM frequency.
func New(cfg Config, frequency uint32) (*Device, error) {
	buttons := &Buttons{}
	for b, pin := range map[speedctl.Button]machine.Pin{
		speedctl.ButtonUp:     cfg.Up,
		speedctl.ButtonDown:   cfg.Down,
		speedctl.ButtonSelect: cfg.Select,
		speedctl.ButtonBack:   cfg.Back,
	} {
		pin.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
		buttons.pins[b] = pin
	}

	machine.InitADC()
	adc := machine.ADC{Pin: cfg.SpeedPin}
	adc.Configure(machine.ADCConfig{})

	err := cfg.PWM.Configure(machine.PWMConfig{
		Period: uint64(time.Second) / uint64(frequency),
	})
	if err != nil {
		return nil, fmt.Errorf("error configuring PWM: %w", err)
	}

	channels := make([]uint8, len(cfg.PWMPins))
	for i, pin := range cfg.PWMPins {
		channels[i], err = cfg.PWM.Channel(pin)
		if err != nil {
			return nil, fmt.Errorf("error getting PWM channel for pin %d: %w", pin, err)
		}
	}

	err = cfg.I2C.Configure(machine.I2CConfig{
		SDA:       cfg.SDA,
		SCL:       cfg.SCL,
		Frequency: 400 * machine.KHz,
	})
	if err != nil {
		return nil, fmt.Errorf("error configuring I2C: %w", err)
	}

	display := ssd1306.NewI2C(cfg.I2C)
	display.Configure(ssd1306.Config{
		Address: cfg.DisplayAddress,
		Width:   128,
		Height:  64,
	})
	display.ClearDisplay()

	return &Device{
		Buttons: buttons,
		Sensor:  &Sensor{adc: adc},
		PWM:     NewPWMSink(cfg.PWM, cfg.PWMClock, channels...),
		Display: display,
	}, nil
}

// Buttons reads the active-low front panel buttons
type Buttons struct {
	pins [speedctl.ButtonBack + 1]machine.Pin
}

func (b *Buttons) IsPressed(btn speedctl.Button) bool {
	if btn <= speedctl.ButtonNone || btn > speedctl.ButtonBack {
		return false
	}
	return !b.pins[btn].Get()
}

// Sensor reads the speed feedback as a 10-bit value
type Sensor struct {
	adc machine.ADC
}

func (s *Sensor) ReadSpeed() int {
	// ADC readings are scaled to 16 bits
	return int(s.adc.Get() >> 6)
}
