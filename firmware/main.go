//go:build tinygo

package main

import (
	"context"
	"machine"
	"time"

	"github.com/calvinmclean/speedctl"
	"github.com/calvinmclean/speedctl/display"
	"github.com/calvinmclean/speedctl/firmware/device"
	"github.com/calvinmclean/speedctl/runner"
)

func main() {
	cfg := runner.DefaultConfig()

	d, err := device.New(device.Config{
		Up:     machine.GP10,
		Down:   machine.GP12,
		Select: machine.GP11,
		Back:   machine.GP13,

		SpeedPin: machine.ADC0,

		PWM:      machine.PWM4,
		PWMPins:  [2]machine.Pin{machine.GP8, machine.GP9},
		PWMClock: cfg.Actuator.TimerClock,

		I2C:            machine.I2C0,
		SDA:            machine.GP4,
		SCL:            machine.GP5,
		DisplayAddress: 0x3C,
	}, uint32(cfg.Actuator.DefaultFrequency))
	if err != nil {
		halt(err)
	}

	screen := display.NewScreen(d.Display)
	_ = screen.Render(speedctl.Version)
	time.Sleep(2 * time.Second)
	screen.Invalidate()

	r, err := runner.New(cfg, runner.IO{
		Display:  screen,
		Buttons:  d.Buttons,
		Sensor:   d.Sensor,
		PWM:      d.PWM,
		Commands: machine.Serial,
		Output:   machine.Serial,
	})
	if err != nil {
		halt(err)
	}

	err = r.Run(context.Background())
	if err != nil {
		halt(err)
	}
}

func halt(err error) {
	for {
		println("error:", err.Error())
		time.Sleep(5 * time.Second)
	}
}
