// Package controller runs a speed controller from a host computer. The device is either real
// hardware on a serial port, which runs the firmware and accepts console commands, or a simulated
// controller running in this process.
package controller

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"

	"github.com/calvinmclean/speedctl"
	"github.com/calvinmclean/speedctl/runner"
	"github.com/calvinmclean/speedctl/telemetry"
)

var (
	// ErrNoUSBSerial is returned by GetSerialPorts when no USB serial port is connected
	ErrNoUSBSerial = errors.New("no USB serial ports found")
	// ErrNoButtons is returned when pressing buttons on a serial device, which only has physical ones
	ErrNoButtons = errors.New("buttons are only available on the simulated device")
)

// Controller connects console input and output to a device
type Controller struct {
	cfg    Config
	logger *slog.Logger

	port serial.Port
	sim  *simulated

	out *switchWriter
}

// NewFromEnv loads Config from the environment and creates a Controller
func NewFromEnv() (*Controller, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}

	return New(cfg, cfg.Logger(os.Stderr))
}

// New opens the serial port, or builds the simulated device when cfg.Simulated()
func New(cfg Config, logger *slog.Logger) (*Controller, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	c := &Controller{
		cfg:    cfg,
		logger: logger,
		out:    &switchWriter{w: io.Discard},
	}

	if !cfg.Simulated() {
		baud, err := cfg.Baud()
		if err != nil {
			return nil, err
		}

		c.port, err = serial.Open(cfg.SerialPort, &serial.Mode{BaudRate: baud})
		if err != nil {
			return nil, fmt.Errorf("error opening serial port %q: %w", cfg.SerialPort, err)
		}

		logger.Info("opened serial device", "port", cfg.SerialPort, "baud", baud)
		return c, nil
	}

	tuning, err := cfg.Tuning()
	if err != nil {
		return nil, err
	}

	pub, err := newPublisher(cfg, logger)
	if err != nil {
		return nil, err
	}

	c.sim, err = newSimulated(tuning, c.out, pub, cfg.TelemetryEvery, logger)
	if err != nil {
		return nil, fmt.Errorf("error creating simulated device: %w", err)
	}

	logger.Info("using simulated device", "interval", tuning.Interval)
	return c, nil
}

func newPublisher(cfg Config, logger *slog.Logger) (telemetry.Publisher, error) {
	switch {
	case cfg.MQTTBroker != "":
		pub, err := telemetry.NewMQTTPublisher(cfg.MQTTBroker, cfg.MQTTTopic, logger.With("component", "mqtt"))
		if err != nil {
			return nil, fmt.Errorf("error creating MQTT publisher: %w", err)
		}
		return pub, nil
	case cfg.TelemetryAddr != "":
		return telemetry.NewHTTPPublisher(cfg.TelemetryAddr), nil
	default:
		return telemetry.Nop{}, nil
	}
}

// Simulated reports whether the device runs in this process
func (c *Controller) Simulated() bool {
	return c.sim != nil
}

// Run sends lines from in to the device and copies device output to out until in is exhausted or
// ctx is done. On the simulated device the lines u, d, s and b press Up, Down, Select and Back.
func (c *Controller) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)

	c.out.Set(out)
	defer c.out.Set(io.Discard)

	var wg sync.WaitGroup
	defer func() {
		cancel()
		wg.Wait()
	}()

	if c.sim != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.sim.run(ctx)
		}()
	} else {
		go func() {
			_, err := io.Copy(c.out, c.port)
			if err != nil && ctx.Err() == nil {
				c.logger.Error("error reading serial device", "error", err)
			}
		}()
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}

			err := c.handleLine(line)
			if err != nil {
				fmt.Fprintln(c.out, "error:", err)
			}
		}
	}
}

func (c *Controller) handleLine(line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	b := speedctl.ParseButton(line)
	if b != speedctl.ButtonNone {
		return c.Press(b)
	}

	return c.Send(line)
}

// Press presses a button on the simulated device
func (c *Controller) Press(b speedctl.Button) error {
	if c.sim == nil {
		return ErrNoButtons
	}
	c.sim.buttons.Press(b)
	return nil
}

// Send writes a console command line to the device
func (c *Controller) Send(line string) error {
	if c.sim != nil {
		c.sim.console.Send(line)
		return nil
	}

	_, err := c.port.Write([]byte(line + "\n"))
	if err != nil {
		return fmt.Errorf("error writing serial: %w", err)
	}
	return nil
}

// Snapshots receives the state after each cycle of the simulated device. It is nil for serial
// devices. Snapshots are dropped when the receiver falls behind.
func (c *Controller) Snapshots() <-chan runner.Snapshot {
	if c.sim == nil {
		return nil
	}
	return c.sim.snapshots
}

// Close releases the serial port
func (c *Controller) Close() error {
	if c.port != nil {
		return c.port.Close()
	}
	return nil
}

// GetSerialPorts lists connected USB serial ports
func GetSerialPorts() ([]string, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("error listing serial ports: %w", err)
	}

	var result []string
	for _, port := range ports {
		if port.IsUSB {
			result = append(result, port.Name)
		}
	}

	if len(result) == 0 {
		return nil, ErrNoUSBSerial
	}

	return result, nil
}

// switchWriter is an io.Writer whose destination can change while the device is writing to it
type switchWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *switchWriter) Set(w io.Writer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.w = w
}

func (s *switchWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
