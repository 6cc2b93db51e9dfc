package controller

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/calvinmclean/speedctl/runner"
)

// SerialPortNone selects the simulated device
const SerialPortNone = "none"

// Config selects and tunes the device. It is read from the environment, after loading a .env file
// if one exists.
type Config struct {
	SerialPort string `env:"SERIAL_PORT"`
	BaudRate   string `env:"BAUD_RATE" envDefault:"9600"`

	// TuningFile is a YAML file with runner.Config overrides for the simulated device
	TuningFile    string        `env:"TUNING_FILE"`
	CycleInterval time.Duration `env:"CYCLE_INTERVAL" envDefault:"10ms"`

	MQTTBroker     string `env:"MQTT_BROKER"`
	MQTTTopic      string `env:"MQTT_TOPIC" envDefault:"speedctl/state"`
	TelemetryAddr  string `env:"TELEMETRY_ADDR"`
	TelemetryEvery uint64 `env:"TELEMETRY_EVERY" envDefault:"10"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// LoadConfig reads Config from the environment
func LoadConfig() (Config, error) {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("error loading .env file: %w", err)
	}

	var cfg Config
	err = env.Parse(&cfg)
	if err != nil {
		return Config{}, fmt.Errorf("error parsing environment: %w", err)
	}

	return cfg, nil
}

// Simulated is true when no serial port is configured
func (c Config) Simulated() bool {
	return c.SerialPort == "" || c.SerialPort == SerialPortNone
}

// Baud parses BaudRate
func (c Config) Baud() (int, error) {
	baud, err := strconv.Atoi(c.BaudRate)
	if err != nil || baud <= 0 {
		return 0, fmt.Errorf("invalid baud rate %q", c.BaudRate)
	}
	return baud, nil
}

// Tuning returns the runner config from TuningFile, or the defaults when it isn't set.
// CycleInterval overrides the file's interval.
func (c Config) Tuning() (runner.Config, error) {
	cfg := runner.DefaultConfig()
	if c.TuningFile != "" {
		var err error
		cfg, err = LoadTuning(c.TuningFile)
		if err != nil {
			return runner.Config{}, err
		}
	}

	if c.CycleInterval > 0 {
		cfg.Interval = c.CycleInterval
	}

	return cfg, nil
}

// Logger creates a text logger at LogLevel
func (c Config) Logger(w io.Writer) *slog.Logger {
	var level slog.Level
	err := level.UnmarshalText([]byte(c.LogLevel))
	if err != nil {
		level = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// LoadTuning reads a YAML tuning file on top of runner.DefaultConfig, so missing keys keep their
// defaults
func LoadTuning(filename string) (runner.Config, error) {
	f, err := os.Open(filename)
	if err != nil {
		return runner.Config{}, fmt.Errorf("error opening tuning file: %w", err)
	}
	defer f.Close()

	return DecodeTuning(f)
}

// DecodeTuning reads YAML tuning from r on top of runner.DefaultConfig
func DecodeTuning(r io.Reader) (runner.Config, error) {
	cfg := runner.DefaultConfig()

	err := yaml.NewDecoder(r).Decode(&cfg)
	if err != nil && !errors.Is(err, io.EOF) {
		return runner.Config{}, fmt.Errorf("error decoding tuning: %w", err)
	}

	err = cfg.Validate()
	if err != nil {
		return runner.Config{}, fmt.Errorf("invalid tuning: %w", err)
	}

	return cfg, nil
}
