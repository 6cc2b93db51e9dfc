package controller

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/calvinmclean/speedctl"
	"github.com/calvinmclean/speedctl/control"
	"github.com/calvinmclean/speedctl/runner"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("SERIAL_PORT", "/dev/ttyUSB0")
	t.Setenv("BAUD_RATE", "115200")
	t.Setenv("CYCLE_INTERVAL", "5ms")
	t.Setenv("MQTT_BROKER", "localhost")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyUSB0", cfg.SerialPort)
	assert.False(t, cfg.Simulated())
	assert.Equal(t, 5*time.Millisecond, cfg.CycleInterval)
	assert.Equal(t, "localhost", cfg.MQTTBroker)
	assert.Equal(t, "speedctl/state", cfg.MQTTTopic)
	assert.Equal(t, uint64(10), cfg.TelemetryEvery)
	assert.Equal(t, "info", cfg.LogLevel)

	baud, err := cfg.Baud()
	require.NoError(t, err)
	assert.Equal(t, 115200, baud)
}

func TestConfigSimulated(t *testing.T) {
	assert.True(t, Config{}.Simulated())
	assert.True(t, Config{SerialPort: SerialPortNone}.Simulated())
	assert.False(t, Config{SerialPort: "COM3"}.Simulated())
}

func TestConfigBaud(t *testing.T) {
	for _, rate := range []string{"", "fast", "0", "-9600"} {
		_, err := Config{BaudRate: rate}.Baud()
		assert.Error(t, err, rate)
	}
}

func TestConfigLogger(t *testing.T) {
	var buf bytes.Buffer

	Config{LogLevel: "debug"}.Logger(&buf).Debug("shown")
	Config{LogLevel: "warn"}.Logger(&buf).Info("hidden")
	Config{LogLevel: "nonsense"}.Logger(&buf).Info("defaults to info")

	assert.Contains(t, buf.String(), "shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "defaults to info")
}

func TestDecodeTuning(t *testing.T) {
	t.Run("Overrides", func(t *testing.T) {
		cfg, err := DecodeTuning(strings.NewReader(`
control:
  hysteresis: 4
  adjust_period: 500ms
button_period: 100ms
`))
		require.NoError(t, err)

		assert.Equal(t, 4, cfg.Control.Hysteresis)
		assert.Equal(t, 500*time.Millisecond, cfg.Control.AdjustPeriod)
		assert.Equal(t, 100*time.Millisecond, cfg.ButtonPeriod)

		// untouched keys keep their defaults
		defaults := runner.DefaultConfig()
		assert.Equal(t, defaults.Control.Window, cfg.Control.Window)
		assert.Equal(t, defaults.Actuator, cfg.Actuator)
		assert.Equal(t, defaults.Speeds, cfg.Speeds)
	})

	t.Run("SpeedTable", func(t *testing.T) {
		cfg, err := DecodeTuning(strings.NewReader(`
speeds:
  neutral: 1
  steps:
    - {label: "-1", setpoint: 400}
    - {label: "0", setpoint: 512}
    - {label: "1", setpoint: 600}
`))
		require.NoError(t, err)
		assert.Equal(t, 3, cfg.Speeds.Len())
		assert.Equal(t, 600, cfg.Speeds.Setpoint(2))
	})

	t.Run("Empty", func(t *testing.T) {
		cfg, err := DecodeTuning(strings.NewReader(""))
		require.NoError(t, err)
		assert.Equal(t, runner.DefaultConfig(), cfg)
	})

	t.Run("Invalid", func(t *testing.T) {
		_, err := DecodeTuning(strings.NewReader("actuator:\n  safe_max: 99\n"))
		assert.Error(t, err)

		_, err = DecodeTuning(strings.NewReader("speeds:\n  neutral: 40\n"))
		assert.ErrorIs(t, err, speedctl.ErrInvalidSpeedTable)

		_, err = DecodeTuning(strings.NewReader("control: [1, 2]"))
		assert.Error(t, err)
	})

	t.Run("ReversedControl", func(t *testing.T) {
		_, err := DecodeTuning(strings.NewReader("control:\n  coarse_step: -5\n  fine_step: -1\n  hysteresis: -3\n"))
		assert.ErrorIs(t, err, control.ErrInvalidConfig)

		_, err = DecodeTuning(strings.NewReader("control:\n  fine_step: 2\n  coarse_step: 3\n"))
		assert.ErrorIs(t, err, control.ErrInvalidConfig, "coarse step cannot leave the idle band")

		_, err = DecodeTuning(strings.NewReader("control:\n  baseline_duty: 97\n"))
		assert.ErrorIs(t, err, control.ErrInvalidConfig, "baseline snaps to the safe max")
	})
}

func TestConfigTuning(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "tuning.yaml")
	require.NoError(t, os.WriteFile(filename, []byte("interval: 50ms\ncontrol:\n  fine_step: 2\n"), 0o600))

	cfg, err := Config{TuningFile: filename}.Tuning()
	require.NoError(t, err)
	assert.Equal(t, 50*time.Millisecond, cfg.Interval)
	assert.Equal(t, 2, cfg.Control.FineStep)

	cfg, err = Config{TuningFile: filename, CycleInterval: time.Millisecond}.Tuning()
	require.NoError(t, err)
	assert.Equal(t, time.Millisecond, cfg.Interval)

	_, err = Config{TuningFile: filepath.Join(t.TempDir(), "missing.yaml")}.Tuning()
	assert.Error(t, err)
}

func TestSimulatedRun(t *testing.T) {
	c, err := New(Config{
		SerialPort:     SerialPortNone,
		CycleInterval:  time.Millisecond,
		TelemetryEvery: 1,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	defer c.Close()
	require.True(t, c.Simulated())

	in, inWriter := io.Pipe()
	out := &lockedBuffer{}

	done := make(chan error)
	go func() {
		done <- c.Run(context.Background(), in, out)
	}()

	send := func(line string) {
		_, err := io.WriteString(inWriter, line+"\n")
		require.NoError(t, err)
	}

	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), "[▲ Speed ▼]")
	}, 2*time.Second, time.Millisecond)

	send("F 20000")
	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Frequency: 20000Hz")
	}, 2*time.Second, time.Millisecond)

	send("s")
	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), "[▲ 0 ▼]")
	}, 2*time.Second, time.Millisecond)

	// pressed inside the button period, honored once it has passed
	send("u")
	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), "[▲ 1 ▼]")
	}, 2*time.Second, time.Millisecond)

	assert.Eventually(t, func() bool {
		select {
		case snap := <-c.Snapshots():
			return snap.TargetLabel == "1" && snap.Frequency == 20000
		default:
			return false
		}
	}, 2*time.Second, time.Millisecond)

	send("nonsense")
	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Invalid Input")
	}, 2*time.Second, time.Millisecond)

	require.NoError(t, inWriter.Close())
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after input closed")
	}
}

func TestSerialDeviceHasNoButtons(t *testing.T) {
	c := &Controller{}
	assert.ErrorIs(t, c.Press(speedctl.ButtonUp), ErrNoButtons)
	assert.Nil(t, c.Snapshots())
	assert.False(t, c.Simulated())
	assert.NoError(t, c.Close())
}

func TestSwitchWriter(t *testing.T) {
	var a, b bytes.Buffer
	w := &switchWriter{w: &a}

	_, _ = w.Write([]byte("one"))
	w.Set(&b)
	_, _ = w.Write([]byte("two"))

	assert.Equal(t, "one", a.String())
	assert.Equal(t, "two", b.String())
}
