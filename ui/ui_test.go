package ui

import (
	"bytes"
	"testing"
	"time"

	"github.com/calvinmclean/speedctl"
	"github.com/calvinmclean/speedctl/controller"

	"github.com/stretchr/testify/assert"
)

func TestControllerWrapper(t *testing.T) {
	var buf bytes.Buffer
	c := &controllerWrapper{writer: &buf}

	c.Press(speedctl.ButtonUp)
	c.Press(speedctl.ButtonSelect)
	c.SetDutyCycle(42.4)
	c.SetFrequency(10000)
	c.Status()

	assert.Equal(t, "u\ns\nD 42\nF 10000\nS\n", buf.String())
}

func TestButtonLineRoundTrip(t *testing.T) {
	for _, b := range speedctl.Buttons {
		assert.Equal(t, b, speedctl.ParseButton(buttonLine(b)))
	}
	assert.Empty(t, buttonLine(speedctl.ButtonNone))
}

func TestControllerWrapperResetsLastEvent(t *testing.T) {
	var buf bytes.Buffer
	last := newElapsedLabel("last command", true)
	last.since = time.Now().Add(-time.Hour)

	c := &controllerWrapper{writer: &buf, lastEvent: last}
	c.SetFrequency(20000)

	last.mu.Lock()
	defer last.mu.Unlock()
	assert.WithinDuration(t, time.Now(), last.since, time.Second)
}

func TestElapsedLabelString(t *testing.T) {
	e := newElapsedLabel("up", false)
	e.since = time.Now().Add(-(2*time.Minute + 5*time.Second + 500*time.Millisecond))

	assert.Equal(t, "up 02:05", e.String())
}

func TestFormatElapsed(t *testing.T) {
	elapsed := 2*time.Minute + 5*time.Second + 30*time.Millisecond

	assert.Equal(t, "02:05", formatElapsed(elapsed, false))
	assert.Equal(t, "02:05.030", formatElapsed(elapsed, true))
	assert.Equal(t, "75:00", formatElapsed(75*time.Minute, false))
}

func TestStringPrefsCoverConfig(t *testing.T) {
	cfg := controller.Config{SerialPort: "none", MQTTTopic: "a/b"}

	values := map[string]string{}
	for _, p := range stringPrefs(&cfg) {
		values[p.key] = withFallback(*p.field, p.fallback)
	}

	assert.Equal(t, "none", values["serialPort"])
	assert.Equal(t, "9600", values["baudRate"])
	assert.Equal(t, "a/b", values["mqttTopic"])
	assert.Empty(t, values["telemetryAddr"])
}
