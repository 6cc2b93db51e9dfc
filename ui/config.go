package ui

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/data/binding"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/calvinmclean/speedctl/controller"
)

// ConfigWindow asks for the controller.Config fields the environment didn't set. Submitted values
// are remembered in the app preferences for the next start.
type ConfigWindow struct {
	app      fyne.App
	OnSubmit func()
}

func NewConfigWindow(app fyne.App) *ConfigWindow {
	return &ConfigWindow{
		app: app,
	}
}

type stringPref struct {
	key      string
	field    *string
	fallback string
}

// stringPrefs maps preference keys to the string fields they fill
func stringPrefs(cfg *controller.Config) []stringPref {
	return []stringPref{
		{"serialPort", &cfg.SerialPort, ""},
		{"baudRate", &cfg.BaudRate, "9600"},
		{"tuningFile", &cfg.TuningFile, ""},
		{"mqttBroker", &cfg.MQTTBroker, ""},
		{"mqttTopic", &cfg.MQTTTopic, "speedctl/state"},
		{"telemetryAddr", &cfg.TelemetryAddr, ""},
	}
}

func (cw *ConfigWindow) loadPreferences(cfg *controller.Config) {
	prefs := cw.app.Preferences()
	for _, p := range stringPrefs(cfg) {
		*p.field = withFallback(*p.field, prefs.StringWithFallback(p.key, p.fallback))
	}
	if cfg.CycleInterval == 0 {
		cfg.CycleInterval = time.Duration(prefs.IntWithFallback("cycleIntervalMillis", 10)) * time.Millisecond
	}
}

func (cw *ConfigWindow) savePreferences(cfg *controller.Config) {
	prefs := cw.app.Preferences()
	for _, p := range stringPrefs(cfg) {
		prefs.SetString(p.key, *p.field)
	}
	prefs.SetInt("cycleIntervalMillis", int(cfg.CycleInterval.Milliseconds()))
}

func (cw *ConfigWindow) Show(cfg *controller.Config) {
	window := cw.app.NewWindow("Speed Controller - Configuration")
	window.Resize(fyne.NewSize(420, 300))
	window.SetCloseIntercept(func() {
		window.Close()
		cw.app.Quit()
	})
	window.Show()

	cw.loadPreferences(cfg)

	ports, err := controller.GetSerialPorts()
	if err != nil && !errors.Is(err, controller.ErrNoUSBSerial) {
		showError(cw.app, window, fmt.Errorf("error getting serial ports: %w", err))
		return
	}
	ports = append(ports, controller.SerialPortNone)
	if cfg.SerialPort == "" {
		cfg.SerialPort = ports[0]
	}

	port := widget.NewSelect(ports, nil)
	port.Bind(binding.BindString(&cfg.SerialPort))

	baud := boundEntry(&cfg.BaudRate, "")
	baud.Validator = func(string) error {
		if cfg.Simulated() {
			return nil
		}
		_, err := cfg.Baud()
		return err
	}

	interval := widget.NewEntry()
	interval.SetText(strconv.FormatInt(cfg.CycleInterval.Milliseconds(), 10))
	interval.Validator = func(s string) error {
		ms, err := strconv.Atoi(s)
		if err != nil || ms <= 0 {
			return errors.New("cycle interval must be a positive number of milliseconds")
		}
		return nil
	}
	interval.OnChanged = func(s string) {
		ms, err := strconv.Atoi(s)
		if err == nil && ms > 0 {
			cfg.CycleInterval = time.Duration(ms) * time.Millisecond
		}
	}

	topic := boundEntry(&cfg.MQTTTopic, "")
	topic.Validator = func(s string) error {
		if s == "" {
			return errors.New("topic is required")
		}
		return nil
	}

	form := &widget.Form{
		Items: []*widget.FormItem{
			widget.NewFormItem("Serial Port", port),
			widget.NewFormItem("Baud Rate", baud),
			widget.NewFormItem("Cycle (ms)", interval),
			widget.NewFormItem("Tuning File", boundEntry(&cfg.TuningFile, "defaults")),
			widget.NewFormItem("MQTT Broker", boundEntry(&cfg.MQTTBroker, "disabled")),
			widget.NewFormItem("MQTT Topic", topic),
			widget.NewFormItem("Telemetry Address", boundEntry(&cfg.TelemetryAddr, "disabled")),
		},
		SubmitText: "Connect",
		OnSubmit: func() {
			cw.savePreferences(cfg)
			cw.OnSubmit()
			window.Close()
		},
		OnCancel: func() {
			window.Close()
			cw.app.Quit()
		},
	}

	// the baud rate only matters for real ports
	port.OnChanged = func(string) {
		_ = baud.Validate()
	}

	window.SetContent(widget.NewCard("Configuration", "", form))
}

func boundEntry(field *string, placeholder string) *widget.Entry {
	e := widget.NewEntry()
	e.SetPlaceHolder(placeholder)
	e.Bind(binding.BindString(field))
	return e
}

func withFallback(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}

func showError(app fyne.App, window fyne.Window, err error) {
	d := dialog.NewError(err, window)
	d.SetOnClosed(func() {
		app.Quit()
	})
	d.Show()
}
