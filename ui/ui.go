package ui

import (
	"context"
	"fmt"
	"image/color"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"github.com/calvinmclean/speedctl"
	"github.com/calvinmclean/speedctl/controller"
	"github.com/calvinmclean/speedctl/runner"
)

const maxLogLines = 200

// PanelUI is a desktop front panel for a controller. It mirrors the device display, has the four
// menu buttons and direct duty and frequency controls.
type PanelUI struct {
	app fyne.App

	logMtx     sync.Mutex
	logLines   []string
	logContent *widget.Label
}

func NewPanelUI() *PanelUI {
	return &PanelUI{
		app: app.NewWithID("io.github.calvinmclean.speedctl"),
	}
}

// Write appends device output to the log view
func (ui *PanelUI) Write(p []byte) (int, error) {
	ui.logMtx.Lock()
	for line := range strings.SplitSeq(strings.TrimRight(string(p), "\r\n"), "\n") {
		ui.logLines = append(ui.logLines, strings.TrimRight(line, "\r"))
	}
	if len(ui.logLines) > maxLogLines {
		ui.logLines = ui.logLines[len(ui.logLines)-maxLogLines:]
	}
	text := strings.Join(ui.logLines, "\n")
	content := ui.logContent
	ui.logMtx.Unlock()

	if content != nil {
		fyne.Do(func() {
			content.SetText(text)
		})
	}

	return len(p), nil
}

// Run shows the configuration window and, once submitted, the control panel. It blocks until the
// application quits or ctx is done.
func (ui *PanelUI) Run(ctx context.Context, cfg controller.Config) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	configWindow := NewConfigWindow(ui.app)
	configWindow.OnSubmit = func() {
		go ui.connect(ctx, cfg)
	}
	configWindow.Show(&cfg)

	go func() {
		<-ctx.Done()
		fyne.Do(func() {
			ui.app.Quit()
		})
	}()

	ui.app.Run()
}

func (ui *PanelUI) connect(ctx context.Context, cfg controller.Config) {
	c, err := controller.New(cfg, cfg.Logger(os.Stderr))
	if err != nil {
		fyne.Do(func() {
			window := ui.app.NewWindow("Speed Controller")
			window.Show()
			showError(ui.app, window, err)
		})
		return
	}

	r, w := io.Pipe()

	go func() {
		defer c.Close()
		err := c.Run(ctx, r, io.MultiWriter(os.Stdout, ui))
		if err != nil {
			fmt.Fprintln(os.Stderr, "error running controller:", err)
		}
		fyne.Do(func() {
			ui.app.Quit()
		})
	}()

	fyne.Do(func() {
		ui.showPanel(ctx, w, c.Snapshots())
	})
}

func (ui *PanelUI) showPanel(ctx context.Context, w io.WriteCloser, snapshots <-chan runner.Snapshot) {
	window := ui.app.NewWindow("Speed Controller")
	window.SetOnClosed(func() {
		w.Close()
	})

	uptime := newElapsedLabel("up", false)
	lastEvent := newElapsedLabel("last command", true)
	go uptime.Run(ctx)
	go lastEvent.Run(ctx)

	wrapper := &controllerWrapper{writer: w, lastEvent: lastEvent}

	screen := newScreen()

	menuButtons := container.NewGridWithColumns(4,
		widget.NewButton("▲", func() { wrapper.Press(speedctl.ButtonUp) }),
		widget.NewButton("Select", func() { wrapper.Press(speedctl.ButtonSelect) }),
		widget.NewButton("▼", func() { wrapper.Press(speedctl.ButtonDown) }),
		widget.NewButton("Back", func() { wrapper.Press(speedctl.ButtonBack) }),
	)

	dutyContainer := createDutySlider(wrapper.SetDutyCycle)
	frequencyContainer := createFrequencyEntry(wrapper.SetFrequency)

	status := newStatusView()

	ui.logMtx.Lock()
	ui.logContent = widget.NewLabel(strings.Join(ui.logLines, "\n"))
	logScroll := container.NewVScroll(ui.logContent)
	ui.logMtx.Unlock()
	logScroll.SetMinSize(fyne.NewSize(300, 100))

	logAccordion := widget.NewAccordion(
		widget.NewAccordionItem("Logs", logScroll),
	)

	contentContainer := container.NewVBox(
		container.NewHBox(
			container.NewPadded(uptime.text),
			layout.NewSpacer(),
			container.NewPadded(lastEvent.text),
		),
		screen.container,
		menuButtons,
		status.container,
		dutyContainer,
		frequencyContainer,
		widget.NewButton("Status", wrapper.Status),
		logAccordion,
	)

	if snapshots != nil {
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case snap := <-snapshots:
					fyne.Do(func() {
						screen.Update(snap.Label)
						status.Update(snap)
					})
				}
			}
		}()
	} else {
		status.container.Hide()
		screen.Update("serial device")
	}

	window.SetContent(contentContainer)
	window.Resize(fyne.NewSize(320, 480))
	window.Show()
}

// screen mirrors the device display: the label between an up and a down indicator
type screen struct {
	label     *canvas.Text
	container *fyne.Container
}

func newScreen() *screen {
	fg := color.White
	bg := canvas.NewRectangle(color.Black)
	bg.SetMinSize(fyne.NewSize(256, 128))

	up := canvas.NewText("▲", fg)
	up.Alignment = fyne.TextAlignCenter

	label := canvas.NewText("", fg)
	label.Alignment = fyne.TextAlignCenter
	label.TextSize = 28
	label.TextStyle = fyne.TextStyle{Monospace: true, Bold: true}

	down := canvas.NewText("▼", fg)
	down.Alignment = fyne.TextAlignCenter

	return &screen{
		label: label,
		container: container.NewStack(
			bg,
			container.NewVBox(up, layout.NewSpacer(), label, layout.NewSpacer(), down),
		),
	}
}

func (s *screen) Update(label string) {
	if s.label.Text == label {
		return
	}
	s.label.Text = label
	s.label.Refresh()
}

type statusView struct {
	target    *widget.Label
	duty      *widget.Label
	frequency *widget.Label
	speed     *widget.Label
	action    *widget.Label
	container *fyne.Container
}

func newStatusView() *statusView {
	s := &statusView{
		target:    widget.NewLabel("-"),
		duty:      widget.NewLabel("-"),
		frequency: widget.NewLabel("-"),
		speed:     widget.NewLabel("-"),
		action:    widget.NewLabel("-"),
	}
	s.container = container.NewGridWithColumns(2,
		widget.NewLabel("Target"), s.target,
		widget.NewLabel("Duty"), s.duty,
		widget.NewLabel("Frequency"), s.frequency,
		widget.NewLabel("Speed"), s.speed,
		widget.NewLabel("Action"), s.action,
	)
	return s
}

func (s *statusView) Update(snap runner.Snapshot) {
	target := snap.TargetLabel
	if snap.EmergencyStop {
		target += " (STOP)"
	}
	s.target.SetText(target)
	s.duty.SetText(strconv.Itoa(snap.Duty) + "%")
	s.frequency.SetText(strconv.Itoa(snap.Frequency) + "Hz")
	s.speed.SetText(fmt.Sprintf("%d / %d", snap.Filtered, snap.Setpoint))
	s.action.SetText(snap.Action.String())
}

func createDutySlider(onSet func(float64)) *fyne.Container {
	defaultValue := 50.0
	valueLabel := widget.NewLabel(fmt.Sprintf("%.0f%%", defaultValue))

	slider := widget.NewSlider(0, 100)
	slider.Step = 1
	slider.SetValue(defaultValue)
	slider.OnChanged = func(value float64) {
		valueLabel.SetText(fmt.Sprintf("%.0f%%", value))
	}
	slider.OnChangeEnded = onSet

	return container.NewVBox(
		container.NewGridWithColumns(2,
			widget.NewLabel("Duty Cycle"),
			valueLabel,
		),
		slider,
	)
}

func createFrequencyEntry(onSet func(int)) *fyne.Container {
	entry := widget.NewEntry()
	entry.SetPlaceHolder("35714")
	entry.OnSubmitted = func(s string) {
		entry.SetText("")

		number, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil || number <= 0 {
			fmt.Println("Invalid input. Please enter a frequency in Hz.")
			return
		}
		onSet(number)
	}

	setButton := widget.NewButton("Set", func() {
		entry.OnSubmitted(entry.Text)
	})

	return container.NewGridWithColumns(3,
		widget.NewLabel("Frequency"),
		entry,
		setButton,
	)
}
