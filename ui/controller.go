package ui

import (
	"fmt"
	"io"

	"github.com/calvinmclean/speedctl"
)

// controllerWrapper turns panel actions into console lines for controller.Run
type controllerWrapper struct {
	writer    io.Writer
	lastEvent *elapsedLabel
}

func (c *controllerWrapper) Press(b speedctl.Button) {
	c.send("%s", buttonLine(b))
}

func (c *controllerWrapper) SetDutyCycle(value float64) {
	c.send("D %.0f", value)
}

func (c *controllerWrapper) SetFrequency(value int) {
	c.send("F %d", value)
}

func (c *controllerWrapper) Status() {
	fmt.Fprintln(c.writer, "S")
}

func (c *controllerWrapper) send(format string, args ...any) {
	if c.lastEvent != nil {
		c.lastEvent.Reset()
	}
	fmt.Fprintf(c.writer, format+"\n", args...)
}

// buttonLine is the console shorthand controller.Run maps back to a button
func buttonLine(b speedctl.Button) string {
	switch b {
	case speedctl.ButtonUp:
		return "u"
	case speedctl.ButtonDown:
		return "d"
	case speedctl.ButtonSelect:
		return "s"
	case speedctl.ButtonBack:
		return "b"
	default:
		return ""
	}
}
