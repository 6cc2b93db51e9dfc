package speedctl

import "strings"

// Version is shown on the display while the controller starts
const Version = "v1.2.0"

// Button is one of the four logical buttons on the front panel
type Button int

const (
	ButtonNone Button = iota
	ButtonUp
	ButtonDown
	ButtonSelect
	ButtonBack
)

// Buttons is the order buttons are scanned in during a polling pass
var Buttons = [4]Button{ButtonUp, ButtonSelect, ButtonDown, ButtonBack}

func (b Button) String() string {
	switch b {
	case ButtonUp:
		return "Up"
	case ButtonDown:
		return "Down"
	case ButtonSelect:
		return "Select"
	case ButtonBack:
		return "Back"
	default:
		fallthrough
	case ButtonNone:
		return "None"
	}
}

// ParseButton accepts a lowercase button name or its first letter. Uppercase is left for console
// commands, so "S" is not a button.
func ParseButton(s string) Button {
	switch strings.TrimSpace(s) {
	case "u", "up":
		return ButtonUp
	case "d", "down":
		return ButtonDown
	case "s", "select":
		return ButtonSelect
	case "b", "back":
		return ButtonBack
	default:
		return ButtonNone
	}
}
