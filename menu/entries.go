package menu

import (
	"strconv"

	"github.com/calvinmclean/speedctl"
)

// EntryID identifies a top-level menu entry
type EntryID int

const (
	EntryUnknown EntryID = iota
	EntrySpeed
	EntryEmergencyStop
	EntryDuty
)

func (id EntryID) String() string {
	switch id {
	case EntrySpeed:
		return "Speed"
	case EntryEmergencyStop:
		return "Emerg Stop"
	case EntryDuty:
		return "Duty"
	default:
		return "Unknown"
	}
}

// Entry describes one top-level menu item
type Entry struct {
	ID EntryID

	// Title is shown while browsing
	Title string

	// MaxDepth is the deepest Sub position Select can reach. 1 means the entry has no value view.
	MaxDepth int

	// View renders the entry's value while editing. Nil shows the Title.
	View func(*speedctl.State) string

	// Edit handles Up, Down and Select while editing. Nil ignores them.
	Edit func(*speedctl.State, speedctl.Button)
}

// DefaultEntries is the front panel menu: speed, emergency stop and a read-only duty view
func DefaultEntries() []Entry {
	return []Entry{
		SpeedEntry(),
		EmergencyStopEntry(),
		DutyEntry(),
	}
}

// SpeedEntry edits TargetSpeed. Up and Down move one step without wrapping. While the emergency
// stop is on the target stays at neutral.
func SpeedEntry() Entry {
	return Entry{
		ID:       EntrySpeed,
		Title:    EntrySpeed.String(),
		MaxDepth: 2,
		View: func(s *speedctl.State) string {
			return s.Target().Label
		},
		Edit: func(s *speedctl.State, b speedctl.Button) {
			switch b {
			case speedctl.ButtonUp:
				s.StepTargetSpeed(+1)
			case speedctl.ButtonDown:
				s.StepTargetSpeed(-1)
			}
		},
	}
}

// EmergencyStopEntry toggles the emergency stop with Select
func EmergencyStopEntry() Entry {
	return Entry{
		ID:       EntryEmergencyStop,
		Title:    EntryEmergencyStop.String(),
		MaxDepth: 2,
		View: func(s *speedctl.State) string {
			if s.EmergencyStop() {
				return "ENABLED"
			}
			return "DISABLED"
		},
		Edit: func(s *speedctl.State, b speedctl.Button) {
			if b == speedctl.ButtonSelect {
				s.ToggleEmergencyStop()
			}
		},
	}
}

// DutyEntry shows the applied duty cycle as a percentage
func DutyEntry() Entry {
	return Entry{
		ID:       EntryDuty,
		Title:    EntryDuty.String(),
		MaxDepth: 2,
		View: func(s *speedctl.State) string {
			return strconv.Itoa(s.Duty) + "%"
		},
	}
}
