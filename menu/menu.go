// Package menu is the front panel state machine. It turns button presses into menu navigation and
// edits of the target speed and emergency stop in the shared State.
//
// While browsing (Sub == 1) Up and Down move between entries with wraparound and Select enters the
// entry. While editing (Sub > 1) Back returns towards browsing and every other button goes to the
// entry's Edit handler. Anything else is a no-op.
package menu

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/calvinmclean/speedctl"
)

// ButtonSource reports the debounced state of a button
type ButtonSource interface {
	IsPressed(speedctl.Button) bool
}

// Machine is the menu state machine. The menu position lives in State.Menu.
type Machine struct {
	entries []Entry
	state   *speedctl.State
	gate    *speedctl.RateGate
	logger  *slog.Logger
}

// New creates a Machine over entries. Presses closer together than gatePeriod are ignored, no
// matter which button they come from.
func New(state *speedctl.State, gatePeriod time.Duration, entries []Entry, logger *slog.Logger) (*Machine, error) {
	if len(entries) == 0 {
		return nil, errors.New("menu needs at least one entry")
	}

	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	normalized := make([]Entry, len(entries))
	for i, e := range entries {
		if e.MaxDepth < 1 {
			e.MaxDepth = 1
		}
		normalized[i] = e
	}

	m := &Machine{
		entries: normalized,
		state:   state,
		gate:    speedctl.NewRateGate(gatePeriod),
		logger:  logger,
	}
	m.state.Menu = m.position()

	return m, nil
}

// Poll scans the buttons once and applies the first press the shared gate lets through. It returns
// the honored button, or ButtonNone.
func (m *Machine) Poll(now time.Time, src ButtonSource) speedctl.Button {
	for _, b := range speedctl.Buttons {
		// latched sources clear on read, so only read while the gate is open
		if m.gate.Ready(now) && src.IsPressed(b) {
			m.gate.Allow(now)
			m.Press(b)
			return b
		}
	}
	return speedctl.ButtonNone
}

// Press applies b immediately, bypassing the rate gate
func (m *Machine) Press(b speedctl.Button) {
	pos := m.position()
	entry := m.entries[pos.Main-1]

	if pos.Sub == 1 {
		switch b {
		case speedctl.ButtonUp:
			pos.Main = m.wrap(pos.Main - 1)
		case speedctl.ButtonDown:
			pos.Main = m.wrap(pos.Main + 1)
		case speedctl.ButtonSelect:
			pos.Sub = min(pos.Sub+1, entry.MaxDepth)
		}
		m.move(pos, b)
		return
	}

	if b == speedctl.ButtonBack {
		pos.Sub = max(pos.Sub-1, 1)
		m.move(pos, b)
		return
	}

	if entry.Edit != nil {
		entry.Edit(m.state, b)
		m.logger.Debug("menu edit",
			"entry", entry.ID,
			"button", b,
			"target", m.state.TargetSpeed(),
			"emergency_stop", m.state.EmergencyStop(),
		)
	}
	m.state.Menu = pos
}

// Label is the text the display shows for the current position
func (m *Machine) Label() string {
	pos := m.position()
	entry := m.entries[pos.Main-1]
	if pos.Sub == 1 || entry.View == nil {
		return entry.Title
	}
	return entry.View(m.state)
}

// Entry is the entry at the current position
func (m *Machine) Entry() Entry {
	return m.entries[m.position().Main-1]
}

// Position is the current menu position
func (m *Machine) Position() speedctl.MenuPosition {
	return m.position()
}

// Len is the number of top-level entries
func (m *Machine) Len() int {
	return len(m.entries)
}

func (m *Machine) move(pos speedctl.MenuPosition, b speedctl.Button) {
	if pos != m.state.Menu {
		m.logger.Debug("menu moved", "button", b, "main", pos.Main, "sub", pos.Sub)
	}
	m.state.Menu = pos
}

// position returns State.Menu clamped into the entry table
func (m *Machine) position() speedctl.MenuPosition {
	pos := m.state.Menu
	pos.Main = max(1, min(pos.Main, len(m.entries)))
	pos.Sub = max(1, min(pos.Sub, m.entries[pos.Main-1].MaxDepth))
	return pos
}

// wrap maps any main index onto [1, len(entries)]
func (m *Machine) wrap(main int) int {
	n := len(m.entries)
	return ((main-1)%n+n)%n + 1
}
