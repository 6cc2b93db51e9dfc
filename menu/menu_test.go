package menu

import (
	"testing"
	"time"

	"github.com/calvinmclean/speedctl"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type heldButtons map[speedctl.Button]bool

func (h heldButtons) IsPressed(b speedctl.Button) bool {
	return h[b]
}

func newTestMachine(t *testing.T) (*Machine, *speedctl.State) {
	t.Helper()
	state := speedctl.NewState(speedctl.DefaultSpeedTable())
	state.Duty = 50
	m, err := New(state, 250*time.Millisecond, DefaultEntries(), nil)
	require.NoError(t, err)
	return m, state
}

func press(m *Machine, buttons ...speedctl.Button) {
	for _, b := range buttons {
		m.Press(b)
	}
}

func TestSpeedScenario(t *testing.T) {
	m, state := newTestMachine(t)
	assert.Equal(t, speedctl.MenuPosition{Main: 1, Sub: 1}, state.Menu)
	assert.Equal(t, "Speed", m.Label())

	press(m, speedctl.ButtonSelect)
	assert.Equal(t, speedctl.MenuPosition{Main: 1, Sub: 2}, state.Menu)
	assert.Equal(t, 6, state.TargetSpeed())
	assert.Equal(t, "0", m.Label())

	press(m, speedctl.ButtonUp)
	assert.Equal(t, 7, state.TargetSpeed())
	assert.Equal(t, "1", m.Label())

	press(m, speedctl.ButtonDown, speedctl.ButtonDown)
	assert.Equal(t, 5, state.TargetSpeed())
	assert.Equal(t, "-1", m.Label())
}

func TestSpeedClampsAtTableEnds(t *testing.T) {
	m, state := newTestMachine(t)
	press(m, speedctl.ButtonSelect)

	for range 20 {
		press(m, speedctl.ButtonUp)
	}
	assert.Equal(t, 12, state.TargetSpeed())
	assert.Equal(t, "6", m.Label())

	for range 40 {
		press(m, speedctl.ButtonDown)
	}
	assert.Equal(t, 0, state.TargetSpeed())
	assert.Equal(t, "-6", m.Label())
}

func TestMenuWrap(t *testing.T) {
	for _, b := range []speedctl.Button{speedctl.ButtonUp, speedctl.ButtonDown} {
		for startMain := 1; startMain <= 3; startMain++ {
			m, state := newTestMachine(t)
			state.Menu = speedctl.MenuPosition{Main: startMain, Sub: 1}

			visited := map[int]bool{}
			for range m.Len() {
				press(m, b)
				visited[state.Menu.Main] = true
			}

			assert.Equal(t, startMain, state.Menu.Main, "%s from %d", b, startMain)
			assert.Len(t, visited, m.Len(), "%s visits every entry", b)
		}
	}
}

func TestBrowsingDirection(t *testing.T) {
	m, state := newTestMachine(t)

	press(m, speedctl.ButtonDown)
	assert.Equal(t, 2, state.Menu.Main)
	assert.Equal(t, "Emerg Stop", m.Label())

	press(m, speedctl.ButtonUp, speedctl.ButtonUp)
	assert.Equal(t, 3, state.Menu.Main)
	assert.Equal(t, "Duty", m.Label())
}

func TestSelectClampsAtMaxDepth(t *testing.T) {
	m, state := newTestMachine(t)
	press(m, speedctl.ButtonSelect, speedctl.ButtonSelect, speedctl.ButtonSelect)
	assert.Equal(t, 2, state.Menu.Sub)
}

func TestBack(t *testing.T) {
	m, state := newTestMachine(t)

	press(m, speedctl.ButtonBack)
	assert.Equal(t, speedctl.MenuPosition{Main: 1, Sub: 1}, state.Menu, "Back while browsing is a no-op")

	press(m, speedctl.ButtonSelect, speedctl.ButtonBack)
	assert.Equal(t, speedctl.MenuPosition{Main: 1, Sub: 1}, state.Menu)

	press(m, speedctl.ButtonBack)
	assert.Equal(t, speedctl.MenuPosition{Main: 1, Sub: 1}, state.Menu)
}

func TestEmergencyStopOverride(t *testing.T) {
	m, state := newTestMachine(t)

	// raise the target first
	press(m, speedctl.ButtonSelect, speedctl.ButtonUp, speedctl.ButtonUp, speedctl.ButtonBack)
	require.Equal(t, 8, state.TargetSpeed())

	// enable the emergency stop
	press(m, speedctl.ButtonDown, speedctl.ButtonSelect)
	assert.Equal(t, "DISABLED", m.Label())
	press(m, speedctl.ButtonSelect)
	assert.Equal(t, "ENABLED", m.Label())
	assert.True(t, state.EmergencyStop())
	assert.True(t, state.AtNeutral())

	// Up and Down in the speed editor can't move the target
	press(m, speedctl.ButtonBack, speedctl.ButtonUp, speedctl.ButtonSelect)
	require.Equal(t, EntrySpeed, m.Entry().ID)
	for _, b := range []speedctl.Button{speedctl.ButtonUp, speedctl.ButtonUp, speedctl.ButtonDown, speedctl.ButtonUp} {
		press(m, b)
		assert.True(t, state.AtNeutral())
		assert.Equal(t, "0", m.Label())
	}

	// disabling it lets the target move again
	press(m, speedctl.ButtonBack, speedctl.ButtonDown, speedctl.ButtonSelect, speedctl.ButtonSelect)
	assert.False(t, state.EmergencyStop())
	press(m, speedctl.ButtonBack, speedctl.ButtonUp, speedctl.ButtonSelect, speedctl.ButtonUp)
	assert.Equal(t, 7, state.TargetSpeed())
}

func TestUnmatchedButtonsAreNoOps(t *testing.T) {
	m, state := newTestMachine(t)

	// Up and Down in the emergency stop editor
	state.Menu = speedctl.MenuPosition{Main: 2, Sub: 2}
	press(m, speedctl.ButtonUp, speedctl.ButtonDown)
	assert.False(t, state.EmergencyStop())
	assert.Equal(t, speedctl.MenuPosition{Main: 2, Sub: 2}, state.Menu)

	// Select in the speed editor
	state.Menu = speedctl.MenuPosition{Main: 1, Sub: 2}
	press(m, speedctl.ButtonSelect)
	assert.Equal(t, 6, state.TargetSpeed())

	// everything in the read-only duty view
	state.Menu = speedctl.MenuPosition{Main: 3, Sub: 2}
	press(m, speedctl.ButtonUp, speedctl.ButtonDown, speedctl.ButtonSelect, speedctl.ButtonNone)
	assert.Equal(t, speedctl.MenuPosition{Main: 3, Sub: 2}, state.Menu)
	assert.Equal(t, "50%", m.Label())
}

func TestOutOfRangePositionIsClamped(t *testing.T) {
	m, state := newTestMachine(t)

	state.Menu = speedctl.MenuPosition{Main: 9, Sub: 7}
	assert.Equal(t, speedctl.MenuPosition{Main: 3, Sub: 2}, m.Position())
	assert.Equal(t, "50%", m.Label())

	state.Menu = speedctl.MenuPosition{Main: -4, Sub: 0}
	assert.Equal(t, "Speed", m.Label())
	press(m, speedctl.ButtonUp)
	assert.Equal(t, speedctl.MenuPosition{Main: 3, Sub: 1}, state.Menu)
}

func TestPollIsRateLimited(t *testing.T) {
	m, state := newTestMachine(t)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	held := heldButtons{speedctl.ButtonDown: true}
	assert.Equal(t, speedctl.ButtonDown, m.Poll(now, held))
	assert.Equal(t, 2, state.Menu.Main)

	// still held: ignored until the period passes
	assert.Equal(t, speedctl.ButtonNone, m.Poll(now.Add(100*time.Millisecond), held))
	assert.Equal(t, 2, state.Menu.Main)

	// a different button shares the same gate
	assert.Equal(t, speedctl.ButtonNone, m.Poll(now.Add(200*time.Millisecond), heldButtons{speedctl.ButtonUp: true}))
	assert.Equal(t, 2, state.Menu.Main)

	assert.Equal(t, speedctl.ButtonDown, m.Poll(now.Add(250*time.Millisecond), held))
	assert.Equal(t, 3, state.Menu.Main)
}

func TestPollHonorsOnePressPerPass(t *testing.T) {
	m, state := newTestMachine(t)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	all := heldButtons{
		speedctl.ButtonUp:     true,
		speedctl.ButtonDown:   true,
		speedctl.ButtonSelect: true,
		speedctl.ButtonBack:   true,
	}
	assert.Equal(t, speedctl.ButtonUp, m.Poll(now, all))
	assert.Equal(t, speedctl.MenuPosition{Main: 3, Sub: 1}, state.Menu)
}

// latchedButtons forgets a press once it has been read
type latchedButtons map[speedctl.Button]bool

func (l latchedButtons) IsPressed(b speedctl.Button) bool {
	pressed := l[b]
	delete(l, b)
	return pressed
}

func TestPollKeepsLatchedPressWhileGated(t *testing.T) {
	m, state := newTestMachine(t)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	latched := latchedButtons{speedctl.ButtonDown: true}
	assert.Equal(t, speedctl.ButtonDown, m.Poll(now, latched))
	assert.Empty(t, latched)

	latched[speedctl.ButtonDown] = true
	assert.Equal(t, speedctl.ButtonNone, m.Poll(now.Add(100*time.Millisecond), latched))
	assert.True(t, latched[speedctl.ButtonDown], "press is not consumed while the gate is closed")

	assert.Equal(t, speedctl.ButtonDown, m.Poll(now.Add(250*time.Millisecond), latched))
	assert.Equal(t, 3, state.Menu.Main)
}

func TestPollWithoutGateHonorsOnePress(t *testing.T) {
	state := speedctl.NewState(speedctl.DefaultSpeedTable())
	m, err := New(state, 0, DefaultEntries(), nil)
	require.NoError(t, err)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	latched := latchedButtons{
		speedctl.ButtonUp:   true,
		speedctl.ButtonDown: true,
		speedctl.ButtonBack: true,
	}
	assert.Equal(t, speedctl.ButtonUp, m.Poll(now, latched))
	assert.Equal(t, speedctl.MenuPosition{Main: 3, Sub: 1}, state.Menu)
	assert.Len(t, latched, 2, "later buttons are left for the next pass")

	assert.Equal(t, speedctl.ButtonDown, m.Poll(now, latched))
	assert.Equal(t, speedctl.MenuPosition{Main: 1, Sub: 1}, state.Menu)
}

func TestNewRequiresEntries(t *testing.T) {
	_, err := New(speedctl.NewState(speedctl.DefaultSpeedTable()), 0, nil, nil)
	assert.Error(t, err)
}
