package speedctl

// MenuPosition is the 1-based position in the menu. Sub == 1 is browsing the entry at Main and
// Sub > 1 is editing its value.
type MenuPosition struct {
	Main int
	Sub  int
}

// State is everything the controller mutates while it runs. It is owned by the control loop and
// passed by pointer to the menu, the control law and the actuator. Nothing in it is persisted.
type State struct {
	Menu MenuPosition

	// Duty and Frequency are written by the actuator after clamping
	Duty      int
	Frequency int

	speeds        SpeedTable
	target        int
	emergencyStop bool
}

// NewState returns the start-up state: menu at (1,1), target at neutral and the emergency stop off
func NewState(speeds SpeedTable) *State {
	return &State{
		Menu:   MenuPosition{Main: 1, Sub: 1},
		speeds: speeds,
		target: speeds.Clamp(speeds.Neutral),
	}
}

// Speeds is the table TargetSpeed indexes into
func (s *State) Speeds() SpeedTable {
	return s.speeds
}

// TargetSpeed is the current index into the speed table
func (s *State) TargetSpeed() int {
	return s.target
}

// Target is the speed step the control law is tracking
func (s *State) Target() SpeedStep {
	return s.speeds.Step(s.target)
}

// AtNeutral is true when the target is the stopped step
func (s *State) AtNeutral() bool {
	return s.target == s.speeds.Clamp(s.speeds.Neutral)
}

// SetTargetSpeed clamps i to the table and makes it the target. While the emergency stop is on
// the target stays at neutral.
func (s *State) SetTargetSpeed(i int) {
	if s.emergencyStop {
		s.target = s.speeds.Clamp(s.speeds.Neutral)
		return
	}
	s.target = s.speeds.Clamp(i)
}

// StepTargetSpeed moves the target by delta steps without wrapping
func (s *State) StepTargetSpeed(delta int) {
	s.SetTargetSpeed(s.target + delta)
}

// EmergencyStop reports whether the stop override is on
func (s *State) EmergencyStop() bool {
	return s.emergencyStop
}

// SetEmergencyStop turns the override on or off. Turning it on forces the target to neutral.
func (s *State) SetEmergencyStop(on bool) {
	s.emergencyStop = on
	if on {
		s.target = s.speeds.Clamp(s.speeds.Neutral)
	}
}

// ToggleEmergencyStop flips the override
func (s *State) ToggleEmergencyStop() {
	s.SetEmergencyStop(!s.emergencyStop)
}
