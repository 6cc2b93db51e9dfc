package speedctl

import "time"

// RateGate lets an action through at most once per Period. Each consumer owns its own gate: the
// buttons share one and the control law has another.
type RateGate struct {
	Period time.Duration

	last time.Time
	used bool
}

// NewRateGate creates an open gate with the refractory period p
func NewRateGate(p time.Duration) *RateGate {
	return &RateGate{Period: p}
}

// Ready reports whether an action at now would be honored
func (g *RateGate) Ready(now time.Time) bool {
	return !g.used || now.Sub(g.last) >= g.Period
}

// Allow honors an action at now if the gate is ready and restarts the period from now
func (g *RateGate) Allow(now time.Time) bool {
	if !g.Ready(now) {
		return false
	}
	g.last = now
	g.used = true
	return true
}

// Last is the time of the most recent honored action. It is zero until the first one.
func (g *RateGate) Last() time.Time {
	return g.last
}
