// Package extensions ships the extensions every experiment engine carries.
package extensions

import "tendency/pkg/tendency"

const DefaultStep = 0.1

// Shift exposes direct mean adjustments.
type Shift struct {
	// Step is the amount favor and disfavor move the mean. Zero means
	// DefaultStep.
	Step float64
}

func (s Shift) Exposed() map[string]any {
	return map[string]any{
		"nudge":    s.Nudge,
		"favor":    s.Favor,
		"disfavor": s.Disfavor,
	}
}

func (Shift) Nudge(e tendency.Extendable, delta float64) tendency.Extendable {
	return e.ChangeMean(delta)
}

func (s Shift) Favor(e tendency.Extendable) tendency.Extendable {
	return e.ChangeMean(s.step())
}

func (s Shift) Disfavor(e tendency.Extendable) tendency.Extendable {
	return e.ChangeMean(-s.step())
}

func (s Shift) step() float64 {
	if s.Step == 0 {
		return DefaultStep
	}
	return s.Step
}

// Streak raises the mean in proportion to a run length, for example
// consecutive wins.
type Streak struct {
	PerHit float64
}

func (s Streak) Exposed() map[string]any {
	return map[string]any{"streak": s.Apply}
}

func (s Streak) Apply(e tendency.Extendable, hits int) tendency.Extendable {
	perHit := s.PerHit
	if perHit == 0 {
		perHit = 0.05
	}
	return e.ChangeMean(perHit * float64(hits))
}

// Default returns the extensions attached to experiment engines.
func Default() []tendency.Extension {
	return []tendency.Extension{Shift{}, Streak{}}
}
