package tendency

// Extendable is the capability extension handlers receive. It only allows
// the mean to be moved; the rest of the engine stays out of reach.
type Extendable interface {
	ChangeMean(delta float64) Extendable
}

// Extension contributes operations to an engine. Exposed returns the
// registration table, operation name to handler. Each handler takes an
// Extendable first and returns an Extendable, for example:
//
//	func (s Shift) Nudge(e tendency.Extendable, delta float64) tendency.Extendable {
//		return e.ChangeMean(delta)
//	}
type Extension interface {
	Exposed() map[string]any
}

// Dispatch is the outcome of a dynamic call. Handled is false when no
// built-in or exposed operation answers the name.
type Dispatch struct {
	Handled bool
	Engine  Extendable
	// Value carries the return value of built-ins that produce one, such as
	// compute and mean.
	Value any
}
