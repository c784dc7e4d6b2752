package tendency

type simpleExtension struct{}

func (s simpleExtension) Exposed() map[string]any {
	return map[string]any{"myFunc": s.MyFunc}
}

func (simpleExtension) MyFunc(random Extendable, change float64) Extendable {
	return random.ChangeMean(change)
}

type invalidFirstParameter struct{}

func (s invalidFirstParameter) Exposed() map[string]any {
	return map[string]any{"myFunc": s.MyFunc}
}

func (invalidFirstParameter) MyFunc(change float64) Extendable {
	return NewFloat(0, 1, DefaultDeviation)
}

type invalidReturnType struct{}

func (s invalidReturnType) Exposed() map[string]any {
	return map[string]any{"myFunc": s.MyFunc}
}

func (invalidReturnType) MyFunc(random Extendable, change float64) float64 {
	return 0
}

// partlyValid has one good and one bad handler; neither may be registered.
type partlyValid struct{}

func (s partlyValid) Exposed() map[string]any {
	return map[string]any{
		"good": func(e Extendable) Extendable { return e.ChangeMean(1) },
		"bad":  func(e Extendable) int { return 0 },
	}
}

type scaledExtension struct {
	factor float64
}

func (s scaledExtension) Exposed() map[string]any {
	return map[string]any{"scaled": s.Scaled}
}

func (s scaledExtension) Scaled(e Extendable, delta float64) Extendable {
	return e.ChangeMean(delta * s.factor)
}

type shadowingExtension struct{}

func (shadowingExtension) Exposed() map[string]any {
	return map[string]any{
		"compute": func(e Extendable) Extendable { return e.ChangeMean(100) },
	}
}
