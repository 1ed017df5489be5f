package galaxy

import (
	"math"
)

// Payload is the composition record attached to a baryonic reservoir. A run
// picks one implementation when it starts (TotalMetals or ChannelMetals) and
// every reservoir of every galaxy carries that type.
type Payload[T any] interface {
	// Scaled returns the payload multiplied by f.
	Scaled(f float64) T
	Plus(o T) T
	Minus(o T) T
	// Total is the summed metal mass over all components.
	Total() float64
	// Checked returns the payload with components in (-tol, 0) reset to
	// zero. ok is false if some component is not finite or is below -tol,
	// in which case field and value identify it.
	Checked(tol float64) (clean T, field string, value float64, ok bool)
}

// checkComponent is the per-component rule shared by every payload.
func checkComponent(x, tol float64) (clean float64, ok bool) {
	if math.IsNaN(x) || math.IsInf(x, 0) { return x, false }
	if x < 0 {
		if x > -tol { return 0, true }
		return x, false
	}
	return x, true
}

// TotalMetals tracks a single aggregate metal mass.
type TotalMetals float64

func (m TotalMetals) Scaled(f float64) TotalMetals { return TotalMetals(float64(m) * f) }
func (m TotalMetals) Plus(o TotalMetals) TotalMetals { return m + o }
func (m TotalMetals) Minus(o TotalMetals) TotalMetals { return m - o }
func (m TotalMetals) Total() float64 { return float64(m) }

func (m TotalMetals) Checked(tol float64) (TotalMetals, string, float64, bool) {
	x, ok := checkComponent(float64(m), tol)
	return TotalMetals(x), "", float64(m), ok
}

// ChannelMetals splits the metal mass by the nucleosynthetic channel that
// produced it.
type ChannelMetals struct {
	Type1a, Type2, AGB float64
}

func (m ChannelMetals) Scaled(f float64) ChannelMetals {
	return ChannelMetals{ m.Type1a * f, m.Type2 * f, m.AGB * f }
}

func (m ChannelMetals) Plus(o ChannelMetals) ChannelMetals {
	return ChannelMetals{ m.Type1a + o.Type1a, m.Type2 + o.Type2, m.AGB + o.AGB }
}

func (m ChannelMetals) Minus(o ChannelMetals) ChannelMetals {
	return ChannelMetals{ m.Type1a - o.Type1a, m.Type2 - o.Type2, m.AGB - o.AGB }
}

func (m ChannelMetals) Total() float64 { return m.Type1a + m.Type2 + m.AGB }

func (m ChannelMetals) Checked(tol float64) (ChannelMetals, string, float64, bool) {
	clean := m
	var ok bool
	if clean.Type1a, ok = checkComponent(m.Type1a, tol); !ok {
		return m, "Type1a", m.Type1a, false
	}
	if clean.Type2, ok = checkComponent(m.Type2, tol); !ok {
		return m, "Type2", m.Type2, false
	}
	if clean.AGB, ok = checkComponent(m.AGB, tol); !ok {
		return m, "AGB", m.AGB, false
	}
	return clean, "", 0, true
}

// NumElements is the number of individually tracked chemical species.
const NumElements = 11

// ElementNames gives the species tracked by Elements, in order.
var ElementNames = [NumElements]string{
	"H", "He", "C", "N", "O", "Ne", "Mg", "Si", "S", "Ca", "Fe",
}

// Elements holds the mass of each tracked species in a reservoir. Runs that
// don't track individual elements leave it zeroed.
type Elements [NumElements]float64

func (e Elements) Scaled(f float64) Elements {
	for i := range e { e[i] *= f }
	return e
}

func (e Elements) Plus(o Elements) Elements {
	for i := range e { e[i] += o[i] }
	return e
}

func (e Elements) Minus(o Elements) Elements {
	for i := range e { e[i] -= o[i] }
	return e
}

// Total returns the summed mass of all species heavier than helium.
func (e Elements) Total() float64 {
	sum := 0.0
	for i := 2; i < NumElements; i++ { sum += e[i] }
	return sum
}

func (e Elements) Checked(tol float64) (Elements, string, float64, bool) {
	clean := e
	for i := range e {
		var ok bool
		if clean[i], ok = checkComponent(e[i], tol); !ok {
			return e, ElementNames[i], e[i], false
		}
	}
	return clean, "", 0, true
}
