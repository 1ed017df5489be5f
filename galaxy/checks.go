package galaxy

import (
	"fmt"
	"math"
)

// InvariantError is the panic value raised when a galaxy is found in a state
// that no correct sequence of ledger calls can produce.
type InvariantError struct {
	Label string
	Galaxy int
	Field string
	Value float64
	Reason string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf(
		"%s: galaxy %d has %s = %g (%s)",
		e.Label, e.Galaxy, e.Field, e.Value, e.Reason,
	)
}

// MassChecks verifies that every reservoir of galaxy g, together with its
// metal and element records, is finite and non-negative. Values that are
// negative by less than Params.Tolerance are reset to zero. label names the
// call site and ends up in the panic value.
func (s *State[M]) MassChecks(label string, g int) {
	gal := &s.Gal[g]
	tol := s.Params.Tolerance

	fail := func(field string, value float64) {
		reason := "negative"
		if math.IsNaN(value) || math.IsInf(value, 0) { reason = "not finite" }
		panic(&InvariantError{
			Label: label, Galaxy: g, Field: field, Value: value, Reason: reason,
		})
	}

	for r := Reservoir(0); r < EndReservoir; r++ {
		sl := gal.slot(r)

		x, ok := checkComponent(*sl.mass, tol)
		if !ok { fail(r.Field(), *sl.mass) }
		*sl.mass = x

		if sl.metals == nil { continue }

		m, field, value, ok := (*sl.metals).Checked(tol)
		if !ok { fail(joinField("Metals" + r.Field(), field), value) }
		*sl.metals = m

		e, field, value, ok := sl.elements.Checked(tol)
		if !ok { fail(joinField(r.Field() + "Elements", field), value) }
		*sl.elements = e
	}

	if math.IsNaN(gal.HotRadius) || math.IsInf(gal.HotRadius, 0) ||
		gal.HotRadius < 0 {
		fail("HotRadius", gal.HotRadius)
	}
}

func joinField(base, component string) string {
	if component == "" { return base }
	return base + "." + component
}

// CheckCentrals verifies the CentralGal links of the first ngal galaxies:
// centrals orbit themselves, satellites orbit themselves or the group's
// central, and orphans orbit a central or satellite of the group.
func (s *State[M]) CheckCentrals(label string, ngal int) {
	fail := func(g int, reason string) {
		panic(&InvariantError{
			Label: label, Galaxy: g, Field: "CentralGal",
			Value: float64(s.Gal[g].CentralGal), Reason: reason,
		})
	}

	for g := 0; g < ngal; g++ {
		c := s.Gal[g].CentralGal
		if c < 0 || c >= ngal {
			fail(g, "outside of the FoF group")
		}

		switch s.Gal[g].Type {
		case Central:
			if c != g { fail(g, "central galaxy does not orbit itself") }
		case Satellite:
			if c != g && s.Gal[c].Type != Central {
				fail(g, "satellite orbits a non-central galaxy")
			}
		case Orphan:
			if t := s.Gal[c].Type; t != Central && t != Satellite {
				fail(g, "orphan orbits another orphan")
			}
		default:
			panic(&InvariantError{
				Label: label, Galaxy: g, Field: "Type",
				Value: float64(s.Gal[g].Type), Reason: "unknown galaxy type",
			})
		}
	}
}
