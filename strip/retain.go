package strip

import (
	"math"

	"github.com/phil-mansfield/gosam/cosmo"
	"github.com/phil-mansfield/gosam/galaxy"
)

const (
	// Hosts with less hot gas than this exert no ram pressure.
	minHostHotGas = 1e-6
	// Satellites with less hot gas than this are not stripped, and hot radii
	// below this are replaced by the tidal radius.
	minHotGas = 1e-8
	minHotRadius = 1e-8
)

// Solver holds the constants needed to find the radius beyond which a
// satellite's hot gas is removed by tides and ram pressure.
type Solver struct {
	PartMass float64
	G float64
	// Hosts with Mvir below RamPressureCutoff exert no ram pressure.
	RamPressureCutoff float64
}

// NewSolver takes the particle mass and G from the run's cosmology.
func NewSolver(c *cosmo.Cosmology, ramPressureCutoff float64) Solver {
	return Solver{
		PartMass: c.PartMass, G: c.G, RamPressureCutoff: ramPressureCutoff,
	}
}

// TidalRadius is the radius at which a satellite's hot gas is tidally
// truncated. Gas is assumed to be lost at the same rate as dark matter, and
// for an r^-2 profile the enclosed mass is proportional to r, so the radius
// shrinks by the fraction of the infall mass still bound.
func (sv *Solver) TidalRadius(n int, mvir, rvir float64) float64 {
	return float64(n) * sv.PartMass / mvir * rvir
}

// RamPressureRadius is the radius at which the ram pressure of the host's
// hot gas equals the satellite's self-gravity:
//
//     rho_sat(R) V_sat^2 = rho_host(R_orbit) V_orbit^2
//
// with both hot gas profiles isothermal and V_orbit the host's circular
// velocity.
func (sv *Solver) RamPressureRadius(
	satHot, satHotRadius, satMvir, satRvir float64,
	hostHot, hostMvir, hostRvir, rOrbit float64,
) float64 {
	vOrbit := math.Sqrt(sv.G * hostMvir / hostRvir)
	return math.Sqrt(satHot/satHotRadius) *
		math.Sqrt(sv.G*satMvir/satRvir) *
		math.Sqrt(hostRvir/hostHot) * rOrbit / vOrbit
}

// RetainedHotGas returns the mass of hot gas that type 1 galaxy sat keeps
// while orbiting the type 0 galaxy central, and shrinks its HotRadius to the
// stripping radius if gas is lost. It panics with a *StripError if central
// is not a type 0 galaxy.
func (e *Engine[M]) RetainedHotGas(sat, central int) float64 {
	s := e.State
	host, g := &s.Gal[central], &s.Gal[sat]
	if host.Type != galaxy.Central {
		panic(&StripError{
			Galaxy: sat, Central: central,
			Reason: "stripping host is not a type 0 galaxy",
		})
	}

	rTidal := e.Solver.TidalRadius(g.Len, g.Mvir, g.Rvir)
	rOrbit := s.PhysicalSeparation(central, sat)

	rRam := g.HotRadius
	if host.HotGas >= minHostHotGas && host.Mvir >= e.Solver.RamPressureCutoff {
		rRam = e.Solver.RamPressureRadius(
			g.HotGas, g.HotRadius, g.Mvir, g.Rvir,
			host.HotGas, host.Mvir, host.Rvir, rOrbit,
		)
	}

	rStrip := math.Min(rTidal, rRam)

	if rStrip > g.HotRadius || g.HotGas < minHotGas {
		return g.HotGas
	}

	// M_hot(r) is proportional to r.
	retained := g.HotGas * rStrip / g.HotRadius
	g.HotRadius = rStrip
	if g.HotRadius < minHotRadius {
		g.HotRadius = rTidal
	}
	if g.HotRadius > g.Rvir {
		g.HotRadius = g.Rvir
	}

	if retained > g.HotGas { retained = g.HotGas }
	return retained
}
