/*package strip moves the hot gas, ejected gas and intracluster stars of
satellite galaxies onto the galaxies they orbit.

Two models are supported. Under the gradual model, type 1 satellites inside
the virial radius of their group's central lose gas beyond their tidal or
ram-pressure radius, whichever is smaller, and type 2 satellites give up
everything they still hold, split between the galaxy they orbit and the
central. Under the instantaneous model every satellite inside the virial
radius loses everything to the central at once.
*/
package strip

import (
	"fmt"
	"math"

	"github.com/phil-mansfield/gosam/galaxy"
)

// Model selects how satellites lose their gas.
type Model int

const (
	// Gradual stripping of type 1 satellites by tides and ram pressure.
	Gradual Model = iota
	// Instantaneous removal of all gas inside the central's virial radius.
	Instantaneous
	EndModel
)

func (m Model) String() string {
	switch m {
	case Gradual:
		return "Gradual"
	case Instantaneous:
		return "Instantaneous"
	}
	return fmt.Sprintf("Model(%d)", int(m))
}

// StripError is the panic value raised when stripping arithmetic goes wrong.
// It always indicates a bug upstream of this package.
type StripError struct {
	Galaxy, Central int
	Retained, HotGas float64
	Reason string
}

func (e *StripError) Error() string {
	return fmt.Sprintf(
		"stripping galaxy %d onto %d (retained = %g, HotGas = %g): %s",
		e.Galaxy, e.Central, e.Retained, e.HotGas, e.Reason,
	)
}

// Engine strips the satellites of one FoF group at a time.
type Engine[M galaxy.Payload[M]] struct {
	State *galaxy.State[M]
	Model Model
	// TrackBurst moves the burst-formed share of the ICM along with it.
	TrackBurst bool
	Solver Solver
}

// New returns an Engine for the given model.
func New[M galaxy.Payload[M]](
	s *galaxy.State[M], model Model, trackBurst bool, solver Solver,
) (*Engine[M], error) {
	if model < 0 || model >= EndModel {
		return nil, fmt.Errorf(
			"Unrecognized HotGasStripingModel %d. Must be 0 or 1.", int(model),
		)
	}
	return &Engine[M]{
		State: s, Model: model, TrackBurst: trackBurst, Solver: solver,
	}, nil
}

// DealWithSatellites visits the ngal galaxies of the FoF group whose type 0
// galaxy is central and moves satellite gas and ICM onto their hosts. The
// galaxies of the group must occupy State.Gal[0:ngal].
func (e *Engine[M]) DealWithSatellites(central, ngal int) {
	s := e.State
	s.CheckCentrals("satellites: group", ngal)

	for i := 0; i < ngal; i++ {
		host := s.Gal[i].CentralGal

		s.MassChecks("satellites: top, galaxy", i)
		s.MassChecks("satellites: top, central", central)
		s.MassChecks("satellites: top, host", host)

		// Separation of the galaxy being orbited from the group central.
		dis := s.PhysicalSeparation(central, host)

		switch e.Model {
		case Gradual:
			e.gradual(i, host, central, dis)
		case Instantaneous:
			e.instantaneous(i, host, central, dis)
		}

		s.MassChecks("satellites: bottom, galaxy", i)
		s.MassChecks("satellites: bottom, central", central)
	}
}

func (e *Engine[M]) gradual(i, host, central int, dis float64) {
	s := e.State
	g := &s.Gal[i]

	switch {
	case g.Type == galaxy.Orphan:
		toHost := 1.0
		if dis < s.Gal[central].Rvir {
			toHost = s.Gal[host].HotRadius / s.Gal[host].Rvir
		}

		g.HotRadius = 0
		e.moveAll(host, i, toHost, "gradual: orphan to host")
		s.MassChecks("gradual: orphan to host, galaxy", i)
		s.MassChecks("gradual: orphan to host, host", host)

		if toHost < 1 {
			e.moveAll(central, i, 1, "gradual: orphan to central")
			s.MassChecks("gradual: orphan to central, galaxy", i)
			s.MassChecks("gradual: orphan to central, central", central)
		}
		s.Stats.Stripping(int(e.Model), g.Type)

	case g.Type == galaxy.Satellite && dis < s.Gal[central].Rvir && g.HotGas > 0:
		hotGas := g.HotGas
		retained := e.RetainedHotGas(i, central)
		stripped := 1 - retained/hotGas
		if stripped < 0 || math.IsNaN(stripped) {
			panic(&StripError{
				Galaxy: i, Central: central, Retained: retained, HotGas: hotGas,
				Reason: "retained hot gas larger than HotGas",
			})
		}

		e.moveAll(central, i, stripped, "gradual: satellite")
		s.MassChecks("gradual: satellite, galaxy", i)
		s.MassChecks("gradual: satellite, central", central)
		s.Stats.StrippedFraction(stripped)
		if stripped > 0 { s.Stats.Stripping(int(e.Model), g.Type) }
	}
	// Type 1 galaxies outside the central's virial radius keep everything.

	s.MassChecks("gradual: end, galaxy", i)
	s.MassChecks("gradual: end, central", central)
}

func (e *Engine[M]) instantaneous(i, host, central int, dis float64) {
	s := e.State
	g := &s.Gal[i]

	if dis < s.Gal[central].Rvir && i != central {
		e.moveAll(central, i, 1, "instantaneous: inside Rvir")
		g.HotRadius = 0
		s.Stats.Stripping(int(e.Model), g.Type)
	} else if g.Type == galaxy.Orphan {
		e.moveAll(host, i, 1, "instantaneous: orphan outside Rvir")
		g.HotRadius = 0
		s.Stats.Stripping(int(e.Model), g.Type)
	}
}

// moveAll moves fraction f of the hot gas, ejected gas and ICM of galaxy src
// to galaxy dst. Burst-formed ICM goes first, since its share is computed
// from the ICM that is still in place.
func (e *Engine[M]) moveAll(dst, src int, f float64, caller string) {
	s := e.State
	g := &s.Gal[src]

	if g.HotGas > 0 {
		s.TransferGas(dst, galaxy.Hot, src, galaxy.Hot, f, caller)
	}
	if g.EjectedMass > 0 {
		s.TransferGas(dst, galaxy.Ejected, src, galaxy.Ejected, f, caller)
	}

	if e.TrackBurst {
		s.TransferStars(dst, galaxy.Burst, src, galaxy.Burst, f*e.icmShare(src))
	}
	s.TransferStars(dst, galaxy.ICM, src, galaxy.ICM, f)
	s.TransferICL(dst, src, f)
}

// icmShare is the fraction of galaxy g's stars that are in the ICM.
func (e *Engine[M]) icmShare(g int) float64 {
	gal := &e.State.Gal[g]
	total := gal.DiskMass + gal.BulgeMass + gal.ICM
	if total <= 0 { return 0 }
	return gal.ICM / total
}
