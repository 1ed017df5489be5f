/*package galaxy contains the in-memory galaxy and halo records, the ledger
that moves mass between galaxy reservoirs and the checks that guard it.

The galaxy and halo arrays, the cosmology tables and the run switches all
live in a State value that is passed explicitly.
*/
package galaxy

import (
	"github.com/phil-mansfield/gosam/geom"
)

// Galaxy types.
const (
	// Central is the central galaxy of a FoF group's main halo.
	Central = 0
	// Satellite is the central galaxy of a subhalo.
	Satellite = 1
	// Orphan is a galaxy whose subhalo has been disrupted.
	Orphan = 2
)

// Galaxy is the mutable state of one galaxy. M is the metal payload chosen
// for the run.
type Galaxy[M Payload[M]] struct {
	Type int
	HaloNr int
	SnapNum int
	MostBoundID int64
	// CentralGal is the galaxy this one orbits. It is the galaxy itself for
	// types 0 and 1 unless it has been re-pointed during stripping.
	CentralGal int
	CentralMvir float64

	// Properties of the subhalo the last time this galaxy was a central.
	Len int
	Mvir, Rvir, Vvir float64

	Pos, Vel geom.Vec
	PosNotUpdated, VelNotUpdated geom.Vec
	MergCentralPos geom.Vec

	// HotRadius is the extent of the hot gas halo, in (0, Rvir] whenever
	// HotGas > 0.
	HotRadius float64

	ColdGas, HotGas, EjectedMass float64
	DiskMass, BulgeMass, ICM float64
	BlackHoleMass float64
	BurstMass float64

	MetalsColdGas, MetalsHotGas, MetalsEjectedMass M
	MetalsDiskMass, MetalsBulgeMass, MetalsICM M

	ColdGasElements, HotGasElements, EjectedElements Elements
	DiskElements, BulgeElements, ICMElements Elements

	// Dynamical friction clock.
	MergTime, OriMergTime float64
	OriMvir, OriRvir float64

	// ICLLum is the luminosity of the intracluster light in each band.
	ICLLum []float64
}

// New returns a zeroed galaxy that orbits itself and has room for the
// given number of ICL bands.
func New[M Payload[M]](self, bands int) Galaxy[M] {
	return Galaxy[M]{ CentralGal: self, ICLLum: make([]float64, bands) }
}

// Reservoir identifies one baryonic component of a galaxy.
type Reservoir int

const (
	Cold Reservoir = iota
	Hot
	Ejected
	Disk
	Bulge
	ICM
	BlackHole
	Burst
	EndReservoir
)

// Kind groups reservoirs by which ledger primitive may move them.
type Kind int

const (
	GasKind Kind = iota
	StarKind
	BlackHoleKind
)

var reservoirInfo = [EndReservoir]struct {
	name, field string
	kind Kind
}{
	Cold: {"Cold", "ColdGas", GasKind},
	Hot: {"Hot", "HotGas", GasKind},
	Ejected: {"Ejected", "EjectedMass", GasKind},
	Disk: {"Disk", "DiskMass", StarKind},
	Bulge: {"Bulge", "BulgeMass", StarKind},
	ICM: {"ICM", "ICM", StarKind},
	BlackHole: {"BlackHole", "BlackHoleMass", BlackHoleKind},
	Burst: {"Burst", "BurstMass", StarKind},
}

func (r Reservoir) valid() bool { return r >= 0 && r < EndReservoir }

// String returns the short reservoir name, e.g. "Hot".
func (r Reservoir) String() string {
	if !r.valid() { return "Unknown" }
	return reservoirInfo[r].name
}

// Field returns the name of the Galaxy field holding the reservoir's mass.
func (r Reservoir) Field() string {
	if !r.valid() { return "Unknown" }
	return reservoirInfo[r].field
}

// Kind returns the reservoir's kind.
func (r Reservoir) Kind() Kind { return reservoirInfo[r].kind }

// slot points at the fields backing one reservoir. metals and elements are
// nil for reservoirs without a composition record.
type slot[M Payload[M]] struct {
	mass *float64
	metals *M
	elements *Elements
}

func (g *Galaxy[M]) slot(r Reservoir) slot[M] {
	switch r {
	case Cold:
		return slot[M]{ &g.ColdGas, &g.MetalsColdGas, &g.ColdGasElements }
	case Hot:
		return slot[M]{ &g.HotGas, &g.MetalsHotGas, &g.HotGasElements }
	case Ejected:
		return slot[M]{ &g.EjectedMass, &g.MetalsEjectedMass, &g.EjectedElements }
	case Disk:
		return slot[M]{ &g.DiskMass, &g.MetalsDiskMass, &g.DiskElements }
	case Bulge:
		return slot[M]{ &g.BulgeMass, &g.MetalsBulgeMass, &g.BulgeElements }
	case ICM:
		return slot[M]{ &g.ICM, &g.MetalsICM, &g.ICMElements }
	case BlackHole:
		return slot[M]{ mass: &g.BlackHoleMass }
	case Burst:
		return slot[M]{ mass: &g.BurstMass }
	}
	panic("Unknown reservoir.")
}

// Mass returns the mass in reservoir r.
func (g *Galaxy[M]) Mass(r Reservoir) float64 { return *g.slot(r).mass }

// Metals returns the metal payload of reservoir r. Reservoirs without one
// return the zero payload.
func (g *Galaxy[M]) Metals(r Reservoir) M {
	s := g.slot(r)
	if s.metals == nil {
		var zero M
		return zero
	}
	return *s.metals
}
