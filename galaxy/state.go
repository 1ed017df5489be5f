package galaxy

import (
	"github.com/phil-mansfield/gosam/cosmo"
	"github.com/phil-mansfield/gosam/stats"
)

// DefaultTolerance is the largest negative mass, in internal units, that is
// treated as rounding noise rather than a bug.
const DefaultTolerance = 1e-7

// Params are the run switches that the ledger and checks depend on.
type Params struct {
	// ICL enables transfer of intracluster-light photometry.
	ICL bool
	// Bands is the number of photometric bands in Galaxy.ICLLum.
	Bands int
	Tolerance float64
}

// DefaultParams returns Params with ICL photometry disabled.
func DefaultParams() Params {
	return Params{ Tolerance: DefaultTolerance }
}

// State is everything the stripping engine and orphan resolver work on:
// the galaxies of the FoF group being evolved, the halos of the current tree
// and the cosmology. Galaxy and halo indices passed to State methods index
// Gal and Halo.
type State[M Payload[M]] struct {
	Gal []Galaxy[M]
	Halo []Halo
	Cosmo *cosmo.Cosmology
	Params Params
	// Stats may be nil.
	Stats *stats.Recorder
}

// Separation returns the comoving distance between galaxies p and q.
func (s *State[M]) Separation(p, q int) float64 {
	return s.Gal[p].Pos.PeriodicDistance(&s.Gal[q].Pos, s.Cosmo.BoxSize)
}

// Redshift returns the redshift of the snapshot of galaxy g's halo.
func (s *State[M]) Redshift(g int) float64 {
	return s.Cosmo.ZZ[s.Halo[s.Gal[g].HaloNr].SnapNum]
}

// PhysicalSeparation is the distance between central and g converted to
// physical units at the redshift of central's halo.
func (s *State[M]) PhysicalSeparation(central, g int) float64 {
	return s.Separation(central, g) / (1 + s.Redshift(central))
}
