/*package cosmo holds the per-snapshot cosmology tables and the unit system
that the stripping and orphan-tracking code read from.

Nothing here is computed from cosmological parameters: the redshift of each
snapshot is read from a table written by whatever produced the merger trees,
and the scalings between the original and the rescaled cosmology are given
directly.
*/
package cosmo

import (
	"fmt"
	"math"

	"github.com/phil-mansfield/table"
)

const (
	// GRAVITY is Newton's constant in cgs units.
	GRAVITY = 6.672e-8
)

// Units describes the internal unit system. Masses are UnitMassInG grams,
// lengths UnitLengthInCm centimeters and velocities UnitVelocityInCmPerS
// cm/s. The defaults correspond to 10^10 Msun/h, Mpc/h and km/s.
type Units struct {
	LengthInCm, MassInG, VelocityInCmPerS float64

	TimeInS float64
	// G is Newton's constant in internal units.
	G float64
}

// NewUnits derives the time unit and G from the three base units.
func NewUnits(lengthInCm, massInG, velocityInCmPerS float64) *Units {
	u := &Units{
		LengthInCm: lengthInCm,
		MassInG: massInG,
		VelocityInCmPerS: velocityInCmPerS,
	}
	u.TimeInS = u.LengthInCm / u.VelocityInCmPerS
	u.G = GRAVITY / (u.LengthInCm*u.LengthInCm*u.LengthInCm) *
		u.MassInG * u.TimeInS * u.TimeInS
	return u
}

// Cosmology bundles the snapshot tables with the box and scaling constants.
// ZZ, AA and AAOriginal are indexed by snapshot number.
type Cosmology struct {
	ZZ, AA, AAOriginal []float64

	// ScalePos and ScaleMass rescale positions and masses from the cosmology
	// the simulation was run in to the one being modelled. Both are 1 for an
	// unscaled run.
	ScalePos, ScaleMass float64
	BoxSize float64
	// PartMass is the mass of one simulation particle, in internal units.
	PartMass float64

	Units
}

// New returns a Cosmology with the given redshift and original-cosmology
// scale factor tables. The two tables must have the same length.
func New(zz, aaOriginal []float64, units *Units) (*Cosmology, error) {
	if len(zz) != len(aaOriginal) {
		return nil, fmt.Errorf(
			"Redshift table has %d snapshots, but scale factor table has %d.",
			len(zz), len(aaOriginal),
		)
	} else if len(zz) == 0 {
		return nil, fmt.Errorf("Snapshot table is empty.")
	}

	c := &Cosmology{ ScalePos: 1, ScaleMass: 1, Units: *units }
	c.ZZ = zz
	c.AAOriginal = aaOriginal
	c.AA = make([]float64, len(zz))
	for i, z := range zz {
		if z < 0 || math.IsNaN(z) {
			return nil, fmt.Errorf("Snapshot %d has invalid redshift %g.", i, z)
		} else if !(aaOriginal[i] > 0) {
			return nil, fmt.Errorf(
				"Snapshot %d has invalid original scale factor %g.",
				i, aaOriginal[i],
			)
		}
		c.AA[i] = 1 / (1 + z)
	}

	return c, nil
}

// Snapshots returns the number of snapshots in the tables.
func (c *Cosmology) Snapshots() int { return len(c.ZZ) }

// ValidSnap returns true if snap indexes the snapshot tables.
func (c *Cosmology) ValidSnap(snap int) bool {
	return snap >= 0 && snap < len(c.ZZ)
}

// ScaleVCen returns the factor by which velocities of central galaxies have
// been rescaled when moving from the original to the modelled cosmology at
// the given snapshot.
func (c *Cosmology) ScaleVCen(snap int) float64 {
	return math.Sqrt(c.ScaleMass/c.ScalePos) *
		math.Sqrt(c.AAOriginal[snap]/c.AA[snap])
}

// ReadSnapshotTable reads a whitespace-separated table whose columns are
// snapshot number, redshift and original-cosmology scale factor. Rows must be
// ordered by snapshot number starting from zero.
func ReadSnapshotTable(fname string) (zz, aaOriginal []float64, err error) {
	cols, err := table.ReadTable(fname, []int{0, 1, 2}, nil)
	if err != nil { return nil, nil, err }

	snaps := cols[0]
	for i, snap := range snaps {
		if int(snap) != i {
			return nil, nil, fmt.Errorf(
				"Row %d of snapshot table %s has snapshot number %g. " +
					"Rows must be ordered by snapshot, starting from 0.",
				i, fname, snap,
			)
		}
	}

	return cols[1], cols[2], nil
}
