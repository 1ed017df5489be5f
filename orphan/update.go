package orphan

import (
	"errors"
	"fmt"
	"math"

	"github.com/phil-mansfield/gosam/galaxy"
	"github.com/phil-mansfield/gosam/geom"
	"github.com/phil-mansfield/gosam/stats"
)

// Decay selects how an orphan's distance from the merger centre shrinks as
// its dynamical friction clock runs down.
type Decay int

const (
	// SqrtDecay scales distances by sqrt(MergTime / OriMergTime).
	SqrtDecay Decay = iota
	// LinearDecay scales distances by MergTime / OriMergTime.
	LinearDecay
)

// ParseDecay converts the OrphanDecay config value into a Decay.
func ParseDecay(s string) (Decay, error) {
	switch s {
	case "sqrt":
		return SqrtDecay, nil
	case "linear":
		return LinearDecay, nil
	}
	return 0, fmt.Errorf(
		"Unrecognized OrphanDecay '%s'. Must be 'sqrt' or 'linear'.", s,
	)
}

func (d Decay) String() string {
	switch d {
	case SqrtDecay:
		return "sqrt"
	case LinearDecay:
		return "linear"
	}
	return fmt.Sprintf("Decay(%d)", int(d))
}

// Ratio returns the factor by which the orphan's offset from the merger
// centre is multiplied. It is 1 when oriMergTime is not positive. Once the
// merger clock has run out (mergTime < 0) it is 0 for both decays, so the
// orphan sits on the merger centre rather than being reflected through it
// by a negative linear ratio.
func (d Decay) Ratio(mergTime, oriMergTime float64) float64 {
	if oriMergTime <= 0 { return 1 }
	if mergTime < 0 { return 0 }

	r := mergTime / oriMergTime
	if d == SqrtDecay { return math.Sqrt(r) }
	return r
}

// Updater moves the orphans of one tree to the current position of their
// tracked particle.
type Updater[M galaxy.Payload[M]] struct {
	State *galaxy.State[M]
	Aux *Aux
	// TreeFirstHalo is the index within the file of each tree's first halo.
	TreeFirstHalo []int
	Decay Decay
}

// UpdateTypeTwo sets the position and velocity of galaxy g from the aux
// data if it is an orphan, and does nothing otherwise. central is the
// galaxy whose velocity g's is measured relative to. A failed lookup panics
// with a *LookupError.
func (u *Updater[M]) UpdateTypeTwo(tree, g, central int) {
	s := u.State
	gal := &s.Gal[g]
	if gal.Type != galaxy.Orphan { return }

	c := s.Cosmo
	pos, vel, err := u.Aux.Find(
		tree, u.TreeFirstHalo[tree], gal.HaloNr, gal.SnapNum,
		gal.MostBoundID, c.AA[gal.SnapNum],
	)
	s.Stats.Lookup(LookupResult(err))
	if err != nil { panic(err) }

	pos.Scale(c.ScalePos)
	ratio := u.Decay.Ratio(gal.MergTime, gal.OriMergTime)
	for k := 0; k < 3; k++ {
		cen := float64(gal.MergCentralPos[k])
		dx := geom.Wrap(float64(pos[k]) - cen, c.BoxSize) * ratio
		gal.Pos[k] = float32(geom.WrapPosition(cen + dx, c.BoxSize))
	}

	snap := s.Halo[s.Gal[central].HaloNr].SnapNum
	scaleV := c.ScaleVCen(snap)
	velCen := s.Gal[central].Vel
	for k := 0; k < 3; k++ {
		dv := float64(vel[k]) - float64(velCen[k]) / scaleV
		dv *= math.Sqrt(c.ScaleMass/c.ScalePos) *
			math.Sqrt(c.AAOriginal[snap]/c.AA[snap])
		gal.Vel[k] = float32(float64(velCen[k]) + dv)
	}
}

// LookupResult names the outcome of a Find call for stats.Recorder.Lookup.
func LookupResult(err error) string {
	switch {
	case err == nil:
		return stats.LookupFound
	case errors.Is(err, ErrMissingSnapshot):
		return stats.LookupMissingSnapshot
	}
	return stats.LookupMissingID
}
