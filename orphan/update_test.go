package orphan

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phil-mansfield/gosam/cosmo"
	"github.com/phil-mansfield/gosam/galaxy"
	"github.com/phil-mansfield/gosam/geom"
	"github.com/phil-mansfield/gosam/stats"
)

const eps = 1e-5

func lookups(t *testing.T, r *stats.Recorder, result string) float64 {
	mfs, err := r.Registry().Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() != "gosam_orphan_lookups_total" { continue }
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "result" && l.GetValue() == result {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

// testUpdater has a central (galaxy 0) and an orphan (galaxy 1) tracking
// ID 30 of halo 0 at snapshot 1, which sits at (0, 0, 3).
func testUpdater(t *testing.T) *Updater[galaxy.TotalMetals] {
	c, err := cosmo.New(
		[]float64{1, 0}, []float64{0.5, 1},
		cosmo.NewUnits(3.08568e24, 1.989e43, 1e5),
	)
	require.NoError(t, err)
	c.BoxSize = 100

	s := &galaxy.State[galaxy.TotalMetals]{
		Gal: []galaxy.Galaxy[galaxy.TotalMetals]{
			galaxy.New[galaxy.TotalMetals](0, 0),
			galaxy.New[galaxy.TotalMetals](1, 0),
		},
		Halo: []galaxy.Halo{{SnapNum: 1}},
		Cosmo: c,
		Params: galaxy.DefaultParams(),
		Stats: stats.NewRecorder(),
	}

	orphan := &s.Gal[1]
	orphan.Type, orphan.CentralGal = galaxy.Orphan, 0
	orphan.SnapNum, orphan.MostBoundID = 1, 30
	orphan.MergCentralPos = geom.Vec{0, 0, 2}
	orphan.MergTime, orphan.OriMergTime = 1, 4

	return &Updater[galaxy.TotalMetals]{
		State: s, Aux: testAux(), TreeFirstHalo: []int{0}, Decay: SqrtDecay,
	}
}

func TestUpdateTypeTwoPosition(t *testing.T) {
	u := testUpdater(t)
	u.UpdateTypeTwo(0, 1, 0)
	assert.InDelta(t, 2.5, u.State.Gal[1].Pos[2], eps)

	u = testUpdater(t)
	u.Decay = LinearDecay
	u.UpdateTypeTwo(0, 1, 0)
	assert.InDelta(t, 2.25, u.State.Gal[1].Pos[2], eps)

	u = testUpdater(t)
	u.State.Gal[1].MergTime = -1
	u.UpdateTypeTwo(0, 1, 0)
	assert.Equal(t, geom.Vec{0, 0, 2}, u.State.Gal[1].Pos)
	assert.Equal(t, 1.0, lookups(t, u.State.Stats, stats.LookupFound))
}

func TestUpdateTypeTwoWrapsPeriodically(t *testing.T) {
	// The tracked particle at x = 0 is 1 Mpc/h from a merger centre at
	// x = 99 through the box edge.
	u := testUpdater(t)
	u.State.Gal[1].MergCentralPos = geom.Vec{99, 0, 3}
	u.UpdateTypeTwo(0, 1, 0)
	assert.InDelta(t, 99.5, u.State.Gal[1].Pos[0], eps)
	assert.InDelta(t, 3, u.State.Gal[1].Pos[2], eps)

	u = testUpdater(t)
	u.State.Gal[1].MergCentralPos = geom.Vec{99.5, 0, 3}
	u.State.Gal[1].OriMergTime = 0
	u.UpdateTypeTwo(0, 1, 0)
	pos := u.State.Gal[1].Pos
	assert.True(t, pos[0] >= 0 && pos[0] <= 100, "x = %g", pos[0])
}

func TestUpdateTypeTwoVelocity(t *testing.T) {
	u := testUpdater(t)
	u.State.Cosmo.ScaleMass = 4
	u.State.Gal[0].Vel = geom.Vec{1, 1, 1}
	u.UpdateTypeTwo(0, 1, 0)

	// ScaleV = 2: dv = ((3, 0, 0) - (1, 1, 1)/2) * 2.
	assert.InDelta(t, 6, u.State.Gal[1].Vel[0], eps)
	assert.InDelta(t, 0, u.State.Gal[1].Vel[1], eps)
	assert.InDelta(t, 0, u.State.Gal[1].Vel[2], eps)
}

func TestUpdateTypeTwoScalePos(t *testing.T) {
	u := testUpdater(t)
	u.State.Cosmo.ScalePos = 2
	u.State.Gal[1].OriMergTime = 0
	u.UpdateTypeTwo(0, 1, 0)
	assert.InDelta(t, 6, u.State.Gal[1].Pos[2], eps)
}

func TestUpdateTypeTwoSkipsOtherTypes(t *testing.T) {
	u := testUpdater(t)
	u.State.Gal[1].Type = galaxy.Satellite
	u.State.Gal[1].CentralGal = 1
	u.State.Gal[1].Pos = geom.Vec{7, 7, 7}
	u.UpdateTypeTwo(0, 1, 0)
	assert.Equal(t, geom.Vec{7, 7, 7}, u.State.Gal[1].Pos)
}

func TestUpdateTypeTwoFailures(t *testing.T) {
	tests := []struct {
		id int64
		err error
		result string
	}{
		{25, ErrIDNotFound, stats.LookupMissingID},
		{50, ErrMissingSnapshot, stats.LookupMissingSnapshot},
	}

	for _, test := range tests {
		u := testUpdater(t)
		u.State.Gal[1].MostBoundID = test.id
		if test.id == 50 { u.State.Gal[1].HaloNr = 2 }

		var v interface{}
		func() {
			defer func() { v = recover() }()
			u.UpdateTypeTwo(0, 1, 0)
		}()

		err, ok := v.(error)
		require.True(t, ok, "ID %d: got %v", test.id, v)
		assert.True(t, errors.Is(err, test.err), "ID %d: got %v", test.id, err)
		assert.Equal(t, geom.Vec{}, u.State.Gal[1].Pos, "ID %d", test.id)
		assert.Equal(t, 1.0, lookups(t, u.State.Stats, test.result), "ID %d", test.id)
		assert.Equal(t, 0.0, lookups(t, u.State.Stats, stats.LookupFound), "ID %d", test.id)
	}
}
