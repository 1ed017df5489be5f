package strip

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phil-mansfield/gosam/galaxy"
)

func TestTidalRadius(t *testing.T) {
	sv := Solver{PartMass: 0.01}
	assert.InDelta(t, 0.2, sv.TidalRadius(100, 2, 0.4), eps)
	assert.InDelta(t, 0.4, sv.TidalRadius(200, 2, 0.4), eps)
	assert.Equal(t, 0.0, sv.TidalRadius(0, 2, 0.4))
}

func TestRamPressureRadius(t *testing.T) {
	sv := Solver{G: 1}
	// V_orbit = 10, sqrt(1/0.5) sqrt(4/0.5) = 4, sqrt(1/10) = 0.316...
	r := sv.RamPressureRadius(1, 0.5, 4, 0.5, 10, 100, 1, 0.5)
	assert.InDelta(t, 4*math.Sqrt(0.1)*0.5/10, r, eps)
}

// ramGroup is a central with a hot halo and a type 1 satellite half a
// virial radius out.
func ramGroup(t *testing.T) (*Engine[galaxy.TotalMetals], *gal) {
	s := newGroup(2)
	s.Gal[0].HotGas, s.Gal[0].Mvir, s.Gal[0].Rvir = 10, 100, 1
	sat := &s.Gal[1]
	sat.Pos = [3]float32{50.5, 50, 50}
	sat.Len, sat.Mvir, sat.Rvir = 1000, 4, 0.5
	sat.HotGas, sat.HotRadius = 1, 0.5

	e := newEngine(t, s, Gradual)
	e.Solver.G = 1
	return e, sat
}

func TestRetainedHotGasRamPressure(t *testing.T) {
	e, sat := ramGroup(t)
	// R_tidal = 1000 * 0.01 / 4 * 0.5 = 1.25, so ram pressure wins.
	rRam := e.Solver.RamPressureRadius(1, 0.5, 4, 0.5, 10, 100, 1, 0.5)
	require.Less(t, rRam, 0.5)

	retained := e.RetainedHotGas(1, 0)
	assert.InDelta(t, rRam/0.5, retained, 1e-9)
	assert.InDelta(t, rRam, sat.HotRadius, 1e-9)
	assert.Equal(t, 1.0, sat.HotGas, "RetainedHotGas moves no mass")
}

func TestRetainedHotGasProportionalToRadius(t *testing.T) {
	for _, n := range []int{20, 40, 80, 160} {
		e, sat := ramGroup(t)
		e.State.Gal[0].HotGas = 0
		before := sat.HotRadius
		rTidal := e.Solver.TidalRadius(n, sat.Mvir, sat.Rvir)
		sat.Len = n

		retained := e.RetainedHotGas(1, 0)
		assert.InDelta(t, sat.HotGas*rTidal/before, retained, 1e-9, "Len = %d", n)
		assert.LessOrEqual(t, retained, sat.HotGas)
	}
}

func TestRetainedHotGasRamPressureCutoff(t *testing.T) {
	e, sat := ramGroup(t)
	e.Solver.RamPressureCutoff = 1000

	assert.Equal(t, 1.0, e.RetainedHotGas(1, 0))
	assert.Equal(t, 0.5, sat.HotRadius)

	e, sat = ramGroup(t)
	e.State.Gal[0].HotGas = 1e-7
	assert.Equal(t, 1.0, e.RetainedHotGas(1, 0))
	assert.Equal(t, 0.5, sat.HotRadius)
}

func TestRetainedHotGasNoOp(t *testing.T) {
	e, sat := ramGroup(t)
	sat.HotGas = 1e-9
	assert.Equal(t, 1e-9, e.RetainedHotGas(1, 0))
	assert.Equal(t, 0.5, sat.HotRadius)
}

func TestRetainedHotGasRadiusFloor(t *testing.T) {
	// A satellite at the central's position feels unbounded ram pressure and
	// loses everything. Its hot radius falls back to the tidal radius and is
	// then capped at Rvir.
	e, sat := ramGroup(t)
	sat.Pos = e.State.Gal[0].Pos

	assert.Equal(t, 0.0, e.RetainedHotGas(1, 0))
	assert.Equal(t, sat.Rvir, sat.HotRadius)

	e, sat = ramGroup(t)
	sat.Pos = e.State.Gal[0].Pos
	sat.Len = 100
	assert.Equal(t, 0.0, e.RetainedHotGas(1, 0))
	assert.InDelta(t, 0.125, sat.HotRadius, eps)
}

func TestRetainedHotGasNeedsCentralHost(t *testing.T) {
	e, _ := ramGroup(t)
	e.State.Gal[0].Type = galaxy.Satellite

	v := recovered(func() { e.RetainedHotGas(1, 0) })
	err, ok := v.(*StripError)
	require.True(t, ok, "got %v", v)
	assert.Equal(t, 0, err.Central)
	assert.Contains(t, err.Error(), "type 0")
}
