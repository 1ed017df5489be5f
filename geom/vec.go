/*package geom contains the vector type used for galaxy and particle
coordinates and the periodic-box arithmetic that goes with it.
*/
package geom

import (
	"math"
)

// Vec is a three dimensional vector. Positions are comoving Mpc/h and
// velocities km/s.
type Vec [3]float32

// Wrap returns the minimum-image version of the displacement dx within a
// periodic box of width box, i.e. a value in [-box/2, box/2].
func Wrap(dx, box float64) float64 {
	if dx > 0.5*box {
		return dx - box
	} else if dx < -0.5*box {
		return dx + box
	}
	return dx
}

// WrapPosition maps a coordinate that has drifted at most one box width
// outside of [0, box] back inside it.
func WrapPosition(x, box float64) float64 {
	if x < 0 {
		return x + box
	} else if x > box {
		return x - box
	}
	return x
}

// PeriodicDistance returns the minimum-image distance between v1 and v2 in
// a periodic box of width box.
func (v1 *Vec) PeriodicDistance(v2 *Vec, box float64) float64 {
	sum := 0.0
	for i := 0; i < 3; i++ {
		dx := Wrap(float64(v1[i]) - float64(v2[i]), box)
		sum += dx*dx
	}
	return math.Sqrt(sum)
}

// Scale multiplies every component of v by s in place.
func (v *Vec) Scale(s float64) {
	for i := 0; i < 3; i++ {
		v[i] = float32(float64(v[i]) * s)
	}
}

// IsZero returns true if all three components are exactly zero.
func (v *Vec) IsZero() bool {
	return v[0] == 0 && v[1] == 0 && v[2] == 0
}
