// Package geometry holds the 2D vector primitives used by the flock core.
package geometry

import (
	"fmt"
	"math"
)

// Epsilon is the magnitude below which a vector is treated as having no direction.
const Epsilon = 1e-9

// Vector2D is a 2D vector or point in cartesian space.
// Fields are public because they are plain data: v := Vector2D{X: 1, Y: 2}
type Vector2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Zero is the null vector.
var Zero = Vector2D{}

// NewVector creates a new Vector2D.
func NewVector(x, y float64) Vector2D {
	return Vector2D{X: x, Y: y}
}

// NewVectorPolar creates a vector of the given length pointing at theta radians.
func NewVectorPolar(radius, theta float64) Vector2D {
	sin, cos := math.Sincos(theta)
	x := radius * cos
	y := radius * sin

	// cos(Pi/2) is not exactly zero
	if math.Abs(x) < Epsilon {
		x = 0
	}
	if math.Abs(y) < Epsilon {
		y = 0
	}
	return Vector2D{X: x, Y: y}
}

// String implements fmt.Stringer.
func (v Vector2D) String() string {
	return fmt.Sprintf("(%.2f, %.2f)", v.X, v.Y)
}

// ---------------------------------------------------------------------
// Arithmetic
// ---------------------------------------------------------------------

// Add adds two vectors.
func (v Vector2D) Add(other Vector2D) Vector2D {
	return Vector2D{v.X + other.X, v.Y + other.Y}
}

// Sub subtracts other from v.
func (v Vector2D) Sub(other Vector2D) Vector2D {
	return Vector2D{v.X - other.X, v.Y - other.Y}
}

// Mul scales the vector by a scalar value.
func (v Vector2D) Mul(scalar float64) Vector2D {
	return Vector2D{v.X * scalar, v.Y * scalar}
}

// Div scales the vector by 1/scalar. Dividing by zero returns the zero vector
// and false, so callers never see Inf or NaN coordinates.
func (v Vector2D) Div(scalar float64) (Vector2D, bool) {
	if scalar == 0 {
		return Zero, false
	}
	return Vector2D{v.X / scalar, v.Y / scalar}, true
}

// Dot calculates the dot product of two vectors.
func (v Vector2D) Dot(other Vector2D) float64 {
	return v.X*other.X + v.Y*other.Y
}

// Cross calculates the z-component of the 3D cross product.
func (v Vector2D) Cross(other Vector2D) float64 {
	return v.X*other.Y - v.Y*other.X
}

// ---------------------------------------------------------------------
// Magnitude
// ---------------------------------------------------------------------

// LenSqr is the squared magnitude. Prefer it for comparisons.
func (v Vector2D) LenSqr() float64 {
	return v.X*v.X + v.Y*v.Y
}

// Len is the magnitude of the vector.
func (v Vector2D) Len() float64 {
	return math.Hypot(v.X, v.Y)
}

// IsZero reports whether the vector is too short to carry a direction.
func (v Vector2D) IsZero() bool {
	return v.Len() < Epsilon
}

// Normalize returns a unit vector in the same direction,
// or the zero vector when v has no direction.
func (v Vector2D) Normalize() Vector2D {
	l := v.Len()
	if l < Epsilon {
		return Zero
	}
	return v.Mul(1 / l)
}

// WithLen returns a vector of length l pointing like v.
// When v has no direction, fallback is used instead (it is normalized first).
func (v Vector2D) WithLen(l float64, fallback Vector2D) Vector2D {
	dir := v.Normalize()
	if dir == Zero {
		dir = fallback.Normalize()
	}
	return dir.Mul(l)
}

// ClampLen caps the magnitude of v at max, keeping its direction.
// Vectors already within the limit are returned unchanged.
func (v Vector2D) ClampLen(max float64) Vector2D {
	l := v.Len()
	if l <= max || l == 0 {
		return v
	}
	return v.Mul(max / l)
}

// ---------------------------------------------------------------------
// Geometric utilities
// ---------------------------------------------------------------------

// DistanceTo calculates the Euclidean distance to another point.
func (v Vector2D) DistanceTo(other Vector2D) float64 {
	return v.Sub(other).Len()
}

// DistanceSquaredTo calculates the squared Euclidean distance to another point.
func (v Vector2D) DistanceSquaredTo(other Vector2D) float64 {
	return v.Sub(other).LenSqr()
}

// Angle returns the angle of the vector relative to the X-axis, in [-Pi, Pi].
func (v Vector2D) Angle() float64 {
	return math.Atan2(v.Y, v.X)
}

// AngleBetween returns the unsigned angle between v and other, in [0, Pi].
// ok is false when either vector has no direction and the angle is undefined.
func (v Vector2D) AngleBetween(other Vector2D) (angle float64, ok bool) {
	lv, lo := v.Len(), other.Len()
	if lv < Epsilon || lo < Epsilon {
		return 0, false
	}
	// atan2 of |cross| and dot stays accurate near 0 and Pi where acos does not
	return math.Atan2(math.Abs(v.Cross(other)), v.Dot(other)), true
}

// Rotate rotates the vector by angle radians around the origin.
func (v Vector2D) Rotate(angle float64) Vector2D {
	sin, cos := math.Sincos(angle)
	return Vector2D{
		X: v.X*cos - v.Y*sin,
		Y: v.X*sin + v.Y*cos,
	}
}

// Lerp interpolates between v and target, t in [0, 1].
func (v Vector2D) Lerp(target Vector2D, t float64) Vector2D {
	return v.Add(target.Sub(v).Mul(t))
}

// IsFinite reports whether both coordinates are neither NaN nor Inf.
func (v Vector2D) IsFinite() bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}

// Eq checks approximate equality using Epsilon.
func (v Vector2D) Eq(other Vector2D) bool {
	return math.Abs(v.X-other.X) <= Epsilon && math.Abs(v.Y-other.Y) <= Epsilon
}

// ---------------------------------------------------------------------
// Toroidal wrap
// ---------------------------------------------------------------------

// Wrap maps value into [-size/2, size/2) on a ring of circumference size.
// Any displacement is handled, not only a single crossing.
func Wrap(value, size float64) float64 {
	half := size / 2
	r := math.Mod(value+half, size)
	if r < 0 {
		r += size
	}
	// r+size can round up to exactly size for tiny negative r
	if r >= size {
		r = 0
	}
	out := r - half
	if out >= half {
		out = -half
	}
	return out
}

// WrapIn wraps a point into the rectangle of the given extents centered at the origin.
func (v Vector2D) WrapIn(width, height float64) Vector2D {
	return Vector2D{X: Wrap(v.X, width), Y: Wrap(v.Y, height)}
}
