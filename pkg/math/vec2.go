package math

import "math"

// Vec2 is a 2D vector. Viewport sizes are carried as Vec2 (width, height).
type Vec2 struct {
	X, Y float32
}

// Add returns v + other.
func (v Vec2) Add(other Vec2) Vec2 {
	return Vec2{v.X + other.X, v.Y + other.Y}
}

// Sub returns v - other.
func (v Vec2) Sub(other Vec2) Vec2 {
	return Vec2{v.X - other.X, v.Y - other.Y}
}

// Scale returns v * scalar.
func (v Vec2) Scale(s float32) Vec2 {
	return Vec2{v.X * s, v.Y * s}
}

// Length returns the magnitude.
func (v Vec2) Length() float32 {
	return float32(math.Sqrt(float64(v.X*v.X + v.Y*v.Y)))
}

// Aspect returns X/Y, or 1 when Y is not positive.
func (v Vec2) Aspect() float32 {
	if v.Y <= 0 {
		return 1
	}
	return v.X / v.Y
}
