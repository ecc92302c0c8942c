// Package core provides fundamental types shared by the stage simulator.
// It has no external dependencies to keep simulation logic pure and testable.
package core

import "math"

// Vec2 is a point or displacement in stage space (pixels).
type Vec2 struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
}

// V is shorthand for constructing a Vec2.
func V(x, y float64) Vec2 {
	return Vec2{X: x, Y: y}
}

// Add returns v + o.
func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{X: v.X + o.X, Y: v.Y + o.Y}
}

// Sub returns v - o.
func (v Vec2) Sub(o Vec2) Vec2 {
	return Vec2{X: v.X - o.X, Y: v.Y - o.Y}
}

// Scale returns v * k.
func (v Vec2) Scale(k float64) Vec2 {
	return Vec2{X: v.X * k, Y: v.Y * k}
}

// Len returns the Euclidean length of v.
func (v Vec2) Len() float64 {
	return math.Hypot(v.X, v.Y)
}

// Dist returns the distance between v and o.
func (v Vec2) Dist(o Vec2) float64 {
	return v.Sub(o).Len()
}

// Size is a width/height pair in pixels.
type Size struct {
	W float64 `yaml:"w" json:"w"`
	H float64 `yaml:"h" json:"h"`
}

// Half returns the center offset of a box of this size.
func (s Size) Half() Vec2 {
	return Vec2{X: s.W / 2, Y: s.H / 2}
}

// Circle is a hit circle in stage space.
type Circle struct {
	Center Vec2
	Radius float64
}

// Intersects reports whether the circles overlap.
// Touching circles (distance exactly equal to the radius sum) do not.
func (c Circle) Intersects(other Circle) bool {
	return c.Center.Dist(other.Center) < c.Radius+other.Radius
}

// ClampF restricts a float64 value to be within [min, max].
func ClampF(val, min, max float64) float64 {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// Clamp restricts a value to be within [min, max].
func Clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
