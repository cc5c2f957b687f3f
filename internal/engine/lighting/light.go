// Package lighting describes scene lights and packs them for the renderer.
package lighting

import (
	gomath "math"

	"github.com/Faultbox/trellis/pkg/math"
)

// Kind selects the light model.
type Kind int

const (
	Directional Kind = iota
	Point
	Spot
)

func (k Kind) String() string {
	switch k {
	case Directional:
		return "directional"
	case Point:
		return "point"
	case Spot:
		return "spot"
	}
	return "unknown"
}

// Light is a light component attached to a scene node. Position and world
// direction come from the node's world transform.
type Light struct {
	Kind Kind

	Ambient  [4]float32
	Diffuse  [4]float32
	Specular [4]float32

	// Attenuation = 1 / (Constant + Linear*d + Quadratic*d^2). Point and spot only.
	Constant  float32
	Linear    float32
	Quadratic float32

	SpotCutoff   float32 // half-angle in degrees
	SpotExponent float32

	// Direction the light shines in, in the node's local space.
	Direction math.Vec3

	Enabled      bool
	CastsShadows bool
}

func base(kind Kind) *Light {
	return &Light{
		Kind:      kind,
		Ambient:   [4]float32{0, 0, 0, 1},
		Diffuse:   [4]float32{1, 1, 1, 1},
		Specular:  [4]float32{1, 1, 1, 1},
		Constant:  1,
		Direction: math.Vec3{Z: -1},
		Enabled:   true,
	}
}

// NewDirectional returns a white light shining along dir.
func NewDirectional(dir math.Vec3) *Light {
	l := base(Directional)
	l.Direction = dir.Normalize()
	return l
}

// NewPoint returns a white omnidirectional light with no falloff.
func NewPoint() *Light {
	return base(Point)
}

// NewSpot returns a white cone light shining along dir.
func NewSpot(dir math.Vec3, cutoffDegrees float32) *Light {
	l := base(Spot)
	l.Direction = dir.Normalize()
	l.SpotCutoff = cutoffDegrees
	return l
}

// Attenuation returns the distance falloff factor at distance d.
func (l *Light) Attenuation(d float32) float32 {
	if l.Kind == Directional {
		return 1
	}
	denom := l.Constant + l.Linear*d + l.Quadratic*d*d
	if denom <= 0 {
		return 1
	}
	return 1 / denom
}

// SpotFactor returns the cone falloff for a point seen along toPoint from a
// light shining along dir (both world space). Non-spot lights return 1.
func (l *Light) SpotFactor(dir, toPoint math.Vec3) float32 {
	if l.Kind != Spot {
		return 1
	}
	cosAngle := dir.Normalize().Dot(toPoint.Normalize())
	cosCutoff := float32(gomath.Cos(float64(l.SpotCutoff) * gomath.Pi / 180))
	if cosAngle < cosCutoff {
		return 0
	}
	if l.SpotExponent == 0 {
		return 1
	}
	return float32(gomath.Pow(float64(cosAngle), float64(l.SpotExponent)))
}

// Intensity combines attenuation and spot falloff for a light placed at pos
// shining along dir, evaluated at point p.
func (l *Light) Intensity(pos, dir, p math.Vec3) float32 {
	if !l.Enabled {
		return 0
	}
	if l.Kind == Directional {
		return 1
	}
	to := p.Sub(pos)
	return l.Attenuation(to.Length()) * l.SpotFactor(dir, to)
}
