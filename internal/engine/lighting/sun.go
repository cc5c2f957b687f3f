package lighting

import (
	"math"

	pmath "github.com/Faultbox/trellis/pkg/math"
)

// SunDirection converts longitude/latitude angles in degrees to a unit vector
// pointing towards the sun. Longitude rotates around Y, latitude is the
// elevation above the horizon.
func SunDirection(longitude, latitude float32) pmath.Vec3 {
	lonRad := float64(longitude) * math.Pi / 180.0
	latRad := float64(latitude) * math.Pi / 180.0

	return pmath.Vec3{
		X: float32(math.Cos(latRad) * math.Sin(lonRad)),
		Y: float32(math.Sin(latRad)),
		Z: float32(math.Cos(latRad) * math.Cos(lonRad)),
	}
}

// NewSun returns a directional light shining from the given sky angles.
func NewSun(longitude, latitude float32) *Light {
	return NewDirectional(SunDirection(longitude, latitude).Negate())
}
