package lighting

import "github.com/Faultbox/trellis/pkg/math"

// MaxLights is the number of lights the renderer accepts per frame.
const MaxLights = 8

// Placed is a light resolved to world space for one frame.
type Placed struct {
	Light     *Light
	Position  math.Vec3
	Direction math.Vec3
}

// State is the per-frame light block uploaded by the renderer.
// Positions use w=0 for directional lights.
type State struct {
	Count       int
	Positions   [MaxLights][4]float32
	Directions  [MaxLights][3]float32
	Ambient     [MaxLights][4]float32
	Diffuse     [MaxLights][4]float32
	Specular    [MaxLights][4]float32
	Attenuation [MaxLights][3]float32
	Spot        [MaxLights][2]float32 // cutoff degrees, exponent; cutoff 180 for non-spot
}

// Pack fills a State from lights in order, truncating at limit (capped at
// MaxLights). Disabled lights are ignored. It returns how many were dropped.
func Pack(lights []Placed, limit int) (State, int) {
	if limit <= 0 || limit > MaxLights {
		limit = MaxLights
	}
	var s State
	dropped := 0
	for _, p := range lights {
		if p.Light == nil || !p.Light.Enabled {
			continue
		}
		if s.Count >= limit {
			dropped++
			continue
		}
		i := s.Count
		l := p.Light
		w := float32(1)
		if l.Kind == Directional {
			w = 0
		}
		s.Positions[i] = [4]float32{p.Position.X, p.Position.Y, p.Position.Z, w}
		s.Directions[i] = [3]float32{p.Direction.X, p.Direction.Y, p.Direction.Z}
		s.Ambient[i] = l.Ambient
		s.Diffuse[i] = l.Diffuse
		s.Specular[i] = l.Specular
		s.Attenuation[i] = [3]float32{l.Constant, l.Linear, l.Quadratic}
		cutoff := float32(180)
		if l.Kind == Spot {
			cutoff = l.SpotCutoff
		}
		s.Spot[i] = [2]float32{cutoff, l.SpotExponent}
		s.Count++
	}
	return s, dropped
}
