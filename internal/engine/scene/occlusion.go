package scene

import (
	"github.com/Faultbox/trellis/internal/engine/mesh"
)

// occludes reports whether b's bounding sphere crosses the segment from the
// camera eye to its target.
func (s *Scene) occludes(b mesh.Bounds) bool {
	eye, target := s.camera.Eye(), s.camera.Target()
	d := target.Sub(eye)
	ll := d.Dot(d)
	if ll == 0 {
		return b.Center.Distance(eye) < b.Radius
	}
	t := b.Center.Sub(eye).Dot(d) / ll
	t = max(0, min(1, t))
	closest := eye.Add(d.Scale(t))
	return closest.Distance(b.Center) < b.Radius
}
