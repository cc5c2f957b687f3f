// Package shadow computes light view-projection matrices for the shadow pass.
package shadow

import (
	gomath "math"

	"github.com/Faultbox/trellis/internal/engine/lighting"
	"github.com/Faultbox/trellis/internal/engine/mesh"
	"github.com/Faultbox/trellis/pkg/math"
)

// DefaultResolution is the default shadow map resolution.
const DefaultResolution = 2048

// DirectionalMatrix computes an orthographic view-projection enclosing the
// scene bounds. dir is the direction the light shines in.
func DirectionalMatrix(dir math.Vec3, scene mesh.Bounds) math.Mat4 {
	center := scene.Center
	radius := scene.Radius
	if radius <= 0 {
		radius = 1
	}

	// Position light far enough to encompass entire scene
	lightDistance := radius * 2
	toLight := dir.Normalize().Negate()
	lightPos := center.Add(toLight.Scale(lightDistance))

	view := math.LookAt(lightPos, center, upFor(toLight))

	// Pad to avoid edge artifacts
	padding := radius * 0.1
	halfSize := radius + padding
	far := lightDistance + radius + padding

	proj := math.Ortho(-halfSize, halfSize, -halfSize, halfSize, 0.1, far)
	return proj.Mul(view)
}

// FocusedMatrix is DirectionalMatrix restricted to a region around focus, so
// shadows near the camera keep their resolution on large scenes. The region
// radius is clamped to [minRadius, scene radius].
func FocusedMatrix(dir math.Vec3, scene mesh.Bounds, focus math.Vec3, radius, minRadius float32) math.Mat4 {
	radius = max(radius, minRadius)
	radius = min(radius, scene.Radius)
	focus.Y = scene.Center.Y // keep the slab centred vertically

	height := scene.Max.Y - scene.Min.Y
	lightDistance := radius + height
	toLight := dir.Normalize().Negate()
	lightPos := focus.Add(toLight.Scale(lightDistance))

	view := math.LookAt(lightPos, focus, upFor(toLight))

	padding := radius * 0.1
	halfSize := radius + padding
	far := lightDistance + height + padding

	proj := math.Ortho(-halfSize, halfSize, -halfSize, halfSize, 0.1, far)
	return proj.Mul(view)
}

// SpotMatrix computes a perspective view-projection covering a spot light's cone.
func SpotMatrix(pos, dir math.Vec3, cutoffDegrees, far float32) math.Mat4 {
	fov := 2 * cutoffDegrees * gomath.Pi / 180
	fov = min(max(fov, 0.1), 3.0)
	d := dir.Normalize()
	view := math.LookAt(pos, pos.Add(d), upFor(d))
	return math.Perspective(fov, 1, 0.1, far).Mul(view)
}

// PointMatrix aims a 90 degree frustum from a point light at the scene center.
// A single face is enough for the one shadow caster a scene allows.
func PointMatrix(pos math.Vec3, scene mesh.Bounds) math.Mat4 {
	dir := scene.Center.Sub(pos)
	dist := dir.Length()
	if dist < 1e-4 {
		dir = math.Vec3{Y: -1}
	}
	far := dist + scene.Radius + 1
	view := math.LookAt(pos, pos.Add(dir.Normalize()), upFor(dir.Normalize()))
	return math.Perspective(gomath.Pi/2, 1, 0.1, far).Mul(view)
}

// ForLight picks the matrix for the light's kind.
func ForLight(p lighting.Placed, scene mesh.Bounds) math.Mat4 {
	switch p.Light.Kind {
	case lighting.Spot:
		return SpotMatrix(p.Position, p.Direction, p.Light.SpotCutoff, p.Position.Distance(scene.Center)+scene.Radius+1)
	case lighting.Point:
		return PointMatrix(p.Position, scene)
	}
	return DirectionalMatrix(p.Direction, scene)
}

// upFor picks an up vector not parallel to d.
func upFor(d math.Vec3) math.Vec3 {
	if abs32(d.Normalize().Y) > 0.99 {
		return math.Vec3{Z: 1}
	}
	return math.Vec3{Y: 1}
}

func abs32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
