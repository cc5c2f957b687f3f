package camera

import (
	gomath "math"

	"github.com/Faultbox/trellis/internal/engine/mesh"
	"github.com/Faultbox/trellis/pkg/math"
)

// OrbitController orbits the camera around a center point.
type OrbitController struct {
	Center math.Vec3

	// Spherical coordinates
	Distance float32
	Pitch    float32 // radians above the horizon
	Yaw      float32 // radians around Y

	// Constraints
	MinDistance float32
	MaxDistance float32
	MinPitch    float32
	MaxPitch    float32

	// Sensitivity
	DragSensitivity float32
	ZoomSensitivity float32
}

// NewOrbit creates an orbit controller with default settings.
func NewOrbit() *OrbitController {
	return &OrbitController{
		Distance:        10,
		Pitch:           0.5,
		MinDistance:     0.5,
		MaxDistance:     500,
		MinPitch:        -1.5,
		MaxPitch:        1.5,
		DragSensitivity: 0.005,
		ZoomSensitivity: 0.1,
	}
}

// Position returns the camera position in world space.
func (o *OrbitController) Position() math.Vec3 {
	pitch, yaw := float64(o.Pitch), float64(o.Yaw)
	return o.Center.Add(math.Vec3{
		X: o.Distance * float32(gomath.Cos(pitch)*gomath.Sin(yaw)),
		Y: o.Distance * float32(gomath.Sin(pitch)),
		Z: o.Distance * float32(gomath.Cos(pitch)*gomath.Cos(yaw)),
	})
}

func (o *OrbitController) Update(cam *Camera, _ float32) {
	cam.LookAt(o.Position(), o.Center, math.Vec3{Y: 1})
}

// HandleDrag updates rotation based on mouse drag delta.
func (o *OrbitController) HandleDrag(deltaX, deltaY float32) {
	o.Yaw -= deltaX * o.DragSensitivity
	o.Pitch = clamp(o.Pitch+deltaY*o.DragSensitivity, o.MinPitch, o.MaxPitch)
}

// HandleZoom updates distance based on scroll wheel delta.
func (o *OrbitController) HandleZoom(delta float32) {
	o.Distance = clamp(o.Distance-delta*o.Distance*o.ZoomSensitivity, o.MinDistance, o.MaxDistance)
}

// HandleMovement pans the center on the XZ plane relative to the yaw.
func (o *OrbitController) HandleMovement(forward, right, up float32) {
	// Speed scales with distance for consistent feel
	speed := o.Distance * 0.01

	yaw := float64(o.Yaw)
	dirX, dirZ := float32(gomath.Sin(yaw)), float32(gomath.Cos(yaw))
	rightX, rightZ := float32(gomath.Cos(yaw)), float32(-gomath.Sin(yaw))

	// Forward moves into the scene, away from the camera.
	o.Center.X += (-dirX*forward + rightX*right) * speed
	o.Center.Z += (-dirZ*forward + rightZ*right) * speed
	o.Center.Y += up * speed
}

// FitToBounds centers on b and backs off far enough to see all of it.
func (o *OrbitController) FitToBounds(b mesh.Bounds) {
	o.Center = b.Center
	o.Distance = clamp(b.Radius*2.5, o.MinDistance, o.MaxDistance)
	o.Pitch = clamp(0.6, o.MinPitch, o.MaxPitch) // ~35 degrees down
	o.Yaw = 0
}

func clamp(v, lo, hi float32) float32 {
	return max(lo, min(v, hi))
}
