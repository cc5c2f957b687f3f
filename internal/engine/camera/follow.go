package camera

import (
	"github.com/Faultbox/trellis/internal/engine/node"
	"github.com/Faultbox/trellis/pkg/math"
)

// FixedStep is the integration step used by springs that ignore real time.
const FixedStep = float32(1.0 / 60.0)

// FollowController places the camera at Offset in the target node's local
// space. With LookAt set it aims at the node (plus LookOffset); otherwise it
// looks down the node's -Z axis, acting as a camera mounted on the node.
type FollowController struct {
	Target     *node.Node
	Offset     math.Vec3
	LookOffset math.Vec3
	LookAt     bool
}

func (f *FollowController) Update(cam *Camera, _ float32) {
	if f.Target == nil {
		return
	}
	world := f.Target.WorldTransform()
	eye := world.TransformVec3(f.Offset)
	cam.SetEye(eye)
	if f.LookAt {
		cam.SetTarget(world.Translation().Add(f.LookOffset))
		return
	}
	cam.SetTarget(eye.Add(world.TransformDirection(math.Vec3{Z: -1})))
}

// SpringController pulls the camera towards Offset in the target node's
// local space with a damped spring: a = k*(desired-current) - c*v.
// Unless RealTime is set each update integrates a FixedStep regardless of dt.
type SpringController struct {
	Target     *node.Node
	Offset     math.Vec3
	LookOffset math.Vec3
	Stiffness  float32
	Damping    float32
	RealTime   bool

	velocity math.Vec3
}

// NewSpring returns a spring follower with the given constants.
func NewSpring(target *node.Node, offset math.Vec3, stiffness, damping float32) *SpringController {
	return &SpringController{Target: target, Offset: offset, Stiffness: stiffness, Damping: damping}
}

// Velocity returns the current camera velocity.
func (s *SpringController) Velocity() math.Vec3 { return s.velocity }

// Desired returns where the spring is pulling the camera.
func (s *SpringController) Desired() math.Vec3 {
	return s.Target.WorldTransform().TransformVec3(s.Offset)
}

// Snap moves the camera straight to the desired position and stops it.
func (s *SpringController) Snap(cam *Camera) {
	if s.Target == nil {
		return
	}
	s.velocity = math.Vec3{}
	cam.LookAt(s.Desired(), s.Target.WorldPosition().Add(s.LookOffset), cam.Up())
}

func (s *SpringController) Update(cam *Camera, dt float32) {
	if s.Target == nil {
		return
	}
	if !s.RealTime {
		dt = FixedStep
	}
	cur := cam.Eye()
	accel := s.Desired().Sub(cur).Scale(s.Stiffness).Sub(s.velocity.Scale(s.Damping))
	s.velocity = s.velocity.Add(accel.Scale(dt))
	cam.SetEye(cur.Add(s.velocity.Scale(dt)))
	cam.SetTarget(s.Target.WorldPosition().Add(s.LookOffset))
}
