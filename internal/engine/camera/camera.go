// Package camera provides the scene camera, its projection lenses and the
// controllers that move it each frame.
package camera

import (
	gomath "math"

	"github.com/Faultbox/trellis/pkg/math"
)

// Controller moves a camera once per update.
type Controller interface {
	Update(cam *Camera, dt float32)
}

// Camera holds eye, target and up with lazily derived view, projection and
// view-projection matrices. Every setter marks the affected matrices dirty.
type Camera struct {
	lens Lens

	eye    math.Vec3
	target math.Vec3
	up     math.Vec3

	fov      float32 // radians
	near     float32
	far      float32
	viewport math.Vec2

	view      math.Mat4
	proj      math.Mat4
	viewProj  math.Mat4
	viewDirty bool
	projDirty bool
	vpDirty   bool

	viewBuilds int

	controller Controller
}

// New creates a camera at (0, 0, 5) looking at the origin. A nil lens uses
// a PerspectiveLens.
func New(lens Lens) *Camera {
	if lens == nil {
		lens = PerspectiveLens{}
	}
	return &Camera{
		lens:      lens,
		eye:       math.Vec3{Z: 5},
		up:        math.Vec3{Y: 1},
		fov:       float32(45 * gomath.Pi / 180),
		near:      0.1,
		far:       1000,
		viewport:  math.Vec2{X: 1280, Y: 720},
		viewDirty: true,
		projDirty: true,
		vpDirty:   true,
	}
}

func (c *Camera) touchView() {
	c.viewDirty = true
	c.vpDirty = true
}

func (c *Camera) touchProj() {
	c.projDirty = true
	c.vpDirty = true
}

// Lens returns the projection lens.
func (c *Camera) Lens() Lens { return c.lens }

// SetLens swaps the projection lens.
func (c *Camera) SetLens(l Lens) {
	if l == nil {
		l = PerspectiveLens{}
	}
	c.lens = l
	c.touchProj()
}

func (c *Camera) Eye() math.Vec3    { return c.eye }
func (c *Camera) Target() math.Vec3 { return c.target }
func (c *Camera) Up() math.Vec3     { return c.up }

// SetEye moves the camera.
func (c *Camera) SetEye(p math.Vec3) {
	c.eye = p
	c.touchView()
}

// SetTarget sets the look-at point.
func (c *Camera) SetTarget(p math.Vec3) {
	c.target = p
	c.touchView()
}

// SetUp sets the up vector.
func (c *Camera) SetUp(v math.Vec3) {
	c.up = v
	c.touchView()
}

// LookAt sets eye, target and up together.
func (c *Camera) LookAt(eye, target, up math.Vec3) {
	c.eye, c.target, c.up = eye, target, up
	c.touchView()
}

func (c *Camera) FieldOfView() float32 { return c.fov }
func (c *Camera) Near() float32        { return c.near }
func (c *Camera) Far() float32         { return c.far }
func (c *Camera) Viewport() math.Vec2  { return c.viewport }

// SetPerspective sets the vertical field of view in radians and the clip planes.
func (c *Camera) SetPerspective(fov, near, far float32) {
	c.fov, c.near, c.far = fov, near, far
	c.touchProj()
}

// SetViewport sets the viewport size in pixels.
func (c *Camera) SetViewport(width, height float32) {
	c.viewport = math.Vec2{X: width, Y: height}
	c.touchProj()
}

// ViewMatrix returns the world-to-view transform.
func (c *Camera) ViewMatrix() math.Mat4 {
	if c.viewDirty {
		c.view = math.LookAt(c.eye, c.target, c.up)
		c.viewDirty = false
		c.viewBuilds++
	}
	return c.view
}

// ProjectionMatrix returns the lens projection for the current viewport.
func (c *Camera) ProjectionMatrix() math.Mat4 {
	if c.projDirty {
		c.proj = c.lens.ProjectionMatrix(c.viewport, c.fov, c.near, c.far)
		c.projDirty = false
	}
	return c.proj
}

// ViewProjection returns projection * view.
func (c *Camera) ViewProjection() math.Mat4 {
	if c.vpDirty {
		c.viewProj = c.ProjectionMatrix().Mul(c.ViewMatrix())
		c.vpDirty = false
	}
	return c.viewProj
}

// ViewBuilds returns how many times the view matrix has been rebuilt.
func (c *Camera) ViewBuilds() int { return c.viewBuilds }

// ViewDepth returns the distance of p along the view axis, |z| in view space.
func (c *Camera) ViewDepth(p math.Vec3) float32 {
	z := c.ViewMatrix().TransformVec3(p).Z
	if z < 0 {
		return -z
	}
	return z
}

// Forward returns the unit vector from eye to target.
func (c *Camera) Forward() math.Vec3 { return c.target.Sub(c.eye).Normalize() }

// Right returns the unit vector to the camera's right.
func (c *Camera) Right() math.Vec3 { return c.Forward().Cross(c.up).Normalize() }

// Controller returns the attached controller, or nil.
func (c *Camera) Controller() Controller { return c.controller }

// SetController attaches a controller run by Update.
func (c *Camera) SetController(ctl Controller) { c.controller = ctl }

// Update advances the attached controller by dt seconds.
func (c *Camera) Update(dt float32) {
	if c.controller != nil {
		c.controller.Update(c, dt)
	}
}
