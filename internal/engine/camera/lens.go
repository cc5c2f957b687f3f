package camera

import (
	gomath "math"

	"github.com/Faultbox/trellis/pkg/math"
)

// Lens produces a projection matrix. Lenses are interchangeable on a Camera.
type Lens interface {
	ProjectionMatrix(viewport math.Vec2, fov, near, far float32) math.Mat4
}

// PerspectiveLens is a symmetric perspective projection using the camera fov.
type PerspectiveLens struct{}

func (PerspectiveLens) ProjectionMatrix(viewport math.Vec2, fov, near, far float32) math.Mat4 {
	return math.Perspective(fov, viewport.Aspect(), near, far)
}

// FocusZoomLens derives the field of view from a focal length and zoom.
//
// Focus is the focal length measured in viewport heights, giving
// fov = 2*atan(1 / (2*Zoom*Focus)). With no focus set the camera fov is
// narrowed by Zoom instead. A zero zoom counts as 1.
type FocusZoomLens struct {
	Focus float32
	Zoom  float32
}

// FieldOfView returns the vertical fov the lens uses for a camera fov.
func (l FocusZoomLens) FieldOfView(fov float32) float32 {
	zoom := l.Zoom
	if zoom <= 0 {
		zoom = 1
	}
	if l.Focus > 0 {
		return float32(2 * gomath.Atan(1/(2*float64(zoom)*float64(l.Focus))))
	}
	half := gomath.Tan(float64(fov) / 2)
	return float32(2 * gomath.Atan(half/float64(zoom)))
}

func (l FocusZoomLens) ProjectionMatrix(viewport math.Vec2, fov, near, far float32) math.Mat4 {
	return math.Perspective(l.FieldOfView(fov), viewport.Aspect(), near, far)
}

// OrthoLens is a parallel projection showing Height world units vertically.
type OrthoLens struct {
	Height float32
}

func (l OrthoLens) ProjectionMatrix(viewport math.Vec2, _, near, far float32) math.Mat4 {
	h := l.Height
	if h <= 0 {
		h = 10
	}
	halfH := h / 2
	halfW := halfH * viewport.Aspect()
	return math.Ortho(-halfW, halfW, -halfH, halfH, near, far)
}

// LensByName returns the lens for a config name, or nil if unknown. The
// orthographic lens shows 10 units vertically at zoom 1.
func LensByName(name string, focus, zoom float32) Lens {
	switch name {
	case "perspective", "":
		return PerspectiveLens{}
	case "focus_zoom":
		return FocusZoomLens{Focus: focus, Zoom: zoom}
	case "ortho":
		if zoom <= 0 {
			zoom = 1
		}
		return OrthoLens{Height: 10 / zoom}
	}
	return nil
}
