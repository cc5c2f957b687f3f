package math

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

// The mgl32 package uses the same column-major layout, so results can be
// compared element by element.

func TestLookAtMatchesMathGL(t *testing.T) {
	eye, center, up := Vec3{3, 4, 5}, Vec3{-1, 0.5, 2}, Vec3{0, 1, 0}
	got := LookAt(eye, center, up)
	want := Mat4(mgl32.LookAtV(
		mgl32.Vec3{eye.X, eye.Y, eye.Z},
		mgl32.Vec3{center.X, center.Y, center.Z},
		mgl32.Vec3{up.X, up.Y, up.Z},
	))
	if !got.ApproxEqual(want, 1e-5) {
		t.Errorf("LookAt = %v, mgl32 = %v", got, want)
	}
}

func TestPerspectiveMatchesMathGL(t *testing.T) {
	got := Perspective(mgl32.DegToRad(60), 16.0/9.0, 0.5, 250)
	want := Mat4(mgl32.Perspective(mgl32.DegToRad(60), 16.0/9.0, 0.5, 250))
	if !got.ApproxEqual(want, 1e-5) {
		t.Errorf("Perspective = %v, mgl32 = %v", got, want)
	}
}

func TestOrthoMatchesMathGL(t *testing.T) {
	got := Ortho(-4, 6, -2, 3, 0.1, 50)
	want := Mat4(mgl32.Ortho(-4, 6, -2, 3, 0.1, 50))
	if !got.ApproxEqual(want, 1e-5) {
		t.Errorf("Ortho = %v, mgl32 = %v", got, want)
	}
}

func TestInverseMatchesMathGL(t *testing.T) {
	m := FromTRS(Vec3{2, -3, 7}, QuatFromEuler(0.2, 1.3, -0.6), Vec3{1, 3, 0.5})
	got := m.Inverse()
	want := Mat4(mgl32.Mat4(m).Inv())
	if !got.ApproxEqual(want, 1e-4) {
		t.Errorf("Inverse = %v, mgl32 = %v", got, want)
	}
}

func TestFromTRSMatchesMathGL(t *testing.T) {
	q := QuatFromAxisAngle(Vec3{0, 0, 1}, 0.75)
	got := FromTRS(Vec3{1, 2, 3}, q, Vec3{2, 1, 4})

	mq := mgl32.QuatRotate(0.75, mgl32.Vec3{0, 0, 1})
	want := Mat4(mgl32.Translate3D(1, 2, 3).Mul4(mq.Mat4()).Mul4(mgl32.Scale3D(2, 1, 4)))
	if !got.ApproxEqual(want, 1e-5) {
		t.Errorf("FromTRS = %v, mgl32 = %v", got, want)
	}
}
