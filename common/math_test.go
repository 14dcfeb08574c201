package common

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestPerspectiveMatchesClosedForm(t *testing.T) {
	fov := float32(45 * math.Pi / 180)
	aspect := AspectRatio(800, 600)
	near, far := float32(0.1), float32(100)

	got := Perspective(fov, aspect, near, far)

	f := float32(1 / math.Tan(float64(fov)/2))
	want := mgl32.Mat4{
		f / aspect, 0, 0, 0,
		0, f, 0, 0,
		0, 0, (far + near) / (near - far), -1,
		0, 0, 2 * far * near / (near - far), 0,
	}
	assert.True(t, Mat4ApproxEqual(want, got, 1e-5), "got %v want %v", got, want)
	assert.InDelta(t, 1.81066, got[0], 1e-4)
	assert.InDelta(t, 2.41421, got[5], 1e-4)
	assert.InDelta(t, -1.002002, got[10], 1e-5)
	assert.InDelta(t, -0.2002002, got[14], 1e-5)
}

func TestPerspectiveZeroAspectFallsBack(t *testing.T) {
	fov := float32(math.Pi / 4)
	assert.Equal(t, Perspective(fov, 1, 0.1, 100), Perspective(fov, 0, 0.1, 100))
}

func TestAspectRatio(t *testing.T) {
	assert.InDelta(t, 4.0/3.0, AspectRatio(800, 600), 1e-6)
	assert.Equal(t, float32(1), AspectRatio(800, 0))
	assert.Equal(t, float32(1), AspectRatio(0, 600))
}

func TestTumbleModelViewComposition(t *testing.T) {
	angle := float32(0.7)
	got := TumbleModelView(6, angle)

	want := mgl32.Translate3D(0, 0, -6).
		Mul4(mgl32.HomogRotate3DZ(angle)).
		Mul4(mgl32.HomogRotate3DY(angle))
	assert.True(t, Mat4ApproxEqual(want, got, 1e-6))

	// the translation column is unaffected by the rotations
	assert.InDelta(t, -6, got[14], 1e-6)
	assert.InDelta(t, 0, got[12], 1e-6)
}

func TestTumbleModelViewAtRest(t *testing.T) {
	assert.True(t, Mat4ApproxEqual(mgl32.Translate3D(0, 0, -6), TumbleModelView(6, 0), 1e-7))
}

func TestNormalMatrixRoundTrip(t *testing.T) {
	cases := []mgl32.Mat4{
		TumbleModelView(6, 0),
		TumbleModelView(6, 1.234),
		TumbleModelView(6, 42),
		mgl32.Translate3D(1, 2, 3).Mul4(mgl32.Scale3D(2, 0.5, 4)).Mul4(mgl32.HomogRotate3DX(0.3)),
	}
	for _, m := range cases {
		n := NormalMatrix(m)
		back := n.Transpose().Inv()
		assert.True(t, Mat4ApproxEqual(m, back, 1e-4), "round trip of %v gave %v", m, back)
	}
}

func TestNormalMatrixOfRigidTransformKeepsRotation(t *testing.T) {
	m := TumbleModelView(6, 0.5)
	n := NormalMatrix(m)
	// for a rotation plus translation the upper 3x3 of the normal matrix equals the rotation
	assert.True(t, m.Mat3().ApproxEqualThreshold(n.Mat3(), 1e-5))
}

func TestSliceToBytes(t *testing.T) {
	assert.Nil(t, SliceToBytes([]float32{}))
	assert.Len(t, SliceToBytes([]float32{1, 2, 3}), 12)
	assert.Len(t, SliceToBytes([]uint16{1, 2, 3}), 6)
}

func TestCoalesce(t *testing.T) {
	assert.Equal(t, "a", Coalesce("", "a", "b"))
	assert.Equal(t, 0, Coalesce(0, 0))
	assert.Equal(t, float32(0.1), Coalesce(float32(0), float32(0.1)))
}
