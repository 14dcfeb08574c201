package common

import (
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// SliceToBytes converts any slice to a byte slice for GPU buffer uploads.
// Uses unsafe pointer operations to create a view into the original data.
// WARNING: The returned slice shares memory with the input - do not modify.
//
// Parameters:
//   - data: source slice of any type
//
// Returns:
//   - []byte: byte slice view of the input data, or nil if input is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	size := unsafe.Sizeof(zero)
	totalBytes := int(size) * len(data)
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), totalBytes)
}

// Perspective creates a perspective projection matrix in the OpenGL clip convention,
// mapping view-space depth [-near, -far] to NDC z in [-1, 1].
// A non-positive aspect ratio is treated as 1 so a collapsed surface never yields NaNs.
//
// Parameters:
//   - fovY: vertical field of view in radians
//   - aspect: viewport aspect ratio (width/height)
//   - near: near clipping plane distance (must be > 0)
//   - far: far clipping plane distance (must be > near)
//
// Returns:
//   - mgl32.Mat4: the column-major projection matrix
func Perspective(fovY, aspect, near, far float32) mgl32.Mat4 {
	if aspect <= 0 {
		aspect = 1
	}
	return mgl32.Perspective(fovY, aspect, near, far)
}

// AspectRatio returns width/height for a drawing surface, falling back to 1 for a zero height.
func AspectRatio(width, height int) float32 {
	if height <= 0 || width <= 0 {
		return 1
	}
	return float32(width) / float32(height)
}

// TumbleModelView builds the model-view matrix for an object pushed distance units down the
// -Z axis and then rotated by angle radians around Z followed by angle radians around Y.
// The composition is T * Rz * Ry, so vertices are rotated around Y first in object space.
//
// Parameters:
//   - distance: how far down -Z the object sits
//   - angle: rotation in radians applied around both Z and Y
//
// Returns:
//   - mgl32.Mat4: the column-major model-view matrix
func TumbleModelView(distance, angle float32) mgl32.Mat4 {
	m := mgl32.Ident4()
	m = m.Mul4(mgl32.Translate3D(0, 0, -distance))
	m = m.Mul4(mgl32.HomogRotate3DZ(angle))
	m = m.Mul4(mgl32.HomogRotate3DY(angle))
	return m
}

// NormalMatrix returns transpose(inverse(m)), the matrix that keeps normals perpendicular to
// surfaces under m. A singular m yields the zero matrix, matching mgl32's Inv.
func NormalMatrix(m mgl32.Mat4) mgl32.Mat4 {
	return m.Inv().Transpose()
}

// Mat4ApproxEqual reports whether every element of a and b differs by at most epsilon.
func Mat4ApproxEqual(a, b mgl32.Mat4, epsilon float32) bool {
	for i := range a {
		d := a[i] - b[i]
		if d < 0 {
			d = -d
		}
		if d > epsilon {
			return false
		}
	}
	return true
}
