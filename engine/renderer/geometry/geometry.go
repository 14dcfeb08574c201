package geometry

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-cube/common"
	"github.com/Carmen-Shannon/oxy-cube/engine/renderer/gpu"
)

const (
	// CubeVertexCount is the number of vertices in the cube: 4 per face, never shared across faces.
	CubeVertexCount = 24
	// CubeIndexCount is the number of indices in the cube: 2 triangles per face.
	CubeIndexCount = 36

	PositionComponents     = 3
	NormalComponents       = 3
	TextureCoordComponents = 2
)

// Face names the six cube faces in the order their vertices are laid out.
type Face int

const (
	FaceFront Face = iota
	FaceBack
	FaceTop
	FaceBottom
	FaceRight
	FaceLeft
)

// CubeData is the CPU-side description of the unit cube, one flat slice per vertex stream.
type CubeData struct {
	Positions     []float32
	Normals       []float32
	TextureCoords []float32
	Indices       []uint16
}

// GeometryBuffers are the GPU buffers holding the cube. They are immutable after creation.
type GeometryBuffers struct {
	Position     gpu.BufferHandle
	Normal       gpu.BufferHandle
	TextureCoord gpu.BufferHandle
	Indices      gpu.BufferHandle
	IndexCount   int32
	IndexType    gpu.IndexType
}

// facePositions lists each face's corners counter-clockwise as seen from outside the cube.
var facePositions = [6][4][3]float32{
	FaceFront:  {{-1, -1, 1}, {1, -1, 1}, {1, 1, 1}, {-1, 1, 1}},
	FaceBack:   {{-1, -1, -1}, {-1, 1, -1}, {1, 1, -1}, {1, -1, -1}},
	FaceTop:    {{-1, 1, -1}, {-1, 1, 1}, {1, 1, 1}, {1, 1, -1}},
	FaceBottom: {{-1, -1, -1}, {1, -1, -1}, {1, -1, 1}, {-1, -1, 1}},
	FaceRight:  {{1, -1, -1}, {1, 1, -1}, {1, 1, 1}, {1, -1, 1}},
	FaceLeft:   {{-1, -1, -1}, {-1, -1, 1}, {-1, 1, 1}, {-1, 1, -1}},
}

var faceNormals = [6][3]float32{
	FaceFront:  {0, 0, 1},
	FaceBack:   {0, 0, -1},
	FaceTop:    {0, 1, 0},
	FaceBottom: {0, -1, 0},
	FaceRight:  {1, 0, 0},
	FaceLeft:   {-1, 0, 0},
}

var faceTextureCoords = [4][2]float32{{0, 0}, {1, 0}, {1, 1}, {0, 1}}

// faceIndices splits a quad into two triangles sharing the 0-2 diagonal.
var faceIndices = [6]uint16{0, 1, 2, 0, 2, 3}

// NewCubeData builds the cube's vertex streams and triangle list. Every call returns equal data.
func NewCubeData() CubeData {
	d := CubeData{
		Positions:     make([]float32, 0, CubeVertexCount*PositionComponents),
		Normals:       make([]float32, 0, CubeVertexCount*NormalComponents),
		TextureCoords: make([]float32, 0, CubeVertexCount*TextureCoordComponents),
		Indices:       make([]uint16, 0, CubeIndexCount),
	}

	for face := range facePositions {
		for corner := range facePositions[face] {
			d.Positions = append(d.Positions, facePositions[face][corner][:]...)
			d.Normals = append(d.Normals, faceNormals[face][:]...)
			d.TextureCoords = append(d.TextureCoords, faceTextureCoords[corner][:]...)
		}
		base := uint16(face * 4)
		for _, idx := range faceIndices {
			d.Indices = append(d.Indices, base+idx)
		}
	}
	return d
}

// BuildCubeGeometry uploads the cube to three static vertex buffers and one 16-bit index buffer.
// Buffers created before a failure are released again.
//
// Parameters:
//   - backend: the GPU backend that will own the buffers
//
// Returns:
//   - *GeometryBuffers: the uploaded cube
//   - error: an error if any buffer could not be allocated
func BuildCubeGeometry(backend gpu.Backend) (*GeometryBuffers, error) {
	d := NewCubeData()
	g := &GeometryBuffers{
		IndexCount: int32(len(d.Indices)),
		IndexType:  gpu.IndexUint16,
	}

	uploads := []struct {
		name   string
		target gpu.BufferTarget
		data   []byte
		dst    *gpu.BufferHandle
	}{
		{"position", gpu.ArrayBuffer, common.SliceToBytes(d.Positions), &g.Position},
		{"normal", gpu.ArrayBuffer, common.SliceToBytes(d.Normals), &g.Normal},
		{"texture coordinate", gpu.ArrayBuffer, common.SliceToBytes(d.TextureCoords), &g.TextureCoord},
		{"index", gpu.ElementArrayBuffer, common.SliceToBytes(d.Indices), &g.Indices},
	}
	for _, u := range uploads {
		h, err := backend.CreateBuffer(u.target, u.data)
		if err != nil {
			g.Release(backend)
			return nil, fmt.Errorf("failed to create %s buffer: %w", u.name, err)
		}
		*u.dst = h
	}
	return g, nil
}

// Release deletes every buffer that was created. Safe to call on partially built geometry.
func (g *GeometryBuffers) Release(backend gpu.Backend) {
	for _, h := range []*gpu.BufferHandle{&g.Position, &g.Normal, &g.TextureCoord, &g.Indices} {
		if *h != gpu.InvalidBuffer {
			backend.DeleteBuffer(*h)
			*h = gpu.InvalidBuffer
		}
	}
}
