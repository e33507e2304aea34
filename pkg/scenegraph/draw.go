package scenegraph

import "fmt"

// Array is a per-vertex or per-instance attribute array.
type Array interface {
	Len() int
}

// Vec2Array holds two-component attributes such as texture coordinates.
type Vec2Array [][2]float32

// Vec3Array holds three-component attributes such as positions and normals.
type Vec3Array [][3]float32

// Vec4Array holds four-component attributes such as colors.
type Vec4Array [][4]float32

// FloatArray holds scalar attributes such as temperatures.
type FloatArray []float32

func (a Vec2Array) Len() int  { return len(a) }
func (a Vec3Array) Len() int  { return len(a) }
func (a Vec4Array) Len() int  { return len(a) }
func (a FloatArray) Len() int { return len(a) }

// MaxShortIndexVertices is the vertex count at which 16-bit indices stop being enough.
const MaxShortIndexVertices = 1 << 16

// IndexBuffer holds triangle indices at either 16 or 32 bits per index.
// The zero value is an empty 32-bit buffer.
type IndexBuffer struct {
	short []uint16
	long  []uint32
	wide  bool
}

// NewIndexBuffer stores indices at the narrowest width that can address
// vertexCount vertices.
func NewIndexBuffer(indices []uint32, vertexCount int) IndexBuffer {
	if vertexCount < MaxShortIndexVertices {
		short := make([]uint16, len(indices))
		for i, idx := range indices {
			short[i] = uint16(idx)
		}
		return IndexBuffer{short: short}
	}
	long := make([]uint32, len(indices))
	copy(long, indices)
	return IndexBuffer{long: long, wide: true}
}

// NewIndexBuffer32 stores indices at 32 bits regardless of vertex count.
func NewIndexBuffer32(indices []uint32) IndexBuffer {
	return IndexBuffer{long: indices, wide: true}
}

// Width returns 16 or 32.
func (b IndexBuffer) Width() int {
	if b.wide || b.short == nil {
		return 32
	}
	return 16
}

// Len returns the number of indices.
func (b IndexBuffer) Len() int {
	if b.wide || b.short == nil {
		return len(b.long)
	}
	return len(b.short)
}

// At returns index i widened to 32 bits.
func (b IndexBuffer) At(i int) uint32 {
	if b.wide || b.short == nil {
		return b.long[i]
	}
	return uint32(b.short[i])
}

// Uint16 returns the 16-bit storage, or nil for a 32-bit buffer.
func (b IndexBuffer) Uint16() []uint16 {
	if b.wide {
		return nil
	}
	return b.short
}

// Uint32 returns the 32-bit storage, or nil for a 16-bit buffer.
func (b IndexBuffer) Uint32() []uint32 {
	if b.wide || b.short == nil {
		return b.long
	}
	return nil
}

// VertexIndexDraw is an indexed draw with its vertex arrays.
// Arrays are bound in order starting at binding 0.
type VertexIndexDraw struct {
	Arrays        []Array
	Indices       IndexBuffer
	IndexCount    uint32
	InstanceCount uint32
}

// Children returns nil; draws are leaves.
func (d *VertexIndexDraw) Children() []Node { return nil }

// VertexCount returns the length of the first array.
func (d *VertexIndexDraw) VertexCount() int {
	if len(d.Arrays) == 0 {
		return 0
	}
	return d.Arrays[0].Len()
}

// String summarizes the draw for diagnostics.
func (d *VertexIndexDraw) String() string {
	return fmt.Sprintf("VertexIndexDraw(vertices=%d indices=%d width=%d instances=%d)",
		d.VertexCount(), d.IndexCount, d.Indices.Width(), d.InstanceCount)
}
