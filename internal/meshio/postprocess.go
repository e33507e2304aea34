package meshio

import (
	"math"
	"strings"
)

// PostProcess is a set of processing steps applied after a backend has read a scene.
type PostProcess uint32

const (
	// Triangulate splits polygons with more than three corners into triangle fans.
	Triangulate PostProcess = 1 << iota
	// FlipUVs flips the V texture coordinate so the origin is top-left.
	FlipUVs
	// OptimizeMeshes, SortByPType, ImproveCacheLocality and GenUVCoords are
	// accepted for compatibility with importer flag sets; the backends already
	// produce one mesh per material, indexed UV channels and
	// mixed primitive types that the graph builder filters.
	OptimizeMeshes
	SortByPType
	ImproveCacheLocality
	GenUVCoords
	// GenNormals generates flat normals for meshes without normals.
	GenNormals
	// GenSmoothNormals generates smooth normals for meshes without normals,
	// keeping edges sharper than the crease angle.
	GenSmoothNormals
)

// DefaultCreaseAngle is the smoothing angle limit in degrees.
const DefaultCreaseAngle = 80

var postProcessNames = []struct {
	flag PostProcess
	name string
}{
	{Triangulate, "Triangulate"},
	{FlipUVs, "FlipUVs"},
	{OptimizeMeshes, "OptimizeMeshes"},
	{SortByPType, "SortByPType"},
	{ImproveCacheLocality, "ImproveCacheLocality"},
	{GenUVCoords, "GenUVCoords"},
	{GenNormals, "GenNormals"},
	{GenSmoothNormals, "GenSmoothNormals"},
}

// String returns the flag names joined with '|'.
func (p PostProcess) String() string {
	var names []string
	for _, n := range postProcessNames {
		if p&n.flag != 0 {
			names = append(names, n.name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

// Has reports whether every flag in f is set.
func (p PostProcess) Has(f PostProcess) bool {
	return p&f == f
}

// ApplyPostProcess runs the steps selected by flags on every mesh of scene.
// creaseAngle is in degrees and only used by GenSmoothNormals.
func ApplyPostProcess(scene *Scene, flags PostProcess, creaseAngle float32) {
	for _, m := range scene.Meshes {
		if flags.Has(Triangulate) {
			triangulate(m)
		}
		if flags.Has(FlipUVs) {
			flipUVs(m)
		}
		if m.HasNormals() {
			continue
		}
		switch {
		case flags.Has(GenSmoothNormals):
			smoothNormals(m, creaseAngle)
		case flags.Has(GenNormals):
			flatNormals(m)
		}
	}
}

func triangulate(m *Mesh) {
	needed := false
	for _, f := range m.Faces {
		if len(f.Indices) > 3 {
			needed = true
			break
		}
	}
	if !needed {
		return
	}

	faces := make([]Face, 0, len(m.Faces))
	for _, f := range m.Faces {
		if len(f.Indices) <= 3 {
			faces = append(faces, f)
			continue
		}
		for i := 1; i+1 < len(f.Indices); i++ {
			faces = append(faces, Face{Indices: []uint32{f.Indices[0], f.Indices[i], f.Indices[i+1]}})
		}
	}
	m.Faces = faces
}

func flipUVs(m *Mesh) {
	for ch := range m.TexCoords {
		for i := range m.TexCoords[ch] {
			m.TexCoords[ch][i][1] = 1 - m.TexCoords[ch][i][1]
		}
	}
}

// faceNormal returns the unnormalized Newell normal of a polygon.
func faceNormal(m *Mesh, f Face) [3]float32 {
	var n [3]float32
	if len(f.Indices) < 3 {
		return n
	}
	for i, idx := range f.Indices {
		cur := m.Vertices[idx]
		next := m.Vertices[f.Indices[(i+1)%len(f.Indices)]]
		n[0] += (cur[1] - next[1]) * (cur[2] + next[2])
		n[1] += (cur[2] - next[2]) * (cur[0] + next[0])
		n[2] += (cur[0] - next[0]) * (cur[1] + next[1])
	}
	return n
}

func normalize(v [3]float32) [3]float32 {
	l := float32(math.Sqrt(float64(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])))
	if l == 0 {
		return v
	}
	return [3]float32{v[0] / l, v[1] / l, v[2] / l}
}

func dot(a, b [3]float32) float32 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

// rebuild replaces the mesh vertices with one vertex per distinct
// (source vertex, normal) pair. normalOf returns the normal of corner c of face f.
func rebuild(m *Mesh, normalOf func(f, c int) [3]float32) {
	type key struct {
		src    uint32
		normal [3]float32
	}
	remap := make(map[key]uint32)

	vertices := make([][3]float32, 0, len(m.Vertices))
	normals := make([][3]float32, 0, len(m.Vertices))
	var texCoords [MaxTexCoordChannels][][3]float32

	for fi := range m.Faces {
		face := &m.Faces[fi]
		indices := make([]uint32, len(face.Indices))
		for c, src := range face.Indices {
			k := key{src: src, normal: normalOf(fi, c)}
			idx, ok := remap[k]
			if !ok {
				idx = uint32(len(vertices))
				remap[k] = idx
				vertices = append(vertices, m.Vertices[src])
				normals = append(normals, k.normal)
				for ch := range m.TexCoords {
					if m.HasTexCoords(ch) {
						texCoords[ch] = append(texCoords[ch], m.TexCoords[ch][src])
					}
				}
			}
			indices[c] = idx
		}
		face.Indices = indices
	}

	m.Vertices = vertices
	m.Normals = normals
	m.TexCoords = texCoords
}

func flatNormals(m *Mesh) {
	faceNormals := make([][3]float32, len(m.Faces))
	for i, f := range m.Faces {
		faceNormals[i] = normalize(faceNormal(m, f))
	}
	rebuild(m, func(f, _ int) [3]float32 {
		return faceNormals[f]
	})
}

func smoothNormals(m *Mesh, creaseAngle float32) {
	if creaseAngle <= 0 {
		creaseAngle = DefaultCreaseAngle
	}
	limit := float32(math.Cos(float64(creaseAngle) * math.Pi / 180))

	weighted := make([][3]float32, len(m.Faces))
	unit := make([][3]float32, len(m.Faces))
	for i, f := range m.Faces {
		weighted[i] = faceNormal(m, f)
		unit[i] = normalize(weighted[i])
	}

	// Corners sharing a position smooth together, even when the source
	// split the vertex for a texture seam.
	byPosition := make(map[[3]float32][]int)
	for fi, f := range m.Faces {
		if len(f.Indices) < 3 {
			continue
		}
		for _, idx := range f.Indices {
			p := m.Vertices[idx]
			faces := byPosition[p]
			if len(faces) == 0 || faces[len(faces)-1] != fi {
				byPosition[p] = append(faces, fi)
			}
		}
	}

	rebuild(m, func(fi, c int) [3]float32 {
		if len(m.Faces[fi].Indices) < 3 {
			return [3]float32{}
		}
		var sum [3]float32
		for _, other := range byPosition[m.Vertices[m.Faces[fi].Indices[c]]] {
			if other != fi && dot(unit[fi], unit[other]) < limit {
				continue
			}
			w := weighted[other]
			sum[0] += w[0]
			sum[1] += w[1]
			sum[2] += w[2]
		}
		return normalize(sum)
	})
}
