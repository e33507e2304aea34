package xchange

import (
	"maps"
	"slices"

	"github.com/Faultbox/modelxchange/internal/meshio"
	"github.com/Faultbox/modelxchange/pkg/scenegraph"
)

// Options controls a single read.
type Options struct {
	// Paths are searched for the model file and the textures it references.
	Paths []string
	// ExtensionHint names the format of stream and memory reads ("glb", ".obj").
	ExtensionHint string

	// GenerateSmoothNormals computes smoothed normals for meshes without
	// them, limited by CreaseAngle. It takes precedence over
	// GenerateSharpNormals.
	GenerateSmoothNormals bool
	// GenerateSharpNormals computes per-face normals for meshes without them.
	GenerateSharpNormals bool
	// CreaseAngle is the smoothing limit in degrees.
	CreaseAngle float32

	// TwoSided renders every material without back-face culling.
	TwoSided bool

	// FormatCoordinateConventions overrides the up axis assumed for a file
	// extension. Formats not listed are assumed to be Y-up.
	FormatCoordinateConventions map[string]scenegraph.CoordinateConvention
	// SceneCoordinateConvention is the up axis of the returned graph.
	SceneCoordinateConvention scenegraph.CoordinateConvention

	// Workers bounds parallel material resolution. 0 means one per CPU.
	Workers int
}

// DefaultOptions returns the options used when a read is given nil.
func DefaultOptions() *Options {
	return &Options{
		CreaseAngle:               meshio.DefaultCreaseAngle,
		SceneCoordinateConvention: scenegraph.ZUp,
	}
}

// Clone returns a deep copy of o.
func (o *Options) Clone() *Options {
	c := *o
	c.Paths = slices.Clone(o.Paths)
	c.FormatCoordinateConventions = maps.Clone(o.FormatCoordinateConventions)
	return &c
}

func orDefault(o *Options) *Options {
	if o == nil {
		return DefaultOptions()
	}
	return o
}

// ImportFlags returns the post-processing steps requested by o.
func (o *Options) ImportFlags() meshio.PostProcess {
	flags := meshio.Triangulate | meshio.FlipUVs | meshio.OptimizeMeshes |
		meshio.SortByPType | meshio.ImproveCacheLocality | meshio.GenUVCoords

	switch {
	case o.GenerateSmoothNormals:
		flags |= meshio.GenSmoothNormals
	case o.GenerateSharpNormals:
		flags |= meshio.GenNormals
	}
	return flags
}

// importer returns an importer configured by o.
func (o *Options) importer() *meshio.Importer {
	im := meshio.NewImporter()
	if o.GenerateSmoothNormals && o.CreaseAngle > 0 {
		im.SetCreaseAngle(o.CreaseAngle)
	}
	return im
}
