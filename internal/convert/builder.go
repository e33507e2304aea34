// Package convert builds renderable scene graphs from imported scenes.
package convert

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/Faultbox/modelxchange/internal/logger"
	"github.com/Faultbox/modelxchange/internal/meshio"
	"github.com/Faultbox/modelxchange/pkg/gpu"
	"github.com/Faultbox/modelxchange/pkg/scenegraph"
)

// Options controls graph construction.
type Options struct {
	// Extension of the source file, used to look up FormatConventions.
	Extension string
	// FormatConventions overrides the up axis assumed for a file extension.
	FormatConventions map[string]scenegraph.CoordinateConvention
	// SceneConvention is the up axis of the produced graph.
	SceneConvention scenegraph.CoordinateConvention
}

// Stats describes a built graph.
type Stats struct {
	Nodes         int
	Meshes        int
	Triangles     int
	DroppedFaces  int
	UnboundMeshes int
	Cameras       int
	Lights        int
	WideIndices   int
}

// Builder converts imported scenes. A Builder is safe for concurrent use.
type Builder struct {
	defaults *gpu.Defaults
}

// NewBuilder creates a builder binding defaults at the root of every graph.
// A nil defaults uses gpu.SharedDefaults.
func NewBuilder(defaults *gpu.Defaults) *Builder {
	if defaults == nil {
		defaults = gpu.SharedDefaults()
	}
	return &Builder{defaults: defaults}
}

// Build converts scene into a graph. states is parallel to scene.Materials;
// a mesh whose material has no state is drawn with whatever is bound above it.
func (b *Builder) Build(scene *meshio.Scene, states []gpu.BindState, opts Options) (scenegraph.Node, Stats) {
	var stats Stats

	cameras := make(map[string]*scenegraph.Camera, len(scene.Cameras))
	for _, c := range scene.Cameras {
		if _, dup := cameras[c.Name]; dup {
			logger.Warn("duplicate camera name, keeping the first", zap.String("camera", c.Name))
			continue
		}
		cameras[c.Name] = ConvertCamera(c)
	}
	lights := make(map[string]*scenegraph.Light, len(scene.Lights))
	for _, l := range scene.Lights {
		if _, dup := lights[l.Name]; dup {
			logger.Warn("duplicate light name, keeping the first", zap.String("light", l.Name))
			continue
		}
		lights[l.Name] = ConvertLight(l)
	}

	state := b.defaults.State
	root := scenegraph.NewStateGroup(&state)

	type item struct {
		src    *meshio.Node
		parent *scenegraph.Group
	}
	stack := []item{{scene.Root, &root.Group}}

	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if it.src == nil {
			continue
		}
		stats.Nodes++

		xform := scenegraph.NewMatrixTransform(Transpose(it.src.Transform))
		if c, ok := cameras[it.src.Name]; ok {
			xform.AddChild(c)
			stats.Cameras++
		}
		if l, ok := lights[it.src.Name]; ok {
			xform.AddChild(l)
			stats.Lights++
		}

		for _, mi := range it.src.Meshes {
			if mi < 0 || mi >= len(scene.Meshes) {
				continue
			}
			mesh := scene.Meshes[mi]
			draw, dropped := BuildDraw(mesh)
			stats.Meshes++
			stats.Triangles += int(draw.IndexCount) / 3
			stats.DroppedFaces += dropped
			if draw.Indices.Width() == 32 {
				stats.WideIndices++
			}

			var sg *scenegraph.StateGroup
			if mesh.MaterialIndex >= 0 && mesh.MaterialIndex < len(states) {
				sg = scenegraph.NewStateGroup(&states[mesh.MaterialIndex])
			} else {
				sg = scenegraph.NewStateGroup(nil)
				stats.UnboundMeshes++
			}
			sg.AddChild(draw)
			xform.AddChild(sg)
		}

		it.parent.AddChild(xform)
		for i := len(it.src.Children) - 1; i >= 0; i-- {
			stack = append(stack, item{it.src.Children[i], &xform.Group})
		}
	}

	logger.Debug("built scene graph",
		zap.Int("nodes", stats.Nodes),
		zap.Int("meshes", stats.Meshes),
		zap.Int("triangles", stats.Triangles),
		zap.Int("dropped_faces", stats.DroppedFaces),
		zap.Int("unbound_meshes", stats.UnboundMeshes))

	src := SourceConvention(scene, opts)
	if m, ok := scenegraph.ConventionTransform(src, opts.SceneConvention); ok {
		wrapper := scenegraph.NewMatrixTransform(m)
		wrapper.AddChild(root)
		return wrapper, stats
	}
	return root, stats
}

// SourceConvention returns the up axis of the imported data: Y-up unless
// the extension table or the scene's UpAxis metadata says otherwise.
func SourceConvention(scene *meshio.Scene, opts Options) scenegraph.CoordinateConvention {
	conv := scenegraph.YUp
	if c, ok := opts.FormatConventions[meshio.NormalizeExtension(opts.Extension)]; ok {
		conv = c
	}
	if up, ok := scene.Metadata.Int(meshio.MetaUpAxis); ok {
		switch up {
		case 1:
			conv = scenegraph.XUp
		case 2:
			conv = scenegraph.YUp
		default:
			conv = scenegraph.ZUp
		}
	}
	return conv
}

// Transpose converts a row-major matrix to the column-major mgl64 layout.
func Transpose(t [16]float32) mgl64.Mat4 {
	var m mgl64.Mat4
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			m[c*4+r] = float64(t[r*4+c])
		}
	}
	return m
}

// BuildDraw copies the geometry of mesh into a draw. Only three-index faces
// are kept; dropped reports how many other faces were skipped.
func BuildDraw(mesh *meshio.Mesh) (draw *scenegraph.VertexIndexDraw, dropped int) {
	n := len(mesh.Vertices)

	vertices := make(scenegraph.Vec3Array, n)
	copy(vertices, mesh.Vertices)

	normals := make(scenegraph.Vec3Array, n)
	if mesh.HasNormals() {
		copy(normals, mesh.Normals)
	}

	texCoords := make(scenegraph.Vec2Array, n)
	if mesh.HasTexCoords(0) {
		for i, uv := range mesh.TexCoords[0] {
			texCoords[i] = [2]float32{uv[0], uv[1]}
		}
	}

	colors := scenegraph.Vec4Array{{1, 1, 1, 1}}

	indices := make([]uint32, 0, len(mesh.Faces)*3)
	for _, f := range mesh.Faces {
		if len(f.Indices) != 3 {
			dropped++
			continue
		}
		indices = append(indices, f.Indices...)
	}

	return &scenegraph.VertexIndexDraw{
		Arrays:        []scenegraph.Array{vertices, normals, texCoords, colors},
		Indices:       scenegraph.NewIndexBuffer(indices, n),
		IndexCount:    uint32(len(indices)),
		InstanceCount: 1,
	}, dropped
}

func vec3d(v [3]float32) mgl64.Vec3 {
	return mgl64.Vec3{float64(v[0]), float64(v[1]), float64(v[2])}
}

// ConvertCamera converts an imported camera. The horizontal field of view
// becomes a vertical one in degrees.
func ConvertCamera(c *meshio.Camera) *scenegraph.Camera {
	eye := vec3d(c.Position)
	return &scenegraph.Camera{
		Name: c.Name,
		View: scenegraph.LookAt{
			Eye:    eye,
			Center: eye.Add(vec3d(c.LookAt)),
			Up:     vec3d(c.Up),
		},
		Projection: scenegraph.Perspective{
			FieldOfViewY: scenegraph.VerticalFOV(float64(c.HorizontalFOV), float64(c.Aspect)),
			AspectRatio:  aspectOrOne(float64(c.Aspect)),
			NearDistance: float64(c.Near),
			FarDistance:  float64(c.Far),
		},
	}
}

func aspectOrOne(a float64) float64 {
	if a <= 0 {
		return 1
	}
	return a
}

var lightKinds = map[meshio.LightType]scenegraph.LightKind{
	meshio.LightUndefined:   scenegraph.LightUndefined,
	meshio.LightDirectional: scenegraph.LightDirectional,
	meshio.LightPoint:       scenegraph.LightPoint,
	meshio.LightSpot:        scenegraph.LightSpot,
	meshio.LightAmbient:     scenegraph.LightAmbient,
	meshio.LightArea:        scenegraph.LightArea,
}

// ConvertLight converts an imported light.
func ConvertLight(l *meshio.Light) *scenegraph.Light {
	out := &scenegraph.Light{
		Name:      l.Name,
		Kind:      lightKinds[l.Type],
		Color:     mgl32.Vec3(l.Diffuse),
		Intensity: 1,
	}
	switch out.Kind {
	case scenegraph.LightDirectional:
		out.Direction = vec3d(l.Direction)
	case scenegraph.LightPoint:
		out.Position = vec3d(l.Position)
	case scenegraph.LightSpot:
		out.Position = vec3d(l.Position)
		out.Direction = vec3d(l.Direction)
		out.InnerAngle = float64(l.InnerCone)
		out.OuterAngle = float64(l.OuterCone)
	}
	return out
}
