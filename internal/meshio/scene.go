// Package meshio imports 3D model files into a format-neutral scene.
//
// A Scene is produced by a format backend (glTF 2.0 or Wavefront OBJ) and
// optionally post-processed. Consumers treat it as read-only.
package meshio

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxTexCoordChannels is the number of texture coordinate channels a mesh carries.
const MaxTexCoordChannels = 8

// Color is a linear RGBA color.
type Color [4]float32

// White is opaque white.
var White = Color{1, 1, 1, 1}

// Scene is an imported model.
type Scene struct {
	Materials []*Material
	Meshes    []*Mesh
	Root      *Node
	Cameras   []*Camera
	Lights    []*Light
	Textures  []*EmbeddedTexture
	Metadata  Metadata
}

// Node is a transform node of the scene hierarchy.
type Node struct {
	Name string
	// Transform is a row-major 4x4 matrix relative to the parent.
	Transform [16]float32
	// Meshes indexes Scene.Meshes.
	Meshes   []int
	Children []*Node
}

// IdentityTransform is the row-major identity matrix.
var IdentityTransform = [16]float32{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 1, 0,
	0, 0, 0, 1,
}

// NewNode creates a node with an identity transform.
func NewNode(name string) *Node {
	return &Node{Name: name, Transform: IdentityTransform}
}

// Mesh is an indexed polygon mesh with a single material.
type Mesh struct {
	Name     string
	Vertices [][3]float32
	// Normals is nil when the source has none.
	Normals [][3]float32
	// TexCoords holds up to eight channels; an absent channel is nil.
	TexCoords     [MaxTexCoordChannels][][3]float32
	Faces         []Face
	MaterialIndex int
}

// Face is a point (1 index), line (2) or polygon (3 or more).
type Face struct {
	Indices []uint32
}

// HasNormals reports whether the mesh carries one normal per vertex.
func (m *Mesh) HasNormals() bool {
	return len(m.Normals) > 0 && len(m.Normals) == len(m.Vertices)
}

// HasTexCoords reports whether channel ch carries one coordinate per vertex.
func (m *Mesh) HasTexCoords(ch int) bool {
	if ch < 0 || ch >= MaxTexCoordChannels {
		return false
	}
	return len(m.TexCoords[ch]) > 0 && len(m.TexCoords[ch]) == len(m.Vertices)
}

// TextureType identifies the role of a material texture.
type TextureType int

const (
	TextureNone TextureType = iota
	TextureDiffuse
	TextureSpecular
	TextureAmbient
	TextureEmissive
	TextureHeight
	TextureNormals
	TextureShininess
	TextureOpacity
	TextureDisplacement
	TextureLightmap
	TextureReflection
	TextureBaseColor
	TextureMetalness
	TextureDiffuseRoughness
	TextureAmbientOcclusion
	TextureUnknown
)

var textureTypeNames = map[TextureType]string{
	TextureNone:             "none",
	TextureDiffuse:          "diffuse",
	TextureSpecular:         "specular",
	TextureAmbient:          "ambient",
	TextureEmissive:         "emissive",
	TextureHeight:           "height",
	TextureNormals:          "normals",
	TextureShininess:        "shininess",
	TextureOpacity:          "opacity",
	TextureDisplacement:     "displacement",
	TextureLightmap:         "lightmap",
	TextureReflection:       "reflection",
	TextureBaseColor:        "base_color",
	TextureMetalness:        "metalness",
	TextureDiffuseRoughness: "diffuse_roughness",
	TextureAmbientOcclusion: "ambient_occlusion",
	TextureUnknown:          "unknown",
}

// String returns the texture type name.
func (t TextureType) String() string {
	if s, ok := textureTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("TextureType(%d)", int(t))
}

// MapMode is the texture addressing mode of one coordinate axis.
type MapMode int

const (
	MapWrap MapMode = iota
	MapClamp
	MapDecal
	MapMirror
)

// TextureRef references a texture file or an embedded texture.
type TextureRef struct {
	// Path is a file path, or "*N" for Scene.Textures[N].
	Path     string
	MapModes [3]MapMode
	UVIndex  int
}

// EmbeddedPrefix marks texture paths referring to embedded textures.
const EmbeddedPrefix = "*"

// EmbeddedIndex returns N for a "*N" path.
func (r TextureRef) EmbeddedIndex() (int, bool) {
	if !strings.HasPrefix(r.Path, EmbeddedPrefix) {
		return 0, false
	}
	n, err := strconv.Atoi(r.Path[len(EmbeddedPrefix):])
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// EmbeddedPath returns the texture path referring to Scene.Textures[index].
func EmbeddedPath(index int) string {
	return EmbeddedPrefix + strconv.Itoa(index)
}

// EmbeddedTexture is a texture stored inside the model file.
//
// A compressed texture has Height 0 and Width bytes of Data in the container
// format named by FormatHint ("png", "jpg", ...). Otherwise Texels holds
// Width*Height RGBA8 texels.
type EmbeddedTexture struct {
	Width      int
	Height     int
	FormatHint string
	Data       []byte
	Texels     []byte
}

// Compressed reports whether the texture is stored in a container format.
func (t *EmbeddedTexture) Compressed() bool {
	return t.Height == 0
}

// SpecularGlossiness holds the factors of the specular-glossiness workflow.
type SpecularGlossiness struct {
	Diffuse    Color
	Specular   Color
	Glossiness *float32
}

// Material holds the properties a source material defines. Properties the
// source omits are nil.
type Material struct {
	Name string

	// PBR
	BaseColor          *Color
	Metallic           *float32
	Roughness          *float32
	SpecularGlossiness *SpecularGlossiness

	// Phong
	Ambient           *Color
	Diffuse           *Color
	Specular          *Color
	Emissive          *Color
	Shininess         *float32
	ShininessStrength *float32

	Opacity     *float32
	AlphaCutoff *float32
	TwoSided    *bool

	Textures map[TextureType]TextureRef
}

// Texture returns the texture reference of type t.
func (m *Material) Texture(t TextureType) (TextureRef, bool) {
	ref, ok := m.Textures[t]
	if !ok || ref.Path == "" {
		return TextureRef{}, false
	}
	return ref, true
}

// SetTexture sets the texture of type t.
func (m *Material) SetTexture(t TextureType, ref TextureRef) {
	if m.Textures == nil {
		m.Textures = make(map[TextureType]TextureRef)
	}
	m.Textures[t] = ref
}

// Camera is a perspective camera in the local space of the node with the same name.
type Camera struct {
	Name     string
	Position [3]float32
	LookAt   [3]float32
	Up       [3]float32
	// HorizontalFOV is the full horizontal angle in radians.
	HorizontalFOV float32
	Aspect        float32
	Near          float32
	Far           float32
}

// LightType classifies a light source.
type LightType int

const (
	LightUndefined LightType = iota
	LightDirectional
	LightPoint
	LightSpot
	LightAmbient
	LightArea
)

// Light is a light source in the local space of the node with the same name.
type Light struct {
	Name      string
	Type      LightType
	Position  [3]float32
	Direction [3]float32
	Up        [3]float32
	Diffuse   [3]float32
	Specular  [3]float32
	Ambient   [3]float32
	// InnerCone and OuterCone are half angles in radians.
	InnerCone float32
	OuterCone float32

	AttenuationConstant  float32
	AttenuationLinear    float32
	AttenuationQuadratic float32
}

// Metadata holds scene-level key/value pairs.
type Metadata map[string]any

// Well-known metadata keys.
const (
	MetaUpAxis       = "UpAxis"
	MetaSourceFormat = "SourceAsset_Format"
	MetaGenerator    = "SourceAsset_Generator"
)

// Int returns an integer value.
func (m Metadata) Int(key string) (int, bool) {
	switch v := m[key].(type) {
	case int:
		return v, true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case uint32:
		return int(v), true
	default:
		return 0, false
	}
}

// Text returns a string value.
func (m Metadata) Text(key string) (string, bool) {
	s, ok := m[key].(string)
	return s, ok
}

// Walk visits every node depth-first, parents before children.
func (s *Scene) Walk(fn func(n *Node, depth int)) {
	if s.Root == nil {
		return
	}
	type item struct {
		node  *Node
		depth int
	}
	stack := []item{{s.Root, 0}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		fn(it.node, it.depth)
		for i := len(it.node.Children) - 1; i >= 0; i-- {
			stack = append(stack, item{it.node.Children[i], it.depth + 1})
		}
	}
}

// Validate checks the cross references of the scene.
func (s *Scene) Validate() error {
	if s.Root == nil {
		return fmt.Errorf("%w: scene has no root node", ErrInvalidScene)
	}
	for i, m := range s.Meshes {
		n := uint32(len(m.Vertices))
		if len(m.Normals) != 0 && len(m.Normals) != len(m.Vertices) {
			return fmt.Errorf("%w: mesh %d has %d normals for %d vertices", ErrInvalidScene, i, len(m.Normals), n)
		}
		for f, face := range m.Faces {
			for _, idx := range face.Indices {
				if idx >= n {
					return fmt.Errorf("%w: mesh %d face %d index %d out of range", ErrInvalidScene, i, f, idx)
				}
			}
		}
	}
	var err error
	s.Walk(func(node *Node, _ int) {
		for _, mi := range node.Meshes {
			if err == nil && (mi < 0 || mi >= len(s.Meshes)) {
				err = fmt.Errorf("%w: node %q references mesh %d", ErrInvalidScene, node.Name, mi)
			}
		}
	})
	return err
}
