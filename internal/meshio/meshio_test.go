package meshio

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestExtensionList(t *testing.T) {
	if got := ExtensionList(); got != "*.gltf;*.glb;*.obj" {
		t.Errorf("unexpected extension list %q", got)
	}

	tests := []struct {
		ext  string
		want bool
	}{
		{"gltf", true},
		{".GLB", true},
		{"*.obj", true},
		{"fbx", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsExtensionSupported(tt.ext); got != tt.want {
			t.Errorf("IsExtensionSupported(%q) = %v, want %v", tt.ext, got, tt.want)
		}
	}
}

func TestReadMemoryUnsupported(t *testing.T) {
	_, err := NewImporter().ReadMemory([]byte("solid"), 0, "stl")
	if !errors.Is(err, ErrUnsupportedExtension) {
		t.Errorf("expected ErrUnsupportedExtension, got %v", err)
	}
}

const quadOBJ = `# unit quad
mtllib quad.mtl
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vt 0 0
vt 1 0
vt 1 1
vt 0 1
o quad
usemtl painted
f 1/1 2/2 3/3 4/4
`

const quadMTL = `newmtl painted
Kd 0.8 0.1 0.1
Ks 0.5 0.5 0.5
Ns 32
d 0.75
map_Kd -clamp on textures/paint.png
`

func TestReadOBJFile(t *testing.T) {
	dir := t.TempDir()
	objPath := filepath.Join(dir, "quad.obj")
	if err := os.WriteFile(objPath, []byte(quadOBJ), 0644); err != nil {
		t.Fatalf("failed to write obj: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "quad.mtl"), []byte(quadMTL), 0644); err != nil {
		t.Fatalf("failed to write mtl: %v", err)
	}

	scene, err := NewImporter().ReadFile(objPath, 0)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}

	if scene.Root.Name != "quad" || len(scene.Root.Children) != 1 {
		t.Fatalf("unexpected hierarchy: root %q with %d children", scene.Root.Name, len(scene.Root.Children))
	}
	if len(scene.Meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(scene.Meshes))
	}
	mesh := scene.Meshes[0]
	if len(mesh.Vertices) != 4 || len(mesh.Faces) != 1 || len(mesh.Faces[0].Indices) != 4 {
		t.Errorf("unexpected geometry: %d vertices, %d faces", len(mesh.Vertices), len(mesh.Faces))
	}
	if mesh.HasNormals() {
		t.Error("expected no normals")
	}
	if !mesh.HasTexCoords(0) {
		t.Error("expected texture coordinates")
	}

	mat := scene.Materials[mesh.MaterialIndex]
	if mat.Name != "painted" {
		t.Errorf("unexpected material %q", mat.Name)
	}
	if mat.Diffuse == nil || mat.Diffuse[0] != 0.8 || mat.Diffuse[3] != 0.75 {
		t.Errorf("unexpected diffuse %v", mat.Diffuse)
	}
	if mat.Shininess == nil || *mat.Shininess != 32 {
		t.Errorf("unexpected shininess %v", mat.Shininess)
	}
	if mat.BaseColor != nil {
		t.Error("expected no base color for an MTL material")
	}
	ref, ok := mat.Texture(TextureDiffuse)
	if !ok || ref.Path != "textures/paint.png" || ref.MapModes[0] != MapClamp {
		t.Errorf("unexpected diffuse texture %+v", ref)
	}
	if scene.Metadata[MetaSourceFormat] != "Wavefront OBJ" {
		t.Errorf("unexpected metadata %v", scene.Metadata)
	}
}

func TestReadOBJMemoryPostProcess(t *testing.T) {
	flags := Triangulate | FlipUVs | GenNormals
	scene, err := NewImporter().ReadMemory([]byte(quadOBJ), flags, ".obj")
	if err != nil {
		t.Fatalf("ReadMemory failed: %v", err)
	}

	// Without the library the group falls back to a default material.
	if len(scene.Materials) != 1 || scene.Materials[0].Name != "DefaultMaterial" {
		t.Fatalf("unexpected materials %v", scene.Materials)
	}

	mesh := scene.Meshes[0]
	if len(mesh.Faces) != 2 {
		t.Fatalf("expected 2 triangles, got %d", len(mesh.Faces))
	}
	for _, f := range mesh.Faces {
		if len(f.Indices) != 3 {
			t.Errorf("expected triangle, got %d indices", len(f.Indices))
		}
	}
	if !mesh.HasNormals() {
		t.Fatal("expected generated normals")
	}
	for i, n := range mesh.Normals {
		if n != [3]float32{0, 0, 1} {
			t.Errorf("normal %d = %v, want +Z", i, n)
		}
	}
	// vt 0 0 is flipped to v = 1.
	found := false
	for _, uv := range mesh.TexCoords[0] {
		if uv[0] == 0 && uv[1] == 1 {
			found = true
		}
	}
	if !found {
		t.Errorf("expected flipped texture coordinate, got %v", mesh.TexCoords[0])
	}
}

func TestReadOBJInvalid(t *testing.T) {
	_, err := NewImporter().ReadMemory([]byte("v 0 0 0\nf 1 2 3\n"), 0, "obj")
	if !errors.Is(err, ErrImport) {
		t.Errorf("expected ErrImport, got %v", err)
	}
}

func TestTriangulateFan(t *testing.T) {
	m := &Mesh{
		Vertices: make([][3]float32, 5),
		Faces: []Face{
			{Indices: []uint32{0, 1, 2, 3, 4}},
			{Indices: []uint32{0, 1}},
		},
	}
	triangulate(m)

	want := [][]uint32{{0, 1, 2}, {0, 2, 3}, {0, 3, 4}, {0, 1}}
	if len(m.Faces) != len(want) {
		t.Fatalf("expected %d faces, got %d", len(want), len(m.Faces))
	}
	for i, f := range m.Faces {
		if fmt.Sprint(f.Indices) != fmt.Sprint(want[i]) {
			t.Errorf("face %d = %v, want %v", i, f.Indices, want[i])
		}
	}
}

// cubeCorner is two faces of a cube sharing the edge x=1,z=0..1.
func cubeCorner() *Mesh {
	return &Mesh{
		Vertices: [][3]float32{
			{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1}, // front, +Z
			{1, 0, 0}, {1, 1, 0}, // right side, +X
		},
		Faces: []Face{
			{Indices: []uint32{0, 1, 2}},
			{Indices: []uint32{0, 2, 3}},
			{Indices: []uint32{1, 4, 5}},
			{Indices: []uint32{1, 5, 2}},
		},
	}
}

func TestSmoothNormalsCrease(t *testing.T) {
	m := cubeCorner()
	smoothNormals(m, 80)

	// A 90 degree edge is sharper than the crease angle: the shared
	// vertices are split and keep their face normals.
	for fi, f := range m.Faces {
		want := [3]float32{0, 0, 1}
		if fi >= 2 {
			want = [3]float32{1, 0, 0}
		}
		for _, idx := range f.Indices {
			if n := m.Normals[idx]; !approxVec(n, want) {
				t.Errorf("face %d normal %v, want %v", fi, n, want)
			}
		}
	}
	if len(m.Vertices) != 8 {
		t.Errorf("expected shared edge vertices to be split into 8 vertices, got %d", len(m.Vertices))
	}

	// Below the limit the corner at (1,0,1) averages the front face with
	// both side faces.
	m = cubeCorner()
	smoothNormals(m, 100)
	shared := m.Normals[m.Faces[0].Indices[1]]
	s := float32(1 / math.Sqrt(5))
	if !approxVec(shared, [3]float32{2 * s, 0, s}) {
		t.Errorf("expected averaged normal on the shared edge, got %v", shared)
	}
}

func approxVec(a, b [3]float32) bool {
	for i := range a {
		if math.Abs(float64(a[i]-b[i])) > 1e-5 {
			return false
		}
	}
	return true
}

func TestPostProcessString(t *testing.T) {
	if s := (Triangulate | GenNormals).String(); s != "Triangulate|GenNormals" {
		t.Errorf("unexpected flag string %q", s)
	}
	if s := PostProcess(0).String(); s != "none" {
		t.Errorf("unexpected flag string %q", s)
	}
}

// gltfTriangle returns a glTF document with one textured triangle, a camera
// and a punctual light, all buffers embedded as data URIs.
func gltfTriangle(t *testing.T) []byte {
	t.Helper()

	var buf bytes.Buffer
	positions := []float32{0, 0, 0, 1, 0, 0, 0, 1, 0}
	uvs := []float32{0, 0, 1, 0, 0, 0.25}
	indices := []uint16{0, 1, 2, 0}
	for _, v := range []any{positions, uvs, indices} {
		if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
			t.Fatalf("failed to write buffer: %v", err)
		}
	}
	data := base64.StdEncoding.EncodeToString(buf.Bytes())
	image := base64.StdEncoding.EncodeToString([]byte("not really a png"))

	return []byte(fmt.Sprintf(`{
  "asset": {"version": "2.0", "generator": "unit test"},
  "extensionsUsed": ["KHR_lights_punctual", "KHR_materials_pbrSpecularGlossiness"],
  "extensions": {"KHR_lights_punctual": {"lights": [
    {"type": "spot", "color": [1, 0.5, 0], "intensity": 2, "spot": {"outerConeAngle": 0.5}}
  ]}},
  "scene": 0,
  "scenes": [{"nodes": [0, 1, 2]}],
  "nodes": [
    {"name": "tri", "mesh": 0, "translation": [1, 2, 3]},
    {"name": "cam", "camera": 0},
    {"name": "lamp", "extensions": {"KHR_lights_punctual": {"light": 0}}}
  ],
  "cameras": [{"type": "perspective", "perspective": {"yfov": 1.0, "aspectRatio": 2.0, "znear": 0.1, "zfar": 50}}],
  "meshes": [{"name": "tri", "primitives": [{"attributes": {"POSITION": 0, "TEXCOORD_0": 1}, "indices": 2, "material": 0}]}],
  "materials": [{
    "name": "shiny",
    "doubleSided": true,
    "alphaMode": "MASK",
    "pbrMetallicRoughness": {"baseColorFactor": [0.5, 0.5, 0.5, 1], "metallicFactor": 0.25, "baseColorTexture": {"index": 0}},
    "extensions": {"KHR_materials_pbrSpecularGlossiness": {"specularFactor": [0.2, 0.3, 0.4], "glossinessFactor": 0.6}}
  }],
  "textures": [{"source": 0, "sampler": 0}],
  "samplers": [{"wrapS": 33071, "wrapT": 33648}],
  "images": [{"uri": "data:image/png;base64,%s"}],
  "buffers": [{"byteLength": %d, "uri": "data:application/octet-stream;base64,%s"}],
  "bufferViews": [
    {"buffer": 0, "byteOffset": 0, "byteLength": 36},
    {"buffer": 0, "byteOffset": 36, "byteLength": 24},
    {"buffer": 0, "byteOffset": 60, "byteLength": 6}
  ],
  "accessors": [
    {"bufferView": 0, "componentType": 5126, "count": 3, "type": "VEC3", "min": [0, 0, 0], "max": [1, 1, 0]},
    {"bufferView": 1, "componentType": 5126, "count": 3, "type": "VEC2"},
    {"bufferView": 2, "componentType": 5123, "count": 3, "type": "SCALAR"}
  ]
}`, image, buf.Len(), data))
}

func TestReadGLTFMemory(t *testing.T) {
	scene, err := NewImporter().ReadMemory(gltfTriangle(t), FlipUVs, "gltf")
	if err != nil {
		t.Fatalf("ReadMemory failed: %v", err)
	}

	if scene.Root.Name != "ROOT" || len(scene.Root.Children) != 3 {
		t.Fatalf("unexpected root %q with %d children", scene.Root.Name, len(scene.Root.Children))
	}
	tri := scene.Root.Children[0]
	if tri.Name != "tri" || len(tri.Meshes) != 1 {
		t.Fatalf("unexpected first node %+v", tri)
	}
	if tri.Transform[3] != 1 || tri.Transform[7] != 2 || tri.Transform[11] != 3 {
		t.Errorf("expected row-major translation, got %v", tri.Transform)
	}

	mesh := scene.Meshes[0]
	if len(mesh.Vertices) != 3 || len(mesh.Faces) != 1 {
		t.Fatalf("unexpected geometry: %d vertices, %d faces", len(mesh.Vertices), len(mesh.Faces))
	}
	if mesh.TexCoords[0][2][1] != 0.25 {
		t.Errorf("expected FlipUVs to restore v=0.25, got %v", mesh.TexCoords[0][2])
	}

	mat := scene.Materials[mesh.MaterialIndex]
	if mat.BaseColor == nil || mat.BaseColor[0] != 0.5 {
		t.Errorf("unexpected base color %v", mat.BaseColor)
	}
	if mat.Metallic == nil || *mat.Metallic != 0.25 {
		t.Errorf("unexpected metallic %v", mat.Metallic)
	}
	if mat.TwoSided == nil || !*mat.TwoSided {
		t.Error("expected two-sided material")
	}
	if mat.AlphaCutoff == nil || *mat.AlphaCutoff != 0.5 {
		t.Errorf("expected default alpha cutoff, got %v", mat.AlphaCutoff)
	}
	sg := mat.SpecularGlossiness
	if sg == nil || sg.Glossiness == nil || *sg.Glossiness != 0.6 || sg.Specular[2] != 0.4 {
		t.Errorf("unexpected specular-glossiness %+v", sg)
	}

	ref, ok := mat.Texture(TextureDiffuse)
	if !ok || ref.Path != "*0" {
		t.Fatalf("expected embedded diffuse texture, got %+v", ref)
	}
	if ref.MapModes[0] != MapClamp || ref.MapModes[1] != MapMirror {
		t.Errorf("unexpected map modes %v", ref.MapModes)
	}
	if idx, ok := ref.EmbeddedIndex(); !ok || idx != 0 {
		t.Errorf("unexpected embedded index %d", idx)
	}
	tex := scene.Textures[0]
	if !tex.Compressed() || tex.FormatHint != "png" || string(tex.Data) != "not really a png" {
		t.Errorf("unexpected embedded texture %+v", tex)
	}

	if len(scene.Cameras) != 1 || scene.Cameras[0].Name != "cam" {
		t.Fatalf("unexpected cameras %v", scene.Cameras)
	}
	cam := scene.Cameras[0]
	wantFOV := 2 * math.Atan(math.Tan(0.5)*2)
	if math.Abs(float64(cam.HorizontalFOV)-wantFOV) > 1e-5 {
		t.Errorf("horizontal fov = %f, want %f", cam.HorizontalFOV, wantFOV)
	}
	if cam.Aspect != 2 || cam.Far != 50 {
		t.Errorf("unexpected camera %+v", cam)
	}

	if len(scene.Lights) != 1 {
		t.Fatalf("expected 1 light, got %d", len(scene.Lights))
	}
	light := scene.Lights[0]
	if light.Name != "lamp" || light.Type != LightSpot {
		t.Errorf("unexpected light %+v", light)
	}
	if light.Diffuse != [3]float32{2, 1, 0} || light.OuterCone != 0.5 {
		t.Errorf("unexpected light values %+v", light)
	}
	if gen, _ := scene.Metadata.Text(MetaGenerator); gen != "unit test" {
		t.Errorf("unexpected generator %q", gen)
	}
}

func TestSceneValidate(t *testing.T) {
	scene := &Scene{
		Root:   NewNode("root"),
		Meshes: []*Mesh{{Vertices: make([][3]float32, 2), Faces: []Face{{Indices: []uint32{0, 1, 2}}}}},
	}
	if err := scene.Validate(); !errors.Is(err, ErrInvalidScene) {
		t.Errorf("expected ErrInvalidScene for out of range index, got %v", err)
	}

	scene.Meshes[0].Faces[0].Indices = []uint32{0, 1}
	scene.Root.Meshes = []int{3}
	if err := scene.Validate(); !errors.Is(err, ErrInvalidScene) {
		t.Errorf("expected ErrInvalidScene for bad mesh reference, got %v", err)
	}

	scene.Root.Meshes = []int{0}
	if err := scene.Validate(); err != nil {
		t.Errorf("unexpected error %v", err)
	}
}

func TestMetadataInt(t *testing.T) {
	md := Metadata{MetaUpAxis: int32(2), "name": "x"}
	if v, ok := md.Int(MetaUpAxis); !ok || v != 2 {
		t.Errorf("expected 2, got %d", v)
	}
	if _, ok := md.Int("name"); ok {
		t.Error("expected string value not to be an int")
	}
}
