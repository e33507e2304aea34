package meshio

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"

	"github.com/Faultbox/modelxchange/internal/logger"
)

// glTF extension names decoded from their raw JSON.
const (
	extLightsPunctual = "KHR_lights_punctual"
	extSpecularGloss  = "KHR_materials_pbrSpecularGlossiness"
)

// gltfBackend reads glTF 2.0 JSON and binary (GLB) files.
type gltfBackend struct{}

func (gltfBackend) readFile(path string) (*Scene, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, err
	}
	return convertGLTF(doc)
}

func (gltfBackend) readMemory(data []byte) (*Scene, error) {
	doc := new(gltf.Document)
	if err := gltf.NewDecoder(bytes.NewReader(data)).Decode(doc); err != nil {
		return nil, err
	}
	return convertGLTF(doc)
}

type gltfSpecularGlossiness struct {
	DiffuseFactor             *[4]float32      `json:"diffuseFactor"`
	SpecularFactor            *[3]float32      `json:"specularFactor"`
	GlossinessFactor          *float32         `json:"glossinessFactor"`
	DiffuseTexture            *gltfTextureInfo `json:"diffuseTexture"`
	SpecularGlossinessTexture *gltfTextureInfo `json:"specularGlossinessTexture"`
}

type gltfTextureInfo struct {
	Index    int `json:"index"`
	TexCoord int `json:"texCoord"`
}

type gltfLights struct {
	Lights []gltfLight `json:"lights"`
}

type gltfLight struct {
	Name      string      `json:"name"`
	Type      string      `json:"type"`
	Color     *[3]float32 `json:"color"`
	Intensity *float32    `json:"intensity"`
	Range     *float32    `json:"range"`
	Spot      *struct {
		InnerConeAngle *float32 `json:"innerConeAngle"`
		OuterConeAngle *float32 `json:"outerConeAngle"`
	} `json:"spot"`
}

type gltfNodeLight struct {
	Light int `json:"light"`
}

// decodeExtension decodes the named extension into v. Extensions without a
// registered decoder are kept by the gltf package as raw JSON.
func decodeExtension(exts gltf.Extensions, name string, v any) bool {
	raw, ok := exts[name]
	if !ok || raw == nil {
		return false
	}
	var data []byte
	switch r := raw.(type) {
	case json.RawMessage:
		data = r
	case []byte:
		data = r
	default:
		var err error
		if data, err = json.Marshal(r); err != nil {
			return false
		}
	}
	if err := json.Unmarshal(data, v); err != nil {
		logger.Warn("invalid glTF extension", zap.String("extension", name), zap.Error(err))
		return false
	}
	return true
}

// gltfConverter carries the lookup tables of one document conversion.
type gltfConverter struct {
	doc   *gltf.Document
	scene *Scene

	// imagePaths maps image index to a texture path: a file URI or "*N".
	imagePaths []string
	// meshes maps a glTF mesh to the scene meshes of its primitives.
	meshes [][]int
	// defaultMaterial is the index of the material used by primitives
	// without one, or -1 until needed.
	defaultMaterial int
	lights          gltfLights
}

func convertGLTF(doc *gltf.Document) (*Scene, error) {
	c := &gltfConverter{
		doc:             doc,
		scene:           &Scene{Metadata: Metadata{MetaSourceFormat: "glTF2"}},
		defaultMaterial: -1,
	}
	if doc.Asset.Generator != "" {
		c.scene.Metadata[MetaGenerator] = doc.Asset.Generator
	}

	if err := c.convertImages(); err != nil {
		return nil, err
	}
	c.convertMaterials()
	if err := c.convertMeshes(); err != nil {
		return nil, err
	}
	decodeExtension(doc.Extensions, extLightsPunctual, &c.lights)
	if err := c.convertNodes(); err != nil {
		return nil, err
	}
	return c.scene, nil
}

func (c *gltfConverter) convertImages() error {
	c.imagePaths = make([]string, len(c.doc.Images))
	for i, img := range c.doc.Images {
		var data []byte
		switch {
		case img.BufferView != nil:
			var err error
			if data, err = c.bufferViewData(*img.BufferView); err != nil {
				return fmt.Errorf("image %d: %w", i, err)
			}
		case img.IsEmbeddedResource():
			var err error
			if data, err = img.MarshalData(); err != nil {
				return fmt.Errorf("image %d: %w", i, err)
			}
		default:
			path, err := url.PathUnescape(img.URI)
			if err != nil {
				path = img.URI
			}
			c.imagePaths[i] = path
			continue
		}

		c.imagePaths[i] = EmbeddedPath(len(c.scene.Textures))
		c.scene.Textures = append(c.scene.Textures, &EmbeddedTexture{
			Width:      len(data),
			FormatHint: strings.TrimPrefix(img.MimeType, "image/"),
			Data:       data,
		})
	}
	return nil
}

func (c *gltfConverter) bufferViewData(index int) ([]byte, error) {
	if index < 0 || index >= len(c.doc.BufferViews) {
		return nil, fmt.Errorf("buffer view %d out of range", index)
	}
	bv := c.doc.BufferViews[index]
	if bv.Buffer < 0 || bv.Buffer >= len(c.doc.Buffers) {
		return nil, fmt.Errorf("buffer %d out of range", bv.Buffer)
	}
	buf := c.doc.Buffers[bv.Buffer].Data
	end := bv.ByteOffset + bv.ByteLength
	if bv.ByteOffset < 0 || end > len(buf) {
		return nil, fmt.Errorf("buffer view %d exceeds buffer %d", index, bv.Buffer)
	}
	return buf[bv.ByteOffset:end], nil
}

// textureRef resolves a glTF texture index to a reference.
func (c *gltfConverter) textureRef(index, texCoord int) (TextureRef, bool) {
	if index < 0 || index >= len(c.doc.Textures) {
		return TextureRef{}, false
	}
	tex := c.doc.Textures[index]
	if tex.Source == nil || *tex.Source < 0 || *tex.Source >= len(c.imagePaths) {
		return TextureRef{}, false
	}
	ref := TextureRef{Path: c.imagePaths[*tex.Source], UVIndex: texCoord}
	if tex.Sampler != nil && *tex.Sampler >= 0 && *tex.Sampler < len(c.doc.Samplers) {
		s := c.doc.Samplers[*tex.Sampler]
		ref.MapModes[0] = gltfMapMode(s.WrapS)
		ref.MapModes[1] = gltfMapMode(s.WrapT)
	}
	return ref, ref.Path != ""
}

func gltfMapMode(w gltf.WrappingMode) MapMode {
	switch w {
	case gltf.WrapClampToEdge:
		return MapClamp
	case gltf.WrapMirroredRepeat:
		return MapMirror
	default:
		return MapWrap
	}
}

func (c *gltfConverter) setTexture(m *Material, t TextureType, index, texCoord int) {
	if ref, ok := c.textureRef(index, texCoord); ok {
		m.SetTexture(t, ref)
	}
}

func (c *gltfConverter) convertMaterials() {
	for _, gm := range c.doc.Materials {
		c.scene.Materials = append(c.scene.Materials, c.convertMaterial(gm))
	}
}

func (c *gltfConverter) convertMaterial(gm *gltf.Material) *Material {
	m := &Material{Name: gm.Name}

	base := White
	metallic, roughness := float32(1), float32(1)
	if pbr := gm.PBRMetallicRoughness; pbr != nil {
		if pbr.BaseColorFactor != nil {
			for i, v := range pbr.BaseColorFactor {
				base[i] = float32(v)
			}
		}
		if pbr.MetallicFactor != nil {
			metallic = float32(*pbr.MetallicFactor)
		}
		if pbr.RoughnessFactor != nil {
			roughness = float32(*pbr.RoughnessFactor)
		}
		if pbr.BaseColorTexture != nil {
			c.setTexture(m, TextureBaseColor, pbr.BaseColorTexture.Index, pbr.BaseColorTexture.TexCoord)
			c.setTexture(m, TextureDiffuse, pbr.BaseColorTexture.Index, pbr.BaseColorTexture.TexCoord)
		}
		if pbr.MetallicRoughnessTexture != nil {
			c.setTexture(m, TextureUnknown, pbr.MetallicRoughnessTexture.Index, pbr.MetallicRoughnessTexture.TexCoord)
		}
	}
	diffuse := base
	opacity := base[3]
	m.BaseColor = &base
	m.Diffuse = &diffuse
	m.Metallic = &metallic
	m.Roughness = &roughness
	m.Opacity = &opacity

	emissive := Color{float32(gm.EmissiveFactor[0]), float32(gm.EmissiveFactor[1]), float32(gm.EmissiveFactor[2]), 1}
	m.Emissive = &emissive

	if gm.NormalTexture != nil && gm.NormalTexture.Index != nil {
		c.setTexture(m, TextureNormals, *gm.NormalTexture.Index, gm.NormalTexture.TexCoord)
	}
	if gm.OcclusionTexture != nil && gm.OcclusionTexture.Index != nil {
		c.setTexture(m, TextureLightmap, *gm.OcclusionTexture.Index, gm.OcclusionTexture.TexCoord)
	}
	if gm.EmissiveTexture != nil {
		c.setTexture(m, TextureEmissive, gm.EmissiveTexture.Index, gm.EmissiveTexture.TexCoord)
	}

	if gm.AlphaMode == gltf.AlphaMask {
		cutoff := float32(0.5)
		if gm.AlphaCutoff != nil {
			cutoff = float32(*gm.AlphaCutoff)
		}
		m.AlphaCutoff = &cutoff
	}

	twoSided := gm.DoubleSided
	m.TwoSided = &twoSided

	var sg gltfSpecularGlossiness
	if decodeExtension(gm.Extensions, extSpecularGloss, &sg) {
		out := &SpecularGlossiness{Diffuse: White, Specular: White}
		if sg.DiffuseFactor != nil {
			out.Diffuse = Color(*sg.DiffuseFactor)
		}
		if sg.SpecularFactor != nil {
			out.Specular = Color{sg.SpecularFactor[0], sg.SpecularFactor[1], sg.SpecularFactor[2], 1}
		}
		glossiness := float32(1)
		if sg.GlossinessFactor != nil {
			glossiness = *sg.GlossinessFactor
		}
		out.Glossiness = &glossiness
		m.SpecularGlossiness = out

		if t := sg.DiffuseTexture; t != nil {
			c.setTexture(m, TextureDiffuse, t.Index, t.TexCoord)
		}
		if t := sg.SpecularGlossinessTexture; t != nil {
			c.setTexture(m, TextureSpecular, t.Index, t.TexCoord)
		}
	}

	return m
}

func (c *gltfConverter) materialIndex(prim *gltf.Primitive) int {
	if prim.Material != nil && *prim.Material >= 0 && *prim.Material < len(c.scene.Materials) {
		return *prim.Material
	}
	if c.defaultMaterial < 0 {
		c.defaultMaterial = len(c.scene.Materials)
		c.scene.Materials = append(c.scene.Materials, c.convertMaterial(&gltf.Material{Name: "DefaultMaterial"}))
	}
	return c.defaultMaterial
}

func (c *gltfConverter) convertMeshes() error {
	c.meshes = make([][]int, len(c.doc.Meshes))
	for mi, gm := range c.doc.Meshes {
		for pi, prim := range gm.Primitives {
			mesh, err := c.convertPrimitive(prim)
			if err != nil {
				return fmt.Errorf("mesh %d primitive %d: %w", mi, pi, err)
			}
			mesh.Name = gm.Name
			c.meshes[mi] = append(c.meshes[mi], len(c.scene.Meshes))
			c.scene.Meshes = append(c.scene.Meshes, mesh)
		}
	}
	return nil
}

func (c *gltfConverter) accessor(index int) (*gltf.Accessor, error) {
	if index < 0 || index >= len(c.doc.Accessors) {
		return nil, fmt.Errorf("accessor %d out of range", index)
	}
	return c.doc.Accessors[index], nil
}

func (c *gltfConverter) convertPrimitive(prim *gltf.Primitive) (*Mesh, error) {
	mesh := &Mesh{MaterialIndex: c.materialIndex(prim)}

	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return nil, fmt.Errorf("%w: primitive has no POSITION attribute", ErrInvalidScene)
	}
	acr, err := c.accessor(posIdx)
	if err != nil {
		return nil, err
	}
	if mesh.Vertices, err = modeler.ReadPosition(c.doc, acr, nil); err != nil {
		return nil, fmt.Errorf("reading positions: %w", err)
	}

	if idx, ok := prim.Attributes[gltf.NORMAL]; ok {
		acr, err := c.accessor(idx)
		if err != nil {
			return nil, err
		}
		if mesh.Normals, err = modeler.ReadNormal(c.doc, acr, nil); err != nil {
			return nil, fmt.Errorf("reading normals: %w", err)
		}
	}

	for ch, name := range []string{gltf.TEXCOORD_0, gltf.TEXCOORD_1} {
		idx, ok := prim.Attributes[name]
		if !ok {
			continue
		}
		acr, err := c.accessor(idx)
		if err != nil {
			return nil, err
		}
		uvs, err := modeler.ReadTextureCoord(c.doc, acr, nil)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		// Stored with a bottom-left origin; FlipUVs restores glTF's top-left.
		coords := make([][3]float32, len(uvs))
		for i, uv := range uvs {
			coords[i] = [3]float32{uv[0], 1 - uv[1], 0}
		}
		mesh.TexCoords[ch] = coords
	}

	var indices []uint32
	if prim.Indices != nil {
		acr, err := c.accessor(*prim.Indices)
		if err != nil {
			return nil, err
		}
		if indices, err = modeler.ReadIndices(c.doc, acr, nil); err != nil {
			return nil, fmt.Errorf("reading indices: %w", err)
		}
	} else {
		indices = make([]uint32, len(mesh.Vertices))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}

	mesh.Faces = gltfFaces(prim.Mode, indices)
	return mesh, nil
}

// gltfFaces assembles faces from an index list according to the primitive mode.
func gltfFaces(mode gltf.PrimitiveMode, idx []uint32) []Face {
	var faces []Face
	face := func(ids ...uint32) {
		faces = append(faces, Face{Indices: ids})
	}

	switch mode {
	case gltf.PrimitivePoints:
		for _, i := range idx {
			face(i)
		}
	case gltf.PrimitiveLines:
		for i := 0; i+1 < len(idx); i += 2 {
			face(idx[i], idx[i+1])
		}
	case gltf.PrimitiveLineStrip, gltf.PrimitiveLineLoop:
		for i := 0; i+1 < len(idx); i++ {
			face(idx[i], idx[i+1])
		}
		if mode == gltf.PrimitiveLineLoop && len(idx) > 2 {
			face(idx[len(idx)-1], idx[0])
		}
	case gltf.PrimitiveTriangleStrip:
		for i := 0; i+2 < len(idx); i++ {
			if i%2 == 0 {
				face(idx[i], idx[i+1], idx[i+2])
			} else {
				face(idx[i+1], idx[i], idx[i+2])
			}
		}
	case gltf.PrimitiveTriangleFan:
		for i := 1; i+1 < len(idx); i++ {
			face(idx[0], idx[i], idx[i+1])
		}
	default:
		for i := 0; i+2 < len(idx); i += 3 {
			face(idx[i], idx[i+1], idx[i+2])
		}
	}
	return faces
}

func (c *gltfConverter) rootNodes() []int {
	if len(c.doc.Scenes) > 0 {
		s := 0
		if c.doc.Scene != nil && *c.doc.Scene >= 0 && *c.doc.Scene < len(c.doc.Scenes) {
			s = *c.doc.Scene
		}
		return c.doc.Scenes[s].Nodes
	}

	isChild := make([]bool, len(c.doc.Nodes))
	for _, n := range c.doc.Nodes {
		for _, ch := range n.Children {
			if ch >= 0 && ch < len(isChild) {
				isChild[ch] = true
			}
		}
	}
	var roots []int
	for i, child := range isChild {
		if !child {
			roots = append(roots, i)
		}
	}
	return roots
}

func (c *gltfConverter) convertNodes() error {
	roots := c.rootNodes()

	type item struct {
		index  int
		parent *Node
	}
	var stack []item

	var root *Node
	if len(roots) == 1 {
		stack = append(stack, item{index: roots[0]})
	} else {
		root = NewNode("ROOT")
		for i := len(roots) - 1; i >= 0; i-- {
			stack = append(stack, item{index: roots[i], parent: root})
		}
	}

	visited := make([]bool, len(c.doc.Nodes))
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if it.index < 0 || it.index >= len(c.doc.Nodes) {
			return fmt.Errorf("%w: node %d out of range", ErrInvalidScene, it.index)
		}
		if visited[it.index] {
			return fmt.Errorf("%w: node %d is reachable more than once", ErrInvalidScene, it.index)
		}
		visited[it.index] = true

		node := c.convertNode(it.index)
		if it.parent == nil {
			root = node
		} else {
			it.parent.Children = append(it.parent.Children, node)
		}

		children := c.doc.Nodes[it.index].Children
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, item{index: children[i], parent: node})
		}
	}

	if root == nil {
		root = NewNode("ROOT")
	}
	c.scene.Root = root
	return nil
}

func (c *gltfConverter) convertNode(index int) *Node {
	gn := c.doc.Nodes[index]
	name := gn.Name
	if name == "" {
		name = fmt.Sprintf("node_%d", index)
	}

	node := &Node{Name: name, Transform: gltfTransform(gn)}
	if gn.Mesh != nil && *gn.Mesh >= 0 && *gn.Mesh < len(c.meshes) {
		node.Meshes = append(node.Meshes, c.meshes[*gn.Mesh]...)
	}

	if gn.Camera != nil && *gn.Camera >= 0 && *gn.Camera < len(c.doc.Cameras) {
		if cam := gltfCamera(name, c.doc.Cameras[*gn.Camera]); cam != nil {
			c.scene.Cameras = append(c.scene.Cameras, cam)
		} else {
			logger.Debug("skipping orthographic glTF camera", zap.String("node", name))
		}
	}

	var nl gltfNodeLight
	if decodeExtension(gn.Extensions, extLightsPunctual, &nl) {
		if nl.Light >= 0 && nl.Light < len(c.lights.Lights) {
			c.scene.Lights = append(c.scene.Lights, gltfPunctualLight(name, c.lights.Lights[nl.Light]))
		}
	}

	return node
}

// gltfTransform returns the node's local transform as a row-major matrix.
func gltfTransform(n *gltf.Node) [16]float32 {
	var m mgl64.Mat4
	if n.Matrix != ([16]float64{}) && mgl64.Mat4(n.Matrix) != mgl64.Ident4() {
		m = mgl64.Mat4(n.Matrix)
	} else {
		scale := mgl64.Vec3{1, 1, 1}
		if n.Scale != ([3]float64{}) {
			scale = mgl64.Vec3(n.Scale)
		}
		rot := mgl64.QuatIdent()
		if n.Rotation != ([4]float64{}) {
			rot = mgl64.Quat{W: n.Rotation[3], V: mgl64.Vec3{n.Rotation[0], n.Rotation[1], n.Rotation[2]}}.Normalize()
		}
		t := n.Translation
		m = mgl64.Translate3D(t[0], t[1], t[2]).Mul4(rot.Mat4()).Mul4(mgl64.Scale3D(scale[0], scale[1], scale[2]))
	}

	// mgl64 is column-major.
	var out [16]float32
	for r := 0; r < 4; r++ {
		for col := 0; col < 4; col++ {
			out[r*4+col] = float32(m[col*4+r])
		}
	}
	return out
}

func gltfCamera(name string, gc *gltf.Camera) *Camera {
	p := gc.Perspective
	if p == nil {
		return nil
	}
	cam := &Camera{
		Name:   name,
		LookAt: [3]float32{0, 0, -1},
		Up:     [3]float32{0, 1, 0},
		Near:   float32(p.Znear),
		Far:    1000,
	}
	if p.Zfar != nil {
		cam.Far = float32(*p.Zfar)
	}
	aspect := 1.0
	if p.AspectRatio != nil && *p.AspectRatio > 0 {
		aspect = *p.AspectRatio
		cam.Aspect = float32(aspect)
	}
	cam.HorizontalFOV = float32(2 * math.Atan(math.Tan(p.Yfov/2)*aspect))
	return cam
}

func gltfPunctualLight(name string, src gltfLight) *Light {
	l := &Light{
		Name:                 name,
		Direction:            [3]float32{0, 0, -1},
		Up:                   [3]float32{0, 1, 0},
		Diffuse:              [3]float32{1, 1, 1},
		AttenuationQuadratic: 1,
	}
	intensity := float32(1)
	if src.Intensity != nil {
		intensity = *src.Intensity
	}
	if src.Color != nil {
		l.Diffuse = *src.Color
	}
	for i := range l.Diffuse {
		l.Diffuse[i] *= intensity
	}
	l.Specular = l.Diffuse

	switch src.Type {
	case "directional":
		l.Type = LightDirectional
	case "point":
		l.Type = LightPoint
	case "spot":
		l.Type = LightSpot
		l.InnerCone = 0
		l.OuterCone = math.Pi / 4
		if src.Spot != nil {
			if src.Spot.InnerConeAngle != nil {
				l.InnerCone = *src.Spot.InnerConeAngle
			}
			if src.Spot.OuterConeAngle != nil {
				l.OuterCone = *src.Spot.OuterConeAngle
			}
		}
	default:
		l.Type = LightUndefined
	}
	return l
}
