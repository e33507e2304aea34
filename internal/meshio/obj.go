package meshio

import (
	"bytes"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/modelxchange/internal/logger"
	"github.com/Faultbox/modelxchange/pkg/formats"
)

// objBackend reads Wavefront OBJ files and their MTL material libraries.
type objBackend struct{}

func (objBackend) readFile(path string) (*Scene, error) {
	obj, err := formats.ParseOBJFile(path)
	if err != nil {
		return nil, err
	}

	var materials []*formats.MTLMaterial
	dir := filepath.Dir(path)
	for _, lib := range obj.MaterialLibs {
		libPath := filepath.Join(dir, filepath.FromSlash(strings.ReplaceAll(lib, "\\", "/")))
		mtls, err := formats.ParseMTLFile(libPath)
		if err != nil {
			logger.Warn("skipping material library", zap.String("library", libPath), zap.Error(err))
			continue
		}
		materials = append(materials, mtls...)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return convertOBJ(name, obj, materials), nil
}

func (objBackend) readMemory(data []byte) (*Scene, error) {
	obj, err := formats.ParseOBJ(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if len(obj.MaterialLibs) > 0 {
		logger.Debug("material libraries are not read from memory", zap.Strings("libraries", obj.MaterialLibs))
	}
	return convertOBJ("obj", obj, nil), nil
}

func convertOBJ(name string, obj *formats.OBJ, mtls []*formats.MTLMaterial) *Scene {
	scene := &Scene{
		Root:     NewNode(name),
		Metadata: Metadata{MetaSourceFormat: "Wavefront OBJ"},
	}

	byName := make(map[string]int, len(mtls))
	for _, mtl := range mtls {
		if _, dup := byName[mtl.Name]; dup {
			continue
		}
		byName[mtl.Name] = len(scene.Materials)
		scene.Materials = append(scene.Materials, convertMTL(mtl))
	}
	defaultMaterial := -1

	for _, g := range obj.Groups {
		mi, ok := byName[g.Material]
		if !ok {
			if g.Material != "" {
				logger.Warn("OBJ group uses unknown material", zap.String("group", g.Name), zap.String("material", g.Material))
			}
			if defaultMaterial < 0 {
				defaultMaterial = len(scene.Materials)
				diffuse := Color{0.6, 0.6, 0.6, 1}
				scene.Materials = append(scene.Materials, &Material{Name: "DefaultMaterial", Diffuse: &diffuse})
			}
			mi = defaultMaterial
		}

		mesh := objMesh(obj, g)
		mesh.MaterialIndex = mi

		node := NewNode(g.Name)
		node.Meshes = []int{len(scene.Meshes)}
		scene.Meshes = append(scene.Meshes, mesh)
		scene.Root.Children = append(scene.Root.Children, node)
	}

	return scene
}

// objMesh builds an indexed mesh from a group, creating one vertex per
// distinct (position, texcoord, normal) corner.
func objMesh(obj *formats.OBJ, g *formats.OBJGroup) *Mesh {
	mesh := &Mesh{Name: g.Name}

	allNormals, allTexCoords := true, true
	for _, f := range g.Faces {
		for _, c := range f.Corners {
			allNormals = allNormals && c.VN >= 0
			allTexCoords = allTexCoords && c.VT >= 0
		}
	}

	remap := make(map[formats.OBJCorner]uint32)
	var texCoords [][3]float32
	for _, f := range g.Faces {
		face := Face{Indices: make([]uint32, len(f.Corners))}
		for i, c := range f.Corners {
			if !allNormals {
				c.VN = -1
			}
			if !allTexCoords {
				c.VT = -1
			}
			idx, ok := remap[c]
			if !ok {
				idx = uint32(len(mesh.Vertices))
				remap[c] = idx
				mesh.Vertices = append(mesh.Vertices, obj.Positions[c.V])
				if allNormals {
					mesh.Normals = append(mesh.Normals, obj.Normals[c.VN])
				}
				if allTexCoords {
					texCoords = append(texCoords, obj.TexCoords[c.VT])
				}
			}
			face.Indices[i] = idx
		}
		mesh.Faces = append(mesh.Faces, face)
	}
	mesh.TexCoords[0] = texCoords
	return mesh
}

func mtlColor(c *[3]float32) *Color {
	if c == nil {
		return nil
	}
	return &Color{c[0], c[1], c[2], 1}
}

func convertMTL(mtl *formats.MTLMaterial) *Material {
	m := &Material{
		Name:      mtl.Name,
		Ambient:   mtlColor(mtl.Ambient),
		Diffuse:   mtlColor(mtl.Diffuse),
		Specular:  mtlColor(mtl.Specular),
		Emissive:  mtlColor(mtl.Emissive),
		Shininess: mtl.Shininess,
		Opacity:   mtl.Dissolve,
		Metallic:  mtl.Metallic,
		Roughness: mtl.Roughness,
	}
	if m.Diffuse != nil && mtl.Dissolve != nil {
		m.Diffuse[3] = *mtl.Dissolve
	}

	for _, t := range []struct {
		typ TextureType
		tex *formats.MTLTexture
	}{
		{TextureDiffuse, mtl.MapDiffuse},
		{TextureSpecular, mtl.MapSpecular},
		{TextureAmbient, mtl.MapAmbient},
		{TextureEmissive, mtl.MapEmissive},
		{TextureShininess, mtl.MapShininess},
		{TextureOpacity, mtl.MapDissolve},
		{TextureHeight, mtl.MapBump},
		{TextureNormals, mtl.MapNormal},
	} {
		if t.tex == nil || t.tex.Path == "" {
			continue
		}
		ref := TextureRef{Path: t.tex.Path}
		if t.tex.Clamp {
			ref.MapModes = [3]MapMode{MapClamp, MapClamp, MapClamp}
		}
		m.SetTexture(t.typ, ref)
	}
	return m
}
