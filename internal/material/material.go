// Package material turns imported materials into pipeline and descriptor
// state for the PBR and Phong shaders.
package material

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/modelxchange/internal/meshio"
	"github.com/Faultbox/modelxchange/pkg/gpu"
)

// Workflow is the shading model chosen for a material.
type Workflow int

const (
	WorkflowPhong Workflow = iota
	WorkflowMetallicRoughness
	WorkflowSpecularGlossiness
)

// String returns the workflow name.
func (w Workflow) String() string {
	switch w {
	case WorkflowMetallicRoughness:
		return "metallic-roughness"
	case WorkflowSpecularGlossiness:
		return "specular-glossiness"
	default:
		return "phong"
	}
}

// PBR reports whether the workflow uses the PBR shader.
func (w Workflow) PBR() bool {
	return w != WorkflowPhong
}

// Shader defines.
const (
	DefineDiffuseMap         = "DIFFUSE_MAP"
	DefineEmissiveMap        = "EMISSIVE_MAP"
	DefineLightmapMap        = "LIGHTMAP_MAP"
	DefineNormalMap          = "NORMAL_MAP"
	DefineMetallRoughnessMap = "METALLROUGHNESS_MAP"
	DefineSpecularMap        = "SPECULAR_MAP"
	DefineTwoSided           = "TWO_SIDED"
	DefineWorkflowSpecGloss  = "WORKFLOW_SPECGLOSS"
)

const (
	// shininessToGlossiness converts a Phong exponent to a glossiness factor.
	shininessToGlossiness = 1000
	// minShininess is the exponent below which a material has no highlight.
	minShininess = 0.01
)

// Slot is a texture binding of a material.
type Slot struct {
	Binding uint32
	Define  string
	// Types lists the texture types that may fill the slot, in preference order.
	Types []meshio.TextureType
	// Ref is the texture chosen for the slot.
	Ref  meshio.TextureRef
	Type meshio.TextureType
	// Image is set once the texture is resolved.
	Image gpu.SamplerImage
}

var (
	slotDiffuse = Slot{Binding: gpu.DiffuseMapBinding, Define: DefineDiffuseMap,
		Types: []meshio.TextureType{meshio.TextureDiffuse, meshio.TextureBaseColor}}
	slotEmissive = Slot{Binding: gpu.EmissiveMapBinding, Define: DefineEmissiveMap,
		Types: []meshio.TextureType{meshio.TextureEmissive}}
	slotLightmap = Slot{Binding: gpu.LightMapBinding, Define: DefineLightmapMap,
		Types: []meshio.TextureType{meshio.TextureLightmap}}
	slotLightmapOrAmbient = Slot{Binding: gpu.LightMapBinding, Define: DefineLightmapMap,
		Types: []meshio.TextureType{meshio.TextureLightmap, meshio.TextureAmbient}}
	slotNormal = Slot{Binding: gpu.NormalMapBinding, Define: DefineNormalMap,
		Types: []meshio.TextureType{meshio.TextureNormals}}
	slotMetallicRoughness = Slot{Binding: gpu.MetallicRoughnessMapBinding, Define: DefineMetallRoughnessMap,
		Types: []meshio.TextureType{meshio.TextureUnknown}}
	slotSpecular = Slot{Binding: gpu.SpecularMapBinding, Define: DefineSpecularMap,
		Types: []meshio.TextureType{meshio.TextureSpecular}}
)

// pbrSlots and phongSlots are in descriptor order.
var (
	pbrSlots   = []Slot{slotDiffuse, slotEmissive, slotLightmap, slotNormal, slotMetallicRoughness, slotSpecular}
	phongSlots = []Slot{slotDiffuse, slotEmissive, slotLightmapOrAmbient, slotNormal, slotSpecular}
)

// Descriptor is the resolved form of one material.
type Descriptor struct {
	Name     string
	Workflow Workflow
	PBR      gpu.PBRMaterial
	Phong    gpu.PhongMaterial
	TwoSided bool
	// Slots holds the texture slots with a texture reference. After
	// resolution only slots with an image remain.
	Slots []Slot

	source *meshio.Material
}

// SelectWorkflow picks the shading model of m. A material with
// specular-glossiness factors uses that workflow; one with only a base color
// uses metallic-roughness; anything else is Phong.
func SelectWorkflow(m *meshio.Material) Workflow {
	switch {
	case m.SpecularGlossiness != nil:
		return WorkflowSpecularGlossiness
	case m.BaseColor != nil:
		return WorkflowMetallicRoughness
	default:
		return WorkflowPhong
	}
}

func vec4(c meshio.Color) mgl32.Vec4 {
	return mgl32.Vec4(c)
}

// Describe computes the workflow, factors and candidate texture slots of m.
// twoSided forces two-sided rendering; otherwise the material decides.
func Describe(m *meshio.Material, twoSided bool) *Descriptor {
	d := &Descriptor{
		Name:     m.Name,
		Workflow: SelectWorkflow(m),
		TwoSided: twoSided || (m.TwoSided != nil && *m.TwoSided),
		source:   m,
	}

	slots := phongSlots
	if d.Workflow.PBR() {
		slots = pbrSlots
		d.describePBR(m)
	} else {
		d.describePhong(m)
	}

	for _, s := range slots {
		for _, t := range s.Types {
			if ref, ok := m.Texture(t); ok {
				s.Ref, s.Type = ref, t
				d.Slots = append(d.Slots, s)
				break
			}
		}
	}
	return d
}

func (d *Descriptor) describePBR(m *meshio.Material) {
	d.PBR = gpu.DefaultPBRMaterial()

	if sg := m.SpecularGlossiness; sg != nil {
		d.PBR.DiffuseFactor = vec4(sg.Diffuse)
		d.PBR.SpecularFactor = mgl32.Vec4{sg.Specular[0], sg.Specular[1], sg.Specular[2], d.PBR.SpecularFactor[3]}
		switch {
		case sg.Glossiness != nil:
			d.PBR.SpecularFactor[3] = *sg.Glossiness
		case m.Shininess != nil:
			d.PBR.SpecularFactor[3] = *m.Shininess / shininessToGlossiness
		}
	} else {
		if m.BaseColor != nil {
			d.PBR.BaseColorFactor = vec4(*m.BaseColor)
		}
		if m.Metallic != nil {
			d.PBR.MetallicFactor = *m.Metallic
		}
		if m.Roughness != nil {
			d.PBR.RoughnessFactor = *m.Roughness
		}
	}

	if m.Emissive != nil {
		d.PBR.EmissiveFactor = vec4(*m.Emissive)
	}
	if m.AlphaCutoff != nil {
		d.PBR.AlphaMaskCutoff = *m.AlphaCutoff
	}
}

func (d *Descriptor) describePhong(m *meshio.Material) {
	d.Phong = gpu.DefaultPhongMaterial()

	if m.Ambient != nil {
		d.Phong.Ambient = vec4(*m.Ambient)
	}
	if m.Diffuse != nil {
		d.Phong.Diffuse = vec4(*m.Diffuse)
	}
	if m.Specular != nil {
		d.Phong.Specular = vec4(*m.Specular)
	}
	if m.Emissive != nil {
		d.Phong.Emissive = vec4(*m.Emissive)
	}

	if m.Shininess == nil {
		d.Phong.Shininess = 0
		d.Phong.Specular = mgl32.Vec4{}
	} else {
		strength := float32(1)
		if m.ShininessStrength != nil {
			strength = *m.ShininessStrength
		}
		d.Phong.Shininess = *m.Shininess * strength
		if d.Phong.Shininess < minShininess {
			d.Phong.Shininess = 0
			d.Phong.Specular = mgl32.Vec4{}
		}
	}

	if m.AlphaCutoff != nil {
		d.Phong.AlphaMaskCutoff = *m.AlphaCutoff
	}
}

// finish applies the rules that depend on which slots resolved.
func (d *Descriptor) finish() {
	if d.Workflow.PBR() {
		return
	}
	m := d.source
	white := mgl32.Vec4{1, 1, 1, 1}
	for _, s := range d.Slots {
		switch {
		case s.Binding == gpu.DiffuseMapBinding && m.Diffuse == nil:
			d.Phong.Diffuse = white
		case s.Binding == gpu.EmissiveMapBinding && m.Emissive == nil:
			d.Phong.Emissive = white
		case s.Binding == gpu.SpecularMapBinding && m.Specular == nil:
			d.Phong.Specular = white
		}
	}
}

// Defines returns the shader defines of the descriptor in a stable order.
func (d *Descriptor) Defines() []string {
	var defines []string
	for _, s := range d.Slots {
		defines = append(defines, s.Define)
	}
	if d.Workflow == WorkflowSpecularGlossiness {
		defines = append(defines, DefineWorkflowSpecGloss)
	}
	if d.TwoSided {
		defines = append(defines, DefineTwoSided)
	}
	return defines
}

// Uniform returns the value bound at gpu.MaterialBinding.
func (d *Descriptor) Uniform() any {
	if d.Workflow.PBR() {
		return d.PBR
	}
	return d.Phong
}

// BindState builds the pipeline and descriptor set of the descriptor.
// Every call builds new objects; use the pipeline key to share them.
func (d *Descriptor) BindState() gpu.BindState {
	shading := gpu.ShadingPhong
	if d.Workflow.PBR() {
		shading = gpu.ShadingPBR
	}

	bindings := make([]uint32, len(d.Slots))
	for i, s := range d.Slots {
		bindings[i] = s.Binding
	}

	pipeline, setLayout := gpu.NewMaterialPipeline(gpu.MaterialPipelineConfig{
		Shading:         shading,
		Defines:         d.Defines(),
		TwoSided:        d.TwoSided,
		TextureBindings: bindings,
	})

	descriptors := []gpu.Descriptor{&gpu.UniformDescriptor{Binding: gpu.MaterialBinding, Value: d.Uniform()}}
	for _, s := range d.Slots {
		descriptors = append(descriptors, &gpu.ImageDescriptor{Binding: s.Binding, Image: s.Image})
	}

	return gpu.BindState{
		Pipeline: &gpu.BindGraphicsPipeline{Pipeline: pipeline},
		Descriptors: &gpu.BindDescriptorSet{
			Layout: pipeline.Layout,
			Set:    &gpu.DescriptorSet{Layout: setLayout, Descriptors: descriptors},
		},
	}
}

// String summarizes the descriptor.
func (d *Descriptor) String() string {
	return fmt.Sprintf("%s (%s) defines=%v", d.Name, d.Workflow, d.Defines())
}
