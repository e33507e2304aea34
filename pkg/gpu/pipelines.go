package gpu

import (
	"sync"

	"github.com/Faultbox/modelxchange/pkg/gpu/shaders"
)

// Shading selects the fragment shader family of a material pipeline.
type Shading int

const (
	ShadingPhong Shading = iota
	ShadingPBR
)

// String returns the shading name.
func (s Shading) String() string {
	if s == ShadingPBR {
		return "pbr"
	}
	return "phong"
}

// MaterialPipelineConfig describes one material shader variant.
type MaterialPipelineConfig struct {
	Shading         Shading
	Defines         []string
	TwoSided        bool
	TextureBindings []uint32
}

// NewMaterialPipeline builds the pipeline for a material variant.
//
// Vertex input is position, normal and texture coordinate per vertex and a
// color per instance. The descriptor set has the material uniform at
// MaterialBinding followed by one combined image sampler per texture binding.
func NewMaterialPipeline(cfg MaterialPipelineConfig) (*GraphicsPipeline, *DescriptorSetLayout) {
	setLayout := &DescriptorSetLayout{
		Bindings: []DescriptorBinding{{
			Binding: MaterialBinding,
			Type:    DescriptorUniformBuffer,
			Count:   1,
			Stages:  StageFragment,
		}},
	}
	for _, b := range cfg.TextureBindings {
		setLayout.Bindings = append(setLayout.Bindings, DescriptorBinding{
			Binding: b,
			Type:    DescriptorCombinedImageSampler,
			Count:   1,
			Stages:  StageFragment,
		})
	}

	fragName, fragSource := "phong.frag", shaders.PhongFragmentShader
	if cfg.Shading == ShadingPBR {
		fragName, fragSource = "pbr.frag", shaders.PBRFragmentShader
	}
	defines := append([]string(nil), cfg.Defines...)

	p := &GraphicsPipeline{
		Layout: &PipelineLayout{
			SetLayouts: []*DescriptorSetLayout{setLayout},
			PushConstants: []PushConstantRange{{
				Stages: StageVertex,
				Size:   PushConstantSize,
			}},
		},
		Stages: []ShaderStage{
			{Stage: StageVertex, Name: "standard.vert", Source: shaders.StandardVertexShader, Defines: defines},
			{Stage: StageFragment, Name: fragName, Source: fragSource, Defines: defines},
		},
		Rasterization: RasterizationState{CullMode: CullBack},
		DepthStencil:  DepthStencilState{DepthTest: true, DepthWrite: true},
	}
	if cfg.TwoSided {
		p.Rasterization.CullMode = CullNone
	}

	p.VertexInput.AddAttribute(FormatR32G32B32Float, RateVertex)      // position
	p.VertexInput.AddAttribute(FormatR32G32B32Float, RateVertex)      // normal
	p.VertexInput.AddAttribute(FormatR32G32Float, RateVertex)         // texcoord
	p.VertexInput.AddAttribute(FormatR32G32B32A32Float, RateInstance) // color

	return p, setLayout
}

// NewTemperaturePipeline builds the fixed pipeline used for finite-element
// meshes: position and a scalar temperature per vertex, greyscale output.
func NewTemperaturePipeline() *GraphicsPipeline {
	p := &GraphicsPipeline{
		Layout: &PipelineLayout{
			PushConstants: []PushConstantRange{{
				Stages: StageVertex,
				Size:   PushConstantSize,
			}},
		},
		Stages: []ShaderStage{
			{Stage: StageVertex, Name: "temperature.vert", Source: shaders.TemperatureVertexShader},
			{Stage: StageFragment, Name: "temperature.frag", Source: shaders.TemperatureFragmentShader},
		},
		Rasterization: RasterizationState{CullMode: CullBack},
		DepthStencil:  DepthStencilState{DepthTest: true, DepthWrite: true},
	}
	p.VertexInput.AddAttribute(FormatR32G32B32Float, RateVertex)
	p.VertexInput.AddAttribute(FormatR32Float, RateVertex)
	return p
}

// Defaults is the state bound at the root of every imported model: a Phong
// pipeline with no textures and the default Phong material.
type Defaults struct {
	State    BindState
	Material PhongMaterial
}

// NewDefaults builds a fresh default state.
func NewDefaults() *Defaults {
	mat := DefaultPhongMaterial()
	pipeline, setLayout := NewMaterialPipeline(MaterialPipelineConfig{Shading: ShadingPhong})

	return &Defaults{
		State: BindState{
			Pipeline: &BindGraphicsPipeline{Pipeline: pipeline},
			Descriptors: &BindDescriptorSet{
				Layout: pipeline.Layout,
				Set: &DescriptorSet{
					Layout:      setLayout,
					Descriptors: []Descriptor{&UniformDescriptor{Binding: MaterialBinding, Value: mat}},
				},
			},
		},
		Material: mat,
	}
}

var shared struct {
	once     sync.Once
	defaults *Defaults
}

// SharedDefaults returns the process-wide default state, building it on first use.
func SharedDefaults() *Defaults {
	shared.once.Do(func() {
		shared.defaults = NewDefaults()
	})
	return shared.defaults
}
