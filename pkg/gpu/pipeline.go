// Package gpu describes graphics pipeline state as plain data.
//
// Nothing here talks to a driver. The importers produce these descriptions
// and attach them to the scene graph; a renderer (or the shader validator in
// internal/shader) turns them into real objects.
package gpu

import (
	"sort"
	"strings"
)

// ShaderStageFlags is a bit set of programmable stages.
type ShaderStageFlags uint32

const (
	StageVertex ShaderStageFlags = 1 << iota
	StageFragment
)

// ShaderStage is one stage of a pipeline. Defines are injected into Source
// before compilation.
type ShaderStage struct {
	Stage   ShaderStageFlags
	Name    string
	Source  string
	Defines []string
}

// VertexFormat is the layout of a single vertex attribute.
type VertexFormat int

const (
	FormatR32Float VertexFormat = iota
	FormatR32G32Float
	FormatR32G32B32Float
	FormatR32G32B32A32Float
)

// Size returns the attribute size in bytes.
func (f VertexFormat) Size() uint32 {
	switch f {
	case FormatR32G32Float:
		return 8
	case FormatR32G32B32Float:
		return 12
	case FormatR32G32B32A32Float:
		return 16
	default:
		return 4
	}
}

// InputRate selects whether a binding advances per vertex or per instance.
type InputRate int

const (
	RateVertex InputRate = iota
	RateInstance
)

// VertexBinding describes one vertex buffer binding.
type VertexBinding struct {
	Binding uint32
	Stride  uint32
	Rate    InputRate
}

// VertexAttribute describes one attribute read from a binding.
type VertexAttribute struct {
	Location uint32
	Binding  uint32
	Format   VertexFormat
	Offset   uint32
}

// VertexInputState groups bindings and attributes.
type VertexInputState struct {
	Bindings   []VertexBinding
	Attributes []VertexAttribute
}

// AddAttribute appends a tightly packed attribute with its own binding.
func (s *VertexInputState) AddAttribute(format VertexFormat, rate InputRate) {
	n := uint32(len(s.Bindings))
	s.Bindings = append(s.Bindings, VertexBinding{Binding: n, Stride: format.Size(), Rate: rate})
	s.Attributes = append(s.Attributes, VertexAttribute{Location: n, Binding: n, Format: format})
}

// CullMode selects which faces are discarded.
type CullMode int

const (
	CullNone CullMode = iota
	CullBack
	CullFront
)

// RasterizationState holds the rasterizer settings used by the importers.
type RasterizationState struct {
	CullMode CullMode
}

// ColorBlendState holds blending settings.
type ColorBlendState struct {
	BlendEnable bool
}

// DepthStencilState holds depth test settings.
type DepthStencilState struct {
	DepthTest  bool
	DepthWrite bool
}

// DescriptorType identifies a descriptor binding kind.
type DescriptorType int

const (
	DescriptorUniformBuffer DescriptorType = iota
	DescriptorCombinedImageSampler
)

// DescriptorBinding is one slot of a descriptor set layout.
type DescriptorBinding struct {
	Binding uint32
	Type    DescriptorType
	Count   uint32
	Stages  ShaderStageFlags
}

// DescriptorSetLayout lists the bindings of a descriptor set.
type DescriptorSetLayout struct {
	Bindings []DescriptorBinding
}

// PushConstantRange reserves push constant space for the given stages.
type PushConstantRange struct {
	Stages ShaderStageFlags
	Offset uint32
	Size   uint32
}

// PipelineLayout is the descriptor and push constant interface of a pipeline.
type PipelineLayout struct {
	SetLayouts    []*DescriptorSetLayout
	PushConstants []PushConstantRange
}

// GraphicsPipeline is a complete pipeline description.
type GraphicsPipeline struct {
	Layout        *PipelineLayout
	Stages        []ShaderStage
	VertexInput   VertexInputState
	Rasterization RasterizationState
	ColorBlend    ColorBlendState
	DepthStencil  DepthStencilState
}

// Key returns a string identifying the pipeline's shader variant and fixed
// state. Two pipelines with equal keys are interchangeable, so callers may use
// it to share pipelines between materials.
func (p *GraphicsPipeline) Key() string {
	var b strings.Builder
	for _, s := range p.Stages {
		b.WriteString(s.Name)
		defines := append([]string(nil), s.Defines...)
		sort.Strings(defines)
		for _, d := range defines {
			b.WriteByte('+')
			b.WriteString(d)
		}
		b.WriteByte(';')
	}
	switch p.Rasterization.CullMode {
	case CullNone:
		b.WriteString("cull=none")
	case CullFront:
		b.WriteString("cull=front")
	default:
		b.WriteString("cull=back")
	}
	if p.ColorBlend.BlendEnable {
		b.WriteString(";blend")
	}
	return b.String()
}

// BindGraphicsPipeline binds a pipeline for a subtree.
type BindGraphicsPipeline struct {
	Pipeline *GraphicsPipeline
}

// Descriptor is a single entry written to a descriptor set.
type Descriptor interface {
	DstBinding() uint32
}

// UniformDescriptor binds a uniform value (one of the material structs).
type UniformDescriptor struct {
	Binding uint32
	Value   any
}

// DstBinding returns the destination binding.
func (d *UniformDescriptor) DstBinding() uint32 { return d.Binding }

// ImageDescriptor binds a combined image sampler.
type ImageDescriptor struct {
	Binding uint32
	Image   SamplerImage
}

// DstBinding returns the destination binding.
func (d *ImageDescriptor) DstBinding() uint32 { return d.Binding }

// DescriptorSet is a set of descriptors matching a layout.
type DescriptorSet struct {
	Layout      *DescriptorSetLayout
	Descriptors []Descriptor
}

// BindDescriptorSet binds a descriptor set through a pipeline layout.
type BindDescriptorSet struct {
	Layout   *PipelineLayout
	FirstSet uint32
	Set      *DescriptorSet
}

// BindState is the pipeline and descriptor pair bound for one material.
type BindState struct {
	Pipeline    *BindGraphicsPipeline
	Descriptors *BindDescriptorSet
}
