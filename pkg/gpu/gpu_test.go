package gpu

import (
	"image"
	"strings"
	"testing"
)

func TestNewMaterialPipeline_Layout(t *testing.T) {
	p, setLayout := NewMaterialPipeline(MaterialPipelineConfig{
		Shading:         ShadingPBR,
		Defines:         []string{"DIFFUSE_MAP", "NORMAL_MAP"},
		TextureBindings: []uint32{DiffuseMapBinding, NormalMapBinding},
	})

	if len(setLayout.Bindings) != 3 {
		t.Fatalf("expected 3 bindings, got %d", len(setLayout.Bindings))
	}
	if setLayout.Bindings[0].Binding != MaterialBinding || setLayout.Bindings[0].Type != DescriptorUniformBuffer {
		t.Errorf("expected material uniform first, got %+v", setLayout.Bindings[0])
	}
	if setLayout.Bindings[2].Binding != NormalMapBinding || setLayout.Bindings[2].Type != DescriptorCombinedImageSampler {
		t.Errorf("unexpected texture binding %+v", setLayout.Bindings[2])
	}

	if len(p.Layout.PushConstants) != 1 || p.Layout.PushConstants[0].Size != 128 {
		t.Errorf("expected one 128 byte push constant range, got %+v", p.Layout.PushConstants)
	}
	if p.Layout.PushConstants[0].Stages != StageVertex {
		t.Error("expected push constants in the vertex stage")
	}
	if p.Rasterization.CullMode != CullBack {
		t.Errorf("expected back-face culling, got %d", p.Rasterization.CullMode)
	}
	if p.ColorBlend.BlendEnable {
		t.Error("expected blending disabled")
	}
	if p.Stages[1].Name != "pbr.frag" {
		t.Errorf("expected pbr fragment shader, got %s", p.Stages[1].Name)
	}
}

func TestNewMaterialPipeline_VertexInput(t *testing.T) {
	p, _ := NewMaterialPipeline(MaterialPipelineConfig{})

	want := []struct {
		format VertexFormat
		rate   InputRate
	}{
		{FormatR32G32B32Float, RateVertex},
		{FormatR32G32B32Float, RateVertex},
		{FormatR32G32Float, RateVertex},
		{FormatR32G32B32A32Float, RateInstance},
	}
	if len(p.VertexInput.Attributes) != len(want) {
		t.Fatalf("expected %d attributes, got %d", len(want), len(p.VertexInput.Attributes))
	}
	for i, w := range want {
		attr := p.VertexInput.Attributes[i]
		binding := p.VertexInput.Bindings[i]
		if attr.Format != w.format || binding.Rate != w.rate {
			t.Errorf("attribute %d: expected format %d rate %d, got %d %d", i, w.format, w.rate, attr.Format, binding.Rate)
		}
		if binding.Stride != w.format.Size() {
			t.Errorf("attribute %d: expected stride %d, got %d", i, w.format.Size(), binding.Stride)
		}
	}
}

func TestNewMaterialPipeline_TwoSided(t *testing.T) {
	p, _ := NewMaterialPipeline(MaterialPipelineConfig{TwoSided: true})
	if p.Rasterization.CullMode != CullNone {
		t.Errorf("expected no culling for two-sided, got %d", p.Rasterization.CullMode)
	}
}

func TestPipelineKey(t *testing.T) {
	a, _ := NewMaterialPipeline(MaterialPipelineConfig{Shading: ShadingPhong, Defines: []string{"A", "B"}})
	b, _ := NewMaterialPipeline(MaterialPipelineConfig{Shading: ShadingPhong, Defines: []string{"B", "A"}})
	c, _ := NewMaterialPipeline(MaterialPipelineConfig{Shading: ShadingPBR, Defines: []string{"A", "B"}})
	d, _ := NewMaterialPipeline(MaterialPipelineConfig{Shading: ShadingPhong, Defines: []string{"A", "B"}, TwoSided: true})

	if a.Key() != b.Key() {
		t.Errorf("define order should not change the key: %q vs %q", a.Key(), b.Key())
	}
	if a.Key() == c.Key() {
		t.Error("shading should change the key")
	}
	if a.Key() == d.Key() {
		t.Error("culling should change the key")
	}
	if !strings.Contains(a.Key(), "phong.frag+A+B") {
		t.Errorf("unexpected key %q", a.Key())
	}
}

func TestNewTemperaturePipeline(t *testing.T) {
	p := NewTemperaturePipeline()

	if len(p.VertexInput.Attributes) != 2 {
		t.Fatalf("expected 2 attributes, got %d", len(p.VertexInput.Attributes))
	}
	if p.VertexInput.Attributes[1].Format != FormatR32Float {
		t.Errorf("expected scalar temperature attribute, got %d", p.VertexInput.Attributes[1].Format)
	}
	if len(p.Layout.SetLayouts) != 0 {
		t.Errorf("expected no descriptor sets, got %d", len(p.Layout.SetLayouts))
	}
	if p.Layout.PushConstants[0].Size != PushConstantSize {
		t.Errorf("expected push constant size %d, got %d", PushConstantSize, p.Layout.PushConstants[0].Size)
	}
}

func TestSharedDefaults(t *testing.T) {
	a := SharedDefaults()
	b := SharedDefaults()
	if a != b {
		t.Error("expected the same defaults instance")
	}
	if a.State.Pipeline == nil || a.State.Descriptors == nil {
		t.Fatal("expected pipeline and descriptors")
	}
	if a.Material.Shininess != 100 {
		t.Errorf("expected default shininess 100, got %f", a.Material.Shininess)
	}

	desc := a.State.Descriptors.Set.Descriptors
	if len(desc) != 1 || desc[0].DstBinding() != MaterialBinding {
		t.Errorf("expected a single material uniform, got %d descriptors", len(desc))
	}
}

func TestNewImage(t *testing.T) {
	rgba := image.NewRGBA(image.Rect(0, 0, 4, 2))
	img := NewImage(rgba)
	if img.Width != 4 || img.Height != 2 {
		t.Errorf("expected 4x2, got %dx%d", img.Width, img.Height)
	}
	if img.MipLevels != 1 {
		t.Errorf("expected 1 mip level, got %d", img.MipLevels)
	}
	if len(img.Pixels) != 4*2*4 {
		t.Errorf("expected %d bytes, got %d", 4*2*4, len(img.Pixels))
	}
}
