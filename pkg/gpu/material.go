package gpu

import "github.com/go-gl/mathgl/mgl32"

// MaterialBinding is the uniform buffer binding of the material values.
const MaterialBinding = 10

// Texture bindings shared by the PBR and Phong shaders.
const (
	DiffuseMapBinding           = 0
	MetallicRoughnessMapBinding = 1
	NormalMapBinding            = 2
	LightMapBinding             = 3
	EmissiveMapBinding          = 4
	SpecularMapBinding          = 5
)

// PushConstantSize is the vertex-stage push constant block: projection and
// model-view matrices.
const PushConstantSize = 128

// PBRMaterial is the uniform block of the PBR shader.
// For the specular-glossiness workflow the glossiness lives in SpecularFactor[3].
type PBRMaterial struct {
	BaseColorFactor mgl32.Vec4
	EmissiveFactor  mgl32.Vec4
	DiffuseFactor   mgl32.Vec4
	SpecularFactor  mgl32.Vec4
	MetallicFactor  float32
	RoughnessFactor float32
	AlphaMask       float32
	AlphaMaskCutoff float32
}

// DefaultPBRMaterial returns the values used for properties a material omits.
func DefaultPBRMaterial() PBRMaterial {
	return PBRMaterial{
		BaseColorFactor: mgl32.Vec4{1, 1, 1, 1},
		EmissiveFactor:  mgl32.Vec4{0, 0, 0, 1},
		DiffuseFactor:   mgl32.Vec4{1, 1, 1, 1},
		SpecularFactor:  mgl32.Vec4{0, 0, 0, 1},
		MetallicFactor:  1,
		RoughnessFactor: 1,
		AlphaMask:       1,
		AlphaMaskCutoff: 0.5,
	}
}

// PhongMaterial is the uniform block of the Phong shader.
type PhongMaterial struct {
	Ambient         mgl32.Vec4
	Diffuse         mgl32.Vec4
	Specular        mgl32.Vec4
	Emissive        mgl32.Vec4
	Shininess       float32
	AlphaMask       float32
	AlphaMaskCutoff float32
}

// DefaultPhongMaterial returns the values used for properties a material omits.
func DefaultPhongMaterial() PhongMaterial {
	return PhongMaterial{
		Ambient:         mgl32.Vec4{1, 1, 1, 1},
		Diffuse:         mgl32.Vec4{1, 1, 1, 1},
		Specular:        mgl32.Vec4{0, 0, 0, 1},
		Emissive:        mgl32.Vec4{0, 0, 0, 1},
		Shininess:       100,
		AlphaMask:       1,
		AlphaMaskCutoff: 0.5,
	}
}
