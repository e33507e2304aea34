// Package shaders provides embedded GLSL shader sources.
package shaders

import _ "embed"

// StandardVertexShader is the vertex shader shared by the PBR and Phong pipelines.
//
//go:embed standard.vert
var StandardVertexShader string

// PBRFragmentShader is the fragment shader for metallic-roughness and
// specular-glossiness materials.
//
//go:embed pbr.frag
var PBRFragmentShader string

// PhongFragmentShader is the fragment shader for Phong materials.
//
//go:embed phong.frag
var PhongFragmentShader string

// TemperatureVertexShader is the vertex shader for finite-element temperature meshes.
//
//go:embed temperature.vert
var TemperatureVertexShader string

// TemperatureFragmentShader maps a normalized temperature to greyscale.
//
//go:embed temperature.frag
var TemperatureFragmentShader string
