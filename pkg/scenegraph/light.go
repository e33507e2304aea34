package scenegraph

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

// LightKind identifies the light model.
type LightKind int

const (
	LightUndefined LightKind = iota
	LightDirectional
	LightPoint
	LightSpot
	LightAmbient
	LightArea
)

// String returns the light kind name.
func (k LightKind) String() string {
	switch k {
	case LightDirectional:
		return "directional"
	case LightPoint:
		return "point"
	case LightSpot:
		return "spot"
	case LightAmbient:
		return "ambient"
	case LightArea:
		return "area"
	default:
		return "undefined"
	}
}

// Light is a named light source. Only the fields meaningful for Kind are set:
// Direction for directional and spot lights, Position for point and spot
// lights, cone angles (radians) for spot lights.
type Light struct {
	Name       string
	Kind       LightKind
	Color      mgl32.Vec3
	Intensity  float32
	Position   mgl64.Vec3
	Direction  mgl64.Vec3
	InnerAngle float64
	OuterAngle float64
}

// Children returns nil; lights are leaves.
func (l *Light) Children() []Node { return nil }
