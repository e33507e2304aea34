package scenegraph

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// LookAt is a view matrix defined by eye, center and up vectors.
type LookAt struct {
	Eye    mgl64.Vec3
	Center mgl64.Vec3
	Up     mgl64.Vec3
}

// Matrix returns the view matrix.
func (l LookAt) Matrix() mgl64.Mat4 {
	return mgl64.LookAtV(l.Eye, l.Center, l.Up)
}

// Perspective is a perspective projection. FieldOfViewY is in degrees.
type Perspective struct {
	FieldOfViewY float64
	AspectRatio  float64
	NearDistance float64
	FarDistance  float64
}

// Matrix returns the projection matrix.
func (p Perspective) Matrix() mgl64.Mat4 {
	return mgl64.Perspective(mgl64.DegToRad(p.FieldOfViewY), p.AspectRatio, p.NearDistance, p.FarDistance)
}

// VerticalFOV converts a full horizontal field of view in radians to a full
// vertical field of view in degrees. Non-positive aspect ratios are treated as 1.
func VerticalFOV(horizontal, aspect float64) float64 {
	if aspect <= 0 {
		aspect = 1
	}
	return mgl64.RadToDeg(2 * math.Atan(math.Tan(horizontal/2)/aspect))
}

// Camera is a named viewpoint. It is attached under the transform of the
// node that shares its name.
type Camera struct {
	Name       string
	View       LookAt
	Projection Perspective
}

// Children returns nil; cameras are leaves.
func (c *Camera) Children() []Node { return nil }
