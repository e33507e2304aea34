package scenegraph

import (
	"fmt"
	"math"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

// CoordinateConvention names the world axis a data set treats as up.
type CoordinateConvention int

const (
	NoPreference CoordinateConvention = iota
	XUp
	YUp
	ZUp
)

// String returns the canonical name ("x-up", "y-up", "z-up", "none").
func (c CoordinateConvention) String() string {
	switch c {
	case XUp:
		return "x-up"
	case YUp:
		return "y-up"
	case ZUp:
		return "z-up"
	default:
		return "none"
	}
}

// ParseCoordinateConvention parses the names produced by String.
// The short forms "x", "y" and "z" are accepted too.
func ParseCoordinateConvention(s string) (CoordinateConvention, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "x-up", "x_up", "x":
		return XUp, nil
	case "y-up", "y_up", "y":
		return YUp, nil
	case "z-up", "z_up", "z":
		return ZUp, nil
	case "none", "":
		return NoPreference, nil
	}
	return NoPreference, fmt.Errorf("unknown coordinate convention %q", s)
}

// ConventionTransform returns the matrix rotating data in the src convention
// into the dst convention. ok is false when no correction is needed, either
// because the conventions match or because one side has no preference.
func ConventionTransform(src, dst CoordinateConvention) (m mgl64.Mat4, ok bool) {
	if src == dst || src == NoPreference || dst == NoPreference {
		return mgl64.Ident4(), false
	}

	const quarter = math.Pi / 2
	switch {
	case src == YUp && dst == ZUp:
		return mgl64.HomogRotate3DX(quarter), true
	case src == ZUp && dst == YUp:
		return mgl64.HomogRotate3DX(-quarter), true
	case src == XUp && dst == ZUp:
		return mgl64.HomogRotate3DY(-quarter), true
	case src == ZUp && dst == XUp:
		return mgl64.HomogRotate3DY(quarter), true
	case src == XUp && dst == YUp:
		return mgl64.HomogRotate3DZ(quarter), true
	case src == YUp && dst == XUp:
		return mgl64.HomogRotate3DZ(-quarter), true
	}
	return mgl64.Ident4(), false
}
