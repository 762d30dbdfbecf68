package geometry

import "math"

// Transform is the pan/zoom state of the root container.
// A point s in the scene frame is drawn at s*Zoom + Offset in the global frame.
type Transform struct {
	Offset Point   `json:"offset"`
	Zoom   float64 `json:"zoom"`
}

// Identity returns the transform with no pan and a zoom of 1
func Identity() Transform {
	return Transform{Zoom: 1}
}

// ValidZoom reports whether z can be used as a zoom factor
func ValidZoom(z float64) bool {
	return z > 0 && !math.IsInf(z, 0) && !math.IsNaN(z)
}

// Valid reports whether the transform has a usable zoom factor
func (t Transform) Valid() bool {
	return ValidZoom(t.Zoom)
}

// ToGlobal maps a scene-frame point into the global frame
func (t Transform) ToGlobal(p Point) Point {
	return p.Scale(t.Zoom).Add(t.Offset)
}

// ToRootLocal maps a point into the root container's local frame.
//
// With compensate set, p is taken to be a global-frame position (as read back
// from the rendering surface) and the pan/zoom of the root is undone:
//
//	(p - Offset) * (1 / Zoom)
//
// Without it, p is already in the frame the caller draws in and is returned
// unchanged. ok is false when compensation is requested but Zoom is unusable.
func ToRootLocal(p Point, t Transform, compensate bool) (Point, bool) {
	if !compensate {
		return p, true
	}
	if !t.Valid() {
		return Point{}, false
	}
	return p.Sub(t.Offset).Scale(1 / t.Zoom), true
}

// Clamp limits z to [min, max]. Bounds <= 0 are ignored.
func Clamp(z, min, max float64) float64 {
	if min > 0 && z < min {
		return min
	}
	if max > 0 && z > max {
		return max
	}
	return z
}
