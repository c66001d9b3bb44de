package nimsforestpdfviewer

import "math"

// Viewport describes how a page is mapped onto the surface.
// Width and Height are the intrinsic (unscaled) page box.
type Viewport struct {
	Width    float64
	Height   float64
	Rotation int
	OffsetX  float64
	OffsetY  float64
	Scale    float64
}

// EffectiveSize returns width and height swapped when the rotation is an odd
// multiple of 90.
func EffectiveSize(rotation int, width, height float64) (float64, float64) {
	if rotation%180 != 0 {
		return height, width
	}
	return width, height
}

// PanBounds returns the minimum legal offsets. The maximum is always 0.
func PanBounds(scale float64, rotation int, width, height float64) (minX, minY float64) {
	w, h := EffectiveSize(rotation, width, height)
	return w - scale*w, h - scale*h
}

// ClampPan clamps x and y so the scaled page always covers the surface.
func ClampPan(x, y, scale float64, rotation int, width, height float64) (float64, float64) {
	minX, minY := PanBounds(scale, rotation, width, height)
	return clampAxis(x, minX), clampAxis(y, minY)
}

func clampAxis(v, lo float64) float64 {
	if v < lo {
		v = lo
	}
	if v > 0 {
		v = 0
	}
	return v
}

// MaxRotation bounds the magnitude of an accepted rotation in degrees.
// Larger values are rejected by the rotation setter.
const MaxRotation = 1 << 30

// NormalizeRotation rounds deg to the nearest multiple of 90. Halves round
// up, so -45 becomes 0 and 45 becomes 90. The result saturates at
// ±MaxRotation.
func NormalizeRotation(deg float64) int {
	q := math.Floor(deg/90 + 0.5)
	const lim = MaxRotation / 90
	q = max(-lim, min(lim, q))
	return int(q) * 90
}

// finite reports whether f is neither NaN nor infinite.
func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
