package nimsforestpdfviewer

import "math"

// store holds the committed, requested and raw records. It is not safe for
// concurrent use; the Viewer serialises access.
//
// Setters record the raw value first, then coerce and clamp. They return
// false when the input is rejected, leaving requested untouched.
type store struct {
	committed ViewState
	requested ViewState
	raw       RawState
	total     int
}

func newStore() *store {
	s := &store{}
	s.reset()
	return s
}

// reset restores the defaults used whenever a new document load begins.
func (s *store) reset() {
	s.committed = clearedState()
	s.requested = clearedState()
	s.requested.Page = 1
	s.raw = rawOf(s.requested)
}

// revert drops requested changes that were never rendered.
func (s *store) revert() {
	s.requested = s.committed
	s.raw = rawOf(s.committed)
}

// commit promotes a rendered target to committed and mirrors it into raw.
func (s *store) commit(target ViewState) {
	s.committed = target
	s.raw = rawOf(target)
}

// dirty reports whether requested differs from committed.
func (s *store) dirty() bool {
	return s.committed != s.requested
}

func (s *store) setPage(v any) bool {
	n, ok := toInt(v)
	if !ok {
		s.raw.Page = v
		return false
	}
	if n < 1 {
		n = 1
	}
	if n > s.total {
		n = s.total
	}
	s.raw.Page = n
	s.requested.Page = n
	return true
}

func (s *store) setZoom(v any) bool {
	s.raw.Scale = v
	f, ok := toFloat(v)
	if !ok || f <= 0 {
		return false
	}
	s.requested.Scale = f
	s.reclamp()
	return true
}

func (s *store) setRotation(v any) bool {
	s.raw.Rotation = v
	f, ok := toFloat(v)
	if !ok || math.Abs(f) > MaxRotation {
		return false
	}
	s.requested.Rotation = NormalizeRotation(f)
	s.reclamp()
	return true
}

// setOffset clamps each axis independently. An invalid axis keeps its
// requested value; the other axis is still applied.
func (s *store) setOffset(x, y any) bool {
	fx, okX := toFloat(x)
	fy, okY := toFloat(y)
	cx, cy := s.clampOffset(fx, fy)
	if okX {
		s.raw.OffsetX = cx
		s.requested.OffsetX = cx
	} else {
		s.raw.OffsetX = x
	}
	if okY {
		s.raw.OffsetY = cy
		s.requested.OffsetY = cy
	} else {
		s.raw.OffsetY = y
	}
	return okX || okY
}

// clampOffset clamps against the committed geometry, then against the
// requested geometry so requested never leaves its own legal range.
func (s *store) clampOffset(x, y float64) (float64, float64) {
	c := s.committed
	x, y = ClampPan(x, y, c.Scale, c.Rotation, c.Width, c.Height)
	r := s.requested
	return ClampPan(x, y, r.Scale, r.Rotation, r.Width, r.Height)
}

func (s *store) reclamp() {
	r := &s.requested
	r.OffsetX, r.OffsetY = ClampPan(r.OffsetX, r.OffsetY, r.Scale, r.Rotation, r.Width, r.Height)
}

func (s *store) setWidth(v any) bool {
	s.raw.Width = v
	f, ok := toFloat(v)
	if !ok || f <= 0 {
		return false
	}
	s.requested.Width = f
	s.reclamp()
	return true
}

func (s *store) setHeight(v any) bool {
	s.raw.Height = v
	f, ok := toFloat(v)
	if !ok || f <= 0 {
		return false
	}
	s.requested.Height = f
	s.reclamp()
	return true
}

// seed fills unset requested dimensions from the intrinsic page geometry.
func (s *store) seed(g Viewport) {
	if s.requested.Width == 0 {
		s.requested.Width = g.Width
	}
	if s.requested.Height == 0 {
		s.requested.Height = g.Height
	}
}
