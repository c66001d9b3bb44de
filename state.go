// Package nimsforestpdfviewer provides a page viewer core that binds a document
// renderer to a two-way bound view state and to pointer, touch and wheel
// gestures.
package nimsforestpdfviewer

// ViewState is one snapshot of the viewer configuration.
type ViewState struct {
	Page     int
	Rotation int // multiple of 90, may be negative
	OffsetX  float64
	OffsetY  float64
	Scale    float64
	Width    float64
	Height   float64
}

// RawState mirrors the values most recently assigned through the binding
// layer, before coercion. Fields hold whatever was assigned, which may be
// invalid (a string, nil, NaN).
type RawState struct {
	Page     any
	Rotation any
	OffsetX  any
	OffsetY  any
	Scale    any
	Width    any
	Height   any
}

// Offset is a pan offset in surface pixels.
type Offset struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Snapshot bundles the three state records with the document summary.
type Snapshot struct {
	Committed ViewState
	Requested ViewState
	Raw       RawState
	Total     int
	Stage     Stage // stage of the in-flight operation, StageNone if idle
}

// clearedState is the committed record after a reset. Requested starts at
// page 1 so the first render is always warranted.
func clearedState() ViewState {
	return ViewState{Scale: 1}
}

// rawOf mirrors a typed state into the raw record.
func rawOf(s ViewState) RawState {
	return RawState{
		Page:     s.Page,
		Rotation: s.Rotation,
		OffsetX:  s.OffsetX,
		OffsetY:  s.OffsetY,
		Scale:    s.Scale,
		Width:    s.Width,
		Height:   s.Height,
	}
}

// Offset returns the pan offset of s.
func (s ViewState) Offset() Offset {
	return Offset{X: s.OffsetX, Y: s.OffsetY}
}
