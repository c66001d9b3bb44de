package nimsforestpdfviewer

import (
	"encoding/json"
	"fmt"
	"math"
)

// SnapshotJSON is the JSON representation of a Snapshot for the web
// frontend.
type SnapshotJSON struct {
	Committed ViewStateJSON  `json:"committed"`
	Requested ViewStateJSON  `json:"requested"`
	Raw       map[string]any `json:"raw"`
	Total     int            `json:"total"`
	Loading   string         `json:"loading,omitempty"`
	Source    string         `json:"source,omitempty"`
}

// ViewStateJSON is the JSON representation of a ViewState.
type ViewStateJSON struct {
	Page     int     `json:"page"`
	Rotation int     `json:"rotation"`
	OffsetX  float64 `json:"offsetX"`
	OffsetY  float64 `json:"offsetY"`
	Scale    float64 `json:"zoom"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
}

func viewStateToJSON(s ViewState) ViewStateJSON {
	return ViewStateJSON{
		Page:     s.Page,
		Rotation: s.Rotation,
		OffsetX:  s.OffsetX,
		OffsetY:  s.OffsetY,
		Scale:    s.Scale,
		Width:    s.Width,
		Height:   s.Height,
	}
}

// SnapshotToJSON converts a Snapshot to its JSON representation.
func SnapshotToJSON(s Snapshot, source string) SnapshotJSON {
	return SnapshotJSON{
		Committed: viewStateToJSON(s.Committed),
		Requested: viewStateToJSON(s.Requested),
		Raw: map[string]any{
			"page":     rawJSON(s.Raw.Page),
			"rotation": rawJSON(s.Raw.Rotation),
			"offsetX":  rawJSON(s.Raw.OffsetX),
			"offsetY":  rawJSON(s.Raw.OffsetY),
			"zoom":     rawJSON(s.Raw.Scale),
			"width":    rawJSON(s.Raw.Width),
			"height":   rawJSON(s.Raw.Height),
		},
		Total:   s.Total,
		Loading: s.Stage.String(),
		Source:  source,
	}
}

// rawJSON makes a bound value encodable. encoding/json rejects NaN and
// infinities, and arbitrary values may not marshal at all, so those are
// rendered as strings.
func rawJSON(v any) any {
	switch x := v.(type) {
	case nil, string, bool, int, int32, int64, json.Number:
		return x
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return fmt.Sprint(x)
		}
		return x
	case float32:
		return rawJSON(float64(x))
	default:
		if _, err := json.Marshal(x); err != nil {
			return fmt.Sprint(x)
		}
		return x
	}
}

// SnapshotToJSONBytes converts a Snapshot to JSON bytes.
func SnapshotToJSONBytes(s Snapshot, source string) ([]byte, error) {
	return json.Marshal(SnapshotToJSON(s, source))
}
