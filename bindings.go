package nimsforestpdfviewer

import (
	"fmt"
)

// Field names a bound property.
type Field string

const (
	FieldPage     Field = "page"
	FieldZoom     Field = "zoom"
	FieldRotation Field = "rotation"
	FieldOffset   Field = "offset"
	FieldOffsetX  Field = "offsetX"
	FieldOffsetY  Field = "offsetY"
	FieldWidth    Field = "width"
	FieldHeight   Field = "height"
	FieldTotal    Field = "total"
	FieldLoading  Field = "loading"
	FieldDocument Field = "document"
)

// Bindings adapts a Viewer to a two-way binding layer that deals in
// untyped values: form fields, JSON bodies, query strings. Values are
// coerced the way a lenient parser would ("12px" is 12) and every attempt
// is recorded in RawState, so Get returns what was last assigned even when
// it was rejected.
type Bindings struct {
	v *Viewer
}

// NewBindings creates Bindings for v.
func NewBindings(v *Viewer) *Bindings {
	return &Bindings{v: v}
}

// Set assigns value to field. Read-only fields are ignored. Unknown fields
// return an error result.
func (b *Bindings) Set(field Field, value any) *Result {
	v := b.v
	switch field {
	case FieldPage:
		return v.apply(string(field), value, (*store).setPage)
	case FieldZoom:
		return v.apply(string(field), value, (*store).setZoom)
	case FieldRotation:
		return v.apply(string(field), value, (*store).setRotation)
	case FieldWidth:
		return v.apply(string(field), value, (*store).setWidth)
	case FieldHeight:
		return v.apply(string(field), value, (*store).setHeight)
	case FieldOffset:
		x, y, ok := offsetOf(value)
		if !ok {
			b.v.mu.Lock()
			b.v.store.raw.OffsetX, b.v.store.raw.OffsetY = nil, nil
			b.v.mu.Unlock()
			v.log().Debug("value rejected", "field", field, "value", value, "err", ErrInvalidInput)
			return resolved()
		}
		return v.panTo(x, y)
	case FieldOffsetX:
		v.mu.Lock()
		y := v.store.raw.OffsetY
		v.mu.Unlock()
		return v.panTo(value, y)
	case FieldOffsetY:
		v.mu.Lock()
		x := v.store.raw.OffsetX
		v.mu.Unlock()
		return v.panTo(x, value)
	case FieldTotal, FieldLoading, FieldDocument:
		return resolved()
	default:
		return failed(fmt.Errorf("unknown field %q", field))
	}
}

// offsetOf extracts x and y from an Offset, a pointer to one, or a map with
// "x" and "y" keys. A nil value is rejected.
func offsetOf(value any) (x, y any, ok bool) {
	switch o := value.(type) {
	case Offset:
		return o.X, o.Y, true
	case *Offset:
		if o == nil {
			return nil, nil, false
		}
		return o.X, o.Y, true
	case map[string]any:
		return o["x"], o["y"], true
	default:
		return nil, nil, false
	}
}

// Get returns the bound value of field: the raw value for writable fields,
// the page count for total, the in-flight stage name (or nil) for loading
// and the Document for document.
func (b *Bindings) Get(field Field) any {
	v := b.v
	switch field {
	case FieldTotal:
		return v.Total()
	case FieldLoading:
		if h := v.Loading(); h != nil {
			return h.Stage().String()
		}
		return nil
	case FieldDocument:
		if d := v.Document(); d != nil {
			return d
		}
		return nil
	}

	raw := v.Raw()
	switch field {
	case FieldPage:
		return raw.Page
	case FieldZoom:
		return raw.Scale
	case FieldRotation:
		return raw.Rotation
	case FieldOffset:
		return map[string]any{"x": raw.OffsetX, "y": raw.OffsetY}
	case FieldOffsetX:
		return raw.OffsetX
	case FieldOffsetY:
		return raw.OffsetY
	case FieldWidth:
		return raw.Width
	case FieldHeight:
		return raw.Height
	default:
		return nil
	}
}

// Fields lists the writable fields.
func Fields() []Field {
	return []Field{FieldPage, FieldZoom, FieldRotation, FieldOffset, FieldOffsetX, FieldOffsetY, FieldWidth, FieldHeight}
}
