package nimsforestpdfviewer

import (
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type fakePannable struct {
	mu     sync.Mutex
	zooms  []float64
	offset Offset
	sets   []Offset
}

func (p *fakePannable) ZoomIn(speed ...float64) *Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.zooms = append(p.zooms, speed...)
	return resolved()
}

func (p *fakePannable) Offset() Offset {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.offset
}

func (p *fakePannable) SetOffset(o Offset) *Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.offset = o
	p.sets = append(p.sets, o)
	return resolved()
}

func TestGestureWheel(t *testing.T) {
	target := &fakePannable{}
	bus := NewEventBus()
	g := NewGestureAdapter(target, DefaultGestureConfig())
	g.Attach(bus)
	defer g.Detach()

	bus.Dispatch(Event{Kind: EventWheel, DeltaY: 120})
	bus.Dispatch(Event{Kind: EventWheel, DeltaY: -240})

	if diff := cmp.Diff([]float64{1.2, -2.4}, target.zooms); diff != "" {
		t.Errorf("zooms mismatch (-want +got):\n%s", diff)
	}
}

func TestGestureDrag(t *testing.T) {
	tests := []struct {
		name       string
		down, move EventKind
		end        EventKind
	}{
		{"mouse", EventPointerDown, EventPointerMove, EventPointerUp},
		{"mouse leave", EventPointerDown, EventPointerMove, EventPointerLeave},
		{"touch", EventTouchStart, EventTouchMove, EventTouchEnd},
		{"touch leave", EventTouchStart, EventTouchMove, EventTouchLeave},
		{"touch cancel", EventTouchStart, EventTouchMove, EventTouchCancel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := &fakePannable{offset: Offset{X: -10, Y: -10}}
			bus := NewEventBus()
			g := NewGestureAdapter(target, DefaultGestureConfig())
			g.Attach(bus)
			defer g.Detach()

			// Moves before a drag starts are ignored.
			bus.Dispatch(Event{Kind: tt.move, X: 1, Y: 1})

			bus.Dispatch(Event{Kind: tt.down, X: 50, Y: 50})
			if !g.Dragging() {
				t.Fatal("not dragging after drag start")
			}
			bus.Dispatch(Event{Kind: tt.move, X: 40, Y: 45})
			bus.Dispatch(Event{Kind: tt.move, X: 30, Y: 45})
			bus.Dispatch(Event{Kind: tt.end, X: 30, Y: 45})
			bus.Dispatch(Event{Kind: tt.move, X: 0, Y: 0})

			want := []Offset{{X: -20, Y: -15}, {X: -30, Y: -15}}
			if diff := cmp.Diff(want, target.sets); diff != "" {
				t.Errorf("offsets mismatch (-want +got):\n%s", diff)
			}
			if g.Dragging() {
				t.Error("still dragging after drag end")
			}
		})
	}
}

func TestGestureConfigDisables(t *testing.T) {
	target := &fakePannable{}
	bus := NewEventBus()
	g := NewGestureAdapter(target, GestureConfig{MousePan: true})
	g.Attach(bus)

	// 2 start, 2 move and 5 end handlers; no wheel handler.
	if got := bus.Len(); got != 9 {
		t.Errorf("handlers = %d, want 9", got)
	}
	bus.Dispatch(Event{Kind: EventWheel, DeltaY: 120})
	if len(target.zooms) != 0 {
		t.Errorf("zoomed with mouse zoom disabled: %v", target.zooms)
	}

	g.Detach()
	g = NewGestureAdapter(target, GestureConfig{MouseZoom: true})
	g.Attach(bus)
	if got := bus.Len(); got != 1 {
		t.Errorf("handlers = %d, want 1", got)
	}
	bus.Dispatch(Event{Kind: EventPointerDown, X: 5, Y: 5})
	bus.Dispatch(Event{Kind: EventPointerMove, X: 1, Y: 1})
	if len(target.sets) != 0 {
		t.Errorf("panned with mouse pan disabled: %v", target.sets)
	}
	g.Detach()
}

func TestGestureDetach(t *testing.T) {
	target := &fakePannable{}
	bus := NewEventBus()
	g := NewGestureAdapter(target, DefaultGestureConfig())
	g.Attach(bus)

	bus.Dispatch(Event{Kind: EventPointerDown, X: 5, Y: 5})
	g.Detach()
	if got := bus.Len(); got != 0 {
		t.Errorf("handlers after Detach = %d, want 0", got)
	}

	bus.Dispatch(Event{Kind: EventPointerMove, X: 1, Y: 1})
	bus.Dispatch(Event{Kind: EventWheel, DeltaY: 120})
	if len(target.sets) != 0 || len(target.zooms) != 0 {
		t.Errorf("state mutated after Detach: sets %v, zooms %v", target.sets, target.zooms)
	}
}

func TestGestureWithViewer(t *testing.T) {
	v, _, _ := loadedViewer(t)
	mustResolve(t, v.ZoomTo(2))

	bus := NewEventBus()
	g := NewGestureAdapter(v, DefaultGestureConfig())
	g.Attach(bus)
	defer g.Detach()

	bus.Dispatch(Event{Kind: EventPointerDown, X: 100, Y: 100})
	bus.Dispatch(Event{Kind: EventPointerMove, X: 70, Y: 500})
	// Y is clamped to 0: the page cannot be dragged past its top edge.
	if got := v.Offset(); got != (Offset{X: -30, Y: 0}) {
		t.Errorf("Offset() = %+v, want {-30 0}", got)
	}
}

func TestParseGestureConfig(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    GestureConfig
		wantErr bool
	}{
		{"empty", "", DefaultGestureConfig(), false},
		{"zoom off", `{"mouseZoom": false}`, GestureConfig{MouseZoom: false, MousePan: true, WheelDivisor: 100}, false},
		{"both off", `{"mouseZoom": false, "mousePan": false}`, GestureConfig{WheelDivisor: 100}, false},
		{"divisor", `{"wheelDivisor": 50}`, GestureConfig{MouseZoom: true, MousePan: true, WheelDivisor: 50}, false},
		{"bad divisor", `{"wheelDivisor": -1}`, DefaultGestureConfig(), false},
		{"invalid", `{"mouseZoom": `, DefaultGestureConfig(), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseGestureConfig([]byte(tt.in))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseGestureConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("config mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEventKindString(t *testing.T) {
	if got := EventTouchCancel.String(); got != "touchcancel" {
		t.Errorf("EventTouchCancel.String() = %q", got)
	}
	if got := EventKind(99).String(); got != "unknown" {
		t.Errorf("EventKind(99).String() = %q", got)
	}
}

// recordingSource keeps every handler ever registered, including removed
// ones, like a source that copied its handler list before a dispatch.
type recordingSource struct {
	handlers map[EventKind][]func(Event)
}

func (s *recordingSource) On(kind EventKind, fn func(Event)) func() {
	if s.handlers == nil {
		s.handlers = make(map[EventKind][]func(Event))
	}
	s.handlers[kind] = append(s.handlers[kind], fn)
	return func() {}
}

func TestGestureStaleHandlersAfterDetach(t *testing.T) {
	target := &fakePannable{}
	src := &recordingSource{}
	g := NewGestureAdapter(target, DefaultGestureConfig())
	g.Attach(src)
	g.Detach()

	for _, e := range []Event{
		{Kind: EventWheel, DeltaY: 120},
		{Kind: EventPointerDown, X: 5, Y: 5},
		{Kind: EventPointerMove, X: 1, Y: 1},
	} {
		for _, fn := range src.handlers[e.Kind] {
			fn(e)
		}
	}
	if len(target.sets) != 0 || len(target.zooms) != 0 {
		t.Errorf("state mutated after Detach: sets %v, zooms %v", target.sets, target.zooms)
	}
	if g.Dragging() {
		t.Error("drag started after Detach")
	}
}
