package nimsforestpdfviewer

import (
	"encoding/json"
	"fmt"
	"sync"
)

// GestureConfig enables the mouse and touch gestures.
type GestureConfig struct {
	// MouseZoom maps wheel events to zoom.
	MouseZoom bool `json:"mouseZoom"`
	// MousePan maps pointer and touch drags to pan.
	MousePan bool `json:"mousePan"`
	// WheelDivisor converts a wheel delta into a zoom increment.
	WheelDivisor float64 `json:"wheelDivisor"`
}

// DefaultGestureConfig enables both gestures with a wheel divisor of 100.
func DefaultGestureConfig() GestureConfig {
	return GestureConfig{MouseZoom: true, MousePan: true, WheelDivisor: 100}
}

// ParseGestureConfig reads a JSON object such as
// {"mouseZoom": false, "mousePan": true}. Omitted keys keep their defaults.
func ParseGestureConfig(data []byte) (GestureConfig, error) {
	cfg := DefaultGestureConfig()
	if len(data) == 0 {
		return cfg, nil
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return DefaultGestureConfig(), fmt.Errorf("parse gesture config: %w", err)
	}
	if !(cfg.WheelDivisor > 0) || !finite(cfg.WheelDivisor) {
		cfg.WheelDivisor = 100
	}
	return cfg, nil
}

// EventKind is the kind of an input event.
type EventKind int

const (
	EventWheel EventKind = iota
	EventPointerDown
	EventPointerMove
	EventPointerUp
	EventPointerLeave
	EventTouchStart
	EventTouchMove
	EventTouchEnd
	EventTouchLeave
	EventTouchCancel
)

func (k EventKind) String() string {
	switch k {
	case EventWheel:
		return "wheel"
	case EventPointerDown:
		return "pointerdown"
	case EventPointerMove:
		return "pointermove"
	case EventPointerUp:
		return "pointerup"
	case EventPointerLeave:
		return "pointerleave"
	case EventTouchStart:
		return "touchstart"
	case EventTouchMove:
		return "touchmove"
	case EventTouchEnd:
		return "touchend"
	case EventTouchLeave:
		return "touchleave"
	case EventTouchCancel:
		return "touchcancel"
	default:
		return "unknown"
	}
}

// Event is a pointer, touch or wheel event in surface coordinates.
type Event struct {
	Kind EventKind
	X, Y float64
	// DeltaY is the wheel delta, positive away from the user.
	DeltaY float64
}

// EventSource delivers input events. On registers fn for kind and returns
// a function that removes it.
type EventSource interface {
	On(kind EventKind, fn func(Event)) (off func())
}

// Pannable is the part of the Viewer the gesture adapter drives.
type Pannable interface {
	ZoomIn(speed ...float64) *Result
	Offset() Offset
	SetOffset(o Offset) *Result
}

// GestureAdapter translates input events into zoom and pan requests. It
// never touches the surface.
type GestureAdapter struct {
	target Pannable
	cfg    GestureConfig

	mu       sync.Mutex
	dragging bool
	origin   Offset
	offs     []func()

	// life is read-held by handlers while they drive the target and
	// write-held by Detach, so no handler mutates the target once Detach
	// has returned, even one already copied out by a dispatching source.
	life     sync.RWMutex
	attached bool
}

// NewGestureAdapter creates an adapter for target.
func NewGestureAdapter(target Pannable, cfg GestureConfig) *GestureAdapter {
	if !(cfg.WheelDivisor > 0) || !finite(cfg.WheelDivisor) {
		cfg.WheelDivisor = 100
	}
	return &GestureAdapter{target: target, cfg: cfg}
}

// Attach subscribes to src. Only the enabled gestures are subscribed.
// Attaching again detaches from the previous source first.
func (g *GestureAdapter) Attach(src EventSource) {
	g.Detach()

	var offs []func()
	if g.cfg.MouseZoom {
		offs = append(offs, src.On(EventWheel, g.wheel))
	}
	if g.cfg.MousePan {
		for _, k := range []EventKind{EventPointerDown, EventTouchStart} {
			offs = append(offs, src.On(k, g.start))
		}
		for _, k := range []EventKind{EventPointerMove, EventTouchMove} {
			offs = append(offs, src.On(k, g.move))
		}
		for _, k := range []EventKind{EventPointerUp, EventPointerLeave, EventTouchEnd, EventTouchLeave, EventTouchCancel} {
			offs = append(offs, src.On(k, g.end))
		}
	}

	g.mu.Lock()
	g.offs = offs
	g.mu.Unlock()

	g.life.Lock()
	g.attached = true
	g.life.Unlock()
}

// Detach removes all handlers and drops any drag in progress. It waits for
// running handlers and must not be called from one.
func (g *GestureAdapter) Detach() {
	g.life.Lock()
	g.attached = false
	g.life.Unlock()

	g.mu.Lock()
	offs := g.offs
	g.offs = nil
	g.dragging = false
	g.mu.Unlock()

	for _, off := range offs {
		off()
	}
}

// Dragging reports whether a drag is in progress.
func (g *GestureAdapter) Dragging() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.dragging
}

func (g *GestureAdapter) wheel(e Event) {
	g.life.RLock()
	defer g.life.RUnlock()
	if !g.attached {
		return
	}
	g.target.ZoomIn(e.DeltaY / g.cfg.WheelDivisor)
}

// start records the drag origin so that the page point under the pointer
// stays under it while moving.
func (g *GestureAdapter) start(e Event) {
	g.life.RLock()
	defer g.life.RUnlock()
	if !g.attached {
		return
	}
	o := g.target.Offset()
	g.mu.Lock()
	g.dragging = true
	g.origin = Offset{X: e.X - o.X, Y: e.Y - o.Y}
	g.mu.Unlock()
}

func (g *GestureAdapter) move(e Event) {
	g.life.RLock()
	defer g.life.RUnlock()
	if !g.attached {
		return
	}
	g.mu.Lock()
	dragging, origin := g.dragging, g.origin
	g.mu.Unlock()
	if !dragging {
		return
	}
	g.target.SetOffset(Offset{X: e.X - origin.X, Y: e.Y - origin.Y})
}

func (g *GestureAdapter) end(Event) {
	g.mu.Lock()
	g.dragging = false
	g.mu.Unlock()
}

// EventBus is an in-memory EventSource. Hosts that translate their own
// input into Events dispatch them through it.
type EventBus struct {
	mu       sync.Mutex
	nextID   int
	handlers map[EventKind]map[int]func(Event)
}

// NewEventBus creates an empty EventBus.
func NewEventBus() *EventBus {
	return &EventBus{handlers: make(map[EventKind]map[int]func(Event))}
}

// On implements EventSource.
func (b *EventBus) On(kind EventKind, fn func(Event)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	if b.handlers[kind] == nil {
		b.handlers[kind] = make(map[int]func(Event))
	}
	b.handlers[kind][id] = fn
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.handlers[kind], id)
	}
}

// Dispatch calls every handler registered for e.Kind.
func (b *EventBus) Dispatch(e Event) {
	b.mu.Lock()
	fns := make([]func(Event), 0, len(b.handlers[e.Kind]))
	for _, fn := range b.handlers[e.Kind] {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(e)
	}
}

// Len returns the number of registered handlers.
func (b *EventBus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, m := range b.handlers {
		n += len(m)
	}
	return n
}
