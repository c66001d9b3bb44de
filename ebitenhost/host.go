// Package ebitenhost runs a viewer inside an ebiten window.
//
// The Host polls mouse, wheel, touch and keyboard input every tick and
// turns it into gesture events, keeps the view size in step with the
// window, and draws the most recent committed frame.
package ebitenhost

import (
	"context"
	"image"
	"image/color"
	"slices"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"

	viewer "github.com/nimsforest/nimsforestpdfviewer"
)

// wheelScale converts ebiten's wheel offset (lines) into the browser
// wheelDelta unit of 120 per notch.
const wheelScale = 120

// Host implements ebiten.Game for a Viewer. It is also the EventSource of
// the viewer's gesture adapter.
type Host struct {
	v        *viewer.Viewer
	bus      *viewer.EventBus
	gestures *viewer.GestureAdapter
	sink     *frameSink
	in       input

	fit        bool
	keys       bool
	background color.Color

	width, height int
	cursorX       int
	cursorY       int
	inside        bool

	touching bool
	touchID  ebiten.TouchID
	touchX   int
	touchY   int

	img *ebiten.Image
}

// Option configures a Host.
type Option func(*Host)

// WithFitWindow makes the view follow the window size.
func WithFitWindow(enable bool) Option {
	return func(h *Host) {
		h.fit = enable
	}
}

// WithKeyboard enables keyboard navigation: arrows and page keys change
// pages, +/- zoom, R and Shift+R rotate, WASD pan.
func WithKeyboard(enable bool) Option {
	return func(h *Host) {
		h.keys = enable
	}
}

// WithBackground sets the color behind the page.
func WithBackground(c color.Color) Option {
	return func(h *Host) {
		h.background = c
	}
}

func withInput(in input) Option {
	return func(h *Host) {
		h.in = in
	}
}

// New creates a Host for v and attaches the gesture adapter configured by
// cfg. Committed frames are delivered to the host as a viewer target.
func New(v *viewer.Viewer, cfg viewer.GestureConfig, opts ...Option) *Host {
	h := &Host{
		v:          v,
		bus:        viewer.NewEventBus(),
		in:         &ebitenInput{},
		fit:        true,
		keys:       true,
		background: color.RGBA{0x1a, 0x1a, 0x2e, 0xff},
	}
	for _, opt := range opts {
		opt(h)
	}

	h.gestures = viewer.NewGestureAdapter(v, cfg)
	h.gestures.Attach(h)

	h.sink = &frameSink{}
	v.AddTarget(h.sink)
	return h
}

// On implements viewer.EventSource.
func (h *Host) On(kind viewer.EventKind, fn func(viewer.Event)) func() {
	return h.bus.On(kind, fn)
}

// Update implements ebiten.Game.
func (h *Host) Update() error {
	h.pollWheel()
	h.pollMouse()
	h.pollTouches()
	if h.keys {
		h.pollKeys()
	}
	return nil
}

func (h *Host) pollWheel() {
	if _, dy := h.in.Wheel(); dy != 0 {
		x, y := h.in.CursorPosition()
		h.bus.Dispatch(viewer.Event{Kind: viewer.EventWheel, X: float64(x), Y: float64(y), DeltaY: dy * wheelScale})
	}
}

func (h *Host) pollMouse() {
	x, y := h.in.CursorPosition()
	inside := x >= 0 && y >= 0 && (h.width == 0 || x < h.width) && (h.height == 0 || y < h.height)
	ev := func(k viewer.EventKind) viewer.Event {
		return viewer.Event{Kind: k, X: float64(x), Y: float64(y)}
	}

	if h.in.MouseJustPressed() && inside {
		h.bus.Dispatch(ev(viewer.EventPointerDown))
	}
	moved := x != h.cursorX || y != h.cursorY
	switch {
	case inside && moved:
		h.bus.Dispatch(ev(viewer.EventPointerMove))
	case !inside && h.inside:
		h.bus.Dispatch(ev(viewer.EventPointerLeave))
	}
	if h.in.MouseJustReleased() {
		h.bus.Dispatch(ev(viewer.EventPointerUp))
	}
	h.cursorX, h.cursorY, h.inside = x, y, inside
}

// pollTouches follows the first finger down until it lifts. Further
// fingers are ignored.
func (h *Host) pollTouches() {
	if !h.touching {
		if ids := h.in.JustPressedTouchIDs(); len(ids) > 0 {
			h.touching = true
			h.touchID = ids[0]
			h.touchX, h.touchY = h.in.TouchPosition(h.touchID)
			h.bus.Dispatch(viewer.Event{Kind: viewer.EventTouchStart, X: float64(h.touchX), Y: float64(h.touchY)})
		}
		return
	}

	if slices.Contains(h.in.JustReleasedTouchIDs(), h.touchID) {
		h.touching = false
		h.bus.Dispatch(viewer.Event{Kind: viewer.EventTouchEnd, X: float64(h.touchX), Y: float64(h.touchY)})
		return
	}
	x, y := h.in.TouchPosition(h.touchID)
	if x != h.touchX || y != h.touchY {
		h.touchX, h.touchY = x, y
		h.bus.Dispatch(viewer.Event{Kind: viewer.EventTouchMove, X: float64(x), Y: float64(y)})
	}
}

func (h *Host) pollKeys() {
	in := h.in
	switch {
	case in.KeyJustPressed(ebiten.KeyArrowRight), in.KeyJustPressed(ebiten.KeyPageDown):
		h.v.NextPage()
	case in.KeyJustPressed(ebiten.KeyArrowLeft), in.KeyJustPressed(ebiten.KeyPageUp):
		h.v.PreviousPage()
	case in.KeyJustPressed(ebiten.KeyEqual), in.KeyJustPressed(ebiten.KeyNumpadAdd):
		h.v.ZoomIn()
	case in.KeyJustPressed(ebiten.KeyMinus), in.KeyJustPressed(ebiten.KeyNumpadSubtract):
		h.v.ZoomOut()
	case in.KeyJustPressed(ebiten.KeyR):
		if in.KeyPressed(ebiten.KeyShift) {
			h.v.RotateLeft()
		} else {
			h.v.RotateRight()
		}
	case in.KeyJustPressed(ebiten.KeyA):
		h.v.PanLeft()
	case in.KeyJustPressed(ebiten.KeyD):
		h.v.PanRight()
	case in.KeyJustPressed(ebiten.KeyW):
		h.v.PanUp()
	case in.KeyJustPressed(ebiten.KeyS):
		h.v.PanDown()
	}
}

// Draw implements ebiten.Game.
func (h *Host) Draw(screen *ebiten.Image) {
	screen.Fill(h.background)

	if im, ok := h.sink.take(); ok {
		if h.img != nil {
			h.img.Deallocate()
		}
		h.img = ebiten.NewImageFromImage(im)
	}
	if h.img != nil {
		screen.DrawImage(h.img, nil)
	}
}

// Layout implements ebiten.Game. With WithFitWindow the view is resized to
// the window. The size is compared against the requested size rather than
// the last window size because a document load resets it.
func (h *Host) Layout(outsideWidth, outsideHeight int) (int, int) {
	if h.fit {
		h.width, h.height = outsideWidth, outsideHeight
		r := h.v.Requested()
		if r.Width != float64(outsideWidth) {
			h.v.SetWidth(float64(outsideWidth))
		}
		if r.Height != float64(outsideHeight) {
			h.v.SetHeight(float64(outsideHeight))
		}
		return outsideWidth, outsideHeight
	}

	w, ht := int(h.v.Width()), int(h.v.Height())
	if w <= 0 || ht <= 0 {
		w, ht = outsideWidth, outsideHeight
	}
	h.width, h.height = w, ht
	return w, ht
}

// Close detaches the gestures and stops frame delivery. The viewer itself
// is left open.
func (h *Host) Close() error {
	h.gestures.Detach()
	h.v.RemoveTarget(h.sink)
	if h.img != nil {
		h.img.Deallocate()
		h.img = nil
	}
	return nil
}

// frameSink receives committed frames from the viewer pipeline and hands
// the newest one to Draw.
type frameSink struct {
	mu    sync.Mutex
	img   image.Image
	fresh bool
}

func (s *frameSink) Update(_ context.Context, f *viewer.Frame) error {
	if f.Image == nil {
		return nil
	}
	s.mu.Lock()
	s.img, s.fresh = f.Image, true
	s.mu.Unlock()
	return nil
}

func (s *frameSink) take() (image.Image, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.fresh {
		return nil, false
	}
	s.fresh = false
	return s.img, true
}

func (s *frameSink) Close() error { return nil }

func (s *frameSink) Name() string { return "ebiten" }
