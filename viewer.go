package nimsforestpdfviewer

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"sync"
)

const (
	defaultZoomSpeed   = 0.25
	defaultPanSpeed    = 10
	defaultRotateSpeed = 90
)

// Viewer binds a document provider and a paint surface to a view state.
//
// All setters coerce and clamp their input, update the requested state and
// start a render if one is warranted. They never block; the returned
// *Result settles when the render finishes. Rejected input leaves the
// requested state unchanged and returns an already resolved result.
type Viewer struct {
	mu       sync.Mutex
	provider DocumentProvider
	surface  Surface
	store    *store
	doc      Document
	page     Page
	original *Viewport
	source   string

	state   PipelineState
	loading *LoadHandle
	pending *Result
	nextID  uint64

	// renderMu is held by the goroutine running page fetches and paints.
	// A cancelled render keeps it until its provider calls return, so the
	// next render never paints the surface at the same time.
	renderMu sync.Mutex

	zoomSpeed   float64
	panSpeed    float64
	rotateSpeed float64
	logger      *slog.Logger

	targets   []Target
	listeners []func(Snapshot)
}

// Option configures the Viewer.
type Option func(*Viewer)

// WithProvider sets the document provider.
func WithProvider(p DocumentProvider) Option {
	return func(v *Viewer) {
		v.provider = p
	}
}

// WithSurface sets the paint surface.
func WithSurface(s Surface) Option {
	return func(v *Viewer) {
		v.surface = s
	}
}

// WithZoomSpeed sets the default increment of ZoomIn and ZoomOut.
func WithZoomSpeed(d float64) Option {
	return func(v *Viewer) {
		v.zoomSpeed = d
	}
}

// WithPanSpeed sets the default increment of the Pan helpers, in pixels.
func WithPanSpeed(d float64) Option {
	return func(v *Viewer) {
		v.panSpeed = d
	}
}

// WithRotateSpeed sets the default increment of RotateLeft and
// RotateRight, in degrees.
func WithRotateSpeed(d float64) Option {
	return func(v *Viewer) {
		v.rotateSpeed = d
	}
}

// WithLogger sets the logger of this viewer. By default the package logger
// (see SetLogger) is used.
func WithLogger(l *slog.Logger) Option {
	return func(v *Viewer) {
		v.logger = l
	}
}

// New creates a new Viewer with the given options.
func New(opts ...Option) *Viewer {
	v := &Viewer{
		store:       newStore(),
		zoomSpeed:   defaultZoomSpeed,
		panSpeed:    defaultPanSpeed,
		rotateSpeed: defaultRotateSpeed,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func (v *Viewer) log() *slog.Logger {
	if v.logger != nil {
		return v.logger
	}
	return Logger()
}

// SetProvider sets the document provider used by later loads.
func (v *Viewer) SetProvider(p DocumentProvider) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.provider = p
}

// SetSurface sets the paint surface and renders if a document is waiting
// for one.
func (v *Viewer) SetSurface(s Surface) *Result {
	v.mu.Lock()
	v.surface = s
	v.mu.Unlock()
	return v.renderCycle()
}

// SetSource loads url if it differs from the current source.
func (v *Viewer) SetSource(url string) *Result {
	v.mu.Lock()
	same := url == v.source
	v.mu.Unlock()
	if same {
		return resolved()
	}
	return v.LoadDocument(url)
}

// Source returns the url of the current or loading document.
func (v *Viewer) Source() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.source
}

// apply runs a store setter and starts a render if the value was accepted.
func (v *Viewer) apply(field string, value any, set func(*store, any) bool) *Result {
	v.mu.Lock()
	ok := set(v.store, value)
	v.mu.Unlock()
	if !ok {
		v.log().Debug("value rejected", "field", field, "value", value, "err", ErrInvalidInput)
		return resolved()
	}
	return v.renderCycle()
}

// GoToPage requests page n, clamped to [1, Total()].
func (v *Viewer) GoToPage(n int) *Result {
	return v.apply("page", n, (*store).setPage)
}

// ZoomTo requests the given scale. Non-finite or non-positive scales are
// rejected.
func (v *Viewer) ZoomTo(scale float64) *Result {
	return v.apply("zoom", scale, (*store).setZoom)
}

// RotateTo requests the rotation deg rounded to the nearest multiple of 90.
func (v *Viewer) RotateTo(deg float64) *Result {
	return v.apply("rotation", deg, (*store).setRotation)
}

// PanTo requests the pan offset (x, y), clamped so the page keeps covering
// the surface. A non-finite axis is rejected on its own.
func (v *Viewer) PanTo(x, y float64) *Result {
	return v.panTo(x, y)
}

func (v *Viewer) panTo(x, y any) *Result {
	v.mu.Lock()
	ok := v.store.setOffset(x, y)
	v.mu.Unlock()
	if !ok {
		v.log().Debug("value rejected", "field", "offset", "x", x, "y", y, "err", ErrInvalidInput)
		return resolved()
	}
	return v.renderCycle()
}

// SetOffset is PanTo taking an Offset.
func (v *Viewer) SetOffset(o Offset) *Result {
	return v.panTo(o.X, o.Y)
}

// SetOffsetX requests a new horizontal offset, keeping the bound vertical
// offset.
func (v *Viewer) SetOffsetX(x float64) *Result {
	v.mu.Lock()
	y := v.store.raw.OffsetY
	v.mu.Unlock()
	return v.panTo(x, y)
}

// SetOffsetY requests a new vertical offset, keeping the bound horizontal
// offset.
func (v *Viewer) SetOffsetY(y float64) *Result {
	v.mu.Lock()
	x := v.store.raw.OffsetX
	v.mu.Unlock()
	return v.panTo(x, y)
}

// SetWidth requests the view width. Values <= 0 are rejected.
func (v *Viewer) SetWidth(w float64) *Result {
	return v.apply("width", w, (*store).setWidth)
}

// SetHeight requests the view height. Values <= 0 are rejected.
func (v *Viewer) SetHeight(h float64) *Result {
	return v.apply("height", h, (*store).setHeight)
}

func speedOr(def float64, speed []float64) float64 {
	if len(speed) > 0 && finite(speed[0]) {
		return speed[0]
	}
	return def
}

// NextPage moves one page forward from the committed page.
func (v *Viewer) NextPage() *Result {
	return v.GoToPage(v.Committed().Page + 1)
}

// PreviousPage moves one page back from the committed page.
func (v *Viewer) PreviousPage() *Result {
	return v.GoToPage(v.Committed().Page - 1)
}

// ZoomIn increases the committed scale by speed, or by the default zoom
// speed when speed is omitted or not finite.
func (v *Viewer) ZoomIn(speed ...float64) *Result {
	return v.ZoomTo(v.Committed().Scale + speedOr(v.zoomSpeed, speed))
}

// ZoomOut decreases the committed scale.
func (v *Viewer) ZoomOut(speed ...float64) *Result {
	return v.ZoomTo(v.Committed().Scale - speedOr(v.zoomSpeed, speed))
}

// PanLeft moves the view towards the left edge of the page.
func (v *Viewer) PanLeft(speed ...float64) *Result {
	c := v.Committed()
	return v.PanTo(c.OffsetX+speedOr(v.panSpeed, speed), c.OffsetY)
}

// PanRight moves the view towards the right edge of the page.
func (v *Viewer) PanRight(speed ...float64) *Result {
	c := v.Committed()
	return v.PanTo(c.OffsetX-speedOr(v.panSpeed, speed), c.OffsetY)
}

// PanUp moves the view towards the top edge of the page.
func (v *Viewer) PanUp(speed ...float64) *Result {
	c := v.Committed()
	return v.PanTo(c.OffsetX, c.OffsetY+speedOr(v.panSpeed, speed))
}

// PanDown moves the view towards the bottom edge of the page.
func (v *Viewer) PanDown(speed ...float64) *Result {
	c := v.Committed()
	return v.PanTo(c.OffsetX, c.OffsetY-speedOr(v.panSpeed, speed))
}

// RotateLeft rotates counter-clockwise from the committed rotation.
func (v *Viewer) RotateLeft(speed ...float64) *Result {
	return v.RotateTo(float64(v.Committed().Rotation) - speedOr(v.rotateSpeed, speed))
}

// RotateRight rotates clockwise from the committed rotation.
func (v *Viewer) RotateRight(speed ...float64) *Result {
	return v.RotateTo(float64(v.Committed().Rotation) + speedOr(v.rotateSpeed, speed))
}

// Page returns the requested page number.
func (v *Viewer) Page() int {
	return v.Requested().Page
}

// Zoom returns the requested scale.
func (v *Viewer) Zoom() float64 {
	return v.Requested().Scale
}

// Rotation returns the requested rotation.
func (v *Viewer) Rotation() int {
	return v.Requested().Rotation
}

// Offset returns the requested pan offset.
func (v *Viewer) Offset() Offset {
	return v.Requested().Offset()
}

// Width returns the requested view width.
func (v *Viewer) Width() float64 {
	return v.Requested().Width
}

// Height returns the requested view height.
func (v *Viewer) Height() float64 {
	return v.Requested().Height
}

// Total returns the page count of the loaded document, or 0.
func (v *Viewer) Total() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.store.total
}

// Loading returns the in-flight operation, or nil.
func (v *Viewer) Loading() *LoadHandle {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.loading == nil {
		return nil
	}
	h := *v.loading
	return &h
}

// Document returns the loaded document, or nil.
func (v *Viewer) Document() Document {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.doc
}

// CurrentPage returns the most recently fetched page, or nil.
func (v *Viewer) CurrentPage() Page {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.page
}

// OriginalGeometry returns the intrinsic geometry of the first page fetched
// from the current document.
func (v *Viewer) OriginalGeometry() (Viewport, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.original == nil {
		return Viewport{}, false
	}
	return *v.original, true
}

// State returns the pipeline state.
func (v *Viewer) State() PipelineState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Committed returns the last rendered state.
func (v *Viewer) Committed() ViewState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.store.committed
}

// Requested returns the state the next render will produce.
func (v *Viewer) Requested() ViewState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.store.requested
}

// Raw returns the values most recently bound, before coercion.
func (v *Viewer) Raw() RawState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.store.raw
}

// Snapshot returns all three state records at once.
func (v *Viewer) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snapshotLocked()
}

func (v *Viewer) snapshotLocked() Snapshot {
	s := Snapshot{
		Committed: v.store.committed,
		Requested: v.store.requested,
		Raw:       v.store.raw,
		Total:     v.store.total,
	}
	if v.loading != nil {
		s.Stage = v.loading.stage
	}
	return s
}

// OnChange registers a listener called after every commit, reset or
// failure. Listeners run on the pipeline goroutine and must not block.
func (v *Viewer) OnChange(fn func(Snapshot)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.listeners = append(v.listeners, fn)
}

func (v *Viewer) notify(s Snapshot) {
	v.mu.Lock()
	listeners := make([]func(Snapshot), len(v.listeners))
	copy(listeners, v.listeners)
	v.mu.Unlock()

	for _, fn := range listeners {
		fn(s)
	}
}

// AddTarget adds an output target. Targets receive a Frame after every
// commit.
func (v *Viewer) AddTarget(t Target) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.targets = append(v.targets, t)
	return nil
}

// RemoveTarget removes a target by reference.
func (v *Viewer) RemoveTarget(t Target) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i, target := range v.targets {
		if target == t {
			v.targets = append(v.targets[:i], v.targets[i+1:]...)
			return
		}
	}
}

type imager interface {
	Image() image.Image
}

func (v *Viewer) frameLocked() *Frame {
	f := &Frame{
		State:  v.store.committed,
		Total:  v.store.total,
		Source: v.source,
	}
	if im, ok := v.surface.(imager); ok {
		f.Image = im.Image()
	}
	return f
}

func (v *Viewer) pushFrame(f *Frame) {
	if f == nil {
		return
	}
	if err := v.updateTargets(context.Background(), f); err != nil {
		v.log().Warn("target update failed", "err", err)
	}
}

func (v *Viewer) updateTargets(ctx context.Context, f *Frame) error {
	v.mu.Lock()
	targets := make([]Target, len(v.targets))
	copy(targets, v.targets)
	v.mu.Unlock()

	var lastErr error
	for _, target := range targets {
		if err := target.Update(ctx, f); err != nil {
			lastErr = fmt.Errorf("target %s: %w", target.Name(), err)
		}
	}
	return lastErr
}

// Update sends the committed frame to all targets immediately.
func (v *Viewer) Update(ctx context.Context) error {
	v.mu.Lock()
	f := v.frameLocked()
	v.mu.Unlock()
	return v.updateTargets(ctx, f)
}

// Close cancels any in-flight operation, closes the document and all
// targets.
func (v *Viewer) Close() error {
	v.mu.Lock()
	v.abortLocked()
	pending := v.takePendingLocked()
	doc := v.doc
	v.doc = nil
	targets := v.targets
	v.targets = nil
	v.mu.Unlock()

	if pending != nil {
		pending.finish(ErrCancelled)
	}
	closeDocument(doc)

	var lastErr error
	for _, target := range targets {
		if err := target.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}
