package nimsforestpdfviewer

import (
	"context"
	"errors"
	"io"
)

// The pipeline runs at most one operation at a time. Every provider call is
// made without holding v.mu; after each call the goroutine re-checks that
// its handle still owns v.loading; if not, it was cancelled or superseded
// and its result is dropped.

// beginLocked installs a new in-flight handle.
func (v *Viewer) beginLocked(stage Stage, result *Result) (context.Context, *LoadHandle) {
	ctx, cancel := context.WithCancel(context.Background())
	v.nextID++
	h := &LoadHandle{id: v.nextID, stage: stage, cancel: cancel, result: result}
	v.loading = h
	return ctx, h
}

// abortLocked cancels the in-flight operation, if any, and fails its result.
func (v *Viewer) abortLocked() *LoadHandle {
	h := v.loading
	if h == nil {
		return nil
	}
	h.cancel()
	v.loading = nil
	h.result.finish(ErrCancelled)
	return h
}

// takePendingLocked detaches the result handed out to callers that mutated
// state while an operation was in flight.
func (v *Viewer) takePendingLocked() *Result {
	p := v.pending
	v.pending = nil
	return p
}

func (v *Viewer) setStateLocked(s PipelineState) {
	if v.state == s {
		return
	}
	v.log().Debug("pipeline transition", "from", v.state, "to", s)
	v.state = s
}

// clearLocked drops the document and resets all state to defaults. The
// returned document, if any, must be closed once the lock is released.
func (v *Viewer) clearLocked() Document {
	old := v.doc
	v.doc = nil
	v.page = nil
	v.original = nil
	v.store.total = 0
	v.store.reset()
	return old
}

// okToRenderLocked is the dirty check: a document and a surface are
// present, nothing is in flight and requested differs from committed.
func (v *Viewer) okToRenderLocked() bool {
	return v.doc != nil && v.surface != nil && v.loading == nil && v.store.dirty()
}

// renderCycle starts a render if one is warranted. While an operation is
// in flight it returns a result that resolves once the coalesced follow-up
// render (if any) has finished.
func (v *Viewer) renderCycle() *Result {
	v.mu.Lock()
	if v.loading != nil {
		if v.pending == nil {
			v.pending = newResult()
		}
		p := v.pending
		v.mu.Unlock()
		return p
	}
	if !v.okToRenderLocked() {
		v.mu.Unlock()
		return resolved()
	}
	ctx, h := v.beginLocked(StagePage, newResult())
	v.setStateLocked(LoadingPage)
	v.mu.Unlock()

	go v.run(ctx, h)
	return h.result
}

// run drives render cycles until the state is clean or a cycle fails.
func (v *Viewer) run(ctx context.Context, h *LoadHandle) {
	v.renderMu.Lock()
	defer v.renderMu.Unlock()
	for h != nil {
		target, err := v.renderOnce(ctx, h)
		ctx, h = v.finishRender(h, target, err)
	}
}

// renderOnce fetches the requested page and paints it. It does not commit.
func (v *Viewer) renderOnce(ctx context.Context, h *LoadHandle) (ViewState, error) {
	v.mu.Lock()
	if v.loading != h {
		v.mu.Unlock()
		return ViewState{}, ErrCancelled
	}
	target := v.store.requested
	doc := v.doc
	v.mu.Unlock()

	page, err := doc.Page(ctx, target.Page)
	if ctx.Err() != nil {
		return target, ErrCancelled
	}
	if err != nil {
		return target, &PageLoadError{Page: target.Page, Err: err}
	}

	v.mu.Lock()
	if v.loading != h {
		v.mu.Unlock()
		return target, ErrCancelled
	}
	v.page = page
	if v.original == nil {
		g := page.IntrinsicViewport()
		v.original = &g
		v.store.seed(g)
	}
	orig := *v.original
	if target.Width == 0 {
		target.Width = orig.Width
	}
	if target.Height == 0 {
		target.Height = orig.Height
	}
	s := v.surface
	h.stage = StagePaint
	v.setStateLocked(Rendering)
	v.mu.Unlock()

	w, ht := EffectiveSize(target.Rotation, target.Width, target.Height)
	if err := s.Resize(w, ht); err != nil {
		return target, &RenderError{Page: target.Page, Err: err}
	}
	if ctx.Err() != nil {
		return target, ErrCancelled
	}
	vp := Viewport{
		Width:    orig.Width,
		Height:   orig.Height,
		Rotation: target.Rotation,
		OffsetX:  target.OffsetX,
		OffsetY:  target.OffsetY,
		Scale:    target.Scale,
	}
	err = page.Paint(ctx, s, vp)
	if ctx.Err() != nil {
		return target, ErrCancelled
	}
	if err != nil {
		return target, &RenderError{Page: target.Page, Err: err}
	}
	return target, nil
}

// finishRender commits a successful cycle, settles results and decides
// whether a follow-up cycle is needed.
func (v *Viewer) finishRender(h *LoadHandle, target ViewState, err error) (context.Context, *LoadHandle) {
	v.mu.Lock()
	if v.loading != h {
		// Cancelled or superseded; whoever did that settled h.result.
		v.mu.Unlock()
		h.result.finish(ErrCancelled)
		return nil, nil
	}
	h.cancel()

	if err != nil {
		v.loading = nil
		v.setStateLocked(Failed)
		pending := v.takePendingLocked()
		snap := v.snapshotLocked()
		v.mu.Unlock()

		v.log().Warn("render failed", "page", target.Page, "err", err)
		v.notify(snap)
		h.result.finish(err)
		if pending != nil {
			pending.finish(err)
		}
		return nil, nil
	}

	v.store.commit(target)
	v.setStateLocked(Committed)
	v.loading = nil
	snap := v.snapshotLocked()
	var frame *Frame
	if len(v.targets) > 0 {
		frame = v.frameLocked()
	}

	var (
		ctx  context.Context
		next *LoadHandle
	)
	pending := v.takePendingLocked()
	if v.okToRenderLocked() {
		if pending == nil {
			pending = newResult()
		}
		ctx, next = v.beginLocked(StagePage, pending)
		v.setStateLocked(LoadingPage)
		pending = nil
	} else {
		v.setStateLocked(Idle)
	}
	v.mu.Unlock()

	v.log().Info("page committed", "page", target.Page, "scale", target.Scale, "rotation", target.Rotation)
	v.notify(snap)
	v.pushFrame(frame)
	h.result.finish(nil)
	if pending != nil {
		pending.finish(nil)
	}
	return ctx, next
}

// LoadDocument resolves url through the provider, resets the view state and
// renders the first page. The result fails with *DocumentLoadError,
// *PageLoadError or *RenderError. An empty url is a no-op.
//
// A load in flight when LoadDocument is called is cancelled.
func (v *Viewer) LoadDocument(url string) *Result {
	if url == "" {
		return resolved()
	}
	v.mu.Lock()
	if v.provider == nil {
		v.mu.Unlock()
		return failed(&DocumentLoadError{URL: url, Err: ErrNoProvider})
	}
	v.abortLocked()
	v.source = url
	ctx, h := v.beginLocked(StageDocument, newResult())
	v.setStateLocked(LoadingDocument)
	provider := v.provider
	v.mu.Unlock()

	v.log().Info("loading document", "url", url)
	go v.load(ctx, h, provider, url)
	return h.result
}

func (v *Viewer) load(ctx context.Context, h *LoadHandle, provider DocumentProvider, url string) {
	doc, err := provider.Resolve(ctx, url)

	v.mu.Lock()
	if v.loading != h {
		v.mu.Unlock()
		closeDocument(doc)
		h.result.finish(ErrCancelled)
		return
	}
	if err != nil {
		old := v.clearLocked()
		v.loading = nil
		h.cancel()
		v.setStateLocked(Failed)
		pending := v.takePendingLocked()
		snap := v.snapshotLocked()
		v.mu.Unlock()

		closeDocument(old)
		lerr := &DocumentLoadError{URL: url, Err: err}
		v.log().Warn("document load failed", "url", url, "err", err)
		v.notify(snap)
		h.result.finish(lerr)
		if pending != nil {
			pending.finish(lerr)
		}
		return
	}

	old := v.clearLocked()
	v.doc = doc
	v.store.total = doc.PageCount()
	snap := v.snapshotLocked()

	renderNow := v.surface != nil && v.store.dirty()
	var pending *Result
	if renderNow {
		h.stage = StagePage
		v.setStateLocked(LoadingPage)
	} else {
		h.cancel()
		v.loading = nil
		v.setStateLocked(Idle)
		pending = v.takePendingLocked()
	}
	v.mu.Unlock()

	closeDocument(old)
	v.log().Info("document loaded", "url", url, "pages", snap.Total)
	v.notify(snap)
	if !renderNow {
		h.result.finish(nil)
		if pending != nil {
			pending.finish(nil)
		}
		return
	}
	v.run(ctx, h)
}

// CancelLoad cancels the in-flight operation. Cancelling a document load
// drops the document and resets the view state to defaults; cancelling a
// page fetch or paint reverts requested to the last committed state. With
// nothing in flight it is a no-op.
//
// A provider call that ignores cancellation keeps running; the next render
// waits for it to return before fetching or painting.
func (v *Viewer) CancelLoad() *Result {
	v.mu.Lock()
	h := v.abortLocked()
	if h == nil {
		v.mu.Unlock()
		return resolved()
	}
	var old Document
	if h.stage == StageDocument {
		old = v.clearLocked()
		v.source = ""
	} else {
		v.store.revert()
	}
	v.setStateLocked(Cancelled)
	v.setStateLocked(Idle)
	pending := v.takePendingLocked()
	snap := v.snapshotLocked()
	v.mu.Unlock()

	closeDocument(old)
	v.log().Info("load cancelled", "stage", h.stage)
	v.notify(snap)
	if pending != nil {
		pending.finish(ErrCancelled)
	}
	return resolved()
}

func closeDocument(d Document) {
	if d == nil {
		return
	}
	if c, ok := d.(io.Closer); ok {
		if err := c.Close(); err != nil {
			Logger().Warn("close document", "err", err)
		}
	}
}

// IsCancelled reports whether err means the operation was cancelled.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}
