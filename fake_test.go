package nimsforestpdfviewer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeProvider serves documents of the configured page sizes. Each stage
// can be made to fail or to block until its gate is closed.
type fakeProvider struct {
	mu       sync.Mutex
	pages    []PageSize
	resolves int
	fetched  []int
	painted  []Viewport

	resolveErr error
	pageErr    map[int]error
	paintErr   error

	resolveGate chan struct{}
	pageGate    chan struct{}
	paintGate   chan struct{} // ignores cancellation

	painting    int
	maxPainting int
	entered     chan string // receives "resolve", "page" or "paint" on entry
}

func newFakeProvider(pages ...PageSize) *fakeProvider {
	if len(pages) == 0 {
		pages = []PageSize{{Width: 100, Height: 200}, {Width: 100, Height: 200}, {Width: 100, Height: 200}}
	}
	return &fakeProvider{pages: pages, pageErr: make(map[int]error), entered: make(chan string, 64)}
}

func (p *fakeProvider) Resolve(ctx context.Context, url string) (Document, error) {
	p.mu.Lock()
	p.resolves++
	gate, err := p.resolveGate, p.resolveErr
	p.mu.Unlock()

	p.enter("resolve")
	if err := wait(ctx, gate); err != nil {
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	return &fakeDocument{p: p}, nil
}

func (p *fakeProvider) enter(stage string) {
	select {
	case p.entered <- stage:
	default:
	}
}

// drain discards stage entries recorded so far.
func (p *fakeProvider) drain() {
	for {
		select {
		case <-p.entered:
		default:
			return
		}
	}
}

func (p *fakeProvider) setPageGate(c chan struct{}) {
	p.mu.Lock()
	p.pageGate = c
	p.mu.Unlock()
}

func (p *fakeProvider) setPaintGate(c chan struct{}) {
	p.mu.Lock()
	p.paintGate = c
	p.mu.Unlock()
}

func (p *fakeProvider) setResolveGate(c chan struct{}) {
	p.mu.Lock()
	p.resolveGate = c
	p.mu.Unlock()
}

func (p *fakeProvider) fetches() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]int(nil), p.fetched...)
}

func wait(ctx context.Context, gate chan struct{}) error {
	if gate == nil {
		return nil
	}
	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type fakeDocument struct {
	p      *fakeProvider
	closed atomic.Bool
}

func (d *fakeDocument) PageCount() int { return len(d.p.pages) }

func (d *fakeDocument) Page(ctx context.Context, n int) (Page, error) {
	p := d.p
	p.mu.Lock()
	p.fetched = append(p.fetched, n)
	gate, err := p.pageGate, p.pageErr[n]
	p.mu.Unlock()

	p.enter("page")
	if err := wait(ctx, gate); err != nil {
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	return &fakePage{p: p, size: p.pages[n-1]}, nil
}

func (d *fakeDocument) Close() error {
	d.closed.Store(true)
	return nil
}

type fakePage struct {
	p    *fakeProvider
	size PageSize
}

func (pg *fakePage) IntrinsicViewport() Viewport {
	return Viewport{Width: pg.size.Width, Height: pg.size.Height, Rotation: pg.size.Rotation, Scale: 1}
}

func (pg *fakePage) Paint(ctx context.Context, s Surface, vp Viewport) error {
	p := pg.p
	p.mu.Lock()
	p.painted = append(p.painted, vp)
	err, gate := p.paintErr, p.paintGate
	p.painting++
	p.maxPainting = max(p.maxPainting, p.painting)
	p.mu.Unlock()

	p.enter("paint")
	if gate != nil {
		<-gate
	}

	p.mu.Lock()
	p.painting--
	p.mu.Unlock()
	return err
}

// fakeSurface records resizes.
type fakeSurface struct {
	mu    sync.Mutex
	sizes [][2]float64
}

func (s *fakeSurface) Resize(w, h float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sizes = append(s.sizes, [2]float64{w, h})
	return nil
}

func (s *fakeSurface) last() [2]float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sizes) == 0 {
		return [2]float64{}
	}
	return s.sizes[len(s.sizes)-1]
}

var errBoom = errors.New("boom")

func waitResult(t *testing.T, r *Result) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := r.Wait(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		t.Fatal("timed out waiting for result")
	}
	return err
}

func mustResolve(t *testing.T, r *Result) {
	t.Helper()
	if err := waitResult(t, r); err != nil {
		t.Fatalf("result failed: %v", err)
	}
}

func waitEntered(t *testing.T, p *fakeProvider, stage string) {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case s := <-p.entered:
			if s == stage {
				return
			}
		case <-timeout:
			t.Fatalf("timed out waiting for stage %q", stage)
		}
	}
}

// loadedViewer returns a viewer that has rendered page 1 of a fake document.
func loadedViewer(t *testing.T, opts ...Option) (*Viewer, *fakeProvider, *fakeSurface) {
	t.Helper()
	p := newFakeProvider()
	s := &fakeSurface{}
	v := New(append([]Option{WithProvider(p), WithSurface(s)}, opts...)...)
	t.Cleanup(func() { v.Close() })
	mustResolve(t, v.LoadDocument("doc.pdf"))
	p.drain()
	return v, p, s
}

func isResolved(r *Result) bool {
	select {
	case <-r.Done():
		return r.Err() == nil
	default:
		return false
	}
}
