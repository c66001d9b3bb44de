package nimsforestpdfviewer

import (
	"context"
	"errors"
	"fmt"

	"github.com/nimsforest/nimsforestpdfviewer/surface"
)

// DocumentProvider resolves documents for the viewer. Cancelling ctx
// cancels and destroys the pending fetch.
type DocumentProvider interface {
	// Resolve fetches and opens the document at url.
	Resolve(ctx context.Context, url string) (Document, error)
}

// Document is an opened document. If it also implements io.Closer the
// viewer closes it when it is replaced.
type Document interface {
	// PageCount returns the number of pages.
	PageCount() int

	// Page fetches page n, counting from 1.
	Page(ctx context.Context, n int) (Page, error)
}

// Page is one fetched page.
type Page interface {
	// IntrinsicViewport returns the unscaled page geometry.
	IntrinsicViewport() Viewport

	// Paint draws the page onto s as described by vp.
	Paint(ctx context.Context, s Surface, vp Viewport) error
}

// Surface is the sink pages are painted onto. The pipeline resizes it to
// the rotation-aware view size before every paint.
type Surface interface {
	Resize(width, height float64) error
}

// ErrUnknownDocument is returned by StaticProvider for urls it does not know.
var ErrUnknownDocument = errors.New("unknown document")

// PageSize is the intrinsic size of a page in points.
type PageSize struct {
	Width    float64
	Height   float64
	Rotation int
}

// StaticProvider serves fixed, blank documents from memory. Pages paint a
// labelled sheet when the surface is a *surface.Canvas.
type StaticProvider struct {
	docs map[string][]PageSize
}

// NewStaticProvider creates a DocumentProvider from page sizes keyed by url.
func NewStaticProvider(docs map[string][]PageSize) *StaticProvider {
	return &StaticProvider{docs: docs}
}

// Resolve implements DocumentProvider.
func (p *StaticProvider) Resolve(ctx context.Context, url string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pages, ok := p.docs[url]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDocument, url)
	}
	return &staticDocument{pages: pages}, nil
}

type staticDocument struct {
	pages []PageSize
}

func (d *staticDocument) PageCount() int {
	return len(d.pages)
}

func (d *staticDocument) Page(ctx context.Context, n int) (Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if n < 1 || n > len(d.pages) {
		return nil, fmt.Errorf("page %d out of range [1, %d]", n, len(d.pages))
	}
	return &staticPage{number: n, total: len(d.pages), size: d.pages[n-1]}, nil
}

type staticPage struct {
	number int
	total  int
	size   PageSize
}

func (p *staticPage) IntrinsicViewport() Viewport {
	return Viewport{
		Width:    p.size.Width,
		Height:   p.size.Height,
		Rotation: p.size.Rotation,
		Scale:    1,
	}
}

func (p *staticPage) Paint(ctx context.Context, s Surface, vp Viewport) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return PaintSheet(s, vp, fmt.Sprintf("%d / %d", p.number, p.total))
}

// PaintSheet paints a blank labelled page onto s when s is a
// *surface.Canvas, and does nothing for other surfaces.
func PaintSheet(s Surface, vp Viewport, label string) error {
	c, ok := s.(*surface.Canvas)
	if !ok {
		return nil
	}
	return c.Paint(Placement(vp), surface.DefaultSheet(label))
}

// Placement converts a viewport to a surface placement.
func Placement(vp Viewport) surface.Placement {
	return surface.Placement{
		Width:    vp.Width,
		Height:   vp.Height,
		Scale:    vp.Scale,
		Rotation: vp.Rotation,
		OffsetX:  vp.OffsetX,
		OffsetY:  vp.OffsetY,
	}
}

// CallbackProvider resolves documents through a function.
type CallbackProvider struct {
	fn func(ctx context.Context, url string) (Document, error)
}

// NewCallbackProvider creates a DocumentProvider from a callback function.
func NewCallbackProvider(fn func(ctx context.Context, url string) (Document, error)) *CallbackProvider {
	return &CallbackProvider{fn: fn}
}

// Resolve implements DocumentProvider.
func (p *CallbackProvider) Resolve(ctx context.Context, url string) (Document, error) {
	return p.fn(ctx, url)
}
