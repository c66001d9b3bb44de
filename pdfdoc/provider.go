// Package pdfdoc provides a viewer document provider for PDF files.
//
// Documents are read with seehuhn.de/go/pdf. Only the page tree is used:
// page count, media box and /Rotate. Pages paint a labelled sheet of the
// right geometry onto a surface.Canvas; decoding page content streams is
// left to richer providers.
package pdfdoc

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"sync"

	"seehuhn.de/go/pdf"
	"seehuhn.de/go/pdf/pagetree"

	viewer "github.com/nimsforest/nimsforestpdfviewer"
)

// US Letter, used when a page has no usable /MediaBox.
const (
	letterWidth  = 612
	letterHeight = 792
)

// Provider resolves PDF documents by url or path.
type Provider struct {
	fetcher *Fetcher
	client  *http.Client
	maxSize int64
	logger  *slog.Logger
}

// Option configures a Provider.
type Option func(*Provider)

// WithHTTPClient sets the client used for http(s) urls.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) {
		p.client = c
	}
}

// WithMaxSize limits the size of fetched documents in bytes.
func WithMaxSize(n int64) Option {
	return func(p *Provider) {
		p.maxSize = n
	}
}

// WithLogger sets the logger. By default the viewer package logger is used.
func WithLogger(l *slog.Logger) Option {
	return func(p *Provider) {
		p.logger = l
	}
}

// New creates a Provider.
func New(opts ...Option) *Provider {
	p := &Provider{}
	for _, opt := range opts {
		opt(p)
	}
	p.fetcher = NewFetcher(p.client, p.maxSize)
	return p
}

func (p *Provider) log() *slog.Logger {
	if p.logger != nil {
		return p.logger
	}
	return viewer.Logger()
}

// Resolve implements viewer.DocumentProvider.
func (p *Provider) Resolve(ctx context.Context, url string) (viewer.Document, error) {
	data, err := p.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := Open(data)
	if err != nil {
		return nil, err
	}
	p.log().Debug("pdf opened", "url", url, "bytes", len(data), "pages", doc.PageCount())
	return doc, nil
}

// Document is an opened PDF file.
type Document struct {
	mu    sync.Mutex
	r     *pdf.Reader
	pages int
}

// Open parses a PDF held in memory.
func Open(data []byte) (*Document, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), nil)
	if err != nil {
		return nil, fmt.Errorf("parse pdf: %w", err)
	}
	n, err := pagetree.NumPages(r)
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("read page tree: %w", err)
	}
	return &Document{r: r, pages: n}, nil
}

// PageCount implements viewer.Document.
func (d *Document) PageCount() int {
	return d.pages
}

// Page implements viewer.Document. n counts from 1.
func (d *Document) Page(ctx context.Context, n int) (viewer.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if n < 1 || n > d.pages {
		return nil, fmt.Errorf("page %d out of range [1, %d]", n, d.pages)
	}

	// The reader is not safe for concurrent use.
	d.mu.Lock()
	defer d.mu.Unlock()

	_, dict, err := pagetree.GetPage(d.r, n-1)
	if err != nil {
		return nil, fmt.Errorf("get page %d: %w", n, err)
	}

	page := &Page{Number: n, Total: d.pages, Width: letterWidth, Height: letterHeight}
	box, err := pdf.GetRectangle(d.r, dict["MediaBox"])
	if err == nil && box != nil && box.URx > box.LLx && box.URy > box.LLy {
		page.Width = box.URx - box.LLx
		page.Height = box.URy - box.LLy
	}
	if obj, ok := dict["Rotate"]; ok {
		if rot, err := pdf.GetNumber(d.r, obj); err == nil {
			page.Rotate = normalizePageRotation(float64(rot))
		}
	}
	return page, nil
}

// Close releases the reader.
func (d *Document) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.r.Close()
}

// normalizePageRotation maps /Rotate to 0, 90, 180 or 270. Values that are
// not multiples of 90 are invalid and read as 0.
func normalizePageRotation(deg float64) int {
	if math.Mod(deg, 90) != 0 {
		return 0
	}
	r := int(deg) % 360
	if r < 0 {
		r += 360
	}
	return r
}

// Page is one page of a Document.
type Page struct {
	Number int
	Total  int
	Width  float64 // media box width in points
	Height float64
	Rotate int // /Rotate, one of 0, 90, 180, 270
}

// IntrinsicViewport implements viewer.Page. The size is the displayed size
// at scale 1, so it is swapped for pages rotated by 90 or 270 degrees.
func (p *Page) IntrinsicViewport() viewer.Viewport {
	w, h := viewer.EffectiveSize(p.Rotate, p.Width, p.Height)
	return viewer.Viewport{
		Width:    w,
		Height:   h,
		Rotation: p.Rotate,
		Scale:    1,
	}
}

// Paint implements viewer.Page.
func (p *Page) Paint(ctx context.Context, s viewer.Surface, vp viewer.Viewport) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	label := fmt.Sprintf("%d / %d  %gx%g pt", p.Number, p.Total, p.Width, p.Height)
	return viewer.PaintSheet(s, vp, label)
}
