// Package surface provides the paint surface pages are rendered onto.
//
// A Canvas wraps a gg drawing context. The render pipeline resizes it to the
// rotation-aware view size before every paint, pages draw into it through
// Draw, and hosts read the result with Image.
package surface

import (
	"fmt"
	"image"
	"math"
	"sync"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/goregular"
)

// Canvas is a resizable raster surface.
type Canvas struct {
	mu         sync.Mutex
	dc         *gg.Context
	background gg.RGBA
	fontSize   float64
	source     *text.FontSource
	face       text.Face
}

// Option configures a Canvas.
type Option func(*Canvas)

// WithBackground sets the color the canvas is cleared to before each paint.
func WithBackground(c gg.RGBA) Option {
	return func(cv *Canvas) {
		cv.background = c
	}
}

// WithFontSize sets the size of the label face in points.
func WithFontSize(size float64) Option {
	return func(cv *Canvas) {
		cv.fontSize = size
	}
}

// New creates a 1x1 canvas. The pipeline resizes it before the first paint.
func New(opts ...Option) (*Canvas, error) {
	c := &Canvas{
		dc:         gg.NewContext(1, 1),
		background: gg.Hex("#3a3a3a"),
		fontSize:   12,
	}
	for _, opt := range opts {
		opt(c)
	}

	source, err := text.NewFontSource(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("load label font: %w", err)
	}
	c.source = source
	c.face = source.Face(c.fontSize)
	c.dc.SetFont(c.face)
	return c, nil
}

// Resize sets the canvas size in pixels. Fractional sizes round up and
// sizes below one pixel are raised to one.
func (c *Canvas) Resize(width, height float64) error {
	w, h := pixels(width), pixels(height)
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.dc.Resize(w, h); err != nil {
		return fmt.Errorf("resize canvas: %w", err)
	}
	return nil
}

func pixels(v float64) int {
	if math.IsNaN(v) || v < 1 {
		return 1
	}
	return int(math.Ceil(v))
}

// Size returns the canvas size in pixels.
func (c *Canvas) Size() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dc.Width(), c.dc.Height()
}

// Draw runs fn with exclusive access to the drawing context.
func (c *Canvas) Draw(fn func(dc *gg.Context) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dc.Identity()
	return fn(c.dc)
}

// Image returns a copy of the current canvas contents.
func (c *Canvas) Image() image.Image {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.dc.FlushGPU()
	return c.dc.Image()
}

// Close releases the drawing context and the label font.
func (c *Canvas) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	err := c.dc.Close()
	if c.source != nil {
		if cerr := c.source.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
