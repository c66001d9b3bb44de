package nimsforestpdfviewer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"sync"

	smarttv "github.com/nimsforest/nimsforestsmarttv"
	"golang.org/x/image/draw"
)

// SmartTVTarget displays committed pages on Smart TVs via DLNA.
type SmartTVTarget struct {
	tv            *smarttv.TV
	renderer      *smarttv.Renderer
	useJFIF       bool // Add a JFIF header for better TV compatibility
	width, height int
	quality       int

	mu             sync.Mutex
	lastImageBytes []byte // Cache to avoid redundant updates
}

// TVOption configures a SmartTVTarget.
type TVOption func(*SmartTVTarget)

// WithJFIF enables the JFIF APP0 header. Some TVs (JVC in particular)
// refuse baseline JPEGs without it.
func WithJFIF(enable bool) TVOption {
	return func(t *SmartTVTarget) {
		t.useJFIF = enable
	}
}

// WithTVSize sets the size of the image sent to the TV. Frames are scaled
// to fit and letterboxed.
func WithTVSize(width, height int) TVOption {
	return func(t *SmartTVTarget) {
		t.width, t.height = width, height
	}
}

// WithJPEGQuality sets the JPEG quality, 1 to 100.
func WithJPEGQuality(q int) TVOption {
	return func(t *SmartTVTarget) {
		t.quality = q
	}
}

// NewSmartTVTarget creates a target that displays frames on a Smart TV.
func NewSmartTVTarget(tv *smarttv.TV, opts ...TVOption) (*SmartTVTarget, error) {
	target := &SmartTVTarget{
		tv:      tv,
		useJFIF: true,
		width:   1920,
		height:  1080,
		quality: 85,
	}

	for _, opt := range opts {
		opt(target)
	}
	if target.width <= 0 || target.height <= 0 {
		return nil, fmt.Errorf("invalid tv size %dx%d", target.width, target.height)
	}

	renderer, err := smarttv.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("create smarttv renderer: %w", err)
	}
	target.renderer = renderer

	return target, nil
}

// Name implements Target.
func (t *SmartTVTarget) Name() string {
	if t.tv != nil {
		return fmt.Sprintf("SmartTV(%s)", t.tv.Name)
	}
	return "SmartTV"
}

// Update implements Target.
func (t *SmartTVTarget) Update(ctx context.Context, frame *Frame) error {
	if frame == nil || frame.Image == nil {
		return errors.New("frame has no image")
	}

	jpegData, err := encodeTVFrame(frame.Image, t.width, t.height, t.quality, t.useJFIF)
	if err != nil {
		return fmt.Errorf("convert to JPEG: %w", err)
	}

	// Frames from the pipeline and from Viewer.Update may race; send them
	// one at a time.
	t.mu.Lock()
	defer t.mu.Unlock()

	// Skip if image hasn't changed
	if bytes.Equal(jpegData, t.lastImageBytes) {
		return nil
	}
	t.lastImageBytes = jpegData

	if err := t.renderer.DisplayImageJPEG(ctx, t.tv, jpegData); err != nil {
		return fmt.Errorf("display on TV: %w", err)
	}

	return nil
}

// Close implements Target.
func (t *SmartTVTarget) Close() error {
	if t.renderer != nil {
		t.renderer.Close()
	}
	return nil
}

// Stop stops playback on the TV.
func (t *SmartTVTarget) Stop(ctx context.Context) error {
	return t.renderer.Stop(ctx, t.tv)
}

// letterbox scales src to fit a width x height black canvas, centred.
func letterbox(src image.Image, width, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)

	b := src.Bounds()
	if b.Empty() {
		return dst
	}
	sw, sh := float64(b.Dx()), float64(b.Dy())
	scale := min(float64(width)/sw, float64(height)/sh)
	w, h := int(sw*scale), int(sh*scale)
	x0, y0 := (width-w)/2, (height-h)/2
	draw.CatmullRom.Scale(dst, image.Rect(x0, y0, x0+w, y0+h), src, b, draw.Over, nil)
	return dst
}

// encodeTVFrame letterboxes img and encodes it as JPEG, optionally with a
// JFIF header.
func encodeTVFrame(img image.Image, width, height, quality int, jfif bool) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, letterbox(img, width, height), &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	if !jfif {
		return buf.Bytes(), nil
	}
	return insertJFIF(buf.Bytes())
}

// jfifAPP0 is a JFIF 1.01 APP0 segment with 1:1 aspect and no thumbnail.
var jfifAPP0 = []byte{
	0xFF, 0xE0, 0x00, 0x10,
	'J', 'F', 'I', 'F', 0x00,
	0x01, 0x01, // version
	0x00,       // aspect ratio units
	0x00, 0x01, 0x00, 0x01,
	0x00, 0x00, // no thumbnail
}

// insertJFIF adds a JFIF APP0 segment right after the SOI marker unless the
// stream already starts with one.
func insertJFIF(data []byte) ([]byte, error) {
	if len(data) < 4 || data[0] != 0xFF || data[1] != 0xD8 {
		return nil, errors.New("not a JPEG stream")
	}
	if data[2] == 0xFF && data[3] == 0xE0 {
		return data, nil
	}
	out := make([]byte, 0, len(data)+len(jfifAPP0))
	out = append(out, data[:2]...)
	out = append(out, jfifAPP0...)
	out = append(out, data[2:]...)
	return out, nil
}
