package surface

import (
	"math"

	"github.com/gogpu/gg"
)

// Placement maps a page box onto the canvas: the box is scaled, rotated
// clockwise by Rotation degrees so it stays in the positive quadrant, then
// shifted by the offset.
type Placement struct {
	Width    float64
	Height   float64
	Scale    float64
	Rotation int
	OffsetX  float64
	OffsetY  float64
}

// Sheet is what gets painted for a page: a blank page box with a frame and
// an optional label in the top-left corner.
type Sheet struct {
	Label  string
	Paper  gg.RGBA
	Frame  gg.RGBA
	Margin float64 // frame inset in page units
}

// DefaultSheet returns a white sheet with a light grey frame.
func DefaultSheet(label string) Sheet {
	return Sheet{
		Label:  label,
		Paper:  gg.White,
		Frame:  gg.Hex("#c8c8c8"),
		Margin: 18,
	}
}

// Apply sets up dc so page coordinates (origin top-left, y down) map onto
// the canvas according to p.
func (p Placement) Apply(dc *gg.Context) {
	s := p.Scale
	dc.Translate(p.OffsetX, p.OffsetY)
	switch quarterTurns(p.Rotation) {
	case 1:
		dc.Translate(p.Height*s, 0)
		dc.Rotate(math.Pi / 2)
	case 2:
		dc.Translate(p.Width*s, p.Height*s)
		dc.Rotate(math.Pi)
	case 3:
		dc.Translate(0, p.Width*s)
		dc.Rotate(-math.Pi / 2)
	}
	dc.Scale(s, s)
}

// quarterTurns returns the clockwise quarter turns of deg in [0, 3].
func quarterTurns(deg int) int {
	q := (deg / 90) % 4
	if q < 0 {
		q += 4
	}
	return q
}

// Paint clears the canvas and draws sh placed by p.
func (c *Canvas) Paint(p Placement, sh Sheet) error {
	return c.Draw(func(dc *gg.Context) error {
		dc.ClearWithColor(c.background)

		dc.Push()
		p.Apply(dc)
		dc.SetColor(sh.Paper.Color())
		dc.DrawRectangle(0, 0, p.Width, p.Height)
		if err := dc.Fill(); err != nil {
			return err
		}
		if m := sh.Margin; m > 0 && p.Width > 2*m && p.Height > 2*m {
			dc.SetColor(sh.Frame.Color())
			dc.SetLineWidth(1)
			dc.DrawRectangle(m, m, p.Width-2*m, p.Height-2*m)
			if err := dc.Stroke(); err != nil {
				return err
			}
		}
		dc.Pop()

		// Text is drawn in device space; anchor it to the placed origin.
		if sh.Label != "" {
			dc.SetColor(gg.Black.Color())
			dc.DrawString(sh.Label, p.OffsetX+8, p.OffsetY+8+c.fontSize)
		}
		return nil
	})
}
