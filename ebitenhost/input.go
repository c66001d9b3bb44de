package ebitenhost

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// input is the slice of ebiten's input state the host polls. It exists so
// tests can drive the host without a window.
type input interface {
	Wheel() (x, y float64)
	CursorPosition() (x, y int)
	MouseJustPressed() bool
	MouseJustReleased() bool
	JustPressedTouchIDs() []ebiten.TouchID
	JustReleasedTouchIDs() []ebiten.TouchID
	TouchPosition(id ebiten.TouchID) (x, y int)
	KeyJustPressed(k ebiten.Key) bool
	KeyPressed(k ebiten.Key) bool
}

// ebitenInput reads the live ebiten input state. It must only be used from
// the game's Update.
type ebitenInput struct {
	touches []ebiten.TouchID
}

func (ebitenInput) Wheel() (float64, float64) {
	return ebiten.Wheel()
}

func (ebitenInput) CursorPosition() (int, int) {
	return ebiten.CursorPosition()
}

func (ebitenInput) MouseJustPressed() bool {
	return inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft)
}

func (ebitenInput) MouseJustReleased() bool {
	return inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft)
}

func (in *ebitenInput) JustPressedTouchIDs() []ebiten.TouchID {
	in.touches = inpututil.AppendJustPressedTouchIDs(in.touches[:0])
	return in.touches
}

func (in *ebitenInput) JustReleasedTouchIDs() []ebiten.TouchID {
	in.touches = inpututil.AppendJustReleasedTouchIDs(in.touches[:0])
	return in.touches
}

func (ebitenInput) TouchPosition(id ebiten.TouchID) (int, int) {
	return ebiten.TouchPosition(id)
}

func (ebitenInput) KeyJustPressed(k ebiten.Key) bool {
	return inpututil.IsKeyJustPressed(k)
}

func (ebitenInput) KeyPressed(k ebiten.Key) bool {
	return ebiten.IsKeyPressed(k)
}
