package nimsforestpdfviewer

import (
	"math"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestGoToPage(t *testing.T) {
	v, _, _ := loadedViewer(t)

	for page := 1; page <= v.Total(); page++ {
		mustResolve(t, v.GoToPage(page))
		if got := v.Page(); got != page {
			t.Errorf("GoToPage(%d): Page() = %d", page, got)
		}
		if got := v.Committed().Page; got != page {
			t.Errorf("GoToPage(%d): committed page = %d", page, got)
		}
	}

	tests := []struct {
		in, want int
	}{
		{4, 3},
		{100, 3},
		{0, 1},
		{-5, 1},
		{math.MaxInt32 + 1, 3},
		{math.MinInt32 - 1, 1},
	}
	for _, tt := range tests {
		mustResolve(t, v.GoToPage(tt.in))
		if got := v.Page(); got != tt.want {
			t.Errorf("GoToPage(%d): Page() = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestRotateTo(t *testing.T) {
	v, _, _ := loadedViewer(t)

	tests := []struct {
		in   float64
		want int
	}{
		{95, 90},
		{-95, -90},
		{180, 180},
		{44, 0},
		{-45, 0},
		{45, 90},
		{-270, -270},
	}
	for _, tt := range tests {
		mustResolve(t, v.RotateTo(tt.in))
		if got := v.Committed().Rotation; got != tt.want {
			t.Errorf("RotateTo(%v): committed rotation = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestPanAtScaleOneIsNoop(t *testing.T) {
	v, p, _ := loadedViewer(t)
	before := len(p.fetches())

	pans := map[string]func(...float64) *Result{
		"left":  v.PanLeft,
		"right": v.PanRight,
		"up":    v.PanUp,
		"down":  v.PanDown,
	}
	for name, pan := range pans {
		if r := pan(); !isResolved(r) {
			t.Errorf("pan %s at scale 1 started a render", name)
		}
		if got := v.Offset(); got != (Offset{}) {
			t.Errorf("pan %s at scale 1: Offset() = %+v, want zero", name, got)
		}
	}
	if got := len(p.fetches()); got != before {
		t.Errorf("fetches = %d, want %d", got, before)
	}
}

func TestPanComposes(t *testing.T) {
	v, _, _ := loadedViewer(t)
	mustResolve(t, v.ZoomTo(100))

	mustResolve(t, v.PanRight(1))
	if got := v.Committed().OffsetX; got != -1 {
		t.Fatalf("PanRight(1): offsetX = %v, want -1", got)
	}
	mustResolve(t, v.PanLeft(1))
	if got := v.Committed().OffsetX; got != 0 {
		t.Fatalf("PanLeft(1): offsetX = %v, want 0", got)
	}

	for range 3 {
		mustResolve(t, v.PanDown(2))
	}
	if got := v.Committed().OffsetY; got != -6 {
		t.Errorf("3 x PanDown(2): offsetY = %v, want -6", got)
	}

	// Panning past the edge clamps.
	mustResolve(t, v.PanLeft(50))
	if got := v.Committed().OffsetX; got != 0 {
		t.Errorf("PanLeft(50): offsetX = %v, want 0", got)
	}
}

func TestSetterIdempotence(t *testing.T) {
	v, p, _ := loadedViewer(t)

	mustResolve(t, v.ZoomTo(2))
	n := len(p.fetches())
	if r := v.ZoomTo(2); !isResolved(r) {
		t.Error("second identical ZoomTo started a render")
	}
	if r := v.GoToPage(1); !isResolved(r) {
		t.Error("GoToPage of the committed page started a render")
	}
	if got := len(p.fetches()); got != n {
		t.Errorf("fetches = %d, want %d", got, n)
	}
}

func TestRejectedInput(t *testing.T) {
	v, p, _ := loadedViewer(t)
	b := NewBindings(v)
	n := len(p.fetches())

	if r := b.Set(FieldPage, "not a number"); !isResolved(r) {
		t.Error("invalid page did not resolve immediately")
	}
	if got := v.Page(); got != 1 {
		t.Errorf("Page() = %d, want 1", got)
	}
	if got := b.Get(FieldPage); got != "not a number" {
		t.Errorf("raw page = %v, want the rejected input", got)
	}

	for _, f := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		v.ZoomTo(f)
	}
	if got := v.Zoom(); got != 1 {
		t.Errorf("Zoom() = %v after invalid zooms, want 1", got)
	}
	v.SetWidth(0)
	v.SetHeight(-3)
	if got := v.Requested(); got.Width != 100 || got.Height != 200 {
		t.Errorf("requested size = %v x %v, want 100 x 200", got.Width, got.Height)
	}
	v.RotateTo(math.Inf(-1))
	if got := v.Rotation(); got != 0 {
		t.Errorf("Rotation() = %d, want 0", got)
	}

	if got := len(p.fetches()); got != n {
		t.Errorf("fetches = %d, want %d", got, n)
	}
}

func TestNavigationScenario(t *testing.T) {
	v, _, _ := loadedViewer(t)

	var mu sync.Mutex
	pages := []int{v.Committed().Page}
	v.OnChange(func(s Snapshot) {
		mu.Lock()
		pages = append(pages, s.Committed.Page)
		mu.Unlock()
	})

	mustResolve(t, v.NextPage())
	mustResolve(t, v.NextPage())
	mustResolve(t, v.PreviousPage())

	mu.Lock()
	defer mu.Unlock()
	if diff := cmp.Diff([]int{1, 2, 3, 2}, pages); diff != "" {
		t.Errorf("committed pages mismatch (-want +got):\n%s", diff)
	}
}

func TestOffsetRoundTrip(t *testing.T) {
	v, _, _ := loadedViewer(t)
	mustResolve(t, v.ZoomTo(2))

	tests := []struct {
		in, want Offset
	}{
		{Offset{X: -10, Y: -20}, Offset{X: -10, Y: -20}},
		{Offset{X: 5, Y: -500}, Offset{X: 0, Y: -200}},
		{Offset{X: -100, Y: -200}, Offset{X: -100, Y: -200}},
	}
	for _, tt := range tests {
		mustResolve(t, v.SetOffset(tt.in))
		if got := v.Offset(); got != tt.want {
			t.Errorf("SetOffset(%+v): Offset() = %+v, want %+v", tt.in, got, tt.want)
		}
	}

	mustResolve(t, v.SetOffsetX(-30))
	if got := v.Offset(); got != (Offset{X: -30, Y: -200}) {
		t.Errorf("SetOffsetX(-30): Offset() = %+v", got)
	}
	mustResolve(t, v.SetOffsetY(-5))
	if got := v.Offset(); got != (Offset{X: -30, Y: -5}) {
		t.Errorf("SetOffsetY(-5): Offset() = %+v", got)
	}

	// Zooming out re-clamps the offset.
	mustResolve(t, v.ZoomTo(1))
	if got := v.Committed().Offset(); got != (Offset{}) {
		t.Errorf("offset after zoom out = %+v, want zero", got)
	}
}

func TestRelativeHelperSpeeds(t *testing.T) {
	v, _, _ := loadedViewer(t, WithRotateSpeed(180))

	mustResolve(t, v.ZoomIn(math.NaN()))
	if got := v.Committed().Scale; got != 1.25 {
		t.Errorf("ZoomIn(NaN): scale = %v, want 1.25", got)
	}
	mustResolve(t, v.ZoomIn(0.75))
	if got := v.Committed().Scale; got != 2 {
		t.Errorf("ZoomIn(0.75): scale = %v, want 2", got)
	}
	mustResolve(t, v.ZoomOut())
	if got := v.Committed().Scale; got != 1.75 {
		t.Errorf("ZoomOut(): scale = %v, want 1.75", got)
	}

	mustResolve(t, v.RotateRight())
	if got := v.Committed().Rotation; got != 180 {
		t.Errorf("RotateRight(): rotation = %d, want 180", got)
	}
	mustResolve(t, v.RotateLeft(90))
	if got := v.Committed().Rotation; got != 90 {
		t.Errorf("RotateLeft(90): rotation = %d, want 90", got)
	}
}

func TestResize(t *testing.T) {
	v, _, s := loadedViewer(t)

	mustResolve(t, v.SetWidth(50))
	mustResolve(t, v.SetHeight(60))
	if got := s.last(); got != [2]float64{50, 60} {
		t.Errorf("surface size = %v, want [50 60]", got)
	}
	if got := v.Committed(); got.Width != 50 || got.Height != 60 {
		t.Errorf("committed size = %v x %v, want 50 x 60", got.Width, got.Height)
	}
}

func TestSnapshotStage(t *testing.T) {
	v, p, _ := loadedViewer(t)
	gate := make(chan struct{})
	p.setPageGate(gate)

	r := v.NextPage()
	waitEntered(t, p, "page")
	if got := v.Snapshot().Stage; got != StagePage {
		t.Errorf("Snapshot().Stage = %v, want page", got)
	}
	close(gate)
	mustResolve(t, r)
	if got := v.Snapshot().Stage; got != StageNone {
		t.Errorf("Snapshot().Stage = %v after render, want none", got)
	}
}
