package camera

import (
	"math/rand"
	"testing"
)

func TestZoom_StaysClamped(t *testing.T) {
	c := New()
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 1000; i++ {
		c.Zoom(rng.Float64()*20 - 10)
		if c.Scale < MinScale || c.Scale > MaxScale {
			t.Fatalf("step %d: scale %v out of [%v, %v]", i, c.Scale, MinScale, MaxScale)
		}
	}

	for i := 0; i < 50; i++ {
		c.Zoom(1)
	}
	if c.Scale != MaxScale {
		t.Errorf("Scale after zooming in = %v, want %v", c.Scale, MaxScale)
	}

	for i := 0; i < 50; i++ {
		c.Zoom(-120)
	}
	if c.Scale != MinScale {
		t.Errorf("Scale after zooming out = %v, want %v", c.Scale, MinScale)
	}
}

func TestZoom_ZeroDeltaIsNoop(t *testing.T) {
	c := New()
	c.Zoom(0)
	if c.Scale != 1.0 {
		t.Errorf("Scale = %v, want 1.0", c.Scale)
	}
}

func TestDrag_BelowThresholdIsClick(t *testing.T) {
	c := New()
	c.BeginDrag(100, 100)
	c.UpdateDrag(120, 110)
	c.UpdateDrag(130, 70) // ровно 30 по обеим осям - еще клик

	if !c.EndDrag() {
		t.Fatal("expected gesture to be a click")
	}
	if c.OffsetX != DefaultOffsetX || c.OffsetY != DefaultOffsetY {
		t.Errorf("camera moved during click: (%v,%v)", c.OffsetX, c.OffsetY)
	}
}

func TestDrag_AboveThresholdPans(t *testing.T) {
	c := New()
	c.BeginDrag(100, 100)

	if !c.UpdateDrag(131, 100) {
		t.Fatal("expected pan once threshold exceeded")
	}
	if c.OffsetX != DefaultOffsetX-31 {
		t.Errorf("OffsetX = %v, want %v", c.OffsetX, DefaultOffsetX-31)
	}

	// После начала панорамы каждое движение двигает камеру
	c.UpdateDrag(133, 95)
	if c.OffsetX != DefaultOffsetX-33 || c.OffsetY != DefaultOffsetY+5 {
		t.Errorf("offset = (%v,%v)", c.OffsetX, c.OffsetY)
	}

	if c.EndDrag() {
		t.Error("pan must suppress the click")
	}
}

func TestDrag_VerticalAxisAlsoCounts(t *testing.T) {
	c := New()
	c.BeginDrag(0, 0)
	c.UpdateDrag(0, -31)
	if !c.Dragging() {
		t.Error("expected vertical displacement to start a pan")
	}
}

func TestDrag_WithoutPressIgnored(t *testing.T) {
	c := New()
	if c.UpdateDrag(500, 500) {
		t.Error("move without press must not pan")
	}
	if c.EndDrag() {
		t.Error("release without press is not a click")
	}
}
