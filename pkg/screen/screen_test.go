package screen

import (
	"image"
	"image/color"
	"testing"
)

func TestToRGB565(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, S, S))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	img.Set(1, 0, color.RGBA{G: 255, A: 255})
	img.Set(0, 1, color.RGBA{B: 255, A: 255})

	buf := toRGB565(img)
	if len(buf) != S*S*2 {
		t.Fatalf("Unexpected buffer size %d", len(buf))
	}

	pixel := func(x, y int) uint16 {
		i := (S-1-y)*2 + x*S*2
		return uint16(buf[i]) | uint16(buf[i+1])<<8
	}
	if p := pixel(0, 0); p != 0xf800 {
		t.Errorf("Red packed as %#04x", p)
	}
	if p := pixel(1, 0); p != 0x07e0 {
		t.Errorf("Green packed as %#04x", p)
	}
	if p := pixel(0, 1); p != 0x001f {
		t.Errorf("Blue packed as %#04x", p)
	}
	if p := pixel(5, 5); p != 0 {
		t.Errorf("Black packed as %#04x", p)
	}
}

func TestRenderNotices(t *testing.T) {
	SetMode("Avoid mode")
	SetStatus(Status{Preset: "challenge1", Branch: "turn left", Left: 2, Right: 20, Angular: 3.44})
	SetNotice("NO JOY", LevelErr)
	defer ClearNotice("NO JOY")

	img := Render()
	if img.Bounds() != image.Rect(0, 0, S, S) {
		t.Fatalf("Unexpected bounds %v", img.Bounds())
	}

	lock.Lock()
	_, ok := notices["NO JOY"]
	lock.Unlock()
	if !ok {
		t.Fatal("Notice not recorded")
	}
}
