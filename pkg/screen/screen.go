package screen

import (
	"context"
	"fmt"
	"image"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/fogleman/gg"
)

const (
	S = 128

	FramebufferDevice = "/dev/fb1"
)

type Level int

const (
	LevelInfo Level = iota
	LevelWarn
	LevelErr
)

// Status is the controller's view of the last cycle.
type Status struct {
	Preset  string
	Branch  string
	Left    int
	Right   int
	Linear  float64
	Angular float64
	Dropped int64
	Paused  bool
}

var (
	lock    sync.Mutex
	mode    string
	notices = map[string]Level{}
	status  Status
	tunable string
)

func SetMode(m string) {
	lock.Lock()
	defer lock.Unlock()
	mode = m
}

func SetNotice(notice string, level Level) {
	lock.Lock()
	defer lock.Unlock()
	notices[notice] = level
}

func ClearNotice(notice string) {
	lock.Lock()
	defer lock.Unlock()
	delete(notices, notice)
}

func SetStatus(s Status) {
	lock.Lock()
	defer lock.Unlock()
	status = s
}

// SetTunable shows the currently selected tunable.
func SetTunable(t string) {
	lock.Lock()
	defer lock.Unlock()
	tunable = t
}

func LoopUpdatingScreen(ctx context.Context) {
	f, err := os.OpenFile(FramebufferDevice, os.O_RDWR, 0666)
	if err != nil {
		fmt.Println("Failed to open screen, ignoring")
		return
	}
	defer f.Close()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			var buf [S * S * 2]byte
			_, _ = f.Seek(0, 0)
			_, _ = f.Write(buf[:])
			return
		case <-ticker.C:
		}

		buf := toRGB565(Render())
		_, err = f.Seek(0, 0)
		if err != nil {
			fmt.Println("Screen failure: ", err)
			return
		}
		for i := 0; i < S; i++ {
			_, err = f.Write(buf[i*S*2 : (i+1)*S*2])
			if err != nil {
				fmt.Println("Screen failure: ", err)
				return
			}
			time.Sleep(10 * time.Microsecond)
		}
	}
}

// Render draws the status panel.
func Render() image.Image {
	lock.Lock()
	m := mode
	st := status
	tun := tunable
	var notes []string
	worst := LevelInfo
	for n, l := range notices {
		notes = append(notes, n)
		if l > worst {
			worst = l
		}
	}
	lock.Unlock()
	sort.Strings(notes)

	dc := gg.NewContext(S, S)
	dc.SetRGBA(1, 0.9, 0, 1)
	dc.DrawString(m, 2, 12)
	dc.DrawString(st.Preset, 2, 26)
	if st.Paused {
		dc.DrawString("PAUSED", 70, 26)
	}

	drawCounts(dc, st)

	dc.SetRGBA(1, 0.9, 0, 1)
	dc.DrawString(st.Branch, 2, 96)
	dc.DrawString(fmt.Sprintf("%.2f %+.2f", st.Linear, st.Angular), 2, 108)
	if st.Dropped > 0 {
		dc.DrawString(fmt.Sprintf("-%d", st.Dropped), 90, 108)
	}
	if tun != "" {
		dc.DrawString(tun, 2, 120)
	}

	if len(notes) > 0 {
		dc.Push()
		dc.Translate(110, 14)
		DrawWarning(dc, worst)
		dc.Pop()
		dc.SetRGB(1, 0.2, 0)
		for i, n := range notes {
			dc.DrawString(n, 2, 40+float64(i)*12)
		}
	}
	return dc.Image()
}

// drawCounts draws a bar per window, left window on the left.
func drawCounts(dc *gg.Context, st Status) {
	const (
		top    = 34
		height = 48
		full   = 40
	)
	bar := func(x float64, n int) {
		h := float64(n) / full * height
		if h > height {
			h = height
		}
		dc.DrawRectangle(x, top, 20, height)
		dc.Stroke()
		dc.DrawRectangle(x, top+height-h, 20, h)
		dc.Fill()
		dc.DrawString(fmt.Sprint(n), x, top+height+10)
	}
	bar(34, st.Left)
	bar(74, st.Right)
}

// toRGB565 packs the image the way the panel's framebuffer wants it: rotated, 16 bits per
// pixel, little-endian.
func toRGB565(img image.Image) []byte {
	buf := make([]byte, S*S*2)
	for y := 0; y < S; y++ {
		for x := 0; x < S; x++ {
			r, g, b, _ := img.At(x, y).RGBA() // 16-bit pre-multiplied

			rb := byte(r >> (16 - 5))
			gb := byte(g >> (16 - 6)) // Green has 6 bits
			bb := byte(b >> (16 - 5))

			buf[(S-1-y)*2+x*S*2+1] = (rb << 3) | (gb >> 3)
			buf[(S-1-y)*2+x*S*2] = bb | (gb << 5)
		}
	}
	return buf
}

func DrawWarning(dc *gg.Context, level Level) {
	if level >= LevelErr {
		dc.SetRGB(1, 0.2, 0)
	} else {
		dc.SetRGB(1, 0.9, 0)
	}
	dc.DrawRegularPolygon(3, 0, 0, 14, 0)
	dc.Fill()
	dc.SetRGBA(0, 0, 0, 0.9)
	dc.DrawString("!", -3, 3)
}
