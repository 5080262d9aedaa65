// Package sectors counts the projected points that fall into the danger zones just ahead
// and to either side of the robot.
package sectors

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/tigerbot-team/tigerbot/scan-avoider/pkg/scan"
)

// Window is the union of two open rectangles in the robot frame: a far band and a narrower
// near band.  All bounds are strict.
type Window struct {
	Far  r2.Box `yaml:"far"`
	Near r2.Box `yaml:"near"`
}

func (w Window) Contains(p scan.Point) bool {
	return strictlyInside(w.Far, p) || strictlyInside(w.Near, p)
}

func strictlyInside(b r2.Box, p scan.Point) bool {
	return b.Min.X < p.X && p.X < b.Max.X &&
		b.Min.Y < p.Y && p.Y < b.Max.Y
}

// Mirror reflects a window across the robot's forward axis.
func Mirror(w Window) Window {
	return Window{
		Far:  mirrorBox(w.Far),
		Near: mirrorBox(w.Near),
	}
}

func mirrorBox(b r2.Box) r2.Box {
	return r2.Box{
		Min: r2.Vec{X: -b.Max.X, Y: b.Min.Y},
		Max: r2.Vec{X: -b.Min.X, Y: b.Max.Y},
	}
}

// RightWindow is the hand-tuned zone ahead-right of the robot.
var RightWindow = Window{
	Far:  r2.Box{Min: r2.Vec{X: 0.01, Y: 0.3}, Max: r2.Vec{X: 0.2, Y: 0.7}},
	Near: r2.Box{Min: r2.Vec{X: 0.01, Y: 0.1}, Max: r2.Vec{X: 0.1, Y: 0.3}},
}

// Count is the number of points in each window.  A point can count towards both.
type Count struct {
	Left  int
	Right int
}

// Total is the obstacle pressure.
func (c Count) Total() int {
	return c.Left + c.Right
}

// Imbalance is positive when the right side is more crowded.
func (c Count) Imbalance() int {
	return c.Right - c.Left
}

type Classifier struct {
	Left  Window `yaml:"left"`
	Right Window `yaml:"right"`
}

func Default() Classifier {
	return Classifier{
		Left:  Mirror(RightWindow),
		Right: RightWindow,
	}
}

// Classify tests every point against both windows.
func (c Classifier) Classify(points []scan.Point) Count {
	var count Count
	for _, p := range points {
		if c.Right.Contains(p) {
			count.Right++
		}
		if c.Left.Contains(p) {
			count.Left++
		}
	}
	return count
}

// Split returns the points in each window, for debugging.
func (c Classifier) Split(points []scan.Point) (left, right []scan.Point) {
	for _, p := range points {
		if c.Right.Contains(p) {
			right = append(right, p)
		}
		if c.Left.Contains(p) {
			left = append(left, p)
		}
	}
	return left, right
}
