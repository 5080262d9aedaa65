package scan

import (
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r2"
)

// Point is a projected sample in the robot's local frame, in metres.  +Y is straight ahead
// of the robot and +X is to its right.
type Point = r2.Vec

// sensorToRobot rotates the sensor's forward axis onto the robot's +Y axis.
const sensorToRobot = math.Pi / 2

// Band is the open interval of distances we trust.
type Band struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// Contains is strict on both ends.  NaN and infinities are never contained.
func (b Band) Contains(d float64) bool {
	if math.IsNaN(d) || math.IsInf(d, 0) {
		return false
	}
	return b.Min < d && d < b.Max
}

// Cloud is the set of points projected from one sweep.
type Cloud struct {
	Frame  string
	Time   time.Time
	Points []Point
}

// Project converts the in-band samples of a sweep into points in the robot frame.  The
// angle of sample i is always AngleMin + π/2 + i*AngleIncrement, so dropped samples
// don't skew the ones that follow.
func Project(sw Sweep, band Band) []Point {
	points := make([]Point, 0, len(sw.Ranges))
	start := sw.AngleMin + sensorToRobot
	for i, d := range sw.Ranges {
		if !band.Contains(d) {
			continue
		}
		angle := start + float64(i)*sw.AngleIncrement
		points = append(points, Point{
			X: d * math.Cos(angle),
			Y: d * math.Sin(angle),
		})
	}
	return points
}

// ProjectCloud is Project with the frame and capture time attached.
func ProjectCloud(sw Sweep, band Band) Cloud {
	return Cloud{
		Frame:  sw.FrameOrDefault(),
		Time:   sw.Time,
		Points: Project(sw, band),
	}
}

// Nearest returns the shortest in-band range of the sweep.  ok is false if no sample is
// in band.
func Nearest(sw Sweep, band Band) (nearest float64, ok bool) {
	var inBand []float64
	for _, d := range sw.Ranges {
		if band.Contains(d) {
			inBand = append(inBand, d)
		}
	}
	if len(inBand) == 0 {
		return 0, false
	}
	return floats.Min(inBand), true
}
