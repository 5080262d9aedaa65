package scan

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// DefaultFrame is the frame label attached to point clouds when a sweep doesn't name one.
const DefaultFrame = "laser_link"

var ErrInconsistentSweep = errors.New("sweep length inconsistent with its angle range")

// Sample is one polar range measurement, angle in radians in the sensor frame.
type Sample struct {
	Angle    float64
	Distance float64
}

// Sweep is one rotation of the range sensor.  Ranges are ordered by angle, starting at
// AngleMin and advancing by AngleIncrement.
type Sweep struct {
	Frame          string    `yaml:"frame,omitempty"`
	Time           time.Time `yaml:"-"`
	AngleMin       float64   `yaml:"angle_min"`
	AngleMax       float64   `yaml:"angle_max"`
	AngleIncrement float64   `yaml:"angle_increment"`
	Ranges         []float64 `yaml:"ranges,flow"`
}

// Check reports whether the sweep's declared angle range matches the number of ranges.
// Drivers disagree on whether AngleMax is inclusive, so one sample either way is accepted.
// A failed check is informational: projection still uses AngleMin and AngleIncrement.
func (s Sweep) Check() error {
	if len(s.Ranges) < 2 {
		return nil
	}
	if s.AngleIncrement == 0 || math.IsNaN(s.AngleIncrement) || math.IsInf(s.AngleIncrement, 0) {
		return fmt.Errorf("%w: angle increment %v", ErrInconsistentSweep, s.AngleIncrement)
	}
	expected := (s.AngleMax-s.AngleMin)/s.AngleIncrement + 1
	if math.IsNaN(expected) || math.Abs(expected-float64(len(s.Ranges))) > 1.5 {
		return fmt.Errorf("%w: %d ranges, angles imply %.1f", ErrInconsistentSweep, len(s.Ranges), expected)
	}
	return nil
}

// Samples returns the sweep as angle/distance pairs in the sensor frame.
func (s Sweep) Samples() []Sample {
	samples := make([]Sample, len(s.Ranges))
	for i, d := range s.Ranges {
		samples[i] = Sample{
			Angle:    s.AngleMin + float64(i)*s.AngleIncrement,
			Distance: d,
		}
	}
	return samples
}

func (s Sweep) FrameOrDefault() string {
	if s.Frame == "" {
		return DefaultFrame
	}
	return s.Frame
}
