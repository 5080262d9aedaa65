package avoid

import (
	"errors"
	"fmt"

	"github.com/tigerbot-team/tigerbot/scan-avoider/pkg/scan"
	"github.com/tigerbot-team/tigerbot/scan-avoider/pkg/sectors"
)

var ErrInvalidProfile = errors.New("invalid profile")

// FloorPolicy controls how MinAngular is applied to the angular velocity.
type FloorPolicy string

const (
	// FloorNone leaves the angular velocity alone.
	FloorNone FloorPolicy = "none"
	// FloorSigned is max(MinAngular, w).  Every leftward command becomes a rightward one;
	// kept only to reproduce old runs.
	FloorSigned FloorPolicy = "signed"
	// FloorMagnitude raises |w| to at least MinAngular, keeping the sign.  Exactly zero stays
	// zero so a clear path still drives straight.
	FloorMagnitude FloorPolicy = "magnitude"
)

// SpeedPolicy picks the forward speed when cruising.
type SpeedPolicy string

const (
	// SpeedPressure slows down in proportion to the number of points in the windows.
	SpeedPressure SpeedPolicy = "pressure"
	// SpeedNearest slows down as the nearest in-band return closes in.
	SpeedNearest SpeedPolicy = "nearest"
)

// TurnGains shape the turn away from the crowded side:
// w = Pressure*(right+left) + Imbalance*(right-left).
type TurnGains struct {
	Pressure  float64 `yaml:"pressure"`
	Imbalance float64 `yaml:"imbalance"`
}

func (g TurnGains) angular(c sectors.Count) float64 {
	return g.Pressure*float64(c.Total()) + g.Imbalance*float64(c.Imbalance())
}

// Profile is one complete tuning of the controller.
type Profile struct {
	Name string `yaml:"preset"`

	Band    scan.Band          `yaml:"band"`
	Windows sectors.Classifier `yaml:"windows"`

	// RightThreshold is how many more points the right window must hold than the left
	// before we stop and turn left.  LeftThreshold is the mirror image.
	RightThreshold int       `yaml:"right_threshold"`
	LeftThreshold  int       `yaml:"left_threshold"`
	RightTurn      TurnGains `yaml:"right_turn"`
	LeftTurn       TurnGains `yaml:"left_turn"`

	BaseSpeed        float64     `yaml:"base_speed"`
	Speed            SpeedPolicy `yaml:"speed_policy"`
	DecelGain        float64     `yaml:"decel_gain"`
	NearestGain      float64     `yaml:"nearest_gain"`
	NearestReference float64     `yaml:"nearest_reference"`

	SteerGain float64 `yaml:"steer_gain"`
	// Smoothing is the weight given to the previous angular velocity when cruising.
	Smoothing float64 `yaml:"smoothing"`

	MinAngular float64     `yaml:"min_angular_velocity"`
	Floor      FloorPolicy `yaml:"floor_policy"`
}

func (p *Profile) Validate() error {
	invalid := func(format string, args ...interface{}) error {
		return fmt.Errorf("%w: %s", ErrInvalidProfile, fmt.Sprintf(format, args...))
	}
	if p.Band.Min < 0 || p.Band.Max <= p.Band.Min {
		return invalid("band (%v, %v) is empty or negative", p.Band.Min, p.Band.Max)
	}
	if p.RightThreshold < 0 || p.LeftThreshold < 0 {
		return invalid("thresholds must be non-negative, got %d/%d", p.RightThreshold, p.LeftThreshold)
	}
	if p.BaseSpeed < 0 {
		return invalid("base_speed must be non-negative, got %v", p.BaseSpeed)
	}
	if p.Smoothing < 0 || p.Smoothing >= 1 {
		return invalid("smoothing must be in [0, 1), got %v", p.Smoothing)
	}
	if p.MinAngular < 0 {
		return invalid("min_angular_velocity must be non-negative, got %v", p.MinAngular)
	}
	switch p.Speed {
	case SpeedPressure:
	case SpeedNearest:
		if p.NearestReference <= 0 {
			return invalid("nearest_reference must be positive with the nearest speed policy")
		}
	default:
		return invalid("unknown speed_policy %q", p.Speed)
	}
	switch p.Floor {
	case FloorNone, FloorSigned, FloorMagnitude:
	default:
		return invalid("unknown floor_policy %q", p.Floor)
	}
	return nil
}
