package chassis

import "math"

const (
	WheelDiameterMM float64 = 70
	WheelCircumMM           = WheelDiameterMM * math.Pi

	// Centre-to-centre distance between the left and right wheels.
	TrackWidthMM float64 = 170

	// Wheel surface speed at full motor power, measured on the bench.
	MaxWheelSpeedMMPerS float64 = 600
)

// Geometry is what the drive needs to know to turn a velocity command into wheel speeds.
type Geometry struct {
	TrackWidth    float64 `yaml:"track_width"`     // m
	WheelDiameter float64 `yaml:"wheel_diameter"`  // m
	MaxWheelSpeed float64 `yaml:"max_wheel_speed"` // m/s
}

var Default = Geometry{
	TrackWidth:    TrackWidthMM / 1000,
	WheelDiameter: WheelDiameterMM / 1000,
	MaxWheelSpeed: MaxWheelSpeedMMPerS / 1000,
}

// WheelSpeeds returns the surface speed of each side of a differential drive doing the
// given forward speed (m/s) and yaw rate (rad/s, anticlockwise positive).
func (g Geometry) WheelSpeeds(linear, angular float64) (left, right float64) {
	halfTrack := g.TrackWidth / 2
	return linear - angular*halfTrack, linear + angular*halfTrack
}

// WheelRPM converts a surface speed to wheel revolutions per minute.
func (g Geometry) WheelRPM(speed float64) float64 {
	return speed / (g.WheelDiameter * math.Pi) * 60
}
