// Package drive turns velocity commands into motor speeds for a differential drive.
package drive

import (
	"fmt"
	"math"
	"sync"

	"github.com/pkg/errors"

	"github.com/tigerbot-team/tigerbot/scan-avoider/pkg/avoid"
	"github.com/tigerbot-team/tigerbot/scan-avoider/pkg/chassis"
	"github.com/tigerbot-team/tigerbot/scan-avoider/pkg/scan"
)

type Motors interface {
	SetMotorSpeeds(left, right int8) error
}

// Sink writes each command to the motors.  Clouds are ignored.
type Sink struct {
	lock   sync.Mutex
	motors Motors
	geom   chassis.Geometry

	left, right int8
}

func New(m Motors, g chassis.Geometry) *Sink {
	return &Sink{
		motors: m,
		geom:   g,
	}
}

// WheelSpeeds maps a command to motor values in [-127, 127].  If either wheel would go
// faster than the chassis allows, both are scaled down together so the turn radius is
// kept.
func (s *Sink) WheelSpeeds(cmd avoid.Command) (left, right int8) {
	l, r := s.geom.WheelSpeeds(cmd.LinearX, cmd.AngularZ)
	l /= s.geom.MaxWheelSpeed
	r /= s.geom.MaxWheelSpeed

	m := math.Max(math.Abs(l), math.Abs(r))
	scale := 1.0
	if m > 1 {
		scale = 1.0 / m
	}
	return scaleAndClamp(l*scale, 127), scaleAndClamp(r*scale, 127)
}

func (s *Sink) PublishCommand(cmd avoid.Command) error {
	left, right := s.WheelSpeeds(cmd)
	return s.set(left, right)
}

func (s *Sink) PublishCloud(scan.Cloud) error {
	return nil
}

// Stop zeroes both motors.
func (s *Sink) Stop() error {
	return s.set(0, 0)
}

// Current returns the last motor values written.
func (s *Sink) Current() (left, right int8) {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.left, s.right
}

func (s *Sink) set(left, right int8) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if left != s.left || right != s.right {
		fmt.Printf("Drive: l=%4d r=%4d\n", left, right)
	}
	err := s.motors.SetMotorSpeeds(left, right)
	if err != nil {
		return errors.Wrap(err, "failed to set motor speeds")
	}
	s.left, s.right = left, right
	return nil
}

func scaleAndClamp(value, multiplier float64) int8 {
	multiplied := math.Round(value * multiplier)
	if math.IsNaN(multiplied) {
		return 0
	}
	if multiplied <= -127 {
		return -127
	}
	if multiplied >= math.MaxInt8 {
		return math.MaxInt8
	}
	return int8(multiplied)
}
