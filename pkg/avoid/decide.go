// Package avoid turns obstacle counts into velocity commands.
package avoid

import (
	"fmt"
	"math"

	"github.com/tigerbot-team/tigerbot/scan-avoider/pkg/sectors"
)

// Command is a velocity request: forward speed in m/s and yaw rate in rad/s, anticlockwise
// positive.
type Command struct {
	LinearX  float64
	AngularZ float64
}

func (c Command) String() string {
	return fmt.Sprintf("lin %.3f ang %.3f", c.LinearX, c.AngularZ)
}

type Branch int

const (
	// BranchCruise: nothing dominates, drive on with a smoothed steer.
	BranchCruise Branch = iota
	// BranchTurnLeft: the right window is crowded, stop and turn left.
	BranchTurnLeft
	// BranchTurnRight: the left window is crowded, stop and turn right.
	BranchTurnRight
)

func (b Branch) String() string {
	switch b {
	case BranchCruise:
		return "cruise"
	case BranchTurnLeft:
		return "turn left"
	case BranchTurnRight:
		return "turn right"
	default:
		return fmt.Sprintf("unknown(%d)", int(b))
	}
}

// State is carried from one cycle to the next.  The zero value is the state at start up.
type State struct {
	AngularZ float64
}

// Input is everything one cycle feeds to Decide.
type Input struct {
	Count sectors.Count
	// Nearest in-band range, only used by SpeedNearest.
	Nearest     float64
	HaveNearest bool
}

type Decision struct {
	Command Command
	Branch  Branch
	Count   sectors.Count
}

// Decide picks the command for this cycle and updates st with the new angular velocity.
func Decide(p *Profile, in Input, st *State) Decision {
	c := in.Count
	d := Decision{Count: c}

	switch {
	case c.Imbalance() > p.RightThreshold:
		d.Branch = BranchTurnLeft
		d.Command.AngularZ = p.RightTurn.angular(c)
	case -c.Imbalance() > p.LeftThreshold:
		d.Branch = BranchTurnRight
		d.Command.AngularZ = p.LeftTurn.angular(c)
	default:
		d.Branch = BranchCruise
		d.Command.LinearX = p.cruiseSpeed(in)
		target := p.SteerGain * float64(c.Imbalance())
		d.Command.AngularZ = p.Smoothing*st.AngularZ + (1-p.Smoothing)*target
	}

	d.Command.AngularZ = applyFloor(p.Floor, p.MinAngular, d.Command.AngularZ)
	st.AngularZ = d.Command.AngularZ
	return d
}

func (p *Profile) cruiseSpeed(in Input) float64 {
	var speed float64
	switch p.Speed {
	case SpeedNearest:
		speed = p.BaseSpeed
		if in.HaveNearest {
			speed -= p.NearestGain * (p.NearestReference - in.Nearest)
		}
	default:
		speed = p.BaseSpeed - p.DecelGain*float64(in.Count.Total())
	}
	if speed < 0 {
		return 0
	}
	return speed
}

func applyFloor(policy FloorPolicy, floor, w float64) float64 {
	switch policy {
	case FloorSigned:
		return math.Max(floor, w)
	case FloorMagnitude:
		if w == 0 || math.Abs(w) >= floor {
			return w
		}
		return math.Copysign(floor, w)
	default:
		return w
	}
}
