package rcmode

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/tigerbot-team/tigerbot/scan-avoider/pkg/avoid"
	"github.com/tigerbot-team/tigerbot/scan-avoider/pkg/joystick"
	"github.com/tigerbot-team/tigerbot/scan-avoider/pkg/sink"
	"github.com/tigerbot-team/tigerbot/scan-avoider/pkg/sound"
)

const (
	MaxLinear  = 0.6 // m/s
	MaxAngular = 3.0 // rad/s

	GentleScale = 0.25
)

// RCMode drives from the sticks: right stick forward/back, left stick to turn.
type RCMode struct {
	out sink.Sink

	cancel         context.CancelFunc
	stopWG         sync.WaitGroup
	joystickEvents chan *joystick.Event
}

func New(out sink.Sink) *RCMode {
	return &RCMode{
		out:            out,
		joystickEvents: make(chan *joystick.Event),
	}
}

func (m *RCMode) Name() string {
	return "RC mode"
}

func (m *RCMode) StartupSound() string {
	return sound.RCMode
}

func (m *RCMode) Start(ctx context.Context) {
	m.stopWG.Add(1)
	var loopCtx context.Context
	loopCtx, m.cancel = context.WithCancel(ctx)
	go m.loop(loopCtx)
}

func (m *RCMode) Stop() {
	m.cancel()
	m.stopWG.Wait()
}

func (m *RCMode) loop(ctx context.Context) {
	defer m.stopWG.Done()
	defer func() {
		if err := m.out.PublishCommand(avoid.Command{}); err != nil {
			fmt.Println("Failed to stop motors!", err)
		}
	}()

	var leftStickX, rightStickY int16
	scale := 1.0

	for {
		select {
		case <-ctx.Done():
			return
		case event := <-m.joystickEvents:
			switch event.Type {
			case joystick.EventTypeAxis:
				switch event.Number {
				case joystick.AxisLStickX:
					leftStickX = event.Value
				case joystick.AxisRStickY:
					rightStickY = event.Value
				default:
					continue
				}
			case joystick.EventTypeButton:
				if event.Number != joystick.ButtonL2 {
					continue
				}
				if event.Value == 1 {
					fmt.Println("Gentle mode")
					scale = GentleScale
				} else {
					fmt.Println("Aggressive mode")
					scale = 1
				}
			}

			cmd := Mix(leftStickX, rightStickY)
			cmd.LinearX *= scale
			cmd.AngularZ *= scale
			if err := m.out.PublishCommand(cmd); err != nil {
				fmt.Println("Failed to set motor speeds!", err)
			}
		}
	}
}

func (m *RCMode) OnJoystickEvent(event *joystick.Event) {
	m.joystickEvents <- event
}

// Mix maps stick positions to a velocity command.  Stick up is negative on the joystick,
// so pushing the right stick up drives forwards and pushing the left stick left turns
// left (anticlockwise).
func Mix(lStickX, rStickY int16) avoid.Command {
	const expo = 1.6

	yawExpo := applyExpo(float64(lStickX)/-32767.0, 2.5)
	throttleExpo := applyExpo(float64(rStickY)/-32767.0, expo)

	return avoid.Command{
		LinearX:  clamp(throttleExpo) * MaxLinear,
		AngularZ: clamp(yawExpo) * MaxAngular,
	}
}

func applyExpo(value float64, expo float64) float64 {
	absVal := math.Abs(value)
	absExpo := math.Pow(absVal, expo)
	signedExpo := math.Copysign(absExpo, value)
	return signedExpo
}

func clamp(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}
