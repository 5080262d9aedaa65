package rcmode

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/tigerbot-team/tigerbot/scan-avoider/pkg/avoid"
	"github.com/tigerbot-team/tigerbot/scan-avoider/pkg/joystick"
	"github.com/tigerbot-team/tigerbot/scan-avoider/pkg/scan"
)

func TestMix(t *testing.T) {
	cmd := Mix(0, 0)
	if cmd.LinearX != 0 || cmd.AngularZ != 0 {
		t.Fatalf("Input of 0s should return 0s, not %v", cmd)
	}

	cmd = Mix(math.MinInt16, 0)
	if cmd.LinearX != 0 || cmd.AngularZ != MaxAngular {
		t.Fatalf("Input of full-left returned %v", cmd)
	}

	cmd = Mix(math.MaxInt16, 0)
	if cmd.LinearX != 0 || cmd.AngularZ != -MaxAngular {
		t.Fatalf("Input of full-right returned %v", cmd)
	}

	cmd = Mix(0, -32767)
	if cmd.LinearX != MaxLinear || cmd.AngularZ != 0 {
		t.Fatalf("Input of full-forward returned %v", cmd)
	}

	cmd = Mix(0, -16384)
	if cmd.LinearX <= 0 || cmd.LinearX >= MaxLinear/2 {
		t.Fatalf("Expo should soften half stick, got %v", cmd)
	}
}

type lastCommand struct {
	lock sync.Mutex
	cmd  avoid.Command
	n    int
}

func (l *lastCommand) PublishCommand(cmd avoid.Command) error {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.cmd = cmd
	l.n++
	return nil
}

func (l *lastCommand) PublishCloud(scan.Cloud) error {
	return nil
}

func (l *lastCommand) get() (avoid.Command, int) {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.cmd, l.n
}

func TestModeStopsOnExit(t *testing.T) {
	out := &lastCommand{}
	m := New(out)
	m.Start(context.Background())

	m.OnJoystickEvent(&joystick.Event{Type: joystick.EventTypeAxis, Number: joystick.AxisRStickY, Value: -32767})
	m.OnJoystickEvent(&joystick.Event{Type: joystick.EventTypeButton, Number: joystick.ButtonL2, Value: 1})

	deadline := time.Now().Add(time.Second)
	for {
		cmd, _ := out.get()
		if cmd.LinearX == MaxLinear*GentleScale {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("Expected gentle full forward, got %v", cmd)
		}
		time.Sleep(time.Millisecond)
	}

	m.Stop()
	cmd, _ := out.get()
	if cmd != (avoid.Command{}) {
		t.Fatalf("Expected stop on exit, got %v", cmd)
	}
}
