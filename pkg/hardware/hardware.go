package hardware

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/tigerbot-team/tigerbot/scan-avoider/pkg/chassis"
	"github.com/tigerbot-team/tigerbot/scan-avoider/pkg/drive"
	"github.com/tigerbot-team/tigerbot/scan-avoider/pkg/motors"
	"github.com/tigerbot-team/tigerbot/scan-avoider/pkg/mux"
	"github.com/tigerbot-team/tigerbot/scan-avoider/pkg/screen"
	"github.com/tigerbot-team/tigerbot/scan-avoider/pkg/sound"
)

type Interface interface {
	Start(ctx context.Context)

	// Drive is the sink that turns velocity commands into motor speeds.
	Drive() *drive.Sink
	StopMotorControl()

	PlaySound(path string)
	Shutdown()
}

type soundPlayer interface {
	Play(path string)
	Close()
}

type Hardware struct {
	motors motors.Interface
	drive  *drive.Sink
	sounds soundPlayer

	screen bool
}

var _ Interface = (*Hardware)(nil)

// New opens the motor board.  If IGNORE_MISSING_MOTORS is set a missing board is replaced
// by a dummy so the rest of the controller can still be exercised.
func New() (*Hardware, error) {
	m, err := openMotors()
	if err != nil {
		if os.Getenv("IGNORE_MISSING_MOTORS") == "" {
			return nil, err
		}
		fmt.Println("HW: no motor board, using dummy motors:", err)
		m = motors.Dummy()
	}
	h := newHardware(m, sound.NewPlayer())
	h.screen = true
	return h, nil
}

func openMotors() (motors.Interface, error) {
	mx, err := mux.New(mux.DefaultDevice)
	if err != nil {
		return nil, err
	}
	board, err := motors.New(mx, mux.BusMotors)
	if err != nil {
		_ = mx.Close()
		return nil, err
	}
	return board, nil
}

func newHardware(m motors.Interface, sounds soundPlayer) *Hardware {
	return &Hardware{
		motors: m,
		drive:  drive.New(m, chassis.Default),
		sounds: sounds,
	}
}

func (h *Hardware) Start(ctx context.Context) {
	if h.screen {
		go screen.LoopUpdatingScreen(ctx)
	}
}

func (h *Hardware) Drive() *drive.Sink {
	return h.drive
}

func (h *Hardware) StopMotorControl() {
	if err := h.drive.Stop(); err != nil {
		fmt.Println("HW: failed to stop motors:", err)
	}
	time.Sleep(30 * time.Millisecond)
}

func (h *Hardware) PlaySound(path string) {
	h.sounds.Play(path)
}

func (h *Hardware) Shutdown() {
	h.StopMotorControl()
	if err := h.motors.Close(); err != nil {
		fmt.Println("HW: failed to close motors:", err)
	}
	h.sounds.Close()
}
