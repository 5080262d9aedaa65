package motors

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"
	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpioreg"
	"periph.io/x/periph/host"
)

var hostInit struct {
	once sync.Once
	err  error
}

func initHost() error {
	hostInit.once.Do(func() {
		_, hostInit.err = host.Init()
	})
	return hostInit.err
}

// ResetPin is the board's active-low reset line.
type ResetPin struct {
	Name string

	pin gpio.PinIO
}

func (r *ResetPin) open() error {
	if r.pin != nil {
		return nil
	}
	if err := initHost(); err != nil {
		return errors.Wrap(err, "failed to initialise GPIO")
	}
	pin := gpioreg.ByName(r.Name)
	if pin == nil {
		return fmt.Errorf("no GPIO pin %q", r.Name)
	}
	r.pin = pin
	return nil
}

// Release drives the pin high so the board can run.
func (r *ResetPin) Release() error {
	if err := r.open(); err != nil {
		return err
	}
	fmt.Println("Motors: releasing reset pin", r.Name)
	return errors.Wrap(r.pin.Out(gpio.High), "failed to drive reset pin")
}

// Assert holds the board in reset.
func (r *ResetPin) Assert() error {
	if err := r.open(); err != nil {
		return err
	}
	fmt.Println("Motors: resetting the board")
	return errors.Wrap(r.pin.Out(gpio.Low), "failed to drive reset pin")
}
