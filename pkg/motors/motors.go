// Package motors drives the motor controller board that sits behind the i2c mux.
package motors

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/kr/pty"
	"github.com/pkg/errors"
	"golang.org/x/exp/io/i2c"

	"github.com/tigerbot-team/tigerbot/scan-avoider/pkg/mux"
)

const (
	BoardAddr = 0x42

	RegMotorLeft  = 23
	RegMotorRight = 24

	DefaultFirmware = "/mb3.binary"
	ResetPinName    = "GPIO17"
)

type Interface interface {
	SetMotorSpeeds(left, right int8) error
	Close() error
}

type Board struct {
	device   string
	dev      *i2c.Device
	mux      mux.Interface
	muxPort  int
	reset    resetLine
	firmware string

	// flash is Flash unless replaced in tests.
	flash func() error
}

type resetLine interface {
	Assert() error
	Release() error
}

// New flashes the board's firmware and opens it.
func New(mx mux.Interface, muxPort int) (*Board, error) {
	dev, err := i2c.Open(&i2c.Devfs{Dev: mux.DefaultDevice}, BoardAddr)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open motor board")
	}

	b := &Board{
		device:   mux.DefaultDevice,
		dev:      dev,
		mux:      mx,
		muxPort:  muxPort,
		reset:    &ResetPin{Name: ResetPinName},
		firmware: DefaultFirmware,
	}
	b.flash = b.Flash

	err = b.flash()
	if err != nil {
		_ = dev.Close()
		return nil, err
	}

	return b, nil
}

func (b *Board) Flash() error {
	fmt.Println("Motors: flashing", b.firmware)
	cmd := exec.Command("propman", b.firmware)
	// propman reports success without booting the board unless it has a TTY.
	f, err := pty.Start(cmd)
	if err != nil {
		return errors.Wrap(err, "failed to start propman")
	}
	defer f.Close()
	fmt.Println("propman output:")
	go io.Copy(os.Stdout, f)
	if err := cmd.Wait(); err != nil {
		return errors.Wrap(err, "propman failed")
	}
	fmt.Println("Motors: flashed")

	if err := b.reset.Release(); err != nil {
		return err
	}
	// Give the board time to boot.
	time.Sleep(25 * time.Millisecond)
	return nil
}

func (b *Board) SetMotorSpeeds(left, right int8) error {
	// Clamp for symmetry and so the negation can't overflow.
	if left == -128 {
		left = -127
	}
	if right == -128 {
		right = -127
	}
	// The right motor is mounted mirrored.
	return b.writeWithRetries([]byte{RegMotorLeft, byte(left), byte(-right)})
}

func (b *Board) Close() error {
	err := b.SetMotorSpeeds(0, 0)
	if cerr := b.dev.Close(); err == nil {
		err = cerr
	}
	return err
}

func (b *Board) writeWithRetries(data []byte) error {
	var err error
	for flashTries := 0; flashTries < 3; flashTries++ {
		for tries := 0; tries < 20; tries++ {
			err = b.mux.SelectSinglePort(b.muxPort)
			if err == nil {
				err = b.dev.Write(data)
			} else {
				fmt.Println("Motors: failed to program mux:", err)
			}
			if err == nil {
				if tries > 0 || flashTries > 0 {
					fmt.Println("Motors: write succeeded after retries")
				}
				return nil
			}
			fmt.Println("Motors: write failed:", err)
			time.Sleep(1 * time.Millisecond)
			_ = b.dev.Close()
			dev, oerr := i2c.Open(&i2c.Devfs{Dev: b.device}, BoardAddr)
			if oerr != nil {
				continue
			}
			b.dev = dev
		}
		// The board may have crashed; hold it in reset and reflash.
		fmt.Println("Motors: failed after retries, rebooting the board:", err)
		_ = b.reboot()
	}
	return errors.Wrap(err, "failed to program or reflash the motor board")
}

// reboot holds the board in reset and reflashes it.  Both steps are attempted; each failure
// is logged and the first is returned.
func (b *Board) reboot() error {
	rerr := b.reset.Assert()
	if rerr != nil {
		fmt.Println("Motors: failed to assert reset:", rerr)
	}
	ferr := b.flash()
	if ferr != nil {
		fmt.Println("Motors: reflash failed:", ferr)
	}
	if rerr != nil {
		return rerr
	}
	return ferr
}

// Dummy prints motor speeds instead of driving anything.
func Dummy() Interface {
	return &dummyBoard{}
}

type dummyBoard struct {
	left, right int8
}

func (d *dummyBoard) SetMotorSpeeds(left, right int8) error {
	if left != d.left || right != d.right {
		fmt.Printf("Dummy motors: l=%v r=%v\n", left, right)
		d.left, d.right = left, right
	}
	return nil
}

func (d *dummyBoard) Close() error {
	return nil
}

var (
	_ resetLine = (*ResetPin)(nil)
	_ Interface = (*Board)(nil)
	_ Interface = (*dummyBoard)(nil)
)
