package mux

import (
	"fmt"

	"github.com/pkg/errors"
	"golang.org/x/exp/io/i2c"
)

const (
	DefaultDevice = "/dev/i2c-1"

	MuxAddr = 0x70

	BusOthers = 6
	BusMotors = 7
)

type Interface interface {
	DisableAllPorts() error
	SelectSinglePort(num int) error
	SelectMultiplePorts(i byte) error
	Close() error
}

type Mux struct {
	dev *i2c.Device
}

func New(deviceFile string) (Interface, error) {
	dev, err := i2c.Open(&i2c.Devfs{Dev: deviceFile}, MuxAddr)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open mux on %s", deviceFile)
	}
	return &Mux{
		dev: dev,
	}, nil
}

func (p *Mux) SelectSinglePort(num int) error {
	if num < 0 || num > 7 {
		return fmt.Errorf("no mux port %d", num)
	}
	return p.dev.Write([]byte{1 << uint(num)})
}

func (p *Mux) SelectMultiplePorts(i byte) error {
	return p.dev.Write([]byte{i})
}

func (p *Mux) DisableAllPorts() error {
	return p.dev.Write([]byte{0})
}

func (p *Mux) Close() error {
	return p.dev.Close()
}

// Dummy logs port selections instead of touching the bus.
func Dummy() Interface {
	return &dummyMux{port: -1}
}

type dummyMux struct {
	port int
}

func (p *dummyMux) SelectSinglePort(num int) error {
	if num != p.port {
		fmt.Printf("Dummy mux: port=%d\n", num)
		p.port = num
	}
	return nil
}

func (p *dummyMux) DisableAllPorts() error {
	fmt.Println("Dummy mux: all ports disabled")
	p.port = -1
	return nil
}

func (p *dummyMux) SelectMultiplePorts(i byte) error {
	return nil
}

func (p *dummyMux) Close() error {
	return nil
}
