package hardware

import (
	"fmt"

	"github.com/tigerbot-team/tigerbot/scan-avoider/pkg/motors"
)

// NewDummy returns hardware that prints instead of driving anything.
func NewDummy() *Hardware {
	return newHardware(motors.Dummy(), dummySounds{})
}

type dummySounds struct{}

func (dummySounds) Play(path string) {
	fmt.Printf("DHW: PlaySound path=%v\n", path)
}

func (dummySounds) Close() {
	fmt.Println("DHW: Shutdown")
}
