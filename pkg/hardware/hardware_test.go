package hardware

import (
	"testing"

	"github.com/tigerbot-team/tigerbot/scan-avoider/pkg/avoid"
)

type countingSounds struct {
	played []string
	closed bool
}

func (c *countingSounds) Play(path string) {
	c.played = append(c.played, path)
}

func (c *countingSounds) Close() {
	c.closed = true
}

func TestDummyHardware(t *testing.T) {
	hw := NewDummy()
	if err := hw.Drive().PublishCommand(avoid.Command{LinearX: 0.3}); err != nil {
		t.Fatal(err)
	}
	if l, r := hw.Drive().Current(); l != 64 || r != 64 {
		t.Fatalf("Expected half power, got %d, %d", l, r)
	}
	hw.StopMotorControl()
	if l, r := hw.Drive().Current(); l != 0 || r != 0 {
		t.Fatalf("Expected motors stopped, got %d, %d", l, r)
	}
}

func TestShutdownStopsAndClosesSound(t *testing.T) {
	sounds := &countingSounds{}
	hw := NewDummy()
	hw.sounds = sounds

	hw.PlaySound("/sounds/test.wav")
	if err := hw.Drive().PublishCommand(avoid.Command{AngularZ: 1}); err != nil {
		t.Fatal(err)
	}
	hw.Shutdown()

	if len(sounds.played) != 1 || !sounds.closed {
		t.Fatalf("Unexpected sound calls %v closed=%v", sounds.played, sounds.closed)
	}
	if l, r := hw.Drive().Current(); l != 0 || r != 0 {
		t.Fatalf("Expected motors stopped, got %d, %d", l, r)
	}
}
