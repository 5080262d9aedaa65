package main

import (
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kong"

	"github.com/tigerbot-team/tigerbot/scan-avoider/pkg/avoid"
	"github.com/tigerbot-team/tigerbot/scan-avoider/pkg/chassis"
	"github.com/tigerbot-team/tigerbot/scan-avoider/pkg/drive"
	"github.com/tigerbot-team/tigerbot/scan-avoider/pkg/motors"
	"github.com/tigerbot-team/tigerbot/scan-avoider/pkg/mux"
)

var CLI struct {
	Dummy bool          `help:"Print motor speeds instead of opening the motor board."`
	Speed float64       `help:"Forward speed for the straight runs (m/s)." default:"0.2"`
	Turn  float64       `help:"Turn rate for the spins (rad/s)." default:"1.0"`
	Step  time.Duration `help:"How long to hold each command." default:"1s"`
}

func main() {
	fmt.Println("---- drivetests ----")
	kctx := kong.Parse(&CLI, kong.Description("Runs the motors through a few velocity commands."))

	var m motors.Interface
	if CLI.Dummy {
		m = motors.Dummy()
	} else {
		mx, err := mux.New(mux.DefaultDevice)
		kctx.FatalIfErrorf(err)
		board, err := motors.New(mx, mux.BusMotors)
		kctx.FatalIfErrorf(err)
		m = board
	}
	defer m.Close()

	d := drive.New(m, chassis.Default)
	for _, cmd := range []avoid.Command{
		{LinearX: CLI.Speed},
		{LinearX: -CLI.Speed},
		{AngularZ: CLI.Turn},
		{AngularZ: -CLI.Turn},
		{LinearX: CLI.Speed, AngularZ: CLI.Turn},
		{},
	} {
		l, r := d.WheelSpeeds(cmd)
		fmt.Printf("%s -> l=%d r=%d\n", cmd, l, r)
		if err := d.PublishCommand(cmd); err != nil {
			fmt.Println("Failed:", err)
			_ = d.Stop()
			os.Exit(1)
		}
		time.Sleep(CLI.Step)
	}
}
