package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/pkg/errors"

	"github.com/tigerbot-team/tigerbot/scan-avoider/pkg/avoid"
	"github.com/tigerbot-team/tigerbot/scan-avoider/pkg/avoidloop"
	"github.com/tigerbot-team/tigerbot/scan-avoider/pkg/scan"
	"github.com/tigerbot-team/tigerbot/scan-avoider/pkg/sink"
)

var CLI struct {
	Preset string `help:"Preset to run (${presets})." default:"${default_preset}"`
	Config string `help:"Profile file; overrides --preset." type:"existingfile"`

	Replay string        `help:"Replay sweeps from this file instead of simulating." type:"existingfile" xor:"source"`
	Sim    bool          `help:"Simulate a room (the default)." xor:"source"`
	Period time.Duration `help:"Simulator sweep period." default:"100ms"`

	Record string `help:"Save the sweeps that were used to this file." type:"path"`
	Cycles int64  `help:"Stop after this many cycles (0 runs until the source ends)."`
	Clouds bool   `help:"Print the size of each published point cloud."`
	Quiet  bool   `help:"Only print the summary."`
}

func main() {
	fmt.Println("---- avoidbench ----")
	kctx := kong.Parse(&CLI,
		kong.Description("Runs the scan avoider against recorded or simulated sweeps."),
		kong.Vars{
			"presets":        fmt.Sprint(avoid.PresetNames()),
			"default_preset": avoid.DefaultPreset,
		},
	)
	kctx.FatalIfErrorf(run())
}

func run() error {
	profile, err := loadProfile()
	if err != nil {
		return err
	}
	fmt.Println("Using preset", profile.Name)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		select {
		case s := <-signals:
			fmt.Println("Signal:", s)
			cancel()
		case <-ctx.Done():
		}
	}()

	topics := sink.NewTopics()
	var out sink.Multi
	if !CLI.Quiet {
		out = append(out, &sink.Printer{Out: os.Stdout, Clouds: CLI.Clouds})
	}
	out = append(out, topics)

	source, err := openSource(ctx, topics)
	if err != nil {
		return err
	}
	sweeps, err := source.Sweeps(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to start sweeps")
	}
	var tap scan.Tap
	if CLI.Record != "" {
		sweeps = tap.Tee(ctx, sweeps)
	}

	loop := avoidloop.New(profile, out)
	branches := map[avoid.Branch]int{}
	loop.OnCycle = func(res avoidloop.Result) {
		branches[res.Decision.Branch]++
		if CLI.Cycles > 0 && loop.Stats().Cycles >= CLI.Cycles {
			cancel()
		}
	}

	start := time.Now()
	err = loop.Run(ctx, sweeps)
	if err != nil && err != context.Canceled {
		return err
	}

	stats := loop.Stats()
	fmt.Printf("%d cycles in %v, %d dropped, %d malformed\n",
		stats.Cycles, time.Since(start).Round(time.Millisecond), stats.Dropped, stats.Malformed)
	for _, b := range []avoid.Branch{avoid.BranchCruise, avoid.BranchTurnLeft, avoid.BranchTurnRight} {
		fmt.Printf("  %-10s %d\n", b, branches[b])
	}

	if CLI.Record != "" {
		period := CLI.Period
		if r, ok := source.(*scan.Replay); ok && r.Recording.Period != "" {
			period, _ = time.ParseDuration(r.Recording.Period)
		}
		if err := scan.Record(CLI.Record, period, tap.Recorded()); err != nil {
			return err
		}
		fmt.Println("Recorded sweeps to", CLI.Record)
	}
	return nil
}

func loadProfile() (avoid.Profile, error) {
	if CLI.Config != "" {
		return avoid.LoadProfile(CLI.Config)
	}
	return avoid.Preset(CLI.Preset)
}

func openSource(ctx context.Context, topics *sink.Topics) (scan.Source, error) {
	if CLI.Replay != "" {
		return scan.LoadReplay(CLI.Replay)
	}
	sim := scan.NewSimulated(scan.DefaultRoom(), scan.Pose{})
	sim.Period = CLI.Period
	go sink.Follow(ctx, topics.Commands, func(cmd avoid.Command) {
		sim.Drive(cmd.LinearX, cmd.AngularZ)
	})
	return sim, nil
}
