package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/tigerbot-team/tigerbot/scan-avoider/pkg/avoid"
	"github.com/tigerbot-team/tigerbot/scan-avoider/pkg/avoidmode"
	"github.com/tigerbot-team/tigerbot/scan-avoider/pkg/hardware"
	"github.com/tigerbot-team/tigerbot/scan-avoider/pkg/joystick"
	"github.com/tigerbot-team/tigerbot/scan-avoider/pkg/pausemode"
	"github.com/tigerbot-team/tigerbot/scan-avoider/pkg/rcmode"
	"github.com/tigerbot-team/tigerbot/scan-avoider/pkg/scan"
	"github.com/tigerbot-team/tigerbot/scan-avoider/pkg/screen"
	"github.com/tigerbot-team/tigerbot/scan-avoider/pkg/sink"
	"github.com/tigerbot-team/tigerbot/scan-avoider/pkg/sound"
)

type Mode interface {
	Name() string
	StartupSound() string
	Start(ctx context.Context)
	Stop()
}

type JoystickUser interface {
	OnJoystickEvent(event *joystick.Event)
}

func main() {
	fmt.Println("---- Scan avoider ----")
	fmt.Println("GOMAXPROCS", runtime.GOMAXPROCS(0))

	// Our global context, we cancel it to trigger shutdown.
	ctx, cancel := context.WithCancel(context.Background())

	// Hook Ctrl-C etc.
	registerSignalHandlers(cancel)

	// Initialise the hardware.
	hw, err := hardware.New()
	if err != nil {
		fmt.Println("Failed to initialise hardware:", err)
		os.Exit(1)
	}
	defer func() {
		fmt.Println("Zeroing motors for shut down")
		hw.Shutdown()
		time.Sleep(100 * time.Millisecond)
	}()
	hw.Start(ctx)

	topics := sink.NewTopics()
	source, err := sweepSource(ctx, topics)
	if err != nil {
		fmt.Println("Failed to open sweep source:", err)
		return
	}

	// Wait for the joystick and kick off a background thread to read from it.
	joystickEvents := initJoystick(cancel, ctx)

	hw.PlaySound(sound.Start)

	avoider := avoidmode.New(hw, source, topics)
	if f := os.Getenv("AVOID_CONFIG"); f != "" {
		avoider.ConfigFile = f
	}
	allModes := []Mode{
		avoider,
		rcmode.New(sink.Multi{hw.Drive(), topics}),
		pausemode.New(hw.Drive()),
	}
	var activeMode Mode = allModes[0]
	fmt.Printf("----- %s -----\n", activeMode.Name())
	screen.SetMode(activeMode.Name())
	activeMode.Start(ctx)
	activeModeIdx := 0

	switchMode := func(delta int) {
		fmt.Println("Mode switch", delta)
		activeMode.Stop()
		fmt.Println("Mode switch: active mode stopped", delta)
		hw.StopMotorControl()
		fmt.Println("Mode switch: motors stopped", delta)
		activeModeIdx += delta
		activeModeIdx = (activeModeIdx + len(allModes)) % len(allModes)
		activeMode = allModes[activeModeIdx]
		fmt.Printf("----- %s -----\n", activeMode.Name())
		screen.SetMode(activeMode.Name())

		hw.PlaySound(activeMode.StartupSound())

		activeMode.Start(ctx)
		fmt.Println("Mode switch done.")
	}

	fmt.Println("Waiting for events...")
	watchdog := time.NewTicker(5 * time.Second)
	defer watchdog.Stop()

	for {
		select {
		case <-ctx.Done():
			fmt.Println("Context done, stopping active mode and shutting down")
			activeMode.Stop()
			return
		case event, ok := <-joystickEvents:
			if !ok {
				fmt.Println("Joystick events channel closed!")
				activeMode.Stop()
				cancel()
				return
			}
			// Intercept Options and Share to implement mode switching.
			if event.IsPress(joystick.ButtonOptions) {
				fmt.Printf("Options pressed: switching modes >>\n")
				switchMode(1)
				continue
			} else if event.IsPress(joystick.ButtonShare) {
				fmt.Printf("Share pressed: switching modes <<\n")
				switchMode(-1)
				continue
			}
			// Pass other joystick events through if this mode requires them.
			if ju, ok := activeMode.(JoystickUser); ok {
				done := make(chan struct{})
				go func() {
					defer close(done)
					ju.OnJoystickEvent(event)
				}()
				timeout := time.NewTimer(1 * time.Second)
				select {
				case <-done:
					timeout.Stop()
				case <-timeout.C:
					// The modes only queue the event to their own goroutine; blocking this long
					// means a deadlock.
					panic("Deadlock? Active mode blocked OnJoystickEvent for >1s")
				}
			}
		case <-watchdog.C:
			fmt.Println("Main loop still running")
		}
	}
}

// sweepSource replays SCAN_REPLAY if set, otherwise simulates a room and drives the
// simulated robot with the commands we publish.
func sweepSource(ctx context.Context, topics *sink.Topics) (scan.Source, error) {
	if path := os.Getenv("SCAN_REPLAY"); path != "" {
		replay, err := scan.LoadReplay(path)
		if err != nil {
			return nil, err
		}
		replay.Loop = true
		fmt.Println("Replaying sweeps from", path)
		return replay, nil
	}

	fmt.Println("No SCAN_REPLAY, using the simulator")
	sim := scan.NewSimulated(scan.DefaultRoom(), scan.Pose{})
	go sink.Follow(ctx, topics.Commands, func(cmd avoid.Command) {
		sim.Drive(cmd.LinearX, cmd.AngularZ)
	})
	return sim, nil
}

func initJoystick(cancel context.CancelFunc, ctx context.Context) chan *joystick.Event {
	joystickEvents := make(chan *joystick.Event, 1)
	firstLog := true
	for {
		jDev := os.Getenv("JOYSTICK_DEVICE")
		if jDev == "" {
			jDev = joystick.DefaultDevice
		}
		j, err := joystick.NewJoystick(jDev)
		const noJoy = "NO JOY"
		if err != nil {
			if firstLog {
				screen.SetNotice(noJoy, screen.LevelErr)
				fmt.Printf("Waiting for joystick: %v.\n", err)
				firstLog = false
			}
			if ctx.Err() != nil {
				close(joystickEvents)
				return joystickEvents
			}
			time.Sleep(1 * time.Second)
			continue
		}

		screen.ClearNotice(noJoy)
		fmt.Printf("Opened joystick\n")
		go func() {
			defer cancel()
			defer j.Close()
			err := j.Loop(ctx, joystickEvents)
			fmt.Printf("Joystick failed: %v\n", err)
		}()
		break
	}
	return joystickEvents
}

func registerSignalHandlers(cancelFunc context.CancelFunc) {
	// Hook Ctrl-C to cause shut down.
	signals := make(chan os.Signal, 2)
	signal.Notify(signals, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		s := <-signals
		log.Println("Signal: ", s)
		cancelFunc()
		time.Sleep(2 * time.Second)
		os.Exit(0)
	}()
}
