package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tigerbot-team/tigerbot/scan-avoider/pkg/joystick"
)

func main() {
	// Our global context, we cancel it to trigger shutdown.
	ctx, cancel := context.WithCancel(context.Background())

	// Hook Ctrl-C etc.
	signals := make(chan os.Signal, 2)
	signal.Notify(signals, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		s := <-signals
		log.Println("Signal: ", s)
		cancel()
		// The reader only notices on the next event.
		time.Sleep(time.Second)
		os.Exit(0)
	}()

	jDev := os.Getenv("JOYSTICK_DEVICE")
	if jDev == "" {
		jDev = joystick.DefaultDevice
	}
	var j *joystick.Joystick
	for {
		var err error
		j, err = joystick.NewJoystick(jDev)
		if err == nil {
			break
		}
		fmt.Printf("Waiting for joystick: %v.\n", err)
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Second):
		}
	}
	defer j.Close()

	events := make(chan *joystick.Event)
	go func() {
		err := j.Loop(ctx, events)
		fmt.Printf("Joystick loop finished: %v\n", err)
	}()
	for e := range events {
		switch {
		case e.IsPress(joystick.ButtonR1):
			fmt.Println(e, "(R1: start)")
		case e.IsPress(joystick.ButtonSquare):
			fmt.Println(e, "(Square: stop)")
		case e.IsPress(joystick.ButtonTriangle):
			fmt.Println(e, "(Triangle: pause)")
		case e.IsPress(joystick.ButtonCircle):
			fmt.Println(e, "(Circle: next preset)")
		default:
			fmt.Println(e)
		}
	}
}
