package sound

import (
	"fmt"
	"os"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"
)

const (
	Start     = "/sounds/tigerbotstart.wav"
	AvoidMode = "/sounds/avoidmode.wav"
	RCMode    = "/sounds/rcmode.wav"
	PauseMode = "/sounds/pausemode.wav"

	TurnLeft  = "/sounds/turnleft.wav"
	TurnRight = "/sounds/turnright.wav"
	Cruise    = "/sounds/cruise.wav"
	Preset    = "/sounds/preset.wav"
	Error     = "/sounds/error.wav"
)

// Player plays one sound at a time; a new sound cuts off the previous one.
type Player struct {
	soundsToPlay chan string
}

func NewPlayer() *Player {
	return &Player{soundsToPlay: InitSound()}
}

// Play queues a sound, giving up quickly if the player is busy.
func (p *Player) Play(path string) {
	defer func() {
		recover() // Don't die if the channel is already closed.
	}()
	select {
	case p.soundsToPlay <- path:
	case <-time.After(10 * time.Millisecond):
		fmt.Println("Timed out trying to play sound: ", path)
	}
}

func (p *Player) Close() {
	close(p.soundsToPlay)
}

func InitSound() chan string {
	soundsToPlay := make(chan string)
	go func() {
		defer func() {
			recover()
			for s := range soundsToPlay {
				fmt.Println("Unable to play", s)
			}
		}()
		sampleRate := beep.SampleRate(44100)
		err := speaker.Init(sampleRate, sampleRate.N(time.Second/5))
		if err != nil {
			fmt.Println("Failed to open speaker", err)
			for s := range soundsToPlay {
				fmt.Println("Unable to play", s)
			}
			return
		}
		var ctrl *beep.Ctrl
		var s beep.StreamSeekCloser
		for soundToPlay := range soundsToPlay {
			if ctrl != nil {
				speaker.Lock()
				ctrl.Paused = true
				ctrl.Streamer = nil
				speaker.Unlock()
				ctrl = nil
			}
			if s != nil {
				s.Close()
				s = nil
			}

			f, err := os.Open(soundToPlay)
			if err != nil {
				fmt.Println("Failed to open sound", err)
				continue
			}
			s, _, err = wav.Decode(f)
			if err != nil {
				fmt.Println("Failed to decode sound", err)
				f.Close()
				continue
			}
			ctrl = &beep.Ctrl{Streamer: s}
			speaker.Play(ctrl)
		}
	}()
	return soundsToPlay
}
