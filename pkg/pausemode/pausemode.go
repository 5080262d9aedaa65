package pausemode

import (
	"context"
	"fmt"

	"github.com/tigerbot-team/tigerbot/scan-avoider/pkg/avoid"
	"github.com/tigerbot-team/tigerbot/scan-avoider/pkg/sink"
	"github.com/tigerbot-team/tigerbot/scan-avoider/pkg/sound"
)

// PauseMode holds the robot still.
type PauseMode struct {
	out sink.Sink
}

func New(out sink.Sink) *PauseMode {
	return &PauseMode{out: out}
}

func (t *PauseMode) Name() string {
	return "Pause mode"
}

func (t *PauseMode) StartupSound() string {
	return sound.PauseMode
}

func (t *PauseMode) Start(ctx context.Context) {
	if err := t.out.PublishCommand(avoid.Command{}); err != nil {
		fmt.Println("Pause: failed to stop:", err)
	}
}

func (t *PauseMode) Stop() {
}
