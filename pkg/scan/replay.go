package scan

import (
	"context"
	"fmt"
	"io/ioutil"
	"sync"
	"time"

	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"
)

// Source is anything that delivers sweeps.  The channel is closed when the source runs dry
// or ctx is cancelled.
type Source interface {
	Sweeps(ctx context.Context) (<-chan Sweep, error)
}

const DefaultReplayPeriod = 100 * time.Millisecond

// Recording is the on-disk format used by Replay and Record.
type Recording struct {
	Period string  `yaml:"period,omitempty"`
	Sweeps []Sweep `yaml:"sweeps"`
}

// Replay plays back a Recording at its recorded period.
type Replay struct {
	Recording Recording
	Loop      bool

	period time.Duration
}

func LoadReplay(path string) (*Replay, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read replay file")
	}
	var rec Recording
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return nil, errors.Wrapf(err, "failed to parse replay file %s", path)
	}
	return NewReplay(rec)
}

func NewReplay(rec Recording) (*Replay, error) {
	period := DefaultReplayPeriod
	if rec.Period != "" {
		var err error
		period, err = time.ParseDuration(rec.Period)
		if err != nil {
			return nil, errors.Wrapf(err, "bad replay period %q", rec.Period)
		}
		if period <= 0 {
			return nil, fmt.Errorf("replay period must be positive, got %v", period)
		}
	}
	return &Replay{
		Recording: rec,
		period:    period,
	}, nil
}

func (r *Replay) Sweeps(ctx context.Context) (<-chan Sweep, error) {
	if len(r.Recording.Sweeps) == 0 {
		return nil, errors.New("replay has no sweeps")
	}
	out := make(chan Sweep)
	go func() {
		defer close(out)
		ticker := time.NewTicker(r.period)
		defer ticker.Stop()
		for {
			for _, sw := range r.Recording.Sweeps {
				sw.Time = time.Now()
				select {
				case out <- sw:
				case <-ctx.Done():
					return
				}
				select {
				case <-ticker.C:
				case <-ctx.Done():
					return
				}
			}
			if !r.Loop {
				fmt.Println("Replay: finished")
				return
			}
		}
	}()
	return out, nil
}

// Record writes sweeps to path in the format LoadReplay reads.
func Record(path string, period time.Duration, sweeps []Sweep) error {
	rec := Recording{
		Period: period.String(),
		Sweeps: sweeps,
	}
	data, err := yaml.Marshal(&rec)
	if err != nil {
		return errors.Wrap(err, "failed to marshal sweeps")
	}
	if err := ioutil.WriteFile(path, data, 0666); err != nil {
		return errors.Wrap(err, "failed to write recording")
	}
	return nil
}

// Tap keeps a copy of every sweep that passes through it, for Record.
type Tap struct {
	lock   sync.Mutex
	sweeps []Sweep
}

func (t *Tap) Tee(ctx context.Context, in <-chan Sweep) <-chan Sweep {
	out := make(chan Sweep)
	go func() {
		defer close(out)
		for sw := range in {
			t.lock.Lock()
			t.sweeps = append(t.sweeps, sw)
			t.lock.Unlock()
			select {
			case out <- sw:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func (t *Tap) Recorded() []Sweep {
	t.lock.Lock()
	defer t.lock.Unlock()
	return append([]Sweep(nil), t.sweeps...)
}
