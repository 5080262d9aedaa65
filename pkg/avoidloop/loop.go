// Package avoidloop runs the avoidance pipeline once per sweep.
package avoidloop

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/tigerbot-team/tigerbot/scan-avoider/pkg/avoid"
	"github.com/tigerbot-team/tigerbot/scan-avoider/pkg/scan"
	"github.com/tigerbot-team/tigerbot/scan-avoider/pkg/sink"
)

// Result is the outcome of one cycle.
type Result struct {
	Cloud    scan.Cloud
	Decision avoid.Decision
}

// Cycle projects the sweep, counts the points in each window and decides on a command.
// st is updated for the next cycle.
func Cycle(p *avoid.Profile, sw scan.Sweep, st *avoid.State) Result {
	cloud := scan.ProjectCloud(sw, p.Band)
	in := avoid.Input{Count: p.Windows.Classify(cloud.Points)}
	if p.Speed == avoid.SpeedNearest {
		in.Nearest, in.HaveNearest = scan.Nearest(sw, p.Band)
	}
	return Result{
		Cloud:    cloud,
		Decision: avoid.Decide(p, in, st),
	}
}

type Stats struct {
	Cycles    int64
	Dropped   int64
	Malformed int64
}

// Loop owns the controller state and feeds each cycle's outputs to a sink.
type Loop struct {
	sink sink.Sink

	lock     sync.Mutex
	profile  avoid.Profile
	state    avoid.State
	last     Result
	haveLast bool

	cycles    int64
	dropped   int64
	malformed int64

	// OnCycle, if set, is called from the loop goroutine after each cycle is published.
	OnCycle func(Result)
}

func New(p avoid.Profile, s sink.Sink) *Loop {
	return &Loop{
		sink:    s,
		profile: p,
	}
}

// SetProfile swaps the tuning used from the next cycle on.  The smoothing state is kept.
func (l *Loop) SetProfile(p avoid.Profile) {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.profile = p
}

func (l *Loop) Profile() avoid.Profile {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.profile
}

// Reset forgets the smoothing state and the last result.
func (l *Loop) Reset() {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.state = avoid.State{}
	l.last = Result{}
	l.haveLast = false
}

func (l *Loop) Last() (Result, bool) {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.last, l.haveLast
}

func (l *Loop) Stats() Stats {
	return Stats{
		Cycles:    atomic.LoadInt64(&l.cycles),
		Dropped:   atomic.LoadInt64(&l.dropped),
		Malformed: atomic.LoadInt64(&l.malformed),
	}
}

// Step runs one cycle and publishes its outputs.
func (l *Loop) Step(sw scan.Sweep) Result {
	if err := sw.Check(); err != nil {
		// Carry on regardless; the projection only uses the start angle and increment.
		if n := atomic.AddInt64(&l.malformed, 1); n == 1 || n%100 == 0 {
			fmt.Println("Loop: malformed sweep:", err, "count:", n)
		}
	}

	l.lock.Lock()
	p := l.profile
	res := Cycle(&p, sw, &l.state)
	l.last = res
	l.haveLast = true
	l.lock.Unlock()
	atomic.AddInt64(&l.cycles, 1)

	if err := l.sink.PublishCommand(res.Decision.Command); err != nil {
		fmt.Println("Loop: failed to publish command:", err)
	}
	if err := l.sink.PublishCloud(res.Cloud); err != nil {
		fmt.Println("Loop: failed to publish cloud:", err)
	}
	if l.OnCycle != nil {
		l.OnCycle(res)
	}
	return res
}

// Hold publishes a stop command and an empty cloud without touching the state.
func (l *Loop) Hold() error {
	err := l.sink.PublishCommand(avoid.Command{})
	if err != nil {
		return err
	}
	return l.sink.PublishCloud(scan.Cloud{Frame: scan.DefaultFrame})
}

// Run processes sweeps until ctx is done or the channel is closed.  If a sweep arrives
// while a cycle is in progress it waits in a single slot; a newer sweep replaces it.
func (l *Loop) Run(ctx context.Context, sweeps <-chan scan.Sweep) error {
	mailbox := make(chan scan.Sweep, 1)
	go func() {
		defer close(mailbox)
		for {
			select {
			case <-ctx.Done():
				return
			case sw, ok := <-sweeps:
				if !ok {
					return
				}
				select {
				case mailbox <- sw:
					continue
				default:
				}
				select {
				case <-mailbox:
					atomic.AddInt64(&l.dropped, 1)
				default:
				}
				// We're the only sender so there is room now.
				mailbox <- sw
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sw, ok := <-mailbox:
			if !ok {
				return ctx.Err()
			}
			l.Step(sw)
		}
	}
}
