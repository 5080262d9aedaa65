package avoidmode

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tigerbot-team/tigerbot/scan-avoider/pkg/avoid"
	"github.com/tigerbot-team/tigerbot/scan-avoider/pkg/avoidloop"
	"github.com/tigerbot-team/tigerbot/scan-avoider/pkg/hardware"
	"github.com/tigerbot-team/tigerbot/scan-avoider/pkg/joystick"
	"github.com/tigerbot-team/tigerbot/scan-avoider/pkg/scan"
	"github.com/tigerbot-team/tigerbot/scan-avoider/pkg/screen"
	"github.com/tigerbot-team/tigerbot/scan-avoider/pkg/sink"
	"github.com/tigerbot-team/tigerbot/scan-avoider/pkg/sound"
	. "github.com/tigerbot-team/tigerbot/scan-avoider/pkg/tunable"
)

const noConfig = "BAD CONFIG"

type AvoidMode struct {
	hw     hardware.Interface
	source scan.Source

	// ConfigFile is read on every Start; the profile actually used is written to InUseFile.
	ConfigFile string
	InUseFile  string

	cancel         context.CancelFunc
	stopWG         sync.WaitGroup
	joystickEvents chan *joystick.Event

	loop      *avoidloop.Loop
	configErr error

	running        bool
	cancelSequence context.CancelFunc
	sequenceWG     sync.WaitGroup
	startTime      time.Time

	paused int32

	lastBranch avoid.Branch
	haveBranch bool

	tunables Tunables

	baseSpeed      *Tunable
	rightThreshold *Tunable
	leftThreshold  *Tunable
	steerGain      *Tunable
	minAngular     *Tunable
}

// New creates the mode.  Commands go to the hardware's drive and, if topics is non-nil,
// to the in-process topics as well.
func New(hw hardware.Interface, source scan.Source, topics *sink.Topics) *AvoidMode {
	m := &AvoidMode{
		hw:             hw,
		source:         source,
		ConfigFile:     avoid.DefaultConfigFile,
		InUseFile:      avoid.InUseConfigFile,
		joystickEvents: make(chan *joystick.Event),
	}

	out := sink.Multi{hw.Drive()}
	if topics != nil {
		out = append(out, topics)
	}
	p, err := avoid.Preset(avoid.DefaultPreset)
	if err != nil {
		panic(err)
	}
	m.loop = avoidloop.New(p, &pauseGate{inner: out, paused: &m.paused})
	m.loop.OnCycle = m.onCycle

	m.baseSpeed = m.tunables.CreateScaled("Base speed", 100, p.BaseSpeed, 0, 1)
	m.rightThreshold = m.tunables.Create("Right threshold", p.RightThreshold, 0, 1000)
	m.leftThreshold = m.tunables.Create("Left threshold", p.LeftThreshold, 0, 1000)
	m.steerGain = m.tunables.CreateScaled("Steer gain", 1000, p.SteerGain, 0, 1)
	m.minAngular = m.tunables.CreateScaled("Min angular", 100, p.MinAngular, 0, 2)

	return m
}

func (m *AvoidMode) Name() string {
	return "Avoid mode"
}

func (m *AvoidMode) StartupSound() string {
	return sound.AvoidMode
}

func (m *AvoidMode) Start(ctx context.Context) {
	m.loadConfig()

	m.stopWG.Add(1)
	var loopCtx context.Context
	loopCtx, m.cancel = context.WithCancel(ctx)
	go m.eventLoop(loopCtx)
}

func (m *AvoidMode) Stop() {
	m.cancel()
	m.stopWG.Wait()
	if m.running {
		m.stopSequence()
	}

	for _, t := range m.tunables.All {
		fmt.Println("Tunable:", t.Name, "=", t)
	}
}

// loadConfig reads the profile.  A bad file leaves the robot stopped until a preset is
// picked by hand.
func (m *AvoidMode) loadConfig() {
	p, err := avoid.LoadProfileOrDefault(m.ConfigFile)
	if err != nil {
		fmt.Println("Avoid: bad config, holding:", err)
		m.configErr = err
		screen.SetNotice(noConfig, screen.LevelErr)
		m.hw.PlaySound(sound.Error)
		if err := m.loop.Hold(); err != nil {
			fmt.Println("Avoid: failed to hold:", err)
		}
		return
	}
	m.useProfile(p)
	if err := avoid.WriteProfile(m.InUseFile, p); err != nil {
		fmt.Println("Avoid: failed to record profile in use:", err)
	}
}

func (m *AvoidMode) useProfile(p avoid.Profile) {
	m.configErr = nil
	screen.ClearNotice(noConfig)

	m.baseSpeed.SetFloat(p.BaseSpeed)
	m.rightThreshold.SetFloat(float64(p.RightThreshold))
	m.leftThreshold.SetFloat(float64(p.LeftThreshold))
	m.steerGain.SetFloat(p.SteerGain)
	m.minAngular.SetFloat(p.MinAngular)

	m.loop.SetProfile(p)
	fmt.Println("Avoid: using preset", p.Name)
}

// applyTunable copies one adjusted tunable into the running profile.  The others are left
// alone so values finer than a tunable step, or outside its range, survive.
func (m *AvoidMode) applyTunable(t *Tunable) {
	p := m.loop.Profile()
	switch t {
	case m.baseSpeed:
		p.BaseSpeed = t.Float()
	case m.rightThreshold:
		p.RightThreshold = t.Get()
	case m.leftThreshold:
		p.LeftThreshold = t.Get()
	case m.steerGain:
		p.SteerGain = t.Float()
	case m.minAngular:
		p.MinAngular = t.Float()
	default:
		return
	}
	if err := p.Validate(); err != nil {
		fmt.Println("Avoid: ignoring tunable", t.Name+":", err)
		return
	}
	m.loop.SetProfile(p)
}

func (m *AvoidMode) eventLoop(ctx context.Context) {
	defer m.stopWG.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case event := <-m.joystickEvents:
			m.handleEvent(event)
		}
	}
}

func (m *AvoidMode) handleEvent(event *joystick.Event) {
	switch event.Type {
	case joystick.EventTypeButton:
		if event.Value != 1 {
			return
		}
		switch event.Number {
		case joystick.ButtonR1:
			m.startSequence()
		case joystick.ButtonSquare:
			m.stopSequence()
		case joystick.ButtonTriangle:
			m.pauseOrResumeSequence()
		case joystick.ButtonCircle:
			m.nextPreset()
		}
	case joystick.EventTypeAxis:
		switch event.Number {
		case joystick.AxisDPadX:
			if event.Value > 0 {
				m.tunables.SelectNext()
			} else if event.Value < 0 {
				m.tunables.SelectPrev()
			}
		case joystick.AxisDPadY:
			cur := m.tunables.Current()
			if event.Value < 0 {
				cur.Add(1)
			} else if event.Value > 0 {
				cur.Add(-1)
			} else {
				return
			}
			m.applyTunable(cur)
		default:
			return
		}
		t := m.tunables.Current()
		screen.SetTunable(fmt.Sprintf("%s=%s", t.Name, t))
	}
}

func (m *AvoidMode) nextPreset() {
	name := avoid.NextPreset(m.loop.Profile().Name)
	p, err := avoid.Preset(name)
	if err != nil {
		fmt.Println("Avoid:", err)
		return
	}
	m.useProfile(p)
	m.hw.PlaySound(sound.Preset)
}

func (m *AvoidMode) startSequence() {
	if m.running {
		fmt.Println("Already running")
		return
	}
	if m.configErr != nil {
		fmt.Println("Avoid: not starting, config is bad:", m.configErr)
		m.hw.PlaySound(sound.Error)
		return
	}

	fmt.Println("Starting sequence...")
	m.running = true
	m.startTime = time.Now()
	atomic.StoreInt32(&m.paused, 0)
	m.loop.Reset()
	m.haveBranch = false

	seqCtx, cancel := context.WithCancel(context.Background())
	m.cancelSequence = cancel
	m.sequenceWG.Add(1)
	go m.runSequence(seqCtx)
}

func (m *AvoidMode) runSequence(ctx context.Context) {
	defer m.sequenceWG.Done()
	defer fmt.Println("Exiting sequence loop")

	sweeps, err := m.source.Sweeps(ctx)
	if err != nil {
		fmt.Println("Avoid: failed to start sweeps:", err)
		return
	}
	err = m.loop.Run(ctx, sweeps)
	if err != nil && ctx.Err() == nil {
		fmt.Println("Avoid: loop failed:", err)
	}
	if err := m.loop.Hold(); err != nil {
		fmt.Println("Avoid: failed to hold:", err)
	}
}

func (m *AvoidMode) onCycle(res avoidloop.Result) {
	d := res.Decision
	if !m.haveBranch || d.Branch != m.lastBranch {
		fmt.Printf("Avoid: %s (L=%d R=%d) %s\n", d.Branch, d.Count.Left, d.Count.Right, d.Command)
		m.hw.PlaySound(branchSound(d.Branch))
		m.lastBranch = d.Branch
		m.haveBranch = true
	}
	screen.SetStatus(screen.Status{
		Preset:  m.loop.Profile().Name,
		Branch:  d.Branch.String(),
		Left:    d.Count.Left,
		Right:   d.Count.Right,
		Linear:  d.Command.LinearX,
		Angular: d.Command.AngularZ,
		Dropped: m.loop.Stats().Dropped,
		Paused:  atomic.LoadInt32(&m.paused) == 1,
	})
}

func branchSound(b avoid.Branch) string {
	switch b {
	case avoid.BranchTurnLeft:
		return sound.TurnLeft
	case avoid.BranchTurnRight:
		return sound.TurnRight
	default:
		return sound.Cruise
	}
}

func (m *AvoidMode) stopSequence() {
	if !m.running {
		fmt.Println("Not running")
		return
	}
	fmt.Println("Stopping sequence...")

	m.cancelSequence()
	m.cancelSequence = nil
	m.sequenceWG.Wait()
	m.running = false
	atomic.StoreInt32(&m.paused, 0)

	stats := m.loop.Stats()
	fmt.Println("Run time:", time.Since(m.startTime), "cycles:", stats.Cycles, "dropped:", stats.Dropped)
	fmt.Println("Stopped sequence...")
}

func (m *AvoidMode) pauseOrResumeSequence() {
	if atomic.LoadInt32(&m.paused) == 1 {
		fmt.Println("Resuming sequence...")
		atomic.StoreInt32(&m.paused, 0)
	} else {
		fmt.Println("Pausing sequence...")
		atomic.StoreInt32(&m.paused, 1)
	}
}

func (m *AvoidMode) OnJoystickEvent(event *joystick.Event) {
	m.joystickEvents <- event
}

// pauseGate replaces commands with a stop while paused.  Clouds still flow.
type pauseGate struct {
	inner  sink.Sink
	paused *int32
}

func (g *pauseGate) PublishCommand(cmd avoid.Command) error {
	if atomic.LoadInt32(g.paused) == 1 {
		cmd = avoid.Command{}
	}
	return g.inner.PublishCommand(cmd)
}

func (g *pauseGate) PublishCloud(cloud scan.Cloud) error {
	return g.inner.PublishCloud(cloud)
}
