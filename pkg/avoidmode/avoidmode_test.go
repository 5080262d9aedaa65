package avoidmode

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerbot-team/tigerbot/scan-avoider/pkg/avoid"
	"github.com/tigerbot-team/tigerbot/scan-avoider/pkg/hardware"
	"github.com/tigerbot-team/tigerbot/scan-avoider/pkg/joystick"
	"github.com/tigerbot-team/tigerbot/scan-avoider/pkg/scan"
	"github.com/tigerbot-team/tigerbot/scan-avoider/pkg/sink"
)

// crowdedRight has 20 returns in the right window and 2 in the left.
func crowdedRight() scan.Sweep {
	inc := math.Pi / 180
	sw := scan.Sweep{
		AngleMin:       -math.Pi / 2,
		AngleMax:       -math.Pi/2 + 359*inc,
		AngleIncrement: inc,
		Ranges:         make([]float64, 360),
	}
	for i := range sw.Ranges {
		sw.Ranges[i] = 10
	}
	for i := 69; i <= 88; i++ {
		sw.Ranges[i] = 0.5
	}
	sw.Ranges[100] = 0.5
	sw.Ranges[101] = 0.5
	return sw
}

func newTestMode(t *testing.T, config string) (*AvoidMode, *hardware.Hardware, *sink.Topics) {
	t.Helper()
	dir := t.TempDir()

	replay, err := scan.NewReplay(scan.Recording{Period: "5ms", Sweeps: []scan.Sweep{crowdedRight()}})
	require.NoError(t, err)
	replay.Loop = true

	hw := hardware.NewDummy()
	topics := sink.NewTopics()
	m := New(hw, replay, topics)
	m.ConfigFile = filepath.Join(dir, "avoid.yaml")
	m.InUseFile = filepath.Join(dir, "avoid-in-use.yaml")
	if config != "" {
		require.NoError(t, os.WriteFile(m.ConfigFile, []byte(config), 0644))
	}
	return m, hw, topics
}

func press(button uint8) *joystick.Event {
	return &joystick.Event{Type: joystick.EventTypeButton, Number: button, Value: 1}
}

func axis(number uint8, value int16) *joystick.Event {
	return &joystick.Event{Type: joystick.EventTypeAxis, Number: number, Value: value}
}

func TestMissingConfigUsesDefaultPreset(t *testing.T) {
	m, _, _ := newTestMode(t, "")
	m.loadConfig()
	assert.NoError(t, m.configErr)
	assert.Equal(t, avoid.DefaultPreset, m.loop.Profile().Name)

	written, err := avoid.LoadProfile(m.InUseFile)
	require.NoError(t, err)
	assert.Equal(t, m.loop.Profile(), written)
}

func TestConfigOverridesTunables(t *testing.T) {
	m, _, _ := newTestMode(t, "preset: smoothed\nbase_speed: 0.2\n")
	m.loadConfig()
	require.NoError(t, m.configErr)
	assert.Equal(t, "smoothed", m.loop.Profile().Name)
	assert.Equal(t, 0.2, m.baseSpeed.Float())
	assert.Equal(t, 0.1, m.minAngular.Float())
}

func TestBadConfigHoldsUntilPresetPicked(t *testing.T) {
	m, hw, topics := newTestMode(t, "right_threshold: -1\n")
	m.loadConfig()
	require.Error(t, m.configErr)

	cmd, ok := topics.Commands.Latest()
	assert.True(t, ok)
	assert.Equal(t, avoid.Command{}, cmd)

	m.handleEvent(press(joystick.ButtonR1))
	assert.False(t, m.running)
	l, r := hw.Drive().Current()
	assert.Equal(t, [2]int8{0, 0}, [2]int8{l, r})

	m.handleEvent(press(joystick.ButtonCircle))
	assert.NoError(t, m.configErr)
	assert.Equal(t, "challenge2", m.loop.Profile().Name)
}

func TestRunTurnsAwayAndStops(t *testing.T) {
	m, hw, topics := newTestMode(t, "preset: challenge1\n")
	m.loadConfig()

	m.handleEvent(press(joystick.ButtonR1))
	require.True(t, m.running)
	require.Eventually(t, func() bool {
		return m.loop.Stats().Cycles >= 2
	}, 2*time.Second, time.Millisecond)

	cmd, ok := topics.Commands.Latest()
	require.True(t, ok)
	assert.Equal(t, 0.0, cmd.LinearX)
	assert.InDelta(t, 3.44, cmd.AngularZ, 1e-9)
	l, r := hw.Drive().Current()
	assert.Less(t, l, int8(0))
	assert.Greater(t, r, int8(0))

	m.handleEvent(press(joystick.ButtonSquare))
	assert.False(t, m.running)
	l, r = hw.Drive().Current()
	assert.Equal(t, [2]int8{0, 0}, [2]int8{l, r})
}

func TestPauseStopsTheWheels(t *testing.T) {
	m, hw, _ := newTestMode(t, "")
	m.loadConfig()
	m.handleEvent(press(joystick.ButtonTriangle))
	require.NoError(t, m.loop.Hold())

	gate := &pauseGate{inner: hw.Drive(), paused: &m.paused}
	require.NoError(t, gate.PublishCommand(avoid.Command{LinearX: 0.3}))
	l, r := hw.Drive().Current()
	assert.Equal(t, [2]int8{0, 0}, [2]int8{l, r})

	m.handleEvent(press(joystick.ButtonTriangle))
	require.NoError(t, gate.PublishCommand(avoid.Command{LinearX: 0.3}))
	l, r = hw.Drive().Current()
	assert.Equal(t, [2]int8{64, 64}, [2]int8{l, r})
}

func TestTunablesUpdateProfile(t *testing.T) {
	m, _, _ := newTestMode(t, "")
	m.loadConfig()

	// Base speed is selected first; D-pad up adds a hundredth.
	m.handleEvent(axis(joystick.AxisDPadY, -32767))
	m.handleEvent(axis(joystick.AxisDPadY, 0))
	assert.InDelta(t, 0.31, m.loop.Profile().BaseSpeed, 1e-12)

	// Over to the right threshold and down one.
	m.handleEvent(axis(joystick.AxisDPadX, 32767))
	m.handleEvent(axis(joystick.AxisDPadY, 32767))
	assert.Equal(t, 14, m.loop.Profile().RightThreshold)
	assert.Equal(t, avoid.DefaultPreset, m.loop.Profile().Name)
}

func TestTunableOnlyWritesItself(t *testing.T) {
	m, _, _ := newTestMode(t, "right_threshold: 150\nsteer_gain: 0.0125\n")
	m.loadConfig()
	require.NoError(t, m.configErr)

	// Nudging base speed must not round the steer gain or clamp the threshold.
	m.handleEvent(axis(joystick.AxisDPadY, -32767))
	p := m.loop.Profile()
	assert.InDelta(t, 0.31, p.BaseSpeed, 1e-12)
	assert.Equal(t, 150, p.RightThreshold)
	assert.Equal(t, 0.0125, p.SteerGain)

	// Adjusting the steer gain itself snaps it to the tunable's step.
	m.handleEvent(axis(joystick.AxisDPadX, 32767))
	m.handleEvent(axis(joystick.AxisDPadX, 32767))
	m.handleEvent(axis(joystick.AxisDPadX, 32767))
	m.handleEvent(axis(joystick.AxisDPadY, 32767))
	assert.InDelta(t, 0.012, m.loop.Profile().SteerGain, 1e-12)
	assert.Equal(t, 150, m.loop.Profile().RightThreshold)
}
