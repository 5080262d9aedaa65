package scan

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var band = Band{Min: 0.1, Max: 5.0}

func TestProjectRotatesOntoRobotFrame(t *testing.T) {
	// Sensor forward (0 rad) maps to robot +Y, sensor left (+π/2) maps to robot -X.
	sw := Sweep{
		AngleMin:       0,
		AngleIncrement: math.Pi / 2,
		Ranges:         []float64{1, 2, 3},
	}
	got := Project(sw, band)
	want := []Point{
		{X: 0, Y: 1},
		{X: -2, Y: 0},
		{X: 0, Y: -3},
	}
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("Project() mismatch (-want +got):\n%s", diff)
	}
}

func TestProjectDropsOutOfBandWithoutSkew(t *testing.T) {
	sw := Sweep{
		AngleMin:       -math.Pi / 2,
		AngleIncrement: math.Pi / 2,
		Ranges:         []float64{0.1, 10, 1, math.NaN(), math.Inf(1), 5.0},
	}
	got := Project(sw, band)
	// Only the third sample (index 2, robot angle π) survives.
	want := []Point{{X: -1, Y: 0}}
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("Project() mismatch (-want +got):\n%s", diff)
	}
}

func TestProjectEmptySweep(t *testing.T) {
	got := Project(Sweep{}, band)
	require.NotNil(t, got)
	assert.Empty(t, got)

	allFar := Sweep{AngleIncrement: 0.1, Ranges: []float64{10, 10, 10}}
	assert.Empty(t, Project(allFar, band))
}

func TestBandIsStrict(t *testing.T) {
	for _, tc := range []struct {
		d    float64
		want bool
	}{
		{0.1, false},
		{0.1000001, true},
		{4.999, true},
		{5.0, false},
		{math.NaN(), false},
		{math.Inf(1), false},
		{math.Inf(-1), false},
	} {
		if got := band.Contains(tc.d); got != tc.want {
			t.Errorf("Contains(%v) = %v, want %v", tc.d, got, tc.want)
		}
	}
}

func TestNearest(t *testing.T) {
	sw := Sweep{Ranges: []float64{0.05, 3, math.NaN(), 0.7, 12}}
	d, ok := Nearest(sw, band)
	require.True(t, ok)
	assert.Equal(t, 0.7, d)

	_, ok = Nearest(Sweep{Ranges: []float64{0.01, 99}}, band)
	assert.False(t, ok)
}

func TestCheck(t *testing.T) {
	good := Sweep{
		AngleMin:       -math.Pi / 2,
		AngleMax:       -math.Pi/2 + 359*math.Pi/180,
		AngleIncrement: math.Pi / 180,
		Ranges:         make([]float64, 360),
	}
	assert.NoError(t, good.Check())

	// Exclusive AngleMax is tolerated.
	exclusive := good
	exclusive.AngleMax = -math.Pi/2 + 360*math.Pi/180
	assert.NoError(t, exclusive.Check())

	short := good
	short.Ranges = make([]float64, 100)
	assert.True(t, errors.Is(short.Check(), ErrInconsistentSweep))

	noIncrement := good
	noIncrement.AngleIncrement = 0
	assert.True(t, errors.Is(noIncrement.Check(), ErrInconsistentSweep))

	assert.NoError(t, Sweep{}.Check())
}

func TestSamples(t *testing.T) {
	sw := Sweep{AngleMin: 1, AngleIncrement: 0.5, Ranges: []float64{4, 5}}
	assert.Equal(t, []Sample{{Angle: 1, Distance: 4}, {Angle: 1.5, Distance: 5}}, sw.Samples())
}

func TestRecordAndReplay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sweeps.yaml")
	sweeps := []Sweep{
		{Frame: "laser_link", AngleMin: -1, AngleMax: 1, AngleIncrement: 1, Ranges: []float64{1, math.Inf(1), 2}},
		{AngleMin: -1, AngleMax: 1, AngleIncrement: 1, Ranges: []float64{3, 3, 3}},
	}
	require.NoError(t, Record(path, 5*time.Millisecond, sweeps))

	replay, err := LoadReplay(path)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ch, err := replay.Sweeps(ctx)
	require.NoError(t, err)

	var got []Sweep
	for sw := range ch {
		assert.False(t, sw.Time.IsZero())
		got = append(got, sw)
	}
	require.Len(t, got, 2)
	assert.Equal(t, "laser_link", got[0].Frame)
	assert.True(t, math.IsInf(got[0].Ranges[1], 1))
	assert.Equal(t, []float64{3, 3, 3}, got[1].Ranges)
	assert.Equal(t, DefaultFrame, got[1].FrameOrDefault())
}

func TestReplayRejectsBadPeriod(t *testing.T) {
	_, err := NewReplay(Recording{Period: "soon"})
	assert.Error(t, err)
	_, err = NewReplay(Recording{Period: "-1s"})
	assert.Error(t, err)
}

func TestSimulatedSeesWalls(t *testing.T) {
	sim := NewSimulated(Room{HalfWidth: 2, HalfLength: 3}, Pose{})
	sim.Noise = 0
	sw := sim.Sweep()
	require.Len(t, sw.Ranges, 360)
	require.NoError(t, sw.Check())

	// Sample 180 faces along the heading (+X), 2m to the wall; sample 270 faces +Y, 3m.
	assert.InDelta(t, 2.0, sw.Ranges[180], 1e-9)
	assert.InDelta(t, 3.0, sw.Ranges[270], 1e-9)
	assert.InDelta(t, 2.0, sw.Ranges[0], 1e-9)
}

func TestSimulatedPostAndDrive(t *testing.T) {
	room := Room{
		HalfWidth:  2,
		HalfLength: 3,
		Posts:      []Post{{Centre: Point{X: 1, Y: 0}, Radius: 0.25}},
	}
	sim := NewSimulated(room, Pose{})
	sim.Noise = 0
	assert.InDelta(t, 0.75, sim.Sweep().Ranges[180], 1e-9)

	sim.Drive(1, 0)
	sim.step(0.5)
	assert.InDelta(t, 0.5, sim.Pose().Position.X, 1e-9)

	// Driving into the post is refused.
	sim.step(0.5)
	assert.InDelta(t, 0.5, sim.Pose().Position.X, 1e-9)
}
