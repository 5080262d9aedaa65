package avoid

import (
	"errors"
	"fmt"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/tigerbot-team/tigerbot/scan-avoider/pkg/scan"
	"github.com/tigerbot-team/tigerbot/scan-avoider/pkg/sectors"
)

var ErrUnknownPreset = errors.New("unknown preset")

const DefaultPreset = "challenge1"

// Presets are the tunings we've run with.  With nothing in the windows the pressure-policy
// presets cruise at exactly BaseSpeed; "smoothed" still slows for anything in band.
var Presets = map[string]Profile{
	// Long range, aggressive turns.
	"challenge1": {
		Name:           "challenge1",
		Band:           scan.Band{Min: 0.1, Max: 5.0},
		Windows:        sectors.Default(),
		RightThreshold: 15,
		LeftThreshold:  15,
		RightTurn:      TurnGains{Pressure: 0.05, Imbalance: 0.13},
		LeftTurn:       TurnGains{Pressure: 0.05, Imbalance: 0.13},
		BaseSpeed:      0.3,
		Speed:          SpeedPressure,
		DecelGain:      0.05,
		SteerGain:      0.2,
		Smoothing:      0.9,
		Floor:          FloorNone,
	},
	// Shorter range, gentle turns, quicker to turn left than right.
	"challenge2": {
		Name:           "challenge2",
		Band:           scan.Band{Min: 0.15, Max: 3.0},
		Windows:        sectors.Default(),
		RightThreshold: 10,
		LeftThreshold:  15,
		RightTurn:      TurnGains{Pressure: 0.01, Imbalance: 0.015},
		LeftTurn:       TurnGains{Pressure: 0.01, Imbalance: 0.015},
		BaseSpeed:      0.3,
		Speed:          SpeedPressure,
		DecelGain:      0.05,
		SteerGain:      0.01,
		Smoothing:      0.9,
		Floor:          FloorNone,
	},
	// Slows as the nearest return closes in; any turn is at least MinAngular.
	"smoothed": {
		Name:             "smoothed",
		Band:             scan.Band{Min: 0.1, Max: 3.0},
		Windows:          sectors.Default(),
		RightThreshold:   15,
		LeftThreshold:    15,
		RightTurn:        TurnGains{Pressure: 0.01, Imbalance: 0.005},
		LeftTurn:         TurnGains{Pressure: 0.005, Imbalance: 0.01},
		BaseSpeed:        0.3,
		Speed:            SpeedNearest,
		NearestGain:      0.1,
		NearestReference: 3.0,
		SteerGain:        0.01,
		Smoothing:        0.9,
		MinAngular:       0.1,
		Floor:            FloorMagnitude,
	},
}

func Preset(name string) (Profile, error) {
	p, ok := Presets[name]
	if !ok {
		return Profile{}, fmt.Errorf("%w %q (have %v)", ErrUnknownPreset, name, PresetNames())
	}
	return p, nil
}

func PresetNames() []string {
	names := maps.Keys(Presets)
	slices.Sort(names)
	return names
}

// NextPreset returns the preset after name in PresetNames order, wrapping around.
func NextPreset(name string) string {
	names := PresetNames()
	idx := slices.Index(names, name)
	return names[(idx+1)%len(names)]
}
