package tunable

import (
	"fmt"
	"math"
	"sync/atomic"

	"golang.org/x/exp/constraints"
)

// Tunable is an integer knob adjusted from the joystick.  Fractional parameters are held
// in units of 1/Scale.
type Tunable struct {
	Name  string
	Value int64
	Scale int64
	Min   int64
	Max   int64
}

func (t *Tunable) Add(delta int) {
	for {
		old := atomic.LoadInt64(&t.Value)
		newV := Clamp(old+int64(delta), t.Min, t.Max)
		if atomic.CompareAndSwapInt64(&t.Value, old, newV) {
			fmt.Println("Tunable", t.Name, "=", t.String())
			return
		}
	}
}

func (t *Tunable) Get() int {
	return int(atomic.LoadInt64(&t.Value))
}

// Float returns the value in natural units.
func (t *Tunable) Float() float64 {
	return float64(atomic.LoadInt64(&t.Value)) / float64(t.Scale)
}

// SetFloat sets the value from natural units, rounding to the nearest step.
func (t *Tunable) SetFloat(v float64) {
	atomic.StoreInt64(&t.Value, Clamp(int64(math.Round(v*float64(t.Scale))), t.Min, t.Max))
}

func (t *Tunable) String() string {
	if t.Scale == 1 {
		return fmt.Sprint(t.Get())
	}
	return fmt.Sprint(t.Float())
}

type Tunables struct {
	All      []*Tunable
	selected int
}

// Create adds an integer tunable.
func (t *Tunables) Create(name string, value, min, max int) *Tunable {
	return t.CreateScaled(name, 1, float64(value), float64(min), float64(max))
}

// CreateScaled adds a tunable stepping in units of 1/scale.
func (t *Tunables) CreateScaled(name string, scale int, value, min, max float64) *Tunable {
	s := float64(scale)
	newTunable := &Tunable{
		Name:  name,
		Scale: int64(scale),
		Min:   int64(math.Round(min * s)),
		Max:   int64(math.Round(max * s)),
	}
	newTunable.SetFloat(value)
	t.All = append(t.All, newTunable)
	return newTunable
}

func (t *Tunables) SelectNext() {
	t.selected++
	if t.selected >= len(t.All) {
		t.selected = 0
	}
	fmt.Println("Tunable", t.Current().Name, "selected, value:", t.Current())
}

func (t *Tunables) SelectPrev() {
	t.selected--
	if t.selected < 0 {
		t.selected = len(t.All) - 1
	}
	fmt.Println("Tunable", t.Current().Name, "selected, value:", t.Current())
}

func (t *Tunables) Current() *Tunable {
	return t.All[t.selected]
}

func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
