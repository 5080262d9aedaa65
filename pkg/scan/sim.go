package scan

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r2"
)

// Post is a round obstacle in the simulated room.
type Post struct {
	Centre r2.Vec
	Radius float64
}

// Room is an axis-aligned rectangular arena centred on the origin, with optional posts.
type Room struct {
	HalfWidth  float64
	HalfLength float64
	Posts      []Post
}

// Pose is the simulated robot's position in the room.  Heading 0 faces +X, anticlockwise
// positive.
type Pose struct {
	Position r2.Vec
	Heading  float64
}

// Simulated ray-casts sweeps from a robot driving around a Room.  Feed it the commands the
// controller publishes via Drive to close the loop.
type Simulated struct {
	Room      Room
	Samples   int
	MaxRange  float64
	Noise     float64
	Period    time.Duration
	FrameName string

	lock    sync.Mutex
	pose    Pose
	linear  float64
	angular float64
	rand    *rand.Rand
}

func NewSimulated(room Room, start Pose) *Simulated {
	return &Simulated{
		Room:      room,
		Samples:   360,
		MaxRange:  8,
		Noise:     0.005,
		Period:    100 * time.Millisecond,
		FrameName: DefaultFrame,
		pose:      start,
		rand:      rand.New(rand.NewSource(1)),
	}
}

// DefaultRoom is a 4m x 6m room with a few posts to steer around.
func DefaultRoom() Room {
	return Room{
		HalfWidth:  2,
		HalfLength: 3,
		Posts: []Post{
			{Centre: r2.Vec{X: 1, Y: 0.4}, Radius: 0.15},
			{Centre: r2.Vec{X: -1.2, Y: -0.8}, Radius: 0.2},
			{Centre: r2.Vec{X: 0.2, Y: -1.5}, Radius: 0.1},
		},
	}
}

// Drive sets the velocities applied from the next simulation step.
func (s *Simulated) Drive(linear, angular float64) {
	s.lock.Lock()
	s.linear, s.angular = linear, angular
	s.lock.Unlock()
}

func (s *Simulated) Pose() Pose {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.pose
}

func (s *Simulated) Sweeps(ctx context.Context) (<-chan Sweep, error) {
	out := make(chan Sweep)
	go func() {
		defer close(out)
		ticker := time.NewTicker(s.Period)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			s.step(s.Period.Seconds())
			select {
			case out <- s.Sweep():
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (s *Simulated) step(dt float64) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.pose.Heading += s.angular * dt
	dir := r2.Vec{X: math.Cos(s.pose.Heading), Y: math.Sin(s.pose.Heading)}
	next := r2.Add(s.pose.Position, r2.Scale(s.linear*dt, dir))
	if s.free(next) {
		s.pose.Position = next
	}
}

// free reports whether a point is inside the room and clear of the posts.
func (s *Simulated) free(p r2.Vec) bool {
	if math.Abs(p.X) >= s.Room.HalfWidth || math.Abs(p.Y) >= s.Room.HalfLength {
		return false
	}
	for _, post := range s.Room.Posts {
		if r2.Norm(r2.Sub(p, post.Centre)) <= post.Radius {
			return false
		}
	}
	return true
}

// Sweep casts one full rotation from the current pose, angles in [-π, π).
func (s *Simulated) Sweep() Sweep {
	s.lock.Lock()
	pose := s.pose
	s.lock.Unlock()

	inc := 2 * math.Pi / float64(s.Samples)
	sw := Sweep{
		Frame:          s.FrameName,
		Time:           time.Now(),
		AngleMin:       -math.Pi,
		AngleMax:       -math.Pi + inc*float64(s.Samples-1),
		AngleIncrement: inc,
		Ranges:         make([]float64, s.Samples),
	}
	for i := range sw.Ranges {
		dir := pose.Heading + sw.AngleMin + float64(i)*inc
		d := s.cast(pose.Position, r2.Vec{X: math.Cos(dir), Y: math.Sin(dir)})
		if d > s.MaxRange {
			sw.Ranges[i] = math.Inf(1)
			continue
		}
		s.lock.Lock()
		d += s.rand.NormFloat64() * s.Noise
		s.lock.Unlock()
		sw.Ranges[i] = d
	}
	return sw
}

// cast returns the distance along a unit ray to the first wall or post.
func (s *Simulated) cast(origin, dir r2.Vec) float64 {
	hits := []float64{math.Inf(1)}
	if dir.X > 0 {
		hits = append(hits, (s.Room.HalfWidth-origin.X)/dir.X)
	} else if dir.X < 0 {
		hits = append(hits, (-s.Room.HalfWidth-origin.X)/dir.X)
	}
	if dir.Y > 0 {
		hits = append(hits, (s.Room.HalfLength-origin.Y)/dir.Y)
	} else if dir.Y < 0 {
		hits = append(hits, (-s.Room.HalfLength-origin.Y)/dir.Y)
	}
	for _, post := range s.Room.Posts {
		// Solve |origin + t*dir - centre| = radius for the nearest positive t.
		oc := r2.Sub(origin, post.Centre)
		b := r2.Dot(oc, dir)
		c := r2.Dot(oc, oc) - post.Radius*post.Radius
		disc := b*b - c
		if disc < 0 {
			continue
		}
		t := -b - math.Sqrt(disc)
		if t > 0 {
			hits = append(hits, t)
		}
	}
	return floats.Min(hits)
}
