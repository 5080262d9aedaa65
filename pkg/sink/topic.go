package sink

import (
	"context"
	"sync"
)

// Topic fans values out to its subscribers.  Publish never blocks: a subscriber that has
// fallen behind loses its oldest queued value so it always sees the latest one.
type Topic[T any] struct {
	Name string

	lock sync.Mutex
	subs map[chan T]struct{}
	last T
	have bool
}

func NewTopic[T any](name string) *Topic[T] {
	return &Topic[T]{
		Name: name,
		subs: map[chan T]struct{}{},
	}
}

// Subscribe returns a channel of published values and a function that unsubscribes and
// closes the channel.  buffer is raised to 1 if smaller.
func (t *Topic[T]) Subscribe(buffer int) (<-chan T, func()) {
	if buffer < 1 {
		buffer = 1
	}
	c := make(chan T, buffer)
	t.lock.Lock()
	t.subs[c] = struct{}{}
	t.lock.Unlock()

	var once sync.Once
	return c, func() {
		once.Do(func() {
			t.lock.Lock()
			delete(t.subs, c)
			t.lock.Unlock()
			close(c)
		})
	}
}

func (t *Topic[T]) Publish(v T) {
	t.lock.Lock()
	defer t.lock.Unlock()
	t.last = v
	t.have = true
	for c := range t.subs {
		for {
			select {
			case c <- v:
			default:
				// Full; drop the oldest and try again.
				select {
				case <-c:
				default:
				}
				continue
			}
			break
		}
	}
}

// Latest returns the most recently published value.
func (t *Topic[T]) Latest() (T, bool) {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.last, t.have
}

// Follow calls apply with every value published on the topic until ctx is done.
func Follow[T any](ctx context.Context, t *Topic[T], apply func(T)) {
	c, unsub := t.Subscribe(1)
	defer unsub()
	for {
		select {
		case <-ctx.Done():
			return
		case v := <-c:
			apply(v)
		}
	}
}
