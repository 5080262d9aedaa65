package sink

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerbot-team/tigerbot/scan-avoider/pkg/avoid"
	"github.com/tigerbot-team/tigerbot/scan-avoider/pkg/scan"
)

func TestTopicLatestWins(t *testing.T) {
	topic := NewTopic[int]("test")
	c, unsub := topic.Subscribe(1)
	defer unsub()

	for i := 1; i <= 5; i++ {
		topic.Publish(i)
	}
	assert.Equal(t, 5, <-c)
	select {
	case v := <-c:
		t.Fatalf("unexpected queued value %d", v)
	default:
	}

	latest, ok := topic.Latest()
	assert.True(t, ok)
	assert.Equal(t, 5, latest)
}

func TestTopicBufferKeepsNewest(t *testing.T) {
	topic := NewTopic[int]("test")
	c, unsub := topic.Subscribe(3)
	defer unsub()

	for i := 1; i <= 10; i++ {
		topic.Publish(i)
	}
	assert.Equal(t, []int{8, 9, 10}, []int{<-c, <-c, <-c})
}

func TestTopicUnsubscribeCloses(t *testing.T) {
	topic := NewTopic[string]("test")
	_, ok := topic.Latest()
	assert.False(t, ok)

	c, unsub := topic.Subscribe(0)
	unsub()
	unsub()
	_, open := <-c
	assert.False(t, open)

	// Publishing with no subscribers is fine.
	topic.Publish("hello")
}

func TestTopicsSink(t *testing.T) {
	topics := NewTopics()
	assert.Equal(t, "/multi/cmd_nav", topics.Commands.Name)
	assert.Equal(t, "laser_link", topics.Clouds.Name)

	cmds, unsub := topics.Commands.Subscribe(1)
	defer unsub()
	clouds, unsub2 := topics.Clouds.Subscribe(1)
	defer unsub2()

	cmd := avoid.Command{LinearX: 0.3, AngularZ: -0.1}
	require.NoError(t, topics.PublishCommand(cmd))
	require.NoError(t, topics.PublishCloud(scan.Cloud{Frame: "laser_link"}))

	assert.Equal(t, cmd, <-cmds)
	cloud := <-clouds
	assert.Equal(t, "laser_link", cloud.Frame)
	assert.Empty(t, cloud.Points)
}

func TestPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := &Printer{Out: &buf}
	require.NoError(t, p.PublishCommand(avoid.Command{LinearX: 0.3}))
	require.NoError(t, p.PublishCloud(scan.Cloud{Frame: "laser_link"}))
	assert.Equal(t, "/multi/cmd_nav: lin 0.300 ang 0.000\n", buf.String())

	buf.Reset()
	p.Clouds = true
	require.NoError(t, p.PublishCloud(scan.Cloud{Frame: "laser_link", Points: make([]scan.Point, 3)}))
	assert.Equal(t, "laser_link: 3 points\n", buf.String())
}

var errBroken = errors.New("broken")

type brokenSink struct{}

func (brokenSink) PublishCommand(avoid.Command) error { return errBroken }
func (brokenSink) PublishCloud(scan.Cloud) error      { return errBroken }

func TestMultiPublishesToAll(t *testing.T) {
	topics := NewTopics()
	m := Multi{brokenSink{}, topics}

	err := m.PublishCommand(avoid.Command{AngularZ: 1})
	assert.True(t, errors.Is(err, errBroken))
	latest, ok := topics.Commands.Latest()
	assert.True(t, ok)
	assert.Equal(t, 1.0, latest.AngularZ)

	assert.True(t, errors.Is(m.PublishCloud(scan.Cloud{}), errBroken))
	assert.NoError(t, Multi{topics}.PublishCloud(scan.Cloud{}))
}

func TestFollow(t *testing.T) {
	topic := NewTopic[int]("test")
	ctx, cancel := context.WithCancel(context.Background())
	got := make(chan int, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		Follow(ctx, topic, func(v int) {
			select {
			case got <- v:
			default:
			}
		})
	}()

	require.Eventually(t, func() bool {
		topic.Publish(7)
		select {
		case v := <-got:
			return v == 7
		default:
			return false
		}
	}, time.Second, time.Millisecond)

	cancel()
	<-done
}
