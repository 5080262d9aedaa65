// Package sink is where the controller's outputs go: the velocity command and the point
// cloud it was computed from.
package sink

import (
	"errors"
	"fmt"
	"io"

	"github.com/tigerbot-team/tigerbot/scan-avoider/pkg/avoid"
	"github.com/tigerbot-team/tigerbot/scan-avoider/pkg/scan"
)

// Names of the in-process topics.
const (
	CommandTopic = "/multi/cmd_nav"
	CloudTopic   = scan.DefaultFrame
)

// Sink is given exactly one command and one cloud per cycle.  The cloud is published even
// when it is empty.
type Sink interface {
	PublishCommand(cmd avoid.Command) error
	PublishCloud(cloud scan.Cloud) error
}

// Topics publishes to a pair of in-process topics that other goroutines can subscribe to.
type Topics struct {
	Commands *Topic[avoid.Command]
	Clouds   *Topic[scan.Cloud]
}

func NewTopics() *Topics {
	return &Topics{
		Commands: NewTopic[avoid.Command](CommandTopic),
		Clouds:   NewTopic[scan.Cloud](CloudTopic),
	}
}

func (t *Topics) PublishCommand(cmd avoid.Command) error {
	t.Commands.Publish(cmd)
	return nil
}

func (t *Topics) PublishCloud(cloud scan.Cloud) error {
	t.Clouds.Publish(cloud)
	return nil
}

// Printer writes one line per command, and a point count per cloud if Clouds is set.
type Printer struct {
	Out    io.Writer
	Clouds bool
}

func (p *Printer) PublishCommand(cmd avoid.Command) error {
	_, err := fmt.Fprintf(p.Out, "%s: %s\n", CommandTopic, cmd)
	return err
}

func (p *Printer) PublishCloud(cloud scan.Cloud) error {
	if !p.Clouds {
		return nil
	}
	_, err := fmt.Fprintf(p.Out, "%s: %d points\n", cloud.Frame, len(cloud.Points))
	return err
}

// Multi publishes to every sink in turn.  A failing sink doesn't stop the others.
type Multi []Sink

func (m Multi) PublishCommand(cmd avoid.Command) error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.PublishCommand(cmd))
	}
	return errors.Join(errs...)
}

func (m Multi) PublishCloud(cloud scan.Cloud) error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.PublishCloud(cloud))
	}
	return errors.Join(errs...)
}

var (
	_ Sink = (*Topics)(nil)
	_ Sink = (*Printer)(nil)
	_ Sink = Multi(nil)
)
