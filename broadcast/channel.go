// Package broadcast delivers public announcements to observers, separately
// from the direct reply a sender gets.
package broadcast

import (
	"context"

	"go.uber.org/zap"

	"github.com/shse/warden/actor"
)

type Visibility int

const (
	All Visibility = iota
	Operators
	ConsoleOnly
)

func (v Visibility) String() string {
	switch v {
	case All:
		return "all"
	case Operators:
		return "operators"
	case ConsoleOnly:
		return "console"
	default:
		return "unknown"
	}
}

type Audience interface {
	Observers(Visibility) []actor.Sender
}

type Announcer interface {
	Announce(visibility Visibility, message string)
}

type announcement struct {
	visibility Visibility
	message    string
}

// Channel queues announcements and delivers them from Run, so Announce
// returns without waiting for observers.
type Channel struct {
	logger  *zap.Logger
	queue   chan announcement
	stopped chan struct{}
}

func NewChannel(logger *zap.Logger, size int) *Channel {
	return &Channel{
		logger,
		make(chan announcement, size),
		make(chan struct{}),
	}
}

// Announce blocks only while the queue is full. Announcements made after Run
// returned are dropped.
func (c *Channel) Announce(visibility Visibility, message string) {
	select {
	case <-c.stopped:
		c.drop(message)
		return
	default:
	}

	select {
	case c.queue <- announcement{visibility, message}:
	case <-c.stopped:
		c.drop(message)
	}
}

func (c *Channel) drop(message string) {
	c.logger.Warn("Dropped announcement after shutdown", zap.String("message", message))
}

// Run delivers until ctx is cancelled, then flushes what is already queued.
func (c *Channel) Run(ctx context.Context, audience Audience) error {
	defer close(c.stopped)

	for {
		select {
		case item := <-c.queue:
			c.deliver(audience, item)

		case <-ctx.Done():
			for {
				select {
				case item := <-c.queue:
					c.deliver(audience, item)
				default:
					return nil
				}
			}
		}
	}
}

func (c *Channel) deliver(audience Audience, item announcement) {
	observers := audience.Observers(item.visibility)

	for _, observer := range observers {
		observer.SendMessage(item.message)
	}

	c.logger.Debug("Announced",
		zap.Stringer("visibility", item.visibility),
		zap.String("message", item.message),
		zap.Int("observers", len(observers)))
}
