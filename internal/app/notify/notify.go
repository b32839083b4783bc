/*
Package notify decides whether an incoming chat message raises a desktop
notification and delivers it.

A message notifies only when notifications are permitted, the message was not
sent by the current identity, the session is past its initial-load window and
no history replay is in progress.
*/
package notify

import (
	"sync"
	"time"

	"github.com/gen2brain/beeep"

	"chatterbox/internal/pkg/logx"
)

// DefaultSuppressWindow is the time after a session start during which no
// notification is raised.
const DefaultSuppressWindow = 1500 * time.Millisecond

// Sink delivers one notification.
type Sink interface {
	Notify(title, body string) error
}

// DesktopSink shows notifications through the operating system's notification service.
type DesktopSink struct {
	// Icon is an optional icon path.
	Icon string
}

// NewDesktopSink creates a DesktopSink registered under appName.
func NewDesktopSink(appName string) *DesktopSink {
	if appName != "" {
		beeep.AppName = appName
	}
	return &DesktopSink{}
}

func (d *DesktopSink) Notify(title, body string) error {
	return beeep.Notify(title, body, d.Icon)
}

// Gate filters messages before they reach a Sink.
type Gate struct {
	mu sync.Mutex

	// sink is nil when notifications are not permitted.
	sink Sink

	window    time.Duration
	loadedAt  time.Time
	replaying bool
	now       func() time.Time
}

// NewGate creates a Gate delivering to sink. A nil sink means permission was
// not granted: Message never notifies.
func NewGate(sink Sink, window time.Duration) *Gate {
	return &Gate{
		sink:   sink,
		window: window,
		now:    time.Now,
	}
}

// WithClock replaces the time source, for tests.
func (g *Gate) WithClock(now func() time.Time) *Gate {
	g.now = now
	return g
}

// MarkLoaded starts the initial-load window at the current time.
func (g *Gate) MarkLoaded() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.loadedAt = g.now()
}

// Suppressed reports whether the initial-load window is still open.
func (g *Gate) Suppressed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.suppressed()
}

func (g *Gate) suppressed() bool {
	if g.loadedAt.IsZero() {
		return false
	}
	return g.now().Sub(g.loadedAt) < g.window
}

// SetReplaying marks the start or the end of a history replay.
func (g *Gate) SetReplaying(replaying bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.replaying = replaying
}

// Replaying reports whether a history replay is in progress.
func (g *Gate) Replaying() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.replaying
}

// Enabled reports whether notifications are permitted.
func (g *Gate) Enabled() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.sink != nil
}

// Message notifies about a chat message from sender and reports whether a
// notification was delivered.
func (g *Gate) Message(sender, text string, fromSelf bool) bool {
	g.mu.Lock()
	sink := g.sink
	skip := sink == nil || fromSelf || g.replaying || g.suppressed()
	g.mu.Unlock()

	if skip {
		return false
	}

	if err := sink.Notify(sender, text); err != nil {
		// a refused notification is treated as revoked permission
		logx.Debug("Desktop notification refused, disabling notifications", "error", err.Error())

		g.mu.Lock()
		g.sink = nil
		g.mu.Unlock()
		return false
	}

	return true
}
