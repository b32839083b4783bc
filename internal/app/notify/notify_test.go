package notify

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	titles []string
	bodies []string
	err    error
}

func (s *recordingSink) Notify(title, body string) error {
	if s.err != nil {
		return s.err
	}
	s.titles = append(s.titles, title)
	s.bodies = append(s.bodies, body)
	return nil
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestGateSuppressionWindow(t *testing.T) {
	sink := &recordingSink{}
	clock := &fakeClock{t: time.Unix(1000, 0)}
	g := NewGate(sink, DefaultSuppressWindow).WithClock(clock.now)

	g.MarkLoaded()

	clock.advance(500 * time.Millisecond)
	assert.True(t, g.Suppressed())
	assert.False(t, g.Message("Alice", "early", false))

	clock.advance(1000 * time.Millisecond)
	assert.False(t, g.Suppressed())
	assert.True(t, g.Message("Alice", "late", false))

	require.Len(t, sink.titles, 1)
	assert.Equal(t, "Alice", sink.titles[0])
	assert.Equal(t, "late", sink.bodies[0])
}

func TestGateSkipsSelf(t *testing.T) {
	sink := &recordingSink{}
	g := NewGate(sink, 0)

	assert.False(t, g.Message("Me", "mine", true))
	assert.True(t, g.Message("Other", "theirs", false))
	assert.Equal(t, []string{"Other"}, sink.titles)
}

func TestGateSkipsReplay(t *testing.T) {
	sink := &recordingSink{}
	g := NewGate(sink, 0)

	g.SetReplaying(true)
	assert.True(t, g.Replaying())
	assert.False(t, g.Message("Alice", "old", false))

	g.SetReplaying(false)
	assert.True(t, g.Message("Alice", "new", false))
	assert.Equal(t, []string{"new"}, sink.bodies)
}

func TestGateWithoutPermission(t *testing.T) {
	g := NewGate(nil, 0)

	assert.False(t, g.Enabled())
	assert.False(t, g.Message("Alice", "hi", false))
}

func TestGateDisablesOnRefusal(t *testing.T) {
	sink := &recordingSink{err: errors.New("denied")}
	g := NewGate(sink, 0)

	assert.False(t, g.Message("Alice", "hi", false))
	assert.False(t, g.Enabled())

	sink.err = nil
	assert.False(t, g.Message("Alice", "again", false))
	assert.Empty(t, sink.titles)
}
