package chat

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatterbox/internal/app/history"
	"chatterbox/internal/app/notify"
	"chatterbox/internal/app/render"
	"chatterbox/internal/app/view"
)

type recordingSink struct {
	bodies []string
}

func (s *recordingSink) Notify(_, body string) error {
	s.bodies = append(s.bodies, body)
	return nil
}

type routerFixture struct {
	router     *Router
	transcript *view.Transcript
	sink       *recordingSink
	archive    *history.Memory
}

func newRouterFixture(self string) *routerFixture {
	f := &routerFixture{
		transcript: view.NewTranscript(0),
		sink:       &recordingSink{},
		archive:    history.NewMemory(),
	}
	gate := notify.NewGate(f.sink, 0)
	f.router = NewRouter(self, render.NewRenderer(nil), f.transcript, gate, f.archive, zerolog.Nop())
	return f
}

func (f *routerFixture) messages() []render.Unit {
	var out []render.Unit
	for _, e := range f.transcript.Snapshot().Entries {
		if e.Kind == view.EntryMessage {
			out = append(out, *e.Message)
		}
	}
	return out
}

func (f *routerFixture) notices() []string {
	var out []string
	for _, e := range f.transcript.Snapshot().Entries {
		if e.Kind == view.EntryNotice {
			out = append(out, e.Notice.Text)
		}
	}
	return out
}

func TestRouterGroupsConsecutiveMessages(t *testing.T) {
	f := newRouterFixture("Me")
	ctx := context.Background()

	for _, in := range []Inbound{
		{Type: TypeMessage, Username: "Alice", Message: "one"},
		{Type: TypeMessage, Username: "Alice", Message: "two"},
		{Type: TypeUserJoin, Username: "Bob"},
		{Type: TypeMessage, Username: "Alice", Message: "three"},
		{Type: TypeMessage, Username: "Me", Message: "four"},
		{Type: TypeMessage, Username: "Alice", Message: "five"},
	} {
		f.router.Dispatch(ctx, in)
	}

	units := f.messages()
	require.Len(t, units, 5)

	labels := make([]bool, 0, len(units))
	for _, u := range units {
		labels = append(labels, u.ShowLabel)
	}
	assert.Equal(t, []bool{true, false, false, true, true}, labels)

	assert.Equal(t, render.ClassSent, units[3].Class)
	assert.Equal(t, render.ClassReceived, units[4].Class)
	assert.Equal(t, "Alice", f.router.LastSender())
}

func TestRouterNotifiesOthersOnly(t *testing.T) {
	f := newRouterFixture("Me")
	ctx := context.Background()

	f.router.Dispatch(ctx, Inbound{Type: TypeMessage, Username: "Me", Message: "mine"})
	f.router.Dispatch(ctx, Inbound{Type: TypeMessage, Username: "Alice", Message: "theirs"})

	assert.Equal(t, []string{"theirs"}, f.sink.bodies)
}

func TestRouterHistoryReplay(t *testing.T) {
	f := newRouterFixture("Me")
	ctx := context.Background()

	f.router.Dispatch(ctx, Inbound{Type: TypeHistory, Message: "Latest messages"})
	f.router.Dispatch(ctx, Inbound{Type: TypeMessage, Username: "Alice", Message: "old"})
	f.router.Dispatch(ctx, Inbound{Type: TypeUserJoin, Username: "Me"})
	f.router.Dispatch(ctx, Inbound{Type: TypeMessage, Username: "Alice", Message: "new"})

	assert.Len(t, f.messages(), 2)
	assert.Equal(t, []string{"new"}, f.sink.bodies)

	records, err := f.archive.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "new", records[0].Body)
	assert.Equal(t, history.KindMessage, records[0].Kind)
	assert.NotEmpty(t, records[0].ID)
}

func TestRouterPresenceAndFiles(t *testing.T) {
	f := newRouterFixture("Me")
	ctx := context.Background()

	f.router.Dispatch(ctx, Inbound{Type: TypeUserList, Users: []string{"A", "B"}})
	f.router.Dispatch(ctx, Inbound{Type: TypeUserList, Users: []string{"B"}})
	f.router.Dispatch(ctx, Inbound{Type: TypeUserJoin, Username: "C"})
	f.router.Dispatch(ctx, Inbound{Type: TypeUserLeave, Username: "A"})
	f.router.Dispatch(ctx, Inbound{Type: TypeFileUpload, Username: "B", FileName: "notes.txt"})
	f.router.Dispatch(ctx, Inbound{Type: TypePong})
	f.router.Dispatch(ctx, Inbound{Type: "mystery"})

	snap := f.transcript.Snapshot()
	require.Len(t, snap.Roster, 1)
	assert.Equal(t, "B", snap.Roster[0].Name)

	assert.Equal(t, []string{
		"C joined the chat.",
		"A left the chat.",
		"B uploaded a file: notes.txt",
	}, f.notices())

	require.Len(t, snap.Files, 1)
	assert.Equal(t, "/download?file=notes.txt", snap.Files[0].URL)

	records, err := f.archive.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, history.KindFile, records[0].Kind)
}

func TestRouterSanitizesMessages(t *testing.T) {
	f := newRouterFixture("Me")

	f.router.Dispatch(context.Background(), Inbound{Type: TypeMessage, Username: "Eve", Message: `<img src=x onerror=alert(1)> **hi**`})

	units := f.messages()
	require.Len(t, units, 1)
	assert.NotContains(t, units[0].HTML, "onerror")
	assert.Contains(t, units[0].HTML, "<strong>hi</strong>")
}
