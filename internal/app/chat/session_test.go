package chat

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatterbox/internal/app/notify"
	"chatterbox/internal/app/view"
	"chatterbox/internal/pkg/errs"
	"chatterbox/internal/pkg/req"
)

const waitFor = 3 * time.Second

// serverConn is one connection accepted by fakeServer.
type serverConn struct {
	ws         *websocket.Conn
	acceptedAt time.Time
	frames     chan string
	closedAt   time.Time
}

func (c *serverConn) next(t *testing.T) string {
	t.Helper()

	select {
	case f, ok := <-c.frames:
		require.True(t, ok, "connection closed")
		return f
	case <-time.After(waitFor):
		t.Fatal("timed out waiting for a frame")
		return ""
	}
}

func (c *serverConn) send(t *testing.T, frame string) {
	t.Helper()
	require.NoError(t, c.ws.WriteMessage(websocket.TextMessage, []byte(frame)))
}

// kill closes the connection from the server side and records when.
func (c *serverConn) kill() {
	c.closedAt = time.Now()
	c.ws.Close()
}

type fakeServer struct {
	srv      *httptest.Server
	upgrader websocket.Upgrader
	conns    chan *serverConn

	// reject makes /ws answer 503 while positive, decrementing per attempt.
	reject   atomic.Int32
	attempts chan time.Time

	mu          sync.Mutex
	authHeaders []string
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()

	fs := &fakeServer{
		conns:    make(chan *serverConn, 16),
		attempts: make(chan time.Time, 64),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		fs.attempts <- time.Now()

		fs.mu.Lock()
		fs.authHeaders = append(fs.authHeaders, r.Header.Get("Authorization"))
		fs.mu.Unlock()

		if fs.reject.Load() > 0 {
			fs.reject.Add(-1)
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}

		ws, err := fs.upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}

		c := &serverConn{ws: ws, acceptedAt: time.Now(), frames: make(chan string, 64)}
		go func() {
			defer close(c.frames)
			for {
				_, data, err := ws.ReadMessage()
				if err != nil {
					return
				}
				c.frames <- string(data)
			}
		}()

		fs.conns <- c
	})

	fs.srv = httptest.NewServer(mux)
	t.Cleanup(fs.srv.Close)

	return fs
}

func (fs *fakeServer) accept(t *testing.T) *serverConn {
	t.Helper()

	select {
	case c := <-fs.conns:
		return c
	case <-time.After(waitFor):
		t.Fatal("timed out waiting for a connection")
		return nil
	}
}

type fakeFiles struct {
	mu        sync.Mutex
	names     []string
	lists     int
	uploadErr error
	uploaded  []req.Upload

	// listDelay makes every listing take this long.
	listDelay time.Duration
}

func (f *fakeFiles) List(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	f.lists++
	delay := f.listDelay
	names := append([]string(nil), f.names...)
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return names, nil
}

func (f *fakeFiles) Upload(_ context.Context, u req.Upload) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	f.uploaded = append(f.uploaded, u)
	return "File uploaded successfully", nil
}

func (f *fakeFiles) listCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.lists
}

type sessionFixture struct {
	session    *Session
	transcript *view.Transcript
	files      *fakeFiles
}

func newSessionFixture(t *testing.T, serverURL string, opts Options, window time.Duration) *sessionFixture {
	t.Helper()

	opts.ServerURL = serverURL
	if opts.Identity == "" {
		opts.Identity = "Brave Turing"
	}

	f := &sessionFixture{
		transcript: view.NewTranscript(0),
		files:      &fakeFiles{names: []string{"a.txt"}},
	}

	s, err := NewSession(opts, Deps{
		View:  f.transcript,
		Gate:  notify.NewGate(nil, window),
		Files: f.files,
	})
	require.NoError(t, err)
	t.Cleanup(s.Stop)

	f.session = s
	return f
}

func (f *sessionFixture) notices() []string {
	var out []string
	for _, e := range f.transcript.Snapshot().Entries {
		if e.Kind == view.EntryNotice {
			out = append(out, e.Notice.Text)
		}
	}
	return out
}

func (f *sessionFixture) waitConnected(t *testing.T) {
	t.Helper()
	require.Eventually(t, func() bool {
		f.session.mu.Lock()
		defer f.session.mu.Unlock()
		return f.session.conn != nil
	}, waitFor, 5*time.Millisecond)
}

func TestSessionSendsIdentityFirst(t *testing.T) {
	fs := newFakeServer(t)
	f := newSessionFixture(t, fs.srv.URL, Options{Identity: "Quiet Lovelace", Token: "abc.def.ghi"}, 0)

	require.NoError(t, f.session.Start(context.Background()))

	c := fs.accept(t)
	assert.Equal(t, "Quiet Lovelace", c.next(t))

	f.waitConnected(t)
	require.NoError(t, f.session.Send("hello **world**"))
	assert.Equal(t, "hello **world**", c.next(t))

	assert.Equal(t, Connected, f.session.State())
	require.Eventually(t, func() bool {
		n := f.notices()
		return len(n) == 1 && n[0] == onlineNotice
	}, waitFor, 5*time.Millisecond)

	fs.mu.Lock()
	assert.Equal(t, "Bearer abc.def.ghi", fs.authHeaders[0])
	fs.mu.Unlock()

	require.Eventually(t, func() bool {
		return len(f.transcript.Files()) == 1
	}, waitFor, 5*time.Millisecond)
}

func TestSessionKeepaliveCadence(t *testing.T) {
	fs := newFakeServer(t)
	interval := 50 * time.Millisecond
	f := newSessionFixture(t, fs.srv.URL, Options{PingInterval: interval}, 0)

	require.NoError(t, f.session.Start(context.Background()))

	c := fs.accept(t)
	c.next(t)
	start := time.Now()

	for i := 0; i < 3; i++ {
		assert.Equal(t, `{"type":"ping"}`, c.next(t))
	}

	assert.GreaterOrEqual(t, time.Since(start), 3*interval-10*time.Millisecond)
}

func TestSessionReconnectsAfterFixedDelay(t *testing.T) {
	fs := newFakeServer(t)
	delay := 200 * time.Millisecond
	f := newSessionFixture(t, fs.srv.URL, Options{ReconnectInterval: delay}, 100*time.Millisecond)

	require.NoError(t, f.session.Start(context.Background()))

	first := fs.accept(t)
	first.next(t)
	assert.NotContains(t, f.notices(), onlineNotice, "first connect is inside the initial-load window")

	first.kill()

	second := fs.accept(t)
	assert.GreaterOrEqual(t, second.acceptedAt.Sub(first.closedAt), delay)
	assert.Equal(t, "Brave Turing", second.next(t))

	require.Eventually(t, func() bool {
		n := f.notices()
		return len(n) == 2 && n[0] == offlineNotice && n[1] == onlineNotice
	}, waitFor, 5*time.Millisecond)

	require.Eventually(t, func() bool {
		return f.files.listCount() >= 2
	}, waitFor, 5*time.Millisecond, "files are listed on start and on every disconnect")
}

func TestSessionSlowFileListDoesNotDelayReconnect(t *testing.T) {
	fs := newFakeServer(t)
	delay := 200 * time.Millisecond
	f := newSessionFixture(t, fs.srv.URL, Options{ReconnectInterval: delay}, 0)
	f.files.listDelay = 800 * time.Millisecond

	require.NoError(t, f.session.Start(context.Background()))

	first := fs.accept(t)
	first.next(t)
	first.kill()

	second := fs.accept(t)
	gap := second.acceptedAt.Sub(first.closedAt)
	assert.GreaterOrEqual(t, gap, delay)
	assert.Less(t, gap, f.files.listDelay, "the reconnect timer is armed when the connection closes")
}

func TestSessionSlowFileListKeepsFirstConnectQuiet(t *testing.T) {
	fs := newFakeServer(t)
	f := newSessionFixture(t, fs.srv.URL, Options{}, 300*time.Millisecond)
	f.files.listDelay = 500 * time.Millisecond

	require.NoError(t, f.session.Start(context.Background()))

	c := fs.accept(t)
	assert.Equal(t, "Brave Turing", c.next(t))
	f.waitConnected(t)

	require.Eventually(t, func() bool {
		return len(f.transcript.Files()) == 1
	}, waitFor, 5*time.Millisecond)
	assert.NotContains(t, f.notices(), onlineNotice)
}

func TestSessionRetriesFailedDials(t *testing.T) {
	fs := newFakeServer(t)
	fs.reject.Store(2)
	delay := 100 * time.Millisecond
	f := newSessionFixture(t, fs.srv.URL, Options{ReconnectInterval: delay}, 0)

	require.NoError(t, f.session.Start(context.Background()))

	c := fs.accept(t)
	c.next(t)

	var attempts []time.Time
	for len(fs.attempts) > 0 {
		attempts = append(attempts, <-fs.attempts)
	}
	require.Len(t, attempts, 3)
	for i := 1; i < len(attempts); i++ {
		assert.GreaterOrEqual(t, attempts[i].Sub(attempts[i-1]), delay)
	}

	offline := 0
	for _, n := range f.notices() {
		if n == offlineNotice {
			offline++
		}
	}
	assert.Equal(t, 2, offline)
}

func TestSessionStopCancelsEverything(t *testing.T) {
	fs := newFakeServer(t)
	f := newSessionFixture(t, fs.srv.URL, Options{ReconnectInterval: 50 * time.Millisecond}, 0)

	require.NoError(t, f.session.Start(context.Background()))
	c := fs.accept(t)
	c.next(t)

	stopped := make(chan struct{})
	go func() {
		f.session.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(waitFor):
		t.Fatal("Stop did not return")
	}

	// the server observes the close
	for range c.frames {
	}

	assert.Equal(t, Disconnected, f.session.State())
	assert.NotContains(t, f.notices(), offlineNotice)
	assert.Equal(t, errs.ErrSessionStopped, errs.Code(f.session.Send("late")))
	assert.Equal(t, errs.ErrSessionStopped, errs.Code(f.session.Start(context.Background())))

	select {
	case <-fs.conns:
		t.Fatal("session reconnected after Stop")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestSessionStopDuringReconnectWait(t *testing.T) {
	fs := newFakeServer(t)
	f := newSessionFixture(t, fs.srv.URL, Options{ReconnectInterval: time.Minute}, 0)

	require.NoError(t, f.session.Start(context.Background()))
	c := fs.accept(t)
	c.next(t)
	c.kill()

	require.Eventually(t, func() bool {
		return f.session.State() == Disconnected
	}, waitFor, 5*time.Millisecond)

	start := time.Now()
	f.session.Stop()
	assert.Less(t, time.Since(start), time.Second)

	select {
	case <-f.session.Done():
	default:
		t.Fatal("session goroutine still running")
	}
}

func TestSessionContextCancellation(t *testing.T) {
	fs := newFakeServer(t)
	f := newSessionFixture(t, fs.srv.URL, Options{}, 0)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, f.session.Start(ctx))
	fs.accept(t).next(t)

	cancel()

	select {
	case <-f.session.Done():
	case <-time.After(waitFor):
		t.Fatal("session did not stop on context cancellation")
	}
}

func TestSessionToleratesMalformedFrames(t *testing.T) {
	fs := newFakeServer(t)
	f := newSessionFixture(t, fs.srv.URL, Options{}, 0)

	require.NoError(t, f.session.Start(context.Background()))
	c := fs.accept(t)
	c.next(t)

	c.send(t, `not json`)
	c.send(t, `{"type":"message","username":"Alice","message":"still here"}`)

	require.Eventually(t, func() bool {
		for _, e := range f.transcript.Snapshot().Entries {
			if e.Kind == view.EntryMessage && e.Message.Text == "still here" {
				return true
			}
		}
		return false
	}, waitFor, 5*time.Millisecond)

	assert.Equal(t, Connected, f.session.State())
	assert.Empty(t, fs.conns)
}

func TestSessionIgnoresStaleConnections(t *testing.T) {
	f := newSessionFixture(t, "http://127.0.0.1:1", Options{}, 0)
	s := f.session

	s.mu.Lock()
	s.gen = 2
	s.state = Connected
	s.mu.Unlock()

	stale := &connection{gen: 1, done: make(chan struct{}), logger: zerolog.Nop()}

	s.handleFrame(context.Background(), stale, []byte(`{"type":"user_join","username":"Ghost"}`))
	assert.Empty(t, f.transcript.Snapshot().Entries)

	s.transition(context.Background(), EventClose, stale)
	assert.Equal(t, Connected, s.State())
	assert.Empty(t, f.notices())
}

func TestSessionSendValidation(t *testing.T) {
	f := newSessionFixture(t, "http://127.0.0.1:1", Options{}, 0)

	long := make([]byte, MaxMessageBytes+1)
	for i := range long {
		long[i] = 'a'
	}

	assert.Equal(t, errs.ErrMessageContentTooLong, errs.Code(f.session.Send(string(long))))
	assert.Equal(t, errs.ErrInvalidParams, errs.Code(f.session.Send("   ")))
	assert.Equal(t, errs.ErrNotConnected, errs.Code(f.session.Send("offline")))
}

func TestSessionSendRateLimit(t *testing.T) {
	fs := newFakeServer(t)
	f := newSessionFixture(t, fs.srv.URL, Options{SendRate: 0.001, SendBurst: 1}, 0)

	require.NoError(t, f.session.Start(context.Background()))
	fs.accept(t).next(t)
	f.waitConnected(t)

	require.NoError(t, f.session.Send("first"))
	assert.Equal(t, errs.ErrRateLimitExceeded, errs.Code(f.session.Send("second")))
}

func TestSessionUpload(t *testing.T) {
	f := newSessionFixture(t, "http://127.0.0.1:1", Options{Identity: "Calm Hopper", MaxUploadBytes: 10}, 0)
	ctx := context.Background()

	ack, err := f.session.Upload(ctx, req.Upload{FileName: "a.txt", Size: 3, Content: stringsReader("abc")})
	require.NoError(t, err)
	assert.Equal(t, "File uploaded successfully", ack)
	require.Len(t, f.files.uploaded, 1)
	assert.Equal(t, "Calm Hopper", f.files.uploaded[0].Username)

	_, err = f.session.Upload(ctx, req.Upload{FileName: "big.bin", Size: 11, Content: stringsReader("01234567890")})
	assert.Equal(t, errs.ErrRequestEntityTooLarge, errs.Code(err))

	f.files.uploadErr = errs.Wrap(errs.ErrFileUploadFailed, errors.New("502"))
	_, err = f.session.Upload(ctx, req.Upload{FileName: "b.txt", Size: 1, Content: stringsReader("b")})
	assert.Equal(t, errs.ErrFileUploadFailed, errs.Code(err))

	notices := f.notices()
	require.Len(t, notices, 2)
	assert.Contains(t, notices[0], "big.bin")
	assert.Contains(t, notices[1], "b.txt")
}

func TestNewSessionValidation(t *testing.T) {
	_, err := NewSession(Options{ServerURL: "ftp://host", Identity: "x"}, Deps{View: view.NewTranscript(0)})
	assert.Equal(t, errs.ErrInvalidParams, errs.Code(err))

	_, err = NewSession(Options{ServerURL: "http://host"}, Deps{View: view.NewTranscript(0)})
	assert.Equal(t, errs.ErrInvalidParams, errs.Code(err))

	_, err = NewSession(Options{ServerURL: "http://host", Identity: "x"}, Deps{})
	assert.Equal(t, errs.ErrInvalidParams, errs.Code(err))
}
