package chat

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"chatterbox/internal/app/history"
	"chatterbox/internal/app/notify"
	"chatterbox/internal/app/render"
	"chatterbox/internal/app/view"
	"chatterbox/internal/pkg/auth/jwt"
	"chatterbox/internal/pkg/errs"
	"chatterbox/internal/pkg/limiter"
	"chatterbox/internal/pkg/logx"
	"chatterbox/internal/pkg/randx"
	"chatterbox/internal/pkg/req"
)

const (
	// DefaultReconnectInterval is the fixed delay between a close and the next dial.
	DefaultReconnectInterval = 5 * time.Second

	// DefaultPingInterval is the keepalive cadence while connected.
	DefaultPingInterval = 30 * time.Second

	// MaxMessageBytes is the maximum allowed size (in bytes) of outbound chat text.
	MaxMessageBytes = 5000

	// timeout of one uploaded files listing.
	listTimeout = 10 * time.Second

	onlineNotice  = "You are back online"
	offlineNotice = "You are now offline"
)

// FileStore is the chat server's HTTP file store.
type FileStore interface {
	List(ctx context.Context) ([]string, error)
	Upload(ctx context.Context, u req.Upload) (string, error)
}

// Options configures a Session.
type Options struct {
	// ServerURL is the chat server's base URL, e.g. http://localhost:8080.
	ServerURL string

	// Identity is the display name sent as the first frame.
	Identity string

	// Token is an optional bearer token presented on the handshake.
	Token string

	// ReconnectInterval defaults to DefaultReconnectInterval.
	ReconnectInterval time.Duration

	// PingInterval defaults to DefaultPingInterval.
	PingInterval time.Duration

	// SendRate and SendBurst limit outbound chat text. A zero rate disables the limit.
	SendRate  rate.Limit
	SendBurst int

	// MaxUploadBytes caps uploads; zero selects req.MaxRequestFileSize.
	MaxUploadBytes int64
}

// Deps are the collaborators of a Session.
type Deps struct {
	// View receives every rendered event. Required.
	View view.View

	// Renderer defaults to a renderer with code highlighting.
	Renderer *render.Renderer

	// Gate defaults to a gate without notification permission.
	Gate *notify.Gate

	// Files is optional; without it the files list is never refreshed.
	Files FileStore

	// Archive defaults to history.Nop.
	Archive history.Archive
}

// Session owns the connection to one chat server.
type Session struct {
	opts      Options
	serverURL *url.URL
	wsURL     string
	dialer    *websocket.Dialer

	view    view.View
	gate    *notify.Gate
	files   FileStore
	router  *Router
	limiter *limiter.Keyed
	logger  zerolog.Logger

	// mu protects the fields below.
	mu      sync.Mutex
	state   State
	gen     uint64
	conn    *connection
	started bool
	stopped bool
	cancel  context.CancelFunc

	// retry is armed by EffectScheduleReconnect; only the run goroutine touches it.
	retry *time.Timer

	// refreshMu orders background listings so an older one never replaces a newer one.
	refreshMu sync.Mutex
	refreshes sync.WaitGroup

	done chan struct{}
}

// NewSession validates opts and builds a Session. Nothing connects before Start.
func NewSession(opts Options, deps Deps) (*Session, error) {
	if deps.View == nil || strings.TrimSpace(opts.Identity) == "" {
		return nil, errs.NewError(errs.ErrInvalidParams)
	}

	serverURL, err := url.Parse(opts.ServerURL)
	if err != nil {
		return nil, errs.Wrap(errs.ErrInvalidParams, err)
	}

	wsURL, err := WebSocketURL(serverURL)
	if err != nil {
		return nil, err
	}

	if opts.ReconnectInterval <= 0 {
		opts.ReconnectInterval = DefaultReconnectInterval
	}
	if opts.PingInterval <= 0 {
		opts.PingInterval = DefaultPingInterval
	}
	if opts.MaxUploadBytes == 0 {
		opts.MaxUploadBytes = req.MaxRequestFileSize
	}

	if deps.Renderer == nil {
		deps.Renderer = render.NewRenderer(render.NewHighlighter(""))
	}
	if deps.Gate == nil {
		deps.Gate = notify.NewGate(nil, notify.DefaultSuppressWindow)
	}

	logger := logx.Component("session").With().
		Str("server", serverURL.Redacted()).
		Str("identity", opts.Identity).
		Logger()

	s := &Session{
		opts:      opts,
		serverURL: serverURL,
		wsURL:     wsURL,
		dialer: &websocket.Dialer{
			HandshakeTimeout: handshakeTimeout,
			Proxy:            websocket.DefaultDialer.Proxy,
		},
		view:   deps.View,
		gate:   deps.Gate,
		files:  deps.Files,
		router: NewRouter(opts.Identity, deps.Renderer, deps.View, deps.Gate, deps.Archive, logger),
		logger: logger,
		state:  Disconnected,
		done:   make(chan struct{}),
	}

	if opts.SendRate > 0 {
		burst := opts.SendBurst
		if burst <= 0 {
			burst = 1
		}
		s.limiter = limiter.New(opts.SendRate, burst)
	}

	return s, nil
}

// Identity returns the display name of the session.
func (s *Session) Identity() string {
	return s.opts.Identity
}

// State returns the current connection state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// Done is closed once the session has stopped.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Start fetches the uploaded files list and starts connecting. The session
// runs until ctx is cancelled or Stop is called.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return errs.NewError(errs.ErrSessionStopped)
	}
	if s.started {
		return nil
	}
	s.started = true

	ctx, s.cancel = context.WithCancel(ctx)
	s.gate.MarkLoaded()

	go s.run(ctx)

	return nil
}

// Stop cancels the reconnect timer, the keepalive and the open connection,
// and waits for the session goroutine to exit.
func (s *Session) Stop() {
	s.mu.Lock()
	s.stopped = true
	started := s.started
	cancel := s.cancel
	s.mu.Unlock()

	if s.limiter != nil {
		s.limiter.Close()
	}

	if !started {
		return
	}

	cancel()
	<-s.done
}

// Send queues chat text on the open connection. It never waits for a
// connection: while offline it fails with ErrNotConnected.
func (s *Session) Send(text string) error {
	if strings.TrimSpace(text) == "" {
		return errs.NewError(errs.ErrInvalidParams)
	}
	if len(text) > MaxMessageBytes {
		return errs.NewError(errs.ErrMessageContentTooLong, MaxMessageBytes)
	}

	s.mu.Lock()
	c, stopped := s.conn, s.stopped
	s.mu.Unlock()

	if stopped {
		return errs.NewError(errs.ErrSessionStopped)
	}
	if c == nil {
		return errs.NewError(errs.ErrNotConnected)
	}
	if s.limiter != nil && !s.limiter.Allow(s.opts.Identity) {
		return errs.NewError(errs.ErrRateLimitExceeded)
	}

	return c.enqueue([]byte(text))
}

// Upload posts a file to the file store as the session identity and returns
// the server's acknowledgement. A failure is logged and shown as a system notice.
func (s *Session) Upload(ctx context.Context, u req.Upload) (string, error) {
	if s.files == nil {
		return "", errs.NewError(errs.ErrInvalidParams)
	}

	u.Username = s.opts.Identity

	if err := u.Validate(s.opts.MaxUploadBytes); err != nil {
		s.uploadFailed(u.FileName, err)
		return "", err
	}

	ack, err := s.files.Upload(ctx, u)
	if err != nil {
		s.uploadFailed(u.FileName, err)
		return "", err
	}

	s.logger.Info().Str("file_name", u.FileName).Str("ack", ack).Msg("File uploaded")
	return ack, nil
}

func (s *Session) uploadFailed(fileName string, err error) {
	s.logger.Error().Err(err).Str("file_name", fileName).Msg("File upload failed")

	message := errs.NewError(errs.ErrFileUploadFailed).Message
	var customErr *errs.CustomError
	if errors.As(err, &customErr) {
		message = customErr.Message
	}

	s.view.AppendNotice(render.System("Upload of " + fileName + " failed: " + message))
}

// RefreshFiles refetches the uploaded files list and replaces the view's list.
func (s *Session) RefreshFiles(ctx context.Context) error {
	if s.files == nil {
		return nil
	}

	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	names, err := s.files.List(ctx)
	if err != nil {
		return err
	}

	entries := make([]render.FileEntry, 0, len(names))
	for _, name := range names {
		entries = append(entries, render.NewFileEntry(name))
	}
	s.view.ReplaceFiles(entries)

	return nil
}

// refreshInBackground lists the uploaded files without holding up the
// connection loop. The listing ends with ctx.
func (s *Session) refreshInBackground(ctx context.Context) {
	if s.files == nil {
		return
	}

	s.refreshes.Add(1)
	go func() {
		defer s.refreshes.Done()

		if err := s.RefreshFiles(ctx); err != nil && ctx.Err() == nil {
			s.logger.Warn().Err(err).Msg("Failed to refresh uploaded files")
		}
	}()
}

func (s *Session) run(ctx context.Context) {
	defer close(s.done)
	defer s.refreshes.Wait()

	s.refreshInBackground(ctx)

	for {
		s.transition(ctx, EventDial, nil)

		c, err := s.connect(ctx)
		if err != nil {
			if ctx.Err() != nil {
				s.shutdown(nil)
				return
			}

			s.logger.Warn().Err(err).Msg("Connection attempt failed")
			s.transition(ctx, EventClose, nil)
		} else {
			s.transition(ctx, EventOpen, c)

			err := s.serve(ctx, c)
			if ctx.Err() != nil {
				s.shutdown(c)
				return
			}

			s.logger.Info().Err(err).Msg("Disconnected from chat server, attempting to reconnect")
			s.transition(ctx, EventClose, c)
		}

		if !s.waitReconnect(ctx) {
			s.shutdown(nil)
			return
		}
	}
}

// connect dials the server for a new generation.
func (s *Session) connect(ctx context.Context) (*connection, error) {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	if s.opts.Token != "" {
		if _, err := jwt.Check(s.opts.Token, time.Now()); err != nil {
			s.logger.Warn().Err(err).Msg("Bearer token is not usable, dialing anyway")
		}
	}

	ws, err := dial(ctx, s.dialer, s.wsURL, jwt.Header(s.opts.Token))
	if err != nil {
		return nil, err
	}

	logger := s.logger.With().
		Uint64("generation", gen).
		Str("connection_id", randx.ConnectionID()).
		Logger()
	logger.Info().Msg("Connected to chat server")

	return newConnection(gen, ws, s.opts.PingInterval, logger), nil
}

// serve reads c until it closes. Cancelling ctx closes c.
func (s *Session) serve(ctx context.Context, c *connection) error {
	stop := context.AfterFunc(ctx, c.close)
	defer stop()

	return c.readPump(func(frame []byte) {
		s.handleFrame(ctx, c, frame)
	})
}

// handleFrame decodes and routes one frame of c. Frames of a stale connection are dropped.
func (s *Session) handleFrame(ctx context.Context, c *connection, frame []byte) {
	if !s.current(c) {
		c.logger.Debug().Msg("Dropping frame of a stale connection")
		return
	}

	in, err := Decode(frame)
	if err != nil {
		c.logger.Warn().Err(err).Int("frame_len", len(frame)).Msg("Server sent invalid JSON")
		return
	}

	s.router.Dispatch(ctx, in)
}

// current reports whether c belongs to the latest generation. A nil c stands
// for a failed dial of the latest generation.
func (s *Session) current(c *connection) bool {
	if c == nil {
		return true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return c.gen == s.gen
}

// transition applies ev to the state machine and performs the resulting effects.
func (s *Session) transition(ctx context.Context, ev Event, c *connection) {
	if !s.current(c) {
		s.logger.Debug().Stringer("event", ev).Msg("Ignoring event of a stale connection")
		return
	}

	s.mu.Lock()
	from := s.state
	next, effects, err := Transition(from, ev)
	if err == nil {
		s.state = next
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error().Err(err).Msg("Connection state machine rejected event")
		return
	}

	s.logger.Debug().
		Stringer("from", from).
		Stringer("to", next).
		Stringer("event", ev).
		Msg("Connection state changed")

	for _, e := range effects {
		s.apply(ctx, e, c)
	}
}

func (s *Session) apply(ctx context.Context, e Effect, c *connection) {
	switch e {
	case EffectSendIdentity:
		if err := c.writeIdentity(s.opts.Identity); err != nil {
			c.logger.Error().Err(err).Msg("Failed to send identity")
			c.close()
		}

	case EffectStartKeepalive:
		s.mu.Lock()
		s.conn = c
		s.mu.Unlock()

		go c.writePump()

	case EffectStopKeepalive:
		s.detach(c)

	case EffectOnlineNotice:
		if s.gate.Suppressed() {
			return
		}
		s.view.AppendNotice(render.System(onlineNotice))

	case EffectOfflineNotice:
		s.view.AppendNotice(render.System(offlineNotice))

	case EffectRefreshFiles:
		s.refreshInBackground(ctx)

	case EffectScheduleReconnect:
		s.retry = time.NewTimer(s.opts.ReconnectInterval)
	}
}

// detach closes c and forgets it as the current connection.
func (s *Session) detach(c *connection) {
	if c == nil {
		return
	}
	c.close()

	s.mu.Lock()
	if s.conn == c {
		s.conn = nil
	}
	s.mu.Unlock()
}

// waitReconnect blocks until the reconnect timer fires. It reports false when ctx ended first.
func (s *Session) waitReconnect(ctx context.Context) bool {
	if s.retry == nil {
		return ctx.Err() == nil
	}

	timer := s.retry
	s.retry = nil

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		timer.Stop()
		return false
	}
}

func (s *Session) shutdown(c *connection) {
	s.detach(c)

	s.mu.Lock()
	s.state = Disconnected
	s.mu.Unlock()

	s.logger.Info().Msg("Chat session stopped")
}
