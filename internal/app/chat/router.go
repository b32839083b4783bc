package chat

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"chatterbox/internal/app/history"
	"chatterbox/internal/app/notify"
	"chatterbox/internal/app/render"
	"chatterbox/internal/app/user"
	"chatterbox/internal/app/view"
	"chatterbox/internal/pkg/randx"
)

const archiveTimeout = 2 * time.Second

// Router dispatches decoded server events to the view.
// It is driven by a single goroutine and keeps the last message sender across reconnects.
type Router struct {
	self     string
	renderer *render.Renderer
	view     view.View
	gate     *notify.Gate
	archive  history.Archive
	logger   zerolog.Logger
	now      func() time.Time

	// lastSender is the author of the most recent chat message.
	lastSender string
}

// NewRouter creates a Router for the identity self.
func NewRouter(self string, renderer *render.Renderer, v view.View, gate *notify.Gate, archive history.Archive, logger zerolog.Logger) *Router {
	if archive == nil {
		archive = history.Nop{}
	}

	return &Router{
		self:     self,
		renderer: renderer,
		view:     v,
		gate:     gate,
		archive:  archive,
		logger:   logger,
		now:      time.Now,
	}
}

// LastSender returns the author of the most recent chat message.
func (r *Router) LastSender() string {
	return r.lastSender
}

// Dispatch handles one event. Unknown types are ignored.
func (r *Router) Dispatch(ctx context.Context, in Inbound) {
	// replayed history ends with the first event that is not a chat message,
	// normally the server announcing our own join
	if in.Type != TypeMessage && in.Type != TypeHistory && r.gate.Replaying() {
		r.gate.SetReplaying(false)
	}

	switch in.Type {
	case TypeMessage:
		r.handleMessage(ctx, in)

	case TypeUserList:
		r.view.ReplaceRoster(user.FromNames(in.Users))

	case TypeUserJoin:
		r.view.AppendNotice(render.Joined(in.Username))

	case TypeUserLeave:
		r.view.AppendNotice(render.Left(in.Username))

	case TypeFileUpload:
		r.handleFileUpload(ctx, in)

	case TypePong:
		r.logger.Debug().Msg("Keepalive acknowledged")

	case TypeHistory:
		r.logger.Debug().Str("marker", in.Message).Msg("Server is replaying message history")
		r.gate.SetReplaying(true)

	default:
		r.logger.Debug().Str("msg_type", string(in.Type)).Msg("Ignoring unsupported message type")
	}
}

func (r *Router) handleMessage(ctx context.Context, in Inbound) {
	isCurrentUser := in.Username == r.self
	isSameUser := in.Username == r.lastSender

	r.view.AppendMessage(r.renderer.Message(in.Username, in.Message, isCurrentUser, isSameUser))
	r.lastSender = in.Username

	if r.gate.Replaying() {
		return
	}

	r.gate.Message(in.Username, in.Message, isCurrentUser)
	r.record(ctx, history.Record{Kind: history.KindMessage, Username: in.Username, Body: in.Message})
}

func (r *Router) handleFileUpload(ctx context.Context, in Inbound) {
	r.view.AppendNotice(render.FileUploaded(in.Username, in.FileName))
	r.view.AppendFile(render.NewFileEntry(in.FileName))

	r.record(ctx, history.Record{Kind: history.KindFile, Username: in.Username, FileName: in.FileName})
}

func (r *Router) record(ctx context.Context, rec history.Record) {
	rec.ID = randx.RecordID()
	rec.At = r.now()

	ctx, cancel := context.WithTimeout(ctx, archiveTimeout)
	defer cancel()

	if err := r.archive.Append(ctx, rec); err != nil {
		r.logger.Warn().Err(err).Str("kind", string(rec.Kind)).Msg("Failed to archive transcript record")
	}
}
