package chat

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"chatterbox/internal/pkg/errs"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// timeout of the opening handshake.
	handshakeTimeout = 10 * time.Second

	// maximum allowed size (in bytes) of a frame sent by the server.
	maxFrameSize = 1 << 20

	// capacity of the outbound queue of one connection.
	sendQueueSize = 64
)

// WebSocketURL returns the /ws endpoint of server, mirroring its scheme
// (https becomes wss, http becomes ws).
func WebSocketURL(server *url.URL) (string, error) {
	u := *server

	switch strings.ToLower(u.Scheme) {
	case "https", "wss":
		u.Scheme = "wss"
	case "http", "ws":
		u.Scheme = "ws"
	default:
		return "", errs.NewError(errs.ErrInvalidParams)
	}

	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""

	return u.String(), nil
}

// connection is one open WebSocket to the server.
type connection struct {
	// gen is the session generation this connection belongs to.
	gen uint64

	// underlying WebSocket connection object.
	ws *websocket.Conn

	// a buffered channel used to queue chat text waiting to be written.
	send chan []byte

	// closed when the connection is shut down.
	done      chan struct{}
	closeOnce sync.Once

	pingInterval time.Duration

	// structured logger with connection context.
	logger zerolog.Logger
}

func dial(ctx context.Context, dialer *websocket.Dialer, wsURL string, header http.Header) (*websocket.Conn, error) {
	ws, res, err := dialer.DialContext(ctx, wsURL, header)
	if res != nil && res.Body != nil {
		res.Body.Close()
	}
	return ws, err
}

func newConnection(gen uint64, ws *websocket.Conn, pingInterval time.Duration, logger zerolog.Logger) *connection {
	return &connection{
		gen:          gen,
		ws:           ws,
		send:         make(chan []byte, sendQueueSize),
		done:         make(chan struct{}),
		pingInterval: pingInterval,
		logger:       logger,
	}
}

// writeIdentity writes the display name as a raw text frame. It must run
// before writePump starts so the identity is the first frame on the wire.
func (c *connection) writeIdentity(name string) error {
	return c.write([]byte(name))
}

// readPump reads frames until the connection fails and hands each one to handle.
// It returns the error that ended the connection.
func (c *connection) readPump(handle func([]byte)) error {
	c.ws.SetReadLimit(maxFrameSize)

	for {
		_, frame, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Connection closed unexpectedly")
			}
			return err
		}

		handle(frame)
	}
}

// writePump writes queued chat text and the periodic keepalive until the
// connection is closed or a write fails.
func (c *connection) writePump() {
	ticker := time.NewTicker(c.pingInterval)

	defer func() {
		ticker.Stop()

		// a failed write must also end readPump
		if err := c.ws.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Connection close error in writePump")
		}
	}()

	for {
		select {
		case <-c.done:
			return

		case message := <-c.send:
			if err := c.write(message); err != nil {
				c.logger.Error().Err(err).Msg("Error writing message")
				return
			}

		case <-ticker.C:
			if err := c.write(KeepaliveFrame()); err != nil {
				c.logger.Error().Err(err).Msg("Error writing keepalive")
				return
			}
			c.logger.Debug().Msg("Keepalive sent")
		}
	}
}

func (c *connection) write(message []byte) error {
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.ws.WriteMessage(websocket.TextMessage, message)
}

// enqueue queues chat text for writePump without blocking.
func (c *connection) enqueue(message []byte) error {
	select {
	case <-c.done:
		return errs.NewError(errs.ErrNotConnected)
	default:
	}

	select {
	case c.send <- message:
		return nil
	default:
		c.logger.Warn().Int("queue_len", len(c.send)).Msg("Send queue full, dropping message")
		return errs.NewError(errs.ErrSendQueueFull)
	}
}

// close sends a normal closure frame and closes the socket. Safe to call repeatedly.
func (c *connection) close() {
	c.closeOnce.Do(func() {
		close(c.done)

		closeMessage := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		if err := c.ws.WriteControl(websocket.CloseMessage, closeMessage, time.Now().Add(writeWait)); err != nil {
			c.logger.Debug().Err(err).Msg("Failed to send close frame")
		}

		if err := c.ws.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Connection close error")
		}
	})
}
