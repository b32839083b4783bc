/*
Package chat implements the chat session: one WebSocket connection to the chat
server kept alive with a fixed-delay reconnect loop and an application-level
keepalive, and the routing of the server's events into a view.

This file defines the wire envelope exchanged with the server.
*/
package chat

import (
	"encoding/json"

	"chatterbox/internal/pkg/errs"
)

// MessageType identifies the kind of an envelope.
type MessageType string

const (
	// TypeMessage is a chat message broadcast by the server.
	TypeMessage MessageType = "message"

	// TypeUserList carries the full roster.
	TypeUserList MessageType = "user_list"

	// TypeUserJoin announces a participant joining.
	TypeUserJoin MessageType = "user_join"

	// TypeUserLeave announces a participant leaving.
	TypeUserLeave MessageType = "user_leave"

	// TypeFileUpload announces an uploaded file.
	TypeFileUpload MessageType = "file_upload"

	// TypePong acknowledges a keepalive ping.
	TypePong MessageType = "pong"

	// TypeHistory precedes the messages the server replays after a connect.
	TypeHistory MessageType = "message_history"

	// TypePing is the keepalive sent by the client.
	TypePing MessageType = "ping"
)

// Inbound is the envelope of every server frame. Fields not used by Type are empty.
type Inbound struct {
	Type     MessageType `json:"type"`
	Username string      `json:"username,omitempty"`
	Message  string      `json:"message,omitempty"`
	Users    []string    `json:"users,omitempty"`
	FileName string      `json:"fileName,omitempty"`
}

// keepalive is the application-level ping frame.
var keepalive = mustEncode(struct {
	Type MessageType `json:"type"`
}{Type: TypePing})

// Decode parses one server frame.
// A frame that is not a JSON object yields an ErrProtocolDecode error.
func Decode(data []byte) (Inbound, error) {
	var in Inbound
	if err := json.Unmarshal(data, &in); err != nil {
		return Inbound{}, errs.Wrap(errs.ErrProtocolDecode, err)
	}
	return in, nil
}

// KeepaliveFrame returns the ping frame sent while connected.
func KeepaliveFrame() []byte {
	out := make([]byte, len(keepalive))
	copy(out, keepalive)
	return out
}

func mustEncode(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
