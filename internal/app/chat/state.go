package chat

import "fmt"

// State is the connection state of a session.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Event drives a state transition.
type Event int

const (
	// EventDial starts a connection attempt.
	EventDial Event = iota

	// EventOpen reports that the handshake completed.
	EventOpen

	// EventClose reports that the connection closed or the dial failed.
	EventClose
)

func (e Event) String() string {
	switch e {
	case EventDial:
		return "dial"
	case EventOpen:
		return "open"
	case EventClose:
		return "close"
	}
	return fmt.Sprintf("Event(%d)", int(e))
}

// Effect is a side effect the session performs after a transition, in order.
type Effect int

const (
	// EffectSendIdentity writes the display name as the first frame.
	EffectSendIdentity Effect = iota

	// EffectStartKeepalive starts the connection writer and its ping ticker.
	EffectStartKeepalive

	// EffectStopKeepalive stops the connection writer and its ping ticker.
	EffectStopKeepalive

	// EffectOnlineNotice shows "You are back online" outside the initial-load window.
	EffectOnlineNotice

	// EffectOfflineNotice shows "You are now offline".
	EffectOfflineNotice

	// EffectRefreshFiles refetches the uploaded files list.
	EffectRefreshFiles

	// EffectScheduleReconnect arms the reconnect timer.
	EffectScheduleReconnect
)

func (e Effect) String() string {
	switch e {
	case EffectSendIdentity:
		return "send_identity"
	case EffectStartKeepalive:
		return "start_keepalive"
	case EffectStopKeepalive:
		return "stop_keepalive"
	case EffectOnlineNotice:
		return "online_notice"
	case EffectOfflineNotice:
		return "offline_notice"
	case EffectRefreshFiles:
		return "refresh_files"
	case EffectScheduleReconnect:
		return "schedule_reconnect"
	}
	return fmt.Sprintf("Effect(%d)", int(e))
}

type transitionKey struct {
	from  State
	event Event
}

type transitionResult struct {
	to      State
	effects []Effect
}

var transitions = map[transitionKey]transitionResult{
	{Disconnected, EventDial}: {to: Connecting},
	{Connecting, EventOpen}: {to: Connected, effects: []Effect{
		EffectSendIdentity, EffectStartKeepalive, EffectOnlineNotice,
	}},
	{Connecting, EventClose}: {to: Disconnected, effects: []Effect{
		EffectOfflineNotice, EffectRefreshFiles, EffectScheduleReconnect,
	}},
	{Connected, EventClose}: {to: Disconnected, effects: []Effect{
		EffectStopKeepalive, EffectOfflineNotice, EffectRefreshFiles, EffectScheduleReconnect,
	}},
}

// Transition returns the state reached from from on ev and the effects to perform.
func Transition(from State, ev Event) (State, []Effect, error) {
	res, ok := transitions[transitionKey{from, ev}]
	if !ok {
		return from, nil, fmt.Errorf("invalid transition %s on %s", from, ev)
	}

	effects := make([]Effect, len(res.effects))
	copy(effects, res.effects)
	return res.to, effects, nil
}
