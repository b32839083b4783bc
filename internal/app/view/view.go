/*
Package view holds the presentation surfaces the chat session renders into.

A View receives already rendered units: it never interprets message text itself.
Every mutation is a full append or a full replace, so implementations stay
trivially consistent with the session's state.
*/
package view

import (
	"chatterbox/internal/app/render"
	"chatterbox/internal/app/user"
)

// View is the surface a chat session renders into.
type View interface {
	// AppendMessage adds a chat message to the transcript and scrolls to it.
	AppendMessage(u render.Unit)

	// AppendNotice adds a system line to the transcript and scrolls to it.
	AppendNotice(n render.Notice)

	// ReplaceRoster replaces the whole participant list.
	ReplaceRoster(users []user.User)

	// ReplaceFiles replaces the whole uploaded files list.
	ReplaceFiles(files []render.FileEntry)

	// AppendFile adds one entry to the uploaded files list.
	AppendFile(f render.FileEntry)
}

// Multi fans every call out to several views, in order.
type Multi []View

func (m Multi) AppendMessage(u render.Unit) {
	for _, v := range m {
		v.AppendMessage(u)
	}
}

func (m Multi) AppendNotice(n render.Notice) {
	for _, v := range m {
		v.AppendNotice(n)
	}
}

func (m Multi) ReplaceRoster(users []user.User) {
	for _, v := range m {
		v.ReplaceRoster(users)
	}
}

func (m Multi) ReplaceFiles(files []render.FileEntry) {
	for _, v := range m {
		v.ReplaceFiles(files)
	}
}

func (m Multi) AppendFile(f render.FileEntry) {
	for _, v := range m {
		v.AppendFile(f)
	}
}
