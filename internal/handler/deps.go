package handler

import (
	"context"
	"io"

	"chatterbox/internal/app/history"
	"chatterbox/internal/app/render"
	"chatterbox/internal/app/view"
	"chatterbox/internal/configs"
)

// FileOpener streams a file from the chat server's file store.
type FileOpener interface {
	Open(ctx context.Context, name string) (io.ReadCloser, int64, error)
}

// AppDeps are the collaborators of the local viewer.
type AppDeps struct {
	Config      *configs.AppConfig
	Identity    string
	Transcript  *view.Transcript
	Files       FileOpener
	Archive     history.Archive
	Highlighter *render.Highlighter
}
