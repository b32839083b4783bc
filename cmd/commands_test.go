package main

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatterbox/internal/pkg/errs"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line string
		want Command
	}{
		{"", Command{Kind: CommandNone}},
		{"   ", Command{Kind: CommandNone}},
		{"hello *world*", Command{Kind: CommandMessage, Arg: "hello *world*"}},
		{"  padded message \t", Command{Kind: CommandMessage, Arg: "padded message"}},
		{"//not a command", Command{Kind: CommandMessage, Arg: "/not a command"}},
		{"/quit", Command{Kind: CommandQuit}},
		{"/exit", Command{Kind: CommandQuit}},
		{"/help", Command{Kind: CommandHelp}},
		{"/files", Command{Kind: CommandFiles}},
		{"/upload ./notes.txt", Command{Kind: CommandUpload, Arg: "./notes.txt"}},
		{"/upload  my file.txt ", Command{Kind: CommandUpload, Arg: "my file.txt"}},
		{"/upload", Command{Kind: CommandHelp}},
		{"/download report.pdf", Command{Kind: CommandDownload, Arg: "report.pdf"}},
		{"/download", Command{Kind: CommandHelp}},
		{"/shrug", Command{Kind: CommandUnknown, Arg: "/shrug"}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, parseCommand(tt.line), "line %q", tt.line)
	}
}

func TestOpenUpload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o600))

	u, closeFile, err := openUpload(path, "Brave Otter")
	require.NoError(t, err)
	defer closeFile()

	assert.Equal(t, "notes.txt", u.FileName)
	assert.Equal(t, int64(5), u.Size)
	assert.Equal(t, "Brave Otter", u.Username)

	content, err := io.ReadAll(u.Content)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(content))
}

func TestOpenUpload_Rejects(t *testing.T) {
	dir := t.TempDir()

	_, _, err := openUpload(filepath.Join(dir, "missing.txt"), "Brave Otter")
	assert.Equal(t, errs.ErrInvalidParams, errs.Code(err))

	_, _, err = openUpload(dir, "Brave Otter")
	assert.Equal(t, errs.ErrInvalidParams, errs.Code(err))
}
