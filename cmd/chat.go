package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"chatterbox/internal/app/chat"
	"chatterbox/internal/app/db"
	"chatterbox/internal/app/history"
	"chatterbox/internal/app/identity"
	"chatterbox/internal/app/notify"
	"chatterbox/internal/app/render"
	"chatterbox/internal/app/storage"
	"chatterbox/internal/app/view"
	"chatterbox/internal/handler"
	"chatterbox/internal/pkg/errs"
	"chatterbox/internal/pkg/logx"
)

const appName = "chatterbox"

// runChat is the interactive mode: every stdin line is a chat message or a command.
func runChat(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	name, err := resolveIdentity(false)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	highlighter := render.NewHighlighter(cfg.HighlightStyle)
	renderer := render.NewRenderer(highlighter)
	transcript := view.NewTranscript(view.DefaultTranscriptLimit)
	console := view.NewConsole(out, cfg.NoColor)

	var sink notify.Sink
	if cfg.Notifications {
		sink = notify.NewDesktopSink(appName)
	}
	gate := notify.NewGate(sink, cfg.SuppressWindow)

	files, err := storage.NewFileStore(cfg.ServerURL, cfg.AuthToken)
	if err != nil {
		return err
	}

	archive, closeArchive := openArchive(ctx)
	defer closeArchive()

	session, err := chat.NewSession(chat.Options{
		ServerURL:         cfg.ServerURL,
		Identity:          name,
		Token:             cfg.AuthToken,
		ReconnectInterval: cfg.ReconnectInterval,
		PingInterval:      cfg.PingInterval,
		SendRate:          rate.Limit(cfg.SendRate),
		SendBurst:         cfg.SendBurst,
		MaxUploadBytes:    cfg.MaxUploadBytes,
	}, chat.Deps{
		View:     view.Multi{transcript, console},
		Renderer: renderer,
		Gate:     gate,
		Files:    files,
		Archive:  archive,
	})
	if err != nil {
		return err
	}

	if cfg.ViewPort > 0 {
		stopViewer := startViewer(&handler.AppDeps{
			Config:      cfg,
			Identity:    name,
			Transcript:  transcript,
			Files:       files,
			Archive:     archive,
			Highlighter: highlighter,
		})
		defer stopViewer()
		console.Notice("Transcript viewer on http://localhost:%d", cfg.ViewPort)
	}

	console.Notice("You are %s. Type /help for commands.", name)

	if err := session.Start(ctx); err != nil {
		return err
	}
	defer session.Stop()

	c := &chatLoop{
		session: session,
		files:   files,
		console: console,
	}

	return c.run(ctx, cmd.InOrStdin())
}

// chatLoop feeds stdin lines to the session.
type chatLoop struct {
	session *chat.Session
	files   *storage.FileStore

	// console serializes local feedback with the session's output.
	console *view.Console

	// uploads run in the background so the conversation continues.
	uploads sync.WaitGroup
}

func (c *chatLoop) run(ctx context.Context, in io.Reader) error {
	defer c.uploads.Wait()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-c.session.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if quit := c.handle(ctx, parseCommand(line)); quit {
				return nil
			}
		}
	}
}

// handle executes one parsed line and reports whether the loop should end.
func (c *chatLoop) handle(ctx context.Context, command Command) bool {
	switch command.Kind {
	case CommandNone:
	case CommandQuit:
		return true
	case CommandHelp:
		c.console.Print(helpText)
	case CommandFiles:
		if err := c.session.RefreshFiles(ctx); err != nil {
			c.fail("Could not list files", err)
		}
	case CommandUpload:
		u, closeFile, err := openUpload(command.Arg, c.session.Identity())
		if err != nil {
			c.fail("Upload failed", err)
			return false
		}
		c.uploads.Add(1)
		go func() {
			defer c.uploads.Done()
			defer closeFile()
			// failures are shown by the session as a system notice
			if ack, err := c.session.Upload(ctx, u); err == nil {
				c.console.Notice("%s", ack)
			}
		}()
	case CommandDownload:
		dst, err := downloadDestination(ctx)
		if err != nil {
			c.fail("Download failed", err)
			return false
		}
		location, err := c.files.Download(ctx, command.Arg, dst)
		if err != nil {
			c.fail("Download failed", err)
			return false
		}
		c.console.Notice("Saved %s to %s", command.Arg, location)
	case CommandUnknown:
		c.console.Notice("Unknown command %s, type /help", command.Arg)
	case CommandMessage:
		if err := c.session.Send(command.Arg); err != nil {
			c.fail("Message not sent", err)
		}
	}

	return false
}

func (c *chatLoop) fail(msg string, err error) {
	var customErr *errs.CustomError
	if errors.As(err, &customErr) {
		c.console.Notice("%s: %s", msg, customErr.Message)
		return
	}
	c.console.Notice("%s: %v", msg, err)
}

// resolveIdentity opens the identity store under the data directory and returns the display name.
func resolveIdentity(reset bool) (string, error) {
	store, err := identity.OpenPebbleStore(filepath.Join(cfg.DataDir, "identity"))
	if err != nil {
		return "", err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logx.Error(err, "Failed to close identity store")
		}
	}()

	if reset {
		if err := identity.Clear(store); err != nil {
			return "", err
		}
	}

	return identity.Resolve(store, nil)
}

// openArchive connects the transcript archive when a database is configured.
// A database that cannot be reached only disables archiving.
func openArchive(ctx context.Context) (history.Archive, func()) {
	if cfg.DatabaseDSN == "" {
		return history.Nop{}, func() {}
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseDSN)
	if err != nil {
		logx.Warn("Transcript archive disabled", "error", err.Error())
		return history.Nop{}, func() {}
	}

	return history.NewPostgresArchive(pool, cfg.ServerURL), pool.Close
}

// startViewer serves the local transcript viewer and returns its shutdown func.
func startViewer(deps *handler.AppDeps) func() {
	router, stopRouter := handler.Router(deps)

	serverAddr := fmt.Sprintf("localhost:%d", cfg.ViewPort)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logx.Info("Transcript viewer starting", "addr", serverAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logx.Error(err, "Transcript viewer failed")
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logx.Error(err, "Transcript viewer forced to shutdown")
		}
		stopRouter()
	}
}
