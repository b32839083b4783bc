package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"chatterbox/internal/pkg/errs"
)

// DirDestination stores downloads in a local directory.
type DirDestination struct {
	dir string
}

// NewDirDestination creates dir if needed.
func NewDirDestination(dir string) (*DirDestination, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create download directory: %w", err)
	}
	return &DirDestination{dir: dir}, nil
}

// Path returns where the file name is stored. Directory components of name
// are dropped so a server supplied name cannot escape the directory.
func (d *DirDestination) Path(name string) (string, error) {
	base := filepath.Base(filepath.FromSlash("/" + name))
	if base == "." || base == string(filepath.Separator) || base == ".." {
		return "", errs.NewError(errs.ErrInvalidParams)
	}
	return filepath.Join(d.dir, base), nil
}

func (d *DirDestination) Store(ctx context.Context, name string, content io.Reader, _ int64) (string, error) {
	target, err := d.Path(name)
	if err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(d.dir, ".download-*")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, ctxReader{ctx: ctx, r: content}); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write %s: %w", target, err)
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}

	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", err
	}

	return target, nil
}

func (d *DirDestination) Has(_ context.Context, name string) (bool, error) {
	target, err := d.Path(name)
	if err != nil {
		return false, err
	}

	if _, err := os.Stat(target); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ctxReader stops a copy once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
