/*
Package req builds the HTTP requests the chat client sends to the file store.

Uploads are streamed: the multipart body is produced by a goroutine writing into
an io.Pipe, so large files are never buffered in memory.
*/
package req

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"strings"

	"chatterbox/internal/pkg/errs"
)

const (
	// MaxRequestFileSize is the default client side cap on uploaded files (20 MB).
	MaxRequestFileSize int64 = 20 << 20

	// FileField and UsernameField are the multipart form field names of /upload.
	FileField     = "file"
	UsernameField = "username"
)

// Upload describes one file to be posted to the file store.
type Upload struct {
	// FileName is the name announced to the server and other participants.
	FileName string

	// Size is the file size in bytes when known; negative means unknown.
	Size int64

	// Content is read until EOF.
	Content io.Reader

	// Username is the uploader's identity.
	Username string
}

// Validate checks the upload against the size cap.
func (u Upload) Validate(maxSize int64) *errs.CustomError {
	name := strings.TrimSpace(u.FileName)
	if name == "" || name == "." || name == "/" || u.Content == nil {
		return errs.NewError(errs.ErrInvalidParams)
	}

	if maxSize > 0 && u.Size > maxSize {
		return errs.NewError(errs.ErrRequestEntityTooLarge, maxSize)
	}

	return nil
}

// NewMultipartUpload builds a streaming POST request carrying the file and the
// username as multipart form fields.
func NewMultipartUpload(ctx context.Context, endpoint string, u Upload) (*http.Request, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(writeMultipart(mw, u))
	}()

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, pr)
	if err != nil {
		pr.Close()
		return nil, err
	}
	request.Header.Set("Content-Type", mw.FormDataContentType())

	return request, nil
}

func writeMultipart(mw *multipart.Writer, u Upload) error {
	part, err := mw.CreateFormFile(FileField, path.Base(u.FileName))
	if err != nil {
		return err
	}

	if _, err := io.Copy(part, u.Content); err != nil {
		return fmt.Errorf("copy file content: %w", err)
	}

	if err := mw.WriteField(UsernameField, u.Username); err != nil {
		return err
	}

	return mw.Close()
}

// ResolveURL joins a path and optional query onto base.
func ResolveURL(base *url.URL, p string, query url.Values) string {
	u := *base
	u.Path = strings.TrimSuffix(u.Path, "/") + p
	u.RawQuery = ""
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}
