package storage

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"

	"chatterbox/internal/pkg/auth/jwt"
	"chatterbox/internal/pkg/errs"
	"chatterbox/internal/pkg/logx"
	"chatterbox/internal/pkg/req"
	"chatterbox/internal/pkg/resp"
)

const (
	uploadPath = "/upload"
	listPath   = "/uploaded-files"
	// DownloadPath is the file store download endpoint; the file name goes in the "file" query parameter.
	DownloadPath = "/download"
)

// FileStore is the HTTP client of the chat server's file store.
type FileStore struct {
	base   *url.URL
	token  string
	client *http.Client
}

// NewFileStore creates a client for the file store of serverURL.
// Requests carry token as a bearer credential when it is not empty.
func NewFileStore(serverURL, token string) (*FileStore, error) {
	base, err := url.Parse(serverURL)
	if err != nil {
		return nil, errs.Wrap(errs.ErrInvalidParams, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, errs.NewError(errs.ErrInvalidParams)
	}

	return &FileStore{
		base:  base,
		token: token,
		client: &http.Client{
			Transport: &logx.Transport{Base: http.DefaultTransport},
		},
	}, nil
}

func (f *FileStore) do(r *http.Request) (*http.Response, error) {
	jwt.Apply(r.Header, f.token)
	return f.client.Do(r)
}

// List returns the names of all uploaded files.
func (f *FileStore) List(ctx context.Context) ([]string, error) {
	r, err := http.NewRequestWithContext(ctx, http.MethodGet, req.ResolveURL(f.base, listPath, nil), nil)
	if err != nil {
		return nil, errs.Wrap(errs.ErrFileListFailed, err)
	}
	r.Header.Set("Accept", "application/json")

	res, err := f.do(r)
	if err != nil {
		return nil, errs.Wrap(errs.ErrFileListFailed, err)
	}
	defer res.Body.Close()

	var names []string
	if err := resp.DecodeJSON(res, &names); err != nil {
		return nil, errs.Wrap(errs.ErrFileListFailed, err)
	}

	if names == nil {
		names = []string{}
	}
	return names, nil
}

// Upload posts u as a multipart form and returns the server's plaintext acknowledgement.
func (f *FileStore) Upload(ctx context.Context, u req.Upload) (string, error) {
	r, err := req.NewMultipartUpload(ctx, req.ResolveURL(f.base, uploadPath, nil), u)
	if err != nil {
		return "", errs.Wrap(errs.ErrFileUploadFailed, err)
	}

	res, err := f.do(r)
	if err != nil {
		return "", errs.Wrap(errs.ErrFileUploadFailed, err)
	}
	defer res.Body.Close()

	ack, err := resp.ReadText(res)
	if err != nil {
		return "", errs.Wrap(errs.ErrFileUploadFailed, err)
	}

	return ack, nil
}

// Open starts downloading the file name. The caller closes the returned body.
// size is -1 when the server does not announce it.
func (f *FileStore) Open(ctx context.Context, name string) (body io.ReadCloser, size int64, err error) {
	target := req.ResolveURL(f.base, DownloadPath, url.Values{"file": {name}})

	r, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, 0, errs.Wrap(errs.ErrFileDownloadFailed, err)
	}

	res, err := f.do(r)
	if err != nil {
		return nil, 0, errs.Wrap(errs.ErrFileDownloadFailed, err)
	}

	if err := resp.CheckStatus(res); err != nil {
		res.Body.Close()

		var statusErr *resp.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			return nil, 0, errs.Wrap(errs.ErrFileNotFound, err, name)
		}
		return nil, 0, errs.Wrap(errs.ErrFileDownloadFailed, err)
	}

	return res.Body, res.ContentLength, nil
}

// Download copies the file name into dst and returns its location there.
func (f *FileStore) Download(ctx context.Context, name string, dst Destination) (string, error) {
	body, size, err := f.Open(ctx, name)
	if err != nil {
		return "", err
	}
	defer body.Close()

	location, err := dst.Store(ctx, name, body, size)
	if err != nil {
		var customErr *errs.CustomError
		if errors.As(err, &customErr) {
			return "", err
		}
		return "", errs.Wrap(errs.ErrFileStorageFailed, err)
	}

	logx.Info("File downloaded", "file_name", name, "location", location)
	return location, nil
}
