package handler

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path"
	"strconv"

	"github.com/rs/zerolog"

	"chatterbox/internal/pkg/errs"
	"chatterbox/internal/pkg/resp"
)

// HandleDownload proxies GET /download?file=<name> to the chat server's file store.
func HandleDownload(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Query().Get("file")
		if name == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		if deps.Files == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrFileNotFound, name))
			return
		}

		body, size, err := deps.Files.Open(r.Context(), name)
		if err != nil {
			var customErr *errs.CustomError
			if !errors.As(err, &customErr) {
				customErr = errs.Wrap(errs.ErrFileDownloadFailed, err)
			}
			zerolog.Ctx(r.Context()).Warn().Err(err).Str("file_name", name).Msg("Download proxy failed")
			resp.RespondError(w, r, customErr)
			return
		}
		defer body.Close()

		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
			"filename": path.Base("/" + name),
		}))
		w.Header().Set("X-Content-Type-Options", "nosniff")
		if size >= 0 {
			w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
		}

		if _, err := io.Copy(w, body); err != nil {
			zerolog.Ctx(r.Context()).Warn().Err(err).Str("file_name", name).Msg("Download proxy interrupted")
		}
	}
}
