package resp

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatterbox/internal/pkg/errs"
)

func response(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestRespondSuccess(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondSuccess(rec, httptest.NewRequest(http.MethodGet, "/", nil), []string{"a.txt"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body JSONResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 0, body.Code)
	assert.Equal(t, []any{"a.txt"}, body.Data)
}

func TestRespondError(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, httptest.NewRequest(http.MethodGet, "/", nil), errs.NewError(errs.ErrFileNotFound, "x"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":4004`)
}

func TestRespondError_NilIsUnknown(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, httptest.NewRequest(http.MethodGet, "/", nil), nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestDecodeJSON(t *testing.T) {
	var files []string
	require.NoError(t, DecodeJSON(response(200, `["a.txt","b.png"]`), &files))
	assert.Equal(t, []string{"a.txt", "b.png"}, files)
}

func TestDecodeJSON_Malformed(t *testing.T) {
	var files []string
	err := DecodeJSON(response(200, `not json`), &files)

	assert.Equal(t, errs.ErrInvalidJSONFormat, errs.Code(err))
}

func TestDecodeJSON_BadStatus(t *testing.T) {
	var files []string
	err := DecodeJSON(response(500, "Unable to read upload directory\n"), &files)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, 500, statusErr.StatusCode)
	assert.Equal(t, "Unable to read upload directory", statusErr.Body)
}

func TestReadText(t *testing.T) {
	text, err := ReadText(response(200, "File uploaded successfully"))
	require.NoError(t, err)
	assert.Equal(t, "File uploaded successfully", text)
}
