/*
Package resp holds the HTTP response helpers of the chat client.

Writers (RespondJSON, RespondSuccess, RespondError) serve the local transcript
viewer's JSON API. Readers (DecodeJSON, ReadText) consume the file store's
responses with bounded reads.
*/
package resp

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"chatterbox/internal/pkg/errs"
	"chatterbox/internal/pkg/logx"
)

// MaxBodyBytes caps how much of a file store response body is read into memory.
const MaxBodyBytes int64 = 1 << 20

// JSONResponse is the envelope of every viewer API response.
type JSONResponse struct {
	// Code is 0 for success, otherwise an errs code.
	Code int `json:"code"`

	// Message is the client-friendly status description.
	Message string `json:"message"`

	// Data is the optional payload.
	Data any `json:"data,omitempty"`
}

// RespondJSON sets the Content-Type and sends payload with httpStatus.
func RespondJSON(w http.ResponseWriter, r *http.Request, httpStatus int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")

	response, err := json.Marshal(payload)
	if err != nil {
		logx.Error(err, "Error encoding JSON response", "http_status", httpStatus)

		http.Error(w, "Error encoding JSON response", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(httpStatus)
	w.Write(response)
}

// RespondSuccess sends data with HTTP 200.
func RespondSuccess(w http.ResponseWriter, r *http.Request, data any) {
	RespondJSON(w, r, http.StatusOK, JSONResponse{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// RespondError sends customErr with its HTTP status.
func RespondError(w http.ResponseWriter, r *http.Request, customErr *errs.CustomError) {
	if customErr == nil {
		customErr = errs.NewError(errs.ErrUnknown)
	}

	RespondJSON(w, r, customErr.Status, JSONResponse{
		Code:    customErr.Code,
		Message: customErr.Message,
	})
}

// DecodeJSON decodes a 2xx response body into dst.
// Non-2xx statuses return an error carrying the status and a body excerpt.
func DecodeJSON(res *http.Response, dst any) error {
	if err := CheckStatus(res); err != nil {
		return err
	}

	decoder := json.NewDecoder(io.LimitReader(res.Body, MaxBodyBytes))
	if err := decoder.Decode(dst); err != nil {
		return errs.Wrap(errs.ErrInvalidJSONFormat, err)
	}

	return nil
}

// ReadText reads a 2xx plaintext response body.
func ReadText(res *http.Response) (string, error) {
	if err := CheckStatus(res); err != nil {
		return "", err
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, MaxBodyBytes))
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(string(body)), nil
}

// StatusError describes a non-2xx response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// CheckStatus returns a *StatusError for non-2xx responses.
func CheckStatus(res *http.Response) error {
	if res.StatusCode >= 200 && res.StatusCode < 300 {
		return nil
	}

	excerpt, _ := io.ReadAll(io.LimitReader(res.Body, 512))
	return &StatusError{
		StatusCode: res.StatusCode,
		Body:       strings.TrimSpace(string(excerpt)),
	}
}
