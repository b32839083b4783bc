/*
Package logx provides a structured logging wrapper based on zerolog.

This file holds the HTTP side of logging: a chi middleware for the local
transcript viewer and a client RoundTripper for calls made to the file store.
*/
package logx

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// RequestLogger returns an HTTP middleware that logs each viewer request.
// A request-scoped logger is injected into the request context.
func RequestLogger() func(next http.Handler) http.Handler {
	baseLogger := Component("viewer")

	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			logger := baseLogger.With().
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("request_method", r.Method).
				Str("request_uri", r.RequestURI).
				Logger()

			r = r.WithContext(logger.WithContext(r.Context()))

			t1 := time.Now()
			next.ServeHTTP(ww, r)

			logEvent := levelFor(&logger, ww.Status())
			logEvent.
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("latency", time.Since(t1)).
				Msg("Request completed")
		}

		return http.HandlerFunc(fn)
	}
}

// Transport wraps an http.RoundTripper and logs every outgoing request
// with its status and latency. A nil base uses http.DefaultTransport.
type Transport struct {
	Base http.RoundTripper
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(r *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	logger := Component("filestore").With().
		Str("request_method", r.Method).
		Str("request_url", r.URL.Redacted()).
		Logger()

	t1 := time.Now()
	res, err := base.RoundTrip(r)
	if err != nil {
		logger.Warn().Err(err).Dur("latency", time.Since(t1)).Msg("Request failed")
		return nil, err
	}

	levelFor(&logger, res.StatusCode).
		Int("status", res.StatusCode).
		Int64("bytes", res.ContentLength).
		Dur("latency", time.Since(t1)).
		Msg("Request completed")

	return res, nil
}

func levelFor(logger *zerolog.Logger, status int) *zerolog.Event {
	switch {
	case status >= 500:
		return logger.Error()
	case status >= 400:
		return logger.Warn()
	default:
		return logger.Debug()
	}
}
