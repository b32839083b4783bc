/*
Package jwt handles the optional bearer token the chat client presents to the server.

The client never holds the signing key, so tokens are parsed without signature
verification and only inspected for their expiry before being attached to the
WebSocket handshake and file store requests.
*/
package jwt

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt"
)

// Payload is the subset of claims the client reads from a token.
type Payload struct {
	jwt.StandardClaims

	// Username is the display name the server bound the token to, if any.
	Username string `json:"username,omitempty"`
}

// ErrTokenExpired is returned by Check for tokens past their expiry.
var ErrTokenExpired = errors.New("token expired")

// Parse decodes tokenString without verifying its signature.
func Parse(tokenString string) (*Payload, error) {
	claims := &Payload{}

	parser := &jwt.Parser{}
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	return claims, nil
}

// Expiry returns the token expiry, or the zero time when none is set.
func (p *Payload) Expiry() time.Time {
	if p.StandardClaims.ExpiresAt == 0 {
		return time.Time{}
	}
	return time.Unix(p.StandardClaims.ExpiresAt, 0)
}

// Check parses tokenString and reports ErrTokenExpired when it expired before now.
func Check(tokenString string, now time.Time) (*Payload, error) {
	payload, err := Parse(tokenString)
	if err != nil {
		return nil, err
	}

	if exp := payload.Expiry(); !exp.IsZero() && now.After(exp) {
		return payload, ErrTokenExpired
	}

	return payload, nil
}

// Header returns an http.Header carrying the token as a Bearer credential.
// An empty token yields an empty header.
func Header(tokenString string) http.Header {
	h := http.Header{}
	Apply(h, tokenString)
	return h
}

// Apply sets the Authorization header on h when tokenString is not empty.
func Apply(h http.Header, tokenString string) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return
	}
	h.Set("Authorization", "Bearer "+tokenString)
}
