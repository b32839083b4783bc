package jwt

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signed(t *testing.T, exp time.Time) string {
	t.Helper()

	claims := &Payload{
		StandardClaims: jwt.StandardClaims{ExpiresAt: exp.Unix(), Issuer: "chat"},
		Username:       "Brave Curie",
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)
	return token
}

func TestParse(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)

	payload, err := Parse(signed(t, exp))
	require.NoError(t, err)

	assert.Equal(t, "Brave Curie", payload.Username)
	assert.True(t, exp.Equal(payload.Expiry()))
}

func TestParse_Garbage(t *testing.T) {
	_, err := Parse("not-a-token")
	assert.Error(t, err)
}

func TestCheck_Expired(t *testing.T) {
	token := signed(t, time.Now().Add(-time.Minute))

	_, err := Check(token, time.Now())
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestCheck_Valid(t *testing.T) {
	_, err := Check(signed(t, time.Now().Add(time.Minute)), time.Now())
	assert.NoError(t, err)
}

func TestHeader(t *testing.T) {
	assert.Equal(t, "Bearer abc", Header("abc").Get("Authorization"))
	assert.Empty(t, Header("  ").Get("Authorization"))
}
