package auth

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	mgr := NewManager("test-secret", time.Hour)

	token, err := mgr.Generate("alice")
	require.NoError(t, err)

	claims, err := mgr.Validate(token)
	require.NoError(t, err)
	require.Equal(t, "alice", claims.Label)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	token, err := NewManager("secret-a", time.Hour).Generate("alice")
	require.NoError(t, err)

	_, err = NewManager("secret-b", time.Hour).Validate(token)
	require.Error(t, err)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	token, err := NewManager("test-secret", -time.Minute).Generate("alice")
	require.NoError(t, err)

	_, err = NewManager("test-secret", -time.Minute).Validate(token)
	require.Error(t, err)
}

func TestTokenFromRequest(t *testing.T) {
	r := httptest.NewRequest("GET", "/ws", nil)
	r.Header.Set("Authorization", "Bearer abc123")
	require.Equal(t, "abc123", TokenFromRequest(r))

	r = httptest.NewRequest("GET", "/ws?token=xyz789", nil)
	require.Equal(t, "xyz789", TokenFromRequest(r))

	r = httptest.NewRequest("GET", "/ws", nil)
	require.Empty(t, TokenFromRequest(r))
}
