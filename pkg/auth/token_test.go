package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	signer, err := NewSigner([]byte("test-secret"), "bidhub", time.Hour)
	require.NoError(t, err)

	token, err := signer.GenerateToken(42, "Alice")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := signer.ValidateToken(token)
	require.NoError(t, err)

	assert.Equal(t, "Alice", claims.Name)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}

func TestNewSigner_EmptySecret(t *testing.T) {
	_, err := NewSigner(nil, "bidhub", time.Hour)
	assert.Error(t, err)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	signer, err := NewSigner([]byte("secret-a"), "bidhub", time.Hour)
	require.NoError(t, err)
	other, err := NewSigner([]byte("secret-b"), "bidhub", time.Hour)
	require.NoError(t, err)

	token, err := signer.GenerateToken(1, "Bob")
	require.NoError(t, err)

	_, err = other.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateToken_Expired(t *testing.T) {
	signer, err := NewSigner([]byte("test-secret"), "bidhub", time.Nanosecond)
	require.NoError(t, err)

	token, err := signer.GenerateToken(1, "Bob")
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	_, err = signer.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateToken_Garbage(t *testing.T) {
	signer, err := NewSigner([]byte("test-secret"), "bidhub", time.Hour)
	require.NoError(t, err)

	_, err = signer.ValidateToken("not.a.token")
	assert.Error(t, err)
}
