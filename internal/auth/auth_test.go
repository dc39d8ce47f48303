package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SATYAJEET323/EduBot/internal/config"
)

func TestMain(m *testing.M) {
	config.AppConfig = config.Config{
		JWTSecret: "test-secret",
		TokenTTL:  time.Hour,
	}
	m.Run()
}

func TestJWTRoundTrip(t *testing.T) {
	token, err := GenerateJWT(42)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	subject, err := ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "42", subject)
}

func TestValidateJWTRejectsGarbage(t *testing.T) {
	_, err := ValidateJWT("not.a.token")
	assert.Error(t, err)
}

func TestValidateJWTRejectsWrongSecret(t *testing.T) {
	token, err := GenerateJWT(42)
	require.NoError(t, err)

	config.AppConfig.JWTSecret = "different-secret"
	defer func() { config.AppConfig.JWTSecret = "test-secret" }()

	_, err = ValidateJWT(token)
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery staple", hash)

	assert.True(t, CheckPasswordHash("correct horse battery staple", hash))
	assert.False(t, CheckPasswordHash("wrong password", hash))
}
