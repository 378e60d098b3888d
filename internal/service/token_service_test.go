package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/enrollment-api/internal/models"
)

func TestTokenServiceRoundTrip(t *testing.T) {
	svc := NewTokenService(TokenConfig{Secret: "secret", Issuer: "enrollment-api", Audience: []string{"students"}, Expiry: time.Minute})

	token, expiresAt, err := svc.Issue("stu-1", models.RoleStudent, "Ali Rezaei")
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "stu-1", claims.UserID)
	assert.Equal(t, models.RoleStudent, claims.Role)
}

func TestTokenServiceRejectsForeignTokens(t *testing.T) {
	svc := NewTokenService(TokenConfig{Secret: "secret", Issuer: "enrollment-api"})

	other := NewTokenService(TokenConfig{Secret: "other"})
	token, _, err := other.Issue("stu-1", models.RoleAdmin, "")
	require.NoError(t, err)
	_, err = svc.ValidateToken(token)
	assert.Error(t, err)

	wrongIssuer := NewTokenService(TokenConfig{Secret: "secret", Issuer: "someone-else"})
	token, _, err = wrongIssuer.Issue("stu-1", models.RoleAdmin, "")
	require.NoError(t, err)
	_, err = svc.ValidateToken(token)
	assert.Error(t, err)

	_, err = svc.ValidateToken("not-a-token")
	assert.Error(t, err)
}

func TestTokenServiceRejectsExpiredTokens(t *testing.T) {
	svc := NewTokenService(TokenConfig{Secret: "secret"})
	svc.config.Expiry = -time.Minute

	token, _, err := svc.Issue("stu-1", models.RoleStudent, "")
	require.NoError(t, err)
	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}
