package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repairshop-backend/internal/config"
	"repairshop-backend/internal/models"
)

func testManager() *JWTManager {
	cfg := &config.Config{}
	cfg.JWT.Secret = "unit-test-secret"
	cfg.JWT.Issuer = "repairshop-test"
	cfg.JWT.ExpirationHours = 1
	return NewJWTManager(cfg)
}

func TestSessionToken(t *testing.T) {
	m := testManager()
	user := &models.User{ID: uuid.New(), Email: "a@shop.test", Role: models.RoleSecretary}

	token, err := m.GenerateToken(user)
	require.NoError(t, err)

	claims, err := m.ValidateToken(token, PurposeSession)
	require.NoError(t, err)
	uid, err := claims.UID()
	require.NoError(t, err)
	assert.Equal(t, user.ID, uid)
	assert.Equal(t, "secretary", claims.Role)
	assert.NotEmpty(t, claims.ID)
	assert.True(t, claims.IssuedWithin(time.Minute, time.Now()))
	assert.False(t, claims.IssuedWithin(time.Minute, time.Now().Add(2*time.Minute)))

	_, err = m.ValidateToken(token, PurposeSignInLink)
	assert.ErrorIs(t, err, ErrWrongPurpose)
}

func TestLinkTokenCannotBeUsedAsSession(t *testing.T) {
	m := testManager()
	user := &models.User{ID: uuid.New(), Email: "b@shop.test"}

	link, err := m.GenerateLinkToken(user, PurposeVerifyEmail)
	require.NoError(t, err)

	_, err = m.ValidateToken(link, PurposeSession)
	assert.ErrorIs(t, err, ErrWrongPurpose)

	claims, err := m.ValidateToken(link, PurposeVerifyEmail)
	require.NoError(t, err)
	assert.Equal(t, "b@shop.test", claims.Email)
}

func TestTokenFromOtherSecretRejected(t *testing.T) {
	m := testManager()
	other := &config.Config{}
	other.JWT.Secret = "different"
	other.JWT.Issuer = "repairshop-test"
	other.JWT.ExpirationHours = 1

	token, err := NewJWTManager(other).GenerateToken(&models.User{ID: uuid.New()})
	require.NoError(t, err)
	_, err = m.ValidateToken(token, PurposeSession)
	assert.Error(t, err)
}

func TestInviteToken(t *testing.T) {
	m := testManager()
	inv := &models.PendingInvite{ID: uuid.New(), Email: "new@shop.test", Role: models.RoleWorker, ExpiresAt: time.Now().Add(time.Hour)}
	token, err := m.GenerateInviteToken(inv)
	require.NoError(t, err)

	claims, err := m.ValidateToken(token, PurposeInvite)
	require.NoError(t, err)
	assert.Equal(t, inv.ID.String(), claims.InviteID)
	assert.Equal(t, "worker", claims.Role)
}

func TestPasswords(t *testing.T) {
	_, err := HashPassword("short")
	assert.ErrorIs(t, err, ErrWeakPassword)

	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.True(t, VerifyPassword(hash, "correct horse"))
	assert.False(t, VerifyPassword(hash, "wrong"))
	assert.False(t, VerifyPassword("", ""))
}
