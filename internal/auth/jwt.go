package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"repairshop-backend/internal/config"
	"repairshop-backend/internal/models"
	"repairshop-backend/internal/timeutil"
)

// Purpose separates session tokens from the single-use links sent by email.
type Purpose string

const (
	PurposeSession     Purpose = "session"
	PurposeVerifyEmail Purpose = "verify_email"
	PurposeSignInLink  Purpose = "sign_in_link"
	PurposeInvite      Purpose = "invite"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrWrongPurpose = errors.New("invalid token type")
)

type Claims struct {
	UserID  string  `json:"user_id,omitempty"`
	Email   string  `json:"email"`
	Role    string  `json:"role,omitempty"`
	Purpose Purpose `json:"purpose"`
	// InviteID is set on invitation tokens only.
	InviteID string `json:"invite_id,omitempty"`
	jwt.RegisteredClaims
}

// UID parses the subject user id.
func (c *Claims) UID() (uuid.UUID, error) {
	return uuid.Parse(c.UserID)
}

// IssuedWithin reports whether the token was issued less than d ago.
func (c *Claims) IssuedWithin(d time.Duration, now time.Time) bool {
	if c.IssuedAt == nil {
		return false
	}
	return now.Sub(c.IssuedAt.Time) <= d
}

type JWTManager struct {
	cfg *config.Config
}

func NewJWTManager(cfg *config.Config) *JWTManager {
	return &JWTManager{cfg: cfg}
}

func (j *JWTManager) sign(claims *Claims, ttl time.Duration) (string, error) {
	now := timeutil.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		Issuer:    j.cfg.JWT.Issuer,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(j.cfg.JWT.Secret))
}

// GenerateToken creates a session token for a user
func (j *JWTManager) GenerateToken(user *models.User) (string, error) {
	return j.sign(&Claims{
		UserID:  user.ID.String(),
		Email:   user.Email,
		Role:    string(user.Role),
		Purpose: PurposeSession,
	}, time.Duration(j.cfg.JWT.ExpirationHours)*time.Hour)
}

// GenerateLinkToken creates a token for an emailed verification or sign-in link.
func (j *JWTManager) GenerateLinkToken(user *models.User, purpose Purpose) (string, error) {
	return j.sign(&Claims{
		UserID:  user.ID.String(),
		Email:   user.Email,
		Purpose: purpose,
	}, j.linkTTL())
}

// GenerateInviteToken creates the token carried by a staff invitation email.
func (j *JWTManager) GenerateInviteToken(invite *models.PendingInvite) (string, error) {
	return j.sign(&Claims{
		Email:    invite.Email,
		Role:     string(invite.Role),
		Purpose:  PurposeInvite,
		InviteID: invite.ID.String(),
	}, time.Until(invite.ExpiresAt))
}

func (j *JWTManager) linkTTL() time.Duration {
	hours := j.cfg.JWT.LinkExpiryHours
	if hours <= 0 {
		hours = 72
	}
	return time.Duration(hours) * time.Hour
}

// LinkTTL is how long emailed links stay valid.
func (j *JWTManager) LinkTTL() time.Duration {
	return j.linkTTL()
}

// ValidateToken verifies a JWT and checks it was issued for purpose.
func (j *JWTManager) ValidateToken(tokenString string, purpose Purpose) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Verify signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(j.cfg.JWT.Secret), nil
	}, jwt.WithIssuer(j.cfg.JWT.Issuer))

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Purpose != purpose {
		return nil, ErrWrongPurpose
	}
	return claims, nil
}
