package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"strings"
	"time"

	"repairshop-backend/internal/auth"
	"repairshop-backend/internal/cache"
	"repairshop-backend/internal/mailer"
	"repairshop-backend/internal/models"
	"repairshop-backend/internal/realtime"
	"repairshop-backend/internal/repositories"
	"repairshop-backend/internal/timeutil"
)

// AccountSettings carries the config the account flows need.
type AccountSettings struct {
	PublicURL   string
	ShopName    string
	RecentLogin time.Duration
}

type AuthService struct {
	Users      UserStore
	JWTManager *auth.JWTManager
	Mailer     mailer.Mailer
	Events     realtime.Publisher
	Settings   AccountSettings
}

func NewAuthService(users UserStore, jwtManager *auth.JWTManager, m mailer.Mailer, events realtime.Publisher, settings AccountSettings) *AuthService {
	if settings.RecentLogin <= 0 {
		settings.RecentLogin = 5 * time.Minute
	}
	return &AuthService{Users: users, JWTManager: jwtManager, Mailer: m, Events: events, Settings: settings}
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return "", fmt.Errorf("%w: invalid email address", ErrInvalidInput)
	}
	return email, nil
}

func (s *AuthService) session(u *models.User) (*models.AuthResponse, error) {
	token, err := s.JWTManager.GenerateToken(u)
	if err != nil {
		return nil, err
	}
	return &models.AuthResponse{Token: token, User: u}, nil
}

// Signup creates a pending account and mails a verification link. The very
// first account becomes the ceo so a fresh install can be administered.
func (s *AuthService) Signup(ctx context.Context, req *models.SignupRequest) (*models.AuthResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" || req.Password == "" {
		return nil, fmt.Errorf("%w: name, email, and password are required", ErrInvalidInput)
	}
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}
	if _, err := s.Users.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailInUse
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{Name: name, Email: email, PasswordHash: hash, Role: models.RolePending}
	if existing, err := s.Users.List(ctx); err == nil && len(existing) == 0 {
		user.Role = models.RoleCEO
		log.Printf("[Auth] Bootstrapping first account %s as ceo", email)
	}
	if err := s.Users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, ErrEmailInUse
		}
		return nil, err
	}
	if err := s.SendEmailVerification(ctx, user); err != nil {
		log.Printf("[Auth] Verification email to %s failed: %v", email, err)
	}
	cache.InvalidateUserCaches(ctx)
	s.publishUsers(ctx, "created", user)
	return s.session(user)
}

// Login authenticates a user and returns a JWT token
func (s *AuthService) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error) {
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrInvalidInput)
	}
	user, err := s.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrWrongPassword
		}
		return nil, err
	}
	if !auth.VerifyPassword(user.PasswordHash, req.Password) {
		return nil, ErrWrongPassword
	}
	if !user.IsActive() {
		return nil, ErrSuspended
	}
	return s.session(user)
}

func (s *AuthService) SendEmailVerification(ctx context.Context, user *models.User) error {
	token, err := s.JWTManager.GenerateLinkToken(user, auth.PurposeVerifyEmail)
	if err != nil {
		return err
	}
	link := mailer.Link(s.Settings.PublicURL, "/verify-email", token)
	return s.Mailer.Send(ctx, mailer.VerificationEmail(user.Email, user.Name, s.Settings.ShopName, link))
}

func (s *AuthService) userFromLink(ctx context.Context, token string, purpose auth.Purpose) (*models.User, *auth.Claims, error) {
	claims, err := s.JWTManager.ValidateToken(token, purpose)
	if err != nil {
		return nil, nil, err
	}
	if cache.IsDenied(ctx, claims.ID) {
		return nil, nil, auth.ErrInvalidToken
	}
	id, err := claims.UID()
	if err != nil {
		return nil, nil, auth.ErrInvalidToken
	}
	user, err := s.Users.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if !strings.EqualFold(user.Email, claims.Email) {
		return nil, nil, auth.ErrInvalidToken
	}
	return user, claims, nil
}

func (s *AuthService) VerifyEmail(ctx context.Context, token string) (*models.User, error) {
	user, _, err := s.userFromLink(ctx, token, auth.PurposeVerifyEmail)
	if err != nil {
		return nil, err
	}
	if !user.EmailVerified {
		if err := s.Users.MarkEmailVerified(ctx, user.ID); err != nil {
			return nil, err
		}
		user.EmailVerified = true
		s.publishUsers(ctx, "updated", user)
	}
	return user, nil
}

// SendSignInLink mails a passwordless sign-in link. Unknown addresses are
// ignored so the endpoint does not reveal which emails have accounts.
func (s *AuthService) SendSignInLink(ctx context.Context, email string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	user, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			log.Printf("[Auth] Sign-in link requested for unknown email %s", email)
			return nil
		}
		return err
	}
	if !user.IsActive() {
		return nil
	}
	token, err := s.JWTManager.GenerateLinkToken(user, auth.PurposeSignInLink)
	if err != nil {
		return err
	}
	link := mailer.Link(s.Settings.PublicURL, "/sign-in", token)
	return s.Mailer.Send(ctx, mailer.SignInLinkEmail(user.Email, s.Settings.ShopName, link))
}

// SignInWithEmailLink exchanges an emailed link for a session. Following the
// link proves ownership of the address.
func (s *AuthService) SignInWithEmailLink(ctx context.Context, token string) (*models.AuthResponse, error) {
	user, claims, err := s.userFromLink(ctx, token, auth.PurposeSignInLink)
	if err != nil {
		return nil, err
	}
	if !user.IsActive() {
		return nil, ErrSuspended
	}
	// Sign-in links are single use.
	cache.DenyToken(ctx, claims.ID, time.Until(claims.ExpiresAt.Time))
	if !user.EmailVerified {
		if err := s.Users.MarkEmailVerified(ctx, user.ID); err != nil {
			return nil, err
		}
		user.EmailVerified = true
	}
	return s.session(user)
}

// UpdatePassword needs a session issued within the recent-login window.
// Accounts that already have a password must also confirm it.
func (s *AuthService) UpdatePassword(ctx context.Context, user *models.User, claims *auth.Claims, req *models.UpdatePasswordRequest) error {
	if claims == nil || !claims.IssuedWithin(s.Settings.RecentLogin, timeutil.Now()) {
		return ErrRequiresRecentLogin
	}
	if user.PasswordHash != "" && !auth.VerifyPassword(user.PasswordHash, req.CurrentPassword) {
		return ErrWrongPassword
	}
	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	if err := s.Users.SetPassword(ctx, user.ID, hash); err != nil {
		return err
	}
	log.Printf("[Auth] Password updated for %s", user.Email)
	return nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, user *models.User, req *models.UpdateProfileRequest) (*models.User, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	updated := *user
	updated.Name = name
	if err := s.Users.Update(ctx, &updated, nil); err != nil {
		return nil, err
	}
	cache.InvalidateUserCaches(ctx)
	s.publishUsers(ctx, "updated", &updated)
	return &updated, nil
}

// SignOut denies the token until it would have expired.
// Websocket streams opened with the token are closed too.
func (s *AuthService) SignOut(ctx context.Context, claims *auth.Claims) {
	if claims == nil || claims.ExpiresAt == nil {
		return
	}
	cache.DenyToken(ctx, claims.ID, time.Until(claims.ExpiresAt.Time))
	uid, err := claims.UID()
	if err != nil || s.Events == nil {
		return
	}
	s.Events.Publish(ctx, realtime.Event{
		Topic:   realtime.UserTopic(uid),
		Type:    "signed_out",
		ID:      uid.String(),
		Revoke:  true,
		Session: claims.ID,
		At:      timeutil.Now(),
	})
}

// CurrentUser is the session view of the signed-in account.
func CurrentUser(u *models.User) models.SessionUser {
	return models.SessionUser{
		ID:             u.ID,
		Email:          u.Email,
		EmailVerified:  u.EmailVerified,
		Name:           u.Name,
		Role:           u.Role,
		HasAdminAccess: u.HasAdminAccess(),
		IsTechnician:   u.IsTechnician,
	}
}

func (s *AuthService) publishUsers(ctx context.Context, event string, u *models.User) {
	if s.Events != nil {
		s.Events.Publish(ctx, realtime.Event{Topic: realtime.TopicUsers, Type: event, ID: u.ID.String(), At: timeutil.Now()})
	}
}
