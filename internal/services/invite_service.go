package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"repairshop-backend/internal/auth"
	"repairshop-backend/internal/cache"
	"repairshop-backend/internal/mailer"
	"repairshop-backend/internal/models"
	"repairshop-backend/internal/repositories"
	"repairshop-backend/internal/timeutil"
)

type InviteService struct {
	Invites    InviteStore
	Users      UserStore
	JWTManager *auth.JWTManager
	Mailer     mailer.Mailer
	Settings   AccountSettings
}

func NewInviteService(invites InviteStore, users UserStore, jwtManager *auth.JWTManager, m mailer.Mailer, settings AccountSettings) *InviteService {
	return &InviteService{Invites: invites, Users: users, JWTManager: jwtManager, Mailer: m, Settings: settings}
}

// Create replaces any open invite for the address and mails a new link.
func (s *InviteService) Create(ctx context.Context, req models.CreateInviteRequest, actor *models.User) (*models.PendingInvite, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}
	if !req.Role.Valid() || req.Role == models.RolePending {
		return nil, fmt.Errorf("%w: invite role must be worker, secretary, admin or ceo", ErrInvalidInput)
	}
	if req.Role == models.RoleCEO && (actor == nil || actor.Role != models.RoleCEO) {
		return nil, ErrForbidden
	}
	if _, err := s.Users.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailInUse
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}
	if err := s.Invites.RevokeOpen(ctx, email); err != nil {
		return nil, err
	}

	inv := &models.PendingInvite{
		ID:        uuid.New(),
		Email:     email,
		Role:      req.Role,
		InvitedBy: actorID(actor),
		ExpiresAt: timeutil.Now().Add(s.JWTManager.LinkTTL()),
	}
	if err := s.Invites.Create(ctx, inv); err != nil {
		return nil, err
	}
	token, err := s.JWTManager.GenerateInviteToken(inv)
	if err != nil {
		return nil, err
	}
	link := mailer.Link(s.Settings.PublicURL, "/accept-invite", token)
	if err := s.Mailer.Send(ctx, mailer.InviteEmail(email, string(req.Role), s.Settings.ShopName, link)); err != nil {
		log.Printf("[Invites] Mail to %s failed: %v", email, err)
		return nil, fmt.Errorf("send invite: %w", err)
	}
	log.Printf("[Invites] %s invited %s as %s", actorName(actor), email, req.Role)
	return inv, nil
}

// Accept turns an invite into an active, verified account with the invited role.
func (s *InviteService) Accept(ctx context.Context, req models.AcceptInviteRequest) (*models.AuthResponse, error) {
	claims, err := s.JWTManager.ValidateToken(req.Token, auth.PurposeInvite)
	if err != nil {
		return nil, ErrInviteInvalid
	}
	inviteID, err := uuid.Parse(claims.InviteID)
	if err != nil {
		return nil, ErrInviteInvalid
	}
	inv, err := s.Invites.Get(ctx, inviteID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInviteInvalid
		}
		return nil, err
	}
	now := timeutil.Now()
	if inv.AcceptedAt != nil || !now.Before(inv.ExpiresAt) || !strings.EqualFold(inv.Email, claims.Email) {
		return nil, ErrInviteInvalid
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Name:          name,
		Email:         inv.Email,
		PasswordHash:  hash,
		Role:          inv.Role,
		Status:        models.UserStatusActive,
		EmailVerified: true,
		IsTechnician:  inv.Role == models.RoleWorker,
	}
	if err := s.Users.CreateFromInvite(ctx, inv.ID, user, now); err != nil {
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			return nil, ErrInviteInvalid
		case errors.Is(err, repositories.ErrDuplicate):
			return nil, ErrEmailInUse
		}
		return nil, err
	}
	cache.InvalidateUserCaches(ctx)
	log.Printf("[Invites] %s accepted invite as %s", user.Email, user.Role)

	token, err := s.JWTManager.GenerateToken(user)
	if err != nil {
		return nil, err
	}
	return &models.AuthResponse{Token: token, User: user}, nil
}

func (s *InviteService) ListOpen(ctx context.Context) ([]*models.PendingInvite, error) {
	return s.Invites.ListOpen(ctx, timeutil.Now())
}

func (s *InviteService) Revoke(ctx context.Context, id uuid.UUID) error {
	return s.Invites.Delete(ctx, id)
}
