package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"repairshop-backend/internal/cache"
	"repairshop-backend/internal/metrics"
	"repairshop-backend/internal/models"
	"repairshop-backend/internal/realtime"
	"repairshop-backend/internal/repositories"
	"repairshop-backend/internal/timeutil"
)

// StaffService is the admin side of user management.
type StaffService struct {
	Users  UserStore
	Events realtime.Publisher
}

func NewStaffService(users UserStore, events realtime.Publisher) *StaffService {
	return &StaffService{Users: users, Events: events}
}

func (s *StaffService) List(ctx context.Context) ([]*models.User, error) {
	return s.Users.List(ctx)
}

func (s *StaffService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.Users.GetByID(ctx, id)
}

// Technicians returns the active technician roster.
func (s *StaffService) Technicians(ctx context.Context) ([]*models.User, error) {
	return s.Users.ListTechnicians(ctx)
}

// canManage keeps the ceo account out of reach of everyone but a ceo.
func canManage(actor, target *models.User) bool {
	if target.Role == models.RoleCEO && actor.Role != models.RoleCEO {
		return false
	}
	return true
}

// notify tells the roster and the affected account's own sessions.
func (s *StaffService) notify(ctx context.Context, u *models.User, event string) {
	cache.InvalidateUserCaches(ctx)
	if s.Events == nil {
		return
	}
	at := timeutil.Now()
	s.Events.Publish(ctx, realtime.Event{Topic: realtime.TopicUsers, Type: event, ID: u.ID.String(), At: at})
	// Suspended and deleted accounts lose their open streams.
	revoke := event == "deleted" || u.Status == models.UserStatusSuspended
	s.Events.Publish(ctx, realtime.Event{
		Topic:  realtime.UserTopic(u.ID),
		Type:   "session",
		ID:     u.ID.String(),
		Data:   map[string]interface{}{"event": event, "role": u.Role, "status": u.Status},
		At:     at,
		Revoke: revoke,
	})
}

// Update applies an admin edit. When the client sends a version the write
// only succeeds if nobody changed the record since.
func (s *StaffService) Update(ctx context.Context, id uuid.UUID, req models.UpdateUserRequest, actor *models.User) (*models.User, error) {
	u, err := s.Users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canManage(actor, u) {
		return nil, ErrForbidden
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
		}
		u.Name = name
	}
	if req.Role != nil {
		if !req.Role.Valid() {
			return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, *req.Role)
		}
		if *req.Role == models.RoleCEO && actor.Role != models.RoleCEO {
			return nil, ErrForbidden
		}
		u.Role = *req.Role
	}
	if req.IsTechnician != nil {
		u.IsTechnician = *req.IsTechnician
	}
	if req.IsAdminAccess != nil {
		u.IsAdminAccess = *req.IsAdminAccess
	}
	if req.BaseSalary != nil {
		if req.BaseSalary.IsNegative() {
			return nil, fmt.Errorf("%w: base salary must not be negative", ErrInvalidInput)
		}
		u.BaseSalary = *req.BaseSalary
	}
	if req.FixedPerJob != nil {
		if req.FixedPerJob.IsNegative() {
			return nil, fmt.Errorf("%w: fixed per job must not be negative", ErrInvalidInput)
		}
		u.FixedPerJob = *req.FixedPerJob
	}

	if err := s.Users.Update(ctx, u, req.Version); err != nil {
		if errors.Is(err, repositories.ErrVersionConflict) {
			metrics.VersionConflicts.WithLabelValues("user").Inc()
		}
		return nil, err
	}
	log.Printf("[Staff] %s updated %s (role %s)", actorName(actor), u.Email, u.Role)
	s.notify(ctx, u, "updated")
	return u, nil
}

// SetStatus suspends or reactivates an account. Suspended users are signed
// out on their next request and through their session topic.
func (s *StaffService) SetStatus(ctx context.Context, id uuid.UUID, status models.UserStatus, actor *models.User) (*models.User, error) {
	if status != models.UserStatusActive && status != models.UserStatusSuspended {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}
	if actor != nil && actor.ID == id {
		return nil, fmt.Errorf("%w: you cannot change your own status", ErrForbidden)
	}
	u, err := s.Users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canManage(actor, u) {
		return nil, ErrForbidden
	}
	if err := s.Users.SetStatus(ctx, id, status); err != nil {
		return nil, err
	}
	u.Status = status
	log.Printf("[Staff] %s set %s to %s", actorName(actor), u.Email, status)
	event := "reactivated"
	if status == models.UserStatusSuspended {
		event = "suspended"
	}
	s.notify(ctx, u, event)
	return u, nil
}

func (s *StaffService) Delete(ctx context.Context, id uuid.UUID, actor *models.User) error {
	if actor != nil && actor.ID == id {
		return fmt.Errorf("%w: you cannot delete your own account", ErrForbidden)
	}
	u, err := s.Users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !canManage(actor, u) {
		return ErrForbidden
	}
	if err := s.Users.Delete(ctx, id); err != nil {
		return err
	}
	log.Printf("[Staff] %s deleted %s", actorName(actor), u.Email)
	s.notify(ctx, u, "deleted")
	return nil
}
