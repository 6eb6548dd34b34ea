package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"repairshop-backend/internal/models"
	"repairshop-backend/internal/realtime"
	"repairshop-backend/internal/timeutil"
)

type IssueService struct {
	Issues IssueStore
	Events realtime.Publisher
}

func NewIssueService(issues IssueStore, events realtime.Publisher) *IssueService {
	return &IssueService{Issues: issues, Events: events}
}

func (s *IssueService) Report(ctx context.Context, req models.IssueReportRequest, actor *models.User) (*models.IssueReport, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	i := &models.IssueReport{
		Title:        title,
		Description:  strings.TrimSpace(req.Description),
		OrderID:      req.OrderID,
		ReportedBy:   actorID(actor),
		ReporterName: actorName(actor),
	}
	if err := s.Issues.Create(ctx, i); err != nil {
		return nil, err
	}
	s.changed(ctx, "created", i.ID)
	return i, nil
}

func (s *IssueService) List(ctx context.Context, status models.IssueStatus) ([]*models.IssueReport, error) {
	if status != "" && status != models.IssueStatusOpen && status != models.IssueStatusResolved {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}
	return s.Issues.List(ctx, status)
}

func (s *IssueService) Resolve(ctx context.Context, id uuid.UUID, req models.ResolveIssueRequest, actor *models.User) (*models.IssueReport, error) {
	i, err := s.Issues.Resolve(ctx, id, strings.TrimSpace(req.Resolution), actorID(actor), timeutil.Now())
	if err != nil {
		return nil, err
	}
	s.changed(ctx, "resolved", i.ID)
	return i, nil
}

func (s *IssueService) changed(ctx context.Context, event string, id uuid.UUID) {
	if s.Events != nil {
		s.Events.Publish(ctx, realtime.Event{Topic: realtime.TopicIssues, Type: event, ID: id.String(), At: timeutil.Now()})
	}
}
