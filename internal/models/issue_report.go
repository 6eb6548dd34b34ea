package models

import (
	"time"

	"github.com/google/uuid"
)

type IssueStatus string

const (
	IssueStatusOpen     IssueStatus = "open"
	IssueStatusResolved IssueStatus = "resolved"
)

type IssueReport struct {
	ID           uuid.UUID   `json:"id"`
	Title        string      `json:"title"`
	Description  string      `json:"description"`
	OrderID      *uuid.UUID  `json:"order_id,omitempty"`
	Status       IssueStatus `json:"status"`
	ReportedBy   *uuid.UUID  `json:"reported_by,omitempty"`
	ReporterName string      `json:"reporter_name,omitempty"`
	Resolution   string      `json:"resolution,omitempty"`
	ResolvedBy   *uuid.UUID  `json:"resolved_by,omitempty"`
	ResolvedAt   *time.Time  `json:"resolved_at,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
}

type IssueReportRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	OrderID     *uuid.UUID `json:"order_id,omitempty"`
}

type ResolveIssueRequest struct {
	Resolution string `json:"resolution"`
}
