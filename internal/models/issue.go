package models

import "time"

// IssueStatus tracks the lifecycle of a reported issue.
type IssueStatus string

const (
	IssueStatusPending    IssueStatus = "PENDING"
	IssueStatusInProgress IssueStatus = "IN_PROGRESS"
	IssueStatusResolved   IssueStatus = "RESOLVED"
)

// Valid returns true when the status is a supported value.
func (s IssueStatus) Valid() bool {
	switch s {
	case IssueStatusPending, IssueStatusInProgress, IssueStatusResolved:
		return true
	default:
		return false
	}
}

// Issue is a free-standing support ticket with its own lifecycle.
type Issue struct {
	ID            string      `db:"id" json:"id"`
	Type          string      `db:"type" json:"type"`
	Description   string      `db:"description" json:"description"`
	Status        IssueStatus `db:"status" json:"status"`
	Anonymous     bool        `db:"anonymous" json:"anonymous"`
	ReporterID    *string     `db:"reporter_id" json:"reporter_id,omitempty"`
	AdminResponse *string     `db:"admin_response" json:"admin_response,omitempty"`
	CreatedAt     time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time   `db:"updated_at" json:"updated_at"`
}

// CreateIssueRequest files a new issue report.
type CreateIssueRequest struct {
	Type        string `json:"type" validate:"required"`
	Description string `json:"description" validate:"required"`
	Anonymous   bool   `json:"anonymous"`
}

// UpdateIssueRequest transitions an issue's status with an optional
// admin response.
type UpdateIssueRequest struct {
	Status        IssueStatus `json:"status" validate:"required"`
	AdminResponse *string     `json:"admin_response,omitempty"`
}

// IssueFilter scopes issue listing.
type IssueFilter struct {
	Status     *IssueStatus
	ReporterID string
	Page       int
	PageSize   int
}
