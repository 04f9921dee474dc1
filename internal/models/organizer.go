package models

import (
	"time"

	"github.com/google/uuid"
)

// Organizer is the profile of a user who submits events. ID equals the user ID.
type Organizer struct {
	ID               uuid.UUID `json:"id"`
	Email            string    `json:"email"`
	FullName         string    `json:"full_name"`
	OrganizationName string    `json:"organization_name"`
	Phone            string    `json:"phone"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// OrganizerSummary is an organizer with submission counts for the admin roll-up.
type OrganizerSummary struct {
	Organizer
	TotalSubmissions int        `json:"total_submissions"`
	Pending          int        `json:"pending"`
	Published        int        `json:"published"`
	Rejected         int        `json:"rejected"`
	LastSubmittedAt  *time.Time `json:"last_submitted_at,omitempty"`
}
