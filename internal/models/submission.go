package models

import (
	"time"

	"github.com/google/uuid"
)

// SubmissionStatus is the review state of an event submission.
type SubmissionStatus string

const (
	SubmissionPending   SubmissionStatus = "pending"
	SubmissionApproved  SubmissionStatus = "approved"
	SubmissionRejected  SubmissionStatus = "rejected"
	SubmissionPublished SubmissionStatus = "published"
)

// Valid reports whether s is a known status.
func (s SubmissionStatus) Valid() bool {
	switch s {
	case SubmissionPending, SubmissionApproved, SubmissionRejected, SubmissionPublished:
		return true
	}
	return false
}

// EventFormat is how an event is attended.
type EventFormat string

const (
	FormatInPerson EventFormat = "in-person"
	FormatOnline   EventFormat = "online"
	FormatHybrid   EventFormat = "hybrid"
)

// Valid reports whether f is a known format.
func (f EventFormat) Valid() bool {
	return f == FormatInPerson || f == FormatOnline || f == FormatHybrid
}

// Tier is used both for price tier and promotion tier (submission_type).
type Tier string

const (
	TierFree Tier = "free"
	TierPaid Tier = "paid"
)

// Valid reports whether t is free or paid.
func (t Tier) Valid() bool {
	return t == TierFree || t == TierPaid
}

// EventSubmission is an organizer's proposed event awaiting review.
type EventSubmission struct {
	ID                   uuid.UUID        `json:"id"`
	OrganizerID          uuid.UUID        `json:"organizer_id"`
	Title                string           `json:"title"`
	PrimaryURL           string           `json:"primary_url"`
	Format               EventFormat      `json:"format"`
	Country              string           `json:"country"`
	Venue                string           `json:"venue"`
	Address              string           `json:"address"`
	City                 string           `json:"city"`
	State                string           `json:"state"`
	ZipCode              string           `json:"zip_code"`
	StartDate            time.Time        `json:"start_date"`
	EndDate              *time.Time       `json:"end_date,omitempty"`
	Price                *float64         `json:"price,omitempty"`
	PriceTier            Tier             `json:"price_tier"`
	ImageURL             string           `json:"image_url"`
	Description          string           `json:"description"`
	OrganizerContact     string           `json:"organizer_contact"`
	SubmissionType       Tier             `json:"submission_type"`
	Status               SubmissionStatus `json:"status"`
	AdminNotes           *string          `json:"admin_notes,omitempty"`
	CMSEventID           *int64           `json:"cms_event_id,omitempty"`
	SyncedToCMS          bool             `json:"synced_to_cms"`
	PublishedToWordPress bool             `json:"published_to_wordpress"`
	PublishedAt          *time.Time       `json:"published_at,omitempty"`
	CreatedAt            time.Time        `json:"created_at"`
	UpdatedAt            time.Time        `json:"updated_at"`
}

// SubmissionStatusCounts holds per-status totals for dashboards.
type SubmissionStatusCounts struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Approved  int `json:"approved"`
	Published int `json:"published"`
	Rejected  int `json:"rejected"`
}
