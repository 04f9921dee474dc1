package models

import "time"

// EventStatus is the CMS publication state of a live event.
type EventStatus string

const (
	EventDraft     EventStatus = "DRAFT"
	EventPublished EventStatus = "PUBLISHED"
)

// Event categories assigned on promotion.
const (
	CategoryFeatured = "FEATURED"
	CategoryStandard = "STANDARD"
)

// SourceOrganizerSubmission marks events promoted from the hub.
const SourceOrganizerSubmission = "ORGANIZER_SUBMISSION"

// Event is a live calendar entry owned by the CMS.
type Event struct {
	ID                   int64       `json:"id,omitempty"`
	Title                string      `json:"title"`
	PrimaryURL           string      `json:"primary_url,omitempty"`
	Country              string      `json:"country,omitempty"`
	Venue                string      `json:"venue,omitempty"`
	Address              string      `json:"address,omitempty"`
	City                 string      `json:"city,omitempty"`
	State                string      `json:"state,omitempty"`
	ZipCode              string      `json:"zip_code,omitempty"`
	StartAt              time.Time   `json:"start_at"`
	EndAt                *time.Time  `json:"end_at,omitempty"`
	PriceTier            string      `json:"price_tier,omitempty"`
	PriceAmount          *float64    `json:"price_amount,omitempty"`
	Description          string      `json:"description,omitempty"`
	ImageURL             string      `json:"image_url,omitempty"`
	Status               EventStatus `json:"status,omitempty"`
	Category             string      `json:"category,omitempty"`
	SourceType           string      `json:"source_type,omitempty"`
	SourceURL            string      `json:"source_url,omitempty"`
	Format               string      `json:"format,omitempty"`
	PublishedToWordPress bool        `json:"published_to_wordpress,omitempty"`
	CreatedAt            *time.Time  `json:"created_at,omitempty"`
}

// IsFree reports whether the event is listed as free.
func (e Event) IsFree() bool {
	return e.PriceTier == "" || e.PriceTier == "FREE"
}
