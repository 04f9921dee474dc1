package submissions

import (
	"strings"

	"github.com/firstindallas/backend/internal/models"
)

// ToEvent builds the live event created when s is approved.
func ToEvent(s *models.EventSubmission) models.Event {
	e := models.Event{
		Title:       s.Title,
		PrimaryURL:  s.PrimaryURL,
		Country:     s.Country,
		Venue:       s.Venue,
		Address:     s.Address,
		City:        s.City,
		State:       s.State,
		ZipCode:     s.ZipCode,
		StartAt:     s.StartDate,
		EndAt:       s.EndDate,
		PriceTier:   strings.ToUpper(string(s.PriceTier)),
		PriceAmount: s.Price,
		Description: s.Description,
		ImageURL:    s.ImageURL,
		Status:      models.EventPublished,
		Category:    models.CategoryStandard,
		SourceType:  models.SourceOrganizerSubmission,
		SourceURL:   s.PrimaryURL,
		Format:      strings.ReplaceAll(strings.ToUpper(string(s.Format)), "-", "_"),
	}
	if e.Country == "" {
		e.Country = "USA"
	}
	if e.PriceTier == "" {
		e.PriceTier = "FREE"
	}
	if e.Format == "" {
		e.Format = "IN_PERSON"
	}
	if s.SubmissionType == models.TierPaid {
		e.Category = models.CategoryFeatured
	}
	return e
}

// IdempotencyKey identifies the CMS create for one submission across retries.
func IdempotencyKey(s *models.EventSubmission) string {
	return "submission-" + s.ID.String()
}
