package submissions

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/firstindallas/backend/internal/models"
)

func TestToEvent(t *testing.T) {
	price := 25.0
	start := time.Date(2025, 6, 1, 19, 0, 0, 0, time.UTC)
	s := &models.EventSubmission{
		ID:             uuid.New(),
		Title:          "Jazz Night",
		PrimaryURL:     "https://example.com/jazz",
		Format:         models.FormatInPerson,
		City:           "Dallas",
		StartDate:      start,
		Price:          &price,
		PriceTier:      models.TierPaid,
		Description:    "Live jazz",
		SubmissionType: models.TierPaid,
	}
	e := ToEvent(s)

	assert.Equal(t, "Jazz Night", e.Title)
	assert.Equal(t, "USA", e.Country)
	assert.Equal(t, start, e.StartAt)
	assert.Equal(t, "PAID", e.PriceTier)
	assert.Equal(t, &price, e.PriceAmount)
	assert.Equal(t, models.EventPublished, e.Status)
	assert.Equal(t, models.CategoryFeatured, e.Category)
	assert.Equal(t, models.SourceOrganizerSubmission, e.SourceType)
	assert.Equal(t, "IN_PERSON", e.Format)
	assert.Equal(t, "https://example.com/jazz", e.SourceURL)
}

func TestToEvent_FreeTierIsStandard(t *testing.T) {
	e := ToEvent(&models.EventSubmission{Title: "x", SubmissionType: models.TierFree, Format: models.FormatOnline})
	assert.Equal(t, models.CategoryStandard, e.Category)
	assert.Equal(t, "FREE", e.PriceTier)
	assert.Equal(t, "ONLINE", e.Format)

	e = ToEvent(&models.EventSubmission{Title: "x"})
	assert.Equal(t, models.CategoryStandard, e.Category)
	assert.Equal(t, "IN_PERSON", e.Format)
}

func TestIdempotencyKey(t *testing.T) {
	id := uuid.MustParse("6f1c0f3e-1d7a-4b55-9a57-1a0e6f7d2b10")
	assert.Equal(t, "submission-6f1c0f3e-1d7a-4b55-9a57-1a0e6f7d2b10", IdempotencyKey(&models.EventSubmission{ID: id}))
}
