package submissions

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/firstindallas/backend/internal/models"
)

func chicago(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/Chicago")
	require.NoError(t, err)
	return loc
}

func validInput() *Input {
	return &Input{
		Title:       "Jazz Night",
		Format:      models.FormatInPerson,
		City:        "Dallas",
		StartDate:   "2025-06-01T19:00",
		Description: "Live jazz",
	}
}

func TestValidateStep(t *testing.T) {
	loc := time.UTC
	tests := []struct {
		name  string
		step  int
		in    Input
		field string
		msg   string
	}{
		{"missing title", StepBasics, Input{Format: models.FormatOnline}, "title", "Event title is required"},
		{"blank title", StepBasics, Input{Title: "   ", Format: models.FormatOnline}, "title", "Event title is required"},
		{"markup-only title", StepBasics, Input{Title: "<script>alert(1)</script>", Format: models.FormatOnline}, "title", "Event title is required"},
		{"missing format", StepBasics, Input{Title: "x"}, "format", "Event format is required"},
		{"bad format", StepBasics, Input{Title: "x", Format: "party"}, "format", "Event format must be in-person, online or hybrid"},
		{"bad url", StepBasics, Input{Title: "x", Format: models.FormatOnline, PrimaryURL: "javascript:alert(1)"}, "primary_url", "Event URL must be a valid http(s) link"},
		{"missing city", StepDetails, Input{StartDate: "2025-06-01", Description: "d"}, "city", "City is required"},
		{"missing start", StepDetails, Input{City: "Dallas", Description: "d"}, "start_date", "Start date is required"},
		{"bad start", StepDetails, Input{City: "Dallas", StartDate: "June 1st", Description: "d"}, "start_date", "Start date is not a valid date"},
		{"end before start", StepDetails, Input{City: "Dallas", StartDate: "2025-06-02", EndDate: "2025-06-01", Description: "d"}, "end_date", "End date must be after the start date"},
		{"markup-only city", StepDetails, Input{City: "<b></b>", StartDate: "2025-06-01", Description: "d"}, "city", "City is required"},
		{"markup-only description", StepDetails, Input{City: "Dallas", StartDate: "2025-06-01", Description: "<script>x</script>"}, "description", "Description is required"},
		{"missing description", StepDetails, Input{City: "Dallas", StartDate: "2025-06-01"}, "description", "Description is required"},
		{"bad tier", StepTier, Input{SubmissionType: "gold"}, "submission_type", "Submission type must be free or paid"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := tt.in.ValidateStep(tt.step, loc)
			assert.Equal(t, tt.msg, errs[tt.field])
		})
	}
}

func TestValidateStep_TierHasNoRequiredFields(t *testing.T) {
	assert.Empty(t, (&Input{}).ValidateStep(StepTier, time.UTC))
}

func TestValidate_AllSteps(t *testing.T) {
	assert.Empty(t, validInput().Validate(time.UTC))

	errs := (&Input{}).Validate(time.UTC)
	assert.Len(t, errs, 5)
	assert.Contains(t, errs.Error(), "city: City is required")
}

func TestBuild_Defaults(t *testing.T) {
	loc := chicago(t)
	owner := uuid.New()
	in := validInput()
	in.Description = `<p>Live jazz</p><script>alert(1)</script>`
	s := in.Build(owner, loc)

	assert.Equal(t, owner, s.OrganizerID)
	assert.Equal(t, models.SubmissionPending, s.Status)
	assert.Equal(t, "USA", s.Country)
	assert.Equal(t, models.TierFree, s.PriceTier)
	assert.Equal(t, models.TierFree, s.SubmissionType)
	assert.Equal(t, time.Date(2025, 6, 1, 19, 0, 0, 0, loc), s.StartDate)
	assert.Nil(t, s.EndDate)
	assert.Equal(t, "<p>Live jazz</p>", s.Description)
}

func TestBuild_KeepsPaidChoiceAndRFC3339(t *testing.T) {
	in := validInput()
	in.SubmissionType = models.TierPaid
	in.StartDate = "2025-06-02T00:00:00Z"
	in.EndDate = "2025-06-02T03:00:00Z"
	s := in.Build(uuid.New(), chicago(t))

	assert.Equal(t, models.TierPaid, s.SubmissionType)
	assert.Equal(t, models.SubmissionPending, s.Status)
	assert.True(t, s.StartDate.Equal(time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)))
	require.NotNil(t, s.EndDate)
	assert.Equal(t, 3*time.Hour, s.EndDate.Sub(s.StartDate))
}
