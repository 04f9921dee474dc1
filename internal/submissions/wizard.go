package submissions

import (
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/firstindallas/backend/internal/models"
	"github.com/firstindallas/backend/pkg/sanitize"
)

// Wizard steps.
const (
	StepBasics  = 1
	StepDetails = 2
	StepTier    = 3
)

// ValidationErrors maps a field name to its message.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+v[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (v ValidationErrors) add(field, msg string) {
	if _, ok := v[field]; !ok {
		v[field] = msg
	}
}

// dateLayouts are tried in order; the zone-less forms are read in the directory's zone.
var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02"}

func parseDate(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Input is the organizer's wizard payload.
type Input struct {
	// step 1
	Title      string             `json:"title"`
	PrimaryURL string             `json:"primary_url"`
	Format     models.EventFormat `json:"format"`
	Country    string             `json:"country"`
	// step 2
	Venue            string      `json:"venue"`
	Address          string      `json:"address"`
	City             string      `json:"city"`
	State            string      `json:"state"`
	ZipCode          string      `json:"zip_code"`
	StartDate        string      `json:"start_date"`
	EndDate          string      `json:"end_date"`
	Price            *float64    `json:"price"`
	PriceTier        models.Tier `json:"price_tier"`
	ImageURL         string      `json:"image_url"`
	Description      string      `json:"description"`
	OrganizerContact string      `json:"organizer_contact"`
	// step 3
	SubmissionType models.Tier `json:"submission_type"`
}

// ValidateStep checks the fields owned by one wizard step. Required text is
// checked in its stored, sanitized form.
func (in *Input) ValidateStep(step int, loc *time.Location) ValidationErrors {
	errs := ValidationErrors{}
	switch step {
	case StepBasics:
		if sanitize.Text(in.Title) == "" {
			errs.add("title", "Event title is required")
		}
		switch {
		case in.Format == "":
			errs.add("format", "Event format is required")
		case !in.Format.Valid():
			errs.add("format", "Event format must be in-person, online or hybrid")
		}
		if u := strings.TrimSpace(in.PrimaryURL); u != "" && !validURL(u) {
			errs.add("primary_url", "Event URL must be a valid http(s) link")
		}
	case StepDetails:
		if sanitize.Text(in.City) == "" {
			errs.add("city", "City is required")
		}
		var start time.Time
		if strings.TrimSpace(in.StartDate) == "" {
			errs.add("start_date", "Start date is required")
		} else if t, ok := parseDate(in.StartDate, loc); !ok {
			errs.add("start_date", "Start date is not a valid date")
		} else {
			start = t
		}
		if strings.TrimSpace(in.EndDate) != "" {
			end, ok := parseDate(in.EndDate, loc)
			switch {
			case !ok:
				errs.add("end_date", "End date is not a valid date")
			case !start.IsZero() && end.Before(start):
				errs.add("end_date", "End date must be after the start date")
			}
		}
		if sanitize.Text(sanitize.HTML(in.Description)) == "" {
			errs.add("description", "Description is required")
		}
		if in.Price != nil && *in.Price < 0 {
			errs.add("price", "Price cannot be negative")
		}
		if in.PriceTier != "" && !in.PriceTier.Valid() {
			errs.add("price_tier", "Price tier must be free or paid")
		}
	case StepTier:
		if in.SubmissionType != "" && !in.SubmissionType.Valid() {
			errs.add("submission_type", "Submission type must be free or paid")
		}
	default:
		errs.add("step", "Unknown step")
	}
	return errs
}

// Validate runs every step.
func (in *Input) Validate(loc *time.Location) ValidationErrors {
	errs := ValidationErrors{}
	for _, step := range []int{StepBasics, StepDetails, StepTier} {
		for k, v := range in.ValidateStep(step, loc) {
			errs.add(k, v)
		}
	}
	return errs
}

func validURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Build turns a validated input into a new pending submission owned by organizerID.
func (in *Input) Build(organizerID uuid.UUID, loc *time.Location) *models.EventSubmission {
	s := &models.EventSubmission{
		OrganizerID:      organizerID,
		Title:            sanitize.Text(in.Title),
		PrimaryURL:       strings.TrimSpace(in.PrimaryURL),
		Format:           in.Format,
		Country:          strings.TrimSpace(in.Country),
		Venue:            sanitize.Text(in.Venue),
		Address:          sanitize.Text(in.Address),
		City:             sanitize.Text(in.City),
		State:            sanitize.Text(in.State),
		ZipCode:          strings.TrimSpace(in.ZipCode),
		Price:            in.Price,
		PriceTier:        in.PriceTier,
		ImageURL:         strings.TrimSpace(in.ImageURL),
		Description:      sanitize.HTML(in.Description),
		OrganizerContact: sanitize.Text(in.OrganizerContact),
		SubmissionType:   in.SubmissionType,
		Status:           models.SubmissionPending,
	}
	if s.Country == "" {
		s.Country = "USA"
	}
	if s.PriceTier == "" {
		s.PriceTier = models.TierFree
	}
	if s.SubmissionType == "" {
		s.SubmissionType = models.TierFree
	}
	s.StartDate, _ = parseDate(in.StartDate, loc)
	if end, ok := parseDate(in.EndDate, loc); ok {
		s.EndDate = &end
	}
	return s
}
