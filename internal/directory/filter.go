package directory

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/firstindallas/backend/internal/models"
)

const dayLayout = "2006-01-02"

// Filters are the combinable directory filters. Empty fields match everything.
// Day, when set, takes precedence over Range.
type Filters struct {
	Search      string
	City        string
	Category    string
	PriceTier   string
	Status      string
	SourceType  string
	Range       DateRange
	Day         time.Time
	IncludePast bool
}

// HasDate reports whether a date dimension is active.
func (f Filters) HasDate() bool {
	return !f.Day.IsZero() || f.Range != ""
}

// Window returns the [start, end) interval selected by the date dimension.
func (f Filters) Window(now time.Time) (start, end time.Time, ok bool) {
	if !f.Day.IsZero() {
		start, end = DayBounds(f.Day)
		return start, end, true
	}
	if f.Range != "" {
		return f.Range.Bounds(now)
	}
	return time.Time{}, time.Time{}, false
}

// Match reports whether e passes every active filter at time now.
// Without a date dimension, events that have already ended are excluded
// unless IncludePast is set.
func (f Filters) Match(e models.Event, now time.Time) bool {
	if f.City != "" && !strings.EqualFold(strings.TrimSpace(e.City), f.City) {
		return false
	}
	if f.Category != "" && !strings.EqualFold(e.Category, f.Category) {
		return false
	}
	if f.PriceTier != "" && !strings.EqualFold(priceTier(e), f.PriceTier) {
		return false
	}
	if f.Status != "" && !strings.EqualFold(string(e.Status), f.Status) {
		return false
	}
	if f.SourceType != "" && !strings.EqualFold(e.SourceType, f.SourceType) {
		return false
	}
	if f.Search != "" && !matchesSearch(e, f.Search) {
		return false
	}
	if start, end, ok := f.Window(now); ok {
		return !e.StartAt.Before(start) && e.StartAt.Before(end)
	}
	if !f.IncludePast {
		last := e.StartAt
		if e.EndAt != nil && e.EndAt.After(last) {
			last = *e.EndAt
		}
		return !last.Before(now)
	}
	return true
}

// Apply returns the events matching f, sorted by start time ascending.
func (f Filters) Apply(events []models.Event, now time.Time) []models.Event {
	out := make([]models.Event, 0, len(events))
	for _, e := range events {
		if f.Match(e, now) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].StartAt.Equal(out[j].StartAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartAt.Before(out[j].StartAt)
	})
	return out
}

func priceTier(e models.Event) string {
	if e.PriceTier == "" {
		return "FREE"
	}
	return e.PriceTier
}

func matchesSearch(e models.Event, q string) bool {
	q = strings.ToLower(q)
	for _, field := range []string{e.Title, e.Description, e.Venue, e.City} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

// ParseQuery reads filters and the page number from URL query values.
// Both "page" and "page_num" are accepted. A "date" holding a range name is
// treated as that range; a malformed day is ignored. Days are interpreted in loc.
func ParseQuery(v url.Values, loc *time.Location) (Filters, int) {
	if loc == nil {
		loc = time.UTC
	}
	f := Filters{
		Search:     strings.TrimSpace(v.Get("search")),
		City:       strings.TrimSpace(v.Get("city")),
		Category:   strings.TrimSpace(v.Get("category")),
		PriceTier:  strings.TrimSpace(v.Get("price_tier")),
		Status:     strings.TrimSpace(v.Get("status")),
		SourceType: strings.TrimSpace(v.Get("source_type")),
	}
	if r := DateRange(strings.TrimSpace(v.Get("range"))); r.Valid() {
		f.Range = r
	}
	if d := strings.TrimSpace(v.Get("date")); d != "" {
		if r := DateRange(d); r.Valid() {
			f.Range = r
		} else if day, err := time.ParseInLocation(dayLayout, d, loc); err == nil {
			f.Day = day
		}
	}
	f.IncludePast, _ = strconv.ParseBool(v.Get("include_past"))

	page := 1
	for _, key := range []string{"page_num", "page"} {
		if p, err := strconv.Atoi(v.Get(key)); err == nil {
			page = p
			break
		}
	}
	if page < 1 {
		page = 1
	}
	return f, page
}

// Values renders f and page back to query values so a view can be bookmarked.
// Page 1 is omitted. pageKey names the page parameter ("page" or "page_num").
func (f Filters) Values(page int, pageKey string) url.Values {
	v := url.Values{}
	set := func(k, s string) {
		if s != "" {
			v.Set(k, s)
		}
	}
	set("search", f.Search)
	set("city", f.City)
	set("category", f.Category)
	set("price_tier", f.PriceTier)
	set("status", f.Status)
	set("source_type", f.SourceType)
	if !f.Day.IsZero() {
		v.Set("date", f.Day.Format(dayLayout))
	} else if f.Range != "" {
		v.Set("range", string(f.Range))
	}
	if f.IncludePast {
		v.Set("include_past", "true")
	}
	if page > 1 {
		if pageKey == "" {
			pageKey = "page"
		}
		v.Set(pageKey, strconv.Itoa(page))
	}
	return v
}
