package directory

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strconv"
	"time"

	"github.com/firstindallas/backend/internal/models"
	"github.com/firstindallas/backend/pkg/sanitize"
)

//go:embed templates/*.html
var templatesFS embed.FS

var templates = template.Must(template.ParseFS(templatesFS, "templates/*.html"))

// PluginWindowThreshold keeps the server-rendered directory's numbering:
// every page number is listed up to seven pages.
const PluginWindowThreshold = 7

const (
	excerptWords  = 30
	cardDateShape = "January 2, 2006"

	emptyMessage    = "No events found."
	emptyDayMessage = "No events found for this day. Try another date."
	loadError       = "Unable to load events. Please try again later."
)

// Card is one event as shown in the rendered directory and widget.
type Card struct {
	Title       string
	ImageURL    string
	Date        string
	Venue       string
	City        string
	Excerpt     string
	Free        bool
	PriceAmount string
	Link        string
}

// PageLink is one entry of the rendered page numbering.
type PageLink struct {
	Number   int
	URL      string
	Current  bool
	Ellipsis bool
}

// DirectoryView is the data behind the directory template.
type DirectoryView struct {
	BasePath    string
	ShowFilters bool
	Filters     Filters
	DayValue    string
	Cities      []string
	Ranges      []DateRange
	Cards       []Card
	Page        Page
	Links       []PageLink
	FirstURL    string
	PrevURL     string
	NextURL     string
	LastURL     string
	Empty       string
	Error       string
}

// WidgetView is the data behind the upcoming events widget.
type WidgetView struct {
	Title       string
	Cards       []Card
	CalendarURL string
	SubmitURL   string
}

// Renderer turns directory pages into HTML.
type Renderer struct {
	loc          *time.Location
	eventURLBase string
}

// NewRenderer creates a renderer. Dates are printed in loc; eventURLBase
// links events that carry no source URL.
func NewRenderer(loc *time.Location, eventURLBase string) *Renderer {
	if loc == nil {
		loc = time.UTC
	}
	return &Renderer{loc: loc, eventURLBase: eventURLBase}
}

// Card converts an event for display.
func (r *Renderer) Card(e models.Event) Card {
	c := Card{
		Title:    e.Title,
		ImageURL: e.ImageURL,
		Date:     e.StartAt.In(r.loc).Format(cardDateShape),
		Venue:    e.Venue,
		City:     e.City,
		Excerpt:  sanitize.TrimWords(e.Description, excerptWords),
		Free:     e.IsFree(),
		Link:     e.SourceURL,
	}
	if !c.Free && e.PriceAmount != nil && *e.PriceAmount > 0 {
		c.PriceAmount = fmt.Sprintf("$%.2f", *e.PriceAmount)
	}
	if c.Link == "" && r.eventURLBase != "" && e.ID != 0 {
		c.Link = r.eventURLBase + "/" + strconv.FormatInt(e.ID, 10)
	}
	return c
}

// Directory builds the view for one rendered directory page. Links keep the
// active filters and use the page_num parameter.
func (r *Renderer) Directory(basePath string, f Filters, p Page, cities []string, showFilters bool) DirectoryView {
	v := DirectoryView{
		BasePath:    basePath,
		ShowFilters: showFilters,
		Filters:     f,
		Cities:      cities,
		Ranges:      Ranges,
		Page:        p,
	}
	if !f.Day.IsZero() {
		v.DayValue = f.Day.Format(dayLayout)
	}
	for _, e := range p.Items {
		v.Cards = append(v.Cards, r.Card(e))
	}
	if len(v.Cards) == 0 {
		v.Empty = emptyMessage
		if f.HasDate() {
			v.Empty = emptyDayMessage
		}
		return v
	}
	if p.TotalPages <= 1 {
		return v
	}
	link := func(n int) string {
		return basePath + "?" + f.Values(n, "page_num").Encode()
	}
	for _, n := range p.Window {
		if n == 0 {
			v.Links = append(v.Links, PageLink{Ellipsis: true})
			continue
		}
		v.Links = append(v.Links, PageLink{Number: n, URL: link(n), Current: n == p.Page})
	}
	if p.HasPrev() {
		v.FirstURL, v.PrevURL = link(1), link(p.Page-1)
	}
	if p.HasNext() {
		v.NextURL, v.LastURL = link(p.Page+1), link(p.TotalPages)
	}
	return v
}

// DirectoryError builds the view shown when the event list could not be loaded.
func (r *Renderer) DirectoryError(basePath string, f Filters, showFilters bool) DirectoryView {
	return DirectoryView{BasePath: basePath, Filters: f, ShowFilters: showFilters, Ranges: Ranges, Error: loadError}
}

// Widget builds the upcoming events widget view.
func (r *Renderer) Widget(title string, events []models.Event, calendarURL, submitURL string) WidgetView {
	if title == "" {
		title = "Events"
	}
	if calendarURL == "" {
		calendarURL = "#"
	}
	if submitURL == "" {
		submitURL = "#"
	}
	v := WidgetView{Title: title, CalendarURL: calendarURL, SubmitURL: submitURL}
	for _, e := range events {
		v.Cards = append(v.Cards, r.Card(e))
	}
	return v
}

// RenderDirectory writes the directory HTML fragment.
func RenderDirectory(w io.Writer, v DirectoryView) error {
	return templates.ExecuteTemplate(w, "directory.html", v)
}

// RenderWidget writes the widget HTML fragment. An empty widget renders nothing.
func RenderWidget(w io.Writer, v WidgetView) error {
	if len(v.Cards) == 0 {
		return nil
	}
	return templates.ExecuteTemplate(w, "widget.html", v)
}
