package syncjobs

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Provider is an external event source the admin can import from.
type Provider struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	// Path is the provider's trigger endpoint under /sync. Empty for providers
	// that run through URL extraction instead.
	Path string `json:"-"`
}

// ProviderFacebook is imported by extracting the configured page URLs.
const ProviderFacebook = "facebook"

var providers = map[string]Provider{
	"eventbrite":        {Name: "eventbrite", Label: "Eventbrite", Path: "/eventbrite/dallas"},
	"ticketmaster":      {Name: "ticketmaster", Label: "Ticketmaster", Path: "/ticketmaster/dallas"},
	"dallas-arboretum":  {Name: "dallas-arboretum", Label: "Dallas Arboretum", Path: "/dallas-arboretum"},
	"klyde-warren-park": {Name: "klyde-warren-park", Label: "Klyde Warren Park", Path: "/klyde-warren-park"},
	ProviderFacebook:    {Name: ProviderFacebook, Label: "Facebook"},
}

// LookupProvider returns the provider registered under name.
func LookupProvider(name string) (Provider, bool) {
	p, ok := providers[strings.ToLower(strings.TrimSpace(name))]
	return p, ok
}

// Providers lists every provider sorted by name.
func Providers() []Provider {
	out := make([]Provider, 0, len(providers))
	for _, p := range providers {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Source types reported for extraction URLs.
const (
	SourceFacebook  = "facebook"
	SourceInstagram = "instagram"
	SourceICS       = "ics"
	SourceRSS       = "rss"
	SourceWebpage   = "webpage"
)

// DetectSourceType guesses which extractor the CMS will use for rawURL.
func DetectSourceType(rawURL string) string {
	u := strings.ToLower(rawURL)
	switch {
	case strings.Contains(u, "facebook.com") || strings.Contains(u, "fb.com"):
		return SourceFacebook
	case strings.Contains(u, "instagram.com"):
		return SourceInstagram
	case strings.HasSuffix(u, ".ics") || strings.Contains(u, "ical"):
		return SourceICS
	case strings.HasSuffix(u, ".xml") || strings.Contains(u, "rss") || strings.Contains(u, "feed"):
		return SourceRSS
	default:
		return SourceWebpage
	}
}

// maxExtractURLs bounds one extraction request.
const maxExtractURLs = 50

// NormalizeURLs trims, de-duplicates and validates extraction URLs. Invalid
// entries are reported by index.
func NormalizeURLs(raw []string) ([]string, map[string]string) {
	fields := map[string]string{}
	seen := map[string]bool{}
	var out []string
	for i, r := range raw {
		s := strings.TrimSpace(r)
		if s == "" {
			continue
		}
		u, err := url.Parse(s)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			fields["urls["+strconv.Itoa(i)+"]"] = "Must be an http or https URL"
			continue
		}
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	if len(out) == 0 && len(fields) == 0 {
		fields["urls"] = "At least one URL is required"
	}
	if len(out) > maxExtractURLs {
		fields["urls"] = "At most " + strconv.Itoa(maxExtractURLs) + " URLs per request"
	}
	return out, fields
}
