package directory

import (
	"time"

	"github.com/firstindallas/backend/internal/models"
)

// DefaultPageSize is the number of events per directory page.
const DefaultPageSize = 20

// DefaultWindowThreshold is the page count up to which every page number is shown.
const DefaultWindowThreshold = 5

// Page is one page of filtered events plus the numbering to render.
type Page struct {
	Page       int            `json:"page"`
	TotalPages int            `json:"total_pages"`
	Total      int            `json:"total"`
	PageSize   int            `json:"page_size"`
	Items      []models.Event `json:"items"`
	Window     []int          `json:"window"`
}

// From is the 1-based index of the first item on the page, 0 when empty.
func (p Page) From() int {
	if p.Total == 0 {
		return 0
	}
	return (p.Page-1)*p.PageSize + 1
}

// To is the 1-based index of the last item on the page.
func (p Page) To() int {
	return p.From() + len(p.Items) - 1
}

// HasPrev reports whether a previous page exists.
func (p Page) HasPrev() bool { return p.Page > 1 }

// HasNext reports whether a following page exists.
func (p Page) HasNext() bool { return p.Page < p.TotalPages }

// FilterAndPaginate applies f at time now, sorts by start time and slices out
// the requested page. Out-of-range pages are clamped. threshold controls the
// page-number window; values below 1 use DefaultWindowThreshold.
func FilterAndPaginate(events []models.Event, f Filters, page, pageSize int, now time.Time, threshold int) Page {
	return Paginate(f.Apply(events, now), page, pageSize, threshold)
}

// Paginate slices already filtered items. totalPages is ceil(len/pageSize).
func Paginate(items []models.Event, page, pageSize, threshold int) Page {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	total := len(items)
	totalPages := (total + pageSize - 1) / pageSize
	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * pageSize
	end := start + pageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}
	return Page{
		Page:       page,
		TotalPages: totalPages,
		Total:      total,
		PageSize:   pageSize,
		Items:      items[start:end],
		Window:     PageWindow(page, totalPages, threshold),
	}
}

// PageWindow returns the page numbers to render, using 0 for an ellipsis.
// Up to threshold pages are all shown. Otherwise the window is the first four
// and the last, the first and the last four, or the first, the current page
// with its neighbours, and the last.
func PageWindow(current, total, threshold int) []int {
	if threshold < 1 {
		threshold = DefaultWindowThreshold
	}
	if total <= 0 {
		return nil
	}
	if total <= threshold {
		out := make([]int, 0, total)
		for i := 1; i <= total; i++ {
			out = append(out, i)
		}
		return out
	}
	switch {
	case current <= 3:
		return []int{1, 2, 3, 4, 0, total}
	case current >= total-2:
		return []int{1, 0, total - 3, total - 2, total - 1, total}
	default:
		return []int{1, 0, current - 1, current, current + 1, 0, total}
	}
}
