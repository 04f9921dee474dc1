package submissions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/firstindallas/backend/internal/models"
	"github.com/firstindallas/backend/pkg/database"
)

const submissionColumns = `id, organizer_id, title, primary_url, format, country, venue, address, city, state, zip_code,
	start_date, end_date, price::float8, price_tier, image_url, description, organizer_contact, submission_type,
	status, admin_notes, cms_event_id, synced_to_cms, published_to_wordpress, published_at, created_at, updated_at`

// Repository handles event_submissions persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a submissions repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanSubmission(row pgx.Row) (*models.EventSubmission, error) {
	var s models.EventSubmission
	err := row.Scan(&s.ID, &s.OrganizerID, &s.Title, &s.PrimaryURL, &s.Format, &s.Country, &s.Venue, &s.Address,
		&s.City, &s.State, &s.ZipCode, &s.StartDate, &s.EndDate, &s.Price, &s.PriceTier, &s.ImageURL, &s.Description,
		&s.OrganizerContact, &s.SubmissionType, &s.Status, &s.AdminNotes, &s.CMSEventID, &s.SyncedToCMS,
		&s.PublishedToWordPress, &s.PublishedAt, &s.CreatedAt, &s.UpdatedAt)
	if database.IsNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func collect(rows pgx.Rows, err error) ([]models.EventSubmission, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.EventSubmission
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *s)
	}
	return list, rows.Err()
}

// Create inserts s. Status is always written as pending.
func (r *Repository) Create(ctx context.Context, s *models.EventSubmission) error {
	const q = `INSERT INTO event_submissions (organizer_id, title, primary_url, format, country, venue, address, city,
			state, zip_code, start_date, end_date, price, price_tier, image_url, description, organizer_contact,
			submission_type, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, 'pending')
		RETURNING id, status, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, s.OrganizerID, s.Title, s.PrimaryURL, s.Format, s.Country, s.Venue, s.Address,
		s.City, s.State, s.ZipCode, s.StartDate, s.EndDate, s.Price, s.PriceTier, s.ImageURL, s.Description,
		s.OrganizerContact, s.SubmissionType).Scan(&s.ID, &s.Status, &s.CreatedAt, &s.UpdatedAt)
}

// Get returns a submission by ID.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*models.EventSubmission, error) {
	return scanSubmission(r.pool.QueryRow(ctx, `SELECT `+submissionColumns+` FROM event_submissions WHERE id = $1`, id))
}

// ListByOrganizer returns one organizer's submissions, newest first.
func (r *Repository) ListByOrganizer(ctx context.Context, organizerID uuid.UUID, limit, offset int) ([]models.EventSubmission, error) {
	const q = `SELECT ` + submissionColumns + ` FROM event_submissions
		WHERE organizer_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	return collect(r.pool.Query(ctx, q, organizerID, limit, offset))
}

// ListByStatus returns submissions for review, newest first. A nil status lists all.
func (r *Repository) ListByStatus(ctx context.Context, status *models.SubmissionStatus, limit, offset int) ([]models.EventSubmission, error) {
	const q = `SELECT ` + submissionColumns + ` FROM event_submissions
		WHERE ($1::text IS NULL OR status = $1) ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	var arg *string
	if status != nil {
		s := string(*status)
		arg = &s
	}
	return collect(r.pool.Query(ctx, q, arg, limit, offset))
}

// Counts returns submission totals per status.
func (r *Repository) Counts(ctx context.Context) (models.SubmissionStatusCounts, error) {
	const q = `SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'approved'),
			COUNT(*) FILTER (WHERE status = 'published'),
			COUNT(*) FILTER (WHERE status = 'rejected')
		FROM event_submissions`
	var c models.SubmissionStatusCounts
	err := r.pool.QueryRow(ctx, q).Scan(&c.Total, &c.Pending, &c.Approved, &c.Published, &c.Rejected)
	return c, err
}

// SetCMSEventID records the live event created for a submission. An existing link is kept.
func (r *Repository) SetCMSEventID(ctx context.Context, id uuid.UUID, cmsEventID int64) error {
	_, err := r.pool.Exec(ctx, `UPDATE event_submissions SET cms_event_id = $2 WHERE id = $1 AND cms_event_id IS NULL`, id, cmsEventID)
	return err
}

// MarkPublished moves a pending or approved submission to published. It reports
// false when the row was not in a promotable state.
func (r *Repository) MarkPublished(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	const q = `UPDATE event_submissions SET status = 'published', published_at = $2, admin_notes = NULL
		WHERE id = $1 AND status IN ('pending', 'approved')`
	tag, err := r.pool.Exec(ctx, q, id, at)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Reject moves a pending submission to rejected with the reason in admin_notes.
func (r *Repository) Reject(ctx context.Context, id uuid.UUID, reason string) (bool, error) {
	const q = `UPDATE event_submissions SET status = 'rejected', admin_notes = $2
		WHERE id = $1 AND status = 'pending'`
	tag, err := r.pool.Exec(ctx, q, id, reason)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// SetImageURL stores an uploaded image on a submission owned by organizerID.
func (r *Repository) SetImageURL(ctx context.Context, id, organizerID uuid.UUID, imageURL string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE event_submissions SET image_url = $3 WHERE id = $1 AND organizer_id = $2`, id, organizerID, imageURL)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// MarkSynced records a successful CMS mirror.
func (r *Repository) MarkSynced(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `UPDATE event_submissions SET synced_to_cms = TRUE WHERE id = $1`, id)
	return err
}

// MarkPublishedToWordPress flags the submission linked to a live event.
func (r *Repository) MarkPublishedToWordPress(ctx context.Context, cmsEventID int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE event_submissions SET published_to_wordpress = TRUE WHERE cms_event_id = $1`, cmsEventID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ListStranded returns submissions whose live event exists but whose status flip never landed.
func (r *Repository) ListStranded(ctx context.Context, limit int) ([]models.EventSubmission, error) {
	const q = `SELECT ` + submissionColumns + ` FROM event_submissions
		WHERE cms_event_id IS NOT NULL AND status IN ('pending', 'approved')
		ORDER BY updated_at LIMIT $1`
	return collect(r.pool.Query(ctx, q, limit))
}
