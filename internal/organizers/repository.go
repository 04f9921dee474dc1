package organizers

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/firstindallas/backend/internal/models"
	"github.com/firstindallas/backend/pkg/database"
)

// ErrNotFound is returned when the user has no organizer profile.
var ErrNotFound = errors.New("organizer not found")

const organizerColumns = `id, email, full_name, organization_name, phone, created_at, updated_at`

// Repository handles organizer profile persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an organizers repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// EnsureProfile creates the organizer row for user if it is missing and reports whether it did.
func (r *Repository) EnsureProfile(ctx context.Context, user *models.User, organizationName string) (bool, error) {
	const q = `INSERT INTO organizers (id, email, full_name, organization_name)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING`
	tag, err := r.pool.Exec(ctx, q, user.ID, user.Email, user.FullName, organizationName)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Get returns an organizer profile.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*models.Organizer, error) {
	var o models.Organizer
	err := r.pool.QueryRow(ctx, `SELECT `+organizerColumns+` FROM organizers WHERE id = $1`, id).
		Scan(&o.ID, &o.Email, &o.FullName, &o.OrganizationName, &o.Phone, &o.CreatedAt, &o.UpdatedAt)
	if database.IsNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// Update applies the non-nil fields of p to the profile.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, p UpdateProfileRequest) (*models.Organizer, error) {
	const q = `UPDATE organizers SET
			full_name = COALESCE($2, full_name),
			organization_name = COALESCE($3, organization_name),
			phone = COALESCE($4, phone),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + organizerColumns
	var o models.Organizer
	err := r.pool.QueryRow(ctx, q, id, p.FullName, p.OrganizationName, p.Phone).
		Scan(&o.ID, &o.Email, &o.FullName, &o.OrganizationName, &o.Phone, &o.CreatedAt, &o.UpdatedAt)
	if database.IsNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// ListWithCounts returns every organizer with submission totals, most recently active first.
func (r *Repository) ListWithCounts(ctx context.Context, limit, offset int) ([]models.OrganizerSummary, error) {
	const q = `SELECT o.id, o.email, o.full_name, o.organization_name, o.phone, o.created_at, o.updated_at,
			COUNT(s.id),
			COUNT(s.id) FILTER (WHERE s.status = 'pending'),
			COUNT(s.id) FILTER (WHERE s.status = 'published'),
			COUNT(s.id) FILTER (WHERE s.status = 'rejected'),
			MAX(s.created_at)
		FROM organizers o
		LEFT JOIN event_submissions s ON s.organizer_id = o.id
		GROUP BY o.id
		ORDER BY MAX(s.created_at) DESC NULLS LAST, o.created_at DESC
		LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.OrganizerSummary
	for rows.Next() {
		var s models.OrganizerSummary
		if err := rows.Scan(&s.ID, &s.Email, &s.FullName, &s.OrganizationName, &s.Phone, &s.CreatedAt, &s.UpdatedAt,
			&s.TotalSubmissions, &s.Pending, &s.Published, &s.Rejected, &s.LastSubmittedAt); err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}
