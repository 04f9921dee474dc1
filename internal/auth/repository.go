package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/firstindallas/backend/internal/models"
	"github.com/firstindallas/backend/pkg/database"
)

// ErrUserNotFound is returned when no user matches the lookup.
var ErrUserNotFound = errors.New("user not found")

const userColumns = `id, email, COALESCE(password_hash, ''), full_name, role, google_subject, created_at, updated_at`

// Repository handles user persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an auth repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.Password, &u.FullName, &u.Role, &u.GoogleSubject, &u.CreatedAt, &u.UpdatedAt)
	if database.IsNoRows(err) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByID returns a user by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// GetByEmail returns a user by email, case-insensitively.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, strings.TrimSpace(email)))
}

// GetByGoogleSubject returns the user linked to a Google account.
func (r *Repository) GetByGoogleSubject(ctx context.Context, subject string) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE google_subject = $1`, subject))
}

// CreateUserParams holds the fields of a new user. PasswordHash is empty for Google-only accounts.
type CreateUserParams struct {
	Email         string
	PasswordHash  string
	FullName      string
	Role          models.Role
	GoogleSubject string
}

// Create inserts a user. A duplicate email yields ErrEmailTaken.
func (r *Repository) Create(ctx context.Context, p CreateUserParams) (*models.User, error) {
	const q = `INSERT INTO users (email, password_hash, full_name, role, google_subject)
		VALUES ($1, NULLIF($2, ''), $3, $4, NULLIF($5, ''))
		RETURNING ` + userColumns
	u, err := scanUser(r.pool.QueryRow(ctx, q, strings.TrimSpace(p.Email), p.PasswordHash, p.FullName, p.Role, p.GoogleSubject))
	if database.IsUniqueViolation(err) {
		return nil, ErrEmailTaken
	}
	return u, err
}

// LinkGoogle attaches a Google subject to an existing user.
func (r *Repository) LinkGoogle(ctx context.Context, id uuid.UUID, subject string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET google_subject = $2, updated_at = NOW() WHERE id = $1`, id, subject)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SetRole changes a user's role.
func (r *Repository) SetRole(ctx context.Context, id uuid.UUID, role models.Role) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET role = $2, updated_at = NOW() WHERE id = $1`, id, role)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SetPassword replaces a user's password hash.
func (r *Repository) SetPassword(ctx context.Context, id uuid.UUID, hash string) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`, id, hash)
	return err
}
