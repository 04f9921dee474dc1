package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/firstindallas/backend/internal/models"
	"github.com/firstindallas/backend/pkg/utils"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// UserStore is the user persistence the service needs.
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByGoogleSubject(ctx context.Context, subject string) (*models.User, error)
	Create(ctx context.Context, p CreateUserParams) (*models.User, error)
	LinkGoogle(ctx context.Context, id uuid.UUID, subject string) error
}

// OrganizerProvisioner creates the organizer profile that mirrors a user.
type OrganizerProvisioner interface {
	EnsureProfile(ctx context.Context, user *models.User, organizationName string) (bool, error)
}

// SignUpRequest is the body for POST /auth/signup.
type SignUpRequest struct {
	Email            string `json:"email" binding:"required,email"`
	Password         string `json:"password" binding:"required,min=8"`
	FullName         string `json:"full_name" binding:"required"`
	OrganizationName string `json:"organization_name"`
}

// Service signs users in and issues session tokens.
type Service struct {
	users      UserStore
	organizers OrganizerProvisioner
	jwt        *JWTService
	isAdmin    func(email string) bool
	logger     *zap.Logger
}

// NewService creates the auth service. isAdmin decides which emails become admins on first sign-in.
func NewService(users UserStore, organizers OrganizerProvisioner, jwt *JWTService, isAdmin func(string) bool, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if isAdmin == nil {
		isAdmin = func(string) bool { return false }
	}
	return &Service{users: users, organizers: organizers, jwt: jwt, isAdmin: isAdmin, logger: logger}
}

// Issued is a signed session token and the user it belongs to.
type Issued struct {
	Token string            `json:"token"`
	User  models.UserPublic `json:"user"`
}

func (s *Service) issue(u *models.User) (*Issued, error) {
	token, err := s.jwt.Generate(u.ID, u.Email, string(u.Role))
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	return &Issued{Token: token, User: u.ToPublic()}, nil
}

// roleFor grants admin only to a bootstrap address whose ownership the
// identity provider has verified.
func (s *Service) roleFor(email string, verified bool) models.Role {
	if verified && s.isAdmin(email) {
		return models.RoleAdmin
	}
	return models.RoleOrganizer
}

// SignUp creates a password account and its organizer profile.
func (s *Service) SignUp(ctx context.Context, req SignUpRequest) (*Issued, error) {
	if _, err := s.users.GetByEmail(ctx, req.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}
	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u, err := s.users.Create(ctx, CreateUserParams{
		Email:        req.Email,
		PasswordHash: hash,
		FullName:     strings.TrimSpace(req.FullName),
		Role:         models.RoleOrganizer,
	})
	if err != nil {
		return nil, err
	}
	if _, err := s.organizers.EnsureProfile(ctx, u, strings.TrimSpace(req.OrganizationName)); err != nil {
		return nil, fmt.Errorf("provision organizer: %w", err)
	}
	s.logger.Info("user signed up", zap.String("user_id", u.ID.String()), zap.String("role", string(u.Role)))
	return s.issue(u)
}

// SignIn checks a password and issues a session.
func (s *Service) SignIn(ctx context.Context, email, password string) (*Issued, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if u.Password == "" || !utils.CheckPassword(password, u.Password) {
		return nil, ErrInvalidCredentials
	}
	return s.issue(u)
}

// SignInGoogle resolves a verified Google identity to a user, creating or linking
// the account as needed, and provisions the organizer profile on first sign-in.
func (s *Service) SignInGoogle(ctx context.Context, g *GoogleUser) (*Issued, error) {
	u, err := s.users.GetByGoogleSubject(ctx, g.Subject)
	switch {
	case err == nil:
	case errors.Is(err, ErrUserNotFound):
		u, err = s.linkOrCreate(ctx, g)
		if err != nil {
			return nil, err
		}
	default:
		return nil, err
	}
	created, err := s.organizers.EnsureProfile(ctx, u, "")
	if err != nil {
		return nil, fmt.Errorf("provision organizer: %w", err)
	}
	if created {
		s.logger.Info("organizer provisioned", zap.String("user_id", u.ID.String()))
	}
	return s.issue(u)
}

func (s *Service) linkOrCreate(ctx context.Context, g *GoogleUser) (*models.User, error) {
	u, err := s.users.GetByEmail(ctx, g.Email)
	if err == nil {
		if !g.VerifiedEmail {
			return nil, ErrInvalidCredentials
		}
		if err := s.users.LinkGoogle(ctx, u.ID, g.Subject); err != nil {
			return nil, fmt.Errorf("link google: %w", err)
		}
		sub := g.Subject
		u.GoogleSubject = &sub
		return u, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}
	return s.users.Create(ctx, CreateUserParams{
		Email:         g.Email,
		FullName:      g.DisplayName(),
		Role:          s.roleFor(g.Email, g.VerifiedEmail),
		GoogleSubject: g.Subject,
	})
}

// Me returns the user behind a session.
func (s *Service) Me(ctx context.Context, sess Session) (*models.User, error) {
	return s.users.GetByID(ctx, sess.UserID)
}
