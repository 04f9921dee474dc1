package submissions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/firstindallas/backend/internal/auth"
	"github.com/firstindallas/backend/internal/models"
	"github.com/firstindallas/backend/pkg/queue"
)

var (
	ErrNotFound             = errors.New("submission not found")
	ErrForbidden            = errors.New("admin role required")
	ErrInvalidTransition    = errors.New("submission is not pending")
	ErrReasonRequired       = errors.New("a rejection reason is required")
	ErrConfirmationRequired = errors.New("confirmation required")
	ErrBusy                 = errors.New("submission is already being reviewed")
	ErrInvalidStatus        = errors.New("unknown status filter")
)

const approveLockTTL = time.Minute

// Store is the submission persistence the service needs.
type Store interface {
	Create(ctx context.Context, s *models.EventSubmission) error
	Get(ctx context.Context, id uuid.UUID) (*models.EventSubmission, error)
	ListByOrganizer(ctx context.Context, organizerID uuid.UUID, limit, offset int) ([]models.EventSubmission, error)
	ListByStatus(ctx context.Context, status *models.SubmissionStatus, limit, offset int) ([]models.EventSubmission, error)
	Counts(ctx context.Context) (models.SubmissionStatusCounts, error)
	SetCMSEventID(ctx context.Context, id uuid.UUID, cmsEventID int64) error
	MarkPublished(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	Reject(ctx context.Context, id uuid.UUID, reason string) (bool, error)
	SetImageURL(ctx context.Context, id, organizerID uuid.UUID, imageURL string) (bool, error)
	MarkPublishedToWordPress(ctx context.Context, cmsEventID int64) (bool, error)
	ListStranded(ctx context.Context, limit int) ([]models.EventSubmission, error)
}

// EventCreator creates live events in the CMS.
type EventCreator interface {
	CreateEvent(ctx context.Context, e models.Event, idempotencyKey string) (*models.Event, error)
}

// MirrorQueue accepts best-effort CMS mirror jobs.
type MirrorQueue interface {
	EnqueueMirror(ctx context.Context, payload queue.MirrorPayload) error
}

// Locker serializes approvals of the same submission.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// Notifier pushes the pending-count badge to admin dashboards.
type Notifier interface {
	SubmissionsChanged(ctx context.Context, pendingCount int) error
}

// Invalidator drops cached directory listings.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Deps groups the service collaborators. Mirror, Notifier and Directory may be nil.
type Deps struct {
	Store        Store
	Events       EventCreator
	Mirror       MirrorQueue
	Locker       Locker
	Notifier     Notifier
	Directory    Invalidator
	Location     *time.Location
	EventURLBase string
	Logger       *zap.Logger
}

// Service runs the submission lifecycle: organizer intake and admin review.
type Service struct {
	Deps
	now func() time.Time
}

// NewService creates the submissions service.
func NewService(d Deps) *Service {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Location == nil {
		d.Location = time.UTC
	}
	return &Service{Deps: d, now: time.Now}
}

// View is a submission as shown to its organizer.
type View struct {
	models.EventSubmission
	RejectionReason string `json:"rejection_reason,omitempty"`
	LiveURL         string `json:"live_url,omitempty"`
}

func (s *Service) view(sub models.EventSubmission) View {
	v := View{EventSubmission: sub}
	if sub.Status == models.SubmissionRejected && sub.AdminNotes != nil {
		v.RejectionReason = *sub.AdminNotes
	}
	if sub.Status == models.SubmissionPublished && sub.CMSEventID != nil && s.EventURLBase != "" {
		v.LiveURL = s.EventURLBase + "/" + strconv.FormatInt(*sub.CMSEventID, 10)
	}
	return v
}

// ValidateStep checks one wizard step.
func (s *Service) ValidateStep(in *Input, step int) error {
	if errs := in.ValidateStep(step, s.Location); len(errs) > 0 {
		return errs
	}
	return nil
}

// Create stores a new pending submission for the caller and queues the CMS mirror.
// A mirror enqueue failure is logged and does not fail the submission.
func (s *Service) Create(ctx context.Context, sess auth.Session, in *Input) (*View, error) {
	if errs := in.Validate(s.Location); len(errs) > 0 {
		return nil, errs
	}
	sub := in.Build(sess.UserID, s.Location)
	if err := s.Store.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("insert submission: %w", err)
	}
	s.Logger.Info("submission created", zap.String("submission_id", sub.ID.String()), zap.String("organizer_id", sess.UserID.String()))

	s.enqueueMirror(ctx, sess, sub)
	s.notifyPending(ctx)
	v := s.view(*sub)
	return &v, nil
}

type mirrorSubmission struct {
	models.EventSubmission
	OrganizerEmail string `json:"organizer_email"`
}

func (s *Service) enqueueMirror(ctx context.Context, sess auth.Session, sub *models.EventSubmission) {
	if s.Mirror == nil {
		return
	}
	body, err := json.Marshal(mirrorSubmission{EventSubmission: *sub, OrganizerEmail: sess.Email})
	if err == nil {
		err = s.Mirror.EnqueueMirror(ctx, queue.MirrorPayload{SubmissionID: sub.ID, Submission: body})
	}
	if err != nil {
		s.Logger.Warn("cms mirror enqueue failed", zap.String("submission_id", sub.ID.String()), zap.Error(err))
	}
}

// ListMine returns the caller's own submissions, newest first.
func (s *Service) ListMine(ctx context.Context, sess auth.Session, limit, offset int) ([]View, error) {
	list, err := s.Store.ListByOrganizer(ctx, sess.UserID, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]View, 0, len(list))
	for _, sub := range list {
		out = append(out, s.view(sub))
	}
	return out, nil
}

// GetMine returns one submission. Submissions of other organizers look missing, except to admins.
func (s *Service) GetMine(ctx context.Context, sess auth.Session, id uuid.UUID) (*View, error) {
	sub, err := s.Store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.OrganizerID != sess.UserID && !sess.IsAdmin() {
		return nil, ErrNotFound
	}
	v := s.view(*sub)
	return &v, nil
}

// AttachImage sets image_url on one of the caller's submissions.
func (s *Service) AttachImage(ctx context.Context, sess auth.Session, id uuid.UUID, imageURL string) error {
	ok, err := s.Store.SetImageURL(ctx, id, sess.UserID, imageURL)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// ParseStatusFilter maps the review filter. Empty means pending, "all" means no filter.
func ParseStatusFilter(raw string) (*models.SubmissionStatus, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	switch raw {
	case "":
		st := models.SubmissionPending
		return &st, nil
	case "all":
		return nil, nil
	}
	st := models.SubmissionStatus(raw)
	if !st.Valid() {
		return nil, ErrInvalidStatus
	}
	return &st, nil
}

// ListForReview returns submissions filtered by status for admins.
func (s *Service) ListForReview(ctx context.Context, sess auth.Session, status *models.SubmissionStatus, limit, offset int) ([]models.EventSubmission, error) {
	if !sess.IsAdmin() {
		return nil, ErrForbidden
	}
	list, err := s.Store.ListByStatus(ctx, status, limit, offset)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.EventSubmission{}
	}
	return list, nil
}

// Counts returns submission totals per status.
func (s *Service) Counts(ctx context.Context) (models.SubmissionStatusCounts, error) {
	return s.Store.Counts(ctx)
}

// Approve promotes a pending submission into a live event and marks it published.
//
// Approvals of one submission are serialized by a lock. The CMS create carries an
// idempotency key derived from the submission id and its result is stored before
// the status flip, so a retry after a partial failure reuses the same live event.
// Approving an already published submission returns it unchanged.
func (s *Service) Approve(ctx context.Context, sess auth.Session, id uuid.UUID, confirm bool) (*models.EventSubmission, error) {
	if !sess.IsAdmin() {
		return nil, ErrForbidden
	}
	if !confirm {
		return nil, ErrConfirmationRequired
	}
	lockKey := "submission:" + id.String()
	acquired, err := s.Locker.Acquire(ctx, lockKey, approveLockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire approve lock: %w", err)
	}
	if !acquired {
		return nil, ErrBusy
	}
	defer func() {
		if err := s.Locker.Release(context.WithoutCancel(ctx), lockKey); err != nil {
			s.Logger.Warn("release approve lock failed", zap.String("submission_id", id.String()), zap.Error(err))
		}
	}()

	sub, err := s.Store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	switch sub.Status {
	case models.SubmissionPublished:
		return sub, nil
	case models.SubmissionRejected:
		return nil, ErrInvalidTransition
	}

	if sub.CMSEventID == nil {
		ev, err := s.Events.CreateEvent(ctx, ToEvent(sub), IdempotencyKey(sub))
		if err != nil {
			return nil, fmt.Errorf("create live event: %w", err)
		}
		if err := s.Store.SetCMSEventID(ctx, id, ev.ID); err != nil {
			s.Logger.Error("live event created but link not stored",
				zap.String("submission_id", id.String()), zap.Int64("cms_event_id", ev.ID), zap.Error(err))
			return nil, fmt.Errorf("store cms event id: %w", err)
		}
		sub.CMSEventID = &ev.ID
	}

	if err := s.publish(ctx, sub); err != nil {
		return nil, err
	}
	s.Logger.Info("submission approved",
		zap.String("submission_id", id.String()), zap.Int64("cms_event_id", *sub.CMSEventID), zap.String("admin_id", sess.UserID.String()))
	s.afterReview(ctx)
	return sub, nil
}

func (s *Service) publish(ctx context.Context, sub *models.EventSubmission) error {
	at := s.now().UTC()
	ok, err := s.Store.MarkPublished(ctx, sub.ID, at)
	if err != nil {
		return fmt.Errorf("mark published: %w", err)
	}
	if !ok {
		cur, err := s.Store.Get(ctx, sub.ID)
		if err != nil {
			return err
		}
		if cur.Status != models.SubmissionPublished {
			return ErrInvalidTransition
		}
		*sub = *cur
		return nil
	}
	sub.Status = models.SubmissionPublished
	sub.PublishedAt = &at
	sub.AdminNotes = nil
	return nil
}

// Reject marks a pending submission rejected with a non-empty reason.
func (s *Service) Reject(ctx context.Context, sess auth.Session, id uuid.UUID, reason string) (*models.EventSubmission, error) {
	if !sess.IsAdmin() {
		return nil, ErrForbidden
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrReasonRequired
	}
	ok, err := s.Store.Reject(ctx, id, reason)
	if err != nil {
		return nil, fmt.Errorf("reject submission: %w", err)
	}
	sub, err := s.Store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidTransition
	}
	s.Logger.Info("submission rejected", zap.String("submission_id", id.String()), zap.String("admin_id", sess.UserID.String()))
	s.afterReview(ctx)
	return sub, nil
}

// MarkPublishedToWordPress flags the submission behind a live event, if any.
func (s *Service) MarkPublishedToWordPress(ctx context.Context, cmsEventID int64) (bool, error) {
	return s.Store.MarkPublishedToWordPress(ctx, cmsEventID)
}

// Reconcile finishes approvals whose live event exists but whose status never
// became published. It returns how many submissions it completed.
func (s *Service) Reconcile(ctx context.Context, batch int) (int, error) {
	stranded, err := s.Store.ListStranded(ctx, batch)
	if err != nil {
		return 0, err
	}
	done := 0
	for i := range stranded {
		sub := &stranded[i]
		if err := s.publish(ctx, sub); err != nil {
			s.Logger.Warn("reconcile submission failed", zap.String("submission_id", sub.ID.String()), zap.Error(err))
			continue
		}
		s.Logger.Info("submission reconciled", zap.String("submission_id", sub.ID.String()), zap.Int64("cms_event_id", *sub.CMSEventID))
		done++
	}
	if done > 0 {
		s.afterReview(ctx)
	}
	return done, nil
}

func (s *Service) afterReview(ctx context.Context) {
	s.notifyPending(ctx)
	if s.Directory != nil {
		if err := s.Directory.Invalidate(ctx); err != nil {
			s.Logger.Warn("directory cache invalidate failed", zap.Error(err))
		}
	}
}

func (s *Service) notifyPending(ctx context.Context) {
	if s.Notifier == nil {
		return
	}
	counts, err := s.Store.Counts(ctx)
	if err == nil {
		err = s.Notifier.SubmissionsChanged(ctx, counts.Pending)
	}
	if err != nil {
		s.Logger.Warn("pending count notify failed", zap.Error(err))
	}
}
