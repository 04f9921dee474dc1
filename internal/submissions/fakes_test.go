package submissions

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/firstindallas/backend/internal/models"
	"github.com/firstindallas/backend/pkg/queue"
)

type memStore struct {
	mu        sync.Mutex
	rows      map[uuid.UUID]*models.EventSubmission
	failFlip  bool
	createErr error
}

func newMemStore() *memStore { return &memStore{rows: map[uuid.UUID]*models.EventSubmission{}} }

func (m *memStore) Create(_ context.Context, s *models.EventSubmission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	s.ID = uuid.New()
	s.Status = models.SubmissionPending
	s.CreatedAt = time.Now().Add(time.Duration(len(m.rows)) * time.Second)
	cp := *s
	m.rows[s.ID] = &cp
	return nil
}

func (m *memStore) Get(_ context.Context, id uuid.UUID) (*models.EventSubmission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memStore) list(keep func(*models.EventSubmission) bool, limit, offset int) []models.EventSubmission {
	var out []models.EventSubmission
	for _, s := range m.rows {
		if keep(s) {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (m *memStore) ListByOrganizer(_ context.Context, organizerID uuid.UUID, limit, offset int) ([]models.EventSubmission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.list(func(s *models.EventSubmission) bool { return s.OrganizerID == organizerID }, limit, offset), nil
}

func (m *memStore) ListByStatus(_ context.Context, status *models.SubmissionStatus, limit, offset int) ([]models.EventSubmission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.list(func(s *models.EventSubmission) bool { return status == nil || s.Status == *status }, limit, offset), nil
}

func (m *memStore) Counts(_ context.Context) (models.SubmissionStatusCounts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var c models.SubmissionStatusCounts
	for _, s := range m.rows {
		c.Total++
		switch s.Status {
		case models.SubmissionPending:
			c.Pending++
		case models.SubmissionApproved:
			c.Approved++
		case models.SubmissionPublished:
			c.Published++
		case models.SubmissionRejected:
			c.Rejected++
		}
	}
	return c, nil
}

func (m *memStore) SetCMSEventID(_ context.Context, id uuid.UUID, cmsEventID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.rows[id]; ok && s.CMSEventID == nil {
		s.CMSEventID = &cmsEventID
	}
	return nil
}

func (m *memStore) MarkPublished(_ context.Context, id uuid.UUID, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failFlip {
		return false, errors.New("connection reset")
	}
	s, ok := m.rows[id]
	if !ok || (s.Status != models.SubmissionPending && s.Status != models.SubmissionApproved) {
		return false, nil
	}
	s.Status = models.SubmissionPublished
	s.PublishedAt = &at
	s.AdminNotes = nil
	return true, nil
}

func (m *memStore) Reject(_ context.Context, id uuid.UUID, reason string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.rows[id]
	if !ok || s.Status != models.SubmissionPending {
		return false, nil
	}
	s.Status = models.SubmissionRejected
	s.AdminNotes = &reason
	return true, nil
}

func (m *memStore) SetImageURL(_ context.Context, id, organizerID uuid.UUID, imageURL string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.rows[id]
	if !ok || s.OrganizerID != organizerID {
		return false, nil
	}
	s.ImageURL = imageURL
	return true, nil
}

func (m *memStore) MarkPublishedToWordPress(_ context.Context, cmsEventID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	hit := false
	for _, s := range m.rows {
		if s.CMSEventID != nil && *s.CMSEventID == cmsEventID {
			s.PublishedToWordPress = true
			hit = true
		}
	}
	return hit, nil
}

func (m *memStore) ListStranded(_ context.Context, limit int) ([]models.EventSubmission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.list(func(s *models.EventSubmission) bool {
		return s.CMSEventID != nil && (s.Status == models.SubmissionPending || s.Status == models.SubmissionApproved)
	}, limit, 0), nil
}

type MockEvents struct {
	mock.Mock
}

func (m *MockEvents) CreateEvent(ctx context.Context, e models.Event, key string) (*models.Event, error) {
	args := m.Called(ctx, e, key)
	if ev := args.Get(0); ev != nil {
		return ev.(*models.Event), args.Error(1)
	}
	return nil, args.Error(1)
}

type memLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func newMemLocker() *memLocker { return &memLocker{held: map[string]bool{}} }

func (l *memLocker) Acquire(_ context.Context, key string, _ time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] {
		return false, nil
	}
	l.held[key] = true
	return true, nil
}

func (l *memLocker) Release(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
	return nil
}

type recordingMirror struct {
	jobs []queue.MirrorPayload
	err  error
}

func (r *recordingMirror) EnqueueMirror(_ context.Context, p queue.MirrorPayload) error {
	if r.err != nil {
		return r.err
	}
	r.jobs = append(r.jobs, p)
	return nil
}

type recordingNotifier struct {
	counts []int
}

func (r *recordingNotifier) SubmissionsChanged(_ context.Context, n int) error {
	r.counts = append(r.counts, n)
	return nil
}

type countingInvalidator struct{ n int }

func (c *countingInvalidator) Invalidate(context.Context) error {
	c.n++
	return nil
}
