package submissions

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/firstindallas/backend/internal/auth"
	"github.com/firstindallas/backend/internal/cms"
	"github.com/firstindallas/backend/internal/models"
)

type fixture struct {
	svc      *Service
	store    *memStore
	events   *MockEvents
	mirror   *recordingMirror
	notifier *recordingNotifier
	dir      *countingInvalidator
}

func newFixture() *fixture {
	f := &fixture{
		store:    newMemStore(),
		events:   new(MockEvents),
		mirror:   &recordingMirror{},
		notifier: &recordingNotifier{},
		dir:      &countingInvalidator{},
	}
	f.svc = NewService(Deps{
		Store:        f.store,
		Events:       f.events,
		Mirror:       f.mirror,
		Locker:       newMemLocker(),
		Notifier:     f.notifier,
		Directory:    f.dir,
		EventURLBase: "https://firstindallas.com/events",
	})
	return f
}

func organizer() auth.Session {
	return auth.Session{UserID: uuid.New(), Email: "org@example.com", Role: models.RoleOrganizer}
}

func admin() auth.Session {
	return auth.Session{UserID: uuid.New(), Email: "admin@example.com", Role: models.RoleAdmin}
}

func (f *fixture) submit(t *testing.T, sess auth.Session, mutate func(*Input)) *View {
	t.Helper()
	in := validInput()
	if mutate != nil {
		mutate(in)
	}
	v, err := f.svc.Create(context.Background(), sess, in)
	require.NoError(t, err)
	return v
}

func TestCreate_AlwaysPending(t *testing.T) {
	f := newFixture()
	org := organizer()
	for _, tier := range []models.Tier{models.TierFree, models.TierPaid, ""} {
		v := f.submit(t, org, func(in *Input) { in.SubmissionType = tier })
		assert.Equal(t, models.SubmissionPending, v.Status)
		assert.Equal(t, org.UserID, v.OrganizerID)
	}
	require.Len(t, f.mirror.jobs, 3)
	var mirrored map[string]any
	require.NoError(t, json.Unmarshal(f.mirror.jobs[0].Submission, &mirrored))
	assert.Equal(t, "org@example.com", mirrored["organizer_email"])
	assert.Equal(t, "Jazz Night", mirrored["title"])
	assert.Equal(t, []int{1, 2, 3}, f.notifier.counts)
}

func TestCreate_MirrorFailureDoesNotFail(t *testing.T) {
	f := newFixture()
	f.mirror.err = errors.New("redis down")
	v := f.submit(t, organizer(), nil)
	assert.Equal(t, models.SubmissionPending, v.Status)
}

func TestCreate_ValidationAndInsertFailure(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Create(context.Background(), organizer(), &Input{Title: "x"})
	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "City is required", verrs["city"])

	f.store.createErr = errors.New("insert failed")
	_, err = f.svc.Create(context.Background(), organizer(), validInput())
	require.Error(t, err)
	assert.Empty(t, f.mirror.jobs)
}

func TestListMine_NoCrossTenantLeakage(t *testing.T) {
	f := newFixture()
	a, b := organizer(), organizer()
	f.submit(t, a, nil)
	f.submit(t, a, func(in *Input) { in.Title = "Second" })
	f.submit(t, b, nil)

	list, err := f.svc.ListMine(context.Background(), a, 50, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	for _, v := range list {
		assert.Equal(t, a.UserID, v.OrganizerID)
	}
	assert.Equal(t, "Second", list[0].Title, "newest first")
}

func TestGetMine_OtherOrganizerLooksMissing(t *testing.T) {
	f := newFixture()
	a := organizer()
	v := f.submit(t, a, nil)

	_, err := f.svc.GetMine(context.Background(), organizer(), v.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := f.svc.GetMine(context.Background(), admin(), v.ID)
	require.NoError(t, err)
	assert.Equal(t, v.ID, got.ID)
}

func TestApprove_JazzNight(t *testing.T) {
	f := newFixture()
	v := f.submit(t, organizer(), nil)

	f.events.On("CreateEvent", mock.Anything, mock.MatchedBy(func(e models.Event) bool {
		return e.Title == "Jazz Night" && e.City == "Dallas" && e.Status == models.EventPublished && e.Category == models.CategoryStandard
	}), "submission-"+v.ID.String()).Return(&models.Event{ID: 42}, nil).Once()

	sub, err := f.svc.Approve(context.Background(), admin(), v.ID, true)
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionPublished, sub.Status)
	require.NotNil(t, sub.CMSEventID)
	assert.Equal(t, int64(42), *sub.CMSEventID)
	assert.NotNil(t, sub.PublishedAt)
	assert.Equal(t, 1, f.dir.n)
	f.events.AssertExpectations(t)

	mine, err := f.svc.GetMine(context.Background(), auth.Session{UserID: sub.OrganizerID}, v.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://firstindallas.com/events/42", mine.LiveURL)
}

func TestApprove_PaidIsFeatured(t *testing.T) {
	f := newFixture()
	v := f.submit(t, organizer(), func(in *Input) { in.SubmissionType = models.TierPaid })
	f.events.On("CreateEvent", mock.Anything, mock.MatchedBy(func(e models.Event) bool {
		return e.Category == models.CategoryFeatured
	}), mock.Anything).Return(&models.Event{ID: 7}, nil).Once()

	_, err := f.svc.Approve(context.Background(), admin(), v.ID, true)
	require.NoError(t, err)
	f.events.AssertExpectations(t)
}

func TestApprove_RequiresConfirmAndAdmin(t *testing.T) {
	f := newFixture()
	v := f.submit(t, organizer(), nil)

	_, err := f.svc.Approve(context.Background(), admin(), v.ID, false)
	assert.ErrorIs(t, err, ErrConfirmationRequired)
	_, err = f.svc.Approve(context.Background(), organizer(), v.ID, true)
	assert.ErrorIs(t, err, ErrForbidden)
	f.events.AssertNotCalled(t, "CreateEvent", mock.Anything, mock.Anything, mock.Anything)
}

func TestApprove_IsIdempotent(t *testing.T) {
	f := newFixture()
	v := f.submit(t, organizer(), nil)
	f.events.On("CreateEvent", mock.Anything, mock.Anything, mock.Anything).Return(&models.Event{ID: 42}, nil).Once()

	_, err := f.svc.Approve(context.Background(), admin(), v.ID, true)
	require.NoError(t, err)
	again, err := f.svc.Approve(context.Background(), admin(), v.ID, true)
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionPublished, again.Status)
	f.events.AssertNumberOfCalls(t, "CreateEvent", 1)
}

func TestApprove_RetryAfterFailedFlipReusesLiveEvent(t *testing.T) {
	f := newFixture()
	v := f.submit(t, organizer(), nil)
	f.events.On("CreateEvent", mock.Anything, mock.Anything, mock.Anything).Return(&models.Event{ID: 42}, nil).Once()

	f.store.failFlip = true
	_, err := f.svc.Approve(context.Background(), admin(), v.ID, true)
	require.Error(t, err)
	stuck, _ := f.store.Get(context.Background(), v.ID)
	assert.Equal(t, models.SubmissionPending, stuck.Status)
	require.NotNil(t, stuck.CMSEventID)

	f.store.failFlip = false
	sub, err := f.svc.Approve(context.Background(), admin(), v.ID, true)
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionPublished, sub.Status)
	f.events.AssertNumberOfCalls(t, "CreateEvent", 1)
}

func TestApprove_CMSFailureLeavesPending(t *testing.T) {
	f := newFixture()
	v := f.submit(t, organizer(), nil)
	f.events.On("CreateEvent", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, &cms.APIError{Status: 422, Detail: "start_at is required"})

	_, err := f.svc.Approve(context.Background(), admin(), v.ID, true)
	var apiErr *cms.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "start_at is required", apiErr.Detail)
	stuck, _ := f.store.Get(context.Background(), v.ID)
	assert.Equal(t, models.SubmissionPending, stuck.Status)
	assert.Nil(t, stuck.CMSEventID)
}

func TestApprove_Locked(t *testing.T) {
	f := newFixture()
	v := f.submit(t, organizer(), nil)
	locker := newMemLocker()
	f.svc.Locker = locker
	_, _ = locker.Acquire(context.Background(), "submission:"+v.ID.String(), approveLockTTL)

	_, err := f.svc.Approve(context.Background(), admin(), v.ID, true)
	assert.ErrorIs(t, err, ErrBusy)
}

func TestReject(t *testing.T) {
	f := newFixture()
	v := f.submit(t, organizer(), nil)

	_, err := f.svc.Reject(context.Background(), admin(), v.ID, "   ")
	assert.ErrorIs(t, err, ErrReasonRequired)
	cur, _ := f.store.Get(context.Background(), v.ID)
	assert.Equal(t, models.SubmissionPending, cur.Status)

	sub, err := f.svc.Reject(context.Background(), admin(), v.ID, " Duplicate listing ")
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionRejected, sub.Status)
	require.NotNil(t, sub.AdminNotes)
	assert.Equal(t, "Duplicate listing", *sub.AdminNotes)

	mine, err := f.svc.GetMine(context.Background(), auth.Session{UserID: sub.OrganizerID}, v.ID)
	require.NoError(t, err)
	assert.Equal(t, "Duplicate listing", mine.RejectionReason)
}

func TestReject_ThenApproveIsInvalid(t *testing.T) {
	f := newFixture()
	v := f.submit(t, organizer(), nil)
	_, err := f.svc.Reject(context.Background(), admin(), v.ID, "spam")
	require.NoError(t, err)

	_, err = f.svc.Approve(context.Background(), admin(), v.ID, true)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = f.svc.Reject(context.Background(), admin(), v.ID, "again")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestReconcile(t *testing.T) {
	f := newFixture()
	v := f.submit(t, organizer(), nil)
	require.NoError(t, f.store.SetCMSEventID(context.Background(), v.ID, 99))
	f.submit(t, organizer(), nil)

	n, err := f.svc.Reconcile(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	cur, _ := f.store.Get(context.Background(), v.ID)
	assert.Equal(t, models.SubmissionPublished, cur.Status)
}

func TestParseStatusFilter(t *testing.T) {
	st, err := ParseStatusFilter("")
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionPending, *st)

	st, err = ParseStatusFilter("ALL")
	require.NoError(t, err)
	assert.Nil(t, st)

	st, err = ParseStatusFilter("rejected")
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionRejected, *st)

	_, err = ParseStatusFilter("archived")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}
