package services

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nakkita92/tutorhub_backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSessionFixture(t *testing.T) (*fakeSessionStore, *SessionService, uuid.UUID) {
	t.Helper()
	store := newFakeSessionStore()
	teacher := &models.Teacher{ID: uuid.New(), UserID: uuid.New(), IsActive: true}
	store.teachers[teacher.ID] = teacher
	return store, NewSessionService(store), teacher.ID
}

func groupSession(teacherID uuid.UUID, start, end time.Time) models.Session {
	return models.Session{
		TeacherID:   teacherID,
		ServiceType: models.ServiceGroup,
		Title:       "Conversation practice",
		StartTime:   start,
		EndTime:     end,
		Capacity:    6,
	}
}

func TestScheduleSessionTeacherNotFound(t *testing.T) {
	_, svc, _ := newSessionFixture(t)
	session := groupSession(uuid.New(),
		mustTime(t, "2024-03-04T10:00:00Z"), mustTime(t, "2024-03-04T11:00:00Z"))

	err := svc.ScheduleSession(&session)
	require.Error(t, err)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestScheduleSessionRejectsOverlap(t *testing.T) {
	store, svc, teacherID := newSessionFixture(t)

	first := groupSession(teacherID,
		mustTime(t, "2024-03-04T10:00:00Z"), mustTime(t, "2024-03-04T11:00:00Z"))
	require.NoError(t, svc.ScheduleSession(&first))
	require.Len(t, store.sessions, 1)

	second := groupSession(teacherID,
		mustTime(t, "2024-03-04T10:30:00Z"), mustTime(t, "2024-03-04T11:30:00Z"))
	err := svc.ScheduleSession(&second)
	require.Error(t, err)
	assert.Equal(t, KindConflict, KindOf(err))
	assert.Len(t, store.sessions, 1)

	// Back-to-back is fine (strict overlap).
	third := groupSession(teacherID,
		mustTime(t, "2024-03-04T11:00:00Z"), mustTime(t, "2024-03-04T12:00:00Z"))
	require.NoError(t, svc.ScheduleSession(&third))
	assert.Len(t, store.sessions, 2)
}

func TestScheduleSessionConcurrentSameWindow(t *testing.T) {
	store, svc, teacherID := newSessionFixture(t)
	start := mustTime(t, "2024-03-04T10:00:00Z")
	end := mustTime(t, "2024-03-04T11:00:00Z")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			session := groupSession(teacherID, start, end)
			errs[i] = svc.ScheduleSession(&session)
		}(i)
	}
	wg.Wait()

	succeeded, conflicted := 0, 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.Equal(t, KindConflict, KindOf(err))
			conflicted++
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, conflicted)
	assert.Len(t, store.sessions, 1)
}

func TestCreatePrivateLessonCreatesSessionAndPendingBooking(t *testing.T) {
	store, svc, teacherID := newSessionFixture(t)
	studentID := uuid.New()

	session, booking, err := svc.CreatePrivateLesson(teacherID, studentID,
		mustTime(t, "2024-03-04T10:00:00Z"), mustTime(t, "2024-03-04T11:00:00Z"))
	require.NoError(t, err)

	assert.Equal(t, models.ServicePrivate, session.ServiceType)
	assert.Equal(t, 1, session.Capacity)
	assert.Equal(t, session.ID, booking.SessionID)
	assert.Equal(t, models.BookingPending, booking.Status)
	assert.NotEmpty(t, booking.Reference)
	require.Len(t, store.sessions, 1)
	require.Len(t, store.bookings, 1)
}

func TestCreatePrivateLessonConcurrentSameWindow(t *testing.T) {
	store, svc, teacherID := newSessionFixture(t)
	start := mustTime(t, "2024-03-04T10:00:00Z")
	end := mustTime(t, "2024-03-04T11:00:00Z")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, errs[i] = svc.CreatePrivateLesson(teacherID, uuid.New(), start, end)
		}(i)
	}
	wg.Wait()

	succeeded, conflicted := 0, 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.Equal(t, KindConflict, KindOf(err))
			conflicted++
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, conflicted)
	assert.Len(t, store.sessions, 1)
	assert.Len(t, store.bookings, 1)
}

func TestCreatePrivateLessonRetryReturnsOwnPendingBooking(t *testing.T) {
	store, svc, teacherID := newSessionFixture(t)
	studentID := uuid.New()
	start := mustTime(t, "2024-03-04T10:00:00Z")
	end := mustTime(t, "2024-03-04T11:00:00Z")

	_, first, err := svc.CreatePrivateLesson(teacherID, studentID, start, end)
	require.NoError(t, err)

	// Retrying after an interrupted checkout resumes the same booking.
	_, second, err := svc.CreatePrivateLesson(teacherID, studentID, start, end)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, store.sessions, 1)
	assert.Len(t, store.bookings, 1)

	// A different student hitting the same window is a conflict, not a
	// takeover of the pending booking.
	_, _, err = svc.CreatePrivateLesson(teacherID, uuid.New(), start, end)
	require.Error(t, err)
	assert.Equal(t, KindConflict, KindOf(err))
}

func TestCreatePrivateLessonNoRetryForConfirmedBooking(t *testing.T) {
	store, svc, teacherID := newSessionFixture(t)
	studentID := uuid.New()
	start := mustTime(t, "2024-03-04T10:00:00Z")
	end := mustTime(t, "2024-03-04T11:00:00Z")

	_, booking, err := svc.CreatePrivateLesson(teacherID, studentID, start, end)
	require.NoError(t, err)
	for i := range store.bookings {
		if store.bookings[i].ID == booking.ID {
			store.bookings[i].Status = models.BookingConfirmed
		}
	}

	_, _, err = svc.CreatePrivateLesson(teacherID, studentID, start, end)
	require.Error(t, err)
	assert.Equal(t, KindConflict, KindOf(err))
}
