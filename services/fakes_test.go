package services

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nakkita92/tutorhub_backend/models"
)

// In-memory stand-ins for the repository layer. The package fake models the
// row lock with a mutex held for the whole transaction, which is exactly the
// serialization the postgres SELECT ... FOR UPDATE provides on a single
// package row.

// --- availability ---

type fakeAvailabilityStore struct {
	teachers map[uuid.UUID]*models.Teacher
	rules    []models.TeacherAvailability
	sessions []models.Session
	bookings map[uuid.UUID][]models.Booking
}

func newFakeAvailabilityStore() *fakeAvailabilityStore {
	return &fakeAvailabilityStore{
		teachers: make(map[uuid.UUID]*models.Teacher),
		bookings: make(map[uuid.UUID][]models.Booking),
	}
}

func (s *fakeAvailabilityStore) FindTeacher(teacherID uuid.UUID) (*models.Teacher, error) {
	return s.teachers[teacherID], nil
}

func (s *fakeAvailabilityStore) ActiveRules(teacherID uuid.UUID) ([]models.TeacherAvailability, error) {
	var out []models.TeacherAvailability
	for _, r := range s.rules {
		if r.TeacherID == teacherID && r.IsActive && r.DeletedAt == nil {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *fakeAvailabilityStore) OverlappingSessions(teacherID uuid.UUID, startAt, endAt time.Time) ([]models.Session, error) {
	var out []models.Session
	for _, sess := range s.sessions {
		if sess.TeacherID != teacherID || sess.DeletedAt != nil || sess.Status == "cancelled" {
			continue
		}
		if sess.StartTime.Before(endAt) && sess.EndTime.After(startAt) {
			out = append(out, sess)
		}
	}
	return out, nil
}

func (s *fakeAvailabilityStore) ActiveBookingsForSession(sessionID uuid.UUID) ([]models.Booking, error) {
	var out []models.Booking
	for _, b := range s.bookings[sessionID] {
		if b.Active() {
			out = append(out, b)
		}
	}
	return out, nil
}

// --- credit ledger ---

type fakePackageStore struct {
	mu       sync.Mutex
	packages map[uuid.UUID]*models.StudentPackage
	sessions map[uuid.UUID]*models.Session
	uses     []models.PackageUse
	bookings []models.Booking
}

func newFakePackageStore() *fakePackageStore {
	return &fakePackageStore{
		packages: make(map[uuid.UUID]*models.StudentPackage),
		sessions: make(map[uuid.UUID]*models.Session),
	}
}

func (s *fakePackageStore) WithTx(fn func(tx PackageTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx := &fakePackageTx{store: s}
	if err := fn(tx); err != nil {
		return err // rollback: buffered writes are dropped
	}
	s.uses = append(s.uses, tx.newUses...)
	s.bookings = append(s.bookings, tx.newBookings...)
	for _, b := range tx.updatedBookings {
		for i := range s.bookings {
			if s.bookings[i].ID == b.ID {
				s.bookings[i] = b
			}
		}
	}
	return nil
}

func (s *fakePackageStore) FindUse(useID uuid.UUID) (*models.PackageUse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.uses {
		if s.uses[i].ID == useID {
			u := s.uses[i]
			return &u, nil
		}
	}
	return nil, nil
}

func (s *fakePackageStore) UpdateUseBooking(useID, bookingID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.uses {
		if s.uses[i].ID == useID {
			id := bookingID
			s.uses[i].BookingID = &id
		}
	}
	return nil
}

type fakePackageTx struct {
	store           *fakePackageStore
	newUses         []models.PackageUse
	newBookings     []models.Booking
	updatedBookings []models.Booking
}

func (t *fakePackageTx) LockPackage(packageID uuid.UUID) (*models.StudentPackage, error) {
	pkg, ok := t.store.packages[packageID]
	if !ok || pkg.DeletedAt != nil {
		return nil, nil
	}
	cp := *pkg
	return &cp, nil
}

func (t *fakePackageTx) FindSession(sessionID uuid.UUID) (*models.Session, error) {
	sess, ok := t.store.sessions[sessionID]
	if !ok || sess.DeletedAt != nil {
		return nil, nil
	}
	cp := *sess
	return &cp, nil
}

func (t *fakePackageTx) UsesForPackage(packageID uuid.UUID) ([]models.PackageUse, error) {
	var out []models.PackageUse
	for _, u := range t.store.uses {
		if u.StudentPackageID == packageID {
			out = append(out, u)
		}
	}
	for _, u := range t.newUses {
		if u.StudentPackageID == packageID {
			out = append(out, u)
		}
	}
	return out, nil
}

func (t *fakePackageTx) CreateUse(use *models.PackageUse) error {
	use.ID = uuid.New()
	t.newUses = append(t.newUses, *use)
	return nil
}

func (t *fakePackageTx) FindBooking(bookingID uuid.UUID) (*models.Booking, error) {
	for i := range t.store.bookings {
		if t.store.bookings[i].ID == bookingID && t.store.bookings[i].DeletedAt == nil {
			cp := t.store.bookings[i]
			return &cp, nil
		}
	}
	return nil, nil
}

func (t *fakePackageTx) CreateBooking(booking *models.Booking) error {
	for _, b := range append(t.store.bookings, t.newBookings...) {
		if b.SessionID == booking.SessionID && b.StudentID == booking.StudentID {
			return Conflictf("You already have a booking for this session")
		}
	}
	booking.ID = uuid.New()
	t.newBookings = append(t.newBookings, *booking)
	return nil
}

func (t *fakePackageTx) UpdateBooking(booking *models.Booking) error {
	t.updatedBookings = append(t.updatedBookings, *booking)
	return nil
}

// --- session scheduling ---

type fakeSessionStore struct {
	mu       sync.Mutex
	teachers map[uuid.UUID]*models.Teacher
	sessions []models.Session
	bookings []models.Booking
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{teachers: make(map[uuid.UUID]*models.Teacher)}
}

func (s *fakeSessionStore) WithTx(fn func(tx SessionTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx := &fakeSessionTx{store: s}
	if err := fn(tx); err != nil {
		return err
	}
	s.sessions = append(s.sessions, tx.newSessions...)
	s.bookings = append(s.bookings, tx.newBookings...)
	return nil
}

type fakeSessionTx struct {
	store       *fakeSessionStore
	newSessions []models.Session
	newBookings []models.Booking
}

func (t *fakeSessionTx) LockTeacher(teacherID uuid.UUID) (*models.Teacher, error) {
	teacher, ok := t.store.teachers[teacherID]
	if !ok {
		return nil, nil
	}
	cp := *teacher
	return &cp, nil
}

func (t *fakeSessionTx) OverlappingSessions(teacherID uuid.UUID, startAt, endAt time.Time) ([]models.Session, error) {
	var out []models.Session
	for _, sess := range append(t.store.sessions, t.newSessions...) {
		if sess.TeacherID != teacherID || sess.DeletedAt != nil || sess.Status == "cancelled" {
			continue
		}
		if sess.StartTime.Before(endAt) && sess.EndTime.After(startAt) {
			out = append(out, sess)
		}
	}
	return out, nil
}

func (t *fakeSessionTx) ActiveBookingsForSession(sessionID uuid.UUID) ([]models.Booking, error) {
	var out []models.Booking
	for _, b := range append(t.store.bookings, t.newBookings...) {
		if b.SessionID == sessionID && b.Active() {
			out = append(out, b)
		}
	}
	return out, nil
}

func (t *fakeSessionTx) CreateSession(session *models.Session) error {
	session.ID = uuid.New()
	if session.Status == "" {
		session.Status = "scheduled"
	}
	t.newSessions = append(t.newSessions, *session)
	return nil
}

func (t *fakeSessionTx) CreateBooking(booking *models.Booking) error {
	for _, b := range append(t.store.bookings, t.newBookings...) {
		if b.SessionID == booking.SessionID && b.StudentID == booking.StudentID {
			return Conflictf("You already have a booking for this session")
		}
	}
	booking.ID = uuid.New()
	t.newBookings = append(t.newBookings, *booking)
	return nil
}

// --- waitlist ---

type fakeWaitlistStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*models.Session
	entries  []models.WaitlistEntry
	bookings []models.Booking

	// sessions whose queue lock was taken, in order
	lockedQueues []uuid.UUID
}

func newFakeWaitlistStore() *fakeWaitlistStore {
	return &fakeWaitlistStore{sessions: make(map[uuid.UUID]*models.Session)}
}

func (s *fakeWaitlistStore) WithTx(fn func(tx WaitlistTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&fakeWaitlistTx{store: s})
}

func (s *fakeWaitlistStore) FindSession(sessionID uuid.UUID) (*models.Session, error) {
	sess, ok := s.sessions[sessionID]
	if !ok || sess.DeletedAt != nil {
		return nil, nil
	}
	cp := *sess
	return &cp, nil
}

func (s *fakeWaitlistStore) ActiveBookingCount(sessionID uuid.UUID) (int, error) {
	count := 0
	for _, b := range s.bookings {
		if b.SessionID == sessionID && b.Active() {
			count++
		}
	}
	return count, nil
}

func (s *fakeWaitlistStore) FindEntry(entryID uuid.UUID) (*models.WaitlistEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.entries {
		if s.entries[i].ID == entryID {
			cp := s.entries[i]
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *fakeWaitlistStore) FindEntryByStudent(sessionID, studentID uuid.UUID) (*models.WaitlistEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.entries {
		if s.entries[i].SessionID == sessionID && s.entries[i].StudentID == studentID {
			cp := s.entries[i]
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *fakeWaitlistStore) HeadEntry(sessionID uuid.UUID) (*models.WaitlistEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.entries {
		if s.entries[i].SessionID == sessionID && s.entries[i].Position == 1 {
			cp := s.entries[i]
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *fakeWaitlistStore) UpdateEntry(entry *models.WaitlistEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.entries {
		if s.entries[i].ID == entry.ID {
			s.entries[i] = *entry
		}
	}
	return nil
}

func (s *fakeWaitlistStore) LapsedEntries(now time.Time) ([]models.WaitlistEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.WaitlistEntry
	for _, e := range s.entries {
		if e.NotificationExpiresAt != nil && e.NotificationExpiresAt.Before(now) {
			out = append(out, e)
		}
	}
	return out, nil
}

// positionsFor returns the sorted positions of a session's queue, for
// gaplessness assertions.
func (s *fakeWaitlistStore) positionsFor(sessionID uuid.UUID) []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []int
	for _, e := range s.entries {
		if e.SessionID == sessionID {
			out = append(out, e.Position)
		}
	}
	sort.Ints(out)
	return out
}

type fakeWaitlistTx struct {
	store *fakeWaitlistStore
}

func (t *fakeWaitlistTx) LockQueue(sessionID uuid.UUID) error {
	t.store.lockedQueues = append(t.store.lockedQueues, sessionID)
	return nil
}

func (t *fakeWaitlistTx) FindEntry(entryID uuid.UUID) (*models.WaitlistEntry, error) {
	for i := range t.store.entries {
		if t.store.entries[i].ID == entryID {
			cp := t.store.entries[i]
			return &cp, nil
		}
	}
	return nil, nil
}

func (t *fakeWaitlistTx) MaxPosition(sessionID uuid.UUID) (int, error) {
	max := 0
	for _, e := range t.store.entries {
		if e.SessionID == sessionID && e.Position > max {
			max = e.Position
		}
	}
	return max, nil
}

func (t *fakeWaitlistTx) CreateEntry(entry *models.WaitlistEntry) error {
	for _, e := range t.store.entries {
		if e.SessionID == entry.SessionID && e.StudentID == entry.StudentID {
			return Conflictf("You are already on the waitlist for this session")
		}
	}
	entry.ID = uuid.New()
	t.store.entries = append(t.store.entries, *entry)
	return nil
}

func (t *fakeWaitlistTx) DeleteEntry(entryID uuid.UUID) error {
	for i := range t.store.entries {
		if t.store.entries[i].ID == entryID {
			t.store.entries = append(t.store.entries[:i], t.store.entries[i+1:]...)
			return nil
		}
	}
	return nil
}

func (t *fakeWaitlistTx) CompactPositionsAfter(sessionID uuid.UUID, removedPosition int) error {
	for i := range t.store.entries {
		if t.store.entries[i].SessionID == sessionID && t.store.entries[i].Position > removedPosition {
			t.store.entries[i].Position--
		}
	}
	return nil
}

func (t *fakeWaitlistTx) CreateBooking(booking *models.Booking) error {
	for _, b := range t.store.bookings {
		if b.SessionID == booking.SessionID && b.StudentID == booking.StudentID {
			return Conflictf("You already have a booking for this session")
		}
	}
	booking.ID = uuid.New()
	t.store.bookings = append(t.store.bookings, *booking)
	return nil
}

// --- notifier ---

type fakeNotifier struct {
	mu     sync.Mutex
	offers []models.WaitlistEntry
}

func (n *fakeNotifier) NotifyOffer(entry models.WaitlistEntry, session models.Session) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.offers = append(n.offers, entry)
}

func (n *fakeNotifier) offered() []models.WaitlistEntry {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]models.WaitlistEntry(nil), n.offers...)
}

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}
