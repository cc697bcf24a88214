// Package memory implements domain.Store with plain maps. It backs the test
// suites and the local development mode where no PostgreSQL is available.
//
// Transactions are simulated with a single mutex: Atomic and Serializable
// both serialize callers, which matches the isolation the domain needs, but
// writes are applied immediately and are not rolled back on error. Services
// keep their error returns ahead of their writes, so the suites do not depend
// on rollback.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/futevolei/futevolei-booking/internal/domain"
)

// Store is an in-memory domain.Store.
type Store struct {
	mu sync.Mutex

	classes     map[uint]domain.Class
	enrollments map[uint]domain.Enrollment
	payments    map[uint]domain.Payment
	attendance  map[string]domain.Attendance // key: classID/userID

	nextClassID      uint
	nextEnrollmentID uint
	nextPaymentID    uint
	nextAttendanceID uint
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		classes:     make(map[uint]domain.Class),
		enrollments: make(map[uint]domain.Enrollment),
		payments:    make(map[uint]domain.Payment),
		attendance:  make(map[string]domain.Attendance),
	}
}

// Classes returns the class repository.
func (s *Store) Classes() domain.ClassRepository { return &classRepo{repoLock{s: s}} }

// Enrollments returns the enrollment repository.
func (s *Store) Enrollments() domain.EnrollmentRepository { return &enrollmentRepo{repoLock{s: s}} }

// Payments returns the payment repository.
func (s *Store) Payments() domain.PaymentRepository { return &paymentRepo{repoLock{s: s}} }

// Attendance returns the attendance repository.
func (s *Store) Attendance() domain.AttendanceRepository { return &attendanceRepo{repoLock{s: s}} }

// Atomic serializes fn against all other transactions.
func (s *Store) Atomic(ctx context.Context, fn func(domain.Store) error) error {
	return s.transact(fn)
}

// Serializable behaves like Atomic: the single mutex already gives full
// serialization.
func (s *Store) Serializable(ctx context.Context, fn func(domain.Store) error) error {
	return s.transact(fn)
}

func (s *Store) transact(fn func(domain.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(txStore{s})
}

// txStore is handed to transaction callbacks. Its repositories are distinct
// instances that skip locking, because the transaction already holds the
// mutex; repositories obtained outside a transaction keep locking normally.
type txStore struct {
	s *Store
}

func (t txStore) Classes() domain.ClassRepository { return &classRepo{repoLock{s: t.s, held: true}} }

func (t txStore) Enrollments() domain.EnrollmentRepository {
	return &enrollmentRepo{repoLock{s: t.s, held: true}}
}

func (t txStore) Payments() domain.PaymentRepository {
	return &paymentRepo{repoLock{s: t.s, held: true}}
}

func (t txStore) Attendance() domain.AttendanceRepository {
	return &attendanceRepo{repoLock{s: t.s, held: true}}
}

func (t txStore) Atomic(ctx context.Context, fn func(domain.Store) error) error {
	return fn(t)
}

func (t txStore) Serializable(ctx context.Context, fn func(domain.Store) error) error {
	return fn(t)
}

// repoLock is embedded by every repository. held marks repositories created
// inside a transaction, where the store mutex is already taken.
type repoLock struct {
	s    *Store
	held bool
}

func (l repoLock) lock() func() {
	if l.held {
		return func() {}
	}
	l.s.mu.Lock()
	return l.s.mu.Unlock
}

type classRepo struct{ repoLock }

func (r *classRepo) Create(ctx context.Context, class *domain.Class) error {
	defer r.lock()()
	r.s.nextClassID++
	class.ID = r.s.nextClassID
	if class.CreatedAt.IsZero() {
		class.CreatedAt = time.Now().UTC()
	}
	r.s.classes[class.ID] = *class
	return nil
}

func (r *classRepo) Update(ctx context.Context, class *domain.Class) error {
	defer r.lock()()
	if _, ok := r.s.classes[class.ID]; !ok {
		return domain.ErrClassNotFound
	}
	r.s.classes[class.ID] = *class
	return nil
}

func (r *classRepo) GetByID(ctx context.Context, id uint) (*domain.Class, error) {
	defer r.lock()()
	class, ok := r.s.classes[id]
	if !ok {
		return nil, domain.ErrClassNotFound
	}
	return &class, nil
}

func (r *classRepo) ListOpenFrom(ctx context.Context, from time.Time) ([]domain.Class, error) {
	defer r.lock()()
	var list []domain.Class
	for _, class := range r.s.classes {
		if class.Status == domain.ClassOpen && !class.StartsAt.Before(from) {
			list = append(list, class)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].StartsAt.Before(list[j].StartsAt) })
	return list, nil
}

func (r *classRepo) CountBetween(ctx context.Context, from, to time.Time, status *domain.ClassStatus) (int64, error) {
	defer r.lock()()
	var count int64
	for _, class := range r.s.classes {
		if inRange(class.StartsAt, from, to) && (status == nil || class.Status == *status) {
			count++
		}
	}
	return count, nil
}

func (r *classRepo) TotalCapacityBetween(ctx context.Context, from, to time.Time) (int64, error) {
	defer r.lock()()
	var total int64
	for _, class := range r.s.classes {
		if inRange(class.StartsAt, from, to) {
			total += int64(class.Capacity)
		}
	}
	return total, nil
}

type enrollmentRepo struct{ repoLock }

func (r *enrollmentRepo) Create(ctx context.Context, enrollment *domain.Enrollment) error {
	defer r.lock()()
	r.s.nextEnrollmentID++
	enrollment.ID = r.s.nextEnrollmentID
	if enrollment.CreatedAt.IsZero() {
		enrollment.CreatedAt = time.Now().UTC()
	}
	r.s.enrollments[enrollment.ID] = *enrollment
	return nil
}

func (r *enrollmentRepo) Update(ctx context.Context, enrollment *domain.Enrollment) error {
	defer r.lock()()
	if _, ok := r.s.enrollments[enrollment.ID]; !ok {
		return domain.ErrEnrollmentNotFound
	}
	r.s.enrollments[enrollment.ID] = *enrollment
	return nil
}

func (r *enrollmentRepo) GetByID(ctx context.Context, id uint) (*domain.Enrollment, error) {
	defer r.lock()()
	enrollment, ok := r.s.enrollments[id]
	if !ok {
		return nil, domain.ErrEnrollmentNotFound
	}
	return &enrollment, nil
}

func (r *enrollmentRepo) FindByUserAndClass(ctx context.Context, userID string, classID uint) (*domain.Enrollment, error) {
	defer r.lock()()
	for _, enrollment := range r.s.enrollments {
		if enrollment.UserID == userID && enrollment.ClassID == classID {
			e := enrollment
			return &e, nil
		}
	}
	return nil, domain.ErrEnrollmentNotFound
}

func (r *enrollmentRepo) ListByClass(ctx context.Context, classID uint) ([]domain.Enrollment, error) {
	defer r.lock()()
	var list []domain.Enrollment
	for _, enrollment := range r.s.enrollments {
		if enrollment.ClassID == classID {
			list = append(list, enrollment)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (r *enrollmentRepo) ListByUser(ctx context.Context, userID string) ([]domain.Enrollment, error) {
	defer r.lock()()
	var list []domain.Enrollment
	for _, enrollment := range r.s.enrollments {
		if enrollment.UserID == userID {
			list = append(list, enrollment)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID > list[j].ID })
	return list, nil
}

func (r *enrollmentRepo) CountConfirmed(ctx context.Context, classID uint) (int64, error) {
	defer r.lock()()
	var count int64
	for _, enrollment := range r.s.enrollments {
		if enrollment.ClassID == classID && enrollment.Status == domain.EnrollmentConfirmed {
			count++
		}
	}
	return count, nil
}

func (r *enrollmentRepo) StatusCountsBetween(ctx context.Context, from, to time.Time) (map[domain.EnrollmentStatus]int64, error) {
	defer r.lock()()
	counts := make(map[domain.EnrollmentStatus]int64)
	for _, enrollment := range r.s.enrollments {
		class, ok := r.s.classes[enrollment.ClassID]
		if ok && inRange(class.StartsAt, from, to) {
			counts[enrollment.Status]++
		}
	}
	return counts, nil
}

func (r *enrollmentRepo) UniqueStudentsBetween(ctx context.Context, from, to time.Time) (int64, error) {
	defer r.lock()()
	users := make(map[string]struct{})
	for _, enrollment := range r.s.enrollments {
		class, ok := r.s.classes[enrollment.ClassID]
		if ok && inRange(class.StartsAt, from, to) {
			users[enrollment.UserID] = struct{}{}
		}
	}
	return int64(len(users)), nil
}

type paymentRepo struct{ repoLock }

func (r *paymentRepo) Create(ctx context.Context, payment *domain.Payment) error {
	defer r.lock()()
	r.s.nextPaymentID++
	payment.ID = r.s.nextPaymentID
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = time.Now().UTC()
	}
	r.s.payments[payment.ID] = *payment
	return nil
}

func (r *paymentRepo) Update(ctx context.Context, payment *domain.Payment) error {
	defer r.lock()()
	if _, ok := r.s.payments[payment.ID]; !ok {
		return domain.ErrPaymentNotFound
	}
	r.s.payments[payment.ID] = *payment
	return nil
}

func (r *paymentRepo) GetByID(ctx context.Context, id uint) (*domain.Payment, error) {
	defer r.lock()()
	payment, ok := r.s.payments[id]
	if !ok {
		return nil, domain.ErrPaymentNotFound
	}
	return &payment, nil
}

func (r *paymentRepo) FindByEnrollment(ctx context.Context, enrollmentID uint) (*domain.Payment, error) {
	defer r.lock()()
	for _, payment := range r.s.payments {
		if payment.EnrollmentID == enrollmentID {
			p := payment
			return &p, nil
		}
	}
	return nil, domain.ErrPaymentNotFound
}

func (r *paymentRepo) FindByChargeID(ctx context.Context, chargeID string) (*domain.Payment, error) {
	defer r.lock()()
	for _, payment := range r.s.payments {
		if payment.ProviderChargeID == chargeID {
			p := payment
			return &p, nil
		}
	}
	return nil, domain.ErrPaymentNotFound
}

func (r *paymentRepo) DeleteByEnrollment(ctx context.Context, enrollmentID uint) error {
	defer r.lock()()
	for id, payment := range r.s.payments {
		if payment.EnrollmentID == enrollmentID {
			delete(r.s.payments, id)
		}
	}
	return nil
}

func (r *paymentRepo) RevenueCentsBetween(ctx context.Context, from, to time.Time) (int64, error) {
	defer r.lock()()
	var total int64
	for _, payment := range r.s.payments {
		if payment.Status != domain.PaymentPaid {
			continue
		}
		enrollment, ok := r.s.enrollments[payment.EnrollmentID]
		if !ok {
			continue
		}
		class, ok := r.s.classes[enrollment.ClassID]
		if ok && inRange(class.StartsAt, from, to) {
			total += payment.AmountCents
		}
	}
	return total, nil
}

type attendanceRepo struct{ repoLock }

func (r *attendanceRepo) Upsert(ctx context.Context, attendance *domain.Attendance) error {
	defer r.lock()()
	key := attendanceKey(attendance.ClassID, attendance.UserID)
	if existing, ok := r.s.attendance[key]; ok {
		attendance.ID = existing.ID
	} else {
		r.s.nextAttendanceID++
		attendance.ID = r.s.nextAttendanceID
	}
	r.s.attendance[key] = *attendance
	return nil
}

func (r *attendanceRepo) ListByClass(ctx context.Context, classID uint) ([]domain.Attendance, error) {
	defer r.lock()()
	var list []domain.Attendance
	for _, attendance := range r.s.attendance {
		if attendance.ClassID == classID {
			list = append(list, attendance)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].UserID < list[j].UserID })
	return list, nil
}

func attendanceKey(classID uint, userID string) string {
	return fmt.Sprintf("%d/%s", classID, userID)
}

func inRange(t, from, to time.Time) bool {
	return !t.Before(from) && t.Before(to)
}
