package classes

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/futevolei/futevolei-booking/internal/domain"
	"github.com/futevolei/futevolei-booking/internal/storage/memory"
)

var admin = domain.User{ID: "admin-1", Name: "Duda", Role: domain.RoleAdmin}

func TestCreateDefaultsDuration(t *testing.T) {
	service := NewService(memory.NewStore())
	startsAt := time.Date(2026, 9, 10, 18, 0, 0, 0, time.UTC)

	class, err := service.Create(context.Background(), admin, CreateInput{
		Title:      "Beginners",
		StartsAt:   startsAt,
		Capacity:   10,
		PriceCents: 3000,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.ClassOpen, class.Status)
	assert.Equal(t, 90, class.DurationMinutes())
	assert.Equal(t, admin.ID, class.CreatedBy)
}

func TestCreateRejectsBadInput(t *testing.T) {
	service := NewService(memory.NewStore())

	_, err := service.Create(context.Background(), admin, CreateInput{
		Title:    "No seats",
		StartsAt: time.Now(),
		Capacity: 0,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestUpdatePartialEdit(t *testing.T) {
	ctx := context.Background()
	service := NewService(memory.NewStore())

	class, err := service.Create(ctx, admin, CreateInput{
		Title:      "Beginners",
		StartsAt:   time.Date(2026, 9, 10, 18, 0, 0, 0, time.UTC),
		Capacity:   10,
		PriceCents: 3000,
	})
	require.NoError(t, err)

	newCapacity := 12
	newPrice := int64(3500)
	updated, err := service.Update(ctx, class.ID, UpdateInput{
		Capacity:   &newCapacity,
		PriceCents: &newPrice,
	})
	require.NoError(t, err)

	assert.Equal(t, 12, updated.Capacity)
	assert.Equal(t, int64(3500), updated.PriceCents)
	// Untouched fields stay put.
	assert.Equal(t, "Beginners", updated.Title)
	assert.Equal(t, 90, updated.DurationMinutes())
}

func TestUpdateRescheduleKeepsDuration(t *testing.T) {
	ctx := context.Background()
	service := NewService(memory.NewStore())

	class, err := service.Create(ctx, admin, CreateInput{
		Title:           "Advanced",
		StartsAt:        time.Date(2026, 9, 10, 18, 0, 0, 0, time.UTC),
		DurationMinutes: 60,
		Capacity:        8,
		PriceCents:      5000,
	})
	require.NoError(t, err)

	newStart := time.Date(2026, 9, 11, 19, 0, 0, 0, time.UTC)
	updated, err := service.Update(ctx, class.ID, UpdateInput{StartsAt: &newStart})
	require.NoError(t, err)

	assert.Equal(t, newStart, updated.StartsAt)
	assert.Equal(t, 60, updated.DurationMinutes())
}

func TestCancelClass(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	service := NewService(store)

	class, err := service.Create(ctx, admin, CreateInput{
		Title:      "Rainy day",
		StartsAt:   time.Now().Add(time.Hour),
		Capacity:   8,
		PriceCents: 3000,
	})
	require.NoError(t, err)

	enrollment := &domain.Enrollment{UserID: "user-1", ClassID: class.ID, Status: domain.EnrollmentConfirmed}
	require.NoError(t, store.Enrollments().Create(ctx, enrollment))

	cancelled, err := service.Cancel(ctx, class.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ClassCancelled, cancelled.Status)

	// Cancelling a class does not touch its enrollments.
	kept, err := store.Enrollments().GetByID(ctx, enrollment.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EnrollmentConfirmed, kept.Status)
}

func TestListOpenDerivesAvailability(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	service := NewService(store)

	class, err := service.Create(ctx, admin, CreateInput{
		Title:      "Saturday",
		StartsAt:   time.Now().Add(24 * time.Hour),
		Capacity:   5,
		PriceCents: 3000,
	})
	require.NoError(t, err)

	for i, status := range []domain.EnrollmentStatus{
		domain.EnrollmentConfirmed,
		domain.EnrollmentConfirmed,
		domain.EnrollmentAwaitingPayment,
	} {
		enrollment := &domain.Enrollment{
			UserID:  "user-" + string(rune('a'+i)),
			ClassID: class.ID,
			Status:  status,
		}
		require.NoError(t, store.Enrollments().Create(ctx, enrollment))
	}

	list, err := service.ListOpen(ctx, time.Now())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, int64(2), list[0].ConfirmedCount)
	assert.Equal(t, int64(3), list[0].AvailableSpots)
}

func TestDetailIncludesCallerEnrollment(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	service := NewService(store)

	class, err := service.Create(ctx, admin, CreateInput{
		Title:      "Sunday",
		StartsAt:   time.Now().Add(24 * time.Hour),
		Capacity:   5,
		PriceCents: 3000,
	})
	require.NoError(t, err)

	user := domain.User{ID: "user-1"}
	enrollment := &domain.Enrollment{UserID: user.ID, ClassID: class.ID, Status: domain.EnrollmentAwaitingPayment}
	require.NoError(t, store.Enrollments().Create(ctx, enrollment))

	detail, err := service.Detail(ctx, user, class.ID)
	require.NoError(t, err)
	require.NotNil(t, detail.UserEnrollment)
	assert.Equal(t, enrollment.ID, detail.UserEnrollment.ID)

	// Cancelled enrollments are not the caller's live relationship.
	now := time.Now()
	enrollment.Status = domain.EnrollmentCancelled
	enrollment.CancelledAt = &now
	require.NoError(t, store.Enrollments().Update(ctx, enrollment))

	detail, err = service.Detail(ctx, user, class.ID)
	require.NoError(t, err)
	assert.Nil(t, detail.UserEnrollment)
}

// brokenEnrollments fails lookups, simulating a storage outage.
type brokenEnrollments struct {
	domain.EnrollmentRepository
}

func (brokenEnrollments) FindByUserAndClass(ctx context.Context, userID string, classID uint) (*domain.Enrollment, error) {
	return nil, errors.New("connection reset")
}

type brokenStore struct {
	domain.Store
}

func (b brokenStore) Enrollments() domain.EnrollmentRepository {
	return brokenEnrollments{b.Store.Enrollments()}
}

func TestDetailPropagatesStorageErrors(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	class, err := NewService(store).Create(ctx, admin, CreateInput{
		Title:      "Flaky backend",
		StartsAt:   time.Now().Add(24 * time.Hour),
		Capacity:   5,
		PriceCents: 3000,
	})
	require.NoError(t, err)

	// A storage failure must surface, not render as "no enrollment".
	service := NewService(brokenStore{Store: store})
	_, err = service.Detail(ctx, domain.User{ID: "user-1"}, class.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestDetailListsConfirmedStudentNames(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	service := NewService(store)

	class, err := service.Create(ctx, admin, CreateInput{
		Title:      "Roster names",
		StartsAt:   time.Now().Add(24 * time.Hour),
		Capacity:   5,
		PriceCents: 3000,
	})
	require.NoError(t, err)

	confirmed := &domain.Enrollment{
		UserID:   "user-1",
		UserName: "Maria Clara Souza",
		ClassID:  class.ID,
		Status:   domain.EnrollmentConfirmed,
	}
	require.NoError(t, store.Enrollments().Create(ctx, confirmed))
	pending := &domain.Enrollment{
		UserID:   "user-2",
		UserName: "Pedro Lima",
		ClassID:  class.ID,
		Status:   domain.EnrollmentAwaitingPayment,
	}
	require.NoError(t, store.Enrollments().Create(ctx, pending))

	detail, err := service.Detail(ctx, domain.User{ID: "user-9"}, class.ID)
	require.NoError(t, err)

	// Only confirmed students appear, with shortened names.
	assert.Equal(t, []string{"Maria S."}, detail.ConfirmedStudents)
}

func TestAdminDetailGroupsByStatus(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	service := NewService(store)

	class, err := service.Create(ctx, admin, CreateInput{
		Title:      "Roster",
		StartsAt:   time.Now().Add(24 * time.Hour),
		Capacity:   5,
		PriceCents: 3000,
	})
	require.NoError(t, err)

	for i, status := range []domain.EnrollmentStatus{
		domain.EnrollmentConfirmed,
		domain.EnrollmentAwaitingPayment,
		domain.EnrollmentCancelled,
	} {
		enrollment := &domain.Enrollment{
			UserID:  "user-" + string(rune('a'+i)),
			ClassID: class.ID,
			Status:  status,
		}
		require.NoError(t, store.Enrollments().Create(ctx, enrollment))
	}

	detail, err := service.AdminDetail(ctx, class.ID)
	require.NoError(t, err)
	assert.Len(t, detail.Confirmed, 1)
	assert.Len(t, detail.Pending, 1)
	assert.Len(t, detail.Others, 1)
}

func TestMarkAttendanceUpserts(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	service := NewService(store)

	class, err := service.Create(ctx, admin, CreateInput{
		Title:      "Roll call",
		StartsAt:   time.Now().Add(-time.Hour),
		Capacity:   5,
		PriceCents: 3000,
	})
	require.NoError(t, err)

	marks := []AttendanceInput{
		{UserID: "user-1", Status: domain.AttendancePresent},
		{UserID: "user-2", Status: domain.AttendanceAbsent},
	}
	require.NoError(t, service.MarkAttendance(ctx, admin, class.ID, marks))

	// Correcting a mark replaces it instead of duplicating the row.
	correction := []AttendanceInput{{UserID: "user-2", Status: domain.AttendancePresent}}
	require.NoError(t, service.MarkAttendance(ctx, admin, class.ID, correction))

	sheet, err := service.ClassAttendance(ctx, class.ID)
	require.NoError(t, err)
	require.Len(t, sheet, 2)
	for _, record := range sheet {
		assert.Equal(t, domain.AttendancePresent, record.Status)
		assert.Equal(t, admin.ID, record.MarkedBy)
	}
}

func TestMarkAttendanceRejectsBadStatus(t *testing.T) {
	ctx := context.Background()
	service := NewService(memory.NewStore())

	class, err := service.Create(ctx, admin, CreateInput{
		Title:      "Roll call",
		StartsAt:   time.Now(),
		Capacity:   5,
		PriceCents: 3000,
	})
	require.NoError(t, err)

	err = service.MarkAttendance(ctx, admin, class.ID, []AttendanceInput{
		{UserID: "user-1", Status: "LATE"},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestMonthlySummary(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	service := NewService(store)

	september := time.Date(2026, 9, 5, 18, 0, 0, 0, time.UTC)

	open, err := service.Create(ctx, admin, CreateInput{
		Title:      "Open class",
		StartsAt:   september,
		Capacity:   10,
		PriceCents: 4000,
	})
	require.NoError(t, err)

	cancelled, err := service.Create(ctx, admin, CreateInput{
		Title:      "Cancelled class",
		StartsAt:   september.AddDate(0, 0, 7),
		Capacity:   10,
		PriceCents: 4000,
	})
	require.NoError(t, err)
	_, err = service.Cancel(ctx, cancelled.ID)
	require.NoError(t, err)

	// A class outside the month must not count.
	_, err = service.Create(ctx, admin, CreateInput{
		Title:      "October class",
		StartsAt:   september.AddDate(0, 1, 0),
		Capacity:   10,
		PriceCents: 4000,
	})
	require.NoError(t, err)

	confirmed := &domain.Enrollment{UserID: "user-1", ClassID: open.ID, Status: domain.EnrollmentConfirmed}
	require.NoError(t, store.Enrollments().Create(ctx, confirmed))
	pending := &domain.Enrollment{UserID: "user-2", ClassID: open.ID, Status: domain.EnrollmentAwaitingPayment}
	require.NoError(t, store.Enrollments().Create(ctx, pending))

	paid := &domain.Payment{EnrollmentID: confirmed.ID, Status: domain.PaymentPaid, AmountCents: 4000}
	require.NoError(t, store.Payments().Create(ctx, paid))
	unpaid := &domain.Payment{EnrollmentID: pending.ID, Status: domain.PaymentPending, AmountCents: 4000}
	require.NoError(t, store.Payments().Create(ctx, unpaid))

	summary, err := service.MonthlySummary(ctx, 9, 2026)
	require.NoError(t, err)

	assert.Equal(t, int64(2), summary.TotalClasses)
	assert.Equal(t, int64(1), summary.CancelledClasses)
	assert.Equal(t, int64(2), summary.TotalEnrollments)
	assert.Equal(t, int64(2), summary.UniqueStudents)
	// Revenue counts PAID payments only.
	assert.Equal(t, int64(4000), summary.RevenueCents)
	assert.Equal(t, 50.0, summary.CancelRate)
	// 1 confirmed over 20 seats in the month.
	assert.Equal(t, 5.0, summary.AvgOccupancy)
}

func TestMonthlySummaryRejectsBadMonth(t *testing.T) {
	service := NewService(memory.NewStore())

	_, err := service.MonthlySummary(context.Background(), 13, 2026)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
