// Package classes manages the class schedule: admin CRUD, the student-facing
// listings, attendance and the monthly revenue summary.
package classes

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/futevolei/futevolei-booking/internal/capacity"
	"github.com/futevolei/futevolei-booking/internal/domain"
)

// Service implements schedule management on top of the store.
type Service struct {
	store domain.Store
}

// NewService creates a classes service.
func NewService(store domain.Store) *Service {
	return &Service{store: store}
}

// CreateInput is the admin request to schedule a class.
type CreateInput struct {
	Title           string    `json:"title" binding:"required"`
	StartsAt        time.Time `json:"starts_at" binding:"required"`
	DurationMinutes int       `json:"duration_minutes"`
	Capacity        int       `json:"capacity" binding:"required,gt=0"`
	PriceCents      int64     `json:"price_cents" binding:"required,gte=0"`
	Notes           string    `json:"notes"`
}

// Create schedules a new OPEN class.
func (s *Service) Create(ctx context.Context, admin domain.User, input CreateInput) (*domain.Class, error) {
	if input.Title == "" || input.Capacity <= 0 || input.PriceCents < 0 {
		return nil, domain.ErrInvalidInput
	}
	duration := input.DurationMinutes
	if duration <= 0 {
		duration = 90
	}

	class := &domain.Class{
		Title:      input.Title,
		StartsAt:   input.StartsAt,
		EndsAt:     input.StartsAt.Add(time.Duration(duration) * time.Minute),
		Capacity:   input.Capacity,
		PriceCents: input.PriceCents,
		Status:     domain.ClassOpen,
		CreatedBy:  admin.ID,
		Notes:      input.Notes,
	}
	if err := s.store.Classes().Create(ctx, class); err != nil {
		return nil, err
	}
	return class, nil
}

// UpdateInput carries partial edits to a class. Nil fields are untouched.
type UpdateInput struct {
	Title           *string    `json:"title"`
	StartsAt        *time.Time `json:"starts_at"`
	DurationMinutes *int       `json:"duration_minutes"`
	Capacity        *int       `json:"capacity"`
	PriceCents      *int64     `json:"price_cents"`
	Notes           *string    `json:"notes"`
}

// Update edits a class in place.
func (s *Service) Update(ctx context.Context, classID uint, input UpdateInput) (*domain.Class, error) {
	var class *domain.Class
	err := s.store.Atomic(ctx, func(tx domain.Store) error {
		var err error
		class, err = tx.Classes().GetByID(ctx, classID)
		if err != nil {
			return err
		}

		if input.Title != nil {
			class.Title = *input.Title
		}
		if input.Notes != nil {
			class.Notes = *input.Notes
		}
		if input.StartsAt != nil {
			duration := class.DurationMinutes()
			if input.DurationMinutes != nil {
				duration = *input.DurationMinutes
			}
			class.StartsAt = *input.StartsAt
			class.EndsAt = input.StartsAt.Add(time.Duration(duration) * time.Minute)
		} else if input.DurationMinutes != nil {
			class.EndsAt = class.StartsAt.Add(time.Duration(*input.DurationMinutes) * time.Minute)
		}
		if input.Capacity != nil {
			if *input.Capacity <= 0 {
				return domain.ErrInvalidInput
			}
			class.Capacity = *input.Capacity
		}
		if input.PriceCents != nil {
			if *input.PriceCents < 0 {
				return domain.ErrInvalidInput
			}
			class.PriceCents = *input.PriceCents
		}
		return tx.Classes().Update(ctx, class)
	})
	if err != nil {
		return nil, err
	}
	return class, nil
}

// Cancel marks the class CANCELLED. This is class-level only: enrollments
// keep their own status, and classes are never deleted, so no referential
// cleanup is needed.
func (s *Service) Cancel(ctx context.Context, classID uint) (*domain.Class, error) {
	var class *domain.Class
	err := s.store.Atomic(ctx, func(tx domain.Store) error {
		var err error
		class, err = tx.Classes().GetByID(ctx, classID)
		if err != nil {
			return err
		}
		class.Status = domain.ClassCancelled
		return tx.Classes().Update(ctx, class)
	})
	if err != nil {
		return nil, err
	}
	return class, nil
}

// Summary is a class plus its derived availability.
type Summary struct {
	Class          domain.Class `json:"class"`
	ConfirmedCount int64        `json:"confirmed_count"`
	AvailableSpots int64        `json:"available_spots"`
}

// ListOpen returns upcoming OPEN classes with availability computed at read
// time.
func (s *Service) ListOpen(ctx context.Context, from time.Time) ([]Summary, error) {
	list, err := s.store.Classes().ListOpenFrom(ctx, from)
	if err != nil {
		return nil, err
	}

	ledger := capacity.NewLedger(s.store.Enrollments())
	summaries := make([]Summary, 0, len(list))
	for i := range list {
		count, err := ledger.ConfirmedCount(ctx, list[i].ID)
		if err != nil {
			return nil, err
		}
		spots, err := ledger.AvailableSpots(ctx, &list[i])
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, Summary{
			Class:          list[i],
			ConfirmedCount: count,
			AvailableSpots: spots,
		})
	}
	return summaries, nil
}

// Detail is the student-facing view of one class: availability, the shortened
// names of the confirmed students and the caller's own enrollment, if any.
type Detail struct {
	Summary
	ConfirmedStudents []string           `json:"confirmed_students"`
	UserEnrollment    *domain.Enrollment `json:"user_enrollment,omitempty"`
}

// Detail returns one class with availability and the caller's enrollment
// state.
func (s *Service) Detail(ctx context.Context, user domain.User, classID uint) (*Detail, error) {
	class, err := s.store.Classes().GetByID(ctx, classID)
	if err != nil {
		return nil, err
	}

	ledger := capacity.NewLedger(s.store.Enrollments())
	count, err := ledger.ConfirmedCount(ctx, class.ID)
	if err != nil {
		return nil, err
	}
	spots, err := ledger.AvailableSpots(ctx, class)
	if err != nil {
		return nil, err
	}

	detail := &Detail{Summary: Summary{
		Class:          *class,
		ConfirmedCount: count,
		AvailableSpots: spots,
	}}

	enrollments, err := s.store.Enrollments().ListByClass(ctx, classID)
	if err != nil {
		return nil, err
	}
	for i := range enrollments {
		if enrollments[i].Status == domain.EnrollmentConfirmed {
			detail.ConfirmedStudents = append(detail.ConfirmedStudents, displayName(enrollments[i].UserName))
		}
	}

	enrollment, err := s.store.Enrollments().FindByUserAndClass(ctx, user.ID, classID)
	switch {
	case err == nil:
		if enrollment.Status.Active() {
			detail.UserEnrollment = enrollment
		}
	case !errors.Is(err, domain.ErrEnrollmentNotFound):
		return nil, err
	}
	return detail, nil
}

// AdminDetail groups a class's enrollments by status, with each enrollment's
// payment attached when present.
type AdminDetail struct {
	Class     domain.Class            `json:"class"`
	Confirmed []EnrollmentWithPayment `json:"confirmed"`
	Pending   []EnrollmentWithPayment `json:"pending"`
	Others    []EnrollmentWithPayment `json:"others"`
}

// EnrollmentWithPayment pairs an enrollment with its current payment.
type EnrollmentWithPayment struct {
	Enrollment domain.Enrollment `json:"enrollment"`
	Payment    *domain.Payment   `json:"payment,omitempty"`
}

// AdminDetail returns the admin view of one class.
func (s *Service) AdminDetail(ctx context.Context, classID uint) (*AdminDetail, error) {
	class, err := s.store.Classes().GetByID(ctx, classID)
	if err != nil {
		return nil, err
	}
	enrollments, err := s.store.Enrollments().ListByClass(ctx, classID)
	if err != nil {
		return nil, err
	}

	detail := &AdminDetail{Class: *class}
	for i := range enrollments {
		entry := EnrollmentWithPayment{Enrollment: enrollments[i]}
		if payment, err := s.store.Payments().FindByEnrollment(ctx, enrollments[i].ID); err == nil {
			entry.Payment = payment
		}

		switch enrollments[i].Status {
		case domain.EnrollmentConfirmed:
			detail.Confirmed = append(detail.Confirmed, entry)
		case domain.EnrollmentAwaitingPayment:
			detail.Pending = append(detail.Pending, entry)
		default:
			detail.Others = append(detail.Others, entry)
		}
	}
	return detail, nil
}

// AttendanceInput is one mark in an attendance sheet.
type AttendanceInput struct {
	UserID string                  `json:"user_id" binding:"required"`
	Status domain.AttendanceStatus `json:"status" binding:"required"`
}

// MarkAttendance upserts attendance marks for a class.
func (s *Service) MarkAttendance(ctx context.Context, admin domain.User, classID uint, marks []AttendanceInput) error {
	if _, err := s.store.Classes().GetByID(ctx, classID); err != nil {
		return err
	}

	now := time.Now().UTC()
	return s.store.Atomic(ctx, func(tx domain.Store) error {
		for _, mark := range marks {
			switch mark.Status {
			case domain.AttendancePresent, domain.AttendanceAbsent, domain.AttendanceExcused:
			default:
				return domain.ErrInvalidInput
			}
			record := &domain.Attendance{
				ClassID:  classID,
				UserID:   mark.UserID,
				Status:   mark.Status,
				MarkedBy: admin.ID,
				MarkedAt: now,
			}
			if err := tx.Attendance().Upsert(ctx, record); err != nil {
				return err
			}
		}
		return nil
	})
}

// ClassAttendance lists the attendance sheet of a class.
func (s *Service) ClassAttendance(ctx context.Context, classID uint) ([]domain.Attendance, error) {
	if _, err := s.store.Classes().GetByID(ctx, classID); err != nil {
		return nil, err
	}
	return s.store.Attendance().ListByClass(ctx, classID)
}

// MonthlySummary aggregates one calendar month of activity for the admin
// report.
type MonthlySummary struct {
	Month            int                               `json:"month"`
	Year             int                               `json:"year"`
	TotalClasses     int64                             `json:"total_classes"`
	CancelledClasses int64                             `json:"cancelled_classes"`
	TotalEnrollments int64                             `json:"total_enrollments"`
	UniqueStudents   int64                             `json:"unique_students"`
	RevenueCents     int64                             `json:"revenue_cents"`
	EnrollmentStatus map[domain.EnrollmentStatus]int64 `json:"enrollment_status"`
	CancelRate       float64                           `json:"cancel_rate"`
	AvgOccupancy     float64                           `json:"avg_occupancy"`
}

// MonthlySummary computes the revenue and enrollment KPIs for one month.
// Revenue counts PAID payments only.
func (s *Service) MonthlySummary(ctx context.Context, month, year int) (*MonthlySummary, error) {
	if month < 1 || month > 12 || year < 2000 {
		return nil, domain.ErrInvalidInput
	}
	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	totalClasses, err := s.store.Classes().CountBetween(ctx, from, to, nil)
	if err != nil {
		return nil, err
	}
	cancelled := domain.ClassCancelled
	cancelledClasses, err := s.store.Classes().CountBetween(ctx, from, to, &cancelled)
	if err != nil {
		return nil, err
	}
	statusCounts, err := s.store.Enrollments().StatusCountsBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}
	uniqueStudents, err := s.store.Enrollments().UniqueStudentsBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}
	revenue, err := s.store.Payments().RevenueCentsBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}
	totalCapacity, err := s.store.Classes().TotalCapacityBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}

	var totalEnrollments int64
	for _, n := range statusCounts {
		totalEnrollments += n
	}

	summary := &MonthlySummary{
		Month:            month,
		Year:             year,
		TotalClasses:     totalClasses,
		CancelledClasses: cancelledClasses,
		TotalEnrollments: totalEnrollments,
		UniqueStudents:   uniqueStudents,
		RevenueCents:     revenue,
		EnrollmentStatus: statusCounts,
	}
	if totalClasses > 0 {
		summary.CancelRate = round1(float64(cancelledClasses) / float64(totalClasses) * 100)
	}
	if totalCapacity > 0 {
		confirmed := statusCounts[domain.EnrollmentConfirmed]
		summary.AvgOccupancy = round1(float64(confirmed) / float64(totalCapacity) * 100)
	}
	return summary, nil
}

func round1(v float64) float64 {
	return float64(int64(v*10+0.5)) / 10
}

// displayName shortens "Maria Clara Souza" to "Maria S." for the public
// roster. Single names pass through unchanged.
func displayName(full string) string {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "Aluno(a)"
	case 1:
		return parts[0]
	default:
		last := []rune(parts[len(parts)-1])
		return parts[0] + " " + string(last[0]) + "."
	}
}
