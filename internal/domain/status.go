// Package domain contains the core business entities and interfaces for the
// booking service. This is the innermost layer of the Clean Architecture - it
// has no dependencies on external frameworks or infrastructure.
package domain

// ClassStatus is the lifecycle status of a scheduled class.
type ClassStatus string

const (
	ClassOpen      ClassStatus = "OPEN"
	ClassCancelled ClassStatus = "CANCELLED"
	ClassDone      ClassStatus = "DONE"
)

// EnrollmentStatus is the lifecycle status of an enrollment.
type EnrollmentStatus string

const (
	EnrollmentAwaitingPayment EnrollmentStatus = "AWAITING_PAYMENT"
	EnrollmentConfirmed       EnrollmentStatus = "CONFIRMED"
	EnrollmentWaitlist        EnrollmentStatus = "WAITLIST"
	EnrollmentCancelled       EnrollmentStatus = "CANCELLED"
)

// Active reports whether the enrollment counts as the user's live
// relationship with the class. At most one active enrollment may exist per
// (user, class) pair.
func (s EnrollmentStatus) Active() bool {
	return s == EnrollmentAwaitingPayment || s == EnrollmentConfirmed
}

// PaymentStatus is the local status of a payment record.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentSubmitted PaymentStatus = "SUBMITTED"
	PaymentPaid      PaymentStatus = "PAID"
	PaymentRejected  PaymentStatus = "REJECTED"
)

// ProviderStatus is the closed set of charge statuses reported by Mercado
// Pago. Anything the provider reports outside this set maps to
// ProviderUnknown and causes no local transition.
type ProviderStatus string

const (
	ProviderApproved  ProviderStatus = "approved"
	ProviderPending   ProviderStatus = "pending"
	ProviderInProcess ProviderStatus = "in_process"
	ProviderRejected  ProviderStatus = "rejected"
	ProviderCancelled ProviderStatus = "cancelled"
	ProviderUnknown   ProviderStatus = "unknown"
)

// ParseProviderStatus normalizes a raw provider status string.
func ParseProviderStatus(raw string) ProviderStatus {
	switch ProviderStatus(raw) {
	case ProviderApproved, ProviderPending, ProviderInProcess, ProviderRejected, ProviderCancelled:
		return ProviderStatus(raw)
	default:
		return ProviderUnknown
	}
}

// AttendanceStatus marks a student's presence in a class.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "PRESENT"
	AttendanceAbsent  AttendanceStatus = "ABSENT"
	AttendanceExcused AttendanceStatus = "EXCUSED"
)

// RoleAdmin is the role claim value that grants access to the admin API.
const RoleAdmin = "ADMIN"
