// Package domain contains the core business entities and interfaces for the
// booking service.
package domain

import "time"

// User is the authenticated caller, built from the identity token claims.
// Identity management is owned by an external service; this API only reads
// the verified claims.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// IsAdmin reports whether the user may call the admin API.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Class is a scheduled session with a fixed seat capacity. Occupancy is never
// stored on the class; it is always derived by counting confirmed
// enrollments.
type Class struct {
	ID         uint        `gorm:"primaryKey" json:"id"`
	Title      string      `gorm:"size:255;not null" json:"title"`
	StartsAt   time.Time   `gorm:"not null" json:"starts_at"`
	EndsAt     time.Time   `gorm:"not null" json:"ends_at"`
	Capacity   int         `gorm:"not null" json:"capacity"`
	PriceCents int64       `gorm:"not null" json:"price_cents"`
	Status     ClassStatus `gorm:"type:varchar(20);not null;default:'OPEN'" json:"status"`
	CreatedBy  string      `gorm:"size:36" json:"created_by"`
	Notes      string      `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}

// DurationMinutes derives the class length from its time window.
func (c Class) DurationMinutes() int {
	return int(c.EndsAt.Sub(c.StartsAt).Minutes())
}

// Enrollment associates one user with one class. Re-enrollment after
// cancellation reuses the same row, so the (user, class) pair keeps a stable
// identifier.
type Enrollment struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	UserID string `gorm:"size:36;not null;index:idx_enrollments_user_class" json:"user_id"`

	// UserName is a snapshot of the student's display name taken from the
	// token claims at enrollment time; identity itself lives elsewhere.
	UserName    string           `gorm:"size:120" json:"user_name,omitempty"`
	ClassID     uint             `gorm:"not null;index:idx_enrollments_user_class" json:"class_id"`
	Status      EnrollmentStatus `gorm:"type:varchar(20);not null;default:'AWAITING_PAYMENT'" json:"status"`
	CreatedAt   time.Time        `json:"created_at"`
	CancelledAt *time.Time       `json:"cancelled_at,omitempty"`
}

// Payment is the current payment attempt for an enrollment. An enrollment has
// zero or one payment at a time: regenerating a PIX code deletes the prior
// row and creates a fresh one. Amounts are integral centavos, never floats.
type Payment struct {
	ID               uint          `gorm:"primaryKey" json:"id"`
	EnrollmentID     uint          `gorm:"not null;index" json:"enrollment_id"`
	Method           string        `gorm:"size:20;not null;default:'PIX'" json:"method"`
	Status           PaymentStatus `gorm:"type:varchar(20);not null;default:'PENDING'" json:"status"`
	AmountCents      int64         `gorm:"not null" json:"amount_cents"`
	Description      string        `gorm:"size:255" json:"description,omitempty"`
	Provider         string        `gorm:"size:50" json:"provider,omitempty"`
	ProviderChargeID string        `gorm:"size:255;index" json:"provider_charge_id,omitempty"`
	PixPayload       string        `gorm:"type:text" json:"pix_payload,omitempty"`
	QRCodeBase64     string        `gorm:"type:text" json:"qr_code_base64,omitempty"`
	TicketURL        string        `gorm:"size:255" json:"ticket_url,omitempty"`
	Notes            string        `gorm:"type:text" json:"notes,omitempty"`
	SubmittedAt      *time.Time    `json:"submitted_at,omitempty"`
	ValidatedAt      *time.Time    `json:"validated_at,omitempty"`
	WebhookRaw       string        `gorm:"type:text" json:"-"`
	CreatedAt        time.Time     `json:"created_at"`
}

// Attendance records a student's presence in a class, marked by an admin.
type Attendance struct {
	ID       uint             `gorm:"primaryKey" json:"id"`
	ClassID  uint             `gorm:"not null;index:idx_attendance_class_user,unique" json:"class_id"`
	UserID   string           `gorm:"size:36;not null;index:idx_attendance_class_user,unique" json:"user_id"`
	Status   AttendanceStatus `gorm:"type:varchar(20);not null;default:'ABSENT'" json:"status"`
	MarkedBy string           `gorm:"size:36;not null" json:"marked_by"`
	MarkedAt time.Time        `json:"marked_at"`
}
