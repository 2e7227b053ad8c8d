// Package ledger holds the append-only transition history of students and their notifications.
package ledger

import (
	"context"
	"time"

	"github.com/vishvavidya/traininghub/core"
)

// BatchMoveRecord is one batch transition. OldBatch == NewBatch only for the registration entry.
type BatchMoveRecord struct {
	ID          int64     `json:"id" db:"id"`
	StudentID   string    `json:"student_id" db:"student_id"`
	OldBatch    string    `json:"old_batch" db:"old_batch"`
	NewBatch    string    `json:"new_batch" db:"new_batch"`
	Reason      string    `json:"move_reason" db:"move_reason"`
	MovedAt     time.Time `json:"moved_at" db:"moved_at"`
	CreatedBy   string    `json:"created_by_userid" db:"created_by_userid"`
	CreatorRole string    `json:"created_by_role" db:"created_by_role"`
}

// StatusChangeRecord is one training status transition.
type StatusChangeRecord struct {
	ID          int64     `json:"id" db:"id"`
	StudentID   string    `json:"student_id" db:"student_id"`
	OldStatus   string    `json:"old_status" db:"old_status"`
	NewStatus   string    `json:"new_status" db:"new_status"`
	Reason      string    `json:"reason" db:"reason"`
	ChangedAt   time.Time `json:"changed_at" db:"changed_at"`
	CreatedBy   string    `json:"created_by_userid" db:"created_by_userid"`
	CreatorRole string    `json:"created_by_role" db:"created_by_role"`
}

// Notification is a message shown to the student. Seen is its only mutable field.
type Notification struct {
	ID        int64     `json:"id" db:"id"`
	StudentID string    `json:"student_id" db:"student_id"`
	Message   string    `json:"message" db:"message"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	Seen      bool      `json:"seen" db:"seen"`
}

func NewBatchMove(studentID, oldBatch, newBatch, reason string, actor core.Actor, at time.Time) BatchMoveRecord {
	return BatchMoveRecord{
		StudentID:   studentID,
		OldBatch:    oldBatch,
		NewBatch:    newBatch,
		Reason:      reason,
		MovedAt:     at,
		CreatedBy:   actor.UserID,
		CreatorRole: actor.Role,
	}
}

func NewStatusChange(studentID, oldStatus, newStatus, reason string, actor core.Actor, at time.Time) StatusChangeRecord {
	return StatusChangeRecord{
		StudentID:   studentID,
		OldStatus:   oldStatus,
		NewStatus:   newStatus,
		Reason:      reason,
		ChangedAt:   at,
		CreatedBy:   actor.UserID,
		CreatorRole: actor.Role,
	}
}

func NewNotification(studentID, message string, at time.Time) Notification {
	return Notification{StudentID: studentID, Message: message, CreatedAt: at}
}

// Writer appends ledger rows. Rows are never updated except Notification.Seen.
type Writer interface {
	AppendBatchMove(ctx context.Context, rec BatchMoveRecord) error
	AppendStatusChange(ctx context.Context, rec StatusChangeRecord) error
	AppendNotification(ctx context.Context, n Notification) error
}

// Reader lists ledger rows, most recent first.
type Reader interface {
	BatchHistory(ctx context.Context, studentID string) ([]BatchMoveRecord, error)
	StatusHistory(ctx context.Context, studentID string) ([]StatusChangeRecord, error)
	// Notifications lists the notifications of a student; unseenOnly filters out the seen ones.
	Notifications(ctx context.Context, studentID string, unseenOnly bool) ([]Notification, error)
	// MarkNotificationSeen flips Seen and returns a core.NotFoundError when id does not exist.
	// A non empty studentID restricts the update to that student's notifications.
	MarkNotificationSeen(ctx context.Context, id int64, studentID string) error
}

type Repository interface {
	Writer
	Reader
}
