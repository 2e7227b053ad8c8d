package student

import (
	"context"
	"net/mail"

	"github.com/vishvavidya/traininghub/core"
	"github.com/vishvavidya/traininghub/core/evaluation"
	"github.com/vishvavidya/traininghub/core/identity"
	"github.com/vishvavidya/traininghub/core/ledger"
)

// Store persists students, their login mirror and their ledger.
//
// Atomic runs fn inside a single transaction: every write made through the Store handed to fn
// is committed when fn returns nil and rolled back otherwise. Calling Atomic on a Store that is
// already transactional joins the running transaction.
type Store interface {
	identity.Sequence
	ledger.Repository

	Atomic(ctx context.Context, fn func(tx Store) error) error

	EmailExists(ctx context.Context, email string) (bool, error)
	CreateStudent(ctx context.Context, st Student) error
	CreateAptitude(ctx context.Context, apt Aptitude) error
	CreateLogin(ctx context.Context, cred LoginCredential) error

	// GetStudent returns a core.NotFoundError when id does not exist.
	GetStudent(ctx context.Context, id string) (Student, error)
	// GetStudentForUpdate is GetStudent holding a row lock until the transaction ends.
	GetStudentForUpdate(ctx context.Context, id string) (Student, error)
	// ExistingIDs returns the subset of ids that exist.
	ExistingIDs(ctx context.Context, ids []string) ([]string, error)
	ListStudents(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Student, error)

	SetBatch(ctx context.Context, id, batch string) error
	// SetTrainingStatus updates Student.TrainingStatus and LoginCredential.Status together.
	SetTrainingStatus(ctx context.Context, id, status string) error

	// GetLogin returns a core.NotFoundError when no credential exists for studentID.
	GetLogin(ctx context.Context, studentID string) (LoginCredential, error)
}

// SenderDirectory resolves the outbound email identity of the staff member acting.
type SenderDirectory interface {
	SenderFor(ctx context.Context, actor core.Actor) (mail.Address, error)
}

// EvaluationSource lists the evaluations recorded for a student.
type EvaluationSource interface {
	ForStudent(ctx context.Context, studentID string) ([]evaluation.Evaluation, error)
}
