package port

import (
	"context"

	"github.com/google/uuid"

	"invoiceledger/internal/domain"
)

// ReconcileFunc computes the ledger writes for a project that is locked for
// the duration of the call. Returning an error discards the change.
type ReconcileFunc func(project *domain.Project) (*domain.LedgerChange, error)

// ProjectRepository defines the contract for project ledger persistence.
// Projects returned by Get methods carry their budget items and used invoices.
type ProjectRepository interface {
	Create(ctx context.Context, project *domain.Project) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error)
	// GetByExactName matches the name case-sensitively.
	GetByExactName(ctx context.Context, name string) (*domain.Project, error)
	// GetByName matches the name case-insensitively, the same way names are
	// kept unique.
	GetByName(ctx context.Context, name string) (*domain.Project, error)
	List(ctx context.Context) ([]domain.Project, error)
	// Update renames the project and overwrites the stored items whose sku
	// matches one of project.BudgetItems. Other items are left alone.
	Update(ctx context.Context, project *domain.Project) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListInvoices(ctx context.Context, projectID uuid.UUID) ([]domain.UsedInvoice, error)
	// Reconcile runs fn against the freshly read project inside a transaction
	// holding the project's row lock, persists the returned change and
	// returns the updated project.
	Reconcile(ctx context.Context, projectID uuid.UUID, fn ReconcileFunc) (*domain.Project, error)
	Ping(ctx context.Context) error
}
