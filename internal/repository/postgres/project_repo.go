package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"invoiceledger/internal/domain"
	"invoiceledger/internal/port"
)

type projectRepo struct {
	db *sqlx.DB
}

// NewProjectRepo creates a new PostgreSQL-backed ProjectRepository.
func NewProjectRepo(db *sqlx.DB) port.ProjectRepository {
	return &projectRepo{db: db}
}

func (r *projectRepo) Create(ctx context.Context, project *domain.Project) error {
	project.ID = uuid.New()
	now := time.Now().UTC()
	project.CreatedAt = now
	project.UpdatedAt = now
	if project.TotalCost.IsZero() {
		project.TotalCost = decimal.Zero
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("projectRepo.Create begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO projects (id, name, total_cost, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		project.ID, project.Name, project.TotalCost, project.CreatedAt, project.UpdatedAt)
	if err != nil {
		return mapWriteError("projectRepo.Create", err)
	}

	for i := range project.BudgetItems {
		item := &project.BudgetItems[i]
		item.ID = uuid.New()
		item.ProjectID = project.ID
		item.CreatedAt = now
		item.UpdatedAt = now
		if err := insertItem(ctx, tx, item); err != nil {
			return mapWriteError("projectRepo.Create item", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("projectRepo.Create commit: %w", err)
	}
	return nil
}

func (r *projectRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	var project domain.Project
	err := r.db.GetContext(ctx, &project, "SELECT * FROM projects WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProjectNotFound
		}
		return nil, fmt.Errorf("projectRepo.GetByID: %w", err)
	}
	if err := loadChildren(ctx, r.db, &project); err != nil {
		return nil, fmt.Errorf("projectRepo.GetByID: %w", err)
	}
	return &project, nil
}

func (r *projectRepo) GetByExactName(ctx context.Context, name string) (*domain.Project, error) {
	var project domain.Project
	err := r.db.GetContext(ctx, &project, "SELECT * FROM projects WHERE name = $1", name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProjectNotFound
		}
		return nil, fmt.Errorf("projectRepo.GetByExactName: %w", err)
	}
	if err := loadChildren(ctx, r.db, &project); err != nil {
		return nil, fmt.Errorf("projectRepo.GetByExactName: %w", err)
	}
	return &project, nil
}

func (r *projectRepo) GetByName(ctx context.Context, name string) (*domain.Project, error) {
	var project domain.Project
	err := r.db.GetContext(ctx, &project, "SELECT * FROM projects WHERE LOWER(name) = LOWER($1)", name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProjectNotFound
		}
		return nil, fmt.Errorf("projectRepo.GetByName: %w", err)
	}
	if err := loadChildren(ctx, r.db, &project); err != nil {
		return nil, fmt.Errorf("projectRepo.GetByName: %w", err)
	}
	return &project, nil
}

func (r *projectRepo) List(ctx context.Context) ([]domain.Project, error) {
	var projects []domain.Project
	if err := r.db.SelectContext(ctx, &projects, "SELECT * FROM projects ORDER BY created_at DESC"); err != nil {
		return nil, fmt.Errorf("projectRepo.List: %w", err)
	}
	if len(projects) == 0 {
		return projects, nil
	}

	ids := make([]uuid.UUID, len(projects))
	for i := range projects {
		ids[i] = projects[i].ID
		projects[i].BudgetItems = []domain.BudgetItem{}
	}
	query, args, err := sqlx.In("SELECT * FROM budget_items WHERE project_id IN (?) ORDER BY created_at, sku", ids)
	if err != nil {
		return nil, fmt.Errorf("projectRepo.List items query: %w", err)
	}
	var items []domain.BudgetItem
	if err := r.db.SelectContext(ctx, &items, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("projectRepo.List items: %w", err)
	}

	byProject := make(map[uuid.UUID]int, len(projects))
	for i := range projects {
		byProject[projects[i].ID] = i
	}
	for _, item := range items {
		i := byProject[item.ProjectID]
		projects[i].BudgetItems = append(projects[i].BudgetItems, item)
	}
	return projects, nil
}

func (r *projectRepo) Update(ctx context.Context, project *domain.Project) error {
	project.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("projectRepo.Update begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx,
		"UPDATE projects SET name = $1, updated_at = $2 WHERE id = $3",
		project.Name, project.UpdatedAt, project.ID)
	if err != nil {
		return mapWriteError("projectRepo.Update", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return domain.ErrProjectNotFound
	}

	for i := range project.BudgetItems {
		item := &project.BudgetItems[i]
		_, err := tx.ExecContext(ctx,
			`UPDATE budget_items SET material_name = $1, quantity = $2, received = $3, total_paid = $4, updated_at = $5
			WHERE project_id = $6 AND sku = $7`,
			item.MaterialName, item.Quantity, item.Received, item.TotalPaid, project.UpdatedAt, project.ID, item.SKU)
		if err != nil {
			return fmt.Errorf("projectRepo.Update item %s: %w", item.SKU, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("projectRepo.Update commit: %w", err)
	}
	return nil
}

func (r *projectRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM projects WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("projectRepo.Delete: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return domain.ErrProjectNotFound
	}
	return nil
}

func (r *projectRepo) ListInvoices(ctx context.Context, projectID uuid.UUID) ([]domain.UsedInvoice, error) {
	invoices := []domain.UsedInvoice{}
	err := r.db.SelectContext(ctx, &invoices,
		"SELECT * FROM used_invoices WHERE project_id = $1 ORDER BY applied_at DESC", projectID)
	if err != nil {
		return nil, fmt.Errorf("projectRepo.ListInvoices: %w", err)
	}
	return invoices, nil
}

func (r *projectRepo) Reconcile(ctx context.Context, projectID uuid.UUID, fn port.ReconcileFunc) (*domain.Project, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("projectRepo.Reconcile begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// The row lock serialises reconciliations of the same project.
	var project domain.Project
	err = tx.GetContext(ctx, &project, "SELECT * FROM projects WHERE id = $1 FOR UPDATE", projectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProjectNotFound
		}
		return nil, fmt.Errorf("projectRepo.Reconcile lock: %w", err)
	}
	if err := loadChildren(ctx, tx, &project); err != nil {
		return nil, fmt.Errorf("projectRepo.Reconcile: %w", err)
	}

	change, err := fn(&project)
	if err != nil {
		return nil, err
	}
	if err := applyChange(ctx, tx, change); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("projectRepo.Reconcile commit: %w", err)
	}
	return &project, nil
}

func (r *projectRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func applyChange(ctx context.Context, tx *sqlx.Tx, change *domain.LedgerChange) error {
	for i := range change.UpdatedItems {
		item := &change.UpdatedItems[i]
		_, err := tx.ExecContext(ctx,
			"UPDATE budget_items SET received = $1, total_paid = $2, updated_at = $3 WHERE id = $4",
			item.Received, item.TotalPaid, item.UpdatedAt, item.ID)
		if err != nil {
			return fmt.Errorf("projectRepo.Reconcile update item %s: %w", item.SKU, err)
		}
	}
	for i := range change.NewItems {
		if err := insertItem(ctx, tx, &change.NewItems[i]); err != nil {
			return mapWriteError("projectRepo.Reconcile insert item", err)
		}
	}

	inv := change.Invoice
	_, err := tx.ExecContext(ctx,
		`INSERT INTO used_invoices (id, project_id, invoice_number, total_price, address, item_count, source, payload, applied_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		inv.ID, inv.ProjectID, inv.InvoiceNumber, inv.TotalPrice, inv.Address, inv.ItemCount,
		inv.Source, string(inv.Payload), inv.AppliedAt)
	if err != nil {
		return mapWriteError("projectRepo.Reconcile insert invoice", err)
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE projects SET total_cost = total_cost + $1, updated_at = $2 WHERE id = $3",
		change.TotalDelta, inv.AppliedAt, change.ProjectID)
	if err != nil {
		return fmt.Errorf("projectRepo.Reconcile total: %w", err)
	}
	return nil
}

func insertItem(ctx context.Context, tx *sqlx.Tx, item *domain.BudgetItem) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO budget_items (id, project_id, sku, material_name, quantity, received, total_paid, extra_data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		item.ID, item.ProjectID, item.SKU, item.MaterialName, item.Quantity, item.Received,
		item.TotalPaid, item.ExtraData, item.CreatedAt, item.UpdatedAt)
	return err
}

// loadChildren reads the budget items and used invoices of project.
func loadChildren(ctx context.Context, q sqlx.QueryerContext, project *domain.Project) error {
	project.BudgetItems = []domain.BudgetItem{}
	if err := sqlx.SelectContext(ctx, q, &project.BudgetItems,
		"SELECT * FROM budget_items WHERE project_id = $1 ORDER BY created_at, sku", project.ID); err != nil {
		return fmt.Errorf("loading budget items: %w", err)
	}
	project.UsedInvoices = []domain.UsedInvoice{}
	if err := sqlx.SelectContext(ctx, q, &project.UsedInvoices,
		"SELECT * FROM used_invoices WHERE project_id = $1 ORDER BY applied_at", project.ID); err != nil {
		return fmt.Errorf("loading used invoices: %w", err)
	}
	return nil
}

// mapWriteError turns constraint violations into domain errors.
func mapWriteError(op string, err error) error {
	constraint, ok := uniqueViolation(err)
	if !ok {
		return fmt.Errorf("%s: %w", op, err)
	}
	switch constraint {
	case constraintProjectName:
		return domain.ErrDuplicateProjectName
	case constraintItemSKU:
		return domain.ErrDuplicateSKU
	case constraintInvoiceUsed:
		return domain.ErrInvoiceAlreadyUsed
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
