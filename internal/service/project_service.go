package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"invoiceledger/internal/domain"
	"invoiceledger/internal/port"
)

// BudgetItemInput is the DTO for a budget item written by the operator.
type BudgetItemInput struct {
	SKU          string
	MaterialName string
	Quantity     int
	Received     int
	// TotalPaid is only applied on update; nil keeps the stored value.
	TotalPaid *decimal.Decimal
}

// CreateProjectInput is the DTO for creating a project.
type CreateProjectInput struct {
	Name  string
	Items []BudgetItemInput
}

// UpdateProjectInput is the DTO for updating a project. A nil Name keeps the
// current name; a nil Items leaves the ledger untouched.
type UpdateProjectInput struct {
	ID    uuid.UUID
	Name  *string
	Items []BudgetItemInput
}

// ProjectService defines the project management contract.
type ProjectService interface {
	Create(ctx context.Context, input *CreateProjectInput) (*domain.Project, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Project, error)
	List(ctx context.Context) ([]domain.Project, error)
	Update(ctx context.Context, input *UpdateProjectInput) (*domain.Project, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListInvoices(ctx context.Context, id uuid.UUID) ([]domain.UsedInvoice, error)
}

type projectService struct {
	repo port.ProjectRepository
}

// NewProjectService creates a new ProjectService implementation.
func NewProjectService(repo port.ProjectRepository) ProjectService {
	return &projectService{repo: repo}
}

func (s *projectService) Create(ctx context.Context, input *CreateProjectInput) (*domain.Project, error) {
	project := &domain.Project{
		Name:        strings.TrimSpace(input.Name),
		TotalCost:   decimal.Zero,
		BudgetItems: make([]domain.BudgetItem, 0, len(input.Items)),
	}
	for i := range input.Items {
		item, err := validateItem(&input.Items[i])
		if err != nil {
			return nil, err
		}
		project.BudgetItems = append(project.BudgetItems, item)
	}
	if err := project.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

func (s *projectService) Get(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *projectService) List(ctx context.Context) ([]domain.Project, error) {
	return s.repo.List(ctx)
}

func (s *projectService) Update(ctx context.Context, input *UpdateProjectInput) (*domain.Project, error) {
	project, err := s.repo.GetByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, domain.ErrProjectNameRequired
		}
		project.Name = name
	}

	// Only items whose sku already exists are overwritten; unknown skus are ignored.
	var matched []domain.BudgetItem
	for i := range input.Items {
		in := &input.Items[i]
		if _, err := validateItem(in); err != nil {
			return nil, err
		}
		existing := project.FindItem(strings.TrimSpace(in.SKU))
		if existing == nil {
			continue
		}
		existing.MaterialName = strings.TrimSpace(in.MaterialName)
		existing.Quantity = in.Quantity
		existing.Received = in.Received
		if in.TotalPaid != nil {
			existing.TotalPaid = in.TotalPaid.Round(2)
		}
		matched = append(matched, *existing)
	}

	all := project.BudgetItems
	project.BudgetItems = matched
	err = s.repo.Update(ctx, project)
	project.BudgetItems = all
	if err != nil {
		return nil, err
	}
	return project, nil
}

func (s *projectService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *projectService) ListInvoices(ctx context.Context, id uuid.UUID) ([]domain.UsedInvoice, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.ListInvoices(ctx, id)
}

func validateItem(in *BudgetItemInput) (domain.BudgetItem, error) {
	sku := strings.TrimSpace(in.SKU)
	material := strings.TrimSpace(in.MaterialName)
	if sku == "" || material == "" || in.Quantity < 0 || in.Received < 0 {
		return domain.BudgetItem{}, fmt.Errorf("%w: each item requires sku, materialName, non-negative quantity and non-negative received", domain.ErrInvalidBudgetItem)
	}
	return domain.BudgetItem{
		SKU:          sku,
		MaterialName: material,
		Quantity:     in.Quantity,
		Received:     in.Received,
		TotalPaid:    decimal.Zero,
	}, nil
}

// ProjectResolver finds the project an emailed invoice belongs to.
type ProjectResolver interface {
	ResolveByAddress(ctx context.Context, address string) (*domain.Project, error)
}

type projectResolver struct {
	repo port.ProjectRepository
}

// NewProjectResolver creates a ProjectResolver that matches projects by name.
func NewProjectResolver(repo port.ProjectRepository) ProjectResolver {
	return &projectResolver{repo: repo}
}

// ResolveByAddress returns the project whose name equals address exactly,
// creating it when there is none.
func (r *projectResolver) ResolveByAddress(ctx context.Context, address string) (*domain.Project, error) {
	if address == "" {
		return nil, domain.ErrAddressMissing
	}

	project, err := r.repo.GetByExactName(ctx, address)
	if err == nil {
		return project, nil
	}
	if !errors.Is(err, domain.ErrProjectNotFound) {
		return nil, err
	}

	project = &domain.Project{Name: address, TotalCost: decimal.Zero, BudgetItems: []domain.BudgetItem{}}
	err = r.repo.Create(ctx, project)
	if errors.Is(err, domain.ErrDuplicateProjectName) {
		// created concurrently, or a project differing only in case holds the name
		existing, lookupErr := r.repo.GetByName(ctx, address)
		if lookupErr != nil {
			return nil, fmt.Errorf("resolving project %q: %w", address, err)
		}
		return existing, nil
	}
	if err != nil {
		return nil, err
	}
	return project, nil
}
