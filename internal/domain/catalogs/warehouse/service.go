package warehouse

import (
	"context"
	"fmt"
	"time"

	"fuelstock/internal/core/apperror"
	"fuelstock/internal/core/id"
	"fuelstock/internal/core/tx"
	"fuelstock/internal/domain"
	"fuelstock/pkg/logger"
	"fuelstock/pkg/numerator"
)

// Service provides business logic for the Warehouse catalog.
// Uses composition with domain.CatalogService for common CRUD operations.
type Service struct {
	*domain.CatalogService[*Warehouse]
	repo      Repository
	numerator *numerator.Service
}

// NewService creates a new Warehouse service.
func NewService(repo Repository, txManager tx.Manager, num *numerator.Service, log *logger.Logger) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Warehouse]{
		Repo:       repo,
		TxManager:  txManager,
		Logger:     log,
		EntityName: "warehouse",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
		numerator:      num,
	}

	base.Hooks().On(domain.BeforeCreate, svc.prepareForCreate)
	base.Hooks().On(domain.BeforeUpdate, svc.checkParentChain)

	return svc
}

// prepareForCreate generates a code if not provided and checks the parent chain.
func (s *Service) prepareForCreate(ctx context.Context, wh *Warehouse) error {
	if wh.Code == "" {
		code, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("WH"), nil, time.Now())
		if err != nil {
			return fmt.Errorf("generate code: %w", err)
		}
		wh.Code = code
	}

	return s.checkParentChain(ctx, wh)
}

// checkParentChain rejects parent references that would create a cycle.
func (s *Service) checkParentChain(ctx context.Context, wh *Warehouse) error {
	if wh.ParentID == nil || *wh.ParentID == "" {
		return nil
	}

	seen := map[string]bool{wh.ID.String(): true}
	current := *wh.ParentID

	for current != "" {
		if seen[current] {
			return apperror.NewValidation("warehouse parent chain contains a cycle").
				WithDetail("field", "parentId").
				WithDetail("value", *wh.ParentID)
		}
		seen[current] = true

		parentID, err := id.Parse(current)
		if err != nil {
			return apperror.NewValidation("invalid parent id").
				WithDetail("field", "parentId").
				WithDetail("value", current)
		}

		parent, err := s.repo.GetByID(ctx, parentID)
		if err != nil {
			if apperror.IsNotFound(err) {
				return apperror.NewNotFound("warehouse", current)
			}
			return err
		}
		if parent.ParentID == nil {
			break
		}
		current = *parent.ParentID
	}

	return nil
}
