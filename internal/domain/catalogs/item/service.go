package item

import (
	"context"
	"fmt"
	"time"

	"fuelstock/internal/core/id"
	"fuelstock/internal/core/tx"
	"fuelstock/internal/domain"
	"fuelstock/pkg/logger"
	"fuelstock/pkg/numerator"
)

// Service provides business logic for the Item catalog.
type Service struct {
	*domain.CatalogService[*Item]
	repo      Repository
	numerator *numerator.Service
}

// NewService creates a new Item service.
func NewService(repo Repository, txManager tx.Manager, num *numerator.Service, log *logger.Logger) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Item]{
		Repo:       repo,
		TxManager:  txManager,
		Logger:     log,
		EntityName: "item",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
		numerator:      num,
	}

	base.Hooks().On(domain.BeforeCreate, svc.prepareForCreate)

	return svc
}

func (s *Service) prepareForCreate(ctx context.Context, it *Item) error {
	if it.Code == "" {
		code, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("ITM"), nil, time.Now())
		if err != nil {
			return fmt.Errorf("generate code: %w", err)
		}
		it.Code = code
	}
	return nil
}

// Deactivate marks the item unusable for new operations without
// touching history.
func (s *Service) Deactivate(ctx context.Context, itemID id.ID) error {
	it, err := s.GetByID(ctx, itemID)
	if err != nil {
		return err
	}
	if !it.IsActive {
		return nil
	}
	it.IsActive = false
	return s.Update(ctx, it)
}

// Activate re-enables a deactivated item.
func (s *Service) Activate(ctx context.Context, itemID id.ID) error {
	it, err := s.GetByID(ctx, itemID)
	if err != nil {
		return err
	}
	if it.IsActive {
		return nil
	}
	it.IsActive = true
	return s.Update(ctx, it)
}
