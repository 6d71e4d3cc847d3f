package party

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

var codePrefixes = map[Kind]string{
	KindSupplier:    "SUPL",
	KindBeneficiary: "BENF",
	KindStation:     "STN",
}

// Service provides business logic for the Party catalogs.
type Service struct {
	*domain.CatalogService[*Party]
	repo      Repository
	numerator *numerator.Service
}

// NewService creates a new Party service.
func NewService(repo Repository, txManager tx.Manager, num *numerator.Service, log *logger.Logger) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Party]{
		Repo:       repo,
		TxManager:  txManager,
		Logger:     log,
		EntityName: "party",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
		numerator:      num,
	}

	base.Hooks().On(domain.BeforeCreate, svc.prepareForCreate)

	return svc
}

func (s *Service) prepareForCreate(ctx context.Context, p *Party) error {
	if p.Code == "" {
		prefix, ok := codePrefixes[p.Kind]
		if !ok {
			prefix = "PTY"
		}
		code, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig(prefix), nil, time.Now())
		if err != nil {
			return fmt.Errorf("generate code: %w", err)
		}
		p.Code = code
	}
	return nil
}

// GetByIDAndKind retrieves a party only if it has the expected kind.
func (s *Service) GetByIDAndKind(ctx context.Context, partyID id.ID, kind Kind) (*Party, error) {
	return s.repo.GetByIDAndKind(ctx, partyID, kind)
}

// ListByKind retrieves parties of one kind.
func (s *Service) ListByKind(ctx context.Context, kind Kind, filter domain.ListFilter) (domain.ListResult[*Party], error) {
	return s.repo.ListByKind(ctx, kind, filter)
}
