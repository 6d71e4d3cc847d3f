package reports

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"fuelstock/internal/core/id"
	"fuelstock/internal/domain/catalogs/party"
	"fuelstock/internal/domain/operations"
	"fuelstock/pkg/logger"
)

// Cache is a read-through byte cache for rendered reports. The redis
// implementation invalidates itself on ledger-changed events.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, payload []byte) error
}

// NopCache never hits.
type NopCache struct{}

func (NopCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (NopCache) Set(context.Context, string, []byte) error         { return nil }

// Service generates report projections. Pure reads; holds no locks.
type Service struct {
	repo       Repository
	cache      Cache
	classifier *Classifier
	log        *logger.Logger
}

// NewService creates a new reports service.
func NewService(repo Repository, cache Cache, classifier *Classifier, log *logger.Logger) *Service {
	if cache == nil {
		cache = NopCache{}
	}
	if log == nil {
		log = logger.Default()
	}
	return &Service{
		repo:       repo,
		cache:      cache,
		classifier: classifier,
		log:        log.WithComponent("reports"),
	}
}

func rangeKey(r DateRange) string {
	from, to := "", ""
	if r.From != nil {
		from = r.From.Format(time.RFC3339)
	}
	if r.To != nil {
		to = r.To.Format(time.RFC3339)
	}
	return from + ":" + to
}

// cached runs build through the report cache.
func cached[T any](ctx context.Context, s *Service, key string, build func(ctx context.Context) (*T, error)) (*T, error) {
	if payload, ok, err := s.cache.Get(ctx, key); err != nil {
		s.log.WithContext(ctx).Warnw("report cache get failed", "key", key, "error", err)
	} else if ok {
		var out T
		if err := json.Unmarshal(payload, &out); err == nil {
			return &out, nil
		}
		s.log.WithContext(ctx).Warnw("report cache payload corrupt", "key", key)
	}

	out, err := build(ctx)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(out); err == nil {
		if err := s.cache.Set(ctx, key, payload); err != nil {
			s.log.WithContext(ctx).Warnw("report cache set failed", "key", key, "error", err)
		}
	}
	return out, nil
}

// Warehouse builds the per-warehouse movement report, bucketed by kind.
func (s *Service) Warehouse(ctx context.Context, warehouseID id.ID, rng DateRange) (*WarehouseReport, error) {
	key := fmt.Sprintf("warehouse:%s:%s", warehouseID, rangeKey(rng))
	return cached(ctx, s, key, func(ctx context.Context) (*WarehouseReport, error) {
		rows, err := s.repo.GetMovements(ctx, MovementFilter{
			WarehouseID: &warehouseID,
			Range:       rng,
		})
		if err != nil {
			return nil, fmt.Errorf("get movements: %w", err)
		}

		report := &WarehouseReport{WarehouseID: warehouseID, Range: rng}
		for _, row := range rows {
			switch row.Kind {
			case operations.KindSupply:
				report.Supplies = append(report.Supplies, row)
			case operations.KindExport:
				report.Exports = append(report.Exports, row)
			case operations.KindDamage:
				report.Damages = append(report.Damages, row)
			case operations.KindReturnSupply:
				report.ReturnSupply = append(report.ReturnSupply, row)
			case operations.KindReturnExport:
				report.ReturnExport = append(report.ReturnExport, row)
			case operations.KindModifySupply:
				report.Modifications = append(report.Modifications, row)
			case operations.KindTransfer:
				// The repository resolves WarehouseID to the leg's side.
				if row.WarehouseID == warehouseID {
					report.TransfersOut = append(report.TransfersOut, row)
				} else {
					report.TransfersIn = append(report.TransfersIn, row)
				}
			}
		}
		return report, nil
	})
}

// Item builds the cross-warehouse movement history for one item.
func (s *Service) Item(ctx context.Context, itemID id.ID, rng DateRange) (*ItemReport, error) {
	key := fmt.Sprintf("item:%s:%s", itemID, rangeKey(rng))
	return cached(ctx, s, key, func(ctx context.Context) (*ItemReport, error) {
		rows, err := s.repo.GetMovements(ctx, MovementFilter{
			ItemID: &itemID,
			Range:  rng,
		})
		if err != nil {
			return nil, fmt.Errorf("get movements: %w", err)
		}
		return &ItemReport{ItemID: itemID, Range: rng, Rows: rows}, nil
	})
}

// ItemStatus builds the per-item stock snapshot across warehouses.
func (s *Service) ItemStatus(ctx context.Context, itemID id.ID) (*StatusReport, error) {
	key := fmt.Sprintf("item-status:%s", itemID)
	return cached(ctx, s, key, func(ctx context.Context) (*StatusReport, error) {
		return s.buildStatus(ctx, nil, &itemID)
	})
}

// WarehouseStatus builds the stock snapshot, optionally scoped to one
// warehouse, with each row classified against its opening balance.
func (s *Service) WarehouseStatus(ctx context.Context, warehouseID *id.ID) (*StatusReport, error) {
	scope := "all"
	if warehouseID != nil {
		scope = warehouseID.String()
	}
	key := fmt.Sprintf("warehouse-status:%s", scope)
	return cached(ctx, s, key, func(ctx context.Context) (*StatusReport, error) {
		return s.buildStatus(ctx, warehouseID, nil)
	})
}

func (s *Service) buildStatus(ctx context.Context, warehouseID, itemID *id.ID) (*StatusReport, error) {
	rows, err := s.repo.GetStatusRows(ctx, warehouseID, itemID)
	if err != nil {
		return nil, fmt.Errorf("get status rows: %w", err)
	}
	for i := range rows {
		level, err := s.classifier.Classify(rows[i].CurrentQuantity, rows[i].OpeningBalance)
		if err != nil {
			return nil, fmt.Errorf("classify row: %w", err)
		}
		rows[i].Level = level
	}
	return &StatusReport{GeneratedAt: time.Now().UTC(), Rows: rows}, nil
}

// Party builds the movement history scoped to one counterparty.
func (s *Service) Party(ctx context.Context, kind party.Kind, partyID id.ID, rng DateRange) (*PartyReport, error) {
	key := fmt.Sprintf("party:%s:%s:%s", kind, partyID, rangeKey(rng))
	return cached(ctx, s, key, func(ctx context.Context) (*PartyReport, error) {
		rows, err := s.repo.GetMovements(ctx, MovementFilter{
			PartyID:   &partyID,
			PartyKind: kind,
			Range:     rng,
		})
		if err != nil {
			return nil, fmt.Errorf("get movements: %w", err)
		}
		return &PartyReport{PartyID: partyID, Kind: string(kind), Range: rng, Rows: rows}, nil
	})
}
