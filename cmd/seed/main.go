// Package main provides a CLI tool for seeding the database with demo data.
package main

import (
	"context"
	"fmt"
	"os"

	"fuelstock/internal/config"
	"fuelstock/internal/core/apperror"
	"fuelstock/internal/core/types"
	"fuelstock/internal/domain/catalogs/item"
	"fuelstock/internal/domain/catalogs/party"
	"fuelstock/internal/domain/catalogs/warehouse"
	"fuelstock/internal/domain/ledger"
	"fuelstock/internal/infrastructure/storage/postgres"
	"fuelstock/internal/infrastructure/storage/postgres/catalog_repo"
	"fuelstock/internal/infrastructure/storage/postgres/ledger_repo"
	"fuelstock/pkg/logger"
	"fuelstock/pkg/numerator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx := context.Background()

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.PGDSN))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("connected to database")

	txManager := postgres.NewTxManager(pool)
	num := numerator.New(pool)

	warehouseService := warehouse.NewService(catalog_repo.NewWarehouseRepo(txManager), txManager, num, log)
	itemService := item.NewService(catalog_repo.NewItemRepo(txManager), txManager, num, log)
	partyService := party.NewService(catalog_repo.NewPartyRepo(txManager), txManager, num, log)
	ledgerService := ledger.NewService(ledger_repo.NewLedgerRepo(txManager), nil, log)

	if err := seedCatalogs(ctx, warehouseService, itemService, partyService, ledgerService, log); err != nil {
		log.Fatalw("seeding failed", "error", err)
	}

	log.Info("seeding completed successfully")
}

func seedCatalogs(
	ctx context.Context,
	warehouses *warehouse.Service,
	items *item.Service,
	parties *party.Service,
	balances *ledger.Service,
	log *logger.Logger,
) error {
	mainWh := warehouse.NewWarehouse("WH-MAIN", "Main Fuel Depot")
	mainWh.Classification = "main"
	mainWh.Storekeeper = "Karim Saleh"
	mainWh.Phone = "+20-100-555-0101"

	subWh := warehouse.NewWarehouse("WH-NORTH", "North Station Tank")
	subWh.Classification = "station tank"
	subWh.Storekeeper = "Hassan Omar"
	subWh.Phone = "+20-100-555-0102"

	for _, wh := range []*warehouse.Warehouse{mainWh, subWh} {
		if err := warehouses.Create(ctx, wh); err != nil {
			if apperror.IsConflict(err) {
				log.Infow("warehouse already seeded", "code", wh.Code)
				continue
			}
			return fmt.Errorf("create warehouse %s: %w", wh.Code, err)
		}
		log.Infow("warehouse created", "code", wh.Code, "name", wh.Name)
	}

	seedItems := []*item.Item{
		item.NewItem("FUEL-DIESEL", "Diesel"),
		item.NewItem("FUEL-G91", "Gasoline 91"),
		item.NewItem("FUEL-G95", "Gasoline 95"),
		item.NewItem("OIL-ENGINE", "Engine Oil"),
	}
	for _, it := range seedItems {
		if err := items.Create(ctx, it); err != nil {
			if apperror.IsConflict(err) {
				log.Infow("item already seeded", "code", it.Code)
				continue
			}
			return fmt.Errorf("create item %s: %w", it.Code, err)
		}
		log.Infow("item created", "code", it.Code, "name", it.Name)
	}

	supplier := party.NewParty(party.KindSupplier, "SUPL-PETRO", "National Petroleum Co.")
	supplier.Phone = "+20-2-555-0200"

	beneficiary := party.NewParty(party.KindBeneficiary, "BENF-FLEET", "Municipal Fleet Dept.")
	beneficiary.Phone = "+20-2-555-0300"

	station := party.NewParty(party.KindStation, "STN-NORTH", "North Fuel Station")
	station.Phone = "+20-2-555-0400"
	station.Location = "Ring Road, North Gate"

	for _, p := range []*party.Party{supplier, beneficiary, station} {
		if err := parties.Create(ctx, p); err != nil {
			if apperror.IsConflict(err) {
				log.Infow("party already seeded", "code", p.Code)
				continue
			}
			return fmt.Errorf("create party %s: %w", p.Code, err)
		}
		log.Infow("party created", "code", p.Code, "kind", p.Kind)
	}

	// Opening balances for the main depot.
	mainWhEnt, err := warehouses.GetByCode(ctx, "WH-MAIN")
	if err != nil {
		return fmt.Errorf("load main warehouse: %w", err)
	}
	openings := map[string]float64{
		"FUEL-DIESEL": 50000,
		"FUEL-G91":    30000,
		"FUEL-G95":    20000,
		"OIL-ENGINE":  1500,
	}
	for code, qty := range openings {
		it, err := items.GetByCode(ctx, code)
		if err != nil {
			return fmt.Errorf("load item %s: %w", code, err)
		}
		_, err = balances.CreateBalance(ctx, mainWhEnt.ID, it.ID, types.NewQuantityFromFloat64(qty), ledger.UnitLiters)
		if err != nil {
			if apperror.IsConflict(err) {
				log.Infow("balance already seeded", "item", code)
				continue
			}
			return fmt.Errorf("create balance for %s: %w", code, err)
		}
		log.Infow("opening balance created", "item", code, "quantity", qty)
	}

	return nil
}
