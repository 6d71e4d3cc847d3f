package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"fuelstock/internal/core/apperror"
	"fuelstock/internal/core/id"
	"fuelstock/internal/domain"
	"fuelstock/internal/domain/catalogs/party"
	"fuelstock/internal/infrastructure/storage/postgres"
)

const partyTable = "cat_parties"

// PartyRepo implements party.Repository. Suppliers, beneficiaries and
// stations share one table discriminated by the kind column.
type PartyRepo struct {
	*BaseCatalogRepo[*party.Party]
}

// NewPartyRepo creates a new party repository.
func NewPartyRepo(tm *postgres.TxManager) *PartyRepo {
	return &PartyRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[*party.Party](
			tm,
			partyTable,
			postgres.ExtractDBColumns[party.Party](),
			func() *party.Party { return &party.Party{} },
		),
	}
}

// GetByIDAndKind retrieves a party only if it has the expected kind.
// A party of another kind is reported as not found, not as a conflict.
func (r *PartyRepo) GetByIDAndKind(ctx context.Context, entityID id.ID, kind party.Kind) (*party.Party, error) {
	entity := &party.Party{}

	q := r.Builder().
		Select(postgres.ExtractDBColumns[party.Party]()...).
		From(partyTable).
		Where(squirrel.Eq{"id": entityID}).
		Where(squirrel.Eq{"kind": kind}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Get(ctx, r.querier(ctx), entity, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(string(kind), entityID.String())
		}
		return nil, fmt.Errorf("get by id and kind: %w", err)
	}

	return entity, nil
}

// ListByKind retrieves parties of one kind with filtering.
func (r *PartyRepo) ListByKind(ctx context.Context, kind party.Kind, filter domain.ListFilter) (domain.ListResult[*party.Party], error) {
	result := domain.ListResult[*party.Party]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.applyFilter(r.baseSelect(), filter).
		Where(squirrel.Eq{"kind": kind})

	countQ := r.Builder().
		Select("COUNT(*)").
		FromSelect(q, "sub")

	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count query: %w", err)
	}

	querier := r.querier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count: %w", err)
	}

	orderBy, err := r.parseOrderBy(filter.OrderBy)
	if err != nil {
		return result, err
	}
	q = q.OrderBy(orderBy)

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("list by kind: %w", err)
	}

	return result, nil
}
