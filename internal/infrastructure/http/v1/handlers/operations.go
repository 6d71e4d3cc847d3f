package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fuelstock/internal/core/apperror"
	"fuelstock/internal/core/id"
	"fuelstock/internal/domain"
	"fuelstock/internal/domain/operations"
	"fuelstock/internal/infrastructure/http/v1/dto"
)

// OperationHandler serves one operation kind. Each kind gets its own
// route group backed by a kind-bound instance.
type OperationHandler struct {
	*BaseHandler
	engine *operations.Engine
	kind   operations.Kind
}

// NewOperationHandler creates a handler scoped to the given kind.
func NewOperationHandler(base *BaseHandler, engine *operations.Engine, kind operations.Kind) *OperationHandler {
	return &OperationHandler{
		BaseHandler: base,
		engine:      engine,
		kind:        kind,
	}
}

// Create handles POST - record and apply an operation.
func (h *OperationHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateOperationRequest
	if !h.BindJSON(c, &req) {
		return
	}

	op, err := req.ToEntity(h.kind)
	if err != nil {
		h.Error(c, err)
		return
	}
	op.CreatedBy = h.GetUserID(c)

	if err := h.engine.Apply(ctx, op); err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromOperation(op))
}

// List handles GET - list operations of this kind.
func (h *OperationHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	filter := operations.ListFilter{
		ListFilter: domain.ListFilter{
			Search:         c.Query("search"),
			Limit:          h.ParseIntQuery(c, "limit", 50),
			Offset:         h.ParseIntQuery(c, "offset", 0),
			OrderBy:        c.Query("orderBy"),
			IncludeDeleted: c.Query("includeDeleted") == "true",
		},
		Kinds: []operations.Kind{h.kind},
	}

	var ok bool
	if filter.WarehouseID, ok = h.optionalIDQuery(c, "warehouseId"); !ok {
		return
	}
	if filter.ItemID, ok = h.optionalIDQuery(c, "itemId"); !ok {
		return
	}
	if filter.SupplierID, ok = h.optionalIDQuery(c, "supplierId"); !ok {
		return
	}
	if filter.BeneficiaryID, ok = h.optionalIDQuery(c, "beneficiaryId"); !ok {
		return
	}
	if filter.StationID, ok = h.optionalIDQuery(c, "stationId"); !ok {
		return
	}
	if filter.DateFrom, ok = h.optionalDateQuery(c, "start_date"); !ok {
		return
	}
	if filter.DateTo, ok = h.optionalDateQuery(c, "end_date"); !ok {
		return
	}
	if filter.DateTo != nil {
		end := filter.DateTo.Add(24*time.Hour - time.Nanosecond)
		filter.DateTo = &end
	}

	result, err := h.engine.List(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]any, len(result.Items))
	for i, op := range result.Items {
		items[i] = dto.FromOperation(op)
	}

	c.JSON(http.StatusOK, dto.ListResponse{
		Items:      items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// Get handles GET /:id - retrieve an operation with lines and attachments.
func (h *OperationHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	opID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	op, err := h.engine.GetByID(ctx, opID)
	if err != nil {
		h.Error(c, err)
		return
	}
	if op.Kind != h.kind {
		h.Error(c, apperror.NewNotFound(string(h.kind), opID.String()))
		return
	}

	c.JSON(http.StatusOK, dto.FromOperation(op))
}

// Delete handles DELETE /:id - soft delete with ledger reversal.
func (h *OperationHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()

	opID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	op, err := h.engine.GetByID(ctx, opID)
	if err != nil {
		h.Error(c, err)
		return
	}
	if op.Kind != h.kind {
		h.Error(c, apperror.NewNotFound(string(h.kind), opID.String()))
		return
	}

	if err := h.engine.Delete(ctx, opID); err != nil {
		h.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *OperationHandler) optionalIDQuery(c *gin.Context, key string) (*id.ID, bool) {
	val := c.Query(key)
	if val == "" {
		return nil, true
	}
	parsed, err := id.Parse(val)
	if err != nil {
		h.Error(c, apperror.NewFieldValidation(key, "invalid id format"))
		return nil, false
	}
	return &parsed, true
}

func (h *OperationHandler) optionalDateQuery(c *gin.Context, key string) (*time.Time, bool) {
	val := c.Query(key)
	if val == "" {
		return nil, true
	}
	parsed, err := time.Parse("2006-01-02", val)
	if err != nil {
		h.Error(c, apperror.NewFieldValidation(key, "expected YYYY-MM-DD"))
		return nil, false
	}
	return &parsed, true
}
