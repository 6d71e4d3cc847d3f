package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fuelstock/internal/core/apperror"
	"fuelstock/internal/core/id"
	"fuelstock/internal/domain/ledger"
	"fuelstock/internal/infrastructure/http/v1/dto"
)

// StockHandler serves warehouse-item balance records.
type StockHandler struct {
	*BaseHandler
	service *ledger.Service
}

// NewStockHandler creates a stock balance handler.
func NewStockHandler(base *BaseHandler, service *ledger.Service) *StockHandler {
	return &StockHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Create handles POST - register an item in a warehouse.
func (h *StockHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateBalanceRequest
	if !h.BindJSON(c, &req) {
		return
	}

	warehouseID, err := id.Parse(req.WarehouseID)
	if err != nil {
		h.Error(c, apperror.NewFieldValidation("warehouseId", "invalid id format"))
		return
	}
	itemID, err := id.Parse(req.ItemID)
	if err != nil {
		h.Error(c, apperror.NewFieldValidation("itemId", "invalid id format"))
		return
	}

	wi, err := h.service.CreateBalance(ctx, warehouseID, itemID, req.OpeningBalance, ledger.Unit(req.UnitOfMeasure))
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromBalance(wi))
}

// List handles GET - list balances, optionally scoped to one warehouse
// or one item.
func (h *StockHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	if itemStr := c.Query("itemId"); itemStr != "" {
		itemID, err := id.Parse(itemStr)
		if err != nil {
			h.Error(c, apperror.NewFieldValidation("itemId", "invalid id format"))
			return
		}
		items, err := h.service.ListByItem(ctx, itemID)
		if err != nil {
			h.Error(c, err)
			return
		}
		h.OK(c, gin.H{"items": dto.FromBalances(items)})
		return
	}

	var warehouseID *id.ID
	if whStr := c.Query("warehouseId"); whStr != "" {
		parsed, err := id.Parse(whStr)
		if err != nil {
			h.Error(c, apperror.NewFieldValidation("warehouseId", "invalid id format"))
			return
		}
		warehouseID = &parsed
	}

	items, err := h.service.ListByWarehouse(ctx, warehouseID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"items": dto.FromBalances(items)})
}

// Get handles GET /:id - get a single balance record.
func (h *StockHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	balanceID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	wi, err := h.service.GetByID(ctx, balanceID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromBalance(wi))
}
