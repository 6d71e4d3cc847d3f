package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fuelstock/internal/core/apperror"
	"fuelstock/internal/core/id"
	"fuelstock/internal/domain/catalogs/party"
	"fuelstock/internal/domain/reports"
	"fuelstock/internal/infrastructure/http/v1/dto"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportHandler serves the reporting endpoints.
type ReportHandler struct {
	*BaseHandler
	service *reports.Service
}

// NewReportHandler creates a report handler.
func NewReportHandler(base *BaseHandler, service *reports.Service) *ReportHandler {
	return &ReportHandler{
		BaseHandler: base,
		service:     service,
	}
}

// GeneralWarehouse handles GET /general-warehouse - movement history of
// one warehouse grouped by operation kind.
func (h *ReportHandler) GeneralWarehouse(c *gin.Context) {
	ctx := c.Request.Context()

	warehouseID, ok := h.requireIDQuery(c, "warehouse_id")
	if !ok {
		return
	}

	q, rng, ok := h.parseQuery(c)
	if !ok {
		return
	}

	report, err := h.service.Warehouse(ctx, warehouseID, rng)
	if err != nil {
		h.Error(c, err)
		return
	}

	if q.WantsXLSX() {
		h.writeMovementsXLSX(c, "general-warehouse", dto.FlattenWarehouseReport(report))
		return
	}
	h.OK(c, report)
}

// GeneralItem handles GET /general-item - cross-warehouse movement
// history of one item.
func (h *ReportHandler) GeneralItem(c *gin.Context) {
	ctx := c.Request.Context()

	itemID, ok := h.requireIDQuery(c, "item_id")
	if !ok {
		return
	}

	q, rng, ok := h.parseQuery(c)
	if !ok {
		return
	}

	report, err := h.service.Item(ctx, itemID, rng)
	if err != nil {
		h.Error(c, err)
		return
	}

	if q.WantsXLSX() {
		h.writeMovementsXLSX(c, "general-item", report.Rows)
		return
	}
	h.OK(c, report)
}

// ItemStatus handles GET /item-status - current balances of one item
// across warehouses with level classification.
func (h *ReportHandler) ItemStatus(c *gin.Context) {
	ctx := c.Request.Context()

	itemID, ok := h.requireIDQuery(c, "item_id")
	if !ok {
		return
	}

	var q dto.ReportQuery
	if !h.BindQuery(c, &q) {
		return
	}

	report, err := h.service.ItemStatus(ctx, itemID)
	if err != nil {
		h.Error(c, err)
		return
	}

	if q.WantsXLSX() {
		h.writeStatusXLSX(c, "item-status", report)
		return
	}
	h.OK(c, report)
}

// WarehouseStatus handles GET /warehouse-status - current balances of
// one warehouse, or all warehouses when warehouse_id is omitted.
func (h *ReportHandler) WarehouseStatus(c *gin.Context) {
	ctx := c.Request.Context()

	var warehouseID *id.ID
	if whStr := c.Query("warehouse_id"); whStr != "" {
		parsed, err := id.Parse(whStr)
		if err != nil {
			h.Error(c, apperror.NewFieldValidation("warehouse_id", "invalid id format"))
			return
		}
		warehouseID = &parsed
	}

	var q dto.ReportQuery
	if !h.BindQuery(c, &q) {
		return
	}

	report, err := h.service.WarehouseStatus(ctx, warehouseID)
	if err != nil {
		h.Error(c, err)
		return
	}

	if q.WantsXLSX() {
		h.writeStatusXLSX(c, "warehouse-status", report)
		return
	}
	h.OK(c, report)
}

// SupplierOperations handles GET /supplier-operations.
func (h *ReportHandler) SupplierOperations(c *gin.Context) {
	h.partyReport(c, "supplier_id", party.KindSupplier, "supplier-operations")
}

// BeneficiaryOperations handles GET /beneficiary-operations.
func (h *ReportHandler) BeneficiaryOperations(c *gin.Context) {
	h.partyReport(c, "beneficiary_id", party.KindBeneficiary, "beneficiary-operations")
}

// StationOperations handles GET /stations-operations.
func (h *ReportHandler) StationOperations(c *gin.Context) {
	h.partyReport(c, "stations_id", party.KindStation, "stations-operations")
}

func (h *ReportHandler) partyReport(c *gin.Context, param string, kind party.Kind, name string) {
	ctx := c.Request.Context()

	partyID, ok := h.requireIDQuery(c, param)
	if !ok {
		return
	}

	q, rng, ok := h.parseQuery(c)
	if !ok {
		return
	}

	report, err := h.service.Party(ctx, kind, partyID, rng)
	if err != nil {
		h.Error(c, err)
		return
	}

	if q.WantsXLSX() {
		h.writeMovementsXLSX(c, name, report.Rows)
		return
	}
	h.OK(c, report)
}

func (h *ReportHandler) parseQuery(c *gin.Context) (dto.ReportQuery, reports.DateRange, bool) {
	var q dto.ReportQuery
	if !h.BindQuery(c, &q) {
		return q, reports.DateRange{}, false
	}
	rng, err := q.DateRange()
	if err != nil {
		h.Error(c, err)
		return q, rng, false
	}
	return q, rng, true
}

func (h *ReportHandler) requireIDQuery(c *gin.Context, key string) (id.ID, bool) {
	val := c.Query(key)
	if val == "" {
		h.Error(c, apperror.NewFieldValidation(key, "required"))
		return id.Nil(), false
	}
	parsed, err := id.Parse(val)
	if err != nil {
		h.Error(c, apperror.NewFieldValidation(key, "invalid id format"))
		return id.Nil(), false
	}
	return parsed, true
}

func (h *ReportHandler) writeMovementsXLSX(c *gin.Context, name string, rows []reports.MovementRow) {
	h.setAttachmentHeaders(c, name)
	if err := reports.WriteMovementsXLSX(c.Writer, rows); err != nil {
		h.Error(c, apperror.NewInternal(err))
	}
}

func (h *ReportHandler) writeStatusXLSX(c *gin.Context, name string, report *reports.StatusReport) {
	h.setAttachmentHeaders(c, name)
	if err := reports.WriteStatusXLSX(c.Writer, report); err != nil {
		h.Error(c, apperror.NewInternal(err))
	}
}

func (h *ReportHandler) setAttachmentHeaders(c *gin.Context, name string) {
	filename := fmt.Sprintf("%s-%s.xlsx", name, time.Now().Format("2006-01-02"))
	c.Header("Content-Type", xlsxContentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Status(http.StatusOK)
}
