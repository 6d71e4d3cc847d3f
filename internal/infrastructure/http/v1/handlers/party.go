package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fuelstock/internal/domain"
	"fuelstock/internal/domain/catalogs/party"
	"fuelstock/internal/infrastructure/http/v1/dto"
)

// PartyHandler serves one kind of counterparty catalog. The same
// handler type backs suppliers, beneficiaries and stations; each
// instance is bound to its kind so routes never leak across kinds.
type PartyHandler struct {
	*BaseHandler
	service *party.Service
	kind    party.Kind
}

// NewPartyHandler creates a handler scoped to the given party kind.
func NewPartyHandler(base *BaseHandler, service *party.Service, kind party.Kind) *PartyHandler {
	return &PartyHandler{
		BaseHandler: base,
		service:     service,
		kind:        kind,
	}
}

// List handles GET - list parties of this kind.
func (h *PartyHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	filter := domain.DefaultListFilter()
	filter.Search = c.Query("search")
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.OrderBy = c.DefaultQuery("orderBy", "name")
	filter.IncludeDeleted = c.Query("includeDeleted") == "true"

	result, err := h.service.ListByKind(ctx, h.kind, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]any, len(result.Items))
	for i, p := range result.Items {
		items[i] = dto.FromParty(p)
	}

	c.JSON(http.StatusOK, dto.ListResponse{
		Items:      items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// Get handles GET /:id - get a single party of this kind.
func (h *PartyHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	partyID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	p, err := h.service.GetByIDAndKind(ctx, partyID, h.kind)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromParty(p))
}

// Create handles POST - create a party of this kind.
func (h *PartyHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreatePartyRequest
	if !h.BindJSON(c, &req) {
		return
	}

	p := req.ToEntity(h.kind)

	if err := h.service.Create(ctx, p); err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromParty(p))
}

// Update handles PUT /:id - update a party of this kind.
func (h *PartyHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	partyID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdatePartyRequest
	if !h.BindJSON(c, &req) {
		return
	}

	existing, err := h.service.GetByIDAndKind(ctx, partyID, h.kind)
	if err != nil {
		h.Error(c, err)
		return
	}

	req.ApplyTo(existing)

	if err := h.service.Update(ctx, existing); err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromParty(existing))
}

// Delete handles DELETE /:id - soft delete a party of this kind.
func (h *PartyHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()

	partyID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	// Kind check first so a supplier route cannot delete a station.
	if _, err := h.service.GetByIDAndKind(ctx, partyID, h.kind); err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.Delete(ctx, partyID); err != nil {
		h.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// SetDeletionMark handles POST /:id/deletion-mark
func (h *PartyHandler) SetDeletionMark(c *gin.Context) {
	ctx := c.Request.Context()

	partyID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.SetDeletionMarkRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if _, err := h.service.GetByIDAndKind(ctx, partyID, h.kind); err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.SetDeletionMark(ctx, partyID, req.Marked); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "deletion mark updated")
}
