package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/uid0/openmakersuite/internal/dto"
	"github.com/uid0/openmakersuite/internal/service"
)

type ItemHandler struct {
	inventory service.InventoryService
}

func NewItemHandler(inventory service.InventoryService) *ItemHandler {
	return &ItemHandler{inventory: inventory}
}

func (h *ItemHandler) Create(c *gin.Context) {
	var req dto.CreateItemRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.inventory.CreateItem(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *ItemHandler) Update(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateItemRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.inventory.UpdateItem(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ItemHandler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.inventory.GetItem(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ItemHandler) List(c *gin.Context) {
	onlyActive := c.Query("include_inactive") != "true"
	resp, err := h.inventory.ListItems(c.Request.Context(), onlyActive)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ItemHandler) LowStock(c *gin.Context) {
	resp, err := h.inventory.ListLowStock(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ItemHandler) AdjustStock(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.AdjustStockRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.inventory.AdjustStock(c.Request.Context(), actorFrom(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ItemHandler) LogUsage(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.LogUsageRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.inventory.LogUsage(c.Request.Context(), actorFrom(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ItemHandler) ListUsage(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.inventory.ListUsage(c.Request.Context(), id, limitQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ItemHandler) ListMovements(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.inventory.ListMovements(c.Request.Context(), id, limitQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func limitQuery(c *gin.Context) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		return 50
	}
	if limit > 500 {
		return 500
	}
	return limit
}

type createNamedRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

func (h *ItemHandler) CreateCategory(c *gin.Context) {
	var req createNamedRequest
	if !bindAndValidate(c, &req) {
		return
	}
	cat, err := h.inventory.CreateCategory(c.Request.Context(), req.Name, req.Description)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": cat.ID.String(), "name": cat.Name, "description": cat.Description})
}

func (h *ItemHandler) ListCategories(c *gin.Context) {
	cats, err := h.inventory.ListCategories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]gin.H, 0, len(cats))
	for i := range cats {
		out = append(out, gin.H{"id": cats[i].ID.String(), "name": cats[i].Name, "description": cats[i].Description})
	}
	c.JSON(http.StatusOK, out)
}

func (h *ItemHandler) CreateLocation(c *gin.Context) {
	var req createNamedRequest
	if !bindAndValidate(c, &req) {
		return
	}
	loc, err := h.inventory.CreateLocation(c.Request.Context(), req.Name, req.Description)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": loc.ID.String(), "name": loc.Name, "description": loc.Description})
}

func (h *ItemHandler) ListLocations(c *gin.Context) {
	locs, err := h.inventory.ListLocations(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]gin.H, 0, len(locs))
	for i := range locs {
		out = append(out, gin.H{"id": locs[i].ID.String(), "name": locs[i].Name, "description": locs[i].Description})
	}
	c.JSON(http.StatusOK, out)
}
