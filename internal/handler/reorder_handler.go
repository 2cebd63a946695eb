package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/uid0/openmakersuite/internal/dto"
	"github.com/uid0/openmakersuite/internal/model"
	"github.com/uid0/openmakersuite/internal/service"
)

type ReorderHandler struct {
	reorders service.ReorderService
}

func NewReorderHandler(reorders service.ReorderService) *ReorderHandler {
	return &ReorderHandler{reorders: reorders}
}

func (h *ReorderHandler) Submit(c *gin.Context) {
	var req dto.SubmitReorderRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.reorders.Submit(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *ReorderHandler) Approve(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.ReviewReorderRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.reorders.Approve(c.Request.Context(), actorFrom(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ReorderHandler) MarkOrdered(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.MarkOrderedRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.reorders.MarkOrdered(c.Request.Context(), actorFrom(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ReorderHandler) MarkReceived(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.MarkReceivedRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.reorders.MarkReceived(c.Request.Context(), actorFrom(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ReorderHandler) Cancel(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.ReviewReorderRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.reorders.Cancel(c.Request.Context(), actorFrom(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ReorderHandler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.reorders.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// List returns the queue, filtered by ?status= or all active requests
// when no filter is given.
func (h *ReorderHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	status := c.Query("status")

	var (
		resp []dto.ReorderResponse
		err  error
	)
	if status == "" {
		resp, err = h.reorders.ListActive(ctx)
	} else {
		resp, err = h.reorders.ListByStatus(ctx, status)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Pending is a convenience view of the admin review queue.
func (h *ReorderHandler) Pending(c *gin.Context) {
	resp, err := h.reorders.ListByStatus(c.Request.Context(), model.ReorderPending)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ReorderHandler) ListByItem(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.reorders.ListByItem(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ReorderHandler) ActiveRequest(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.reorders.ActiveRequest(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ReorderHandler) Status(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.reorders.ReorderStatus(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ReorderHandler) PendingBySupplier(c *gin.Context) {
	resp, err := h.reorders.PendingBySupplier(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ReorderHandler) Summary(c *gin.Context) {
	resp, err := h.reorders.QueueSummary(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
