package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dineatlas/dineatlas/backend/internal/middleware"
	"github.com/dineatlas/dineatlas/backend/internal/models"
	"github.com/dineatlas/dineatlas/backend/internal/services"
	"github.com/dineatlas/dineatlas/backend/pkg/response"
)

type StoreHandler struct {
	storeService  *services.StoreService
	reviewService *services.ReviewService
	holidays      *services.HolidayService
}

func NewStoreHandler(storeService *services.StoreService, reviewService *services.ReviewService, holidays *services.HolidayService) *StoreHandler {
	return &StoreHandler{
		storeService:  storeService,
		reviewService: reviewService,
		holidays:      holidays,
	}
}

func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		response.BadRequest(c, "invalid id")
		return 0, false
	}
	return uint(id), true
}

// List returns approved stores with filters
// GET /api/stores
func (h *StoreHandler) List(c *gin.Context) {
	var req services.StoreListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.storeService.ListPublic(&req)
	if err != nil {
		response.ServerError(c, "failed to list stores")
		return
	}
	response.Success(c, resp)
}

// Get returns one approved store by slug, with its rating summary
// GET /api/stores/:slug
func (h *StoreHandler) Get(c *gin.Context) {
	store, err := h.storeService.GetBySlug(c.Param("slug"))
	if err != nil {
		response.NotFound(c, "store not found")
		return
	}
	if store.Status != models.StoreApproved {
		response.NotFound(c, "store not found")
		return
	}

	avg, count, err := h.reviewService.AverageRating(store.ID)
	if err != nil {
		response.ServerError(c, "failed to load store")
		return
	}

	response.Success(c, gin.H{
		"store":        store,
		"avg_rating":   avg,
		"review_count": count,
	})
}

// Regions lists supported holiday regions
// GET /api/stores/regions
func (h *StoreHandler) Regions(c *gin.Context) {
	response.Success(c, h.holidays.GetSupportedRegions())
}

// Create registers a new store owned by the caller
// POST /api/owner/stores
func (h *StoreHandler) Create(c *gin.Context) {
	var input services.StoreInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	store, err := h.storeService.Create(middleware.GetUserID(c), &input)
	if err != nil {
		if errors.Is(err, services.ErrInvalidHours) {
			response.BadRequest(c, "closing hour must be after opening hour")
			return
		}
		response.ServerError(c, "failed to create store")
		return
	}
	response.Created(c, store)
}

// Update edits a store owned by the caller
// PUT /api/owner/stores/:id
func (h *StoreHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var input services.StoreInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	store, err := h.storeService.Update(id, middleware.GetUserID(c), &input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrStoreNotFound):
			response.NotFound(c, "store not found")
		case errors.Is(err, services.ErrNotStoreOwner):
			response.Forbidden(c, "not the store owner")
		case errors.Is(err, services.ErrInvalidHours):
			response.BadRequest(c, "closing hour must be after opening hour")
		default:
			response.ServerError(c, "failed to update store")
		}
		return
	}
	response.Success(c, store)
}

// ListMine returns the caller's stores in any status
// GET /api/owner/stores
func (h *StoreHandler) ListMine(c *gin.Context) {
	stores, err := h.storeService.ListByOwner(middleware.GetUserID(c))
	if err != nil {
		response.ServerError(c, "failed to list stores")
		return
	}
	response.Success(c, stores)
}

// Delete removes a store
// DELETE /api/owner/stores/:id
func (h *StoreHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	isAdmin := middleware.GetRole(c) == models.RoleAdmin
	err := h.storeService.Delete(id, middleware.GetUserID(c), isAdmin)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrStoreNotFound):
			response.NotFound(c, "store not found")
		case errors.Is(err, services.ErrNotStoreOwner):
			response.Forbidden(c, "not the store owner")
		default:
			response.ServerError(c, "failed to delete store")
		}
		return
	}
	response.Success(c, gin.H{"message": "store deleted"})
}

// AdminList returns stores in any status for the approval queue
// GET /api/admin/stores
func (h *StoreHandler) AdminList(c *gin.Context) {
	var req services.StoreListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.storeService.ListAll(&req)
	if err != nil {
		response.ServerError(c, "failed to list stores")
		return
	}
	response.Success(c, resp)
}

type setStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// SetStatus approves or rejects a store. Reauth-gated.
// PUT /api/admin/stores/:id/status
func (h *StoreHandler) SetStatus(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req setStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	store, err := h.storeService.SetStatus(id, req.Status, middleware.GetUserID(c))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrStoreNotFound):
			response.NotFound(c, "store not found")
		case errors.Is(err, services.ErrUnknownStatus):
			response.BadRequest(c, "unknown status")
		default:
			response.ServerError(c, "failed to update store status")
		}
		return
	}
	response.Success(c, store)
}
