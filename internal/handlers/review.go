package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/dineatlas/dineatlas/backend/internal/middleware"
	"github.com/dineatlas/dineatlas/backend/internal/models"
	"github.com/dineatlas/dineatlas/backend/internal/services"
	"github.com/dineatlas/dineatlas/backend/pkg/response"
)

type ReviewHandler struct {
	reviewService *services.ReviewService
	storeService  *services.StoreService
}

func NewReviewHandler(reviewService *services.ReviewService, storeService *services.StoreService) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService, storeService: storeService}
}

// ListByStore returns a store's reviews
// GET /api/stores/:slug/reviews
func (h *ReviewHandler) ListByStore(c *gin.Context) {
	store, err := h.storeService.GetBySlug(c.Param("slug"))
	if err != nil || store.Status != models.StoreApproved {
		response.NotFound(c, "store not found")
		return
	}

	reviews, err := h.reviewService.ListByStore(store.ID)
	if err != nil {
		response.ServerError(c, "failed to list reviews")
		return
	}
	response.Success(c, reviews)
}

// Create posts a review for a store the caller has dined at
// POST /api/reviews
func (h *ReviewHandler) Create(c *gin.Context) {
	var input services.ReviewInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	review, err := h.reviewService.Create(middleware.GetUserID(c), &input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNoVisitToReview):
			response.Forbidden(c, "only diners with a completed reservation may review")
		case errors.Is(err, services.ErrAlreadyReviewed):
			response.Error(c, response.NewConflict("you already reviewed this store"))
		case errors.Is(err, services.ErrRatingOutOfRange):
			response.BadRequest(c, "rating must be between 1 and 5")
		default:
			response.ServerError(c, "failed to post review")
		}
		return
	}
	response.Created(c, review)
}

// Delete removes a review by its author or an admin
// DELETE /api/reviews/:id
func (h *ReviewHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	isAdmin := middleware.GetRole(c) == models.RoleAdmin
	err := h.reviewService.Delete(id, middleware.GetUserID(c), isAdmin)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrReviewNotFound):
			response.NotFound(c, "review not found")
		case errors.Is(err, services.ErrNotReviewAuthor):
			response.Forbidden(c, "not the review author")
		default:
			response.ServerError(c, "failed to delete review")
		}
		return
	}
	response.Success(c, gin.H{"message": "review deleted"})
}
