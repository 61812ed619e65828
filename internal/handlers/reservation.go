package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/dineatlas/dineatlas/backend/internal/middleware"
	"github.com/dineatlas/dineatlas/backend/internal/models"
	"github.com/dineatlas/dineatlas/backend/internal/services"
	"github.com/dineatlas/dineatlas/backend/pkg/response"
)

type ReservationHandler struct {
	reservationService *services.ReservationService
}

func NewReservationHandler(reservationService *services.ReservationService) *ReservationHandler {
	return &ReservationHandler{reservationService: reservationService}
}

// Book creates a reservation for the caller
// POST /api/reservations
func (h *ReservationHandler) Book(c *gin.Context) {
	var input services.ReservationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	reservation, err := h.reservationService.Book(middleware.GetUserID(c), &input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrStoreNotFound), errors.Is(err, services.ErrStoreNotLive):
			response.NotFound(c, "store not found")
		case errors.Is(err, services.ErrPastReservation):
			response.BadRequest(c, "reservation time is in the past")
		case errors.Is(err, services.ErrTooFarAhead):
			response.BadRequest(c, "reservation too far in the future")
		case errors.Is(err, services.ErrOutsideOpeningHours):
			response.BadRequest(c, "requested time is outside opening hours")
		case errors.Is(err, services.ErrStoreClosedForHoliday):
			response.BadRequest(c, "the store is closed for a holiday on that date")
		case errors.Is(err, services.ErrPartyTooLarge):
			response.BadRequest(c, "party size exceeds the limit")
		case errors.Is(err, services.ErrNoCapacity):
			response.Error(c, response.NewConflict("no tables left for that time"))
		default:
			response.ServerError(c, "failed to book reservation")
		}
		return
	}
	response.Created(c, reservation)
}

// ListMine returns the caller's reservations
// GET /api/reservations
func (h *ReservationHandler) ListMine(c *gin.Context) {
	reservations, err := h.reservationService.ListByUser(middleware.GetUserID(c))
	if err != nil {
		response.ServerError(c, "failed to list reservations")
		return
	}
	response.Success(c, reservations)
}

// Cancel cancels a booked reservation
// DELETE /api/reservations/:id
func (h *ReservationHandler) Cancel(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	isAdmin := middleware.GetRole(c) == models.RoleAdmin
	reservation, err := h.reservationService.Cancel(id, middleware.GetUserID(c), isAdmin)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrReservationNotFound):
			response.NotFound(c, "reservation not found")
		case errors.Is(err, services.ErrNotReservationOwner):
			response.Forbidden(c, "not your reservation")
		case errors.Is(err, services.ErrAlreadyFinalized):
			response.Error(c, response.NewConflict("reservation already finalized"))
		default:
			response.ServerError(c, "failed to cancel reservation")
		}
		return
	}
	response.Success(c, reservation)
}

// ListByStore returns a store's reservation book for its owner
// GET /api/owner/stores/:id/reservations
func (h *ReservationHandler) ListByStore(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	isAdmin := middleware.GetRole(c) == models.RoleAdmin
	reservations, err := h.reservationService.ListByStore(id, middleware.GetUserID(c), isAdmin)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrStoreNotFound):
			response.NotFound(c, "store not found")
		case errors.Is(err, services.ErrNotStoreOwner):
			response.Forbidden(c, "not the store owner")
		default:
			response.ServerError(c, "failed to list reservations")
		}
		return
	}
	response.Success(c, reservations)
}

type outcomeRequest struct {
	Status string `json:"status" binding:"required"`
}

// MarkOutcome closes out a past reservation as completed or no-show
// PUT /api/owner/reservations/:id/outcome
func (h *ReservationHandler) MarkOutcome(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req outcomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	isAdmin := middleware.GetRole(c) == models.RoleAdmin
	reservation, err := h.reservationService.MarkOutcome(id, middleware.GetUserID(c), req.Status, isAdmin)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrReservationNotFound):
			response.NotFound(c, "reservation not found")
		case errors.Is(err, services.ErrNotStoreOwner):
			response.Forbidden(c, "not the store owner")
		case errors.Is(err, services.ErrUnknownStatus):
			response.BadRequest(c, "status must be completed or no_show")
		case errors.Is(err, services.ErrAlreadyFinalized):
			response.Error(c, response.NewConflict("reservation already finalized"))
		case errors.Is(err, services.ErrPastReservation):
			response.BadRequest(c, "reservation time has not passed yet")
		default:
			response.ServerError(c, "failed to update reservation")
		}
		return
	}
	response.Success(c, reservation)
}
