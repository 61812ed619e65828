package services

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dineatlas/dineatlas/backend/internal/models"
	"github.com/dineatlas/dineatlas/backend/pkg/logger"
)

var (
	ErrReservationNotFound   = errors.New("reservation not found")
	ErrNotReservationOwner   = errors.New("not the reservation owner")
	ErrPastReservation       = errors.New("reservation time is in the past")
	ErrTooFarAhead           = errors.New("reservation too far in the future")
	ErrOutsideOpeningHours   = errors.New("outside opening hours")
	ErrStoreClosedForHoliday = errors.New("store closed for holiday")
	ErrPartyTooLarge         = errors.New("party size exceeds the limit")
	ErrNoCapacity            = errors.New("no tables left for that time")
	ErrAlreadyFinalized      = errors.New("reservation already finalized")
)

type ReservationService struct {
	db       *gorm.DB
	holidays *HolidayService
	settings *SystemConfigService
	now      func() time.Time
}

func NewReservationService(db *gorm.DB, holidays *HolidayService, settings *SystemConfigService) *ReservationService {
	return &ReservationService{
		db:       db,
		holidays: holidays,
		settings: settings,
		now:      time.Now,
	}
}

type ReservationInput struct {
	StoreID     uint      `json:"store_id" binding:"required"`
	PartySize   int       `json:"party_size" binding:"required,min=1"`
	ReservedFor time.Time `json:"reserved_for" binding:"required"`
	Note        string    `json:"note" binding:"max=500"`
}

// Book validates a reservation request against the store's schedule and
// capacity, persists it and hands a notification to the task queue.
func (s *ReservationService) Book(userID uint, input *ReservationInput) (*models.Reservation, error) {
	var store models.Store
	if err := s.db.First(&store, input.StoreID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStoreNotFound
		}
		return nil, err
	}
	if store.Status != models.StoreApproved {
		return nil, ErrStoreNotLive
	}

	if err := s.validateSlot(&store, input); err != nil {
		return nil, err
	}

	reservation := models.Reservation{
		StoreID:          store.ID,
		UserID:           userID,
		PartySize:        input.PartySize,
		ReservedFor:      input.ReservedFor,
		Status:           models.ReservationBooked,
		ConfirmationCode: uuid.NewString(),
		Note:             input.Note,
	}

	// Capacity check and insert run in one transaction so two bookings
	// cannot both squeeze into the last seats.
	err := s.db.Transaction(func(tx *gorm.DB) error {
		booked, err := s.bookedSeats(tx, store.ID, input.ReservedFor)
		if err != nil {
			return err
		}
		if booked+input.PartySize > store.Capacity {
			return ErrNoCapacity
		}
		return tx.Create(&reservation).Error
	})
	if err != nil {
		return nil, err
	}

	logger.Info().
		Uint("reservation_id", reservation.ID).
		Uint("store_id", store.ID).
		Uint("user_id", userID).
		Msg("reservation booked")

	s.notify(&reservation, &store, NotifyBooked)
	return &reservation, nil
}

func (s *ReservationService) validateSlot(store *models.Store, input *ReservationInput) error {
	now := s.now()
	if !input.ReservedFor.After(now) {
		return ErrPastReservation
	}

	leadDays := s.settings.GetInt("reservation_lead_days", 60)
	if input.ReservedFor.After(now.AddDate(0, 0, leadDays)) {
		return ErrTooFarAhead
	}

	maxParty := s.settings.GetInt("reservation_max_party_size", 12)
	if input.PartySize > maxParty {
		return ErrPartyTooLarge
	}

	hour := input.ReservedFor.Hour()
	if hour < store.OpeningHour || hour >= store.ClosingHour {
		return ErrOutsideOpeningHours
	}

	if store.ClosedOnHolidays && s.holidays.IsHoliday(input.ReservedFor, store.HolidayRegion) {
		return ErrStoreClosedForHoliday
	}
	return nil
}

// bookedSeats sums party sizes of live reservations in the hour slot around
// the requested time. A table is assumed occupied for one hour.
func (s *ReservationService) bookedSeats(tx *gorm.DB, storeID uint, at time.Time) (int, error) {
	slotStart := at.Truncate(time.Hour)
	slotEnd := slotStart.Add(time.Hour)

	var total sql.NullInt64
	err := tx.Model(&models.Reservation{}).
		Select("SUM(party_size)").
		Where("store_id = ? AND status = ? AND reserved_for >= ? AND reserved_for < ?",
			storeID, models.ReservationBooked, slotStart, slotEnd).
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return int(total.Int64), nil
}

// Cancel cancels a booked reservation. Diners may cancel their own; admins
// may cancel any.
func (s *ReservationService) Cancel(reservationID, actorID uint, isAdmin bool) (*models.Reservation, error) {
	var reservation models.Reservation
	if err := s.db.Preload("Store").First(&reservation, reservationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	if !isAdmin && reservation.UserID != actorID {
		return nil, ErrNotReservationOwner
	}
	if reservation.Status != models.ReservationBooked {
		return nil, ErrAlreadyFinalized
	}

	if err := s.db.Model(&reservation).Update("status", models.ReservationCancelled).Error; err != nil {
		return nil, err
	}
	reservation.Status = models.ReservationCancelled

	logger.Info().Uint("reservation_id", reservation.ID).Uint("actor_id", actorID).Msg("reservation cancelled")
	s.notify(&reservation, reservation.Store, NotifyCancelled)
	return &reservation, nil
}

// ListByUser returns the diner's reservations, most recent first.
func (s *ReservationService) ListByUser(userID uint) ([]models.Reservation, error) {
	var reservations []models.Reservation
	err := s.db.Preload("Store").
		Where("user_id = ?", userID).
		Order("reserved_for DESC").
		Find(&reservations).Error
	if err != nil {
		return nil, err
	}
	return reservations, nil
}

// ListByStore returns a store's reservations for its owner. Ownership is
// verified here so handlers cannot leak another store's book.
func (s *ReservationService) ListByStore(storeID, ownerID uint, isAdmin bool) ([]models.Reservation, error) {
	var store models.Store
	if err := s.db.First(&store, storeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStoreNotFound
		}
		return nil, err
	}
	if !isAdmin && store.OwnerID != ownerID {
		return nil, ErrNotStoreOwner
	}

	var reservations []models.Reservation
	err := s.db.Preload("User").
		Where("store_id = ?", storeID).
		Order("reserved_for DESC").
		Find(&reservations).Error
	if err != nil {
		return nil, err
	}
	return reservations, nil
}

// MarkOutcome lets a store owner close out a reservation as completed or a
// no-show after the reserved time has passed.
func (s *ReservationService) MarkOutcome(reservationID, ownerID uint, status string, isAdmin bool) (*models.Reservation, error) {
	if status != models.ReservationCompleted && status != models.ReservationNoShow {
		return nil, ErrUnknownStatus
	}

	var reservation models.Reservation
	if err := s.db.Preload("Store").First(&reservation, reservationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	if !isAdmin && (reservation.Store == nil || reservation.Store.OwnerID != ownerID) {
		return nil, ErrNotStoreOwner
	}
	if reservation.Status != models.ReservationBooked {
		return nil, ErrAlreadyFinalized
	}
	if reservation.ReservedFor.After(s.now()) {
		return nil, ErrPastReservation
	}

	if err := s.db.Model(&reservation).Update("status", status).Error; err != nil {
		return nil, err
	}
	reservation.Status = status
	return &reservation, nil
}

// CompleteStale flips booked reservations whose time passed more than a day
// ago to completed. The scheduler runs this daily; owners who track no-shows
// mark them before the sweep picks the reservation up.
func (s *ReservationService) CompleteStale() (int64, error) {
	cutoff := s.now().Add(-24 * time.Hour)
	result := s.db.Model(&models.Reservation{}).
		Where("status = ? AND reserved_for < ?", models.ReservationBooked, cutoff).
		Update("status", models.ReservationCompleted)
	return result.RowsAffected, result.Error
}

func (s *ReservationService) notify(reservation *models.Reservation, store *models.Store, event string) {
	queue := GetTaskQueue()
	if queue == nil || store == nil {
		return
	}

	var diner models.User
	if err := s.db.First(&diner, reservation.UserID).Error; err != nil {
		logger.Warn().Err(err).Uint("user_id", reservation.UserID).Msg("skipping notification, diner lookup failed")
		return
	}

	task := &NotifyTask{
		ReservationID:    reservation.ID,
		Event:            event,
		StoreName:        store.Name,
		DinerName:        diner.Name,
		DinerEmail:       diner.Email,
		PartySize:        reservation.PartySize,
		ReservedFor:      reservation.ReservedFor,
		ConfirmationCode: reservation.ConfirmationCode,
	}

	if event == NotifyBooked {
		var owner models.User
		if err := s.db.First(&owner, store.OwnerID).Error; err == nil {
			task.OwnerEmail = owner.Email
		}
	}

	if err := queue.Enqueue(task); err != nil {
		logger.Warn().Err(err).Uint("reservation_id", reservation.ID).Msg("failed to enqueue notification")
	}
}
