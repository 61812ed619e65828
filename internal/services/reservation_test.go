package services

import (
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/dineatlas/dineatlas/backend/internal/models"
)

type reservationTestEnv struct {
	db           *gorm.DB
	reservations *ReservationService
	diner        *models.User
	owner        *models.User
	store        *models.Store
	now          time.Time
}

func newReservationTestEnv(t *testing.T) *reservationTestEnv {
	t.Helper()
	db := newSessionDB(t)
	if err := db.AutoMigrate(&models.Store{}, &models.Reservation{}, &models.SystemConfig{}); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}

	diner := &models.User{Email: "diner@example.com", Name: "Diner", Role: models.RoleDiner, IsActive: true}
	owner := &models.User{Email: "owner@example.com", Name: "Owner", Role: models.RoleOwner, IsActive: true}
	if err := db.Create(diner).Error; err != nil {
		t.Fatalf("create diner: %v", err)
	}
	if err := db.Create(owner).Error; err != nil {
		t.Fatalf("create owner: %v", err)
	}

	store := &models.Store{
		Slug:          "corner-bistro",
		Name:          "Corner Bistro",
		City:          "Portland",
		Capacity:      10,
		OpeningHour:   11,
		ClosingHour:   22,
		HolidayRegion: "US",
		Status:        models.StoreApproved,
		OwnerID:       owner.ID,
	}
	if err := db.Create(store).Error; err != nil {
		t.Fatalf("create store: %v", err)
	}

	env := &reservationTestEnv{
		db:           db,
		reservations: NewReservationService(db, NewHolidayService(), NewSystemConfigService(db)),
		diner:        diner,
		owner:        owner,
		store:        store,
		now:          time.Date(2026, time.March, 10, 10, 0, 0, 0, time.UTC),
	}
	env.reservations.now = func() time.Time { return env.now }
	return env
}

// slot returns a bookable time daysAhead days out at the given hour.
func (env *reservationTestEnv) slot(daysAhead, hour int) time.Time {
	d := env.now.AddDate(0, 0, daysAhead)
	return time.Date(d.Year(), d.Month(), d.Day(), hour, 0, 0, 0, time.UTC)
}

func TestReservationService_Book(t *testing.T) {
	env := newReservationTestEnv(t)

	reservation, err := env.reservations.Book(env.diner.ID, &ReservationInput{
		StoreID:     env.store.ID,
		PartySize:   4,
		ReservedFor: env.slot(2, 18),
	})
	if err != nil {
		t.Fatalf("Book() error = %v", err)
	}
	if reservation.Status != models.ReservationBooked {
		t.Errorf("status = %q, expected booked", reservation.Status)
	}
	if reservation.ConfirmationCode == "" {
		t.Error("a booking must carry a confirmation code")
	}
}

func TestReservationService_BookValidation(t *testing.T) {
	env := newReservationTestEnv(t)

	cases := []struct {
		name  string
		input ReservationInput
		want  error
	}{
		{"past time", ReservationInput{StoreID: env.store.ID, PartySize: 2, ReservedFor: env.now.Add(-time.Hour)}, ErrPastReservation},
		{"too far ahead", ReservationInput{StoreID: env.store.ID, PartySize: 2, ReservedFor: env.slot(61, 18)}, ErrTooFarAhead},
		{"party too large", ReservationInput{StoreID: env.store.ID, PartySize: 13, ReservedFor: env.slot(2, 18)}, ErrPartyTooLarge},
		{"before opening", ReservationInput{StoreID: env.store.ID, PartySize: 2, ReservedFor: env.slot(2, 9)}, ErrOutsideOpeningHours},
		{"at closing", ReservationInput{StoreID: env.store.ID, PartySize: 2, ReservedFor: env.slot(2, 22)}, ErrOutsideOpeningHours},
		{"unknown store", ReservationInput{StoreID: 9999, PartySize: 2, ReservedFor: env.slot(2, 18)}, ErrStoreNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := env.reservations.Book(env.diner.ID, &tc.input); !errors.Is(err, tc.want) {
				t.Errorf("err = %v, expected %v", err, tc.want)
			}
		})
	}
}

func TestReservationService_BookPendingStore(t *testing.T) {
	env := newReservationTestEnv(t)
	env.db.Model(env.store).Update("status", models.StorePending)

	_, err := env.reservations.Book(env.diner.ID, &ReservationInput{
		StoreID:     env.store.ID,
		PartySize:   2,
		ReservedFor: env.slot(2, 18),
	})
	if !errors.Is(err, ErrStoreNotLive) {
		t.Errorf("err = %v, expected ErrStoreNotLive", err)
	}
}

func TestReservationService_BookHolidayClosure(t *testing.T) {
	env := newReservationTestEnv(t)
	env.db.Model(env.store).Update("closed_on_holidays", true)
	env.now = time.Date(2026, time.December, 1, 10, 0, 0, 0, time.UTC)

	christmas := time.Date(2026, time.December, 25, 18, 0, 0, 0, time.UTC)
	_, err := env.reservations.Book(env.diner.ID, &ReservationInput{
		StoreID:     env.store.ID,
		PartySize:   2,
		ReservedFor: christmas,
	})
	if !errors.Is(err, ErrStoreClosedForHoliday) {
		t.Errorf("err = %v, expected ErrStoreClosedForHoliday", err)
	}

	// The day before is an ordinary business day.
	eveEve := time.Date(2026, time.December, 23, 18, 0, 0, 0, time.UTC)
	if _, err := env.reservations.Book(env.diner.ID, &ReservationInput{
		StoreID:     env.store.ID,
		PartySize:   2,
		ReservedFor: eveEve,
	}); err != nil {
		t.Errorf("non-holiday booking error = %v", err)
	}
}

func TestReservationService_BookHolidayIgnoredWhenOpen(t *testing.T) {
	env := newReservationTestEnv(t)
	env.now = time.Date(2026, time.December, 1, 10, 0, 0, 0, time.UTC)

	christmas := time.Date(2026, time.December, 25, 18, 0, 0, 0, time.UTC)
	if _, err := env.reservations.Book(env.diner.ID, &ReservationInput{
		StoreID:     env.store.ID,
		PartySize:   2,
		ReservedFor: christmas,
	}); err != nil {
		t.Errorf("holiday booking at an open store error = %v", err)
	}
}

func TestReservationService_BookCapacity(t *testing.T) {
	env := newReservationTestEnv(t)
	at := env.slot(2, 18)

	if _, err := env.reservations.Book(env.diner.ID, &ReservationInput{
		StoreID: env.store.ID, PartySize: 7, ReservedFor: at,
	}); err != nil {
		t.Fatalf("first booking error = %v", err)
	}

	// 7 of 10 seats are taken in this slot.
	if _, err := env.reservations.Book(env.diner.ID, &ReservationInput{
		StoreID: env.store.ID, PartySize: 4, ReservedFor: at.Add(30 * time.Minute),
	}); !errors.Is(err, ErrNoCapacity) {
		t.Errorf("overbooking err = %v, expected ErrNoCapacity", err)
	}

	// A smaller party still fits, and the next hour is unaffected.
	if _, err := env.reservations.Book(env.diner.ID, &ReservationInput{
		StoreID: env.store.ID, PartySize: 3, ReservedFor: at,
	}); err != nil {
		t.Errorf("fitting booking error = %v", err)
	}
	if _, err := env.reservations.Book(env.diner.ID, &ReservationInput{
		StoreID: env.store.ID, PartySize: 8, ReservedFor: at.Add(time.Hour),
	}); err != nil {
		t.Errorf("next-hour booking error = %v", err)
	}
}

func TestReservationService_CancelledSeatsFreeCapacity(t *testing.T) {
	env := newReservationTestEnv(t)
	at := env.slot(2, 18)

	first, err := env.reservations.Book(env.diner.ID, &ReservationInput{
		StoreID: env.store.ID, PartySize: 8, ReservedFor: at,
	})
	if err != nil {
		t.Fatalf("Book() error = %v", err)
	}
	if _, err := env.reservations.Cancel(first.ID, env.diner.ID, false); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}

	if _, err := env.reservations.Book(env.diner.ID, &ReservationInput{
		StoreID: env.store.ID, PartySize: 8, ReservedFor: at,
	}); err != nil {
		t.Errorf("rebooking freed seats error = %v", err)
	}
}

func TestReservationService_Cancel(t *testing.T) {
	env := newReservationTestEnv(t)

	reservation, _ := env.reservations.Book(env.diner.ID, &ReservationInput{
		StoreID: env.store.ID, PartySize: 2, ReservedFor: env.slot(2, 18),
	})

	if _, err := env.reservations.Cancel(reservation.ID, env.owner.ID, false); !errors.Is(err, ErrNotReservationOwner) {
		t.Errorf("stranger cancel err = %v, expected ErrNotReservationOwner", err)
	}

	cancelled, err := env.reservations.Cancel(reservation.ID, env.diner.ID, false)
	if err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if cancelled.Status != models.ReservationCancelled {
		t.Errorf("status = %q, expected cancelled", cancelled.Status)
	}

	if _, err := env.reservations.Cancel(reservation.ID, env.diner.ID, false); !errors.Is(err, ErrAlreadyFinalized) {
		t.Errorf("double cancel err = %v, expected ErrAlreadyFinalized", err)
	}
}

func TestReservationService_AdminCanCancelAny(t *testing.T) {
	env := newReservationTestEnv(t)

	reservation, _ := env.reservations.Book(env.diner.ID, &ReservationInput{
		StoreID: env.store.ID, PartySize: 2, ReservedFor: env.slot(2, 18),
	})

	if _, err := env.reservations.Cancel(reservation.ID, 9999, true); err != nil {
		t.Errorf("admin cancel error = %v", err)
	}
}

func TestReservationService_MarkOutcome(t *testing.T) {
	env := newReservationTestEnv(t)

	reservation, _ := env.reservations.Book(env.diner.ID, &ReservationInput{
		StoreID: env.store.ID, PartySize: 2, ReservedFor: env.slot(2, 18),
	})

	// The reserved time has not passed yet.
	if _, err := env.reservations.MarkOutcome(reservation.ID, env.owner.ID, models.ReservationNoShow, false); !errors.Is(err, ErrPastReservation) {
		t.Fatalf("early outcome err = %v, expected ErrPastReservation", err)
	}

	env.now = env.now.AddDate(0, 0, 3)

	if _, err := env.reservations.MarkOutcome(reservation.ID, env.diner.ID, models.ReservationNoShow, false); !errors.Is(err, ErrNotStoreOwner) {
		t.Errorf("non-owner outcome err = %v, expected ErrNotStoreOwner", err)
	}
	if _, err := env.reservations.MarkOutcome(reservation.ID, env.owner.ID, "seated", false); !errors.Is(err, ErrUnknownStatus) {
		t.Errorf("bad status err = %v, expected ErrUnknownStatus", err)
	}

	marked, err := env.reservations.MarkOutcome(reservation.ID, env.owner.ID, models.ReservationNoShow, false)
	if err != nil {
		t.Fatalf("MarkOutcome() error = %v", err)
	}
	if marked.Status != models.ReservationNoShow {
		t.Errorf("status = %q, expected no_show", marked.Status)
	}
}

func TestReservationService_ListByStoreOwnership(t *testing.T) {
	env := newReservationTestEnv(t)

	env.reservations.Book(env.diner.ID, &ReservationInput{
		StoreID: env.store.ID, PartySize: 2, ReservedFor: env.slot(2, 18),
	})

	if _, err := env.reservations.ListByStore(env.store.ID, env.diner.ID, false); !errors.Is(err, ErrNotStoreOwner) {
		t.Errorf("stranger list err = %v, expected ErrNotStoreOwner", err)
	}

	list, err := env.reservations.ListByStore(env.store.ID, env.owner.ID, false)
	if err != nil {
		t.Fatalf("ListByStore() error = %v", err)
	}
	if len(list) != 1 {
		t.Errorf("len = %d, expected 1", len(list))
	}
}

func TestReservationService_CompleteStale(t *testing.T) {
	env := newReservationTestEnv(t)

	reservation, err := env.reservations.Book(env.diner.ID, &ReservationInput{
		StoreID: env.store.ID, PartySize: 2, ReservedFor: env.slot(2, 18),
	})
	if err != nil {
		t.Fatalf("Book() error = %v", err)
	}

	// A day after the reserved time it is not yet stale.
	env.now = env.now.AddDate(0, 0, 2).Add(12 * time.Hour)
	if n, _ := env.reservations.CompleteStale(); n != 0 {
		t.Errorf("swept %d reservations, the grace period has not elapsed", n)
	}

	env.now = env.now.AddDate(0, 0, 2)
	n, err := env.reservations.CompleteStale()
	if err != nil {
		t.Fatalf("CompleteStale() error = %v", err)
	}
	if n != 1 {
		t.Errorf("swept %d reservations, expected 1", n)
	}

	var swept models.Reservation
	env.db.First(&swept, reservation.ID)
	if swept.Status != models.ReservationCompleted {
		t.Errorf("status = %q, expected completed", swept.Status)
	}
}

func TestReservationService_TunableLimits(t *testing.T) {
	env := newReservationTestEnv(t)
	settings := NewSystemConfigService(env.db)

	maxParty := 4
	if err := settings.UpdateReservationSettings(&UpdateReservationSettingsRequest{MaxPartySize: &maxParty}); err != nil {
		t.Fatalf("UpdateReservationSettings() error = %v", err)
	}

	_, err := env.reservations.Book(env.diner.ID, &ReservationInput{
		StoreID: env.store.ID, PartySize: 5, ReservedFor: env.slot(2, 18),
	})
	if !errors.Is(err, ErrPartyTooLarge) {
		t.Errorf("err = %v, expected ErrPartyTooLarge with lowered limit", err)
	}
}
