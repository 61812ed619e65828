package services

import (
	"testing"

	"github.com/dineatlas/dineatlas/backend/internal/models"
)

func TestDashboardService_GetStats(t *testing.T) {
	env := newReservationTestEnv(t)
	if err := env.db.AutoMigrate(&models.Review{}); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}

	pending := &models.Store{
		Slug: "pending-spot", Name: "Pending Spot", City: "Portland",
		Capacity: 10, OpeningHour: 11, ClosingHour: 22,
		Status: models.StorePending, OwnerID: env.owner.ID,
	}
	env.db.Create(pending)

	if _, err := env.reservations.Book(env.diner.ID, &ReservationInput{
		StoreID: env.store.ID, PartySize: 4, ReservedFor: env.slot(2, 18),
	}); err != nil {
		t.Fatalf("Book() error = %v", err)
	}
	cancelled, _ := env.reservations.Book(env.diner.ID, &ReservationInput{
		StoreID: env.store.ID, PartySize: 2, ReservedFor: env.slot(3, 18),
	})
	env.reservations.Cancel(cancelled.ID, env.diner.ID, false)
	env.db.Create(&models.Review{StoreID: env.store.ID, UserID: env.diner.ID, Rating: 4})

	resp, err := NewDashboardService(env.db).GetStats(&DashboardStatsRequest{})
	if err != nil {
		t.Fatalf("GetStats() error = %v", err)
	}

	if resp.Stats.ApprovedStores != 1 || resp.Stats.PendingStores != 1 {
		t.Errorf("store counts = %d approved / %d pending, expected 1/1",
			resp.Stats.ApprovedStores, resp.Stats.PendingStores)
	}
	if resp.Stats.RegisteredUsers != 2 {
		t.Errorf("registered users = %d, expected 2", resp.Stats.RegisteredUsers)
	}
	if resp.Stats.TotalReservations != 2 || resp.Stats.CancelledCount != 1 {
		t.Errorf("reservation counts = %d total / %d cancelled, expected 2/1",
			resp.Stats.TotalReservations, resp.Stats.CancelledCount)
	}

	if len(resp.StoreStats) != 1 {
		t.Fatalf("store stats = %+v, expected one store", resp.StoreStats)
	}
	top := resp.StoreStats[0]
	if top.StoreID != env.store.ID || top.StoreName != env.store.Name {
		t.Errorf("top store = %+v", top)
	}
	if top.ReservationCount != 2 || top.GuestCount != 6 {
		t.Errorf("top store counts = %d reservations / %d guests, expected 2/6", top.ReservationCount, top.GuestCount)
	}
	if top.AvgRating != 4 {
		t.Errorf("avg rating = %v, expected 4", top.AvgRating)
	}

	if len(resp.CityStats) != 1 || resp.CityStats[0].City != "Portland" {
		t.Fatalf("city stats = %+v", resp.CityStats)
	}
	if resp.CityStats[0].StoreCount != 1 || resp.CityStats[0].ReservationCount != 2 {
		t.Errorf("city counts = %+v, expected 1 store / 2 reservations", resp.CityStats[0])
	}
}
