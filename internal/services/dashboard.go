package services

import (
	"time"

	"gorm.io/gorm"

	"github.com/dineatlas/dineatlas/backend/internal/models"
)

type DashboardService struct {
	db *gorm.DB
}

func NewDashboardService(db *gorm.DB) *DashboardService {
	return &DashboardService{db: db}
}

type DashboardStatsRequest struct {
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
}

type DashboardStats struct {
	ApprovedStores    int64 `json:"approved_stores"`
	PendingStores     int64 `json:"pending_stores"`
	RegisteredUsers   int64 `json:"registered_users"`
	TotalReservations int64 `json:"total_reservations"`
	CancelledCount    int64 `json:"cancelled_count"`
	NoShowCount       int64 `json:"no_show_count"`
}

type StoreStats struct {
	StoreID          uint    `json:"store_id"`
	StoreName        string  `json:"store_name"`
	ReservationCount int64   `json:"reservation_count"`
	GuestCount       int64   `json:"guest_count"`
	AvgRating        float64 `json:"avg_rating"`
}

type CityStats struct {
	City             string `json:"city"`
	StoreCount       int64  `json:"store_count"`
	ReservationCount int64  `json:"reservation_count"`
}

type DashboardResponse struct {
	Stats      DashboardStats `json:"stats"`
	StoreStats []StoreStats   `json:"store_stats"`
	CityStats  []CityStats    `json:"city_stats"`
}

// GetStats aggregates platform activity in a date range for the admin
// dashboard. The range defaults to the last 7 days.
func (s *DashboardService) GetStats(req *DashboardStatsRequest) (*DashboardResponse, error) {
	var startDate, endDate time.Time
	var err error

	if req.StartDate != "" {
		startDate, err = time.Parse("2006-01-02", req.StartDate)
		if err != nil {
			startDate = time.Now().AddDate(0, 0, -7)
		}
	} else {
		startDate = time.Now().AddDate(0, 0, -7)
	}

	if req.EndDate != "" {
		endDate, err = time.Parse("2006-01-02", req.EndDate)
		if err != nil {
			endDate = time.Now()
		}
		endDate = endDate.Add(24*time.Hour - time.Second)
	} else {
		endDate = time.Now()
	}

	var stats DashboardStats

	s.db.Model(&models.Store{}).
		Where("status = ?", models.StoreApproved).
		Count(&stats.ApprovedStores)

	s.db.Model(&models.Store{}).
		Where("status = ?", models.StorePending).
		Count(&stats.PendingStores)

	s.db.Model(&models.User{}).
		Count(&stats.RegisteredUsers)

	s.db.Model(&models.Reservation{}).
		Where("created_at BETWEEN ? AND ?", startDate, endDate).
		Count(&stats.TotalReservations)

	s.db.Model(&models.Reservation{}).
		Where("created_at BETWEEN ? AND ? AND status = ?", startDate, endDate, models.ReservationCancelled).
		Count(&stats.CancelledCount)

	s.db.Model(&models.Reservation{}).
		Where("created_at BETWEEN ? AND ? AND status = ?", startDate, endDate, models.ReservationNoShow).
		Count(&stats.NoShowCount)

	var storeStats []StoreStats
	s.db.Model(&models.Reservation{}).
		Select("store_id, COUNT(*) as reservation_count, COALESCE(SUM(party_size), 0) as guest_count").
		Where("created_at BETWEEN ? AND ?", startDate, endDate).
		Group("store_id").
		Order("reservation_count DESC").
		Limit(10).
		Scan(&storeStats)

	for i := range storeStats {
		var store models.Store
		if err := s.db.First(&store, storeStats[i].StoreID).Error; err == nil {
			storeStats[i].StoreName = store.Name
		}

		var avg float64
		s.db.Model(&models.Review{}).
			Select("COALESCE(AVG(rating), 0)").
			Where("store_id = ?", storeStats[i].StoreID).
			Scan(&avg)
		storeStats[i].AvgRating = avg
	}

	var cityStats []CityStats
	s.db.Model(&models.Store{}).
		Select("city, COUNT(*) as store_count").
		Where("status = ? AND city != ''", models.StoreApproved).
		Group("city").
		Order("store_count DESC").
		Limit(10).
		Scan(&cityStats)

	for i := range cityStats {
		s.db.Model(&models.Reservation{}).
			Joins("JOIN stores ON stores.id = reservations.store_id").
			Where("stores.city = ? AND reservations.created_at BETWEEN ? AND ?",
				cityStats[i].City, startDate, endDate).
			Count(&cityStats[i].ReservationCount)
	}

	return &DashboardResponse{
		Stats:      stats,
		StoreStats: storeStats,
		CityStats:  cityStats,
	}, nil
}
