package models

import (
	"time"

	"gorm.io/gorm"
)

// Store approval states.
const (
	StorePending  = "pending"
	StoreApproved = "approved"
	StoreRejected = "rejected"
)

// Store represents a restaurant listing.
type Store struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	Slug             string         `gorm:"uniqueIndex;size:120;not null" json:"slug"`
	Name             string         `gorm:"size:200;not null" json:"name"`
	Description      string         `gorm:"type:text" json:"description"`
	Address          string         `gorm:"size:300" json:"address"`
	City             string         `gorm:"size:100;index" json:"city"`
	Phone            string         `gorm:"size:40" json:"phone"`
	Cuisine          string         `gorm:"size:60;index" json:"cuisine"`
	Capacity         int            `gorm:"default:20" json:"capacity"`
	OpeningHour      int            `gorm:"default:11" json:"opening_hour"` // 24h clock
	ClosingHour      int            `gorm:"default:22" json:"closing_hour"`
	ClosedOnHolidays bool           `gorm:"default:false" json:"closed_on_holidays"`
	HolidayRegion    string         `gorm:"size:8;default:US" json:"holiday_region"`
	Status           string         `gorm:"size:20;default:pending;index" json:"status"` // pending, approved, rejected
	OwnerID          uint           `gorm:"index;not null" json:"owner_id"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Store) TableName() string { return "stores" }
