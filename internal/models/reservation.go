package models

import (
	"time"

	"gorm.io/gorm"
)

// Reservation states.
const (
	ReservationBooked    = "booked"
	ReservationCancelled = "cancelled"
	ReservationCompleted = "completed"
	ReservationNoShow    = "no_show"
)

// Reservation represents a booked table at a store.
type Reservation struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	StoreID          uint           `gorm:"index;not null" json:"store_id"`
	Store            *Store         `gorm:"foreignKey:StoreID" json:"store,omitempty"`
	UserID           uint           `gorm:"index;not null" json:"user_id"`
	User             *User          `gorm:"foreignKey:UserID" json:"user,omitempty"`
	PartySize        int            `gorm:"not null" json:"party_size"`
	ReservedFor      time.Time      `gorm:"index;not null" json:"reserved_for"`
	Status           string         `gorm:"size:20;default:booked;index" json:"status"`
	ConfirmationCode string         `gorm:"uniqueIndex;size:36;not null" json:"confirmation_code"`
	Note             string         `gorm:"size:500" json:"note"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Reservation) TableName() string { return "reservations" }
