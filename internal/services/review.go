package services

import (
	"errors"

	"gorm.io/gorm"

	"github.com/dineatlas/dineatlas/backend/internal/models"
)

var (
	ErrReviewNotFound   = errors.New("review not found")
	ErrNotReviewAuthor  = errors.New("not the review author")
	ErrNoVisitToReview  = errors.New("no completed reservation to review")
	ErrAlreadyReviewed  = errors.New("store already reviewed")
	ErrRatingOutOfRange = errors.New("rating must be between 1 and 5")
)

type ReviewService struct {
	db *gorm.DB
}

func NewReviewService(db *gorm.DB) *ReviewService {
	return &ReviewService{db: db}
}

type ReviewInput struct {
	StoreID uint   `json:"store_id" binding:"required"`
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment" binding:"max=2000"`
}

// Create posts a review. Only diners with a completed reservation at the
// store may review it, and only once.
func (s *ReviewService) Create(userID uint, input *ReviewInput) (*models.Review, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, ErrRatingOutOfRange
	}

	var visits int64
	err := s.db.Model(&models.Reservation{}).
		Where("store_id = ? AND user_id = ? AND status = ?",
			input.StoreID, userID, models.ReservationCompleted).
		Count(&visits).Error
	if err != nil {
		return nil, err
	}
	if visits == 0 {
		return nil, ErrNoVisitToReview
	}

	var existing int64
	err = s.db.Model(&models.Review{}).
		Where("store_id = ? AND user_id = ?", input.StoreID, userID).
		Count(&existing).Error
	if err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, ErrAlreadyReviewed
	}

	review := models.Review{
		StoreID: input.StoreID,
		UserID:  userID,
		Rating:  input.Rating,
		Comment: input.Comment,
	}
	if err := s.db.Create(&review).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

// ListByStore returns a store's reviews with author names, newest first.
func (s *ReviewService) ListByStore(storeID uint) ([]models.Review, error) {
	var reviews []models.Review
	err := s.db.Preload("User").
		Where("store_id = ?", storeID).
		Order("created_at DESC").
		Find(&reviews).Error
	if err != nil {
		return nil, err
	}
	return reviews, nil
}

// AverageRating returns the store's mean rating and review count.
func (s *ReviewService) AverageRating(storeID uint) (float64, int64, error) {
	var count int64
	if err := s.db.Model(&models.Review{}).Where("store_id = ?", storeID).Count(&count).Error; err != nil {
		return 0, 0, err
	}
	if count == 0 {
		return 0, 0, nil
	}

	var avg float64
	err := s.db.Model(&models.Review{}).
		Select("AVG(rating)").
		Where("store_id = ?", storeID).
		Scan(&avg).Error
	if err != nil {
		return 0, 0, err
	}
	return avg, count, nil
}

// Delete removes a review. The author or an admin may delete it.
func (s *ReviewService) Delete(reviewID, actorID uint, isAdmin bool) error {
	var review models.Review
	if err := s.db.First(&review, reviewID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrReviewNotFound
		}
		return err
	}
	if !isAdmin && review.UserID != actorID {
		return ErrNotReviewAuthor
	}
	return s.db.Delete(&review).Error
}
