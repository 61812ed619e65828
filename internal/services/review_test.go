package services

import (
	"errors"
	"testing"

	"github.com/dineatlas/dineatlas/backend/internal/models"
)

func newReviewTestEnv(t *testing.T) (*ReviewService, *reservationTestEnv) {
	t.Helper()
	env := newReservationTestEnv(t)
	if err := env.db.AutoMigrate(&models.Review{}); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return NewReviewService(env.db), env
}

// completeVisit books a reservation and marks it completed so the diner
// becomes eligible to review the store.
func completeVisit(t *testing.T, env *reservationTestEnv) {
	t.Helper()
	reservation, err := env.reservations.Book(env.diner.ID, &ReservationInput{
		StoreID: env.store.ID, PartySize: 2, ReservedFor: env.slot(1, 18),
	})
	if err != nil {
		t.Fatalf("Book() error = %v", err)
	}
	env.now = env.now.AddDate(0, 0, 2)
	if _, err := env.reservations.MarkOutcome(reservation.ID, env.owner.ID, models.ReservationCompleted, false); err != nil {
		t.Fatalf("MarkOutcome() error = %v", err)
	}
}

func TestReviewService_CreateRequiresVisit(t *testing.T) {
	reviews, env := newReviewTestEnv(t)

	_, err := reviews.Create(env.diner.ID, &ReviewInput{StoreID: env.store.ID, Rating: 5})
	if !errors.Is(err, ErrNoVisitToReview) {
		t.Errorf("err = %v, expected ErrNoVisitToReview", err)
	}
}

func TestReviewService_BookedVisitIsNotEnough(t *testing.T) {
	reviews, env := newReviewTestEnv(t)

	if _, err := env.reservations.Book(env.diner.ID, &ReservationInput{
		StoreID: env.store.ID, PartySize: 2, ReservedFor: env.slot(1, 18),
	}); err != nil {
		t.Fatalf("Book() error = %v", err)
	}

	_, err := reviews.Create(env.diner.ID, &ReviewInput{StoreID: env.store.ID, Rating: 5})
	if !errors.Is(err, ErrNoVisitToReview) {
		t.Errorf("err = %v, an unfinished reservation must not unlock reviews", err)
	}
}

func TestReviewService_CreateOncePerStore(t *testing.T) {
	reviews, env := newReviewTestEnv(t)
	completeVisit(t, env)

	review, err := reviews.Create(env.diner.ID, &ReviewInput{
		StoreID: env.store.ID, Rating: 4, Comment: "Great duck confit.",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if review.Rating != 4 {
		t.Errorf("rating = %d, expected 4", review.Rating)
	}

	_, err = reviews.Create(env.diner.ID, &ReviewInput{StoreID: env.store.ID, Rating: 1})
	if !errors.Is(err, ErrAlreadyReviewed) {
		t.Errorf("second review err = %v, expected ErrAlreadyReviewed", err)
	}
}

func TestReviewService_RatingRange(t *testing.T) {
	reviews, env := newReviewTestEnv(t)
	completeVisit(t, env)

	for _, rating := range []int{0, 6, -1} {
		if _, err := reviews.Create(env.diner.ID, &ReviewInput{StoreID: env.store.ID, Rating: rating}); !errors.Is(err, ErrRatingOutOfRange) {
			t.Errorf("rating %d err = %v, expected ErrRatingOutOfRange", rating, err)
		}
	}
}

func TestReviewService_AverageRating(t *testing.T) {
	reviews, env := newReviewTestEnv(t)

	avg, count, err := reviews.AverageRating(env.store.ID)
	if err != nil {
		t.Fatalf("AverageRating() error = %v", err)
	}
	if avg != 0 || count != 0 {
		t.Errorf("avg = %v, count = %d for an unreviewed store", avg, count)
	}

	env.db.Create(&models.Review{StoreID: env.store.ID, UserID: env.diner.ID, Rating: 5})
	env.db.Create(&models.Review{StoreID: env.store.ID, UserID: env.owner.ID, Rating: 2})

	avg, count, err = reviews.AverageRating(env.store.ID)
	if err != nil {
		t.Fatalf("AverageRating() error = %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, expected 2", count)
	}
	if avg != 3.5 {
		t.Errorf("avg = %v, expected 3.5", avg)
	}
}

func TestReviewService_Delete(t *testing.T) {
	reviews, env := newReviewTestEnv(t)
	completeVisit(t, env)

	review, _ := reviews.Create(env.diner.ID, &ReviewInput{StoreID: env.store.ID, Rating: 4})

	if err := reviews.Delete(review.ID, env.owner.ID, false); !errors.Is(err, ErrNotReviewAuthor) {
		t.Errorf("stranger delete err = %v, expected ErrNotReviewAuthor", err)
	}
	if err := reviews.Delete(review.ID, env.diner.ID, false); err != nil {
		t.Fatalf("author delete error = %v", err)
	}
	if err := reviews.Delete(review.ID, env.diner.ID, false); !errors.Is(err, ErrReviewNotFound) {
		t.Errorf("deleted review err = %v, expected ErrReviewNotFound", err)
	}
}
