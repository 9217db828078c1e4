package domain

import "time"

// Review represents one user's review of one book. A user gets at most one
// review per book; the composite unique index backs the application-level
// duplicate check so the pair stays unique even under concurrent requests.
// A review may only be edited or deleted by its author.
type Review struct {
	ID       int    `json:"id"`
	BookID   int    `json:"book_id" gorm:"notNull;index;uniqueIndex:idx_reviews_user_book"`
	Book     Book   `json:"book"`
	UserID   int    `json:"user_id" gorm:"notNull;index;uniqueIndex:idx_reviews_user_book"`
	User     User   `json:"user"`
	Headline string `json:"headline"`
	Body     string `json:"body"`
	Rating   int    `json:"rating"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ReviewService is a set of methods to manipulate and work with the Review
// model. Feed, All, ByBookID and ByUserID are pure reads ordered newest first.
type ReviewService interface {
	ByID(id int) (*Review, error)
	ByBookID(bookID int) ([]Review, error)
	ByUserID(userID int) ([]Review, error)
	// OwnReview returns the user's review for the given book, or nil if
	// they haven't written one.
	OwnReview(userID, bookID int) (*Review, error)
	// Feed returns the reviews written by the users the given user follows.
	// For an anonymous user (nil) it returns all reviews instead.
	Feed(user *User) ([]Review, error)
	All(page int) ([]Review, error)
	Create(review *Review) error
	Update(review *Review) error
	Delete(review *Review) error
}
