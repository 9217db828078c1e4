package crud

import (
	"strings"

	"gorm.io/gorm"

	"bookfeed/domain"
	"bookfeed/errs"
)

// ReviewService manages Reviews and answers the feed queries built on them.
// It implements the domain.ReviewService interface.
type ReviewService struct {
	reviewValidator
}

// reviewValidator runs validations on incoming Review data.
// On success, it passes the data on to reviewGorm.
// Otherwise, it returns the error of the validation that has failed.
type reviewValidator struct {
	reviewGorm
}

// reviewGorm runs CRUD operations on the database using incoming Review data.
// It assumes that data has been validated. On success, it returns nil.
// Otherwise, it returns the error of the operation that has failed.
type reviewGorm struct {
	db       *gorm.DB
	pageSize int
}

// NewReviewService returns an instance of ReviewService.
func NewReviewService(db *gorm.DB, pageSize int) *ReviewService {
	return &ReviewService{
		reviewValidator{
			reviewGorm{
				db:       db,
				pageSize: pageSize,
			},
		},
	}
}

// Ensure the ReviewService struct properly implements the domain.ReviewService interface.
// If it does not, then this expression becomes invalid and won't compile.
var _ domain.ReviewService = &ReviewService{}

// Create runs validations needed for creating new Review database records.
func (rv *reviewValidator) Create(review *domain.Review) error {
	err := runReviewValFns(review,
		rv.userIdValid,
		rv.reviewedBookExists,
		rv.ratingInRange,
		rv.headlineRequired,
		rv.bodyRequired,
		rv.notAlreadyReviewed)
	if err != nil {
		return err
	}
	return rv.reviewGorm.Create(review)
}

// Update runs validations needed for updating an existing Review database record.
func (rv *reviewValidator) Update(review *domain.Review) error {
	err := runReviewValFns(review,
		rv.idValid,
		rv.ratingInRange,
		rv.headlineRequired,
		rv.bodyRequired)
	if err != nil {
		return err
	}
	return rv.reviewGorm.Update(review)
}

// Delete runs validations needed for deleting existing Review database records.
func (rv *reviewValidator) Delete(review *domain.Review) error {
	err := runReviewValFns(review, rv.idValid)
	if err != nil {
		return err
	}
	return rv.reviewGorm.Delete(review)
}

// runReviewValFns runs any number of functions of type reviewValFn on the passed in Review object.
// If none of them returns an error, it returns nil. Otherwise, it returns the respective error.
func runReviewValFns(review *domain.Review, fns ...reviewValFn) error {
	for _, fn := range fns {
		if err := fn(review); err != nil {
			return err
		}
	}
	return nil
}

// A reviewValFn is any function that takes in a pointer to a domain.Review object and returns an error.
type reviewValFn func(review *domain.Review) error

// idValid makes sure that the passed in ID of a Review to be changed is greater than 0.
func (rv *reviewValidator) idValid(review *domain.Review) error {
	if review.ID <= 0 {
		return errs.Errorf(errs.EINVALID, "Review ID is invalid.")
	}
	return nil
}

// userIdValid ensures that the userId is not empty.
func (rv *reviewValidator) userIdValid(review *domain.Review) error {
	if review.UserID <= 0 {
		return errs.Errorf(errs.EINVALID, "A reviewing user is required.")
	}
	return nil
}

// reviewedBookExists makes sure that the book to be reviewed actually exists.
func (rv *reviewValidator) reviewedBookExists(review *domain.Review) error {
	err := rv.db.First(&domain.Book{}, "id = ?", review.BookID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return errs.Errorf(errs.ENOTFOUND, "The reviewed book does not exist.")
		}
		return err
	}
	return nil
}

// ratingInRange makes sure the rating is one of the five stars the form offers.
func (rv *reviewValidator) ratingInRange(review *domain.Review) error {
	if review.Rating < 1 || review.Rating > 5 {
		return errs.Errorf(errs.EINVALID, "The rating must be between 1 and 5.")
	}
	return nil
}

// headlineRequired makes sure that the headline is not empty.
func (rv *reviewValidator) headlineRequired(review *domain.Review) error {
	if strings.TrimSpace(review.Headline) == "" {
		return errs.Errorf(errs.EINVALID, "A headline is required.")
	}
	return nil
}

// bodyRequired makes sure that the review text is not empty.
func (rv *reviewValidator) bodyRequired(review *domain.Review) error {
	if strings.TrimSpace(review.Body) == "" {
		return errs.Errorf(errs.EINVALID, "A review text is required.")
	}
	return nil
}

// notAlreadyReviewed makes sure that the user doesn't already have a review
// for the book. The unique index on (user_id, book_id) backs this check, so
// a duplicate slipping through between check and write still fails, see Create.
func (rv *reviewValidator) notAlreadyReviewed(review *domain.Review) error {
	err := rv.db.
		Where("user_id = ? AND book_id = ?", review.UserID, review.BookID).
		First(&domain.Review{}).Error
	if err == nil {
		return errs.Errorf(errs.ECONFLICT, "You have already reviewed this book.")
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}
	return nil
}

// Feed retrieves the reviews written by the users the given user follows,
// newest first. For an anonymous user it retrieves all reviews instead.
func (rg *reviewGorm) Feed(user *domain.User) ([]domain.Review, error) {
	q := rg.db.
		Preload("User").
		Preload("Book").
		Order("created_at desc")
	if user != nil {
		q = q.Where("user_id IN (?)",
			rg.db.Model(&domain.Follow{}).
				Select("followed_id").
				Where("follower_id = ?", user.ID))
	}
	var feed []domain.Review
	if err := q.Find(&feed).Error; err != nil {
		return nil, err
	}
	return feed, nil
}

// All retrieves one page of reviews, newest first.
// Pages are 1-based; out of range pages come back empty.
func (rg *reviewGorm) All(page int) ([]domain.Review, error) {
	if page < 1 {
		page = 1
	}
	var reviews []domain.Review
	err := rg.db.
		Preload("User").
		Preload("Book").
		Order("created_at desc").
		Offset((page - 1) * rg.pageSize).
		Limit(rg.pageSize).
		Find(&reviews).Error
	if err != nil {
		return nil, err
	}
	return reviews, nil
}

// ByID retrieves a single Review by ID, along with its author and book.
func (rg *reviewGorm) ByID(id int) (*domain.Review, error) {
	var review domain.Review
	err := rg.db.
		Preload("User").
		Preload("Book").
		First(&review, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errs.Errorf(errs.ENOTFOUND, "The review does not exist.")
		}
		return nil, err
	}
	return &review, nil
}

// ByBookID retrieves all reviews for the given book, newest first.
func (rg *reviewGorm) ByBookID(bookID int) ([]domain.Review, error) {
	var reviews []domain.Review
	err := rg.db.
		Where("book_id = ?", bookID).
		Preload("User").
		Order("created_at desc").
		Find(&reviews).Error
	if err != nil {
		return nil, err
	}
	return reviews, nil
}

// ByUserID retrieves all reviews written by the given user, newest first.
func (rg *reviewGorm) ByUserID(userID int) ([]domain.Review, error) {
	var reviews []domain.Review
	err := rg.db.
		Where("user_id = ?", userID).
		Preload("Book").
		Order("created_at desc").
		Find(&reviews).Error
	if err != nil {
		return nil, err
	}
	return reviews, nil
}

// OwnReview retrieves the given user's review of the given book,
// or nil if they haven't reviewed it.
func (rg *reviewGorm) OwnReview(userID, bookID int) (*domain.Review, error) {
	var review domain.Review
	err := rg.db.
		Where("user_id = ? AND book_id = ?", userID, bookID).
		First(&review).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &review, nil
}

// Create stores the data from the Review object in a new database record.
// On success, it eager-loads the author and book relations, so the response
// displays the full data of the new review.
func (rg *reviewGorm) Create(review *domain.Review) error {
	err := rg.db.Create(review).Error
	if err != nil {
		if err == gorm.ErrDuplicatedKey {
			return errs.Errorf(errs.ECONFLICT, "You have already reviewed this book.")
		}
		return err
	}
	rg.db.Preload("User").Preload("Book").First(review)
	return nil
}

// Update saves changes to an existing review record in the database.
func (rg *reviewGorm) Update(review *domain.Review) error {
	return rg.db.Save(review).Error
}

// Delete permanently deletes the database record matching the Review object.
func (rg *reviewGorm) Delete(review *domain.Review) error {
	return rg.db.Delete(review).Error
}
