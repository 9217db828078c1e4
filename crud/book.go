package crud

import (
	"strings"

	"gorm.io/gorm"

	"bookfeed/domain"
	"bookfeed/errs"
)

// BookService manages Books.
// It implements the domain.BookService interface.
type BookService struct {
	bookValidator
}

// bookValidator runs validations on incoming Book data.
// On success, it passes the data on to bookGorm.
// Otherwise, it returns the error of the validation that has failed.
type bookValidator struct {
	bookGorm
}

// bookGorm runs CRUD operations on the database using incoming Book data.
// It assumes that data has been validated. On success, it returns nil.
// Otherwise, it returns the error of the operation that has failed.
type bookGorm struct {
	db       *gorm.DB
	pageSize int
}

// NewBookService returns an instance of BookService.
func NewBookService(db *gorm.DB, pageSize int) *BookService {
	return &BookService{
		bookValidator{
			bookGorm{
				db:       db,
				pageSize: pageSize,
			},
		},
	}
}

// Ensure the BookService struct properly implements the domain.BookService interface.
// If it does not, then this expression becomes invalid and won't compile.
var _ domain.BookService = &BookService{}

// Create runs validations needed for creating new Book database records.
func (bv *bookValidator) Create(book *domain.Book) error {
	err := runBookValFns(book,
		bv.creatorIdValid,
		bv.titleNormalize,
		bv.titleRequired,
		bv.titleIsAvail)
	if err != nil {
		return err
	}
	return bv.bookGorm.Create(book)
}

// runBookValFns runs any number of functions of type bookValFn on the passed in Book object.
// If none of them returns an error, it returns nil. Otherwise, it returns the respective error.
func runBookValFns(book *domain.Book, fns ...bookValFn) error {
	for _, fn := range fns {
		if err := fn(book); err != nil {
			return err
		}
	}
	return nil
}

// A bookValFn is any function that takes in a pointer to a domain.Book object and returns an error.
type bookValFn func(book *domain.Book) error

// creatorIdValid ensures that the creator's user ID is not empty.
func (bv *bookValidator) creatorIdValid(book *domain.Book) error {
	if book.CreatorID <= 0 {
		return errs.Errorf(errs.EINVALID, "A creating user is required.")
	}
	return nil
}

// titleNormalize trims surrounding whitespace off the title.
func (bv *bookValidator) titleNormalize(book *domain.Book) error {
	book.Title = strings.TrimSpace(book.Title)
	return nil
}

// titleRequired makes sure that the title is not the empty string.
func (bv *bookValidator) titleRequired(book *domain.Book) error {
	if book.Title == "" {
		return errs.Errorf(errs.EINVALID, "A title is required.")
	}
	return nil
}

// titleIsAvail makes sure that no existing book carries the same title,
// ignoring case. The check runs before the write and is not backed by a
// constraint, so two simultaneous creates of the same title can both pass
// it; that window matches the original behavior of this catalog.
func (bv *bookValidator) titleIsAvail(book *domain.Book) error {
	var existing domain.Book
	err := bv.db.Where("LOWER(title) = LOWER(?)", book.Title).First(&existing).Error
	if err == nil {
		return errs.Errorf(errs.ECONFLICT, "A book with this title already exists.")
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}
	return nil
}

// ByID retrieves a single Book by ID, along with its creator.
func (bg *bookGorm) ByID(id int) (*domain.Book, error) {
	var book domain.Book
	err := bg.db.
		Preload("Creator").
		First(&book, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errs.Errorf(errs.ENOTFOUND, "The book does not exist.")
		}
		return nil, err
	}
	return &book, nil
}

// All retrieves one page of books, ordered by title ascending.
// Pages are 1-based; out of range pages come back empty.
func (bg *bookGorm) All(page int) ([]domain.Book, error) {
	if page < 1 {
		page = 1
	}
	var books []domain.Book
	err := bg.db.
		Order("title asc").
		Offset((page - 1) * bg.pageSize).
		Limit(bg.pageSize).
		Find(&books).Error
	if err != nil {
		return nil, err
	}
	return books, nil
}

// Search retrieves all books whose title contains the search term, ignoring
// case, ordered by title ascending. An empty term yields an empty result
// set, not all books.
func (bg *bookGorm) Search(term string) ([]domain.Book, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []domain.Book{}, nil
	}
	pattern := "%" + strings.ToLower(term) + "%"
	var books []domain.Book
	err := bg.db.
		Where("LOWER(title) LIKE ?", pattern).
		Order("title asc").
		Find(&books).Error
	if err != nil {
		return nil, err
	}
	return books, nil
}

// Create stores the data from the Book object in a new database record.
func (bg *bookGorm) Create(book *domain.Book) error {
	if err := bg.db.Create(book).Error; err != nil {
		return err
	}
	if err := bg.db.Preload("Creator").First(book).Error; err != nil {
		return err
	}
	return nil
}
