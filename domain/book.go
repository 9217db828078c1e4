package domain

import "time"

// Book represents a book that users can review. Books are created by any
// authenticated user and are never updated or deleted afterwards. Titles
// must be unique ignoring case. The cover image, if any, lives in the
// filesystem under the book's owner directory rather than in the database.
type Book struct {
	ID          int    `json:"id"`
	Title       string `json:"title" gorm:"notNull"`
	Description string `json:"description"`
	CreatorID   int    `json:"creator_id" gorm:"index"`
	Creator     User   `json:"creator"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Reviews []Review `json:"reviews,omitempty" gorm:"foreignKey:BookID"`

	// Computed from the image store, not persisted.
	HasCover bool   `json:"has_cover" gorm:"-"`
	CoverURL string `json:"cover_url,omitempty" gorm:"-"`
}

// BookService is a set of methods to manipulate and work with the Book model.
type BookService interface {
	ByID(id int) (*Book, error)
	All(page int) ([]Book, error)
	Search(term string) ([]Book, error)
	Create(book *Book) error
}
