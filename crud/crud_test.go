package crud

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"bookfeed/domain"
)

// testDB opens a fresh in-memory database for one test.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	// An in-memory sqlite database exists per connection, so the pool
	// must not hand out a second one.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		domain.User{},
		domain.Follow{},
		domain.Book{},
		domain.Review{},
	))
	return db
}

func createUser(t *testing.T, db *gorm.DB, username, first, last string) *domain.User {
	t.Helper()
	user := &domain.User{
		Username:     username,
		FirstName:    first,
		LastName:     last,
		PasswordHash: "irrelevant",
		RememberHash: username + "-remember",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createBook(t *testing.T, db *gorm.DB, title string, creatorID int) *domain.Book {
	t.Helper()
	book := &domain.Book{
		Title:     title,
		CreatorID: creatorID,
	}
	require.NoError(t, db.Create(book).Error)
	return book
}

// createReview inserts a review whose creation time lies the given duration
// in the past, so tests can pin down the newest-first ordering.
func createReview(t *testing.T, db *gorm.DB, userID, bookID int, age time.Duration) *domain.Review {
	t.Helper()
	review := &domain.Review{
		UserID:    userID,
		BookID:    bookID,
		Headline:  "Headline",
		Body:      "Body",
		Rating:    4,
		CreatedAt: time.Now().Add(-age),
	}
	require.NoError(t, db.Create(review).Error)
	return review
}
