package http

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"bookfeed/auth"
	"bookfeed/crud"
	"bookfeed/domain"
)

// newTestServer builds a server over a fresh in-memory database. Handlers are
// called directly in tests, so the csrf middleware never runs.
func newTestServer(t *testing.T) *Server {
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

	services, err := crud.NewServices(db,
		crud.WithUser("test-hmac-key", "test-pepper"),
		crud.WithBook(10),
		crud.WithReview(10),
		crud.WithFollow(),
		crud.WithImage(),
	)
	require.NoError(t, err)

	return NewServer(false, "0123456789abcdef0123456789abcdef", services)
}

// registerUser signs a user up through the real registration path, so the
// returned object carries a usable remember token and password hash.
func registerUser(t *testing.T, s *Server, username string) *domain.User {
	t.Helper()
	user := &domain.User{
		Username:  username,
		FirstName: "Test",
		LastName:  "User",
		Password:  "secret123",
	}
	require.NoError(t, s.us.Register(user, "secret123"))
	return user
}

func createTestBook(t *testing.T, s *Server, title string, creatorID int) *domain.Book {
	t.Helper()
	book := &domain.Book{
		Title:     title,
		CreatorID: creatorID,
	}
	require.NoError(t, s.bs.Create(book))
	return book
}

// asUser attaches the given user to the request context, the way the
// checkUser middleware would after a successful cookie lookup.
func asUser(r *http.Request, user *domain.User) *http.Request {
	return r.WithContext(auth.SetUser(r.Context(), user))
}

// flashMessage returns the decoded flash cookie queued on the response,
// or the empty string if none was set.
func flashMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == flashCookie && c.Value != "" {
			message, err := base64.URLEncoding.DecodeString(c.Value)
			require.NoError(t, err)
			return string(message)
		}
	}
	return ""
}

// rememberCookie returns the remember token cookie set on the response, if any.
func rememberCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == "remember_token" {
			return c
		}
	}
	return nil
}

func TestRequireAuthRedirectsAnonymous(t *testing.T) {
	s := newTestServer(t)

	called := false
	handler := s.requireAuth(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	w := httptest.NewRecorder()
	r := httptest.NewRequest("POST", "/users/logout/", nil)
	handler(w, r)

	require.False(t, called)
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/", w.Header().Get("Location"))
}

func TestCheckUserIdentifiesByRememberCookie(t *testing.T) {
	s := newTestServer(t)
	user := registerUser(t, s, "ann")

	var seen *domain.User
	handler := s.checkUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = s.getUserFromContext(r.Context())
	}))

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/", nil)
	r.AddCookie(&http.Cookie{Name: "remember_token", Value: user.Remember})
	handler.ServeHTTP(w, r)

	require.NotNil(t, seen)
	require.Equal(t, user.ID, seen.ID)

	// A bogus token identifies nobody, the request still goes through.
	seen = nil
	w = httptest.NewRecorder()
	r = httptest.NewRequest("GET", "/", nil)
	r.AddCookie(&http.Cookie{Name: "remember_token", Value: "no-such-token"})
	handler.ServeHTTP(w, r)
	require.Nil(t, seen)
}

func TestFlashSurvivesExactlyOneRead(t *testing.T) {
	w := httptest.NewRecorder()
	setFlash(w, "Your review has been posted.")

	r := httptest.NewRequest("GET", "/", nil)
	for _, c := range w.Result().Cookies() {
		r.AddCookie(c)
	}

	w2 := httptest.NewRecorder()
	require.Equal(t, "Your review has been posted.", popFlash(w2, r))

	// The pop expired the cookie.
	expired := false
	for _, c := range w2.Result().Cookies() {
		if c.Name == flashCookie && c.Value == "" {
			expired = true
		}
	}
	require.True(t, expired)
}
