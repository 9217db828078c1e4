package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"bookfeed/domain"
	"bookfeed/errs"
)

func (s *Server) registerFeedRoutes(r *mux.Router) {
	// The home feed: reviews by followed users, or all reviews when anonymous.
	r.HandleFunc("/", s.handleHome).Methods("GET")

	// All reviews ever written, paginated.
	r.HandleFunc("/all/", s.handleAllReviews).Methods("GET")
}

// handleHome handles the route "GET /".
// For a logged in user it returns the reviews written by the users they
// follow, newest first. For an anonymous visitor it returns all reviews.
func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	user := s.getUserFromContext(r.Context())
	feed, err := s.rs.Feed(user)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}

	resp := struct {
		Flash   string          `json:"flash,omitempty"`
		Reviews []domain.Review `json:"reviews"`
	}{
		Flash:   popFlash(w, r),
		Reviews: feed,
	}
	if err := json.NewEncoder(w).Encode(&resp); err != nil {
		errs.LogError(r, err)
	}
}

// handleAllReviews handles the route "GET /all/".
// It returns one page of all reviews, newest first.
func (s *Server) handleAllReviews(w http.ResponseWriter, r *http.Request) {
	page := parsePage(r)
	reviews, err := s.rs.All(page)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}

	resp := struct {
		Page    int             `json:"page"`
		Reviews []domain.Review `json:"reviews"`
	}{
		Page:    page,
		Reviews: reviews,
	}
	if err := json.NewEncoder(w).Encode(&resp); err != nil {
		errs.LogError(r, err)
	}
}

// parsePage reads the "page" query parameter. Anything missing or malformed
// counts as the first page.
func parsePage(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}
