package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"bookfeed/domain"
	"bookfeed/errs"
)

func (s *Server) registerReviewRoutes(r *mux.Router) {
	// Create a review for a book. One per user and book.
	r.HandleFunc("/book/{book_id:[0-9]+}/review/new/", s.requireAuth(s.handleCreateReview)).Methods("POST")

	// Edit an existing review. Only the author may do this.
	r.HandleFunc("/book/{book_id:[0-9]+}/review/{id:[0-9]+}/edit", s.requireAuth(s.handleEditReview)).Methods("POST")

	// Delete an existing review. Only the author may do this.
	r.HandleFunc("/book/{book_id:[0-9]+}/review/{id:[0-9]+}/delete", s.requireAuth(s.handleDeleteReview)).Methods("POST")
}

// reviewForm carries the fields of the review form.
type reviewForm struct {
	Headline string `json:"headline"`
	Body     string `json:"body"`
	Rating   int    `json:"rating"`
}

// parseReviewForm reads review fields from a json body or form values.
func parseReviewForm(r *http.Request) (reviewForm, error) {
	var form reviewForm
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
			return form, errs.Errorf(errs.EINVALID, "Invalid review data.")
		}
		return form, nil
	}
	if err := r.ParseForm(); err != nil {
		return form, errs.Errorf(errs.EINVALID, "Invalid review data.")
	}
	form.Headline = r.FormValue("headline")
	form.Body = r.FormValue("body")
	form.Rating, _ = strconv.Atoi(r.FormValue("rating"))
	return form, nil
}

// handleCreateReview handles the route "POST /book/{book_id}/review/new/".
// A duplicate review doesn't render a form error: the requester is sent back
// to the book's detail page, where their existing review already shows.
func (s *Server) handleCreateReview(w http.ResponseWriter, r *http.Request) {
	bookID, err := strconv.Atoi(mux.Vars(r)["book_id"])
	if err != nil || bookID <= 0 {
		errs.ReturnError(w, r, errs.Errorf(errs.EINVALID, "Invalid Id format."))
		return
	}

	form, err := parseReviewForm(r)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}

	user := s.getUserFromContext(r.Context())
	review := domain.Review{
		BookID:   bookID,
		UserID:   user.ID,
		Headline: form.Headline,
		Body:     form.Body,
		Rating:   form.Rating,
	}

	if err := s.rs.Create(&review); err != nil {
		if errs.ErrorCode(err) == errs.ECONFLICT {
			setFlash(w, errs.ErrorMessage(err))
			http.Redirect(w, r, s.bookDetailPath(bookID), http.StatusSeeOther)
			return
		}
		errs.ReturnError(w, r, err)
		return
	}

	setFlash(w, "Your review has been posted.")
	http.Redirect(w, r, s.bookDetailPath(bookID), http.StatusSeeOther)
}

// handleEditReview handles the route "POST /book/{book_id}/review/{id}/edit".
// The ownership test runs before anything is written.
func (s *Server) handleEditReview(w http.ResponseWriter, r *http.Request) {
	review, ok := s.loadOwnedReview(w, r)
	if !ok {
		return
	}

	form, err := parseReviewForm(r)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	review.Headline = form.Headline
	review.Body = form.Body
	review.Rating = form.Rating

	if err := s.rs.Update(review); err != nil {
		errs.ReturnError(w, r, err)
		return
	}

	resp := struct {
		Message string         `json:"message"`
		Review  *domain.Review `json:"review"`
	}{
		Message: "Your review has been updated.",
		Review:  review,
	}
	if err := json.NewEncoder(w).Encode(&resp); err != nil {
		errs.LogError(r, err)
	}
}

// handleDeleteReview handles the route "POST /book/{book_id}/review/{id}/delete".
// The ownership test runs before anything is deleted.
func (s *Server) handleDeleteReview(w http.ResponseWriter, r *http.Request) {
	review, ok := s.loadOwnedReview(w, r)
	if !ok {
		return
	}

	if err := s.rs.Delete(review); err != nil {
		errs.ReturnError(w, r, err)
		return
	}

	setFlash(w, "Your review has been deleted.")
	http.Redirect(w, r, s.bookDetailPath(review.BookID), http.StatusSeeOther)
}

// loadOwnedReview fetches the review addressed by the route and checks that
// it belongs to the book in the URL and to the authed user. On any failure
// it writes the error response and reports false.
func (s *Server) loadOwnedReview(w http.ResponseWriter, r *http.Request) (*domain.Review, bool) {
	bookID, err := strconv.Atoi(mux.Vars(r)["book_id"])
	if err != nil || bookID <= 0 {
		errs.ReturnError(w, r, errs.Errorf(errs.EINVALID, "Invalid Id format."))
		return nil, false
	}
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id <= 0 {
		errs.ReturnError(w, r, errs.Errorf(errs.EINVALID, "Invalid Id format."))
		return nil, false
	}

	review, err := s.rs.ByID(id)
	if err != nil {
		errs.ReturnError(w, r, err)
		return nil, false
	}
	if review.BookID != bookID {
		errs.ReturnError(w, r, errs.Errorf(errs.ENOTFOUND, "The review does not exist."))
		return nil, false
	}

	user := s.getUserFromContext(r.Context())
	if review.UserID != user.ID {
		errs.ReturnError(w, r, errs.Errorf(errs.EUNAUTHORIZED, "You are not allowed to change this review."))
		return nil, false
	}
	return review, true
}
