package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"bookfeed/domain"
	"bookfeed/errs"
)

func (s *Server) registerBookRoutes(r *mux.Router) {
	// List all books, paginated by title.
	r.HandleFunc("/books/", s.handleListBooks).Methods("GET")

	// Search books by title.
	r.HandleFunc("/books/search", s.handleSearchBooks).Methods("GET")

	// Create a new book.
	r.HandleFunc("/book/new/", s.requireAuth(s.handleCreateBook)).Methods("POST")

	// A book's detail page: the book, its reviews, and the requester's own review if any.
	r.HandleFunc("/book/{id:[0-9]+}/", s.handleBookDetail).Methods("GET")

	// Replace a book's cover image. Only the creator may do this.
	r.HandleFunc("/book/{id:[0-9]+}/cover/", s.requireAuth(s.handleReplaceCover)).Methods("POST")

	// Remove a book's cover image. Only the creator may do this.
	r.HandleFunc("/book/{id:[0-9]+}/cover/", s.requireAuth(s.handleDeleteCover)).Methods("DELETE")
}

// handleListBooks handles the route "GET /books/".
// It returns one page of books ordered by title.
func (s *Server) handleListBooks(w http.ResponseWriter, r *http.Request) {
	page := parsePage(r)
	books, err := s.bs.All(page)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	s.setCovers(books)

	resp := struct {
		Page  int           `json:"page"`
		Books []domain.Book `json:"books"`
	}{
		Page:  page,
		Books: books,
	}
	if err := json.NewEncoder(w).Encode(&resp); err != nil {
		errs.LogError(r, err)
	}
}

// handleSearchBooks handles the route "GET /books/search?q=".
// It returns the books whose title contains the query, ignoring case.
// An empty query returns no books at all.
func (s *Server) handleSearchBooks(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	books, err := s.bs.Search(query)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	s.setCovers(books)

	resp := struct {
		Query string        `json:"query"`
		Books []domain.Book `json:"books"`
	}{
		Query: query,
		Books: books,
	}
	if err := json.NewEncoder(w).Encode(&resp); err != nil {
		errs.LogError(r, err)
	}
}

// handleBookDetail handles the route "GET /book/{id}/".
// It returns the book, its reviews newest first, and, for a logged in
// requester, their own review of the book if they have one.
func (s *Server) handleBookDetail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id <= 0 {
		errs.ReturnError(w, r, errs.Errorf(errs.EINVALID, "Invalid Id format."))
		return
	}

	book, err := s.bs.ByID(id)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	book.HasCover = s.is.Exists(domain.OwnerTypeBook, book.ID)
	if book.HasCover {
		book.CoverURL = s.coverURL(book.ID)
	}

	reviews, err := s.rs.ByBookID(book.ID)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}

	// For a logged in requester, look up whether they already reviewed this book.
	var ownReview *domain.Review
	if user := s.getUserFromContext(r.Context()); user != nil {
		ownReview, err = s.rs.OwnReview(user.ID, book.ID)
		if err != nil {
			errs.ReturnError(w, r, err)
			return
		}
	}

	resp := struct {
		Flash     string          `json:"flash,omitempty"`
		Book      *domain.Book    `json:"book"`
		Reviews   []domain.Review `json:"reviews"`
		OwnReview *domain.Review  `json:"own_review,omitempty"`
	}{
		Flash:     popFlash(w, r),
		Book:      book,
		Reviews:   reviews,
		OwnReview: ownReview,
	}
	if err := json.NewEncoder(w).Encode(&resp); err != nil {
		errs.LogError(r, err)
	}
}

// handleCreateBook handles the route "POST /book/new/".
// It creates a book from the submitted form and stores an optional cover
// image. A duplicate title comes back as a form error together with the
// submitted values, so the client can redisplay them. On success the client
// is redirected to the new book's detail page.
func (s *Server) handleCreateBook(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(domain.MaxUploadSize); err != nil && err != http.ErrNotMultipart {
		errs.ReturnError(w, r, errs.Errorf(errs.EINVALID, "Invalid upload data."))
		return
	}

	user := s.getUserFromContext(r.Context())
	book := domain.Book{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		CreatorID:   user.ID,
	}

	if err := s.bs.Create(&book); err != nil {
		code := errs.ErrorCode(err)
		if code == errs.ECONFLICT || code == errs.EINVALID {
			// Echo the input back so the form can be redisplayed as entered.
			w.WriteHeader(errs.StatusCode(code))
			resp := struct {
				Error       string `json:"error"`
				Title       string `json:"title"`
				Description string `json:"description"`
			}{
				Error:       errs.ErrorMessage(err),
				Title:       book.Title,
				Description: book.Description,
			}
			if err := json.NewEncoder(w).Encode(&resp); err != nil {
				errs.LogError(r, err)
			}
			return
		}
		errs.ReturnError(w, r, err)
		return
	}

	// Store the cover image if one was uploaded.
	if r.MultipartForm != nil {
		if files := r.MultipartForm.File["image"]; len(files) > 0 {
			file, err := files[0].Open()
			if err != nil {
				errs.ReturnError(w, r, err)
				return
			}
			defer file.Close()
			img := &domain.Image{
				OwnerType: domain.OwnerTypeBook,
				OwnerID:   book.ID,
				File:      file,
				Filename:  files[0].Filename,
			}
			if err := s.is.Create(img); err != nil {
				errs.ReturnError(w, r, err)
				return
			}
		}
	}

	setFlash(w, fmt.Sprintf("%q has been added.", book.Title))
	http.Redirect(w, r, s.bookDetailPath(book.ID), http.StatusSeeOther)
}

// handleReplaceCover handles the route "POST /book/{id}/cover/".
// It stores the uploaded image as the book's new cover, then deletes the
// previous cover files from disk. The new file is stored before the old ones
// go, so a failed upload leaves the current cover in place.
func (s *Server) handleReplaceCover(w http.ResponseWriter, r *http.Request) {
	book, ok := s.loadOwnedBook(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(domain.MaxUploadSize); err != nil {
		errs.ReturnError(w, r, errs.Errorf(errs.EINVALID, "Invalid upload data."))
		return
	}
	files := r.MultipartForm.File["image"]
	if len(files) == 0 {
		errs.ReturnError(w, r, errs.Errorf(errs.EINVALID, "An image is required."))
		return
	}
	file, err := files[0].Open()
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	defer file.Close()

	old, err := s.is.ByOwner(domain.OwnerTypeBook, book.ID)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}

	img := &domain.Image{
		OwnerType: domain.OwnerTypeBook,
		OwnerID:   book.ID,
		File:      file,
		Filename:  files[0].Filename,
	}
	if err := s.is.Create(img); err != nil {
		errs.ReturnError(w, r, err)
		return
	}

	// Delete the previous cover files.
	for _, o := range old {
		if o.Filename == img.Filename {
			continue
		}
		if err := s.is.Delete(&o); err != nil {
			errs.ReturnError(w, r, err)
			return
		}
	}

	setFlash(w, fmt.Sprintf("The cover of %q has been updated.", book.Title))
	http.Redirect(w, r, s.bookDetailPath(book.ID), http.StatusSeeOther)
}

// handleDeleteCover handles the route "DELETE /book/{id}/cover/".
// It removes the book's cover files from disk.
func (s *Server) handleDeleteCover(w http.ResponseWriter, r *http.Request) {
	book, ok := s.loadOwnedBook(w, r)
	if !ok {
		return
	}

	if err := s.is.DeleteAll(domain.OwnerTypeBook, book.ID); err != nil {
		errs.ReturnError(w, r, err)
		return
	}

	setFlash(w, fmt.Sprintf("The cover of %q has been removed.", book.Title))
	http.Redirect(w, r, s.bookDetailPath(book.ID), http.StatusSeeOther)
}

// loadOwnedBook fetches the book addressed by the route and checks that the
// authed user created it. On any failure it writes the error response and
// reports false.
func (s *Server) loadOwnedBook(w http.ResponseWriter, r *http.Request) (*domain.Book, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id <= 0 {
		errs.ReturnError(w, r, errs.Errorf(errs.EINVALID, "Invalid Id format."))
		return nil, false
	}

	book, err := s.bs.ByID(id)
	if err != nil {
		errs.ReturnError(w, r, err)
		return nil, false
	}

	user := s.getUserFromContext(r.Context())
	if book.CreatorID != user.ID {
		errs.ReturnError(w, r, errs.Errorf(errs.EUNAUTHORIZED, "You are not allowed to change this book."))
		return nil, false
	}
	return book, true
}

// setCovers fills in the computed cover fields on a list of books.
func (s *Server) setCovers(books []domain.Book) {
	for i := range books {
		books[i].HasCover = s.is.Exists(domain.OwnerTypeBook, books[i].ID)
		if books[i].HasCover {
			books[i].CoverURL = s.coverURL(books[i].ID)
		}
	}
}

// coverURL returns the URL of a book's stored cover image, or the empty
// string if the storage probe comes up empty.
func (s *Server) coverURL(bookID int) string {
	images, err := s.is.ByOwner(domain.OwnerTypeBook, bookID)
	if err != nil || len(images) == 0 {
		return ""
	}
	return images[0].Path()
}

// bookDetailPath builds the path of a book's detail page.
func (s *Server) bookDetailPath(bookID int) string {
	return fmt.Sprintf("/book/%d/", bookID)
}
