package http

import (
	"net/http"
	"strconv"

	"github.com/gorilla/csrf"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"bookfeed/crud"
	"bookfeed/domain"
)

// Server provides most of the http functionality of this app, namely routing,
// request handling, and middleware. It also performs authentication and
// authorization before handing things over to one of the crud services.
type Server struct {
	router *mux.Router
	us     domain.UserService
	bs     domain.BookService
	rs     domain.ReviewService
	fs     domain.FollowService
	is     domain.ImageService
}

// NewServer returns a new instance of the server, registers all necessary
// routes and gives their handlers access to the app services passed in.
func NewServer(isProd bool, csrfKey string, services *crud.Services) *Server {
	s := &Server{
		router: mux.NewRouter(),
		us:     services.User,
		bs:     services.Book,
		rs:     services.Review,
		fs:     services.Follow,
		is:     services.Image,
	}

	// Register routes of the auth system.
	s.registerAuthRoutes(s.router)

	// Register routes of the crud system.
	s.registerFeedRoutes(s.router)
	s.registerBookRoutes(s.router)
	s.registerReviewRoutes(s.router)
	s.registerUserRoutes(s.router)
	s.registerFollowRoutes(s.router)

	// Set up middleware that needs to run on every request. A new CSRF token
	// is issued whenever the client fetches one of the form pages.
	csrfMw := csrf.Protect([]byte(csrfKey), csrf.Secure(isProd), csrf.Path("/"))
	s.router.Use(csrfMw, setContentTypeJSON, s.checkUser)
	return s
}

// The setContentTypeJSON middleware sets the content type to "application/json".
func setContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// Run starts to listen and serve on the specified port.
func (s *Server) Run(port int) {
	addr := "localhost:" + strconv.Itoa(port)
	log.Info().Str("addr", addr).Msg("serving")
	log.Fatal().Err(http.ListenAndServe(addr, s.router)).Msg("server stopped")
}
