package http

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"bookfeed/domain"
	"bookfeed/errs"
)

func (s *Server) registerFollowRoutes(r *mux.Router) {
	// Toggle following a user: follow them if not yet followed, unfollow otherwise.
	r.HandleFunc("/users/follow/{id:[0-9]+}/", s.requireAuth(s.handleToggleFollow)).Methods("POST")
}

// handleToggleFollow handles the route "POST /users/follow/{id}/".
// Following is a toggle, not separate follow and unfollow endpoints: the
// effect depends on whether the edge currently exists. A confirmation
// message naming the target is queued, then the requester is sent back to
// the page they came from, or to their own profile if there is none.
func (s *Server) handleToggleFollow(w http.ResponseWriter, r *http.Request) {
	followedID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || followedID <= 0 {
		errs.ReturnError(w, r, errs.Errorf(errs.EINVALID, "Invalid Id format."))
		return
	}

	follower := s.getUserFromContext(r.Context())
	follow := domain.Follow{
		FollowerID: follower.ID,
		FollowedID: followedID,
	}

	following, err := s.fs.Toggle(&follow)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}

	// The target exists past this point, Toggle validated it.
	target, err := s.us.ByID(followedID)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}

	if following {
		setFlash(w, fmt.Sprintf("You are now following %s.", target.Username))
	} else {
		setFlash(w, fmt.Sprintf("You are no longer following %s.", target.Username))
	}

	redirect := r.Referer()
	if redirect == "" {
		redirect = "/users/profile/"
	}
	http.Redirect(w, r, redirect, http.StatusSeeOther)
}
