package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"bookfeed/domain"
	"bookfeed/errs"
)

func (s *Server) registerUserRoutes(r *mux.Router) {
	// The authed user's own profile.
	r.HandleFunc("/users/profile/", s.requireAuth(s.handleOwnProfile)).Methods("GET")

	// Search for users.
	r.HandleFunc("/users/search", s.requireAuth(s.handleSearchUsers)).Methods("GET")

	// Any user's public profile.
	r.HandleFunc("/users/{id:[0-9]+}/", s.handleUserDetail).Methods("GET")
}

// handleOwnProfile handles the route "GET /users/profile/".
// It returns the authed user together with their reviews and counts.
func (s *Server) handleOwnProfile(w http.ResponseWriter, r *http.Request) {
	user := s.getUserFromContext(r.Context())
	if err := s.setUserAssociationCounts(user); err != nil {
		errs.ReturnError(w, r, err)
		return
	}

	reviews, err := s.rs.ByUserID(user.ID)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	user.Reviews = reviews

	resp := struct {
		Flash string       `json:"flash,omitempty"`
		User  *domain.User `json:"user"`
	}{
		Flash: popFlash(w, r),
		User:  user,
	}
	if err := json.NewEncoder(w).Encode(&resp); err != nil {
		errs.LogError(r, err)
	}
}

// handleSearchUsers handles the route "GET /users/search?q=".
// It matches the query against first name, last name OR username, ignoring
// case; a user matching any one field qualifies. An empty query returns no
// users at all. The result also carries the IDs of everyone the requester
// follows, so the client can render follow toggles without extra lookups.
func (s *Server) handleSearchUsers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	users, err := s.us.Search(query)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}

	requester := s.getUserFromContext(r.Context())
	followingIDs, err := s.us.FollowingIDs(requester.ID)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}

	resp := struct {
		Query        string        `json:"query"`
		Users        []domain.User `json:"users"`
		FollowingIDs []int         `json:"following_ids"`
	}{
		Query:        query,
		Users:        users,
		FollowingIDs: followingIDs,
	}
	if err := json.NewEncoder(w).Encode(&resp); err != nil {
		errs.LogError(r, err)
	}
}

// handleUserDetail handles the route "GET /users/{id}/".
// It returns the user's public profile: their reviews newest first, their
// follower and followed counts, and whether the requester follows them.
// The follow flag is always false for anonymous requesters and for a user
// viewing themselves.
func (s *Server) handleUserDetail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id <= 0 {
		errs.ReturnError(w, r, errs.Errorf(errs.EINVALID, "Invalid Id format."))
		return
	}

	user, err := s.us.ByID(id)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	if err := s.setUserAssociationCounts(user); err != nil {
		errs.ReturnError(w, r, err)
		return
	}

	reviews, err := s.rs.ByUserID(user.ID)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	user.Reviews = reviews

	if requester := s.getUserFromContext(r.Context()); requester != nil && requester.ID != user.ID {
		ids, err := s.us.FollowingIDs(requester.ID)
		if err != nil {
			errs.ReturnError(w, r, err)
			return
		}
		for _, followedID := range ids {
			if followedID == user.ID {
				user.IsFollowed = true
				break
			}
		}
	}

	resp := struct {
		Flash string       `json:"flash,omitempty"`
		User  *domain.User `json:"user"`
	}{
		Flash: popFlash(w, r),
		User:  user,
	}
	if err := json.NewEncoder(w).Encode(&resp); err != nil {
		errs.LogError(r, err)
	}
}

// setUserAssociationCounts takes a pointer to a user object, counts its
// followers and followeds, and sets those numbers on the according fields.
func (s *Server) setUserAssociationCounts(user *domain.User) error {
	followerCount, err := s.us.CountFollowers(user.ID)
	if err != nil {
		return err
	}
	user.FollowerCount = followerCount

	followedCount, err := s.us.CountFolloweds(user.ID)
	if err != nil {
		return err
	}
	user.FollowedCount = followedCount

	return nil
}
