package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func toggleFollow(t *testing.T, s *Server, follower, targetID int, referer string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	r := httptest.NewRequest("POST", "/users/follow/"+strconv.Itoa(targetID)+"/", nil)
	if referer != "" {
		r.Header.Set("Referer", referer)
	}
	r = mux.SetURLVars(r, map[string]string{"id": strconv.Itoa(targetID)})

	user, err := s.us.ByID(follower)
	require.NoError(t, err)
	s.handleToggleFollow(w, asUser(r, user))
	return w
}

func TestToggleFollowFlashesAndRedirectsBack(t *testing.T) {
	s := newTestServer(t)
	ann := registerUser(t, s, "ann")
	berta := registerUser(t, s, "berta")

	w := toggleFollow(t, s, ann.ID, berta.ID, "/users/search?q=berta")
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/users/search?q=berta", w.Header().Get("Location"))
	assert.Equal(t, "You are now following berta.", flashMessage(t, w))

	// The same request again unfollows.
	w = toggleFollow(t, s, ann.ID, berta.ID, "/users/search?q=berta")
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "You are no longer following berta.", flashMessage(t, w))
}

func TestToggleFollowWithoutRefererGoesToProfile(t *testing.T) {
	s := newTestServer(t)
	ann := registerUser(t, s, "ann")
	berta := registerUser(t, s, "berta")

	w := toggleFollow(t, s, ann.ID, berta.ID, "")
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/users/profile/", w.Header().Get("Location"))
}

func TestToggleFollowRejectsSelf(t *testing.T) {
	s := newTestServer(t)
	ann := registerUser(t, s, "ann")

	w := toggleFollow(t, s, ann.ID, ann.ID, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	var resp struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "You cannot follow yourself.", resp.Error)
}

func TestToggleFollowRejectsMissingTarget(t *testing.T) {
	s := newTestServer(t)
	ann := registerUser(t, s, "ann")

	w := toggleFollow(t, s, ann.ID, 999, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	var resp struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "The user to be followed does not exist.", resp.Error)
}
