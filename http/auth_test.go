package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postJSON(path, body string) *http.Request {
	r := httptest.NewRequest("POST", path, strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	return r
}

func TestSignupReturnsAllErrorsAtOnce(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	s.handleSignup(w, postJSON("/users/signup/", `{}`))

	require.Equal(t, http.StatusBadRequest, w.Code)
	var resp struct {
		Errors   []string `json:"errors"`
		Username string   `json:"username"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, []string{
		"A username is required.",
		"Both password fields are required.",
	}, resp.Errors)
	assert.Equal(t, "", resp.Username)
}

func TestSignupEchoesTakenUsername(t *testing.T) {
	s := newTestServer(t)
	registerUser(t, s, "ann")

	w := httptest.NewRecorder()
	s.handleSignup(w, postJSON("/users/signup/",
		`{"username": "ann", "password1": "one", "password2": "two"}`))

	require.Equal(t, http.StatusBadRequest, w.Code)
	var resp struct {
		Errors   []string `json:"errors"`
		Username string   `json:"username"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, []string{
		"This username is already taken.",
		"The two passwords do not match.",
	}, resp.Errors)
	assert.Equal(t, "ann", resp.Username)
}

func TestSignupDoesNotLogTheUserIn(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	s.handleSignup(w, postJSON("/users/signup/",
		`{"username": "ann", "first_name": "Ann", "password1": "secret123", "password2": "secret123"}`))

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Nil(t, rememberCookie(w))

	var resp struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "Your account has been created. Please log in.", resp.Message)

	// The account works: the new user can log in.
	w = httptest.NewRecorder()
	s.handleLogin(w, postJSON("/users/login/",
		`{"username": "ann", "password": "secret123"}`))
	require.Equal(t, http.StatusOK, w.Code)
}

func TestLoginSetsRememberCookie(t *testing.T) {
	s := newTestServer(t)
	registerUser(t, s, "ann")

	w := httptest.NewRecorder()
	s.handleLogin(w, postJSON("/users/login/",
		`{"username": "ann", "password": "secret123"}`))

	require.Equal(t, http.StatusOK, w.Code)
	cookie := rememberCookie(w)
	require.NotNil(t, cookie)
	assert.NotEmpty(t, cookie.Value)
	assert.True(t, cookie.HttpOnly)
}

func TestLoginRejectsWrongCredentials(t *testing.T) {
	s := newTestServer(t)
	registerUser(t, s, "ann")

	w := httptest.NewRecorder()
	s.handleLogin(w, postJSON("/users/login/",
		`{"username": "ann", "password": "wrong"}`))
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, rememberCookie(w))

	w = httptest.NewRecorder()
	s.handleLogin(w, postJSON("/users/login/",
		`{"username": "nobody", "password": "secret123"}`))
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogoutRotatesRememberToken(t *testing.T) {
	s := newTestServer(t)
	user := registerUser(t, s, "ann")
	oldToken := user.Remember

	w := httptest.NewRecorder()
	r := asUser(httptest.NewRequest("POST", "/users/logout/", nil), user)
	s.handleLogout(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	cookie := rememberCookie(w)
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)

	// The old token no longer identifies the user.
	_, err := s.us.ByRemember(oldToken)
	assert.Error(t, err)
}
