package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"bookfeed/auth"
	"bookfeed/domain"
	"bookfeed/errs"
)

func (s *Server) registerAuthRoutes(r *mux.Router) {
	r.HandleFunc("/users/signup/", s.handleSignup).Methods("POST")
	r.HandleFunc("/users/login/", s.handleLogin).Methods("POST")
	r.HandleFunc("/users/logout/", s.requireAuth(s.handleLogout)).Methods("POST")
}

// signupForm carries the fields of the signup form. The username is echoed
// back on validation failure so the form can be redisplayed as entered.
type signupForm struct {
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password1 string `json:"password1"`
	Password2 string `json:"password2"`
}

// handleSignup handles the route "POST /users/signup/".
// It validates the submitted form and creates the user account. All failing
// checks come back together in one list; on success the user is created but
// NOT logged in.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var form signupForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		errs.ReturnError(w, r, errs.Errorf(errs.EINVALID, "Invalid signup data."))
		return
	}

	user := domain.User{
		Username:  form.Username,
		FirstName: form.FirstName,
		LastName:  form.LastName,
		Password:  form.Password1,
	}
	if err := s.us.Register(&user, form.Password2); err != nil {
		if list, ok := err.(errs.Errors); ok {
			w.WriteHeader(http.StatusBadRequest)
			resp := struct {
				Errors   []string `json:"errors"`
				Username string   `json:"username"`
			}{
				Errors:   list.Messages(),
				Username: user.Username,
			}
			if err := json.NewEncoder(w).Encode(&resp); err != nil {
				errs.LogError(r, err)
			}
			return
		}
		errs.ReturnError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	resp := struct {
		Message string       `json:"message"`
		User    *domain.User `json:"user"`
	}{
		Message: "Your account has been created. Please log in.",
		User:    &user,
	}
	if err := json.NewEncoder(w).Encode(&resp); err != nil {
		errs.LogError(r, err)
	}
}

// handleLogin handles the route "POST /users/login/".
// It checks the submitted credentials and signs the user in via cookie.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		errs.ReturnError(w, r, errs.Errorf(errs.EINVALID, "Invalid login data."))
		return
	}

	user, err := s.us.Authenticate(creds.Username, creds.Password)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	if err := s.signIn(w, r.Context(), user); err != nil {
		errs.ReturnError(w, r, err)
		return
	}

	response := map[string]string{"message": "successfully logged in"}
	if err := json.NewEncoder(w).Encode(&response); err != nil {
		errs.LogError(r, err)
	}
}

// handleLogout handles the route "POST /users/logout/".
// It expires the session cookie and rotates the user's remember token so the
// old cookie value cannot be replayed.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	cookie := http.Cookie{
		Name:     "remember_token",
		Value:    "",
		Expires:  time.Now(),
		HttpOnly: true,
	}
	http.SetCookie(w, &cookie)

	user := s.getUserFromContext(r.Context())
	token, err := auth.MakeRememberToken()
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	user.Remember = token
	if err := s.us.Update(user); err != nil {
		errs.ReturnError(w, r, err)
		return
	}

	response := map[string]string{"message": "successfully logged out"}
	if err := json.NewEncoder(w).Encode(&response); err != nil {
		errs.LogError(r, err)
	}
}

// signIn is used to sign the given user in via cookies.
func (s *Server) signIn(w http.ResponseWriter, ctx context.Context, user *domain.User) error {
	if user.Remember == "" {
		token, err := auth.MakeRememberToken()
		if err != nil {
			return err
		}
		user.Remember = token
		if err := s.us.Update(user); err != nil {
			return err
		}
	}

	cookie := http.Cookie{
		Name:     "remember_token",
		Value:    user.Remember,
		HttpOnly: true,
	}
	http.SetCookie(w, &cookie)
	return nil
}

// The checkUser middleware tries to identify the requesting user by the
// remember token cookie. It never rejects a request; handlers that need
// a user are wrapped in requireAuth instead.
func (s *Server) checkUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie("remember_token")
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		user, err := s.us.ByRemember(cookie.Value)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		r = r.WithContext(s.setUserInContext(r.Context(), user))
		next.ServeHTTP(w, r)
	})
}

// requireAuth redirects anonymous requesters to the home page.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := s.getUserFromContext(r.Context())
		if user == nil {
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	}
}

func (s *Server) setUserInContext(ctx context.Context, user *domain.User) context.Context {
	return auth.SetUser(ctx, user)
}

func (s *Server) getUserFromContext(ctx context.Context) *domain.User {
	return auth.GetUser(ctx)
}
