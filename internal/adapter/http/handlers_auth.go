// Package adapthttp implements the HTTP adapter for the development backend.
package adapthttp

import (
	"errors"
	"net/http"

	"storefront/internal/app"
	"storefront/internal/domain"

	"go.uber.org/zap"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		FullName string `json:"full_name"`
	}
	if err := ParseJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := s.auth.Register(r.Context(), req.Email, req.Password, req.FullName)
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, ve.Msg)
		return
	case errors.Is(err, app.ErrEmailTaken):
		writeError(w, http.StatusBadRequest, "Email already registered")
		return
	case err != nil:
		s.log.Error("register", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	WriteJSON(w, http.StatusCreated, user)
}

// handleLogin implements the OAuth2 password grant: form fields username
// and password in, bearer token out.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form")
		return
	}
	username, password := r.PostForm.Get("username"), r.PostForm.Get("password")
	if username == "" || password == "" {
		writeError(w, http.StatusUnprocessableEntity, "username and password are required")
		return
	}

	token, err := s.auth.Login(r.Context(), username, password)
	if errors.Is(err, app.ErrInvalidCredentials) {
		unauthorized(w, "Incorrect username or password")
		return
	}
	if err != nil {
		s.log.Error("login", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"access_token": token,
		"token_type":   "bearer",
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, userFrom(r.Context()))
}
