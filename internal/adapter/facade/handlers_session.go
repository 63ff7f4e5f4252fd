package facade

import (
	"net/http"

	adapthttp "storefront/internal/adapter/http"
)

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	adapthttp.WriteJSON(w, http.StatusOK, s.session.Snapshot())
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := adapthttp.ParseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.session.Login(r.Context(), body.Email, body.Password); err != nil {
		writeError(w, statusFor(err), s.session.Snapshot().Error)
		return
	}
	adapthttp.WriteJSON(w, http.StatusOK, s.session.Snapshot())
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		FullName string `json:"fullName"`
	}
	if err := adapthttp.ParseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.session.Register(r.Context(), body.Email, body.Password, body.FullName); err != nil {
		writeError(w, statusFor(err), s.session.Snapshot().Error)
		return
	}
	adapthttp.WriteJSON(w, http.StatusOK, s.session.Snapshot())
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.session.Logout(r.Context())
	adapthttp.WriteJSON(w, http.StatusOK, s.session.Snapshot())
}

func (s *Server) handleClearError(w http.ResponseWriter, r *http.Request) {
	s.session.ClearError()
	adapthttp.WriteJSON(w, http.StatusOK, s.session.Snapshot())
}
