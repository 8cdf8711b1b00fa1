package httpapi

import (
	"net/http"
)

func (s *Server) signIn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil || req.Email == "" || req.Password == "" {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	sess, err := s.auth.SignInWithPassword(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, sess)
}

func (s *Server) signOut(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if u := s.user(r); u != nil {
		// Per-user wishlist state dies with the session.
		s.wishlists.Drop(u.ID)
	}
	if err := s.auth.SignOut(r.Context(), token); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]string{"status": "signed_out"})
}

func (s *Server) requestOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(r, &req); err != nil || req.Email == "" {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	if err := s.auth.RequestOTP(r.Context(), req.Email); err != nil {
		http.Error(w, "could not send code", http.StatusBadGateway)
		return
	}
	writeJSON(w, map[string]string{"status": "sent"})
}

func (s *Server) verifyOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	if err := decodeJSON(r, &req); err != nil || req.Email == "" || req.Code == "" {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	sess, err := s.auth.VerifyOTP(r.Context(), req.Email, req.Code)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, sess)
}
