package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ecosnap/ecosnap-server/gate"
	"github.com/ecosnap/ecosnap-server/identity"
)

// AuthSubmitHandler runs one gate submission for the flow bound to the route.
func (s *Server) AuthSubmitHandler(mode gate.Mode) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var creds gate.Credentials
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			s.metrics.authAttempt(mode, "failure")
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		outcome, err := s.gate.Submit(r.Context(), mode, creds)
		if err != nil {
			s.metrics.authAttempt(mode, "failure")
			respondAppError(w, err)
			return
		}

		s.metrics.authAttempt(mode, "success")
		respondJSON(w, http.StatusOK, outcome)
	}
}

// ResendCodeHandler drops the pending code state so the user can request a
// fresh one.
func (s *Server) ResendCodeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, s.gate.ResendCode())
	}
}

// SessionHandler reports the provider's active session, 401 when none.
func (s *Server) SessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.provider.CurrentSession(r.Context())
		if err != nil {
			if errors.Is(err, identity.ErrNoSession) {
				respondError(w, http.StatusUnauthorized, "no active session")
				return
			}
			respondAppError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, sess)
	}
}

// SignOutHandler drops the active session.
func (s *Server) SignOutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.provider.SignOut(r.Context()); err != nil {
			respondAppError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"message": "Signed out"})
	}
}

// HealthzHandler reports liveness.
func (s *Server) HealthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
