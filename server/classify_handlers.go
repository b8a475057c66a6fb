package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/ecosnap/ecosnap-server/internal/apperr"
	"github.com/ecosnap/ecosnap-server/scans"
)

const defaultHistoryLimit = 50

type classifyRequest struct {
	ImageBase64 string `json:"imageBase64"`
}

// ClassifyHandler runs one classification and records the outcome against
// the authenticated user. Recording is best effort: a store failure never
// changes the response.
func (s *Server) ClassifyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req classifyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.metrics.classification("missing-input")
			respondError(w, http.StatusBadRequest, "No image provided")
			return
		}

		result, err := s.classify.Classify(r.Context(), req.ImageBase64)
		if err != nil {
			s.metrics.classification(string(apperr.KindOf(err)))
			respondAppError(w, err)
			return
		}

		userID := UserIDFromContext(r.Context())
		if err := s.scans.Insert(r.Context(), scans.NewRecord(userID, result)); err != nil {
			s.log.Warn().Err(err).Str("user_id", userID).Msg("scan record not stored")
		}

		s.metrics.classification("success")
		respondJSON(w, http.StatusOK, result)
	}
}

type scanHistoryResponse struct {
	Scans        []scans.Record `json:"scans"`
	TotalCredits int            `json:"totalCredits"`
}

// ScanHistoryHandler returns the user's scan history newest first plus the
// running credit total.
func (s *Server) ScanHistoryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := UserIDFromContext(r.Context())

		limit := defaultHistoryLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 1 {
				respondError(w, http.StatusBadRequest, "limit must be a positive integer")
				return
			}
			limit = parsed
		}

		records, err := s.scans.ListByUser(r.Context(), userID, limit)
		if err != nil {
			s.log.Error().Err(err).Str("user_id", userID).Msg("list scans")
			respondError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		total, err := s.scans.TotalCredits(r.Context(), userID)
		if err != nil {
			s.log.Error().Err(err).Str("user_id", userID).Msg("total credits")
			respondError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		if records == nil {
			records = []scans.Record{}
		}
		respondJSON(w, http.StatusOK, scanHistoryResponse{Scans: records, TotalCredits: total})
	}
}
