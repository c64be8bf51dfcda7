package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/yourusername/handicapper/internal/betting"
	"github.com/yourusername/handicapper/internal/models"
	"github.com/yourusername/handicapper/internal/service"
)

// EvaluateRequest is the body of POST /v1/evaluate.
type EvaluateRequest struct {
	Race     *models.RaceCard `json:"race"`
	Bankroll float64          `json:"bankroll"`
	Filters  *betting.Filters `json:"filters,omitempty"`
}

// BatchRequest is the body of POST /v1/evaluate/batch.
type BatchRequest struct {
	Races []EvaluateRequest `json:"races"`
}

// BatchItem is one race in a batch response.
type BatchItem struct {
	Evaluation *service.Evaluation `json:"evaluation,omitempty"`
	Error      string              `json:"error,omitempty"`
}

// BatchResponse is the body returned by POST /v1/evaluate/batch.
type BatchResponse struct {
	Results []BatchItem `json:"results"`
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "method not allowed"})
		return
	}

	var req EvaluateRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	eval, err := s.evaluator.Evaluate(r.Context(), req.Race, req.Bankroll, req.Filters)
	if err != nil {
		s.writeEvaluationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, eval)
}

func (s *Server) handleEvaluateBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "method not allowed"})
		return
	}

	var req BatchRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	requests := make([]service.EvaluationRequest, len(req.Races))
	for i, race := range req.Races {
		requests[i] = service.EvaluationRequest{Race: race.Race, Bankroll: race.Bankroll, Filters: race.Filters}
	}

	results, err := s.evaluator.EvaluateBatch(r.Context(), requests)
	if err != nil {
		s.logger.WithError(err).Warn("Batch evaluation aborted")
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: err.Error()})
		return
	}

	resp := BatchResponse{Results: make([]BatchItem, len(results))}
	for i, res := range results {
		if res.Err != nil {
			resp.Results[i] = BatchItem{Error: res.Err.Error()}
			continue
		}
		resp.Results[i] = BatchItem{Evaluation: res.Evaluation}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.evaluator.Stats())
}

func (s *Server) writeEvaluationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrRaceRequired),
		errors.Is(err, models.ErrInvalidRaceCard),
		errors.Is(err, models.ErrDuplicateProgramNumber):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error()})
	default:
		s.logger.WithError(err).Error("Evaluation failed")
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
