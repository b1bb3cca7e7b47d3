// Package handlers exposes the round workflows over HTTP.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	roundservice "github.com/fairway-collective/scorekeeper/app/modules/round/application"
	rounddb "github.com/fairway-collective/scorekeeper/app/modules/round/infrastructure/repositories"
	"github.com/fairway-collective/scorekeeper/app/shared/attr"
	"github.com/fairway-collective/scorekeeper/app/shared/sharedtypes"
)

// RoundHandlers serves the round endpoints.
type RoundHandlers struct {
	service roundservice.Service
	logger  *slog.Logger
}

func NewRoundHandlers(service roundservice.Service, logger *slog.Logger) *RoundHandlers {
	return &RoundHandlers{service: service, logger: logger}
}

func (h *RoundHandlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode response", attr.Error(err))
	}
}

func (h *RoundHandlers) writeError(w http.ResponseWriter, status int, resp ErrorResponse) {
	h.writeJSON(w, status, resp)
}

func (h *RoundHandlers) roundID(w http.ResponseWriter, r *http.Request) (sharedtypes.RoundID, bool) {
	raw := chi.URLParam(r, "roundID")
	u, err := uuid.Parse(raw)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, ErrorResponse{Error: "invalid round id"})
		return sharedtypes.RoundID{}, false
	}
	return sharedtypes.RoundID(u), true
}

// CreateRound handles POST /rounds.
func (h *RoundHandlers) CreateRound(w http.ResponseWriter, r *http.Request) {
	var req CreateRoundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	input := roundservice.CreateRoundInput{
		CourseName: req.CourseName,
		Tee:        req.Tee,
		Holes:      req.Holes,
	}
	for i, p := range req.Participants {
		input.Participants = append(input.Participants, rounddb.Participant{
			PlayerID:        p.PlayerID,
			DisplayName:     p.DisplayName,
			Position:        i + 1,
			PlayingHandicap: p.PlayingHandicap,
		})
	}

	result, err := h.service.CreateRound(r.Context(), input)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		return
	}
	if result.IsFailure() {
		h.writeError(w, http.StatusBadRequest, ErrorResponse{Error: result.Failure.Reason})
		return
	}

	h.writeJSON(w, http.StatusCreated, roundResponse(result.Success.Round, result.Success.Entries))
}

// GetRound handles GET /rounds/{roundID}.
func (h *RoundHandlers) GetRound(w http.ResponseWriter, r *http.Request) {
	roundID, ok := h.roundID(w, r)
	if !ok {
		return
	}

	round, entries, err := h.service.GetRound(r.Context(), roundID)
	if err != nil {
		if errors.Is(err, rounddb.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, ErrorResponse{Error: "round not found"})
			return
		}
		h.writeError(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		return
	}

	h.writeJSON(w, http.StatusOK, roundResponse(round, entries))
}

// SaveScores handles POST /rounds/{roundID}/scores.
func (h *RoundHandlers) SaveScores(w http.ResponseWriter, r *http.Request) {
	roundID, ok := h.roundID(w, r)
	if !ok {
		return
	}

	var req SaveBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	result, err := h.service.SaveScoreBatch(r.Context(), roundID, req.Updates)
	if err != nil {
		if errors.Is(err, rounddb.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, ErrorResponse{Error: "round not found"})
			return
		}
		h.writeError(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		return
	}
	if result.IsFailure() {
		h.writeError(w, http.StatusConflict, ErrorResponse{Error: result.Failure.Reason})
		return
	}

	h.writeJSON(w, http.StatusOK, result.Success)
}

// CompleteRound handles POST /rounds/{roundID}/complete.
func (h *RoundHandlers) CompleteRound(w http.ResponseWriter, r *http.Request) {
	roundID, ok := h.roundID(w, r)
	if !ok {
		return
	}

	var req CompleteRoundRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.writeError(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
			return
		}
	}

	result, err := h.service.CompleteRound(r.Context(), roundID, req.Nine)
	if err != nil {
		if errors.Is(err, rounddb.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, ErrorResponse{Error: "round not found"})
			return
		}
		h.writeError(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		return
	}
	if result.IsFailure() {
		h.writeError(w, http.StatusConflict, ErrorResponse{
			Error:        result.Failure.Reason,
			PlayerID:     result.Failure.PlayerID,
			MissingHoles: result.Failure.MissingHoles,
		})
		return
	}

	resp := CompleteRoundResponse{Round: roundResponse(result.Success.Round, nil)}
	for _, pr := range result.Success.Results {
		resp.Results = append(resp.Results, PlayerResultResponse{
			PlayerID:       pr.PlayerID,
			CourseHandicap: pr.CourseHandicap,
			GrossScore:     pr.GrossScore,
			AdjustedGross:  pr.AdjustedGross,
			NetScore:       pr.NetScore,
			Differential:   pr.Differential,
			HandicapIndex:  pr.Index,
		})
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// AbandonRound handles POST /rounds/{roundID}/abandon.
func (h *RoundHandlers) AbandonRound(w http.ResponseWriter, r *http.Request) {
	roundID, ok := h.roundID(w, r)
	if !ok {
		return
	}

	result, err := h.service.AbandonRound(r.Context(), roundID)
	if err != nil {
		if errors.Is(err, rounddb.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, ErrorResponse{Error: "round not found"})
			return
		}
		h.writeError(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		return
	}
	if result.IsFailure() {
		h.writeError(w, http.StatusConflict, ErrorResponse{Error: result.Failure.Reason})
		return
	}

	h.writeJSON(w, http.StatusOK, roundResponse(result.Success.Round, nil))
}

// EditScore handles POST /rounds/{roundID}/edits.
func (h *RoundHandlers) EditScore(w http.ResponseWriter, r *http.Request) {
	roundID, ok := h.roundID(w, r)
	if !ok {
		return
	}

	var req EditScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	result, err := h.service.EditCompletedScore(r.Context(), roundservice.EditScoreInput{
		RoundID:    roundID,
		EntryID:    req.EntryID,
		NewStrokes: req.NewStrokes,
		NewPutts:   req.NewPutts,
		Editor:     req.Editor,
		Reason:     req.Reason,
	})
	if err != nil {
		if errors.Is(err, rounddb.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, ErrorResponse{Error: "round or entry not found"})
			return
		}
		h.writeError(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		return
	}
	if result.IsFailure() {
		h.writeError(w, http.StatusConflict, ErrorResponse{Error: result.Failure.Reason})
		return
	}

	h.writeJSON(w, http.StatusOK, PlayerResultResponse{
		PlayerID:       result.Success.Result.PlayerID,
		CourseHandicap: result.Success.Result.CourseHandicap,
		GrossScore:     result.Success.Result.GrossScore,
		AdjustedGross:  result.Success.Result.AdjustedGross,
		NetScore:       result.Success.Result.NetScore,
		Differential:   result.Success.Result.Differential,
		HandicapIndex:  result.Success.Result.Index,
	})
}

// EditHistory handles GET /rounds/{roundID}/edits.
func (h *RoundHandlers) EditHistory(w http.ResponseWriter, r *http.Request) {
	roundID, ok := h.roundID(w, r)
	if !ok {
		return
	}

	records, err := h.service.EditHistory(r.Context(), roundID)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		return
	}

	resp := make([]EditRecordResponse, 0, len(records))
	for _, rec := range records {
		resp = append(resp, EditRecordResponse{
			EntryID:    rec.EntryID,
			PlayerID:   rec.PlayerID,
			OldStrokes: rec.OldStrokes,
			NewStrokes: rec.NewStrokes,
			Editor:     rec.Editor,
			Reason:     rec.Reason,
			CreatedAt:  rec.CreatedAt,
		})
	}
	h.writeJSON(w, http.StatusOK, resp)
}
