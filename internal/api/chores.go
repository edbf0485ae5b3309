package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/choreshare/internal/models"
	"github.com/mmynk/choreshare/internal/service"
)

type choreRequest struct {
	Title             string           `json:"title"`
	Weight            *int             `json:"weight"`
	Notes             *string          `json:"notes"`
	IsFavorite        bool             `json:"is_favorite"`
	Category          models.Category  `json:"category"`
	DefaultAssigneeID *uuid.UUID       `json:"default_assignee_id"`
	EstimatedMinutes  *int             `json:"estimated_minutes"`
	Frequency         models.Frequency `json:"frequency"`
}

type chorePatchRequest struct {
	Title             *string                 `json:"title"`
	Weight            *int                    `json:"weight"`
	Notes             models.Patch[string]    `json:"notes"`
	IsFavorite        *bool                   `json:"is_favorite"`
	Category          *models.Category        `json:"category"`
	DefaultAssigneeID models.Patch[uuid.UUID] `json:"default_assignee_id"`
	EstimatedMinutes  models.Patch[int]       `json:"estimated_minutes"`
	Frequency         *models.Frequency       `json:"frequency"`
}

type recordRequest struct {
	ChoreID         uuid.UUID   `json:"chore_id"`
	PerformerID     *uuid.UUID  `json:"performer_id"`
	PerformerIDs    []uuid.UUID `json:"performer_ids"`
	Memo            *string     `json:"memo"`
	CreatedAt       *time.Time  `json:"created_at"`
	DurationMinutes *int        `json:"duration_minutes"`
	BatchID         uuid.UUID   `json:"batch_id"`
}

type logPatchRequest struct {
	PerformerID     *uuid.UUID           `json:"performer_id"`
	Memo            models.Patch[string] `json:"memo"`
	CreatedAt       *time.Time           `json:"created_at"`
	DurationMinutes models.Patch[int]    `json:"duration_minutes"`
}

func (s *Server) listChores(w http.ResponseWriter, r *http.Request) {
	groupID, ok := s.memberOf(w, r)
	if !ok {
		return
	}
	includeDeleted, err := queryBool(r, "include_deleted")
	if err != nil {
		writeError(w, err)
		return
	}
	chores, err := s.chores.ListChores(r.Context(), groupID, includeDeleted)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toChoresJSON(chores))
}

func (s *Server) getChore(w http.ResponseWriter, r *http.Request) {
	groupID, ok := s.memberOf(w, r)
	if !ok {
		return
	}
	ids, ok := params(w, r, "choreID")
	if !ok {
		return
	}
	chore, err := s.chores.GetChore(r.Context(), groupID, ids[0])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toChoreJSON(chore))
}

func (s *Server) createChore(w http.ResponseWriter, r *http.Request) {
	groupID, ok := groupParam(w, r)
	if !ok {
		return
	}
	var req choreRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	weight := models.DefaultWeight
	if req.Weight != nil {
		weight = *req.Weight
	}
	draft := service.ChoreDraft{
		Title:             req.Title,
		Weight:            weight,
		Notes:             req.Notes,
		IsFavorite:        req.IsFavorite,
		Category:          req.Category,
		DefaultAssigneeID: req.DefaultAssigneeID,
		EstimatedMinutes:  req.EstimatedMinutes,
		Frequency:         req.Frequency,
	}
	chore, err := s.chores.CreateChore(r.Context(), groupID, caller(r).UserID, draft)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toChoreJSON(chore))
}

func (s *Server) updateChore(w http.ResponseWriter, r *http.Request) {
	ids, ok := params(w, r, "groupID", "choreID")
	if !ok {
		return
	}
	var req chorePatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	patch := service.ChorePatch{
		Title:             req.Title,
		Weight:            req.Weight,
		Notes:             req.Notes,
		IsFavorite:        req.IsFavorite,
		Category:          req.Category,
		DefaultAssigneeID: req.DefaultAssigneeID,
		EstimatedMinutes:  req.EstimatedMinutes,
		Frequency:         req.Frequency,
	}
	chore, err := s.chores.UpdateChore(r.Context(), ids[1], ids[0], caller(r).UserID, patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toChoreJSON(chore))
}

func (s *Server) deleteChore(w http.ResponseWriter, r *http.Request) {
	ids, ok := params(w, r, "groupID", "choreID")
	if !ok {
		return
	}
	if err := s.chores.DeleteChore(r.Context(), ids[1], ids[0], caller(r).UserID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) fetchLogs(w http.ResponseWriter, r *http.Request) {
	groupID, ok := s.memberOf(w, r)
	if !ok {
		return
	}
	since, err := queryTime(r, "since")
	if err != nil {
		writeError(w, err)
		return
	}
	logs, err := s.logs.FetchLogs(r.Context(), groupID, since)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toLogsJSON(logs))
}

func (s *Server) recordChore(w http.ResponseWriter, r *http.Request) {
	groupID, ok := groupParam(w, r)
	if !ok {
		return
	}
	var req recordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	draft := service.LogDraft{
		GroupID:         groupID,
		ChoreID:         req.ChoreID,
		PerformerID:     req.PerformerID,
		PerformerIDs:    req.PerformerIDs,
		Memo:            req.Memo,
		CreatedAt:       req.CreatedAt,
		DurationMinutes: req.DurationMinutes,
		BatchID:         req.BatchID,
	}
	logs, err := s.logs.RecordChore(r.Context(), draft, caller(r).UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toLogsJSON(logs))
}

func (s *Server) updateLog(w http.ResponseWriter, r *http.Request) {
	ids, ok := params(w, r, "groupID", "logID")
	if !ok {
		return
	}
	var req logPatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	patch := service.LogPatch{
		PerformerID:     req.PerformerID,
		Memo:            req.Memo,
		CreatedAt:       req.CreatedAt,
		DurationMinutes: req.DurationMinutes,
	}
	log, err := s.logs.UpdateLog(r.Context(), ids[1], ids[0], caller(r).UserID, patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toLogJSON(log))
}

func (s *Server) deleteLog(w http.ResponseWriter, r *http.Request) {
	ids, ok := params(w, r, "groupID", "logID")
	if !ok {
		return
	}
	if err := s.logs.DeleteLog(r.Context(), ids[1], ids[0], caller(r).UserID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
