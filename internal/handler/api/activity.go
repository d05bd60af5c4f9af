// Copyright (c) 2026 Martin Kley
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/idgate-dev/idgate/internal/model"
	"github.com/idgate-dev/idgate/internal/service"
	"github.com/idgate-dev/idgate/internal/store"
)

// ActivityHandler handles the /activity-logs routes (admin-only; role
// enforcement happens in the router).
type ActivityHandler struct {
	activity *service.ActivityService
}

// NewActivityHandler creates an ActivityHandler.
func NewActivityHandler(activity *service.ActivityService) *ActivityHandler {
	return &ActivityHandler{activity: activity}
}

type activityListResponse struct {
	Data []model.ActivityEvent `json:"data"`
	PageMeta
}

// List handles GET /activity-logs with optional conjunctive filters and
// offset pagination.
func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := store.ActivityFilter{
		ActorType:  q.Get("actorType"),
		Action:     q.Get("actionType"),
		EntityType: q.Get("entityType"),
		Severity:   q.Get("severity"),
	}
	if raw := q.Get("actorUserId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id < 1 {
			WriteBadRequest(w, "Invalid actorUserId", nil)
			return
		}
		filter.ActorID = id
	}

	page := queryInt(q.Get("page"), 1)
	limit := queryInt(q.Get("limit"), 20)

	events, total, err := h.activity.Query(r.Context(), filter, page, limit)
	if err != nil {
		WriteInternalError(w, "Failed to query activity logs")
		return
	}
	if events == nil {
		events = []model.ActivityEvent{}
	}

	if limit > service.MaxActivityPageSize {
		limit = service.MaxActivityPageSize
	}
	if limit < 1 {
		limit = 1
	}
	if page < 1 {
		page = 1
	}

	WriteJSON(w, http.StatusOK, activityListResponse{
		Data:     events,
		PageMeta: NewPageMeta(page, limit, total),
	})
}

// Filters handles GET /activity-logs/filters, returning the legal values
// for each filter so clients can build UIs.
func (h *ActivityHandler) Filters(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string][]string{
		"actorTypes":  model.ActorTypes(),
		"actionTypes": model.ActionTypes(),
		"entityTypes": model.EntityTypes(),
		"severities":  model.Severities(),
	})
}

// ByUser handles GET /activity-logs/user/{userID}.
func (h *ActivityHandler) ByUser(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil || userID < 1 {
		WriteBadRequest(w, "Invalid user id", nil)
		return
	}
	limit := queryInt(r.URL.Query().Get("limit"), service.DefaultActivityLimit)

	events, err := h.activity.ByActor(r.Context(), userID, limit)
	if err != nil {
		WriteInternalError(w, "Failed to query activity logs")
		return
	}
	if events == nil {
		events = []model.ActivityEvent{}
	}

	WriteJSON(w, http.StatusOK, map[string]any{"data": events})
}

// ByEntity handles GET /activity-logs/entity/{entityType}/{entityID}.
func (h *ActivityHandler) ByEntity(w http.ResponseWriter, r *http.Request) {
	entityType := chi.URLParam(r, "entityType")
	entityID, err := strconv.ParseInt(chi.URLParam(r, "entityID"), 10, 64)
	if err != nil || entityID < 1 {
		WriteBadRequest(w, "Invalid entity id", nil)
		return
	}
	limit := queryInt(r.URL.Query().Get("limit"), service.DefaultActivityLimit)

	events, err := h.activity.ByEntity(r.Context(), entityType, entityID, limit)
	if err != nil {
		WriteInternalError(w, "Failed to query activity logs")
		return
	}
	if events == nil {
		events = []model.ActivityEvent{}
	}

	WriteJSON(w, http.StatusOK, map[string]any{"data": events})
}

// queryInt parses a positive integer query parameter with a fallback.
func queryInt(raw string, fallback int64) int64 {
	if raw == "" {
		return fallback
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
