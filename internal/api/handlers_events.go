package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/planreport/internal/events"
)

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var e events.Event
	if !s.decodeJSON(w, r, &e) {
		return
	}
	if e.UserID == "" {
		e.UserID = r.URL.Query().Get("user_id")
	}
	created, err := s.events.Create(r.Context(), e)
	if err != nil {
		s.storeError(w, r, "create event", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"event":   created,
		"metrics": events.EventMetrics(created),
	})
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	list, err := s.events.List(r.Context(), uid)
	if err != nil {
		s.storeError(w, r, "list events", err)
		return
	}
	if list == nil {
		list = []events.Event{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": list})
}

func (s *Server) handleEventSummary(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	sum, err := s.events.Summary(r.Context(), uid)
	if err != nil {
		s.storeError(w, r, "summarize events", err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	e, err := s.events.Get(r.Context(), uid, chi.URLParam(r, "eventID"))
	if err != nil {
		s.storeError(w, r, "get event", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"event":   e,
		"metrics": events.EventMetrics(e),
	})
}

func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	var e events.Event
	if !s.decodeJSON(w, r, &e) {
		return
	}
	e.ID = chi.URLParam(r, "eventID")
	e.UserID = uid
	updated, err := s.events.Update(r.Context(), e)
	if err != nil {
		s.storeError(w, r, "update event", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"event":   updated,
		"metrics": events.EventMetrics(updated),
	})
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	if err := s.events.Delete(r.Context(), uid, chi.URLParam(r, "eventID")); err != nil {
		s.storeError(w, r, "delete event", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
