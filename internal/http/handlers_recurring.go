package http

import (
	"net/http"

	"conti/internal/log"
)

func (s *Server) handleListRecurring(w http.ResponseWriter, r *http.Request) {
	templates, err := s.recurring.ListRecurring(r.Context(), ownerOf(r))
	if err != nil {
		fail(w, r, log.OpList, err)
		return
	}
	ok(w, nonNil(templates))
}

func (s *Server) handleCreateRecurring(w http.ResponseWriter, r *http.Request) {
	var req recurringRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		fail(w, r, log.OpCreate, err)
		return
	}
	template, err := s.recurring.CreateRecurring(r.Context(), req.recurring(ownerOf(r), 0))
	if err != nil {
		fail(w, r, log.OpCreate, err)
		return
	}
	created(w, template)
}

func (s *Server) handleGetRecurring(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		fail(w, r, log.OpRead, err)
		return
	}
	template, err := s.recurring.GetRecurring(r.Context(), ownerOf(r), id)
	if err != nil {
		fail(w, r, log.OpRead, err)
		return
	}
	ok(w, template)
}

// handleUpdateRecurring keeps the generation watermark; editing a template
// never replays past occurrences.
func (s *Server) handleUpdateRecurring(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		fail(w, r, log.OpUpdate, err)
		return
	}
	var req recurringRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		fail(w, r, log.OpUpdate, err)
		return
	}
	template, err := s.recurring.UpdateRecurring(r.Context(), req.recurring(ownerOf(r), id))
	if err != nil {
		fail(w, r, log.OpUpdate, err)
		return
	}
	ok(w, template)
}

func (s *Server) handleDeleteRecurring(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		fail(w, r, log.OpDelete, err)
		return
	}
	if err := s.recurring.DeleteRecurring(r.Context(), ownerOf(r), id); err != nil {
		fail(w, r, log.OpDelete, err)
		return
	}
	noContent(w)
}
