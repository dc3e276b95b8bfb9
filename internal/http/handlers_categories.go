package http

import (
	"net/http"

	"conti/internal/log"
)

// Categories visible to the owner include the read-only defaults.
func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.categories.ListCategories(r.Context(), ownerOf(r))
	if err != nil {
		fail(w, r, log.OpList, err)
		return
	}
	ok(w, nonNil(categories))
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		fail(w, r, log.OpCreate, err)
		return
	}
	category, err := s.categories.CreateCategory(r.Context(), req.category(ownerOf(r), 0))
	if err != nil {
		fail(w, r, log.OpCreate, err)
		return
	}
	created(w, category)
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		fail(w, r, log.OpRead, err)
		return
	}
	category, err := s.categories.GetCategory(r.Context(), ownerOf(r), id)
	if err != nil {
		fail(w, r, log.OpRead, err)
		return
	}
	ok(w, category)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		fail(w, r, log.OpUpdate, err)
		return
	}
	var req categoryRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		fail(w, r, log.OpUpdate, err)
		return
	}
	category, err := s.categories.UpdateCategory(r.Context(), req.category(ownerOf(r), id))
	if err != nil {
		fail(w, r, log.OpUpdate, err)
		return
	}
	ok(w, category)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		fail(w, r, log.OpDelete, err)
		return
	}
	if err := s.categories.DeleteCategory(r.Context(), ownerOf(r), id); err != nil {
		fail(w, r, log.OpDelete, err)
		return
	}
	noContent(w)
}

func (s *Server) handleCategoryPath(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		fail(w, r, log.OpRead, err)
		return
	}
	path, err := s.categories.FullPath(r.Context(), ownerOf(r), id)
	if err != nil {
		fail(w, r, log.OpRead, err)
		return
	}
	ok(w, map[string]any{"id": id, "path": path})
}

func (s *Server) handleListSubcategories(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		fail(w, r, log.OpList, err)
		return
	}
	children, err := s.categories.ListSubcategories(r.Context(), ownerOf(r), id)
	if err != nil {
		fail(w, r, log.OpList, err)
		return
	}
	ok(w, nonNil(children))
}
