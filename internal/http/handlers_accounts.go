package http

import (
	"net/http"

	"conti/internal/log"
)

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.ledger.ListAccounts(r.Context(), ownerOf(r))
	if err != nil {
		fail(w, r, log.OpList, err)
		return
	}
	ok(w, nonNil(accounts))
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		fail(w, r, log.OpCreate, err)
		return
	}
	account, err := s.ledger.CreateAccount(r.Context(), req.account(ownerOf(r), 0))
	if err != nil {
		fail(w, r, log.OpCreate, err)
		return
	}
	created(w, account)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		fail(w, r, log.OpRead, err)
		return
	}
	account, err := s.ledger.GetAccount(r.Context(), ownerOf(r), id)
	if err != nil {
		fail(w, r, log.OpRead, err)
		return
	}
	ok(w, account)
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		fail(w, r, log.OpUpdate, err)
		return
	}
	var req accountRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		fail(w, r, log.OpUpdate, err)
		return
	}
	account, err := s.ledger.UpdateAccount(r.Context(), req.account(ownerOf(r), id))
	if err != nil {
		fail(w, r, log.OpUpdate, err)
		return
	}
	ok(w, account)
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		fail(w, r, log.OpDelete, err)
		return
	}
	if err := s.ledger.DeleteAccount(r.Context(), ownerOf(r), id); err != nil {
		fail(w, r, log.OpDelete, err)
		return
	}
	noContent(w)
}

// handleRecomputeBalance rebuilds the cached balance from the transactions.
func (s *Server) handleRecomputeBalance(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		fail(w, r, log.OpRecompute, err)
		return
	}
	balance, err := s.ledger.RecomputeBalance(r.Context(), ownerOf(r), id)
	if err != nil {
		fail(w, r, log.OpRecompute, err)
		return
	}
	ok(w, map[string]any{"account_id": id, "current_balance": balance})
}
