package http

import (
	"net/http"

	"conti/internal/log"
)

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := s.planning.ListBudgets(r.Context(), ownerOf(r))
	if err != nil {
		fail(w, r, log.OpList, err)
		return
	}
	ok(w, nonNil(budgets))
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		fail(w, r, log.OpCreate, err)
		return
	}
	budget, err := s.planning.CreateBudget(r.Context(), req.budget(ownerOf(r), 0))
	if err != nil {
		fail(w, r, log.OpCreate, err)
		return
	}
	created(w, budget)
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		fail(w, r, log.OpRead, err)
		return
	}
	budget, err := s.planning.GetBudget(r.Context(), ownerOf(r), id)
	if err != nil {
		fail(w, r, log.OpRead, err)
		return
	}
	ok(w, budget)
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		fail(w, r, log.OpUpdate, err)
		return
	}
	var req budgetRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		fail(w, r, log.OpUpdate, err)
		return
	}
	budget, err := s.planning.UpdateBudget(r.Context(), req.budget(ownerOf(r), id))
	if err != nil {
		fail(w, r, log.OpUpdate, err)
		return
	}
	ok(w, budget)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		fail(w, r, log.OpDelete, err)
		return
	}
	if err := s.planning.DeleteBudget(r.Context(), ownerOf(r), id); err != nil {
		fail(w, r, log.OpDelete, err)
		return
	}
	noContent(w)
}

// handleBudgetStatus reports spent, remaining and percentage used.
func (s *Server) handleBudgetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		fail(w, r, log.OpRead, err)
		return
	}
	status, err := s.planning.BudgetStatus(r.Context(), ownerOf(r), id)
	if err != nil {
		fail(w, r, log.OpRead, err)
		return
	}
	ok(w, status)
}

func (s *Server) handleListBudgetStatus(w http.ResponseWriter, r *http.Request) {
	statuses, err := s.planning.ListBudgetStatus(r.Context(), ownerOf(r))
	if err != nil {
		fail(w, r, log.OpList, err)
		return
	}
	ok(w, nonNil(statuses))
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := s.planning.ListGoals(r.Context(), ownerOf(r))
	if err != nil {
		fail(w, r, log.OpList, err)
		return
	}
	ok(w, nonNil(goals))
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		fail(w, r, log.OpCreate, err)
		return
	}
	goal, err := s.planning.CreateGoal(r.Context(), req.goal(ownerOf(r), 0))
	if err != nil {
		fail(w, r, log.OpCreate, err)
		return
	}
	created(w, goal)
}

func (s *Server) handleGetGoal(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		fail(w, r, log.OpRead, err)
		return
	}
	goal, err := s.planning.GetGoal(r.Context(), ownerOf(r), id)
	if err != nil {
		fail(w, r, log.OpRead, err)
		return
	}
	ok(w, goal)
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		fail(w, r, log.OpUpdate, err)
		return
	}
	var req goalRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		fail(w, r, log.OpUpdate, err)
		return
	}
	goal, err := s.planning.UpdateGoal(r.Context(), req.goal(ownerOf(r), id))
	if err != nil {
		fail(w, r, log.OpUpdate, err)
		return
	}
	ok(w, goal)
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		fail(w, r, log.OpDelete, err)
		return
	}
	if err := s.planning.DeleteGoal(r.Context(), ownerOf(r), id); err != nil {
		fail(w, r, log.OpDelete, err)
		return
	}
	noContent(w)
}

func (s *Server) handleGoalProgress(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		fail(w, r, log.OpRead, err)
		return
	}
	progress, err := s.planning.GoalStatus(r.Context(), ownerOf(r), id)
	if err != nil {
		fail(w, r, log.OpRead, err)
		return
	}
	ok(w, progress)
}

// handleUpdateGoalProgress sets the amount saved so far.
func (s *Server) handleUpdateGoalProgress(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		fail(w, r, log.OpUpdate, err)
		return
	}
	var req goalProgressRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		fail(w, r, log.OpUpdate, err)
		return
	}
	progress, err := s.planning.UpdateGoalProgress(r.Context(), ownerOf(r), id, req.CurrentAmount)
	if err != nil {
		fail(w, r, log.OpUpdate, err)
		return
	}
	ok(w, progress)
}
