package api

import (
	"log/slog"
	"net/http"

	"github.com/cmaloney/taskward/internal/api/shared"
	"github.com/cmaloney/taskward/internal/redact"
	"github.com/cmaloney/taskward/internal/service"
	"github.com/cmaloney/taskward/internal/store"
)

// TodoHandler handles the todo CRUD endpoints. All routes run behind the
// auth middleware; the owner is always the authenticated user.
type TodoHandler struct {
	todoService *service.TodoService
	logger      *slog.Logger
}

// NewTodoHandler creates a TodoHandler.
func NewTodoHandler(todoService *service.TodoService, logger *slog.Logger) *TodoHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TodoHandler{
		todoService: todoService,
		logger:      logger.With(slog.String("component", "todo_handler")),
	}
}

// Create handles POST /api/todos.
func (h *TodoHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req CreateTodoRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error")
		return
	}

	todo, err := h.todoService.Create(r.Context(), userID, req.Heading, req.Body, req.DueAt)
	if err != nil {
		h.respondServiceError(w, r, err, "failed to create todo")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, todo)
}

// List handles GET /api/todos.
func (h *TodoHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	todos, err := h.todoService.List(r.Context(), userID)
	if err != nil {
		h.respondServiceError(w, r, err, "failed to list todos")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, todos)
}

// Get handles GET /api/todos/{id}.
func (h *TodoHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, todoID, ok := requireUserAndPathID(w, r, "id")
	if !ok {
		return
	}

	todo, err := h.todoService.Get(r.Context(), userID, todoID)
	if err != nil {
		h.respondServiceError(w, r, err, "failed to get todo")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, todo)
}

// Update handles PATCH /api/todos/{id}.
func (h *TodoHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, todoID, ok := requireUserAndPathID(w, r, "id")
	if !ok {
		return
	}

	var req UpdateTodoRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error")
		return
	}

	todo, err := h.todoService.Update(r.Context(), userID, todoID, store.TodoUpdate{
		Heading:   req.Heading,
		Body:      req.Body,
		Completed: req.Completed,
		DueAt:     req.DueAt,
		ClearDue:  req.ClearDue,
	})
	if err != nil {
		h.respondServiceError(w, r, err, "failed to update todo")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, todo)
}

// Delete handles DELETE /api/todos/{id}.
func (h *TodoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, todoID, ok := requireUserAndPathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.todoService.Delete(r.Context(), userID, todoID); err != nil {
		h.respondServiceError(w, r, err, "failed to delete todo")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// respondServiceError maps a service error onto the wire. Unexpected (5xx)
// errors are logged at ERROR by the shared responder; expected domain
// outcomes stay at DEBUG.
func (h *TodoHandler) respondServiceError(w http.ResponseWriter, r *http.Request, err error, logMsg string) {
	h.logger.Debug(logMsg, "error", redact.Error(err))
	shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
}
