package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/onboarding-api/internal/dto"
	"github.com/onboarding-api/internal/service"
)

type RoleHandler struct {
	roleService service.RoleService
	taskService service.TaskService
	validator   *validator.Validate
	logger      *slog.Logger
}

func NewRoleHandler(
	roleService service.RoleService,
	taskService service.TaskService,
	logger *slog.Logger,
) *RoleHandler {
	return &RoleHandler{
		roleService: roleService,
		taskService: taskService,
		validator:   validator.New(),
		logger:      logger,
	}
}

func (h *RoleHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := extractID(r, "/roles")
	if err != nil {
		respondError(h.logger, w, http.StatusBadRequest, "invalid role id", err.Error())
		return
	}

	role, err := h.roleService.GetByID(r.Context(), id)
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	respondJSON(h.logger, w, http.StatusOK, toRoleResponse(role))
}

func (h *RoleHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := extractID(r, "/roles")
	if err != nil {
		respondError(h.logger, w, http.StatusBadRequest, "invalid role id", err.Error())
		return
	}

	var req dto.UpdateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(h.logger, w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		respondError(h.logger, w, http.StatusBadRequest, "validation error", err.Error())
		return
	}

	role, err := h.roleService.Update(r.Context(), id, &req)
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	respondJSON(h.logger, w, http.StatusOK, toRoleResponse(role))
}

func (h *RoleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := extractID(r, "/roles")
	if err != nil {
		respondError(h.logger, w, http.StatusBadRequest, "invalid role id", err.Error())
		return
	}

	if err := h.roleService.Delete(r.Context(), id); err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CreateTask создаёт шаблон задачи онбординга в учебном плане должности
func (h *RoleHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	roleID, err := extractID(r, "/roles")
	if err != nil {
		respondError(h.logger, w, http.StatusBadRequest, "invalid role id", err.Error())
		return
	}

	var req dto.CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(h.logger, w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		respondError(h.logger, w, http.StatusBadRequest, "validation error", err.Error())
		return
	}

	task, err := h.taskService.CreateTemplate(r.Context(), &roleID, &req)
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	respondJSON(h.logger, w, http.StatusCreated, toTaskResponse(task))
}

func (h *RoleHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	roleID, err := extractID(r, "/roles")
	if err != nil {
		respondError(h.logger, w, http.StatusBadRequest, "invalid role id", err.Error())
		return
	}

	tasks, err := h.taskService.GetTemplatesByRole(r.Context(), roleID)
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	resp := make([]dto.TaskResponse, len(tasks))
	for i := range tasks {
		resp[i] = toTaskResponse(&tasks[i])
	}
	respondJSON(h.logger, w, http.StatusOK, resp)
}
