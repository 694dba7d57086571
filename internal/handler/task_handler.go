package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/onboarding-api/internal/domain"
	"github.com/onboarding-api/internal/dto"
	"github.com/onboarding-api/internal/service"
)

type TaskHandler struct {
	taskService service.TaskService
	validator   *validator.Validate
	logger      *slog.Logger
}

func NewTaskHandler(taskService service.TaskService, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		validator:   validator.New(),
		logger:      logger,
	}
}

// Create создаёт шаблон задачи вне учебного плана какой-либо должности
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(h.logger, w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		respondError(h.logger, w, http.StatusBadRequest, "validation error", err.Error())
		return
	}

	task, err := h.taskService.CreateTemplate(r.Context(), nil, &req)
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	respondJSON(h.logger, w, http.StatusCreated, toTaskResponse(task))
}

func (h *TaskHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := extractID(r, "/tasks")
	if err != nil {
		respondError(h.logger, w, http.StatusBadRequest, "invalid task id", err.Error())
		return
	}

	task, err := h.taskService.GetTemplate(r.Context(), id)
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	respondJSON(h.logger, w, http.StatusOK, toTaskResponse(task))
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := extractID(r, "/tasks")
	if err != nil {
		respondError(h.logger, w, http.StatusBadRequest, "invalid task id", err.Error())
		return
	}

	var req dto.UpdateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(h.logger, w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		respondError(h.logger, w, http.StatusBadRequest, "validation error", err.Error())
		return
	}

	task, err := h.taskService.UpdateTemplate(r.Context(), id, &req)
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	respondJSON(h.logger, w, http.StatusOK, toTaskResponse(task))
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := extractID(r, "/tasks")
	if err != nil {
		respondError(h.logger, w, http.StatusBadRequest, "invalid task id", err.Error())
		return
	}

	if err := h.taskService.DeleteTemplate(r.Context(), id); err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UpdateUserTask меняет статус назначенной задачи, ссылку на результат
// или фидбек
func (h *TaskHandler) UpdateUserTask(w http.ResponseWriter, r *http.Request) {
	id, err := extractID(r, "/user-tasks")
	if err != nil {
		respondError(h.logger, w, http.StatusBadRequest, "invalid user task id", err.Error())
		return
	}

	var req dto.UpdateUserTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(h.logger, w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		respondError(h.logger, w, http.StatusBadRequest, "validation error", err.Error())
		return
	}

	ut, err := h.taskService.UpdateUserTask(r.Context(), id, &req)
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	respondJSON(h.logger, w, http.StatusOK, toUserTaskResponse(ut))
}

// CompleteUserTask завершает назначенную задачу. Повторное завершение -
// no-op с прежним completed_at.
func (h *TaskHandler) CompleteUserTask(w http.ResponseWriter, r *http.Request) {
	id, err := extractID(r, "/user-tasks")
	if err != nil {
		respondError(h.logger, w, http.StatusBadRequest, "invalid user task id", err.Error())
		return
	}

	ut, err := h.taskService.Complete(r.Context(), id)
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	respondJSON(h.logger, w, http.StatusOK, toUserTaskResponse(ut))
}

func toTaskResponse(task *domain.OnboardingTask) dto.TaskResponse {
	return dto.TaskResponse{
		ID:             task.ID,
		RoleID:         task.RoleID,
		Title:          task.Title,
		Description:    task.Description,
		TaskType:       string(task.TaskType),
		DefaultDueDays: task.DefaultDueDays,
		CreatedAt:      task.CreatedAt,
		UpdatedAt:      task.UpdatedAt,
	}
}
