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

type UserHandler struct {
	userService service.UserService
	taskService service.TaskService
	validator   *validator.Validate
	logger      *slog.Logger
}

func NewUserHandler(
	userService service.UserService,
	taskService service.TaskService,
	logger *slog.Logger,
) *UserHandler {
	return &UserHandler{
		userService: userService,
		taskService: taskService,
		validator:   validator.New(),
		logger:      logger,
	}
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(h.logger, w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		respondError(h.logger, w, http.StatusBadRequest, "validation error", err.Error())
		return
	}

	user, err := h.userService.Create(r.Context(), &req)
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	respondJSON(h.logger, w, http.StatusCreated, toUserResponse(user))
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.List(r.Context())
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	resp := make([]dto.UserResponse, len(users))
	for i := range users {
		resp[i] = toUserResponse(&users[i])
	}
	respondJSON(h.logger, w, http.StatusOK, resp)
}

func (h *UserHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := extractID(r, "/users")
	if err != nil {
		respondError(h.logger, w, http.StatusBadRequest, "invalid user id", err.Error())
		return
	}

	user, err := h.userService.GetByID(r.Context(), id)
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	respondJSON(h.logger, w, http.StatusOK, toUserResponse(user))
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := extractID(r, "/users")
	if err != nil {
		respondError(h.logger, w, http.StatusBadRequest, "invalid user id", err.Error())
		return
	}

	var req dto.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(h.logger, w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		respondError(h.logger, w, http.StatusBadRequest, "validation error", err.Error())
		return
	}

	user, err := h.userService.Update(r.Context(), id, &req)
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	respondJSON(h.logger, w, http.StatusOK, toUserResponse(user))
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := extractID(r, "/users")
	if err != nil {
		respondError(h.logger, w, http.StatusBadRequest, "invalid user id", err.Error())
		return
	}

	if err := h.userService.Delete(r.Context(), id); err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AssignTask назначает шаблон задачи пользователю
func (h *UserHandler) AssignTask(w http.ResponseWriter, r *http.Request) {
	userID, err := extractID(r, "/users")
	if err != nil {
		respondError(h.logger, w, http.StatusBadRequest, "invalid user id", err.Error())
		return
	}

	var req dto.AssignTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(h.logger, w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		respondError(h.logger, w, http.StatusBadRequest, "validation error", err.Error())
		return
	}

	ut, err := h.taskService.Assign(r.Context(), userID, &req)
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	respondJSON(h.logger, w, http.StatusCreated, toUserTaskResponse(ut))
}

// ListTasks возвращает назначенные задачи пользователя с эффективным статусом
func (h *UserHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	userID, err := extractID(r, "/users")
	if err != nil {
		respondError(h.logger, w, http.StatusBadRequest, "invalid user id", err.Error())
		return
	}

	tasks, err := h.taskService.ListForUser(r.Context(), userID)
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	resp := make([]dto.UserTaskResponse, len(tasks))
	for i := range tasks {
		resp[i] = toUserTaskResponse(&tasks[i])
	}
	respondJSON(h.logger, w, http.StatusOK, resp)
}

func toUserResponse(user *domain.User) dto.UserResponse {
	resp := dto.UserResponse{
		ID:        user.ID,
		FullName:  user.FullName,
		Email:     user.Email,
		UserType:  string(user.UserType),
		RoleID:    user.RoleID,
		ManagerID: user.ManagerID,
		MentorID:  user.MentorID,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}

	if user.StartDate != nil {
		startDate := user.StartDate.Format("2006-01-02")
		resp.StartDate = &startDate
	}

	return resp
}

func toUserTaskResponse(ut *domain.UserTask) dto.UserTaskResponse {
	return dto.UserTaskResponse{
		ID:            ut.ID,
		UserID:        ut.UserID,
		TaskID:        ut.TaskID,
		Status:        string(ut.Status),
		DueDate:       ut.DueDate,
		CompletedAt:   ut.CompletedAt,
		SubmissionURL: ut.SubmissionURL,
		Feedback:      ut.Feedback,
		CreatedAt:     ut.CreatedAt,
		UpdatedAt:     ut.UpdatedAt,
	}
}
