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

type DepartmentHandler struct {
	deptService service.DepartmentService
	roleService service.RoleService
	validator   *validator.Validate
	logger      *slog.Logger
}

func NewDepartmentHandler(
	deptService service.DepartmentService,
	roleService service.RoleService,
	logger *slog.Logger,
) *DepartmentHandler {
	return &DepartmentHandler{
		deptService: deptService,
		roleService: roleService,
		validator:   validator.New(),
		logger:      logger,
	}
}

func (h *DepartmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateDepartmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(h.logger, w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		respondError(h.logger, w, http.StatusBadRequest, "validation error", err.Error())
		return
	}

	dept, err := h.deptService.Create(r.Context(), &req)
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	respondJSON(h.logger, w, http.StatusCreated, toDepartmentResponse(dept))
}

func (h *DepartmentHandler) List(w http.ResponseWriter, r *http.Request) {
	depts, err := h.deptService.List(r.Context())
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	resp := make([]dto.DepartmentResponse, len(depts))
	for i := range depts {
		resp[i] = toDepartmentResponse(&depts[i])
	}
	respondJSON(h.logger, w, http.StatusOK, resp)
}

func (h *DepartmentHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := extractID(r, "/departments")
	if err != nil {
		respondError(h.logger, w, http.StatusBadRequest, "invalid department id", err.Error())
		return
	}

	dept, err := h.deptService.GetByID(r.Context(), id)
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	respondJSON(h.logger, w, http.StatusOK, toDepartmentResponse(dept))
}

func (h *DepartmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := extractID(r, "/departments")
	if err != nil {
		respondError(h.logger, w, http.StatusBadRequest, "invalid department id", err.Error())
		return
	}

	var req dto.UpdateDepartmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(h.logger, w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		respondError(h.logger, w, http.StatusBadRequest, "validation error", err.Error())
		return
	}

	dept, err := h.deptService.Update(r.Context(), id, &req)
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	respondJSON(h.logger, w, http.StatusOK, toDepartmentResponse(dept))
}

func (h *DepartmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := extractID(r, "/departments")
	if err != nil {
		respondError(h.logger, w, http.StatusBadRequest, "invalid department id", err.Error())
		return
	}

	if err := h.deptService.Delete(r.Context(), id); err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *DepartmentHandler) CreateRole(w http.ResponseWriter, r *http.Request) {
	deptID, err := extractID(r, "/departments")
	if err != nil {
		respondError(h.logger, w, http.StatusBadRequest, "invalid department id", err.Error())
		return
	}

	var req dto.CreateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(h.logger, w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		respondError(h.logger, w, http.StatusBadRequest, "validation error", err.Error())
		return
	}

	role, err := h.roleService.Create(r.Context(), deptID, &req)
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	respondJSON(h.logger, w, http.StatusCreated, toRoleResponse(role))
}

func (h *DepartmentHandler) ListRoles(w http.ResponseWriter, r *http.Request) {
	deptID, err := extractID(r, "/departments")
	if err != nil {
		respondError(h.logger, w, http.StatusBadRequest, "invalid department id", err.Error())
		return
	}

	roles, err := h.roleService.GetByDepartmentID(r.Context(), deptID)
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	resp := make([]dto.RoleResponse, len(roles))
	for i := range roles {
		resp[i] = toRoleResponse(&roles[i])
	}
	respondJSON(h.logger, w, http.StatusOK, resp)
}

func toDepartmentResponse(dept *domain.Department) dto.DepartmentResponse {
	resp := dto.DepartmentResponse{
		ID:        dept.ID,
		Name:      dept.Name,
		CreatedAt: dept.CreatedAt,
		UpdatedAt: dept.UpdatedAt,
	}

	if len(dept.Roles) > 0 {
		resp.Roles = make([]dto.RoleResponse, len(dept.Roles))
		for i := range dept.Roles {
			resp.Roles[i] = toRoleResponse(&dept.Roles[i])
		}
	}

	return resp
}

func toRoleResponse(role *domain.Role) dto.RoleResponse {
	resp := dto.RoleResponse{
		ID:           role.ID,
		DepartmentID: role.DepartmentID,
		Title:        role.Title,
		CreatedAt:    role.CreatedAt,
		UpdatedAt:    role.UpdatedAt,
	}

	if len(role.Tasks) > 0 {
		resp.Tasks = make([]dto.TaskResponse, len(role.Tasks))
		for i := range role.Tasks {
			resp.Tasks[i] = toTaskResponse(&role.Tasks[i])
		}
	}

	return resp
}
