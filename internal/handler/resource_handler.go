package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/onboarding-api/internal/domain"
	"github.com/onboarding-api/internal/dto"
	"github.com/onboarding-api/internal/search"
	"github.com/onboarding-api/internal/service"
)

type ResourceHandler struct {
	resourceService service.ResourceService
	validator       *validator.Validate
	logger          *slog.Logger
}

func NewResourceHandler(resourceService service.ResourceService, logger *slog.Logger) *ResourceHandler {
	return &ResourceHandler{
		resourceService: resourceService,
		validator:       validator.New(),
		logger:          logger,
	}
}

func (h *ResourceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateResourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(h.logger, w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		respondError(h.logger, w, http.StatusBadRequest, "validation error", err.Error())
		return
	}

	res, err := h.resourceService.Create(r.Context(), &req)
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	respondJSON(h.logger, w, http.StatusCreated, toResourceResponse(res))
}

func (h *ResourceHandler) List(w http.ResponseWriter, r *http.Request) {
	resources, err := h.resourceService.List(r.Context())
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	resp := make([]dto.ResourceResponse, 0, len(resources))
	for i := range resources {
		resp = append(resp, toResourceResponse(&resources[i]))
	}

	respondJSON(h.logger, w, http.StatusOK, resp)
}

func (h *ResourceHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := extractID(r, "/resources")
	if err != nil {
		respondError(h.logger, w, http.StatusBadRequest, "invalid resource id", err.Error())
		return
	}

	res, err := h.resourceService.GetByID(r.Context(), id)
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	respondJSON(h.logger, w, http.StatusOK, toResourceResponse(res))
}

func (h *ResourceHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := extractID(r, "/resources")
	if err != nil {
		respondError(h.logger, w, http.StatusBadRequest, "invalid resource id", err.Error())
		return
	}

	var req dto.UpdateResourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(h.logger, w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		respondError(h.logger, w, http.StatusBadRequest, "validation error", err.Error())
		return
	}

	res, err := h.resourceService.Update(r.Context(), id, &req)
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	respondJSON(h.logger, w, http.StatusOK, toResourceResponse(res))
}

func (h *ResourceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := extractID(r, "/resources")
	if err != nil {
		respondError(h.logger, w, http.StatusBadRequest, "invalid resource id", err.Error())
		return
	}

	if err := h.resourceService.Delete(r.Context(), id); err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Search выполняет гибридный поиск: векторная близость плюс
// реляционный предикат по категории и заголовку
func (h *ResourceHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req dto.SearchResourcesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(h.logger, w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		respondError(h.logger, w, http.StatusBadRequest, "validation error", err.Error())
		return
	}

	result, err := h.resourceService.Search(r.Context(), &req)
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	respondJSON(h.logger, w, http.StatusOK, toSearchResponse(result))
}

func toResourceResponse(res *domain.Resource) dto.ResourceResponse {
	return dto.ResourceResponse{
		ID:          res.ID,
		Title:       res.Title,
		Category:    res.Category,
		Description: res.Description,
		ResourceURL: res.ResourceURL,
		Embedded:    len(res.Embedding) > 0,
		CreatedAt:   res.CreatedAt,
		UpdatedAt:   res.UpdatedAt,
	}
}

func toSearchResponse(result *search.Result) dto.SearchResourcesResponse {
	items := make([]dto.ScoredResourceResponse, 0, len(result.Items))
	for i := range result.Items {
		items = append(items, dto.ScoredResourceResponse{
			Resource: toResourceResponse(&result.Items[i].Resource),
			Score:    result.Items[i].Score,
		})
	}

	return dto.SearchResourcesResponse{
		Results:       items,
		LowConfidence: result.LowConfidence,
	}
}
