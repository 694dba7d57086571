package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/onboarding-api/internal/domain"
	"github.com/onboarding-api/internal/dto"
	"github.com/onboarding-api/internal/vector"
)

// extractID разбирает числовой id из сегмента пути после префикса
func extractID(r *http.Request, prefix string) (int64, error) {
	path := strings.TrimPrefix(r.URL.Path, prefix)
	path = strings.Trim(path, "/")

	parts := strings.Split(path, "/")
	if len(parts) == 0 || parts[0] == "" {
		return 0, errors.New("id is required")
	}

	return strconv.ParseInt(parts[0], 10, 64)
}

func respondJSON(logger *slog.Logger, w http.ResponseWriter, status int, data any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode response", slog.Any("error", err))
	}
}

func respondError(logger *slog.Logger, w http.ResponseWriter, status int, errMsg, details string) {
	w.WriteHeader(status)
	resp := dto.ErrorResponse{Error: errMsg}
	if details != "" {
		resp.Message = details
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.Error("failed to encode error response", slog.Any("error", err))
	}
}

// handleServiceError отображает бизнес-ошибки на HTTP статусы.
// Ошибки запросов всегда локальны: ни одна не валит процесс.
func handleServiceError(logger *slog.Logger, w http.ResponseWriter, err error) {
	var constraintErr *domain.ConstraintError

	switch {
	case errors.Is(err, domain.ErrDepartmentNotFound),
		errors.Is(err, domain.ErrRoleNotFound),
		errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrTaskNotFound),
		errors.Is(err, domain.ErrUserTaskNotFound),
		errors.Is(err, domain.ErrResourceNotFound):
		respondError(logger, w, http.StatusNotFound, err.Error(), "")
	case errors.As(err, &constraintErr):
		respondError(logger, w, http.StatusConflict, "constraint violation", constraintErr.Rule)
	case errors.Is(err, domain.ErrSelfReference):
		respondError(logger, w, http.StatusConflict, "user cannot be their own manager or mentor", "")
	case errors.Is(err, domain.ErrHierarchyCycle):
		respondError(logger, w, http.StatusConflict, "assignment would create a cycle in the hierarchy", "")
	case errors.Is(err, domain.ErrHierarchyTooDeep):
		respondError(logger, w, http.StatusConflict, "hierarchy chain exceeds maximum depth", "")
	case errors.Is(err, domain.ErrInvalidTransition):
		respondError(logger, w, http.StatusConflict, "invalid task status transition", "")
	case errors.Is(err, vector.ErrDimensionMismatch):
		respondError(logger, w, http.StatusBadRequest, "embedding dimension mismatch", err.Error())
	default:
		logger.Error("internal error", slog.Any("error", err))
		respondError(logger, w, http.StatusInternalServerError, "internal server error", "")
	}
}
