package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/locvowork/hiring_analytics/internal/domain"
	"github.com/locvowork/hiring_analytics/internal/service/serviceutils"
)

const (
	defaultSearchLimit = 10
	maxSearchLimit     = 100
)

type SearchHandler struct {
	index domain.EmployeeIndex
}

// NewSearchHandler creates a SearchHandler. index may be nil when search is disabled.
func NewSearchHandler(index domain.EmployeeIndex) *SearchHandler {
	return &SearchHandler{index: index}
}

// SearchEmployeesHandler godoc
// @Summary Search employees by name
// @Description Full-text search over uploaded employee names.
// @Tags employees
// @Produce json
// @Param q query string true "name query"
// @Param limit query int false "maximum hits (default 10, max 100)"
// @Success 200 {array} domain.Employee
// @Failure 400 {object} serviceutils.ErrorResponse
// @Failure 503 {object} serviceutils.ErrorResponse
// @Router /employees/search [get]
func (h *SearchHandler) SearchEmployeesHandler(c echo.Context) error {
	if h.index == nil {
		return serviceutils.ResponseError(c, http.StatusServiceUnavailable, "Employee search is not configured", domain.ErrSearchDisabled)
	}

	q := strings.TrimSpace(c.QueryParam("q"))
	if q == "" {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Query parameter q is required", nil)
	}

	limit := defaultSearchLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return serviceutils.ResponseError(c, http.StatusBadRequest, "Invalid limit", err)
		}
		if n > maxSearchLimit {
			n = maxSearchLimit
		}
		limit = n
	}

	hits, err := h.index.SearchEmployees(c.Request().Context(), q, limit)
	if err != nil {
		if errors.Is(err, domain.ErrSearchDisabled) {
			return serviceutils.ResponseError(c, http.StatusServiceUnavailable, "Employee search is not configured", err)
		}
		return serviceutils.ResponseError(c, http.StatusInternalServerError, "Error searching employees", err)
	}
	if hits == nil {
		hits = []domain.Employee{}
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, hits)
}
