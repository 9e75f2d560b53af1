package handler

import (
	_ "embed"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/locvowork/hiring_analytics/internal/service"
	"github.com/locvowork/hiring_analytics/internal/service/serviceutils"
	"github.com/locvowork/hiring_analytics/pkg/simpleexcel"
)

// Section ids of the spreadsheet layout.
const (
	SectionHiringByQuarter         = "hiring_by_quarter"
	SectionDepartmentsAboveAverage = "departments_above_average"
)

//go:embed report_layout.yaml
var defaultLayout []byte

// DefaultLayout returns the built-in spreadsheet layout of the reports.
func DefaultLayout() *simpleexcel.ReportTemplate {
	tmpl, err := simpleexcel.ParseTemplate(defaultLayout)
	if err != nil {
		panic(fmt.Sprintf("embedded report layout: %v", err))
	}
	return tmpl
}

type MetricsHandler struct {
	svc    service.HiringService
	layout *simpleexcel.ReportTemplate
}

// NewMetricsHandler creates a MetricsHandler. A nil layout selects DefaultLayout.
func NewMetricsHandler(svc service.HiringService, layout *simpleexcel.ReportTemplate) *MetricsHandler {
	if layout == nil {
		layout = DefaultLayout()
	}
	return &MetricsHandler{svc: svc, layout: layout}
}

// HiringByQuarterHandler godoc
// @Summary Employees hired per quarter
// @Description Hires per department and job for each quarter of the report year, ordered by department and job.
// @Tags metrics
// @Produce json
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param format query string false "json (default) or xlsx"
// @Success 200 {array} domain.QuarterlyHires
// @Failure 400 {object} serviceutils.ErrorResponse
// @Failure 500 {object} serviceutils.ErrorResponse
// @Router /metrics/hiring-by-quarter [get]
func (h *MetricsHandler) HiringByQuarterHandler(c echo.Context) error {
	format, err := parseFormat(c)
	if err != nil {
		return serviceutils.ResponseError(c, http.StatusBadRequest, err.Error(), err)
	}

	rows, err := h.svc.HiringByQuarter(c.Request().Context())
	if err != nil {
		return serviceutils.ResponseError(c, http.StatusInternalServerError, fmt.Sprintf("Error retrieving hiring metrics: %v", err), err)
	}
	if format == formatXLSX {
		return h.writeXLSX(c, SectionHiringByQuarter, rows, "hiring_by_quarter.xlsx")
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, rows)
}

// DepartmentsAboveAverageHandler godoc
// @Summary Departments hiring above the mean
// @Description Departments whose hires in the report year exceed the mean over all departments.
// @Tags metrics
// @Produce json
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param format query string false "json (default) or xlsx"
// @Success 200 {array} domain.DepartmentHires
// @Failure 400 {object} serviceutils.ErrorResponse
// @Failure 500 {object} serviceutils.ErrorResponse
// @Router /metrics/departments-above-average [get]
func (h *MetricsHandler) DepartmentsAboveAverageHandler(c echo.Context) error {
	format, err := parseFormat(c)
	if err != nil {
		return serviceutils.ResponseError(c, http.StatusBadRequest, err.Error(), err)
	}

	rows, err := h.svc.DepartmentsAboveAverage(c.Request().Context())
	if err != nil {
		return serviceutils.ResponseError(c, http.StatusInternalServerError, fmt.Sprintf("Error retrieving department metrics: %v", err), err)
	}
	if format == formatXLSX {
		return h.writeXLSX(c, SectionDepartmentsAboveAverage, rows, "departments_above_average.xlsx")
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, rows)
}

const (
	formatJSON = "json"
	formatXLSX = "xlsx"
)

func parseFormat(c echo.Context) (string, error) {
	switch f := c.QueryParam("format"); f {
	case "", formatJSON:
		return formatJSON, nil
	case formatXLSX:
		return formatXLSX, nil
	default:
		return "", fmt.Errorf("unsupported format %q", f)
	}
}

func (h *MetricsHandler) writeXLSX(c echo.Context, section string, data interface{}, filename string) error {
	b, err := simpleexcel.NewDataExporterFromTemplate(h.layout.Select(section)).
		BindSectionData(section, data).
		ToBytes()
	if err != nil {
		return serviceutils.ResponseError(c, http.StatusInternalServerError, "Failed to generate excel file", err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename=%q`, filename))
	return c.Blob(http.StatusOK, simpleexcel.ContentType, b)
}
