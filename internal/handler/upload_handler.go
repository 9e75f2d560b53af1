package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/locvowork/hiring_analytics/internal/domain"
	"github.com/locvowork/hiring_analytics/internal/service"
	"github.com/locvowork/hiring_analytics/internal/service/serviceutils"
)

const msgNotCSV = "File must be CSV format"

type UploadHandler struct {
	svc service.IngestService
}

func NewUploadHandler(svc service.IngestService) *UploadHandler {
	return &UploadHandler{svc: svc}
}

// DepartmentsHandler godoc
// @Summary Upload departments
// @Description Load a headerless CSV of id,department rows. Existing ids are skipped.
// @Tags upload
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "departments CSV"
// @Success 200 {object} domain.UploadResult
// @Failure 400 {object} serviceutils.ErrorResponse
// @Failure 500 {object} serviceutils.ErrorResponse
// @Router /upload/departments [post]
func (h *UploadHandler) DepartmentsHandler(c echo.Context) error {
	return h.upload(c, domain.DatasetDepartments)
}

// JobsHandler godoc
// @Summary Upload jobs
// @Description Load a headerless CSV of id,job rows. Existing ids are skipped.
// @Tags upload
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "jobs CSV"
// @Success 200 {object} domain.UploadResult
// @Failure 400 {object} serviceutils.ErrorResponse
// @Failure 500 {object} serviceutils.ErrorResponse
// @Router /upload/jobs [post]
func (h *UploadHandler) JobsHandler(c echo.Context) error {
	return h.upload(c, domain.DatasetJobs)
}

// EmployeesHandler godoc
// @Summary Upload hired employees
// @Description Load a headerless CSV of id,name,datetime,department_id,job_id rows in batches.
// @Tags upload
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "hired employees CSV"
// @Success 200 {object} domain.UploadResult
// @Failure 400 {object} serviceutils.ErrorResponse
// @Failure 500 {object} serviceutils.ErrorResponse
// @Router /upload/employees [post]
func (h *UploadHandler) EmployeesHandler(c echo.Context) error {
	return h.upload(c, domain.DatasetEmployees)
}

func (h *UploadHandler) upload(c echo.Context, ds domain.Dataset) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return serviceutils.ResponseError(c, http.StatusBadRequest, msgNotCSV, err)
	}
	if !strings.HasSuffix(fh.Filename, ".csv") {
		return serviceutils.ResponseError(c, http.StatusBadRequest, msgNotCSV, fmt.Errorf("filename %q", fh.Filename))
	}

	f, err := fh.Open()
	if err != nil {
		return serviceutils.ResponseError(c, http.StatusInternalServerError, "", err)
	}
	defer f.Close()

	payload, err := io.ReadAll(f)
	if err != nil {
		return serviceutils.ResponseError(c, http.StatusInternalServerError, "", err)
	}

	res, err := h.svc.Upload(c.Request().Context(), ds, payload)
	if err != nil {
		var malformed *domain.MalformedInputError
		if errors.As(err, &malformed) {
			msg := fmt.Sprintf("Invalid %s CSV file: %v", malformed.Dataset, malformed.Err)
			return serviceutils.ResponseError(c, http.StatusInternalServerError, msg, malformed)
		}
		return serviceutils.ResponseError(c, http.StatusInternalServerError, "", err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, res)
}
