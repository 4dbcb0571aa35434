package patient

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/clinicore/patient-registry/internal/authz"
	"github.com/clinicore/patient-registry/internal/middleware"
	"github.com/clinicore/patient-registry/internal/model"
	"github.com/clinicore/patient-registry/internal/service/medical"
	"github.com/clinicore/patient-registry/internal/service/patient"
	apperrors "github.com/clinicore/patient-registry/pkg/errors"
	"github.com/clinicore/patient-registry/pkg/httputil"
)

type Handler struct {
	patients patient.PatientService
	records  medical.MedicalRecordService
	auth     *middleware.AuthMiddleware
}

func NewHandler(patients patient.PatientService, records medical.MedicalRecordService, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{
		patients: patients,
		records:  records,
		auth:     auth,
	}
}

// RegisterRoutes wires every patient route behind its policy operation.
// Authorization is decided here, before any handler or service runs.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	patients := r.Group("/patients")
	patients.Use(h.auth.Authenticate())
	{
		patients.GET("", h.auth.Authorize(authz.OpListPatients), h.ListPatients)
		patients.POST("", h.auth.Authorize(authz.OpCreatePatient), h.CreatePatient)
		patients.GET("/:id", h.auth.Authorize(authz.OpGetPatient), h.GetPatient)
		patients.PUT("/:id", h.auth.Authorize(authz.OpUpdatePatient), h.UpdatePatient)
		patients.DELETE("/:id", h.auth.Authorize(authz.OpDeletePatient), h.DeletePatient)

		patients.GET("/:id/records", h.auth.Authorize(authz.OpListRecords), h.ListMedicalRecords)
		patients.POST("/:id/records", h.auth.Authorize(authz.OpAddRecord), h.AddMedicalRecord)
	}
}

func (h *Handler) ListPatients(c *gin.Context) {
	var filters model.PatientFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid query parameters", err))
		return
	}

	page, err := h.patients.ListPatients(c.Request.Context(), &filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithPagination(c, page.Patients, httputil.Pagination{
		Page:       page.Page,
		PageSize:   filters.Limit,
		Total:      int(page.Total),
		TotalPages: int(page.TotalPages),
	})
}

func (h *Handler) GetPatient(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid patient ID", err))
		return
	}

	detail, err := h.patients.GetPatient(c.Request.Context(), id, middleware.GetActor(c), middleware.GetOrigin(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, detail)
}

func (h *Handler) CreatePatient(c *gin.Context) {
	var req model.CreatePatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid request body", err))
		return
	}

	created, err := h.patients.CreatePatient(c.Request.Context(), &req, middleware.GetActor(c), middleware.GetOrigin(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithCreated(c, created)
}

func (h *Handler) UpdatePatient(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid patient ID", err))
		return
	}

	var req model.UpdatePatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid request body", err))
		return
	}

	updated, err := h.patients.UpdatePatient(c.Request.Context(), id, &req, middleware.GetActor(c), middleware.GetOrigin(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, updated)
}

func (h *Handler) DeletePatient(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid patient ID", err))
		return
	}

	if err := h.patients.DeletePatient(c.Request.Context(), id, middleware.GetActor(c), middleware.GetOrigin(c)); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, gin.H{"id": id})
}

func (h *Handler) ListMedicalRecords(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid patient ID", err))
		return
	}

	var filters model.RecordFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid query parameters", err))
		return
	}

	records, err := h.records.ListRecords(c.Request.Context(), id, &filters, middleware.GetActor(c), middleware.GetOrigin(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, records)
}

func (h *Handler) AddMedicalRecord(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid patient ID", err))
		return
	}

	var req model.CreateMedicalRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid request body", err))
		return
	}

	record, err := h.records.AddRecord(c.Request.Context(), id, &req, middleware.GetActor(c), middleware.GetOrigin(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithCreated(c, record)
}
