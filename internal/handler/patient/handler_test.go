package patient

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicore/patient-registry/internal/middleware"
	"github.com/clinicore/patient-registry/internal/model"
	"github.com/clinicore/patient-registry/pkg/auth"
	apperrors "github.com/clinicore/patient-registry/pkg/errors"
)

const testSecret = "handler-test-secret"

type stubPatientService struct {
	page    *model.PatientPage
	detail  *model.PatientDetail
	patient *model.Patient
	err     error

	createCalls int
	deleteCalls int
	lastFilters *model.PatientFilters
}

func (s *stubPatientService) ListPatients(_ context.Context, filters *model.PatientFilters) (*model.PatientPage, error) {
	filters.Normalize()
	s.lastFilters = filters
	return s.page, s.err
}

func (s *stubPatientService) GetPatient(_ context.Context, _ uuid.UUID, _ *model.Actor, _ model.RequestOrigin) (*model.PatientDetail, error) {
	return s.detail, s.err
}

func (s *stubPatientService) CreatePatient(_ context.Context, _ *model.CreatePatientRequest, _ *model.Actor, _ model.RequestOrigin) (*model.Patient, error) {
	s.createCalls++
	return s.patient, s.err
}

func (s *stubPatientService) UpdatePatient(_ context.Context, _ uuid.UUID, _ *model.UpdatePatientRequest, _ *model.Actor, _ model.RequestOrigin) (*model.Patient, error) {
	return s.patient, s.err
}

func (s *stubPatientService) DeletePatient(_ context.Context, _ uuid.UUID, _ *model.Actor, _ model.RequestOrigin) error {
	s.deleteCalls++
	return s.err
}

type stubRecordService struct {
	records []*model.MedicalRecord
	record  *model.MedicalRecord
	err     error

	addCalls int
}

func (s *stubRecordService) ListRecords(_ context.Context, _ uuid.UUID, _ *model.RecordFilters, _ *model.Actor, _ model.RequestOrigin) ([]*model.MedicalRecord, error) {
	return s.records, s.err
}

func (s *stubRecordService) AddRecord(_ context.Context, _ uuid.UUID, _ *model.CreateMedicalRecordRequest, _ *model.Actor, _ model.RequestOrigin) (*model.MedicalRecord, error) {
	s.addCalls++
	return s.record, s.err
}

func setupTestRouter(t *testing.T, patients *stubPatientService, records *stubRecordService) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		require.NoError(t, model.RegisterValidations(v))
	}

	engine := gin.New()
	authMw := middleware.NewAuthMiddleware(auth.NewJWTValidator(testSecret))
	h := NewHandler(patients, records, authMw)
	h.RegisterRoutes(engine.Group("/api/v1"))
	return engine
}

func tokenFor(t *testing.T, role model.Role) string {
	t.Helper()
	token, err := auth.GenerateToken(testSecret, &model.Actor{
		ID:        uuid.New(),
		FirstName: "Test",
		LastName:  "User",
		Email:     "user@clinic.test",
		Role:      role,
	})
	require.NoError(t, err)
	return token
}

func doRequest(engine *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestMissingTokenRejected(t *testing.T) {
	engine := setupTestRouter(t, &stubPatientService{}, &stubRecordService{})

	w := doRequest(engine, http.MethodGet, "/api/v1/patients", "", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	env := decodeEnvelope(t, w)
	assert.False(t, env.Success)
	assert.Equal(t, "unauthorized", env.Error.Code)
}

func TestNurseCannotAddMedicalRecord(t *testing.T) {
	records := &stubRecordService{}
	engine := setupTestRouter(t, &stubPatientService{}, records)

	w := doRequest(engine, http.MethodPost, "/api/v1/patients/"+uuid.NewString()+"/records",
		tokenFor(t, model.RoleNurse), map[string]string{"type": "consultation"})

	assert.Equal(t, http.StatusForbidden, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, "forbidden", env.Error.Code)
	assert.Zero(t, records.addCalls, "denied request must not reach the service")
}

func TestDoctorCanAddMedicalRecord(t *testing.T) {
	records := &stubRecordService{
		record: &model.MedicalRecord{ID: uuid.New(), Type: "consultation"},
	}
	engine := setupTestRouter(t, &stubPatientService{}, records)

	w := doRequest(engine, http.MethodPost, "/api/v1/patients/"+uuid.NewString()+"/records",
		tokenFor(t, model.RoleDoctor), map[string]string{"type": "consultation"})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 1, records.addCalls)
}

func TestOnlyAdminCanDeletePatient(t *testing.T) {
	for _, role := range []model.Role{model.RoleDoctor, model.RoleNurse} {
		t.Run(string(role), func(t *testing.T) {
			patients := &stubPatientService{}
			engine := setupTestRouter(t, patients, &stubRecordService{})

			w := doRequest(engine, http.MethodDelete, "/api/v1/patients/"+uuid.NewString(),
				tokenFor(t, role), nil)

			assert.Equal(t, http.StatusForbidden, w.Code)
			assert.Zero(t, patients.deleteCalls)
		})
	}

	patients := &stubPatientService{}
	engine := setupTestRouter(t, patients, &stubRecordService{})

	w := doRequest(engine, http.MethodDelete, "/api/v1/patients/"+uuid.NewString(),
		tokenFor(t, model.RoleAdmin), nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, patients.deleteCalls)
}

func TestListPatientsPaginationEnvelope(t *testing.T) {
	patients := &stubPatientService{
		page: &model.PatientPage{
			Patients:   []*model.Patient{{PatientID: "PT25000001"}, {PatientID: "PT25000002"}},
			Total:      45,
			TotalPages: 3,
			Page:       2,
		},
	}
	engine := setupTestRouter(t, patients, &stubRecordService{})

	w := doRequest(engine, http.MethodGet, "/api/v1/patients?page=2&limit=20",
		tokenFor(t, model.RoleNurse), nil)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			Data       []json.RawMessage `json:"data"`
			Pagination struct {
				Page       int `json:"page"`
				PageSize   int `json:"page_size"`
				Total      int `json:"total"`
				TotalPages int `json:"total_pages"`
			} `json:"pagination"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Len(t, resp.Data.Data, 2)
	assert.Equal(t, 2, resp.Data.Pagination.Page)
	assert.Equal(t, 20, resp.Data.Pagination.PageSize)
	assert.Equal(t, 45, resp.Data.Pagination.Total)
	assert.Equal(t, 3, resp.Data.Pagination.TotalPages)

	require.NotNil(t, patients.lastFilters)
	assert.Equal(t, 2, patients.lastFilters.Page)
	assert.Equal(t, 20, patients.lastFilters.Limit)
}

// The handler must carry the service's page counts through untouched
// rather than rederive them from total and limit.
func TestListPatientsEnvelopeCarriesServicePageCounts(t *testing.T) {
	patients := &stubPatientService{
		page: &model.PatientPage{
			Patients:   []*model.Patient{{PatientID: "PT25000001"}},
			Total:      45,
			TotalPages: 5, // deliberately not ceil(45/20)
			Page:       2,
		},
	}
	engine := setupTestRouter(t, patients, &stubRecordService{})

	w := doRequest(engine, http.MethodGet, "/api/v1/patients?page=2&limit=20",
		tokenFor(t, model.RoleNurse), nil)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			Pagination struct {
				Page       int `json:"page"`
				TotalPages int `json:"total_pages"`
			} `json:"pagination"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Data.Pagination.Page)
	assert.Equal(t, 5, resp.Data.Pagination.TotalPages)
}

func TestGetPatientNotFound(t *testing.T) {
	patients := &stubPatientService{err: apperrors.NotFound("patient")}
	engine := setupTestRouter(t, patients, &stubRecordService{})

	w := doRequest(engine, http.MethodGet, "/api/v1/patients/"+uuid.NewString(),
		tokenFor(t, model.RoleDoctor), nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, "not_found", env.Error.Code)
	assert.Equal(t, "patient not found", env.Error.Message)
}

func TestCreatePatientConflictMapsTo409(t *testing.T) {
	patients := &stubPatientService{err: apperrors.Conflict("a patient with this email already exists")}
	engine := setupTestRouter(t, patients, &stubRecordService{})

	w := doRequest(engine, http.MethodPost, "/api/v1/patients", tokenFor(t, model.RoleNurse),
		map[string]interface{}{
			"first_name":    "Jane",
			"last_name":     "Doe",
			"date_of_birth": "1990-01-01T00:00:00Z",
			"gender":        "female",
			"email":         "jane@example.com",
			"phone":         "555-0100",
		})

	assert.Equal(t, http.StatusConflict, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, "conflict", env.Error.Code)
}

func TestCreatePatientValidationFailure(t *testing.T) {
	patients := &stubPatientService{}
	engine := setupTestRouter(t, patients, &stubRecordService{})

	// Missing required fields never reach the service.
	w := doRequest(engine, http.MethodPost, "/api/v1/patients", tokenFor(t, model.RoleNurse),
		map[string]interface{}{"first_name": "Jane"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, "validation_error", env.Error.Code)
	assert.Zero(t, patients.createCalls)
}

func TestCreatePatientFutureDOBRejected(t *testing.T) {
	patients := &stubPatientService{}
	engine := setupTestRouter(t, patients, &stubRecordService{})

	w := doRequest(engine, http.MethodPost, "/api/v1/patients", tokenFor(t, model.RoleNurse),
		map[string]interface{}{
			"first_name":    "Jane",
			"last_name":     "Doe",
			"date_of_birth": "2999-01-01T00:00:00Z",
			"gender":        "female",
			"email":         "jane@example.com",
		})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, patients.createCalls)
}

func TestInvalidPatientIDRejected(t *testing.T) {
	engine := setupTestRouter(t, &stubPatientService{}, &stubRecordService{})

	w := doRequest(engine, http.MethodGet, "/api/v1/patients/not-a-uuid",
		tokenFor(t, model.RoleDoctor), nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, "validation_error", env.Error.Code)
}

func TestUnknownRoleTokenRejected(t *testing.T) {
	engine := setupTestRouter(t, &stubPatientService{}, &stubRecordService{})

	token, err := auth.GenerateToken(testSecret, &model.Actor{
		ID:   uuid.New(),
		Role: model.Role("receptionist"),
	})
	require.NoError(t, err)

	w := doRequest(engine, http.MethodGet, "/api/v1/patients", token, nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
