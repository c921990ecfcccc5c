package consultation

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/telecare/telecare/internal/workflow"
)

func newTestHandler(t *testing.T) (*Handler, *Service, *echo.Echo) {
	t.Helper()
	svc, _ := newTestService()
	return NewHandler(svc), svc, echo.New()
}

func httpStatus(err error) int {
	if he, ok := err.(*echo.HTTPError); ok {
		return he.Code
	}
	return 0
}

func TestHandler_CreateConsultation(t *testing.T) {
	h, _, e := newTestHandler(t)
	body := `{"patient_id":"` + uuid.New().String() + `","patient_name":"Asha Rao"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.CreateConsultation(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	var got Consultation
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if got.Status != workflow.ConsultPendingAssessment {
		t.Errorf("expected PENDING_ASSESSMENT, got %s", got.Status)
	}
}

func TestHandler_CreateConsultation_BadRequest(t *testing.T) {
	h, _, e := newTestHandler(t)
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.CreateConsultation(c)
	if httpStatus(err) != http.StatusBadRequest {
		t.Errorf("expected 400 for missing patient, got %v", err)
	}
}

func TestHandler_GetConsultation(t *testing.T) {
	h, svc, e := newTestHandler(t)
	con := createPending(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(con.ID.String())

	if err := h.GetConsultation(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestHandler_GetConsultation_NotFound(t *testing.T) {
	h, _, e := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(uuid.New().String())

	err := h.GetConsultation(c)
	if httpStatus(err) != http.StatusNotFound {
		t.Errorf("expected 404, got %v", err)
	}
}

func TestHandler_Transition_Conflict(t *testing.T) {
	h, svc, e := newTestHandler(t)
	con := createPending(t, svc)

	// PENDING_ASSESSMENT cannot jump straight to APPROVED.
	body := `{"status":"APPROVED"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(con.ID.String())

	err := h.TransitionConsultation(c)
	if httpStatus(err) != http.StatusConflict {
		t.Errorf("expected 409 for illegal transition, got %v", err)
	}
}

func TestHandler_Transition_MissingReason(t *testing.T) {
	h, svc, e := newTestHandler(t)
	con := createPending(t, svc)
	mustTransition(t, svc, con.ID,
		workflow.ConsultAIReviewing, workflow.ConsultAIReviewed, workflow.ConsultDoctorReviewing)

	body := `{"status":"REJECTED"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(con.ID.String())

	err := h.TransitionConsultation(c)
	if httpStatus(err) != http.StatusUnprocessableEntity {
		t.Errorf("expected 422 for missing rejection_reason, got %v", err)
	}
}

func TestHandler_Transition_UnknownStatus(t *testing.T) {
	h, svc, e := newTestHandler(t)
	con := createPending(t, svc)

	body := `{"status":"FROBNICATED"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(con.ID.String())

	err := h.TransitionConsultation(c)
	if httpStatus(err) != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown status, got %v", err)
	}
}

func TestHandler_ListConsultations_ByStatus(t *testing.T) {
	h, svc, e := newTestHandler(t)
	createPending(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/?status=PENDING_ASSESSMENT", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.ListConsultations(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	var got struct {
		Total int `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if got.Total != 1 {
		t.Errorf("expected total 1, got %d", got.Total)
	}
}

func TestHandler_ListConsultations_MissingFilter(t *testing.T) {
	h, _, e := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.ListConsultations(c)
	if httpStatus(err) != http.StatusBadRequest {
		t.Errorf("expected 400 when no filter given, got %v", err)
	}
}
