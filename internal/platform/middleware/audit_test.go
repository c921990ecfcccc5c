package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/telecare/telecare/internal/platform/auth"
)

type capturingRecorder struct {
	entries []AuditEntry
	err     error
}

func (r *capturingRecorder) RecordAccess(entry AuditEntry) error {
	r.entries = append(r.entries, entry)
	return r.err
}

// auditedRequest runs a request through the Audit middleware as the given
// user and leaves the captured entries on the recorder.
func auditedRequest(t *testing.T, rec AuditRecorder, method, target, userID string, roles ...string) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, target, nil)
	if userID != "" {
		ctx := context.WithValue(req.Context(), auth.UserIDKey, userID)
		ctx = context.WithValue(ctx, auth.UserRolesKey, roles)
		req = req.WithContext(ctx)
	}
	c := e.NewContext(req, httptest.NewRecorder())

	handler := Audit(zerolog.Nop(), rec)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		t.Fatalf("audited request: %v", err)
	}
}

func TestAudit_ReadRecordsUserAndResource(t *testing.T) {
	rec := &capturingRecorder{}
	target := "/api/v1/consultations/" + uuid.New().String()

	auditedRequest(t, rec, http.MethodGet, target, "doc-17", "doctor")

	if len(rec.entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(rec.entries))
	}
	entry := rec.entries[0]
	if entry.Resource != "consultations" {
		t.Errorf("resource = %q, want consultations", entry.Resource)
	}
	if entry.Action != "read" {
		t.Errorf("action = %q, want read", entry.Action)
	}
	if entry.UserID != "doc-17" {
		t.Errorf("user = %q, want doc-17", entry.UserID)
	}
	if entry.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", entry.StatusCode)
	}
}

func TestAudit_ActionFollowsMethod(t *testing.T) {
	cases := []struct {
		method string
		want   string
	}{
		{method: http.MethodPost, want: "create"},
		{method: http.MethodPatch, want: "update"},
		{method: http.MethodDelete, want: "delete"},
		{method: "PROPFIND", want: "read"},
	}
	for _, tc := range cases {
		rec := &capturingRecorder{}
		auditedRequest(t, rec, tc.method, "/api/v1/lab-orders", "coord-2", "coordinator")
		if got := rec.entries[0].Action; got != tc.want {
			t.Errorf("%s: action = %q, want %q", tc.method, got, tc.want)
		}
	}
}

func TestAudit_SkipsInfrastructurePaths(t *testing.T) {
	rec := &capturingRecorder{}

	auditedRequest(t, rec, http.MethodGet, "/health", "")

	if len(rec.entries) != 0 {
		t.Errorf("health check produced %d audit entries, want 0", len(rec.entries))
	}
}

func TestAudit_RecorderFailureDoesNotFailRequest(t *testing.T) {
	rec := &capturingRecorder{err: errors.New("audit store down")}

	// auditedRequest fails the test if the middleware surfaces an error.
	auditedRequest(t, rec, http.MethodGet, "/api/v1/consultations", "admin-1", "admin")
}

func TestAudit_LogOnlyWithoutRecorder(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/lab-orders", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	handler := Audit(zerolog.Nop())(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		t.Fatalf("log-only audit: %v", err)
	}
}

func TestAudit_PatientIDFromQuery(t *testing.T) {
	pid := uuid.New().String()
	rec := &capturingRecorder{}

	auditedRequest(t, rec, http.MethodGet, "/api/v1/lab-orders?patient_id="+pid, "doc-9", "doctor")

	if got := rec.entries[0].PatientID; got != pid {
		t.Errorf("patient_id = %q, want %q", got, pid)
	}
}

func TestAudit_MalformedPatientIDIgnored(t *testing.T) {
	rec := &capturingRecorder{}

	auditedRequest(t, rec, http.MethodGet, "/api/v1/lab-orders?patient_id=bob", "doc-9", "doctor")

	if got := rec.entries[0].PatientID; got != "" {
		t.Errorf("patient_id = %q, want empty for a non-UUID value", got)
	}
}
