package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/telecare/telecare/internal/platform/auth"
)

const auditPathPrefix = "/api/v1/"

// actionForMethod maps an HTTP method to the audit action recorded for it.
// Methods outside the table default to "read".
var actionForMethod = map[string]string{
	http.MethodGet:    "read",
	http.MethodHead:   "read",
	http.MethodPost:   "create",
	http.MethodPut:    "update",
	http.MethodPatch:  "update",
	http.MethodDelete: "delete",
}

// AuditEntry is one recorded access to patient data: who touched which
// resource, on behalf of which patient, and how the request ended.
type AuditEntry struct {
	UserID     string
	UserRoles  []string
	Resource   string
	PatientID  string
	Action     string
	IPAddress  string
	UserAgent  string
	Path       string
	Method     string
	Timestamp  time.Time
	RequestID  string
	StatusCode int
}

// AuditRecorder persists audit entries. The middleware only needs this one
// method, so tests can swap in an in-memory implementation.
type AuditRecorder interface {
	RecordAccess(entry AuditEntry) error
}

// AuditRecorderFunc adapts a function to the AuditRecorder interface.
type AuditRecorderFunc func(entry AuditEntry) error

func (f AuditRecorderFunc) RecordAccess(entry AuditEntry) error {
	return f(entry)
}

// Audit records every request under /api/v1/. Consultations and lab orders
// both carry PHI, so reads and writes alike produce an entry naming the
// authenticated user, the resource collection, and the response status.
//
// Without a recorder the structured log line is the audit trail.
func Audit(logger zerolog.Logger, recorders ...AuditRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !strings.HasPrefix(c.Request().URL.Path, auditPathPrefix) {
				return next(c)
			}

			// Run the handler first; the entry wants the final status code.
			err := next(c)

			entry := buildAuditEntry(c)
			for _, rec := range recorders {
				if rec == nil {
					continue
				}
				if recErr := rec.RecordAccess(entry); recErr != nil {
					logger.Error().Err(recErr).
						Str("request_id", entry.RequestID).
						Msg("failed to record audit entry")
				}
			}
			entry.log(logger)

			return err
		}
	}
}

func buildAuditEntry(c echo.Context) AuditEntry {
	req := c.Request()
	ctx := req.Context()

	entry := AuditEntry{
		UserID:     auth.UserIDFromContext(ctx),
		UserRoles:  auth.RolesFromContext(ctx),
		Resource:   resourceCollection(req.URL.Path),
		PatientID:  patientIDParam(c),
		Action:     "read",
		IPAddress:  c.RealIP(),
		UserAgent:  req.UserAgent(),
		Path:       req.URL.Path,
		Method:     req.Method,
		Timestamp:  time.Now().UTC(),
		StatusCode: c.Response().Status,
	}
	if action, ok := actionForMethod[req.Method]; ok {
		entry.Action = action
	}
	if rid, ok := c.Get("request_id").(string); ok {
		entry.RequestID = rid
	}
	return entry
}

func (e AuditEntry) log(logger zerolog.Logger) {
	logger.Info().
		Str("type", "phi_audit").
		Str("request_id", e.RequestID).
		Str("user_id", e.UserID).
		Strs("user_roles", e.UserRoles).
		Str("resource", e.Resource).
		Str("patient_id", e.PatientID).
		Str("action", e.Action).
		Str("method", e.Method).
		Str("path", e.Path).
		Str("remote_ip", e.IPAddress).
		Int("status", e.StatusCode).
		Msg("phi_access")
}

// resourceCollection names the collection a path addresses:
// /api/v1/lab-orders/123/transition -> lab-orders.
func resourceCollection(path string) string {
	rest := strings.TrimPrefix(path, auditPathPrefix)
	if collection, _, _ := strings.Cut(rest, "/"); collection != "" {
		return collection
	}
	return "unknown"
}

// patientIDParam returns the patient_id query parameter when it carries a
// well-formed UUID, and an empty string otherwise.
func patientIDParam(c echo.Context) string {
	pid := c.QueryParam("patient_id")
	if _, err := uuid.Parse(pid); err != nil {
		return ""
	}
	return pid
}
