// internal/httpapi/server.go
package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/xeipuuv/gojsonschema"

	"loanflow/internal/common/logger"
	"loanflow/internal/common/observability"
	"loanflow/internal/ledger"
	"loanflow/internal/models"
	"loanflow/internal/workflow"
	"loanflow/pkg/registry"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// applicationSchema rejects malformed payloads at the boundary. Business
// rules (ranges, positivity) stay in the validation stage so that a rule
// failure is a workflow outcome, not a transport error.
var applicationSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"name":           map[string]interface{}{"type": "string"},
		"email":          map[string]interface{}{"type": "string"},
		"loan_amount":    map[string]interface{}{"type": "number"},
		"credit_score":   map[string]interface{}{"type": "number"},
		"annual_income":  map[string]interface{}{"type": "number"},
		"has_bankruptcy": map[string]interface{}{"type": "boolean"},
	},
}

// Server exposes the loan approval workflows over HTTP.
type Server struct {
	approval *workflow.LoanApproval
	contact  *workflow.ContactPreference
	ledger   *ledger.Ledger
	registry *registry.MessageRegistry
	obs      *observability.Observability
	logger   logger.Logger
	router   chi.Router
}

func NewServer(
	approval *workflow.LoanApproval,
	contactWF *workflow.ContactPreference,
	led *ledger.Ledger,
	reg *registry.MessageRegistry,
	obs *observability.Observability,
	log logger.Logger,
) *Server {
	s := &Server{
		approval: approval,
		contact:  contactWF,
		ledger:   led,
		registry: reg,
		obs:      obs,
		logger:   log.WithFields(map[string]interface{}{"component": "httpapi"}),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Post("/evaluate", s.handleEvaluate)
		r.Post("/contact", s.handleContact)
		r.Get("/submissions", s.handleSubmissions)
	})

	s.router = r
	return s
}

// Handler returns the route tree for mounting.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ok"})
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var payload map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if msg := validatePayloadShape(payload); msg != "" {
		s.writeError(w, http.StatusBadRequest, msg)
		return
	}

	start := time.Now()
	result, err := s.approval.Run(r.Context(), payload)
	s.obs.RecordRunDuration(r.Context(), workflow.WorkflowLoanApproval, time.Since(start))
	if err != nil {
		s.obs.RecordRunProcessed(r.Context(), workflow.WorkflowLoanApproval, "failed")
		s.logger.Error("evaluate run failed", map[string]interface{}{"error": err.Error()})
		s.writeError(w, http.StatusServiceUnavailable, "processing failed, please try again later")
		return
	}
	s.obs.RecordRunProcessed(r.Context(), workflow.WorkflowLoanApproval, result.Status)

	switch result.Status {
	case workflow.StatusError:
		s.writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":  "validation failed",
			"errors": result.Errors,
		})
	case workflow.StatusDuplicate:
		s.writeJSON(w, http.StatusConflict, map[string]interface{}{
			"error":               fmt.Sprintf("Email already submitted. Resubmission allowed in %d days.", result.DaysRemaining),
			"existing_submission": result.Existing,
		})
	default:
		s.writeJSON(w, http.StatusOK, map[string]interface{}{
			"success":              true,
			"decision":             result.Decision,
			"message":              result.Message,
			"application":          result.Application,
			"loan_to_income_ratio": result.LoanToIncomeRatio,
		})
	}
}

type contactRequest struct {
	Email      string `json:"email"`
	Preference bool   `json:"preference"`
}

func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if !emailRegex.MatchString(req.Email) {
		s.writeError(w, http.StatusBadRequest, "Invalid email format")
		return
	}

	start := time.Now()
	result, err := s.contact.Run(r.Context(), req.Email, req.Preference)
	s.obs.RecordRunDuration(r.Context(), workflow.WorkflowContactPreference, time.Since(start))
	if err != nil {
		s.obs.RecordRunProcessed(r.Context(), workflow.WorkflowContactPreference, "failed")
		s.logger.Error("contact run failed", map[string]interface{}{"error": err.Error()})
		s.writeError(w, http.StatusServiceUnavailable, "unable to update contact preference")
		return
	}
	s.obs.RecordRunProcessed(r.Context(), workflow.WorkflowContactPreference, result.Status)

	response := map[string]interface{}{
		"status":     result.Status,
		"email":      result.Email,
		"preference": result.Preference,
	}
	if tpl, ok := s.registry.ContactResponse(req.Preference); ok {
		response["message"] = map[string]interface{}{
			"title":   tpl.Title,
			"message": strings.ReplaceAll(tpl.Message, "{email}", req.Email),
		}
	}

	code := http.StatusOK
	if result.Status != workflow.StatusSuccess {
		code = http.StatusNotFound
	}
	s.writeJSON(w, code, response)
}

func (s *Server) handleSubmissions(w http.ResponseWriter, r *http.Request) {
	records, err := s.ledger.Records(r.Context())
	if err != nil {
		s.logger.Error("list submissions failed", map[string]interface{}{"error": err.Error()})
		s.writeError(w, http.StatusServiceUnavailable, "unable to read submissions")
		return
	}
	if records == nil {
		records = []models.SubmissionRecord{}
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":       len(records),
		"submissions": records,
	})
}

// validatePayloadShape rejects payloads whose fields carry the wrong JSON
// type and malformed email addresses. Returns an empty string when the
// shape is acceptable.
func validatePayloadShape(payload map[string]interface{}) string {
	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(applicationSchema),
		gojsonschema.NewGoLoader(payload),
	)
	if err != nil {
		return "invalid request payload"
	}
	if !result.Valid() {
		parts := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			parts = append(parts, e.String())
		}
		return strings.Join(parts, "; ")
	}

	if raw, ok := payload["email"]; ok {
		if email, ok := raw.(string); ok && !emailRegex.MatchString(strings.TrimSpace(email)) {
			return "Invalid email format"
		}
	}
	return ""
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("write response failed", map[string]interface{}{"error": err.Error()})
	}
}

func (s *Server) writeError(w http.ResponseWriter, code int, message string) {
	s.writeJSON(w, code, map[string]interface{}{"error": message})
}
