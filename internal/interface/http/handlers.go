// Package http implements the REST API for Rollbook.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rollbook-hub/rollbook/internal/application/command"
	"github.com/rollbook-hub/rollbook/internal/application/query"
	"github.com/rollbook-hub/rollbook/internal/domain/shared"
	"github.com/rollbook-hub/rollbook/pkg/logger"
	"github.com/rollbook-hub/rollbook/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot serves the root endpoint with basic API information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	info := map[string]interface{}{
		"name":        "Rollbook API",
		"version":     "v1",
		"description": "REST API for Rollbook - contact roster with grades and attendance",
		"endpoints": map[string]string{
			"health":  "/health",
			"persons": "/api/v1/persons",
			"search":  "/api/v1/persons/search",
			"summary": "/api/v1/summary",
			"stats":   "/api/v1/stats",
		},
	}

	writeJSON(w, http.StatusOK, info)
}

// handleHealth handles the health check endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Healthy {
			writeJSON(w, http.StatusServiceUnavailable, status)
			return
		}
		writeJSON(w, http.StatusOK, status)
		return
	}

	// Default health response
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"uptime":  s.Uptime().String(),
		"version": "v1",
	})
}

// handleReady handles the readiness probe endpoint (for Kubernetes).
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Ready {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not_ready",
				"reason": status.Message,
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleLive handles the liveness probe endpoint (for Kubernetes).
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// PERSON READ HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetPerson handles GET /api/v1/persons/{id}
func (s *Server) handleGetPerson(w http.ResponseWriter, r *http.Request) {
	recordID := r.PathValue("id")
	if recordID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Record ID is required")
		return
	}

	if s.deps.GetPersonHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Person handler not configured")
		return
	}

	q := query.GetPersonQuery{RecordID: recordID}

	result, err := s.deps.GetPersonHandler.Handle(r.Context(), q)
	if err != nil {
		s.logger.Error("failed to get person", logger.Err(err), logger.RecordID(recordID))
		s.writeDomainError(w, err, "Failed to get person")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleListPersons handles GET /api/v1/persons
func (s *Server) handleListPersons(w http.ResponseWriter, r *http.Request) {
	if s.deps.ListPersonsHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "List handler not configured")
		return
	}

	q := query.ListPersonsQuery{
		Offset:   getQueryParamInt(r, "offset", 0),
		Limit:    getQueryParamInt(r, "limit", 50),
		SortBy:   getQueryParam(r, "sort_by", "name"),
		SortDesc: getQueryParamBool(r, "sort_desc"),
	}

	result, err := s.deps.ListPersonsHandler.Handle(r.Context(), q)
	if err != nil {
		s.logger.Error("failed to list persons", logger.Err(err))
		s.writeDomainError(w, err, "Failed to list persons")
		return
	}

	meta := &ResponseMeta{
		TotalCount: result.Total,
		Offset:     result.Offset,
		PageSize:   result.Limit,
		HasMore:    result.Offset+len(result.Persons) < result.Total,
	}

	writeJSONWithMeta(w, r, http.StatusOK, result, meta)
}

// handleFindPersons handles GET /api/v1/persons/search
func (s *Server) handleFindPersons(w http.ResponseWriter, r *http.Request) {
	if s.deps.FindPersonsHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Search handler not configured")
		return
	}

	q := query.FindPersonsQuery{
		NameQuery: getQueryParam(r, "q", ""),
		Tag:       getQueryParam(r, "tag", ""),
		Limit:     getQueryParamInt(r, "limit", 50),
	}

	if q.NameQuery == "" && q.Tag == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Either q or tag query parameter is required")
		return
	}

	result, err := s.deps.FindPersonsHandler.Handle(r.Context(), q)
	if err != nil {
		s.logger.Error("failed to find persons", logger.Err(err), logger.String("query", q.NameQuery))
		s.writeDomainError(w, err, "Failed to find persons")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleSummary handles GET /api/v1/summary
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if s.deps.AttendanceSummaryHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Summary handler not configured")
		return
	}

	q := query.AttendanceSummaryQuery{
		MinAbsenceStreak: getQueryParamInt(r, "min_streak", 0),
	}

	result, err := s.deps.AttendanceSummaryHandler.Handle(r.Context(), q)
	if err != nil {
		s.logger.Error("failed to build summary", logger.Err(err))
		s.writeDomainError(w, err, "Failed to build roster summary")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleStats handles GET /api/v1/stats
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	// Aggregate stats from various sources
	stats := map[string]interface{}{
		"server": map[string]interface{}{
			"uptime":  s.Uptime().String(),
			"running": s.IsRunning(),
		},
	}

	if s.deps.AttendanceSummaryHandler != nil {
		result, err := s.deps.AttendanceSummaryHandler.Handle(r.Context(), query.AttendanceSummaryQuery{})
		if err == nil {
			stats["roster"] = map[string]interface{}{
				"total_persons": result.TotalPersons,
				"absentees":     len(result.Absentees),
			}
		}
	}

	writeJSON(w, http.StatusOK, stats)
}

// ══════════════════════════════════════════════════════════════════════════════
// PERSON WRITE HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// addPersonRequest is the request body for POST /api/v1/persons.
type addPersonRequest struct {
	Name    string   `json:"name"`
	Phone   string   `json:"phone"`
	Email   string   `json:"email"`
	Address string   `json:"address"`
	Tags    []string `json:"tags,omitempty"`
}

// handleAddPerson handles POST /api/v1/persons
func (s *Server) handleAddPerson(w http.ResponseWriter, r *http.Request) {
	if s.deps.AddPersonHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Add handler not configured")
		return
	}

	var body addPersonRequest
	if !s.decodeBody(w, r, &body) {
		return
	}

	cmd := command.AddPersonCommand{
		Name:          body.Name,
		Phone:         body.Phone,
		Email:         body.Email,
		Address:       body.Address,
		Tags:          body.Tags,
		CorrelationID: getRequestID(r.Context()),
	}

	result, err := s.deps.AddPersonHandler.Handle(r.Context(), cmd)
	if err != nil {
		s.logger.Error("failed to add person", logger.Err(err), logger.PersonName(body.Name))
		s.writeDomainError(w, err, "Failed to add person")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"record_id": result.RecordID,
		"name":      result.Person.Name().String(),
	})
}

// editPersonRequest is the request body for PUT /api/v1/persons/{id}.
// Empty string fields keep the current value; a non-null tags array
// replaces the whole tag set.
type editPersonRequest struct {
	Name    string   `json:"name"`
	Phone   string   `json:"phone"`
	Email   string   `json:"email"`
	Address string   `json:"address"`
	Tags    []string `json:"tags,omitempty"`
}

// handleEditPerson handles PUT /api/v1/persons/{id}
func (s *Server) handleEditPerson(w http.ResponseWriter, r *http.Request) {
	recordID := r.PathValue("id")
	if recordID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Record ID is required")
		return
	}

	if s.deps.EditPersonHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Edit handler not configured")
		return
	}

	var body editPersonRequest
	if !s.decodeBody(w, r, &body) {
		return
	}

	cmd := command.EditPersonCommand{
		RecordID: recordID,
		Name:     body.Name,
		Phone:    body.Phone,
		Email:    body.Email,
		Address:  body.Address,
		Tags:     body.Tags,
	}

	result, err := s.deps.EditPersonHandler.Handle(r.Context(), cmd)
	if err != nil {
		s.logger.Error("failed to edit person", logger.Err(err), logger.RecordID(recordID))
		s.writeDomainError(w, err, "Failed to edit person")
		return
	}

	writeJSON(w, http.StatusOK, query.NewPersonDTO(result.Record))
}

// handleDeletePerson handles DELETE /api/v1/persons/{id}
func (s *Server) handleDeletePerson(w http.ResponseWriter, r *http.Request) {
	recordID := r.PathValue("id")
	if recordID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Record ID is required")
		return
	}

	if s.deps.DeletePersonHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Delete handler not configured")
		return
	}

	cmd := command.DeletePersonCommand{
		RecordID:      recordID,
		CorrelationID: getRequestID(r.Context()),
	}

	result, err := s.deps.DeletePersonHandler.Handle(r.Context(), cmd)
	if err != nil {
		s.logger.Error("failed to delete person", logger.Err(err), logger.RecordID(recordID))
		s.writeDomainError(w, err, "Failed to delete person")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "deleted",
		"name":   result.Name,
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// GRADE HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// addGradeRequest is the request body for POST /api/v1/persons/{id}/grades.
type addGradeRequest struct {
	TestName string  `json:"test_name"`
	Score    float64 `json:"score"`
}

// handleAddGrade handles POST /api/v1/persons/{id}/grades
func (s *Server) handleAddGrade(w http.ResponseWriter, r *http.Request) {
	recordID := r.PathValue("id")
	if recordID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Record ID is required")
		return
	}

	if s.deps.AddGradeHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Grade handler not configured")
		return
	}

	var body addGradeRequest
	if !s.decodeBody(w, r, &body) {
		return
	}

	cmd := command.AddGradeCommand{
		RecordID:      recordID,
		TestName:      body.TestName,
		Score:         body.Score,
		CorrelationID: getRequestID(r.Context()),
	}

	result, err := s.deps.AddGradeHandler.Handle(r.Context(), cmd)
	if err != nil {
		s.logger.Error("failed to add grade", logger.Err(err), logger.RecordID(recordID), logger.TestName(body.TestName))
		s.writeDomainError(w, err, "Failed to add grade")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"grade_count": result.GradeCount,
		"average":     result.Average,
	})
}

// handleRemoveGrade handles DELETE /api/v1/persons/{id}/grades/{position}
func (s *Server) handleRemoveGrade(w http.ResponseWriter, r *http.Request) {
	recordID := r.PathValue("id")
	position := getPathValueInt(r, "position")
	if recordID == "" || position <= 0 {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Record ID and a positive grade position are required")
		return
	}

	if s.deps.RemoveGradeHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Grade handler not configured")
		return
	}

	cmd := command.RemoveGradeCommand{
		RecordID:      recordID,
		Position:      position,
		CorrelationID: getRequestID(r.Context()),
	}

	result, err := s.deps.RemoveGradeHandler.Handle(r.Context(), cmd)
	if err != nil {
		s.logger.Error("failed to remove grade", logger.Err(err), logger.RecordID(recordID), logger.Int("position", position))
		s.writeDomainError(w, err, "Failed to remove grade")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"removed_test": result.Removed.TestName(),
		"grade_count":  result.GradeCount,
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// ATTENDANCE HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// markAttendanceRequest is the request body for POST /api/v1/persons/{id}/attendance.
type markAttendanceRequest struct {
	// Date in YYYY-MM-DD format; empty means today.
	Date   string `json:"date,omitempty"`
	Status string `json:"status"`
	Remark string `json:"remark,omitempty"`
}

// handleMarkAttendance handles POST /api/v1/persons/{id}/attendance
func (s *Server) handleMarkAttendance(w http.ResponseWriter, r *http.Request) {
	recordID := r.PathValue("id")
	if recordID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Record ID is required")
		return
	}

	if s.deps.MarkAttendanceHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Attendance handler not configured")
		return
	}

	var body markAttendanceRequest
	if !s.decodeBody(w, r, &body) {
		return
	}

	var date time.Time
	if body.Date != "" {
		parsed, err := timeutil.ParseDate(body.Date)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid_request", "Date must be in YYYY-MM-DD format")
			return
		}
		date = parsed
	}

	cmd := command.MarkAttendanceCommand{
		RecordID:      recordID,
		Date:          date,
		Status:        body.Status,
		Remark:        body.Remark,
		CorrelationID: getRequestID(r.Context()),
	}

	result, err := s.deps.MarkAttendanceHandler.Handle(r.Context(), cmd)
	if err != nil {
		s.logger.Error("failed to mark attendance", logger.Err(err), logger.RecordID(recordID), logger.Status(body.Status))
		s.writeDomainError(w, err, "Failed to mark attendance")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"consecutive_absences": result.ConsecutiveAbsences,
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// ERROR MAPPING & BODY DECODING
// ══════════════════════════════════════════════════════════════════════════════

// writeDomainError maps domain error kinds to HTTP status codes.
func (s *Server) writeDomainError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case shared.IsNotFound(err):
		writeJSONError(w, http.StatusNotFound, "not_found", err.Error())
	case shared.IsAlreadyExists(err) || errors.Is(err, shared.ErrDuplicatePerson):
		writeJSONError(w, http.StatusConflict, "conflict", err.Error())
	case shared.IsValidation(err) || shared.IsNilArgument(err):
		writeJSONError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, shared.ErrIndexOutOfRange):
		writeJSONError(w, http.StatusBadRequest, "index_out_of_range", err.Error())
	default:
		writeJSONError(w, http.StatusInternalServerError, "internal_error", fallback)
	}
}

// decodeBody decodes a JSON request body, writing a 400 on failure.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	defer r.Body.Close()

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)) // 1MB limit
	if err := dec.Decode(dst); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload")
		return false
	}
	return true
}

// getPathValueInt extracts an integer path value, returning 0 on failure.
func getPathValueInt(r *http.Request, key string) int {
	value := r.PathValue(key)
	if value == "" {
		return 0
	}

	var result int
	if _, err := fmt.Sscanf(value, "%d", &result); err != nil {
		return 0
	}
	return result
}
