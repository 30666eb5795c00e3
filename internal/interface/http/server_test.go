package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rollbook-hub/rollbook/internal/application/command"
	"github.com/rollbook-hub/rollbook/internal/application/query"
	"github.com/rollbook-hub/rollbook/internal/infrastructure/persistence/memory"
	"github.com/rollbook-hub/rollbook/internal/interface/http/handlers"
)

func newTestServer(t *testing.T, mutate func(*Config)) *Server {
	t.Helper()

	repo := memory.NewPersonRepository()

	cfg := DefaultConfig()
	cfg.RateLimitPerMinute = 0
	if mutate != nil {
		mutate(&cfg)
	}

	return NewServer(cfg, Dependencies{
		AddPersonHandler:         command.NewAddPersonHandler(repo, nil, nil),
		EditPersonHandler:        command.NewEditPersonHandler(repo, nil, nil),
		DeletePersonHandler:      command.NewDeletePersonHandler(repo, nil, nil),
		AddGradeHandler:          command.NewAddGradeHandler(repo, nil, nil),
		RemoveGradeHandler:       command.NewRemoveGradeHandler(repo, nil, nil),
		MarkAttendanceHandler:    command.NewMarkAttendanceHandler(repo, nil, nil),
		GetPersonHandler:         query.NewGetPersonHandler(repo, nil, 0),
		ListPersonsHandler:       query.NewListPersonsHandler(repo),
		FindPersonsHandler:       query.NewFindPersonsHandler(repo, nil, 0),
		AttendanceSummaryHandler: query.NewAttendanceSummaryHandler(repo, nil),
		HealthChecker:            handlers.NewNoopHealthChecker(),
	})
}

func doRequest(t *testing.T, srv *Server, method, path string, body interface{}, headers map[string]string) (*httptest.ResponseRecorder, JSONResponse) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, req)

	var parsed JSONResponse
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &parsed))
	}
	return rec, parsed
}

func addTestPerson(t *testing.T, srv *Server, name, phone string) string {
	t.Helper()

	rec, resp := doRequest(t, srv, http.MethodPost, "/api/v1/persons", map[string]interface{}{
		"name":    name,
		"phone":   phone,
		"email":   "contact@example.com",
		"address": "Blk 30 Geylang Street 29",
		"tags":    []string{"friends"},
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	id, ok := data["record_id"].(string)
	require.True(t, ok)
	return id
}

func TestServer_PersonLifecycle(t *testing.T) {
	srv := newTestServer(t, nil)

	id := addTestPerson(t, srv, "Alex Yeoh", "87438807")

	rec, resp := doRequest(t, srv, http.MethodGet, "/api/v1/persons/"+id, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "Alex Yeoh", data["name"])

	rec, resp = doRequest(t, srv, http.MethodPut, "/api/v1/persons/"+id, map[string]interface{}{
		"phone": "91031282",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data = resp.Data.(map[string]interface{})
	assert.Equal(t, "91031282", data["phone"])

	rec, resp = doRequest(t, srv, http.MethodDelete, "/api/v1/persons/"+id, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data = resp.Data.(map[string]interface{})
	assert.Equal(t, "deleted", data["status"])

	rec, _ = doRequest(t, srv, http.MethodGet, "/api/v1/persons/"+id, nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_DuplicatePersonConflict(t *testing.T) {
	srv := newTestServer(t, nil)
	addTestPerson(t, srv, "Alex Yeoh", "87438807")

	rec, resp := doRequest(t, srv, http.MethodPost, "/api/v1/persons", map[string]interface{}{
		"name":    "Alex Yeoh",
		"phone":   "99272758",
		"email":   "other@example.com",
		"address": "Blk 30 Lorong 3 Serangoon Gardens",
	}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.False(t, resp.Success)
}

func TestServer_ValidationErrors(t *testing.T) {
	srv := newTestServer(t, nil)

	rec, resp := doRequest(t, srv, http.MethodPost, "/api/v1/persons", map[string]interface{}{
		"name":    "Alex Yeoh",
		"phone":   "not-a-number",
		"email":   "contact@example.com",
		"address": "Blk 30 Geylang Street 29",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "validation_failed", resp.Error.Code)
}

func TestServer_GradesAndAttendance(t *testing.T) {
	srv := newTestServer(t, nil)
	id := addTestPerson(t, srv, "Bernice Yu", "99272758")

	rec, resp := doRequest(t, srv, http.MethodPost, "/api/v1/persons/"+id+"/grades", map[string]interface{}{
		"test_name": "Midterm",
		"score":     87.5,
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, float64(1), data["grade_count"])

	rec, _ = doRequest(t, srv, http.MethodPost, "/api/v1/persons/"+id+"/attendance", map[string]interface{}{
		"date":   "2026-03-16",
		"status": "absent",
		"remark": "sick",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, resp = doRequest(t, srv, http.MethodDelete, "/api/v1/persons/"+id+"/grades/1", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data = resp.Data.(map[string]interface{})
	assert.Equal(t, "Midterm", data["removed_test"])

	// Removing from an empty grade list is an index error.
	rec, resp = doRequest(t, srv, http.MethodDelete, "/api/v1/persons/"+id+"/grades/1", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "index_out_of_range", resp.Error.Code)
}

func TestServer_ListAndSearch(t *testing.T) {
	srv := newTestServer(t, nil)
	addTestPerson(t, srv, "Alex Yeoh", "87438807")
	addTestPerson(t, srv, "Bernice Yu", "99272758")

	rec, resp := doRequest(t, srv, http.MethodGet, "/api/v1/persons?sort_by=name", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, 2, resp.Meta.TotalCount)

	rec, resp = doRequest(t, srv, http.MethodGet, "/api/v1/persons/search?q=bernice", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Search requires a name query or a tag.
	rec, _ = doRequest(t, srv, http.MethodGet, "/api/v1/persons/search", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_HealthEndpoints(t *testing.T) {
	srv := newTestServer(t, nil)

	for _, path := range []string{"/health", "/healthz", "/ready", "/live"} {
		rec, _ := doRequest(t, srv, http.MethodGet, path, nil, nil)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestServer_APIKeyAuth(t *testing.T) {
	hash, err := handlers.HashKey("secret-key")
	require.NoError(t, err)

	srv := newTestServer(t, func(cfg *Config) {
		cfg.APIKeyHashes = []string{hash}
	})

	body := map[string]interface{}{
		"name":    "Alex Yeoh",
		"phone":   "87438807",
		"email":   "contact@example.com",
		"address": "Blk 30 Geylang Street 29",
	}

	// Write without a key is rejected.
	rec, _ := doRequest(t, srv, http.MethodPost, "/api/v1/persons", body, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Reads stay open.
	rec, _ = doRequest(t, srv, http.MethodGet, "/api/v1/persons", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Write with the right key passes.
	rec, _ = doRequest(t, srv, http.MethodPost, "/api/v1/persons", body, map[string]string{
		"X-API-Key": "secret-key",
	})
	assert.Equal(t, http.StatusCreated, rec.Code)
}
