package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gradekit/repograde/pkg/store"
)

func newTestServer(t *testing.T, withStore bool) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var st *store.Store
	if withStore {
		var err error
		st, err = store.Open(filepath.Join(t.TempDir(), "history.db"))
		require.NoError(t, err)
		t.Cleanup(func() { st.Close() })
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(Config{Addr: ":0"}, st, logger)
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t, false)

	w := doJSON(t, s, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])
}

func TestCatalogEndpoint(t *testing.T) {
	s := newTestServer(t, false)

	w := doJSON(t, s, http.MethodGet, "/api/v1/catalog", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.EqualValues(t, 25, body["count"])

	attrs := body["attributes"].([]any)
	require.Len(t, attrs, 25)
	first := attrs[0].(map[string]any)
	assert.Equal(t, "claude_md_file", first["id"])
	assert.EqualValues(t, 1, first["tier"])
}

func TestAssessEndpoint(t *testing.T) {
	s := newTestServer(t, true)

	req := map[string]any{
		"target": "acme/widgets",
		"measurements": []map[string]any{
			{"attribute_id": "claude_md_file", "value": 1, "status": "assessed"},
			{"attribute_id": "test_coverage", "value": 92, "status": "assessed"},
			{"attribute_id": "todo_density", "value": 2, "status": "assessed"},
		},
	}

	w := doJSON(t, s, http.MethodPost, "/api/v1/assessments", req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode(t, w)
	id, ok := body["id"].(string)
	require.True(t, ok, "expected a stored assessment id")
	require.NotEmpty(t, id)

	result := body["result"].(map[string]any)
	assert.InDelta(t, 100.0, result["overall_score"].(float64), 1e-9)
	assert.Equal(t, "Platinum", result["certification_level"])
	assert.Len(t, result["attributes"].([]any), 25)

	// The stored assessment is readable back through the API.
	got := doJSON(t, s, http.MethodGet, "/api/v1/assessments/"+id, nil)
	require.Equal(t, http.StatusOK, got.Code)
	stored := decode(t, got)["result"].(map[string]any)
	assert.Equal(t, "acme/widgets", stored["target"])

	list := doJSON(t, s, http.MethodGet, "/api/v1/assessments?target=acme/widgets", nil)
	require.Equal(t, http.StatusOK, list.Code)
	assert.EqualValues(t, 1, decode(t, list)["count"])
}

func TestAssessWithoutStore(t *testing.T) {
	s := newTestServer(t, false)

	req := map[string]any{
		"measurements": []map[string]any{
			{"attribute_id": "readme_file", "value": 1, "status": "assessed"},
		},
	}

	w := doJSON(t, s, http.MethodPost, "/api/v1/assessments", req)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	_, hasID := body["id"]
	assert.False(t, hasID, "no id without a history store")
	assert.NotNil(t, body["result"])
}

func TestAssessValidationFailures(t *testing.T) {
	s := newTestServer(t, false)

	tests := []struct {
		name       string
		request    map[string]any
		wantStatus int
		wantError  string
	}{
		{
			"bad weight override",
			map[string]any{
				"measurements": []map[string]any{
					{"attribute_id": "readme_file", "value": 1, "status": "assessed"},
				},
				"overrides": map[string]any{"readme_file": -0.5},
			},
			http.StatusUnprocessableEntity,
			"invalid weight configuration",
		},
		{
			"unknown measurement attribute",
			map[string]any{
				"measurements": []map[string]any{
					{"attribute_id": "no_such_thing", "value": 1, "status": "assessed"},
				},
			},
			http.StatusUnprocessableEntity,
			"unknown attribute",
		},
		{
			"nothing assessable",
			map[string]any{
				"measurements": []map[string]any{
					{"attribute_id": "readme_file", "status": "skipped"},
				},
			},
			http.StatusUnprocessableEntity,
			"inconclusive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, s, http.MethodPost, "/api/v1/assessments", tt.request)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, decode(t, w)["error"], tt.wantError)
		})
	}
}

func TestAssessMalformedBody(t *testing.T) {
	s := newTestServer(t, false)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/assessments",
		bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Missing the measurements field entirely is also a caller mistake.
	empty := doJSON(t, s, http.MethodPost, "/api/v1/assessments", map[string]any{"target": "x"})
	assert.Equal(t, http.StatusBadRequest, empty.Code)
}

func TestValidateWeightsEndpoint(t *testing.T) {
	s := newTestServer(t, false)

	valid := doJSON(t, s, http.MethodPost, "/api/v1/weights/validate", map[string]any{
		"weights": map[string]any{"claude_md_file": 0.15, "test_coverage": 0.05},
	})
	require.Equal(t, http.StatusOK, valid.Code)
	body := decode(t, valid)
	assert.Equal(t, true, body["valid"])
	assert.Len(t, body["effective_weights"].(map[string]any), 25)

	invalid := doJSON(t, s, http.MethodPost, "/api/v1/weights/validate", map[string]any{
		"weights": map[string]any{"bogus": 0.15},
	})
	require.Equal(t, http.StatusOK, invalid.Code, "validation reports rather than fails")
	body = decode(t, invalid)
	assert.Equal(t, false, body["valid"])
	assert.NotEmpty(t, body["errors"])
}

func TestValidateWeightsStrict(t *testing.T) {
	s := newTestServer(t, false)

	// Off-sum configuration: an advisory warning by default, an error in
	// strict mode.
	payload := map[string]any{"weights": map[string]any{"claude_md_file": 0.5}}

	lenient := decode(t, doJSON(t, s, http.MethodPost, "/api/v1/weights/validate", payload))
	assert.Equal(t, true, lenient["valid"])
	assert.NotEmpty(t, lenient["warnings"])

	payload["strict"] = true
	strict := decode(t, doJSON(t, s, http.MethodPost, "/api/v1/weights/validate", payload))
	assert.Equal(t, false, strict["valid"])
}

func TestHistoryEndpointsWithoutStore(t *testing.T) {
	s := newTestServer(t, false)

	list := doJSON(t, s, http.MethodGet, "/api/v1/assessments", nil)
	assert.Equal(t, http.StatusServiceUnavailable, list.Code)

	get := doJSON(t, s, http.MethodGet, "/api/v1/assessments/some-id", nil)
	assert.Equal(t, http.StatusServiceUnavailable, get.Code)
}

func TestGetAssessmentNotFound(t *testing.T) {
	s := newTestServer(t, true)

	w := doJSON(t, s, http.MethodGet, "/api/v1/assessments/missing-id", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListLimitValidation(t *testing.T) {
	s := newTestServer(t, true)

	for _, limit := range []string{"abc", "0", "-3"} {
		w := doJSON(t, s, http.MethodGet, "/api/v1/assessments?limit="+limit, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, "limit=%s", limit)
	}
}
