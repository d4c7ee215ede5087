package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/KaramelBytes/datalens-cli/internal/analysis"
	"github.com/KaramelBytes/datalens-cli/internal/query"
)

func newTestServer(t *testing.T, intent query.Intent, maxBody int64) *Server {
	t.Helper()
	logger := zaptest.NewLogger(t)
	svc := query.NewService(query.FixedClassifier{Intent: intent}, analysis.DefaultOptions(), logger)
	return New(Config{MaxBodyBytes: maxBody}, svc, logger)
}

func post(t *testing.T, s *Server, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec, out
}

const salesCSV = "region,units\nnorth,10\nsouth,12\n,\nwest,95\n"

func TestUpload_DataURL(t *testing.T) {
	s := newTestServer(t, query.Intent{}, 0)
	payload := "data:text/csv;base64," + base64.StdEncoding.EncodeToString([]byte(salesCSV))
	rec, out := post(t, s, "/api/upload", map[string]any{"fileData": payload, "fileName": "sales.csv"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, out["success"])
	assert.Equal(t, 3.0, out["rows"])
	assert.Equal(t, 2.0, out["columns"])
	assert.Equal(t, []any{"region", "units"}, out["columnNames"])
	assert.Len(t, out["sample"], 3)
	first := out["data"].([]any)[0].(map[string]any)
	assert.Equal(t, map[string]any{"region": "north", "units": "10"}, first)
	assert.NotEmpty(t, rec.Header().Get("Content-Type"))
}

func TestUpload_PlainBase64AndFileType(t *testing.T) {
	s := newTestServer(t, query.Intent{}, 0)
	rec, out := post(t, s, "/api/upload", map[string]any{"fileData": base64.StdEncoding.EncodeToString([]byte(salesCSV)), "fileType": "text/csv"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3.0, out["rows"])
}

func TestUpload_Errors(t *testing.T) {
	s := newTestServer(t, query.Intent{}, 0)
	enc := base64.StdEncoding.EncodeToString

	cases := []struct {
		body    map[string]any
		status  int
		message string
	}{
		{map[string]any{"fileName": "a.csv"}, http.StatusBadRequest, "No file data provided"},
		{map[string]any{"fileData": enc([]byte("x")), "fileName": "a.xls"}, http.StatusBadRequest, "Unsupported file format. Use CSV or Excel files."},
		{map[string]any{"fileData": enc([]byte("a,b\n")), "fileName": "a.csv"}, http.StatusBadRequest, "File is empty or could not be parsed"},
		{map[string]any{"fileData": "%%%", "fileName": "a.csv"}, http.StatusBadRequest, "Invalid file data"},
		{map[string]any{"fileData": enc([]byte("not a zip")), "fileName": "a.xlsx"}, http.StatusInternalServerError, "Error processing file"},
	}
	for _, tc := range cases {
		rec, out := post(t, s, "/api/upload", tc.body)
		assert.Equal(t, tc.status, rec.Code, tc.message)
		assert.Equal(t, tc.message, out["error"])
	}
}

func TestMethodNotAllowedAndBodyLimit(t *testing.T) {
	s := newTestServer(t, query.Intent{}, 64)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/upload", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Contains(t, rec.Body.String(), "Method not allowed")

	rec, out := post(t, s, "/api/upload", map[string]any{"fileData": strings.Repeat("A", 200), "fileName": "a.csv"})
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "Request body too large", out["error"])
}

func TestQuery_Statistics(t *testing.T) {
	s := newTestServer(t, query.Intent{Type: query.IntentStatistics}, 0)
	rec, out := post(t, s, "/api/query", map[string]any{
		"query":   "summarize",
		"columns": []string{"region", "units"},
		"data": []map[string]any{
			{"region": "north", "units": "10"},
			{"region": "south", "units": 20},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "statistics", out["type"])
	assert.NotEmpty(t, out["id"])
	stats := out["statistics"].(map[string]any)["units"].(map[string]any)
	assert.Equal(t, 15.0, stats["mean"])
	assert.Equal(t, 2.0, stats["count"])
	chart := out["chart"].(map[string]any)
	assert.Equal(t, "bar", chart["type"])
}

func TestQuery_InferColumnsAndValidation(t *testing.T) {
	s := newTestServer(t, query.Intent{Type: query.IntentText}, 0)
	rec, out := post(t, s, "/api/query", map[string]any{
		"query": "show",
		"data":  []map[string]any{{"b": 1, "a": "x"}, {"c": true}},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, out["table"], 2)

	rec, out = post(t, s, "/api/query", map[string]any{"query": " ", "data": []map[string]any{{"a": 1}}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, out["error"], "query is required")

	rec, _ = post(t, s, "/api/query", map[string]any{"query": "q"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInferColumns(t *testing.T) {
	recs := []analysis.Record{
		{"b": analysis.Number(1), "a": analysis.Text("x")},
		{"c": analysis.Bool(true), "a": analysis.Null()},
	}
	assert.Equal(t, []string{"a", "b", "c"}, inferColumns(recs))
}

func TestQuery_LargeMagnitudesEncode(t *testing.T) {
	s := newTestServer(t, query.Intent{Type: query.IntentStatistics}, 0)
	rec, out := post(t, s, "/api/query", map[string]any{
		"query": "summarize",
		"data":  []map[string]any{{"units": 1e308}, {"units": 1.5e308}},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	stats := out["statistics"].(map[string]any)["units"].(map[string]any)
	assert.InEpsilon(t, 1.25e308, stats["mean"], 1e-12)
	assert.InEpsilon(t, 1.25e308, stats["median"], 1e-12)
}

func TestWriteJSON_EncodeFailureIs500(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, http.StatusOK, map[string]float64{"mean": math.Inf(1)})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	assert.Equal(t, "Error encoding response", out["error"])
}
