package server

import (
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"sort"
	"strings"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/KaramelBytes/datalens-cli/internal/analysis"
	"github.com/KaramelBytes/datalens-cli/internal/loader"
	"github.com/KaramelBytes/datalens-cli/internal/query"
)

const uploadSampleRows = 10

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type uploadRequest struct {
	FileData string `json:"fileData"`
	FileName string `json:"fileName"`
	FileType string `json:"fileType"`
}

type uploadResponse struct {
	Success     bool              `json:"success"`
	Rows        int               `json:"rows"`
	Columns     int               `json:"columns"`
	ColumnNames []string          `json:"columnNames"`
	Sample      []analysis.Record `json:"sample"`
	Data        []analysis.Record `json:"data"`
}

type queryRequest struct {
	Query   string            `json:"query"`
	Data    []analysis.Record `json:"data"`
	Columns []string          `json:"columns"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	var req uploadRequest
	if !s.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.FileData) == "" {
		writeError(w, http.StatusBadRequest, "No file data provided", "")
		return
	}
	raw, err := decodeFileData(req.FileData)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid file data", err.Error())
		return
	}
	name := req.FileName
	if name == "" {
		name = req.FileType
	}
	ds, err := loader.LoadBytes(name, raw, s.cfg.Load)
	switch {
	case errors.Is(err, loader.ErrUnsupported):
		writeError(w, http.StatusBadRequest, "Unsupported file format. Use CSV or Excel files.", "")
		return
	case errors.Is(err, loader.ErrEmpty):
		writeError(w, http.StatusBadRequest, "File is empty or could not be parsed", "")
		return
	case err != nil:
		s.logger.Error("upload failed", zap.String("file", name), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Error processing file", err.Error())
		return
	}
	s.logger.Info("file uploaded", zap.String("file", name), zap.Int("rows", ds.Len()), zap.Int("columns", len(ds.Columns)))
	writeJSON(w, http.StatusOK, uploadResponse{
		Success:     true,
		Rows:        ds.Len(),
		Columns:     len(ds.Columns),
		ColumnNames: ds.Columns,
		Sample:      ds.Head(uploadSampleRows).Records,
		Data:        ds.Records,
	})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if !s.decode(w, r, &req) {
		return
	}
	columns := req.Columns
	if len(columns) == 0 {
		columns = inferColumns(req.Data)
	}
	res, err := s.queries.Run(r.Context(), query.Request{
		Query:   req.Query,
		Columns: columns,
		Data:    analysis.Dataset{Columns: columns, Records: req.Data},
	})
	if err != nil {
		if errors.Is(err, analysis.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, err.Error(), "")
			return
		}
		s.logger.Error("query failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Error processing query", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// decode reads a JSON body into v, answering 413/400 itself on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Request body too large", err.Error())
			return false
		}
		writeError(w, http.StatusBadRequest, "Cannot read request body", err.Error())
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body", err.Error())
		return false
	}
	return true
}

// decodeFileData accepts a data URL ("data:<mime>;base64,<payload>") or bare base64.
func decodeFileData(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		if i := strings.IndexByte(s, ','); i >= 0 {
			s = s[i+1:]
		}
	}
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		if b2, err2 := base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "=")); err2 == nil {
			return b2, nil
		}
		return nil, err
	}
	return b, nil
}

// inferColumns returns the union of record keys: first record's keys sorted,
// then keys first seen in later records.
func inferColumns(records []analysis.Record) []string {
	seen := map[string]bool{}
	var cols []string
	for _, rec := range records {
		keys := make([]string, 0, len(rec))
		for k := range rec {
			if !seen[k] {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		for _, k := range keys {
			seen[k] = true
			cols = append(cols, k)
		}
	}
	return cols
}

// writeJSON encodes before writing the status so an unencodable value still
// yields a 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		b, _ = json.Marshal(errorResponse{Error: "Error encoding response", Message: err.Error()})
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(append(b, '\n'))
}

func writeError(w http.ResponseWriter, status int, msg, detail string) {
	writeJSON(w, status, errorResponse{Error: msg, Message: detail})
}
