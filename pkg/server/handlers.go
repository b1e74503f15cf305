// Copyright 2025 The Doclens Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package server

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/doclens/doclens/pkg/alert"
	"github.com/doclens/doclens/pkg/executor"
	"github.com/doclens/doclens/pkg/extract"
)

// AnalysisResponse is the result of a document analysis request.
type AnalysisResponse struct {
	ID           string `json:"id"`
	DocumentName string `json:"document_name"`
	DocumentType string `json:"document_type"`
	Result       string `json:"result"`
}

// StatsResponse reports credential pool state. Keys are numbered from 1.
type StatsResponse struct {
	CurrentKey    int            `json:"current_key"`
	TotalKeys     int            `json:"total_keys"`
	RequestCounts map[int]int64  `json:"request_counts"`
	Cooldowns     map[int]string `json:"cooldowns"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := s.pool.Stats()

	counts := make(map[int]int64, stats.TotalKeys)
	for i, n := range stats.RequestCounts {
		counts[i+1] = n
	}

	writeJSON(w, http.StatusOK, StatsResponse{
		CurrentKey:    stats.CurrentKey,
		TotalKeys:     stats.TotalKeys,
		RequestCounts: counts,
		Cooldowns:     stats.CooldownStatus(),
	})
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(int64(s.cfg.MaxUploadMB) << 20); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid multipart form: %v", err))
		return
	}

	file, header, err := r.FormFile("document")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing 'document' file field")
		return
	}
	defer file.Close()

	path, cleanup, err := s.stageUpload(file, header.Filename)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer cleanup()

	text, err := extract.Text(path)
	if err != nil {
		if errors.Is(err, extract.ErrUnsupportedFormat) {
			writeError(w, http.StatusUnsupportedMediaType, err.Error())
			return
		}
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	ctx := r.Context()

	docType, err := s.analyzer.DocumentType(ctx, text)
	if err != nil {
		s.writeAnalysisError(w, err)
		return
	}

	tmplPath, ok := s.scraper.TemplateFor(string(docType))
	if !ok {
		writeError(w, http.StatusFailedDependency,
			fmt.Sprintf("no template configured for %s", docType))
		return
	}
	tmpl, err := extract.ReadJSON(tmplPath)
	if err != nil {
		writeError(w, http.StatusFailedDependency,
			fmt.Sprintf("no template available for %s, run a template refresh first", docType))
		return
	}

	result, err := s.analyzer.Compare(ctx, text, tmpl.Text)
	if err != nil {
		s.writeAnalysisError(w, err)
		return
	}

	s.notifyResult(r, header.Filename, string(docType), result)

	writeJSON(w, http.StatusOK, AnalysisResponse{
		ID:           uuid.NewString(),
		DocumentName: header.Filename,
		DocumentType: string(docType),
		Result:       result,
	})
}

// stageUpload copies the uploaded file into the upload directory under a
// unique name, preserving the extension so the extractor can dispatch on
// it.
func (s *Server) stageUpload(file io.Reader, filename string) (string, func(), error) {
	if err := os.MkdirAll(s.cfg.UploadDir, 0755); err != nil {
		return "", nil, fmt.Errorf("failed to create upload dir: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	path := filepath.Join(s.cfg.UploadDir, uuid.NewString()+ext)

	out, err := os.Create(path)
	if err != nil {
		return "", nil, fmt.Errorf("failed to stage upload: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, file); err != nil {
		os.Remove(path)
		return "", nil, fmt.Errorf("failed to stage upload: %w", err)
	}

	return path, func() { os.Remove(path) }, nil
}

func (s *Server) writeAnalysisError(w http.ResponseWriter, err error) {
	if executor.IsExhausted(err) {
		writeError(w, http.StatusTooManyRequests, err.Error())
		return
	}
	writeError(w, http.StatusBadGateway, err.Error())
}

func (s *Server) notifyResult(r *http.Request, name, docType, result string) {
	if s.alerts == nil {
		return
	}

	subject, body := alert.ComplianceResultMessage(name, docType, result)
	if err := s.alerts.Notify(r.Context(), subject, body); err != nil {
		slog.Error("Failed to send analysis notification", "error", err, "document", name)
	}
}
