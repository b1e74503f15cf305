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
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doclens/doclens/pkg/config"
	"github.com/doclens/doclens/pkg/credential"
	"github.com/doclens/doclens/pkg/metrics"
)

func newTestServer(t *testing.T) (*Server, *credential.Pool) {
	t.Helper()

	pool, err := credential.NewPool([]string{"key-a", "key-b"})
	require.NoError(t, err)

	cfg := config.ServerConfig{}
	cfg.SetDefaults()
	cfg.UploadDir = t.TempDir()

	reg := prometheus.NewRegistry()
	reg.MustRegister(metrics.NewPoolCollector(pool))

	return New(cfg, pool, nil, nil, nil, reg), pool
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv.setupRouting())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestStatsEndpoint(t *testing.T) {
	srv, pool := newTestServer(t)
	ts := httptest.NewServer(srv.setupRouting())
	defer ts.Close()

	pool.Acquire()
	pool.Acquire()
	pool.MarkRateLimited(time.Minute)

	resp, err := http.Get(ts.URL + "/api/stats")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stats StatsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))

	assert.Equal(t, 2, stats.TotalKeys)
	assert.Equal(t, 2, stats.CurrentKey)
	assert.Equal(t, int64(2), stats.RequestCounts[1])
	assert.Contains(t, stats.Cooldowns[1], "Cooldown:")
	assert.Equal(t, "Available", stats.Cooldowns[2])
}

func TestMetricsEndpoint(t *testing.T) {
	srv, pool := newTestServer(t)
	ts := httptest.NewServer(srv.setupRouting())
	defer ts.Close()

	pool.Acquire()

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	buf := new(bytes.Buffer)
	_, _ = buf.ReadFrom(resp.Body)
	assert.Contains(t, buf.String(), "doclens_credential_requests_total")
}

func uploadRequest(t *testing.T, url, field, filename string, content []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	fw, err := w.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req, err := http.NewRequest("POST", url, &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestDocumentMissingField(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv.setupRouting())
	defer ts.Close()

	req := uploadRequest(t, ts.URL+"/api/documents", "wrong_field", "contract.pdf", []byte("data"))
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDocumentUnsupportedFormat(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv.setupRouting())
	defer ts.Close()

	req := uploadRequest(t, ts.URL+"/api/documents", "document", "contract.txt", []byte("plain text"))
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Contains(t, body["error"], "unsupported")
}

func TestDocumentCorruptUpload(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv.setupRouting())
	defer ts.Close()

	req := uploadRequest(t, ts.URL+"/api/documents", "document", "contract.docx", []byte("not a docx"))
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}
