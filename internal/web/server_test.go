// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package web

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"redact-scan/internal/config"
	"redact-scan/internal/observability"
)

const panDump = `{
	"words": [
		{"text": "Permanent", "confidence": 0.99, "bbox": {"x": 80, "y": 40, "w": 90, "h": 16, "page": 1}},
		{"text": "Account", "confidence": 0.99, "bbox": {"x": 175, "y": 40, "w": 75, "h": 16, "page": 1}},
		{"text": "Number", "confidence": 0.99, "bbox": {"x": 255, "y": 40, "w": 70, "h": 16, "page": 1}},
		{"text": "ABCPE1234F", "confidence": 0.98, "bbox": {"x": 120, "y": 80, "w": 120, "h": 18, "page": 1}}
	]
}`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	for _, key := range []string{"REDACT_DEBUG", "REDACT_SUPPRESSIONS", "REDACT_SENTRY_DSN", "GOOGLE_CLOUD_PROJECT", "GOOGLE_CLOUD_REGION"} {
		t.Setenv(key, "")
	}
	cfg, err := config.LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	observer := observability.NewStandardObserver(observability.ObservabilityOff, io.Discard)
	ts := httptest.NewServer(NewServer(cfg, nil, nil, observer).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func decodeResponse(t *testing.T, resp *http.Response) detectResponse {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	var dr detectResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return dr
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var health map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatalf("decoding health: %v", err)
	}
	if health["status"] != "healthy" {
		t.Errorf("status = %v, want healthy", health["status"])
	}
	if health["service"] != "redact-scan-web" {
		t.Errorf("service = %v, want redact-scan-web", health["service"])
	}
}

func TestVersionEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/version")
	if err != nil {
		t.Fatalf("GET /version: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var info map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		t.Fatalf("decoding version: %v", err)
	}
	if info["version"] == "" {
		t.Error("version missing from response")
	}
}

func TestFormatsEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/v1/formats")
	if err != nil {
		t.Fatalf("GET /api/v1/formats: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var formats []map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&formats); err != nil {
		t.Fatalf("decoding formats: %v", err)
	}
	names := make(map[string]bool)
	for _, f := range formats {
		if name, ok := f["name"].(string); ok {
			names[name] = true
		}
	}
	if !names["json"] || !names["text"] {
		t.Errorf("formats = %v, want json and text", names)
	}
}

func TestTypesEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/v1/types")
	if err != nil {
		t.Fatalf("GET /api/v1/types: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var types []string
	if err := json.NewDecoder(resp.Body).Decode(&types); err != nil {
		t.Fatalf("decoding types: %v", err)
	}
	found := false
	for _, typ := range types {
		if typ == "AADHAAR" {
			found = true
		}
	}
	if !found {
		t.Errorf("types = %v, want AADHAAR present", types)
	}
}

func TestDetect_JSONBody(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/v1/detect?source=pan.json", "application/json", strings.NewReader(panDump))
	if err != nil {
		t.Fatalf("POST /api/v1/detect: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		t.Fatalf("status = %d, body = %s", resp.StatusCode, body)
	}

	dr := decodeResponse(t, resp)
	if !dr.Success {
		t.Fatalf("success = false, error = %s", dr.Error)
	}

	var report struct {
		Source   string `json:"source"`
		Findings []struct {
			Type   string `json:"type"`
			Value  string `json:"value"`
			Masked bool   `json:"masked"`
		} `json:"findings"`
	}
	if err := json.Unmarshal(dr.Report, &report); err != nil {
		t.Fatalf("decoding report: %v", err)
	}
	if report.Source != "pan.json" {
		t.Errorf("source = %q, want pan.json", report.Source)
	}

	var pan *struct {
		Type   string `json:"type"`
		Value  string `json:"value"`
		Masked bool   `json:"masked"`
	}
	for i := range report.Findings {
		if report.Findings[i].Type == "PAN" {
			pan = &report.Findings[i]
		}
	}
	if pan == nil {
		t.Fatalf("no PAN finding in %+v", report.Findings)
	}
	if !pan.Masked {
		t.Error("PAN finding should be masked")
	}
	if pan.Value != "******234F" {
		t.Errorf("value = %q, want ******234F", pan.Value)
	}
}

func TestDetect_ShowMatchRevealsValue(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/v1/detect?show_match=true", "application/json", strings.NewReader(panDump))
	if err != nil {
		t.Fatalf("POST /api/v1/detect: %v", err)
	}
	dr := decodeResponse(t, resp)
	if !dr.Success {
		t.Fatalf("success = false, error = %s", dr.Error)
	}
	if !strings.Contains(string(dr.Report), "ABCPE1234F") {
		t.Error("show_match=true should expose the raw value")
	}
}

func TestDetect_MultipartUpload(t *testing.T) {
	ts := newTestServer(t)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "scan.json")
	if err != nil {
		t.Fatalf("creating form file: %v", err)
	}
	if _, err := part.Write([]byte(panDump)); err != nil {
		t.Fatalf("writing form file: %v", err)
	}
	_ = writer.Close()

	resp, err := http.Post(ts.URL+"/api/v1/detect", writer.FormDataContentType(), &body)
	if err != nil {
		t.Fatalf("POST /api/v1/detect: %v", err)
	}
	dr := decodeResponse(t, resp)
	if !dr.Success {
		t.Fatalf("success = false, error = %s", dr.Error)
	}
	if !strings.Contains(string(dr.Report), `"source": "scan.json"`) &&
		!strings.Contains(string(dr.Report), `"source":"scan.json"`) {
		t.Errorf("report should carry the original filename, got %s", dr.Report)
	}
}

func TestDetect_UnsupportedUpload(t *testing.T) {
	ts := newTestServer(t)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, _ := writer.CreateFormFile("file", "notes.txt")
	_, _ = part.Write([]byte("plain text"))
	_ = writer.Close()

	resp, err := http.Post(ts.URL+"/api/v1/detect", writer.FormDataContentType(), &body)
	if err != nil {
		t.Fatalf("POST /api/v1/detect: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	dr := decodeResponse(t, resp)
	if !strings.Contains(dr.Error, "unsupported file type") {
		t.Errorf("error = %q, want unsupported file type", dr.Error)
	}
}

func TestDetect_InvalidThreshold(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/v1/detect?threshold=5", "application/json", strings.NewReader(panDump))
	if err != nil {
		t.Fatalf("POST /api/v1/detect: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	dr := decodeResponse(t, resp)
	if !strings.Contains(dr.Error, "threshold") {
		t.Errorf("error = %q, want mention of threshold", dr.Error)
	}
}

func TestDetect_EmptyBody(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/v1/detect", "application/json", strings.NewReader(`{"words": []}`))
	if err != nil {
		t.Fatalf("POST /api/v1/detect: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestDetect_TextFormatDownloads(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/v1/detect?format=text", "application/json", strings.NewReader(panDump))
	if err != nil {
		t.Fatalf("POST /api/v1/detect: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type = %q, want text/plain", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "redact-scan-results") {
		t.Errorf("Content-Disposition = %q, want download filename", cd)
	}
	content, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(content), "PAN") {
		t.Errorf("text output should mention the PAN finding, got %s", content)
	}
}

func TestDetect_MethodNotAllowed(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/v1/detect")
	if err != nil {
		t.Fatalf("GET /api/v1/detect: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", resp.StatusCode)
	}
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/v1/detect", nil)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("OPTIONS /api/v1/detect: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
}
