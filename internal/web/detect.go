// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package web

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"redact-scan/internal/formatters"
	"redact-scan/internal/ocr"
	"redact-scan/internal/pipeline"
	"redact-scan/internal/wordsource"
)

// maxFormMemory bounds the in-memory part of multipart parsing; larger
// uploads spill to disk.
const maxFormMemory = 32 << 20

// detectResponse wraps the formatter output for JSON responses. Error is
// set instead of Report when the request fails.
type detectResponse struct {
	Success bool            `json:"success"`
	Report  json.RawMessage `json:"report,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// handleDetect runs the pipeline over one document. A JSON body is read
// as an OCR word dump; anything else is treated as a multipart upload
// with the document under the "file" field.
func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	var (
		doc *ocr.Document
		err error
	)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		doc, err = s.readDumpBody(r)
	} else {
		doc, err = s.readUpload(r)
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	opts, err := s.requestOptions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := pipeline.New(opts).Run(r.Context(), doc)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("detection failed: %v", err))
		return
	}

	format := param(r, "format")
	if format == "" {
		format = "json"
	}
	fmtOpts := formatters.Options{
		Verbose:   param(r, "verbose") == "true",
		ShowValue: param(r, "show_match") == "true",
		NoColor:   true,
	}

	if format == "json" {
		content, err := formatters.Export(format, result, fmtOpts)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, detectResponse{Success: true, Report: json.RawMessage(content)})
		return
	}

	// Non-JSON formats download as a file.
	content, mimeType, filename, err := formatters.ExportForWeb(format, result, fmtOpts)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, content)
}

// readDumpBody decodes an OCR word dump sent as the request body.
func (s *Server) readDumpBody(r *http.Request) (*ocr.Document, error) {
	data, err := io.ReadAll(io.LimitReader(r.Body, wordsource.MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("error reading request body: %w", err)
	}
	if int64(len(data)) > wordsource.MaxFileSize {
		return nil, fmt.Errorf("request body too large (max: %dMB)", wordsource.MaxFileSize/(1024*1024))
	}

	source := param(r, "source")
	if source == "" {
		source = "request"
	}
	return wordsource.ParseDump(data, source)
}

// readUpload saves the uploaded file under its original extension and
// routes it through the word sources.
func (s *Server) readUpload(r *http.Request) (*ocr.Document, error) {
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		return nil, fmt.Errorf("error parsing upload: %w", err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, fmt.Errorf("no file uploaded: %w", err)
	}
	defer func() { _ = file.Close() }()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ok, reason := s.loader.CanLoad(header.Filename); !ok {
		return nil, fmt.Errorf("%s", reason)
	}

	tempFile, err := os.CreateTemp("", "redact_upload_*"+ext)
	if err != nil {
		return nil, fmt.Errorf("error creating temporary file: %w", err)
	}
	tempPath := tempFile.Name()
	defer func() { _ = os.Remove(tempPath) }()

	written, err := io.Copy(tempFile, io.LimitReader(file, wordsource.MaxFileSize+1))
	if closeErr := tempFile.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return nil, fmt.Errorf("error saving upload: %w", err)
	}
	if written > wordsource.MaxFileSize {
		return nil, fmt.Errorf("file too large (max: %dMB)", wordsource.MaxFileSize/(1024*1024))
	}

	doc, err := s.loader.Load(r.Context(), tempPath)
	if err != nil {
		return nil, err
	}
	// Report the caller's filename, not the temp path.
	doc.Source = header.Filename
	return doc, nil
}

// requestOptions layers per-request parameters over the server
// configuration.
func (s *Server) requestOptions(r *http.Request) (pipeline.Options, error) {
	opts := pipeline.Options{
		Threshold:       s.cfg.Defaults.Threshold,
		DedupIoU:        s.cfg.Detection.DedupIoU,
		StrictPatterns:  s.cfg.Detection.StrictPatterns,
		DisabledSources: append([]string(nil), s.cfg.Detection.DisabledSources...),
		AI:              s.ai,
		Suppressions:    s.suppress,
		Observer:        s.observer,
	}

	if v := param(r, "threshold"); v != "" {
		threshold, err := strconv.ParseFloat(v, 64)
		if err != nil || threshold < 0 || threshold > 1 {
			return opts, fmt.Errorf("invalid threshold %q (want 0.0-1.0)", v)
		}
		opts.Threshold = threshold
	}

	fields := param(r, "fields")
	if fields == "" {
		fields = s.cfg.Defaults.Fields
	}
	if fields != "" {
		required, err := pipeline.ParseFields(fields)
		if err != nil {
			return opts, err
		}
		opts.RequiredFields = required
	}

	if param(r, "strict") == "true" {
		opts.StrictPatterns = true
	}
	if v := param(r, "disable"); v != "" {
		opts.DisabledSources = append(opts.DisabledSources, strings.Split(v, ",")...)
	}

	return opts, nil
}

// param reads a request parameter from the query string first, then from
// parsed form data. JSON-body requests only carry query parameters.
func param(r *http.Request, name string) string {
	if v := r.URL.Query().Get(name); v != "" {
		return v
	}
	if r.MultipartForm != nil {
		return r.FormValue(name)
	}
	return ""
}
