// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package wordsource turns input files into OCR word streams. A router
// picks the loader by extension: .json for the OCR engine's word dump,
// .pdf for born-digital PDFs whose text carries its own positions.
package wordsource

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"redact-scan/internal/observability"
	"redact-scan/internal/ocr"
)

// MaxFileSize is the maximum input size the router will load (100 MB).
const MaxFileSize = int64(100 * 1024 * 1024)

// Loader reads one input format into a word stream.
type Loader interface {
	Name() string
	Load(ctx context.Context, path string) (*ocr.Document, error)
}

// Router dispatches a path to the loader registered for its extension.
type Router struct {
	loaders  map[string]Loader
	observer *observability.StandardObserver
}

// NewRouter creates a router with the built-in loaders registered.
func NewRouter() *Router {
	r := &Router{loaders: make(map[string]Loader)}
	r.RegisterLoader(".json", newOCRJSONLoader())
	r.RegisterLoader(".pdf", newPDFLoader())
	return r
}

// SetObserver sets the observability component.
func (r *Router) SetObserver(observer *observability.StandardObserver) {
	r.observer = observer
}

// RegisterLoader binds a loader to a file extension (with leading dot).
func (r *Router) RegisterLoader(ext string, loader Loader) {
	r.loaders[strings.ToLower(ext)] = loader
}

// Supported returns the registered extensions in sorted order.
func (r *Router) Supported() []string {
	exts := make([]string, 0, len(r.loaders))
	for ext := range r.loaders {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// CanLoad reports whether a file can be loaded, with a reason.
func (r *Router) CanLoad(path string) (bool, string) {
	ext := strings.ToLower(filepath.Ext(path))
	loader, ok := r.loaders[ext]
	if !ok {
		return false, fmt.Sprintf("unsupported file type %q (supported: %s)",
			ext, strings.Join(r.Supported(), ", "))
	}

	if info, err := os.Stat(filepath.Clean(path)); err == nil {
		if info.Size() > MaxFileSize {
			return false, fmt.Sprintf("file too large (max: %dMB)", MaxFileSize/(1024*1024))
		}
	}

	return true, loader.Name()
}

// Load reads the file into a word stream using the loader registered for
// its extension.
func (r *Router) Load(ctx context.Context, path string) (*ocr.Document, error) {
	var finishTiming func(bool, map[string]interface{})
	if r.observer != nil {
		finishTiming = r.observer.StartTiming("wordsource", "load", path)
	}

	ok, reason := r.CanLoad(path)
	if !ok {
		if finishTiming != nil {
			finishTiming(false, map[string]interface{}{"error": reason})
		}
		return nil, fmt.Errorf("%s", reason)
	}

	ext := strings.ToLower(filepath.Ext(path))
	doc, err := r.loaders[ext].Load(ctx, path)
	if finishTiming != nil {
		if err != nil {
			finishTiming(false, map[string]interface{}{"error": err.Error()})
		} else {
			finishTiming(true, map[string]interface{}{
				"loader":     r.loaders[ext].Name(),
				"word_count": doc.WordCount(),
			})
		}
	}
	return doc, err
}
