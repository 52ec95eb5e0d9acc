// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package wordsource

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"redact-scan/internal/ocr"
)

// ocrJSONLoader reads the OCR engine's word dump: a JSON object with a
// words array (text, confidence, bbox) and an optional full_text.
type ocrJSONLoader struct{}

func newOCRJSONLoader() *ocrJSONLoader {
	return &ocrJSONLoader{}
}

func (l *ocrJSONLoader) Name() string {
	return "OCR word dump"
}

func (l *ocrJSONLoader) Load(_ context.Context, path string) (*ocr.Document, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("error reading OCR dump: %w", err)
	}
	return ParseDump(data, path)
}

// ParseDump decodes an OCR word dump held in memory. The file loader
// wraps it; the web API feeds it JSON request bodies directly.
func ParseDump(data []byte, source string) (*ocr.Document, error) {
	var doc ocr.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("error parsing OCR dump %s: %w", filepath.Base(source), err)
	}
	if len(doc.Words) == 0 && doc.FullText == "" {
		return nil, fmt.Errorf("OCR dump %s contains no words", filepath.Base(source))
	}

	normalizeWords(doc.Words)
	doc.Source = source
	return &doc, nil
}

// normalizeWords repairs the two common engine quirks in place: percentage
// confidences (0-100 instead of 0-1) and an omitted page field on
// single-page documents.
func normalizeWords(words []ocr.Word) {
	maxConfidence := 0.0
	maxPage := 0
	for _, w := range words {
		if w.Confidence > maxConfidence {
			maxConfidence = w.Confidence
		}
		if w.Box.Page > maxPage {
			maxPage = w.Box.Page
		}
	}

	for i := range words {
		if maxConfidence > 1.0 {
			words[i].Confidence /= 100.0
		}
		if words[i].Confidence < 0 {
			words[i].Confidence = 0
		}
		if words[i].Confidence > 1.0 {
			words[i].Confidence = 1.0
		}
		if maxPage == 0 {
			words[i].Box.Page = 1
		}
	}
}
