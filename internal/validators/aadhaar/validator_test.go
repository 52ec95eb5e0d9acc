// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package aadhaar

import (
	"context"
	"testing"

	"redact-scan/internal/detector"
	"redact-scan/internal/geometry"
	"redact-scan/internal/ocr"
)

func docFromWords(words ...string) *ocr.Document {
	doc := &ocr.Document{}
	for i, w := range words {
		doc.Words = append(doc.Words, ocr.Word{
			Text:       w,
			Confidence: 0.95,
			Box:        geometry.Box{X: float64(i * 70), Y: 40, W: 60, H: 14},
		})
	}
	return doc
}

func TestDetect_ValidChecksum(t *testing.T) {
	v := NewValidator()
	doc := docFromWords("Aadhaar", "No:", "2345", "6789", "0124")

	entities, err := v.Detect(context.Background(), doc)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(entities) != 1 {
		t.Fatalf("expected 1 entity, got %d", len(entities))
	}

	e := entities[0]
	if e.Type != detector.TypeAadhaar {
		t.Errorf("type = %q, want AADHAAR", e.Type)
	}
	if e.Confidence != 1.0 {
		t.Errorf("confidence = %v, want 1.0", e.Confidence)
	}
	if e.Layer != detector.LayerDeterministic {
		t.Errorf("layer = %v, want deterministic", e.Layer)
	}
	if e.Value != "2345 6789 0124" {
		t.Errorf("value = %q", e.Value)
	}
	if !e.Masked {
		t.Error("entity must start masked")
	}
	if e.Box.IsZero() {
		t.Error("box should cover the matched words")
	}
}

func TestDetect_InvalidChecksumDemoted(t *testing.T) {
	v := NewValidator()
	doc := docFromWords("2345", "6789", "0123")

	entities, err := v.Detect(context.Background(), doc)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(entities) != 1 {
		t.Fatalf("expected 1 entity, got %d", len(entities))
	}

	e := entities[0]
	if e.Layer != detector.LayerHeuristic {
		t.Errorf("checksum-failed hit should drop to the heuristic layer, got %v", e.Layer)
	}
	if e.Confidence != 0.55 {
		t.Errorf("confidence = %v, want 0.55", e.Confidence)
	}
	checks, ok := e.Metadata["validation_checks"].(map[string]bool)
	if !ok || checks["verhoeff"] {
		t.Errorf("verhoeff check should be recorded as failed: %v", e.Metadata)
	}
}

func TestDetect_InvalidChecksumWithContext(t *testing.T) {
	v := NewValidator()
	doc := docFromWords("Aadhaar", "Number", "2345", "6789", "0123")

	entities, err := v.Detect(context.Background(), doc)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(entities) != 1 {
		t.Fatalf("expected 1 entity, got %d", len(entities))
	}
	if entities[0].Confidence != 0.70 {
		t.Errorf("context should lift the demoted score to 0.70, got %v", entities[0].Confidence)
	}
}

func TestDetect_RejectsReservedLeadingDigits(t *testing.T) {
	v := NewValidator()

	for _, words := range [][]string{
		{"0345", "6789", "0124"},
		{"1345", "6789", "0124"},
	} {
		entities, err := v.Detect(context.Background(), docFromWords(words...))
		if err != nil {
			t.Fatalf("Detect failed: %v", err)
		}
		if len(entities) != 0 {
			t.Errorf("leading %s should be rejected, got %d entities", words[0][:1], len(entities))
		}
	}
}

func TestDetect_IgnoresLongerDigitRuns(t *testing.T) {
	v := NewValidator()
	doc := &ocr.Document{FullText: "ref 2345678901241 done"}

	entities, err := v.Detect(context.Background(), doc)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(entities) != 0 {
		t.Errorf("13-digit run must not contain an Aadhaar match, got %d", len(entities))
	}
}

func TestDetect_EmptyDocument(t *testing.T) {
	v := NewValidator()

	entities, err := v.Detect(context.Background(), &ocr.Document{})
	if err != nil {
		t.Fatalf("empty input must not error: %v", err)
	}
	if len(entities) != 0 {
		t.Errorf("expected no entities, got %d", len(entities))
	}
}

func TestDetect_UnlocatableRangeKeepsDetection(t *testing.T) {
	v := NewValidator()
	// Full text carries a number the word stream does not.
	doc := &ocr.Document{
		Words:    []ocr.Word{{Text: "unrelated", Box: geometry.Box{X: 0, Y: 0, W: 50, H: 10}}},
		FullText: "unrelated 2345 6789 0124",
	}

	entities, err := v.Detect(context.Background(), doc)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(entities) != 1 {
		t.Fatalf("expected the detection to survive, got %d entities", len(entities))
	}
	if located, exists := entities[0].Metadata["located"]; !exists || located != false {
		t.Error("placeholder detection should carry located=false metadata")
	}
	if !entities[0].Box.IsZero() {
		t.Error("placeholder box should be degenerate")
	}
}
