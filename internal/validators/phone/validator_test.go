// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package phone

import (
	"context"
	"testing"

	"redact-scan/internal/detector"
	"redact-scan/internal/ocr"
)

func TestDetect_BareMobile(t *testing.T) {
	v := NewValidator()
	doc := &ocr.Document{FullText: "Mobile: 9876543210"}

	entities, err := v.Detect(context.Background(), doc)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(entities) != 1 {
		t.Fatalf("expected 1 entity, got %d", len(entities))
	}

	e := entities[0]
	if e.Type != detector.TypePhone {
		t.Errorf("type = %q, want PHONE", e.Type)
	}
	if e.Confidence != 1.0 {
		t.Errorf("confidence = %v, want 1.0", e.Confidence)
	}
	if e.Layer != detector.LayerDeterministic {
		t.Errorf("layer = %v, want deterministic", e.Layer)
	}
	if e.Metadata["normalized"] != "9876543210" {
		t.Errorf("normalized = %v", e.Metadata["normalized"])
	}
}

func TestDetect_CountryCodeForms(t *testing.T) {
	v := NewValidator()
	tests := []struct {
		text       string
		normalized string
		country    bool
	}{
		{"+91 9876543210", "9876543210", true},
		{"+91-98765-43210", "9876543210", true},
		{"0091 8765432109", "8765432109", true},
		{"09876543210", "9876543210", false},
		{"98765 43210", "9876543210", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			entities, err := v.Detect(context.Background(), &ocr.Document{FullText: tt.text})
			if err != nil {
				t.Fatalf("Detect failed: %v", err)
			}
			if len(entities) != 1 {
				t.Fatalf("expected 1 entity, got %d", len(entities))
			}
			if entities[0].Metadata["normalized"] != tt.normalized {
				t.Errorf("normalized = %v, want %q", entities[0].Metadata["normalized"], tt.normalized)
			}
			if entities[0].Metadata["country_code"] != tt.country {
				t.Errorf("country_code = %v, want %v", entities[0].Metadata["country_code"], tt.country)
			}
		})
	}
}

func TestDetect_RejectsLandlineRange(t *testing.T) {
	v := NewValidator()
	// First digit below 6 is not a mobile subscriber number.
	doc := &ocr.Document{FullText: "5876543210"}

	entities, err := v.Detect(context.Background(), doc)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(entities) != 0 {
		t.Errorf("first digit 5 should not match, got %d entities", len(entities))
	}
}

func TestDetect_RejectsLongerRuns(t *testing.T) {
	v := NewValidator()
	doc := &ocr.Document{FullText: "account 98765432101234"}

	entities, err := v.Detect(context.Background(), doc)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(entities) != 0 {
		t.Errorf("14-digit run must not contain a phone match, got %d", len(entities))
	}
}

func TestDetect_PlaceholderDemoted(t *testing.T) {
	v := NewValidator()
	doc := &ocr.Document{FullText: "9999999999"}

	entities, err := v.Detect(context.Background(), doc)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(entities) != 1 {
		t.Fatalf("expected 1 entity, got %d", len(entities))
	}
	if entities[0].Confidence != 0.60 || entities[0].Layer != detector.LayerHeuristic {
		t.Errorf("placeholder should be demoted, got conf=%v layer=%v",
			entities[0].Confidence, entities[0].Layer)
	}
}

func TestNormalizeMobile(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		country bool
	}{
		{"+919876543210", "9876543210", true},
		{"+91 98765 43210", "9876543210", true},
		{"00919876543210", "9876543210", true},
		{"09876543210", "9876543210", false},
		{"9876543210", "9876543210", false},
	}

	for _, tt := range tests {
		got, country := normalizeMobile(tt.in)
		if got != tt.want || country != tt.country {
			t.Errorf("normalizeMobile(%q) = (%q, %v), want (%q, %v)",
				tt.in, got, country, tt.want, tt.country)
		}
	}
}
