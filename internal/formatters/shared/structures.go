// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package shared holds the report structures the json and text
// formatters build from a pipeline result, including the value-masking
// policy for display.
package shared

import (
	"redact-scan/internal/detector"
	"redact-scan/internal/formatters"
	"redact-scan/internal/fusion"
	"redact-scan/internal/geometry"
	"redact-scan/internal/pipeline"
	"redact-scan/internal/security"
	"redact-scan/internal/spatial"
)

// Report is the top-level structure for JSON output.
type Report struct {
	Source             string             `json:"source,omitempty"`
	DocumentType       string             `json:"document_type"`
	DocumentConfidence float64            `json:"document_confidence"`
	Findings           []Finding          `json:"findings"`
	Suppressed         []Suppressed       `json:"suppressed,omitempty"`
	Stats              fusion.Stats       `json:"stats"`
	Columns            []spatial.Column   `json:"columns,omitempty"`
}

// Finding is one detected entity in display form. Value is already
// masked according to the entity's flag and the formatter options.
type Finding struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Value      string         `json:"value"`
	Confidence float64        `json:"confidence"`
	Band       string         `json:"band"`
	Layer      string         `json:"layer"`
	Source     string         `json:"source"`
	Box        geometry.Box   `json:"bbox"`
	Masked     bool           `json:"masked"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// Suppressed is one allow-listed finding with its rule context.
type Suppressed struct {
	Finding      Finding `json:"finding"`
	SuppressedBy string  `json:"suppressed_by"`
	RuleReason   string  `json:"rule_reason"`
	ExpiresAt    string  `json:"expires_at,omitempty"`
	Expired      bool    `json:"expired"`
}

// DisplayValue renders an entity's value for output. Masked findings
// keep their last four characters for the identifier categories and
// disappear entirely for free text, where even a suffix identifies a
// person.
func DisplayValue(e detector.Entity, showValue bool) string {
	if showValue || !e.Masked {
		return e.Value
	}
	switch e.Type {
	case detector.TypeName, detector.TypeAddress, detector.TypeMedical, detector.TypeSensitive:
		return security.MaskAll(e.Value)
	default:
		return security.MaskValue(e.Value)
	}
}

// BuildReport converts a pipeline result into display form.
func BuildReport(result *pipeline.Result, options formatters.Options) Report {
	findings := make([]Finding, 0, len(result.Entities))
	for _, e := range result.Entities {
		findings = append(findings, buildFinding(e, options))
	}

	var suppressed []Suppressed
	for _, s := range result.Suppressed {
		entry := Suppressed{
			Finding:      buildFinding(s.Entity, options),
			SuppressedBy: s.SuppressedBy,
			RuleReason:   s.RuleReason,
			Expired:      s.Expired,
		}
		if s.ExpiresAt != nil {
			entry.ExpiresAt = s.ExpiresAt.Format("2006-01-02")
		}
		suppressed = append(suppressed, entry)
	}

	return Report{
		Source:             result.Source,
		DocumentType:       string(result.Classification.Type),
		DocumentConfidence: result.Classification.Confidence,
		Findings:           findings,
		Suppressed:         suppressed,
		Stats:              result.Stats,
		Columns:            result.Columns,
	}
}

func buildFinding(e detector.Entity, options formatters.Options) Finding {
	f := Finding{
		ID:         e.ID,
		Type:       string(e.Type),
		Value:      DisplayValue(e, options.ShowValue),
		Confidence: e.Confidence,
		Band:       fusion.Band(e.Confidence),
		Layer:      e.Layer.String(),
		Source:     e.Source,
		Box:        e.Box,
		Masked:     e.Masked,
	}
	if options.Verbose {
		f.Metadata = e.Metadata
	}
	return f
}
