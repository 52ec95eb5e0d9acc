// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package aadhaar

import (
	"context"
	"regexp"

	"redact-scan/internal/checksum"
	"redact-scan/internal/detector"
	"redact-scan/internal/observability"
	"redact-scan/internal/ocr"
)

// Validator detects Aadhaar numbers: 12 digits, usually grouped 4-4-4,
// never starting with 0 or 1, protected by a Verhoeff check digit.
// Checksum-verified hits are deterministic findings; hits that only match
// the shape are emitted as heuristics so they survive with a reduced score
// instead of being laundered to full confidence.
type Validator struct {
	pattern string
	regex   *regexp.Regexp

	// Keywords that suggest an Aadhaar context
	positiveKeywords []string

	context  *detector.ContextExtractor
	observer *observability.StandardObserver
}

// NewValidator creates and returns a new Validator instance with the
// grouped-digit pattern and context keywords for Aadhaar detection.
func NewValidator() *Validator {
	v := &Validator{
		// 4-4-4 grouping with optional space/dash separators, plus the
		// ungrouped 12-digit run. Boundary groups keep the match from
		// landing inside longer digit sequences.
		pattern: `(?:^|[^0-9])([0-9]{4}[ -]?[0-9]{4}[ -]?[0-9]{4})(?:[^0-9]|$)`,

		positiveKeywords: []string{
			"aadhaar", "aadhar", "adhar", "uid", "uidai", "unique identification",
			"enrolment", "enrollment", "e-aadhaar", "vid",
		},

		context: detector.NewContextExtractor(),
	}

	v.regex = regexp.MustCompile(v.pattern)
	return v
}

// SetObserver sets the observability component.
func (v *Validator) SetObserver(observer *observability.StandardObserver) {
	v.observer = observer
}

// Name implements detector.Source.
func (v *Validator) Name() string {
	return "aadhaar"
}

// Detect implements detector.Source.
func (v *Validator) Detect(ctx context.Context, doc *ocr.Document) ([]detector.Entity, error) {
	var finishTiming func(bool, map[string]interface{})
	if v.observer != nil {
		finishTiming = v.observer.StartTiming("aadhaar_validator", "detect", doc.Source)
	}

	text := doc.Text()
	entities := []detector.Entity{}

	for _, m := range v.regex.FindAllStringSubmatchIndex(text, -1) {
		if err := ctx.Err(); err != nil {
			return entities, err
		}
		start, end := m[2], m[3]
		raw := text[start:end]
		clean := checksum.CleanNumber(raw)
		if len(clean) != 12 {
			continue
		}

		// Aadhaar numbers never start with 0 or 1; those ranges are
		// reserved and anything in them is a different identifier.
		if clean[0] == '0' || clean[0] == '1' {
			continue
		}

		checksumValid := checksum.Verhoeff(clean)
		checks := map[string]bool{
			"length":        true,
			"digits":        true,
			"leading_digit": true,
			"verhoeff":      checksumValid,
		}

		confidence := 1.0
		layer := detector.LayerDeterministic
		contextInfo := v.context.ExtractContext(text, start, end)
		hasContext := contextInfo.ContainsKeyword(v.positiveKeywords)
		if !checksumValid {
			// Shape without checksum: keep it, but only as a heuristic.
			layer = detector.LayerHeuristic
			confidence = 0.55
			if hasContext {
				confidence = 0.70
			}
		}

		box, located := doc.LocateRange(start, end)

		entity := detector.NewEntity(detector.TypeAadhaar, raw, confidence, box, layer, v.Name())
		entity.Metadata = map[string]any{
			"normalized":        clean,
			"validation_checks": checks,
			"context_match":     hasContext,
		}
		if !located {
			entity.Metadata["located"] = false
		}
		entities = append(entities, entity)
	}

	if finishTiming != nil {
		finishTiming(true, map[string]interface{}{
			"match_count": len(entities),
			"text_length": len(text),
		})
	}

	return entities, nil
}
