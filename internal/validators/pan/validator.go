// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package pan

import (
	"context"
	"regexp"

	"redact-scan/internal/checksum"
	"redact-scan/internal/detector"
	"redact-scan/internal/observability"
	"redact-scan/internal/ocr"
)

// Validator detects PAN (Permanent Account Number) identifiers: five
// uppercase letters, four digits, one uppercase letter. The fourth letter
// encodes the holder category and only a fixed set is ever issued, which
// separates real PANs from random alphanumeric runs.
type Validator struct {
	pattern string
	regex   *regexp.Regexp

	positiveKeywords []string

	context  *detector.ContextExtractor
	observer *observability.StandardObserver
}

// NewValidator creates and returns a new Validator instance for PAN
// detection.
func NewValidator() *Validator {
	v := &Validator{
		// PANs are printed without separators. Boundary groups prevent
		// matches inside longer alphanumeric identifiers.
		pattern: `(?:^|[^A-Z0-9])([A-Z]{5}[0-9]{4}[A-Z])(?:[^A-Z0-9]|$)`,

		positiveKeywords: []string{
			"pan", "permanent account", "income tax", "tax deduction",
			"assessee", "tan", "form 16", "form 26as", "itr",
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
	return "pan"
}

// Detect implements detector.Source.
func (v *Validator) Detect(ctx context.Context, doc *ocr.Document) ([]detector.Entity, error) {
	var finishTiming func(bool, map[string]interface{})
	if v.observer != nil {
		finishTiming = v.observer.StartTiming("pan_validator", "detect", doc.Source)
	}

	text := doc.Text()
	entities := []detector.Entity{}

	for _, m := range v.regex.FindAllStringSubmatchIndex(text, -1) {
		if err := ctx.Err(); err != nil {
			return entities, err
		}
		start, end := m[2], m[3]
		value := text[start:end]

		holderClass, holderValid := checksum.PANHolderClass(value[3])
		checks := map[string]bool{
			"shape":        true,
			"holder_class": holderValid,
		}

		contextInfo := v.context.ExtractContext(text, start, end)
		hasContext := contextInfo.ContainsKeyword(v.positiveKeywords)

		confidence := 1.0
		layer := detector.LayerDeterministic
		if !holderValid {
			layer = detector.LayerHeuristic
			confidence = 0.55
			if hasContext {
				confidence = 0.70
			}
		}

		box, located := doc.LocateRange(start, end)

		entity := detector.NewEntity(detector.TypePAN, value, confidence, box, layer, v.Name())
		entity.Metadata = map[string]any{
			"validation_checks": checks,
			"context_match":     hasContext,
		}
		if holderValid {
			entity.Metadata["holder_class"] = holderClass
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
