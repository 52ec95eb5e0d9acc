// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package phone

import (
	"context"
	"regexp"
	"strings"

	"redact-scan/internal/checksum"
	"redact-scan/internal/detector"
	"redact-scan/internal/observability"
	"redact-scan/internal/ocr"
)

// Validator detects Indian mobile numbers: ten digits with a first digit
// of 6-9, optionally preceded by +91, 0091, or a trunk 0. The number space
// is closed enough that a bare shape match is already deterministic.
type Validator struct {
	pattern string
	regex   *regexp.Regexp

	positiveKeywords []string

	context  *detector.ContextExtractor
	observer *observability.StandardObserver
}

// NewValidator creates and returns a new Validator instance with the
// mobile number patterns and context keywords.
func NewValidator() *Validator {
	v := &Validator{
		// Optional +91/0091/0 prefix, then [6-9] and nine digits with an
		// optional 5-5 group separator. Boundary groups keep the match
		// out of longer digit runs (Aadhaar, accounts, cards).
		pattern: `(?:^|[^0-9+])((?:\+91[ -]?|0091[ -]?|0)?[6-9][0-9]{4}[ -]?[0-9]{5})(?:[^0-9]|$)`,

		positiveKeywords: []string{
			"phone", "mobile", "tel", "telephone", "cell", "contact",
			"whatsapp", "call", "sms", "otp", "helpline", "customer care",
			"registered mobile",
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
	return "phone"
}

// Detect implements detector.Source.
func (v *Validator) Detect(ctx context.Context, doc *ocr.Document) ([]detector.Entity, error) {
	var finishTiming func(bool, map[string]interface{})
	if v.observer != nil {
		finishTiming = v.observer.StartTiming("phone_validator", "detect", doc.Source)
	}

	text := doc.Text()
	entities := []detector.Entity{}

	for _, m := range v.regex.FindAllStringSubmatchIndex(text, -1) {
		if err := ctx.Err(); err != nil {
			return entities, err
		}
		start, end := m[2], m[3]
		raw := text[start:end]

		normalized, hadCountryCode := normalizeMobile(raw)
		if len(normalized) != 10 {
			continue
		}

		checks := map[string]bool{
			"length":      true,
			"first_digit": true,
			"not_test":    !isRepeatedDigit(normalized),
		}

		confidence := 1.0
		layer := detector.LayerDeterministic
		if !checks["not_test"] {
			// All-same-digit numbers are placeholders, not subscribers.
			confidence = 0.60
			layer = detector.LayerHeuristic
		}

		contextInfo := v.context.ExtractContext(text, start, end)
		box, located := doc.LocateRange(start, end)

		entity := detector.NewEntity(detector.TypePhone, raw, confidence, box, layer, v.Name())
		entity.Metadata = map[string]any{
			"normalized":        normalized,
			"country_code":      hadCountryCode,
			"validation_checks": checks,
			"context_match":     contextInfo.ContainsKeyword(v.positiveKeywords),
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

// normalizeMobile strips separators and the dialing prefix, returning the
// bare ten-digit subscriber number.
func normalizeMobile(raw string) (string, bool) {
	clean := checksum.CleanNumber(strings.TrimSpace(raw))
	hadCountryCode := false

	switch {
	case strings.HasPrefix(clean, "+91"):
		clean = clean[3:]
		hadCountryCode = true
	case strings.HasPrefix(clean, "0091"):
		clean = clean[4:]
		hadCountryCode = true
	case len(clean) == 11 && clean[0] == '0':
		clean = clean[1:]
	}

	return clean, hadCountryCode
}

func isRepeatedDigit(number string) bool {
	for i := 1; i < len(number); i++ {
		if number[i] != number[0] {
			return false
		}
	}
	return len(number) > 0
}
