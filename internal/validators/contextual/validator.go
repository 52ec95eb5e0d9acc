// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package contextual implements the enhanced pattern layer: identifier
// shapes that are only trustworthy next to their labels. Each class pairs
// a regex with the context keywords that license it.
package contextual

import (
	"context"
	"regexp"

	"redact-scan/internal/checksum"
	"redact-scan/internal/detector"
	"redact-scan/internal/observability"
	"redact-scan/internal/ocr"
)

// idPattern is one identifier class: shape, confidence, and the context
// keywords that must appear near a match.
type idPattern struct {
	name       string
	piiType    detector.PIIType
	regex      *regexp.Regexp
	confidence float64
	keywords   []string

	// bareInLenient marks shapes distinctive enough to stand alone when
	// strict patterns are off.
	bareInLenient bool
}

// Validator detects labeled identifiers: bank accounts, IFSC codes,
// GSTINs, passports, voter IDs, and driving licences.
type Validator struct {
	patterns []idPattern
	strict   bool

	context  *detector.ContextExtractor
	observer *observability.StandardObserver
}

// NewValidator creates a Validator. strict requires context keywords for
// every class; lenient lets the structurally distinctive shapes (IFSC,
// GSTIN) match bare.
func NewValidator(strict bool) *Validator {
	return &Validator{
		strict:  strict,
		context: detector.NewContextExtractor(),
		patterns: []idPattern{
			{
				name:       "account",
				piiType:    detector.TypeAccountNumber,
				regex:      regexp.MustCompile(`(?:^|[^0-9])([0-9]{9,18})(?:[^0-9]|$)`),
				confidence: 0.95,
				keywords: []string{
					"account", "a/c", "acct", "acc no", "savings", "current",
					"deposit", "bank", "beneficiary",
				},
			},
			{
				name:       "ifsc",
				piiType:    detector.TypeIFSC,
				regex:      regexp.MustCompile(`(?:^|[^A-Z0-9])([A-Z]{4}0[A-Z0-9]{6})(?:[^A-Z0-9]|$)`),
				confidence: 0.97,
				keywords: []string{
					"ifsc", "branch", "rtgs", "neft", "imps", "bank",
				},
				bareInLenient: true,
			},
			{
				name:       "gstin",
				piiType:    detector.TypeGSTIN,
				regex:      regexp.MustCompile(`(?:^|[^A-Z0-9])([0-9]{2}[A-Z]{5}[0-9]{4}[A-Z][0-9A-Z]Z[0-9A-Z])(?:[^A-Z0-9]|$)`),
				confidence: 0.98,
				keywords: []string{
					"gst", "gstin", "tax invoice", "cgst", "sgst", "igst",
				},
				bareInLenient: true,
			},
			{
				name:       "passport",
				piiType:    detector.TypePassport,
				regex:      regexp.MustCompile(`(?:^|[^A-Z0-9])([A-Z][0-9]{7})(?:[^A-Z0-9]|$)`),
				confidence: 0.95,
				keywords: []string{
					"passport", "republic of india", "nationality", "place of issue",
				},
			},
			{
				name:       "voter",
				piiType:    detector.TypeVoterID,
				regex:      regexp.MustCompile(`(?:^|[^A-Z0-9])([A-Z]{3}[0-9]{7})(?:[^A-Z0-9]|$)`),
				confidence: 0.95,
				keywords: []string{
					"voter", "elector", "epic", "election commission",
				},
			},
			{
				name:       "licence",
				piiType:    detector.TypeDrivingLicence,
				regex:      regexp.MustCompile(`(?:^|[^A-Z0-9])([A-Z]{2}[0-9]{2}[ -]?[0-9]{11})(?:[^A-Z0-9]|$)`),
				confidence: 0.95,
				keywords: []string{
					"driving", "licence", "license", "dl no", "transport", "rto",
				},
			},
		},
	}
}

// SetObserver sets the observability component.
func (v *Validator) SetObserver(observer *observability.StandardObserver) {
	v.observer = observer
}

// Name implements detector.Source.
func (v *Validator) Name() string {
	return "contextual"
}

// Detect implements detector.Source.
func (v *Validator) Detect(ctx context.Context, doc *ocr.Document) ([]detector.Entity, error) {
	var finishTiming func(bool, map[string]interface{})
	if v.observer != nil {
		finishTiming = v.observer.StartTiming("contextual_validator", "detect", doc.Source)
	}

	text := doc.Text()
	entities := []detector.Entity{}

	for _, p := range v.patterns {
		if err := ctx.Err(); err != nil {
			return entities, err
		}
		for _, m := range p.regex.FindAllStringSubmatchIndex(text, -1) {
			start, end := m[2], m[3]
			value := text[start:end]

			if !v.admit(p, value) {
				continue
			}

			contextInfo := v.context.ExtractContext(text, start, end)
			hasContext := contextInfo.ContainsKeyword(p.keywords)
			if !hasContext && (v.strict || !p.bareInLenient) {
				continue
			}

			box, located := doc.LocateRange(start, end)

			entity := detector.NewEntity(p.piiType, value, p.confidence, box, detector.LayerEnhanced, v.Name())
			entity.Metadata = map[string]any{
				"pattern":       p.name,
				"context_match": hasContext,
				"strict_mode":   v.strict,
			}
			if !located {
				entity.Metadata["located"] = false
			}
			entities = append(entities, entity)
		}
	}

	if finishTiming != nil {
		finishTiming(true, map[string]interface{}{
			"match_count": len(entities),
			"text_length": len(text),
		})
	}

	return entities, nil
}

// admit applies the per-class structural screens that plain regexes
// cannot express.
func (v *Validator) admit(p idPattern, value string) bool {
	switch p.name {
	case "account":
		clean := checksum.CleanNumber(value)
		// Verhoeff-valid 12-digit numbers are Aadhaar, and the
		// deterministic layer owns them.
		if len(clean) == 12 && checksum.Verhoeff(clean) {
			return false
		}
		return true
	case "gstin":
		// Characters 3-12 embed the holder's PAN.
		return checksum.ValidPAN(value[2:12])
	default:
		return true
	}
}
