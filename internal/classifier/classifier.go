// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package classifier assigns a document type from keyword evidence and
// derives the detection ruleset for that type. Classification is a
// share-of-evidence score, not NLP: each type's keyword hits are
// weighted by phrase length and the winner's confidence is its share of
// the total.
package classifier

import (
	"sort"
	"strings"

	"redact-scan/internal/observability"
	"redact-scan/internal/ocr"
)

// DocumentType is the closed set of document classes.
type DocumentType string

const (
	TypeAadhaarCard   DocumentType = "aadhaar_card"
	TypePANCard       DocumentType = "pan_card"
	TypePassport      DocumentType = "passport"
	TypeBankStatement DocumentType = "bank_statement"
	TypeMedicalReport DocumentType = "medical_report"
	TypeTaxInvoice    DocumentType = "tax_invoice"
	TypeSalarySlip    DocumentType = "salary_slip"
	TypeGeneric       DocumentType = "generic"
)

// DocumentTypes returns the classifiable types in alphabetical order,
// which is also the tie-break order.
func DocumentTypes() []DocumentType {
	types := make([]DocumentType, 0, len(typeKeywords))
	for t := range typeKeywords {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// typeKeywords drives scoring. Multi-word phrases carry their word count
// as weight, so one specific phrase outranks several generic words.
var typeKeywords = map[DocumentType][]string{
	TypeAadhaarCard: {
		"aadhaar", "aadhar", "unique identification", "uidai", "enrolment no",
		"vid", "government of india", "mera aadhaar",
	},
	TypePANCard: {
		"income tax department", "permanent account number", "pan",
		"govt. of india", "signature",
	},
	TypePassport: {
		"republic of india", "passport", "nationality", "place of birth",
		"place of issue", "surname", "given name",
	},
	TypeBankStatement: {
		"account statement", "statement of account", "ifsc", "branch",
		"opening balance", "closing balance", "withdrawal", "deposit",
		"transaction", "neft", "upi",
	},
	TypeMedicalReport: {
		"patient", "diagnosis", "hospital", "clinic", "prescription",
		"laboratory", "specimen", "pathology", "consultant",
	},
	TypeTaxInvoice: {
		"tax invoice", "gstin", "invoice no", "hsn", "cgst", "sgst", "igst",
		"taxable value", "bill to",
	},
	TypeSalarySlip: {
		"salary slip", "pay slip", "payslip", "earnings", "deductions",
		"basic pay", "hra", "net pay", "gross salary", "employee code",
		"pf no",
	},
}

// Classification is the scoring outcome: the winning type, its share of
// the total evidence, and the per-type scores for observability.
type Classification struct {
	Type       DocumentType             `json:"type"`
	Confidence float64                  `json:"confidence"`
	Scores     map[DocumentType]float64 `json:"scores,omitempty"`
}

// Classifier scores a document's text against the keyword table.
type Classifier struct {
	observer *observability.StandardObserver
}

// NewClassifier creates a document classifier.
func NewClassifier() *Classifier {
	return &Classifier{}
}

// SetObserver sets the observability component.
func (c *Classifier) SetObserver(observer *observability.StandardObserver) {
	c.observer = observer
}

// Classify scores the full text and picks the winner. Ties resolve
// alphabetically; zero evidence yields the generic type at confidence 0.
func (c *Classifier) Classify(doc *ocr.Document) Classification {
	var finishTiming func(bool, map[string]interface{})
	if c.observer != nil {
		finishTiming = c.observer.StartTiming("classifier", "classify", doc.Source)
	}

	text := strings.ToLower(doc.Text())
	scores := make(map[DocumentType]float64, len(typeKeywords))
	total := 0.0
	for t, keywords := range typeKeywords {
		score := 0.0
		for _, keyword := range keywords {
			if strings.Contains(text, keyword) {
				score += float64(len(strings.Fields(keyword)))
			}
		}
		scores[t] = score
		total += score
	}

	result := Classification{Type: TypeGeneric, Scores: scores}
	if total > 0 {
		best := DocumentType("")
		for _, t := range DocumentTypes() {
			if best == "" || scores[t] > scores[best] {
				best = t
			}
		}
		result.Type = best
		result.Confidence = scores[best] / total
		if result.Confidence > 0.95 {
			result.Confidence = 0.95
		}
	}

	if finishTiming != nil {
		finishTiming(true, map[string]interface{}{
			"document_type": string(result.Type),
			"confidence":    result.Confidence,
		})
	}

	return result
}

// Ruleset gates the downstream detection layers for a document type.
// Stateless; recomputed every run.
type Ruleset struct {
	// PrioritizeSpatial activates the full key-value table instead of
	// only its high-confidence rows.
	PrioritizeSpatial bool
	// DetectTables turns on advisory column grouping.
	DetectTables bool
	// StrictPatterns makes the contextual validator require labels for
	// every identifier class.
	StrictPatterns bool
	// SkipHeuristic disables the dictionary layer entirely.
	SkipHeuristic bool
	// Boost multiplies surviving confidences after the threshold filter,
	// capped at 1.0. Always within [1.0, 1.3].
	Boost float64
}

// RulesetFor maps a document type onto its detection ruleset.
func RulesetFor(t DocumentType) Ruleset {
	switch t {
	case TypeAadhaarCard:
		return Ruleset{PrioritizeSpatial: true, Boost: 1.2}
	case TypePANCard:
		return Ruleset{PrioritizeSpatial: true, Boost: 1.2}
	case TypePassport:
		return Ruleset{PrioritizeSpatial: true, Boost: 1.15}
	case TypeBankStatement:
		return Ruleset{DetectTables: true, StrictPatterns: true, Boost: 1.1}
	case TypeMedicalReport:
		return Ruleset{Boost: 1.25}
	case TypeTaxInvoice:
		return Ruleset{DetectTables: true, StrictPatterns: true, SkipHeuristic: true, Boost: 1.0}
	case TypeSalarySlip:
		return Ruleset{DetectTables: true, Boost: 1.1}
	default:
		return Ruleset{Boost: 1.0}
	}
}
