// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package spatial

import (
	"context"
	"regexp"
	"strings"

	"redact-scan/internal/detector"
	"redact-scan/internal/geometry"
	"redact-scan/internal/observability"
	"redact-scan/internal/ocr"
)

const (
	// maxKeySpan bounds how many words a label may occupy.
	maxKeySpan = 3
	// maxValueWords guards against swallowing a whole paragraph when no
	// stop condition fires.
	maxValueWords = 15
)

// keyPattern is one row of the ordered label table: the anchored regex a
// colon-stripped key span must match, the PII type of the value, and the
// fixed confidence of the pairing.
type keyPattern struct {
	name       string
	regex      *regexp.Regexp
	piiType    detector.PIIType
	confidence float64
}

// keyTable is ordered: the first matching row wins for a span. Rows
// below 0.95 only run when the document ruleset prioritizes spatial
// detection.
var keyTable = []keyPattern{
	{"name", regexp.MustCompile(`^(name|full name|customer name|holder name|applicant name)$`), detector.TypeName, 0.99},
	{"dob", regexp.MustCompile(`^(dob|d\.o\.b\.?|date of birth|birth date|born on)$`), detector.TypeDOB, 0.98},
	{"aadhaar", regexp.MustCompile(`^(aadhaar|aadhar|aadhaar no|aadhar no|aadhaar number|uid|vid)$`), detector.TypeAadhaar, 0.97},
	{"pan", regexp.MustCompile(`^(pan|pan no|pan number)$`), detector.TypePAN, 0.97},
	{"phone", regexp.MustCompile(`^(mobile|mobile no|phone|phone no|mob|contact|contact no|tel|telephone|whatsapp)$`), detector.TypePhone, 0.96},
	{"email", regexp.MustCompile(`^(email|e-mail|email id|mail id)$`), detector.TypeEmail, 0.96},
	{"account", regexp.MustCompile(`^(account|account no|account number|a/c|a/c no|acc no)$`), detector.TypeAccountNumber, 0.95},
	{"ifsc", regexp.MustCompile(`^(ifsc|ifsc code)$`), detector.TypeIFSC, 0.95},
	{"address", regexp.MustCompile(`^(address|residential address|permanent address|residence|addr)$`), detector.TypeAddress, 0.95},
	{"relative name", regexp.MustCompile(`^(father'?s? name|mother'?s? name|husband'?s? name|guardian name|s/o|d/o|w/o)$`), detector.TypeName, 0.90},
	{"voter", regexp.MustCompile(`^(voter id|epic no|epic)$`), detector.TypeVoterID, 0.90},
	{"licence", regexp.MustCompile(`^(dl no|licence no|license no|driving licence)$`), detector.TypeDrivingLicence, 0.90},
	{"gstin", regexp.MustCompile(`^(gstin|gst no|gstin no)$`), detector.TypeGSTIN, 0.90},
	{"medical", regexp.MustCompile(`^(blood group|diagnosis|ailment)$`), detector.TypeMedical, 0.85},
}

// Mapper extracts key-value pairs from the word stream. Labels sit at
// the start of a line or carry a trailing colon; values run rightward
// until a stop condition.
type Mapper struct {
	table    []keyPattern
	observer *observability.StandardObserver
}

// NewMapper creates a Mapper. With prioritizeSpatial false only the
// high-confidence table rows are active.
func NewMapper(prioritizeSpatial bool) *Mapper {
	table := keyTable
	if !prioritizeSpatial {
		table = nil
		for _, row := range keyTable {
			if row.confidence >= 0.95 {
				table = append(table, row)
			}
		}
	}
	return &Mapper{table: table}
}

// SetObserver sets the observability component.
func (m *Mapper) SetObserver(observer *observability.StandardObserver) {
	m.observer = observer
}

// Name implements detector.Source.
func (m *Mapper) Name() string {
	return "spatial"
}

// Detect implements detector.Source.
func (m *Mapper) Detect(ctx context.Context, doc *ocr.Document) ([]detector.Entity, error) {
	var finishTiming func(bool, map[string]interface{})
	if m.observer != nil {
		finishTiming = m.observer.StartTiming("spatial_mapper", "detect", doc.Source)
	}

	entities := []detector.Entity{}
	lines := BuildLines(doc.Words)
	for _, line := range lines {
		if err := ctx.Err(); err != nil {
			return entities, err
		}
		entities = append(entities, m.extractFromLine(line)...)
	}

	if finishTiming != nil {
		finishTiming(true, map[string]interface{}{
			"match_count": len(entities),
			"line_count":  len(lines),
		})
	}

	return entities, nil
}

// extractFromLine walks one line, pairing each matched label with the
// words to its right.
func (m *Mapper) extractFromLine(line Line) []detector.Entity {
	var entities []detector.Entity

	i := 0
	for i < len(line.Words) {
		row, span, ok := m.matchKeyAt(line, i)
		if !ok {
			i++
			continue
		}

		keyText := joinWords(line.Words[i : i+span])
		box := unionWords(line.Words[i : i+span])

		var valueWords []ocr.Word
		j := i + span
		for j < len(line.Words) && len(valueWords) < maxValueWords {
			w := line.Words[j]
			if isStandalonePunct(w.Text) {
				// The separator ends the value and is swallowed.
				j++
				break
			}
			if _, _, next := m.matchKeyAt(line, j); next {
				break
			}
			if len(valueWords) > 0 {
				prev := valueWords[len(valueWords)-1].Box
				if w.Box.X-prev.Right() > 2*prev.W {
					break
				}
			}
			valueWords = append(valueWords, w)
			j++
		}

		if len(valueWords) == 0 {
			i += span
			continue
		}

		for _, w := range valueWords {
			box = geometry.Union(box, w.Box)
		}
		entity := detector.NewEntity(row.piiType, joinWords(valueWords), row.confidence, box, detector.LayerSpatial, m.Name())
		entity.Metadata = map[string]any{
			"key":         keyText,
			"key_pattern": row.name,
			"value_words": len(valueWords),
		}
		entities = append(entities, entity)
		i = j
	}

	return entities
}

// matchKeyAt tries to match a label starting at word index i, longest
// span first. A label must carry a trailing colon unless it opens the
// line.
func (m *Mapper) matchKeyAt(line Line, i int) (keyPattern, int, bool) {
	for span := maxKeySpan; span >= 1; span-- {
		if i+span > len(line.Words) {
			continue
		}
		raw := joinWords(line.Words[i : i+span])
		hasColon := strings.HasSuffix(raw, ":")
		if !hasColon && i != 0 {
			continue
		}
		normalized := strings.ToLower(strings.TrimRight(raw, ":."))
		for _, row := range m.table {
			if row.regex.MatchString(normalized) {
				return row, span, true
			}
		}
	}
	return keyPattern{}, 0, false
}

func joinWords(words []ocr.Word) string {
	texts := make([]string, len(words))
	for i, w := range words {
		texts[i] = w.Text
	}
	return strings.Join(texts, " ")
}

func unionWords(words []ocr.Word) geometry.Box {
	box := words[0].Box
	for _, w := range words[1:] {
		box = geometry.Union(box, w.Box)
	}
	return box
}

// isStandalonePunct reports whether a token is only separator
// punctuation.
func isStandalonePunct(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !strings.ContainsRune(".,;:|-_#*", r) {
			return false
		}
	}
	return true
}
