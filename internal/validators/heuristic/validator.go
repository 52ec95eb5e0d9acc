// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package heuristic implements the dictionary layer: name, address,
// medical, email, and date-of-birth detection over the word stream.
// Everything here is a lookup or a shape check, deliberately simple;
// confidences stay inside [0.50, 0.95] and never reach the deterministic
// layers' certainty.
package heuristic

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"redact-scan/internal/detector"
	"redact-scan/internal/geometry"
	"redact-scan/internal/observability"
	"redact-scan/internal/ocr"
)

var (
	emailShape = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	dateShape  = regexp.MustCompile(`^([0-9]{1,2})[/-]([0-9]{1,2})[/-]([0-9]{4})$`)

	honorifics = map[string]bool{
		"mr": true, "mrs": true, "ms": true, "miss": true, "dr": true,
		"prof": true, "shri": true, "smt": true, "kumari": true, "master": true,
	}
)

// Validator runs the dictionary scans. It holds no per-document state;
// one instance is safe for concurrent use.
type Validator struct {
	observer *observability.StandardObserver
}

// NewValidator creates a dictionary validator.
func NewValidator() *Validator {
	return &Validator{}
}

// SetObserver sets the observability component.
func (v *Validator) SetObserver(observer *observability.StandardObserver) {
	v.observer = observer
}

// Name implements detector.Source.
func (v *Validator) Name() string {
	return "heuristic"
}

// token is one word of the stream with punctuation stripped: display is
// the original casing, lookup the lowercase dictionary key.
type token struct {
	display string
	lookup  string
}

// Detect implements detector.Source.
func (v *Validator) Detect(ctx context.Context, doc *ocr.Document) ([]detector.Entity, error) {
	var finishTiming func(bool, map[string]interface{})
	if v.observer != nil {
		finishTiming = v.observer.StartTiming("heuristic_validator", "detect", doc.Source)
	}

	tokens := tokenize(doc.Words)
	entities := []detector.Entity{}

	for _, pass := range []func([]token, []ocr.Word) []detector.Entity{
		v.detectNames,
		v.detectPinCodes,
		v.detectRegions,
		v.detectMedical,
		v.detectEmails,
		v.detectDates,
	} {
		if err := ctx.Err(); err != nil {
			return entities, err
		}
		entities = append(entities, pass(tokens, doc.Words)...)
	}

	if finishTiming != nil {
		finishTiming(true, map[string]interface{}{
			"match_count": len(entities),
			"word_count":  len(doc.Words),
		})
	}

	return entities, nil
}

// detectNames seeds a candidate on a first-name dictionary hit and
// greedily extends over up to two following dictionary words. The
// confidence ladder rewards longer spans; a leading honorific adds a
// small boost.
func (v *Validator) detectNames(tokens []token, words []ocr.Word) []detector.Entity {
	dicts := loadDictionaries()
	var entities []detector.Entity

	i := 0
	for i < len(tokens) {
		t := tokens[i]
		if !dicts.firstNames[t.lookup] || !isTitleCase(t.display) {
			i++
			continue
		}

		span := []string{t.display}
		box := words[i].Box
		confidence := 0.65
		j := i + 1
		for j < len(tokens) && len(span) < 3 {
			next := tokens[j]
			if !isTitleCase(next.display) {
				break
			}
			if !dicts.firstNames[next.lookup] && !dicts.lastNames[next.lookup] {
				break
			}
			span = append(span, next.display)
			box = geometry.Union(box, words[j].Box)
			if len(span) == 2 {
				confidence = 0.82
			} else {
				confidence = 0.88
			}
			j++
		}

		honored := i > 0 && honorifics[tokens[i-1].lookup]
		if honored {
			confidence += 0.07
			if confidence > 0.95 {
				confidence = 0.95
			}
		}

		entity := detector.NewEntity(detector.TypeName, strings.Join(span, " "), confidence, box, detector.LayerHeuristic, v.Name())
		entity.Metadata = map[string]any{
			"heuristic":  "name",
			"span_words": len(span),
			"honorific":  honored,
		}
		entities = append(entities, entity)
		i = j
	}

	return entities
}

// detectPinCodes finds 6-digit postal codes (first digit 1-8) confirmed
// by an address keyword within the five preceding words.
func (v *Validator) detectPinCodes(tokens []token, words []ocr.Word) []detector.Entity {
	dicts := loadDictionaries()
	var entities []detector.Entity

	for i, t := range tokens {
		if len(t.display) != 6 || !allDigits(t.display) {
			continue
		}
		if t.display[0] < '1' || t.display[0] > '8' {
			continue
		}
		if !windowHasKeyword(tokens, i, dicts.addressWords) {
			continue
		}

		entity := detector.NewEntity(detector.TypeAddress, t.display, 0.75, words[i].Box, detector.LayerHeuristic, v.Name())
		entity.Metadata = map[string]any{"heuristic": "pin_code"}
		entities = append(entities, entity)
	}

	return entities
}

// detectRegions matches state and city names, preferring two-word
// phrases over single words.
func (v *Validator) detectRegions(tokens []token, words []ocr.Word) []detector.Entity {
	dicts := loadDictionaries()
	var entities []detector.Entity

	i := 0
	for i < len(tokens) {
		matched := 0
		for n := 2; n >= 1; n-- {
			if i+n > len(tokens) {
				continue
			}
			if !isTitleCase(tokens[i].display) {
				break
			}
			if dicts.regions[phraseKey(tokens[i:i+n])] {
				matched = n
				break
			}
		}
		if matched == 0 {
			i++
			continue
		}

		confidence := 0.70
		if matched == 2 {
			confidence = 0.78
		}
		value, box := spanOf(tokens, words, i, matched)
		entity := detector.NewEntity(detector.TypeAddress, value, confidence, box, detector.LayerHeuristic, v.Name())
		entity.Metadata = map[string]any{"heuristic": "region"}
		entities = append(entities, entity)
		i += matched
	}

	return entities
}

// detectMedical matches the medical vocabulary, single words and
// two-word phrases. Medical terms appear lowercase in running text, so
// no casing requirement applies.
func (v *Validator) detectMedical(tokens []token, words []ocr.Word) []detector.Entity {
	dicts := loadDictionaries()
	var entities []detector.Entity

	i := 0
	for i < len(tokens) {
		matched := 0
		for n := 2; n >= 1; n-- {
			if i+n > len(tokens) {
				continue
			}
			if dicts.medicalTerms[phraseKey(tokens[i:i+n])] {
				matched = n
				break
			}
		}
		if matched == 0 {
			i++
			continue
		}

		confidence := 0.70
		if matched == 2 {
			confidence = 0.78
		}
		value, box := spanOf(tokens, words, i, matched)
		entity := detector.NewEntity(detector.TypeMedical, value, confidence, box, detector.LayerHeuristic, v.Name())
		entity.Metadata = map[string]any{"heuristic": "medical"}
		entities = append(entities, entity)
		i += matched
	}

	return entities
}

// detectEmails applies the strict single-token address shape.
func (v *Validator) detectEmails(tokens []token, words []ocr.Word) []detector.Entity {
	var entities []detector.Entity

	for i, t := range tokens {
		if !emailShape.MatchString(t.display) {
			continue
		}
		entity := detector.NewEntity(detector.TypeEmail, t.display, 0.90, words[i].Box, detector.LayerHeuristic, v.Name())
		entity.Metadata = map[string]any{"heuristic": "email"}
		entities = append(entities, entity)
	}

	return entities
}

// detectDates finds day/month/year tokens inside plausible birth-date
// bounds. Nearby birth wording lifts the score.
func (v *Validator) detectDates(tokens []token, words []ocr.Word) []detector.Entity {
	var entities []detector.Entity

	for i, t := range tokens {
		m := dateShape.FindStringSubmatch(t.display)
		if m == nil {
			continue
		}
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		if day < 1 || day > 31 || month < 1 || month > 12 || year < 1920 || year > 2010 {
			continue
		}

		confidence := 0.70
		hasContext := windowHasBirthContext(tokens, i)
		if hasContext {
			confidence = 0.90
		}

		entity := detector.NewEntity(detector.TypeDOB, t.display, confidence, words[i].Box, detector.LayerHeuristic, v.Name())
		entity.Metadata = map[string]any{
			"heuristic":     "date_of_birth",
			"context_match": hasContext,
		}
		entities = append(entities, entity)
	}

	return entities
}

func tokenize(words []ocr.Word) []token {
	tokens := make([]token, len(words))
	for i, w := range words {
		display := strings.Trim(w.Text, ".,:;!?()[]{}\"'")
		tokens[i] = token{display: display, lookup: strings.ToLower(display)}
	}
	return tokens
}

// phraseKey joins token lookups into the space-separated dictionary key.
func phraseKey(tokens []token) string {
	parts := make([]string, len(tokens))
	for i, t := range tokens {
		parts[i] = t.lookup
	}
	return strings.Join(parts, " ")
}

// spanOf returns the display text and union box for tokens[i:i+n].
func spanOf(tokens []token, words []ocr.Word, i, n int) (string, geometry.Box) {
	parts := make([]string, n)
	box := words[i].Box
	for k := 0; k < n; k++ {
		parts[k] = tokens[i+k].display
		box = geometry.Union(box, words[i+k].Box)
	}
	return strings.Join(parts, " "), box
}

// windowHasKeyword reports whether any of the five words before index i
// is in the keyword set.
func windowHasKeyword(tokens []token, i int, keywords map[string]bool) bool {
	start := i - 5
	if start < 0 {
		start = 0
	}
	for k := start; k < i; k++ {
		if keywords[tokens[k].lookup] {
			return true
		}
	}
	return false
}

// windowHasBirthContext reports whether the five words before index i
// mention a date of birth.
func windowHasBirthContext(tokens []token, i int) bool {
	start := i - 5
	if start < 0 {
		start = 0
	}
	for k := start; k < i; k++ {
		lookup := tokens[k].lookup
		if lookup == "dob" || lookup == "d.o.b" || lookup == "born" || strings.Contains(lookup, "birth") {
			return true
		}
	}
	return false
}

func isTitleCase(s string) bool {
	for _, r := range s {
		return unicode.IsUpper(r)
	}
	return false
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
