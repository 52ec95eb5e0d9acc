// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package ai

import (
	"strings"
	"unicode"

	"redact-scan/internal/detector"
	"redact-scan/internal/geometry"
	"redact-scan/internal/ocr"
)

// defaultConfidence is used when the model omits a usable score. Fusion
// clamps the result into the model layer's band either way.
const defaultConfidence = 0.70

// Resolve anchors raw model findings to the word stream and turns them
// into entities. Malformed findings are dropped one by one; the batch
// always survives. The dropped count is returned for logging.
func Resolve(doc *ocr.Document, findings []Finding, mode Mode) ([]detector.Entity, int) {
	entities := []detector.Entity{}
	dropped := 0
	for _, f := range findings {
		entity, ok := resolveFinding(doc, f, mode)
		if !ok {
			dropped++
			continue
		}
		entities = append(entities, entity)
	}
	return entities, dropped
}

func resolveFinding(doc *ocr.Document, f Finding, mode Mode) (detector.Entity, bool) {
	category := strings.TrimSpace(f.Category)
	text := strings.TrimSpace(f.Text)
	if category == "" || (text == "" && len(f.WordIDs) == 0) {
		return detector.Entity{}, false
	}

	confidence := f.Confidence
	if confidence <= 0 || confidence > 1 {
		confidence = defaultConfidence
	}
	piiType := MapCategory(category)

	// Word-ID spans are preferred: they resolve to exact boxes and to the
	// document's own text for the value.
	if len(f.WordIDs) > 0 {
		if indices := resolveTokenIDs(f.WordIDs, doc.WordCount()); len(indices) > 0 {
			var box geometry.Box
			parts := make([]string, 0, len(indices))
			for _, idx := range indices {
				box = geometry.Union(box, doc.Words[idx].Box)
				parts = append(parts, doc.Words[idx].Text)
			}
			entity := detector.NewEntity(piiType, strings.Join(parts, " "), confidence, box, detector.LayerAI, "ai")
			entity.Metadata = map[string]any{
				"category": category,
				"match":    "word_ids",
				"mode":     string(mode),
			}
			return entity, true
		}
		// No identifier resolved; fall through to phrase matching if the
		// finding also carried text.
	}

	if text == "" {
		return detector.Entity{}, false
	}

	indices, matched, total := matchPhrase(doc, text)
	if total == 0 || matched*2 < total {
		return detector.Entity{}, false
	}

	var box geometry.Box
	for _, idx := range indices {
		box = geometry.Union(box, doc.Words[idx].Box)
	}
	entity := detector.NewEntity(piiType, text, confidence, box, detector.LayerAI, "ai")
	entity.Metadata = map[string]any{
		"category":       category,
		"match":          "fuzzy",
		"mode":           string(mode),
		"matched_tokens": matched,
		"total_tokens":   total,
	}
	return entity, true
}

// resolveTokenIDs maps identifiers back to word indices, skipping anything
// malformed or out of range, and deduplicates while preserving order.
func resolveTokenIDs(ids []string, wordCount int) []int {
	var indices []int
	seen := make(map[int]bool, len(ids))
	for _, id := range ids {
		idx := ocr.ParseTokenID(strings.TrimSpace(id), wordCount)
		if idx < 0 || seen[idx] {
			continue
		}
		seen[idx] = true
		indices = append(indices, idx)
	}
	return indices
}

// matchPhrase aligns a free-text phrase against the word stream. It slides
// a window the width of the phrase and keeps the alignment that matches
// the most tokens; the first best alignment wins, so resolution is
// deterministic. Returned indices are the matched positions only, which
// keeps the box tight around what was actually found.
func matchPhrase(doc *ocr.Document, phrase string) (indices []int, matched, total int) {
	target := strings.Fields(phrase)
	for i, t := range target {
		target[i] = normalizeToken(t)
	}
	total = len(target)
	if total == 0 || doc.WordCount() < total {
		return nil, 0, total
	}

	words := make([]string, doc.WordCount())
	for i, w := range doc.Words {
		words[i] = normalizeToken(w.Text)
	}

	bestStart, bestCount := -1, 0
	for start := 0; start+total <= len(words); start++ {
		count := 0
		for j := 0; j < total; j++ {
			if tokensMatch(target[j], words[start+j]) {
				count++
			}
		}
		if count > bestCount {
			bestStart, bestCount = start, count
		}
		if bestCount == total {
			break
		}
	}
	if bestStart < 0 {
		return nil, 0, total
	}

	for j := 0; j < total; j++ {
		if tokensMatch(target[j], words[bestStart+j]) {
			indices = append(indices, bestStart+j)
		}
	}
	return indices, bestCount, total
}

// tokensMatch compares normalized tokens, tolerating a single character of
// OCR noise on tokens long enough for that to be safe.
func tokensMatch(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	if a == b {
		return true
	}
	if len(a) < 4 || len(b) < 4 {
		return false
	}
	diff := len(a) - len(b)
	if diff < -1 || diff > 1 {
		return false
	}
	return editDistance(a, b) <= 1
}

// normalizeToken lowercases and strips everything that is not a letter or
// digit, so "Doe," and "doe" compare equal.
func normalizeToken(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// editDistance is the Levenshtein distance, computed with a rolling pair
// of rows since tokens are short.
func editDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(curr[j-1]+1, min(prev[j]+1, prev[j-1]+cost))
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}
