// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package detector

import "strings"

// ContextInfo is the text neighborhood of a match inside the scan text,
// used by validators for keyword analysis.
type ContextInfo struct {
	// Text before and after the match, clipped to the window
	BeforeText string
	AfterText  string

	// Line of the scan text containing the match
	FullLine string
}

// ContextExtractor builds ContextInfo windows around character ranges of
// the scan text.
type ContextExtractor struct {
	// Number of characters before and after the match to consider
	ContextChars int
}

// NewContextExtractor creates a context extractor with default settings.
func NewContextExtractor() *ContextExtractor {
	return &ContextExtractor{
		ContextChars: 50, // Look at 50 chars before and after by default
	}
}

// WithContextChars sets the size of the context window.
func (ce *ContextExtractor) WithContextChars(chars int) *ContextExtractor {
	ce.ContextChars = chars
	return ce
}

// ExtractContext returns the neighborhood of text[start:end]. The window
// never crosses the enclosing line; OCR full text uses newlines as layout
// boundaries and keywords beyond them belong to other fields.
func (ce *ContextExtractor) ExtractContext(text string, start, end int) ContextInfo {
	if start < 0 || end > len(text) || start > end {
		return ContextInfo{}
	}

	lineStart := strings.LastIndexByte(text[:start], '\n') + 1
	lineEnd := len(text)
	if idx := strings.IndexByte(text[end:], '\n'); idx >= 0 {
		lineEnd = end + idx
	}

	beforeStart := start - ce.ContextChars
	if beforeStart < lineStart {
		beforeStart = lineStart
	}
	afterEnd := end + ce.ContextChars
	if afterEnd > lineEnd {
		afterEnd = lineEnd
	}

	return ContextInfo{
		BeforeText: text[beforeStart:start],
		AfterText:  text[end:afterEnd],
		FullLine:   text[lineStart:lineEnd],
	}
}

// ContainsKeyword reports whether any keyword occurs in the combined
// context, case-insensitively.
func (ci ContextInfo) ContainsKeyword(keywords []string) bool {
	haystack := strings.ToLower(ci.BeforeText + " " + ci.FullLine + " " + ci.AfterText)
	for _, kw := range keywords {
		if strings.Contains(haystack, kw) {
			return true
		}
	}
	return false
}
