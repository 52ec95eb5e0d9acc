// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package ocr

import (
	"strings"
	"testing"

	"redact-scan/internal/geometry"
)

func testDoc(words ...string) *Document {
	doc := &Document{}
	for i, w := range words {
		doc.Words = append(doc.Words, Word{
			Text:       w,
			Confidence: 0.9,
			Box:        geometry.Box{X: float64(i * 60), Y: 100, W: 50, H: 12},
		})
	}
	return doc
}

func TestText_JoinsWordsWhenFullTextMissing(t *testing.T) {
	doc := testDoc("Name:", "John", "Doe")
	if got := doc.Text(); got != "Name: John Doe" {
		t.Errorf("Text() = %q, want %q", got, "Name: John Doe")
	}
}

func TestText_PrefersFullText(t *testing.T) {
	doc := testDoc("John", "Doe")
	doc.FullText = "John\nDoe"
	if got := doc.Text(); got != "John\nDoe" {
		t.Errorf("Text() = %q, want full text verbatim", got)
	}
}

func TestText_EmptyDocument(t *testing.T) {
	doc := &Document{}
	if got := doc.Text(); got != "" {
		t.Errorf("Text() on empty document = %q, want empty", got)
	}
}

func TestLocateRange_SingleWord(t *testing.T) {
	doc := testDoc("Name:", "John", "Doe")
	text := doc.Text()

	start := strings.Index(text, "John")
	box, ok := doc.LocateRange(start, start+len("John"))
	if !ok {
		t.Fatal("expected range to be locatable")
	}
	if box != doc.Words[1].Box {
		t.Errorf("box = %+v, want the second word's box", box)
	}
}

func TestLocateRange_SpansMultipleWords(t *testing.T) {
	doc := testDoc("Name:", "John", "Doe")
	text := doc.Text()

	start := strings.Index(text, "John")
	box, ok := doc.LocateRange(start, len(text))
	if !ok {
		t.Fatal("expected range to be locatable")
	}

	want := geometry.Union(doc.Words[1].Box, doc.Words[2].Box)
	if box != want {
		t.Errorf("box = %+v, want union %+v", box, want)
	}
}

func TestLocateRange_NoOverlap(t *testing.T) {
	doc := testDoc("John")
	if _, ok := doc.LocateRange(500, 510); ok {
		t.Error("out-of-text range should not locate any word")
	}
}

func TestLocateRange_FullTextDivergesFromWords(t *testing.T) {
	// The OCR engine inserted punctuation the word stream does not carry.
	doc := testDoc("John", "Doe")
	doc.FullText = "Mr. John Doe, Esq."

	start := strings.Index(doc.Text(), "Doe")
	box, ok := doc.LocateRange(start, start+len("Doe"))
	if !ok {
		t.Fatal("word present in full text should be locatable")
	}
	if box != doc.Words[1].Box {
		t.Errorf("box = %+v, want the Doe box", box)
	}
}

func TestWordsInRange(t *testing.T) {
	doc := testDoc("a", "b", "c")
	text := doc.Text() // "a b c"

	indices := doc.WordsInRange(2, len(text))
	if len(indices) != 2 || indices[0] != 1 || indices[1] != 2 {
		t.Errorf("WordsInRange = %v, want [1 2]", indices)
	}
}

func TestTokenID_RoundTrip(t *testing.T) {
	if got := TokenID(7); got != "w7" {
		t.Errorf("TokenID(7) = %q", got)
	}
	if got := ParseTokenID("w7", 10); got != 7 {
		t.Errorf("ParseTokenID(w7) = %d, want 7", got)
	}
}

func TestParseTokenID_Invalid(t *testing.T) {
	cases := []string{"", "7", "wx", "w-1", "w10", "token3"}
	for _, id := range cases {
		if got := ParseTokenID(id, 10); got != -1 {
			t.Errorf("ParseTokenID(%q) = %d, want -1", id, got)
		}
	}
}
