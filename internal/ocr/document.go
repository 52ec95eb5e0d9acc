// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package ocr defines the input contract between the OCR engine and the
// detection layers: a stream of words with confidences and bounding boxes,
// plus the document full text when the engine supplies one.
//
// The full text is authoritative for pattern scanning but is not required
// to be the exact concatenation of the word stream; offset mapping back to
// word boxes is therefore a forward reconstruction, never an assumption.
package ocr

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"redact-scan/internal/geometry"
)

// Word is a single recognized token with its OCR confidence and location.
type Word struct {
	Text       string       `json:"text"`
	Confidence float64      `json:"confidence"`
	Box        geometry.Box `json:"bbox"`
}

// Document is the immutable input shared by all detection sources. FullText
// may be empty, in which case Text falls back to the space-joined words.
type Document struct {
	Words    []Word `json:"words"`
	FullText string `json:"full_text,omitempty"`
	Source   string `json:"source,omitempty"`

	once    sync.Once
	text    string
	offsets []span
}

type span struct {
	start int
	end   int
}

// Text returns the scan text for pattern detection: the engine-supplied
// full text when present, otherwise the space-joined word stream.
func (d *Document) Text() string {
	d.ensureOffsets()
	return d.text
}

// WordCount returns the number of words in the stream.
func (d *Document) WordCount() int {
	return len(d.Words)
}

// ensureOffsets reconstructs the character span of every word inside the
// scan text with a single forward pass. Words the text does not contain
// (OCR full text and word stream can disagree) get a sentinel span and are
// simply not locatable.
func (d *Document) ensureOffsets() {
	d.once.Do(func() {
		if d.FullText != "" {
			d.text = d.FullText
		} else {
			parts := make([]string, len(d.Words))
			for i, w := range d.Words {
				parts[i] = w.Text
			}
			d.text = strings.Join(parts, " ")
		}

		d.offsets = make([]span, len(d.Words))
		cursor := 0
		for i, w := range d.Words {
			if w.Text == "" || cursor > len(d.text) {
				d.offsets[i] = span{-1, -1}
				continue
			}
			idx := strings.Index(d.text[cursor:], w.Text)
			if idx < 0 {
				d.offsets[i] = span{-1, -1}
				continue
			}
			start := cursor + idx
			d.offsets[i] = span{start, start + len(w.Text)}
			cursor = start + len(w.Text)
		}
	})
}

// LocateRange maps a character range of the scan text onto the union
// bounding box of every word overlapping it. ok is false when no word
// intersects the range; callers emit a placeholder box in that case rather
// than dropping the detection.
func (d *Document) LocateRange(start, end int) (geometry.Box, bool) {
	d.ensureOffsets()

	var box geometry.Box
	found := false
	for i, sp := range d.offsets {
		if sp.start < 0 {
			continue
		}
		if sp.start < end && sp.end > start {
			box = geometry.Union(box, d.Words[i].Box)
			found = true
		}
	}
	return box, found
}

// WordsInRange returns the indices of the words overlapping a character
// range of the scan text, in stream order.
func (d *Document) WordsInRange(start, end int) []int {
	d.ensureOffsets()

	var indices []int
	for i, sp := range d.offsets {
		if sp.start < 0 {
			continue
		}
		if sp.start < end && sp.end > start {
			indices = append(indices, i)
		}
	}
	return indices
}

// TokenID returns the stable identifier of the i-th word, used when the
// word stream is handed to an external model.
func TokenID(i int) string {
	return fmt.Sprintf("w%d", i)
}

// ParseTokenID resolves a token identifier back to a word index. It returns
// -1 for anything that is not a well-formed in-range identifier.
func ParseTokenID(id string, wordCount int) int {
	if !strings.HasPrefix(id, "w") {
		return -1
	}
	idx, err := strconv.Atoi(id[1:])
	if err != nil || idx < 0 || idx >= wordCount {
		return -1
	}
	return idx
}
