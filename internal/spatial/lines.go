// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package spatial regroups the flat OCR word stream geometrically:
// words into lines, lines into blocks, and labeled line segments into
// key-value entities. Everything works from bounding boxes; no text
// semantics beyond the key-pattern table.
package spatial

import (
	"sort"
	"strings"

	"redact-scan/internal/geometry"
	"redact-scan/internal/ocr"
)

// Line is one visual text row: its words in reading order, the joined
// text, and the union box.
type Line struct {
	Words []ocr.Word
	Text  string
	Box   geometry.Box
}

// Block is a group of lines separated from its neighbors by whitespace
// clearly wider than the document's usual line spacing.
type Block struct {
	Lines []Line
	Box   geometry.Box
}

// BuildLines groups words into visual rows. The tolerance adapts to the
// document: half the median word height. Words on different pages never
// share a line.
func BuildLines(words []ocr.Word) []Line {
	if len(words) == 0 {
		return nil
	}

	heights := make([]float64, len(words))
	for i, w := range words {
		heights[i] = w.Box.H
	}
	tolerance := 0.5 * geometry.Median(heights)
	if tolerance <= 0 {
		tolerance = 1
	}

	ordered := make([]ocr.Word, len(words))
	copy(ordered, words)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Box.Page != ordered[j].Box.Page {
			return ordered[i].Box.Page < ordered[j].Box.Page
		}
		return ordered[i].Box.Y < ordered[j].Box.Y
	})

	var lines []Line
	var current []ocr.Word
	flush := func() {
		if len(current) == 0 {
			return
		}
		sort.SliceStable(current, func(i, j int) bool {
			return current[i].Box.X < current[j].Box.X
		})
		line := Line{Words: current}
		texts := make([]string, len(current))
		box := current[0].Box
		for i, w := range current {
			texts[i] = w.Text
			box = geometry.Union(box, w.Box)
		}
		line.Text = strings.Join(texts, " ")
		line.Box = box
		lines = append(lines, line)
		current = nil
	}

	for _, w := range ordered {
		if len(current) > 0 {
			prev := current[len(current)-1]
			samePage := prev.Box.Page == w.Box.Page
			if !samePage || w.Box.Y-prev.Box.Y >= tolerance {
				flush()
			}
		}
		current = append(current, w)
	}
	flush()

	return lines
}

// BuildBlocks groups consecutive lines into blocks. A gap wider than
// 2.5x the mean inter-line gap, or a page change, starts a new block.
func BuildBlocks(lines []Line) []Block {
	if len(lines) == 0 {
		return nil
	}

	gaps := make([]float64, 0, len(lines)-1)
	for i := 1; i < len(lines); i++ {
		if lines[i].Box.Page != lines[i-1].Box.Page {
			continue
		}
		gap := lines[i].Box.Y - lines[i-1].Box.Bottom()
		if gap > 0 {
			gaps = append(gaps, gap)
		}
	}
	meanGap := geometry.Mean(gaps)

	var blocks []Block
	var current []Line
	flush := func() {
		if len(current) == 0 {
			return
		}
		block := Block{Lines: current}
		box := current[0].Box
		for _, l := range current {
			box = geometry.Union(box, l.Box)
		}
		block.Box = box
		blocks = append(blocks, block)
		current = nil
	}

	for i, line := range lines {
		if len(current) > 0 {
			prev := current[len(current)-1]
			pageBreak := line.Box.Page != prev.Box.Page
			gap := line.Box.Y - prev.Box.Bottom()
			if pageBreak || (meanGap > 0 && gap > 2.5*meanGap) {
				flush()
			}
		}
		current = append(current, lines[i])
	}
	flush()

	return blocks
}
