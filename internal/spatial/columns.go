// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package spatial

import (
	"sort"

	"redact-scan/internal/ocr"
)

// DefaultColumnTolerance is the x-alignment slack, in pixels, for table
// column grouping.
const DefaultColumnTolerance = 15.0

// Column is a vertical run of words sharing a left edge. Advisory
// output for table-shaped documents; never an entity source.
type Column struct {
	X       float64
	Indices []int
}

// Columns buckets words by left edge, row-blind. Words whose X is
// within tolerance of a bucket's anchor join it; buckets with fewer
// than two words are discarded.
func Columns(words []ocr.Word, tolerance float64) []Column {
	if tolerance <= 0 {
		tolerance = DefaultColumnTolerance
	}

	indices := make([]int, len(words))
	for i := range words {
		indices[i] = i
	}
	sort.SliceStable(indices, func(a, b int) bool {
		return words[indices[a]].Box.X < words[indices[b]].Box.X
	})

	var columns []Column
	for _, idx := range indices {
		x := words[idx].Box.X
		if n := len(columns); n > 0 && x-columns[n-1].X <= tolerance {
			columns[n-1].Indices = append(columns[n-1].Indices, idx)
			continue
		}
		columns = append(columns, Column{X: x, Indices: []int{idx}})
	}

	kept := columns[:0]
	for _, c := range columns {
		if len(c.Indices) >= 2 {
			kept = append(kept, c)
		}
	}
	return kept
}
