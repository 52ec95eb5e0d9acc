// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package wordsource

import (
	"math"
	"testing"

	"github.com/ledongthuc/pdf"

	"redact-scan/internal/geometry"
	"redact-scan/internal/ocr"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestSplitRun(t *testing.T) {
	el := pdf.Text{S: "Name: Rahul", X: 100, W: 110, FontSize: 10}

	runs := splitRun(el)
	if len(runs) != 2 {
		t.Fatalf("splitRun() produced %d runs, want 2", len(runs))
	}
	if runs[0].S != "Name:" || runs[1].S != "Rahul" {
		t.Fatalf("runs = %q, %q, want Name:, Rahul", runs[0].S, runs[1].S)
	}
	// 11 runes over width 110 gives 10 per rune.
	if !almostEqual(runs[0].X, 100) || !almostEqual(runs[0].W, 50) {
		t.Errorf("first run at X=%v W=%v, want X=100 W=50", runs[0].X, runs[0].W)
	}
	if !almostEqual(runs[1].X, 160) || !almostEqual(runs[1].W, 50) {
		t.Errorf("second run at X=%v W=%v, want X=160 W=50", runs[1].X, runs[1].W)
	}
}

func TestSplitRun_NoSpaces(t *testing.T) {
	el := pdf.Text{S: "ABCPE1234F", X: 40, W: 90, FontSize: 9}

	runs := splitRun(el)
	if len(runs) != 1 {
		t.Fatalf("splitRun() produced %d runs, want 1", len(runs))
	}
	if runs[0] != el {
		t.Errorf("run = %+v, want unchanged element", runs[0])
	}
}

func TestWordsFromRow_GapSplitsWords(t *testing.T) {
	row := []pdf.Text{
		{S: "AB", X: 10, Y: 700, W: 20, FontSize: 10},
		{S: "CD", X: 33, Y: 700, W: 20, FontSize: 10},
	}

	words := wordsFromRow(row, 1, letterHeight)
	if len(words) != 2 {
		t.Fatalf("got %d words, want 2 (gap 3 > 0.2*10)", len(words))
	}
	if words[0].Text != "AB" || words[1].Text != "CD" {
		t.Errorf("words = %q, %q, want AB, CD", words[0].Text, words[1].Text)
	}
}

func TestWordsFromRow_AdjacentRunsMerge(t *testing.T) {
	row := []pdf.Text{
		{S: "98", X: 10, Y: 700, W: 20, FontSize: 10},
		{S: "76", X: 31.5, Y: 700, W: 20, FontSize: 10},
	}

	words := wordsFromRow(row, 1, letterHeight)
	if len(words) != 1 {
		t.Fatalf("got %d words, want 1 (gap 1.5 < 0.2*10)", len(words))
	}
	if words[0].Text != "9876" {
		t.Errorf("word = %q, want 9876", words[0].Text)
	}
	if !almostEqual(words[0].Box.X, 10) || !almostEqual(words[0].Box.W, 41.5) {
		t.Errorf("box X=%v W=%v, want X=10 W=41.5", words[0].Box.X, words[0].Box.W)
	}
}

func TestWordsFromRow_SortsByX(t *testing.T) {
	row := []pdf.Text{
		{S: "Rahul", X: 170, Y: 700, W: 50, FontSize: 10},
		{S: "Name:", X: 100, Y: 700, W: 50, FontSize: 10},
	}

	words := wordsFromRow(row, 1, letterHeight)
	if len(words) != 2 {
		t.Fatalf("got %d words, want 2", len(words))
	}
	if words[0].Text != "Name:" || words[1].Text != "Rahul" {
		t.Errorf("words = %q, %q, want Name:, Rahul", words[0].Text, words[1].Text)
	}
}

func TestWordsFromRow_FlipsYAndSetsBox(t *testing.T) {
	row := []pdf.Text{
		{S: "Aadhaar", X: 50, Y: 700, W: 70, FontSize: 12},
	}

	words := wordsFromRow(row, 3, 792)
	if len(words) != 1 {
		t.Fatalf("got %d words, want 1", len(words))
	}
	w := words[0]
	if !almostEqual(w.Box.Y, 792-700-12) {
		t.Errorf("Y = %v, want %v (flipped to top-down)", w.Box.Y, 792-700-12.0)
	}
	if !almostEqual(w.Box.H, 12) {
		t.Errorf("H = %v, want 12", w.Box.H)
	}
	if w.Box.Page != 3 {
		t.Errorf("Page = %d, want 3", w.Box.Page)
	}
	if w.Confidence != 1.0 {
		t.Errorf("Confidence = %v, want 1.0", w.Confidence)
	}
}

func TestWordsFromRow_EmbeddedSpaces(t *testing.T) {
	row := []pdf.Text{
		{S: "DOB: 15/08/1990", X: 100, Y: 650, W: 150, FontSize: 10},
	}

	words := wordsFromRow(row, 1, letterHeight)
	if len(words) != 2 {
		t.Fatalf("got %d words, want 2", len(words))
	}
	if words[0].Text != "DOB:" || words[1].Text != "15/08/1990" {
		t.Errorf("words = %q, %q, want DOB:, 15/08/1990", words[0].Text, words[1].Text)
	}
}

func TestSortReadingOrder(t *testing.T) {
	words := []ocr.Word{
		{Text: "second-line", Box: geometry.Box{X: 10, Y: 120, W: 80, H: 12, Page: 1}},
		{Text: "right", Box: geometry.Box{X: 200, Y: 100, W: 40, H: 12, Page: 1}},
		{Text: "page2", Box: geometry.Box{X: 10, Y: 10, W: 40, H: 12, Page: 2}},
		{Text: "left", Box: geometry.Box{X: 10, Y: 102, W: 40, H: 12, Page: 1}},
	}

	sortReadingOrder(words)

	want := []string{"left", "right", "second-line", "page2"}
	for i, text := range want {
		if words[i].Text != text {
			t.Fatalf("order[%d] = %q, want %q (full order %v)", i, words[i].Text, text, wordTexts(words))
		}
	}
}

func wordTexts(words []ocr.Word) []string {
	texts := make([]string, len(words))
	for i, w := range words {
		texts[i] = w.Text
	}
	return texts
}

func TestPlainTextFallbackBoxes(t *testing.T) {
	// Degenerate boxes keep the spatial layer out while the text layers
	// still see the tokens.
	w := ocr.Word{Text: "fallback", Confidence: 1.0, Box: geometry.Box{Page: 2}}
	if !w.Box.IsZero() {
		t.Error("fallback box should be zero-sized")
	}
}
