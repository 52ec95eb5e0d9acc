// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package wordsource

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/sync/errgroup"

	"redact-scan/internal/geometry"
	"redact-scan/internal/ocr"
)

const (
	// maxPages bounds the extraction work per document.
	maxPages = 50

	// letterHeight is the fallback page height when the PDF has no
	// usable MediaBox (US Letter in points).
	letterHeight = 792.0

	// gapFactor times the font size is the horizontal gap that splits
	// two text runs into separate words.
	gapFactor = 0.2

	defaultFontSize = 10.0
)

// pdfLoader extracts positioned text from born-digital PDFs and slices
// it into a word stream. Text placed by the PDF itself is exact, so every
// word carries confidence 1.0.
type pdfLoader struct {
	config *model.Configuration
}

func newPDFLoader() *pdfLoader {
	return &pdfLoader{config: model.NewDefaultConfiguration()}
}

func (l *pdfLoader) Name() string {
	return "PDF text"
}

func (l *pdfLoader) Load(ctx context.Context, path string) (*ocr.Document, error) {
	if err := api.ValidateFile(path, l.config); err != nil {
		return nil, fmt.Errorf("invalid PDF file: %w", err)
	}

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening PDF: %w", err)
	}
	defer func() { _ = f.Close() }()

	pageCount := r.NumPage()
	if count, err := api.PageCountFile(path); err == nil && count < pageCount {
		pageCount = count
	}
	if pageCount > maxPages {
		pageCount = maxPages
	}
	if pageCount < 1 {
		return nil, fmt.Errorf("PDF %s has no pages", path)
	}

	pages := make([][]ocr.Word, pageCount+1)
	g, gctx := errgroup.WithContext(ctx)
	for pageNum := 1; pageNum <= pageCount; pageNum++ {
		pageNum := pageNum
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p := r.Page(pageNum)
			if p.V.IsNull() {
				return nil
			}
			pages[pageNum] = extractPageWords(p, pageNum)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("error extracting PDF text: %w", err)
	}

	var words []ocr.Word
	for pageNum := 1; pageNum <= pageCount; pageNum++ {
		words = append(words, pages[pageNum]...)
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("PDF %s contains no extractable text (scanned image?)", path)
	}

	sortReadingOrder(words)
	return &ocr.Document{Words: words, Source: path}, nil
}

// extractPageWords pulls the positioned text runs of one page and merges
// them into words. When row extraction fails it degrades to plain text
// with no positions, which still feeds the pattern layers.
func extractPageWords(p pdf.Page, pageNum int) []ocr.Word {
	height := pageHeight(p)

	rows, err := p.GetTextByRow()
	if err != nil {
		return plainTextWords(p, pageNum)
	}

	var words []ocr.Word
	for _, row := range rows {
		if row == nil {
			continue
		}
		words = append(words, wordsFromRow(row.Content, pageNum, height)...)
	}
	if len(words) == 0 {
		return plainTextWords(p, pageNum)
	}
	return words
}

// plainTextWords is the degraded path for pages whose content streams the
// row reader cannot handle. The words carry zero boxes, so only the
// text-offset layers see them.
func plainTextWords(p pdf.Page, pageNum int) []ocr.Word {
	text, err := p.GetPlainText(nil)
	if err != nil {
		return nil
	}
	fields := strings.Fields(text)
	words := make([]ocr.Word, 0, len(fields))
	for _, field := range fields {
		words = append(words, ocr.Word{
			Text:       field,
			Confidence: 1.0,
			Box:        geometry.Box{Page: pageNum},
		})
	}
	return words
}

// wordsFromRow merges the text runs of one row, sorted left to right, into
// words. Runs separated by more than gapFactor times the font size start a
// new word; runs carrying embedded spaces are split first.
func wordsFromRow(elements []pdf.Text, pageNum int, pageHeight float64) []ocr.Word {
	runs := make([]pdf.Text, 0, len(elements))
	for _, el := range elements {
		runs = append(runs, splitRun(el)...)
	}
	sort.SliceStable(runs, func(i, j int) bool { return runs[i].X < runs[j].X })

	var words []ocr.Word
	var b wordBuilder
	for _, run := range runs {
		if run.S == "" {
			continue
		}
		if b.started && run.X-b.endX > gapFactor*effectiveFontSize(run.FontSize, b.fontSize) {
			words = append(words, b.flush(pageNum, pageHeight))
		}
		b.add(run)
	}
	if b.started {
		words = append(words, b.flush(pageNum, pageHeight))
	}
	return words
}

// splitRun expands a text run whose string carries embedded spaces into
// one run per field, spreading the run width evenly over the runes.
func splitRun(el pdf.Text) []pdf.Text {
	if !strings.ContainsAny(el.S, " \t ") {
		return []pdf.Text{el}
	}

	runes := []rune(el.S)
	perRune := 0.0
	if len(runes) > 0 {
		perRune = el.W / float64(len(runes))
	}

	var runs []pdf.Text
	start := -1
	flush := func(end int) {
		if start < 0 {
			return
		}
		sub := el
		sub.S = string(runes[start:end])
		sub.X = el.X + perRune*float64(start)
		sub.W = perRune * float64(end-start)
		runs = append(runs, sub)
		start = -1
	}
	for i, r := range runes {
		if r == ' ' || r == '\t' || r == ' ' {
			flush(i)
			continue
		}
		if start < 0 {
			start = i
		}
	}
	flush(len(runes))
	return runs
}

// wordBuilder accumulates adjacent text runs into one word.
type wordBuilder struct {
	text     strings.Builder
	startX   float64
	endX     float64
	baseline float64
	fontSize float64
	runes    int
	started  bool
}

func (b *wordBuilder) add(run pdf.Text) {
	if !b.started {
		b.started = true
		b.startX = run.X
		b.baseline = run.Y
	}
	b.text.WriteString(run.S)
	b.runes += len([]rune(run.S))
	if end := run.X + run.W; end > b.endX {
		b.endX = end
	}
	if run.FontSize > b.fontSize {
		b.fontSize = run.FontSize
	}
}

// flush emits the accumulated word with its box flipped into top-down
// page coordinates and resets the builder.
func (b *wordBuilder) flush(pageNum int, pageHeight float64) ocr.Word {
	fontSize := b.fontSize
	if fontSize <= 0 {
		fontSize = defaultFontSize
	}
	width := b.endX - b.startX
	if width <= 0 {
		width = 0.6 * fontSize * float64(b.runes)
	}

	word := ocr.Word{
		Text:       b.text.String(),
		Confidence: 1.0,
		Box: geometry.Box{
			X:    b.startX,
			Y:    pageHeight - b.baseline - fontSize,
			W:    width,
			H:    fontSize,
			Page: pageNum,
		},
	}
	*b = wordBuilder{}
	return word
}

func effectiveFontSize(sizes ...float64) float64 {
	for _, size := range sizes {
		if size > 0 {
			return size
		}
	}
	return defaultFontSize
}

// pageHeight resolves the page height from the MediaBox, walking up the
// page tree for inherited boxes.
func pageHeight(p pdf.Page) float64 {
	seen := 0
	for v := p.V; !v.IsNull() && seen < 16; seen++ {
		if mb := v.Key("MediaBox"); !mb.IsNull() && mb.Len() == 4 {
			if h := mb.Index(3).Float64() - mb.Index(1).Float64(); h > 0 {
				return h
			}
		}
		v = v.Key("Parent")
	}
	return letterHeight
}

// sortReadingOrder orders words top to bottom, left to right within each
// page. Words on the same visual line (baselines within half a line
// height) sort by X.
func sortReadingOrder(words []ocr.Word) {
	sort.SliceStable(words, func(i, j int) bool {
		a, b := words[i], words[j]
		if a.Box.Page != b.Box.Page {
			return a.Box.Page < b.Box.Page
		}
		line := a.Box.H
		if b.Box.H > line {
			line = b.Box.H
		}
		if line <= 0 {
			return false
		}
		if diff := a.Box.Y - b.Box.Y; diff > line/2 || diff < -line/2 {
			return a.Box.Y < b.Box.Y
		}
		return a.Box.X < b.Box.X
	})
}
