// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package ai adapts an external language model into one detection layer.
// The model is a collaborator behind a narrow interface: it receives the
// OCR word stream, returns candidate PII spans, and everything it says is
// re-anchored to the document before it becomes an entity. Any failure on
// this path degrades to an empty contribution; the model can add findings
// but can never take the pipeline down.
package ai

import (
	"context"

	"redact-scan/internal/detector"
)

// Mode selects the contract a single call asks the model to honor.
type Mode string

const (
	// ModeTagged sends the word stream with stable token identifiers and
	// expects word-ID spans back, which resolve to exact bounding boxes.
	ModeTagged Mode = "tagged"
	// ModePhrase sends plain text and expects verbatim phrases back,
	// which are re-anchored by fuzzy token matching.
	ModePhrase Mode = "phrase"
)

// Request is the uniform input shape shared by every strategy call.
type Request struct {
	Mode  Mode
	Words []string           // document word stream, in order
	Hint  []detector.PIIType // categories the caller particularly wants
}

// Finding is one span the model flagged, before resolution. A finding
// needs a category and at least one of WordIDs or Text; anything short of
// that is discarded individually during resolution.
type Finding struct {
	Category   string   `json:"category"`
	Text       string   `json:"text,omitempty"`
	WordIDs    []string `json:"word_ids,omitempty"`
	Confidence float64  `json:"confidence,omitempty"`
}

// Client is the boundary to the external model. Annotate performs one
// call; the caller owns timeouts, fallback, and resolution.
type Client interface {
	Name() string
	Annotate(ctx context.Context, req Request) ([]Finding, error)
}
