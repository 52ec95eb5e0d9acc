// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package detector defines the entity model shared by every detection
// source and the interface the pipeline drives them through.
package detector

import (
	"context"
	"time"

	"github.com/google/uuid"

	"redact-scan/internal/geometry"
	"redact-scan/internal/ocr"
)

// Source is implemented by every detection layer. Detect must treat the
// document as read-only and must return an empty slice, not an error, for
// empty input.
type Source interface {
	Name() string
	Detect(ctx context.Context, doc *ocr.Document) ([]Entity, error)
}

// Entity is a single detected PII span. Exactly one source creates an
// entity; after fusion it is read-only except for the Masked flag, which
// the field policy flips at most once.
type Entity struct {
	ID         string         `json:"id"`
	Type       PIIType        `json:"type"`
	Value      string         `json:"value"`
	Confidence float64        `json:"confidence"`
	Box        geometry.Box   `json:"bbox"`
	Masked     bool           `json:"masked"`
	Layer      Layer          `json:"layer"`
	Source     string         `json:"source"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// NewEntity builds an entity with a fresh ID. Entities start masked; the
// post-fusion field policy is the only place that unmasks.
func NewEntity(t PIIType, value string, confidence float64, box geometry.Box, layer Layer, source string) Entity {
	return Entity{
		ID:         uuid.NewString(),
		Type:       t,
		Value:      value,
		Confidence: confidence,
		Box:        box,
		Masked:     true,
		Layer:      layer,
		Source:     source,
	}
}

// WithMetadata attaches a metadata key, allocating the map on first use.
func (e Entity) WithMetadata(key string, value any) Entity {
	if e.Metadata == nil {
		e.Metadata = map[string]any{}
	}
	e.Metadata[key] = value
	return e
}

// Clear wipes the sensitive value once an entity leaves the pipeline.
func (e *Entity) Clear() {
	e.Value = ""
	e.Metadata = nil
}

// SuppressedEntity records a finding removed by a suppression rule.
type SuppressedEntity struct {
	Entity       Entity     `json:"finding"`
	SuppressedBy string     `json:"suppressed_by"`
	RuleReason   string     `json:"rule_reason"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	Expired      bool       `json:"expired"`
}

// ApplyFieldPolicy flips Masked to false for every entity whose type the
// caller requires to stay visible. This is the single mutation entities
// see after fusion.
func ApplyFieldPolicy(entities []Entity, keepVisible []PIIType) {
	if len(keepVisible) == 0 {
		return
	}
	visible := make(map[PIIType]bool, len(keepVisible))
	for _, t := range keepVisible {
		visible[t] = true
	}
	for i := range entities {
		if visible[entities[i].Type] {
			entities[i].Masked = false
		}
	}
}
