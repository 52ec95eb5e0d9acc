// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package fusion merges the entity lists of every detection source into
// one de-conflicted, ranked set: per-layer confidence normalization,
// IoU-based non-maximum suppression, threshold filtering, and the
// document-type boost, in that order.
package fusion

import (
	"sort"

	"redact-scan/internal/detector"
	"redact-scan/internal/geometry"
	"redact-scan/internal/observability"
)

// DefaultDedupIoU is the overlap above which two same-page entities are
// considered duplicates.
const DefaultDedupIoU = 0.5

// band is the confidence range a layer's entities are clamped into.
type band struct {
	lo, hi float64
}

// layerBands enforces the total trust order independent of what any
// individual detector claims.
var layerBands = map[detector.Layer]band{
	detector.LayerDeterministic: {1.0, 1.0},
	detector.LayerEnhanced:      {0.95, 1.0},
	detector.LayerHeuristic:     {0.60, 0.90},
	detector.LayerSpatial:       {0.95, 0.99},
	detector.LayerAI:            {0.50, 0.95},
}

// Normalize clamps every entity's confidence into its layer band.
// Idempotent; returns a new slice and leaves the input untouched.
func Normalize(entities []detector.Entity) []detector.Entity {
	out := make([]detector.Entity, len(entities))
	copy(out, entities)
	for i := range out {
		b, ok := layerBands[out[i].Layer]
		if !ok {
			continue
		}
		if out[i].Confidence < b.lo {
			out[i].Confidence = b.lo
		}
		if out[i].Confidence > b.hi {
			out[i].Confidence = b.hi
		}
	}
	return out
}

// Engine runs the fusion steps. One instance is safe for concurrent use.
type Engine struct {
	dedupIoU float64
	observer *observability.StandardObserver
}

// NewEngine creates a fusion engine. A non-positive dedupIoU selects the
// default.
func NewEngine(dedupIoU float64) *Engine {
	if dedupIoU <= 0 {
		dedupIoU = DefaultDedupIoU
	}
	return &Engine{dedupIoU: dedupIoU}
}

// SetObserver sets the observability component.
func (e *Engine) SetObserver(observer *observability.StandardObserver) {
	e.observer = observer
}

// Fuse merges the per-source lists and returns the final entity set in
// reading order, plus the run statistics. threshold drops entities below
// it before boost is applied, so a boost can never rescue a filtered
// entity; boost is capped so no confidence exceeds 1.0.
func (e *Engine) Fuse(sources [][]detector.Entity, threshold, boost float64) ([]detector.Entity, Stats) {
	var finishTiming func(bool, map[string]interface{})
	if e.observer != nil {
		finishTiming = e.observer.StartTiming("fusion", "fuse", "")
	}

	var merged []detector.Entity
	for _, list := range sources {
		merged = append(merged, list...)
	}

	stats := Stats{Input: len(merged)}

	normalized := Normalize(merged)
	kept, suppressed := e.dedup(normalized)
	stats.Suppressed = suppressed

	if boost <= 0 {
		boost = 1.0
	}
	final := make([]detector.Entity, 0, len(kept))
	for _, entity := range kept {
		if entity.Confidence < threshold {
			stats.BelowThreshold++
			continue
		}
		entity.Confidence *= boost
		if entity.Confidence > 1.0 {
			entity.Confidence = 1.0
		}
		final = append(final, entity)
	}

	sort.SliceStable(final, func(i, j int) bool {
		a, b := final[i].Box, final[j].Box
		if a.Page != b.Page {
			return a.Page < b.Page
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.X < b.X
	})

	stats.Output = len(final)
	stats.countLayersAndBands(final)

	if finishTiming != nil {
		finishTiming(true, map[string]interface{}{
			"input":      stats.Input,
			"output":     stats.Output,
			"suppressed": stats.Suppressed,
		})
	}

	return final, stats
}

// dedup keeps each entity unless its box overlaps a previously kept
// same-page entity above the IoU threshold. The precedence sort makes
// the walk deterministic regardless of input order.
func (e *Engine) dedup(entities []detector.Entity) ([]detector.Entity, int) {
	ordered := make([]detector.Entity, len(entities))
	copy(ordered, entities)
	sort.SliceStable(ordered, func(i, j int) bool {
		return precedes(ordered[i], ordered[j])
	})

	var kept []detector.Entity
	suppressed := 0
	for _, candidate := range ordered {
		duplicate := false
		for _, winner := range kept {
			if geometry.IoU(candidate.Box, winner.Box) > e.dedupIoU {
				duplicate = true
				break
			}
		}
		if duplicate {
			suppressed++
			continue
		}
		kept = append(kept, candidate)
	}
	return kept, suppressed
}

// precedes is the NMS total order: higher layer, then higher confidence,
// then longer value, then deterministic tie-breakers.
func precedes(a, b detector.Entity) bool {
	if a.Layer != b.Layer {
		return a.Layer > b.Layer
	}
	if a.Confidence != b.Confidence {
		return a.Confidence > b.Confidence
	}
	if len(a.Value) != len(b.Value) {
		return len(a.Value) > len(b.Value)
	}
	if a.Value != b.Value {
		return a.Value < b.Value
	}
	if a.Box.Page != b.Box.Page {
		return a.Box.Page < b.Box.Page
	}
	if a.Box.X != b.Box.X {
		return a.Box.X < b.Box.X
	}
	return a.Box.Y < b.Box.Y
}
