// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package ai

import (
	"context"
	"fmt"
	"time"

	"redact-scan/internal/detector"
	"redact-scan/internal/observability"
	"redact-scan/internal/ocr"
)

// Source runs the model collaborator as a detection layer. It walks an
// ordered strategy chain and keeps the first call that contributes
// entities: the tagged call gives exact boxes but asks more of the model,
// the phrase call is the lighter fallback, and a chain that produces
// nothing is an empty contribution rather than an error.
type Source struct {
	client   Client
	chain    []strategy
	hint     []detector.PIIType
	observer *observability.StandardObserver
}

type strategy struct {
	mode    Mode
	timeout time.Duration
}

// NewSource wraps a client with the default strategy chain. A nil client
// yields a source that contributes nothing, which lets callers build the
// pipeline unconditionally and decide at runtime.
func NewSource(client Client, hint []detector.PIIType) *Source {
	return &Source{
		client: client,
		chain: []strategy{
			{mode: ModeTagged, timeout: 30 * time.Second},
			{mode: ModePhrase, timeout: 10 * time.Second},
		},
		hint: hint,
	}
}

// SetObserver sets the observability component.
func (s *Source) SetObserver(observer *observability.StandardObserver) {
	s.observer = observer
}

// Name implements detector.Source.
func (s *Source) Name() string {
	return "ai"
}

// Detect implements detector.Source.
func (s *Source) Detect(ctx context.Context, doc *ocr.Document) ([]detector.Entity, error) {
	var finishTiming func(bool, map[string]interface{})
	if s.observer != nil {
		finishTiming = s.observer.StartTiming("ai_source", "detect", doc.Source)
	}

	entities := []detector.Entity{}
	if s.client == nil || doc.WordCount() == 0 {
		if finishTiming != nil {
			finishTiming(true, map[string]interface{}{"match_count": 0, "skipped": true})
		}
		return entities, nil
	}

	words := make([]string, doc.WordCount())
	for i, w := range doc.Words {
		words[i] = w.Text
	}

	for _, st := range s.chain {
		if err := ctx.Err(); err != nil {
			if finishTiming != nil {
				finishTiming(false, map[string]interface{}{"error": err.Error()})
			}
			return entities, err
		}

		callCtx, cancel := context.WithTimeout(ctx, st.timeout)
		findings, err := s.client.Annotate(callCtx, Request{Mode: st.mode, Words: words, Hint: s.hint})
		cancel()
		if err != nil {
			s.logDetail(fmt.Sprintf("%s call failed: %v", st.mode, err))
			continue
		}

		resolved, dropped := Resolve(doc, findings, st.mode)
		if dropped > 0 {
			s.logDetail(fmt.Sprintf("%s call: dropped %d malformed findings", st.mode, dropped))
		}
		if len(resolved) > 0 {
			if finishTiming != nil {
				finishTiming(true, map[string]interface{}{
					"match_count": len(resolved),
					"dropped":     dropped,
					"strategy":    string(st.mode),
				})
			}
			return resolved, nil
		}
	}

	if finishTiming != nil {
		finishTiming(true, map[string]interface{}{"match_count": 0})
	}
	return entities, nil
}

func (s *Source) logDetail(detail string) {
	if s.observer != nil && s.observer.DebugObserver != nil {
		s.observer.DebugObserver.LogDetail("ai_source", detail)
	}
}
