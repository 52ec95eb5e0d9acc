// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package pipeline orchestrates a detection run end to end:
// classification, the concurrent fan-out of every detection source over
// the shared document, fusion, suppression filtering, and the field
// visibility policy. The CLI and the web server both drive this package
// and nothing else.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"redact-scan/internal/ai"
	"redact-scan/internal/classifier"
	"redact-scan/internal/detector"
	"redact-scan/internal/fusion"
	"redact-scan/internal/observability"
	"redact-scan/internal/ocr"
	"redact-scan/internal/spatial"
	"redact-scan/internal/suppressions"
	"redact-scan/internal/validators/aadhaar"
	"redact-scan/internal/validators/contextual"
	"redact-scan/internal/validators/creditcard"
	"redact-scan/internal/validators/heuristic"
	"redact-scan/internal/validators/metadata"
	"redact-scan/internal/validators/pan"
	"redact-scan/internal/validators/phone"
)

// DefaultThreshold is the fused-confidence floor when Options leaves it
// unset.
const DefaultThreshold = 0.5

// ProgressFunc receives coarse progress as a stage name and a fraction
// in [0, 1]. Calls are serialized even while sources run concurrently.
type ProgressFunc func(stage string, fraction float64)

// Options configures a Pipeline.
type Options struct {
	// Threshold is the minimum fused confidence. Non-positive selects
	// the default.
	Threshold float64

	// DedupIoU is the overlap above which fusion treats two boxes as
	// duplicates. Non-positive selects the fusion default.
	DedupIoU float64

	// StrictPatterns forces label context for every identifier class,
	// on top of whatever the document ruleset asks for.
	StrictPatterns bool

	// DisabledSources names detection sources to leave out of the run.
	DisabledSources []string

	// RequiredFields lists the types whose values stay visible in the
	// output. Every other finding leaves the pipeline masked.
	RequiredFields []detector.PIIType

	// ImagePath names the scanned source image for EXIF metadata
	// detection. Empty disables the metadata source.
	ImagePath string

	// AI is the external model client. Nil disables the AI layer
	// entirely; the fused output is then layers 0-3 only.
	AI ai.Client

	// Suppressions filters known-benign findings after fusion. Nil
	// disables filtering.
	Suppressions *suppressions.Manager

	// Progress receives stage updates. Nil disables reporting.
	Progress ProgressFunc

	// Debug selects the step-by-step observer. Ignored when Observer is
	// set.
	Debug bool

	// Observer overrides the observer built from Debug, letting the web
	// server share one across requests.
	Observer *observability.StandardObserver
}

// Result is the outcome of one document run.
type Result struct {
	Source         string                      `json:"source,omitempty"`
	Entities       []detector.Entity           `json:"findings"`
	Suppressed     []detector.SuppressedEntity `json:"suppressed_findings,omitempty"`
	Classification classifier.Classification   `json:"classification"`
	Ruleset        classifier.Ruleset          `json:"-"`
	Stats          fusion.Stats                `json:"stats"`

	// Columns is advisory table layout, present only when the document
	// type asks for it.
	Columns []spatial.Column `json:"columns,omitempty"`
}

// Pipeline runs detection over OCR documents. One instance is safe for
// concurrent use; all per-document state lives inside Run.
type Pipeline struct {
	opts       Options
	observer   *observability.StandardObserver
	classifier *classifier.Classifier
	engine     *fusion.Engine
	progress   progressReporter
}

// New creates a pipeline, normalizing option defaults and building the
// observer when the caller did not supply one.
func New(opts Options) *Pipeline {
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}

	observer := opts.Observer
	if observer == nil {
		observer = observability.NewStandardObserver(observability.ObservabilityMetrics, os.Stderr)
		if opts.Debug {
			debugObs := observability.NewDebugObserver(os.Stderr)
			observer = debugObs.StandardObserver
			observer.DebugObserver = debugObs
		}
	}

	cls := classifier.NewClassifier()
	cls.SetObserver(observer)

	engine := fusion.NewEngine(opts.DedupIoU)
	engine.SetObserver(observer)

	if opts.Suppressions != nil {
		opts.Suppressions.SetObserver(observer)
	}

	return &Pipeline{
		opts:       opts,
		observer:   observer,
		classifier: cls,
		engine:     engine,
		progress:   progressReporter{fn: opts.Progress},
	}
}

// Run executes the full pipeline over one document. The only errors it
// returns are the caller's own context ending; a failing source logs
// and contributes nothing.
func (p *Pipeline) Run(ctx context.Context, doc *ocr.Document) (*Result, error) {
	finishTiming := p.observer.StartTiming("pipeline", "run", doc.Source)

	p.progress.report("classify", 0.0)
	classification := p.classifier.Classify(doc)
	ruleset := classifier.RulesetFor(classification.Type)

	sources := p.buildSources(ruleset, classification.Type)
	lists := make([][]detector.Entity, len(sources))
	total := len(sources)
	p.progress.report("detect", 0.1)

	var completed atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			entities, err := src.Detect(gctx, doc)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				p.observer.LogOperation(observability.StandardObservabilityData{
					Component: "pipeline",
					Operation: "source_" + src.Name(),
					FilePath:  doc.Source,
					Success:   false,
					Error:     err.Error(),
				})
			} else {
				lists[i] = entities
			}
			done := completed.Add(1)
			p.progress.report("detect", 0.1+0.6*float64(done)/float64(total))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		finishTiming(false, map[string]interface{}{"error": err.Error()})
		return nil, err
	}

	p.progress.report("fuse", 0.75)
	entities, stats := p.engine.Fuse(lists, p.opts.Threshold, ruleset.Boost)

	p.progress.report("suppress", 0.85)
	var suppressed []detector.SuppressedEntity
	if p.opts.Suppressions != nil {
		entities, suppressed = p.opts.Suppressions.Filter(entities)
	}

	detector.ApplyFieldPolicy(entities, p.opts.RequiredFields)

	result := &Result{
		Source:         doc.Source,
		Entities:       entities,
		Suppressed:     suppressed,
		Classification: classification,
		Ruleset:        ruleset,
		Stats:          stats,
	}
	if ruleset.DetectTables {
		result.Columns = spatial.Columns(doc.Words, spatial.DefaultColumnTolerance)
	}

	p.progress.report("done", 1.0)
	finishTiming(true, map[string]interface{}{
		"document_type": string(classification.Type),
		"finding_count": len(result.Entities),
		"source_count":  total,
	})
	return result, nil
}

// buildSources assembles the detection sources the ruleset allows.
// Sources are stateless, so per-run construction is cheap and keeps the
// strictness and key-table gating tied to this document's type.
func (p *Pipeline) buildSources(rules classifier.Ruleset, docType classifier.DocumentType) []detector.Source {
	sources := []detector.Source{
		aadhaar.NewValidator(),
		pan.NewValidator(),
		creditcard.NewValidator(),
		phone.NewValidator(),
		contextual.NewValidator(rules.StrictPatterns || p.opts.StrictPatterns),
		spatial.NewMapper(rules.PrioritizeSpatial),
	}
	if !rules.SkipHeuristic {
		sources = append(sources, heuristic.NewValidator())
	}
	if p.opts.ImagePath != "" {
		sources = append(sources, metadata.NewValidator(p.opts.ImagePath))
	}
	if p.opts.AI != nil {
		sources = append(sources, ai.NewSource(p.opts.AI, hintFor(docType)))
	}

	if len(p.opts.DisabledSources) > 0 {
		disabled := make(map[string]bool, len(p.opts.DisabledSources))
		for _, name := range p.opts.DisabledSources {
			disabled[strings.ToLower(strings.TrimSpace(name))] = true
		}
		kept := sources[:0]
		for _, src := range sources {
			if !disabled[src.Name()] {
				kept = append(kept, src)
			}
		}
		sources = kept
	}

	for _, src := range sources {
		if s, ok := src.(observerSetter); ok {
			s.SetObserver(p.observer)
		}
	}
	return sources
}

// observerSetter is implemented by every source that reports timings.
type observerSetter interface {
	SetObserver(*observability.StandardObserver)
}

// hintFor maps a document type onto the categories the external model
// should watch for. The hint steers attention; it never restricts what
// the model may report.
func hintFor(t classifier.DocumentType) []detector.PIIType {
	switch t {
	case classifier.TypeAadhaarCard:
		return []detector.PIIType{detector.TypeAadhaar, detector.TypeName, detector.TypeDOB, detector.TypeAddress}
	case classifier.TypePANCard:
		return []detector.PIIType{detector.TypePAN, detector.TypeName, detector.TypeDOB}
	case classifier.TypePassport:
		return []detector.PIIType{detector.TypePassport, detector.TypeName, detector.TypeDOB, detector.TypeAddress}
	case classifier.TypeBankStatement:
		return []detector.PIIType{detector.TypeAccountNumber, detector.TypeIFSC, detector.TypeCardNumber, detector.TypePhone}
	case classifier.TypeMedicalReport:
		return []detector.PIIType{detector.TypeMedical, detector.TypeName, detector.TypeDOB}
	case classifier.TypeTaxInvoice:
		return []detector.PIIType{detector.TypeGSTIN, detector.TypePAN, detector.TypeAddress}
	case classifier.TypeSalarySlip:
		return []detector.PIIType{detector.TypeName, detector.TypeAccountNumber, detector.TypePAN}
	default:
		return nil
	}
}

// progressReporter serializes callback invocations; source goroutines
// finish in arbitrary order.
type progressReporter struct {
	mu sync.Mutex
	fn ProgressFunc
}

func (p *progressReporter) report(stage string, fraction float64) {
	if p.fn == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fn(stage, fraction)
}

// ParseFields resolves a comma-separated list of category names into
// PII types. The CLI flag and the web request body share this parser.
func ParseFields(list string) ([]detector.PIIType, error) {
	if strings.TrimSpace(list) == "" {
		return nil, nil
	}

	var fields []detector.PIIType
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		t, ok := detector.ParsePIIType(part)
		if !ok {
			return nil, fmt.Errorf("unknown field type: %s", part)
		}
		fields = append(fields, t)
	}
	return fields, nil
}
