// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/vertexai/genai"
	"golang.org/x/time/rate"

	"redact-scan/internal/observability"
	"redact-scan/internal/ocr"
	"redact-scan/internal/resilience"
)

const defaultModel = "gemini-1.5-pro"

const systemPrompt = `You are a PII detection engine for OCR output of Indian identity and financial documents (Aadhaar cards, PAN cards, passports, bank statements, medical reports, invoices, salary slips).

You receive document text and return every personally identifiable span you find. Respond with ONLY a JSON array, no prose, where each element is an object with these keys:
- "category": one of NAME, PHONE, EMAIL, ADDRESS, AADHAAR, PAN, PASSPORT, VOTER_ID, DRIVING_LICENCE, ACCOUNT_NUMBER, CARD_NUMBER, IFSC, GSTIN, DOB, MEDICAL, or SENSITIVE for anything personal that fits no other category
- "text": the span exactly as it appears in the document
- "word_ids": when the input carries token identifiers, the identifiers of the tokens the span covers, in order
- "confidence": your confidence between 0 and 1

Return [] when the document contains no PII. Never invent spans that are not in the input.`

const taggedInstruction = `Each line below is one OCR token: its identifier, a space, then its text. Flag every PII span and return the word_ids of the tokens each span covers.`

const phraseInstruction = `The OCR text of a document follows. Flag every PII span and return each one's exact text.`

// VertexConfig holds what is needed to reach a Vertex AI model.
type VertexConfig struct {
	ProjectID         string
	Region            string
	Model             string // defaults to gemini-1.5-pro
	RequestsPerMinute int    // client-side rate limit, defaults to 60
}

// VertexClient implements Client against a Vertex AI Gemini model in JSON
// response mode. Calls are rate limited client-side, retried for transient
// and rate-limit failures only, and guarded by a circuit breaker; quota
// exhaustion fails fast.
type VertexClient struct {
	base     *genai.Client
	model    *genai.GenerativeModel
	limiter  *rate.Limiter
	breaker  *resilience.CircuitBreaker
	retry    resilience.RetryConfig
	observer *observability.StandardObserver
}

// NewVertexClient connects to Vertex AI and configures the model for
// deterministic JSON output.
func NewVertexClient(ctx context.Context, cfg VertexConfig) (*VertexClient, error) {
	if cfg.ProjectID == "" || cfg.Region == "" {
		return nil, fmt.Errorf("vertex client: project and region are required")
	}

	base, err := genai.NewClient(ctx, cfg.ProjectID, cfg.Region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	name := cfg.Model
	if name == "" {
		name = defaultModel
	}
	model := base.GenerativeModel(name)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemPrompt)},
	}
	model.GenerationConfig = genai.GenerationConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0.0),
	}

	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 60
	}

	return &VertexClient{
		base:    base,
		model:   model,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1),
		breaker: resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig("vertex")),
		retry:   resilience.ModelCallRetryConfig(),
	}, nil
}

// SetObserver sets the observability component.
func (c *VertexClient) SetObserver(observer *observability.StandardObserver) {
	c.observer = observer
}

// Name implements Client.
func (c *VertexClient) Name() string {
	return "vertex"
}

// Close releases the underlying connection.
func (c *VertexClient) Close() error {
	if c.base != nil {
		return c.base.Close()
	}
	return nil
}

// Annotate implements Client. The context carries the strategy timeout;
// rate limiting waits under that same deadline.
func (c *VertexClient) Annotate(ctx context.Context, req Request) ([]Finding, error) {
	var finishTiming func(bool, map[string]interface{})
	if c.observer != nil {
		finishTiming = c.observer.StartTiming("vertex_client", "annotate", string(req.Mode))
	}

	if err := c.limiter.Wait(ctx); err != nil {
		if finishTiming != nil {
			finishTiming(false, map[string]interface{}{"error": err.Error()})
		}
		return nil, err
	}

	prompt := genai.Text(buildUserPrompt(req))
	findings, err := resilience.RetryWithResult(ctx, c.retry, func(ctx context.Context) ([]Finding, error) {
		var out []Finding
		execErr := c.breaker.Execute(ctx, func(ctx context.Context) error {
			resp, err := c.model.GenerateContent(ctx, prompt)
			if err != nil {
				return err
			}
			payload := responseText(resp)
			if payload == "" {
				return resilience.NewTransientError("empty model response", nil)
			}
			if err := json.Unmarshal([]byte(payload), &out); err != nil {
				return fmt.Errorf("malformed model response: %w", err)
			}
			return nil
		})
		return out, execErr
	})

	if finishTiming != nil {
		finishTiming(err == nil, map[string]interface{}{
			"finding_count": len(findings),
			"breaker_state": c.breaker.GetState().String(),
		})
	}
	return findings, err
}

// buildUserPrompt renders the uniform request into the per-mode prompt.
func buildUserPrompt(req Request) string {
	var b strings.Builder

	switch req.Mode {
	case ModeTagged:
		b.WriteString(taggedInstruction)
	default:
		b.WriteString(phraseInstruction)
	}

	if len(req.Hint) > 0 {
		names := make([]string, len(req.Hint))
		for i, t := range req.Hint {
			names[i] = string(t)
		}
		b.WriteString("\nPay particular attention to these categories: ")
		b.WriteString(strings.Join(names, ", "))
		b.WriteString(".")
	}

	b.WriteString("\n\n")
	if req.Mode == ModeTagged {
		for i, w := range req.Words {
			b.WriteString(ocr.TokenID(i))
			b.WriteString(" ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	} else {
		b.WriteString(strings.Join(req.Words, " "))
		b.WriteString("\n")
	}

	return b.String()
}

// responseText extracts the text payload from a model response, stripping
// markdown fences the JSON response mode occasionally leaks.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return ""
	}
	txt, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return ""
	}
	clean := strings.TrimSpace(string(txt))
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")
	return strings.TrimSpace(clean)
}

// BreakerState exposes the circuit breaker state for health reporting.
func (c *VertexClient) BreakerState() string {
	return c.breaker.GetState().String()
}

var _ Client = (*VertexClient)(nil)
