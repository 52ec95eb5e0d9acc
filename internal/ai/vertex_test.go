// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package ai

import (
	"context"
	"strings"
	"testing"

	"cloud.google.com/go/vertexai/genai"

	"redact-scan/internal/detector"
)

func TestNewVertexClient_RequiresProjectAndRegion(t *testing.T) {
	if _, err := NewVertexClient(context.Background(), VertexConfig{Region: "asia-south1"}); err == nil {
		t.Error("expected error for missing project")
	}
	if _, err := NewVertexClient(context.Background(), VertexConfig{ProjectID: "p"}); err == nil {
		t.Error("expected error for missing region")
	}
}

func TestBuildUserPrompt_Tagged(t *testing.T) {
	prompt := buildUserPrompt(Request{
		Mode:  ModeTagged,
		Words: []string{"Name:", "John", "Doe"},
		Hint:  []detector.PIIType{detector.TypeName},
	})

	for _, want := range []string{"w0 Name:\n", "w1 John\n", "w2 Doe\n", "NAME"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
	if !strings.Contains(prompt, "identifier") {
		t.Error("tagged prompt should explain the token identifiers")
	}
}

func TestBuildUserPrompt_Phrase(t *testing.T) {
	prompt := buildUserPrompt(Request{
		Mode:  ModePhrase,
		Words: []string{"Name:", "John", "Doe"},
	})

	if !strings.Contains(prompt, "Name: John Doe") {
		t.Errorf("phrase prompt should join the words:\n%s", prompt)
	}
	if strings.Contains(prompt, "w0 ") {
		t.Error("phrase prompt must not carry token identifiers")
	}
	if strings.Contains(prompt, "particular attention") {
		t.Error("no hint requested, none should be rendered")
	}
}

func TestResponseText_StripsFences(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{
				Parts: []genai.Part{genai.Text("```json\n[{\"category\":\"NAME\"}]\n```")},
			},
		}},
	}

	got := responseText(resp)
	if got != `[{"category":"NAME"}]` {
		t.Errorf("responseText = %q", got)
	}
}

func TestResponseText_EmptyShapes(t *testing.T) {
	if responseText(nil) != "" {
		t.Error("nil response should yield empty payload")
	}
	if responseText(&genai.GenerateContentResponse{}) != "" {
		t.Error("no candidates should yield empty payload")
	}
	if responseText(&genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}}) != "" {
		t.Error("nil content should yield empty payload")
	}
}
