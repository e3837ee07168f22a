package rag

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestRenderPrompt(t *testing.T) {
	t.Run("fills placeholders", func(t *testing.T) {
		got := renderPrompt("What is this?", "Some context.", "Q: {question}\nC: {context}")
		want := "Q: What is this?\nC: Some context."
		if got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	})

	t.Run("defaults applied", func(t *testing.T) {
		got := renderPrompt("", "the context", "")

		if !strings.Contains(got, DefaultQuestion) {
			t.Error("expected default question in prompt")
		}
		if !strings.Contains(got, "the context") {
			t.Error("expected context in prompt")
		}
		if strings.Contains(got, "{question}") || strings.Contains(got, "{context}") {
			t.Error("expected placeholders to be replaced")
		}
	})
}

func TestStripThinking(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "no reasoning block",
			content: "- point one\n- point two",
			want:    "- point one\n- point two",
		},
		{
			name:    "leading reasoning block",
			content: "<think>\nlet me work this out\n</think>\n\n- the answer",
			want:    "- the answer",
		},
		{
			name:    "multiple blocks",
			content: "<think>a</think>first<think>b</think> second",
			want:    "first second",
		},
		{
			name:    "unclosed block kept",
			content: "<think>never closed",
			want:    "<think>never closed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripThinking(tt.content); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestSummarizer_NoAPIKey(t *testing.T) {
	s := NewSummarizer(SummarizerConfig{})

	_, err := s.Summarize(context.Background(), "", "some context", "")
	if !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("expected ErrNoAPIKey, got %v", err)
	}
}

func TestSummarizer_Defaults(t *testing.T) {
	s := NewSummarizer(SummarizerConfig{APIKey: "key"})

	if s.Model() != "deepseek-r1-distill-llama-70b" {
		t.Errorf("unexpected default model: %s", s.Model())
	}
}
