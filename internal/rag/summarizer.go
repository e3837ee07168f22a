package rag

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// ErrNoAPIKey is returned when summarization is attempted without a
// configured chat completion key.
var ErrNoAPIKey = errors.New("no API key configured")

// DefaultTemplate is the summarization prompt. {question} and {context}
// are replaced at request time.
const DefaultTemplate = `
Summarize the following document clearly and concisely. Your goal is to provide a complete overview of the content, highlighting the most important points, arguments, or sections.

Instructions:
- Do not act as an assistant or expert.
- Focus on the core content of the entire document.
- Present the main ideas in bullet points (5 to 10 points).
- Ensure the summary captures key sections and logical flow.
Question: {question}
Context: {context}
Answer:
`

// DefaultQuestion is the question asked of every document unless a prompt
// profile overrides it.
const DefaultQuestion = "Summarize the main points of the document in 5 to 10 bullet points."

// Reasoning models wrap their scratchpad in think tags before the answer.
var thinkRE = regexp.MustCompile(`(?s)<think>.*?</think>`)

// SummarizerConfig holds chat completion configuration.
type SummarizerConfig struct {
	Model      string // default: "deepseek-r1-distill-llama-70b"
	APIKey     string
	BaseURL    string // default: Groq's OpenAI-compatible endpoint
	MaxRetries int    // attempts per request, default 3
}

// Summarizer turns retrieved context into a summary.
type Summarizer interface {
	// Summarize renders the template with the question and context and
	// sends it to the model. An empty template uses DefaultTemplate.
	Summarize(ctx context.Context, question, contextText, template string) (string, error)

	// Model returns the configured model name.
	Model() string
}

// groqSummarizer implements Summarizer over an OpenAI-compatible chat API.
type groqSummarizer struct {
	config SummarizerConfig
	client *openai.Client
}

// NewSummarizer creates a new summarizer.
func NewSummarizer(config SummarizerConfig) Summarizer {
	if config.Model == "" {
		config.Model = "deepseek-r1-distill-llama-70b"
	}
	if config.BaseURL == "" {
		config.BaseURL = "https://api.groq.com/openai/v1"
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = 3
	}

	clientCfg := openai.DefaultConfig(config.APIKey)
	clientCfg.BaseURL = config.BaseURL

	return &groqSummarizer{
		config: config,
		client: openai.NewClientWithConfig(clientCfg),
	}
}

// Summarize renders the prompt and sends it to the model.
func (s *groqSummarizer) Summarize(ctx context.Context, question, contextText, template string) (string, error) {
	if s.config.APIKey == "" {
		return "", ErrNoAPIKey
	}

	prompt := renderPrompt(question, contextText, template)

	var content string
	var err error
	for attempt := 0; attempt < s.config.MaxRetries; attempt++ {
		content, err = s.complete(ctx, prompt)
		if err == nil {
			break
		}
		if attempt < s.config.MaxRetries-1 {
			backoff := time.Duration(math.Pow(2, float64(attempt))) * time.Second
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
	}
	if err != nil {
		return "", fmt.Errorf("chat completion after retries: %w", err)
	}

	return stripThinking(content), nil
}

func (s *groqSummarizer) Model() string {
	return s.config.Model
}

func (s *groqSummarizer) complete(ctx context.Context, prompt string) (string, error) {
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion response")
	}

	return resp.Choices[0].Message.Content, nil
}

// renderPrompt fills the template placeholders, falling back to the
// built-in question and template where none are given.
func renderPrompt(question, contextText, template string) string {
	if question == "" {
		question = DefaultQuestion
	}
	if template == "" {
		template = DefaultTemplate
	}

	return strings.NewReplacer(
		"{question}", question,
		"{context}", contextText,
	).Replace(template)
}

// stripThinking drops reasoning scratchpad blocks, keeping the answer.
func stripThinking(content string) string {
	return strings.TrimSpace(thinkRE.ReplaceAllString(content, ""))
}

