package textpipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"chirp/internal/middleware"
	"chirp/internal/observability"

	"github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
)

const (
	grammarPrompt = "You correct grammar and spelling of short social media posts. " +
		"Reply with the corrected post only. Keep the language, meaning, mentions and hashtags unchanged."
	sentimentPrompt = "Classify the sentiment of the user's post. " +
		"Reply with exactly one word: positive, negative or neutral."
	hashtagPrompt = "Suggest up to five short hashtags for the user's post. " +
		"Reply with the hashtags only, separated by spaces, each starting with #."
)

// ErrEmptyCompletion is returned when the model answers with no choices or no text.
var ErrEmptyCompletion = errors.New("empty completion")

// OpenAIConfig configures the OpenAI-compatible pipeline.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	// RequestsPerSecond throttles outbound calls process-wide; 0 disables throttling.
	RequestsPerSecond float64
}

// OpenAIPipeline runs grammar correction, then sentiment and hashtag extraction on the
// corrected text, through chat completions.
type OpenAIPipeline struct {
	client  *openai.Client
	model   string
	limiter *rate.Limiter
}

// NewOpenAIPipeline creates the pipeline. It is safe for concurrent use.
func NewOpenAIPipeline(cfg OpenAIConfig) *OpenAIPipeline {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RequestsPerSecond > 0 {
		burst := int(cfg.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	middleware.Logger.Info("Initializing text pipeline", slog.String("provider", "openai"), slog.String("model", model))
	return &OpenAIPipeline{
		client:  openai.NewClientWithConfig(clientCfg),
		model:   model,
		limiter: limiter,
	}
}

// Process implements Pipeline. Any failed step fails the whole run.
func (p *OpenAIPipeline) Process(ctx context.Context, text string) (res Result, err error) {
	ctx, span := observability.StartSpan(ctx, "textpipeline", "process",
		attribute.String("textpipeline.model", p.model),
		attribute.Int("textpipeline.input_len", len(text)),
	)
	defer func() { observability.EndSpan(span, err) }()

	corrected, err := p.complete(ctx, grammarPrompt, text)
	if err != nil {
		return Result{}, fmt.Errorf("grammar correction: %w", err)
	}
	corrected = CleanCorrection(corrected)
	if corrected == "" {
		corrected = text
	}

	sentiment, err := p.complete(ctx, sentimentPrompt, corrected)
	if err != nil {
		return Result{}, fmt.Errorf("sentiment classification: %w", err)
	}

	tags, err := p.complete(ctx, hashtagPrompt, corrected)
	if err != nil {
		return Result{}, fmt.Errorf("hashtag generation: %w", err)
	}

	return Result{
		Content:   corrected,
		Sentiment: NormalizeSentiment(sentiment),
		Hashtags:  NormalizeHashtags(tags),
	}, nil
}

func (p *OpenAIPipeline) complete(ctx context.Context, system, user string) (string, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return "", err
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: 0,
		MaxTokens:   256,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", ErrEmptyCompletion
	}
	return resp.Choices[0].Message.Content, nil
}
