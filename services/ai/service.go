package ai

import (
	"context"
	"time"

	"github.com/opentracing/opentracing-go"
	tracingLog "github.com/opentracing/opentracing-go/log"
	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"

	"github.com/customeros/mailharvest/config"
	"github.com/customeros/mailharvest/interfaces"
	"github.com/customeros/mailharvest/internal/logger"
	"github.com/customeros/mailharvest/internal/models"
	"github.com/customeros/mailharvest/internal/tracing"
)

const (
	DefaultModel = "gpt-4.1-mini"

	temperature    = 0.1
	maxTokens      = 500
	requestTimeout = 60 * time.Second
)

const systemPrompt = "You are an expert at analysing emails about technical job offers. " +
	"Extract the requested information accurately and answer in JSON."

const instructionPrompt = `Analyse the email below and extract the following information about the technical job:
1. Required tech stack (programming languages, frameworks, tools, etc.)
2. Rate (hourly, monthly, total project budget, etc.)
3. Start date (a concrete date or period)

Answer in the following JSON format:
{
  "tech_stack": ["tech 1", "tech 2", ...],
  "rate": "rate information (empty string if not found)",
  "start_date": "start date (empty string if not found)",
  "is_tech_job": true/false
}

Set is_tech_job to false if the email is not about a technical job.

Email content:
`

type aiService struct {
	client *openai.Client
	model  string
	log    logger.Logger
}

func NewAIService(cfg *config.OpenAIConfig, log logger.Logger) interfaces.ExtractorService {
	clientConfig := openai.DefaultConfig(cfg.ApiKey)
	if cfg.BaseUrl != "" {
		clientConfig.BaseURL = cfg.BaseUrl
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	return &aiService{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
		log:    log,
	}
}

func (s *aiService) Extract(ctx context.Context, body string) models.ExtractionResult {
	span, ctx := opentracing.StartSpanFromContext(ctx, "aiService.Extract")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("model", s.model)

	result, err := s.extract(ctx, body)
	if err != nil {
		tracing.TraceErr(span, err)
		s.log.Warnf("Structured extraction failed, using defaults: %v", err)
		return models.DefaultExtractionResult()
	}

	tracing.LogObjectAsJson(span, "result", result)
	return result
}

func (s *aiService) extract(ctx context.Context, body string) (models.ExtractionResult, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: instructionPrompt + body},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return models.ExtractionResult{}, errors.Wrap(err, "chat completion request failed")
	}
	if len(resp.Choices) == 0 {
		return models.ExtractionResult{}, errors.New("chat completion returned no choices")
	}

	if span := opentracing.SpanFromContext(ctx); span != nil {
		span.LogFields(tracingLog.Int("total_tokens", resp.Usage.TotalTokens))
	}
	return ParseExtractionReply(resp.Choices[0].Message.Content)
}

var _ interfaces.ExtractorService = (*aiService)(nil)
