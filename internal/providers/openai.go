package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

// OpenAI implements the Generator interface on the official OpenAI SDK.
type OpenAI struct {
	client openai.Client
	model  string
}

// NewOpenAI creates a new OpenAI provider. CRITIC_OPENAI_BASE_URL points it
// at any OpenAI-compatible endpoint. Extra options are applied last.
func NewOpenAI(model string, opts ...option.RequestOption) (*OpenAI, error) {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		return nil, &CredentialError{Provider: "openai", EnvVars: []string{"OPENAI_API_KEY"}}
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(key),
		// Retries belong to the completion caller.
		option.WithMaxRetries(0),
		option.WithRequestTimeout(120 * time.Second),
	}
	if base := os.Getenv("CRITIC_OPENAI_BASE_URL"); base != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(base))
	}
	reqOpts = append(reqOpts, opts...)

	return &OpenAI{
		client: openai.NewClient(reqOpts...),
		model:  model,
	}, nil
}

func (o *OpenAI) Name() string { return "openai" }

func (o *OpenAI) Generate(ctx context.Context, req Request) (Response, error) {
	var messages []openai.ChatCompletionMessageParamUnion
	if req.SystemPrompt != "" {
		messages = append(messages, openai.SystemMessage(req.SystemPrompt))
	}
	messages = append(messages, openai.UserMessage(req.UserPrompt))

	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(o.model),
		Messages: messages,
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}

	completion, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return Response{}, classifyOpenAIError(err)
	}

	resp := Response{TokensUsed: int(completion.Usage.TotalTokens)}
	if len(completion.Choices) > 0 {
		resp.Content = completion.Choices[0].Message.Content
	}
	return resp, nil
}

func classifyOpenAIError(err error) error {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("sending request: %w", err)
	}
	switch apiErr.StatusCode {
	case http.StatusTooManyRequests:
		return &RateLimitError{Provider: "openai"}
	case http.StatusUnauthorized, http.StatusForbidden:
		return &AuthError{Provider: "openai", Message: apiErr.Error()}
	default:
		return &StatusError{Provider: "openai", StatusCode: apiErr.StatusCode, Body: truncate(apiErr.Error(), 512)}
	}
}
