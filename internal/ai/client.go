package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"reflect"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
)

const (
	DefaultModel          = "gpt-4o-mini"
	DefaultReasoningModel = "o3-mini"
	DefaultTimeout        = 20 * time.Second
	DefaultMaxAttempts    = 3
	DefaultMaxTokens      = 300
	backoffFactor         = 1.6
)

type ErrorKind string

const (
	KindTransient ErrorKind = "transient"
	KindRejected  ErrorKind = "rejected"
	KindEmpty     ErrorKind = "empty"
	KindInvalid   ErrorKind = "invalid"
)

// Error is returned for every failed structured call. Callers fall back on
// any Error; Kind is there for logging.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("ai: %s", e.Kind)
	}
	return fmt.Sprintf("ai: %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

var ErrDisabled = errors.New("ai: no client configured")

type Message struct {
	Role    string
	Content string
}

func System(content string) Message { return Message{Role: openai.ChatMessageRoleSystem, Content: content} }
func User(content string) Message   { return Message{Role: openai.ChatMessageRoleUser, Content: content} }

// Request describes one structured call. Schema names the JSON schema sent
// to the model; the schema itself is generated from the output value.
type Request struct {
	Reasoning bool
	Schema    string
	Messages  []Message
}

// Client returns a structured object decoded into out.
type Client interface {
	Structured(ctx context.Context, req Request, out any) error
}

type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	ReasoningModel string
	Timeout        time.Duration
	MaxAttempts    int
	MaxTokens      int
}

type OpenAIClient struct {
	api    *openai.Client
	cfg    Config
	logger *slog.Logger
	sleep  func(context.Context, time.Duration) error
}

// NewOpenAIClient returns nil when no API key is configured, which callers
// treat as "AI unavailable".
func NewOpenAIClient(cfg Config, logger *slog.Logger) *OpenAIClient {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.ReasoningModel == "" {
		cfg.ReasoningModel = DefaultReasoningModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if logger == nil {
		logger = slog.Default()
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &OpenAIClient{
		api:    openai.NewClientWithConfig(clientCfg),
		cfg:    cfg,
		logger: logger,
		sleep:  sleepContext,
	}
}

// NewClient is NewOpenAIClient behind the Client interface. It returns a nil
// interface, not a typed nil, when no key is configured.
func NewClient(cfg Config, logger *slog.Logger) Client {
	c := NewOpenAIClient(cfg, logger)
	if c == nil {
		return nil
	}
	return c
}

func (c *OpenAIClient) ModelFor(reasoning bool) string {
	if reasoning {
		return c.cfg.ReasoningModel
	}
	return c.cfg.Model
}

// Structured retries transient failures with exponential backoff and fails
// immediately on rejected requests.
func (c *OpenAIClient) Structured(ctx context.Context, req Request, out any) error {
	target := reflect.ValueOf(out)
	if target.Kind() != reflect.Pointer || target.IsNil() {
		return &Error{Kind: KindInvalid, Err: fmt.Errorf("output must be a non-nil pointer, got %T", out)}
	}
	schema, err := jsonschema.GenerateSchemaForType(target.Elem().Interface())
	if err != nil {
		return &Error{Kind: KindInvalid, Err: err}
	}
	name := req.Schema
	if name == "" {
		name = "response"
	}
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	chatReq := openai.ChatCompletionRequest{
		Model:               c.ModelFor(req.Reasoning),
		Messages:            messages,
		MaxCompletionTokens: c.cfg.MaxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   name,
				Schema: schema,
				Strict: true,
			},
		},
	}

	delay := time.Second
	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		content, err := c.complete(ctx, chatReq)
		if err == nil {
			if strings.TrimSpace(content) == "" {
				return &Error{Kind: KindEmpty}
			}
			if err := schema.Unmarshal(content, out); err != nil {
				return &Error{Kind: KindInvalid, Err: err}
			}
			return nil
		}
		if !isTransient(err) {
			return &Error{Kind: KindRejected, Err: err}
		}
		lastErr = err
		c.logger.Warn("ai request failed", "schema", name, "attempt", attempt, "err", err)
		if attempt == c.cfg.MaxAttempts {
			break
		}
		if err := c.sleep(ctx, delay); err != nil {
			return &Error{Kind: KindTransient, Err: err}
		}
		delay = time.Duration(float64(delay) * backoffFactor)
	}
	return &Error{Kind: KindTransient, Err: lastErr}
}

func (c *OpenAIClient) complete(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()
	resp, err := c.api.CreateChatCompletion(callCtx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

func isTransient(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return transientStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return transientStatus(reqErr.HTTPStatusCode)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func transientStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
