package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const placeholderKey = "your-groq-api-key-here"

type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float32
	Timeout     time.Duration
}

// Client sends single-message chat completions to an OpenAI-compatible
// endpoint (Groq by default).
type Client struct {
	api         *openai.Client
	keyOK       bool
	model       string
	maxTokens   int
	temperature float32
}

func NewClient(cfg Config) *Client {
	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	apiCfg.HTTPClient = &statusDoer{client: &http.Client{Timeout: cfg.Timeout}}

	return &Client{
		api:         openai.NewClientWithConfig(apiCfg),
		keyOK:       KeyConfigured(cfg.APIKey),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}
}

// KeyConfigured reports whether key looks like a real credential.
func KeyConfigured(key string) bool {
	key = strings.TrimSpace(key)
	return key != "" && key != placeholderKey
}

func (c *Client) Model() string {
	return c.model
}

// Complete sends prompt as a single user message and returns the text of
// the first choice. Failures are returned as *Error or ErrMissingCredential.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	if !c.keyOK {
		return "", ErrMissingCredential
	}

	ctx, status := withStatus(ctx)
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	})
	if err != nil {
		return "", classify(err, *status)
	}

	if len(resp.Choices) == 0 {
		return "", &Error{Kind: KindUpstream, Err: errors.New("response contained no choices")}
	}

	return resp.Choices[0].Message.Content, nil
}

type statusKey struct{}

func withStatus(ctx context.Context) (context.Context, *int) {
	status := new(int)
	return context.WithValue(ctx, statusKey{}, status), status
}

// statusDoer records the upstream HTTP status so failures can be classified
// even when the error body is not a JSON error envelope.
type statusDoer struct {
	client *http.Client
}

func (d *statusDoer) Do(req *http.Request) (*http.Response, error) {
	resp, err := d.client.Do(req)
	if resp != nil {
		if status, ok := req.Context().Value(statusKey{}).(*int); ok {
			*status = resp.StatusCode
		}
	}
	return resp, err
}
