package openrouter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"ingredient-extractor/internal/core/ai/provider"
	"ingredient-extractor/internal/infrastructure/config"
	"ingredient-extractor/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://openrouter.ai/api/v1"
	retryWaitTime  = 500 * time.Millisecond
	retryMaxWait   = 5 * time.Second
)

// Client OpenRouter API 客戶端，實作 provider.Invoker
type Client struct {
	client  *resty.Client
	config  config.OpenRouterConfig
	limiter *rate.Limiter
}

var _ provider.Invoker = (*Client)(nil)

// Message 消息結構
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request 表示 API 請求
type Request struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature"`
	Stream      bool      `json:"stream"`
}

// Response OpenRouter 響應結構
type Response struct {
	ID      string    `json:"id"`
	Model   string    `json:"model"`
	Choices []Choice  `json:"choices"`
	Usage   UsageInfo `json:"usage"`
	Error   *APIError `json:"error,omitempty"`
}

// Choice 選擇結構
type Choice struct {
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// UsageInfo 使用量信息
type UsageInfo struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// APIError 表示 API 錯誤
type APIError struct {
	Message string      `json:"message"`
	Type    string      `json:"type"`
	Code    interface{} `json:"code"`
}

type errorEnvelope struct {
	Error *APIError `json:"error"`
}

// NewClient 創建新的 OpenRouter 客戶端
func NewClient(cfg config.OpenRouterConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetHeader("Authorization", fmt.Sprintf("Bearer %s", cfg.APIKey)).
		SetHeader("HTTP-Referer", cfg.Referer).
		SetHeader("X-Title", cfg.Title).
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(retryWaitTime).
		SetRetryMaxWaitTime(retryMaxWait).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= http.StatusInternalServerError
		})
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	return &Client{
		client:  client,
		config:  cfg,
		limiter: rate.NewLimiter(limit, burst),
	}
}

// Model 返回預設模型名稱
func (c *Client) Model() string {
	return c.config.Model
}

// Invoke 發送單輪對話並返回模型輸出的文字
func (c *Client) Invoke(ctx context.Context, prompt string, opts provider.Options) (string, error) {
	if !c.config.Enabled {
		return "", common.ErrLLMDisabled
	}

	req := &Request{
		Model:       c.config.Model,
		Messages:    []Message{{Role: "user", Content: prompt}},
		MaxTokens:   c.config.MaxTokens,
		Temperature: c.config.Temperature,
	}
	if opts.Model != "" {
		req.Model = opts.Model
	}
	if opts.MaxTokens > 0 {
		req.MaxTokens = opts.MaxTokens
	}
	if opts.Temperature > 0 {
		req.Temperature = opts.Temperature
	}

	// 等待速率限制
	if err := c.limiter.Wait(ctx); err != nil {
		return "", common.NewError(common.ErrCodeTooManyRequests, "rate limiter wait failed", http.StatusTooManyRequests, err)
	}

	start := time.Now()
	content, err := c.send(ctx, req)
	common.LogAICall(req.Model, time.Since(start), err)
	return content, err
}

func (c *Client) send(ctx context.Context, req *Request) (string, error) {
	common.LogDebug("Sending request to OpenRouter",
		zap.String("model", req.Model),
		zap.Int("max_tokens", req.MaxTokens),
		zap.String("prompt", req.Messages[0].Content),
	)

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		Post("/chat/completions")
	if err != nil {
		return "", common.NewError(common.ErrCodeAIService, "failed to send request to OpenRouter", 0, err)
	}

	body := resp.Body()
	if resp.StatusCode() != http.StatusOK {
		msg := resp.Status()
		var env errorEnvelope
		if jerr := json.Unmarshal(body, &env); jerr == nil && env.Error != nil && env.Error.Message != "" {
			msg = env.Error.Message
		}
		common.LogWarn("AI service returned error status",
			zap.Int("status_code", resp.StatusCode()),
			zap.String("model", req.Model),
			zap.String("body", string(body)),
		)
		return "", common.NewError(common.ErrCodeAIService,
			fmt.Sprintf("OpenRouter API returned status %d", resp.StatusCode()),
			resp.StatusCode(), errors.New(msg))
	}

	var result Response
	if err := json.Unmarshal(body, &result); err != nil {
		return "", common.NewError(common.ErrCodeAIService, "failed to parse OpenRouter response", resp.StatusCode(), err)
	}
	if result.Error != nil {
		return "", common.NewError(common.ErrCodeAIService, "OpenRouter returned an error payload", resp.StatusCode(), errors.New(result.Error.Message))
	}
	if len(result.Choices) == 0 {
		return "", common.NewError(common.ErrCodeAIService, "no choices in OpenRouter response", resp.StatusCode(), nil)
	}

	content := strings.TrimSpace(result.Choices[0].Message.Content)
	if content == "" {
		return "", common.NewError(common.ErrCodeAIService, "empty content in OpenRouter response", resp.StatusCode(), nil)
	}

	common.LogDebug("Successfully generated response from AI service",
		zap.String("model", req.Model),
		zap.Int("content_length", len(content)),
		zap.Int("total_tokens", result.Usage.TotalTokens),
	)

	return content, nil
}

// Close 關閉客戶端
func (c *Client) Close() error {
	c.client.GetClient().CloseIdleConnections()
	return nil
}
