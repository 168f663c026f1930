package provider

import (
	"context"
)

// Options 單次 LLM 呼叫的參數
type Options struct {
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
	// Model 非空時覆寫預設模型
	Model string `json:"model,omitempty"`
}

// Invoker 定義 LLM 推論提供者介面，回傳模型的原始文字
type Invoker interface {
	Invoke(ctx context.Context, prompt string, opts Options) (string, error)
}

// InvokerFunc 讓一般函式實作 Invoker
type InvokerFunc func(ctx context.Context, prompt string, opts Options) (string, error)

// Invoke 實作 Invoker
func (f InvokerFunc) Invoke(ctx context.Context, prompt string, opts Options) (string, error) {
	return f(ctx, prompt, opts)
}
