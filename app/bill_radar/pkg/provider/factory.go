package provider

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"golang.org/x/time/rate"

	"github.com/iWorld-y/bill_radar/app/bill_radar/pkg/config"
)

// NewChatModel 根据配置创建分析模型。未配置密钥时返回 nil，由调用方走模拟分析
func NewChatModel(ctx context.Context, cfg config.LLMConfig) (model.BaseChatModel, error) {
	if cfg.APIKey == "" {
		return nil, nil
	}

	switch cfg.Provider {
	case "", "openai":
		chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL: cfg.BaseURL,
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("LLM 初始化失败: %w", err)
		}
		return chatModel, nil

	case "gemini":
		chatModel, err := NewGeminiChatModel(ctx, cfg.APIKey, cfg.Model)
		if err != nil {
			return nil, err
		}
		return chatModel, nil

	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.Provider)
	}
}

// NewLimiter Limit 设置为 RPM/60，Burst 设置为 QPS
func NewLimiter(cfg config.ConcurrencyConfig) *rate.Limiter {
	limit := rate.Limit(float64(cfg.RPM) / 60.0)
	burst := cfg.QPS
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(limit, burst)
}
