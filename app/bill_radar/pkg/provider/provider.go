package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	dm "github.com/iWorld-y/bill_radar/app/bill_radar/pkg/model"
)

// 分析服务错误类型，由调用方决定降级策略
var (
	ErrNoCredential      = errors.New("analysis provider credential not configured")
	ErrProviderCall      = errors.New("analysis provider call failed")
	ErrMalformedResponse = errors.New("analysis provider returned malformed response")
)

// Provider 调用生成式分析服务，每个议案只请求一次
type Provider struct {
	chat    model.BaseChatModel
	limiter *rate.Limiter
	log     logrus.FieldLogger
}

// New 创建 Provider。chat 为 nil 表示未配置密钥
func New(chat model.BaseChatModel, limiter *rate.Limiter, log logrus.FieldLogger) *Provider {
	return &Provider{chat: chat, limiter: limiter, log: log}
}

// Configured 是否配置了分析服务
func (p *Provider) Configured() bool {
	return p.chat != nil
}

// Analyze 返回未经规范化的 JSON 对象
func (p *Provider) Analyze(ctx context.Context, ref dm.BillReference, content dm.ContentFetchResult) (dm.RawPayload, error) {
	if p.chat == nil {
		return nil, ErrNoCredential
	}

	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: limiter wait: %w", ErrProviderCall, err)
		}
	}

	messages := []*schema.Message{
		{Role: schema.System, Content: SystemPrompt},
		{Role: schema.User, Content: BuildPrompt(ref, content)},
	}

	resp, err := p.chat.Generate(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProviderCall, err)
	}
	if resp == nil {
		return nil, fmt.Errorf("%w: empty message", ErrMalformedResponse)
	}

	raw, err := DecodePayload(resp.Content)
	if err != nil {
		return nil, err
	}
	p.log.WithField("bill_no", ref.BillNumber).Debugf("分析服务响应: %s", resp.Content)
	return raw, nil
}

// DecodePayload 清理可能的 markdown 标记后解析 JSON 对象
func DecodePayload(content string) (dm.RawPayload, error) {
	cleanContent := strings.TrimSpace(content)
	cleanContent = strings.TrimPrefix(cleanContent, "```json")
	cleanContent = strings.TrimPrefix(cleanContent, "```")
	cleanContent = strings.TrimSuffix(cleanContent, "```")
	cleanContent = strings.TrimSpace(cleanContent)

	var raw dm.RawPayload
	if err := json.Unmarshal([]byte(cleanContent), &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: not a json object", ErrMalformedResponse)
	}
	return raw, nil
}
