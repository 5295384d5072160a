package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"
)

var errStreamUnsupported = errors.New("gemini chat model: stream not supported")

// GeminiChatModel 将 genai 客户端适配为 eino 的 BaseChatModel
type GeminiChatModel struct {
	client *genai.Client
	model  string
}

var _ model.BaseChatModel = (*GeminiChatModel)(nil)

// NewGeminiChatModel 使用 Gemini API 密钥创建模型
func NewGeminiChatModel(ctx context.Context, apiKey, modelName string) (*GeminiChatModel, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiChatModel{client: cli, model: modelName}, nil
}

// Generate 请求 application/json 响应
func (g *GeminiChatModel) Generate(ctx context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	var (
		system   *genai.Content
		contents []*genai.Content
	)
	for _, m := range input {
		part := []*genai.Part{{Text: m.Content}}
		switch m.Role {
		case schema.System:
			system = &genai.Content{Parts: part}
		case schema.Assistant:
			contents = append(contents, &genai.Content{Role: "model", Parts: part})
		default:
			contents = append(contents, &genai.Content{Role: "user", Parts: part})
		}
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		SystemInstruction: system,
		ResponseMIMEType:  "application/json",
	})
	if err != nil {
		return nil, fmt.Errorf("gemini API request failed: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, errors.New("gemini API returned no candidates")
	}

	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p != nil {
			sb.WriteString(p.Text)
		}
	}
	return schema.AssistantMessage(sb.String(), nil), nil
}

// Stream 分析只需要一次完整响应
func (g *GeminiChatModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errStreamUnsupported
}
