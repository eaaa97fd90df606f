// Package ai 封装聊天模型的流式调用
package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/solacore/solve-api/internal/config"
)

// Service AI 流式服务
type Service struct {
	chatModel einomodel.BaseChatModel
}

// NewService 按配置的 provider 创建聊天模型
// deepseek 和 dashscope 都走 OpenAI 兼容接口，只是 BaseURL 不同
func NewService(ctx context.Context, cfg *config.AIConfig) (*Service, error) {
	var apiKey, baseURL, modelName string
	var timeout int

	switch cfg.Provider {
	case "openai":
		apiKey = cfg.OpenAI.APIKey
		baseURL = cfg.OpenAI.BaseURL
		modelName = cfg.OpenAI.Model
		timeout = cfg.OpenAI.Timeout
	case "deepseek":
		apiKey = cfg.DeepSeek.APIKey
		baseURL = cfg.DeepSeek.BaseURL
		modelName = cfg.DeepSeek.Model
		timeout = cfg.DeepSeek.Timeout
	case "alibaba", "qwen", "dashscope":
		apiKey = cfg.DashScope.APIKey
		baseURL = cfg.DashScope.BaseURL
		modelName = cfg.DashScope.Model
		timeout = cfg.DashScope.Timeout
	default:
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	if apiKey == "" {
		return nil, fmt.Errorf("api_key is required for provider: %s", cfg.Provider)
	}
	if modelName == "" {
		modelName = "gpt-4o-mini"
	}
	if timeout <= 0 {
		timeout = 60
	}

	temperature := float32(0.7)
	maxTokens := cfg.MaxTokens

	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:      apiKey,
		BaseURL:     baseURL,
		Model:       modelName,
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
		Timeout:     time.Duration(timeout) * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	return &Service{chatModel: chatModel}, nil
}

// Stream 发起一次流式生成
// 返回的 StreamReader 是一次性的：Recv 到 io.EOF 或 Close 放弃
func (s *Service) Stream(ctx context.Context, messages []*schema.Message) (*schema.StreamReader[*schema.Message], error) {
	if s == nil || s.chatModel == nil {
		return nil, fmt.Errorf("chat model is not configured")
	}
	return s.chatModel.Stream(ctx, messages)
}
