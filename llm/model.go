// Copyright 2025 Transpilot Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package llm

import (
	"context"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino-ext/components/model/qwen"
	"github.com/pkg/errors"
)

// NewChatModel builds the provider client for m. Construction failure is an
// initialization error for the caller to treat as fatal.
func NewChatModel(ctx context.Context, m ModelConfig) (ChatModel, error) {
	if m.MaxTokens == 0 {
		m.MaxTokens = 16 * 1024
	}
	// Set default timeout to 600 seconds if not specified
	if m.Timeout == 0 {
		m.Timeout = 600 * time.Second
	}
	switch m.APIType {
	case ModelTypeARK:
		return ark.NewChatModel(ctx, &ark.ChatModelConfig{
			BaseURL:     m.BaseURL,
			APIKey:      m.APIKey,
			Model:       m.ModelName,
			Temperature: m.Temperature,
			MaxTokens:   &m.MaxTokens,
		})
	case ModelTypeOpenAI:
		return openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL:     m.BaseURL,
			APIKey:      m.APIKey,
			Model:       m.ModelName,
			Temperature: m.Temperature,
			MaxTokens:   &m.MaxTokens,
			Timeout:     m.Timeout,
		})
	case ModelTypeDashScope:
		// DashScope (Qwen) uses OpenAI-compatible API
		baseURL := m.BaseURL
		if baseURL == "" {
			baseURL = "https://dashscope.aliyuncs.com/compatible-mode/v1"
		}
		return qwen.NewChatModel(ctx, &qwen.ChatModelConfig{
			BaseURL:     baseURL,
			APIKey:      m.APIKey,
			Model:       m.ModelName,
			Temperature: m.Temperature,
			MaxTokens:   &m.MaxTokens,
			Timeout:     m.Timeout,
		})
	case ModelTypeDeepSeek:
		// DeepSeek uses OpenAI-compatible API
		baseURL := m.BaseURL
		if baseURL == "" {
			baseURL = "https://api.deepseek.com"
		}
		return openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL:     baseURL,
			APIKey:      m.APIKey,
			Model:       m.ModelName,
			Temperature: m.Temperature,
			MaxTokens:   &m.MaxTokens,
			Timeout:     m.Timeout,
		})
	case ModelTypeOllama:
		return ollama.NewChatModel(ctx, &ollama.ChatModelConfig{
			BaseURL: m.BaseURL,
			Model:   m.ModelName,
		})
	case ModelTypeClaude:
		return claude.NewChatModel(ctx, &claude.Config{
			BaseURL:     &m.BaseURL,
			APIKey:      m.APIKey,
			Model:       m.ModelName,
			Temperature: m.Temperature,
			MaxTokens:   m.MaxTokens,
		})
	}
	return nil, errors.Errorf("unsupported model type %q", m.APIType)
}
