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

// Package llm wraps the eino chat model providers behind a single factory so
// the rest of the tool talks to one ChatModel interface.
package llm

import (
	"context"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/pkg/errors"

	"github.com/transpilot/transpilot/internal/log"
)

type ModelConfig struct {
	APIType     ModelType     `json:"type"`
	BaseURL     string        `json:"base_url"`
	APIKey      string        `json:"api_key"`
	ModelName   string        `json:"model_name"` // the endpoint of the model, like `claude-opus-4-20250514`
	Temperature *float32      `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	Timeout     time.Duration `json:"timeout"` // HTTP request timeout, default: 600s
	Retries     int           `json:"retries"` // Number of retries on failure, default: 3
}

type ModelType string

func NewModelType(t string) ModelType {
	switch strings.ToLower(t) {
	case "ollama":
		return ModelTypeOllama
	case "ark", "doubao":
		return ModelTypeARK
	case "openai", "gpt":
		return ModelTypeOpenAI
	case "claude", "anthropic":
		return ModelTypeClaude
	case "dashscope", "qwen", "tongyi":
		return ModelTypeDashScope
	case "deepseek":
		return ModelTypeDeepSeek
	}
	return ModelTypeUnknown
}

const (
	ModelTypeUnknown   ModelType = ""
	ModelTypeOllama    ModelType = "ollama"
	ModelTypeARK       ModelType = "ark"
	ModelTypeOpenAI    ModelType = "openai"
	ModelTypeClaude    ModelType = "claude"
	ModelTypeDashScope ModelType = "dashscope"
	ModelTypeDeepSeek  ModelType = "deepseek"
)

// ChatModel is the interface for making LLM backend.
type ChatModel interface {
	model.ToolCallingChatModel
}

// Complete sends one system+user exchange and returns the completion text,
// retrying transient failures per cfg.Retries.
func Complete(ctx context.Context, m ChatModel, cfg ModelConfig, system, user string) (string, error) {
	messages := []*schema.Message{}
	if system != "" {
		messages = append(messages, schema.SystemMessage(system))
	}
	messages = append(messages, schema.UserMessage(user))

	retries := cfg.Retries
	if retries == 0 {
		retries = 3
	}
	var lastErr error
	for attempt := 1; attempt <= retries; attempt++ {
		resp, err := m.Generate(ctx, messages)
		if err == nil {
			return resp.Content, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		log.Warn("model call failed (attempt %d/%d): %v", attempt, retries, err)
	}
	return "", errors.Wrap(lastErr, "model generate")
}
