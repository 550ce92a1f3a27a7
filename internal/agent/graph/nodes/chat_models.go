package nodes

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"google.golang.org/genai"

	"github.com/chative/supportdesk/internal/agent/model"
	logx "github.com/chative/supportdesk/pkg/logger"
)

// ChatModelConfig holds the configuration for chat model creation
type ChatModelConfig struct {
	APIKey     string
	BaseURL    string
	Generator  *model.GeneratorConfig
	Classifier *model.ClassifierConfig
}

// ChatModels holds the reply generator model and, when configured, the NLU
// classifier model.
type ChatModels struct {
	Generator           *gemini.ChatModel
	Classifier          *gemini.ChatModel
	GeneratorModelName  string
	ClassifierModelName string
}

// NewChatModels creates the Gemini chat models sharing one client.
func NewChatModels(ctx context.Context, config ChatModelConfig) (*ChatModels, error) {
	if config.Generator == nil {
		return nil, fmt.Errorf("generator config is nil")
	}
	if config.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is empty")
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = config.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	chatModelGenerator, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       config.Generator.Model,
		Temperature: &config.Generator.Temperature,
		MaxTokens:   &config.Generator.MaxTokens,
		ThinkingConfig: &genai.ThinkingConfig{
			IncludeThoughts: false,
			ThinkingBudget:  genai.Ptr(int32(1024)),
		},
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating generator model")
		return nil, fmt.Errorf("error creating generator model: %w", err)
	}

	cms := &ChatModels{
		Generator:          chatModelGenerator,
		GeneratorModelName: config.Generator.Model,
	}

	if config.Classifier != nil {
		chatModelClassifier, err := gemini.NewChatModel(ctx, &gemini.Config{
			Client:      client,
			Model:       config.Classifier.Model,
			Temperature: &config.Classifier.Temperature,
			MaxTokens:   &config.Classifier.MaxTokens,
		})
		if err != nil {
			logx.Error().Err(err).Msg("Error creating classifier model")
			return nil, fmt.Errorf("error creating classifier model: %w", err)
		}
		cms.Classifier = chatModelClassifier
		cms.ClassifierModelName = config.Classifier.Model
	}

	return cms, nil
}
