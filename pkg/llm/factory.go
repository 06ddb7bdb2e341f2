package llm

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/bidintell-inc/bidiq-engine/pkg/config"
)

// NewFromConfig builds the LLM client selected by the oracle configuration.
func NewFromConfig(cfg *config.OracleConfig, logger *zap.Logger) (LLMClient, error) {
	switch cfg.Provider {
	case "anthropic":
		return NewAnthropicClient(cfg.APIKey, cfg.Model, logger)
	case "openai":
		return NewOpenAIClient(cfg.Endpoint, cfg.Model, cfg.APIKey, logger)
	default:
		return nil, fmt.Errorf("unknown oracle provider %q", cfg.Provider)
	}
}
