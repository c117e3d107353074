package brain

import (
	"context"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/inkling-labs/inkling-core/internal/config"
)

// namedProvider pairs a Provider with the config key it was built from, so
// BuildProviders can promote the configured primary to index 0.
type namedProvider struct {
	key      string
	provider Provider
}

// resolveAPIKey returns cfg.APIKey if set, otherwise the environment
// variable the spec designates for that provider variant.
func resolveAPIKey(key string, cfg *config.ProviderConfig) string {
	if cfg != nil && cfg.APIKey != "" {
		return cfg.APIKey
	}
	switch key {
	case "anthropic":
		return os.Getenv("ANTHROPIC_API_KEY")
	case "openai":
		baseURL := ""
		if cfg != nil {
			baseURL = cfg.BaseURL
		}
		if strings.Contains(baseURL, "api.groq.com") {
			if v := os.Getenv("GROQ_API_KEY"); v != "" {
				return v
			}
		}
		return os.Getenv("OPENAI_API_KEY")
	case "ollama":
		return os.Getenv("OLLAMA_API_KEY")
	case "gemini":
		if v := os.Getenv("GOOGLE_API_KEY"); v != "" {
			return v
		}
		return os.Getenv("GEMINI_API_KEY")
	}
	return ""
}

// BuildProviders constructs every provider variant with a configured or
// env-sourced credential, in the fixed fallback order (anthropic, openai,
// gemini, ollama) with the configured primary promoted to index 0.
// Providers missing a credential are skipped silently.
func BuildProviders(ctx context.Context, ai config.AIConfig, log zerolog.Logger) []Provider {
	order := []string{"anthropic", "openai", "gemini", "ollama"}
	providerCfgs := map[string]*config.ProviderConfig{
		"anthropic": ai.Anthropic,
		"openai":    ai.OpenAI,
		"gemini":    ai.Gemini,
		"ollama":    ai.Ollama,
	}

	var built []namedProvider
	for _, key := range order {
		cfg := providerCfgs[key]
		apiKey := resolveAPIKey(key, cfg)
		if apiKey == "" {
			continue
		}
		model, baseURL := "", ""
		if cfg != nil {
			model, baseURL = cfg.Model, cfg.BaseURL
		}
		var p Provider
		switch key {
		case "anthropic":
			p = NewAnthropicProvider(apiKey, baseURL, model)
		case "openai":
			p = NewOpenAIProvider(apiKey, baseURL, model)
		case "gemini":
			gp, err := NewGeminiProvider(ctx, apiKey, baseURL, model)
			if err != nil {
				log.Warn().Err(err).Msg("gemini provider unavailable")
				continue
			}
			p = gp
		case "ollama":
			p = NewOllamaProvider(apiKey, baseURL, model)
		}
		built = append(built, namedProvider{key: key, provider: p})
	}

	primary := ai.Primary
	if primary != "" {
		for i, np := range built {
			if np.key == primary && i != 0 {
				copy(built[1:i+1], built[0:i])
				built[0] = np
				break
			}
		}
	}

	providers := make([]Provider, len(built))
	for i, np := range built {
		providers[i] = np.provider
	}
	return providers
}
