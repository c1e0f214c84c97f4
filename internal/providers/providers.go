package providers

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/TextWarden/internal/domain/analysis"
	"github.com/GriffinCanCode/TextWarden/internal/infrastructure/config"
	"github.com/GriffinCanCode/TextWarden/internal/infrastructure/logging"
	"github.com/GriffinCanCode/TextWarden/internal/providers/gemini"
	"github.com/GriffinCanCode/TextWarden/internal/providers/http/client"
	"github.com/GriffinCanCode/TextWarden/internal/providers/proxy"
)

const (
	KindGemini = "gemini"
	KindProxy  = "proxy"
)

// HTTPConfig maps provider settings onto the shared client configuration
func HTTPConfig(cfg config.ProviderConfig) client.Config {
	hc := client.DefaultConfig()
	if cfg.Timeout > 0 {
		hc.Timeout = cfg.Timeout
	}
	if cfg.RetryMax >= 0 {
		hc.RetryMax = cfg.RetryMax
	}
	hc.RateLimit = cfg.RateLimit
	return hc
}

// New creates the provider named by cfg.Kind. language is the preferred
// explanation language and only affects direct model calls.
func New(cfg config.ProviderConfig, language string, logger *logging.Logger) (analysis.Provider, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	switch cfg.Kind {
	case KindGemini, "":
		logger.Debug("Using Gemini provider",
			zap.String("model", cfg.Model),
			zap.String("base_url", cfg.BaseURL))
		return gemini.New(gemini.Config{
			BaseURL:  cfg.BaseURL,
			Model:    cfg.Model,
			Language: language,
			HTTP:     HTTPConfig(cfg),
		}, logger), nil
	case KindProxy:
		if cfg.ProxyURL == "" {
			return nil, fmt.Errorf("proxy provider requires a proxy URL")
		}
		logger.Debug("Using proxy provider", zap.String("url", cfg.ProxyURL))
		return proxy.New(cfg.ProxyURL, HTTPConfig(cfg), logger), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Kind)
	}
}
