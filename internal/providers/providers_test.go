package providers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/TextWarden/internal/infrastructure/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.ProviderConfig
		want    string
		wantErr bool
	}{
		{"gemini", config.ProviderConfig{Kind: KindGemini}, "gemini", false},
		{"empty kind defaults to gemini", config.ProviderConfig{}, "gemini", false},
		{"proxy", config.ProviderConfig{Kind: KindProxy, ProxyURL: "http://localhost:3000"}, "proxy", false},
		{"proxy without url", config.ProviderConfig{Kind: KindProxy}, "", true},
		{"unknown", config.ProviderConfig{Kind: "openai"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(tt.cfg, "en", nil)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Name())
		})
	}
}

func TestHTTPConfig(t *testing.T) {
	hc := HTTPConfig(config.ProviderConfig{Timeout: 5 * time.Second, RetryMax: 0, RateLimit: 2})
	assert.Equal(t, 5*time.Second, hc.Timeout)
	assert.Equal(t, 0, hc.RetryMax)
	assert.Equal(t, 2.0, hc.RateLimit)
	assert.NotEmpty(t, hc.UserAgent)

	hc = HTTPConfig(config.ProviderConfig{})
	assert.Equal(t, 30*time.Second, hc.Timeout)
}
