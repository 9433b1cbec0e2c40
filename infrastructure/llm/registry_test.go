package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envFrom(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func TestNewRegistry(t *testing.T) {
	tests := []struct {
		name    string
		config  RegistryConfig
		wantErr string
	}{
		{"empty default", RegistryConfig{}, "default provider cannot be empty"},
		{"unknown default", RegistryConfig{DefaultProvider: "cohere"}, `default provider "cohere" not found`},
		{"valid", RegistryConfig{DefaultProvider: "openai"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, err := NewRegistry(tt.config)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, []string{"anthropic", "google", "openai"}, reg.Providers())
		})
	}
}

func TestRegistry_GetClient(t *testing.T) {
	var middlewareFor []string
	reg, err := NewRegistry(RegistryConfig{
		DefaultProvider: "openai",
		LookupEnv: envFrom(map[string]string{
			"OPENAI_API_KEY":    "sk-test",
			"ANTHROPIC_API_KEY": "ak-test",
		}),
		Middleware: func(provider string) []Middleware {
			middlewareFor = append(middlewareFor, provider)
			return nil
		},
	})
	require.NoError(t, err)

	def, err := reg.GetDefaultClient()
	require.NoError(t, err)
	assert.Equal(t, OpenAIDefaultModel, def.GetModel())

	again, err := reg.GetClient("openai")
	require.NoError(t, err)
	assert.Same(t, def, again, "clients are cached per provider and model")

	custom, err := reg.GetClient("openai/gpt-4o")
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", custom.GetModel())
	assert.NotSame(t, def, custom)

	claude, err := reg.GetClient("anthropic")
	require.NoError(t, err)
	assert.Equal(t, AnthropicDefaultModel, claude.GetModel())

	assert.Equal(t, []string{"openai", "openai", "anthropic"}, middlewareFor)
}

func TestRegistry_GetClientErrors(t *testing.T) {
	reg, err := NewRegistry(RegistryConfig{
		DefaultProvider: "openai",
		LookupEnv:       envFrom(map[string]string{"OPENAI_API_KEY": ""}),
	})
	require.NoError(t, err)

	_, err = reg.GetClient("")
	assert.ErrorContains(t, err, "cannot be empty")

	_, err = reg.GetClient("cohere/command")
	assert.ErrorContains(t, err, `unknown provider "cohere"`)

	_, err = reg.GetClient("openai")
	assert.ErrorContains(t, err, "OPENAI_API_KEY environment variable not set")

	_, err = reg.GetClient("google")
	assert.ErrorContains(t, err, "GOOGLE_API_KEY")
}

func TestRegistry_ParseSpec(t *testing.T) {
	reg, err := NewRegistry(RegistryConfig{DefaultProvider: "openai"})
	require.NoError(t, err)

	tests := []struct {
		spec         string
		wantProvider string
		wantModel    string
	}{
		{"openai", "openai", OpenAIDefaultModel},
		{"openai/gpt-4o", "openai", "gpt-4o"},
		{"google/", "google", GoogleDefaultModel},
		{"unknown", "unknown", ""},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			provider, model := reg.parseSpec(tt.spec)
			assert.Equal(t, tt.wantProvider, provider)
			assert.Equal(t, tt.wantModel, model)
		})
	}
}
