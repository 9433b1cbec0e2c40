package application

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-tender/infrastructure/llm"
	"github.com/ahrav/go-tender/internal/domain"
)

// Environment variables that override file configuration.
const (
	EnvProvider    = "TENDER_PROVIDER"
	EnvModel       = "TENDER_MODEL"
	EnvOpenAIModel = "OPENAI_MODEL"
	EnvLogLevel    = "TENDER_LOG_LEVEL"
	EnvEnvironment = "APP_ENV"
)

// AppConfig is the complete runtime configuration for an evaluation.
// It is read from YAML, overlaid with environment variables, and validated
// before any model is contacted. API keys are never part of the file; they
// come from each provider's environment variable.
type AppConfig struct {
	// Provider selects the model backend.
	Provider string `yaml:"provider" validate:"required,oneof=openai anthropic google"`
	// Model overrides the provider's default model.
	Model string `yaml:"model" validate:"omitempty,max=200"`
	// BaseURL points the provider client at a compatible endpoint.
	BaseURL string `yaml:"base_url" validate:"omitempty,url"`
	// PromptTemplatePath names a custom prompt template. When it cannot be
	// used the built-in template is substituted.
	PromptTemplatePath string `yaml:"prompt_template_path"`

	Request RequestConfig `yaml:"request"`
	Run     RunConfig     `yaml:"run"`
	// Weights maps criterion names to percentages. Empty means the
	// default weights.
	Weights map[string]float64 `yaml:"weights" validate:"omitempty,dive,keys,criterion,endkeys,gte=0,lte=100"`

	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
}

// RequestConfig controls a single model request and its retries.
type RequestConfig struct {
	Temperature    float64 `yaml:"temperature" validate:"gte=0,lte=2"`
	MaxTokens      int     `yaml:"max_tokens" validate:"min=1,max=32000"`
	TimeoutSeconds int     `yaml:"timeout_seconds" validate:"min=1,max=600"`
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int `yaml:"max_attempts" validate:"min=1,max=10"`
	// BaseDelayMS is the wait after the first failure; it doubles for each
	// subsequent failure.
	BaseDelayMS int `yaml:"base_delay_ms" validate:"min=0,max=60000"`
	// DisableJSONMode stops asking the provider for a JSON-only reply.
	DisableJSONMode bool `yaml:"disable_json_mode"`
}

// RunConfig controls how a batch of proposals is processed.
type RunConfig struct {
	// Concurrency is the number of proposals analysed at once. One keeps
	// the sequential behaviour.
	Concurrency int `yaml:"concurrency" validate:"min=1,max=32"`
	// RateLimitRPS paces model requests; zero disables pacing.
	RateLimitRPS   float64 `yaml:"rate_limit_rps" validate:"gte=0,lte=1000"`
	RateLimitBurst int     `yaml:"rate_limit_burst" validate:"min=0,max=1000"`
	// StrictParse turns unparseable model replies into error scorecards
	// instead of neutral fallback scores.
	StrictParse bool `yaml:"strict_parse"`
}

// LoggingConfig selects the log level and output format.
type LoggingConfig struct {
	Level       string `yaml:"level" validate:"oneof=debug info warn error"`
	Environment string `yaml:"environment" validate:"oneof=development production"`
	ServiceName string `yaml:"service_name" validate:"omitempty,max=100"`
}

// MetricsConfig enables Prometheus metrics. When ListenAddr is set the
// metrics are served over HTTP for the duration of the run.
type MetricsConfig struct {
	Enabled    bool   `yaml:"enabled"`
	ListenAddr string `yaml:"listen_addr" validate:"omitempty,hostname_port"`
}

// TracingConfig enables OpenTelemetry spans through the global tracer
// provider.
type TracingConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name" validate:"omitempty,max=100"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() AppConfig {
	return AppConfig{
		Provider: "openai",
		Request: RequestConfig{
			Temperature:    0.1,
			MaxTokens:      2000,
			TimeoutSeconds: 60,
			MaxAttempts:    llm.DefaultMaxAttempts,
			BaseDelayMS:    int(llm.DefaultBaseDelay / time.Millisecond),
		},
		Run: RunConfig{
			Concurrency: 1,
		},
		Logging: LoggingConfig{
			Level:       "info",
			Environment: "development",
			ServiceName: "tender-eval",
		},
		Tracing: TracingConfig{
			ServiceName: "tender-eval",
		},
	}
}

// LoadConfig reads the YAML file at path over DefaultConfig, applies
// environment overrides from lookupEnv, and validates the result. An empty
// path skips the file. A nil lookupEnv reads the process environment.
// Unknown YAML fields are rejected so that typos are not silently ignored.
func LoadConfig(path string, lookupEnv func(string) (string, bool)) (*AppConfig, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := decodeConfig(data, &cfg); err != nil {
			return nil, err
		}
	}

	if lookupEnv == nil {
		lookupEnv = os.LookupEnv
	}
	cfg.ApplyEnv(lookupEnv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func decodeConfig(data []byte, cfg *AppConfig) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: YAML decode failed: %v", domain.ErrInvalidConfiguration, err)
	}
	return nil
}

// ApplyEnv overlays environment overrides. TENDER_MODEL wins over
// OPENAI_MODEL, which only applies when the provider is openai.
func (c *AppConfig) ApplyEnv(lookupEnv func(string) (string, bool)) {
	if v, ok := nonEmpty(lookupEnv, EnvProvider); ok {
		c.Provider = strings.ToLower(v)
	}
	if v, ok := nonEmpty(lookupEnv, EnvModel); ok {
		c.Model = v
	} else if v, ok := nonEmpty(lookupEnv, EnvOpenAIModel); ok && c.Provider == "openai" {
		c.Model = v
	}
	if v, ok := nonEmpty(lookupEnv, EnvLogLevel); ok {
		c.Logging.Level = strings.ToLower(v)
	}
	if v, ok := nonEmpty(lookupEnv, EnvEnvironment); ok {
		c.Logging.Environment = strings.ToLower(v)
	}
}

func nonEmpty(lookupEnv func(string) (string, bool), key string) (string, bool) {
	v, ok := lookupEnv(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

// Validate checks field constraints and, when weights are configured, that
// they form a usable weight configuration.
func (c *AppConfig) Validate() error {
	if err := configValidator().Struct(c); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrInvalidConfiguration, describeValidation(err))
	}
	if len(c.Weights) > 0 {
		w, err := c.WeightConfig()
		if err != nil {
			return fmt.Errorf("%w: %w", domain.ErrInvalidConfiguration, err)
		}
		if err := w.Validate(); err != nil {
			return fmt.Errorf("%w: %w", domain.ErrInvalidConfiguration, err)
		}
	}
	return nil
}

// WeightConfig returns the configured weights, or the defaults when none are
// configured. The result is not validated.
func (c *AppConfig) WeightConfig() (domain.WeightConfig, error) {
	if len(c.Weights) == 0 {
		return domain.DefaultWeights(), nil
	}
	w := make(domain.WeightConfig, len(c.Weights))
	for name, value := range c.Weights {
		criterion, err := domain.ParseCriterion(name)
		if err != nil {
			return nil, &domain.InvalidWeightsError{Reason: err.Error()}
		}
		if _, dup := w[criterion]; dup {
			return nil, &domain.InvalidWeightsError{Reason: fmt.Sprintf("duplicate weight for %s", criterion)}
		}
		w[criterion] = value
	}
	return w, nil
}

// RetryPolicy returns the request retry policy.
func (c *AppConfig) RetryPolicy() llm.RetryPolicy {
	return llm.RetryPolicy{
		MaxAttempts: c.Request.MaxAttempts,
		BaseDelay:   time.Duration(c.Request.BaseDelayMS) * time.Millisecond,
	}
}

// RequestTimeout returns the per-request timeout.
func (c *AppConfig) RequestTimeout() time.Duration {
	return time.Duration(c.Request.TimeoutSeconds) * time.Second
}

// ModelSpec returns the "provider/model" string understood by the LLM
// registry. The model part is omitted when no model is configured.
func (c *AppConfig) ModelSpec() string {
	if c.Model == "" {
		return c.Provider
	}
	return c.Provider + "/" + c.Model
}

func configValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	// Registration only fails for an empty tag or nil function.
	_ = v.RegisterValidation("criterion", validateCriterionName)
	return v
}

// validateCriterionName accepts any spelling ParseCriterion resolves.
func validateCriterionName(fl validator.FieldLevel) bool {
	_, err := domain.ParseCriterion(fl.Field().String())
	return err == nil
}

// describeValidation flattens validator errors into one line naming each
// offending field by its YAML path.
func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Namespace()
		if _, rest, ok := strings.Cut(field, "."); ok {
			field = rest
		}
		msg := fmt.Sprintf("%s failed %q", field, fe.Tag())
		if fe.Param() != "" {
			msg = fmt.Sprintf("%s failed %q (%s)", field, fe.Tag(), fe.Param())
		}
		parts = append(parts, msg)
	}
	return strings.Join(parts, "; ")
}
