package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ahrav/go-tender/internal/application"
	"github.com/ahrav/go-tender/internal/ports"
)

var version = "dev"

const defaultEnvFile = ".env"

// clientFactory builds the model client for a run. collector is nil when
// metrics are disabled.
type clientFactory func(cfg *application.AppConfig, collector ports.MetricsCollector) (ports.LLMClient, error)

// app carries the command dependencies so tests can swap the model client
// and capture output.
type app struct {
	stdout    io.Writer
	stderr    io.Writer
	lookupEnv func(string) (string, bool)
	newClient clientFactory

	configPath string
	logLevel   string
	envFile    string
}

func newApp() *app {
	return &app{
		stdout:    os.Stdout,
		stderr:    os.Stderr,
		lookupEnv: os.LookupEnv,
		newClient: newRegistryClient,
	}
}

func newRootCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tender-eval",
		Short: "Evaluate supplier proposals against a tender",
		Long: `tender-eval scores supplier proposals against tender requirements.

Each proposal is analysed by a language model on five weighted criteria,
the suppliers are ranked by weighted score, and the results can be
exported to Excel and JSON.`,
		Version:      version,
		SilenceUsage: true,
	}
	cmd.SetOut(a.stdout)
	cmd.SetErr(a.stderr)

	flags := cmd.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "YAML configuration file")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level override: debug, info, warn or error")
	flags.StringVar(&a.envFile, "env-file", defaultEnvFile, "File of environment variables to load before running")

	cmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		return a.loadEnvFile(cmd.Flags().Changed("env-file"))
	}

	cmd.AddCommand(newEvaluateCommand(a))
	cmd.AddCommand(newWeightsCommand(a))
	cmd.AddCommand(newExtractCommand(a))

	return cmd
}

// loadEnvFile loads the env file into the process environment. Variables
// already set win. The default file may be absent; an explicit one may not.
func (a *app) loadEnvFile(explicit bool) error {
	if a.envFile == "" {
		return nil
	}
	err := godotenv.Load(a.envFile)
	if err == nil || (!explicit && errors.Is(err, fs.ErrNotExist)) {
		return nil
	}
	return fmt.Errorf("failed to load env file %s: %w", a.envFile, err)
}

// loadConfig reads the configuration file and applies environment and flag
// overrides. Callers that change fields must call Validate again.
func (a *app) loadConfig() (*application.AppConfig, error) {
	cfg, err := application.LoadConfig(a.configPath, a.lookupEnv)
	if err != nil {
		return nil, err
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func (a *app) logger(cfg *application.AppConfig) (*zap.Logger, error) {
	logger, err := application.NewLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger, nil
}
