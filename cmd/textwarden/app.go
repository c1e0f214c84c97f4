package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/TextWarden/internal/domain/analysis"
	"github.com/GriffinCanCode/TextWarden/internal/domain/cache"
	"github.com/GriffinCanCode/TextWarden/internal/domain/issue"
	"github.com/GriffinCanCode/TextWarden/internal/domain/settings"
	"github.com/GriffinCanCode/TextWarden/internal/infrastructure/config"
	"github.com/GriffinCanCode/TextWarden/internal/infrastructure/logging"
	"github.com/GriffinCanCode/TextWarden/internal/providers"
	"github.com/GriffinCanCode/TextWarden/internal/shared/utils"
)

// app holds everything a command needs to analyse text
type app struct {
	cfg      *config.Config
	logger   *logging.Logger
	store    *settings.MemoryStore
	file     *settings.FileStore
	cache    *cache.Cache
	analyzer *analysis.Orchestrator
	printer  *printer
}

func newApp(cmd *cobra.Command) (*app, error) {
	flags := cmd.Root().PersistentFlags()
	envFile, _ := flags.GetString("env")
	proxyURL, _ := flags.GetString("proxy")
	settingsPath, _ := flags.GetString("settings")
	colorMode, _ := flags.GetString("color")
	checks, _ := flags.GetStringSlice("checks")
	verbose, _ := flags.GetBool("verbose")

	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, err
	}
	if proxyURL != "" {
		cfg.Provider.Kind = providers.KindProxy
		cfg.Provider.ProxyURL = proxyURL
	}

	logger := logging.NewNop()
	if verbose || cfg.Logging.File != "" {
		level := cfg.Logging.Level
		if verbose {
			level = "debug"
		}
		logger, err = logging.New(logging.Config{
			Level:       level,
			Development: verbose,
			Stderr:      true,
			File:        cfg.Logging.File,
			MaxSizeMB:   cfg.Logging.MaxSizeMB,
			MaxBackups:  cfg.Logging.MaxBackups,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create logger: %w", err)
		}
	}

	a := &app{
		cfg:     cfg,
		logger:  logger,
		cache:   cache.New(cache.WithMaxEntries(cfg.Pipeline.CacheMaxEntries)),
		printer: newPrinter(cmd.OutOrStdout(), colorMode),
	}

	if err := a.openSettings(settingsPath); err != nil {
		return nil, err
	}
	if len(checks) > 0 {
		if err := utils.ValidateChecks(checks); err != nil {
			return nil, err
		}
		if err := a.store.Update(func(s *settings.Settings) { s.CheckTypes = checkTypes(checks) }); err != nil {
			return nil, err
		}
	}

	provider, err := providers.New(cfg.Provider, a.store.Get().Language, logger)
	if err != nil {
		return nil, err
	}
	a.analyzer = analysis.New(provider, analysis.CredentialFunc(a.credential), a.cache,
		analysis.WithMinLength(cfg.Pipeline.MinLength),
		analysis.WithLogger(logger.Named("analysis")),
	)

	logger.Debug("CLI ready",
		zap.String("provider", provider.Name()),
		zap.Strings("checks", a.store.Get().Checks()),
		zap.String("key", utils.RedactSecret(a.cfg.Provider.APIKey)))
	return a, nil
}

// credential prefers the settings key and falls back to TEXTWARDEN_API_KEY
func (a *app) credential(context.Context) (string, error) {
	if key := a.store.Get().APIKey; key != "" {
		return key, nil
	}
	return a.cfg.Provider.APIKey, nil
}

// openSettings loads the settings file when one is configured
func (a *app) openSettings(path string) error {
	if path == "" {
		path = a.cfg.Settings.Path
	}

	if path != "" {
		fs, err := settings.OpenFile(path, a.logger.Named("settings"))
		if err != nil {
			return fmt.Errorf("failed to open settings: %w", err)
		}
		a.file = fs
		a.store = fs.MemoryStore
	} else {
		store, err := settings.NewMemoryStore(settings.Default())
		if err != nil {
			return err
		}
		a.store = store
	}
	return nil
}

// watchSettings reloads the settings file on change, if there is one
func (a *app) watchSettings(ctx context.Context) {
	if a.file == nil {
		return
	}
	if err := a.file.Watch(ctx); err != nil {
		a.logger.Warn("Settings hot reload unavailable", zap.Error(err))
	}
}

func (a *app) close() {
	_ = a.logger.Close()
}

func checkTypes(checks []string) settings.CheckTypes {
	var ct settings.CheckTypes
	for _, c := range issue.FilterChecks(checks) {
		switch c {
		case issue.CheckGrammar:
			ct.Grammar = true
		case issue.CheckSpelling:
			ct.Spelling = true
		case issue.CheckStyle:
			ct.Style = true
		case issue.CheckClarity:
			ct.Clarity = true
		}
	}
	return ct
}
