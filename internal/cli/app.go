package cli

import (
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"tillsync/internal/config"
	"tillsync/internal/localstore"
	"tillsync/internal/remote"
)

// newFormatter builds the per-command output formatter from the global
// options and the command's writers.
func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}
}

// newPrinter returns the message printer used for human-readable numbers
// (grouped digits in counts and totals).
func newPrinter() *message.Printer {
	return message.NewPrinter(language.English)
}

// loadConfig loads and validates the configuration named by --config.
func loadConfig(opts *RootOptions, f *OutputFormatter) (config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return config.Config{}, f.Fail(ExitCommandError, ErrCodeConfig, "cannot load configuration", err)
	}
	return cfg, nil
}

// openStore opens the configured store file.
func openStore(cfg config.Config, f *OutputFormatter) (*localstore.Store, error) {
	store, err := localstore.Open(cfg.StorePath)
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeStore, "cannot open store "+cfg.StorePath, err)
	}
	return store, nil
}

// newRemote builds the HTTP client for the configured remote. Commands
// that talk to the remote require a base URL; everything else runs
// offline.
func newRemote(cfg config.Config, f *OutputFormatter) (*remote.Client, error) {
	if cfg.Remote.BaseURL == "" {
		return nil, f.Fail(ExitCommandError, ErrCodeConfig,
			"no remote configured: set remote.base_url or TILLSYNC_REMOTE_URL", nil)
	}
	return remote.NewClient(cfg.Remote.BaseURL, cfg.Remote.APIKey), nil
}
