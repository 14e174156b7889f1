package cli

import (
	"github.com/spf13/cobra"

	"tillsync/internal/syncer"
)

type refreshOptions struct {
	TenantID string
}

// NewRefreshCommand creates the refresh command.
func NewRefreshCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &refreshOptions{}

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Refresh the read-mostly cache from the remote",
		Long: `Replace the tenant's cached rows in every read-mostly collection
with the remote contents. Each collection is replaced atomically; a
failure leaves the collections not yet reached untouched.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRefresh(rootOpts, opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.TenantID, "tenant", "", "tenant to refresh (defaults to the configured tenant)")

	return cmd
}

func runRefresh(rootOpts *RootOptions, opts *refreshOptions, cmd *cobra.Command) error {
	formatter := newFormatter(rootOpts, cmd)

	cfg, err := loadConfig(rootOpts, formatter)
	if err != nil {
		return err
	}
	tenantID := opts.TenantID
	if tenantID == "" {
		tenantID = cfg.TenantID
	}
	if tenantID == "" {
		return formatter.Fail(ExitCommandError, ErrCodeInput,
			"no tenant: pass --tenant or set tenant_id in the config", nil)
	}

	store, err := openStore(cfg, formatter)
	if err != nil {
		return err
	}
	defer store.Close()
	client, err := newRemote(cfg, formatter)
	if err != nil {
		return err
	}

	counts, err := syncer.New(store, client).RefreshAll(cmd.Context(), tenantID)
	if err != nil {
		// Collections refreshed before the failure are already replaced.
		_ = outputRefresh(formatter, counts)
		return WrapExitError(ExitFailure, "refresh did not complete", err)
	}
	return outputRefresh(formatter, counts)
}

func outputRefresh(formatter *OutputFormatter, counts map[string]int) error {
	if formatter.Format == "json" {
		return formatter.JSON(counts)
	}
	p := newPrinter()
	total := 0
	for _, collection := range syncer.RefreshableCollections {
		n, ok := counts[collection]
		if !ok {
			continue
		}
		p.Fprintf(formatter.Writer, "%-18s %d row(s)\n", collection, n)
		total += n
	}
	p.Fprintf(formatter.Writer, "\n%d row(s) cached\n", total)
	return nil
}
