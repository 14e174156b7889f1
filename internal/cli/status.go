package cli

import (
	"github.com/spf13/cobra"

	"tillsync/internal/localstore"
	"tillsync/internal/pending"
)

// statusResult is the JSON projection of a store's status.
type statusResult struct {
	StorePath     string         `json:"store_path"`
	SchemaVersion int            `json:"schema_version"`
	InstanceID    string         `json:"instance_id"`
	TenantID      string         `json:"tenant_id,omitempty"`
	Collections   map[string]int `json:"collections"`
	QueueDepth    int            `json:"queue_depth"`
	NextCounter   int64          `json:"last_ephemeral_id"`
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "status",
		Short:         "Show store status and per-collection row counts",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(rootOpts, cmd)
		},
	}

	return cmd
}

func runStatus(rootOpts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(rootOpts, cmd)

	cfg, err := loadConfig(rootOpts, formatter)
	if err != nil {
		return err
	}
	store, err := openStore(cfg, formatter)
	if err != nil {
		return err
	}
	defer store.Close()
	ctx := cmd.Context()

	version, err := store.SchemaVersion(ctx)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, "cannot read schema version", err)
	}
	defs, err := store.Collections(ctx)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, "cannot list collections", err)
	}
	counts := make(map[string]int, len(defs))
	for _, def := range defs {
		n, err := store.Count(ctx, def.Name)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStore, "cannot count "+def.Name, err)
		}
		counts[def.Name] = n
	}
	lastID, err := store.CounterValue(ctx, pending.CounterName)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, "cannot read counter", err)
	}

	result := statusResult{
		StorePath:     cfg.StorePath,
		SchemaVersion: version,
		InstanceID:    store.InstanceID(),
		TenantID:      cfg.TenantID,
		Collections:   counts,
		QueueDepth:    counts[localstore.CollectionPendingOrders],
		NextCounter:   lastID,
	}

	if formatter.Format == "json" {
		return formatter.JSON(result)
	}

	p := newPrinter()
	w := formatter.Writer
	p.Fprintf(w, "Store          %s (schema v%d)\n", result.StorePath, result.SchemaVersion)
	p.Fprintf(w, "Instance       %s\n", result.InstanceID)
	if result.TenantID != "" {
		p.Fprintf(w, "Tenant         %s\n", result.TenantID)
	}
	p.Fprintf(w, "Queue depth    %d (last ephemeral id %d)\n", result.QueueDepth, result.NextCounter)
	p.Fprintf(w, "\n")
	for _, def := range defs {
		p.Fprintf(w, "%-18s %d row(s)\n", def.Name, counts[def.Name])
	}
	return nil
}
