package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"tillsync/internal/model"
	"tillsync/internal/pending"
)

type pendingOptions struct {
	Remove int64
}

// pendingEntry is the JSON projection of one queued draft.
type pendingEntry struct {
	EphemeralID int64  `json:"ephemeral_id"`
	TenantID    string `json:"tenant_id"`
	Lines       int    `json:"lines"`
	CreatedAt   string `json:"created_at"`
}

// NewPendingCommand creates the pending command.
func NewPendingCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &pendingOptions{}

	cmd := &cobra.Command{
		Use:   "pending",
		Short: "List queued order drafts",
		Long: `List the pending-order queue, oldest first.

Drafts the remote has permanently rejected stay queued until an operator
removes them with --remove.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPending(rootOpts, opts, cmd)
		},
	}

	cmd.Flags().Int64Var(&opts.Remove, "remove", 0, "remove the draft with this ephemeral id instead of listing")

	return cmd
}

func runPending(rootOpts *RootOptions, opts *pendingOptions, cmd *cobra.Command) error {
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
	queue := pending.New(store)

	if opts.Remove != 0 {
		if err := queue.Remove(cmd.Context(), opts.Remove); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStore, "cannot remove draft", err)
		}
		if formatter.Format == "json" {
			return formatter.JSON(map[string]int64{"removed": opts.Remove})
		}
		fmt.Fprintf(formatter.Writer, "Removed #%d\n", opts.Remove)
		return nil
	}

	entries, err := queue.List(cmd.Context())
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, "cannot list queue", err)
	}

	if formatter.Format == "json" {
		out := make([]pendingEntry, 0, len(entries))
		for _, e := range entries {
			out = append(out, projectEntry(e))
		}
		return formatter.JSON(out)
	}

	if len(entries) == 0 {
		fmt.Fprintln(formatter.Writer, "Queue is empty")
		return nil
	}
	p := newPrinter()
	for _, e := range entries {
		p.Fprintf(formatter.Writer, "#%d  tenant=%s  lines=%d  created=%s\n",
			e.EphemeralID, e.Draft.TenantID, len(e.Draft.Items),
			e.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	p.Fprintf(formatter.Writer, "\n%d draft(s) queued\n", len(entries))
	return nil
}

func projectEntry(e model.PendingOrder) pendingEntry {
	return pendingEntry{
		EphemeralID: e.EphemeralID,
		TenantID:    e.Draft.TenantID,
		Lines:       len(e.Draft.Items),
		CreatedAt:   e.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}
