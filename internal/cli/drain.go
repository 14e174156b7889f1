package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"tillsync/internal/pending"
	"tillsync/internal/reconcile"
)

// drainResult is the JSON projection of a drain report.
type drainResult struct {
	Processed int     `json:"processed"`
	Remaining int     `json:"remaining"`
	Rejected  []int64 `json:"rejected,omitempty"`
	Halted    string  `json:"halted,omitempty"`
}

// NewDrainCommand creates the drain command.
func NewDrainCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drain",
		Short: "Run one reconciliation pass over the pending queue",
		Long: `Submit queued drafts to the configured remote, oldest first.

Confirmed drafts become orders in the local cache. A transient remote
failure halts the pass where it stands; permanently rejected drafts are
skipped, reported, and left queued for operator attention.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDrain(rootOpts, cmd)
		},
	}

	return cmd
}

func runDrain(rootOpts *RootOptions, cmd *cobra.Command) error {
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
	client, err := newRemote(cfg, formatter)
	if err != nil {
		return err
	}

	queue := pending.New(store)
	rec := reconcile.New(store, queue, client)

	report, err := rec.Drain(cmd.Context())
	if err != nil {
		if errors.Is(err, reconcile.ErrDrainInFlight) {
			return formatter.Fail(ExitCommandError, ErrCodeRemote, "a drain is already running", err)
		}
		return formatter.Fail(ExitCommandError, ErrCodeStore, "cannot read queue", err)
	}

	result := drainResult{
		Processed: report.Processed,
		Remaining: report.Remaining,
		Rejected:  report.Rejected,
	}
	if report.LastErr != nil {
		result.Halted = report.LastErr.Error()
	}

	if formatter.Format == "json" {
		if err := formatter.JSON(result); err != nil {
			return err
		}
	} else {
		p := newPrinter()
		w := formatter.Writer
		p.Fprintf(w, "Processed %d draft(s), %d remaining\n", result.Processed, result.Remaining)
		for _, id := range result.Rejected {
			fmt.Fprintf(w, "  rejected: #%d (remove with: tillsync pending --remove %d)\n", id, id)
		}
		if result.Halted != "" {
			fmt.Fprintf(w, "  halted: %s\n", result.Halted)
		}
	}

	// A blemished pass exits nonzero so cron wrappers notice; the queue
	// itself is already in a safe state either way.
	if report.LastErr != nil {
		return NewExitError(ExitFailure, "drain did not complete cleanly")
	}
	return nil
}
