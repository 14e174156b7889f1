package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tillsync/internal/model"
	"tillsync/internal/pending"
)

// NewEnqueueCommand creates the enqueue command.
func NewEnqueueCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enqueue <draft.json>",
		Short: "Buffer an order draft in the pending queue",
		Long: `Append an order draft (JSON) to the pending-order queue.

Performs no network I/O: the draft is buffered locally under a fresh
ephemeral id and submitted by the next drain.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnqueue(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runEnqueue(rootOpts *RootOptions, draftPath string, cmd *cobra.Command) error {
	formatter := newFormatter(rootOpts, cmd)

	data, err := os.ReadFile(draftPath)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeInput, "cannot read draft file", err)
	}
	var draft model.OrderDraft
	if err := json.Unmarshal(data, &draft); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeInput, "cannot parse draft file", err)
	}
	if len(draft.Items) == 0 {
		return formatter.Fail(ExitCommandError, ErrCodeInput, "draft has no items", nil)
	}

	cfg, err := loadConfig(rootOpts, formatter)
	if err != nil {
		return err
	}
	store, err := openStore(cfg, formatter)
	if err != nil {
		return err
	}
	defer store.Close()

	id, err := pending.New(store).Enqueue(cmd.Context(), draft)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, "cannot enqueue draft", err)
	}

	if formatter.Format == "json" {
		return formatter.JSON(map[string]int64{"ephemeral_id": id})
	}
	fmt.Fprintf(formatter.Writer, "Queued as #%d\n", id)
	return nil
}
