package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tillsync/internal/billing"
	"tillsync/internal/tenant"
)

type quoteOptions struct {
	Discount float64
	TaxRate  float64
	TaxMode  string
}

// NewQuoteCommand creates the quote command.
func NewQuoteCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &quoteOptions{}

	cmd := &cobra.Command{
		Use:   "quote <items.json>",
		Short: "Compute a bill from a cart file",
		Long: `Compute a bill from a JSON array of cart lines ({"price", "quantity"}).

Runs entirely offline. Tax rate and mode default to the stand-in values
used before a tenant's settings are confirmed; override with flags.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuote(rootOpts, opts, args[0], cmd)
		},
	}

	cmd.Flags().Float64Var(&opts.Discount, "discount", 0, "flat discount on the cart")
	cmd.Flags().Float64Var(&opts.TaxRate, "rate", tenant.DefaultTaxRate, "tax rate in percent")
	cmd.Flags().StringVar(&opts.TaxMode, "mode", string(tenant.DefaultTaxMode), "tax mode (inclusive|exclusive)")

	return cmd
}

func runQuote(rootOpts *RootOptions, opts *quoteOptions, itemsPath string, cmd *cobra.Command) error {
	formatter := newFormatter(rootOpts, cmd)

	data, err := os.ReadFile(itemsPath)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeInput, "cannot read items file", err)
	}
	var items []billing.LineItem
	if err := json.Unmarshal(data, &items); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeInput, "cannot parse items file", err)
	}
	formatter.VerboseLog("Quoting %d line(s) at %.2f%% %s", len(items), opts.TaxRate, opts.TaxMode)

	quote := billing.CalculateBill(items, opts.Discount, opts.TaxRate, billing.NormalizeMode(opts.TaxMode))
	fixed := quote.Fixed()

	if formatter.Format == "json" {
		return formatter.JSON(fixed)
	}

	p := newPrinter()
	w := formatter.Writer
	p.Fprintf(w, "Gross total    %s\n", fixed.GrossTotal)
	p.Fprintf(w, "Discount       %s\n", fixed.Discount)
	p.Fprintf(w, "Taxable value  %s\n", fixed.TaxableValue)
	if fixed.NetPayable != nil {
		p.Fprintf(w, "Net payable    %s\n", *fixed.NetPayable)
	}
	p.Fprintf(w, "Tax (%s%%)    %s  (%s + %s)\n", fixed.TaxRate, fixed.TaxAmount, fixed.TaxPartA, fixed.TaxPartB)
	fmt.Fprintln(w)
	p.Fprintf(w, "Total          %s\n", fixed.Total)
	return nil
}
