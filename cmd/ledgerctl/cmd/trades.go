package cmd

import (
	"fmt"
	"text/tabwriter"

	"trade_ledger/internal/models"
	"trade_ledger/internal/modules/ledger/store"

	"github.com/spf13/cobra"
)

var tradesCmd = &cobra.Command{
	Use:   "trades",
	Short: "Most recently created trades first",
	Args:  cobra.NoArgs,
	RunE:  runTrades,
}

var openCmd = &cobra.Command{
	Use:   "open",
	Short: "Open trades with time in position",
	Args:  cobra.NoArgs,
	RunE:  runOpen,
}

var tradesLimit int

func init() {
	rootCmd.AddCommand(tradesCmd)
	rootCmd.AddCommand(openCmd)

	tradesCmd.Flags().IntVarP(&tradesLimit, "limit", "l", store.DefaultRecentLimit, "max trades to print")
}

func runTrades(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cmd.Context())
	if err != nil {
		return err
	}
	defer e.Close()

	trades, err := e.store.ListRecent(cmd.Context(), tradesLimit)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tSYMBOL\tSIDE\tENTRY\tQTY\tEXIT\tPNL\tSTATUS")
	for _, t := range trades {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			t.ID, t.Symbol, t.Side, t.EntryPrice.StringFixed(2), t.Quantity.StringFixed(4),
			exitPrice(t), pnl(t), t.Status)
	}
	return tw.Flush()
}

func runOpen(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cmd.Context())
	if err != nil {
		return err
	}
	defer e.Close()

	trades, err := e.store.ListOpen(cmd.Context())
	if err != nil {
		return err
	}
	printText(cmd.OutOrStdout(), e.fmt.OpenTrades(trades, e.now).Text)
	return nil
}

func exitPrice(t models.Trade) string {
	if t.ExitPrice == nil {
		return "-"
	}
	return t.ExitPrice.StringFixed(2)
}

func pnl(t models.Trade) string {
	if t.RealizedPnL == nil {
		return "-"
	}
	return t.RealizedPnL.StringFixed(2)
}
