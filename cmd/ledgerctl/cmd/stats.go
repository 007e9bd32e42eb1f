package cmd

import (
	"fmt"
	"time"

	"trade_ledger/internal/models"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats [YYYY-MM-DD]",
	Short: "Daily statistics (today by default)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runStats,
}

var windowCmd = &cobra.Command{
	Use:   "window",
	Short: "Per-day PnL, total and average over the last N days",
	Args:  cobra.NoArgs,
	RunE:  runWindow,
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the daily report as it would be sent",
	Args:  cobra.NoArgs,
	RunE:  runReport,
}

var windowDays int

func init() {
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(windowCmd)
	rootCmd.AddCommand(reportCmd)

	windowCmd.Flags().IntVarP(&windowDays, "days", "n", 0, "window size in days (default: report.window_days)")
	reportCmd.Flags().IntVarP(&windowDays, "days", "n", 0, "window size in days (default: report.window_days)")
}

func runStats(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cmd.Context())
	if err != nil {
		return err
	}
	defer e.Close()

	day := e.now
	if len(args) == 1 {
		d, err := time.ParseInLocation(models.DayLayout, args[0], e.cfg.Location())
		if err != nil {
			return fmt.Errorf("date: %w", err)
		}
		day = d
	}

	s, err := e.agg.Daily(cmd.Context(), day)
	if err != nil {
		return err
	}
	printText(cmd.OutOrStdout(), e.fmt.DailyStats(s).Text)
	return nil
}

func runWindow(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cmd.Context())
	if err != nil {
		return err
	}
	defer e.Close()

	w, err := e.agg.Window(cmd.Context(), e.days(), e.now)
	if err != nil {
		return err
	}
	printText(cmd.OutOrStdout(), e.fmt.Window(w).Text)
	return nil
}

func runReport(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cmd.Context())
	if err != nil {
		return err
	}
	defer e.Close()

	ctx := cmd.Context()
	today, err := e.agg.Daily(ctx, e.now)
	if err != nil {
		return err
	}
	yesterday, err := e.agg.Daily(ctx, models.DayStart(e.now, e.cfg.Location()).AddDate(0, 0, -1))
	if err != nil {
		return err
	}
	w, err := e.agg.Window(ctx, e.days(), e.now)
	if err != nil {
		return err
	}
	printText(cmd.OutOrStdout(), e.fmt.DailyReport(e.now, today, yesterday, w).Text)
	return nil
}

func (e *env) days() int {
	if windowDays > 0 {
		return windowDays
	}
	return e.cfg.Report.WindowDays
}
