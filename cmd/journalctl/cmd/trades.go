package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"trading-journal/internal/client"
	"trading-journal/internal/journal"
	"trading-journal/internal/models"
)

var (
	query     client.Query
	deleteYes bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List trades for a period, newest first",
	Long: `List the trades of a year or month.

Examples:
  journalctl list --year 2025
  journalctl list --year 2025 --tab mar --model Unicorn --side long`,
	RunE: runList,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print the statistics of a period",
	RunE:  runStats,
}

var equityCmd = &cobra.Command{
	Use:   "equity",
	Short: "Print the cumulative R curve of a period",
	RunE:  runEquity,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <trade-id>",
	Short: "Permanently delete a trade",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func init() {
	for _, c := range []*cobra.Command{listCmd, statsCmd, equityCmd} {
		rootCmd.AddCommand(c)
		c.Flags().IntVarP(&query.Year, "year", "y", time.Now().Year(), "year to show")
		c.Flags().StringVarP(&query.Tab, "tab", "t", "all", "all, or a month (jan, 3, march)")
	}
	listCmd.Flags().StringVar(&query.Model, "model", "", "only this model")
	listCmd.Flags().StringVar(&query.Side, "side", "", "only long or short")

	rootCmd.AddCommand(deleteCmd)
	deleteCmd.Flags().BoolVar(&deleteYes, "yes", false, "skip the confirmation prompt")
}

func runList(cmd *cobra.Command, _ []string) error {
	v, err := api.View(ctx(cmd), query)
	if err != nil {
		return explain(err)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, v.Title)

	switch v.Empty {
	case journal.EmptyNoTrades:
		fmt.Fprintln(out, "No trades recorded for this period.")
		return nil
	case journal.EmptyNoMatches:
		fmt.Fprintln(out, "No trades match the current filters.")
		return nil
	}
	writeTrades(out, v.Trades)
	return nil
}

func writeTrades(out io.Writer, trades []models.Trade) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tSYMBOL\tMODEL\tSIDE\tRESULT\tSHOTS\tNOTES")
	for _, t := range trades {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			t.ID, t.Date.Long(), t.Symbol, t.Model, strings.ToUpper(t.Side.String()),
			journal.FormatResult(t.Result), len(t.Screenshots), firstLine(t.Notes))
	}
	w.Flush()
}

func firstLine(s string) string {
	s, _, _ = strings.Cut(s, "\n")
	if len(s) > 40 {
		return s[:37] + "..."
	}
	return s
}

func runStats(cmd *cobra.Command, _ []string) error {
	res, err := api.Stats(ctx(cmd), query)
	if err != nil {
		return explain(err)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, res.Title)
	if res.Stats == nil || res.Display == nil {
		fmt.Fprintln(out, "No trades recorded for this period.")
		return nil
	}
	d := res.Display
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Total trades\t%s\n", d.TotalTrades)
	fmt.Fprintf(w, "Win rate\t%s\n", d.WinRate)
	fmt.Fprintf(w, "Winners / losers\t%s / %s\n", d.Winners, d.Losers)
	fmt.Fprintf(w, "Total R\t%s\n", d.TotalR)
	fmt.Fprintf(w, "Average R\t%s\n", d.AvgR)
	fmt.Fprintf(w, "Best / worst\t%s / %s\n", d.Best, d.Worst)
	return w.Flush()
}

func runEquity(cmd *cobra.Command, _ []string) error {
	res, err := api.Equity(ctx(cmd), query)
	if err != nil {
		return explain(err)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, res.Title)
	if res.Equity == nil {
		fmt.Fprintln(out, "No trades recorded for this period.")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, p := range res.Equity.Points {
		fmt.Fprintf(w, "%s\t%s\n", p.Label, journal.FormatR(p.Value))
	}
	return w.Flush()
}

func runDelete(cmd *cobra.Command, args []string) error {
	id := args[0]
	if !deleteYes {
		t, err := api.GetTrade(ctx(cmd), id)
		if err != nil {
			return explain(err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Delete %s %s %s %s? This cannot be undone. [y/N] ",
			t.Date, t.Symbol, t.Model, journal.FormatResult(t.Result))
		line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if a := strings.ToLower(strings.TrimSpace(line)); a != "y" && a != "yes" {
			fmt.Fprintln(cmd.OutOrStdout(), "Not deleted.")
			return nil
		}
	}
	if err := api.DeleteTrade(ctx(cmd), id); err != nil {
		return explain(err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", id)
	return nil
}
