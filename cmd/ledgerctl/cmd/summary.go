package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/carson-networks/ledger-server/internal/format"
)

func (a *app) balanceCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Show the current balance",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "R$ %s\n", format.Balance(a.svc.Transactions.Balance()))
			return err
		}),
	}
}

func (a *app) statsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show income, expense and balance totals",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, _ []string) error {
			stats := a.svc.Transactions.Statistics()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "Transactions:\t%d\n", stats.Count)
			fmt.Fprintf(w, "Income:\t%s\n", format.Currency(stats.TotalIncome, true))
			fmt.Fprintf(w, "Expenses:\t%s\n", format.Currency(stats.TotalExpenses, true))
			fmt.Fprintf(w, "Balance:\tR$ %s\n", format.Balance(stats.Balance))
			fmt.Fprintf(w, "Average:\tR$ %s\n", format.Balance(stats.Average))
			return w.Flush()
		}),
	}
}
