package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/carson-networks/ledger-server/internal/format"
	"github.com/carson-networks/ledger-server/internal/storage/transaction"
)

func (a *app) listCommand() *cobra.Command {
	var kind, term string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions",
		Long: `List transactions in the order they were recorded.

Example:
  ledgerctl list --type expense
  ledgerctl list --search mercado`,
		Args: cobra.NoArgs,
	}
	cmd.Flags().StringVar(&kind, "type", "", "only show income or expense")
	cmd.Flags().StringVar(&term, "search", "", "only show names containing this text")

	cmd.RunE = a.run(func(cmd *cobra.Command, _ []string) error {
		list := a.svc.Transactions.Search(term)
		if kind != "" {
			k, err := transaction.ParseKind(kind)
			if err != nil {
				return err
			}
			filtered := list[:0]
			for _, t := range list {
				if k.Matches(t) {
					filtered = append(filtered, t)
				}
			}
			list = filtered
		}

		return printTransactions(cmd.OutOrStdout(), list)
	})
	return cmd
}

func printTransactions(out io.Writer, list []transaction.Transaction) error {
	if len(list) == 0 {
		_, err := fmt.Fprintln(out, "Nenhuma transação encontrada")
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tVALUE")
	for _, t := range list {
		fmt.Fprintf(w, "%d\t%s\t%s\n", t.ID, t.Name, format.TransactionValue(t.Value).Display)
	}
	return w.Flush()
}

func printTransaction(out io.Writer, verb string, t transaction.Transaction) {
	fmt.Fprintf(out, "%s #%d %s %s\n", verb, t.ID, t.Name, format.TransactionValue(t.Value).Display)
}

func (a *app) addCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "add NAME VALUE",
		Short: "Record a transaction",
		Long: `Record a transaction. Positive values are income, negative values
are expenses.

Example:
  ledgerctl add "Freelance" 1200
  ledgerctl add "Mercado" -- -350,50`,
		Args: cobra.ExactArgs(2),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			name, err := checkName(args[0])
			if err != nil {
				return err
			}
			value, err := checkValue(args[1])
			if err != nil {
				return err
			}

			m, err := a.svc.Transactions.Create(cmd.Context(), transaction.Draft{Name: &name, Value: value})
			if err != nil {
				return err
			}
			printTransaction(cmd.OutOrStdout(), "created", m.Record)
			a.report(cmd, m)
			return nil
		}),
	}
}

func (a *app) editCommand() *cobra.Command {
	var name, value string

	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Change the name or value of a transaction",
		Example: `  ledgerctl edit 2 --value -80
  ledgerctl edit 2 --name Feira`,
		Args: cobra.ExactArgs(1),
	}
	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&value, "value", "", "new value")

	cmd.RunE = a.run(func(cmd *cobra.Command, args []string) error {
		id, err := checkID(args[0])
		if err != nil {
			return err
		}

		var draft transaction.Draft
		if cmd.Flags().Changed("name") {
			checked, err := checkName(name)
			if err != nil {
				return err
			}
			draft.Name = &checked
		}
		if cmd.Flags().Changed("value") {
			if draft.Value, err = checkValue(value); err != nil {
				return err
			}
		}
		if draft.Name == nil && draft.Value == nil {
			return fmt.Errorf("nothing to change: pass --name or --value")
		}

		m, err := a.svc.Transactions.Update(cmd.Context(), id, draft)
		if err != nil {
			return err
		}
		printTransaction(cmd.OutOrStdout(), "updated", m.Record)
		a.report(cmd, m)
		return nil
	})
	return cmd
}

func (a *app) removeCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"delete"},
		Short:   "Delete a transaction",
		Args:    cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			id, err := checkID(args[0])
			if err != nil {
				return err
			}

			m, err := a.svc.Transactions.Delete(cmd.Context(), id)
			if err != nil {
				return err
			}
			printTransaction(cmd.OutOrStdout(), "deleted", m.Record)
			a.report(cmd, m)
			return nil
		}),
	}
}
