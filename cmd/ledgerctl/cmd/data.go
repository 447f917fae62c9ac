package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/carson-networks/ledger-server/internal/ledger"
)

func (a *app) exportCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every transaction as a JSON array",
		Example: `  ledgerctl export > backup.json
  ledgerctl export --output backup.json`,
		Args: cobra.NoArgs,
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "file to write instead of stdout")

	cmd.RunE = a.run(func(cmd *cobra.Command, _ []string) error {
		data, err := a.svc.Transactions.Export()
		if err != nil {
			return err
		}
		data = append(data, '\n')

		if output == "" {
			_, err = cmd.OutOrStdout().Write(data)
			return err
		}
		if err := os.WriteFile(output, data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", output, err)
		}
		return nil
	})
	return cmd
}

func (a *app) importCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Replace every transaction with the contents of a JSON export",
		Long: `Replace every transaction with the contents of a JSON export.
Use "-" to read from stdin. Records that still carry an "amount"
field are converted on the way in.`,
		Args: cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}

			m, err := a.svc.Transactions.Import(cmd.Context(), data)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d transactions\n", len(m.Records))
			a.report(cmd, m)
			return nil
		}),
	}
}

func (a *app) resetCommand() *cobra.Command {
	var empty bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Restore the sample transactions",
		Long: `Restore the sample transactions. With --clear the ledger is
emptied instead and the stored copy is removed.`,
		Args: cobra.NoArgs,
	}
	cmd.Flags().BoolVar(&empty, "clear", false, "remove every transaction")

	cmd.RunE = a.run(func(cmd *cobra.Command, _ []string) error {
		var (
			m   ledger.Mutation
			err error
		)
		if empty {
			m, err = a.svc.Transactions.Clear(cmd.Context())
		} else {
			m, err = a.svc.Transactions.Reset(cmd.Context())
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "ledger now holds %d transactions\n", len(m.Records))
		a.report(cmd, m)
		return nil
	})
	return cmd
}
