package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Veraticus/despensa/internal/cli"
	"github.com/Veraticus/despensa/internal/inventory"
)

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Spending reports",
	}

	providers := &cobra.Command{
		Use:   "providers",
		Short: "Total spent per provider, largest first",
		RunE:  runProviderReport,
	}
	providers.Flags().Int("limit", 10, "number of providers to show")

	cmd.AddCommand(providers)
	return cmd
}

func runProviderReport(cmd *cobra.Command, _ []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	store, err := openStorage(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	totals, err := inventory.New(store).ExpensesByProvider(cmd.Context(), limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(totals) == 0 {
		fmt.Fprintln(out, "Sin gastos registrados.")
		return nil
	}

	fmt.Fprintln(out, cli.FormatTitle("Gastos por proveedor"))
	for _, t := range totals {
		fmt.Fprintf(out, "%-24s %12s  (%d)\n", t.Provider, "$"+strconv.FormatFloat(t.Total, 'f', 0, 64), t.Count)
	}
	return nil
}
