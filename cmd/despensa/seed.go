package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/despensa/internal/seed"
)

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed [file]",
		Short: "Load a starting catalog of products, providers and payment methods",
		Long: `Load categories, providers, payment methods and products from a YAML
catalog, or from the built-in catalog when no file is given. Entries that
already exist are left untouched.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runSeed,
	}
}

func runSeed(cmd *cobra.Command, args []string) error {
	path := ""
	if len(args) == 1 {
		path = args[0]
	}

	catalog, err := seed.Load(path)
	if err != nil {
		return err
	}

	store, err := openStorage(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	summary, err := seed.Apply(cmd.Context(), store, catalog, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✅ %d creados, %d ya existían\n", summary.Created, summary.Existing)
	return nil
}
