package main

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/despensa/internal/assistant"
	"github.com/Veraticus/despensa/internal/common"
	"github.com/Veraticus/despensa/internal/inventory"
)

func stockCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stock [product]",
		Short: "Show current stock without going through the language model",
		RunE:  runStock,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <product> <quantity> [unit]",
		Short: "Overwrite the stock of a product after a physical count",
		Example: `  despensa stock set leche 2 litros
  despensa stock set harina de trigo 0,5`,
		Args: cobra.MinimumNArgs(2),
		RunE: runStockSet,
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "search <fragment>",
		Short: "List products whose name contains a fragment",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runStockSearch,
	})

	return cmd
}

func runStock(cmd *cobra.Command, args []string) error {
	store, err := openStorage(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	result, err := inventory.New(store).CheckStock(cmd.Context(), strings.Join(args, " "))
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), assistant.StockReply(result))
	return nil
}

func runStockSet(cmd *cobra.Command, args []string) error {
	req, err := parseAdjustArgs(args)
	if err != nil {
		return err
	}

	store, err := openStorage(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	result, err := inventory.New(store).SetStock(cmd.Context(), req)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), assistant.AdjustReply(result))
	return nil
}

func runStockSearch(cmd *cobra.Command, args []string) error {
	store, err := openStorage(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	result, err := inventory.New(store).SearchStock(cmd.Context(), strings.Join(args, " "))
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), assistant.StockReply(result))
	return nil
}

var errAdjustUsage = errors.New("usage: stock set <product> <quantity> [unit]")

// parseAdjustArgs reads "<product words...> <quantity> [unit]". The quantity
// is the last numeric argument.
func parseAdjustArgs(args []string) (inventory.AdjustRequest, error) {
	last := len(args) - 1
	if quantity, ok := parseQuantity(args[last]); ok && last > 0 {
		return inventory.AdjustRequest{Product: strings.Join(args[:last], " "), Quantity: quantity}, nil
	}
	if last >= 2 {
		if quantity, ok := parseQuantity(args[last-1]); ok {
			return inventory.AdjustRequest{
				Product:  strings.Join(args[:last-1], " "),
				Unit:     args[last],
				Quantity: quantity,
			}, nil
		}
	}
	return inventory.AdjustRequest{}, common.NewUserError(
		"Indica el producto y la cantidad, por ejemplo: despensa stock set leche 2 litros", errAdjustUsage)
}

func parseQuantity(text string) (float64, bool) {
	value, err := strconv.ParseFloat(strings.Replace(text, ",", ".", 1), 64)
	if err != nil || value < 0 || math.IsInf(value, 0) || math.IsNaN(value) {
		return 0, false
	}
	return value, true
}
