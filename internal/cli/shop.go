package cli

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

func newShopCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shop",
		Short: "Shop commands",
	}

	cmd.AddCommand(newShopListCmd())
	cmd.AddCommand(newShopBuyCmd())

	return cmd
}

func newShopListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the items for sale",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result ShopItems
			if err := client.Get(cmd.Context(), "/api/v1/shop/items", &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newShopBuyCmd() *cobra.Command {
	var price int64

	cmd := &cobra.Command{
		Use:   "buy <item>",
		Short: "Buy an item with gold",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			playerID, err := requirePlayer()
			if err != nil {
				return err
			}

			body := map[string]any{"item": args[0]}
			if cmd.Flags().Changed("price") {
				body["price"] = price
			}

			var result PurchaseResult
			path := fmt.Sprintf("/api/v1/players/%s/purchases", url.PathEscape(playerID))
			if err := client.Post(cmd.Context(), path, body, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}

	cmd.Flags().Int64Var(&price, "price", 0, "Price the caller expects to pay; must match the catalog")

	return cmd
}
