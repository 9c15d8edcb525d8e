package cli

import (
	"errors"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newCheckoutCmd() *cobra.Command {
	var amount string
	var name string

	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Start a real-money balance top-up",
		RunE: func(cmd *cobra.Command, args []string) error {
			playerID, err := requirePlayer()
			if err != nil {
				return err
			}

			value, err := decimal.NewFromString(amount)
			if err != nil {
				return errors.New("--amount must be a decimal number such as 10.50")
			}
			if !value.IsPositive() {
				return errors.New("--amount must be greater than zero")
			}

			body := map[string]any{
				"player_id": playerID,
				"name":      name,
				"amount":    value,
			}

			var result CheckoutResult
			if err := client.Post(cmd.Context(), "/api/v1/payments/checkout", body, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&amount, "amount", "", "Amount to top up")
	cmd.Flags().StringVar(&name, "name", "", "Payer name shown on the checkout")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}
