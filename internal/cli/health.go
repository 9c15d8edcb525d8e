package cli

import (
	"time"

	"github.com/spf13/cobra"
)

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health and round-trip latency",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result HealthResult
			start := time.Now()
			if err := client.Get(cmd.Context(), "/health", &result); err != nil {
				return err
			}
			result.LatencyMS = time.Since(start).Milliseconds()

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}
