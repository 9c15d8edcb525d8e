package cli

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"
)

func newPlayerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "player",
		Short: "Player record commands",
	}

	cmd.AddCommand(newPlayerShowCmd())
	cmd.AddCommand(newPlayerPatchCmd())

	return cmd
}

func newPlayerShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the selected player's record",
		RunE: func(cmd *cobra.Command, args []string) error {
			playerID, err := requirePlayer()
			if err != nil {
				return err
			}

			var result Player
			if err := client.Get(cmd.Context(), "/api/v1/players/"+url.PathEscape(playerID), &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newPlayerPatchCmd() *cobra.Command {
	var sets []string
	var version int64

	cmd := &cobra.Command{
		Use:   "patch",
		Short: "Update fields of the selected player's record",
		Long: `Update named fields of the player record. Other fields are left unchanged.

Values are parsed as JSON when possible, so numbers and objects keep their
type; anything else is sent as a string:

  rpgdash player patch --set gold=40 --set title=Knight`,
		RunE: func(cmd *cobra.Command, args []string) error {
			playerID, err := requirePlayer()
			if err != nil {
				return err
			}

			body, err := parseAssignments(sets)
			if err != nil {
				return err
			}
			if version > 0 {
				body["expected_version"] = version
			}

			var result Player
			if err := client.Patch(cmd.Context(), "/api/v1/players/"+url.PathEscape(playerID), body, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&sets, "set", nil, "Field assignment key=value (repeatable)")
	cmd.Flags().Int64Var(&version, "expected-version", 0, "Fail if the record is no longer at this version")
	_ = cmd.MarkFlagRequired("set")

	return cmd
}

// parseAssignments turns key=value pairs into a patch document
func parseAssignments(sets []string) (map[string]any, error) {
	body := make(map[string]any, len(sets))
	for _, s := range sets {
		key, value, ok := strings.Cut(s, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid assignment %q, expected key=value", s)
		}
		var decoded any
		if err := json.Unmarshal([]byte(value), &decoded); err == nil {
			body[key] = json.RawMessage(value)
		} else {
			body[key] = value
		}
	}
	return body, nil
}
