package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcoot/rpgdash/internal/model"
	"github.com/mcoot/rpgdash/internal/services/cooldown"
)

func newActionCmd() *cobra.Command {
	names := make([]string, 0, len(model.AllActionKinds))
	for _, kind := range model.AllActionKinds {
		names = append(names, string(kind))
	}

	return &cobra.Command{
		Use:       "action <" + strings.Join(names, "|") + ">",
		Short:     "Perform an action for gold and experience",
		Args:      cobra.ExactArgs(1),
		ValidArgs: names,
		RunE: func(cmd *cobra.Command, args []string) error {
			playerID, err := requirePlayer()
			if err != nil {
				return err
			}
			kind, err := model.ParseActionKind(args[0])
			if err != nil {
				return err
			}

			result, err := performAction(cmd.Context(), client, cache, logger, model.PlayerID(playerID), kind, time.Now())
			var cd *model.CooldownError
			if errors.As(err, &cd) {
				return fmt.Errorf("%s is on cooldown for another %s", kind, cd.Remaining.Round(time.Second))
			}
			if err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(*result)
			return nil
		},
	}
}

// performAction asks the server to resolve an action unless the local cache
// already knows it is cooling down. Expiries reported by the server are
// written back to the cache.
func performAction(ctx context.Context, c *Client, store *FileStore, logger *slog.Logger, playerID model.PlayerID, kind model.ActionKind, now time.Time) (*ActionResult, error) {
	tracker := cooldown.NewTracker(store, logger)
	key := model.CooldownKey(playerID, kind)

	ready, remaining, err := tracker.IsReady(ctx, playerID, kind, now)
	if err != nil {
		logger.Warn("cooldown cache unreadable", slog.String("error", err.Error()))
	} else if !ready {
		return nil, &model.CooldownError{Kind: kind, Remaining: remaining}
	}

	var result ActionResult
	path := fmt.Sprintf("/api/v1/players/%s/actions/%s", url.PathEscape(string(playerID)), kind)
	err = c.Post(ctx, path, nil, &result)

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Code == "COOLDOWN_ACTIVE" {
		remaining := apiErr.RetryAfter()
		if _, err := tracker.MarkUsed(ctx, playerID, kind, now, remaining); err != nil {
			logger.Warn("failed to cache cooldown", slog.String("error", err.Error()))
		}
		return nil, &model.CooldownError{Kind: kind, Remaining: remaining}
	}
	if err != nil {
		return nil, err
	}

	if err := store.SetCooldown(ctx, key, time.UnixMilli(result.CooldownExpiresAt)); err != nil {
		logger.Warn("failed to cache cooldown", slog.String("error", err.Error()))
	}
	return &result, nil
}

func newCooldownsCmd() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "cooldowns",
		Short: "Show the selected player's action cooldowns",
		RunE: func(cmd *cobra.Command, args []string) error {
			playerID, err := requirePlayer()
			if err != nil {
				return err
			}

			list, err := syncCooldowns(cmd.Context(), client, cache, model.PlayerID(playerID))
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			if !watch {
				out.Print(list.At(time.Now()))
				return nil
			}
			return watchCooldowns(cmd.Context(), out, list)
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Count down every second until all actions are ready")

	return cmd
}

// syncCooldowns fetches the server's cooldowns and mirrors them into the cache
func syncCooldowns(ctx context.Context, c *Client, store *FileStore, playerID model.PlayerID) (*CooldownList, error) {
	var list CooldownList
	if err := c.Get(ctx, "/api/v1/players/"+url.PathEscape(string(playerID))+"/cooldowns", &list); err != nil {
		return nil, err
	}

	active := make(map[string]int64, len(list.Cooldowns))
	for _, cd := range list.Cooldowns {
		active[cd.Action] = cd.ExpiresAt
	}
	for _, kind := range model.AllActionKinds {
		key := model.CooldownKey(playerID, kind)
		var err error
		if expiresAt, ok := active[string(kind)]; ok {
			err = store.SetCooldown(ctx, key, time.UnixMilli(expiresAt))
		} else {
			err = store.DeleteCooldown(ctx, key)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to update cooldown cache: %w", err)
		}
	}
	return &list, nil
}

func watchCooldowns(ctx context.Context, out *Output, list *CooldownList) error {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		current := list.At(time.Now())
		out.Print(current)
		if len(current.Cooldowns) == 0 {
			return nil
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
