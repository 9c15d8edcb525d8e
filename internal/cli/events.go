package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// StreamEvent is a single server-sent event
type StreamEvent struct {
	Name string
	Data string
}

func newEventsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "events",
		Short: "Stream live updates to the selected player's record",
		Long: `Connect to the player's event stream and print updates as they happen.

Events include:
  - connected: Stream established
  - player-updated: The record changed through an action, purchase,
    patch or payment

Press Ctrl+C to disconnect.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			playerID, err := requirePlayer()
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			err = client.Stream(cmd.Context(), "/api/v1/players/"+url.PathEscape(playerID)+"/events", func(ev StreamEvent) {
				out.printEvent(ev, time.Now())
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}

func (o *Output) printEvent(ev StreamEvent, now time.Time) {
	if o.format == "json" {
		var payload any = ev.Data
		if json.Valid([]byte(ev.Data)) {
			payload = json.RawMessage(ev.Data)
		}
		data, _ := json.Marshal(map[string]any{
			"time":  now,
			"event": ev.Name,
			"data":  payload,
		})
		fmt.Fprintln(o.w, string(data))
		return
	}
	fmt.Fprintf(o.w, "[%s] %s: %s\n", now.Format("2006-01-02 15:04:05"), ev.Name, strings.ReplaceAll(ev.Data, "\n", " "))
}

// Stream opens an event stream and calls fn for each event until the
// server closes it or ctx is cancelled.
func (c *Client) Stream(ctx context.Context, path string, fn func(StreamEvent)) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	// Streams stay open; only the context ends them.
	streamClient := &http.Client{Transport: c.httpClient.Transport}
	resp, err := streamClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return responseError(resp, body)
	}

	return readEvents(resp.Body, fn)
}

func readEvents(r io.Reader, fn func(StreamEvent)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var ev StreamEvent
	var data []string
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if ev.Name != "" || len(data) > 0 {
				ev.Data = strings.Join(data, "\n")
				fn(ev)
			}
			ev = StreamEvent{}
			data = nil
		case strings.HasPrefix(line, ":"):
			// comment
		case strings.HasPrefix(line, "event:"):
			ev.Name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}
	return scanner.Err()
}
