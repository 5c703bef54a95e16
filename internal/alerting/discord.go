package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const alertColorRed = 0xE74C3C

// DiscordNotifier pushes alert events to a Discord webhook as embeds.
type DiscordNotifier struct {
	webhookURL string
	client     *http.Client
	logger     zerolog.Logger
}

// NewDiscordNotifier constructs a Discord webhook notifier. webhookURL is
// the fallback destination when a sink does not carry its own URL.
func NewDiscordNotifier(webhookURL string, timeout time.Duration, logger zerolog.Logger) *DiscordNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &DiscordNotifier{
		webhookURL: strings.TrimRight(webhookURL, "/"),
		client:     &http.Client{Timeout: timeout},
		logger:     logger.With().Str("component", "alert_discord").Logger(),
	}
}

type webhookPayload struct {
	Content string  `json:"content,omitempty"`
	Embeds  []embed `json:"embeds"`
}

type embed struct {
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	URL         string       `json:"url,omitempty"`
	Color       int          `json:"color"`
	Fields      []embedField `json:"fields,omitempty"`
	Footer      *embedFooter `json:"footer,omitempty"`
}

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type embedFooter struct {
	Text string `json:"text"`
}

// Notify posts one embed for the event. A sink that is itself a webhook URL
// overrides the configured default, keeping the sink opaque to the core.
func (n *DiscordNotifier) Notify(ctx context.Context, sink string, event Event) error {
	url := n.resolveURL(sink)
	if url == "" {
		return fmt.Errorf("no discord webhook configured for sink %q", sink)
	}

	body, err := json.Marshal(buildPayload(event))
	if err != nil {
		return fmt.Errorf("marshal discord payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create discord request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send discord webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("discord rate limited (429)")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, 1024))
		if readErr != nil {
			return fmt.Errorf("discord returned %d (body unreadable)", resp.StatusCode)
		}
		return fmt.Errorf("discord returned %d: %s", resp.StatusCode, respBody)
	}

	n.logger.Info().
		Str("source", string(event.Observation.Source)).
		Str("variant", string(event.Observation.Variant)).
		Str("price", event.Observation.Price.StringFixed(2)).
		Msg("alert delivered")
	return nil
}

func (n *DiscordNotifier) resolveURL(sink string) string {
	if strings.HasPrefix(sink, "https://") || strings.HasPrefix(sink, "http://") {
		return sink
	}
	return n.webhookURL
}

func buildPayload(event Event) webhookPayload {
	o := event.Observation
	return webhookPayload{
		Embeds: []embed{{
			Title:       "Price Alert",
			Description: fmt.Sprintf("Oura Ring 4 price dropped to $%s", o.Price.StringFixed(2)),
			URL:         o.TargetURL,
			Color:       alertColorRed,
			Fields: []embedField{
				{Name: "Retailer", Value: string(o.Source), Inline: true},
				{Name: "Variant", Value: string(o.Variant), Inline: true},
				{Name: "Price", Value: "$" + o.Price.StringFixed(2), Inline: true},
				{Name: "Your Target", Value: "$" + event.TargetPrice.StringFixed(2), Inline: true},
			},
			Footer: &embedFooter{
				Text: "Checked at " + event.FiredAt.UTC().Format(time.RFC3339),
			},
		}},
	}
}

var _ Notifier = (*DiscordNotifier)(nil)
