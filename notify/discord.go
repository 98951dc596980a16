// Package notify sends listing alerts to a Discord webhook.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"leboncoin-watcher/models"
	"leboncoin-watcher/utils"
)

// Leboncoin orange
const embedColor = 15814656

type WebhookPayload struct {
	Username  string  `json:"username"`
	AvatarURL string  `json:"avatar_url,omitempty"`
	Embeds    []Embed `json:"embeds"`
}

type Embed struct {
	Title  string       `json:"title"`
	URL    string       `json:"url"`
	Color  int          `json:"color"`
	Fields []EmbedField `json:"fields,omitempty"`
	Image  *EmbedImage  `json:"image,omitempty"`
	Footer EmbedFooter  `json:"footer"`
}

type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type EmbedImage struct {
	URL string `json:"url"`
}

type EmbedFooter struct {
	Text string `json:"text"`
}

type DiscordNotifier struct {
	webhookURL string
	username   string
	avatarURL  string
	client     *http.Client
	now        func() time.Time
}

func NewDiscordNotifier(webhookURL, username, avatarURL string, timeout time.Duration) *DiscordNotifier {
	return &DiscordNotifier{
		webhookURL: webhookURL,
		username:   username,
		avatarURL:  avatarURL,
		client:     &http.Client{Timeout: timeout},
		now:        time.Now,
	}
}

// BuildPayload turns a listing into the webhook message.
func (n *DiscordNotifier) BuildPayload(l models.Listing) WebhookPayload {
	price := "N/C"
	if l.Price != nil {
		price = fmt.Sprintf("**%d €**", *l.Price)
	}
	city := l.City
	if city == "" {
		city = "Inconnue"
	}

	embed := Embed{
		Title: "🏠 " + l.Title,
		URL:   l.URL,
		Color: embedColor,
		Fields: []EmbedField{
			{Name: "💰 Prix", Value: price, Inline: true},
			{Name: "📍 Ville", Value: city, Inline: true},
		},
		Footer: EmbedFooter{
			Text: fmt.Sprintf("ID: %s • Trouvé à %s", l.ID, n.now().Format("15:04")),
		},
	}
	if l.ImageURL != "" {
		embed.Image = &EmbedImage{URL: l.ImageURL}
	}

	return WebhookPayload{
		Username:  n.username,
		AvatarURL: n.avatarURL,
		Embeds:    []Embed{embed},
	}
}

// Notify posts one message. Discord answers 204 on success; any other
// status is an error. There is no retry.
func (n *DiscordNotifier) Notify(ctx context.Context, l models.Listing) error {
	if n.webhookURL == "" {
		return fmt.Errorf("discord webhook URL is empty")
	}

	body, err := json.Marshal(n.BuildPayload(l))
	if err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("discord network error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("discord returned %s: %s", resp.Status, bytes.TrimSpace(msg))
	}

	utils.Success("🔔 Notification sent for: %s", l.Title)
	return nil
}
