package notification

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/forest-guardian/global-mining-labels/internal/logger"
	"github.com/forest-guardian/global-mining-labels/internal/properties"
	"go.uber.org/zap"
)

type DiscordMessage struct {
	Embeds []DiscordEmbed `json:"embeds"`
}

type DiscordEmbed struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Color       int    `json:"color"`
}

var client = &http.Client{Timeout: 10 * time.Second}

func SendDiscordErrorNotification(errorMessage string) error {
	return send(properties.DiscordErrorNotificationUrl(), DiscordEmbed{
		Title:       "🚨 Label generation failed",
		Description: fmt.Sprintf("An error occurred: %s", errorMessage),
		Color:       16711680, // Red color
	})
}

func SendDiscordSuccessNotification(successMessage string) error {
	return send(properties.DiscordSuccessNotificationUrl(), DiscordEmbed{
		Title:       "✅ Labels generated",
		Description: successMessage,
		Color:       65280, // Green color
	})
}

// SendDiscordWarnNotification reports a finished run with per-image failures.
// It goes to the error channel.
func SendDiscordWarnNotification(warnMessage string) error {
	return send(properties.DiscordErrorNotificationUrl(), DiscordEmbed{
		Title:       "⚠️ Labels generated with failures",
		Description: warnMessage,
		Color:       16753920, // Orange color
	})
}

func send(url string, embed DiscordEmbed) error {
	if url == "" {
		logger.Debug("discord: webhook not configured, skipping", zap.String("title", embed.Title))
		return nil
	}

	payload, err := json.Marshal(DiscordMessage{Embeds: []DiscordEmbed{embed}})
	if err != nil {
		return err
	}

	resp, err := client.Post(url, "application/json", bytes.NewBuffer(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to send Discord notification, status code: %d", resp.StatusCode)
	}

	return nil
}
