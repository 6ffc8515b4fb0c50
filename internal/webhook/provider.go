// Package webhook renders feedback notifications for chat providers and
// delivers them to organization-configured destinations.
package webhook

import (
	"strings"

	"github.com/feedlane/feedlane-backend/types"
)

const (
	slackHostMarker    = "hooks.slack.com"
	discordPathMarker  = "discord.com/api/webhooks"
	telegramHostMarker = "api.telegram.org"
)

// DetectProvider picks a payload shape from the destination URL.
// Checked in order: Slack, Discord, Telegram, then generic JSON.
func DetectProvider(rawURL string) types.WebhookProvider {
	switch {
	case strings.Contains(rawURL, slackHostMarker):
		return types.WebhookProviderSlack
	case strings.Contains(rawURL, discordPathMarker):
		return types.WebhookProviderDiscord
	case strings.Contains(rawURL, telegramHostMarker):
		return types.WebhookProviderTelegram
	default:
		return types.WebhookProviderGeneric
	}
}

// ParseProvider maps a stored provider value back to the closed set. Unknown
// or empty values fall back to sniffing the URL.
func ParseProvider(stored, rawURL string) types.WebhookProvider {
	switch p := types.WebhookProvider(strings.ToLower(strings.TrimSpace(stored))); p {
	case types.WebhookProviderSlack, types.WebhookProviderDiscord,
		types.WebhookProviderTelegram, types.WebhookProviderGeneric:
		return p
	}
	return DetectProvider(rawURL)
}
