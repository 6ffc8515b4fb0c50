package webhook

import (
	"testing"

	"github.com/feedlane/feedlane-backend/types"
	"github.com/stretchr/testify/assert"
)

func TestDetectProvider_Precedence(t *testing.T) {
	tests := []struct {
		url  string
		want types.WebhookProvider
	}{
		{slackURL, types.WebhookProviderSlack},
		{discordURL, types.WebhookProviderDiscord},
		{telegramURL, types.WebhookProviderTelegram},
		{genericURL, types.WebhookProviderGeneric},
		{"https://hooks.slack.com/services/x?mirror=discord.com/api/webhooks/1", types.WebhookProviderSlack},
		{"https://discord.com/api/webhooks/1/x?relay=api.telegram.org", types.WebhookProviderDiscord},
		{"https://relay.example.com/?to=hooks.slack.com", types.WebhookProviderSlack},
		{"https://discord.com/channels/1", types.WebhookProviderGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectProvider(tt.url))
		})
	}
}

func TestParseProvider(t *testing.T) {
	assert.Equal(t, types.WebhookProviderGeneric, ParseProvider("generic", slackURL), "stored value wins over sniffing")
	assert.Equal(t, types.WebhookProviderDiscord, ParseProvider(" Discord ", genericURL))
	assert.Equal(t, types.WebhookProviderSlack, ParseProvider("", slackURL))
	assert.Equal(t, types.WebhookProviderTelegram, ParseProvider("teams", telegramURL))
}

func TestEffectiveDestinations(t *testing.T) {
	tests := []struct {
		name string
		org  *types.Organization
		want []Destination
	}{
		{"nil org", nil, nil},
		{"nothing configured", &types.Organization{}, nil},
		{
			name: "legacy only",
			org:  &types.Organization{WebhookURL: strPtr(slackURL)},
			want: []Destination{{URL: slackURL, Provider: types.WebhookProviderSlack}},
		},
		{
			name: "blank legacy ignored",
			org:  &types.Organization{WebhookURL: strPtr("  ")},
			want: nil,
		},
		{
			name: "enabled webhooks in order plus legacy",
			org: &types.Organization{
				WebhookURL: strPtr(genericURL),
				Webhooks: []types.Webhook{
					{URL: discordURL, Enabled: true, Provider: types.WebhookProviderDiscord},
					{URL: telegramURL, Enabled: false, Provider: types.WebhookProviderTelegram},
					{URL: slackURL, Enabled: true, Provider: types.WebhookProviderSlack},
				},
			},
			want: []Destination{
				{URL: discordURL, Provider: types.WebhookProviderDiscord},
				{URL: slackURL, Provider: types.WebhookProviderSlack},
				{URL: genericURL, Provider: types.WebhookProviderGeneric},
			},
		},
		{
			name: "legacy duplicate of enabled webhook",
			org: &types.Organization{
				WebhookURL: strPtr(slackURL),
				Webhooks:   []types.Webhook{{URL: slackURL, Enabled: true, Provider: types.WebhookProviderSlack}},
			},
			want: []Destination{{URL: slackURL, Provider: types.WebhookProviderSlack}},
		},
		{
			name: "legacy duplicate of disabled webhook is still sent",
			org: &types.Organization{
				WebhookURL: strPtr(slackURL),
				Webhooks:   []types.Webhook{{URL: slackURL, Enabled: false, Provider: types.WebhookProviderSlack}},
			},
			want: []Destination{{URL: slackURL, Provider: types.WebhookProviderSlack}},
		},
		{
			name: "dedup is exact match only",
			org: &types.Organization{
				WebhookURL: strPtr(genericURL + "/"),
				Webhooks:   []types.Webhook{{URL: genericURL, Enabled: true}},
			},
			want: []Destination{
				{URL: genericURL, Provider: types.WebhookProviderGeneric},
				{URL: genericURL + "/", Provider: types.WebhookProviderGeneric},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EffectiveDestinations(tt.org))
		})
	}
}
