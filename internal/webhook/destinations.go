package webhook

import (
	"strings"

	"github.com/feedlane/feedlane-backend/types"
)

// Destination is one resolved delivery target.
type Destination struct {
	URL      string
	Provider types.WebhookProvider
}

// EffectiveDestinations returns every enabled webhook of org in stored order,
// followed by the legacy single webhook URL when it is set and not already
// covered by an enabled webhook with the exact same URL.
func EffectiveDestinations(org *types.Organization) []Destination {
	if org == nil {
		return nil
	}

	var dests []Destination
	seen := make(map[string]struct{}, len(org.Webhooks)+1)
	for _, wh := range org.Webhooks {
		if !wh.Enabled || strings.TrimSpace(wh.URL) == "" {
			continue
		}
		if _, dup := seen[wh.URL]; dup {
			continue
		}
		seen[wh.URL] = struct{}{}
		dests = append(dests, Destination{URL: wh.URL, Provider: ParseProvider(string(wh.Provider), wh.URL)})
	}

	if org.WebhookURL != nil {
		legacy := *org.WebhookURL
		if _, dup := seen[legacy]; strings.TrimSpace(legacy) != "" && !dup {
			dests = append(dests, Destination{URL: legacy, Provider: DetectProvider(legacy)})
		}
	}
	return dests
}
