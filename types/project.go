package types

import "time"

// WebhookProvider is the payload shape a destination expects.
type WebhookProvider string

const (
	WebhookProviderSlack    WebhookProvider = "slack"
	WebhookProviderDiscord  WebhookProvider = "discord"
	WebhookProviderTelegram WebhookProvider = "telegram"
	WebhookProviderGeneric  WebhookProvider = "generic"
)

// Project is a site or app that embeds the widget.
type Project struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	OrganizationID string   `json:"organizationId"`
	AllowedOrigins []string `json:"allowedOrigins"`
	// Organization is loaded together with the project on the ingestion path.
	Organization *Organization `json:"organization,omitempty"`
}

// Organization owns projects and the notification destinations.
type Organization struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// WebhookURL is the single destination that predates the webhooks table.
	WebhookURL *string   `json:"webhookUrl"`
	Webhooks   []Webhook `json:"webhooks"`
}

// Webhook is an organization-configured outbound destination.
type Webhook struct {
	ID             string          `json:"id"`
	OrganizationID string          `json:"organizationId"`
	URL            string          `json:"url"`
	Enabled        bool            `json:"enabled"`
	Provider       WebhookProvider `json:"provider"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// APIKey authenticates the project-scoped API. Only the hash is stored.
type APIKey struct {
	ID         string     `json:"id"`
	ProjectID  string     `json:"projectId"`
	Name       string     `json:"name"`
	KeyHash    string     `json:"-"`
	RevokedAt  *time.Time `json:"revokedAt,omitempty"`
	LastUsedAt *time.Time `json:"lastUsedAt,omitempty"`
}

// WebhookTestRequest is the body of the synchronous webhook test.
type WebhookTestRequest struct {
	URL string `json:"url" binding:"required,url"`
}

// WebhookTestResult reports the outcome of a synchronous test delivery.
type WebhookTestResult struct {
	Success  bool            `json:"success"`
	Provider WebhookProvider `json:"provider"`
	Status   int             `json:"status,omitempty"`
	Error    string          `json:"error,omitempty"`
}
