package webhook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/feedlane/feedlane-backend/types"
)

const (
	slackSectionLimit     = 3000
	discordEmbedLimit     = 4096
	telegramMessageBudget = 3500

	colorBug     = 0xef4444
	colorFeature = 0x8b5cf6
	colorDefault = 0x3b82f6

	testSuffix = " (테스트)"

	EventFeedbackCreated = "feedback.created"
	EventWebhookTest     = "webhook.test"
)

// TypeLabel is the human-readable heading for a feedback type.
func TypeLabel(t types.FeedbackType) string {
	switch t {
	case types.FeedbackTypeBug:
		return "🐛 버그 리포트"
	case types.FeedbackTypeFeature:
		return "💡 기능 요청"
	case types.FeedbackTypeInquiry:
		return "❓문의"
	default:
		return "📝 " + string(t)
	}
}

func typeColor(t types.FeedbackType) int {
	switch t {
	case types.FeedbackTypeBug:
		return colorBug
	case types.FeedbackTypeFeature:
		return colorFeature
	default:
		return colorDefault
	}
}

// FormatPayload renders the JSON body for one destination. It does no I/O and
// reads the clock only through fb.CreatedAt, so equal inputs give equal bytes.
func FormatPayload(dest Destination, fb *types.Feedback, project *types.Project, org *types.Organization, isTest bool) ([]byte, error) {
	if fb == nil || project == nil {
		return nil, fmt.Errorf("format payload: feedback and project are required")
	}
	if org == nil {
		org = &types.Organization{}
	}

	var payload interface{}
	switch dest.Provider {
	case types.WebhookProviderSlack:
		payload = slackPayload(fb, project, org, isTest)
	case types.WebhookProviderDiscord:
		payload = discordPayload(fb, project, org, isTest)
	case types.WebhookProviderTelegram:
		payload = telegramPayload(dest.URL, fb, project, org, isTest)
	default:
		payload = genericPayload(fb, project, org, isTest)
	}

	// Slack link markup and Telegram HTML must reach the provider unescaped.
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", dest.Provider, err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func title(fb *types.Feedback, isTest bool) string {
	if isTest {
		return TypeLabel(fb.Type) + testSuffix
	}
	return TypeLabel(fb.Type)
}

// truncate cuts s to at most limit characters, marking the cut with an ellipsis.
func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit-1]) + "…"
}

// linkURL returns raw when it is an absolute http(s) URL with a host, else "".
// Metadata comes from the public widget, so it is never trusted as a link.
func linkURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return ""
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return u.String()
}

// Slack block kit

var slackEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// escapeSlack neutralizes mrkdwn control sequences such as <!channel> and
// <url|label> in user supplied text.
func escapeSlack(s string) string {
	return slackEscaper.Replace(s)
}

// truncateSlack escapes s and keeps the escaped result within limit characters.
// Entities are never split by the cut.
func truncateSlack(s string, limit int) string {
	out := escapeSlack(s)
	if utf8.RuneCountInString(out) <= limit {
		return out
	}
	var b strings.Builder
	n := 0
	for _, r := range s {
		piece := escapeSlack(string(r))
		w := utf8.RuneCountInString(piece)
		if n+w > limit-1 {
			break
		}
		b.WriteString(piece)
		n += w
	}
	return b.String() + "…"
}

type slackText struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Emoji bool   `json:"emoji,omitempty"`
}

type slackBlock struct {
	Type     string      `json:"type"`
	Text     *slackText  `json:"text,omitempty"`
	Fields   []slackText `json:"fields,omitempty"`
	Elements []slackText `json:"elements,omitempty"`
}

type slackMessage struct {
	Text   string       `json:"text"`
	Blocks []slackBlock `json:"blocks"`
}

func slackPayload(fb *types.Feedback, project *types.Project, org *types.Organization, isTest bool) slackMessage {
	heading := title(fb, isTest)
	blocks := []slackBlock{
		{Type: "header", Text: &slackText{Type: "plain_text", Text: heading, Emoji: true}},
		{Type: "section", Fields: []slackText{
			{Type: "mrkdwn", Text: "*프로젝트:*\n" + escapeSlack(project.Name)},
			{Type: "mrkdwn", Text: "*조직:*\n" + escapeSlack(org.Name)},
		}},
		{Type: "section", Text: &slackText{Type: "mrkdwn", Text: truncateSlack(fb.Message, slackSectionLimit)}},
	}
	if fb.Email != nil && *fb.Email != "" {
		blocks = append(blocks, slackBlock{Type: "section", Fields: []slackText{
			{Type: "mrkdwn", Text: "*이메일:*\n" + escapeSlack(*fb.Email)},
		}})
	}
	if pageURL := fb.PageURL(); pageURL != "" {
		location := "📍 " + escapeSlack(pageURL)
		if link := linkURL(pageURL); link != "" {
			link = escapeSlack(strings.ReplaceAll(link, "|", "%7C"))
			location = fmt.Sprintf("📍 <%s|%s>", link, link)
		}
		blocks = append(blocks, slackBlock{Type: "context", Elements: []slackText{
			{Type: "mrkdwn", Text: location},
		}})
	}
	return slackMessage{
		Text:   fmt.Sprintf("%s - %s", heading, escapeSlack(project.Name)),
		Blocks: blocks,
	}
}

// Discord embed

type discordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type discordFooter struct {
	Text string `json:"text"`
}

type discordEmbed struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	URL         string         `json:"url,omitempty"`
	Color       int            `json:"color"`
	Fields      []discordField `json:"fields"`
	Footer      *discordFooter `json:"footer,omitempty"`
	Timestamp   string         `json:"timestamp"`
}

type discordMessage struct {
	Embeds []discordEmbed `json:"embeds"`
}

func discordPayload(fb *types.Feedback, project *types.Project, org *types.Organization, isTest bool) discordMessage {
	embed := discordEmbed{
		Title:       title(fb, isTest),
		Description: truncate(fb.Message, discordEmbedLimit),
		URL:         linkURL(fb.PageURL()),
		Color:       typeColor(fb.Type),
		Fields:      []discordField{{Name: "프로젝트", Value: project.Name, Inline: true}},
		Timestamp:   fb.CreatedAt.UTC().Format(time.RFC3339),
	}
	if fb.Email != nil && *fb.Email != "" {
		embed.Fields = append(embed.Fields, discordField{Name: "이메일", Value: *fb.Email, Inline: true})
	}
	if org.Name != "" {
		embed.Footer = &discordFooter{Text: org.Name}
	}
	return discordMessage{Embeds: []discordEmbed{embed}}
}

// Telegram sendMessage

type telegramMessage struct {
	ChatID                string `json:"chat_id,omitempty"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

func telegramPayload(destURL string, fb *types.Feedback, project *types.Project, org *types.Organization, isTest bool) telegramMessage {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s</b>\n\n", html.EscapeString(title(fb, isTest)))
	fmt.Fprintf(&b, "<b>프로젝트:</b> %s\n", html.EscapeString(project.Name))
	if org.Name != "" {
		fmt.Fprintf(&b, "<b>조직:</b> %s\n", html.EscapeString(org.Name))
	}
	if fb.Email != nil && *fb.Email != "" {
		fmt.Fprintf(&b, "<b>이메일:</b> %s\n", html.EscapeString(*fb.Email))
	}
	fmt.Fprintf(&b, "\n%s", html.EscapeString(truncate(fb.Message, telegramMessageBudget)))
	if pageURL := fb.PageURL(); pageURL != "" {
		if link := linkURL(pageURL); link != "" {
			fmt.Fprintf(&b, "\n\n📍 <a href=\"%s\">%s</a>", html.EscapeString(link), html.EscapeString(link))
		} else {
			fmt.Fprintf(&b, "\n\n📍 %s", html.EscapeString(pageURL))
		}
	}

	return telegramMessage{
		ChatID:                telegramChatID(destURL),
		Text:                  b.String(),
		ParseMode:             "HTML",
		DisableWebPagePreview: true,
	}
}

// telegramChatID reads chat_id from a .../sendMessage?chat_id=... destination.
func telegramChatID(destURL string) string {
	u, err := url.Parse(destURL)
	if err != nil {
		return ""
	}
	return u.Query().Get("chat_id")
}

// Generic JSON envelope

type genericFeedback struct {
	ID        string             `json:"id"`
	Type      types.FeedbackType `json:"type"`
	Message   string             `json:"message"`
	Email     *string            `json:"email"`
	Metadata  json.RawMessage    `json:"metadata,omitempty"`
	Status    string             `json:"status,omitempty"`
	CreatedAt string             `json:"createdAt"`
}

type genericRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type genericEnvelope struct {
	Event        string          `json:"event"`
	Timestamp    string          `json:"timestamp"`
	Feedback     genericFeedback `json:"feedback"`
	Project      genericRef      `json:"project"`
	Organization genericRef      `json:"organization"`
}

func genericPayload(fb *types.Feedback, project *types.Project, org *types.Organization, isTest bool) genericEnvelope {
	event := EventFeedbackCreated
	if isTest {
		event = EventWebhookTest
	}
	ts := fb.CreatedAt.UTC().Format(time.RFC3339)
	return genericEnvelope{
		Event:     event,
		Timestamp: ts,
		Feedback: genericFeedback{
			ID:        fb.ID,
			Type:      fb.Type,
			Message:   fb.Message,
			Email:     fb.Email,
			Metadata:  fb.Metadata,
			Status:    string(fb.Status),
			CreatedAt: ts,
		},
		Project:      genericRef{ID: project.ID, Name: project.Name},
		Organization: genericRef{ID: org.ID, Name: org.Name},
	}
}
