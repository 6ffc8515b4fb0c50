package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/feedlane/feedlane-backend/config"
	"github.com/feedlane/feedlane-backend/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.IsTest = true
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestWebhookPreview_Generic(t *testing.T) {
	out, err := execute(t, "webhook", "preview", "--url", "https://example.com/hook", "--type", "bug", "-m", "Broken button")
	require.NoError(t, err)

	var envelope map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &envelope))
	assert.Equal(t, "feedback.created", envelope["event"])

	fb := envelope["feedback"].(map[string]any)
	assert.Equal(t, "BUG", fb["type"])
	assert.Equal(t, "Broken button", fb["message"])
}

func TestWebhookPreview_Slack(t *testing.T) {
	out, err := execute(t, "webhook", "preview", "--url", "https://hooks.slack.com/services/T/B/X")
	require.NoError(t, err)
	assert.Contains(t, out, `"blocks"`)
}

func TestWebhookPreview_ForcedProvider(t *testing.T) {
	out, err := execute(t, "webhook", "preview", "--url", "https://relay.example.com/in", "--provider", "discord")
	require.NoError(t, err)
	assert.Contains(t, out, `"embeds"`)
}

func TestWebhookPreview_Errors(t *testing.T) {
	_, err := execute(t, "webhook", "preview")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--url is required")

	_, err = execute(t, "webhook", "preview", "--url", "https://example.com", "--type", "praise")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown feedback type")
}

func TestWebhookTest(t *testing.T) {
	var received []byte
	var userAgent string
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received, _ = io.ReadAll(r.Body)
		userAgent = r.UserAgent()
		w.WriteHeader(http.StatusOK)
	}))
	defer ok.Close()

	out, err := execute(t, "webhook", "test", "--url", ok.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "OK provider=generic status=200")
	assert.Contains(t, string(received), `"event":"webhook.test"`)
	assert.True(t, strings.HasPrefix(userAgent, "feedlanectl/"))
}

func TestWebhookTest_Failure(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer failing.Close()

	out, err := execute(t, "webhook", "test", "--url", failing.URL)
	require.Error(t, err)
	assert.Contains(t, out, "FAILED provider=generic status=502")
}

func TestMigrateDown_RejectsZeroSteps(t *testing.T) {
	_, err := execute(t, "migrate", "down", "--steps", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--steps")
}

func TestWriteConfig_OmitsSecrets(t *testing.T) {
	cfg := &config.Config{
		Server:   config.ServerConfig{Port: "8080", Environment: config.EnvProduction},
		Database: config.DatabaseConfig{Host: "db", Password: "hunter2"},
		Redis:    config.RedisConfig{Address: "cache:6379", Password: "s3cret"},
		Sentry:   config.SentryConfig{DSN: "https://key@sentry.example.com/1"},
	}

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	require.NoError(t, writeConfig(cmd, cfg))

	text := out.String()
	assert.Contains(t, text, "port: \"8080\"")
	assert.Contains(t, text, "environment: production")
	assert.NotContains(t, text, "hunter2")
	assert.NotContains(t, text, "s3cret")
	assert.NotContains(t, text, "sentry.example.com")
}
