package services

import (
	"context"

	"github.com/feedlane/feedlane-backend/internal/store"
	"github.com/feedlane/feedlane-backend/types"
)

// WebhookTester performs a synchronous sample delivery.
type WebhookTester interface {
	SendTest(ctx context.Context, destURL string, project *types.Project, org *types.Organization) types.WebhookTestResult
}

// WebhookService backs the admin "send test" action.
type WebhookService struct {
	projects store.ProjectStore
	tester   WebhookTester
}

func NewWebhookService(projects store.ProjectStore, tester WebhookTester) *WebhookService {
	return &WebhookService{projects: projects, tester: tester}
}

// TestWebhook renders a sample feedback for the caller's project and sends it
// to destURL, waiting for the outcome.
func (s *WebhookService) TestWebhook(ctx context.Context, projectID, destURL string) (types.WebhookTestResult, error) {
	project, err := s.projects.GetProjectWithOrganization(ctx, projectID)
	if err != nil {
		return types.WebhookTestResult{}, mapStoreError(err, "Project", projectID)
	}
	return s.tester.SendTest(ctx, destURL, project, project.Organization), nil
}
