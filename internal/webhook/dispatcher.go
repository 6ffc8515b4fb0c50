package webhook

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/feedlane/feedlane-backend/logger"
	"github.com/feedlane/feedlane-backend/services"
	"github.com/feedlane/feedlane-backend/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// JobQueue accepts background work without blocking. *services.WorkerPool
// satisfies it.
type JobQueue interface {
	Submit(job services.Job) bool
}

// Dispatcher fans a stored feedback out to every effective destination of its
// organization. Deliveries are paced per destination host so a burst of
// submissions does not trip provider rate limits.
type Dispatcher struct {
	queue   JobQueue
	sender  Sender
	logger  *zap.SugaredLogger
	metrics *deliveryMetrics

	hostRate  rate.Limit
	hostBurst int
	mu        sync.Mutex
	hosts     map[string]*rate.Limiter

	now func() time.Time
}

// NewDispatcher creates a dispatcher. perHostRate <= 0 disables pacing.
func NewDispatcher(queue JobQueue, sender Sender, perHostRate float64, perHostBurst int) *Dispatcher {
	limit := rate.Inf
	if perHostRate > 0 {
		limit = rate.Limit(perHostRate)
	}
	if perHostBurst < 1 {
		perHostBurst = 1
	}
	return &Dispatcher{
		queue:     queue,
		sender:    sender,
		logger:    logger.GetLogger().Named("webhook"),
		metrics:   newDeliveryMetrics(),
		hostRate:  limit,
		hostBurst: perHostBurst,
		hosts:     make(map[string]*rate.Limiter),
		now:       time.Now,
	}
}

// Dispatch queues one delivery per effective destination and returns
// immediately. Outcomes are logged and counted, never returned.
func (d *Dispatcher) Dispatch(fb *types.Feedback, project *types.Project) {
	org := project.Organization
	for _, dest := range EffectiveDestinations(org) {
		dest := dest
		job := services.Job{
			Name: fmt.Sprintf("webhook:%s:%s", dest.Provider, fb.ID),
			Execute: func(ctx context.Context) error {
				_, err := d.deliver(ctx, dest, fb, project, org, false)
				if err != nil {
					return fmt.Errorf("deliver to %s: %w", logger.MaskURL(dest.URL), err)
				}
				return nil
			},
		}
		if !d.queue.Submit(job) {
			d.metrics.deliveries.WithLabelValues(string(dest.Provider), outcomeDropped).Inc()
			d.logger.Warnw("Webhook delivery dropped",
				"feedbackId", fb.ID,
				"provider", dest.Provider,
				"destination", logger.MaskURL(dest.URL))
		}
	}
}

// SendTest delivers a sample feedback to destURL and waits for the outcome.
func (d *Dispatcher) SendTest(ctx context.Context, destURL string, project *types.Project, org *types.Organization) types.WebhookTestResult {
	dest := Destination{URL: destURL, Provider: DetectProvider(destURL)}
	result := types.WebhookTestResult{Provider: dest.Provider}

	status, err := d.deliver(ctx, dest, SampleFeedback(project, d.now()), project, org, true)
	result.Status = status
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.Success = true
	return result
}

// SampleFeedback is the feedback rendered by test deliveries and previews.
func SampleFeedback(project *types.Project, now time.Time) *types.Feedback {
	email := "test@example.com"
	projectID := ""
	if project != nil {
		projectID = project.ID
	}
	return &types.Feedback{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		Type:      types.FeedbackTypeInquiry,
		Message:   "웹훅 연결 테스트 메시지입니다. This is a test message from Feedlane.",
		Email:     &email,
		Status:    types.FeedbackStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (d *Dispatcher) deliver(ctx context.Context, dest Destination, fb *types.Feedback, project *types.Project, org *types.Organization, isTest bool) (int, error) {
	start := time.Now()
	provider := string(dest.Provider)

	status, err := d.send(ctx, dest, fb, project, org, isTest)

	d.metrics.duration.WithLabelValues(provider).Observe(time.Since(start).Seconds())
	if err != nil {
		d.metrics.deliveries.WithLabelValues(provider, outcomeFailure).Inc()
		d.logger.Warnw("Webhook delivery failed",
			"feedbackId", fb.ID,
			"provider", provider,
			"destination", logger.MaskURL(dest.URL),
			"status", status,
			"error", err)
		return status, err
	}

	d.metrics.deliveries.WithLabelValues(provider, outcomeSuccess).Inc()
	d.logger.Debugw("Webhook delivered",
		"feedbackId", fb.ID,
		"provider", provider,
		"status", status,
		"test", isTest)
	return status, nil
}

func (d *Dispatcher) send(ctx context.Context, dest Destination, fb *types.Feedback, project *types.Project, org *types.Organization, isTest bool) (int, error) {
	if err := d.hostLimiter(dest.URL).Wait(ctx); err != nil {
		return 0, fmt.Errorf("waiting for host budget: %w", err)
	}
	payload, err := FormatPayload(dest, fb, project, org, isTest)
	if err != nil {
		return 0, err
	}
	return d.sender.Send(ctx, dest.URL, payload)
}

func (d *Dispatcher) hostLimiter(destURL string) *rate.Limiter {
	host := destURL
	if u, err := url.Parse(destURL); err == nil && u.Host != "" {
		host = u.Host
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	l, ok := d.hosts[host]
	if !ok {
		l = rate.NewLimiter(d.hostRate, d.hostBurst)
		d.hosts[host] = l
	}
	return l
}
