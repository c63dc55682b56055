package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"driftwatch/internal/config"
	"driftwatch/internal/drift"
	"driftwatch/internal/reconcile"
)

const userAgent = "Driftwatch-Go/0.1.0"

// Service defines the notification surface exposed to the check workflow.
type Service interface {
	NotifyDriftDetected(ctx context.Context, report *reconcile.Report) error
	NotifyBackInSync(ctx context.Context, report *reconcile.Report) error
	NotifyCheckFailed(ctx context.Context, target string, err error) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &http.Client{Timeout: timeout}
	return &ntfyService{
		endpoint:     topic,
		client:       client,
		driftEnabled: cfg.Notifications.Drift,
		recovery:     cfg.Notifications.Recovery,
		errors:       cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint     string
	client       *http.Client
	driftEnabled bool
	recovery     bool
	errors       bool
}

func (n *ntfyService) NotifyDriftDetected(ctx context.Context, report *reconcile.Report) error {
	if !n.driftEnabled || report == nil {
		return nil
	}

	var builder strings.Builder
	fmt.Fprintf(&builder, "Schema drift on %s: %d of %d migrations not applied",
		report.Target, report.MissingCount, report.InventoryCount)
	if report.TrackingTableMissing {
		builder.WriteString("\nTracking table is absent: no migrations have ever been applied")
	}
	for i, missing := range report.Missing {
		if i == 5 {
			fmt.Fprintf(&builder, "\n... and %d more", len(report.Missing)-i)
			break
		}
		fmt.Fprintf(&builder, "\n- %s (%s)", drift.DisplayTitle(missing.Name), missing.Filename)
	}

	data := payload{
		title:    "Driftwatch - Drift Detected",
		message:  builder.String(),
		tags:     []string{"driftwatch", "drift", "detected"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyBackInSync(ctx context.Context, report *reconcile.Report) error {
	if !n.recovery || report == nil {
		return nil
	}
	data := payload{
		title: "Driftwatch - Back In Sync",
		message: fmt.Sprintf("Schema back in sync on %s: all %d migrations applied",
			report.Target, report.InventoryCount),
		tags: []string{"driftwatch", "sync", "recovered"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyCheckFailed(ctx context.Context, target string, err error) error {
	if !n.errors {
		return nil
	}

	var builder strings.Builder
	builder.WriteString("Check failed")
	if target = strings.TrimSpace(target); target != "" {
		builder.WriteString(" against ")
		builder.WriteString(target)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Driftwatch - Check Failed",
		message:  builder.String(),
		tags:     []string{"driftwatch", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Driftwatch - Test",
		message:  "Notification system test",
		tags:     []string{"driftwatch", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyDriftDetected(context.Context, *reconcile.Report) error { return nil }
func (noopService) NotifyBackInSync(context.Context, *reconcile.Report) error    { return nil }
func (noopService) NotifyCheckFailed(context.Context, string, error) error       { return nil }
func (noopService) TestNotification(context.Context) error                       { return nil }
