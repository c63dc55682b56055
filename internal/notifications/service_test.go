package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"driftwatch/internal/config"
	"driftwatch/internal/drift"
	"driftwatch/internal/notifications"
	"driftwatch/internal/reconcile"
)

func driftReport() *reconcile.Report {
	return &reconcile.Report{
		RunID:          "run-1",
		Target:         "db.internal:5432/app",
		Outcome:        drift.OutcomeDrift,
		InventoryCount: 3,
		AppliedCount:   2,
		MissingCount:   1,
		Missing: []reconcile.MissingMigration{
			{Version: "003", Name: "add_index", Filename: "003_add_index.sql"},
		},
	}
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyDriftDetected(context.Background(), driftReport()); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsDriftPayload(t *testing.T) {
	var captured struct {
		title    string
		tags     string
		priority string
		body     string
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method: %s", r.Method)
		}
		captured.title = r.Header.Get("Title")
		captured.tags = r.Header.Get("Tags")
		captured.priority = r.Header.Get("Priority")
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		captured.body = string(body)
		_ = r.Body.Close()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.RequestTimeout = 5

	svc := notifications.NewService(&cfg)
	if err := svc.NotifyDriftDetected(context.Background(), driftReport()); err != nil {
		t.Fatalf("notification returned error: %v", err)
	}

	if captured.title != "Driftwatch - Drift Detected" {
		t.Fatalf("title = %q", captured.title)
	}
	if !strings.Contains(captured.body, "1 of 3 migrations not applied") {
		t.Fatalf("body = %q", captured.body)
	}
	if !strings.Contains(captured.body, "Add Index (003_add_index.sql)") {
		t.Fatalf("body = %q", captured.body)
	}
	if captured.tags != "driftwatch,drift,detected" {
		t.Fatalf("tags = %q", captured.tags)
	}
	if captured.priority != "high" {
		t.Fatalf("priority = %q", captured.priority)
	}
}

func TestNtfyServiceFormatsCheckFailure(t *testing.T) {
	var body string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL

	svc := notifications.NewService(&cfg)
	err := svc.NotifyCheckFailed(context.Background(), "db.internal:5432/app", errors.New("connection refused"))
	if err != nil {
		t.Fatalf("notification returned error: %v", err)
	}

	want := "Check failed against db.internal:5432/app: connection refused"
	if body != want {
		t.Fatalf("body = %q, want %q", body, want)
	}
}

func TestNtfyServiceIgnoresSuppressedEvents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("unexpected call for suppressed event: %s", r.URL.String())
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.Drift = false
	cfg.Notifications.Recovery = false
	cfg.Notifications.Errors = false

	svc := notifications.NewService(&cfg)
	ctx := context.Background()
	if err := svc.NotifyDriftDetected(ctx, driftReport()); err != nil {
		t.Fatalf("drift: %v", err)
	}
	if err := svc.NotifyBackInSync(ctx, driftReport()); err != nil {
		t.Fatalf("recovery: %v", err)
	}
	if err := svc.NotifyCheckFailed(ctx, "db", errors.New("boom")); err != nil {
		t.Fatalf("error: %v", err)
	}
}

func TestNtfyServiceSurfacesServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL

	svc := notifications.NewService(&cfg)
	err := svc.TestNotification(context.Background())
	if err == nil {
		t.Fatal("expected error from non-2xx response")
	}
	if !strings.Contains(err.Error(), "429") {
		t.Fatalf("err = %v", err)
	}
}
