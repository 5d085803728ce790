package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"quill/internal/config"
)

const userAgent = "Quill-Go/0.1.0"

// Service defines the notification surface exposed to workflow components.
type Service interface {
	NotifySessionCompleted(ctx context.Context, subject, headline string, duration time.Duration) error
	NotifySessionFailed(ctx context.Context, subject, stageName string, err error) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:  topic,
		client:    &http.Client{Timeout: timeout},
		completed: cfg.Notifications.SessionCompleted,
		failed:    cfg.Notifications.SessionFailed,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint  string
	client    *http.Client
	completed bool
	failed    bool
}

func (n *ntfyService) NotifySessionCompleted(ctx context.Context, subject, headline string, duration time.Duration) error {
	if !n.completed {
		return nil
	}
	subject = strings.TrimSpace(subject)
	message := fmt.Sprintf("✅ README ready for @%s in %s", subject, formatDuration(duration))
	if headline = strings.TrimSpace(headline); headline != "" {
		message = fmt.Sprintf("%s\n%s", message, headline)
	}
	return n.send(ctx, payload{
		title:   "Quill - README Ready",
		message: message,
		tags:    []string{"quill", "session", "completed"},
	})
}

func (n *ntfyService) NotifySessionFailed(ctx context.Context, subject, stageName string, err error) error {
	if !n.failed {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("❌ Generation failed for @")
	builder.WriteString(strings.TrimSpace(subject))
	if stageName = strings.TrimSpace(stageName); stageName != "" {
		builder.WriteString(" during ")
		builder.WriteString(stageName)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}
	return n.send(ctx, payload{
		title:    "Quill - Error",
		message:  builder.String(),
		tags:     []string{"quill", "error", "alert"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "Quill - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"quill", "test"},
		priority: "low",
	})
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

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	if d <= 0 {
		return "0s"
	}
	return d.String()
}

type noopService struct{}

func (noopService) NotifySessionCompleted(context.Context, string, string, time.Duration) error {
	return nil
}
func (noopService) NotifySessionFailed(context.Context, string, string, error) error { return nil }
func (noopService) TestNotification(context.Context) error                         { return nil }
