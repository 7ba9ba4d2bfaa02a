package report

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/docketwatch/docketwatch/internal/httpx"
)

// SlackNotifier posts a short run summary to an incoming webhook.
type SlackNotifier struct {
	webhook string
	http    *httpx.Client
}

func NewSlackNotifier(webhook string) *SlackNotifier {
	return &SlackNotifier{
		webhook: webhook,
		http:    httpx.NewClient(15*time.Second, 2, 500*time.Millisecond),
	}
}

func (s *SlackNotifier) Enabled() bool { return s.webhook != "" }

func (s *SlackNotifier) Notify(ctx context.Context, text string) error {
	if s.webhook == "" {
		return nil
	}
	if err := s.http.DoJSON(ctx, http.MethodPost, s.webhook, nil, map[string]string{"text": text}, nil); err != nil {
		return fmt.Errorf("slack webhook: %w", err)
	}
	return nil
}

// Summary builds the one-line notification for a finished run.
func Summary(day string, dockets, documents, newsOnly, issueNumber int) string {
	msg := fmt.Sprintf("Lawsuit monitor %s: %d dockets, %d documents, %d news-only", day, dockets, documents, newsOnly)
	if issueNumber > 0 {
		msg += fmt.Sprintf(" (issue #%d)", issueNumber)
	}
	return msg
}
