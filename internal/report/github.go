package report

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/docketwatch/docketwatch/config"
	"github.com/docketwatch/docketwatch/internal/httpx"
)

// GitHubPublisher appends each run's report as a comment on a per-day
// issue. The first run of a day creates the issue; later runs accumulate
// comments on it, and prior days' issues get closed with a pointer to
// the new one.
type GitHubPublisher struct {
	cfg    config.ReportConfig
	api    string
	http   *httpx.Client
	logger *log.Logger
}

func NewGitHubPublisher(cfg config.ReportConfig) *GitHubPublisher {
	return &GitHubPublisher{
		cfg:    cfg.Normalize(),
		api:    "https://api.github.com",
		http:   httpx.NewClient(20*time.Second, 2, 500*time.Millisecond),
		logger: log.New(log.Writer(), "[GITHUB] ", log.LstdFlags),
	}
}

// Enabled reports whether publishing is configured.
func (p *GitHubPublisher) Enabled() bool {
	return p.cfg.GitHubOwner != "" && p.cfg.GitHubRepo != "" && p.cfg.GitHubToken != ""
}

type issue struct {
	Number  int    `json:"number"`
	Title   string `json:"title"`
	HTMLURL string `json:"html_url"`
}

func (p *GitHubPublisher) headers() map[string]string {
	return map[string]string{
		"Authorization":        "Bearer " + p.cfg.GitHubToken,
		"Accept":               "application/vnd.github+json",
		"X-GitHub-Api-Version": "2022-11-28",
	}
}

func (p *GitHubPublisher) issuesURL() string {
	return fmt.Sprintf("%s/repos/%s/%s/issues", p.api, p.cfg.GitHubOwner, p.cfg.GitHubRepo)
}

// Publish posts the report body for the given day and returns the issue
// number it landed on.
func (p *GitHubPublisher) Publish(ctx context.Context, day, body string) (int, error) {
	title := fmt.Sprintf("%s (%s)", p.cfg.TitleBase, day)

	today, err := p.findOrCreateIssue(ctx, title)
	if err != nil {
		return 0, err
	}
	if err := p.createComment(ctx, today.Number, body); err != nil {
		return 0, err
	}
	if err := p.closePriorDays(ctx, title, today); err != nil {
		// today's report already landed; stale-open issues are cosmetic
		p.logger.Printf("closing prior daily issues: %v", err)
	}
	return today.Number, nil
}

func (p *GitHubPublisher) findOrCreateIssue(ctx context.Context, title string) (issue, error) {
	open, err := p.listOpenIssues(ctx)
	if err != nil {
		return issue{}, err
	}
	for _, it := range open {
		if it.Title == title {
			return it, nil
		}
	}

	payload := map[string]any{
		"title":  title,
		"body":   "Collected reports accumulate as comments on this issue.",
		"labels": []string{p.cfg.IssueLabel},
	}
	var created issue
	if err := p.http.DoJSON(ctx, http.MethodPost, p.issuesURL(), p.headers(), payload, &created); err != nil {
		return issue{}, fmt.Errorf("create issue %q: %w", title, err)
	}
	return created, nil
}

func (p *GitHubPublisher) listOpenIssues(ctx context.Context) ([]issue, error) {
	u := fmt.Sprintf("%s?state=open&labels=%s&per_page=100", p.issuesURL(), url.QueryEscape(p.cfg.IssueLabel))
	var out []issue
	if err := p.http.DoJSON(ctx, http.MethodGet, u, p.headers(), nil, &out); err != nil {
		return nil, fmt.Errorf("list open issues: %w", err)
	}
	return out, nil
}

func (p *GitHubPublisher) createComment(ctx context.Context, number int, body string) error {
	u := fmt.Sprintf("%s/%d/comments", p.issuesURL(), number)
	if err := p.http.DoJSON(ctx, http.MethodPost, u, p.headers(), map[string]string{"body": body}, nil); err != nil {
		return fmt.Errorf("comment on issue %d: %w", number, err)
	}
	return nil
}

// closePriorDays closes open monitor issues from earlier days. Only
// titles of the "<base> (YYYY-MM-DD)" shape are touched.
func (p *GitHubPublisher) closePriorDays(ctx context.Context, todayTitle string, today issue) error {
	open, err := p.listOpenIssues(ctx)
	if err != nil {
		return err
	}
	prefix := p.cfg.TitleBase + " ("
	footer := fmt.Sprintf("Next report: #%d (%s)\n\nClosed automatically when the next daily report was created.",
		today.Number, today.HTMLURL)

	for _, it := range open {
		if it.Title == todayTitle {
			continue
		}
		if !strings.HasPrefix(it.Title, prefix) || !strings.HasSuffix(it.Title, ")") {
			continue
		}
		if err := p.createComment(ctx, it.Number, footer); err != nil {
			return err
		}
		u := fmt.Sprintf("%s/%d", p.issuesURL(), it.Number)
		if err := p.http.DoJSON(ctx, http.MethodPatch, u, p.headers(), map[string]string{"state": "closed"}, nil); err != nil {
			return fmt.Errorf("close issue %d: %w", it.Number, err)
		}
	}
	return nil
}
