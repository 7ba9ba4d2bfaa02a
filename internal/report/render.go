package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/docketwatch/docketwatch/config"
	"github.com/docketwatch/docketwatch/models"
)

// Renderer turns a day's accumulated case records into the GitHub
// markdown report body.
type Renderer struct {
	cfg config.ReportConfig
}

func NewRenderer(cfg config.ReportConfig) *Renderer {
	return &Renderer{cfg: cfg.Normalize()}
}

// Render produces the report for one day. Records arrive in first-seen
// order; tables re-sort by filing date so the freshest cases lead.
func (r *Renderer) Render(runAt time.Time, records []models.DailyCaseRecord, lookbackDays int) string {
	var resolved, newsOnly []models.DailyCaseRecord
	var docCount int
	for _, rec := range records {
		if rec.SupersededBy != "" {
			continue
		}
		docCount += len(rec.Documents)
		if rec.Case.Resolved() {
			resolved = append(resolved, rec)
		} else {
			newsOnly = append(newsOnly, rec)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "### Run time (%s): %s\n\n", r.cfg.TimeZone, runAt.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "## Last %d days: lawsuits over unauthorized AI training data\n\n", lookbackDays)
	fmt.Fprintf(&b, "- Court dockets confirmed: %d\n", len(resolved))
	fmt.Fprintf(&b, "- Court documents retrieved: %d\n", docCount)
	fmt.Fprintf(&b, "- News-only reports: %d\n\n", len(newsOnly))

	r.renderCases(&b, resolved)
	b.WriteString("\n---\n\n")
	r.renderDocuments(&b, resolved)
	b.WriteString("\n---\n\n")
	r.renderNewsOnly(&b, newsOnly)
	return b.String()
}

func (r *Renderer) renderCases(b *strings.Builder, records []models.DailyCaseRecord) {
	if len(records) == 0 {
		b.WriteString("No court dockets confirmed in this window.\n")
		return
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Case.Docket.FiledAt.After(records[j].Case.Docket.FiledAt)
	})
	if len(records) > r.cfg.MaxTableRows {
		records = records[:r.cfg.MaxTableRows]
	}

	b.WriteString("### Confirmed dockets\n")
	cols := []string{"Filed", "Status", "Case", "Docket #", "Court", "Judge", "Magistrate", "Nature of Suit", "Cause", "Parties", "Confidence"}
	if r.cfg.ShowRunnerUps {
		cols = append(cols, "Runner-ups (top 3)")
	}
	b.WriteString("| " + strings.Join(cols, " | ") + " |\n")
	b.WriteString(mdSep(len(cols)) + "\n")

	for _, rec := range records {
		d := rec.Case.Docket
		confidence := fmt.Sprintf("%.2f", rec.Case.Confidence)
		if rec.Case.Ambiguous {
			confidence += " (ambiguous)"
		}
		cells := []string{
			filedCell(d.FiledAt),
			esc(d.Status),
			mdlink(d.CaseName, fmt.Sprintf("https://www.courtlistener.com/docket/%d/", d.DocketID)),
			esc(d.DocketNumber),
			esc(courtCell(d)),
			esc(d.Judge),
			esc(d.Magistrate),
			esc(d.NatureOfSuit),
			esc(d.Cause),
			esc(strings.Join(d.Parties, "; ")),
			confidence,
		}
		if r.cfg.ShowRunnerUps {
			cells = append(cells, runnerUpCell(rec.Case.RunnerUps))
		}
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
}

func (r *Renderer) renderDocuments(b *strings.Builder, records []models.DailyCaseRecord) {
	var rows []struct {
		rec models.DailyCaseRecord
		doc models.SelectedDocument
	}
	for _, rec := range records {
		for _, doc := range rec.Documents {
			rows = append(rows, struct {
				rec models.DailyCaseRecord
				doc models.SelectedDocument
			}{rec, doc})
		}
	}
	if len(rows) == 0 {
		b.WriteString("No court documents retrieved in this window.\n")
		return
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].doc.FiledAt.After(rows[j].doc.FiledAt)
	})
	if len(rows) > r.cfg.MaxTableRows {
		rows = rows[:r.cfg.MaxTableRows]
	}

	b.WriteString("### Retrieved documents\n")
	b.WriteString("| Filed | Case | Docket # | Type | Document | Opening text |\n")
	b.WriteString(mdSep(6) + "\n")
	for _, row := range rows {
		d := row.rec.Case.Docket
		docType := row.doc.Type
		if row.doc.Fallback {
			docType += " (fallback)"
		}
		link := row.doc.Filing.PDFURL
		if link == "" {
			link = row.doc.Filing.DocumentURL
		}
		b.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | %s |\n",
			filedCell(row.doc.FiledAt),
			esc(d.CaseName),
			esc(d.DocketNumber),
			esc(docType),
			mdlink("Document", link),
			details("snippet", row.doc.Snippet),
		))
	}
}

func (r *Renderer) renderNewsOnly(b *strings.Builder, records []models.DailyCaseRecord) {
	if len(records) == 0 {
		b.WriteString("No news-only reports in this window.\n")
		return
	}
	b.WriteString("### News coverage without a confirmed docket\n")
	b.WriteString("| Published | Headline | Guessed case | Link |\n")
	b.WriteString(mdSep(4) + "\n")
	for _, rec := range records {
		sig := rec.Case.Signal
		guess := ""
		if rec.Case.Guess != nil {
			guess = rec.Case.Guess.Caption()
		}
		b.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
			filedCell(sig.PublishedAt),
			esc(sig.Title),
			esc(guess),
			mdlink("Article", sig.URL),
		))
	}
}

func runnerUpCell(ups []models.ScoredCandidate) string {
	if len(ups) == 0 {
		return ""
	}
	parts := make([]string, 0, len(ups))
	for _, u := range ups {
		parts = append(parts, fmt.Sprintf("%s (%.2f)", u.CaseName, u.Score))
	}
	return esc(strings.Join(parts, "; "))
}

func courtCell(d *models.DocketCandidate) string {
	if d.CourtName != "" {
		return d.CourtName
	}
	return d.Court
}

func filedCell(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

// esc escapes a value for a GitHub markdown table cell: a literal '|'
// breaks the column layout and a newline breaks the row.
func esc(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "\n", "<br>")
	return strings.TrimSpace(s)
}

// mdSep builds a separator row; GitHub needs at least three hyphens per
// column or the table silently fails to render.
func mdSep(cols int) string {
	return "|" + strings.Repeat("---|", cols)
}

func mdlink(label, url string) string {
	label = esc(label)
	url = strings.TrimSpace(url)
	if url == "" {
		return label
	}
	return fmt.Sprintf("[%s](%s)", label, url)
}

// details renders a one-line collapsible block, safe inside table cells.
func details(summary, body string) string {
	body = esc(body)
	if body == "" {
		return ""
	}
	return fmt.Sprintf("<details><summary>%s</summary>%s</details>", esc(summary), body)
}
