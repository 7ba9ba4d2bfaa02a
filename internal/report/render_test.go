package report

import (
	"strings"
	"testing"
	"time"

	"github.com/docketwatch/docketwatch/config"
	"github.com/docketwatch/docketwatch/models"
)

func day(y, m, d int) time.Time { return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC) }

func resolvedRecord(id int64, name string) models.DailyCaseRecord {
	return models.DailyCaseRecord{
		IdentityKey: "docket:70",
		Day:         "2025-01-03",
		Case: models.ResolvedCase{
			Docket: &models.DocketCandidate{
				DocketID: id, CaseName: name, DocketNumber: "3:24-cv-05417",
				Court: "cand", CourtName: "N.D. Cal.", FiledAt: day(2025, 1, 2), Status: "open",
			},
			Confidence: 1.0,
		},
		Documents: []models.SelectedDocument{
			{Type: "Complaint", FiledAt: day(2025, 1, 2), Snippet: "UNITED STATES DISTRICT COURT",
				Filing: models.Filing{PDFURL: "https://example.com/doc.pdf"}},
		},
	}
}

func TestRenderSections(t *testing.T) {
	r := NewRenderer(config.ReportConfig{})
	newsRec := models.DailyCaseRecord{
		Case: models.ResolvedCase{
			Signal: models.RawSignal{Kind: models.SignalNewsItem, Title: "AI lawsuit rumored", URL: "https://example.com/n", PublishedAt: day(2025, 1, 3)},
		},
	}

	md := r.Render(day(2025, 1, 3), []models.DailyCaseRecord{resolvedRecord(70, "Bartz v. Anthropic"), newsRec}, 3)

	for _, want := range []string{
		"Court dockets confirmed: 1",
		"Court documents retrieved: 1",
		"News-only reports: 1",
		"[Bartz v. Anthropic](https://www.courtlistener.com/docket/70/)",
		"N.D. Cal.",
		"<details><summary>snippet</summary>UNITED STATES DISTRICT COURT</details>",
		"AI lawsuit rumored",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("report missing %q:\n%s", want, md)
		}
	}
}

func TestRenderSkipsSupersededRecords(t *testing.T) {
	r := NewRenderer(config.ReportConfig{})
	superseded := models.DailyCaseRecord{
		SupersededBy: "docket:70",
		Case: models.ResolvedCase{
			Signal: models.RawSignal{Kind: models.SignalNewsItem, Title: "Duplicate coverage"},
		},
	}

	md := r.Render(day(2025, 1, 3), []models.DailyCaseRecord{resolvedRecord(70, "Bartz v. Anthropic"), superseded}, 3)
	if strings.Contains(md, "Duplicate coverage") {
		t.Fatalf("superseded record should not render:\n%s", md)
	}
	if !strings.Contains(md, "News-only reports: 0") {
		t.Fatalf("superseded record counted:\n%s", md)
	}
}

func TestRenderEscapesTableCells(t *testing.T) {
	r := NewRenderer(config.ReportConfig{})
	rec := resolvedRecord(70, "Bartz | Graeber v. Anthropic")

	md := r.Render(day(2025, 1, 3), []models.DailyCaseRecord{rec}, 3)
	if !strings.Contains(md, `Bartz \| Graeber v. Anthropic`) {
		t.Fatalf("pipe not escaped in cell:\n%s", md)
	}
}

func TestRenderRunnerUpColumn(t *testing.T) {
	r := NewRenderer(config.ReportConfig{ShowRunnerUps: true})
	rec := resolvedRecord(70, "Bartz v. Anthropic")
	rec.Case.Ambiguous = true
	rec.Case.RunnerUps = []models.ScoredCandidate{
		{DocketCandidate: models.DocketCandidate{CaseName: "Bartz v. Anthropic PBC"}, Score: 0.95},
	}

	md := r.Render(day(2025, 1, 3), []models.DailyCaseRecord{rec}, 3)
	if !strings.Contains(md, "Runner-ups (top 3)") {
		t.Fatalf("runner-up column missing:\n%s", md)
	}
	if !strings.Contains(md, "Bartz v. Anthropic PBC (0.95)") {
		t.Fatalf("runner-up cell missing:\n%s", md)
	}
	if !strings.Contains(md, "1.00 (ambiguous)") {
		t.Fatalf("ambiguity marker missing:\n%s", md)
	}
}
