package monitor

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/docketwatch/docketwatch/config"
	"github.com/docketwatch/docketwatch/internal/report"
	"github.com/docketwatch/docketwatch/internal/resolve"
	"github.com/docketwatch/docketwatch/internal/store"
	"github.com/docketwatch/docketwatch/internal/telemetry"
	"github.com/docketwatch/docketwatch/models"
)

// Source feeds external signals into a run.
type Source interface {
	Fetch(ctx context.Context, lookbackDays int) ([]models.RawSignal, error)
}

// Storage is the persistence surface a run needs.
type Storage interface {
	CreateRun(ctx context.Context, day string) (string, error)
	FinishRun(ctx context.Context, runID, status string, errMsg *string, signals, resolved int) error
	UpsertDailyRecord(ctx context.Context, rec models.DailyCaseRecord) error
	ListDayRecords(ctx context.Context, day string) ([]models.DailyCaseRecord, error)
}

// NopStorage satisfies Storage without persisting anything. One-shot
// runs without a database use it; cross-run merging then only sees what
// the current run produced.
type NopStorage struct{}

func (NopStorage) CreateRun(ctx context.Context, day string) (string, error) { return "", nil }
func (NopStorage) FinishRun(ctx context.Context, runID, status string, errMsg *string, signals, resolved int) error {
	return nil
}
func (NopStorage) UpsertDailyRecord(ctx context.Context, rec models.DailyCaseRecord) error {
	return nil
}
func (NopStorage) ListDayRecords(ctx context.Context, day string) ([]models.DailyCaseRecord, error) {
	return nil, nil
}

// Publisher lands the rendered report somewhere visible.
type Publisher interface {
	Enabled() bool
	Publish(ctx context.Context, day, body string) (int, error)
}

// Notifier sends the short run summary.
type Notifier interface {
	Enabled() bool
	Notify(ctx context.Context, text string) error
}

// Monitor drives one collection cycle: gather signals from the legal
// index and the news feed, resolve them, merge into the day's ledger,
// persist, render and publish. A collaborator outage degrades that
// collaborator's contribution; the cycle itself always completes with
// whatever the day has accumulated so far.
type Monitor struct {
	cfg      config.Config
	resolver *resolve.Resolver
	index    resolve.Index
	feed     Source
	store    Storage
	renderer *report.Renderer
	github   Publisher
	slack    Notifier
	metrics  *telemetry.Metrics
	logger   *log.Logger
	loc      *time.Location
	nowFn    func() time.Time
}

func New(cfg config.Config, index resolve.Index, feed Source, st Storage, github Publisher, slack Notifier, metrics *telemetry.Metrics) (*Monitor, error) {
	loc, err := time.LoadLocation(cfg.Report.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("report.time_zone %q: %w", cfg.Report.TimeZone, err)
	}
	return &Monitor{
		cfg:      cfg,
		resolver: resolve.NewResolver(index, cfg.Resolution, metrics),
		index:    index,
		feed:     feed,
		store:    st,
		renderer: report.NewRenderer(cfg.Report),
		github:   github,
		slack:    slack,
		metrics:  metrics,
		logger:   log.New(log.Writer(), "[MONITOR] ", log.LstdFlags),
		loc:      loc,
		nowFn:    time.Now,
	}, nil
}

// RunOnce executes a single collection cycle and returns the day's
// rendered report.
func (m *Monitor) RunOnce(ctx context.Context) (string, error) {
	started := m.nowFn()
	now := started.In(m.loc)
	day := resolve.DayOf(now, m.loc)
	m.logger.Printf("run started for day %s", day)

	runID, err := m.store.CreateRun(ctx, day)
	if err != nil {
		// run bookkeeping is best effort
		m.logger.Printf("create run: %v", err)
		runID = ""
	}

	signals := m.gatherSignals(ctx)
	entries := m.resolver.ResolveBatch(ctx, signals)

	existing, err := m.store.ListDayRecords(ctx, day)
	if err != nil {
		m.logger.Printf("load day records: %v", err)
		existing = nil
	}
	ledger := resolve.LoadDayLedger(day, existing)
	ledger.Merge(now, entries)
	ledger.Reconcile()

	records := ledger.Records()
	resolvedCount := 0
	for _, rec := range records {
		if rec.Case.Resolved() {
			resolvedCount++
		}
		if err := m.store.UpsertDailyRecord(ctx, rec); err != nil {
			m.logger.Printf("persist record %s: %v", rec.IdentityKey, err)
		}
	}

	body := m.renderer.Render(now, records, m.cfg.Resolution.LookbackDays)
	issueNumber := m.publish(ctx, day, body, records)

	m.finishRun(ctx, runID, len(signals), resolvedCount)
	if m.metrics != nil {
		m.metrics.RunDuration.Observe(time.Since(started).Seconds())
	}
	m.logger.Printf("run finished: %d signals, %d records, issue #%d", len(signals), len(records), issueNumber)
	return body, nil
}

// gatherSignals collects search hits and news items, deduplicated.
// A source that is down contributes nothing this run.
func (m *Monitor) gatherSignals(ctx context.Context) []models.RawSignal {
	var all []models.RawSignal

	for _, q := range m.cfg.Resolution.Queries {
		cands, err := m.index.SearchDockets(ctx, q)
		if err != nil {
			m.logger.Printf("search query %q: %v", q, err)
			continue
		}
		for _, c := range cands {
			all = append(all, models.RawSignal{
				Kind:         models.SignalSearchHit,
				IndexID:      c.DocketID,
				DocketNumber: c.DocketNumber,
				Title:        c.CaseName,
				FiledAt:      c.FiledAt,
			})
		}
	}

	news, err := m.feed.Fetch(ctx, m.cfg.Resolution.LookbackDays)
	if err != nil {
		m.logger.Printf("news feed: %v", err)
	}
	all = append(all, news...)

	seen := make(map[string]bool)
	out := all[:0]
	for _, sig := range all {
		key := fmt.Sprintf("%s|%d|%s|%s|%s", sig.Kind, sig.IndexID, sig.DocketNumber, sig.Title, sig.URL)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, sig)
	}
	return out
}

func (m *Monitor) publish(ctx context.Context, day, body string, records []models.DailyCaseRecord) int {
	issueNumber := 0
	if m.github != nil && m.github.Enabled() {
		num, err := m.github.Publish(ctx, day, body)
		if err != nil {
			m.logger.Printf("github publish: %v", err)
		} else {
			issueNumber = num
		}
	}

	if m.slack != nil && m.slack.Enabled() {
		dockets, documents, newsOnly := 0, 0, 0
		for _, rec := range records {
			if rec.SupersededBy != "" {
				continue
			}
			documents += len(rec.Documents)
			if rec.Case.Resolved() {
				dockets++
			} else {
				newsOnly++
			}
		}
		if err := m.slack.Notify(ctx, report.Summary(day, dockets, documents, newsOnly, issueNumber)); err != nil {
			m.logger.Printf("slack notify: %v", err)
		}
	}
	return issueNumber
}

func (m *Monitor) finishRun(ctx context.Context, runID string, signals, resolved int) {
	if runID == "" {
		return
	}
	if err := m.store.FinishRun(ctx, runID, store.RunStatusSucceeded, nil, signals, resolved); err != nil {
		m.logger.Printf("finish run %s: %v", runID, err)
	}
}
