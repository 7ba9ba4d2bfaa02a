package resolve

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/docketwatch/docketwatch/config"
	"github.com/docketwatch/docketwatch/internal/telemetry"
	"github.com/docketwatch/docketwatch/models"
)

// Index is the legal-records collaborator surface the engine consumes.
type Index interface {
	// SearchDockets runs a keyword search over recent docket filings.
	SearchDockets(ctx context.Context, query string) ([]models.DocketCandidate, error)
	// DocketsByNumber looks up dockets by their court-assigned number.
	DocketsByNumber(ctx context.Context, number string) ([]models.DocketCandidate, error)
	// HydrateDocket fills in full docket metadata for an accepted match.
	HydrateDocket(ctx context.Context, docketID int64) (models.DocketCandidate, error)
	// DocketFilings lists the attached filings of a docket.
	DocketFilings(ctx context.Context, docketID int64) ([]models.Filing, error)

	BinaryFetcher
}

// Resolver runs the per-signal pipeline: normalize, retrieve candidates,
// score and rank, select a document, extract a snippet. Signals are
// processed one at a time; a failure on one signal degrades that signal's
// outcome and never aborts the batch.
type Resolver struct {
	index   Index
	cfg     config.ResolutionConfig
	logger  *log.Logger
	metrics *telemetry.Metrics
	nowFn   func() time.Time
}

// NewResolver wires a resolver over the legal-records index.
func NewResolver(index Index, cfg config.ResolutionConfig, metrics *telemetry.Metrics) *Resolver {
	return &Resolver{
		index:   index,
		cfg:     cfg.Normalize(),
		logger:  log.New(log.Writer(), "[RESOLVE] ", log.LstdFlags),
		metrics: metrics,
		nowFn:   time.Now,
	}
}

// Resolve runs the full pipeline for one signal.
func (r *Resolver) Resolve(ctx context.Context, sig models.RawSignal) Entry {
	now := r.nowFn()
	rc := models.ResolvedCase{Signal: sig}

	key, kerr := Normalize(sig)
	if key.Guess != nil {
		rc.Guess = key.Guess
	}
	if kerr != nil {
		// deliberate policy: no lookup for unparsable signals
		r.logger.Printf("skip %q: %v", sig.Title, kerr)
		r.count("unresolved")
		return Entry{Case: rc}
	}

	cands := r.retrieve(ctx, key, now)
	if len(cands) == 0 {
		r.count("unresolved")
		return Entry{Case: rc}
	}

	scored := ScoreCandidates(key, cands, now, r.cfg.LookbackDays)
	ranking := Rank(scored, r.cfg.AmbiguityDelta)

	best := ranking.Best
	docket := best.DocketCandidate
	if full, err := r.index.HydrateDocket(ctx, docket.DocketID); err == nil {
		full.Filings = docket.Filings
		docket = full
	}
	rc.Docket = &docket
	rc.Confidence = best.Score
	rc.Ambiguous = ranking.Ambiguous
	if r.cfg.RetainRunnerUps {
		rc.RunnerUps = ranking.RunnerUps
	}
	if ranking.Ambiguous {
		r.count("ambiguous")
	} else {
		r.count("resolved")
	}

	doc := r.selectDocument(ctx, rc.Docket)
	return Entry{Case: rc, Document: doc}
}

// ResolveBatch resolves a slice of signals independently.
func (r *Resolver) ResolveBatch(ctx context.Context, sigs []models.RawSignal) []Entry {
	out := make([]Entry, 0, len(sigs))
	for _, sig := range sigs {
		if r.metrics != nil {
			r.metrics.SignalsTotal.WithLabelValues(string(sig.Kind)).Inc()
		}
		out = append(out, r.Resolve(ctx, sig))
	}
	return out
}

// retrieve queries the index for the key's path and filters to the
// lookback window. Retrieval failure degrades to an empty candidate set.
func (r *Resolver) retrieve(ctx context.Context, key ResolutionKey, now time.Time) []models.DocketCandidate {
	var (
		cands []models.DocketCandidate
		err   error
	)
	switch key.Kind {
	case KeyNumber:
		cands, err = r.index.DocketsByNumber(ctx, key.Number)
	case KeyNameGuess:
		cands, err = r.index.SearchDockets(ctx, key.Guess.Caption())
	default:
		return nil
	}
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			// valid terminal state for a signal
		case errors.Is(err, models.ErrTransient):
			r.logger.Printf("index unavailable for key %v: %v", key.Kind, err)
			r.countIndexError("transient")
		default:
			r.logger.Printf("index error for key %v: %v", key.Kind, err)
			r.countIndexError("other")
		}
		return nil
	}

	cutoff := now.AddDate(0, 0, -r.cfg.LookbackDays)
	kept := cands[:0]
	for _, c := range cands {
		// candidates with no recorded date are kept; the scorer gives
		// them no proximity bonus
		if !c.FiledAt.IsZero() && c.FiledAt.Before(cutoff) && key.Kind != KeyNumber {
			continue
		}
		kept = append(kept, c)
	}
	return kept
}

// selectDocument lists the docket's filings, applies the priority policy
// and attaches a snippet when the binary is reachable.
func (r *Resolver) selectDocument(ctx context.Context, docket *models.DocketCandidate) *models.SelectedDocument {
	filings := docket.Filings
	if len(filings) == 0 {
		var err error
		filings, err = r.index.DocketFilings(ctx, docket.DocketID)
		if err != nil {
			if !errors.Is(err, models.ErrNotFound) {
				r.logger.Printf("filings for docket %d: %v", docket.DocketID, err)
				r.countIndexError("filings")
			}
			return nil
		}
		docket.Filings = filings
	}

	doc, ok := SelectDocument(filings)
	if !ok {
		return nil
	}
	if r.metrics != nil {
		tier := "primary"
		if doc.Fallback {
			tier = "fallback"
		}
		r.metrics.DocumentsSelected.WithLabelValues(tier).Inc()
	}

	extractor := &SnippetExtractor{
		Fetcher:    r.index,
		MaxChars:   r.cfg.SnippetMaxChars,
		PageBudget: r.cfg.SnippetPages,
		MaxBytes:   r.cfg.SnippetMaxBytes,
	}
	snippet, err := extractor.Extract(ctx, doc.Filing)
	if err != nil {
		// degraded-quality outcome, not an error
		if r.metrics != nil {
			r.metrics.SnippetFailures.Inc()
		}
	} else {
		doc.Snippet = snippet
	}
	return &doc
}

func (r *Resolver) count(outcome string) {
	if r.metrics != nil {
		r.metrics.ResolutionsTotal.WithLabelValues(outcome).Inc()
	}
}

func (r *Resolver) countIndexError(class string) {
	if r.metrics != nil {
		r.metrics.IndexErrors.WithLabelValues(class).Inc()
	}
}
