package models

import (
	"errors"
	"time"
)

// ErrTransient marks a retryable network or rate-limit failure. Components
// retry a bounded number of times and then degrade to an empty result.
var ErrTransient = errors.New("transient retrieval error")

// ErrNotFound is the expected steady-state outcome when the index has no
// matching record. It is a valid terminal state, not a failure.
var ErrNotFound = errors.New("not found")

// ErrUnparsable is returned when a signal carries neither a docket number
// nor a recognizable case-name pattern.
var ErrUnparsable = errors.New("unparsable signal")

// ErrExtraction marks an unreachable or unreadable document binary.
// The snippet is simply omitted.
var ErrExtraction = errors.New("extraction failure")

type SignalKind string

const (
	SignalSearchHit SignalKind = "search_hit"
	SignalNewsItem  SignalKind = "news_item"
)

// RawSignal is one input to resolution: either a hit from the legal-records
// index or a news item. Immutable once ingested.
type RawSignal struct {
	Kind         SignalKind `json:"kind"`
	IndexID      int64      `json:"index_id,omitempty"` // legal-records identifier, search hits only
	DocketNumber string     `json:"docket_number,omitempty"`
	Title        string     `json:"title"`
	URL          string     `json:"url,omitempty"`
	PublishedAt  time.Time  `json:"published_at,omitempty"`
	FiledAt      time.Time  `json:"filed_at,omitempty"`
}

// CaseNameGuess is an "A v. B" shaped extraction from a headline.
type CaseNameGuess struct {
	Plaintiff string `json:"plaintiff"`
	Defendant string `json:"defendant"`
	Headline  string `json:"headline"`
}

// Caption renders the guess back to canonical "A v. B" form.
func (g CaseNameGuess) Caption() string {
	return g.Plaintiff + " v. " + g.Defendant
}

// Filing is one attached document on a docket.
type Filing struct {
	EntryID     int64     `json:"entry_id"`
	Type        string    `json:"type"`
	DocNumber   string    `json:"doc_number,omitempty"`
	Description string    `json:"description,omitempty"`
	FiledAt     time.Time `json:"filed_at"`
	DocumentURL string    `json:"document_url,omitempty"`
	PDFURL      string    `json:"pdf_url,omitempty"` // binary-retrievable reference, may be empty
}

// DocketCandidate is a provisional match from the index. Never mutated
// after scoring, only ranked.
type DocketCandidate struct {
	DocketID     int64     `json:"docket_id"`
	CaseName     string    `json:"case_name"`
	DocketNumber string    `json:"docket_number"`
	Court        string    `json:"court"`
	CourtName    string    `json:"court_name,omitempty"`
	FiledAt      time.Time `json:"filed_at"`
	Status       string    `json:"status,omitempty"`
	Judge        string    `json:"judge,omitempty"`
	Magistrate   string    `json:"magistrate,omitempty"`
	NatureOfSuit string    `json:"nature_of_suit,omitempty"`
	Cause        string    `json:"cause,omitempty"`
	Parties      []string  `json:"parties,omitempty"`
	Filings      []Filing  `json:"filings,omitempty"` // lazily populated
}

// ScoreRationale records which signals contributed to a candidate's score.
type ScoreRationale struct {
	ExactNumber   bool    `json:"exact_number"`
	NameOverlap   float64 `json:"name_overlap"`
	DateProximity float64 `json:"date_proximity"`
}

// ScoredCandidate pairs a candidate with its match score in [0,1].
type ScoredCandidate struct {
	DocketCandidate
	Score     float64        `json:"score"`
	Rationale ScoreRationale `json:"rationale"`
}

// ResolvedCase is the accepted outcome of resolution for one signal:
// either a docket with confidence, or an explicit unresolved marker that
// keeps the signal on the news-only path.
type ResolvedCase struct {
	Signal     RawSignal         `json:"signal"`
	Docket     *DocketCandidate  `json:"docket,omitempty"`
	Confidence float64           `json:"confidence"`
	Ambiguous  bool              `json:"ambiguous"`
	RunnerUps  []ScoredCandidate `json:"runner_ups,omitempty"` // up to 3, retained for display
	Guess      *CaseNameGuess    `json:"guess,omitempty"`
}

// Resolved reports whether the case was matched to a docket.
func (r ResolvedCase) Resolved() bool { return r.Docket != nil }

// SelectedDocument is the filing chosen to represent a resolved case.
type SelectedDocument struct {
	Type     string    `json:"type"`
	FiledAt  time.Time `json:"filed_at"`
	Fallback bool      `json:"fallback"` // chosen via the secondary priority list
	Snippet  string    `json:"snippet,omitempty"`
	Filing   Filing    `json:"filing"`
}

// DedupKey identifies a document within a daily record: type + filing date.
func (d SelectedDocument) DedupKey() string {
	return d.Type + "|" + d.FiledAt.Format("2006-01-02")
}

// DailyCaseRecord accumulates sightings of one case across a day's runs.
// Owned exclusively by the cross-run merger: created on first sighting,
// updated in place afterwards, never deleted within the day.
type DailyCaseRecord struct {
	IdentityKey  string             `json:"identity_key"` // docket id when resolved, headline hash otherwise
	Day          string             `json:"day"`          // calendar day in the report time zone
	Case         ResolvedCase       `json:"case"`
	Documents    []SelectedDocument `json:"documents,omitempty"`
	FirstSeen    time.Time          `json:"first_seen"`
	LastSeen     time.Time          `json:"last_seen"`
	SupersededBy string             `json:"superseded_by,omitempty"` // identity key of a resolved record covering the same case
}
