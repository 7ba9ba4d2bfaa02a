package resolve

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/docketwatch/docketwatch/models"
)

// Entry is one resolution outcome handed to the merger: the case plus the
// document selected for it, if any.
type Entry struct {
	Case     models.ResolvedCase
	Document *models.SelectedDocument
}

// DayLedger accumulates DailyCaseRecords for one reporting day. It is the
// only state shared across a run and has a single owner; merge is
// append-only within the day.
type DayLedger struct {
	Day     string
	records map[string]*models.DailyCaseRecord
}

// NewDayLedger creates an empty ledger for the given calendar day.
func NewDayLedger(day string) *DayLedger {
	return &DayLedger{Day: day, records: make(map[string]*models.DailyCaseRecord)}
}

// LoadDayLedger rebuilds a ledger from previously persisted records.
func LoadDayLedger(day string, records []models.DailyCaseRecord) *DayLedger {
	l := NewDayLedger(day)
	for i := range records {
		rec := records[i]
		l.records[rec.IdentityKey] = &rec
	}
	return l
}

// DayOf formats the calendar day of t in the report time zone.
func DayOf(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02")
}

// IdentityKey derives the merge identity for a resolved case: the
// canonical docket id when resolved, a normalized headline hash otherwise.
func IdentityKey(rc models.ResolvedCase) string {
	if rc.Docket != nil {
		return "docket:" + strconv.FormatInt(rc.Docket.DocketID, 10)
	}
	return "news:" + HeadlineHash(rc.Signal.Title)
}

// HeadlineHash hashes a headline after lowercasing and whitespace
// collapse, so cosmetic edits to the same headline dedupe together.
func HeadlineHash(title string) string {
	norm := strings.Join(strings.Fields(strings.ToLower(title)), " ")
	sum := sha256.Sum256([]byte(norm))
	return hex.EncodeToString(sum[:])[:16]
}

// Merge folds a batch of resolution outcomes into the ledger. Records are
// created on first sighting; later sightings only append unseen documents
// and advance the last-seen stamp, so merging batches in any order yields
// the same accumulated document set per identity key.
func (l *DayLedger) Merge(now time.Time, batch []Entry) {
	for _, e := range batch {
		key := IdentityKey(e.Case)
		rec, ok := l.records[key]
		if !ok {
			rec = &models.DailyCaseRecord{
				IdentityKey: key,
				Day:         l.Day,
				Case:        e.Case,
				FirstSeen:   now,
				LastSeen:    now,
			}
			l.records[key] = rec
		} else {
			if now.After(rec.LastSeen) {
				rec.LastSeen = now
			}
			if len(rec.Case.RunnerUps) == 0 && len(e.Case.RunnerUps) > 0 {
				rec.Case.RunnerUps = e.Case.RunnerUps
				rec.Case.Ambiguous = e.Case.Ambiguous
			}
		}
		if e.Document != nil {
			l.appendDocument(rec, *e.Document)
		}
	}
}

func (l *DayLedger) appendDocument(rec *models.DailyCaseRecord, doc models.SelectedDocument) {
	for _, have := range rec.Documents {
		if have.DedupKey() == doc.DedupKey() {
			return
		}
	}
	rec.Documents = append(rec.Documents, doc)
	sort.SliceStable(rec.Documents, func(i, j int) bool {
		if !rec.Documents[i].FiledAt.Equal(rec.Documents[j].FiledAt) {
			return rec.Documents[i].FiledAt.Before(rec.Documents[j].FiledAt)
		}
		return rec.Documents[i].Type < rec.Documents[j].Type
	})
}

// Reconcile cross-references news-only records with resolved records for
// what is likely the same lawsuit (case-name token overlap >= 0.8). The
// two records stay distinct; the news-only one is marked superseded so the
// renderer can point at the docket instead of double-counting. Among
// several matching dockets the highest overlap wins, identity key breaking
// ties, so reruns land on the same target.
func (l *DayLedger) Reconcile() {
	for _, newsRec := range l.records {
		if newsRec.Case.Resolved() || newsRec.Case.Guess == nil || newsRec.SupersededBy != "" {
			continue
		}
		guessTokens := SignificantTokens(newsRec.Case.Guess.Caption())
		if len(guessTokens) == 0 {
			continue
		}
		bestKey := ""
		bestOverlap := 0.0
		for key, docketRec := range l.records {
			if !docketRec.Case.Resolved() {
				continue
			}
			ov := tokenOverlap(guessTokens, SignificantTokens(docketRec.Case.Docket.CaseName))
			if ov < 0.8 {
				continue
			}
			if ov > bestOverlap || (ov == bestOverlap && key < bestKey) || bestKey == "" {
				bestKey, bestOverlap = key, ov
			}
		}
		if bestKey != "" {
			newsRec.SupersededBy = bestKey
		}
	}
}

// Records returns the ledger contents ordered by first sighting, identity
// key breaking ties, so rendering and persistence are deterministic.
func (l *DayLedger) Records() []models.DailyCaseRecord {
	out := make([]models.DailyCaseRecord, 0, len(l.records))
	for _, rec := range l.records {
		out = append(out, *rec)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].FirstSeen.Equal(out[j].FirstSeen) {
			return out[i].FirstSeen.Before(out[j].FirstSeen)
		}
		return out[i].IdentityKey < out[j].IdentityKey
	})
	return out
}
