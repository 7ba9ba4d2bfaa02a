package resolve

import (
	"sort"
	"time"

	"github.com/docketwatch/docketwatch/models"
)

// Scoring weights. An exact docket-number match short-circuits to 1.0 and
// therefore always outranks any overlap-only match.
const (
	weightNameOverlap   = 0.7
	weightDateProximity = 0.3
)

// Ranking is the ordered outcome of scoring one candidate set.
type Ranking struct {
	Best      *models.ScoredCandidate
	RunnerUps []models.ScoredCandidate // up to 3, excludes Best
	Ambiguous bool
}

// ScoreCandidates scores each candidate against the resolution key. The
// result preserves input length; order is unchanged (use Rank to order).
func ScoreCandidates(key ResolutionKey, cands []models.DocketCandidate, now time.Time, lookbackDays int) []models.ScoredCandidate {
	scored := make([]models.ScoredCandidate, 0, len(cands))
	var guessTokens []string
	if key.Kind == KeyNameGuess && key.Guess != nil {
		guessTokens = SignificantTokens(key.Guess.Caption())
	}

	for _, c := range cands {
		sc := models.ScoredCandidate{DocketCandidate: c}
		if key.Kind == KeyNumber && NormalizeDocketNumber(c.DocketNumber) == key.Number {
			sc.Score = 1.0
			sc.Rationale.ExactNumber = true
			scored = append(scored, sc)
			continue
		}

		overlap := 0.0
		if len(guessTokens) > 0 {
			overlap = tokenOverlap(guessTokens, SignificantTokens(c.CaseName))
		}
		prox := dateProximity(c.FiledAt, now, lookbackDays)

		sc.Rationale.NameOverlap = overlap
		sc.Rationale.DateProximity = prox
		sc.Score = clamp01(weightNameOverlap*overlap + weightDateProximity*prox)
		scored = append(scored, sc)
	}
	return scored
}

// Rank orders candidates by score descending, ties broken by more recent
// filing date, then by docket id so reruns on the same input are
// byte-identical. The top three besides the best are retained as
// runner-ups; the ambiguity flag is set when the top two scores sit
// within delta of each other.
func Rank(scored []models.ScoredCandidate, delta float64) Ranking {
	if len(scored) == 0 {
		return Ranking{}
	}
	ordered := make([]models.ScoredCandidate, len(scored))
	copy(ordered, scored)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Score != ordered[j].Score {
			return ordered[i].Score > ordered[j].Score
		}
		if !ordered[i].FiledAt.Equal(ordered[j].FiledAt) {
			return ordered[i].FiledAt.After(ordered[j].FiledAt)
		}
		return ordered[i].DocketID < ordered[j].DocketID
	})

	r := Ranking{Best: &ordered[0]}
	if len(ordered) > 1 {
		r.Ambiguous = ordered[0].Score-ordered[1].Score < delta
		n := len(ordered) - 1
		if n > 3 {
			n = 3
		}
		r.RunnerUps = append(r.RunnerUps, ordered[1:1+n]...)
	}
	return r
}

// tokenOverlap is the share of guess tokens present in the candidate's
// recorded case name.
func tokenOverlap(guess, name []string) float64 {
	if len(guess) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(name))
	for _, t := range name {
		set[t] = struct{}{}
	}
	shared := 0
	for _, t := range guess {
		if _, ok := set[t]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(guess))
}

// dateProximity decays linearly from 1 at now to 0 at the edge of the
// lookback window; zero outside the window or when the date is unknown.
func dateProximity(filed, now time.Time, lookbackDays int) float64 {
	if filed.IsZero() || lookbackDays <= 0 {
		return 0
	}
	window := time.Duration(lookbackDays) * 24 * time.Hour
	age := now.Sub(filed)
	if age < 0 || age > window {
		return 0
	}
	return clamp01(1 - float64(age)/float64(window))
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
