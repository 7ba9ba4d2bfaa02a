package resolve

import (
	"regexp"
	"strings"

	"github.com/docketwatch/docketwatch/models"
)

// KeyKind tags the resolution path a signal takes.
type KeyKind string

const (
	KeyNumber       KeyKind = "number"
	KeyNameGuess    KeyKind = "name_guess"
	KeyUnresolvable KeyKind = "unresolvable"
)

// ResolutionKey is the canonical search key derived from one signal.
// Number and name-guess keys drive different index query paths but share
// the same scoring contract; unresolvable signals skip lookup entirely.
type ResolutionKey struct {
	Kind   KeyKind
	Number string
	Guess  *models.CaseNameGuess
}

var caseNamePattern = regexp.MustCompile(
	`([A-Z][A-Za-z0-9 ,.&'\-]{2,}?)\s+v\.?s?\.?\s+([A-Z][A-Za-z0-9 ,.&'\-]{2,})`,
)

var docketNumberPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b\d{1,2}:\d{2}-[A-Za-z]{2}-\d{4,6}\b`),
	regexp.MustCompile(`\b\d{4}-[A-Za-z]{2}-\d{4,6}\b`),
}

// trailing " - Some Outlet" style suffixes on headlines
var headlineSuffix = regexp.MustCompile(`\s+[-|–—]\s+[^-–—|]{2,}$`)

var whitespace = regexp.MustCompile(`\s+`)

// Normalize builds the canonical key for a raw signal. Signals carrying a
// docket number resolve by number; news items without one fall back to a
// case-name guess; everything else gets an unresolvable key alongside
// ErrUnparsable, and no lookup is attempted.
func Normalize(sig models.RawSignal) (ResolutionKey, error) {
	if n := NormalizeDocketNumber(sig.DocketNumber); n != "" {
		return ResolutionKey{Kind: KeyNumber, Number: n}, nil
	}
	if sig.Kind == models.SignalNewsItem {
		if guess, ok := ExtractCaseName(sig.Title); ok {
			g := guess
			return ResolutionKey{Kind: KeyNameGuess, Guess: &g}, nil
		}
	}
	return ResolutionKey{Kind: KeyUnresolvable}, models.ErrUnparsable
}

// NormalizeDocketNumber canonicalizes a docket number: whitespace and
// period variants stripped, uppercased. Empty input stays empty.
func NormalizeDocketNumber(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	var b strings.Builder
	for _, r := range s {
		switch r {
		case ' ', '\t', '.', ' ':
			continue
		}
		b.WriteRune(r)
	}
	return strings.ToUpper(b.String())
}

// ExtractCaseName pattern-matches an "A v. B" shaped substring in a
// headline, permitting "et al." and multi-word party names. Returns false
// when no plausible pattern is present.
func ExtractCaseName(headline string) (models.CaseNameGuess, bool) {
	t := strings.TrimSpace(headline)
	if t == "" {
		return models.CaseNameGuess{}, false
	}
	t = headlineSuffix.ReplaceAllString(t, "")

	m := caseNamePattern.FindStringSubmatch(t)
	if m == nil {
		return models.CaseNameGuess{}, false
	}
	plaintiff := cleanParty(m[1])
	defendant := cleanParty(m[2])
	if len(plaintiff) < 3 || len(defendant) < 3 || len(plaintiff) > 80 || len(defendant) > 80 {
		return models.CaseNameGuess{}, false
	}
	return models.CaseNameGuess{Plaintiff: plaintiff, Defendant: defendant, Headline: headline}, true
}

// cleanParty strips possessive and trailing punctuation and collapses
// whitespace in a party name.
func cleanParty(s string) string {
	s = whitespace.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	s = strings.Trim(s, " ,.;:-")
	s = strings.TrimSuffix(s, "'s")
	s = strings.TrimSuffix(s, "'")
	return strings.TrimSpace(s)
}

// FindDocketNumber scans free text for the first docket-number shaped
// substring, normalized. Empty when none is found.
func FindDocketNumber(text string) string {
	for _, pat := range docketNumberPatterns {
		if m := pat.FindString(text); m != "" {
			return NormalizeDocketNumber(m)
		}
	}
	return ""
}

// ExtractCaseNameFromText picks the best "A v. B" candidate out of body
// text. Article bodies name the case far more reliably than headlines, so
// candidates are scored by length and legal-context keywords and the best
// one wins.
func ExtractCaseNameFromText(text string) (models.CaseNameGuess, bool) {
	if len(text) > 20000 {
		text = text[:20000]
	}
	matches := caseNamePattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return models.CaseNameGuess{}, false
	}

	var best models.CaseNameGuess
	bestScore := -1.0
	for _, m := range matches {
		p := cleanParty(m[1])
		d := cleanParty(m[2])
		if len(p) < 3 || len(d) < 3 || len(p) > 80 || len(d) > 80 {
			continue
		}
		g := models.CaseNameGuess{Plaintiff: p, Defendant: d}
		if s := captionScore(g.Caption()); s > bestScore {
			best, bestScore = g, s
		}
	}
	if bestScore < 0 {
		return models.CaseNameGuess{}, false
	}
	return best, true
}

func captionScore(caption string) float64 {
	lower := strings.ToLower(caption)
	bonus := 0.0
	for _, kw := range []string{"et al", "inc", "llc", "ltd", "pbc", "corp", "company"} {
		if strings.Contains(lower, kw) {
			bonus += 0.2
		}
	}
	base := float64(len(caption)) / 40.0
	if base > 2.0 {
		base = 2.0
	}
	return base + bonus
}

// significant tokens exclude case-caption connectives and entity suffixes
// that would inflate overlap between unrelated cases.
var stopTokens = map[string]struct{}{
	"v": {}, "vs": {}, "et": {}, "al": {}, "inc": {}, "llc": {},
	"corp": {}, "co": {}, "the": {}, "of": {}, "and": {},
}

var tokenSplit = regexp.MustCompile(`[^a-z0-9]+`)

// SignificantTokens lowercases a case name and drops stop words, returning
// the party-name words used for overlap scoring.
func SignificantTokens(s string) []string {
	parts := tokenSplit.Split(strings.ToLower(s), -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		if _, stop := stopTokens[p]; stop {
			continue
		}
		out = append(out, p)
	}
	return out
}
