package resolve

import (
	"errors"
	"testing"

	"github.com/docketwatch/docketwatch/models"
)

func TestNormalizeDocketNumber(t *testing.T) {
	cases := map[string]string{
		"3:23-cv-00123":    "3:23-CV-00123",
		" 3:23-cv-00123 ":  "3:23-CV-00123",
		"3 :23-cv-00123":   "3:23-CV-00123",
		"3:23-cv.-00123":   "3:23-CV-00123",
		"":                 "",
		"   ":              "",
	}
	for in, want := range cases {
		if got := NormalizeDocketNumber(in); got != want {
			t.Fatalf("NormalizeDocketNumber(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestExtractCaseName(t *testing.T) {
	guess, ok := ExtractCaseName("Bartz et al. v. Anthropic: new claims filed")
	if !ok {
		t.Fatalf("expected a case-name guess")
	}
	if guess.Plaintiff != "Bartz et al" {
		t.Fatalf("unexpected plaintiff: %q", guess.Plaintiff)
	}
	if guess.Defendant != "Anthropic" {
		t.Fatalf("unexpected defendant: %q", guess.Defendant)
	}
	if guess.Caption() != "Bartz et al v. Anthropic" {
		t.Fatalf("unexpected caption: %q", guess.Caption())
	}
}

func TestExtractCaseNameVariants(t *testing.T) {
	for _, title := range []string{
		"The New York Times v. OpenAI heads to discovery",
		"Authors Guild vs. BigAI Corp sued over training data",
		"Smith v BigAI Corporation",
	} {
		if _, ok := ExtractCaseName(title); !ok {
			t.Fatalf("expected guess for %q", title)
		}
	}
}

func TestExtractCaseNameRejectsNoise(t *testing.T) {
	for _, title := range []string{
		"AI companies face new copyright claims",
		"",
		"v. nothing here",
	} {
		if _, ok := ExtractCaseName(title); ok {
			t.Fatalf("expected no guess for %q", title)
		}
	}
}

func TestNormalizeRouting(t *testing.T) {
	num, err := Normalize(models.RawSignal{Kind: models.SignalSearchHit, DocketNumber: "3:23-cv-00123"})
	if err != nil || num.Kind != KeyNumber || num.Number != "3:23-CV-00123" {
		t.Fatalf("expected number key, got %+v (%v)", num, err)
	}

	name, err := Normalize(models.RawSignal{Kind: models.SignalNewsItem, Title: "Bartz et al. v. Anthropic: new claims filed"})
	if err != nil || name.Kind != KeyNameGuess || name.Guess == nil {
		t.Fatalf("expected name-guess key, got %+v (%v)", name, err)
	}

	// no number and no pattern: routed straight to the unresolved path
	none, err := Normalize(models.RawSignal{Kind: models.SignalNewsItem, Title: "AI lawsuit roundup"})
	if none.Kind != KeyUnresolvable || !errors.Is(err, models.ErrUnparsable) {
		t.Fatalf("expected unresolvable key with ErrUnparsable, got %+v (%v)", none, err)
	}

	// a search hit without docket number has no headline to guess from
	hit, err := Normalize(models.RawSignal{Kind: models.SignalSearchHit, Title: "Smith v. BigAI Corp"})
	if hit.Kind != KeyUnresolvable || !errors.Is(err, models.ErrUnparsable) {
		t.Fatalf("expected unresolvable for numberless search hit, got %+v (%v)", hit, err)
	}
}

func TestSignificantTokens(t *testing.T) {
	tokens := SignificantTokens("Bartz et al v. Anthropic")
	if len(tokens) != 2 || tokens[0] != "bartz" || tokens[1] != "anthropic" {
		t.Fatalf("unexpected tokens: %v", tokens)
	}

	tokens = SignificantTokens("Smith v. BigAI Corporation")
	if len(tokens) != 3 {
		t.Fatalf("unexpected tokens: %v", tokens)
	}
}

func TestFindDocketNumber(t *testing.T) {
	text := "The complaint, filed as 3:23-cv-00123 in the Northern District, alleges..."
	if got := FindDocketNumber(text); got != "3:23-CV-00123" {
		t.Fatalf("unexpected docket number: %q", got)
	}
	if got := FindDocketNumber("no number here"); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}
