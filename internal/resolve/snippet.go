package resolve

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/docketwatch/docketwatch/models"
)

// BinaryFetcher retrieves a document binary, bounded in size and time.
type BinaryFetcher interface {
	FetchBinary(ctx context.Context, url string, maxBytes int64) ([]byte, error)
}

// SnippetExtractor pulls a bounded text prefix out of a selected
// document's PDF. Every failure mode degrades to an absent snippet; the
// pipeline treats that as reduced quality, never as an error.
type SnippetExtractor struct {
	Fetcher    BinaryFetcher
	MaxChars   int
	PageBudget int
	MaxBytes   int64

	readPages func(raw []byte, budget int) ([]string, error)
}

// Extract fetches the filing's binary and returns up to MaxChars of text
// from the leading pages, starting at the first non-empty page block.
func (e *SnippetExtractor) Extract(ctx context.Context, f models.Filing) (string, error) {
	if f.PDFURL == "" {
		return "", fmt.Errorf("no binary reference: %w", models.ErrExtraction)
	}
	raw, ferr := e.Fetcher.FetchBinary(ctx, f.PDFURL, e.MaxBytes)
	if ferr != nil {
		return "", fmt.Errorf("fetch %s: %w", f.PDFURL, models.ErrExtraction)
	}

	read := e.readPages
	if read == nil {
		read = pdfPageTexts
	}
	texts, err := read(raw, e.PageBudget)
	if err != nil {
		return "", err
	}
	if e.PageBudget > 0 && len(texts) > e.PageBudget {
		texts = texts[:e.PageBudget]
	}

	var b strings.Builder
	for _, text := range texts {
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(text)
		if e.MaxChars > 0 && b.Len() >= e.MaxChars {
			break
		}
	}

	out := collapseSpace(b.String())
	if out == "" {
		return "", fmt.Errorf("empty text: %w", models.ErrExtraction)
	}
	return truncateAtRune(out, e.MaxChars), nil
}

// pdfPageTexts extracts plain text for the leading pages of a PDF, one
// string per readable page, stopping at the page budget.
func pdfPageTexts(raw []byte, budget int) (texts []string, err error) {
	// the pdf package panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			texts, err = nil, fmt.Errorf("malformed pdf: %w", models.ErrExtraction)
		}
	}()

	reader, rerr := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if rerr != nil {
		return nil, fmt.Errorf("open pdf: %w", models.ErrExtraction)
	}

	pages := reader.NumPage()
	if budget > 0 && pages > budget {
		pages = budget
	}
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, terr := page.GetPlainText(nil)
		if terr != nil {
			continue
		}
		texts = append(texts, text)
	}
	return texts, nil
}

// truncateAtRune cuts s to at most max bytes without splitting a
// multi-byte rune; court PDFs carry curly quotes and section signs that a
// blind byte slice would leave half-encoded.
func truncateAtRune(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
