package resolve

import (
	"testing"

	"github.com/docketwatch/docketwatch/models"
)

func TestSelectDocumentPrimaryWinsOverLaterFilings(t *testing.T) {
	filings := []models.Filing{
		{Type: "Motion", FiledAt: day("2024-01-05")},
		{Type: "Order", FiledAt: day("2024-01-06")},
		{Type: "Complaint", FiledAt: day("2024-01-02")},
	}

	doc, ok := SelectDocument(filings)
	if !ok {
		t.Fatalf("expected a selection")
	}
	if doc.Type != "Complaint" {
		t.Fatalf("expected Complaint, got %s", doc.Type)
	}
	if !doc.FiledAt.Equal(day("2024-01-02")) {
		t.Fatalf("unexpected filing date: %v", doc.FiledAt)
	}
	if doc.Fallback {
		t.Fatalf("fallback flag must not be set when the primary list matches")
	}
}

func TestSelectDocumentSecondaryFallback(t *testing.T) {
	filings := []models.Filing{
		{Type: "Motion", FiledAt: day("2024-01-05")},
		{Type: "Order", FiledAt: day("2024-01-06")},
	}

	doc, ok := SelectDocument(filings)
	if !ok {
		t.Fatalf("expected a selection")
	}
	if doc.Type != "Motion" {
		t.Fatalf("expected Motion (first in secondary order), got %s", doc.Type)
	}
	if !doc.Fallback {
		t.Fatalf("expected fallback flag")
	}
}

func TestSelectDocumentListPositionBeatsChronology(t *testing.T) {
	// a Petition filed before a Complaint still loses to the Complaint
	filings := []models.Filing{
		{Type: "Petition", FiledAt: day("2024-01-01")},
		{Type: "Complaint", FiledAt: day("2024-01-03")},
	}
	doc, _ := SelectDocument(filings)
	if doc.Type != "Complaint" {
		t.Fatalf("expected Complaint by list position, got %s", doc.Type)
	}
}

func TestSelectDocumentEarliestOfSameType(t *testing.T) {
	filings := []models.Filing{
		{Type: "Complaint", FiledAt: day("2024-01-08"), DocNumber: "12"},
		{Type: "Complaint", FiledAt: day("2024-01-02"), DocNumber: "1"},
	}
	doc, _ := SelectDocument(filings)
	if doc.Filing.DocNumber != "1" {
		t.Fatalf("expected earliest-filed complaint, got doc %s", doc.Filing.DocNumber)
	}
}

func TestSelectDocumentNoMatch(t *testing.T) {
	filings := []models.Filing{
		{Type: "Notice", FiledAt: day("2024-01-05")},
	}
	if _, ok := SelectDocument(filings); ok {
		t.Fatalf("expected docket-only result")
	}
	if _, ok := SelectDocument(nil); ok {
		t.Fatalf("expected no selection for empty filings")
	}
}

func TestSelectDocumentIdempotent(t *testing.T) {
	filings := []models.Filing{
		{Type: "Motion", FiledAt: day("2024-01-05")},
		{Type: "Opinion", FiledAt: day("2024-01-06")},
	}
	first, ok1 := SelectDocument(filings)
	second, ok2 := SelectDocument(filings)
	if ok1 != ok2 || first.Type != second.Type || first.Fallback != second.Fallback {
		t.Fatalf("selection is not idempotent: %+v vs %+v", first, second)
	}
}

func TestSelectDocumentClassifiesFromDescription(t *testing.T) {
	filings := []models.Filing{
		{Description: "COMPLAINT against BigAI Corp filed by Smith", FiledAt: day("2024-01-02")},
		{Description: "MOTION to dismiss", FiledAt: day("2024-01-05")},
	}
	doc, ok := SelectDocument(filings)
	if !ok || doc.Type != "Complaint" {
		t.Fatalf("expected classified Complaint, got %+v", doc)
	}
}

func TestSelectDocumentOrderRulingOnMotion(t *testing.T) {
	filings := []models.Filing{
		{Description: "ORDER granting motion to compel", FiledAt: day("2024-01-06")},
	}
	doc, ok := SelectDocument(filings)
	if !ok || doc.Type != "Order" || !doc.Fallback {
		t.Fatalf("expected fallback Order, got %+v (ok=%v)", doc, ok)
	}
}

func TestClassifyFiling(t *testing.T) {
	cases := map[string]string{
		"FIRST AMENDED COMPLAINT":         "Amended Complaint",
		"Class Action Complaint":          "Complaint",
		"Petition for review":             "Petition",
		"MOTION for preliminary relief":   "Motion",
		"ORDER granting motion to compel": "Order", // the leading word decides
		"  Order dismissing complaint":    "Order",
		"Motion for protective order":     "Motion",
		"OPINION of the court":            "Opinion",
		"Judgment entered":                "Judgment",
		"Notice of appearance":            "Other",
	}
	for desc, want := range cases {
		if got := ClassifyFiling(desc); got != want {
			t.Fatalf("ClassifyFiling(%q) = %q, want %q", desc, got, want)
		}
	}
}
