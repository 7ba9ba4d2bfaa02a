package resolve

import (
	"strings"

	"github.com/docketwatch/docketwatch/models"
)

// Document type priority lists. The primary list captures "a lawsuit was
// triggered"; the secondary degrades to "something material happened on
// this docket" when the initiating pleading is not in the public archive.
var (
	primaryPriority   = []string{"Complaint", "Amended Complaint", "Petition"}
	secondaryPriority = []string{"Motion", "Order", "Opinion", "Judgment"}
)

// SelectDocument applies the two-tier priority policy to a docket's
// filings. Priority-list position wins over chronology; among several
// filings of the winning type the earliest-filed one is canonical. The
// second return is false when neither list matches (docket-only result).
func SelectDocument(filings []models.Filing) (models.SelectedDocument, bool) {
	if doc, ok := firstByPriority(filings, primaryPriority); ok {
		doc.Fallback = false
		return doc, true
	}
	if doc, ok := firstByPriority(filings, secondaryPriority); ok {
		doc.Fallback = true
		return doc, true
	}
	return models.SelectedDocument{}, false
}

func firstByPriority(filings []models.Filing, priority []string) (models.SelectedDocument, bool) {
	for _, want := range priority {
		var pick *models.Filing
		for i := range filings {
			if !strings.EqualFold(filingType(filings[i]), want) {
				continue
			}
			if pick == nil || filings[i].FiledAt.Before(pick.FiledAt) {
				pick = &filings[i]
			}
		}
		if pick != nil {
			return models.SelectedDocument{
				Type:    want,
				FiledAt: pick.FiledAt,
				Filing:  *pick,
			}, true
		}
	}
	return models.SelectedDocument{}, false
}

func filingType(f models.Filing) string {
	if f.Type != "" {
		return f.Type
	}
	return ClassifyFiling(f.Description)
}

// ClassifyFiling maps a free-text docket-entry description to a canonical
// document type label. Longer labels are checked first so an amended
// complaint is not mistaken for the original. Order entries are recognized
// by their leading word, because they routinely name the motion or
// complaint they rule on ("Order granting motion to compel").
func ClassifyFiling(description string) string {
	d := strings.ToLower(strings.TrimSpace(description))
	if strings.HasPrefix(d, "order") {
		return "Order"
	}
	switch {
	case strings.Contains(d, "amended complaint"):
		return "Amended Complaint"
	case strings.Contains(d, "complaint"):
		return "Complaint"
	case strings.Contains(d, "petition"):
		return "Petition"
	case strings.Contains(d, "motion"):
		return "Motion"
	case strings.Contains(d, "order"):
		return "Order"
	case strings.Contains(d, "opinion"):
		return "Opinion"
	case strings.Contains(d, "judgment"), strings.Contains(d, "judgement"):
		return "Judgment"
	}
	return "Other"
}
