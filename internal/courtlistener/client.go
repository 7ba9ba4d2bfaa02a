package courtlistener

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/docketwatch/docketwatch/config"
	"github.com/docketwatch/docketwatch/internal/httpx"
	"github.com/docketwatch/docketwatch/models"
	"github.com/docketwatch/docketwatch/repository/redis_repository"
)

const userAgent = "docketwatch/1.0"

// Client talks to the CourtListener v4 REST API. It implements the
// index surface the resolver consumes: keyword search, docket-number
// lookup, docket hydration, filing listings and binary retrieval.
type Client struct {
	base     string
	token    string
	pageSize int
	http     *httpx.Client
	courts   redis_repository.CourtRepository // optional, nil disables caching
	logger   *log.Logger
}

func NewClient(cfg config.CourtListenerConfig, courts redis_repository.CourtRepository) *Client {
	cfg = cfg.Normalize()
	return &Client{
		base:     cfg.BaseURL,
		token:    cfg.Token,
		pageSize: cfg.PageSize,
		http:     httpx.NewClient(cfg.Timeout, cfg.MaxRetries, 500*time.Millisecond),
		courts:   courts,
		logger:   log.New(log.Writer(), "[COURTLISTENER] ", log.LstdFlags),
	}
}

func (c *Client) headers() map[string]string {
	h := map[string]string{
		"Accept":     "application/json",
		"User-Agent": userAgent,
	}
	if c.token != "" {
		h["Authorization"] = "Token " + c.token
	}
	return h
}

// searchResult tolerates both field spellings the API emits.
type searchResult struct {
	DocketID      int64  `json:"docket_id"`
	Docket        int64  `json:"docket"`
	CaseName      string `json:"caseName"`
	CaseNameSnake string `json:"case_name"`
	DocketNumber  string `json:"docketNumber"`
	NumberSnake   string `json:"docket_number"`
	Court         string `json:"court"`
	CourtID       string `json:"court_id"`
	DateFiled     string `json:"dateFiled"`
	DateSnake     string `json:"date_filed"`
}

type searchPage struct {
	Results []searchResult `json:"results"`
}

// SearchDockets runs a RECAP keyword search and returns one candidate
// per distinct docket.
func (c *Client) SearchDockets(ctx context.Context, query string) ([]models.DocketCandidate, error) {
	u := fmt.Sprintf("%s/api/rest/v4/search/?q=%s&type=r&page_size=%d",
		c.base, url.QueryEscape(query), c.pageSize)

	var page searchPage
	if err := c.http.DoJSON(ctx, http.MethodGet, u, c.headers(), nil, &page); err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	seen := make(map[int64]bool)
	var out []models.DocketCandidate
	for _, r := range page.Results {
		id := r.DocketID
		if id == 0 {
			id = r.Docket
		}
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, models.DocketCandidate{
			DocketID:     id,
			CaseName:     pick(r.CaseName, r.CaseNameSnake),
			DocketNumber: pick(r.DocketNumber, r.NumberSnake),
			Court:        pick(r.CourtID, r.Court),
			FiledAt:      parseDay(pick(r.DateFiled, r.DateSnake)),
		})
	}
	return out, nil
}

type docketRecord struct {
	ID             int64  `json:"id"`
	CaseName       string `json:"case_name"`
	DocketNumber   string `json:"docket_number"`
	Court          string `json:"court"` // slug or API URL
	DateFiled      string `json:"date_filed"`
	DateTerminated string `json:"date_terminated"`
	AssignedToStr  string `json:"assigned_to_str"`
	ReferredToStr  string `json:"referred_to_str"`
	NatureOfSuit   string `json:"nature_of_suit"`
	Cause          string `json:"cause"`
	PartySummary   string `json:"party_summary"`
}

type docketPage struct {
	Results []docketRecord `json:"results"`
}

// DocketsByNumber lists dockets whose court-assigned number matches.
// Numbers are not globally unique, so several courts may answer.
func (c *Client) DocketsByNumber(ctx context.Context, number string) ([]models.DocketCandidate, error) {
	u := fmt.Sprintf("%s/api/rest/v4/dockets/?docket_number=%s", c.base, url.QueryEscape(number))

	var page docketPage
	if err := c.http.DoJSON(ctx, http.MethodGet, u, c.headers(), nil, &page); err != nil {
		return nil, fmt.Errorf("dockets by number %q: %w", number, err)
	}

	out := make([]models.DocketCandidate, 0, len(page.Results))
	for _, d := range page.Results {
		out = append(out, c.candidateFromDocket(ctx, d))
	}
	return out, nil
}

// HydrateDocket fetches full metadata for one docket, including the
// court display name.
func (c *Client) HydrateDocket(ctx context.Context, docketID int64) (models.DocketCandidate, error) {
	u := fmt.Sprintf("%s/api/rest/v4/dockets/%d/", c.base, docketID)

	var d docketRecord
	if err := c.http.DoJSON(ctx, http.MethodGet, u, c.headers(), nil, &d); err != nil {
		return models.DocketCandidate{}, fmt.Errorf("docket %d: %w", docketID, err)
	}
	if d.ID == 0 {
		d.ID = docketID
	}
	return c.candidateFromDocket(ctx, d), nil
}

func (c *Client) candidateFromDocket(ctx context.Context, d docketRecord) models.DocketCandidate {
	cand := models.DocketCandidate{
		DocketID:     d.ID,
		CaseName:     d.CaseName,
		DocketNumber: d.DocketNumber,
		Court:        courtSlug(d.Court),
		FiledAt:      parseDay(d.DateFiled),
		Judge:        d.AssignedToStr,
		Magistrate:   d.ReferredToStr,
		NatureOfSuit: d.NatureOfSuit,
		Cause:        d.Cause,
	}
	if d.PartySummary != "" {
		cand.Parties = []string{d.PartySummary}
	}
	switch {
	case d.DateTerminated != "":
		cand.Status = "terminated " + d.DateTerminated
	case d.DateFiled != "":
		cand.Status = "open"
	}
	cand.CourtName = c.courtName(ctx, d.Court)
	return cand
}

// courtName resolves a court slug or API URL to its display name,
// consulting the cache first. Resolution failure falls back to the
// raw value; court metadata is decoration, not correctness.
func (c *Client) courtName(ctx context.Context, courtRaw string) string {
	slug := courtSlug(courtRaw)
	if slug == "" {
		return ""
	}
	if c.courts != nil {
		if name, ok, err := c.courts.GetCourtName(ctx, slug); err == nil && ok {
			return name
		}
	}

	u := courtRaw
	switch {
	case strings.HasPrefix(courtRaw, "http"):
	case strings.HasPrefix(courtRaw, "/"):
		u = c.base + courtRaw
	default:
		u = fmt.Sprintf("%s/api/rest/v4/courts/%s/", c.base, courtRaw)
	}

	var court struct {
		ShortName string `json:"short_name"`
	}
	if err := c.http.DoJSON(ctx, http.MethodGet, u, c.headers(), nil, &court); err != nil || court.ShortName == "" {
		return slug
	}
	if c.courts != nil {
		if err := c.courts.SaveCourtName(ctx, slug, court.ShortName); err != nil {
			c.logger.Printf("court cache save %s: %v", slug, err)
		}
	}
	return court.ShortName
}

type entryRecord struct {
	ID          int64  `json:"id"`
	EntryNumber int64  `json:"entry_number"`
	Description string `json:"description"`
	DateFiled   string `json:"date_filed"`
	AbsoluteURL string `json:"absolute_url"`
}

type entryPage struct {
	Next    string        `json:"next"`
	Results []entryRecord `json:"results"`
}

type recapDoc struct {
	DocketEntry    int64  `json:"docket_entry"`
	DocumentNumber string `json:"document_number"`
	FilepathLocal  string `json:"filepath_local"`
	AbsoluteURL    string `json:"absolute_url"`
}

type recapPage struct {
	Next    string     `json:"next"`
	Results []recapDoc `json:"results"`
}

// DocketFilings lists a docket's entries in docket order, following
// pagination, and attaches each entry's PDF reference when the archive
// holds one.
func (c *Client) DocketFilings(ctx context.Context, docketID int64) ([]models.Filing, error) {
	u := fmt.Sprintf("%s/api/rest/v4/docket-entries/?docket=%d&page_size=%d", c.base, docketID, c.pageSize)

	var entries []entryRecord
	for u != "" {
		var page entryPage
		if err := c.http.DoJSON(ctx, http.MethodGet, u, c.headers(), nil, &page); err != nil {
			return nil, fmt.Errorf("entries for docket %d: %w", docketID, err)
		}
		entries = append(entries, page.Results...)
		u = page.Next
	}
	if len(entries) == 0 {
		return nil, nil
	}

	pdfByEntry, err := c.recapDocuments(ctx, docketID)
	if err != nil {
		// filings without binaries still feed selection
		c.logger.Printf("recap documents for docket %d: %v", docketID, err)
		pdfByEntry = nil
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].EntryNumber != entries[j].EntryNumber {
			return entries[i].EntryNumber < entries[j].EntryNumber
		}
		return entries[i].ID < entries[j].ID
	})

	out := make([]models.Filing, 0, len(entries))
	for _, e := range entries {
		f := models.Filing{
			EntryID:     e.ID,
			DocNumber:   fmt.Sprintf("%d", e.EntryNumber),
			Description: e.Description,
			FiledAt:     parseDay(e.DateFiled),
			DocumentURL: c.absURL(e.AbsoluteURL),
		}
		if doc, ok := pdfByEntry[e.ID]; ok {
			f.PDFURL = c.absURL(doc.FilepathLocal)
			if f.DocumentURL == "" {
				f.DocumentURL = c.absURL(doc.AbsoluteURL)
			}
		}
		out = append(out, f)
	}
	return out, nil
}

func (c *Client) recapDocuments(ctx context.Context, docketID int64) (map[int64]recapDoc, error) {
	u := fmt.Sprintf("%s/api/rest/v4/recap-documents/?docket=%d&page_size=%d", c.base, docketID, c.pageSize)

	byEntry := make(map[int64]recapDoc)
	for u != "" {
		var page recapPage
		if err := c.http.DoJSON(ctx, http.MethodGet, u, c.headers(), nil, &page); err != nil {
			return nil, err
		}
		for _, d := range page.Results {
			if d.FilepathLocal == "" {
				continue
			}
			if _, ok := byEntry[d.DocketEntry]; !ok {
				byEntry[d.DocketEntry] = d
			}
		}
		u = page.Next
	}
	return byEntry, nil
}

// FetchBinary downloads a document binary, capped at maxBytes.
func (c *Client) FetchBinary(ctx context.Context, rawURL string, maxBytes int64) ([]byte, error) {
	return c.http.GetBytes(ctx, c.absURL(rawURL), c.headers(), maxBytes)
}

func (c *Client) absURL(u string) string {
	if u == "" || strings.HasPrefix(u, "http") {
		return u
	}
	if strings.HasPrefix(u, "/") {
		return c.base + u
	}
	return u
}

// courtSlug reduces a slug or courts API URL to the bare identifier.
func courtSlug(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	raw = strings.TrimRight(raw, "/")
	if i := strings.LastIndex(raw, "/"); i >= 0 {
		return raw[i+1:]
	}
	return raw
}

func pick(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func parseDay(s string) time.Time {
	if len(s) < 10 {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02", s[:10])
	if err != nil {
		return time.Time{}
	}
	return t
}
