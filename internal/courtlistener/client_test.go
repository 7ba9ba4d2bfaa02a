package courtlistener

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/docketwatch/docketwatch/config"
	"github.com/docketwatch/docketwatch/models"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient(config.CourtListenerConfig{
		BaseURL:  srv.URL,
		Token:    "secret",
		Timeout:  5 * time.Second,
		PageSize: 20,
	}, nil)
	return c, srv
}

func TestSearchDocketsDeduplicates(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/rest/v4/search/" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Token secret" {
			t.Fatalf("missing token header, got %q", got)
		}
		q := r.URL.Query()
		if q.Get("type") != "r" || q.Get("q") != "Bartz v. Anthropic" {
			t.Fatalf("unexpected query %v", q)
		}
		fmt.Fprint(w, `{"results":[
			{"docket_id":70,"caseName":"Bartz v. Anthropic","docketNumber":"3:24-cv-05417","court_id":"cand","dateFiled":"2024-08-19"},
			{"docket_id":70,"caseName":"Bartz v. Anthropic","docketNumber":"3:24-cv-05417","court_id":"cand","dateFiled":"2024-08-19"},
			{"docket":71,"case_name":"Bartz v. Anthropic PBC","docket_number":"3:24-cv-05418","court":"cand","date_filed":"2024-08-20"}
		]}`)
	}))

	cands, err := c.SearchDockets(context.Background(), "Bartz v. Anthropic")
	if err != nil {
		t.Fatalf("SearchDockets: %v", err)
	}
	if len(cands) != 2 {
		t.Fatalf("expected 2 distinct dockets, got %d", len(cands))
	}
	if cands[0].DocketID != 70 || cands[0].CaseName != "Bartz v. Anthropic" {
		t.Fatalf("unexpected first candidate %+v", cands[0])
	}
	if cands[1].DocketID != 71 || cands[1].FiledAt.Format("2006-01-02") != "2024-08-20" {
		t.Fatalf("snake_case fields not picked up: %+v", cands[1])
	}
}

func TestDocketsByNumberClassifiesOutage(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	_, err := c.DocketsByNumber(context.Background(), "3:24-cv-05417")
	if !errors.Is(err, models.ErrTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
}

func TestHydrateDocketResolvesCourtName(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/rest/v4/dockets/70/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":70,"case_name":"Bartz v. Anthropic","docket_number":"3:24-cv-05417",
			"court":"/api/rest/v4/courts/cand/","date_filed":"2024-08-19",
			"assigned_to_str":"William Alsup","nature_of_suit":"820 Copyright","cause":"17:501 Copyright Infringement"}`)
	})
	mux.HandleFunc("/api/rest/v4/courts/cand/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"short_name":"N.D. Cal."}`)
	})
	c, _ := newTestClient(t, mux)

	cand, err := c.HydrateDocket(context.Background(), 70)
	if err != nil {
		t.Fatalf("HydrateDocket: %v", err)
	}
	if cand.Court != "cand" || cand.CourtName != "N.D. Cal." {
		t.Fatalf("court not resolved: %+v", cand)
	}
	if cand.Judge != "William Alsup" || cand.Status != "open" {
		t.Fatalf("metadata missing: %+v", cand)
	}
}

func TestDocketFilingsPaginatesAndAttachesPDFs(t *testing.T) {
	var srvURL string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/rest/v4/docket-entries/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			fmt.Fprint(w, `{"next":null,"results":[
				{"id":2,"entry_number":2,"description":"MOTION to Dismiss","date_filed":"2024-08-25"}
			]}`)
			return
		}
		fmt.Fprintf(w, `{"next":"%s/api/rest/v4/docket-entries/?docket=70&page=2","results":[
			{"id":1,"entry_number":1,"description":"COMPLAINT against Anthropic","date_filed":"2024-08-19","absolute_url":"/docket/70/1/"}
		]}`, srvURL)
	})
	mux.HandleFunc("/api/rest/v4/recap-documents/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"next":null,"results":[
			{"docket_entry":1,"document_number":"1","filepath_local":"/recap/bartz-complaint.pdf"}
		]}`)
	})
	c, srv := newTestClient(t, mux)
	srvURL = srv.URL

	filings, err := c.DocketFilings(context.Background(), 70)
	if err != nil {
		t.Fatalf("DocketFilings: %v", err)
	}
	if len(filings) != 2 {
		t.Fatalf("expected 2 filings across pages, got %d", len(filings))
	}
	if filings[0].Description != "COMPLAINT against Anthropic" {
		t.Fatalf("entries out of docket order: %+v", filings)
	}
	if want := srv.URL + "/recap/bartz-complaint.pdf"; filings[0].PDFURL != want {
		t.Fatalf("pdf url = %q, want %q", filings[0].PDFURL, want)
	}
	if filings[1].PDFURL != "" {
		t.Fatalf("entry without archive doc should have no pdf url: %+v", filings[1])
	}
}

func TestFetchBinaryRelativePath(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/recap/doc.pdf" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("%PDF-1.4"))
	}))

	data, err := c.FetchBinary(context.Background(), "/recap/doc.pdf", 1<<20)
	if err != nil {
		t.Fatalf("FetchBinary: %v", err)
	}
	if string(data) != "%PDF-1.4" {
		t.Fatalf("unexpected body %q", data)
	}
}
