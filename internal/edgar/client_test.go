package edgar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/epeers/ownership/internal/models"
)

const testUserAgent = "Ownership Tests ops@example.com"

var fastRetry = RetryPolicy{MaxAttempts: 5, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}

func newTestClient(serverURL string) *Client {
	return NewClientWithBaseURL(testUserAgent, serverURL, WithRetryPolicy(fastRetry), WithRateLimit(1000))
}

func TestFetchBytes_RetriesTransientThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		if n <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprintf(w, "payload-%d", n)
	}))
	defer server.Close()

	body, err := newTestClient(server.URL).FetchBytes(context.Background(), server.URL+"/doc")
	if err != nil {
		t.Fatalf("expected success after transient failures, got %v", err)
	}
	if string(body) != "payload-3" {
		t.Errorf("expected third response payload, got %q", body)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 calls, got %d", calls.Load())
	}
}

func TestFetchBytes_ExhaustsBudget(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).FetchBytes(context.Background(), server.URL+"/doc")
	if err == nil {
		t.Fatal("expected terminal error after exhausting attempts")
	}
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FetchError, got %T", err)
	}
	if fe.Attempts != 5 || calls.Load() != 5 {
		t.Errorf("expected 5 attempts, got error attempts=%d calls=%d", fe.Attempts, calls.Load())
	}
	if fe.StatusCode != http.StatusServiceUnavailable || !fe.Transient {
		t.Errorf("expected transient 503, got status=%d transient=%v", fe.StatusCode, fe.Transient)
	}
}

func TestFetchBytes_RetriesRateLimited(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	if _, err := newTestClient(server.URL).FetchBytes(context.Background(), server.URL); err != nil {
		t.Fatalf("expected 429 to be retried, got %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("expected 2 calls, got %d", calls.Load())
	}
}

func TestFetchBytes_PermanentFailureNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).FetchBytes(context.Background(), server.URL+"/missing")
	if err == nil {
		t.Fatal("expected error for 404")
	}
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected errors.Is(err, ErrNotFound), got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("expected a single attempt for a permanent failure, got %d", calls.Load())
	}
}

func TestFetchBytes_SendsUserAgent(t *testing.T) {
	var got atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.Store(r.Header.Get("User-Agent"))
		w.Write([]byte("{}"))
	}))
	defer server.Close()

	if _, err := newTestClient(server.URL).FetchBytes(context.Background(), server.URL); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Load() != testUserAgent {
		t.Errorf("expected User-Agent %q, got %v", testUserAgent, got.Load())
	}
}

func TestFetchBytes_ContextCancelledDuringBackoff(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClientWithBaseURL(testUserAgent, server.URL,
		WithRetryPolicy(RetryPolicy{MaxAttempts: 5, BaseDelay: time.Second, MaxDelay: time.Second}))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := client.FetchBytes(ctx, server.URL)
	if err == nil {
		t.Fatal("expected error when context is cancelled")
	}
	if elapsed := time.Since(start); elapsed > 900*time.Millisecond {
		t.Errorf("backoff should stop on cancellation, took %v", elapsed)
	}
}

func TestSubmissionsAndSelectFilings(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/submissions/CIK0000763212.json" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{
			"cik": "763212",
			"name": "EXAMPLE CAPITAL MANAGEMENT",
			"filings": {"recent": {
				"accessionNumber": ["0000763212-24-000010", "0000950123-24-000200", "0000763212-24-000005", "0000950123-23-000100", "0000950123-23-000090"],
				"filingDate":      ["2024-05-10", "2024-02-14", "2024-02-09", "2023-02-14", "2023-01-10"],
				"reportDate":      ["2024-03-31", "", "2023-12-31", "", ""],
				"form":            ["13F-HR", "SC 13G/A", "13F-HR", "SC 13G", "10-K"],
				"primaryDocument": ["primary_doc.xml", "sc13ga.htm", "primary_doc.xml", "sc13g.htm", "10k.htm"]
			}}
		}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	feed, err := client.Submissions(context.Background(), "763212")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if feed.EntityName != "EXAMPLE CAPITAL MANAGEMENT" {
		t.Errorf("unexpected entity name %q", feed.EntityName)
	}

	f13 := SelectFilings(feed, models.FilingKind13F, 0, time.Time{})
	if len(f13) != 2 {
		t.Fatalf("expected 2 13F filings, got %d", len(f13))
	}
	if f13[0].ReportDate == nil || f13[0].ReportDate.Format("2006-01-02") != "2024-03-31" {
		t.Errorf("expected report date from feed, got %v", f13[0].ReportDate)
	}
	if f13[0].CIK != "763212" || f13[0].FilerName != "EXAMPLE CAPITAL MANAGEMENT" {
		t.Errorf("unexpected filer on ref: %+v", f13[0])
	}

	limited := SelectFilings(feed, models.FilingKind13F, 1, time.Time{})
	if len(limited) != 1 || limited[0].Accession != "0000763212-24-000010" {
		t.Errorf("expected only the most recent 13F, got %+v", limited)
	}

	g13 := SelectFilings(feed, models.FilingKind13G, 0, time.Time{})
	if len(g13) != 2 {
		t.Fatalf("expected 13G selection to include the amendment, got %+v", g13)
	}
	if g13[0].Kind != models.FilingKind13GA || g13[1].Kind != models.FilingKind13G {
		t.Errorf("expected kinds from the feed form, got %q and %q", g13[0].Kind, g13[1].Kind)
	}

	amendments := SelectFilings(feed, models.FilingKind13GA, 0, time.Time{})
	if len(amendments) != 1 || amendments[0].Accession != "0000950123-24-000200" {
		t.Errorf("unexpected 13G/A selection: %+v", amendments)
	}

	since := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	recent := SelectFilings(feed, models.FilingKind13G, 0, since)
	if len(recent) != 1 || recent[0].Accession != "0000950123-24-000200" {
		t.Errorf("expected since filter to drop the 2023 13G, got %+v", recent)
	}
}

func TestFilingIndex_SizeFormats(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/Archives/edgar/data/763212/000076321224000010/index.json" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"directory": {"name": "/Archives/edgar/data/763212/000076321224000010", "item": [
			{"name": "primary_doc.xml", "size": "1843", "last-modified": "2024-05-10 16:02:11"},
			{"name": "infotable.xml", "size": 52311, "last-modified": "2024-05-10 16:02:11"},
			{"name": "0000763212-24-000010-index.html", "size": "", "last-modified": "2024-05-10 16:02:11"}
		]}}`))
	}))
	defer server.Close()

	items, err := newTestClient(server.URL).FilingIndex(context.Background(), "0000763212", "0000763212-24-000010")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	if items[0].Size != 1843 || items[1].Size != 52311 || items[2].Size != 0 {
		t.Errorf("unexpected sizes: %d %d %d", items[0].Size, items[1].Size, items[2].Size)
	}
}

func TestIndexAndDocument_RetryTransientFailures(t *testing.T) {
	var indexCalls, docCalls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/Archives/edgar/data/763212/000076321224000010/index.json":
			if indexCalls.Add(1) == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.Write([]byte(`{"directory": {"item": [{"name": "infotable.xml", "size": "10"}]}}`))
		case "/Archives/edgar/data/763212/000076321224000010/infotable.xml":
			if docCalls.Add(1) <= 2 {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			w.Write([]byte("<informationTable/>"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	items, err := c.FilingIndex(context.Background(), "763212", "0000763212-24-000010")
	if err != nil {
		t.Fatalf("expected index lookup to succeed after a 503, got %v", err)
	}
	if len(items) != 1 || items[0].Name != "infotable.xml" {
		t.Errorf("unexpected index items: %+v", items)
	}
	if indexCalls.Load() != 2 {
		t.Errorf("expected 2 index calls, got %d", indexCalls.Load())
	}

	doc, err := c.Document(context.Background(), "763212", "0000763212-24-000010", "infotable.xml")
	if err != nil {
		t.Fatalf("expected document fetch to succeed after 429s, got %v", err)
	}
	if string(doc) != "<informationTable/>" {
		t.Errorf("unexpected document body %q", doc)
	}
	if docCalls.Load() != 3 {
		t.Errorf("expected 3 document calls, got %d", docCalls.Load())
	}
}

func TestDocumentURL_StripsDashes(t *testing.T) {
	c := NewClient(testUserAgent)
	got := c.DocumentURL("0000763212", "0001-23-000456", "sc13g.htm")
	want := "https://www.sec.gov/Archives/edgar/data/763212/000123000456/sc13g.htm"
	if got != want {
		t.Errorf("DocumentURL = %q, want %q", got, want)
	}
	if c.DocumentURL("763212", "000123000456", "sc13g.htm") != got {
		t.Error("dashed and undashed accessions should produce the same URL")
	}
}

func TestAtomFilings(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("output") != "atom" || r.URL.Query().Get("type") != "13F-HR" {
			http.Error(w, "bad query", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/atom+xml")
		w.Write([]byte(`<?xml version="1.0" encoding="ISO-8859-1" ?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>EXAMPLE CAPITAL MANAGEMENT  (0000763212)</title>
  <id>urn:tag:sec.gov,2008:company=0000763212</id>
  <updated>2024-05-10T16:02:11-04:00</updated>
  <entry>
    <category label="form type" scheme="https://www.sec.gov/" term="13F-HR" />
    <content type="text/xml"><accession-number>0000763212-24-000010</accession-number></content>
    <id>urn:tag:sec.gov,2008:accession-number=0000763212-24-000010</id>
    <title>13F-HR  - Quarterly report filed by institutional managers</title>
    <updated>2024-05-10T16:02:11-04:00</updated>
  </entry>
  <entry>
    <category label="form type" scheme="https://www.sec.gov/" term="13F-HR" />
    <id>urn:tag:sec.gov,2008:accession-number=0000763212-24-000005</id>
    <title>13F-HR  - Quarterly report filed by institutional managers</title>
    <updated>2024-02-09T10:00:00-05:00</updated>
  </entry>
</feed>`))
	}))
	defer server.Close()

	feed, err := newTestClient(server.URL).AtomFilings(context.Background(), "763212", "13F-HR", 40)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if feed.FilerName != "EXAMPLE CAPITAL MANAGEMENT" {
		t.Errorf("expected filer name without the CIK suffix, got %q", feed.FilerName)
	}
	entries := feed.Entries
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].AccessionNumber != "0000763212-24-000010" || entries[1].AccessionNumber != "0000763212-24-000005" {
		t.Errorf("unexpected accessions: %+v", entries)
	}
	if entries[0].Form != "13F-HR" {
		t.Errorf("expected form from category term, got %q", entries[0].Form)
	}
	if got := entries[1].Filed.Format("2006-01-02"); got != "2024-02-09" {
		t.Errorf("expected filing date from the entry update time, got %s", got)
	}
}

func TestMatchesKind(t *testing.T) {
	tests := []struct {
		form string
		kind models.FilingKind
		want bool
	}{
		{"13F-HR", models.FilingKind13F, true},
		{"13F-HR/A", models.FilingKind13F, false},
		{"13F-NT", models.FilingKind13F, false},
		{"SC 13G", models.FilingKind13G, true},
		{"sc 13g/a", models.FilingKind13G, true},
		{"SCHEDULE 13G", models.FilingKind13GA, false},
		{"SCHEDULE 13G/A", models.FilingKind13GA, true},
		{"SC 13D", models.FilingKind13G, false},
	}
	for _, tt := range tests {
		if got := MatchesKind(tt.form, tt.kind); got != tt.want {
			t.Errorf("MatchesKind(%q, %s) = %v, want %v", tt.form, tt.kind, got, tt.want)
		}
	}
}

func TestAtomRefs(t *testing.T) {
	day := func(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }
	feed := &AtomFeed{
		FilerName: "EXAMPLE CAPITAL MANAGEMENT",
		Entries: []AtomEntry{
			{AccessionNumber: "0001104659-24-000003", Form: "SC 13G/A", Filed: day(2024, 2, 14)},
			{AccessionNumber: "0000763212-24-000010", Form: "13F-HR", Filed: day(2024, 5, 10)},
			{AccessionNumber: "0001104659-24-000002", Form: "SC 13G", Filed: day(2024, 1, 5)},
			{AccessionNumber: "0001104659-24-000001", Form: "SC 13G"},
			{AccessionNumber: "0001104659-23-000009", Form: "SC 13G", Filed: day(2023, 2, 10)},
		},
	}

	refs := AtomRefs(feed, "0000763212", models.FilingKind13G, 2, time.Time{})
	if len(refs) != 2 {
		t.Fatalf("expected 2 refs, got %d", len(refs))
	}
	if refs[0].Kind != models.FilingKind13GA || refs[1].Kind != models.FilingKind13G {
		t.Errorf("expected kinds from entry forms, got %s and %s", refs[0].Kind, refs[1].Kind)
	}
	if refs[0].CIK != "763212" || refs[0].FilerName != "EXAMPLE CAPITAL MANAGEMENT" {
		t.Errorf("expected normalized CIK and feed filer name, got %+v", refs[0])
	}

	// Undated entries survive the since filter
	recent := AtomRefs(feed, "763212", models.FilingKind13G, 0, day(2024, 1, 1))
	if len(recent) != 3 || recent[2].Accession != "0001104659-24-000001" {
		t.Errorf("expected the 2023 filing to be dropped, got %+v", recent)
	}

	if got := AtomRefs(feed, "763212", models.FilingKind13F, 0, time.Time{}); len(got) != 1 {
		t.Errorf("expected 1 13F ref, got %d", len(got))
	}
	if FeedForm(models.FilingKind13F) != "13F-HR" || FeedForm(models.FilingKind13G) != "SC 13G" {
		t.Errorf("unexpected feed forms")
	}
}
