package tools_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gaslens/gaslens/analysis"
	"github.com/gaslens/gaslens/internal/tools"
	"github.com/gaslens/gaslens/pkg/flow"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newClient(t *testing.T, server *httptest.Server) analysis.MetricsProvider {
	t.Helper()

	cfg := &tools.Config{BaseURL: server.URL, Timeout: "5s"}
	provider, err := tools.New(cfg, discard())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return provider
}

func TestCategoryDistribution(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/fees/categories" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("chain"); got != "base" {
			t.Errorf("chain = %q", got)
		}
		if got := r.URL.Query().Get("timeframe"); got != "7d" {
			t.Errorf("timeframe = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"chain":"base","timeframe":"7d","shares":{"defi":60.5,"nft":39.5},"total_fees_usd":125000}`)
	}))
	defer server.Close()

	dist, err := newClient(t, server).CategoryDistribution(context.Background(), "base", analysis.Timeframe7d)
	if err != nil {
		t.Fatalf("category distribution: %v", err)
	}

	if dist.Chain != "base" || dist.TotalFeesUSD != 125000 {
		t.Errorf("distribution = %+v", dist)
	}
	if dist.Shares["defi"] != 60.5 {
		t.Errorf("shares = %v", dist.Shares)
	}
}

func TestCategoryDistributionEmptySharesPermanent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"chain":"base","shares":{}}`)
	}))
	defer server.Close()

	_, err := newClient(t, server).CategoryDistribution(context.Background(), "base", analysis.Timeframe7d)
	if err == nil {
		t.Fatal("expected error for empty shares")
	}
	if kind := flow.Classify(err); kind != flow.KindPermanent {
		t.Errorf("kind = %s, want permanent", kind)
	}
	if !errors.Is(err, analysis.ErrInvalidUpstream) {
		t.Errorf("err = %v, want ErrInvalidUpstream", err)
	}
}

func TestTopContracts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/fees/contracts" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("limit"); got != "10" {
			t.Errorf("limit = %q", got)
		}
		io.WriteString(w, `{"contracts":[
			{"address":"0xaaa","project":"uniswap","name":"router","fees_usd":5000,"tx_count":1200},
			{"address":"0xbbb","fees_usd":3000,"tx_count":800}
		]}`)
	}))
	defer server.Close()

	contracts, err := newClient(t, server).TopContracts(context.Background(), "base", "defi", 10)
	if err != nil {
		t.Fatalf("top contracts: %v", err)
	}

	if len(contracts) != 2 {
		t.Fatalf("contracts = %d, want 2", len(contracts))
	}
	if contracts[0].Project != "uniswap" || contracts[0].FeesUSD != 5000 {
		t.Errorf("first contract = %+v", contracts[0])
	}
}

func TestServerFaultClassifiedTransient(t *testing.T) {
	statuses := []int{http.StatusInternalServerError, http.StatusBadGateway, http.StatusTooManyRequests}

	for _, status := range statuses {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		_, err := newClient(t, server).ListDatasets(context.Background())
		server.Close()

		if err == nil {
			t.Fatalf("status %d: expected error", status)
		}
		if kind := flow.Classify(err); kind != flow.KindTransient {
			t.Errorf("status %d: kind = %s, want transient", status, kind)
		}
		if !errors.Is(err, analysis.ErrToolUnavailable) {
			t.Errorf("status %d: err = %v, want ErrToolUnavailable", status, err)
		}
	}
}

func TestClientRejectionClassifiedPermanent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := newClient(t, server).DatasetOverview(context.Background(), "2026-08-29")
	if err == nil {
		t.Fatal("expected error")
	}
	if kind := flow.Classify(err); kind != flow.KindPermanent {
		t.Errorf("kind = %s, want permanent", kind)
	}
}

func TestMalformedBodyClassifiedPermanent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `not json`)
	}))
	defer server.Close()

	_, err := newClient(t, server).ListDatasets(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if kind := flow.Classify(err); kind != flow.KindPermanent {
		t.Errorf("kind = %s, want permanent", kind)
	}
	if !errors.Is(err, analysis.ErrInvalidUpstream) {
		t.Errorf("err = %v, want ErrInvalidUpstream", err)
	}
}

func TestSlowServerClassifiedTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer server.Close()

	cfg := &tools.Config{BaseURL: server.URL, Timeout: "50ms"}
	provider, err := tools.New(cfg, discard())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	_, err = provider.ListDatasets(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if kind := flow.Classify(err); kind != flow.KindTimeout {
		t.Errorf("kind = %s, want timeout", kind)
	}
}

func TestCombinedAnalysisPostsOverviews(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/datasets/combined" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("content type = %q", got)
		}
		io.WriteString(w, `{"combined":"fees shifted toward defi"}`)
	}))
	defer server.Close()

	overviews := []analysis.DatasetOverview{
		{Name: "2026-08-29", Summary: "defi heavy"},
		{Name: "2026-08-22", Summary: "nft heavy"},
	}
	combined, err := newClient(t, server).CombinedAnalysis(context.Background(), overviews)
	if err != nil {
		t.Fatalf("combined analysis: %v", err)
	}
	if combined != "fees shifted toward defi" {
		t.Errorf("combined = %q", combined)
	}
}
