// Package tools adapts the external blockspace metrics API into the data
// boundary the analysis stages consume. Every failure leaving this package is
// classified so the workflow engine can decide whether a retry is worthwhile.
package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gaslens/gaslens/analysis"
	"github.com/gaslens/gaslens/pkg/flow"
)

type client struct {
	http    *http.Client
	baseURL string
	timeout time.Duration
	logger  *slog.Logger
}

// New creates a metrics provider backed by the configured HTTP API.
func New(cfg *Config, logger *slog.Logger) (analysis.MetricsProvider, error) {
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("parse base_url: %w", err)
	}

	return &client{
		http:    &http.Client{},
		baseURL: cfg.BaseURL,
		timeout: cfg.TimeoutDuration(),
		logger:  logger.With("system", "tools"),
	}, nil
}

type categoriesPayload struct {
	Chain        string             `json:"chain"`
	Timeframe    string             `json:"timeframe"`
	Shares       map[string]float64 `json:"shares"`
	TotalFeesUSD float64            `json:"total_fees_usd"`
}

func (c *client) CategoryDistribution(ctx context.Context, chain string, timeframe analysis.Timeframe) (*analysis.CategoryDistribution, error) {
	query := url.Values{
		"chain":     {chain},
		"timeframe": {string(timeframe)},
	}

	var payload categoriesPayload
	if err := c.get(ctx, "/v1/fees/categories", query, &payload); err != nil {
		return nil, err
	}
	if len(payload.Shares) == 0 {
		return nil, flow.Fail(flow.KindPermanent,
			fmt.Errorf("%w: no category shares for %s", analysis.ErrInvalidUpstream, chain))
	}

	return &analysis.CategoryDistribution{
		Chain:        chain,
		Timeframe:    timeframe,
		Shares:       payload.Shares,
		TotalFeesUSD: payload.TotalFeesUSD,
	}, nil
}

type contractsPayload struct {
	Contracts []struct {
		Address string  `json:"address"`
		Project string  `json:"project"`
		Name    string  `json:"name"`
		FeesUSD float64 `json:"fees_usd"`
		TxCount int64   `json:"tx_count"`
	} `json:"contracts"`
}

func (c *client) TopContracts(ctx context.Context, chain, category string, limit int) ([]analysis.ContractFees, error) {
	query := url.Values{
		"chain":    {chain},
		"category": {category},
		"limit":    {strconv.Itoa(limit)},
	}

	var payload contractsPayload
	if err := c.get(ctx, "/v1/fees/contracts", query, &payload); err != nil {
		return nil, err
	}

	contracts := make([]analysis.ContractFees, 0, len(payload.Contracts))
	for _, entry := range payload.Contracts {
		contracts = append(contracts, analysis.ContractFees{
			Address: entry.Address,
			Project: entry.Project,
			Name:    entry.Name,
			FeesUSD: entry.FeesUSD,
			TxCount: entry.TxCount,
		})
	}
	return contracts, nil
}

type datasetsPayload struct {
	Datasets []string `json:"datasets"`
}

// ListDatasets returns dataset names ordered newest first.
func (c *client) ListDatasets(ctx context.Context) ([]string, error) {
	var payload datasetsPayload
	if err := c.get(ctx, "/v1/datasets", nil, &payload); err != nil {
		return nil, err
	}
	return payload.Datasets, nil
}

type overviewPayload struct {
	Name    string `json:"name"`
	Summary string `json:"summary"`
}

func (c *client) DatasetOverview(ctx context.Context, name string) (string, error) {
	var payload overviewPayload
	if err := c.get(ctx, "/v1/datasets/"+url.PathEscape(name), nil, &payload); err != nil {
		return "", err
	}
	if payload.Summary == "" {
		return "", flow.Fail(flow.KindPermanent,
			fmt.Errorf("%w: empty overview for dataset %s", analysis.ErrInvalidUpstream, name))
	}
	return payload.Summary, nil
}

type combinedRequest struct {
	Overviews []analysis.DatasetOverview `json:"overviews"`
}

type combinedPayload struct {
	Combined string `json:"combined"`
}

func (c *client) CombinedAnalysis(ctx context.Context, overviews []analysis.DatasetOverview) (string, error) {
	body, err := json.Marshal(combinedRequest{Overviews: overviews})
	if err != nil {
		return "", flow.Fail(flow.KindPermanent, fmt.Errorf("encode combined request: %w", err))
	}

	var payload combinedPayload
	if err := c.do(ctx, http.MethodPost, "/v1/datasets/combined", nil, bytes.NewReader(body), &payload); err != nil {
		return "", err
	}
	if payload.Combined == "" {
		return "", flow.Fail(flow.KindPermanent,
			fmt.Errorf("%w: empty combined analysis", analysis.ErrInvalidUpstream))
	}
	return payload.Combined, nil
}

func (c *client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

// do issues one request under the per-call timeout and classifies every
// failure mode: transport and throttling errors are transient, deadline
// expiry is a timeout, and anything the server rejects outright or returns
// malformed is permanent.
func (c *client) do(ctx context.Context, method, path string, query url.Values, body io.Reader, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return flow.Fail(flow.KindPermanent, fmt.Errorf("build request: %w", err))
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return c.transportError(path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("metrics request rejected", "path", path, "status", resp.StatusCode)
		return flow.Fail(classifyStatus(resp.StatusCode),
			fmt.Errorf("%w: %s returned %d", analysis.ErrToolUnavailable, path, resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return flow.Fail(flow.KindPermanent,
			fmt.Errorf("%w: decode %s: %w", analysis.ErrInvalidUpstream, path, err))
	}
	return nil
}

func (c *client) transportError(path string, err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return flow.Fail(flow.KindTimeout,
			fmt.Errorf("%w: %s timed out: %w", analysis.ErrToolUnavailable, path, err))
	case errors.Is(err, context.Canceled):
		return flow.Fail(flow.KindCancelled, err)
	default:
		return flow.Fail(flow.KindTransient,
			fmt.Errorf("%w: %s: %w", analysis.ErrToolUnavailable, path, err))
	}
}

// classifyStatus treats throttling and server faults as transient; every
// other rejection reflects a request the server will never accept.
func classifyStatus(status int) flow.Kind {
	if status == http.StatusTooManyRequests || status >= 500 {
		return flow.KindTransient
	}
	return flow.KindPermanent
}
