// Package ioworms queries the World Register of Marine Species (WoRMS)
// REST service about scientific names.
package ioworms

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	dwcheck "github.com/gnames/dwcheck/pkg"
	"github.com/gnames/dwcheck/pkg/config"
	"github.com/gnames/dwcheck/pkg/taxon"
	"golang.org/x/time/rate"
)

// maxBody limits the size of a reply. WoRMS returns at most 50 records
// per name.
const maxBody = 4 << 20

// Fetcher is a rate-limited client of the WoRMS AphiaRecordsByName
// endpoint.
type Fetcher struct {
	baseURL    string
	fuzzy      bool
	marineOnly bool
	userAgent  string
	client     *http.Client
	limiter    *rate.Limiter
}

// Option modifies a Fetcher.
type Option func(*Fetcher)

// OptTransport sets the HTTP transport, mostly for tests.
func OptTransport(rt http.RoundTripper) Option {
	return func(f *Fetcher) {
		f.client.Transport = rt
	}
}

// OptUserAgent sets the User-Agent header of requests.
func OptUserAgent(ua string) Option {
	return func(f *Fetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

var _ taxon.Fetcher = (*Fetcher)(nil)

// New creates a Fetcher from the authority settings. A non-positive
// rate limit means no limit.
func New(cfg config.AuthorityConfig, opts ...Option) *Fetcher {
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	res := &Fetcher{
		baseURL:    strings.TrimSuffix(cfg.URL, "/"),
		fuzzy:      cfg.IsFuzzy(),
		marineOnly: cfg.IsMarineOnly(),
		userAgent:  "dwcheck/" + dwcheck.Version,
		client:     &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(limit, 1),
	}
	for _, opt := range opts {
		opt(res)
	}
	return res
}

// URL returns the request URL for a name.
func (f *Fetcher) URL(name string) string {
	q := url.Values{}
	q.Set("like", strconv.FormatBool(f.fuzzy))
	q.Set("marine_only", strconv.FormatBool(f.marineOnly))
	return f.baseURL + "/AphiaRecordsByName/" + url.PathEscape(name) +
		"?" + q.Encode()
}

// Fetch asks WoRMS about the name. Every HTTP status, including 204 for
// unknown names, is returned as a Reply. Errors mean the request did not
// complete.
func (f *Fetcher) Fetch(ctx context.Context, name string) (*taxon.Reply, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL(name), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %q: %w", name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("read reply for %q: %w", name, err)
	}

	slog.Debug("WoRMS reply",
		"name", name,
		"status", resp.StatusCode,
		"bytes", len(body),
	)
	return &taxon.Reply{StatusCode: resp.StatusCode, Body: body}, nil
}
