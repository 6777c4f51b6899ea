package taxon

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gnames/gnfmt"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Resolver looks up scientific names in the taxonomic authority.
// It is safe for concurrent use.
type Resolver struct {
	fetcher     Fetcher
	cache       Cache
	policy      RetryPolicy
	concurrency int
	progress    func(done, total int)

	group singleflight.Group
}

// ResolverOption changes the Resolver settings.
type ResolverOption func(*Resolver)

// OptRetryPolicy sets the retry policy of lookups.
func OptRetryPolicy(p RetryPolicy) ResolverOption {
	return func(r *Resolver) {
		r.policy = p
	}
}

// OptConcurrency sets how many names ResolveAll looks up at the same time.
func OptConcurrency(i int) ResolverOption {
	return func(r *Resolver) {
		if i > 0 {
			r.concurrency = i
		}
	}
}

// OptProgress sets a function called by ResolveAll after every name.
func OptProgress(fn func(done, total int)) ResolverOption {
	return func(r *Resolver) {
		r.progress = fn
	}
}

// NewResolver creates a Resolver. If the cache is nil, an unbounded memory
// cache is used.
func NewResolver(f Fetcher, c Cache, opts ...ResolverOption) *Resolver {
	if c == nil {
		c = NewCache(0)
	}
	res := &Resolver{
		fetcher:     f,
		cache:       c,
		policy:      DefaultRetryPolicy(),
		concurrency: 4,
	}
	for _, opt := range opts {
		opt(res)
	}
	return res
}

// Cache returns the cache of the resolver.
func (r *Resolver) Cache() Cache {
	return r.cache
}

// Resolve returns the resolution outcome of a name. Failures are reported
// as LookupFailed, never as errors. Concurrent calls for the same name
// share one lookup, every caller waits for it only while its own context
// is alive.
func (r *Resolver) Resolve(ctx context.Context, name string) TaxonName {
	if tn, ok := r.cache.Get(name); ok {
		return tn
	}

	for {
		ch := r.group.DoChan(name, func() (any, error) {
			// another caller might have finished while we were waiting
			if tn, ok := r.cache.Get(name); ok {
				return tn, nil
			}
			tn := r.lookup(ctx, name)
			if err := ctx.Err(); err != nil {
				return tn, err
			}
			r.cache.Set(tn)
			return tn, nil
		})

		select {
		case <-ctx.Done():
			return TaxonName{
				Name:   name,
				Status: LookupFailed,
				Err:    ctx.Err().Error(),
			}
		case res := <-ch:
			// the lookup ran under the context of a cancelled caller,
			// start a new one
			if res.Err != nil && ctx.Err() == nil {
				continue
			}
			return res.Val.(TaxonName)
		}
	}
}

// ResolveAll resolves distinct names and returns outcomes in the order
// names first appear. Empty names are ignored.
func (r *Resolver) ResolveAll(ctx context.Context, names []string) []TaxonName {
	distinct := dedupe(names)
	res := make([]TaxonName, len(distinct))
	if len(distinct) == 0 {
		return res
	}

	start := time.Now()
	slog.Info("Resolving scientific names",
		"names", humanize.Comma(int64(len(distinct))),
		"concurrency", r.concurrency,
	)

	var mu sync.Mutex
	var done int

	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for i, name := range distinct {
		g.Go(func() error {
			res[i] = r.Resolve(ctx, name)
			if r.progress != nil {
				mu.Lock()
				done++
				r.progress(done, len(distinct))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	slog.Info("Resolved scientific names",
		"names", humanize.Comma(int64(len(distinct))),
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return res
}

func (r *Resolver) lookup(ctx context.Context, name string) TaxonName {
	var res TaxonName
	err := r.policy.Do(ctx, func(ctx context.Context) error {
		reply, err := r.fetcher.Fetch(ctx, name)
		if err != nil {
			return err
		}
		res, err = classify(name, reply)
		return err
	})
	if err != nil {
		slog.Warn("Lookup failed", "name", name, "error", err)
		return TaxonName{Name: name, Status: LookupFailed, Err: err.Error()}
	}
	return res
}

func classify(name string, reply *Reply) (TaxonName, error) {
	res := TaxonName{Name: name}
	switch {
	case reply.StatusCode == http.StatusNoContent,
		reply.StatusCode == http.StatusBadRequest:
		res.Status = NotFound
		return res, nil
	case reply.StatusCode < 200 || reply.StatusCode > 299:
		return res, &StatusError{Name: name, StatusCode: reply.StatusCode}
	}

	body := bytes.TrimSpace(reply.Body)
	if len(body) == 0 {
		res.Status = NotFound
		return res, nil
	}

	var cands []Candidate
	enc := gnfmt.GNjson{}
	if err := enc.Decode(body, &cands); err != nil {
		return res, &DecodeError{Name: name, Err: err}
	}

	res.Matches = len(cands)
	if len(cands) == 0 {
		res.Status = NotFound
		return res, nil
	}

	first := cands[0]
	res.AuthorityStatus = first.Status
	res.ValidName = first.ValidName
	res.URL = first.URL
	res.AphiaID = first.AphiaID

	switch {
	case len(cands) > 1:
		res.Status = AmbiguousMultipleMatches
	case strings.EqualFold(first.Status, "accepted"):
		res.Status = Accepted
	default:
		res.Status = Unaccepted
	}
	return res, nil
}

func dedupe(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	var res []string
	for _, v := range names {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		res = append(res, v)
	}
	return res
}
