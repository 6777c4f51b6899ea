package taxon_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gnames/dwcheck/pkg/finding"
	"github.com/gnames/dwcheck/pkg/taxon"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ taxon.Fetcher = (*fakeFetcher)(nil)

// fakeFetcher fails a name the given number of times, then answers with
// a prepared reply.
type fakeFetcher struct {
	mu       sync.Mutex
	replies  map[string]*taxon.Reply
	failures map[string]int
	calls    map[string]int
	delay    time.Duration
	total    atomic.Int32
}

func newFake() *fakeFetcher {
	return &fakeFetcher{
		replies:  make(map[string]*taxon.Reply),
		failures: make(map[string]int),
		calls:    make(map[string]int),
	}
}

func (f *fakeFetcher) Fetch(ctx context.Context, name string) (*taxon.Reply, error) {
	f.total.Add(1)
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.delay):
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
	if f.failures[name] > 0 {
		f.failures[name]--
		return nil, errors.New("connection reset by peer")
	}
	if res, ok := f.replies[name]; ok {
		return res, nil
	}
	return &taxon.Reply{StatusCode: http.StatusNoContent}, nil
}

func (f *fakeFetcher) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func record(name, status, valid string, id int) string {
	return fmt.Sprintf(
		`{"AphiaID":%d,"url":"https://www.marinespecies.org/aphia.php?p=taxdetails&id=%d",`+
			`"scientificname":%q,"status":%q,"valid_name":%q,"valid_AphiaID":%d,"rank":"Species"}`,
		id, id, name, status, valid, id,
	)
}

func okReply(records ...string) *taxon.Reply {
	body := "["
	for i, v := range records {
		if i > 0 {
			body += ","
		}
		body += v
	}
	body += "]"
	return &taxon.Reply{StatusCode: http.StatusOK, Body: []byte(body)}
}

func fastPolicy() taxon.RetryPolicy {
	p := taxon.DefaultRetryPolicy()
	p.BaseDelay = time.Millisecond
	p.MaxDelay = 5 * time.Millisecond
	p.Timeout = time.Second
	return p
}

func TestStatus(t *testing.T) {
	assert.Equal(t, "accepted", taxon.Accepted.String())
	assert.Equal(t, "ambiguous_multiple_matches", taxon.AmbiguousMultipleMatches.String())
	assert.Equal(t, "lookup_failed", taxon.LookupFailed.String())

	var s taxon.Status
	require.NoError(t, s.UnmarshalText([]byte("not_found")))
	assert.Equal(t, taxon.NotFound, s)
	assert.Error(t, s.UnmarshalText([]byte("maybe")))

	assert.Equal(t, finding.Pass, taxon.TaxonName{Status: taxon.Accepted}.Severity())
	for _, v := range []taxon.Status{
		taxon.Synonym, taxon.Unaccepted, taxon.NotFound,
		taxon.AmbiguousMultipleMatches, taxon.LookupFailed,
	} {
		assert.Equal(t, finding.Warning, taxon.TaxonName{Status: v}.Severity(), v.String())
	}
}

func TestResolveAccepted(t *testing.T) {
	f := newFake()
	f.replies["Gadus morhua"] = okReply(record("Gadus morhua", "accepted", "Gadus morhua", 126436))

	r := taxon.NewResolver(f, nil, taxon.OptRetryPolicy(fastPolicy()))
	tn := r.Resolve(context.Background(), "Gadus morhua")
	assert.Equal(t, taxon.Accepted, tn.Status)
	assert.Equal(t, 126436, tn.AphiaID)
	assert.Equal(t, 1, tn.Matches)
	assert.Equal(t, finding.Pass, tn.Severity())
}

func TestResolveUnaccepted(t *testing.T) {
	f := newFake()
	f.replies["Abra albus"] = okReply(record("Abra albus", "unaccepted", "Abra alba", 141433))

	r := taxon.NewResolver(f, nil, taxon.OptRetryPolicy(fastPolicy()))
	tn := r.Resolve(context.Background(), "Abra albus")
	assert.Equal(t, taxon.Unaccepted, tn.Status)
	assert.Equal(t, "unaccepted", tn.AuthorityStatus)
	assert.Equal(t, "Abra alba", tn.ValidName)

	fnd := tn.Finding("occurrence")
	assert.Equal(t, finding.Warning, fnd.Severity)
	assert.Equal(t, finding.Taxonomic, fnd.Category)
	assert.Contains(t, fnd.Message, "Abra alba")
	assert.Contains(t, fnd.Message, tn.URL)
}

func TestResolveSynonymStatus(t *testing.T) {
	f := newFake()
	f.replies["Mola ramsayi"] = okReply(record("Mola ramsayi", "synonym", "Mola alexandrini", 1))

	r := taxon.NewResolver(f, nil, taxon.OptRetryPolicy(fastPolicy()))
	tn := r.Resolve(context.Background(), "Mola ramsayi")
	assert.Equal(t, taxon.Unaccepted, tn.Status)
	assert.Equal(t, "synonym", tn.AuthorityStatus)
	assert.Contains(t, tn.Finding("occurrence").Message, "is synonym")
}

func TestResolveNotFound(t *testing.T) {
	f := newFake()
	f.replies["Bad request"] = &taxon.Reply{StatusCode: http.StatusBadRequest}
	f.replies["Empty list"] = okReply()
	f.replies["Empty body"] = &taxon.Reply{StatusCode: http.StatusOK}

	r := taxon.NewResolver(f, nil, taxon.OptRetryPolicy(fastPolicy()))
	for _, v := range []string{"Nothing", "Bad request", "Empty list", "Empty body"} {
		tn := r.Resolve(context.Background(), v)
		assert.Equal(t, taxon.NotFound, tn.Status, v)
		assert.Equal(t, 1, f.count(v), v)
	}
}

func TestResolveAmbiguous(t *testing.T) {
	f := newFake()
	f.replies["Abra"] = okReply(
		record("Abra", "accepted", "Abra", 138474),
		record("Abra", "unaccepted", "Abrina", 2),
	)

	r := taxon.NewResolver(f, nil, taxon.OptRetryPolicy(fastPolicy()))
	tn := r.Resolve(context.Background(), "Abra")
	assert.Equal(t, taxon.AmbiguousMultipleMatches, tn.Status)
	assert.Equal(t, 2, tn.Matches)
	assert.Equal(t, 138474, tn.AphiaID)
	assert.Equal(t, "accepted", tn.AuthorityStatus)
	assert.Equal(t, finding.Warning, tn.Severity())
	assert.Contains(t, tn.Finding("occurrence").Message, "2 matches")
}

func TestResolveRetries(t *testing.T) {
	tests := []struct {
		msg      string
		failures int
		status   taxon.Status
		calls    int
	}{
		{"no failures", 0, taxon.Accepted, 1},
		{"one failure", 1, taxon.Accepted, 2},
		{"two failures", 2, taxon.Accepted, 3},
		{"exhausted", 3, taxon.LookupFailed, 3},
	}

	for _, v := range tests {
		f := newFake()
		f.replies["Gadus morhua"] = okReply(record("Gadus morhua", "accepted", "Gadus morhua", 1))
		f.failures["Gadus morhua"] = v.failures

		r := taxon.NewResolver(f, nil, taxon.OptRetryPolicy(fastPolicy()))
		tn := r.Resolve(context.Background(), "Gadus morhua")
		assert.Equal(t, v.status, tn.Status, v.msg)
		assert.Equal(t, v.calls, f.count("Gadus morhua"), v.msg)
		if v.status == taxon.LookupFailed {
			assert.Contains(t, tn.Err, "connection reset", v.msg)
		}
	}
}

func TestResolveServerErrors(t *testing.T) {
	f := newFake()
	f.replies["Gadus morhua"] = &taxon.Reply{StatusCode: http.StatusServiceUnavailable}
	f.replies["Broken"] = &taxon.Reply{StatusCode: http.StatusOK, Body: []byte("<html>")}

	r := taxon.NewResolver(f, nil, taxon.OptRetryPolicy(fastPolicy()))
	tn := r.Resolve(context.Background(), "Gadus morhua")
	assert.Equal(t, taxon.LookupFailed, tn.Status)
	assert.Equal(t, 3, f.count("Gadus morhua"))
	assert.Contains(t, tn.Err, "503")

	tn = r.Resolve(context.Background(), "Broken")
	assert.Equal(t, taxon.LookupFailed, tn.Status)
	assert.Equal(t, 3, f.count("Broken"))
}

func TestResolveCacheLaw(t *testing.T) {
	f := newFake()
	f.replies["Gadus morhua"] = okReply(record("Gadus morhua", "accepted", "Gadus morhua", 1))
	cache := taxon.NewCache(0)

	r := taxon.NewResolver(f, cache, taxon.OptRetryPolicy(fastPolicy()))
	first := r.Resolve(context.Background(), "Gadus morhua")
	second := r.Resolve(context.Background(), "Gadus morhua")
	assert.Equal(t, first, second)
	assert.Equal(t, 1, f.count("Gadus morhua"))
	assert.Equal(t, 1, cache.Len())

	// keys are case-sensitive
	r.Resolve(context.Background(), "gadus morhua")
	assert.Equal(t, 1, f.count("gadus morhua"))
	assert.Equal(t, 2, cache.Len())

	cache.Remove("Gadus morhua")
	r.Resolve(context.Background(), "Gadus morhua")
	assert.Equal(t, 2, f.count("Gadus morhua"))
}

func TestResolveSingleFlight(t *testing.T) {
	f := newFake()
	f.delay = 50 * time.Millisecond
	f.replies["Gadus morhua"] = okReply(record("Gadus morhua", "accepted", "Gadus morhua", 1))

	r := taxon.NewResolver(f, nil, taxon.OptRetryPolicy(fastPolicy()))
	var wg sync.WaitGroup
	res := make([]taxon.TaxonName, 10)
	for i := range res {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res[i] = r.Resolve(context.Background(), "Gadus morhua")
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, f.count("Gadus morhua"))
	for _, v := range res {
		assert.Equal(t, taxon.Accepted, v.Status)
	}
}

func TestResolveCancelled(t *testing.T) {
	f := newFake()
	f.delay = time.Second
	cache := taxon.NewCache(0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := taxon.NewResolver(f, cache, taxon.OptRetryPolicy(fastPolicy()))
	tn := r.Resolve(ctx, "Gadus morhua")
	assert.Equal(t, taxon.LookupFailed, tn.Status)
	assert.Equal(t, 0, cache.Len())
}

func TestResolveSharedCancelled(t *testing.T) {
	f := newFake()
	f.delay = 100 * time.Millisecond
	f.replies["Gadus morhua"] = okReply(record("Gadus morhua", "accepted", "Gadus morhua", 1))
	cache := taxon.NewCache(0)
	r := taxon.NewResolver(f, cache, taxon.OptRetryPolicy(fastPolicy()))

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan taxon.TaxonName)
	go func() {
		first <- r.Resolve(ctx, "Gadus morhua")
	}()

	// let the first caller start the lookup
	time.Sleep(20 * time.Millisecond)
	second := make(chan taxon.TaxonName)
	go func() {
		second <- r.Resolve(context.Background(), "Gadus morhua")
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()

	assert.Equal(t, taxon.LookupFailed, (<-first).Status)
	tn := <-second
	assert.Equal(t, taxon.Accepted, tn.Status)
	assert.Equal(t, 1, f.count("Gadus morhua"))
	assert.Equal(t, 1, cache.Len())
}

func TestResolveAll(t *testing.T) {
	f := newFake()
	f.replies["Gadus morhua"] = okReply(record("Gadus morhua", "accepted", "Gadus morhua", 1))
	f.replies["Abra albus"] = okReply(record("Abra albus", "unaccepted", "Abra alba", 2))

	var calls []int
	r := taxon.NewResolver(f, nil,
		taxon.OptRetryPolicy(fastPolicy()),
		taxon.OptConcurrency(2),
		taxon.OptProgress(func(done, total int) {
			assert.Equal(t, 3, total)
			calls = append(calls, done)
		}),
	)

	names := []string{"Abra albus", "Gadus morhua", "", "Abra albus", "Unknown", "Gadus morhua"}
	res := r.ResolveAll(context.Background(), names)
	require.Len(t, res, 3)
	assert.Equal(t, "Abra albus", res[0].Name)
	assert.Equal(t, taxon.Unaccepted, res[0].Status)
	assert.Equal(t, "Gadus morhua", res[1].Name)
	assert.Equal(t, taxon.Accepted, res[1].Status)
	assert.Equal(t, "Unknown", res[2].Name)
	assert.Equal(t, taxon.NotFound, res[2].Status)
	assert.Equal(t, []int{1, 2, 3}, calls)
	assert.Equal(t, int32(3), f.total.Load())

	assert.Empty(t, r.ResolveAll(context.Background(), nil))
}

func TestCache(t *testing.T) {
	for _, size := range []int{0, 2} {
		msg := fmt.Sprintf("size %d", size)
		c := taxon.NewCache(size)
		c.Set(taxon.TaxonName{Name: "A", Status: taxon.Accepted})
		c.Set(taxon.TaxonName{Name: "B", Status: taxon.NotFound})
		res, ok := c.Get("A")
		assert.True(t, ok, msg)
		assert.Equal(t, taxon.Accepted, res.Status, msg)
		_, ok = c.Get("a")
		assert.False(t, ok, msg)
		assert.Equal(t, 2, c.Len(), msg)
		c.Remove("A")
		assert.Equal(t, 1, c.Len(), msg)
	}

	t.Run("bounded cache evicts", func(t *testing.T) {
		c := taxon.NewCache(2)
		c.Set(taxon.TaxonName{Name: "A"})
		c.Set(taxon.TaxonName{Name: "B"})
		c.Get("A")
		c.Set(taxon.TaxonName{Name: "C"})
		assert.Equal(t, 2, c.Len())
		_, ok := c.Get("B")
		assert.False(t, ok)
		_, ok = c.Get("A")
		assert.True(t, ok)
	})
}

func TestRetryPolicy(t *testing.T) {
	p := taxon.RetryPolicy{
		MaxAttempts: 5,
		BaseDelay:   100 * time.Millisecond,
		MaxDelay:    time.Second,
	}
	assert.Equal(t, time.Duration(0), p.Delay(0))
	assert.Equal(t, 100*time.Millisecond, p.Delay(1))
	assert.Equal(t, 200*time.Millisecond, p.Delay(2))
	assert.Equal(t, 400*time.Millisecond, p.Delay(3))
	assert.Equal(t, 800*time.Millisecond, p.Delay(4))
	assert.Equal(t, time.Second, p.Delay(5))
	assert.Equal(t, time.Second, p.Delay(30))

	t.Run("non-retryable errors stop", func(t *testing.T) {
		var n int
		p := fastPolicy()
		err := p.Do(context.Background(), func(context.Context) error {
			n++
			return &taxon.StatusError{StatusCode: http.StatusBadRequest}
		})
		assert.Error(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("retryable errors", func(t *testing.T) {
		tests := []struct {
			err error
			ok  bool
		}{
			{errors.New("timeout"), true},
			{&taxon.StatusError{StatusCode: 500}, true},
			{&taxon.StatusError{StatusCode: 429}, true},
			{&taxon.StatusError{StatusCode: 204}, false},
			{&taxon.StatusError{StatusCode: 400}, false},
			{context.Canceled, false},
			{nil, false},
		}
		for _, v := range tests {
			assert.Equal(t, v.ok, taxon.IsRetryable(v.err), fmt.Sprint(v.err))
		}
	})
}
