package ioworms_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gnames/dwcheck/internal/ioworms"
	"github.com/gnames/dwcheck/pkg/config"
	"github.com/gnames/dwcheck/pkg/taxon"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const abraAlba = `[{"AphiaID":141433,
"url":"https://www.marinespecies.org/aphia.php?p=taxdetails&id=141433",
"scientificname":"Abra alba","status":"accepted",
"valid_AphiaID":141433,"valid_name":"Abra alba","rank":"Species"}]`

func newServer(t *testing.T, h http.HandlerFunc) (*httptest.Server, config.AuthorityConfig) {
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	cfg := config.New().Authority
	cfg.URL = srv.URL + "/rest/"
	cfg.RateLimit = 0
	cfg.TimeoutSec = 5
	return srv, cfg
}

func TestURL(t *testing.T) {
	cfg := config.New().Authority
	no := false
	cfg.MarineOnly = &no
	f := ioworms.New(cfg)
	assert.Equal(t,
		"https://www.marinespecies.org/rest/AphiaRecordsByName/"+
			"Abra%20alba?like=true&marine_only=false",
		f.URL("Abra alba"),
	)
}

func TestFetch(t *testing.T) {
	var mu sync.Mutex
	var ua, path, query string
	_, cfg := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		ua = r.Header.Get("User-Agent")
		path = r.URL.Path
		query = r.URL.RawQuery
		if strings.HasSuffix(path, "/Abra alba") {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(abraAlba))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	f := ioworms.New(cfg)

	reply, err := f.Fetch(context.Background(), "Abra alba")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, reply.StatusCode)
	assert.Contains(t, string(reply.Body), "141433")
	mu.Lock()
	assert.True(t, strings.HasPrefix(ua, "dwcheck/"))
	assert.Equal(t, "/rest/AphiaRecordsByName/Abra alba", path)
	assert.Equal(t, "like=true&marine_only=true", query)
	mu.Unlock()

	reply, err = f.Fetch(context.Background(), "Unknownia")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, reply.StatusCode)
	assert.Empty(t, reply.Body)
}

func TestFetchErrors(t *testing.T) {
	t.Run("no server", func(t *testing.T) {
		srv, cfg := newServer(t, func(w http.ResponseWriter, r *http.Request) {})
		srv.Close()
		_, err := ioworms.New(cfg).Fetch(context.Background(), "Abra alba")
		assert.Error(t, err)
		assert.True(t, taxon.IsRetryable(err))
	})

	t.Run("cancelled", func(t *testing.T) {
		_, cfg := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(abraAlba))
		})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := ioworms.New(cfg).Fetch(ctx, "Abra alba")
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, taxon.IsRetryable(err))
	})
}

func TestRateLimit(t *testing.T) {
	var calls atomic.Int32
	_, cfg := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNoContent)
	})
	cfg.RateLimit = 20
	f := ioworms.New(cfg)

	start := time.Now()
	for range 3 {
		_, err := f.Fetch(context.Background(), "Abra alba")
		require.NoError(t, err)
	}
	// burst of 1, two waits of 50ms
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
	assert.Equal(t, int32(3), calls.Load())
}

func TestResolver(t *testing.T) {
	var calls atomic.Int32
	_, cfg := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		switch {
		case strings.HasSuffix(r.URL.Path, "/Unknownia"):
			w.WriteHeader(http.StatusNoContent)
		case n == 1:
			w.WriteHeader(http.StatusServiceUnavailable)
		default:
			w.Write([]byte(abraAlba))
		}
	})

	policy := taxon.DefaultRetryPolicy()
	policy.BaseDelay = time.Millisecond
	r := taxon.NewResolver(ioworms.New(cfg), nil,
		taxon.OptRetryPolicy(policy))

	res := r.ResolveAll(context.Background(),
		[]string{"Abra alba", "Abra alba"})
	require.Len(t, res, 1)
	assert.Equal(t, taxon.Accepted, res[0].Status)
	assert.Equal(t, 141433, res[0].AphiaID)
	assert.Equal(t, int32(2), calls.Load())

	tn := r.Resolve(context.Background(), "Unknownia")
	assert.Equal(t, taxon.NotFound, tn.Status)
}
