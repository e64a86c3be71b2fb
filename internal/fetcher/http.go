package fetcher

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/net/html"
	"golang.org/x/time/rate"

	"github.com/fairwaylabs/clubtrack/internal/resilience"
)

// Options configures the HTTP fetcher.
type Options struct {
	// RequestsPerWindow and Window define the request budget shared by
	// every caller of one fetcher. Defaults: 30 requests per 60s.
	RequestsPerWindow int
	Window            time.Duration

	// RequestDelay is the pause after each successful fetch before the
	// result is returned. Default: 2s.
	RequestDelay time.Duration

	// MaxAttempts is the total number of attempts per URL including the
	// first. Default: 3.
	MaxAttempts int

	// InitialBackoff and MaxBackoff bound the retry backoff ramp.
	// Defaults: 1s and 30s.
	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	// Timeout is the per-request HTTP timeout. Default: 30s.
	Timeout time.Duration

	// UserAgents is the pool a random agent is drawn from per request.
	UserAgents []string
}

var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:127.0) Gecko/20100101 Firefox/127.0",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
}

// HTTPFetcher implements Fetcher using net/http with a process-wide rate
// limiter, retry with exponential backoff, and a politeness delay after
// each successful fetch. Safe for concurrent use.
type HTTPFetcher struct {
	client  *http.Client
	opts    Options
	limiter *rate.Limiter
	retry   resilience.RetryConfig
}

// New creates an HTTPFetcher with the given options.
func New(opts Options) *HTTPFetcher {
	if opts.RequestsPerWindow <= 0 {
		opts.RequestsPerWindow = 30
	}
	if opts.Window <= 0 {
		opts.Window = time.Minute
	}
	if opts.RequestDelay == 0 {
		opts.RequestDelay = 2 * time.Second
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = time.Second
	}
	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = 30 * time.Second
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if len(opts.UserAgents) == 0 {
		opts.UserAgents = defaultUserAgents
	}

	transport := &http.Transport{
		MaxIdleConnsPerHost: 10,
		MaxConnsPerHost:     20,
		IdleConnTimeout:     90 * time.Second,
	}

	// Token refill spreads the budget across the window; the burst lets a
	// fresh fetcher use the full window allowance up front.
	perSecond := rate.Limit(float64(opts.RequestsPerWindow) / opts.Window.Seconds())

	return &HTTPFetcher{
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		opts:    opts,
		limiter: rate.NewLimiter(perSecond, opts.RequestsPerWindow),
		retry: resilience.RetryConfig{
			MaxAttempts:    opts.MaxAttempts,
			InitialBackoff: opts.InitialBackoff,
			MaxBackoff:     opts.MaxBackoff,
			Multiplier:     2.0,
			ShouldRetry:    retryableFetch,
			OnRetry:        resilience.RetryLogger("fetcher", "fetch"),
		},
	}
}

// Fetch retrieves the URL and returns the parsed HTML document.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string, params url.Values) (*Document, error) {
	target, err := buildURL(rawURL, params)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: parse url %s", rawURL)
	}

	doc, err := resilience.DoVal(ctx, f.retry, func(ctx context.Context) (*Document, error) {
		return f.fetchOnce(ctx, target)
	})
	if err != nil {
		return nil, err
	}

	// Politeness delay between successful requests.
	if err := f.pause(ctx); err != nil {
		return nil, err
	}
	return doc, nil
}

func (f *HTTPFetcher) fetchOnce(ctx context.Context, target string) (*Document, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "fetcher: rate limiter wait")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: create request")
	}
	f.setHeaders(req)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: target, Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &FetchError{URL: target, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: target, Err: err}
	}

	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, &FetchError{URL: target, Err: err, Permanent: true}
	}

	return &Document{URL: target, Root: root}, nil
}

func (f *HTTPFetcher) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", f.opts.UserAgents[rand.IntN(len(f.opts.UserAgents))])
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
}

func (f *HTTPFetcher) pause(ctx context.Context) error {
	if f.opts.RequestDelay <= 0 {
		return nil
	}
	t := time.NewTimer(f.opts.RequestDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return eris.Wrap(ctx.Err(), "fetcher: politeness delay")
	case <-t.C:
		return nil
	}
}

func buildURL(rawURL string, params url.Values) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if len(params) > 0 {
		q := u.Query()
		for k, vs := range params {
			q[k] = vs
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func retryableFetch(err error) bool {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Transient()
	}
	return resilience.IsTransient(err)
}
