// Package linkcheck finds bookmarks whose URL no longer resolves.
package linkcheck

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/nikbrunner/stash/internal/logger"
	"github.com/nikbrunner/stash/internal/model"
)

// Status is the health of one URL.
type Status int

const (
	Healthy     Status = iota // 2xx or 3xx
	Dead                      // 404 or 410
	Unreachable               // network failure or any other status
)

func (s Status) String() string {
	switch s {
	case Healthy:
		return "healthy"
	case Dead:
		return "dead"
	default:
		return "unreachable"
	}
}

// Result is the outcome for one bookmark.
type Result struct {
	Bookmark   model.Bookmark
	Status     Status
	StatusCode int    // 0 when no response arrived
	Reason     string // short explanation for Unreachable
}

// ProgressFunc is called after each check.
type ProgressFunc func(done, total int, r Result)

// Options tunes a Checker.
type Options struct {
	Concurrency int
	Timeout     time.Duration // per request
	// Private lists domains where 404 usually means "login required", so a
	// 404 there is reported as Unreachable rather than Dead.
	Private []string
}

// Checker probes bookmark URLs with a pool of workers.
type Checker struct {
	client  *http.Client
	opts    Options
	private map[string]bool
	log     logger.Logger
}

// New builds a Checker. Zero options default to 8 workers and 10s per request.
func New(opts Options, log logger.Logger) *Checker {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 8
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if log == nil {
		log = logger.Nop()
	}

	private := make(map[string]bool, len(opts.Private))
	for _, d := range opts.Private {
		private[strings.ToLower(strings.TrimSpace(d))] = true
	}

	return &Checker{
		client: &http.Client{
			Timeout: opts.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
		opts:    opts,
		private: private,
		log:     log,
	}
}

// Check probes every bookmark and returns results in input order.
// onProgress may be nil. Cancelling ctx stops outstanding work; unchecked
// bookmarks are reported Unreachable.
func (c *Checker) Check(ctx context.Context, bookmarks []model.Bookmark, onProgress ProgressFunc) []Result {
	if len(bookmarks) == 0 {
		return nil
	}

	results := make([]Result, len(bookmarks))
	jobs := make(chan int)
	var wg sync.WaitGroup

	var progressMu sync.Mutex
	done := 0

	for w := 0; w < min(c.opts.Concurrency, len(bookmarks)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = c.checkOne(ctx, bookmarks[i])

				progressMu.Lock()
				done++
				if onProgress != nil {
					onProgress(done, len(bookmarks), results[i])
				}
				progressMu.Unlock()
			}
		}()
	}

feed:
	for i := range bookmarks {
		select {
		case jobs <- i:
		case <-ctx.Done():
			for j := i; j < len(bookmarks); j++ {
				results[j] = Result{Bookmark: bookmarks[j], Status: Unreachable, Reason: "Cancelled"}
			}
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	dead := 0
	for _, r := range results {
		if r.Status == Dead {
			dead++
		}
	}
	c.log.Info("link check finished",
		logger.Int("checked", len(results)), logger.Int("dead", dead))
	return results
}

func (c *Checker) checkOne(ctx context.Context, b model.Bookmark) Result {
	r := Result{Bookmark: b}

	// HEAD first; plenty of servers reject it, so fall back to GET.
	resp, err := c.do(ctx, http.MethodHead, b.URL)
	if err != nil || resp.StatusCode == http.StatusMethodNotAllowed {
		if resp != nil {
			resp.Body.Close()
		}
		resp, err = c.do(ctx, http.MethodGet, b.URL)
	}
	if err != nil {
		r.Status = Unreachable
		r.Reason = reason(err)
		c.log.Debug("link unreachable", logger.String("url", b.URL), logger.Error(err))
		return r
	}
	defer resp.Body.Close()

	r.StatusCode = resp.StatusCode
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 400:
		r.Status = Healthy
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		if c.isPrivate(b.URL) {
			r.Status = Unreachable
			r.Reason = "Possibly private (auth required)"
		} else {
			r.Status = Dead
		}
	default:
		r.Status = Unreachable
		r.Reason = http.StatusText(resp.StatusCode)
	}
	return r
}

func (c *Checker) do(ctx context.Context, method, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; stash-linkcheck/1.0)")
	return c.client.Do(req)
}

// isPrivate matches the host and its parent domains against Private.
func (c *Checker) isPrivate(rawURL string) bool {
	if len(c.private) == 0 {
		return false
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(parsed.Hostname())
	for host != "" {
		if c.private[host] {
			return true
		}
		_, parent, ok := strings.Cut(host, ".")
		if !ok {
			break
		}
		host = parent
	}
	return false
}

// reason turns transport errors into a short category.
func reason(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "Timeout"
	}
	if errors.Is(err, context.Canceled) {
		return "Cancelled"
	}

	msg := err.Error()
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "no such host"):
		return "DNS failure"
	case strings.Contains(lower, "timeout"):
		return "Timeout"
	case strings.Contains(lower, "connection refused"):
		return "Connection refused"
	case strings.Contains(lower, "certificate"):
		return "TLS/certificate error"
	case strings.Contains(lower, "network is unreachable"):
		return "Network unreachable"
	case strings.Contains(lower, "tls:"):
		return "TLS error"
	case strings.Contains(lower, "unsupported protocol scheme"):
		return "Not a web URL"
	default:
		return msg
	}
}

// DeadIDs returns the ids of the Dead results.
func DeadIDs(results []Result) []string {
	var ids []string
	for _, r := range results {
		if r.Status == Dead {
			ids = append(ids, r.Bookmark.ID)
		}
	}
	return ids
}
