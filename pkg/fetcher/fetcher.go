// Package fetcher implements rate-limited, paginated extraction of Merit
// Aktiva records as a lazy sequence.
//
// A Fetch call yields records one page at a time: pages are requested on
// demand as the caller advances the iterator, so a full result set is never
// buffered in memory. The underlying client enforces the shared rate budget
// and retry policy; the fetcher owns pagination and record decoding.
package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/merittools/aktiva-client/pkg/cache"
	"github.com/merittools/aktiva-client/pkg/client"
	"github.com/merittools/aktiva-client/pkg/dates"
	"github.com/merittools/aktiva-client/pkg/endpoint"
	"github.com/merittools/aktiva-client/pkg/pagination"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Record is one extracted entity. The schema is defined by the API, not by
// this client; records transit as opaque field maps.
type Record map[string]any

// DefaultIntervalDays is the window size used for date-window endpoints.
const DefaultIntervalDays = 30

// Fetcher extracts records from catalog endpoints.
type Fetcher struct {
	client   *client.Client
	cache    *cache.Manager
	cacheTTL time.Duration
	logger   zerolog.Logger
	now      func() time.Time
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithCache enables response caching for master data endpoints. Entries
// expire after ttl. Date-window endpoints are never cached.
func WithCache(manager *cache.Manager, ttl time.Duration) Option {
	return func(f *Fetcher) {
		f.cache = manager
		f.cacheTTL = ttl
	}
}

// New creates a fetcher on top of an Aktiva client.
func New(c *client.Client, opts ...Option) *Fetcher {
	f := &Fetcher{
		client: c,
		logger: log.With().Str("component", "aktiva-fetcher").Logger(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// SetClock overrides the time source used for default extraction periods
// (for testing).
func (f *Fetcher) SetClock(now func() time.Time) {
	f.now = now
}

// FetchOption configures a single Fetch call.
type FetchOption func(*fetchOpts)

type fetchOpts struct {
	since        time.Time
	until        time.Time
	intervalDays int
}

// WithSince bounds incremental extraction: only windows from the given date
// onward are requested. The boundary day itself is included.
func WithSince(since time.Time) FetchOption {
	return func(o *fetchOpts) { o.since = since }
}

// WithUntil bounds the end of the extraction period (defaults to today).
func WithUntil(until time.Time) FetchOption {
	return func(o *fetchOpts) { o.until = until }
}

// WithIntervalDays overrides the date window size (1..90 days).
func WithIntervalDays(days int) FetchOption {
	return func(o *fetchOpts) { o.intervalDays = days }
}

// Fetch returns a lazy record sequence for the endpoint. The sequence is
// finite, yields records in page order, and cannot be restarted mid-stream;
// a fresh Fetch call starts pagination over. Terminal failures are reported
// through the iterator's Err method; records already yielded before a
// failure stay delivered.
func (f *Fetcher) Fetch(ctx context.Context, ep endpoint.Endpoint, opts ...FetchOption) *Records {
	o := fetchOpts{intervalDays: DefaultIntervalDays}
	for _, opt := range opts {
		opt(&o)
	}

	r := &Records{ctx: ctx, fetcher: f, endpoint: ep}

	if err := ep.Validate(); err != nil {
		r.err = err
		return r
	}
	if !o.since.IsZero() && !ep.Incremental {
		r.err = fmt.Errorf("endpoint %s does not support incremental extraction", ep.Name)
		return r
	}

	p, err := f.paginatorFor(ep, o)
	if err != nil {
		r.err = &PaginationError{Endpoint: ep.Name, Err: err}
		return r
	}
	r.paginator = p
	return r
}

// FetchAll drains a Fetch call into a slice. Intended for small master data
// endpoints; date-window extractions should consume the iterator lazily.
func (f *Fetcher) FetchAll(ctx context.Context, ep endpoint.Endpoint, opts ...FetchOption) ([]Record, error) {
	it := f.Fetch(ctx, ep, opts...)
	var records []Record
	for it.Next() {
		records = append(records, it.Record())
	}
	if err := it.Err(); err != nil {
		return records, err
	}
	return records, nil
}

// paginatorFor builds the traversal for an endpoint and fetch options.
func (f *Fetcher) paginatorFor(ep endpoint.Endpoint, o fetchOpts) (pagination.Paginator, error) {
	switch ep.Pagination {
	case endpoint.SinglePage:
		return pagination.NewSinglePage(nil), nil
	case endpoint.PageNumber:
		return pagination.NewPageNumber("Page"), nil
	case endpoint.DateWindow:
		start, end := dates.DefaultPeriod(f.now())
		if !o.since.IsZero() {
			start = o.since
		}
		if !o.until.IsZero() {
			end = o.until
		}
		return pagination.NewDateWindow(start, end, o.intervalDays, pagination.DateTypeChanged)
	default:
		return nil, fmt.Errorf("unknown pagination style %q", ep.Pagination)
	}
}

// fetchPage requests one page, consulting the master data cache when enabled.
func (f *Fetcher) fetchPage(ctx context.Context, ep endpoint.Endpoint, params map[string]any) ([]Record, error) {
	path := ep.RequestPath()

	cacheable := f.cache != nil && ep.Pagination == endpoint.SinglePage && !ep.Incremental
	var key cache.Key
	if cacheable {
		key = cache.Key{Path: path, Params: params}
		if entry, err := f.cache.Get(ctx, key); err == nil {
			f.logger.Debug().Str("endpoint", ep.Name).Msg("Serving page from cache")
			return decodePage(ep.Name, entry.Data)
		} else if err != cache.ErrCacheMiss {
			f.logger.Warn().Err(err).Str("endpoint", ep.Name).Msg("Cache get error")
		}
	}

	data, err := f.client.Call(ctx, path, params)
	if err != nil {
		return nil, err
	}

	records, err := decodePage(ep.Name, data)
	if err != nil {
		return nil, err
	}

	if cacheable {
		if err := f.cache.Set(ctx, key, cache.NewEntry(data, f.cacheTTL)); err != nil {
			f.logger.Warn().Err(err).Str("endpoint", ep.Name).Msg("Failed to cache page")
		}
	}

	return records, nil
}

// decodePage parses a page payload into records. Merit returns a JSON array
// per page; anything else means the response cannot be paginated over.
func decodePage(name string, data []byte) ([]Record, error) {
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, &PaginationError{
			Endpoint: name,
			Err:      fmt.Errorf("page payload is not a record array: %w", err),
		}
	}
	return records, nil
}
