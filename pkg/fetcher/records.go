package fetcher

import (
	"context"
	"fmt"

	"github.com/merittools/aktiva-client/pkg/endpoint"
	"github.com/merittools/aktiva-client/pkg/pagination"
)

// PaginationError reports a page payload that could not be traversed, for
// example a response body that is not a record array.
type PaginationError struct {
	Endpoint string
	Err      error
}

func (e *PaginationError) Error() string {
	return fmt.Sprintf("pagination failed for %s: %v", e.Endpoint, e.Err)
}

func (e *PaginationError) Unwrap() error {
	return e.Err
}

// Records iterates over the records of one Fetch call, in page order.
// Usage follows the scanner pattern:
//
//	it := f.Fetch(ctx, ep)
//	for it.Next() {
//	    rec := it.Record()
//	    ...
//	}
//	if err := it.Err(); err != nil {
//	    ...
//	}
//
// Records is not safe for concurrent use.
type Records struct {
	ctx       context.Context
	fetcher   *Fetcher
	endpoint  endpoint.Endpoint
	paginator pagination.Paginator

	page []Record
	idx  int
	err  error
	done bool
}

// Next advances to the next record, fetching the next page when the current
// one is exhausted. It returns false when the sequence ends or a terminal
// error occurs.
func (r *Records) Next() bool {
	if r.err != nil || r.done {
		return false
	}

	r.idx++
	for r.idx >= len(r.page) {
		if err := r.ctx.Err(); err != nil {
			r.err = err
			return false
		}

		params, ok := r.paginator.Next()
		if !ok {
			r.done = true
			return false
		}

		page, err := r.fetcher.fetchPage(r.ctx, r.endpoint, r.mergeParams(params))
		if err != nil {
			r.err = err
			return false
		}
		r.paginator.Observe(len(page))
		r.page = page
		r.idx = 0
	}
	return true
}

// Record returns the current record. Valid only after a true Next.
func (r *Records) Record() Record {
	if r.idx < 0 || r.idx >= len(r.page) {
		return nil
	}
	return r.page[r.idx]
}

// Err returns the terminal error of the sequence, if any. A fully drained
// sequence returns nil.
func (r *Records) Err() error {
	return r.err
}

// mergeParams layers page parameters over the endpoint's fixed parameters.
func (r *Records) mergeParams(pageParams map[string]any) map[string]any {
	merged := make(map[string]any, len(r.endpoint.Params)+len(pageParams))
	for k, v := range r.endpoint.Params {
		merged[k] = v
	}
	for k, v := range pageParams {
		merged[k] = v
	}
	return merged
}
