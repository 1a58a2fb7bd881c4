package pagination

// Paginator walks a paginated result set. Implementations are not safe for
// concurrent use and cannot be restarted once exhausted.
type Paginator interface {
	// Next returns the request parameters for the next page. ok is false
	// when the traversal is complete.
	Next() (params map[string]any, ok bool)

	// Observe consumes the outcome of the page returned by the previous
	// Next call, letting the paginator decide whether more pages exist.
	Observe(recordCount int)
}

// SinglePage fetches exactly one page with fixed parameters. Used by all
// Merit master data endpoints.
type SinglePage struct {
	params map[string]any
	done   bool
}

// NewSinglePage creates a single page traversal with the given parameters
// (may be nil).
func NewSinglePage(params map[string]any) *SinglePage {
	return &SinglePage{params: params}
}

// Next implements Paginator.
func (p *SinglePage) Next() (map[string]any, bool) {
	if p.done {
		return nil, false
	}
	p.done = true
	if p.params == nil {
		return map[string]any{}, true
	}
	params := make(map[string]any, len(p.params))
	for k, v := range p.params {
		params[k] = v
	}
	return params, true
}

// Observe implements Paginator.
func (p *SinglePage) Observe(int) {}

// PageNumber increments a page parameter until the server returns an empty
// page.
type PageNumber struct {
	param string
	page  int
	done  bool
}

// NewPageNumber creates a page-number traversal starting at page 1. param
// names the request parameter carrying the page number.
func NewPageNumber(param string) *PageNumber {
	return &PageNumber{param: param, page: 1}
}

// Next implements Paginator.
func (p *PageNumber) Next() (map[string]any, bool) {
	if p.done {
		return nil, false
	}
	return map[string]any{p.param: p.page}, true
}

// Observe implements Paginator. An empty page ends the traversal.
func (p *PageNumber) Observe(recordCount int) {
	if recordCount == 0 {
		p.done = true
		return
	}
	p.page++
}
