// Package pagination provides the page traversal strategies used by the
// Merit Aktiva extraction client.
//
// Merit has no uniform pagination protocol. Master data endpoints return
// their full result set in one response, while transactional endpoints are
// traversed in date windows (PeriodStart/PeriodEnd) capped at 90 days per
// request. A generic page-number strategy terminating on an empty page is
// included for endpoints that grow classic pagination.
//
// A Paginator produces the request parameters for each successive page and
// observes each page's outcome:
//
//	p, err := pagination.NewDateWindow(start, end, 30, pagination.DateTypeChanged)
//	for {
//		params, ok := p.Next()
//		if !ok {
//			break
//		}
//		records := fetchPage(params)
//		p.Observe(len(records))
//	}
//
// Paginators are single use: a fresh traversal needs a fresh paginator.
package pagination
