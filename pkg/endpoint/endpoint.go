// Package endpoint describes the Merit Aktiva API resources available for
// extraction. Descriptors are immutable and defined once per resource.
package endpoint

import (
	"fmt"
	"strings"
)

// Version identifies the Merit API generation an endpoint belongs to.
type Version string

const (
	V1 Version = "v1"
	V2 Version = "v2"
)

// PaginationStyle selects how a resource's result set is traversed.
type PaginationStyle string

const (
	// SinglePage resources return their full result set in one response.
	SinglePage PaginationStyle = "single_page"

	// DateWindow resources are traversed in PeriodStart/PeriodEnd windows.
	DateWindow PaginationStyle = "date_window"

	// PageNumber resources are traversed by incrementing a page parameter
	// until an empty page is returned.
	PageNumber PaginationStyle = "page_number"
)

// Endpoint is a static description of one extractable API resource.
type Endpoint struct {
	// Name is the resource name used for output and state (e.g. "customers").
	Name string

	// Version selects the API generation (v1 or v2).
	Version Version

	// Path is the resource path without the version prefix (e.g. "getcustomers").
	Path string

	// Pagination selects the traversal style.
	Pagination PaginationStyle

	// PrimaryKey names the identifying fields of a record, when known.
	PrimaryKey []string

	// Params are static request parameters sent on every page.
	Params map[string]any

	// Incremental marks resources that support date-bounded extraction
	// via the ChangedDate cursor.
	Incremental bool
}

// RequestPath returns the versioned request path (e.g. "v2/getinvoices").
func (e Endpoint) RequestPath() string {
	return string(e.Version) + "/" + strings.TrimPrefix(e.Path, "/")
}

// Validate checks the descriptor for internal consistency.
func (e Endpoint) Validate() error {
	if e.Name == "" {
		return fmt.Errorf("endpoint name is required")
	}
	if e.Version != V1 && e.Version != V2 {
		return fmt.Errorf("endpoint %s: unknown api version %q", e.Name, e.Version)
	}
	if e.Path == "" {
		return fmt.Errorf("endpoint %s: path is required", e.Name)
	}
	switch e.Pagination {
	case SinglePage, DateWindow, PageNumber:
	default:
		return fmt.Errorf("endpoint %s: unknown pagination style %q", e.Name, e.Pagination)
	}
	if e.Incremental && e.Pagination != DateWindow {
		return fmt.Errorf("endpoint %s: incremental extraction requires date_window pagination", e.Name)
	}
	return nil
}
