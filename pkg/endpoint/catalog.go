package endpoint

// Catalog returns the full set of Merit Aktiva resources the client knows
// how to extract. Master data resources are single page; transactional
// resources are traversed in date windows and support incremental loading
// on ChangedDate.
func Catalog() []Endpoint {
	return []Endpoint{
		// Master data.
		{Name: "accounts", Version: V1, Path: "getaccounts", Pagination: SinglePage, PrimaryKey: []string{"account_id"}},
		{Name: "departments", Version: V1, Path: "getdepartments", Pagination: SinglePage, PrimaryKey: []string{"code"}},
		{Name: "items", Version: V1, Path: "getitems", Pagination: SinglePage, PrimaryKey: []string{"item_id"}},
		{Name: "item_groups", Version: V2, Path: "getitemgroups", Pagination: SinglePage},
		{Name: "banks", Version: V1, Path: "getbanks", Pagination: SinglePage, PrimaryKey: []string{"bank_id"}},
		{Name: "units", Version: V1, Path: "getunits", Pagination: SinglePage, PrimaryKey: []string{"code"}},
		{Name: "dimensions", Version: V2, Path: "getdimensions", Pagination: SinglePage, PrimaryKey: []string{"code"}},
		{Name: "costcenters", Version: V1, Path: "getcostcenters", Pagination: SinglePage, PrimaryKey: []string{"code"}},
		{Name: "projects", Version: V1, Path: "getprojects", Pagination: SinglePage, PrimaryKey: []string{"code"}},
		{Name: "vendors", Version: V1, Path: "getvendors", Pagination: SinglePage, PrimaryKey: []string{"vendor_id"}},
		{Name: "fixed_assets", Version: V2, Path: "getfixassets", Pagination: SinglePage, PrimaryKey: []string{"fa_id"}},
		{Name: "fixed_asset_locations", Version: V2, Path: "getfalocations", Pagination: SinglePage},
		{Name: "locations", Version: V2, Path: "getlocations", Pagination: SinglePage, PrimaryKey: []string{"location_id"}},
		{Name: "customers", Version: V1, Path: "getcustomers", Pagination: SinglePage, PrimaryKey: []string{"customer_id"}},
		// getpaymenttypes returns HTTP 500 when called with an empty body.
		{Name: "payment_types", Version: V2, Path: "getpaymenttypes", Pagination: SinglePage, Params: map[string]any{"param": ""}},
		{Name: "taxes", Version: V1, Path: "gettaxes", Pagination: SinglePage},

		// Transactional resources.
		{Name: "purchase_invoices", Version: V2, Path: "getpurchorders", Pagination: DateWindow, PrimaryKey: []string{"PIHId"}, Incremental: true},
		{Name: "sales_invoices", Version: V2, Path: "getinvoices", Pagination: DateWindow, PrimaryKey: []string{"SIHId"}, Incremental: true},
		{Name: "gl_batches", Version: V1, Path: "GetGLBatchesFull", Pagination: DateWindow, PrimaryKey: []string{"GLBId"}, Incremental: true, Params: map[string]any{"WithLines": 1}},
		{Name: "payments", Version: V2, Path: "getpayments", Pagination: DateWindow, PrimaryKey: []string{"PHId"}, Incremental: true},
	}
}

// Lookup finds a catalog endpoint by resource name.
func Lookup(name string) (Endpoint, bool) {
	for _, e := range Catalog() {
		if e.Name == name {
			return e, true
		}
	}
	return Endpoint{}, false
}
