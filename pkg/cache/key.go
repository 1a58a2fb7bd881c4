package cache

import (
	"fmt"
	"sort"
	"strings"
)

// Key identifies a cached endpoint response. Requests with the same path and
// parameters map to the same key regardless of parameter ordering.
type Key struct {
	// Path is the versioned request path (e.g. "v1/getcustomers").
	Path string

	// Params are the request parameters sent in the POST body.
	Params map[string]any
}

// String generates a deterministic cache key string.
// Format: aktiva:cache:path:param1=val1:param2=val2
func (k Key) String() string {
	parts := []string{"aktiva", "cache", strings.Trim(k.Path, "/")}

	if len(k.Params) > 0 {
		keys := make([]string, 0, len(k.Params))
		for key := range k.Params {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			parts = append(parts, fmt.Sprintf("%s=%v", key, k.Params[key]))
		}
	}

	return strings.Join(parts, ":")
}
