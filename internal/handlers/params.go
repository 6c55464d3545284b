package handlers

import "net/http"

// getParam reads a pat route parameter (stored as ":name" in the query),
// then a plain query parameter, then a net/http path value.
func getParam(r *http.Request, name string) string {
	if r == nil {
		return ""
	}

	if val := r.URL.Query().Get(":" + name); val != "" {
		return val
	}

	if val := r.URL.Query().Get(name); val != "" {
		return val
	}

	return r.PathValue(name)
}
