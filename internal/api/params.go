package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/jfenske/chessmate/internal/database"
)

// queryInt64 parses an optional integer query parameter, returning nil when
// the parameter is absent.
func queryInt64(r *http.Request, name string) (*int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q", name, raw)
	}
	return &v, nil
}

// queryString returns an optional string query parameter as a pointer.
func queryString(r *http.Request, name string) *string {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	return &raw
}

// listOptions parses the shared skip/limit/order_by/reverse paging
// parameters. Defaults and the limit cap are applied by the store.
func listOptions(r *http.Request) (database.ListOptions, error) {
	opts := database.ListOptions{
		OrderBy: r.URL.Query().Get("order_by"),
		Reverse: r.URL.Query().Get("reverse") == "true",
	}

	if raw := r.URL.Query().Get("skip"); raw != "" {
		skip, err := strconv.Atoi(raw)
		if err != nil || skip < 0 {
			return opts, fmt.Errorf("invalid skip %q", raw)
		}
		opts.Skip = skip
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 || limit > database.MaxListLimit {
			return opts, fmt.Errorf("invalid limit %q (must be 1-%d)", raw, database.MaxListLimit)
		}
		opts.Limit = limit
	}
	return opts, nil
}
