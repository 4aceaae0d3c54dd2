package http

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"finadvisor/internal/core"
	"finadvisor/internal/middleware/trace"
)

// parseID reads the {id} path segment.
func parseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, malformed("invalid id")
	}
	return id, nil
}

// queryInt returns def when key is absent and rejects anything that is not
// an integer.
func queryInt(q url.Values, key string, def int) (int, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, malformed("invalid " + key)
	}
	return n, nil
}

// queryAmount parses an optional amount. ok is false when key is absent.
func queryAmount(q url.Values, key string) (amount decimal.Decimal, ok bool, err error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return decimal.Zero, false, nil
	}
	amount, err = core.ParseAmount(v)
	if err != nil {
		return decimal.Zero, false, err
	}
	return amount, true, nil
}

// optional turns a queryAmount result into a nil-able value.
func optional(v decimal.Decimal, ok bool) *decimal.Decimal {
	if !ok {
		return nil
	}
	return &v
}

// requireAmount is queryAmount for parameters that must be present.
func requireAmount(q url.Values, key string) (decimal.Decimal, error) {
	amount, ok, err := queryAmount(q, key)
	if err != nil {
		return decimal.Zero, err
	}
	if !ok {
		return decimal.Zero, malformed("missing " + key)
	}
	return amount, nil
}

// queryWindow reads start and end as YYYY-MM-DD. The end day is included.
func queryWindow(q url.Values) (core.Window, error) {
	var w core.Window
	if v := strings.TrimSpace(q.Get("start")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return core.Window{}, err
		}
		w.Start = d.Time
	}
	if v := strings.TrimSpace(q.Get("end")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return core.Window{}, err
		}
		w.End = endOfDay(d)
	}
	return w, w.Validate()
}

func endOfDay(d core.Date) time.Time {
	return d.Time.Add(24*time.Hour - time.Nanosecond)
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

func requestID(r *http.Request) string {
	return trace.GetRequestID(r.Context())
}
