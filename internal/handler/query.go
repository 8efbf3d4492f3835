package handler

import (
	"fmt"
	"net/url"
	"strconv"
)

// QueryError reports an invalid query parameter.
type QueryError struct {
	Param  string
	Value  string
	Reason string
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Param, e.Value, e.Reason)
}

// intParam parses the integer parameter name in [lo, hi], returning def when
// it is absent or empty.
func intParam(q url.Values, name string, def, lo, hi int) (int, error) {
	raw := q.Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &QueryError{Param: name, Value: raw, Reason: "not an integer"}
	}
	if v < lo || v > hi {
		return 0, &QueryError{Param: name, Value: raw, Reason: fmt.Sprintf("must be between %d and %d", lo, hi)}
	}
	return v, nil
}

func boolParam(q url.Values, name string) (bool, error) {
	raw := q.Get(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, &QueryError{Param: name, Value: raw, Reason: "not a boolean"}
	}
	return v, nil
}

// stringParam returns the value of name, or def when the parameter is absent.
// A present but empty value is returned as is.
func stringParam(q url.Values, name, def string) string {
	if !q.Has(name) {
		return def
	}
	return q.Get(name)
}
