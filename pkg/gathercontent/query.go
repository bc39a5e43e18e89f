package gathercontent

import (
	"net/url"
	"strconv"
	"strings"
)

// QueryParam is one query-string parameter. Order is preserved in the URL.
//
// Supported value types are string, int, int64, bool, []string and []int64.
// Nil values, empty strings and empty slices are omitted.
type QueryParam struct {
	Key   string
	Value any
}

// BuildQuery renders params as a query string starting with "?", or ""
// when nothing survives. Slices are comma-joined before encoding.
func BuildQuery(params []QueryParam) string {
	parts := make([]string, 0, len(params))
	for _, p := range params {
		value, ok := queryValue(p.Value)
		if !ok {
			continue
		}
		parts = append(parts, p.Key+"="+encodeComponent(value))
	}
	if len(parts) == 0 {
		return ""
	}
	return "?" + strings.Join(parts, "&")
}

func queryValue(v any) (string, bool) {
	switch value := v.(type) {
	case nil:
		return "", false
	case string:
		return value, value != ""
	case int:
		return strconv.Itoa(value), true
	case int64:
		return strconv.FormatInt(value, 10), true
	case bool:
		return strconv.FormatBool(value), true
	case []string:
		return strings.Join(value, ","), len(value) > 0
	case []int64:
		if len(value) == 0 {
			return "", false
		}
		ids := make([]string, len(value))
		for i, id := range value {
			ids[i] = strconv.FormatInt(id, 10)
		}
		return strings.Join(ids, ","), true
	default:
		return "", false
	}
}

// encodeComponent percent-encodes a query value, spaces included.
func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
