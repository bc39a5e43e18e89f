package gathercontent

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	wordBoundary = regexp.MustCompile(`(^.)|([-_\s]+.)`)
	nonWordChars = regexp.MustCompile(`[^A-Za-z0-9\-_]+`)
)

// ToCamelCase turns a field label into a content key:
// "Hero Title" becomes "heroTitle", "product_image-url" becomes
// "productImageUrl". Characters outside [A-Za-z0-9-_] are dropped.
func ToCamelCase(label string) string {
	s := strings.ToLower(strings.TrimSpace(label))
	s = wordBoundary.ReplaceAllStringFunc(s, func(match string) string {
		runes := []rune(match)
		return string(unicode.ToUpper(runes[len(runes)-1]))
	})
	s = nonWordChars.ReplaceAllString(s, "")
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// mapContent keys every structure field by its camel-cased label. Absent
// and empty values map to nil.
func mapContent(content map[string]any, structure *Structure) map[string]MappedField {
	if structure == nil {
		return nil
	}
	mapped := make(map[string]MappedField)
	for _, group := range structure.Groups {
		for _, field := range group.Fields {
			var value any
			if v, ok := content[field.UUID]; ok && !isEmptyValue(v) {
				value = v
			}
			mapped[ToCamelCase(field.Label)] = MappedField{Field: field, Value: value}
		}
	}
	return mapped
}

func isEmptyValue(v any) bool {
	switch value := v.(type) {
	case nil:
		return true
	case string:
		return value == ""
	case bool:
		return !value
	case float64:
		return value == 0
	default:
		return false
	}
}
