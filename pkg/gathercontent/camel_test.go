package gathercontent

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestToCamelCase(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Hero Title", "heroTitle"},
		{"product_image-url", "productImageUrl"},
		{"  Leading and trailing  ", "leadingAndTrailing"},
		{"ALL CAPS LABEL", "allCapsLabel"},
		{"Price (USD)", "priceusd"},
		{"multiple   spaces", "multipleSpaces"},
		{"single", "single"},
		{"", ""},
		{"!!!", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ToCamelCase(tt.input); got != tt.want {
				t.Errorf("ToCamelCase(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestMapContent(t *testing.T) {
	structure := &Structure{Groups: []Group{
		{Name: "Main", Fields: []Field{
			{UUID: "a", Label: "Hero Title", FieldType: "text"},
			{UUID: "b", Label: "Body", FieldType: "text"},
		}},
		{Name: "Meta", Fields: []Field{
			{UUID: "c", Label: "Is Featured", FieldType: "choice_checkbox"},
			{UUID: "d", Label: "Tags", FieldType: "choice_checkbox"},
		}},
	}}
	content := map[string]any{
		"a": "Welcome",
		"b": "",
		"d": []any{"x"},
	}

	got := mapContent(content, structure)
	values := make(map[string]any, len(got))
	for key, field := range got {
		values[key] = field.Value
	}

	want := map[string]any{
		"heroTitle":  "Welcome",
		"body":       nil,
		"isFeatured": nil,
		"tags":       []any{"x"},
	}
	if diff := cmp.Diff(want, values); diff != "" {
		t.Errorf("mapped values mismatch (-want +got):\n%s", diff)
	}
	if got["isFeatured"].FieldType != "choice_checkbox" {
		t.Errorf("field metadata not carried: %+v", got["isFeatured"])
	}
}

func TestMapContent_NoStructure(t *testing.T) {
	if got := mapContent(map[string]any{"a": "x"}, nil); got != nil {
		t.Errorf("mapContent(nil structure) = %v, want nil", got)
	}
}
