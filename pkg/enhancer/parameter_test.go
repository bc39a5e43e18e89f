package enhancer

import "testing"

func TestKindOf(t *testing.T) {
	tests := []struct {
		parameterType string
		want          ParameterKind
	}{
		{ParameterTypeItems, KindItems},
		{"contentful-entry", KindUnsupported},
		{"text", KindUnsupported},
		{"", KindUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.parameterType, func(t *testing.T) {
			if got := KindOf(tt.parameterType); got != tt.want {
				t.Errorf("KindOf(%q) = %v, want %v", tt.parameterType, got, tt.want)
			}
		})
	}
}

func TestShouldQueue(t *testing.T) {
	tests := []struct {
		name  string
		param Parameter
		want  bool
	}{
		{name: "items with ids", param: Parameter{Type: ParameterTypeItems, Value: &ParameterValue{ItemIDs: []string{"1"}}}, want: true},
		{name: "items with empty list", param: Parameter{Type: ParameterTypeItems, Value: &ParameterValue{ItemIDs: []string{}}}, want: true},
		{name: "items without list", param: Parameter{Type: ParameterTypeItems, Value: &ParameterValue{}}, want: false},
		{name: "items without value", param: Parameter{Type: ParameterTypeItems}, want: false},
		{name: "other type", param: Parameter{Type: "text", Value: &ParameterValue{ItemIDs: []string{"1"}}}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldQueue(tt.param); got != tt.want {
				t.Errorf("ShouldQueue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGroupKey(t *testing.T) {
	if got := GroupKey([]string{"30", "10", "20"}); got != "30|10|20" {
		t.Errorf("GroupKey() = %q", got)
	}
	if GroupKey([]string{"1", "2"}) == GroupKey([]string{"2", "1"}) {
		t.Error("GroupKey should keep the given order")
	}
}

func TestSourceOf(t *testing.T) {
	if got := sourceOf(Parameter{Value: &ParameterValue{}}); got != "default" {
		t.Errorf("sourceOf(empty) = %q, want default", got)
	}
	if got := sourceOf(Parameter{Value: &ParameterValue{Source: "docs"}}); got != "docs" {
		t.Errorf("sourceOf(docs) = %q", got)
	}
}
