package enhancer

// ParameterTypeItems is the parameter type of the GatherContent item selector.
const ParameterTypeItems = "gathercontent-items"

// ParameterValue is the stored value of an item selector parameter.
type ParameterValue struct {
	ItemIDs []string `json:"itemIds"`
	Source  string   `json:"source,omitempty"`
}

// Parameter is one component parameter handed over by the host.
type Parameter struct {
	Name  string          `json:"name"`
	Type  string          `json:"type"`
	Value *ParameterValue `json:"value"`
}

// Component identifies the component instance owning a parameter.
type Component struct {
	Type    string `json:"type"`
	Variant string `json:"variant,omitempty"`
}

// Context carries host flags for one enhancement pass.
type Context struct {
	// Preview selects the preview client of each source.
	Preview bool
}

// ParameterKind classifies a parameter type.
type ParameterKind int

const (
	// KindUnsupported is any parameter this package does not resolve.
	KindUnsupported ParameterKind = iota

	// KindItems is the GatherContent item selector.
	KindItems
)

var parameterKinds = map[string]ParameterKind{
	ParameterTypeItems: KindItems,
}

// KindOf maps a parameter type to its kind. Unknown types are KindUnsupported.
func KindOf(parameterType string) ParameterKind {
	if kind, ok := parameterKinds[parameterType]; ok {
		return kind
	}
	return KindUnsupported
}

// String returns the kind's name.
func (k ParameterKind) String() string {
	switch k {
	case KindItems:
		return "items"
	default:
		return "unsupported"
	}
}

// ShouldQueue reports whether the batch handler should receive the
// parameter: it must be an item selector whose value carries an id list.
func ShouldQueue(p Parameter) bool {
	return KindOf(p.Type) == KindItems && p.Value != nil && p.Value.ItemIDs != nil
}

// hasItemIDs reports whether a parameter asks for anything at all.
// Parameters without ids resolve to null.
func hasItemIDs(p Parameter) bool {
	return p.Value != nil && len(p.Value.ItemIDs) > 0
}

func sourceOf(p Parameter) string {
	if p.Value == nil || p.Value.Source == "" {
		return "default"
	}
	return p.Value.Source
}
