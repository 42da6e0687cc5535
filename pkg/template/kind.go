package template

// Kind identifies the rendering stage a template belongs to. Open and Closed
// are the primary template kinds: open templates are public and can be
// wrapped again, closed templates are private.
type Kind uint8

const (
	Open Kind = iota
	Closed
	Wrapper
	Layout
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	switch k {
	case Open:
		return "open"
	case Closed:
		return "closed"
	case Wrapper:
		return "wrapper"
	case Layout:
		return "layout"
	default:
		return "unknown"
	}
}

// EventSuffix returns the suffix used for per-stage lifecycle events.
func (k Kind) EventSuffix() string {
	switch k {
	case Layout:
		return "layout"
	case Wrapper:
		return "wrapper"
	default:
		return "template"
	}
}

// Dir returns the lookup directory for the kind under every template path.
func (k Kind) Dir() string {
	switch k {
	case Layout:
		return "layouts"
	case Wrapper:
		return "wrappers"
	case Closed:
		return "private"
	default:
		return "public"
	}
}
