package request

// Method is the HTTP method of a Request.
type Method int

const (
	MethodNone Method = iota
	MethodGet
	MethodPost
)

// ParseMethod accepts exactly "GET" and "POST". Anything else is MethodNone.
func ParseMethod(s string) Method {
	switch s {
	case "GET":
		return MethodGet
	case "POST":
		return MethodPost
	default:
		return MethodNone
	}
}

func (m Method) String() string {
	switch m {
	case MethodGet:
		return "GET"
	case MethodPost:
		return "POST"
	default:
		return "NONE"
	}
}
