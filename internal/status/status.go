package status

// Status is the lifecycle stage of one open-request.
type Status = int32

const (
	Unopened Status = iota
	Parsing
	ControlParamExtraction
	Fetching
	Ready
	Failed
	Closed
)

var names = map[Status]string{
	Unopened:               "unopened",
	Parsing:                "parsing",
	ControlParamExtraction: "control-param-extraction",
	Fetching:               "fetching",
	Ready:                  "ready",
	Failed:                 "failed",
	Closed:                 "closed",
}

// String names s for logs and CLI output.
func String(s Status) string {
	if name, ok := names[s]; ok {
		return name
	}

	return "unknown"
}

// Terminal reports whether an open-request in s will not make progress.
func Terminal(s Status) bool {
	return s == Ready || s == Failed || s == Closed
}
