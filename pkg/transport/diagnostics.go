package transport

import (
	"strings"

	"github.com/NamanBalaji/urlconf/internal/errors"
)

// Rule maps an engine diagnostic phrase to an error kind.
//
// The phrases are matched against free text produced by the engine; they are
// advisory, not a contract. Anything unmatched is a generic failure.
type Rule struct {
	Phrase string
	Kind   error
}

// DefaultRules are checked in order, case-insensitively. They cover both the
// classic libcurl wording and the wording of the Go network stack.
var DefaultRules = []Rule{
	{"Couldn't resolve host", errors.ErrHostUnreachable},
	{"Could not resolve host", errors.ErrHostUnreachable},
	{"no such host", errors.ErrHostUnreachable},

	{"No route to host", errors.ErrNetworkUnreachable},
	{"Network is unreachable", errors.ErrNetworkUnreachable},

	{"connect() timed out", errors.ErrTimeout},
	{"Connection timed out", errors.ErrTimeout},
	{"Operation timed out", errors.ErrTimeout},
	{"i/o timeout", errors.ErrTimeout},
	{"deadline exceeded", errors.ErrTimeout},

	{"Couldn't open file", errors.ErrNotFound},
}

// Classify returns the kind of the first rule whose phrase appears in
// diagnostic, or errors.ErrGenericFailure.
func Classify(rules []Rule, diagnostic string) error {
	if diagnostic == "" {
		return errors.ErrGenericFailure
	}

	lower := strings.ToLower(diagnostic)
	for _, r := range rules {
		if strings.Contains(lower, strings.ToLower(r.Phrase)) {
			return r.Kind
		}
	}

	return errors.ErrGenericFailure
}
