package cube

import (
	"fmt"
	"strings"
)

// NotFoundError reports a name query that matched no card in the
// searched scope.
type NotFoundError struct {
	Query string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no card matching %q", e.Query)
}

// AmbiguousError reports a name query that matched more than one card.
// Names lists every candidate so the caller can disambiguate.
type AmbiguousError struct {
	Query string
	Names []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("%q matches multiple cards: %s", e.Query, strings.Join(e.Names, ", "))
}

// DecodeError reports a malformed card-sequence token.
type DecodeError struct {
	Token  string
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("cannot decode card token %q: %s", e.Token, e.Reason)
}
