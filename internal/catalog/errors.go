package catalog

import (
	"errors"
	"fmt"
)

var (
	errMissingSlash = errors.New("repository path has no root namespace")
	errEmptySegment = errors.New("repository path has an empty root or name")
)

// ValidationError reports a malformed entry in a raw registry listing
type ValidationError struct {
	Index  int    // position in the listing
	Path   string // offending repository path
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid repository #%d %q: %s", e.Index, e.Path, e.Reason)
}
