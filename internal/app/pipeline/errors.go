package pipeline

import (
	"fmt"
	"sort"
	"strings"
)

// PartialFailure reports items that failed while the rest of a stage
// completed. Results for the successful items are returned alongside it.
type PartialFailure struct {
	Stage    Stage
	Total    int
	Failures map[string]error
}

// Error implements error.
func (e *PartialFailure) Error() string {
	keys := e.Keys()
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %v", k, e.Failures[k]))
	}
	return fmt.Sprintf("%s: %d of %d items failed: %s", e.Stage, len(keys), e.Total, strings.Join(parts, "; "))
}

// Keys returns the failed item keys in sorted order.
func (e *PartialFailure) Keys() []string {
	keys := make([]string, 0, len(e.Failures))
	for k := range e.Failures {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// newPartialFailure returns nil when failures is empty.
func newPartialFailure(stage Stage, total int, failures map[string]error) error {
	if len(failures) == 0 {
		return nil
	}
	return &PartialFailure{Stage: stage, Total: total, Failures: failures}
}
