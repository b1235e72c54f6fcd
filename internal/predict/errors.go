package predict

import (
	"fmt"
	"strings"
)

// MissingFeatureColumnsError reports every required feature column absent
// from an input table. It is raised before any classifier work happens.
type MissingFeatureColumnsError struct {
	Columns []string
}

func (e *MissingFeatureColumnsError) Error() string {
	return fmt.Sprintf("predict: missing required feature columns: %s", strings.Join(e.Columns, ", "))
}

// ClassifierInvocationError wraps a failure from the injected classifier.
// The pipeline never retries; the failure surfaces to the caller as-is.
type ClassifierInvocationError struct {
	Err error
}

func (e *ClassifierInvocationError) Error() string {
	return fmt.Sprintf("predict: classifier invocation failed: %v", e.Err)
}

func (e *ClassifierInvocationError) Unwrap() error { return e.Err }
