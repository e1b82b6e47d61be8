package trainer

import "fmt"

// InsufficientDataError means sampling cannot form a valid batch from the
// current index, e.g. fewer than 2 eligible labels. The caller may retry
// with relaxed constraints or treat it as fatal if it persists.
type InsufficientDataError struct {
	Reason string
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: %s", e.Reason)
}

// NoValidTripletsError means a batch violated the sampler's invariant that
// every batch supports at least one (anchor, positive, negative) triple.
// This is an internal-consistency fault and is always fatal.
type NoValidTripletsError struct {
	Reason string
}

func (e *NoValidTripletsError) Error() string {
	return fmt.Sprintf("no valid triplets: %s", e.Reason)
}

// NumericInstabilityError means distances or loss came out non-finite.
// The step is reported and skipped; training continues.
type NumericInstabilityError struct {
	Stage string
}

func (e *NumericInstabilityError) Error() string {
	return fmt.Sprintf("non-finite values in %s", e.Stage)
}
