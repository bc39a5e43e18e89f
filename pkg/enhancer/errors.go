package enhancer

import "fmt"

// BatchError is what every task of a source receives when that source's
// batch call fails as a whole.
type BatchError struct {
	Source string
	Tasks  int
	Err    error
}

// Error implements the error interface.
func (e *BatchError) Error() string {
	return fmt.Sprintf("Failed loading GatherContent items batch (%d): %v", e.Tasks, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *BatchError) Unwrap() error {
	return e.Err
}
