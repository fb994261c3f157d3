package repos

import "fmt"

// TransactionError marks a fatal persistence failure: the clear step or the
// final commit went wrong and the transaction was rolled back. Row-level
// failures are not TransactionErrors; they are skipped and counted instead.
type TransactionError struct {
	Op  string
	Err error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Op, e.Err)
}

func (e *TransactionError) Unwrap() error { return e.Err }
