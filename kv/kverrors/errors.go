// Package kverrors defines the recoverable error kinds a command handler can
// raise. The session responder switches on the cause of a returned error and
// maps each kind to its wire response; see kv/server.
package kverrors

// OperationError means a well-formed command could not be carried out: stack
// underflow, unknown table or key, division by zero, and the like. The
// session answers FAILED and keeps serving (rolling back first when a
// transaction is open).
type OperationError struct {
	Reason string
}

func (e *OperationError) Error() string {
	return e.Reason
}

func NewOperationError(reason string) *OperationError {
	return &OperationError{Reason: reason}
}

// FailedTransaction is a transaction-specific failure, such as a nested
// BEGIN or a table lock that could not be acquired. The session rolls the
// transaction back, answers FAILED, and keeps serving.
type FailedTransaction struct {
	Reason string
}

func (e *FailedTransaction) Error() string {
	return e.Reason
}

func NewFailedTransaction(reason string) *FailedTransaction {
	return &FailedTransaction{Reason: reason}
}
