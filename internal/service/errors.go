package service

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Guard failures are typed so the handler layer can map each kind to a
// transport code with errors.As. All of them roll the transaction back; none
// are retried inside the core.

// InvalidStateError: an operation was attempted from a state that does not
// permit it. Carries the document, its current state and the attempted
// transition so the caller can decide what to do.
type InvalidStateError struct {
	Entity    string
	ID        string
	State     string
	Operation string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s %s %s in state %q", e.Operation, e.Entity, e.ID, e.State)
}

// EmptyDocumentError: a document has zero lines where the operation requires
// at least one.
type EmptyDocumentError struct {
	Entity    string
	ID        string
	Operation string
}

func (e *EmptyDocumentError) Error() string {
	return fmt.Sprintf("cannot %s %s %s with no lines", e.Operation, e.Entity, e.ID)
}

// ReferenceNotFoundError: a referenced document does not exist or does not
// belong to the calling tenant. The two cases are deliberately not
// distinguished in the message.
type ReferenceNotFoundError struct {
	Entity string
	ID     string
}

func (e *ReferenceNotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// AlreadyFinalizedError: a transfer was validated or cancelled a second time.
type AlreadyFinalizedError struct {
	Entity string
	ID     string
	State  string
}

func (e *AlreadyFinalizedError) Error() string {
	return fmt.Sprintf("%s %s already %s", e.Entity, e.ID, e.State)
}

// ImbalanceError: the generated move lines do not balance. This is a
// programming-error class, not user input validation; it aborts the
// transaction before the unbalanced entry can be posted.
type ImbalanceError struct {
	MoveID string
	Debit  decimal.Decimal
	Credit decimal.Decimal
}

func (e *ImbalanceError) Error() string {
	return fmt.Sprintf("move %s is unbalanced: debit %s != credit %s",
		e.MoveID, e.Debit.String(), e.Credit.String())
}
