package payrun

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Common payment run errors
var (
	// ErrNoEligibleInvoices is returned when a run is built from an empty
	// invoice set.
	ErrNoEligibleInvoices = errors.New("payment run requires at least one approved invoice")

	// ErrIneligibleInvoice is returned when any selected invoice is not in
	// APPROVED status. Runs are all-or-nothing: one bad invoice rejects the
	// whole selection rather than silently dropping it.
	ErrIneligibleInvoice = errors.New("invoice is not approved for payment")

	// ErrInvalidTransition is returned for a lifecycle transition that is not
	// permitted from the run's current status.
	ErrInvalidTransition = errors.New("invalid payment run status transition")
)

// IneligibleInvoiceError identifies the invoice that blocked run creation.
type IneligibleInvoiceError struct {
	InvoiceID     uuid.UUID
	InvoiceNumber string
	Status        string
}

// Error implements the error interface.
func (e *IneligibleInvoiceError) Error() string {
	return fmt.Sprintf("payrun: invoice %s has status %s, expected APPROVED",
		e.InvoiceNumber, e.Status)
}

// Is implements error matching for Go 1.13+ error handling.
func (e *IneligibleInvoiceError) Is(target error) bool {
	return errors.Is(target, ErrIneligibleInvoice)
}

// TransitionError describes a rejected lifecycle transition.
type TransitionError struct {
	RunName string
	From    string
	To      string
}

// Error implements the error interface.
func (e *TransitionError) Error() string {
	return fmt.Sprintf("payrun: run %q cannot move from %s to %s", e.RunName, e.From, e.To)
}

// Is implements error matching for Go 1.13+ error handling.
func (e *TransitionError) Is(target error) bool {
	return errors.Is(target, ErrInvalidTransition)
}
