package carebill

import (
	"errors"
	"fmt"

	"github.com/xraph/carebill/billing"
	"github.com/xraph/carebill/temporal"
)

// Sentinel errors for common failure scenarios.
var (
	// General errors
	ErrNotFound      = errors.New("carebill: not found")
	ErrAlreadyExists = errors.New("carebill: already exists")
	ErrInvalidInput  = errors.New("carebill: invalid input")
	ErrForbidden     = errors.New("carebill: forbidden")

	// Customer lifecycle errors
	ErrCustomerNotFound     = errors.New("carebill: customer not found")
	ErrCustomerStopped      = errors.New("carebill: customer already stopped")
	ErrCustomerArchived     = errors.New("carebill: customer is archived")
	ErrCustomerNotStopped   = errors.New("carebill: customer must be stopped first")
	ErrUnbilledEvents       = errors.New("carebill: customer has unbilled events")
	ErrCustomerHasDocuments = errors.New("carebill: customer has billing documents")
	ErrInvalidStopReason    = errors.New("carebill: invalid stop reason")
	ErrInvalidStopDate      = errors.New("carebill: stop date precedes customer creation")
	ErrInvalidArchiveDate   = errors.New("carebill: archive date precedes stop date")

	// Subscription errors
	ErrSubscriptionNotFound = errors.New("carebill: subscription not found")
	ErrDuplicateService     = errors.New("carebill: customer already subscribed to service")

	// Funding errors
	ErrFundingNotFound    = errors.New("carebill: funding not found")
	ErrFundingConflict    = errors.New("carebill: subscription already has an active funding")
	ErrFundingPlanID      = errors.New("carebill: funding plan id mismatch with payer teletransmission")
	ErrFundingDates       = errors.New("carebill: funding end date must be after start date")
	ErrFundingCapExceeded = billing.ErrCapExceeded
	ErrPayerNotFound      = errors.New("carebill: third party payer not found")

	// Event billing errors
	ErrEventNotFound      = errors.New("carebill: event not found")
	ErrEventAlreadyBilled = errors.New("carebill: event already billed")
	ErrEventCancelled     = errors.New("carebill: event is cancelled")
	ErrInvalidDuration    = billing.ErrInvalidDuration
	ErrVersionNotFound    = temporal.ErrNoVersion

	// Document errors
	ErrBillNotFound        = errors.New("carebill: bill not found")
	ErrCreditNoteNotFound  = errors.New("carebill: credit note not found")
	ErrBillSlipNotFound    = errors.New("carebill: bill slip not found")
	ErrBillingItemNotFound = errors.New("carebill: billing item not found")
	ErrEmptyBillingItems   = errors.New("carebill: manual bill requires at least one billing item")
	ErrDocumentNotEditable = errors.New("carebill: document is no longer editable")
	ErrExternalDocument    = errors.New("carebill: document was not issued internally")

	// Company errors
	ErrCompanyNotFound = errors.New("carebill: company not found")

	// Invariant violations: bugs in allocation or version resolution,
	// never bad user input. Logged and surfaced as internal errors.
	ErrVersionOverlap    = temporal.ErrOverlap
	ErrSequenceCollision = errors.New("carebill: duplicate document number issued")

	// Store errors
	ErrStoreNotReady     = errors.New("carebill: store not ready")
	ErrStoreClosed       = errors.New("carebill: store is closed")
	ErrTransactionFailed = errors.New("carebill: transaction failed")
	ErrMigrationFailed   = errors.New("carebill: migration failed")
)

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("carebill: validation failed for %s: %s", e.Field, e.Message)
}

// MultiError represents multiple errors that occurred.
type MultiError struct {
	Errors []error
}

func (e MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "carebill: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("carebill: %d errors occurred", len(e.Errors))
}

// Add adds an error to the multi-error.
func (e *MultiError) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors returns true if there are any errors.
func (e MultiError) HasErrors() bool {
	return len(e.Errors) > 0
}

// First returns the first error or nil.
func (e MultiError) First() error {
	if len(e.Errors) > 0 {
		return e.Errors[0]
	}
	return nil
}

// IsNotFound returns true for absent entities. Deliberately covers
// cross-company references too, so callers cannot distinguish "wrong
// company" from "does not exist".
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrCompanyNotFound) ||
		errors.Is(err, ErrCustomerNotFound) ||
		errors.Is(err, ErrSubscriptionNotFound) ||
		errors.Is(err, ErrFundingNotFound) ||
		errors.Is(err, ErrPayerNotFound) ||
		errors.Is(err, ErrEventNotFound) ||
		errors.Is(err, ErrBillNotFound) ||
		errors.Is(err, ErrCreditNoteNotFound) ||
		errors.Is(err, ErrBillSlipNotFound) ||
		errors.Is(err, ErrBillingItemNotFound)
}

// IsConflict returns true when the request collides with current state and
// the client should choose a different action rather than retry.
func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadyExists) ||
		errors.Is(err, ErrFundingConflict) ||
		errors.Is(err, ErrDuplicateService) ||
		errors.Is(err, ErrEventAlreadyBilled) ||
		errors.Is(err, ErrCustomerStopped) ||
		errors.Is(err, ErrCustomerArchived) ||
		errors.Is(err, ErrCustomerNotStopped) ||
		errors.Is(err, ErrUnbilledEvents) ||
		errors.Is(err, ErrCustomerHasDocuments) ||
		errors.Is(err, ErrDocumentNotEditable)
}

// IsValidation returns true for malformed or missing input.
func IsValidation(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInvalidStopReason) ||
		errors.Is(err, ErrInvalidStopDate) ||
		errors.Is(err, ErrInvalidArchiveDate) ||
		errors.Is(err, ErrFundingDates) ||
		errors.Is(err, ErrFundingPlanID) ||
		errors.Is(err, ErrEmptyBillingItems) ||
		errors.Is(err, ErrInvalidDuration)
}

// IsInvariantViolation returns true for failures that indicate a bug in the
// engine rather than bad input, such as overlapping versions or colliding numbers.
func IsInvariantViolation(err error) bool {
	return errors.Is(err, ErrVersionOverlap) ||
		errors.Is(err, ErrSequenceCollision)
}
