package schema

import (
	"errors"
	"fmt"
)

var (
	ErrNotExist = errors.New("not_exist_record")

	ErrInvalidPrice          = errors.New("invalid_price")
	ErrNotOwnerOrNotApproved = errors.New("not_owner_or_not_approved")
	ErrItemNotFound          = errors.New("item_not_found")
	ErrAlreadySold           = errors.New("already_sold")
	ErrInsufficientPayment   = errors.New("insufficient_payment")
	ErrTransferRejected      = errors.New("transfer_rejected")
	ErrUnknownIntent         = errors.New("unknown_intent_kind")

	ErrTokenNotExist = errors.New("token_not_exist")
	ErrNotImplement  = errors.New("method not implement")
)

// BatchIntentError reports the first failing intent of an aborted batch.
// The batch had zero net effect when this error is returned.
type BatchIntentError struct {
	Index int   // zero-based position in the submitted batch
	Err   error // inner error kind
}

func (e *BatchIntentError) Error() string {
	return fmt.Sprintf("batch_intent_failed: index=%d, err=%v", e.Index, e.Err)
}

func (e *BatchIntentError) Unwrap() error {
	return e.Err
}
