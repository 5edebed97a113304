package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrNotApproved = errors.New("term is not approved")
	ErrEmptyReason = errors.New("rejection reason is required")
)

// TransitionError reports an illegal term status change. From holds the
// status actually observed at the time of the attempt, which for concurrent
// writers is the post-transition state the loser saw.
type TransitionError struct {
	TermID    string
	From      string
	Attempted string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("illegal transition for term %s: %s -> %s", e.TermID, e.From, e.Attempted)
}

// IsTransition reports whether err is (or wraps) a TransitionError.
func IsTransition(err error) bool {
	var te *TransitionError
	return errors.As(err, &te)
}
