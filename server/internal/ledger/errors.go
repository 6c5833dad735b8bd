package ledger

import (
	"errors"
	"fmt"
)

// ErrOutOfSequence is returned when a store is asked to write an event at a
// position other than the end of the ledger.
var ErrOutOfSequence = errors.New("ledger append out of sequence")

// SequenceError describes a rejected append. Want is -1 when the store only
// knows the position was taken.
type SequenceError struct {
	ID        Identity
	Want      int
	Got       int
	Unmounted bool
}

func (e *SequenceError) Error() string {
	if e.Unmounted {
		return fmt.Sprintf("ledger %s: append seq %d before mount", e.ID, e.Got)
	}
	if e.Want < 0 {
		return fmt.Sprintf("ledger %s: seq %d already recorded", e.ID, e.Got)
	}
	return fmt.Sprintf("ledger %s: append seq %d, next is %d", e.ID, e.Got, e.Want)
}

func (e *SequenceError) Unwrap() error {
	return ErrOutOfSequence
}
