package prediction

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrNoPrediction  = errors.New("no prediction to save")
	ErrStoreDisabled = errors.New("prediction store is disabled")
)

// StoreWriteError wraps a failed append to the record store. The prediction
// it was saving stays in the session and can be saved again.
type StoreWriteError struct {
	Err error
}

func (e *StoreWriteError) Error() string {
	return fmt.Sprintf("error saving prediction: %v", e.Err)
}

func (e *StoreWriteError) Unwrap() error {
	return e.Err
}
