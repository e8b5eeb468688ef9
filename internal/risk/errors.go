package risk

import "errors"

var (
	// ErrInsufficientData means the dataset cannot train a classifier:
	// it is empty or holds fewer than two distinct labels.
	ErrInsufficientData = errors.New("insufficient training data")

	// ErrNotTrained is returned when predicting with a model that was never trained.
	ErrNotTrained = errors.New("model not trained")

	// ErrOutOfRange is returned when decoding a code the codec never assigned.
	ErrOutOfRange = errors.New("label code out of range")

	// ErrUnknownLabel is returned when encoding a label the codec was not fit on.
	ErrUnknownLabel = errors.New("unknown label")

	// ErrInvalidColumns is returned for an empty, duplicated or unknown feature column list.
	ErrInvalidColumns = errors.New("invalid feature columns")
)
