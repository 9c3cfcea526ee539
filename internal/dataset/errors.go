package dataset

import "errors"

var (
	// ErrMissingFile is returned when the text or labels file does not exist.
	ErrMissingFile = errors.New("dataset: missing file")
	// ErrMalformedLabel is returned when a label line is not an integer.
	ErrMalformedLabel = errors.New("dataset: malformed label")
	// ErrIndexOutOfRange is returned for accesses outside [0, Len()).
	ErrIndexOutOfRange = errors.New("dataset: index out of range")
	// ErrRestoreFormat is returned when a path does not hold a persisted dataset.
	ErrRestoreFormat = errors.New("dataset: not a persisted dataset")
	// ErrLengthMismatch is returned when text and label line counts differ.
	ErrLengthMismatch = errors.New("dataset: text and label counts differ")
)
