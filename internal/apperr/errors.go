package apperr

import "errors"

var (
	// ErrClassifyUnavailable signals that the model classifier could not
	// produce a full classification; the caller falls back to heuristics.
	ErrClassifyUnavailable = errors.New("classifier unavailable")
	// ErrWriteFailed marks a fatal materialization error for a single item.
	ErrWriteFailed = errors.New("vault write failed")
	// ErrAlreadyExists reports a destination path collision at commit time.
	ErrAlreadyExists = errors.New("already exists")
)
