package dealersync

import "errors"

var (
	ErrInvalidWindow       = errors.New("window start is after window end")
	ErrUnknownDocumentType = errors.New("unknown document type")
	ErrDealerNotFound      = errors.New("dealer not found")
	ErrDealerInactive      = errors.New("dealer is inactive")
	ErrJobNotFound         = errors.New("job not found")
	ErrStorageUnavailable  = errors.New("storage unavailable")
)

// APIError carries the partner's own failure message through to the job
// record without rewording.
type APIError struct {
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// PersistError marks failures from the upsert phase so callers can tell them
// apart from fetch failures.
type PersistError struct {
	Err error
}

func (e *PersistError) Error() string {
	return "persist failed: " + e.Err.Error()
}

func (e *PersistError) Unwrap() error {
	return e.Err
}
