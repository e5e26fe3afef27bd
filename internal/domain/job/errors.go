package job

import "errors"

// Sentinel kinds for catalog errors.
var (
	ErrMissingID    = errors.New("job id is empty")
	ErrDuplicateID  = errors.New("duplicate job id")
	ErrInvalidMatch = errors.New("match score out of range")
	ErrLoadCatalog  = errors.New("load catalog failed")
)
