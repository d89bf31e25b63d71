package repository

import "errors"

// ErrNotFound is returned when a requested record is not found in the repository.
// This abstracts away the underlying storage implementation (SQL, NoSQL, etc.)
// from the service layer.
var ErrNotFound = errors.New("record not found")

// ErrStatusConflict is returned when a conditional update matched the record
// but not the required vote status (e.g. publishing a vote that is not a draft).
var ErrStatusConflict = errors.New("vote status does not allow this operation")

// ErrDuplicate is returned when a ballot already exists for the unit and
// overwriting was not requested.
var ErrDuplicate = errors.New("record already exists")
