package common

import "errors"

// ErrRecordNotFound is shared by every model so callers can map missing
// rows to a 404 without caring which service produced the error.
var ErrRecordNotFound = errors.New("record not found")
