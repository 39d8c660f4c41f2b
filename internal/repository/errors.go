package repository

import "errors"

// ErrStaleWrite is returned when a conditional update matched zero rows:
// another writer changed the record after we read it.
var ErrStaleWrite = errors.New("record changed since read, write discarded")
