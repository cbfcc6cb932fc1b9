package model

import "errors"

// ErrDuplicateAlert is returned by alert inserts that would violate the
// at-most-one-unresolved-alert-per-(project, type) invariant. Callers
// treat it as a benign no-op, so the insert is safe to retry.
var ErrDuplicateAlert = errors.New("unresolved alert already exists")

// ErrNotFound is returned when a referenced entity does not exist.
var ErrNotFound = errors.New("not found")
