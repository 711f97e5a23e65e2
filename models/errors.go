package models

import "errors"

// Hard failures of a run. Callers wrap these with detail and match them with errors.Is.
var (
	ErrNetwork = errors.New("network error")
	ErrIO      = errors.New("io error")
)
