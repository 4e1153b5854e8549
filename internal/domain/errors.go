package domain

import "errors"

// Construction-time errors. The engine refuses to start without a valid
// symptom matrix; it must never silently degrade to an empty rule set.
var (
	ErrMatrixNotFound    = errors.New("symptom matrix file not found")
	ErrMatrixUnparseable = errors.New("symptom matrix is not valid YAML")
	ErrMatrixInvalid     = errors.New("symptom matrix failed validation")
)

// ErrReportNotFound is returned by report stores when no report exists for
// the requested identifier.
var ErrReportNotFound = errors.New("triage report not found")
