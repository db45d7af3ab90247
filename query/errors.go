package query

import "errors"

var (
	// ErrQueryTypeAlreadyDefined is recorded when a statement type setter is
	// called on a query that already has a different type.
	ErrQueryTypeAlreadyDefined = errors.New("query type already defined")

	// ErrUnknownType is returned for casts the dialect cannot express.
	ErrUnknownType = errors.New("unknown type")

	// ErrParamCountMismatch is recorded when keys, values and types passed
	// to a bind helper differ in length.
	ErrParamCountMismatch = errors.New("parameter count mismatch")

	// ErrRowNumberDefined is recorded when SelectRowNumber is called twice.
	ErrRowNumberDefined = errors.New("row number already selected")
)
