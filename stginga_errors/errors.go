// Provides common stginga errors definitions.
package stginga_errors

import "errors"

var (
	ErrMalformedTable  = errors.New("stginga: malformed DQ definition table")
	ErrUnsupportedRank = errors.New("stginga: DQ array must be two-dimensional")
	ErrShapeMismatch   = errors.New("stginga: array data does not match its shape")
	ErrNoImage         = errors.New("stginga: no image data")
)
