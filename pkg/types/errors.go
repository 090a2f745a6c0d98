package types

import "errors"

var (
	errTooManyParts = errors.New("types: identifier has more than one colon")
	errBadFormat    = errors.New("types: identifier must be \"namespace:name\" with both parts non-empty")
)
