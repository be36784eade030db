package catalog

import "errors"

var (
	errEmptyKey   = errors.New("empty numeric key")
	errNotNumeric = errors.New("key is not a decimal integer")
)
